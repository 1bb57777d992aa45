package vectorstore

import (
	"context"
	"fmt"
	"testing"

	"github.com/Veraticus/customs-ai/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rulingMeta(id string) map[string]string {
	return map[string]string{
		model.MetaRulingNumber: id,
		model.MetaText:         "Ruling text for " + id,
		model.MetaURL:          "https://rulings.cbp.gov/ruling/" + id,
	}
}

func TestMemoryQueryOrdersAndCaps(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	for i := 0; i < 8; i++ {
		id := fmt.Sprintf("N3%05d", i)
		require.NoError(t, store.Upsert(ctx, id, []float32{float32(i), float32(8 - i), 1}, rulingMeta(id)))
	}

	matches, err := store.Query(ctx, []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	require.Len(t, matches, 5)
	assert.Equal(t, "N300007", matches[0].RulingNumber)
	for i := 1; i < len(matches); i++ {
		assert.GreaterOrEqual(t, matches[i-1].Score, matches[i].Score)
	}
	assert.Equal(t, "https://rulings.cbp.gov/ruling/N300007", matches[0].URL)
}

func TestMemoryEmpty(t *testing.T) {
	matches, err := NewMemory().Query(context.Background(), []float32{1, 2, 3}, 5)
	require.NoError(t, err)
	assert.NotNil(t, matches)
	assert.Empty(t, matches)
}

func TestMemoryUpsertReplaces(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	require.NoError(t, store.Upsert(ctx, "H200001", []float32{1, 0}, rulingMeta("H200001")))
	meta := rulingMeta("H200001")
	meta[model.MetaText] = "updated"
	require.NoError(t, store.Upsert(ctx, "H200001", []float32{0, 1}, meta))

	assert.Equal(t, 1, store.Len())
	matches, err := store.Query(ctx, []float32{0, 1}, 5)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "updated", matches[0].Text)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-9)
}

func TestMemoryUpsertValidation(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	assert.Error(t, store.Upsert(ctx, "", []float32{1}, nil))
	assert.Error(t, store.Upsert(ctx, "N300001", nil, nil))
	require.NoError(t, store.Upsert(ctx, "N300001", []float32{1, 0}, nil))
	assert.ErrorContains(t, store.Upsert(ctx, "N300002", []float32{1, 0, 0}, nil), "dimension mismatch")
}

func TestOpenUnknownBackend(t *testing.T) {
	_, closeFn, err := Open(Config{Backend: "faiss"})
	require.Error(t, err)
	assert.NoError(t, closeFn())

	store, closeFn, err := Open(Config{Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, store)
	assert.NoError(t, closeFn())
}
