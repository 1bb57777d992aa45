package vectorstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Veraticus/customs-ai/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPineconeQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/query", r.URL.Path)
		assert.Equal(t, "pc-key", r.Header.Get("Api-Key"))

		var req struct {
			Vector          []float32 `json:"vector"`
			TopK            int       `json:"topK"`
			IncludeMetadata bool      `json:"includeMetadata"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 5, req.TopK)
		assert.True(t, req.IncludeMetadata)
		assert.Equal(t, []float32{0.1, 0.2}, req.Vector)

		_, _ = w.Write([]byte(`{"matches":[
			{"id":"N312345","score":0.81,"metadata":{"ruling_number":"N312345","text":"earbuds","url":"https://rulings.cbp.gov/ruling/N312345"}},
			{"id":"N398765","score":0.92,"metadata":{"ruling_number":"N398765","text":"headset","url":"https://rulings.cbp.gov/ruling/N398765"}}
		]}`))
	}))
	defer server.Close()

	p, err := NewPinecone(server.URL, "pc-key")
	require.NoError(t, err)

	matches, err := p.Query(context.Background(), []float32{0.1, 0.2}, 5)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "N398765", matches[0].RulingNumber)
	assert.Equal(t, "N312345", matches[1].RulingNumber)
	assert.Equal(t, "earbuds", matches[1].Text)
}

func TestPineconeUpsert(t *testing.T) {
	var body map[string][]map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/vectors/upsert", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"upsertedCount":1}`))
	}))
	defer server.Close()

	p, err := NewPinecone(server.URL, "pc-key")
	require.NoError(t, err)

	err = p.Upsert(context.Background(), "H201234", []float32{0.5}, map[string]string{"ruling_number": "H201234"})
	require.NoError(t, err)
	require.Len(t, body["vectors"], 1)
	assert.Equal(t, "H201234", body["vectors"][0]["id"])
}

func TestPineconeErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("overloaded"))
	}))
	defer server.Close()

	p, err := NewPinecone(server.URL, "pc-key")
	require.NoError(t, err)

	_, err = p.Query(context.Background(), []float32{1}, 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrUpstream)
	assert.Contains(t, err.Error(), "status 503")
}

func TestNewPineconeConfig(t *testing.T) {
	_, err := NewPinecone("", "key")
	assert.ErrorIs(t, err, common.ErrMissingConfig)
	_, err = NewPinecone("rulings.svc.pinecone.io", "")
	assert.ErrorIs(t, err, common.ErrMissingConfig)

	p, err := NewPinecone("rulings.svc.pinecone.io/", "key")
	require.NoError(t, err)
	assert.Equal(t, "https://rulings.svc.pinecone.io", p.host)
}
