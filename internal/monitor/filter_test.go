package monitor

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/customs-ai/internal/model"
)

func TestIsTradeRelevant(t *testing.T) {
	tests := []struct {
		title string
		want  bool
	}{
		{title: "Regulating Imports With a Reciprocal Tariff", want: true},
		{title: "Adjusting Imports of Aluminum Into the United States", want: true},
		{title: "Actions Under SECTION 232 of the Trade Expansion Act", want: true},
		{title: "Amendments to the Harmonized Tariff Schedule", want: true},
		{title: "National Day of Remembrance", want: false},
		{title: "", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTradeRelevant(tt.title))
		})
	}
}

func TestCollector_DedupesFirstSeenWins(t *testing.T) {
	c := newCollector()
	c.add([]model.TariffDocument{
		{DocumentNumber: "2025-1", Title: "Tariff action", Abstract: "first"},
		{DocumentNumber: "2025-2", Title: "Proclamation on a holiday"},
	})
	c.add([]model.TariffDocument{
		{DocumentNumber: "2025-1", Title: "Tariff action", Abstract: "second"},
	})

	docs := c.newest(20)
	require.Len(t, docs, 1)
	assert.Equal(t, "first", docs[0].Abstract)
}

func TestCollector_NewestKeepsTwenty(t *testing.T) {
	c := newCollector()
	var batch []model.TariffDocument
	for i := 0; i < 30; i++ {
		batch = append(batch, model.TariffDocument{
			DocumentNumber: fmt.Sprintf("doc-%02d", i),
			Title:          "Import duties",
			Date:           fmt.Sprintf("2025-01-%02d", i%15+1),
		})
	}
	c.add(batch)

	docs := c.newest(20)
	require.Len(t, docs, 20)
	for i := 1; i < len(docs); i++ {
		assert.GreaterOrEqual(t, docs[i-1].Date, docs[i].Date)
	}
	// Equal dates keep insertion order.
	assert.Equal(t, "doc-14", docs[0].DocumentNumber)
	assert.Equal(t, "doc-29", docs[1].DocumentNumber)
}

func TestCollector_EmptyIsNonNil(t *testing.T) {
	docs := newCollector().newest(20)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)
}
