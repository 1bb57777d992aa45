package monitor

import (
	"sort"
	"strings"

	"github.com/Veraticus/customs-ai/internal/model"
)

// tradeKeywords mark a document title as trade relevant.
var tradeKeywords = []string{
	"tariff", "duty", "duties", "trade", "import",
	"section 301", "section 232", "section 201",
	"reciprocal", "customs", "harmonized",
}

// IsTradeRelevant reports whether title mentions a trade keyword.
func IsTradeRelevant(title string) bool {
	lower := strings.ToLower(title)
	for _, kw := range tradeKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// collector keeps relevant documents, first seen per document number.
type collector struct {
	seen map[string]struct{}
	docs []model.TariffDocument
}

func newCollector() *collector {
	return &collector{seen: make(map[string]struct{})}
}

func (c *collector) add(docs []model.TariffDocument) {
	for _, d := range docs {
		if !IsTradeRelevant(d.Title) {
			continue
		}
		if _, ok := c.seen[d.DocumentNumber]; ok {
			continue
		}
		c.seen[d.DocumentNumber] = struct{}{}
		c.docs = append(c.docs, d)
	}
}

// newest returns up to n documents, newest publication date first.
func (c *collector) newest(n int) []model.TariffDocument {
	docs := append([]model.TariffDocument(nil), c.docs...)
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].Date > docs[j].Date
	})
	if len(docs) > n {
		docs = docs[:n]
	}
	if docs == nil {
		docs = []model.TariffDocument{}
	}
	return docs
}
