package monitor

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/customs-ai/internal/common"
	"github.com/Veraticus/customs-ai/internal/model"
)

// Analysis error kinds recorded on a snapshot.
const (
	AnalysisMalformed = "malformed_output"
	AnalysisUpstream  = "upstream"
	AnalysisFailed    = "failed"
)

func buildAnalysisPrompt(docs []model.TariffDocument) string {
	entries := make([]string, 0, len(docs))
	for _, d := range docs {
		entries = append(entries, fmt.Sprintf("Title: %s\nDate: %s\nURL: %s\nAbstract: %s", d.Title, d.Date, d.URL, d.Abstract))
	}

	var b strings.Builder
	b.WriteString("You are a US customs and trade compliance expert helping importers understand recent tariff changes.\n\n")
	b.WriteString("ALL of the following documents are Presidential Proclamations or Executive Orders that modify US import tariffs or trade policy. They are ALL significant for importers.\n\n")
	b.WriteString("For EACH document, write a plain-English summary of what it means for importers.\n\n")
	b.WriteString("DOCUMENTS:\n")
	b.WriteString(strings.Join(entries, "\n\n"))
	b.WriteString("\n\nRespond with ONLY a valid JSON array. No markdown, no backticks, no explanation.\n")
	b.WriteString("Every item must have significant set to true.\n\n")
	b.WriteString(`Format:
[
  {
    "summary": "Plain English: what changed and who is affected",
    "affected": "specific products or countries affected",
    "type": "increase or decrease or new or modification or suspension",
    "date": "YYYY-MM-DD",
    "url": "the document url",
    "significant": true
  }
]`)
	return b.String()
}

// ParseActions extracts the JSON array of actions from a model reply,
// tolerating code fences and surrounding prose.
func ParseActions(text string) ([]model.TariffAction, error) {
	span, err := common.ExtractJSONSpan(text, '[', ']')
	if err != nil {
		return nil, err
	}

	var actions []model.TariffAction
	if err := json.Unmarshal([]byte(span), &actions); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrMalformedOutput, err)
	}
	if actions == nil {
		actions = []model.TariffAction{}
	}
	return actions, nil
}

func analysisErrorKind(err error) string {
	switch {
	case errors.Is(err, common.ErrMalformedOutput):
		return AnalysisMalformed
	case errors.Is(err, common.ErrUpstream):
		return AnalysisUpstream
	default:
		return AnalysisFailed
	}
}
