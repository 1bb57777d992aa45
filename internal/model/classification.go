package model

import (
	"regexp"
	"time"
)

// Confidence labels the model is asked to use.
const (
	ConfidenceHigh   = "High"
	ConfidenceMedium = "Medium"
	ConfidenceLow    = "Low"
)

// HTSPattern matches an HTS heading with optional statistical suffixes.
var HTSPattern = regexp.MustCompile(`\b\d{4}\.\d{2}(?:\.\d{2}(?:\.\d{2})?)?\b`)

// ExtractHTSCode returns the first HTS-shaped substring of text, or "".
func ExtractHTSCode(text string) string {
	return HTSPattern.FindString(text)
}

// Classification is the outcome of one classification request.
type Classification struct {
	CreatedAt   time.Time                 `json:"created_at"`
	Structured  *StructuredClassification `json:"structured,omitempty"`
	Description string                    `json:"description"`
	Country     string                    `json:"country,omitempty"`
	Text        string                    `json:"classification"`
	HTSCode     string                    `json:"hts_code,omitempty"`
	Matches     []Match                   `json:"matches"`
	HasImage    bool                      `json:"has_image,omitempty"`
}

// StructuredClassification is the validated JSON form of a classification.
type StructuredClassification struct {
	HTSCode        string   `json:"hts_code"`
	Confidence     string   `json:"confidence"`
	DutyCommentary string   `json:"duty_commentary"`
	Rationale      string   `json:"rationale"`
	CitedRulings   []string `json:"cited_rulings"`
}
