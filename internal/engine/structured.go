package engine

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/Veraticus/customs-ai/internal/common"
	"github.com/Veraticus/customs-ai/internal/model"
)

// ParseStructured decodes and validates a JSON classification. Every cited
// ruling must come from matches.
func ParseStructured(text string, matches []model.Match) (*model.StructuredClassification, error) {
	span, err := common.ExtractJSONSpan(text, '{', '}')
	if err != nil {
		return nil, err
	}

	var out model.StructuredClassification
	decoder := json.NewDecoder(strings.NewReader(span))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: failed to parse classification JSON: %w", common.ErrMalformedOutput, err)
	}

	if err := validateStructured(&out, matches); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrMalformedOutput, err)
	}

	return &out, nil
}

func validateStructured(s *model.StructuredClassification, matches []model.Match) error {
	s.HTSCode = strings.TrimSpace(s.HTSCode)
	if !model.HTSPattern.MatchString(s.HTSCode) || model.ExtractHTSCode(s.HTSCode) != s.HTSCode {
		return fmt.Errorf("hts_code %q is not an HTS number", s.HTSCode)
	}

	switch s.Confidence {
	case model.ConfidenceHigh, model.ConfidenceMedium, model.ConfidenceLow:
	default:
		return fmt.Errorf("confidence %q must be High, Medium or Low", s.Confidence)
	}

	known := model.RulingNumbers(matches)
	for _, cited := range s.CitedRulings {
		if !slices.Contains(known, cited) {
			return fmt.Errorf("cited ruling %s is not among the retrieved rulings", cited)
		}
	}

	return nil
}
