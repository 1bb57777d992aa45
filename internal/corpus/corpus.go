// Package corpus reads and writes the JSON ruling corpus.
package corpus

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/Veraticus/customs-ai/internal/common"
	"github.com/Veraticus/customs-ai/internal/model"
)

// Load reads the corpus at path. A missing file is an empty corpus.
func Load(path string) ([]model.Ruling, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path comes from configuration
	if errors.Is(err, fs.ErrNotExist) {
		return []model.Ruling{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus: %w", err)
	}

	var rulings []model.Ruling
	if err := json.Unmarshal(data, &rulings); err != nil {
		return nil, fmt.Errorf("failed to parse corpus %s: %w", path, err)
	}
	if rulings == nil {
		rulings = []model.Ruling{}
	}
	return rulings, nil
}

// Save writes rulings to path atomically.
func Save(path string, rulings []model.Ruling) error {
	if rulings == nil {
		rulings = []model.Ruling{}
	}
	return common.WriteJSONAtomic(path, rulings)
}

// Merge appends the rulings of added whose ruling number is not already
// present. Existing entries win and order is preserved. It returns the
// merged slice and how many rulings were new.
func Merge(existing, added []model.Ruling) ([]model.Ruling, int) {
	seen := make(map[string]struct{}, len(existing)+len(added))
	merged := make([]model.Ruling, 0, len(existing)+len(added))

	for _, r := range existing {
		if r.RulingNumber != "" {
			seen[r.RulingNumber] = struct{}{}
		}
		merged = append(merged, r)
	}

	var fresh int
	for _, r := range added {
		if _, ok := seen[r.RulingNumber]; ok {
			continue
		}
		seen[r.RulingNumber] = struct{}{}
		merged = append(merged, r)
		fresh++
	}
	return merged, fresh
}
