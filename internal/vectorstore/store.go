// Package vectorstore queries and populates the ruling vector index.
//
// Every backend returns matches ordered by descending score and capped
// at k. Beyond that no re-ranking or filtering is applied; an empty index
// yields an empty, non-nil slice.
package vectorstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/Veraticus/customs-ai/internal/model"
)

// Store is a nearest-neighbour index of rulings.
type Store interface {
	Query(ctx context.Context, vector []float32, k int) ([]model.Match, error)
	Upsert(ctx context.Context, id string, vector []float32, meta map[string]string) error
}

// Config selects a backend.
type Config struct {
	Backend          string
	PineconeHost     string
	PineconeAPIKey   string
	QdrantAddr       string
	QdrantCollection string
}

// Open constructs the configured backend. The returned close function is
// never nil.
func Open(cfg Config) (Store, func() error, error) {
	noop := func() error { return nil }

	switch strings.ToLower(cfg.Backend) {
	case "pinecone", "":
		s, err := NewPinecone(cfg.PineconeHost, cfg.PineconeAPIKey)
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil
	case "qdrant":
		s, err := NewQdrant(cfg.QdrantAddr, cfg.QdrantCollection)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	case "memory":
		return NewMemory(), noop, nil
	default:
		return nil, noop, fmt.Errorf("unsupported vector backend: %s", cfg.Backend)
	}
}
