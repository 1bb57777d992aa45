package engine

import (
	"context"

	"github.com/Veraticus/customs-ai/internal/model"
)

// Embedder turns a product description into a query vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Searcher returns the rulings nearest to a query vector.
type Searcher interface {
	Query(ctx context.Context, vector []float32, k int) ([]model.Match, error)
}
