// Package embedding converts text into vectors using a remote embedding model.
package embedding

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultMaxChars is the input cap applied before text is submitted.
const DefaultMaxChars = 8000

// Vector sizes of the default models.
const (
	OpenAIDimensions = 1536
	GeminiDimensions = 768
)

// Embedder turns text into a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// Config selects and configures an embedding provider.
type Config struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
	MaxChars int
}

// NewEmbedder creates an embedder for cfg.Provider.
func NewEmbedder(ctx context.Context, cfg Config) (Embedder, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai", "":
		return NewOpenAIEmbedder(cfg)
	case "gemini":
		return NewGeminiEmbedder(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}

// Truncate cuts text to at most maxChars runes. A non-positive maxChars
// leaves text unchanged.
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(text) <= maxChars {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxChars])
}
