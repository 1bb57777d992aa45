package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/Veraticus/customs-ai/internal/common"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultGeminiModel = "text-embedding-004"

// contentEmbedder is the part of *genai.EmbeddingModel we use.
type contentEmbedder interface {
	EmbedContent(ctx context.Context, parts ...genai.Part) (*genai.EmbedContentResponse, error)
}

// GeminiEmbedder embeds text with a Gemini embedding model.
type GeminiEmbedder struct {
	model    contentEmbedder
	client   *genai.Client
	maxChars int
}

// NewGeminiEmbedder dials the Gemini API.
func NewGeminiEmbedder(ctx context.Context, cfg Config) (*GeminiEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: Gemini API key is required for embeddings", common.ErrMissingConfig)
	}
	if cfg.Model == "" {
		cfg.Model = defaultGeminiModel
	}
	if cfg.MaxChars == 0 {
		cfg.MaxChars = DefaultMaxChars
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiEmbedder{
		client:   client,
		model:    client.EmbeddingModel(cfg.Model),
		maxChars: cfg.MaxChars,
	}, nil
}

// Embed returns the embedding of text, truncated to the configured cap.
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	res, err := e.model.EmbedContent(ctx, genai.Text(Truncate(text, e.maxChars)))
	if err != nil {
		return nil, common.UpstreamError("gemini embeddings", err)
	}
	if res == nil || res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, common.UpstreamError("gemini embeddings", errors.New("no embedding returned"))
	}
	return res.Embedding.Values, nil
}

// Dimensions returns the vector size of the default model.
func (e *GeminiEmbedder) Dimensions() int { return GeminiDimensions }

// Close releases the underlying client.
func (e *GeminiEmbedder) Close() error {
	if e.client == nil {
		return nil
	}
	return e.client.Close()
}
