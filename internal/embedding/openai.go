package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Veraticus/customs-ai/internal/common"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "text-embedding-ada-002"
)

// OpenAIEmbedder calls the OpenAI embeddings endpoint.
type OpenAIEmbedder struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	maxChars   int
}

// NewOpenAIEmbedder creates an OpenAI embedder.
func NewOpenAIEmbedder(cfg Config) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: OpenAI API key is required for embeddings", common.ErrMissingConfig)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOpenAIBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultOpenAIModel
	}
	if cfg.MaxChars == 0 {
		cfg.MaxChars = DefaultMaxChars
	}

	return &OpenAIEmbedder{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		maxChars:   cfg.MaxChars,
	}, nil
}

type openAIEmbeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed returns the embedding of text, truncated to the configured cap.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(map[string]any{
		"input": Truncate(text, e.maxChars),
		"model": e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, common.UpstreamError("openai embeddings", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, common.UpstreamError("openai embeddings", fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, common.UpstreamError("openai embeddings",
			fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody)))
	}

	var out openAIEmbeddingResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, common.UpstreamError("openai embeddings", fmt.Errorf("failed to parse response: %w", err))
	}
	if len(out.Data) == 0 || len(out.Data[0].Embedding) == 0 {
		return nil, common.UpstreamError("openai embeddings", errors.New("no embedding returned"))
	}

	return out.Data[0].Embedding, nil
}

// Dimensions returns the vector size of the default model.
func (e *OpenAIEmbedder) Dimensions() int { return OpenAIDimensions }
