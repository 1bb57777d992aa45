package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Veraticus/customs-ai/internal/common"
	"github.com/Veraticus/customs-ai/internal/model"
)

// Pinecone talks to a Pinecone index over its REST data plane.
type Pinecone struct {
	httpClient *http.Client
	host       string
	apiKey     string
}

// NewPinecone creates a client for the index served at host.
func NewPinecone(host, apiKey string) (*Pinecone, error) {
	if host == "" {
		return nil, fmt.Errorf("%w: pinecone host is required (set PINECONE_HOST)", common.ErrMissingConfig)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: pinecone API key is required (set PINECONE_API_KEY)", common.ErrMissingConfig)
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}

	return &Pinecone{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		host:       strings.TrimRight(host, "/"),
		apiKey:     apiKey,
	}, nil
}

type pineconeQueryResponse struct {
	Matches []struct {
		Metadata map[string]any `json:"metadata"`
		ID       string         `json:"id"`
		Score    float64        `json:"score"`
	} `json:"matches"`
}

// Query runs a top-k query with metadata.
func (p *Pinecone) Query(ctx context.Context, vector []float32, k int) ([]model.Match, error) {
	var out pineconeQueryResponse
	err := p.post(ctx, "/query", map[string]any{
		"vector":          vector,
		"topK":            k,
		"includeMetadata": true,
	}, &out)
	if err != nil {
		return nil, err
	}

	matches := make([]model.Match, 0, len(out.Matches))
	for _, m := range out.Matches {
		meta := make(map[string]string, len(m.Metadata))
		for key, val := range m.Metadata {
			if s, ok := val.(string); ok {
				meta[key] = s
			} else {
				meta[key] = fmt.Sprint(val)
			}
		}
		matches = append(matches, model.MatchFromMetadata(meta, m.Score))
	}
	return model.SortMatches(matches, k), nil
}

// Upsert writes a single vector with its metadata.
func (p *Pinecone) Upsert(ctx context.Context, id string, vector []float32, meta map[string]string) error {
	return p.post(ctx, "/vectors/upsert", map[string]any{
		"vectors": []map[string]any{{
			"id":       id,
			"values":   vector,
			"metadata": meta,
		}},
	}, nil)
}

func (p *Pinecone) post(ctx context.Context, path string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.host+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return common.UpstreamError("pinecone", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return common.UpstreamError("pinecone", fmt.Errorf("failed to read response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return common.UpstreamError("pinecone", fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody)))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return common.UpstreamError("pinecone", fmt.Errorf("failed to parse response: %w", err))
	}
	return nil
}
