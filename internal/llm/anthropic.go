package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Veraticus/customs-ai/internal/common"
)

const defaultAnthropicBaseURL = "https://api.anthropic.com/v1"

// anthropicClient implements the Client interface for Anthropic API.
type anthropicClient struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
}

// newAnthropicClient creates a new Anthropic API client.
func newAnthropicClient(cfg Config) (*anthropicClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: anthropic API key is required", common.ErrMissingConfig)
	}

	model := cfg.Model
	if model == "" {
		model = "claude-3-5-sonnet-20241022"
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 600
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultAnthropicBaseURL
	}

	return &anthropicClient{
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimRight(baseURL, "/"),
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   maxTokens,
		httpClient: &http.Client{
			Timeout: RequestTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Complete sends a messages request to Anthropic.
func (c *anthropicClient) Complete(ctx context.Context, req Request) (Response, error) {
	messages := make([]map[string]any, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, map[string]any{"role": m.Role, "content": anthropicContent(m)})
	}

	requestBody := map[string]any{
		"model":       c.model,
		"max_tokens":  maxTokens(req, c.maxTokens),
		"temperature": c.temperature,
		"messages":    messages,
	}
	if req.System != "" {
		requestBody["system"] = req.System
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return Response{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", strings.NewReader(string(jsonBody)))
	if err != nil {
		return Response{}, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Response{}, common.UpstreamError("anthropic", fmt.Errorf("request failed: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, common.UpstreamError("anthropic", fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return Response{}, common.UpstreamError("anthropic", fmt.Errorf("%w: %s", common.ErrRateLimit, string(body)))
	}
	if resp.StatusCode != http.StatusOK {
		return Response{}, common.UpstreamError("anthropic", fmt.Errorf("anthropic API error (status %d): %s", resp.StatusCode, string(body)))
	}

	var response anthropicResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return Response{}, common.UpstreamError("anthropic", fmt.Errorf("failed to parse response: %w", err))
	}

	var text strings.Builder
	for _, block := range response.Content {
		if block.Type == "" || block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return Response{}, common.UpstreamError("anthropic", errors.New("no content in response"))
	}

	return Response{
		Text:             text.String(),
		PromptTokens:     response.Usage.InputTokens,
		CompletionTokens: response.Usage.OutputTokens,
	}, nil
}

// anthropicContent renders message parts as Anthropic content blocks.
func anthropicContent(m Message) []map[string]any {
	blocks := make([]map[string]any, 0, len(m.Parts))
	for _, p := range m.Parts {
		if p.Image != nil {
			blocks = append(blocks, map[string]any{
				"type": "image",
				"source": map[string]string{
					"type":       "base64",
					"media_type": p.Image.mimeType(),
					"data":       base64.StdEncoding.EncodeToString(p.Image.Data),
				},
			})
			continue
		}
		blocks = append(blocks, map[string]any{"type": "text", "text": p.Text})
	}
	return blocks
}
