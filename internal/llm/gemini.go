package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/customs-ai/internal/common"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// contentGenerator is the part of *genai.GenerativeModel we use.
type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// geminiClient implements the Client interface for the Gemini API.
type geminiClient struct {
	client      *genai.Client
	newModel    func(system string, maxTokens int) contentGenerator
	modelName   string
	temperature float64
	maxTokens   int
}

func newGeminiClient(ctx context.Context, cfg Config) (*geminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: Gemini API key is required", common.ErrMissingConfig)
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	g := &geminiClient{
		client:      client,
		modelName:   cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
	if g.modelName == "" {
		g.modelName = "gemini-1.5-pro"
	}
	if g.maxTokens == 0 {
		g.maxTokens = 600
	}
	g.newModel = g.configuredModel
	return g, nil
}

// configuredModel returns a GenerativeModel carrying per-request settings.
func (g *geminiClient) configuredModel(system string, maxTokens int) contentGenerator {
	m := g.client.GenerativeModel(g.modelName)
	m.SetMaxOutputTokens(int32(maxTokens))
	m.SetTemperature(float32(g.temperature))
	if system != "" {
		m.SystemInstruction = genai.NewUserContent(genai.Text(system))
	}
	return m
}

// Complete flattens the conversation into parts for a single generate call.
func (g *geminiClient) Complete(ctx context.Context, req Request) (Response, error) {
	var parts []genai.Part
	for _, m := range req.Messages {
		for _, p := range m.Parts {
			if p.Image != nil {
				format := strings.TrimPrefix(p.Image.mimeType(), "image/")
				parts = append(parts, genai.ImageData(format, p.Image.Data))
				continue
			}
			parts = append(parts, genai.Text(p.Text))
		}
	}

	resp, err := g.newModel(req.System, maxTokens(req, g.maxTokens)).GenerateContent(ctx, parts...)
	if err != nil {
		return Response{}, common.UpstreamError("gemini", err)
	}

	var text strings.Builder
	if resp != nil {
		for _, cand := range resp.Candidates {
			if cand.Content == nil {
				continue
			}
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
			break
		}
	}
	if text.Len() == 0 {
		return Response{}, common.UpstreamError("gemini", errors.New("no content in response"))
	}

	out := Response{Text: text.String()}
	if resp.UsageMetadata != nil {
		out.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return out, nil
}

// Close releases the underlying client.
func (g *geminiClient) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}
