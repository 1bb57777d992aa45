// Package engine implements the retrieval-augmented classification and
// follow-up orchestrators.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/customs-ai/internal/common"
	"github.com/Veraticus/customs-ai/internal/llm"
	"github.com/Veraticus/customs-ai/internal/model"
)

// Options tunes retrieval depth and completion caps.
type Options struct {
	TopK              int
	MaxTokens         int
	ImageMaxTokens    int
	FollowUpMaxTokens int
	Structured        bool
}

// DefaultOptions returns the standard classification settings.
func DefaultOptions() Options {
	return Options{
		TopK:              5,
		MaxTokens:         600,
		ImageMaxTokens:    800,
		FollowUpMaxTokens: 500,
	}
}

// Engine classifies products against the ruling index.
type Engine struct {
	embedder Embedder
	searcher Searcher
	client   llm.Client
	logger   *slog.Logger
	now      func() time.Time
	opts     Options
}

// New creates an engine from explicitly constructed clients.
func New(embedder Embedder, searcher Searcher, client llm.Client, opts Options, logger *slog.Logger) *Engine {
	defaults := DefaultOptions()
	if opts.TopK <= 0 {
		opts.TopK = defaults.TopK
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaults.MaxTokens
	}
	if opts.ImageMaxTokens <= 0 {
		opts.ImageMaxTokens = defaults.ImageMaxTokens
	}
	if opts.FollowUpMaxTokens <= 0 {
		opts.FollowUpMaxTokens = defaults.FollowUpMaxTokens
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		embedder: embedder,
		searcher: searcher,
		client:   client,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
	}
}

// Request is a product to classify.
type Request struct {
	Description string
	Country     string
	ImageMIME   string
	Image       []byte
}

// Classify embeds the description, retrieves similar rulings and asks the
// model for a classification. An empty description fails with
// common.ErrEmptyDescription before any network call.
//
// In structured mode a response that fails validation is returned together
// with an error wrapping common.ErrMalformedOutput, so the raw text remains
// available to the caller.
func (e *Engine) Classify(ctx context.Context, req Request) (*model.Classification, error) {
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return nil, common.ErrEmptyDescription
	}
	country := strings.TrimSpace(req.Country)

	vector, err := e.embedder.Embed(ctx, description)
	if err != nil {
		return nil, fmt.Errorf("classify: embed description: %w", err)
	}

	matches, err := e.searcher.Query(ctx, vector, e.opts.TopK)
	if err != nil {
		return nil, fmt.Errorf("classify: query rulings: %w", err)
	}
	matches = model.SortMatches(matches, e.opts.TopK)
	if matches == nil {
		matches = []model.Match{}
	}

	prompt := buildClassificationPrompt(description, country, matches, len(req.Image) > 0, e.opts.Structured)

	var images []llm.Image
	limit := e.opts.MaxTokens
	if len(req.Image) > 0 {
		images = append(images, llm.Image{MIMEType: req.ImageMIME, Data: req.Image})
		limit = e.opts.ImageMaxTokens
	}

	resp, err := e.client.Complete(ctx, llm.Request{
		Messages:  []llm.Message{llm.UserMessage(prompt, images...)},
		MaxTokens: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("classify: chat completion: %w", err)
	}
	if strings.TrimSpace(resp.Text) == "" {
		return nil, fmt.Errorf("classify: %w: empty completion", common.ErrUpstream)
	}

	result := &model.Classification{
		CreatedAt:   e.now().UTC(),
		Description: description,
		Country:     country,
		Text:        resp.Text,
		HTSCode:     model.ExtractHTSCode(resp.Text),
		Matches:     matches,
		HasImage:    len(req.Image) > 0,
	}

	if e.opts.Structured {
		structured, err := ParseStructured(resp.Text, matches)
		if err != nil {
			e.logger.Warn("Structured classification rejected", "error", err)
			return result, fmt.Errorf("classify: %w", err)
		}
		result.Structured = structured
		result.HTSCode = structured.HTSCode
	}

	e.logger.Info("Classification complete",
		"matches", len(matches),
		"hts_code", result.HTSCode,
		"has_image", result.HasImage,
		"country", country)

	return result, nil
}

// FollowUpRequest is a question about a prior classification.
type FollowUpRequest struct {
	Classification string
	Description    string
	Country        string
	Question       string
}

// FollowUp answers a compliance question about a prior classification. The
// topic restriction is carried by the prompt only.
func (e *Engine) FollowUp(ctx context.Context, req FollowUpRequest) (string, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return "", common.ErrEmptyQuestion
	}
	if strings.TrimSpace(req.Classification) == "" {
		return "", errors.New("followup: a prior classification is required")
	}

	resp, err := e.client.Complete(ctx, llm.Request{
		Messages:  []llm.Message{llm.UserMessage(buildFollowUpPrompt(req.Classification, req.Description, req.Country, question))},
		MaxTokens: e.opts.FollowUpMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("followup: chat completion: %w", err)
	}
	if strings.TrimSpace(resp.Text) == "" {
		return "", fmt.Errorf("followup: %w: empty completion", common.ErrUpstream)
	}

	return resp.Text, nil
}
