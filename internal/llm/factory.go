package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/customs-ai/internal/common"
)

// NewClient creates a provider client wrapped with rate limiting and retry.
func NewClient(ctx context.Context, cfg Config) (Client, error) {
	var (
		client Client
		err    error
	)

	switch strings.ToLower(cfg.Provider) {
	case "openai", "":
		client, err = newOpenAIClient(cfg)
	case "anthropic":
		client, err = newAnthropicClient(cfg)
	case "gemini":
		client, err = newGeminiClient(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	return Wrap(client, cfg, slog.Default()), nil
}

// guardedClient applies the rate limiter and retry policy to a provider.
type guardedClient struct {
	client    Client
	limiter   *rateLimiter
	logger    *slog.Logger
	retryOpts common.RetryOptions
}

// Wrap adds rate limiting and retry to client. MaxRetries of zero or one
// means a single attempt.
func Wrap(client Client, cfg Config, logger *slog.Logger) Client {
	if logger == nil {
		logger = slog.Default()
	}
	delay := cfg.RetryDelay
	if delay == 0 {
		delay = time.Second
	}

	return &guardedClient{
		client:  client,
		limiter: newRateLimiter(cfg.RateLimit),
		logger:  logger,
		retryOpts: common.RetryOptions{
			MaxAttempts:  max(cfg.MaxRetries, 1),
			InitialDelay: delay,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
		},
	}
}

func (g *guardedClient) Complete(ctx context.Context, req Request) (Response, error) {
	var resp Response
	start := time.Now()

	err := common.WithRetry(ctx, func() error {
		if err := g.limiter.wait(ctx); err != nil {
			return &common.RetryableError{Err: err, Retryable: false}
		}

		var callErr error
		resp, callErr = g.client.Complete(ctx, req)
		if callErr != nil && !errors.Is(callErr, common.ErrUpstream) {
			return &common.RetryableError{Err: callErr, Retryable: false}
		}
		return callErr
	}, g.retryOpts)
	if err != nil {
		return Response{}, err
	}

	g.logger.Debug("LLM completion finished",
		"duration", time.Since(start),
		"prompt_tokens", resp.PromptTokens,
		"completion_tokens", resp.CompletionTokens)

	return resp, nil
}

// Close releases the provider client when it holds a connection.
func (g *guardedClient) Close() error {
	if c, ok := g.client.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
