package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"github.com/Veraticus/customs-ai/internal/config"
	"github.com/Veraticus/customs-ai/internal/embedding"
	"github.com/Veraticus/customs-ai/internal/engine"
	"github.com/Veraticus/customs-ai/internal/llm"
	"github.com/Veraticus/customs-ai/internal/storage"
	"github.com/Veraticus/customs-ai/internal/vectorstore"
)

// loadConfig decodes the global viper instance.
func loadConfig() (*config.Config, error) {
	return config.Load(viper.GetViper())
}

// closers runs cleanup functions in reverse order.
type closers []func() error

func (c closers) Close() {
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i](); err != nil {
			slog.Warn("Cleanup failed", "error", err)
		}
	}
}

func llmAPIKey(cfg *config.Config, provider string) string {
	switch strings.ToLower(provider) {
	case "anthropic":
		return cfg.LLM.AnthropicAPIKey
	case "gemini":
		return cfg.LLM.GeminiAPIKey
	default:
		return cfg.LLM.OpenAIAPIKey
	}
}

// newLLMClient creates the chat client shared by classify, followup and monitor.
func newLLMClient(ctx context.Context, cfg *config.Config) (llm.Client, error) {
	return llm.NewClient(ctx, llm.Config{
		Provider:    cfg.LLM.Provider,
		APIKey:      llmAPIKey(cfg, cfg.LLM.Provider),
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxRetries:  cfg.LLM.MaxRetries,
		RetryDelay:  cfg.LLM.RetryDelay,
		RateLimit:   cfg.LLM.RateLimit,
	})
}

func newEmbedder(ctx context.Context, cfg *config.Config) (embedding.Embedder, func() error, error) {
	emb, err := embedding.NewEmbedder(ctx, embedding.Config{
		Provider: cfg.Embedding.Provider,
		Model:    cfg.Embedding.Model,
		APIKey:   llmAPIKey(cfg, cfg.Embedding.Provider),
		MaxChars: cfg.Embedding.MaxChars,
	})
	if err != nil {
		return nil, nil, err
	}
	return emb, closerOf(emb), nil
}

// closerOf returns v's Close method, or a no-op.
func closerOf(v any) func() error {
	if c, ok := v.(io.Closer); ok {
		return c.Close
	}
	return func() error { return nil }
}

func openVectorStore(cfg *config.Config) (vectorstore.Store, func() error, error) {
	return vectorstore.Open(vectorstore.Config{
		Backend:          cfg.Vector.Backend,
		PineconeHost:     cfg.Vector.Pinecone.Host,
		PineconeAPIKey:   cfg.Vector.Pinecone.APIKey,
		QdrantAddr:       cfg.Vector.Qdrant.Addr,
		QdrantCollection: cfg.Vector.Qdrant.Collection,
	})
}

// newEngine wires embedder, vector store and chat client into an engine.
func newEngine(ctx context.Context, cfg *config.Config) (*engine.Engine, closers, error) {
	var cleanup closers

	emb, closeEmb, err := newEmbedder(ctx, cfg)
	if err != nil {
		return nil, cleanup, err
	}
	cleanup = append(cleanup, closeEmb)

	store, closeStore, err := openVectorStore(cfg)
	if err != nil {
		cleanup.Close()
		return nil, nil, err
	}
	cleanup = append(cleanup, closeStore)

	client, err := newLLMClient(ctx, cfg)
	if err != nil {
		cleanup.Close()
		return nil, nil, err
	}
	cleanup = append(cleanup, closerOf(client))

	eng := engine.New(emb, store, client, engine.Options{
		TopK:              cfg.Classification.TopK,
		MaxTokens:         cfg.Classification.MaxTokens,
		ImageMaxTokens:    cfg.Classification.ImageMaxTokens,
		FollowUpMaxTokens: cfg.Classification.FollowUpTokens,
		Structured:        cfg.Classification.Structured,
	}, slog.Default())
	return eng, cleanup, nil
}

// initStorage opens and migrates the customs database.
func initStorage(ctx context.Context, cfg *config.Config) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}
