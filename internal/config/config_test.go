package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("CUSTOMS_TEST_DIR", "/srv/customs")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "tilde", in: "~", want: home},
		{name: "tilde path", in: "~/rulings.json", want: filepath.Join(home, "rulings.json")},
		{name: "env var", in: "$CUSTOMS_TEST_DIR/feedback.csv", want: "/srv/customs/feedback.csv"},
		{name: "absolute", in: "/tmp/cursor.db", want: "/tmp/cursor.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.in))
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("PINECONE_HOST", "https://rulings-abc.svc.pinecone.io")

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "sk-test", cfg.LLM.OpenAIAPIKey)
	assert.Equal(t, "https://rulings-abc.svc.pinecone.io", cfg.Vector.Pinecone.Host)
	assert.Equal(t, 5, cfg.Classification.TopK)
	assert.Equal(t, 600, cfg.Classification.MaxTokens)
	assert.Equal(t, 800, cfg.Classification.ImageMaxTokens)
	assert.Equal(t, []string{"N3", "N2", "H2"}, cfg.Scraper.Prefixes)
	assert.Equal(t, 200, cfg.Scraper.MinText)
	assert.Equal(t, 3000, cfg.Scraper.MaxText)
	assert.Equal(t, 365, cfg.Monitor.DaysBack)
	assert.Equal(t, 1, cfg.LLM.MaxRetries)
	assert.True(t, filepath.IsAbs(cfg.Feedback.Path))
}

func TestLoadOverrides(t *testing.T) {
	v := viper.New()
	v.Set("llm.provider", "anthropic")
	v.Set("vector.backend", "qdrant")
	v.Set("scraper.max_rulings", 10)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "qdrant", cfg.Vector.Backend)
	assert.Equal(t, 10, cfg.Scraper.MaxRulings)
	assert.Equal(t, "cbp_rulings", cfg.Vector.Qdrant.Collection)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		set     map[string]any
		name    string
		wantErr string
	}{
		{name: "bad provider", set: map[string]any{"llm.provider": "llama"}, wantErr: "unsupported llm provider"},
		{name: "bad embedding", set: map[string]any{"embedding.provider": "tfidf"}, wantErr: "unsupported embedding provider"},
		{name: "bad backend", set: map[string]any{"vector.backend": "faiss"}, wantErr: "unsupported vector backend"},
		{name: "zero top k", set: map[string]any{"classification.top_k": 0}, wantErr: "top_k must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			for k, val := range tt.set {
				v.Set(k, val)
			}
			_, err := Load(v)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("CUSTOMS_DOTENV_PROBE=loaded\n"), 0600))
	t.Cleanup(func() { _ = os.Unsetenv("CUSTOMS_DOTENV_PROBE") })

	loaded, err := LoadDotEnv(filepath.Join(dir, "missing.env"), envFile)
	require.NoError(t, err)
	assert.Equal(t, envFile, loaded)
	assert.Equal(t, "loaded", os.Getenv("CUSTOMS_DOTENV_PROBE"))

	loaded, err = LoadDotEnv(filepath.Join(dir, "nope.env"))
	require.NoError(t, err)
	assert.Empty(t, loaded)
}
