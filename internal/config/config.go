package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all customs settings.
type Config struct {
	LLM            LLMConfig            `mapstructure:"llm"`
	Embedding      EmbeddingConfig      `mapstructure:"embedding"`
	Vector         VectorConfig         `mapstructure:"vector"`
	Classification ClassificationConfig `mapstructure:"classification"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Scraper        ScraperConfig        `mapstructure:"scraper"`
	Monitor        MonitorConfig        `mapstructure:"monitor"`
	Feedback       FeedbackConfig       `mapstructure:"feedback"`
	FollowUp       FollowUpConfig       `mapstructure:"followup"`
	Server         ServerConfig         `mapstructure:"server"`
}

// LLMConfig selects the chat-completion provider.
type LLMConfig struct {
	Provider        string        `mapstructure:"provider"`
	Model           string        `mapstructure:"model"`
	OpenAIAPIKey    string        `mapstructure:"openai_api_key"`
	AnthropicAPIKey string        `mapstructure:"anthropic_api_key"`
	GeminiAPIKey    string        `mapstructure:"gemini_api_key"`
	Temperature     float64       `mapstructure:"temperature"`
	MaxRetries      int           `mapstructure:"max_retries"`
	RetryDelay      time.Duration `mapstructure:"retry_delay"`
	RateLimit       int           `mapstructure:"rate_limit"`
}

// EmbeddingConfig selects the embedding provider.
type EmbeddingConfig struct {
	Provider string `mapstructure:"provider"`
	Model    string `mapstructure:"model"`
	MaxChars int    `mapstructure:"max_chars"`
}

// VectorConfig selects the vector index backend.
type VectorConfig struct {
	Backend  string         `mapstructure:"backend"`
	Pinecone PineconeConfig `mapstructure:"pinecone"`
	Qdrant   QdrantConfig   `mapstructure:"qdrant"`
}

// PineconeConfig addresses a Pinecone index data plane.
type PineconeConfig struct {
	APIKey string `mapstructure:"api_key"`
	Host   string `mapstructure:"host"`
	Index  string `mapstructure:"index"`
}

// QdrantConfig addresses a Qdrant gRPC endpoint.
type QdrantConfig struct {
	Addr       string `mapstructure:"addr"`
	Collection string `mapstructure:"collection"`
}

// ClassificationConfig tunes the classification prompt.
type ClassificationConfig struct {
	TopK           int  `mapstructure:"top_k"`
	MaxTokens      int  `mapstructure:"max_tokens"`
	ImageMaxTokens int  `mapstructure:"image_max_tokens"`
	FollowUpTokens int  `mapstructure:"followup_max_tokens"`
	Structured     bool `mapstructure:"structured"`
}

// DatabaseConfig locates the SQLite database holding the ingestion cursor
// and classification history.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// ScraperConfig controls the ruling sweep.
type ScraperConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	UserAgent  string        `mapstructure:"user_agent"`
	Corpus     string        `mapstructure:"corpus"`
	Prefixes   []string      `mapstructure:"prefixes"`
	Span       int           `mapstructure:"span"`
	MaxRulings int           `mapstructure:"max_rulings"`
	MinText    int           `mapstructure:"min_text"`
	MaxText    int           `mapstructure:"max_text"`
	Delay      time.Duration `mapstructure:"delay"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// MonitorConfig controls the Federal Register poll.
type MonitorConfig struct {
	APIURL      string        `mapstructure:"api_url"`
	Snapshot    string        `mapstructure:"snapshot"`
	NATSURL     string        `mapstructure:"nats_url"`
	NATSSubject string        `mapstructure:"nats_subject"`
	DaysBack    int           `mapstructure:"days_back"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Interval    time.Duration `mapstructure:"interval"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// FeedbackConfig locates the feedback log.
type FeedbackConfig struct {
	Path string `mapstructure:"path"`
}

// FollowUpConfig holds the follow-up password gate.
type FollowUpConfig struct {
	Password     string `mapstructure:"password"`
	PasswordHash string `mapstructure:"password_hash"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	data := DataDir()

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.max_retries", 1)
	v.SetDefault("llm.retry_delay", "1s")
	v.SetDefault("llm.rate_limit", 500)

	v.SetDefault("embedding.provider", "openai")
	v.SetDefault("embedding.max_chars", 8000)

	v.SetDefault("vector.backend", "pinecone")
	v.SetDefault("vector.qdrant.addr", "localhost:6334")
	v.SetDefault("vector.qdrant.collection", "cbp_rulings")

	v.SetDefault("classification.top_k", 5)
	v.SetDefault("classification.max_tokens", 600)
	v.SetDefault("classification.image_max_tokens", 800)
	v.SetDefault("classification.followup_max_tokens", 500)
	v.SetDefault("classification.structured", false)

	v.SetDefault("database.path", filepath.Join(data, "customs.db"))

	v.SetDefault("scraper.base_url", "https://rulings.cbp.gov/ruling")
	v.SetDefault("scraper.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	v.SetDefault("scraper.corpus", filepath.Join(data, "rulings.json"))
	v.SetDefault("scraper.prefixes", []string{"N3", "N2", "H2"})
	v.SetDefault("scraper.span", 200)
	v.SetDefault("scraper.max_rulings", 5000)
	v.SetDefault("scraper.min_text", 200)
	v.SetDefault("scraper.max_text", 3000)
	v.SetDefault("scraper.delay", "500ms")
	v.SetDefault("scraper.timeout", "15s")

	v.SetDefault("monitor.api_url", "https://www.federalregister.gov/api/v1/documents.json")
	v.SetDefault("monitor.snapshot", filepath.Join(data, "tariff_updates.json"))
	v.SetDefault("monitor.nats_subject", "customs.tariff.snapshot")
	v.SetDefault("monitor.days_back", 365)
	v.SetDefault("monitor.max_tokens", 3000)
	v.SetDefault("monitor.interval", "0s")
	v.SetDefault("monitor.timeout", "15s")

	v.SetDefault("feedback.path", filepath.Join(data, "feedback.csv"))

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.allowed_origins", []string{"*"})
}

// Load decodes v into a Config, filling API keys from the environment
// and expanding file paths.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	applyEnv(&cfg)

	cfg.Scraper.Corpus = ExpandPath(cfg.Scraper.Corpus)
	cfg.Database.Path = ExpandPath(cfg.Database.Path)
	cfg.Monitor.Snapshot = ExpandPath(cfg.Monitor.Snapshot)
	cfg.Feedback.Path = ExpandPath(cfg.Feedback.Path)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks provider and backend names and numeric bounds.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LLM.Provider) {
	case "openai", "anthropic", "gemini":
	default:
		return fmt.Errorf("invalid configuration: unsupported llm provider %q", c.LLM.Provider)
	}

	switch strings.ToLower(c.Embedding.Provider) {
	case "openai", "gemini":
	default:
		return fmt.Errorf("invalid configuration: unsupported embedding provider %q", c.Embedding.Provider)
	}

	switch strings.ToLower(c.Vector.Backend) {
	case "pinecone", "qdrant", "memory":
	default:
		return fmt.Errorf("invalid configuration: unsupported vector backend %q", c.Vector.Backend)
	}

	if c.Classification.TopK <= 0 {
		return fmt.Errorf("invalid configuration: classification.top_k must be positive, got %d", c.Classification.TopK)
	}
	if c.Scraper.MinText < 0 || c.Scraper.MaxText <= 0 {
		return fmt.Errorf("invalid configuration: scraper text bounds %d..%d", c.Scraper.MinText, c.Scraper.MaxText)
	}

	return nil
}

// applyEnv fills secrets left empty by viper from the conventional variables.
func applyEnv(cfg *Config) {
	if cfg.LLM.OpenAIAPIKey == "" {
		cfg.LLM.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.LLM.AnthropicAPIKey == "" {
		cfg.LLM.AnthropicAPIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if cfg.LLM.GeminiAPIKey == "" {
		cfg.LLM.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.Vector.Pinecone.APIKey == "" {
		cfg.Vector.Pinecone.APIKey = os.Getenv("PINECONE_API_KEY")
	}
	if cfg.Vector.Pinecone.Host == "" {
		cfg.Vector.Pinecone.Host = os.Getenv("PINECONE_HOST")
	}
	if cfg.Vector.Pinecone.Index == "" {
		cfg.Vector.Pinecone.Index = os.Getenv("PINECONE_INDEX")
	}
	if cfg.FollowUp.Password == "" {
		cfg.FollowUp.Password = os.Getenv("APP_PASSWORD")
	}
}

// LoadDotEnv loads the first of paths that exists into the process
// environment. Existing variables are not overridden.
func LoadDotEnv(paths ...string) (string, error) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}

	for _, p := range paths {
		p = ExpandPath(p)
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return "", fmt.Errorf("failed to stat %s: %w", p, err)
		}
		if err := godotenv.Load(p); err != nil {
			return "", fmt.Errorf("failed to load %s: %w", p, err)
		}
		return p, nil
	}

	return "", nil
}
