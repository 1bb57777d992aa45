// Package monitor polls the Federal Register for trade actions and writes a
// plain-English snapshot summarized by the chat model.
package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/Veraticus/customs-ai/internal/common"
	"github.com/Veraticus/customs-ai/internal/embedding"
	"github.com/Veraticus/customs-ai/internal/llm"
	"github.com/Veraticus/customs-ai/internal/model"
)

const (
	keepDocuments = 20
	rawDocuments  = 10

	// DisplayLayout formats last_checked_display.
	DisplayLayout = "January 02, 2006 at 03:04 PM"
)

// Searcher runs one document query.
type Searcher interface {
	Search(ctx context.Context, sc SearchConfig, since time.Time) ([]model.TariffDocument, error)
}

// Publisher announces a fresh snapshot.
type Publisher interface {
	Publish(ctx context.Context, snap *model.Snapshot) error
}

// Config controls a monitor.
type Config struct {
	SnapshotPath string
	Searches     []SearchConfig
	DaysBack     int
	MaxTokens    int
}

// Monitor builds tariff snapshots.
type Monitor struct {
	searcher  Searcher
	client    llm.Client
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
	cfg       Config
}

// New creates a monitor. publisher may be nil.
func New(searcher Searcher, client llm.Client, publisher Publisher, cfg Config, logger *slog.Logger) *Monitor {
	if len(cfg.Searches) == 0 {
		cfg.Searches = DefaultSearches
	}
	if cfg.DaysBack <= 0 {
		cfg.DaysBack = 365
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 3000
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		searcher:  searcher,
		client:    client,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
		cfg:       cfg,
	}
}

// Fetch runs every search and returns the newest relevant documents along
// with the terms whose query failed.
func (m *Monitor) Fetch(ctx context.Context) ([]model.TariffDocument, []string) {
	since := m.now().AddDate(0, 0, -m.cfg.DaysBack)
	c := newCollector()
	var failed []string

	for _, sc := range m.cfg.Searches {
		docs, err := m.searcher.Search(ctx, sc, since)
		if err != nil {
			m.logger.Warn("Federal Register query failed", "term", sc.Term, "error", err)
			failed = append(failed, sc.Term)
			continue
		}
		c.add(docs)
	}

	docs := c.newest(keepDocuments)
	m.logger.Info("Found trade-relevant documents", "count", len(docs))
	for _, d := range docs {
		m.logger.Debug("Document", "date", d.Date, "title", d.Title)
	}
	return docs, failed
}

// Analyze asks the model for a summary of docs. It never fails: errors are
// logged and reported as a kind alongside an empty action list.
func (m *Monitor) Analyze(ctx context.Context, docs []model.TariffDocument) ([]model.TariffAction, string) {
	if len(docs) == 0 {
		return []model.TariffAction{}, ""
	}

	resp, err := m.client.Complete(ctx, llm.Request{
		Messages:  []llm.Message{llm.UserMessage(buildAnalysisPrompt(docs))},
		MaxTokens: m.cfg.MaxTokens,
	})
	if err != nil {
		m.logger.Warn("Tariff analysis failed", "error", err)
		return []model.TariffAction{}, analysisErrorKind(err)
	}

	actions, err := ParseActions(resp.Text)
	if err != nil {
		m.logger.Warn("Tariff analysis returned no usable JSON", "error", err, "response", truncateLog(resp.Text))
		return []model.TariffAction{}, analysisErrorKind(err)
	}
	return actions, ""
}

// Run performs one check, writes the snapshot and publishes it.
func (m *Monitor) Run(ctx context.Context) (*model.Snapshot, error) {
	docs, failed := m.Fetch(ctx)
	actions, analysisErr := m.Analyze(ctx, docs)

	now := m.now()
	raw := docs
	if len(raw) > rawDocuments {
		raw = raw[:rawDocuments]
	}
	snap := &model.Snapshot{
		LastChecked:        now.Format(time.RFC3339),
		LastCheckedDisplay: now.Format(DisplayLayout),
		AnalysisError:      analysisErr,
		SignificantActions: actions,
		RawDocuments:       raw,
		FailedQueries:      failed,
	}

	if m.cfg.SnapshotPath != "" {
		if err := common.WriteJSONAtomic(m.cfg.SnapshotPath, snap); err != nil {
			return snap, fmt.Errorf("failed to save snapshot: %w", err)
		}
		m.logger.Info("Saved tariff snapshot", "path", m.cfg.SnapshotPath, "actions", len(actions))
	}

	if m.publisher != nil {
		if err := m.publisher.Publish(ctx, snap); err != nil {
			m.logger.Warn("Failed to publish snapshot", "error", err)
		}
	}

	return snap, nil
}

// Watch runs a check immediately and then every interval until ctx is done.
func (m *Monitor) Watch(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("%w: monitor interval must be positive", common.ErrInvalidConfig)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := m.Run(ctx); err != nil {
			m.logger.Error("Tariff check failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// LoadSnapshot reads a snapshot file. A missing file is common.ErrNotFound.
func LoadSnapshot(path string) (*model.Snapshot, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path comes from configuration
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("tariff snapshot %s: %w", path, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot %s: %w", path, err)
	}
	return &snap, nil
}

func truncateLog(s string) string {
	const limit = 300
	if cut := embedding.Truncate(s, limit); cut != s {
		return cut + "..."
	}
	return s
}
