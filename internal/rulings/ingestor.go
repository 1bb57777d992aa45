// Package rulings sweeps candidate CBP ruling IDs and builds the text corpus.
package rulings

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"github.com/Veraticus/customs-ai/internal/common"
	"github.com/Veraticus/customs-ai/internal/corpus"
	"github.com/Veraticus/customs-ai/internal/model"
	"github.com/Veraticus/customs-ai/internal/storage"
)

const defaultFlushEvery = 20

// CursorStore persists sweep progress between runs.
type CursorStore interface {
	LoadCursor(ctx context.Context, prefix string) (model.CursorState, bool, error)
	RecordAttempt(ctx context.Context, a storage.Attempt) error
	ResetCursor(ctx context.Context) error
}

// Config controls the sweep.
type Config struct {
	BaseURL    string
	UserAgent  string
	CorpusPath string
	Prefixes   []string
	Span       int
	MaxRulings int
	MinText    int
	MaxText    int
	FlushEvery int
	Delay      time.Duration
	Timeout    time.Duration
}

// DefaultConfig returns the standard sweep settings.
func DefaultConfig() Config {
	return Config{
		BaseURL:    "https://rulings.cbp.gov/ruling",
		UserAgent:  "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
		Prefixes:   []string{"N3", "N2", "H2"},
		Span:       200,
		MaxRulings: 5000,
		MinText:    200,
		MaxText:    3000,
		FlushEvery: defaultFlushEvery,
		Delay:      500 * time.Millisecond,
		Timeout:    15 * time.Second,
	}
}

// Report summarizes one run.
type Report struct {
	Outcomes  map[model.Outcome]int
	Attempted int
	Stored    int
	Total     int
}

// Ingestor fetches ruling pages and merges them into the corpus.
type Ingestor struct {
	store      CursorStore
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
	progress   common.Progress
	cfg        Config
}

// Option customizes an Ingestor.
type Option func(*Ingestor)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(i *Ingestor) { i.httpClient = c }
}

// WithProgress reports each attempted ID.
func WithProgress(p common.Progress) Option {
	return func(i *Ingestor) { i.progress = p }
}

// New creates an ingestor. Zero fields of cfg take their defaults.
func New(store CursorStore, cfg Config, logger *slog.Logger, opts ...Option) (*Ingestor, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: cursor store is required", common.ErrMissingConfig)
	}
	if cfg.CorpusPath == "" {
		return nil, fmt.Errorf("%w: corpus path is required", common.ErrMissingConfig)
	}
	cfg = withDefaults(cfg)
	for _, p := range cfg.Prefixes {
		if _, err := prefixStart(p); err != nil {
			return nil, err
		}
	}
	if logger == nil {
		logger = slog.Default()
	}

	limit := rate.Inf
	if cfg.Delay > 0 {
		limit = rate.Every(cfg.Delay)
	}

	i := &Ingestor{
		store:      store,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, 1),
		logger:     logger,
		progress:   common.NopProgress{},
		cfg:        cfg,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

func withDefaults(cfg Config) Config {
	d := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = d.BaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.UserAgent == "" {
		cfg.UserAgent = d.UserAgent
	}
	if len(cfg.Prefixes) == 0 {
		cfg.Prefixes = d.Prefixes
	}
	if cfg.Span <= 0 {
		cfg.Span = d.Span
	}
	if cfg.MaxRulings <= 0 {
		cfg.MaxRulings = d.MaxRulings
	}
	if cfg.MinText <= 0 {
		cfg.MinText = d.MinText
	}
	if cfg.MaxText <= 0 {
		cfg.MaxText = d.MaxText
	}
	if cfg.FlushEvery <= 0 {
		cfg.FlushEvery = d.FlushEvery
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = d.Timeout
	}
	return cfg
}

// prefixStart returns int(P[1:]) * 100000.
func prefixStart(prefix string) (int, error) {
	if len(prefix) < 2 {
		return 0, fmt.Errorf("%w: ruling prefix %q", common.ErrInvalidConfig, prefix)
	}
	n, err := strconv.Atoi(prefix[1:])
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: ruling prefix %q", common.ErrInvalidConfig, prefix)
	}
	return n * 100000, nil
}

// RulingNumber formats the candidate ID for prefix and number.
func RulingNumber(prefix string, number int) string {
	return fmt.Sprintf("%s%06d", prefix[:1], number)
}

// RulingURL returns the page address for a ruling number.
func (i *Ingestor) RulingURL(rulingNumber string) string {
	return i.cfg.BaseURL + "/" + rulingNumber
}

// Reset clears the persisted cursor so the next run starts over.
func (i *Ingestor) Reset(ctx context.Context) error {
	if err := i.store.ResetCursor(ctx); err != nil {
		return err
	}
	i.logger.Info("Ingestion cursor reset")
	return nil
}

// Run sweeps each prefix from its saved position and merges accepted pages
// into the corpus. The corpus is flushed periodically and on return, including
// when ctx is cancelled. Attempts reach the cursor only once every ruling
// stored before them is on disk, so a failed flush is retried on the next run.
func (i *Ingestor) Run(ctx context.Context) (*Report, error) {
	existing, err := corpus.Load(i.cfg.CorpusPath)
	if err != nil {
		return nil, err
	}

	report := &Report{Outcomes: make(map[model.Outcome]int), Total: len(existing)}
	rulings := existing
	pending := 0
	var unsaved []storage.Attempt

	flush := func(ctx context.Context) error {
		if pending > 0 {
			if err := corpus.Save(i.cfg.CorpusPath, rulings); err != nil {
				return err
			}
			pending = 0
		}
		for len(unsaved) > 0 {
			if err := i.store.RecordAttempt(ctx, unsaved[0]); err != nil {
				return err
			}
			unsaved = unsaved[1:]
		}
		return nil
	}

	sweepErr := i.sweep(ctx, report, func(a storage.Attempt, r *model.Ruling) error {
		unsaved = append(unsaved, a)
		if r != nil {
			var fresh int
			rulings, fresh = corpus.Merge(rulings, []model.Ruling{*r})
			report.Total = len(rulings)
			pending += fresh
		}
		if pending == 0 || pending >= i.cfg.FlushEvery {
			return flush(ctx)
		}
		return nil
	})

	if err := flush(context.WithoutCancel(ctx)); err != nil {
		return report, err
	}
	if sweepErr != nil {
		return report, sweepErr
	}

	i.logger.Info("Ingestion complete",
		"attempted", report.Attempted,
		"stored", report.Stored,
		"corpus_size", report.Total)
	return report, nil
}

func (i *Ingestor) sweep(ctx context.Context, report *Report, record func(storage.Attempt, *model.Ruling) error) error {
	for _, prefix := range i.cfg.Prefixes {
		begin, err := i.resumePoint(ctx, prefix)
		if err != nil {
			return err
		}

		i.logger.Debug("Sweeping prefix", "prefix", prefix, "from", begin, "to", begin+i.cfg.Span-1)

		for n := begin; n < begin+i.cfg.Span; n++ {
			if err := i.limiter.Wait(ctx); err != nil {
				return err
			}

			number := RulingNumber(prefix, n)
			ruling, outcome, status := i.fetch(ctx, number)
			if ctx.Err() != nil {
				return ctx.Err()
			}

			report.Attempted++
			report.Outcomes[outcome]++
			_ = i.progress.Add(1)

			attempt := storage.Attempt{
				RulingNumber: number,
				Prefix:       prefix,
				Number:       n,
				Outcome:      outcome,
				StatusCode:   status,
			}
			if outcome != model.OutcomeStored {
				if err := record(attempt, nil); err != nil {
					return err
				}
				continue
			}

			report.Stored++
			i.logger.Info("Got ruling", "ruling", number, "stored", report.Stored)
			if err := record(attempt, &ruling); err != nil {
				return err
			}
			if report.Stored >= i.cfg.MaxRulings {
				return nil
			}
		}
	}
	return nil
}

func (i *Ingestor) resumePoint(ctx context.Context, prefix string) (int, error) {
	start, err := prefixStart(prefix)
	if err != nil {
		return 0, err
	}

	state, ok, err := i.store.LoadCursor(ctx, prefix)
	if err != nil {
		return 0, err
	}
	if ok && state.LastNumber >= start {
		return state.LastNumber + 1, nil
	}
	return start, nil
}

// fetch retrieves one ruling page and classifies the result.
func (i *Ingestor) fetch(ctx context.Context, number string) (model.Ruling, model.Outcome, int) {
	url := i.RulingURL(number)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		i.logger.Debug("Failed to build request", "ruling", number, "error", err)
		return model.Ruling{}, model.OutcomeNetwork, 0
	}
	req.Header.Set("User-Agent", i.cfg.UserAgent)

	resp, err := i.httpClient.Do(req)
	if err != nil {
		i.logger.Debug("Fetch failed", "ruling", number, "error", err)
		return model.Ruling{}, model.OutcomeNetwork, 0
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		i.logger.Debug("Unexpected status", "ruling", number, "status", resp.StatusCode)
		return model.Ruling{}, model.OutcomeHTTPStatus, resp.StatusCode
	}

	text, err := ExtractText(resp.Body)
	if err != nil {
		i.logger.Debug("Failed to read page", "ruling", number, "error", err)
		return model.Ruling{}, model.OutcomeNetwork, resp.StatusCode
	}

	if utf8.RuneCountInString(text) <= i.cfg.MinText {
		return model.Ruling{}, model.OutcomeShort, resp.StatusCode
	}

	return model.Ruling{
		RulingNumber: number,
		URL:          url,
		Text:         truncateRunes(text, i.cfg.MaxText),
	}, model.OutcomeStored, resp.StatusCode
}
