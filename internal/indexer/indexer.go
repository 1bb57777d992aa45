// Package indexer embeds corpus rulings and upserts them into the vector index.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/Veraticus/customs-ai/internal/common"
	"github.com/Veraticus/customs-ai/internal/embedding"
	"github.com/Veraticus/customs-ai/internal/model"
)

// MetaTextChars caps the ruling text stored as vector metadata.
const MetaTextChars = 1000

// Embedder turns ruling text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Upserter writes one point to the index.
type Upserter interface {
	Upsert(ctx context.Context, id string, vector []float32, meta map[string]string) error
}

// Report summarizes an indexing run.
type Report struct {
	Uploaded int
	Skipped  int
}

// Indexer uploads rulings one at a time.
type Indexer struct {
	embedder Embedder
	store    Upserter
	progress common.Progress
	logger   *slog.Logger
}

// New creates an indexer. A nil progress discards updates.
func New(embedder Embedder, store Upserter, progress common.Progress, logger *slog.Logger) *Indexer {
	if progress == nil {
		progress = common.NopProgress{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{embedder: embedder, store: store, progress: progress, logger: logger}
}

// PointID returns the index id for the ruling at position i of the corpus.
func PointID(r model.Ruling, i int) string {
	if r.RulingNumber != "" {
		return r.RulingNumber
	}
	return "ruling-" + strconv.Itoa(i)
}

// Metadata returns the metadata stored with a ruling's vector.
func Metadata(r model.Ruling) map[string]string {
	return map[string]string{
		model.MetaRulingNumber: r.RulingNumber,
		model.MetaText:         embedding.Truncate(r.Text, MetaTextChars),
		model.MetaURL:          r.URL,
	}
}

// Index embeds and upserts each ruling with text. There is no batching and
// no rollback: the first failure stops the run and earlier points stay.
func (x *Indexer) Index(ctx context.Context, rulings []model.Ruling) (Report, error) {
	var report Report

	x.logger.Info("Uploading rulings", "count", len(rulings))

	for i, r := range rulings {
		_ = x.progress.Add(1)

		if strings.TrimSpace(r.Text) == "" {
			report.Skipped++
			continue
		}

		id := PointID(r, i)

		vector, err := x.embedder.Embed(ctx, r.Text)
		if err != nil {
			return report, fmt.Errorf("failed to embed ruling %s after %d uploaded: %w", id, report.Uploaded, err)
		}

		if err := x.store.Upsert(ctx, id, vector, Metadata(r)); err != nil {
			return report, fmt.Errorf("failed to upsert ruling %s after %d uploaded: %w", id, report.Uploaded, err)
		}

		report.Uploaded++
		x.logger.Debug("Uploaded ruling", "ruling", id, "position", i+1, "total", len(rulings))
	}

	x.logger.Info("Upload complete", "uploaded", report.Uploaded, "skipped", report.Skipped)
	return report, nil
}
