// Package feedback appends correctness votes to a CSV log.
package feedback

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/Veraticus/customs-ai/internal/embedding"
	"github.com/Veraticus/customs-ai/internal/model"
)

// MaxClassificationChars caps the classification text stored per row.
const MaxClassificationChars = 500

// Header is the first row of every feedback log.
var Header = []string{"timestamp", "description", "country", "classification", "correct"}

// Log is an append-only CSV feedback file. It is safe for concurrent use
// within one process.
type Log struct {
	now  func() time.Time
	path string
	mu   sync.Mutex
}

// NewLog returns a log writing to path. The file is created on first append.
func NewLog(path string) *Log {
	return &Log{path: path, now: time.Now}
}

// Path returns the CSV file location.
func (l *Log) Path() string {
	return l.path
}

// Append writes one record, adding the header if the file is new.
// A zero Timestamp is filled with the current time.
func (l *Log) Append(rec model.FeedbackRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if rec.Timestamp.IsZero() {
		rec.Timestamp = l.now()
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0750); err != nil {
		return fmt.Errorf("failed to create feedback directory: %w", err)
	}

	needHeader := false
	info, err := os.Stat(l.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		needHeader = true
	case err != nil:
		return fmt.Errorf("failed to stat feedback log: %w", err)
	default:
		needHeader = info.Size() == 0
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open feedback log: %w", err)
	}

	w := csv.NewWriter(f)
	if needHeader {
		_ = w.Write(Header)
	}
	_ = w.Write(row(rec))
	w.Flush()

	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write feedback: %w", err)
	}
	return f.Close()
}

func row(rec model.FeedbackRecord) []string {
	return []string{
		rec.Timestamp.Format(time.RFC3339),
		rec.Description,
		rec.Country,
		embedding.Truncate(rec.Classification, MaxClassificationChars),
		strconv.FormatBool(rec.Correct),
	}
}

// Records reads every record in the log.
func (l *Log) Records() ([]model.FeedbackRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []model.FeedbackRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open feedback log: %w", err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(Header)

	records := []model.FeedbackRecord{}
	first := true
	for {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read feedback log: %w", err)
		}
		if first {
			first = false
			if fields[0] == Header[0] {
				continue
			}
		}

		ts, err := time.Parse(time.RFC3339, fields[0])
		if err != nil {
			return nil, fmt.Errorf("invalid feedback timestamp %q: %w", fields[0], err)
		}
		correct, err := strconv.ParseBool(fields[4])
		if err != nil {
			return nil, fmt.Errorf("invalid feedback flag %q: %w", fields[4], err)
		}
		records = append(records, model.FeedbackRecord{
			Timestamp:      ts,
			Description:    fields[1],
			Country:        fields[2],
			Classification: fields[3],
			Correct:        correct,
		})
	}
	return records, nil
}

// Count returns the number of data rows, excluding the header.
func (l *Log) Count() (int, error) {
	records, err := l.Records()
	if err != nil {
		return 0, err
	}
	return len(records), nil
}
