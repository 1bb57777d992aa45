package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Veraticus/customs-ai/internal/common"
	"github.com/Veraticus/customs-ai/internal/model"
)

// SaveClassification stores a classification result and returns its row id.
func (s *SQLiteStorage) SaveClassification(ctx context.Context, c *model.Classification) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if c == nil {
		return 0, fmt.Errorf("%w: classification", ErrNilParameter)
	}

	matches, err := json.Marshal(c.Matches)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal matches: %w", err)
	}

	var structured sql.NullString
	if c.Structured != nil {
		data, err := json.Marshal(c.Structured)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal structured result: %w", err)
		}
		structured = sql.NullString{String: string(data), Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO classifications (created_at, description, country, classification, hts_code, has_image, matches, structured)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.CreatedAt.UTC(), c.Description, c.Country, c.Text, c.HTSCode, c.HasImage, string(matches), structured)
	if err != nil {
		return 0, fmt.Errorf("failed to save classification: %w", err)
	}
	return res.LastInsertId()
}

// LatestClassification returns the most recently saved classification.
func (s *SQLiteStorage) LatestClassification(ctx context.Context) (*model.Classification, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var (
		c          model.Classification
		country    sql.NullString
		hts        sql.NullString
		matches    string
		structured sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT created_at, description, country, classification, hts_code, has_image, matches, structured
		FROM classifications ORDER BY id DESC LIMIT 1`,
	).Scan(&c.CreatedAt, &c.Description, &country, &c.Text, &hts, &c.HasImage, &matches, &structured)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("no saved classification: %w", common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load classification: %w", err)
	}

	c.Country = country.String
	c.HTSCode = hts.String
	if err := json.Unmarshal([]byte(matches), &c.Matches); err != nil {
		return nil, fmt.Errorf("failed to decode matches: %w", err)
	}
	if structured.Valid {
		c.Structured = &model.StructuredClassification{}
		if err := json.Unmarshal([]byte(structured.String), c.Structured); err != nil {
			return nil, fmt.Errorf("failed to decode structured result: %w", err)
		}
	}
	return &c, nil
}
