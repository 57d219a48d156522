// Package history persists every acknowledged button change to SQLite so a
// session's alerts survive the process and can be inspected later (status
// endpoint, ad-hoc queries).
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/buttonwatch/buttonwatch/dbopen"
	"github.com/buttonwatch/buttonwatch/watch/change"
)

// Store is the change-history database handle.
type Store struct {
	DB *sql.DB
}

// Open opens (or creates) the history database at path and applies the
// schema.
func Open(path string, opts ...dbopen.Option) (*Store, error) {
	allOpts := append([]dbopen.Option{
		dbopen.WithMkdirAll(),
		dbopen.WithSchema(Schema),
	}, opts...)

	db, err := dbopen.Open(path, allOpts...)
	if err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.DB.Close()
}

// Entry is one recorded change.
type Entry struct {
	ID         int64  `json:"id"`
	PageURL    string `json:"page_url"`
	ButtonIdx  int    `json:"button_idx"`
	OldText    string `json:"old_text"`
	NewText    string `json:"new_text"`
	ObservedAt int64  `json:"observed_at"` // unix milliseconds
}

// Record stores one acknowledged change.
func (s *Store) Record(ctx context.Context, pageURL string, c change.Change) error {
	ts := c.Timestamp
	if ts == 0 {
		ts = time.Now().UnixMilli()
	}
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO changes (page_url, button_idx, old_text, new_text, observed_at)
		VALUES (?, ?, ?, ?, ?)`,
		pageURL, c.Index, c.OldText, c.NewText, ts)
	if err != nil {
		return fmt.Errorf("history: record: %w", err)
	}
	return nil
}

// Recent returns the latest entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, page_url, button_idx, old_text, new_text, observed_at
		FROM changes ORDER BY observed_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: recent: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.PageURL, &e.ButtonIdx, &e.OldText, &e.NewText, &e.ObservedAt); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// CountForURL returns how many changes were recorded for a page.
func (s *Store) CountForURL(ctx context.Context, pageURL string) (int, error) {
	var n int
	err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM changes WHERE page_url = ?`, pageURL).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("history: count: %w", err)
	}
	return n, nil
}
