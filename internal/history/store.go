package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cromfel/go-mpv/internal/logging"
)

const logURIMaxLen = 60

// Entry is one row of playback history.
type Entry struct {
	ID           int64     `json:"id"`
	URI          string    `json:"uri"`
	Title        string    `json:"title"`
	Plays        int64     `json:"plays"`
	PositionSecs float64   `json:"position_secs"`
	DurationSecs float64   `json:"duration_secs"`
	LastPlayed   time.Time `json:"last_played"`
}

// Store provides access to the playback history table.
type Store struct {
	db *sql.DB
}

// NewStore creates a store on top of an existing database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open opens (and if needed creates) the history database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := NewConnection(ctx, path)
	if err != nil {
		return nil, err
	}
	return NewStore(db), nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return Close(s.db)
}

// Touch records a playback start for uri, creating the row if it does not
// exist and bumping the play count if it does. An empty title never
// overwrites a previously stored one.
func (s *Store) Touch(ctx context.Context, uri, title string) error {
	log := logging.FromContext(ctx)
	log.Debug().Str("uri", logging.TruncateURI(uri, logURIMaxLen)).Msg("recording playback")

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO playback_history (uri, title, plays, last_played)
		VALUES (?, ?, 1, unixepoch())
		ON CONFLICT(uri) DO UPDATE SET
			plays = plays + 1,
			title = COALESCE(NULLIF(excluded.title, ''), title),
			last_played = unixepoch()`,
		uri, sql.NullString{String: title, Valid: title != ""})
	if err != nil {
		return fmt.Errorf("history: touch %q: %w", uri, err)
	}
	return nil
}

// SetTitle updates the stored title for uri without counting a play.
// Empty titles and unknown URIs are ignored.
func (s *Store) SetTitle(ctx context.Context, uri, title string) error {
	if title == "" {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE playback_history SET title = ? WHERE uri = ?`, title, uri)
	if err != nil {
		return fmt.Errorf("history: set title for %q: %w", uri, err)
	}
	return nil
}

// SavePosition stores the current playback position and duration for uri.
// The row is created if playback was never recorded, so a position saved
// during shutdown is never lost.
func (s *Store) SavePosition(ctx context.Context, uri string, position, duration float64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO playback_history (uri, plays, position_secs, duration_secs, last_played)
		VALUES (?, 0, ?, ?, unixepoch())
		ON CONFLICT(uri) DO UPDATE SET
			position_secs = excluded.position_secs,
			duration_secs = excluded.duration_secs,
			last_played = unixepoch()`,
		uri, position, duration)
	if err != nil {
		return fmt.Errorf("history: save position for %q: %w", uri, err)
	}
	return nil
}

// Lookup returns the entry for uri, or nil when none exists.
func (s *Store) Lookup(ctx context.Context, uri string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, uri, title, plays, position_secs, duration_secs, last_played
		FROM playback_history WHERE uri = ?`, uri)

	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("history: lookup %q: %w", uri, err)
	}
	return entry, nil
}

// Recent returns up to limit entries, most recently played first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, uri, title, plays, position_secs, duration_secs, last_played
		FROM playback_history ORDER BY last_played DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: list recent: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("history: scan entry: %w", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: list recent: %w", err)
	}
	return entries, nil
}

// Forget deletes the entry for uri. Deleting an unknown uri is not an error.
func (s *Store) Forget(ctx context.Context, uri string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM playback_history WHERE uri = ?`, uri); err != nil {
		return fmt.Errorf("history: forget %q: %w", uri, err)
	}
	return nil
}

// Purge deletes all history.
func (s *Store) Purge(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM playback_history`); err != nil {
		return fmt.Errorf("history: purge: %w", err)
	}
	return nil
}

// Prune drops the oldest entries until at most maxEntries remain.
// A non-positive maxEntries disables pruning.
func (s *Store) Prune(ctx context.Context, maxEntries int) error {
	if maxEntries <= 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM playback_history WHERE id NOT IN (
			SELECT id FROM playback_history ORDER BY last_played DESC, id DESC LIMIT ?
		)`, maxEntries)
	if err != nil {
		return fmt.Errorf("history: prune: %w", err)
	}
	return nil
}

// Count returns the number of history entries.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM playback_history`).Scan(&n); err != nil {
		return 0, fmt.Errorf("history: count: %w", err)
	}
	return n, nil
}

// MigrationVersion reports the schema version the database is at.
func (s *Store) MigrationVersion() (int64, error) {
	return GetMigrationStatus(s.db)
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanEntry reads one row. last_played is stored as a unix epoch so the
// decode path does not depend on driver-side timestamp parsing.
func scanEntry(row rowScanner) (*Entry, error) {
	var (
		entry      Entry
		title      sql.NullString
		lastPlayed int64
	)
	err := row.Scan(&entry.ID, &entry.URI, &title, &entry.Plays,
		&entry.PositionSecs, &entry.DurationSecs, &lastPlayed)
	if err != nil {
		return nil, err
	}
	entry.Title = title.String
	entry.LastPlayed = time.Unix(lastPlayed, 0)
	return &entry, nil
}
