package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/i474232898/umbrella-agent/internal/common"
	"github.com/i474232898/umbrella-agent/internal/subscription"
	"github.com/i474232898/umbrella-agent/internal/weather"
)

const schema = `CREATE TABLE IF NOT EXISTS subscriptions (
	email       TEXT PRIMARY KEY,
	city        TEXT NOT NULL,
	country     TEXT NOT NULL,
	notify_at   TEXT NOT NULL,
	enabled     INTEGER NOT NULL DEFAULT 1,
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);`

// SQLiteStore implements Store using sqlite (pure Go driver modernc.org/sqlite).
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens (or creates) the database at path and applies the schema.
func NewSQLite(path string, logger logrus.FieldLogger) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating store dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	// A single writer connection avoids SQLITE_BUSY between the API and the scheduler.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		logger.WithError(err).Warn("store: could not set WAL mode")
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	return &SQLiteStore{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *SQLiteStore) Upsert(ctx context.Context, sub subscription.Subscription) (subscription.Subscription, error) {
	sub.Email = common.NormalizeEmail(sub.Email)
	now := s.now()
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = now
	}
	sub.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO subscriptions (email, city, country, notify_at, enabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET
			city       = excluded.city,
			country    = excluded.country,
			notify_at  = excluded.notify_at,
			enabled    = excluded.enabled,
			updated_at = excluded.updated_at`,
		sub.Email, sub.Location.City, sub.Location.Country, sub.NotifyAt, sub.Enabled,
		formatTime(sub.CreatedAt), formatTime(sub.UpdatedAt),
	)
	if err != nil {
		return subscription.Subscription{}, fmt.Errorf("upserting subscription: %w", err)
	}
	// Re-read so an existing row reports its original created_at.
	return s.Get(ctx, sub.Email)
}

func (s *SQLiteStore) List(ctx context.Context) ([]subscription.Subscription, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT email, city, country, notify_at, enabled, created_at, updated_at
		FROM subscriptions
		ORDER BY created_at ASC, email ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying subscriptions: %w", err)
	}
	defer rows.Close()

	out := make([]subscription.Subscription, 0)
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating subscriptions: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) Get(ctx context.Context, email string) (subscription.Subscription, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT email, city, country, notify_at, enabled, created_at, updated_at
		FROM subscriptions WHERE email = ?`, common.NormalizeEmail(email))

	sub, err := scanSubscription(row)
	if errors.Is(err, sql.ErrNoRows) {
		return subscription.Subscription{}, ErrNotFound
	}
	return sub, err
}

func (s *SQLiteStore) Delete(ctx context.Context, email string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE email = ?`, common.NormalizeEmail(email))
	if err != nil {
		return fmt.Errorf("deleting subscription: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting subscription: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSubscription(sc scanner) (subscription.Subscription, error) {
	var (
		sub              subscription.Subscription
		loc              weather.Location
		created, updated string
	)
	if err := sc.Scan(&sub.Email, &loc.City, &loc.Country, &sub.NotifyAt, &sub.Enabled, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sub, err
		}
		return sub, fmt.Errorf("scanning subscription: %w", err)
	}
	sub.Location = loc
	sub.CreatedAt = parseTime(created)
	sub.UpdatedAt = parseTime(updated)
	return sub, nil
}

// timeLayout is fixed width so ORDER BY created_at sorts chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
