package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresStore keeps itineraries in a PostgreSQL table via lib/pq.
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgres connects, waits for the database to come up, and runs migrations.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Managed databases may take a moment to accept connections after a deploy.
	for i := 0; i < 10; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect database after retries: %w", err)
	}

	s := &PostgresStore{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStore wraps an existing handle without migrating.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// ─── Migrations ───────────────────────────────────────────────────────────────

func (s *PostgresStore) migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS itineraries (
			id          TEXT PRIMARY KEY,
			destination TEXT NOT NULL,
			duration    INTEGER NOT NULL,
			preferences TEXT,
			itinerary   TEXT,
			provider    TEXT,
			created_at  TIMESTAMPTZ DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_itineraries_created_at
			ON itineraries(created_at DESC)`,
	}

	for _, m := range migrations {
		if _, err := s.db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// ─── CRUD ─────────────────────────────────────────────────────────────────────

func (s *PostgresStore) Insert(ctx context.Context, it *Itinerary) error {
	createdAt := it.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO itineraries (id, destination, duration, preferences, itinerary, provider, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		it.ID, it.Destination, it.Duration, it.Preferences, it.Itinerary, it.Provider, createdAt)
	if err != nil {
		return fmt.Errorf("insert itinerary: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Itinerary, error) {
	it := &Itinerary{}
	var prefs, text, provider sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, destination, duration, preferences, itinerary, provider, created_at
		FROM itineraries WHERE id = $1`, id).
		Scan(&it.ID, &it.Destination, &it.Duration, &prefs, &text, &provider, &it.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get itinerary: %w", err)
	}
	it.Preferences, it.Itinerary, it.Provider = prefs.String, text.String, provider.String
	return it, nil
}

func (s *PostgresStore) List(ctx context.Context, limit int) ([]Itinerary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, destination, duration, preferences, itinerary, provider, created_at
		FROM itineraries ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list itineraries: %w", err)
	}
	defer rows.Close()

	out := make([]Itinerary, 0, limit)
	for rows.Next() {
		var it Itinerary
		var prefs, text, provider sql.NullString
		if err := rows.Scan(&it.ID, &it.Destination, &it.Duration, &prefs, &text, &provider, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan itinerary: %w", err)
		}
		it.Preferences, it.Itinerary, it.Provider = prefs.String, text.String, provider.String
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
