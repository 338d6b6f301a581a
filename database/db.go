package database

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when no itinerary has the requested id.
var ErrNotFound = errors.New("itinerary not found")

// ─── Models ──────────────────────────────────────────────────────────────────

type Itinerary struct {
	ID          string    `json:"id"`
	Destination string    `json:"destination"`
	Duration    int       `json:"duration"`
	Preferences string    `json:"preferences,omitempty"`
	Itinerary   string    `json:"itinerary"`
	Provider    string    `json:"provider"`
	CreatedAt   time.Time `json:"created_at"`
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store persists generated itineraries. Implementations are safe for concurrent use.
type Store interface {
	Insert(ctx context.Context, it *Itinerary) error
	Get(ctx context.Context, id string) (*Itinerary, error)
	// List returns the most recent itineraries, newest first.
	List(ctx context.Context, limit int) ([]Itinerary, error)
	Ping(ctx context.Context) error
	Close() error
}

// Options selects and tunes the backing store for Open.
type Options struct {
	DatabaseURL string
	SupabaseURL string
	SupabaseKey string
}

// Open picks a backend: Postgres when a DSN is set, then Supabase REST, else memory.
// The returned name is used for start-up logging.
func Open(ctx context.Context, opts Options) (Store, string, error) {
	switch {
	case opts.DatabaseURL != "":
		s, err := OpenPostgres(ctx, opts.DatabaseURL)
		return s, "postgres", err
	case opts.SupabaseURL != "" && opts.SupabaseKey != "":
		return NewSupabaseStore(opts.SupabaseURL, opts.SupabaseKey, nil), "supabase", nil
	default:
		return NewMemoryStore(), "memory", nil
	}
}
