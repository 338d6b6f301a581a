package database

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.Insert(ctx, &Itinerary{ID: "a", Destination: "Paris", Duration: 3, CreatedAt: base}))
	require.NoError(t, s.Insert(ctx, &Itinerary{ID: "b", Destination: "Rome", Duration: 2, CreatedAt: base.Add(time.Hour)}))

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Paris", got.Destination)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := s.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "b", list[0].ID, "newest first")
}

func TestSupabaseStore_Insert(t *testing.T) {
	var gotRows []Itinerary
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/v1/itineraries", r.URL.Path)
		assert.Equal(t, "service-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer service-key", r.Header.Get("Authorization"))
		assert.Equal(t, "return=minimal", r.Header.Get("Prefer"))

		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &gotRows))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	s := NewSupabaseStore(srv.URL, "service-key", srv.Client())
	err := s.Insert(context.Background(), &Itinerary{ID: "id-1", Destination: "Paris", Duration: 3, Itinerary: "Day 1"})
	require.NoError(t, err)

	require.Len(t, gotRows, 1)
	assert.Equal(t, "Paris", gotRows[0].Destination)
	assert.False(t, gotRows[0].CreatedAt.IsZero())
}

func TestSupabaseStore_InsertError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"permission denied"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	s := NewSupabaseStore(srv.URL, "bad", srv.Client())
	err := s.Insert(context.Background(), &Itinerary{ID: "x"})
	assert.ErrorContains(t, err, "401")
}

func TestSupabaseStore_Get(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") == "eq.known" {
			_, _ = w.Write([]byte(`[{"id":"known","destination":"Lisbon","duration":4,"itinerary":"Day 1","provider":"bytez","created_at":"2026-03-01T10:00:00.123456+00:00"}]`))
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	s := NewSupabaseStore(srv.URL, "k", srv.Client())

	got, err := s.Get(context.Background(), "known")
	require.NoError(t, err)
	assert.Equal(t, "Lisbon", got.Destination)
	assert.Equal(t, 4, got.Duration)
	assert.Equal(t, 2026, got.CreatedAt.Year())

	_, err = s.Get(context.Background(), "unknown")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSupabaseStore_ListAndPing(t *testing.T) {
	var queries []url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.Query())
		_, _ = w.Write([]byte(`[{"id":"b","destination":"Rome","duration":2},{"id":"a","destination":"Paris","duration":3}]`))
	}))
	defer srv.Close()

	s := NewSupabaseStore(srv.URL, "k", srv.Client())

	list, err := s.List(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ID)
	require.NoError(t, s.Ping(context.Background()))

	require.Len(t, queries, 2)
	assert.Equal(t, "created_at.desc", queries[0].Get("order"))
	assert.Equal(t, "2", queries[0].Get("limit"))
	assert.Equal(t, "id", queries[1].Get("select"))
	assert.Equal(t, "1", queries[1].Get("limit"))
}

func TestOpen_FallsBackToMemory(t *testing.T) {
	s, kind, err := Open(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, "memory", kind)
	assert.IsType(t, &MemoryStore{}, s)

	s, kind, err = Open(context.Background(), Options{SupabaseURL: "https://x.supabase.co", SupabaseKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "supabase", kind)
	assert.IsType(t, &SupabaseStore{}, s)
}
