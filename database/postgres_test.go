package database

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var itineraryColumns = []string{"id", "destination", "duration", "preferences", "itinerary", "provider", "created_at"}

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStore(db), mock
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS itineraries")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE INDEX IF NOT EXISTS idx_itineraries_created_at")).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Insert(t *testing.T) {
	s, mock := newMockStore(t)
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO itineraries")).
		WithArgs("it-1", "Paris", 3, "museums", "Day 1", "bytez", created).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.Insert(context.Background(), &Itinerary{
		ID: "it-1", Destination: "Paris", Duration: 3, Preferences: "museums",
		Itinerary: "Day 1", Provider: "bytez", CreatedAt: created,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_InsertDefaultsCreatedAtAndWrapsErrors(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO itineraries")).
		WithArgs("it-2", "Rome", 2, "", "", "ollama", sqlmock.AnyArg()).
		WillReturnError(errors.New("duplicate key"))

	err := s.Insert(context.Background(), &Itinerary{ID: "it-2", Destination: "Rome", Duration: 2, Provider: "ollama"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert itinerary: duplicate key")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Get(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("found with null columns", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM itineraries WHERE id = $1")).
			WithArgs("it-1").
			WillReturnRows(sqlmock.NewRows(itineraryColumns).
				AddRow("it-1", "Paris", 3, nil, "Day 1", nil, created))

		got, err := s.Get(context.Background(), "it-1")
		require.NoError(t, err)
		assert.Equal(t, &Itinerary{
			ID: "it-1", Destination: "Paris", Duration: 3, Itinerary: "Day 1", CreatedAt: created,
		}, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM itineraries WHERE id = $1")).
			WithArgs("nope").
			WillReturnRows(sqlmock.NewRows(itineraryColumns))

		_, err := s.Get(context.Background(), "nope")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresStore_List(t *testing.T) {
	s, mock := newMockStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC LIMIT $1")).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows(itineraryColumns).
			AddRow("b", "Rome", 2, "food", "Day 1", "ollama", base.Add(time.Hour)).
			AddRow("a", "Paris", 3, nil, "Day 1", "bytez", base))

	list, err := s.List(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ID)
	assert.Equal(t, "food", list[0].Preferences)
	assert.Equal(t, "a", list[1].ID)
	assert.Equal(t, "", list[1].Preferences)
	assert.NoError(t, mock.ExpectationsWereMet())
}
