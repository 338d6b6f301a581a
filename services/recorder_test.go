package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"voya/database"
	"voya/logger"
)

type stubStore struct {
	*database.MemoryStore
	mu      sync.Mutex
	inserts int
	err     error
	ctxErr  error
}

func (s *stubStore) Insert(ctx context.Context, it *database.Itinerary) error {
	s.mu.Lock()
	s.inserts++
	s.ctxErr = ctx.Err()
	s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	return s.MemoryStore.Insert(ctx, it)
}

type captureSink struct {
	mu   sync.Mutex
	errs []*PersistenceError
}

func (c *captureSink) PersistenceFailed(err *PersistenceError) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs = append(c.errs, err)
}

var sampleResult = &ItineraryResult{ID: "it-1", Itinerary: "Day 1", Provider: "ollama"}

func TestRecorder_SavesInBackground(t *testing.T) {
	store := &stubStore{MemoryStore: database.NewMemoryStore()}
	sink := &captureSink{}
	r := NewRecorder(store, sink, time.Second, nil)

	r.Record(context.Background(), ItineraryRequest{Destination: "Paris", Duration: 3, Preferences: "food"}, sampleResult)
	r.Wait()

	got, err := store.Get(context.Background(), "it-1")
	require.NoError(t, err)
	assert.Equal(t, "Paris", got.Destination)
	assert.Equal(t, "food", got.Preferences)
	assert.Equal(t, "ollama", got.Provider)
	assert.False(t, got.CreatedAt.IsZero())
	assert.Empty(t, sink.errs)
}

func TestRecorder_FailureGoesToSink(t *testing.T) {
	store := &stubStore{MemoryStore: database.NewMemoryStore(), err: errors.New("db down")}
	sink := &captureSink{}
	r := NewRecorder(store, sink, time.Second, nil)

	r.Record(context.Background(), ItineraryRequest{Destination: "Paris", Duration: 3}, sampleResult)
	r.Wait()

	require.Len(t, sink.errs, 1)
	assert.Equal(t, "it-1", sink.errs[0].ItineraryID)
	assert.EqualError(t, sink.errs[0].Err, "db down")
}

func TestRecorder_SkipsWhenClientGone(t *testing.T) {
	store := &stubStore{MemoryStore: database.NewMemoryStore()}
	r := NewRecorder(store, &captureSink{}, time.Second, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r.Record(ctx, ItineraryRequest{Destination: "Paris", Duration: 3}, sampleResult)
	r.Wait()

	assert.Equal(t, 0, store.inserts)
}

func TestRecorder_OutlivesRequestCancellation(t *testing.T) {
	store := &stubStore{MemoryStore: database.NewMemoryStore()}
	r := NewRecorder(store, &captureSink{}, time.Second, nil)

	ctx, cancel := context.WithCancel(context.Background())
	r.Record(ctx, ItineraryRequest{Destination: "Paris", Duration: 3}, sampleResult)
	cancel()
	r.Wait()

	assert.Equal(t, 1, store.inserts)
	assert.NoError(t, store.ctxErr)
}

func TestRecorder_NilSinkFallsBackToLog(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	store := &stubStore{MemoryStore: database.NewMemoryStore(), err: errors.New("db down")}
	r := NewRecorder(store, nil, time.Second, &logger.Logger{Logger: zap.New(core)})

	assert.NotPanics(t, func() {
		r.Record(context.Background(), ItineraryRequest{Destination: "Paris", Duration: 3}, sampleResult)
		r.Wait()
	})
	assert.Equal(t, 1, logs.FilterMessage("❌ failed to save itinerary").Len())
}

func TestLogSink_CountsFailures(t *testing.T) {
	m := NewMetrics(nil)
	LogSink{Metrics: m}.PersistenceFailed(&PersistenceError{ItineraryID: "x", Err: errors.New("boom")})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.persistenceFailures))
}
