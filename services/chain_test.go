package services

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"voya/logger"
)

type fakeProvider struct {
	id    string
	text  string
	err   error
	calls int
	onRun func()
}

func (f *fakeProvider) ID() string { return f.id }

func (f *fakeProvider) Generate(ctx context.Context, prompt string) (string, error) {
	f.calls++
	if f.onRun != nil {
		f.onRun()
	}
	return f.text, f.err
}

func TestChain_FirstSuccessShortCircuits(t *testing.T) {
	a := &fakeProvider{id: "a", text: "plan A"}
	b := &fakeProvider{id: "b", text: "plan B"}
	m := NewMetrics(nil)

	res, err := NewChain([]Provider{a, b}, nil, m).Generate(context.Background(), ItineraryRequest{Destination: "Paris", Duration: 3})
	require.NoError(t, err)

	assert.Equal(t, "plan A", res.Itinerary)
	assert.Equal(t, "a", res.Provider)
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 0, b.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.itineraries))
}

func TestChain_FallsBackInOrder(t *testing.T) {
	a := &fakeProvider{id: "a", err: &ProviderCallError{Provider: "a", StatusCode: 429, Err: errors.New("rate limited")}}
	b := &fakeProvider{id: "b", err: errors.New("connection refused")}
	c := &fakeProvider{id: "c", text: "plan C"}
	m := NewMetrics(nil)

	res, err := NewChain([]Provider{a, b, c}, nil, m).Generate(context.Background(), ItineraryRequest{Destination: "Rome", Duration: 2})
	require.NoError(t, err)

	assert.Equal(t, "c", res.Provider)
	assert.Equal(t, []int{1, 1, 1}, []int{a.calls, b.calls, c.calls})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.providerFailures.WithLabelValues("a")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.providerFailures.WithLabelValues("b")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.itineraries))
}

func TestChain_EmptyTextIsSuccess(t *testing.T) {
	a := &fakeProvider{id: "a", text: ""}
	b := &fakeProvider{id: "b", text: "unused"}

	res, err := NewChain([]Provider{a, b}, nil, nil).Generate(context.Background(), ItineraryRequest{Destination: "Oslo", Duration: 1})
	require.NoError(t, err)
	assert.Equal(t, "a", res.Provider)
	assert.Equal(t, "", res.Itinerary)
	assert.Equal(t, 0, b.calls)
}

func TestChain_AllFail(t *testing.T) {
	a := &fakeProvider{id: "a", err: &ProviderCallError{Provider: "a", StatusCode: 500, Err: errors.New("boom")}}
	b := &fakeProvider{id: "b", err: errors.New("timeout")}
	m := NewMetrics(nil)

	res, err := NewChain([]Provider{a, b}, nil, m).Generate(context.Background(), ItineraryRequest{Destination: "Lima", Duration: 4})
	assert.Nil(t, res)

	var allErr *AllProvidersFailedError
	require.ErrorAs(t, err, &allErr)
	require.Len(t, allErr.Failures, 2)
	assert.Equal(t, "a", allErr.Failures[0].Provider)
	assert.Equal(t, 500, allErr.Failures[0].StatusCode)
	assert.Equal(t, "b", allErr.Failures[1].Provider)
	assert.Contains(t, err.Error(), "boom")
	assert.Contains(t, err.Error(), "timeout")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.chainFailures))
}

func TestChain_NoProviders(t *testing.T) {
	_, err := NewChain(nil, nil, nil).Generate(context.Background(), ItineraryRequest{Destination: "Lima", Duration: 4})

	var allErr *AllProvidersFailedError
	require.ErrorAs(t, err, &allErr)
	assert.Equal(t, "no AI providers configured", err.Error())
}

func TestChain_StopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	a := &fakeProvider{id: "a", err: errors.New("fail"), onRun: cancel}
	b := &fakeProvider{id: "b", text: "never"}

	_, err := NewChain([]Provider{a, b}, nil, nil).Generate(ctx, ItineraryRequest{Destination: "Cairo", Duration: 2})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, b.calls)
}

func TestChain_ProviderIDs(t *testing.T) {
	c := NewChain([]Provider{&fakeProvider{id: "openrouter"}, &fakeProvider{id: "ollama"}}, nil, nil)
	assert.Equal(t, []string{"openrouter", "ollama"}, c.ProviderIDs())
}

func TestChain_LogsCarryRequestID(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	a := &fakeProvider{id: "a", err: errors.New("fail")}
	b := &fakeProvider{id: "b", text: "plan"}
	ctx := logger.WithRequestID(context.Background(), "req-42")

	_, err := NewChain([]Provider{a, b}, &logger.Logger{Logger: zap.New(core)}, nil).Generate(ctx, ItineraryRequest{Destination: "Oslo", Duration: 2})
	require.NoError(t, err)

	entries := logs.All()
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, "req-42", e.ContextMap()["request_id"], e.Message)
	}
}
