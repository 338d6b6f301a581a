package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"voya/database"
	"voya/logger"
)

// FailureSink receives persistence failures from the Recorder.
type FailureSink interface {
	PersistenceFailed(err *PersistenceError)
}

// LogSink logs failures and counts them.
type LogSink struct {
	Log     *logger.Logger
	Metrics *Metrics
}

func (s LogSink) PersistenceFailed(err *PersistenceError) {
	s.Metrics.IncPersistenceFailures()
	if s.Log != nil {
		s.Log.Error("❌ failed to save itinerary", zap.String("id", err.ItineraryID), zap.Error(err.Err))
	}
}

// Recorder saves generated itineraries in the background. It never reports
// back to the request that produced the itinerary.
type Recorder struct {
	store   database.Store
	sink    FailureSink
	timeout time.Duration
	log     *logger.Logger
	wg      sync.WaitGroup
}

func NewRecorder(store database.Store, sink FailureSink, timeout time.Duration, log *logger.Logger) *Recorder {
	if log == nil {
		log = logger.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if sink == nil {
		sink = LogSink{Log: log}
	}
	return &Recorder{store: store, sink: sink, timeout: timeout, log: log.Named("recorder")}
}

// Record schedules the insert. If ctx is already done (client went away) nothing is saved.
func (r *Recorder) Record(ctx context.Context, req ItineraryRequest, res *ItineraryResult) {
	if err := ctx.Err(); err != nil {
		r.log.Warn("client disconnected, skipping persistence", zap.String("id", res.ID), zap.Error(err))
		return
	}

	row := &database.Itinerary{
		ID:          res.ID,
		Destination: req.Destination,
		Duration:    req.Duration,
		Preferences: req.Preferences,
		Itinerary:   res.Itinerary,
		Provider:    res.Provider,
		CreatedAt:   time.Now().UTC(),
	}

	// The insert outlives the request, so it keeps ctx values but not its cancellation.
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer cancel()
		defer func() {
			if p := recover(); p != nil {
				r.sink.PersistenceFailed(&PersistenceError{ItineraryID: row.ID, Err: fmt.Errorf("panic: %v", p)})
			}
		}()

		if err := r.store.Insert(pctx, row); err != nil {
			r.sink.PersistenceFailed(&PersistenceError{ItineraryID: row.ID, Err: err})
			return
		}
		r.log.Debug("itinerary saved", zap.String("id", row.ID))
	}()
}

// Wait blocks until every scheduled insert has finished.
func (r *Recorder) Wait() {
	r.wg.Wait()
}
