package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"voya/logger"
)

// Chain tries providers strictly in order, each at most once per request.
type Chain struct {
	providers []Provider
	log       *logger.Logger
	metrics   *Metrics
}

func NewChain(providers []Provider, log *logger.Logger, metrics *Metrics) *Chain {
	if log == nil {
		log = logger.NewNop()
	}
	return &Chain{providers: providers, log: log.Named("chain"), metrics: metrics}
}

// ProviderIDs lists the configured providers in priority order.
func (c *Chain) ProviderIDs() []string {
	ids := make([]string, len(c.providers))
	for i, p := range c.providers {
		ids[i] = p.ID()
	}
	return ids
}

// Generate returns the first successful provider's itinerary. When every provider
// fails the error is an *AllProvidersFailedError listing each failure.
func (c *Chain) Generate(ctx context.Context, req ItineraryRequest) (*ItineraryResult, error) {
	prompt := BuildPrompt(req.Destination, req.Duration, req.Preferences)
	log := c.log
	if id := logger.RequestID(ctx); id != "" {
		log = log.With(zap.String("request_id", id))
	}
	failures := make([]*ProviderCallError, 0, len(c.providers))

	for _, p := range c.providers {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("itinerary generation aborted: %w", err)
		}

		start := time.Now()
		text, err := p.Generate(ctx, prompt)
		if err != nil {
			var callErr *ProviderCallError
			if !errors.As(err, &callErr) {
				callErr = &ProviderCallError{Provider: p.ID(), Err: err}
			}
			failures = append(failures, callErr)
			c.metrics.IncProviderFailures(p.ID())
			log.Warn("⚠️  AI provider failed, trying next",
				zap.String("provider", p.ID()),
				zap.Int("status", callErr.StatusCode),
				zap.Duration("took", time.Since(start)),
				zap.Error(err),
			)
			continue
		}

		c.metrics.IncItineraries()
		log.Info("✅ itinerary generated",
			zap.String("provider", p.ID()),
			zap.String("destination", req.Destination),
			zap.Int("chars", len(text)),
			zap.Duration("took", time.Since(start)),
		)
		return &ItineraryResult{
			ID:        uuid.New().String(),
			Itinerary: text,
			Provider:  p.ID(),
		}, nil
	}

	c.metrics.IncChainFailures()
	return nil, &AllProvidersFailedError{Failures: failures}
}
