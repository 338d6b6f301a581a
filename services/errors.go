package services

import (
	"fmt"
	"strings"
)

// ValidationError reports missing or invalid input fields.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// MalformedRequestError reports a request body that is not valid JSON.
type MalformedRequestError struct {
	Err error
}

func (e *MalformedRequestError) Error() string { return "Invalid JSON body" }

func (e *MalformedRequestError) Unwrap() error { return e.Err }

// ProviderCallError is one failed provider attempt. The chain absorbs these.
type ProviderCallError struct {
	Provider   string
	StatusCode int // 0 when no HTTP response was received
	Err        error
}

func (e *ProviderCallError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderCallError) Unwrap() error { return e.Err }

// AllProvidersFailedError is returned when every configured provider failed.
type AllProvidersFailedError struct {
	Failures []*ProviderCallError
}

func (e *AllProvidersFailedError) Error() string {
	if len(e.Failures) == 0 {
		return "no AI providers configured"
	}
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = f.Error()
	}
	return "all AI providers failed: " + strings.Join(parts, "; ")
}

// UpstreamConfigError means a credential the upstream needs is not set.
type UpstreamConfigError struct {
	Setting string
}

func (e *UpstreamConfigError) Error() string {
	return fmt.Sprintf("SerpAPI key not configured (%s is not set)", e.Setting)
}

// UpstreamRequestError wraps a failed call to the search upstream.
type UpstreamRequestError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *UpstreamRequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s failed (%d): %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *UpstreamRequestError) Unwrap() error { return e.Err }

// PersistenceError is handed to the recorder's FailureSink; it never reaches a client.
type PersistenceError struct {
	ItineraryID string
	Err         error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist itinerary %s: %v", e.ItineraryID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
