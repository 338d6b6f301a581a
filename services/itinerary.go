package services

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// ─── Types ────────────────────────────────────────────────────────────────────

type ItineraryRequest struct {
	Destination string
	Duration    int // days
	Preferences string
}

type ItineraryResult struct {
	ID        string
	Itinerary string
	Provider  string
}

// ─── Validation ───────────────────────────────────────────────────────────────

type rawItineraryRequest struct {
	Destination any `json:"destination"`
	Duration    any `json:"duration"`
	Preferences any `json:"preferences"`
}

// DecodeItineraryRequest parses and validates a generate request body.
// Duration may arrive as a JSON number or a numeric string.
func DecodeItineraryRequest(body []byte) (ItineraryRequest, error) {
	var raw rawItineraryRequest
	if err := json.Unmarshal(body, &raw); err != nil {
		return ItineraryRequest{}, &MalformedRequestError{Err: err}
	}

	destination := strings.TrimSpace(cast.ToString(raw.Destination))
	if destination == "" || isEmpty(raw.Duration) {
		return ItineraryRequest{}, &ValidationError{Message: "destination and duration are required"}
	}

	if _, isBool := raw.Duration.(bool); isBool {
		return ItineraryRequest{}, &ValidationError{Message: "duration must be a positive integer"}
	}
	duration, err := parseDuration(raw.Duration)
	if err != nil || duration <= 0 {
		return ItineraryRequest{}, &ValidationError{Message: "duration must be a positive integer"}
	}
	if f, ok := raw.Duration.(float64); ok && f != float64(duration) {
		return ItineraryRequest{}, &ValidationError{Message: "duration must be a positive integer"}
	}

	return ItineraryRequest{
		Destination: destination,
		Duration:    duration,
		Preferences: strings.TrimSpace(cast.ToString(raw.Preferences)),
	}, nil
}

// parseDuration reads strings strictly in base 10 so "010" stays 10 days.
func parseDuration(v any) (int, error) {
	if s, ok := v.(string); ok {
		return strconv.Atoi(strings.TrimSpace(s))
	}
	return cast.ToIntE(v)
}

// isEmpty mirrors a falsy check on the decoded value: absent, null, "", or 0.
func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case float64:
		return t == 0
	case bool:
		return !t
	}
	return false
}

// ─── Prompt ───────────────────────────────────────────────────────────────────

const systemPrompt = "You are a helpful travel planner assistant. Create detailed, practical, and engaging travel itineraries."

// BuildPrompt renders the user prompt for a trip. The section list is what the
// models are asked to produce, so the wording stays fixed.
func BuildPrompt(destination string, duration int, preferences string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a detailed %d-day travel itinerary for %s. ", duration, destination)
	if p := strings.TrimSpace(preferences); p != "" {
		fmt.Fprintf(&b, "Focus on: %s. ", p)
	}
	b.WriteString("\n\nPlease provide:\n" +
		"- Day-by-day breakdown\n" +
		"- Must-visit attractions\n" +
		"- Local food recommendations\n" +
		"- Transportation tips\n" +
		"- Estimated costs")
	return b.String()
}
