package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
	"go.uber.org/zap"

	"voya/logger"
)

// ─── Types ────────────────────────────────────────────────────────────────────

// FlightQuery mirrors the google_flights parameters. Loose fields accept numbers or strings.
type FlightQuery struct {
	DepartureID  string `json:"departure_id"`
	ArrivalID    string `json:"arrival_id"`
	OutboundDate string `json:"outbound_date"`
	ReturnDate   string `json:"return_date"`
	Adults       any    `json:"adults"`
	Currency     string `json:"currency"`
	TravelClass  any    `json:"travel_class"`
	Stops        any    `json:"stops"`
	SortBy       any    `json:"sort_by"`
}

// HotelQuery mirrors the google_hotels parameters.
type HotelQuery struct {
	Q            string `json:"q"`
	CheckInDate  string `json:"check_in_date"`
	CheckOutDate string `json:"check_out_date"`
	Adults       any    `json:"adults"`
	Currency     string `json:"currency"`
	Rating       any    `json:"rating"`
	SortBy       any    `json:"sort_by"`
}

type FlightRecord struct {
	Airline   string  `json:"airline"`
	From      string  `json:"from"`
	To        string  `json:"to"`
	Departure string  `json:"departure"`
	Arrival   string  `json:"arrival"`
	Duration  string  `json:"duration"`
	Price     string  `json:"price"`
	PriceNum  float64 `json:"priceNum"`
	Stops     string  `json:"stops"`
}

type HotelRecord struct {
	Name      string  `json:"name"`
	Location  string  `json:"location"`
	Rating    string  `json:"rating"`
	RatingNum float64 `json:"ratingNum"`
	Amenities string  `json:"amenities"`
	Price     string  `json:"price"`
	PriceNum  float64 `json:"priceNum"`
	Image     string  `json:"image"`
}

const (
	defaultCurrency   = "INR"
	defaultHotelPrice = 5000
	defaultRating     = 4.0
	defaultHotelImage = "🏨"
)

// ─── SerpAPI Client ───────────────────────────────────────────────────────────

type SearchClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
	metrics    *Metrics
}

func NewSearchClient(apiKey, baseURL string, timeout time.Duration, log *logger.Logger, metrics *Metrics) *SearchClient {
	if log == nil {
		log = logger.NewNop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &SearchClient{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.Named("search"),
		metrics:    metrics,
	}
}

// Configured reports whether a SerpAPI key is available.
func (c *SearchClient) Configured() bool {
	return c.apiKey != ""
}

func (c *SearchClient) get(ctx context.Context, op string, params url.Values, out any) error {
	c.metrics.IncSearches(op)

	params.Set("api_key", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		c.metrics.IncSearchFailures(op)
		return &UpstreamRequestError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.IncSearchFailures(op)
		// url.Error carries the full URL, which includes the key.
		return &UpstreamRequestError{Op: op, Err: redactKey(err, c.apiKey)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.IncSearchFailures(op)
		return &UpstreamRequestError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.metrics.IncSearchFailures(op)
		return &UpstreamRequestError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("%s", upstreamMessage(body))}
	}

	if err := json.Unmarshal(body, out); err != nil {
		c.metrics.IncSearchFailures(op)
		return &UpstreamRequestError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}

	c.log.Debug("serpapi call finished", zap.String("op", op), zap.Duration("took", time.Since(start)))
	return nil
}

// ─── Flight Search ────────────────────────────────────────────────────────────

// SerpAPI google_flights response, reduced to the fields we map. Every field may be absent.
type serpFlightsResponse struct {
	Error        string            `json:"error"`
	BestFlights  []serpFlightGroup `json:"best_flights"`
	OtherFlights []serpFlightGroup `json:"other_flights"`
}

type serpFlightGroup struct {
	Flights       []serpFlightLeg `json:"flights"`
	TotalDuration *int            `json:"total_duration"`
	Price         *float64        `json:"price"`
}

type serpFlightLeg struct {
	Airline          string       `json:"airline"`
	DepartureAirport *serpAirport `json:"departure_airport"`
	ArrivalAirport   *serpAirport `json:"arrival_airport"`
}

type serpAirport struct {
	ID   string `json:"id"`
	Time string `json:"time"`
}

// SearchFlights queries Google Flights through SerpAPI.
func (c *SearchClient) SearchFlights(ctx context.Context, q FlightQuery) ([]FlightRecord, error) {
	if !c.Configured() {
		return nil, &UpstreamConfigError{Setting: "SERPAPI_KEY"}
	}

	currency := orDefault(q.Currency, defaultCurrency)
	params := url.Values{}
	params.Set("engine", "google_flights")
	params.Set("departure_id", q.DepartureID)
	params.Set("arrival_id", q.ArrivalID)
	params.Set("outbound_date", q.OutboundDate)
	params.Set("currency", currency)
	params.Set("hl", "en")
	params.Set("gl", "in")
	params.Set("adults", looseOrDefault(q.Adults, "1"))
	params.Set("travel_class", looseOrDefault(q.TravelClass, "1"))
	params.Set("stops", looseOrDefault(q.Stops, "0"))
	params.Set("sort_by", looseOrDefault(q.SortBy, "1"))
	if q.ReturnDate != "" {
		params.Set("return_date", q.ReturnDate)
		params.Set("type", "1")
	} else {
		params.Set("type", "2")
	}

	var resp serpFlightsResponse
	if err := c.get(ctx, "flight search", params, &resp); err != nil {
		return nil, err
	}

	groups := append(resp.BestFlights, resp.OtherFlights...)
	if len(groups) == 0 && resp.Error != "" {
		c.log.Warn("⚠️  SerpAPI returned no flights", zap.String("reason", resp.Error))
	}

	flights := make([]FlightRecord, 0, len(groups))
	for _, g := range groups {
		if rec, ok := mapFlight(g, q, currency); ok {
			flights = append(flights, rec)
		}
	}
	return flights, nil
}

// mapFlight is total over serpFlightGroup: every absent field gets a default.
// Groups without legs are skipped.
func mapFlight(g serpFlightGroup, q FlightQuery, currency string) (FlightRecord, bool) {
	if len(g.Flights) == 0 {
		return FlightRecord{}, false
	}
	first := g.Flights[0]
	last := g.Flights[len(g.Flights)-1]

	rec := FlightRecord{
		Airline:   orDefault(first.Airline, "Unknown"),
		From:      q.DepartureID,
		To:        q.ArrivalID,
		Departure: "N/A",
		Arrival:   "N/A",
		Duration:  "N/A",
		Price:     "N/A",
		Stops:     formatStops(len(g.Flights) - 1),
	}
	if a := first.DepartureAirport; a != nil {
		rec.From = orDefault(a.ID, rec.From)
		rec.Departure = orDefault(a.Time, rec.Departure)
	}
	if a := last.ArrivalAirport; a != nil {
		rec.To = orDefault(a.ID, rec.To)
		rec.Arrival = orDefault(a.Time, rec.Arrival)
	}
	if g.TotalDuration != nil && *g.TotalDuration > 0 {
		rec.Duration = formatDurationMin(*g.TotalDuration)
	}
	if g.Price != nil && *g.Price > 0 {
		rec.PriceNum = *g.Price
		rec.Price = formatPrice(currency, *g.Price)
	}
	return rec, true
}

// ─── Hotel Search ─────────────────────────────────────────────────────────────

type serpHotelsResponse struct {
	Error      string              `json:"error"`
	Properties []serpHotelProperty `json:"properties"`
}

type serpHotelProperty struct {
	Name          string   `json:"name"`
	Neighborhood  string   `json:"neighborhood"`
	Location      string   `json:"location"`
	OverallRating *float64 `json:"overall_rating"`
	Amenities     []string `json:"amenities"`
	Thumbnail     string   `json:"thumbnail"`
	Images        []struct {
		Thumbnail string `json:"thumbnail"`
	} `json:"images"`
	RatePerNight *struct {
		ExtractedLowest *float64 `json:"extracted_lowest"`
	} `json:"rate_per_night"`
}

// SearchHotels queries Google Hotels through SerpAPI.
func (c *SearchClient) SearchHotels(ctx context.Context, q HotelQuery) ([]HotelRecord, error) {
	if !c.Configured() {
		return nil, &UpstreamConfigError{Setting: "SERPAPI_KEY"}
	}

	currency := orDefault(q.Currency, defaultCurrency)
	params := url.Values{}
	params.Set("engine", "google_hotels")
	params.Set("q", orDefault(q.Q, "hotels"))
	params.Set("check_in_date", q.CheckInDate)
	params.Set("check_out_date", q.CheckOutDate)
	params.Set("currency", currency)
	params.Set("hl", "en")
	params.Set("gl", "in")
	params.Set("adults", looseOrDefault(q.Adults, "1"))
	if v := optionalParam(q.Rating); v != "" {
		params.Set("rating", v)
	}
	if v := optionalParam(q.SortBy); v != "" {
		params.Set("sort_by", v)
	}

	var resp serpHotelsResponse
	if err := c.get(ctx, "hotel search", params, &resp); err != nil {
		return nil, err
	}
	if len(resp.Properties) == 0 && resp.Error != "" {
		c.log.Warn("⚠️  SerpAPI returned no hotels", zap.String("reason", resp.Error))
	}

	hotels := make([]HotelRecord, 0, len(resp.Properties))
	for _, p := range resp.Properties {
		hotels = append(hotels, mapHotel(p, currency))
	}
	return hotels, nil
}

func mapHotel(p serpHotelProperty, currency string) HotelRecord {
	price := float64(defaultHotelPrice)
	if p.RatePerNight != nil && p.RatePerNight.ExtractedLowest != nil && *p.RatePerNight.ExtractedLowest > 0 {
		price = *p.RatePerNight.ExtractedLowest
	}

	rating := defaultRating
	if p.OverallRating != nil && *p.OverallRating > 0 {
		rating = *p.OverallRating
	}

	amenities := "WiFi"
	if len(p.Amenities) > 0 {
		n := min(len(p.Amenities), 4)
		amenities = strings.Join(p.Amenities[:n], ", ")
	}

	image := p.Thumbnail
	if image == "" && len(p.Images) > 0 {
		image = p.Images[0].Thumbnail
	}

	return HotelRecord{
		Name:      orDefault(p.Name, "Hotel"),
		Location:  orDefault(p.Neighborhood, orDefault(p.Location, "Unknown")),
		Rating:    formatNumber(rating) + " ★",
		RatingNum: rating,
		Amenities: amenities,
		Price:     formatPrice(currency, price) + "/night",
		PriceNum:  price,
		Image:     orDefault(image, defaultHotelImage),
	}
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

func formatDurationMin(minutes int) string {
	h := minutes / 60
	m := minutes % 60
	if m > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dh", h)
}

func formatStops(n int) string {
	switch {
	case n <= 0:
		return "Non-stop"
	case n == 1:
		return "1 stop"
	default:
		return fmt.Sprintf("%d stops", n)
	}
}

var currencySymbols = map[string]string{
	"INR": "₹",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
}

func formatPrice(currency string, amount float64) string {
	currency = strings.ToUpper(currency)
	if sym, ok := currencySymbols[currency]; ok {
		return sym + formatNumber(amount)
	}
	return currency + " " + formatNumber(amount)
}

// formatNumber prints 5000 as "5000" and 4.5 as "4.5".
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// looseOrDefault renders a number-or-string JSON value as a query parameter.
func looseOrDefault(v any, def string) string {
	if v == nil {
		return def
	}
	return orDefault(cast.ToString(v), def)
}

// optionalParam treats absent, blank, false and numeric zero as unset.
func optionalParam(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case bool:
		if !t {
			return ""
		}
	case float64:
		if t == 0 {
			return ""
		}
	case int:
		if t == 0 {
			return ""
		}
	}
	return strings.TrimSpace(cast.ToString(v))
}

// upstreamMessage prefers SerpAPI's {"error": "..."} text over the raw body.
func upstreamMessage(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return e.Error
	}
	return truncate(strings.TrimSpace(string(body)), 300)
}

func redactKey(err error, key string) error {
	if key == "" {
		return err
	}
	return fmt.Errorf("%s", strings.ReplaceAll(err.Error(), url.QueryEscape(key), "REDACTED"))
}
