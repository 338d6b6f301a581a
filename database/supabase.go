package database

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const supabaseTable = "itineraries"

// SupabaseStore talks to a Supabase project through its PostgREST endpoint
// using the service-role key.
type SupabaseStore struct {
	baseURL    string
	key        string
	httpClient *http.Client
}

// NewSupabaseStore builds a store for projectURL (e.g. https://xyz.supabase.co).
// A nil client gets a 15s timeout client.
func NewSupabaseStore(projectURL, serviceKey string, client *http.Client) *SupabaseStore {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &SupabaseStore{
		baseURL:    projectURL + "/rest/v1/" + supabaseTable,
		key:        serviceKey,
		httpClient: client,
	}
}

func (s *SupabaseStore) Insert(ctx context.Context, it *Itinerary) error {
	row := *it
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	body, err := json.Marshal([]Itinerary{row})
	if err != nil {
		return fmt.Errorf("supabase: marshal row: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("supabase: build request: %w", err)
	}
	req.Header.Set("Prefer", "return=minimal")

	_, err = s.do(req)
	return err
}

func (s *SupabaseStore) Get(ctx context.Context, id string) (*Itinerary, error) {
	q := url.Values{}
	q.Set("id", "eq."+id)
	q.Set("select", "*")

	rows, err := s.query(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

func (s *SupabaseStore) List(ctx context.Context, limit int) ([]Itinerary, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", "created_at.desc")
	q.Set("limit", strconv.Itoa(limit))
	return s.query(ctx, q)
}

func (s *SupabaseStore) Ping(ctx context.Context) error {
	q := url.Values{}
	q.Set("select", "id")
	q.Set("limit", "1")
	_, err := s.query(ctx, q)
	return err
}

func (s *SupabaseStore) Close() error {
	s.httpClient.CloseIdleConnections()
	return nil
}

func (s *SupabaseStore) query(ctx context.Context, q url.Values) ([]Itinerary, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("supabase: build request: %w", err)
	}

	body, err := s.do(req)
	if err != nil {
		return nil, err
	}

	var rows []Itinerary
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("supabase: decode rows: %w", err)
	}
	return rows, nil
}

func (s *SupabaseStore) do(req *http.Request) ([]byte, error) {
	req.Header.Set("apikey", s.key)
	req.Header.Set("Authorization", "Bearer "+s.key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("supabase: do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("supabase: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("supabase error (%d): %s", resp.StatusCode, string(body))
	}
	return body, nil
}
