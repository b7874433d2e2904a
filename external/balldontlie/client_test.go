package balldontlie

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/liamjsc/courtside/internal/domain/game"
	"github.com/liamjsc/courtside/internal/usecase"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *[]time.Duration) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(ClientConfig{
		HTTPClient:    server.Client(),
		BaseURL:       server.URL,
		APIKey:        "test-key",
		MaxAttempts:   5,
		BackoffBase:   2 * time.Second,
		MinRequestGap: time.Nanosecond,
	})

	waits := &[]time.Duration{}
	client.sleep = func(_ context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		return nil
	}
	return client, waits
}

func TestFetchRange_PaginatesUntilCursorExhausted(t *testing.T) {
	t.Parallel()

	var cursors []string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cursors = append(cursors, r.URL.Query().Get("cursor"))
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("cursor") == "" {
			_, _ = w.Write([]byte(`{
				"data": [{
					"id": 101, "date": "2026-03-01", "status": "Final", "period": 4,
					"home_team_score": 120, "visitor_team_score": 112,
					"home_team": {"id": 1, "abbreviation": "BOS", "name": "Celtics", "full_name": "Boston Celtics", "conference": "East", "division": "Atlantic"},
					"visitor_team": {"id": 2, "abbreviation": "LAL", "name": "Lakers", "full_name": "Los Angeles Lakers", "conference": "West", "division": "Pacific"}
				}],
				"meta": {"next_cursor": 101, "per_page": 100}
			}`))
			return
		}
		_, _ = w.Write([]byte(`{
			"data": [{
				"id": 102, "date": "2026-03-01", "status": "7:30 pm ET", "period": 0,
				"home_team_score": 0, "visitor_team_score": 0,
				"home_team": {"id": 3, "abbreviation": "DEN", "name": "Nuggets", "full_name": "Denver Nuggets", "conference": "West", "division": "Northwest"},
				"visitor_team": {"id": 4, "abbreviation": "MIA", "name": "Heat", "full_name": "Miami Heat", "conference": "East", "division": "Southeast"}
			}],
			"meta": {"next_cursor": null, "per_page": 100}
		}`))
	})

	client, _ := newTestClient(t, handler)
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	records, err := client.FetchRange(context.Background(), start, start)
	if err != nil {
		t.Fatalf("FetchRange error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records across pages, got %d", len(records))
	}
	if len(cursors) != 2 || cursors[0] != "" || cursors[1] != "101" {
		t.Fatalf("unexpected cursor sequence: %v", cursors)
	}

	if records[0].Status != game.StatusFinished {
		t.Fatalf("expected finished status, got %s", records[0].Status)
	}
	if records[0].HomeScore == nil || *records[0].HomeScore != 120 {
		t.Fatalf("unexpected home score: %+v", records[0].HomeScore)
	}
	if records[1].Status != game.StatusScheduled {
		t.Fatalf("expected scheduled status, got %s", records[1].Status)
	}
	if records[1].HomeScore != nil {
		t.Fatalf("scheduled game must not carry scores")
	}
	if records[0].HomeTeam.Abbreviation != "BOS" || records[0].AwayTeam.Abbreviation != "LAL" {
		t.Fatalf("unexpected team mapping: %+v", records[0])
	}
}

func TestFetchRange_BackoffIsMonotonicAndBounded(t *testing.T) {
	t.Parallel()

	var requests int
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
		w.WriteHeader(http.StatusTooManyRequests)
	})

	client, waits := newTestClient(t, handler)
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	_, err := client.FetchRange(context.Background(), start, start)
	if !errors.Is(err, usecase.ErrUpstreamRateLimited) {
		t.Fatalf("expected rate-limited error, got %v", err)
	}
	if got := err.Error(); !strings.Contains(got, "max retries exceeded") {
		t.Fatalf("expected max retries message, got %q", got)
	}
	if requests != 5 {
		t.Fatalf("expected 5 attempts, got %d", requests)
	}

	expected := []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second}
	if len(*waits) != len(expected) {
		t.Fatalf("expected %d backoff waits, got %v", len(expected), *waits)
	}
	for i, wait := range *waits {
		if wait != expected[i] {
			t.Fatalf("wait %d = %s, expected %s", i, wait, expected[i])
		}
		if i > 0 && wait <= (*waits)[i-1] {
			t.Fatalf("backoff is not strictly increasing: %v", *waits)
		}
	}
}

func TestFetchRange_NonRateLimitFailureDoesNotRetry(t *testing.T) {
	t.Parallel()

	var requests int
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
		w.WriteHeader(http.StatusBadGateway)
	})

	client, waits := newTestClient(t, handler)
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	_, err := client.FetchRange(context.Background(), start, start)
	if !errors.Is(err, usecase.ErrUpstreamError) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if requests != 1 {
		t.Fatalf("expected a single attempt, got %d", requests)
	}
	if len(*waits) != 0 {
		t.Fatalf("expected no backoff waits, got %v", *waits)
	}
}

func TestFetchRange_InvalidRange(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	if _, err := client.FetchRange(context.Background(), start, end); !errors.Is(err, usecase.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestMapGameStatus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		status string
		period int
		want   game.Status
	}{
		{"terminal marker", "Final", 4, game.StatusFinished},
		{"terminal marker overtime", "Final/OT", 5, game.StatusFinished},
		{"nonzero period", "3rd Qtr", 3, game.StatusInProgress},
		{"halftime", "Halftime", 2, game.StatusInProgress},
		{"tipoff time string", "7:00 pm ET", 0, game.StatusScheduled},
		{"empty status", "", 0, game.StatusScheduled},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := mapGameStatus(tc.status, tc.period); got != tc.want {
				t.Fatalf("mapGameStatus(%q, %d) = %s, want %s", tc.status, tc.period, got, tc.want)
			}
		})
	}
}
