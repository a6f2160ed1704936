package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"bermudago/internal/board"
	"bermudago/internal/config"
)

func newTestServer(rps float64, burst int) *httptest.Server {
	cfg := config.Default()
	now := time.Date(2025, 3, 14, 7, 0, 0, 0, time.UTC)
	b := board.New(cfg.Routes(), time.UTC, board.FixedClock(now))
	sc := config.ServerConfig{RequestsPerSecond: rps, Burst: burst}
	return httptest.NewServer(NewServer(b, sc, cfg.Transit.FullScheduleURLs).Handler())
}

func TestBoardEndpoint(t *testing.T) {
	ts := newTestServer(100, 100)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/departures?mode=ferry")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var got boardView
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Time != "7:00 AM" || len(got.Departures) != 3 {
		t.Fatalf("unexpected board: %+v", got)
	}
	if got.Departures[0].Next != "7:05 AM" || got.Departures[0].FullSchedule != "https://www.seaexpress.bm/schedules" {
		t.Fatalf("unexpected first row: %+v", got.Departures[0])
	}
}

func TestRouteEndpoint(t *testing.T) {
	ts := newTestServer(100, 100)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/departures/route-3")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var got departureView
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Next != "7:20 AM" || got.NextAt != "2025-03-14T07:20:00Z" || got.Frequency != 25 {
		t.Fatalf("unexpected route: %+v", got)
	}

	missing, err := http.Get(ts.URL + "/departures/route-99")
	if err != nil {
		t.Fatal(err)
	}
	missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", missing.StatusCode)
	}

	bad, err := http.Get(ts.URL + "/departures?mode=tram")
	if err != nil {
		t.Fatal(err)
	}
	bad.Body.Close()
	if bad.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", bad.StatusCode)
	}
}

func TestRateLimit(t *testing.T) {
	ts := newTestServer(0.001, 2)
	defer ts.Close()

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := http.Get(ts.URL + "/departures")
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		codes = append(codes, resp.StatusCode)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status sequence: %v", codes)
	}

	// health is outside the limiter
	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status %d", resp.StatusCode)
	}
}

// steppingClock advances by step on every read.
type steppingClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

func TestBoardEndpointUsesOneInstant(t *testing.T) {
	cfg := config.Default()
	clock := &steppingClock{now: time.Date(2025, 3, 14, 7, 4, 0, 0, time.UTC), step: 2 * time.Minute}
	b := board.New(cfg.Routes(), time.UTC, clock)
	ts := httptest.NewServer(NewServer(b, config.ServerConfig{RequestsPerSecond: 100, Burst: 100}, nil).Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/departures?mode=ferry")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var got boardView
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Time != "7:04 AM" {
		t.Fatalf("board time %q", got.Time)
	}
	now, err := time.Parse(time.RFC3339, got.Now)
	if err != nil {
		t.Fatal(err)
	}
	for _, d := range got.Departures {
		at, err := time.Parse(time.RFC3339, d.NextAt)
		if err != nil {
			t.Fatal(err)
		}
		if !at.After(now) {
			t.Fatalf("%s: next %s is not after board time %s", d.ID, d.NextAt, got.Now)
		}
	}
	if got.Departures[0].Next != "7:05 AM" {
		t.Fatalf("first ferry %q", got.Departures[0].Next)
	}
}
