package board

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"bermudago/internal/config"
	"bermudago/internal/model"
	"bermudago/internal/schedule"
	"bermudago/internal/store/history"
)

var bermuda = time.FixedZone("ADT", -3*3600)

func testBoard(t *testing.T, h, m int) *Board {
	t.Helper()
	now := time.Date(2025, 6, 10, h, m, 0, 0, bermuda)
	return New(config.Default().Routes(), bermuda, FixedClock(now))
}

func TestDeparturesByMode(t *testing.T) {
	b := testBoard(t, 7, 0)
	ctx := context.Background()

	bus, err := b.Departures(ctx, model.ModeBus)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"7:15 AM", "7:15 AM", "7:20 AM"}
	if len(bus) != len(want) {
		t.Fatalf("expected %d bus rows, got %d", len(want), len(bus))
	}
	for i, d := range bus {
		if d.NextLabel != want[i] {
			t.Fatalf("%s: got %s want %s", d.Route.ID, d.NextLabel, want[i])
		}
		if !d.Next.After(b.Now()) {
			t.Fatalf("%s: next %s not after now", d.Route.ID, d.Next)
		}
	}

	ferry, err := b.Departures(ctx, model.ModeFerry)
	if err != nil {
		t.Fatal(err)
	}
	wantFerry := []string{"7:05 AM", "8:00 AM", "8:00 AM"}
	for i, d := range ferry {
		if d.NextLabel != wantFerry[i] {
			t.Fatalf("%s: got %s want %s", d.Route.ID, d.NextLabel, wantFerry[i])
		}
	}

	all, _ := b.Departures(ctx, "")
	if len(all) != 6 {
		t.Fatalf("expected 6 rows, got %d", len(all))
	}
}

func TestDeparturesUsesBoardTimezone(t *testing.T) {
	// 10:00 UTC is 7:00 in Bermuda summer time
	now := time.Date(2025, 6, 10, 10, 0, 0, 0, time.UTC)
	b := New(config.Default().Routes(), bermuda, FixedClock(now))
	d, err := b.Lookup(context.Background(), "route-1")
	if err != nil {
		t.Fatal(err)
	}
	if d.NextLabel != "7:15 AM" {
		t.Fatalf("got %s", d.NextLabel)
	}
}

func TestDeparturesAtConvertsToBoardTimezone(t *testing.T) {
	b := testBoard(t, 12, 0)
	at := time.Date(2025, 6, 10, 10, 0, 0, 0, time.UTC)
	deps, err := b.DeparturesAt(context.Background(), model.ModeBus, at)
	if err != nil {
		t.Fatal(err)
	}
	if deps[0].NextLabel != "7:15 AM" {
		t.Fatalf("expected rows for 7:00 local, got %s", deps[0].NextLabel)
	}
}

func TestDeparturesSkipsBadRows(t *testing.T) {
	routes := []model.Route{
		{ID: "ok", Mode: model.ModeBus, Name: "OK", BaseTime: "6:00 AM", FrequencyMinutes: 15},
		{ID: "broken", Mode: model.ModeBus, Name: "Broken", BaseTime: "6:00 AM", FrequencyMinutes: 0},
	}
	b := New(routes, time.UTC, FixedClock(time.Date(2025, 1, 1, 6, 0, 0, 0, time.UTC)))
	got, err := b.Departures(context.Background(), model.ModeBus)
	if !errors.Is(err, schedule.ErrInvalidFrequency) {
		t.Fatalf("expected ErrInvalidFrequency, got %v", err)
	}
	if len(got) != 1 || got[0].Route.ID != "ok" {
		t.Fatalf("expected only the valid row, got %+v", got)
	}
}

func TestLookupUnknownRoute(t *testing.T) {
	b := testBoard(t, 7, 0)
	if _, err := b.Lookup(context.Background(), "route-99"); !errors.Is(err, ErrUnknownRoute) {
		t.Fatalf("expected ErrUnknownRoute, got %v", err)
	}
}

func TestLookupRecordsHistory(t *testing.T) {
	db, err := history.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	b := testBoard(t, 23, 55).WithRecorder(db)
	ctx := context.Background()
	d, err := b.Lookup(ctx, "route-1")
	if err != nil {
		t.Fatal(err)
	}
	if d.NextLabel != "12:00 AM" {
		t.Fatalf("expected rollover to 12:00 AM, got %s", d.NextLabel)
	}
	got, err := db.LoadLookupsRange(ctx, b.Now().Add(-time.Minute), b.Now().Add(time.Minute), "route-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].NextLabel != "12:00 AM" || got[0].Mode != "bus" {
		t.Fatalf("unexpected history: %+v", got)
	}
}

func TestDetail(t *testing.T) {
	b := testBoard(t, 7, 0)
	d, err := b.Lookup(context.Background(), "route-3")
	if err != nil {
		t.Fatal(err)
	}
	text := Detail(d, "https://www.gov.bm/department/public-transportation")
	for _, s := range []string{
		"Route 3 - Hamilton - South Shore",
		"Next departure: 7:20 AM",
		"Frequency: Every 25 min",
		"Status: Delayed 5 min",
		"Full schedule: https://www.gov.bm",
	} {
		if !strings.Contains(text, s) {
			t.Fatalf("detail missing %q:\n%s", s, text)
		}
	}
}

func TestRunRefreshLoopStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- RunRefreshLoop(ctx, 5*time.Millisecond, func(context.Context) error {
			if calls.Add(1) >= 3 {
				cancel()
			}
			return nil
		})
	}()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("refresh loop did not stop")
	}
	if calls.Load() < 3 {
		t.Fatalf("expected at least 3 renders, got %d", calls.Load())
	}
}
