package board

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bermudago/internal/logging"
	"bermudago/internal/metrics"
	"bermudago/internal/model"
	"bermudago/internal/schedule"
)

// ErrUnknownRoute is returned by Lookup for an id not on the board.
var ErrUnknownRoute = errors.New("unknown route")

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant.
type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c) }

// Recorder receives every successful lookup. *history.DB implements it.
type Recorder interface {
	PutLookup(ctx context.Context, ts time.Time, routeID, mode, nextLabel string) error
}

// Board computes next departures for a fixed set of routes.
type Board struct {
	routes   []model.Route
	loc      *time.Location
	clock    Clock
	recorder Recorder
}

// New builds a board. A nil loc means UTC and a nil clock the system clock.
func New(routes []model.Route, loc *time.Location, clock Clock) *Board {
	if loc == nil {
		loc = time.UTC
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Board{routes: routes, loc: loc, clock: clock}
}

// WithRecorder sets where lookups are logged.
func (b *Board) WithRecorder(r Recorder) *Board {
	b.recorder = r
	return b
}

// Now is the board's current instant in its timezone.
func (b *Board) Now() time.Time { return b.clock.Now().In(b.loc) }

// Routes returns the routes of one mode, or all when mode is empty.
func (b *Board) Routes(mode model.Mode) []model.Route {
	var out []model.Route
	for _, r := range b.routes {
		if mode == "" || r.Mode == mode {
			out = append(out, r)
		}
	}
	return out
}

// Departures computes the next departure of every route of mode, in
// configuration order. Rows that fail are left out and their errors joined.
func (b *Board) Departures(ctx context.Context, mode model.Mode) ([]model.Departure, error) {
	return b.DeparturesAt(ctx, mode, b.Now())
}

// DeparturesAt is Departures evaluated at now, converted to the board's timezone.
func (b *Board) DeparturesAt(ctx context.Context, mode model.Mode, now time.Time) ([]model.Departure, error) {
	start := time.Now()
	defer metrics.ObserveBoardRender(start)
	now = now.In(b.loc)
	var out []model.Departure
	var errs []error
	for _, r := range b.Routes(mode) {
		d, err := b.departure(ctx, r, now)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, d)
	}
	return out, errors.Join(errs...)
}

// Lookup computes the next departure of a single route.
func (b *Board) Lookup(ctx context.Context, routeID string) (model.Departure, error) {
	for _, r := range b.routes {
		if r.ID == routeID {
			return b.departure(ctx, r, b.Now())
		}
	}
	return model.Departure{}, fmt.Errorf("%w: %s", ErrUnknownRoute, routeID)
}

func (b *Board) departure(ctx context.Context, r model.Route, now time.Time) (model.Departure, error) {
	next, err := r.Definition().Next(now)
	if err != nil {
		metrics.IncDepartureError(errorReason(err))
		return model.Departure{}, fmt.Errorf("route %s: %w", r.ID, err)
	}
	d := model.Departure{Route: r, Next: next, NextLabel: schedule.FormatClock(next)}
	metrics.IncDeparture(string(r.Mode))
	if b.recorder != nil {
		if err := b.recorder.PutLookup(ctx, now, r.ID, string(r.Mode), d.NextLabel); err != nil {
			logging.Error("record_lookup_error", map[string]any{"route": r.ID, "error": err.Error()})
		}
	}
	return d, nil
}

func errorReason(err error) string {
	switch {
	case errors.Is(err, schedule.ErrInvalidFrequency):
		return "invalid_frequency"
	case errors.Is(err, schedule.ErrInvalidTimeFormat):
		return "invalid_time_format"
	}
	return "other"
}

// Detail renders the text shown when a schedule row is selected.
func Detail(d model.Departure, fullScheduleURL string) string {
	var sb strings.Builder
	sb.WriteString(d.Route.Name)
	if d.Route.Destination != "" {
		sb.WriteString(" - " + d.Route.Destination)
	}
	fmt.Fprintf(&sb, "\nNext departure: %s\nFrequency: Every %d min", d.NextLabel, d.Route.FrequencyMinutes)
	if d.Route.Status != "" {
		fmt.Fprintf(&sb, "\nStatus: %s", d.Route.Status)
	}
	if fullScheduleURL != "" {
		fmt.Fprintf(&sb, "\nFull schedule: %s", fullScheduleURL)
	}
	return sb.String()
}
