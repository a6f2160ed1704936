package model

import (
	"time"

	"bermudago/internal/schedule"
)

// Mode is the kind of transport a route runs.
type Mode string

const (
	ModeBus   Mode = "bus"
	ModeFerry Mode = "ferry"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool { return m == ModeBus || m == ModeFerry }

// Title is the display name used for board headers, e.g. "Bus".
func (m Mode) Title() string {
	switch m {
	case ModeBus:
		return "Bus"
	case ModeFerry:
		return "Ferry"
	}
	return string(m)
}

// Route is one row of the transit schedule.
type Route struct {
	ID               string `yaml:"id" json:"id"`
	Mode             Mode   `yaml:"mode" json:"mode"`
	Name             string `yaml:"name" json:"name"`
	Destination      string `yaml:"destination,omitempty" json:"destination,omitempty"`
	BaseTime         string `yaml:"baseTime" json:"baseTime"`
	FrequencyMinutes int    `yaml:"frequency" json:"frequency"`
	Status           string `yaml:"status,omitempty" json:"status,omitempty"`
}

// Definition returns the recurring schedule of the route.
func (r Route) Definition() schedule.Definition {
	return schedule.Definition{BaseTime: r.BaseTime, FrequencyMinutes: r.FrequencyMinutes}
}

// Departure is a route paired with its next departure.
type Departure struct {
	Route     Route     `json:"route"`
	Next      time.Time `json:"nextAt"`
	NextLabel string    `json:"next"`
}
