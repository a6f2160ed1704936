package schedule

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"
)

var (
	// ErrInvalidTimeFormat is returned when a base time is not "H:MM AM|PM".
	ErrInvalidTimeFormat = errors.New("invalid time format")
	// ErrInvalidFrequency is returned for a frequency below one minute or above MaxFrequencyMinutes.
	ErrInvalidFrequency = errors.New("invalid frequency")
)

// clockLayout renders a time-of-day the way schedules are written: "6:15 AM".
const clockLayout = "3:04 PM"

// MaxFrequencyMinutes is the largest frequency whose step fits in a time.Duration.
const MaxFrequencyMinutes = math.MaxInt64 / int64(time.Minute)

var clockPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2}) (AM|PM)$`)

// TimeOfDay is a wall-clock time in 24-hour form.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses a 12-hour clock string such as "6:00 AM" or "12:30 PM".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	m := clockPattern.FindStringSubmatch(s)
	if m == nil {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	// a leading zero on the hour is not part of the format
	if len(m[1]) == 2 && m[1][0] == '0' {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour < 1 || hour > 12 {
		return TimeOfDay{}, fmt.Errorf("%w: hour %d out of range in %q", ErrInvalidTimeFormat, hour, s)
	}
	if minute > 59 {
		return TimeOfDay{}, fmt.Errorf("%w: minute %d out of range in %q", ErrInvalidTimeFormat, minute, s)
	}
	switch {
	case m[3] == "PM" && hour != 12:
		hour += 12
	case m[3] == "AM" && hour == 12:
		hour = 0
	}
	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

// On returns the instant at t on the calendar day of day, in day's location.
func (t TimeOfDay) On(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour, t.Minute, 0, 0, day.Location())
}

func (t TimeOfDay) String() string {
	return time.Date(2000, time.January, 1, t.Hour, t.Minute, 0, 0, time.UTC).Format(clockLayout)
}

// FormatClock formats the time-of-day of an instant, dropping the date.
func FormatClock(t time.Time) string {
	return t.Format(clockLayout)
}

// Definition is a recurring departure: a first departure of the day and a
// fixed interval between the departures that follow it.
type Definition struct {
	BaseTime         string `yaml:"baseTime" json:"baseTime"`
	FrequencyMinutes int    `yaml:"frequency" json:"frequency"`
}

// Validate reports whether the definition can be evaluated.
func (d Definition) Validate() error {
	if err := checkFrequency(d.FrequencyMinutes); err != nil {
		return err
	}
	_, err := ParseTimeOfDay(d.BaseTime)
	return err
}

func checkFrequency(minutes int) error {
	if minutes < 1 || int64(minutes) > MaxFrequencyMinutes {
		return fmt.Errorf("%w: %d minutes", ErrInvalidFrequency, minutes)
	}
	return nil
}

// Next returns the first departure strictly after now.
func (d Definition) Next(now time.Time) (time.Time, error) {
	return NextDepartureTime(d.BaseTime, d.FrequencyMinutes, now)
}

// NextDepartureTime returns the smallest baseTime + k*frequency (k >= 0) on
// now's calendar day that is strictly after now. A departure at exactly now
// has already left. The result may fall on the following day.
func NextDepartureTime(baseTime string, frequencyMinutes int, now time.Time) (time.Time, error) {
	if err := checkFrequency(frequencyMinutes); err != nil {
		return time.Time{}, err
	}
	tod, err := ParseTimeOfDay(baseTime)
	if err != nil {
		return time.Time{}, err
	}
	step := time.Duration(frequencyMinutes) * time.Minute
	cand := tod.On(now)
	for !cand.After(now) {
		cand = cand.Add(step)
	}
	return cand, nil
}

// NextDeparture is NextDepartureTime formatted as a 12-hour clock string.
func NextDeparture(baseTime string, frequencyMinutes int, now time.Time) (string, error) {
	next, err := NextDepartureTime(baseTime, frequencyMinutes, now)
	if err != nil {
		return "", err
	}
	return FormatClock(next), nil
}
