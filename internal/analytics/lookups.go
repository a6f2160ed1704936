package analytics

import (
	"sort"
	"time"

	"bermudago/internal/store/history"
)

// HourlyLookups aggregates lookups into per-hour buckets keyed by route id.
// Buckets are aligned to the hour in loc.
func HourlyLookups(lookups []history.Lookup, loc *time.Location) map[time.Time]map[string]int {
	if loc == nil {
		loc = time.UTC
	}
	buckets := make(map[time.Time]map[string]int)
	for _, l := range lookups {
		ts := l.TS.In(loc)
		key := time.Date(ts.Year(), ts.Month(), ts.Day(), ts.Hour(), 0, 0, 0, loc)
		if _, ok := buckets[key]; !ok {
			buckets[key] = make(map[string]int)
		}
		buckets[key][l.RouteID]++
	}
	return buckets
}

// SortedBucketKeys returns sorted hour keys.
func SortedBucketKeys(m map[time.Time]map[string]int) []time.Time {
	keys := make([]time.Time, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })
	return keys
}
