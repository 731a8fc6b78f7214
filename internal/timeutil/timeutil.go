// Package timeutil holds the calendar arithmetic shared by the status and
// reminder sweeps. Everything here works in UTC: pods store their meeting
// moment as a date column plus a time-of-day column, and the combined
// instant must come out the same regardless of server timezone.
package timeutil

import (
	"fmt"
	"time"
)

const dayBucketLayout = "2006-01-02"

// CombineDateTime merges a calendar date and a "HH:MM" or "HH:MM:SS"
// time-of-day string into a single UTC instant.
func CombineDateTime(date time.Time, clock string) (time.Time, error) {
	tod, err := time.Parse("15:04:05", clock)
	if err != nil {
		tod, err = time.Parse("15:04", clock)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid time of day %q: %w", clock, err)
		}
	}
	return time.Date(
		date.Year(), date.Month(), date.Day(),
		tod.Hour(), tod.Minute(), tod.Second(), 0,
		time.UTC,
	), nil
}

// UntilNextHour returns how long to wait from now until the next occurrence
// of hour:00 UTC. If that hour has already passed (or is exactly now), the
// target is tomorrow.
func UntilNextHour(now time.Time, hour int) time.Duration {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next.Sub(now)
}

// StartOfDay returns midnight UTC of t's calendar day.
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DayBucket returns t's UTC calendar date as "YYYY-MM-DD". It is the
// day-grain component of the notification dedup key.
func DayBucket(t time.Time) string {
	return t.UTC().Format(dayBucketLayout)
}

// SameDate reports whether a and b fall on the same UTC calendar date.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
