// Package timeutil buckets timestamps into calendar days of the configured
// application time zone.
package timeutil

import (
	"time"
)

const dayLayout = "2006-01-02"

// DayKey identifies one calendar day, formatted YYYY-MM-DD.
type DayKey string

func (d DayKey) String() string { return string(d) }

// Time returns midnight of d in loc.
func (d DayKey) Time(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(dayLayout, string(d), loc)
}

// AddDays shifts d by n calendar days.
func (d DayKey) AddDays(n int) DayKey {
	t, err := time.Parse(dayLayout, string(d))
	if err != nil {
		return d
	}
	return DayKey(t.AddDate(0, 0, n).Format(dayLayout))
}

// CalendarDay returns the day t falls on in loc. It does not modify t.
func CalendarDay(t time.Time, loc *time.Location) DayKey {
	return DayKey(t.In(loc).Format(dayLayout))
}

// LoadLocation resolves name, falling back to a fixed UTC+9 zone when the
// tz database is unavailable and name is the default.
func LoadLocation(name string) (*time.Location, error) {
	loc, err := time.LoadLocation(name)
	if err == nil {
		return loc, nil
	}
	if name == "Asia/Tokyo" {
		return time.FixedZone("Asia/Tokyo", 9*60*60), nil
	}
	return nil, err
}

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock reports a settable instant. Tests advance it explicitly.
type FixedClock struct {
	T time.Time
}

func (c *FixedClock) Now() time.Time { return c.T }

func (c *FixedClock) Advance(d time.Duration) { c.T = c.T.Add(d) }
