package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalendarDay_UsesLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	// 2026-03-01 16:30 UTC is already 2026-03-02 in Tokyo.
	ts := time.Date(2026, 3, 1, 16, 30, 0, 0, time.UTC)

	assert.Equal(t, DayKey("2026-03-02"), CalendarDay(ts, tokyo))
	assert.Equal(t, DayKey("2026-03-01"), CalendarDay(ts, time.UTC))
	// input is untouched
	assert.Equal(t, time.UTC, ts.Location())
}

func TestDayKey_AddDaysAndTime(t *testing.T) {
	d := DayKey("2026-03-01")
	assert.Equal(t, DayKey("2026-02-23"), d.AddDays(-6))
	assert.Equal(t, DayKey("2026-03-02"), d.AddDays(1))

	tokyo := time.FixedZone("JST", 9*60*60)
	mid, err := d.Time(tokyo)
	require.NoError(t, err)
	assert.Equal(t, 0, mid.Hour())
	assert.Equal(t, d, CalendarDay(mid, tokyo))
}

func TestFixedClock(t *testing.T) {
	c := &FixedClock{T: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c.Advance(10 * time.Second)
	assert.Equal(t, 10, c.Now().Second())
}
