package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDayStart(t *testing.T) {
	t.Parallel()

	in := time.Date(2025, 8, 20, 23, 59, 59, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 8, 20, 0, 0, 0, 0, time.UTC), DayStart(in))
}

func TestWeekStart(t *testing.T) {
	t.Parallel()

	// 2025-08-20 is a Wednesday.
	wednesday := time.Date(2025, 8, 20, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		at        time.Time
		weekStart time.Weekday
		expected  time.Time
	}{
		{"monday start", wednesday, time.Monday, time.Date(2025, 8, 18, 0, 0, 0, 0, time.UTC)},
		{"sunday start", wednesday, time.Sunday, time.Date(2025, 8, 17, 0, 0, 0, 0, time.UTC)},
		{"same day as week start", time.Date(2025, 8, 18, 3, 0, 0, 0, time.UTC), time.Monday, time.Date(2025, 8, 18, 0, 0, 0, 0, time.UTC)},
		{"week start after weekday wraps back", wednesday, time.Thursday, time.Date(2025, 8, 14, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, WeekStart(tt.at, tt.weekStart))
		})
	}
}

func TestMonthStart(t *testing.T) {
	t.Parallel()

	in := time.Date(2025, 8, 31, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), MonthStart(in))
}
