package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextStreak(t *testing.T) {
	now := time.Date(2025, 6, 10, 14, 30, 0, 0, time.UTC)
	daysAgo := func(n int) *time.Time {
		d := now.AddDate(0, 0, -n)
		return &d
	}

	cases := []struct {
		name         string
		lastActiveAt *time.Time
		current      int
		insuredDays  int
		wantStreak   int
		wantAdvanced bool
	}{
		{"no prior activity", nil, 0, 0, 1, true},
		{"same day keeps streak", daysAgo(0), 5, 0, 5, false},
		{"yesterday continues", daysAgo(1), 5, 0, 6, true},
		{"three day gap resets", daysAgo(3), 5, 0, 1, true},
		{"two day gap with one insured day continues", daysAgo(2), 5, 1, 6, true},
		{"three day gap with two insured days continues", daysAgo(3), 8, 2, 9, true},
		{"three day gap with one insured day resets", daysAgo(3), 8, 1, 1, true},
		{"late same-day clock time still same day", daysAgo(0), 2, 0, 2, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			streak, advanced := NextStreak(tc.lastActiveAt, now, tc.current, tc.insuredDays)
			assert.Equal(t, tc.wantStreak, streak)
			assert.Equal(t, tc.wantAdvanced, advanced)
		})
	}
}

func TestNextStreakAcrossMidnight(t *testing.T) {
	// 23:50 yesterday vs 00:10 today is a one-day gap, not a same-day event
	last := time.Date(2025, 6, 9, 23, 50, 0, 0, time.UTC)
	now := time.Date(2025, 6, 10, 0, 10, 0, 0, time.UTC)

	streak, advanced := NextStreak(&last, now, 3, 0)
	assert.Equal(t, 4, streak)
	assert.True(t, advanced)
}
