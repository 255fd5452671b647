package service

import (
	"testing"
	"time"
)

func TestOfferedDayResolve(t *testing.T) {
	// 2026-10-19 es lunes.
	monday := time.Date(2026, 10, 19, 15, 4, 0, 0, time.UTC)
	friday := time.Date(2026, 10, 23, 9, 0, 0, 0, time.UTC)
	saturday := time.Date(2026, 10, 24, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		day  OfferedDay
		now  time.Time
		want time.Time
		ok   bool
	}{
		{"tomorrow", OfferedDayTomorrow, monday, time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC), true},
		{"friday from monday", OfferedDayFriday, monday, time.Date(2026, 10, 23, 0, 0, 0, 0, time.UTC), true},
		{"friday on friday", OfferedDayFriday, friday, time.Date(2026, 10, 23, 0, 0, 0, 0, time.UTC), true},
		{"friday from saturday", OfferedDayFriday, saturday, time.Date(2026, 10, 30, 0, 0, 0, 0, time.UTC), true},
		{"none", OfferedDayNone, monday, time.Time{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := tc.day.Resolve(tc.now)
			if ok != tc.ok {
				t.Fatalf("expected ok=%v, got %v", tc.ok, ok)
			}
			if !got.Equal(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}
