package worker

import (
	"testing"
	"time"
)

func TestPeriodKey(t *testing.T) {
	tests := []struct {
		name string
		freq string
		at   time.Time
		want string
	}{
		{
			name: "daily",
			freq: "daily",
			at:   time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC),
			want: "2026-03-14",
		},
		{
			name: "weekly",
			freq: "weekly",
			at:   time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC),
			want: "2026-W11",
		},
		{
			name: "weekly iso year boundary",
			freq: "weekly",
			at:   time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
			want: "2026-W53",
		},
		{
			name: "weekly is case insensitive",
			freq: "Weekly",
			at:   time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
			want: "2026-W11",
		},
		{
			name: "unknown frequency falls back to daily",
			freq: "hourly",
			at:   time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
			want: "2026-03-14",
		},
		{
			name: "non utc time normalized",
			freq: "daily",
			at:   time.Date(2026, 3, 15, 1, 0, 0, 0, time.FixedZone("", 3*60*60)),
			want: "2026-03-14",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PeriodKey(tt.freq, tt.at); got != tt.want {
				t.Errorf("PeriodKey(%q, %v) = %q, want %q", tt.freq, tt.at, got, tt.want)
			}
		})
	}
}

func TestTooOld(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name      string
		published time.Time
		maxAge    time.Duration
		want      bool
	}{
		{"fresh", now.Add(-time.Hour), 24 * time.Hour, false},
		{"stale", now.Add(-48 * time.Hour), 24 * time.Hour, true},
		{"zero published passes", time.Time{}, 24 * time.Hour, false},
		{"no max age passes", now.Add(-1000 * time.Hour), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tooOld(tt.published, tt.maxAge); got != tt.want {
				t.Errorf("tooOld(%v, %v) = %v, want %v", tt.published, tt.maxAge, got, tt.want)
			}
		})
	}
}
