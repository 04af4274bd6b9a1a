package reconcile

import (
	"testing"
	"time"
)

func TestOverlapsNightWindow(t *testing.T) {
	tests := []struct {
		name  string
		start string
		end   string
		want  bool
	}{
		{"day shift", "2026-03-02 08:00", "2026-03-02 16:00", false},
		{"ends exactly at 22:00", "2026-03-02 14:00", "2026-03-02 22:00", false},
		{"runs past 22:00", "2026-03-02 14:00", "2026-03-02 22:01", true},
		{"early morning", "2026-03-02 05:00", "2026-03-02 09:00", true},
		{"starts exactly at 06:00", "2026-03-02 06:00", "2026-03-02 14:00", false},
		{"across midnight", "2026-03-02 20:00", "2026-03-03 02:00", true},
		{"inside band after midnight", "2026-03-03 01:00", "2026-03-03 03:00", true},
		{"empty interval", "2026-03-02 23:00", "2026-03-02 23:00", false},
		{"reversed interval", "2026-03-02 23:30", "2026-03-02 23:00", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OverlapsNightWindow(at(t, tt.start), at(t, tt.end), testLoc); got != tt.want {
				t.Fatalf("OverlapsNightWindow(%s, %s) = %v, want %v", tt.start, tt.end, got, tt.want)
			}
		})
	}
}

func TestOverlapsNightWindowUsesLocalTime(t *testing.T) {
	// 21:30 UTC 在 CET 中是 22:30
	start := time.Date(2026, 3, 2, 20, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 2, 21, 30, 0, 0, time.UTC)

	if OverlapsNightWindow(start, end, time.UTC) {
		t.Fatal("expected no night overlap in UTC")
	}
	if !OverlapsNightWindow(start, end, testLoc) {
		t.Fatal("expected night overlap in CET")
	}
}

func TestOverlapsNightWindowBoundedWalk(t *testing.T) {
	// 区间从白天开始，跨越很多天；在遍历上限内会遇到第一个夜间时段
	start := at(t, "2026-03-02 08:00")
	end := start.Add(30 * 24 * time.Hour)

	if !OverlapsNightWindow(start, end, testLoc) {
		t.Fatal("expected long interval to overlap a night band")
	}
}
