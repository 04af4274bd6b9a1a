package repository

import (
	"testing"
	"time"
)

func TestIsoWeekday(t *testing.T) {
	tests := []struct {
		date string
		want int32
	}{
		{"2024-03-04", 1},
		{"2024-03-06", 3},
		{"2024-03-09", 6},
		{"2024-03-10", 7},
	}

	for _, tt := range tests {
		date, err := time.Parse("2006-01-02", tt.date)
		if err != nil {
			t.Fatalf("parse %q: %v", tt.date, err)
		}
		if got := isoWeekday(date); got != tt.want {
			t.Fatalf("isoWeekday(%s) = %d, want %d", tt.date, got, tt.want)
		}
	}
}
