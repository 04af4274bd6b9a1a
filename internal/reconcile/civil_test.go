package reconcile

import "testing"

func TestCivilMinutesAcrossMidnight(t *testing.T) {
	day := LocalDay(at(t, "2026-03-02 20:00"), testLoc)

	if got := CivilMinutes(day, at(t, "2026-03-02 20:00"), testLoc); got != 20*60 {
		t.Fatalf("expected 1200, got %d", got)
	}
	if got := CivilMinutes(day, at(t, "2026-03-03 01:30"), testLoc); got != 24*60+90 {
		t.Fatalf("expected 1530, got %d", got)
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"08:00", 480, false},
		{"16:30:00", 990, false},
		{"24:00", 1440, false},
		{"8h", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseClock(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseClock(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Fatalf("ParseClock(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}

	if got := FormatClock(1530); got != "01:30" {
		t.Fatalf("FormatClock(1530) = %q", got)
	}
}
