package reconcile

import (
	"testing"
	"time"

	"github.com/sysu-ecnc-dev/attendance/backend/internal/domain"
)

func TestBuildIntervalsPairsEntryExitAndBreaks(t *testing.T) {
	events := []*domain.ClockEvent{
		event(t, domain.ClockEventEntry, "2026-03-02 08:05"),
		event(t, domain.ClockEventBreakStart, "2026-03-02 12:00"),
		event(t, domain.ClockEventBreakEnd, "2026-03-02 12:30"),
		event(t, domain.ClockEventExit, "2026-03-02 16:00"),
	}

	intervals := BuildIntervals(events)
	if len(intervals) != 2 {
		t.Fatalf("expected 2 intervals, got %d", len(intervals))
	}

	work, brk := intervals[0], intervals[1]
	if work.Kind != domain.IntervalWork || work.Minutes != 475 {
		t.Fatalf("unexpected work interval: %+v", work)
	}
	if brk.Kind != domain.IntervalBreak || brk.Minutes != 30 {
		t.Fatalf("unexpected break interval: %+v", brk)
	}
}

func TestBuildIntervalsIgnoresDuplicateEntry(t *testing.T) {
	events := []*domain.ClockEvent{
		event(t, domain.ClockEventEntry, "2026-03-02 08:00"),
		event(t, domain.ClockEventEntry, "2026-03-02 09:00"),
		event(t, domain.ClockEventExit, "2026-03-02 10:00"),
	}

	intervals := BuildIntervals(events)
	if len(intervals) != 1 {
		t.Fatalf("expected 1 interval, got %d", len(intervals))
	}
	if !intervals[0].Start.Equal(at(t, "2026-03-02 08:00")) {
		t.Fatalf("duplicate entry overwrote the opener: %v", intervals[0].Start)
	}
	if intervals[0].Minutes != 120 {
		t.Fatalf("expected 120 minutes, got %d", intervals[0].Minutes)
	}
}

func TestBuildIntervalsUnmatchedEvents(t *testing.T) {
	tests := []struct {
		name   string
		events []*domain.ClockEvent
	}{
		{
			name:   "entry without exit",
			events: []*domain.ClockEvent{event(t, domain.ClockEventEntry, "2026-03-02 08:00")},
		},
		{
			name:   "exit without entry",
			events: []*domain.ClockEvent{event(t, domain.ClockEventExit, "2026-03-02 16:00")},
		},
		{
			name: "break start without end",
			events: []*domain.ClockEvent{
				event(t, domain.ClockEventBreakStart, "2026-03-02 12:00"),
				event(t, domain.ClockEventEntry, "2026-03-02 12:10"),
			},
		},
		{
			name: "zero timestamp is skipped",
			events: []*domain.ClockEvent{
				{Kind: domain.ClockEventEntry},
				event(t, domain.ClockEventExit, "2026-03-02 16:00"),
			},
		},
		{
			name:   "no events",
			events: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intervals := BuildIntervals(tt.events)
			if len(intervals) != 0 {
				t.Fatalf("expected no intervals, got %+v", intervals)
			}
			if got := SumMinutes(intervals, domain.IntervalWork); got != 0 {
				t.Fatalf("expected 0 worked minutes, got %d", got)
			}
		})
	}
}

func TestBuildIntervalsSortsByStart(t *testing.T) {
	// break 在 work 闭合之前闭合，但开始得更晚
	events := []*domain.ClockEvent{
		event(t, domain.ClockEventEntry, "2026-03-02 08:00"),
		event(t, domain.ClockEventBreakStart, "2026-03-02 10:00"),
		event(t, domain.ClockEventBreakEnd, "2026-03-02 10:15"),
		event(t, domain.ClockEventExit, "2026-03-02 14:00"),
		event(t, domain.ClockEventEntry, "2026-03-02 15:00"),
		event(t, domain.ClockEventExit, "2026-03-02 17:00"),
	}

	intervals := BuildIntervals(events)
	if len(intervals) != 3 {
		t.Fatalf("expected 3 intervals, got %d", len(intervals))
	}
	for i := 1; i < len(intervals); i++ {
		if intervals[i].Start.Before(intervals[i-1].Start) {
			t.Fatalf("intervals not sorted: %+v", intervals)
		}
	}
}

func TestMinutesBetween(t *testing.T) {
	start := at(t, "2026-03-02 08:00")

	tests := []struct {
		name string
		end  time.Time
		want int
	}{
		{"exact", start.Add(90 * time.Minute), 90},
		{"floors partial minute", start.Add(90*time.Minute + 59*time.Second + 999*time.Millisecond), 90},
		{"under a minute", start.Add(59 * time.Second), 0},
		{"negative", start.Add(-time.Hour), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MinutesBetween(start, tt.end); got != tt.want {
				t.Fatalf("MinutesBetween() = %d, want %d", got, tt.want)
			}
		})
	}
}
