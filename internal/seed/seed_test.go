package seed

import (
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/sysu-ecnc-dev/attendance/backend/internal/domain"
)

func TestParseClockEventCSV(t *testing.T) {
	loc := time.FixedZone("CST", 8*3600)
	input := "邮箱,类型,时间,备注\n" +
		"WangWei01@example.com,entry,2024-03-04 08:58:00,\n" +
		"wangwei01@example.com,exit,2024-03-04 18:03:30,补卡\n"

	events, err := parseClockEventCSV(strings.NewReader(input), loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	if events[0].email != "wangwei01@example.com" {
		t.Fatalf("email should be normalised, got %q", events[0].email)
	}
	want := time.Date(2024, 3, 4, 8, 58, 0, 0, loc)
	if !events[0].event.Timestamp.Equal(want) {
		t.Fatalf("expected %v, got %v", want, events[0].event.Timestamp)
	}
	if events[1].event.Kind != domain.ClockEventExit || events[1].event.Note != "补卡" {
		t.Fatalf("unexpected second event: %+v", events[1].event)
	}
	if !events[1].event.Manual || events[1].event.Origin != domain.ClockEventOriginManual {
		t.Fatalf("imported events must be marked manual: %+v", events[1].event)
	}
}

func TestParseClockEventCSVErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"wrong header", "email,kind,time,note\n"},
		{"bad kind", "邮箱,类型,时间,备注\na@example.com,lunch,2024-03-04 12:00:00,\n"},
		{"bad time", "邮箱,类型,时间,备注\na@example.com,entry,2024-03-04T12:00,\n"},
		{"missing column", "邮箱,类型,时间,备注\na@example.com,entry\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseClockEventCSV(strings.NewReader(tt.input), time.UTC); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestDemoDayIsOrdered(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 50; i++ {
		punches := demoDay(day, time.UTC, rnd)
		if len(punches) < 3 || punches[0].kind != domain.ClockEventEntry {
			t.Fatalf("unexpected punches: %+v", punches)
		}
		for j := 1; j < len(punches); j++ {
			if !punches[j-1].at.Before(punches[j].at) {
				t.Fatalf("punches out of order: %+v", punches)
			}
		}
	}
}
