package reconcile

import (
	"testing"
	"time"

	"github.com/sysu-ecnc-dev/attendance/backend/internal/domain"
)

var testLoc = time.FixedZone("CET", 3600)

func at(t *testing.T, value string) time.Time {
	t.Helper()

	ts, err := time.ParseInLocation("2006-01-02 15:04", value, testLoc)
	if err != nil {
		t.Fatalf("parse %q: %v", value, err)
	}
	return ts
}

func event(t *testing.T, kind domain.ClockEventKind, value string) *domain.ClockEvent {
	t.Helper()
	return &domain.ClockEvent{Kind: kind, Timestamp: at(t, value)}
}
