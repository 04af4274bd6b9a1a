package recompute

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/sysu-ecnc-dev/attendance/backend/internal/domain"
)

var testLoc = time.FixedZone("CET", 3600)

type fakeShiftStore struct {
	shift       *domain.Shift
	events      []*domain.ClockEvent
	weekMinutes int
	weekFrom    time.Time
	weekTo      time.Time
	saved       []*domain.Shift
}

func (f *fakeShiftStore) GetShiftByID(ctx context.Context, id int64) (*domain.Shift, error) {
	if f.shift == nil || f.shift.ID != id {
		return nil, sql.ErrNoRows
	}
	s := *f.shift
	return &s, nil
}

func (f *fakeShiftStore) GetClockEventsByShiftID(ctx context.Context, shiftID int64) ([]*domain.ClockEvent, error) {
	return f.events, nil
}

func (f *fakeShiftStore) SumWorkedMinutesBetween(ctx context.Context, employeeID int64, from, to time.Time, excludeShiftID int64) (int, error) {
	f.weekFrom, f.weekTo = from, to
	return f.weekMinutes, nil
}

func (f *fakeShiftStore) UpdateShiftSummary(ctx context.Context, shift *domain.Shift) error {
	s := *shift
	f.saved = append(f.saved, &s)
	return nil
}

type fakePlans struct {
	plan *domain.DayPlan
	err  error
	date time.Time
}

func (f *fakePlans) ResolveDayPlan(ctx context.Context, companyID, employeeID int64, date time.Time) (*domain.DayPlan, error) {
	f.date = date
	return f.plan, f.err
}

type fakePolicies struct {
	policy *domain.Policy
}

func (f *fakePolicies) GetPolicyProfile(ctx context.Context, companyID, employeeID int64) (*domain.Policy, error) {
	return f.policy, nil
}

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

func ptr[T any](v T) *T {
	return &v
}

func newTestRecomputer(store *fakeShiftStore, plans *fakePlans, policies *fakePolicies) *Recomputer {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(store, plans, policies, testLoc, logger)
}

func decodeSummary(t *testing.T, shift *domain.Shift) domain.ShiftSummary {
	t.Helper()

	var summary domain.ShiftSummary
	if err := json.Unmarshal(shift.Summary, &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	return summary
}

func hasKind(items []domain.Deviation, kind string) bool {
	for _, d := range items {
		if d.Kind == kind {
			return true
		}
	}
	return false
}

// 标准工作日：08:05 上班，12:00-12:30 休息，16:00 下班
func dayShift(t *testing.T) *fakeShiftStore {
	return &fakeShiftStore{
		shift: &domain.Shift{
			ID:         7,
			CompanyID:  1,
			EmployeeID: 3,
			StartTime:  at(t, "2024-03-04 08:05"),
			State:      domain.ShiftStateClosed,
		},
		events: []*domain.ClockEvent{
			event(t, domain.ClockEventEntry, "2024-03-04 08:05"),
			event(t, domain.ClockEventBreakStart, "2024-03-04 12:00"),
			event(t, domain.ClockEventBreakEnd, "2024-03-04 12:30"),
			event(t, domain.ClockEventExit, "2024-03-04 16:00"),
		},
	}
}

func officePlan() *fakePlans {
	return &fakePlans{plan: &domain.DayPlan{
		TemplateID: ptr(int64(11)),
		Mode:       domain.PlanModeTemplate,
		Blocks: []domain.ExpectedBlock{
			{Kind: domain.IntervalWork, StartTime: "08:00", EndTime: "16:00", Mandatory: true},
			{Kind: domain.IntervalBreak, StartTime: "13:00", EndTime: "13:30"},
		},
	}}
}

func TestRecomputeStandardDay(t *testing.T) {
	store := dayShift(t)
	plans := officePlan()
	policies := &fakePolicies{policy: &domain.Policy{
		ID:               2,
		Name:             "标准",
		DailyTargetHours: ptr(8.0),
		MinBreakMinutes:  ptr(int32(20)),
		MaxBreakMinutes:  ptr(int32(40)),
	}}

	shift, err := newTestRecomputer(store, plans, policies).Recompute(context.Background(), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if shift.WorkedMinutes != 475 || shift.BreakMinutes != 30 || shift.OvertimeMinutes != 0 {
		t.Fatalf("unexpected aggregates: worked=%d break=%d overtime=%d", shift.WorkedMinutes, shift.BreakMinutes, shift.OvertimeMinutes)
	}
	if shift.DayPlanTemplateID == nil || *shift.DayPlanTemplateID != 11 {
		t.Fatalf("expected template 11 on shift, got %v", shift.DayPlanTemplateID)
	}
	if len(store.saved) != 1 {
		t.Fatalf("expected exactly one save, got %d", len(store.saved))
	}
	if got := plans.date.Format("2006-01-02"); got != "2024-03-04" {
		t.Fatalf("expected plan resolved for 2024-03-04, got %s", got)
	}

	summary := decodeSummary(t, shift)
	if summary.Date != "2024-03-04" || summary.PlanMode != domain.PlanModeTemplate {
		t.Fatalf("unexpected header: date=%s mode=%s", summary.Date, summary.PlanMode)
	}
	if summary.PolicySnapshot == nil || summary.PolicySnapshot.PolicyID != 2 {
		t.Fatalf("expected policy snapshot, got %+v", summary.PolicySnapshot)
	}
	if len(summary.RealIntervals) != 2 {
		t.Fatalf("expected 2 intervals, got %d", len(summary.RealIntervals))
	}
	if summary.Metrics.LateMinutes != 5 {
		t.Fatalf("expected 5 late minutes, got %d", summary.Metrics.LateMinutes)
	}
	if !hasKind(summary.Deviations, domain.DeviationLateEntry) {
		t.Fatalf("expected late entry deviation, got %+v", summary.Deviations)
	}
	if !hasKind(summary.Deviations, domain.DeviationBreakOutsideBlock) {
		t.Fatalf("expected break outside block deviation, got %+v", summary.Deviations)
	}
	if hasKind(summary.Deviations, domain.DeviationMandatoryBlockUncovered) {
		t.Fatalf("mandatory block is covered, got %+v", summary.Deviations)
	}
	if !hasKind(summary.Advisories, domain.AdvisoryBelowTarget) {
		t.Fatalf("expected below target advisory, got %+v", summary.Advisories)
	}
	// 30 分钟休息在 20-40 分钟之间
	if hasKind(summary.Advisories, domain.AdvisoryBreakTooShort) || hasKind(summary.Advisories, domain.AdvisoryBreakTooLong) {
		t.Fatalf("break within bounds must not raise advisories, got %+v", summary.Advisories)
	}
}

func TestRecomputeOpenShiftAdvisories(t *testing.T) {
	store := &fakeShiftStore{
		shift: &domain.Shift{ID: 9, CompanyID: 1, EmployeeID: 3, StartTime: at(t, "2024-03-04 08:00"), State: domain.ShiftStateOpen},
		events: []*domain.ClockEvent{
			event(t, domain.ClockEventEntry, "2024-03-04 08:00"),
			event(t, domain.ClockEventBreakStart, "2024-03-04 12:00"),
			event(t, domain.ClockEventBreakEnd, "2024-03-04 12:30"),
		},
	}
	policy := &domain.Policy{ID: 2, DailyTargetHours: ptr(8.0), MinBreakMinutes: ptr(int32(45))}

	shift, err := newTestRecomputer(store, &fakePlans{}, &fakePolicies{policy: policy}).Recompute(context.Background(), 9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	summary := decodeSummary(t, shift)
	for _, kind := range []string{domain.AdvisoryBelowTarget, domain.AdvisoryBreakTooShort} {
		if !hasKind(summary.Advisories, kind) {
			t.Fatalf("expected %s on an open shift, got %+v", kind, summary.Advisories)
		}
	}
	for _, a := range summary.Advisories {
		if a.Kind == domain.AdvisoryBreakTooShort && a.Meta["missingMinutes"] != float64(15) {
			t.Fatalf("expected 15 missing break minutes, got %v", a.Meta["missingMinutes"])
		}
	}
}

func TestRecomputeIsIdempotent(t *testing.T) {
	store := dayShift(t)
	r := newTestRecomputer(store, officePlan(), &fakePolicies{policy: &domain.Policy{ID: 2, MinBreakMinutes: ptr(int32(45))}})

	first, err := r.Recompute(context.Background(), 7)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := r.Recompute(context.Background(), 7)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if !bytes.Equal(first.Summary, second.Summary) {
		t.Fatalf("summary differs between runs:\n%s\n%s", first.Summary, second.Summary)
	}
}

func TestRecomputeShiftNotFound(t *testing.T) {
	store := &fakeShiftStore{}

	_, err := newTestRecomputer(store, officePlan(), &fakePolicies{}).Recompute(context.Background(), 99)
	if !errors.Is(err, ErrShiftNotFound) {
		t.Fatalf("expected ErrShiftNotFound, got %v", err)
	}
	if len(store.saved) != 0 {
		t.Fatal("nothing should be saved for a missing shift")
	}
}

func TestRecomputeWithoutEventsPlanOrPolicy(t *testing.T) {
	store := &fakeShiftStore{shift: &domain.Shift{
		ID:        1,
		StartTime: at(t, "2024-03-04 09:00"),
		State:     domain.ShiftStateOpen,
	}}

	shift, err := newTestRecomputer(store, &fakePlans{}, &fakePolicies{}).Recompute(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	summary := decodeSummary(t, shift)
	if summary.WorkedMinutes != 0 || summary.OvertimeMinutes != 0 {
		t.Fatalf("expected zero totals, got %+v", summary)
	}
	if summary.PlanMode != domain.PlanModeNone {
		t.Fatalf("expected %s, got %s", domain.PlanModeNone, summary.PlanMode)
	}
	if len(summary.Deviations) != 0 {
		t.Fatalf("expected no deviations, got %+v", summary.Deviations)
	}
	if len(summary.Advisories) != 1 || summary.Advisories[0].Kind != domain.AdvisoryNoPolicy {
		t.Fatalf("expected only the no-policy advisory, got %+v", summary.Advisories)
	}
	if summary.PolicySnapshot != nil || summary.ExpectedRange != nil {
		t.Fatalf("expected empty policy snapshot and range, got %+v", summary)
	}
}

func TestRecomputePlanFailureIsNotPersisted(t *testing.T) {
	store := dayShift(t)
	plans := &fakePlans{err: errors.New("connection refused")}

	if _, err := newTestRecomputer(store, plans, &fakePolicies{}).Recompute(context.Background(), 7); err == nil {
		t.Fatal("expected an error")
	}
	if len(store.saved) != 0 {
		t.Fatal("nothing should be saved when the plan cannot be resolved")
	}
}

func TestRecomputeNightWorkNotAllowed(t *testing.T) {
	store := &fakeShiftStore{
		shift: &domain.Shift{ID: 5, StartTime: at(t, "2024-03-04 21:00"), State: domain.ShiftStateOpen},
		events: []*domain.ClockEvent{
			event(t, domain.ClockEventEntry, "2024-03-04 21:00"),
			event(t, domain.ClockEventExit, "2024-03-04 23:30"),
		},
	}

	shift, err := newTestRecomputer(store, &fakePlans{}, &fakePolicies{policy: &domain.Policy{ID: 1}}).Recompute(context.Background(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	summary := decodeSummary(t, shift)
	if !summary.Metrics.NightWorkDetected {
		t.Fatal("expected night work to be detected")
	}
	var night *domain.Deviation
	for i := range summary.Advisories {
		if summary.Advisories[i].Kind == domain.AdvisoryNightWork {
			night = &summary.Advisories[i]
		}
	}
	if night == nil {
		t.Fatalf("expected night work advisory, got %+v", summary.Advisories)
	}
	if night.Meta["nightWorkDetected"] != true || night.Meta["nightWorkAllowed"] != false {
		t.Fatalf("unexpected night work meta: %+v", night.Meta)
	}
	if night.Meta["intervalStart"] != "2024-03-04T21:00:00+01:00" || night.Meta["intervalEnd"] != "2024-03-04T23:30:00+01:00" {
		t.Fatalf("expected the offending interval in meta, got %+v", night.Meta)
	}
}

func TestRecomputeBreakAndDailyLimits(t *testing.T) {
	store := &fakeShiftStore{
		shift: &domain.Shift{ID: 8, StartTime: at(t, "2024-03-05 07:00"), State: domain.ShiftStateClosed},
		events: []*domain.ClockEvent{
			event(t, domain.ClockEventEntry, "2024-03-05 07:00"),
			event(t, domain.ClockEventBreakStart, "2024-03-05 12:00"),
			event(t, domain.ClockEventBreakEnd, "2024-03-05 13:30"),
			event(t, domain.ClockEventExit, "2024-03-05 18:00"),
		},
	}
	policy := &domain.Policy{ID: 1, MaxHoursPerDay: ptr(10.0), MaxBreakMinutes: ptr(int32(60))}

	shift, err := newTestRecomputer(store, &fakePlans{}, &fakePolicies{policy: policy}).Recompute(context.Background(), 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	summary := decodeSummary(t, shift)
	if summary.OvertimeMinutes != 180 {
		t.Fatalf("expected 180 overtime minutes, got %d", summary.OvertimeMinutes)
	}
	if !hasKind(summary.Advisories, domain.AdvisoryDailyMaxExceeded) {
		t.Fatalf("expected daily limit advisory, got %+v", summary.Advisories)
	}
	if !hasKind(summary.Advisories, domain.AdvisoryBreakTooLong) {
		t.Fatalf("expected long break advisory, got %+v", summary.Advisories)
	}
	if hasKind(summary.Advisories, domain.AdvisoryBelowTarget) {
		t.Fatalf("did not expect below target advisory, got %+v", summary.Advisories)
	}
}

func TestRecomputeWeeklyLimit(t *testing.T) {
	store := dayShift(t)
	store.shift.StartTime = at(t, "2024-03-06 08:05")
	for _, e := range store.events {
		e.Timestamp = e.Timestamp.AddDate(0, 0, 2)
	}
	store.weekMinutes = 2000

	policy := &domain.Policy{ID: 1, MaxHoursPerWeek: ptr(40.0)}
	shift, err := newTestRecomputer(store, &fakePlans{}, &fakePolicies{policy: policy}).Recompute(context.Background(), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if want := at(t, "2024-03-04 00:00"); !store.weekFrom.Equal(want) {
		t.Fatalf("expected week to start %v, got %v", want, store.weekFrom)
	}
	if want := at(t, "2024-03-11 00:00"); !store.weekTo.Equal(want) {
		t.Fatalf("expected week to end %v, got %v", want, store.weekTo)
	}

	summary := decodeSummary(t, shift)
	if summary.Metrics.WeekWorkedMinutes != 2475 {
		t.Fatalf("expected 2475 weekly minutes, got %d", summary.Metrics.WeekWorkedMinutes)
	}
	for _, a := range summary.Advisories {
		if a.Kind == domain.AdvisoryWeeklyMaxExceeded {
			if excess := a.Meta["excessMinutes"]; excess != float64(75) {
				t.Fatalf("expected 75 excess minutes, got %v", excess)
			}
			return
		}
	}
	t.Fatalf("expected weekly limit advisory, got %+v", summary.Advisories)
}
