package recompute

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sysu-ecnc-dev/attendance/backend/internal/domain"
	"github.com/sysu-ecnc-dev/attendance/backend/internal/reconcile"
	"github.com/sysu-ecnc-dev/attendance/backend/internal/telemetry"
)

var ErrShiftNotFound = errors.New("班次不存在")

type ShiftStore interface {
	GetShiftByID(ctx context.Context, id int64) (*domain.Shift, error)
	GetClockEventsByShiftID(ctx context.Context, shiftID int64) ([]*domain.ClockEvent, error)
	// SumWorkedMinutesBetween 统计员工在 [from, to) 内开始的其他班次的工作分钟数
	SumWorkedMinutesBetween(ctx context.Context, employeeID int64, from, to time.Time, excludeShiftID int64) (int, error)
	UpdateShiftSummary(ctx context.Context, shift *domain.Shift) error
}

// PlanResolver 返回员工某一天的预期计划，date 是只包含年月日的日历日
type PlanResolver interface {
	ResolveDayPlan(ctx context.Context, companyID, employeeID int64, date time.Time) (*domain.DayPlan, error)
}

// PolicyStore 返回员工的 turno，没有分配时返回 nil, nil
type PolicyStore interface {
	GetPolicyProfile(ctx context.Context, companyID, employeeID int64) (*domain.Policy, error)
}

type Recomputer struct {
	shifts   ShiftStore
	plans    PlanResolver
	policies PolicyStore
	loc      *time.Location
	logger   *slog.Logger
}

func New(shifts ShiftStore, plans PlanResolver, policies PolicyStore, loc *time.Location, logger *slog.Logger) *Recomputer {
	if loc == nil {
		loc = time.Local
	}
	return &Recomputer{
		shifts:   shifts,
		plans:    plans,
		policies: policies,
		loc:      loc,
		logger:   logger,
	}
}

// Recompute 从打卡事件完整地重新计算班次的汇总文档并写回班次。
// 不读取上一次的计算结果，相同输入得到字节级相同的文档。
func (r *Recomputer) Recompute(ctx context.Context, shiftID int64) (*domain.Shift, error) {
	start := time.Now()

	shift, err := r.recompute(ctx, shiftID)
	switch {
	case errors.Is(err, ErrShiftNotFound):
		telemetry.RecomputeTotal.WithLabelValues("not_found").Inc()
		return nil, err
	case err != nil:
		telemetry.RecomputeTotal.WithLabelValues("error").Inc()
		r.logger.Error("重新计算班次失败", "shiftID", shiftID, "error", err)
		return nil, err
	}

	telemetry.RecomputeTotal.WithLabelValues("ok").Inc()
	telemetry.RecomputeDuration.Observe(time.Since(start).Seconds())

	return shift, nil
}

func (r *Recomputer) recompute(ctx context.Context, shiftID int64) (*domain.Shift, error) {
	shift, err := r.shifts.GetShiftByID(ctx, shiftID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShiftNotFound
		}
		return nil, fmt.Errorf("读取班次失败: %w", err)
	}

	events, err := r.shifts.GetClockEventsByShiftID(ctx, shift.ID)
	if err != nil {
		return nil, fmt.Errorf("读取打卡事件失败: %w", err)
	}

	summary, err := r.summarize(ctx, shift, events)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(summary)
	if err != nil {
		return nil, fmt.Errorf("序列化汇总文档失败: %w", err)
	}

	shift.WorkedMinutes = int32(summary.WorkedMinutes)
	shift.BreakMinutes = int32(summary.BreakMinutes)
	shift.OvertimeMinutes = int32(summary.OvertimeMinutes)
	shift.DayPlanTemplateID = summary.TemplateID
	shift.Summary = raw

	if err := r.shifts.UpdateShiftSummary(ctx, shift); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShiftNotFound
		}
		return nil, fmt.Errorf("保存汇总文档失败: %w", err)
	}

	return shift, nil
}

func (r *Recomputer) summarize(ctx context.Context, shift *domain.Shift, events []*domain.ClockEvent) (*domain.ShiftSummary, error) {
	day := reconcile.LocalDay(shift.StartTime, r.loc)

	plan, err := r.plans.ResolveDayPlan(ctx, shift.CompanyID, shift.EmployeeID, day)
	if err != nil {
		return nil, fmt.Errorf("解析当天计划失败: %w", err)
	}
	if plan == nil {
		plan = &domain.DayPlan{Mode: domain.PlanModeNone}
	}

	policy, err := r.policies.GetPolicyProfile(ctx, shift.CompanyID, shift.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("读取 turno 失败: %w", err)
	}

	intervals := reconcile.BuildIntervals(events)
	worked := reconcile.SumMinutes(intervals, domain.IntervalWork)
	breaks := reconcile.SumMinutes(intervals, domain.IntervalBreak)
	target := reconcile.TargetMinutes(policy)

	deviations, metrics := reconcile.ComparePlan(plan, intervals, day, r.loc)

	var nightStart, nightEnd string
	for _, iv := range intervals {
		if iv.Kind == domain.IntervalWork && reconcile.OverlapsNightWindow(iv.Start, iv.End, r.loc) {
			metrics.NightWorkDetected = true
			nightStart = iv.Start.In(r.loc).Format(time.RFC3339)
			nightEnd = iv.End.In(r.loc).Format(time.RFC3339)
			break
		}
	}

	if policy != nil && policy.MaxHoursPerWeek != nil {
		from, to := r.isoWeek(day)
		others, err := r.shifts.SumWorkedMinutesBetween(ctx, shift.EmployeeID, from, to, shift.ID)
		if err != nil {
			return nil, fmt.Errorf("统计本周工时失败: %w", err)
		}
		metrics.WeekWorkedMinutes = others + worked
	}

	advisories := policyAdvisories(policy, facts{
		workedMinutes:     worked,
		breakMinutes:      breaks,
		targetMinutes:     target,
		weekWorkedMinutes: metrics.WeekWorkedMinutes,
		nightWork:         metrics.NightWorkDetected,
		nightStart:        nightStart,
		nightEnd:          nightEnd,
	})

	expectedBlocks := plan.Blocks
	if expectedBlocks == nil {
		expectedBlocks = []domain.ExpectedBlock{}
	}

	return &domain.ShiftSummary{
		Date:            day.Format("2006-01-02"),
		PolicySnapshot:  snapshot(policy),
		TemplateID:      plan.TemplateID,
		PlanMode:        plan.Mode,
		ExpectedRange:   reconcile.ExpectedRange(plan.Blocks),
		ExpectedBlocks:  expectedBlocks,
		RealIntervals:   intervals,
		WorkedMinutes:   worked,
		BreakMinutes:    breaks,
		OvertimeMinutes: reconcile.OvertimeMinutes(worked, target),
		Deviations:      deviations,
		Metrics:         metrics,
		Advisories:      advisories,
	}, nil
}

// isoWeek 返回 day 所在周（周一开始）在 loc 中的起止时刻
func (r *Recomputer) isoWeek(day time.Time) (time.Time, time.Time) {
	offset := (int(day.Weekday()) + 6) % 7
	monday := day.AddDate(0, 0, -offset)
	from := time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, r.loc)
	to := time.Date(monday.Year(), monday.Month(), monday.Day()+7, 0, 0, 0, 0, r.loc)
	return from, to
}

func snapshot(policy *domain.Policy) *domain.PolicySnapshot {
	if policy == nil {
		return nil
	}
	return &domain.PolicySnapshot{
		PolicyID:         policy.ID,
		Name:             policy.Name,
		DailyTargetHours: policy.DailyTargetHours,
		MaxHoursPerDay:   policy.MaxHoursPerDay,
		MaxHoursPerWeek:  policy.MaxHoursPerWeek,
		MinBreakMinutes:  policy.MinBreakMinutes,
		MaxBreakMinutes:  policy.MaxBreakMinutes,
		NightWorkAllowed: policy.NightWorkAllowed,
		MaxShiftHours:    policy.MaxShiftHours,
	}
}
