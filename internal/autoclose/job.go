package autoclose

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/sysu-ecnc-dev/attendance/backend/internal/domain"
	"github.com/sysu-ecnc-dev/attendance/backend/internal/reconcile"
	"github.com/sysu-ecnc-dev/attendance/backend/internal/telemetry"
)

const DefaultMaxShiftHours = 14

const incidentNoteSeparator = "; "

// ErrLocked 表示另一个实例正在执行自动关闭
var ErrLocked = errors.New("自动关闭任务正在其他实例上运行")

type Store interface {
	ListOpenShifts(ctx context.Context) ([]*domain.Shift, error)
	GetPolicyProfile(ctx context.Context, companyID, employeeID int64) (*domain.Policy, error)
	// CloseShiftAutomatically 在同一事务中更新班次并插入审计用的 exit 事件，
	// 班次已不处于 open 状态时返回 sql.ErrNoRows
	CloseShiftAutomatically(ctx context.Context, shift *domain.Shift, exit *domain.ClockEvent) error
}

type Notifier interface {
	NotifyShiftAutoClosed(ctx context.Context, shift *domain.Shift) error
}

type Locker interface {
	TryLock(ctx context.Context) (bool, error)
	Unlock(ctx context.Context) error
}

type Report struct {
	Scanned int `json:"scanned"`
	Closed  int `json:"closed"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

type Job struct {
	store    Store
	notifier Notifier
	locker   Locker
	loc      *time.Location
	maxHours float64
	logger   *slog.Logger
	now      func() time.Time
}

// New 创建自动关闭任务，notifier 和 locker 可以为 nil
func New(store Store, notifier Notifier, locker Locker, loc *time.Location, defaultMaxShiftHours float64, logger *slog.Logger) *Job {
	if loc == nil {
		loc = time.Local
	}
	if defaultMaxShiftHours <= 0 || math.IsNaN(defaultMaxShiftHours) || math.IsInf(defaultMaxShiftHours, 0) {
		defaultMaxShiftHours = DefaultMaxShiftHours
	}
	return &Job{
		store:    store,
		notifier: notifier,
		locker:   locker,
		loc:      loc,
		maxHours: defaultMaxShiftHours,
		logger:   logger,
		now:      time.Now,
	}
}

// Run 扫描所有 open 状态的班次并关闭需要关闭的班次。
// 单个班次失败只记录日志，不影响其余班次。
func (j *Job) Run(ctx context.Context) (*Report, error) {
	if j.locker != nil {
		ok, err := j.locker.TryLock(ctx)
		if err != nil {
			telemetry.AutoCloseRunsTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("获取自动关闭锁失败: %w", err)
		}
		if !ok {
			telemetry.AutoCloseRunsTotal.WithLabelValues("locked").Inc()
			return nil, ErrLocked
		}
		defer func() {
			if err := j.locker.Unlock(context.WithoutCancel(ctx)); err != nil {
				j.logger.Error("释放自动关闭锁失败", "error", err)
			}
		}()
	}

	shifts, err := j.store.ListOpenShifts(ctx)
	if err != nil {
		telemetry.AutoCloseRunsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("读取未关闭班次失败: %w", err)
	}

	now := j.now()
	report := &Report{Scanned: len(shifts)}

	for _, shift := range shifts {
		if ctx.Err() != nil {
			break
		}

		closed, err := j.process(ctx, shift, now)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			report.Skipped++
			telemetry.AutoCloseShiftsTotal.WithLabelValues("skipped").Inc()
			j.logger.Info("班次已被关闭，跳过", "shiftID", shift.ID)
		case err != nil:
			report.Failed++
			telemetry.AutoCloseShiftsTotal.WithLabelValues("failed").Inc()
			j.logger.Error("自动关闭班次失败", "shiftID", shift.ID, "error", err)
		case closed:
			report.Closed++
			telemetry.AutoCloseShiftsTotal.WithLabelValues(shift.CloseReason).Inc()
			j.logger.Info("班次已自动关闭", "shiftID", shift.ID, "reason", shift.CloseReason)
			j.notify(ctx, shift)
		}
	}

	telemetry.AutoCloseRunsTotal.WithLabelValues("ok").Inc()
	return report, ctx.Err()
}

func (j *Job) process(ctx context.Context, shift *domain.Shift, now time.Time) (bool, error) {
	if shift.StartTime.IsZero() {
		return false, nil
	}

	policy, err := j.store.GetPolicyProfile(ctx, shift.CompanyID, shift.EmployeeID)
	if err != nil {
		return false, fmt.Errorf("读取 turno 失败: %w", err)
	}

	closeAt, reason, origin, ok := j.decide(shift, policy, now)
	if !ok {
		return false, nil
	}

	note := reasonNote(reason)
	if shift.IncidentNote == "" {
		shift.IncidentNote = note
	} else {
		shift.IncidentNote = shift.IncidentNote + incidentNoteSeparator + note
	}
	shift.EndTime = &closeAt
	shift.WorkedMinutes = int32(reconcile.MinutesBetween(shift.StartTime, closeAt))
	shift.State = domain.ShiftStateIncomplete
	shift.CloseReason = reason
	shift.CloseOrigin = origin

	exit := &domain.ClockEvent{
		EmployeeID: shift.EmployeeID,
		ShiftID:    &shift.ID,
		Kind:       domain.ClockEventExit,
		Timestamp:  closeAt,
		Note:       note,
		Origin:     domain.ClockEventOriginAutoClose,
	}

	if err := j.store.CloseShiftAutomatically(ctx, shift, exit); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, err
		}
		return false, fmt.Errorf("关闭班次失败: %w", err)
	}

	return true, nil
}

// decide 按顺序判断关闭规则，返回关闭时刻、原因和来源
func (j *Job) decide(shift *domain.Shift, policy *domain.Policy, now time.Time) (time.Time, string, string, bool) {
	startDay := reconcile.LocalDay(shift.StartTime, j.loc)
	today := reconcile.LocalDay(now, j.loc)

	if policy != nil && !policy.NightWorkAllowed && startDay.Before(today) {
		local := shift.StartTime.In(j.loc)
		endOfDay := time.Date(local.Year(), local.Month(), local.Day(), 23, 59, 59, int(999*time.Millisecond), j.loc)
		return endOfDay, domain.CloseReasonEndOfDay, domain.CloseOriginAutomatic, true
	}

	limit := shift.StartTime.Add(time.Duration(j.maxShiftHours(policy) * float64(time.Hour)))
	if !now.Before(limit) {
		return limit, domain.CloseReasonDurationExceeded, domain.CloseOriginSafetyAutoClose, true
	}

	return time.Time{}, "", "", false
}

func (j *Job) maxShiftHours(policy *domain.Policy) float64 {
	if policy == nil || policy.MaxShiftHours == nil {
		return j.maxHours
	}
	h := *policy.MaxShiftHours
	if h <= 0 || math.IsNaN(h) || math.IsInf(h, 0) {
		return j.maxHours
	}
	return h
}

func (j *Job) notify(ctx context.Context, shift *domain.Shift) {
	if j.notifier == nil {
		return
	}
	if err := j.notifier.NotifyShiftAutoClosed(ctx, shift); err != nil {
		j.logger.Error("发送自动关闭通知失败", "shiftID", shift.ID, "error", err)
	}
}

func reasonNote(reason string) string {
	switch reason {
	case domain.CloseReasonEndOfDay:
		return "自动关闭（fin_dia）：不允许夜间工作，班次在开始当天结束时关闭"
	case domain.CloseReasonDurationExceeded:
		return "自动关闭（exceso_duracion）：超过最长班次时长"
	default:
		return "自动关闭（" + reason + "）"
	}
}
