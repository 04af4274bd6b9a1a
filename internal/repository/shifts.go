package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/sysu-ecnc-dev/attendance/backend/internal/domain"
)

const shiftColumns = `
	s.id, s.company_id, s.employee_id, s.start_time, s.end_time, s.state,
	s.worked_minutes, s.break_minutes, s.overtime_minutes, s.incident_note,
	s.day_plan_template_id, s.close_reason, s.close_origin, s.summary, s.created_at, s.version,
	e.full_name, e.email
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanShift(row rowScanner) (*domain.Shift, error) {
	shift := &domain.Shift{}
	var summary []byte

	dst := []any{
		&shift.ID,
		&shift.CompanyID,
		&shift.EmployeeID,
		&shift.StartTime,
		&shift.EndTime,
		&shift.State,
		&shift.WorkedMinutes,
		&shift.BreakMinutes,
		&shift.OvertimeMinutes,
		&shift.IncidentNote,
		&shift.DayPlanTemplateID,
		&shift.CloseReason,
		&shift.CloseOrigin,
		&summary,
		&shift.CreatedAt,
		&shift.Version,
		&shift.EmployeeName,
		&shift.EmployeeEmail,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}
	shift.Summary = summary

	return shift, nil
}

func (r *Repository) GetShiftByID(ctx context.Context, id int64) (*domain.Shift, error) {
	query := `
		SELECT ` + shiftColumns + `
		FROM shifts s
		JOIN employees e ON e.id = s.employee_id
		WHERE s.id = $1
	`

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	return scanShift(r.dbpool.QueryRowContext(ctx, query, id))
}

type ShiftFilter struct {
	CompanyID  int64
	EmployeeID *int64
	From       *time.Time
	To         *time.Time
	State      *domain.ShiftState
}

// GetShifts 按开始时间升序返回满足条件的班次，From 包含、To 不包含
func (r *Repository) GetShifts(ctx context.Context, filter ShiftFilter) ([]*domain.Shift, error) {
	query := `
		SELECT ` + shiftColumns + `
		FROM shifts s
		JOIN employees e ON e.id = s.employee_id
		WHERE s.company_id = $1
			AND ($2::bigint IS NULL OR s.employee_id = $2)
			AND ($3::timestamptz IS NULL OR s.start_time >= $3)
			AND ($4::timestamptz IS NULL OR s.start_time < $4)
			AND ($5::text IS NULL OR s.state = $5)
		ORDER BY s.start_time, s.id
	`

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	var state *string
	if filter.State != nil {
		s := string(*filter.State)
		state = &s
	}

	args := []any{filter.CompanyID, filter.EmployeeID, filter.From, filter.To, state}
	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectShifts(rows)
}

func collectShifts(rows *sql.Rows) ([]*domain.Shift, error) {
	shifts := make([]*domain.Shift, 0)
	for rows.Next() {
		shift, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		shifts = append(shifts, shift)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return shifts, nil
}

// ListOpenShifts 返回所有公司中仍处于 open 状态的班次
func (r *Repository) ListOpenShifts(ctx context.Context) ([]*domain.Shift, error) {
	query := `
		SELECT ` + shiftColumns + `
		FROM shifts s
		JOIN employees e ON e.id = s.employee_id
		WHERE s.state = 'open'
		ORDER BY s.start_time, s.id
	`

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectShifts(rows)
}

// SumWorkedMinutesBetween 统计员工在 [from, to) 内开始的班次的工作分钟数，不包括 excludeShiftID
func (r *Repository) SumWorkedMinutesBetween(ctx context.Context, employeeID int64, from, to time.Time, excludeShiftID int64) (int, error) {
	query := `
		SELECT COALESCE(SUM(worked_minutes), 0)
		FROM shifts
		WHERE employee_id = $1 AND start_time >= $2 AND start_time < $3 AND id <> $4
	`

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	var total int64
	if err := r.dbpool.QueryRowContext(ctx, query, employeeID, from, to, excludeShiftID).Scan(&total); err != nil {
		return 0, err
	}

	return int(total), nil
}

// UpdateShiftSummary 只覆盖汇总相关的字段，不修改班次的状态和结束时间
func (r *Repository) UpdateShiftSummary(ctx context.Context, shift *domain.Shift) error {
	query := `
		UPDATE shifts
		SET
			worked_minutes = $1,
			break_minutes = $2,
			overtime_minutes = $3,
			day_plan_template_id = $4,
			summary = $5,
			version = version + 1
		WHERE id = $6
		RETURNING version
	`

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	args := []any{shift.WorkedMinutes, shift.BreakMinutes, shift.OvertimeMinutes, shift.DayPlanTemplateID, string(shift.Summary), shift.ID}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&shift.Version); err != nil {
		return err
	}

	return nil
}

// CloseShiftAutomatically 关闭班次并插入审计用的 exit 事件。
// 只有仍处于 open 状态的班次会被更新，否则返回 sql.ErrNoRows。
func (r *Repository) CloseShiftAutomatically(ctx context.Context, shift *domain.Shift, exit *domain.ClockEvent) error {
	ctx, cancel := context.WithTimeout(ctx, r.transactionTimeout())
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		UPDATE shifts
		SET
			end_time = $1,
			worked_minutes = $2,
			state = $3,
			incident_note = $4,
			close_reason = $5,
			close_origin = $6,
			version = version + 1
		WHERE id = $7 AND state = 'open'
		RETURNING version
	`
	args := []any{shift.EndTime, shift.WorkedMinutes, shift.State, shift.IncidentNote, shift.CloseReason, shift.CloseOrigin, shift.ID}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&shift.Version); err != nil {
		return err
	}

	if err := insertClockEvent(ctx, tx, exit); err != nil {
		return err
	}

	return tx.Commit()
}
