package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/sysu-ecnc-dev/attendance/backend/internal/domain"
)

// ErrNoOpenShift 表示员工当前没有可以挂接该事件的未关闭班次
var ErrNoOpenShift = errors.New("员工当前没有未关闭的班次")

func insertClockEvent(ctx context.Context, tx *sql.Tx, event *domain.ClockEvent) error {
	query := `
		INSERT INTO clock_events (employee_id, shift_id, kind, occurred_at, note, suspicious, location, origin, manual)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`

	args := []any{
		event.EmployeeID,
		event.ShiftID,
		event.Kind,
		event.Timestamp,
		event.Note,
		event.Suspicious,
		event.Location,
		event.Origin,
		event.Manual,
	}
	return tx.QueryRowContext(ctx, query, args...).Scan(&event.ID, &event.CreatedAt)
}

// GetClockEventsByShiftID 按发生时间升序返回班次的全部打卡事件
func (r *Repository) GetClockEventsByShiftID(ctx context.Context, shiftID int64) ([]*domain.ClockEvent, error) {
	query := `
		SELECT id, employee_id, shift_id, kind, occurred_at, note, suspicious, location, origin, manual, created_at
		FROM clock_events
		WHERE shift_id = $1
		ORDER BY occurred_at, id
	`

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, shiftID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*domain.ClockEvent, 0)
	for rows.Next() {
		event := &domain.ClockEvent{}
		dst := []any{
			&event.ID,
			&event.EmployeeID,
			&event.ShiftID,
			&event.Kind,
			&event.Timestamp,
			&event.Note,
			&event.Suspicious,
			&event.Location,
			&event.Origin,
			&event.Manual,
			&event.CreatedAt,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

// RecordClockEvent 在一个事务中保存打卡事件并维护班次：
// entry 在没有未关闭班次时创建新班次，exit 关闭班次，其余事件挂接到未关闭的班次。
// 返回事件所属班次的 ID。
func (r *Repository) RecordClockEvent(ctx context.Context, companyID int64, event *domain.ClockEvent) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.transactionTimeout())
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var shiftID int64
	query := `
		SELECT id FROM shifts
		WHERE employee_id = $1 AND company_id = $2 AND state = 'open'
		FOR UPDATE
	`
	err = tx.QueryRowContext(ctx, query, event.EmployeeID, companyID).Scan(&shiftID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if event.Kind != domain.ClockEventEntry {
			return 0, ErrNoOpenShift
		}

		query = `
			INSERT INTO shifts (company_id, employee_id, start_time, state)
			VALUES ($1, $2, $3, 'open')
			RETURNING id
		`
		if err := tx.QueryRowContext(ctx, query, companyID, event.EmployeeID, event.Timestamp).Scan(&shiftID); err != nil {
			return 0, err
		}
	case err != nil:
		return 0, err
	}

	if event.Kind == domain.ClockEventExit {
		query = `
			UPDATE shifts
			SET end_time = $1, state = 'closed', version = version + 1
			WHERE id = $2
		`
		if _, err := tx.ExecContext(ctx, query, event.Timestamp, shiftID); err != nil {
			return 0, err
		}
	}

	event.ShiftID = &shiftID
	if err := insertClockEvent(ctx, tx, event); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	return shiftID, nil
}
