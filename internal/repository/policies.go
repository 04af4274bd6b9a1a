package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/sysu-ecnc-dev/attendance/backend/internal/domain"
)

const policyColumns = `
	p.id, p.company_id, p.name, p.daily_target_hours, p.max_hours_per_day, p.max_hours_per_week,
	p.min_break_minutes, p.max_break_minutes, p.night_work_allowed, p.max_shift_hours, p.created_at, p.version
`

func policyDst(p *domain.Policy) []any {
	return []any{
		&p.ID,
		&p.CompanyID,
		&p.Name,
		&p.DailyTargetHours,
		&p.MaxHoursPerDay,
		&p.MaxHoursPerWeek,
		&p.MinBreakMinutes,
		&p.MaxBreakMinutes,
		&p.NightWorkAllowed,
		&p.MaxShiftHours,
		&p.CreatedAt,
		&p.Version,
	}
}

func (r *Repository) CreatePolicy(ctx context.Context, policy *domain.Policy) error {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	query := `
		INSERT INTO policies (
			company_id, name, daily_target_hours, max_hours_per_day, max_hours_per_week,
			min_break_minutes, max_break_minutes, night_work_allowed, max_shift_hours
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, version
	`

	args := []any{
		policy.CompanyID,
		policy.Name,
		policy.DailyTargetHours,
		policy.MaxHoursPerDay,
		policy.MaxHoursPerWeek,
		policy.MinBreakMinutes,
		policy.MaxBreakMinutes,
		policy.NightWorkAllowed,
		policy.MaxShiftHours,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&policy.ID, &policy.CreatedAt, &policy.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetPolicyByID(ctx context.Context, companyID, id int64) (*domain.Policy, error) {
	query := `SELECT ` + policyColumns + ` FROM policies p WHERE p.id = $1 AND p.company_id = $2`

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	policy := &domain.Policy{}
	if err := r.dbpool.QueryRowContext(ctx, query, id, companyID).Scan(policyDst(policy)...); err != nil {
		return nil, err
	}

	return policy, nil
}

func (r *Repository) GetAllPolicies(ctx context.Context, companyID int64) ([]*domain.Policy, error) {
	query := `SELECT ` + policyColumns + ` FROM policies p WHERE p.company_id = $1 ORDER BY p.id`

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	policies := make([]*domain.Policy, 0)
	for rows.Next() {
		policy := &domain.Policy{}
		if err := rows.Scan(policyDst(policy)...); err != nil {
			return nil, err
		}
		policies = append(policies, policy)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return policies, nil
}

func (r *Repository) UpdatePolicy(ctx context.Context, policy *domain.Policy) error {
	query := `
		UPDATE policies
		SET
			name = $1,
			daily_target_hours = $2,
			max_hours_per_day = $3,
			max_hours_per_week = $4,
			min_break_minutes = $5,
			max_break_minutes = $6,
			night_work_allowed = $7,
			max_shift_hours = $8,
			version = version + 1
		WHERE id = $9 AND company_id = $10 AND version = $11
		RETURNING version
	`

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	args := []any{
		policy.Name,
		policy.DailyTargetHours,
		policy.MaxHoursPerDay,
		policy.MaxHoursPerWeek,
		policy.MinBreakMinutes,
		policy.MaxBreakMinutes,
		policy.NightWorkAllowed,
		policy.MaxShiftHours,
		policy.ID,
		policy.CompanyID,
		policy.Version,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&policy.Version); err != nil {
		return err
	}

	return nil
}

// GetPolicyProfile 返回员工当前分配的 turno，没有分配时返回 nil, nil
func (r *Repository) GetPolicyProfile(ctx context.Context, companyID, employeeID int64) (*domain.Policy, error) {
	query := `
		SELECT ` + policyColumns + `
		FROM employees e
		JOIN policies p ON p.id = e.policy_id
		WHERE e.id = $1 AND e.company_id = $2
	`

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	policy := &domain.Policy{}
	if err := r.dbpool.QueryRowContext(ctx, query, employeeID, companyID).Scan(policyDst(policy)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return policy, nil
}
