package repository

import (
	"context"

	"github.com/sysu-ecnc-dev/attendance/backend/internal/domain"
)

func (r *Repository) CreateEmployee(ctx context.Context, employee *domain.Employee) error {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	query := `
		INSERT INTO employees (company_id, full_name, email, policy_id, plan_template_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, is_active, created_at, version
	`

	args := []any{employee.CompanyID, employee.FullName, employee.Email, employee.PolicyID, employee.PlanTemplateID}
	dst := []any{&employee.ID, &employee.IsActive, &employee.CreatedAt, &employee.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(dst...); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetEmployeeByID(ctx context.Context, companyID, id int64) (*domain.Employee, error) {
	query := `
		SELECT full_name, email, policy_id, plan_template_id, is_active, created_at, version
		FROM employees WHERE id = $1 AND company_id = $2
	`

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	employee := &domain.Employee{
		ID:        id,
		CompanyID: companyID,
	}

	dst := []any{&employee.FullName, &employee.Email, &employee.PolicyID, &employee.PlanTemplateID, &employee.IsActive, &employee.CreatedAt, &employee.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id, companyID).Scan(dst...); err != nil {
		return nil, err
	}

	return employee, nil
}

func (r *Repository) GetAllEmployees(ctx context.Context, companyID int64) ([]*domain.Employee, error) {
	query := `
		SELECT id, full_name, email, policy_id, plan_template_id, is_active, created_at, version
		FROM employees WHERE company_id = $1
		ORDER BY id
	`

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	employees := make([]*domain.Employee, 0)
	for rows.Next() {
		employee := &domain.Employee{CompanyID: companyID}
		dst := []any{&employee.ID, &employee.FullName, &employee.Email, &employee.PolicyID, &employee.PlanTemplateID, &employee.IsActive, &employee.CreatedAt, &employee.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		employees = append(employees, employee)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return employees, nil
}

// UpdateEmployee 使用 version 做乐观锁，版本不匹配时返回 sql.ErrNoRows
func (r *Repository) UpdateEmployee(ctx context.Context, employee *domain.Employee) error {
	query := `
		UPDATE employees
		SET
			full_name = $1,
			email = $2,
			policy_id = $3,
			plan_template_id = $4,
			is_active = $5,
			version = version + 1
		WHERE id = $6 AND company_id = $7 AND version = $8
		RETURNING created_at, version
	`

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	args := []any{employee.FullName, employee.Email, employee.PolicyID, employee.PlanTemplateID, employee.IsActive, employee.ID, employee.CompanyID, employee.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&employee.CreatedAt, &employee.Version); err != nil {
		return err
	}

	return nil
}
