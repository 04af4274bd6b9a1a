package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sysu-ecnc-dev/attendance/backend/internal/domain"
)

type planTemplateRow struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
	Version     int32

	BlockID   sql.NullInt64
	Kind      sql.NullString
	StartTime sql.NullString
	EndTime   sql.NullString
	Mandatory sql.NullBool
	Day       sql.NullInt32
}

func (row *planTemplateRow) dst() []any {
	return []any{
		&row.ID,
		&row.Name,
		&row.Description,
		&row.CreatedAt,
		&row.Version,
		&row.BlockID,
		&row.Kind,
		&row.StartTime,
		&row.EndTime,
		&row.Mandatory,
		&row.Day,
	}
}

const planTemplateQuery = `
	SELECT
		pt.id,
		pt.name,
		pt.description,
		pt.created_at,
		pt.version,
		ptb.id,
		ptb.kind,
		ptb.start_time,
		ptb.end_time,
		ptb.mandatory,
		ptbad.day
	FROM plan_templates pt
	LEFT JOIN plan_template_blocks ptb ON pt.id = ptb.template_id
	LEFT JOIN plan_template_block_applicable_days ptbad ON ptb.id = ptbad.block_id
`

// scanPlanTemplates 把 JOIN 展开的行重新组装成模板，保持查询返回的顺序
func scanPlanTemplates(rows *sql.Rows, companyID int64) ([]*domain.PlanTemplate, error) {
	templates := make([]*domain.PlanTemplate, 0)
	templatesMap := make(map[int64]*domain.PlanTemplate)
	blocksMap := make(map[int64]map[int64]int) // templateID -> blockID -> Blocks 中的下标

	for rows.Next() {
		var row planTemplateRow
		if err := rows.Scan(row.dst()...); err != nil {
			return nil, err
		}

		template, exists := templatesMap[row.ID]
		if !exists {
			template = &domain.PlanTemplate{
				ID:          row.ID,
				CompanyID:   companyID,
				Name:        row.Name,
				Description: row.Description,
				Blocks:      make([]domain.PlanTemplateBlock, 0),
				CreatedAt:   row.CreatedAt,
				Version:     row.Version,
			}
			templatesMap[row.ID] = template
			blocksMap[row.ID] = make(map[int64]int)
			templates = append(templates, template)
		}

		// 模板下没有任何时间块
		if !row.BlockID.Valid {
			continue
		}

		idx, exists := blocksMap[row.ID][row.BlockID.Int64]
		if !exists {
			template.Blocks = append(template.Blocks, domain.PlanTemplateBlock{
				ID:             row.BlockID.Int64,
				Kind:           domain.IntervalKind(row.Kind.String),
				StartTime:      row.StartTime.String,
				EndTime:        row.EndTime.String,
				Mandatory:      row.Mandatory.Bool,
				ApplicableDays: make([]int32, 0),
			})
			idx = len(template.Blocks) - 1
			blocksMap[row.ID][row.BlockID.Int64] = idx
		}

		if !row.Day.Valid {
			continue
		}

		template.Blocks[idx].ApplicableDays = append(template.Blocks[idx].ApplicableDays, row.Day.Int32)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return templates, nil
}

func (r *Repository) GetAllPlanTemplates(ctx context.Context, companyID int64) ([]*domain.PlanTemplate, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	query := planTemplateQuery + `
		WHERE pt.company_id = $1
		ORDER BY pt.id, ptb.start_time, ptb.id, ptbad.day
	`

	rows, err := r.dbpool.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPlanTemplates(rows, companyID)
}

func (r *Repository) GetPlanTemplate(ctx context.Context, companyID, id int64) (*domain.PlanTemplate, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	query := planTemplateQuery + `
		WHERE pt.company_id = $1 AND pt.id = $2
		ORDER BY ptb.start_time, ptb.id, ptbad.day
	`

	rows, err := r.dbpool.QueryContext(ctx, query, companyID, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates, err := scanPlanTemplates(rows, companyID)
	if err != nil {
		return nil, err
	}
	if len(templates) == 0 {
		return nil, sql.ErrNoRows
	}

	return templates[0], nil
}

func (r *Repository) CreatePlanTemplate(ctx context.Context, template *domain.PlanTemplate) error {
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
		INSERT INTO plan_templates (company_id, name, description)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, version
	`
	if err := tx.QueryRowContext(ctx, query, template.CompanyID, template.Name, template.Description).Scan(&template.ID, &template.CreatedAt, &template.Version); err != nil {
		return err
	}

	for i := range template.Blocks {
		block := &template.Blocks[i]

		query = `
			INSERT INTO plan_template_blocks (template_id, kind, start_time, end_time, mandatory)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`
		params := []any{template.ID, block.Kind, block.StartTime, block.EndTime, block.Mandatory}
		if err := tx.QueryRowContext(ctx, query, params...).Scan(&block.ID); err != nil {
			return err
		}

		for _, day := range block.ApplicableDays {
			query = `
				INSERT INTO plan_template_block_applicable_days (block_id, day)
				VALUES ($1, $2)
			`
			if _, err := tx.ExecContext(ctx, query, block.ID, day); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// DeletePlanTemplate 删除模板，不存在时返回 sql.ErrNoRows
func (r *Repository) DeletePlanTemplate(ctx context.Context, companyID, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	query := `DELETE FROM plan_templates WHERE id = $1 AND company_id = $2`

	result, err := r.dbpool.ExecContext(ctx, query, id, companyID)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// isoWeekday 把 time.Weekday 转成 1 (周一) 到 7 (周日)
func isoWeekday(date time.Time) int32 {
	wd := int32(date.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// ResolveDayPlan 返回员工在 date 这一天的预期时间块。
// 员工没有分配模板时返回 sin_plan 模式的空计划。
func (r *Repository) ResolveDayPlan(ctx context.Context, companyID, employeeID int64, date time.Time) (*domain.DayPlan, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	var templateID sql.NullInt64
	query := `SELECT plan_template_id FROM employees WHERE id = $1 AND company_id = $2`
	if err := r.dbpool.QueryRowContext(ctx, query, employeeID, companyID).Scan(&templateID); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
	}

	if !templateID.Valid {
		return &domain.DayPlan{Mode: domain.PlanModeNone, Blocks: make([]domain.ExpectedBlock, 0)}, nil
	}

	query = `
		SELECT ptb.kind, ptb.start_time, ptb.end_time, ptb.mandatory
		FROM plan_template_blocks ptb
		JOIN plan_template_block_applicable_days ptbad ON ptb.id = ptbad.block_id
		WHERE ptb.template_id = $1 AND ptbad.day = $2
		ORDER BY ptb.start_time, ptb.id
	`

	rows, err := r.dbpool.QueryContext(ctx, query, templateID.Int64, isoWeekday(date))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plan := &domain.DayPlan{
		TemplateID: &templateID.Int64,
		Mode:       domain.PlanModeTemplate,
		Blocks:     make([]domain.ExpectedBlock, 0),
	}
	for rows.Next() {
		var block domain.ExpectedBlock
		if err := rows.Scan(&block.Kind, &block.StartTime, &block.EndTime, &block.Mandatory); err != nil {
			return nil, err
		}
		plan.Blocks = append(plan.Blocks, block)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return plan, nil
}
