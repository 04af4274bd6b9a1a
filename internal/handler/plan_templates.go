package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/attendance/backend/internal/domain"
	"github.com/sysu-ecnc-dev/attendance/backend/internal/utils"
)

func (h *Handler) CreatePlanTemplate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name" validate:"required,max=100"`
		Description string `json:"description" validate:"max=500"`
		Blocks      []struct {
			Kind           domain.IntervalKind `json:"kind" validate:"required,oneof=work break"`
			StartTime      string              `json:"startTime" validate:"required"`
			EndTime        string              `json:"endTime" validate:"required"`
			Mandatory      bool                `json:"mandatory"`
			ApplicableDays []int32             `json:"applicableDays" validate:"required,min=1,dive,min=1,max=7"`
		} `json:"blocks" validate:"required,min=1,dive"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	template := &domain.PlanTemplate{
		CompanyID:   h.companyID(r),
		Name:        req.Name,
		Description: req.Description,
		Blocks:      make([]domain.PlanTemplateBlock, 0, len(req.Blocks)),
	}
	for _, block := range req.Blocks {
		template.Blocks = append(template.Blocks, domain.PlanTemplateBlock{
			Kind:           block.Kind,
			StartTime:      block.StartTime,
			EndTime:        block.EndTime,
			Mandatory:      block.Mandatory,
			ApplicableDays: block.ApplicableDays,
		})
	}

	if err := utils.ValidatePlanTemplateBlocks(template); err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	if err := h.repository.CreatePlanTemplate(r.Context(), template); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "plan_templates_company_id_name_key":
			h.errorResponse(w, r, "模板名称已存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "创建计划模板成功", template)
}

func (h *Handler) GetAllPlanTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.repository.GetAllPlanTemplates(r.Context(), h.companyID(r))
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取所有计划模板成功", templates)
}

func (h *Handler) GetPlanTemplate(w http.ResponseWriter, r *http.Request) {
	template := r.Context().Value(PlanTemplateCtx).(*domain.PlanTemplate)
	h.successResponse(w, r, "获取计划模板成功", template)
}

// DeletePlanTemplate 删除后引用它的员工自动变为 sin_plan
func (h *Handler) DeletePlanTemplate(w http.ResponseWriter, r *http.Request) {
	template := r.Context().Value(PlanTemplateCtx).(*domain.PlanTemplate)

	if err := h.repository.DeletePlanTemplate(r.Context(), template.CompanyID, template.ID); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "模板不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "删除计划模板成功", nil)
}
