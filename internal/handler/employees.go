package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/attendance/backend/internal/domain"
)

// checkAssignments 确认 turno 和计划模板属于当前公司，返回给用户看的错误信息
func (h *Handler) checkAssignments(ctx context.Context, companyID int64, policyID, planTemplateID *int64) (string, error) {
	if policyID != nil {
		if _, err := h.repository.GetPolicyByID(ctx, companyID, *policyID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return "turno 不存在", nil
			}
			return "", err
		}
	}
	if planTemplateID != nil {
		if _, err := h.repository.GetPlanTemplate(ctx, companyID, *planTemplateID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return "计划模板不存在", nil
			}
			return "", err
		}
	}
	return "", nil
}

func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FullName       string `json:"fullName" validate:"required,max=100"`
		Email          string `json:"email" validate:"omitempty,email"`
		PolicyID       *int64 `json:"policyID" validate:"omitempty,gt=0"`
		PlanTemplateID *int64 `json:"planTemplateID" validate:"omitempty,gt=0"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	companyID := h.companyID(r)
	msg, err := h.checkAssignments(r.Context(), companyID, req.PolicyID, req.PlanTemplateID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if msg != "" {
		h.errorResponse(w, r, msg)
		return
	}

	employee := &domain.Employee{
		CompanyID:      companyID,
		FullName:       req.FullName,
		Email:          req.Email,
		PolicyID:       req.PolicyID,
		PlanTemplateID: req.PlanTemplateID,
	}
	if err := h.repository.CreateEmployee(r.Context(), employee); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "创建员工成功", employee)
}

func (h *Handler) GetAllEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.repository.GetAllEmployees(r.Context(), h.companyID(r))
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取所有员工成功", employees)
}

func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	employee := r.Context().Value(EmployeeCtx).(*domain.Employee)
	h.successResponse(w, r, "获取员工信息成功", employee)
}

func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FullName          *string `json:"fullName" validate:"omitempty,max=100"`
		Email             *string `json:"email" validate:"omitempty,email"`
		PolicyID          *int64  `json:"policyID" validate:"omitempty,gt=0"`
		ClearPolicy       bool    `json:"clearPolicy"`
		PlanTemplateID    *int64  `json:"planTemplateID" validate:"omitempty,gt=0"`
		ClearPlanTemplate bool    `json:"clearPlanTemplate"`
		IsActive          *bool   `json:"isActive"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	employee := r.Context().Value(EmployeeCtx).(*domain.Employee)

	msg, err := h.checkAssignments(r.Context(), employee.CompanyID, req.PolicyID, req.PlanTemplateID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if msg != "" {
		h.errorResponse(w, r, msg)
		return
	}

	if req.FullName != nil {
		employee.FullName = *req.FullName
	}
	if req.Email != nil {
		employee.Email = *req.Email
	}
	if req.PolicyID != nil {
		employee.PolicyID = req.PolicyID
	}
	if req.ClearPolicy {
		employee.PolicyID = nil
	}
	if req.PlanTemplateID != nil {
		employee.PlanTemplateID = req.PlanTemplateID
	}
	if req.ClearPlanTemplate {
		employee.PlanTemplateID = nil
	}
	if req.IsActive != nil {
		employee.IsActive = *req.IsActive
	}

	if err := h.repository.UpdateEmployee(r.Context(), employee); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "员工信息已被修改，请刷新后重试")
		case errors.As(err, &pgErr) && pgErr.Code == "23503":
			h.errorResponse(w, r, "turno 或计划模板不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "更新员工信息成功", employee)
}
