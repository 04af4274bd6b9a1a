package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/attendance/backend/internal/domain"
)

type policyRequest struct {
	Name             string   `json:"name" validate:"required,max=100"`
	DailyTargetHours *float64 `json:"dailyTargetHours" validate:"omitempty,gt=0,lte=24"`
	MaxHoursPerDay   *float64 `json:"maxHoursPerDay" validate:"omitempty,gt=0,lte=24"`
	MaxHoursPerWeek  *float64 `json:"maxHoursPerWeek" validate:"omitempty,gt=0,lte=168"`
	MinBreakMinutes  *int32   `json:"minBreakMinutes" validate:"omitempty,gte=0,lte=1440"`
	MaxBreakMinutes  *int32   `json:"maxBreakMinutes" validate:"omitempty,gte=0,lte=1440"`
	NightWorkAllowed bool     `json:"nightWorkAllowed"`
	MaxShiftHours    *float64 `json:"maxShiftHours" validate:"omitempty,gt=0,lte=48"`
}

func (req *policyRequest) apply(policy *domain.Policy) {
	policy.Name = req.Name
	policy.DailyTargetHours = req.DailyTargetHours
	policy.MaxHoursPerDay = req.MaxHoursPerDay
	policy.MaxHoursPerWeek = req.MaxHoursPerWeek
	policy.MinBreakMinutes = req.MinBreakMinutes
	policy.MaxBreakMinutes = req.MaxBreakMinutes
	policy.NightWorkAllowed = req.NightWorkAllowed
	policy.MaxShiftHours = req.MaxShiftHours
}

// readPolicyRequest 读取并校验请求，失败时已经写好了响应
func (h *Handler) readPolicyRequest(w http.ResponseWriter, r *http.Request) (*policyRequest, bool) {
	req := &policyRequest{}
	if err := h.readJSON(r, req); err != nil {
		h.badRequest(w, r, err)
		return nil, false
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return nil, false
	}
	if req.MinBreakMinutes != nil && req.MaxBreakMinutes != nil && *req.MinBreakMinutes > *req.MaxBreakMinutes {
		h.errorResponse(w, r, "最短休息时间不能大于最长休息时间")
		return nil, false
	}
	return req, true
}

func (h *Handler) policyConflict(w http.ResponseWriter, r *http.Request, err error) {
	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &pgErr) && pgErr.ConstraintName == "policies_company_id_name_key":
		h.errorResponse(w, r, "turno 名称已存在")
	case errors.Is(err, sql.ErrNoRows):
		h.errorResponse(w, r, "turno 已被修改，请刷新后重试")
	default:
		h.internalServerError(w, r, err)
	}
}

func (h *Handler) CreatePolicy(w http.ResponseWriter, r *http.Request) {
	req, ok := h.readPolicyRequest(w, r)
	if !ok {
		return
	}

	policy := &domain.Policy{CompanyID: h.companyID(r)}
	req.apply(policy)

	if err := h.repository.CreatePolicy(r.Context(), policy); err != nil {
		h.policyConflict(w, r, err)
		return
	}

	h.successResponse(w, r, "创建 turno 成功", policy)
}

func (h *Handler) GetAllPolicies(w http.ResponseWriter, r *http.Request) {
	policies, err := h.repository.GetAllPolicies(r.Context(), h.companyID(r))
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取所有 turno 成功", policies)
}

func (h *Handler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	policy := r.Context().Value(PolicyCtx).(*domain.Policy)
	h.successResponse(w, r, "获取 turno 成功", policy)
}

// UpdatePolicy 整体替换 turno 的所有字段，已有班次的摘要在下次重算时才会变化
func (h *Handler) UpdatePolicy(w http.ResponseWriter, r *http.Request) {
	req, ok := h.readPolicyRequest(w, r)
	if !ok {
		return
	}

	policy := r.Context().Value(PolicyCtx).(*domain.Policy)
	req.apply(policy)

	if err := h.repository.UpdatePolicy(r.Context(), policy); err != nil {
		h.policyConflict(w, r, err)
		return
	}

	h.successResponse(w, r, "更新 turno 成功", policy)
}
