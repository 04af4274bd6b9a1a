package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/attendance/backend/internal/domain"
	"github.com/sysu-ecnc-dev/attendance/backend/internal/repository"
)

type clockEventResult struct {
	Event *domain.ClockEvent `json:"event"`
	Shift *domain.Shift      `json:"shift"`
}

func (h *Handler) RecordClockEvent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EmployeeID int64                 `json:"employeeID" validate:"required,gt=0"`
		Kind       domain.ClockEventKind `json:"kind" validate:"required,oneof=entry exit break_start break_end"`
		Timestamp  *time.Time            `json:"timestamp"`
		Note       string                `json:"note" validate:"max=500"`
		Location   string                `json:"location" validate:"max=200"`
		Suspicious bool                  `json:"suspicious"`
		Manual     bool                  `json:"manual"`
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

	employee, err := h.repository.GetEmployeeByID(r.Context(), companyID, req.EmployeeID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "员工不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}
	if !employee.IsActive {
		h.errorResponse(w, r, "员工已停用")
		return
	}

	event := &domain.ClockEvent{
		EmployeeID: employee.ID,
		Kind:       req.Kind,
		Timestamp:  time.Now(),
		Note:       req.Note,
		Suspicious: req.Suspicious,
		Location:   req.Location,
		Origin:     domain.ClockEventOriginDevice,
		Manual:     req.Manual,
	}
	if req.Timestamp != nil {
		event.Timestamp = *req.Timestamp
	}
	if req.Manual {
		event.Origin = domain.ClockEventOriginManual
	}

	shiftID, err := h.repository.RecordClockEvent(r.Context(), companyID, event)
	if err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.Is(err, repository.ErrNoOpenShift):
			h.errorResponse(w, r, "员工当前没有未关闭的班次")
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "shifts_one_open_per_employee":
			h.errorResponse(w, r, "员工已有未关闭的班次，请稍后重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	// 事件已经保存，重算失败时只记录日志，下次查看班次时会再次重算
	shift, err := h.recomputer.Recompute(r.Context(), shiftID)
	if err != nil {
		slog.Error("打卡后重算班次失败", "shiftID", shiftID, "error", err)
		h.successResponse(w, r, "打卡成功，班次摘要稍后更新", clockEventResult{Event: event})
		return
	}

	h.successResponse(w, r, "打卡成功", clockEventResult{Event: event, Shift: shift})
}
