package handler

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/sysu-ecnc-dev/attendance/backend/internal/domain"
	"github.com/sysu-ecnc-dev/attendance/backend/internal/export"
	"github.com/sysu-ecnc-dev/attendance/backend/internal/recompute"
	"github.com/sysu-ecnc-dev/attendance/backend/internal/repository"
)

const dateLayout = "2006-01-02"

// parseShiftFilter 解析查询参数，from 和 to 都是包含在内的日期
func (h *Handler) parseShiftFilter(r *http.Request) (repository.ShiftFilter, string) {
	filter := repository.ShiftFilter{CompanyID: h.companyID(r)}
	query := r.URL.Query()

	if v := query.Get("employeeID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return filter, "员工ID无效"
		}
		filter.EmployeeID = &id
	}

	if v := query.Get("from"); v != "" {
		from, err := time.ParseInLocation(dateLayout, v, h.location)
		if err != nil {
			return filter, "开始日期格式应为 YYYY-MM-DD"
		}
		filter.From = &from
	}

	if v := query.Get("to"); v != "" {
		to, err := time.ParseInLocation(dateLayout, v, h.location)
		if err != nil {
			return filter, "结束日期格式应为 YYYY-MM-DD"
		}
		to = to.AddDate(0, 0, 1)
		filter.To = &to
	}

	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		return filter, "开始日期不能晚于结束日期"
	}

	if v := query.Get("state"); v != "" {
		state := domain.ShiftState(v)
		switch state {
		case domain.ShiftStateOpen, domain.ShiftStateClosed, domain.ShiftStateIncomplete:
			filter.State = &state
		default:
			return filter, "班次状态无效"
		}
	}

	return filter, ""
}

func (h *Handler) GetShifts(w http.ResponseWriter, r *http.Request) {
	filter, msg := h.parseShiftFilter(r)
	if msg != "" {
		h.errorResponse(w, r, msg)
		return
	}

	shifts, err := h.repository.GetShifts(r.Context(), filter)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取班次列表成功", shifts)
}

func (h *Handler) ExportShifts(w http.ResponseWriter, r *http.Request) {
	filter, msg := h.parseShiftFilter(r)
	if msg != "" {
		h.errorResponse(w, r, msg)
		return
	}

	shifts, err := h.repository.GetShifts(r.Context(), filter)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	// 先写到内存里，这样出错时还能返回 JSON
	var buf bytes.Buffer
	if err := export.WriteShifts(&buf, shifts, h.location); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	filename := fmt.Sprintf("shifts-%s.xlsx", time.Now().In(h.location).Format("20060102-150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// loadShift 确认班次属于当前公司，失败时已经写好了响应
func (h *Handler) loadShift(w http.ResponseWriter, r *http.Request) (*domain.Shift, bool) {
	id := r.Context().Value(ShiftIDCtx).(int64)

	shift, err := h.repository.GetShiftByID(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "班次不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return nil, false
	}
	if shift.CompanyID != h.companyID(r) {
		h.errorResponse(w, r, "班次不存在")
		return nil, false
	}

	return shift, true
}

func (h *Handler) recomputeAndRespond(w http.ResponseWriter, r *http.Request, msg string) {
	shift, ok := h.loadShift(w, r)
	if !ok {
		return
	}

	updated, err := h.recomputer.Recompute(r.Context(), shift.ID)
	if err != nil {
		switch {
		case errors.Is(err, recompute.ErrShiftNotFound):
			h.errorResponse(w, r, "班次不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, msg, updated)
}

// GetShift 每次查看都会重新计算，保证摘要反映最新的 turno 和计划
func (h *Handler) GetShift(w http.ResponseWriter, r *http.Request) {
	h.recomputeAndRespond(w, r, "获取班次成功")
}

func (h *Handler) RecomputeShift(w http.ResponseWriter, r *http.Request) {
	h.recomputeAndRespond(w, r, "重新计算班次成功")
}

func (h *Handler) GetShiftClockEvents(w http.ResponseWriter, r *http.Request) {
	shift, ok := h.loadShift(w, r)
	if !ok {
		return
	}

	events, err := h.repository.GetClockEventsByShiftID(r.Context(), shift.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取打卡记录成功", events)
}
