package handler

import (
	"errors"
	"net/http"

	"github.com/sysu-ecnc-dev/attendance/backend/internal/autoclose"
)

// RunAutoClose 同步执行一次自动关闭并返回统计结果
func (h *Handler) RunAutoClose(w http.ResponseWriter, r *http.Request) {
	report, err := h.autoCloser.Run(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, autoclose.ErrLocked):
			h.errorResponse(w, r, "自动关闭任务正在运行，请稍后重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "自动关闭执行完成", report)
}
