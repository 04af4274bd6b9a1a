package reconcile

import (
	"math"

	"github.com/sysu-ecnc-dev/attendance/backend/internal/domain"
)

// DefaultTargetMinutes 是没有 turno 或 turno 未设置目标时的每日目标（8 小时）
const DefaultTargetMinutes = 480

func TargetMinutes(policy *domain.Policy) int {
	if policy == nil || policy.DailyTargetHours == nil {
		return DefaultTargetMinutes
	}
	hours := *policy.DailyTargetHours
	if math.IsNaN(hours) || math.IsInf(hours, 0) || hours < 0 {
		return DefaultTargetMinutes
	}
	return int(math.Round(hours * 60))
}

func OvertimeMinutes(workedMinutes, targetMinutes int) int {
	return max(0, workedMinutes-targetMinutes)
}
