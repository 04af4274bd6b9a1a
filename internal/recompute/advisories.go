package recompute

import (
	"fmt"
	"math"

	"github.com/sysu-ecnc-dev/attendance/backend/internal/domain"
)

type facts struct {
	workedMinutes     int
	breakMinutes      int
	targetMinutes     int
	weekWorkedMinutes int
	nightWork         bool
	// 第一个落在夜间时段的工作区间，当地时间 RFC3339
	nightStart string
	nightEnd   string
}

func hoursToMinutes(h float64) int {
	return int(math.Round(h * 60))
}

// policyAdvisories 根据 turno 的限制生成建议性提示，班次仍在进行时也照常生成
func policyAdvisories(policy *domain.Policy, f facts) []domain.Deviation {
	advisories := make([]domain.Deviation, 0)

	if policy == nil {
		advisories = append(advisories, domain.Deviation{
			Kind:     domain.AdvisoryNoPolicy,
			Severity: domain.SeverityInfo,
			Message:  "员工未分配 turno，按默认 8 小时目标计算",
			Meta: map[string]any{
				"targetMinutes": f.targetMinutes,
			},
		})
		return advisories
	}

	if f.workedMinutes < f.targetMinutes {
		advisories = append(advisories, domain.Deviation{
			Kind:     domain.AdvisoryBelowTarget,
			Severity: domain.SeverityWarning,
			Message:  fmt.Sprintf("工作时长比目标少 %d 分钟", f.targetMinutes-f.workedMinutes),
			Meta: map[string]any{
				"workedMinutes":  f.workedMinutes,
				"targetMinutes":  f.targetMinutes,
				"deficitMinutes": f.targetMinutes - f.workedMinutes,
			},
		})
	}

	if policy.MaxHoursPerDay != nil && *policy.MaxHoursPerDay > 0 {
		limit := hoursToMinutes(*policy.MaxHoursPerDay)
		if f.workedMinutes > limit {
			advisories = append(advisories, domain.Deviation{
				Kind:     domain.AdvisoryDailyMaxExceeded,
				Severity: domain.SeverityDanger,
				Message:  fmt.Sprintf("当天工作时长超出上限 %d 分钟", f.workedMinutes-limit),
				Meta: map[string]any{
					"workedMinutes": f.workedMinutes,
					"maxMinutes":    limit,
					"excessMinutes": f.workedMinutes - limit,
				},
			})
		}
	}

	if policy.MaxHoursPerWeek != nil && *policy.MaxHoursPerWeek > 0 {
		limit := hoursToMinutes(*policy.MaxHoursPerWeek)
		if f.weekWorkedMinutes > limit {
			advisories = append(advisories, domain.Deviation{
				Kind:     domain.AdvisoryWeeklyMaxExceeded,
				Severity: domain.SeverityWarning,
				Message:  fmt.Sprintf("本周工作时长超出上限 %d 分钟", f.weekWorkedMinutes-limit),
				Meta: map[string]any{
					"weekWorkedMinutes": f.weekWorkedMinutes,
					"maxMinutes":        limit,
					"excessMinutes":     f.weekWorkedMinutes - limit,
				},
			})
		}
	}

	if policy.MinBreakMinutes != nil && f.breakMinutes < int(*policy.MinBreakMinutes) {
		minBreak := int(*policy.MinBreakMinutes)
		advisories = append(advisories, domain.Deviation{
			Kind:     domain.AdvisoryBreakTooShort,
			Severity: domain.SeverityWarning,
			Message:  fmt.Sprintf("休息时间比要求少 %d 分钟", minBreak-f.breakMinutes),
			Meta: map[string]any{
				"breakMinutes":    f.breakMinutes,
				"minBreakMinutes": minBreak,
				"missingMinutes":  minBreak - f.breakMinutes,
			},
		})
	}

	if policy.MaxBreakMinutes != nil && f.breakMinutes > int(*policy.MaxBreakMinutes) {
		maxBreak := int(*policy.MaxBreakMinutes)
		advisories = append(advisories, domain.Deviation{
			Kind:     domain.AdvisoryBreakTooLong,
			Severity: domain.SeverityWarning,
			Message:  fmt.Sprintf("休息时间超出上限 %d 分钟", f.breakMinutes-maxBreak),
			Meta: map[string]any{
				"breakMinutes":    f.breakMinutes,
				"maxBreakMinutes": maxBreak,
				"excessMinutes":   f.breakMinutes - maxBreak,
			},
		})
	}

	if f.nightWork && !policy.NightWorkAllowed {
		advisories = append(advisories, domain.Deviation{
			Kind:     domain.AdvisoryNightWork,
			Severity: domain.SeverityWarning,
			Message:  "在不允许夜间工作的 turno 下检测到夜间工作",
			Meta: map[string]any{
				"nightWorkDetected": true,
				"nightWorkAllowed":  false,
				"intervalStart":     f.nightStart,
				"intervalEnd":       f.nightEnd,
			},
		})
	}

	return advisories
}
