package utils

import (
	"fmt"
	"slices"

	"github.com/sysu-ecnc-dev/attendance/backend/internal/domain"
	"github.com/sysu-ecnc-dev/attendance/backend/internal/reconcile"
)

type blockSpan struct {
	start int
	end   int
}

// ValidatePlanTemplateBlocks 检查模板中时间块的格式，以及同一天内同类时间块是否冲突。
// 结束时间早于开始时间的块表示跨零点。
func ValidatePlanTemplateBlocks(template *domain.PlanTemplate) error {
	spans := make([]blockSpan, len(template.Blocks))

	for i, block := range template.Blocks {
		start, err := reconcile.ParseClock(block.StartTime)
		if err != nil {
			return fmt.Errorf("时间块 %d 的开始时间格式错误", i+1)
		}
		end, err := reconcile.ParseClock(block.EndTime)
		if err != nil {
			return fmt.Errorf("时间块 %d 的结束时间格式错误", i+1)
		}
		if start == end {
			return fmt.Errorf("时间块 %d 的开始时间和结束时间不能相同", i+1)
		}
		if block.Mandatory && block.Kind != domain.IntervalWork {
			return fmt.Errorf("时间块 %d 只有工作块可以设置为必须出勤", i+1)
		}
		if end < start {
			end += 24 * 60
		}
		spans[i] = blockSpan{start: start, end: end}

		seen := make(map[int32]bool)
		for _, day := range block.ApplicableDays {
			if day < 1 || day > 7 {
				return fmt.Errorf("时间块 %d 的适用日期 %d 无效", i+1, day)
			}
			if seen[day] {
				return fmt.Errorf("时间块 %d 的适用日期 %d 重复", i+1, day)
			}
			seen[day] = true
		}
	}

	// 检查同一天内同类时间块之间是否冲突
	for i := 0; i < len(template.Blocks); i++ {
		for j := i + 1; j < len(template.Blocks); j++ {
			if template.Blocks[i].Kind != template.Blocks[j].Kind {
				continue
			}
			if !shareDay(template.Blocks[i].ApplicableDays, template.Blocks[j].ApplicableDays) {
				continue
			}
			if spans[i].start < spans[j].end && spans[j].start < spans[i].end {
				return fmt.Errorf("时间块 %d 和时间块 %d 之间的时间冲突", i+1, j+1)
			}
		}
	}

	return nil
}

func shareDay(a, b []int32) bool {
	for _, day := range a {
		if slices.Contains(b, day) {
			return true
		}
	}
	return false
}
