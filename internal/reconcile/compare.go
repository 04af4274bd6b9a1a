package reconcile

import (
	"fmt"
	"time"

	"github.com/sysu-ecnc-dev/attendance/backend/internal/domain"
)

// 对比器的固定阈值（分钟），不随调用变化
const (
	workOutsideThreshold       = 15
	breakOutsideThreshold      = 10
	mandatoryCoverageThreshold = 10
)

// span 是相对于班次所在日零点的 [start, end) 分钟区间
type span struct {
	start int
	end   int
}

func (s span) length() int {
	return max(0, s.end-s.start)
}

func overlap(a, b span) int {
	return max(0, min(a.end, b.end)-max(a.start, b.start))
}

type plannedBlock struct {
	block domain.ExpectedBlock
	span  span
}

// blockSpan 把计划块换算成分钟区间，结束时间不晚于开始时间的块视为跨零点
func blockSpan(b domain.ExpectedBlock) (span, bool) {
	start, err := ParseClock(b.StartTime)
	if err != nil {
		return span{}, false
	}
	end, err := ParseClock(b.EndTime)
	if err != nil {
		return span{}, false
	}
	if end <= start {
		end += minutesPerDay
	}
	return span{start: start, end: end}, true
}

func plannedBlocks(blocks []domain.ExpectedBlock, kind domain.IntervalKind) []plannedBlock {
	result := make([]plannedBlock, 0)
	for _, b := range blocks {
		if b.Kind != kind {
			continue
		}
		s, ok := blockSpan(b)
		if !ok {
			continue
		}
		result = append(result, plannedBlock{block: b, span: s})
	}
	return result
}

// ExpectedRange 返回计划中最早的开始和最晚的结束，没有可用的块时返回 nil
func ExpectedRange(blocks []domain.ExpectedBlock) *domain.ExpectedRange {
	first, last, found := 0, 0, false
	for _, b := range blocks {
		s, ok := blockSpan(b)
		if !ok {
			continue
		}
		if !found || s.start < first {
			first = s.start
		}
		if !found || s.end > last {
			last = s.end
		}
		found = true
	}
	if !found {
		return nil
	}
	return &domain.ExpectedRange{Start: FormatClock(first), End: FormatClock(last)}
}

// ComparePlan 对比实际区间与当天的计划，返回偏差列表和覆盖指标。
// 所有比较都按 loc 中的当地挂钟时间进行，day 为 LocalDay 的返回值。
func ComparePlan(plan *domain.DayPlan, intervals []domain.Interval, day time.Time, loc *time.Location) ([]domain.Deviation, domain.PlanMetrics) {
	deviations := make([]domain.Deviation, 0)
	metrics := domain.PlanMetrics{}

	if plan == nil || len(plan.Blocks) == 0 {
		// 分配了模板却没有任何块，说明模板配置有问题
		if plan != nil && plan.TemplateID != nil {
			deviations = append(deviations, domain.Deviation{
				Kind:     domain.DeviationNoExpectedBlocks,
				Severity: domain.SeverityWarning,
				Message:  "已分配计划模板，但当天没有任何预期时间块",
				Meta: map[string]any{
					"templateID": *plan.TemplateID,
				},
			})
		}
		return deviations, metrics
	}

	workBlocks := plannedBlocks(plan.Blocks, domain.IntervalWork)
	breakBlocks := plannedBlocks(plan.Blocks, domain.IntervalBreak)

	for _, b := range workBlocks {
		metrics.PlannedWorkMinutes += b.span.length()
	}
	for _, b := range breakBlocks {
		metrics.PlannedBreakMinutes += b.span.length()
	}

	workSpans := make([]span, 0)
	for _, iv := range intervals {
		s := span{start: CivilMinutes(day, iv.Start, loc), end: CivilMinutes(day, iv.End, loc)}

		blocks := workBlocks
		if iv.Kind == domain.IntervalBreak {
			blocks = breakBlocks
		}

		inside := 0
		for _, b := range blocks {
			inside += overlap(s, b.span)
		}
		inside = min(inside, s.length())
		outside := s.length() - inside

		switch iv.Kind {
		case domain.IntervalWork:
			metrics.WorkInsideMinutes += inside
			metrics.WorkOutsideMinutes += outside
			workSpans = append(workSpans, s)
		case domain.IntervalBreak:
			metrics.BreakInsideMinutes += inside
			metrics.BreakOutsideMinutes += outside
		}
	}

	if len(workBlocks) > 0 && len(workSpans) > 0 {
		plannedStart, plannedEnd := workBlocks[0].span.start, workBlocks[0].span.end
		for _, b := range workBlocks[1:] {
			plannedStart = min(plannedStart, b.span.start)
			plannedEnd = max(plannedEnd, b.span.end)
		}

		// intervals 已按开始时间排序，最后结束的区间不一定是最后一个
		actualStart := workSpans[0].start
		actualEnd := workSpans[0].end
		for _, s := range workSpans[1:] {
			actualEnd = max(actualEnd, s.end)
		}

		if actualStart > plannedStart {
			metrics.LateMinutes = actualStart - plannedStart
			deviations = append(deviations, domain.Deviation{
				Kind:     domain.DeviationLateEntry,
				Severity: domain.SeverityWarning,
				Message:  fmt.Sprintf("比计划晚 %d 分钟开始工作", metrics.LateMinutes),
				Meta: map[string]any{
					"plannedStart": FormatClock(plannedStart),
					"actualStart":  FormatClock(actualStart),
					"lateMinutes":  metrics.LateMinutes,
				},
			})
		}

		if actualEnd < plannedEnd {
			metrics.EarlyLeaveMinutes = plannedEnd - actualEnd
			deviations = append(deviations, domain.Deviation{
				Kind:     domain.DeviationEarlyDeparture,
				Severity: domain.SeverityWarning,
				Message:  fmt.Sprintf("比计划提前 %d 分钟结束工作", metrics.EarlyLeaveMinutes),
				Meta: map[string]any{
					"plannedEnd":        FormatClock(plannedEnd),
					"actualEnd":         FormatClock(actualEnd),
					"earlyLeaveMinutes": metrics.EarlyLeaveMinutes,
				},
			})
		}
	}

	if metrics.WorkOutsideMinutes >= workOutsideThreshold {
		deviations = append(deviations, domain.Deviation{
			Kind:     domain.DeviationWorkOutsideBlock,
			Severity: domain.SeverityWarning,
			Message:  fmt.Sprintf("有 %d 分钟的工作不在计划时间块内", metrics.WorkOutsideMinutes),
			Meta: map[string]any{
				"outsideMinutes": metrics.WorkOutsideMinutes,
				"insideMinutes":  metrics.WorkInsideMinutes,
			},
		})
	}

	if metrics.BreakOutsideMinutes >= breakOutsideThreshold {
		deviations = append(deviations, domain.Deviation{
			Kind:     domain.DeviationBreakOutsideBlock,
			Severity: domain.SeverityInfo,
			Message:  fmt.Sprintf("有 %d 分钟的休息不在计划休息块内", metrics.BreakOutsideMinutes),
			Meta: map[string]any{
				"outsideMinutes": metrics.BreakOutsideMinutes,
				"insideMinutes":  metrics.BreakInsideMinutes,
			},
		})
	}

	for _, b := range workBlocks {
		if !b.block.Mandatory {
			continue
		}

		covered := 0
		for _, s := range workSpans {
			covered = max(covered, overlap(s, b.span))
		}

		if covered < mandatoryCoverageThreshold {
			deviations = append(deviations, domain.Deviation{
				Kind:     domain.DeviationMandatoryBlockUncovered,
				Severity: domain.SeverityDanger,
				Message:  fmt.Sprintf("必须出勤的时间块 %s-%s 未被覆盖", FormatClock(b.span.start), FormatClock(b.span.end)),
				Meta: map[string]any{
					"blockStart":     FormatClock(b.span.start),
					"blockEnd":       FormatClock(b.span.end),
					"coveredMinutes": covered,
				},
			})
		}
	}

	return deviations, metrics
}
