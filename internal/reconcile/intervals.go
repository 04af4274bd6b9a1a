package reconcile

import (
	"sort"
	"time"

	"github.com/sysu-ecnc-dev/attendance/backend/internal/domain"
)

// BuildIntervals 把按时间排序的打卡事件折叠成工作和休息区间。
//
// 任意时刻最多只有一个未闭合的 entry 和一个未闭合的 break_start：
// 重复的开始事件被忽略，没有对应开始的结束事件也被忽略，
// 到日志末尾仍未闭合的开始事件不会产生区间。
func BuildIntervals(events []*domain.ClockEvent) []domain.Interval {
	var workOpen, breakOpen *domain.ClockEvent
	intervals := make([]domain.Interval, 0)

	for _, ev := range events {
		if ev == nil || ev.Timestamp.IsZero() {
			continue
		}

		switch ev.Kind {
		case domain.ClockEventEntry:
			if workOpen == nil {
				workOpen = ev
			}
		case domain.ClockEventExit:
			if workOpen != nil {
				intervals = append(intervals, newInterval(domain.IntervalWork, workOpen, ev))
				workOpen = nil
			}
		case domain.ClockEventBreakStart:
			if breakOpen == nil {
				breakOpen = ev
			}
		case domain.ClockEventBreakEnd:
			if breakOpen != nil {
				intervals = append(intervals, newInterval(domain.IntervalBreak, breakOpen, ev))
				breakOpen = nil
			}
		}
	}

	// 输入本应已排序，这里再排一次
	sort.SliceStable(intervals, func(i, j int) bool {
		return intervals[i].Start.Before(intervals[j].Start)
	})

	return intervals
}

func newInterval(kind domain.IntervalKind, opener, closer *domain.ClockEvent) domain.Interval {
	location := opener.Location
	if location == "" {
		location = closer.Location
	}
	return domain.Interval{
		Kind:     kind,
		Start:    opener.Timestamp,
		End:      closer.Timestamp,
		Minutes:  MinutesBetween(opener.Timestamp, closer.Timestamp),
		Location: location,
	}
}

// MinutesBetween 返回 floor((end-start) 毫秒 / 60000)，不会为负
func MinutesBetween(start, end time.Time) int {
	ms := end.Sub(start).Milliseconds()
	if ms <= 0 {
		return 0
	}
	return int(ms / 60000)
}

func SumMinutes(intervals []domain.Interval, kind domain.IntervalKind) int {
	total := 0
	for _, iv := range intervals {
		if iv.Kind == kind {
			total += iv.Minutes
		}
	}
	return total
}
