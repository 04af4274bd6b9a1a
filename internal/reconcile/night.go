package reconcile

import "time"

const (
	nightStartHour = 22
	nightEndHour   = 6

	// 防止异常的超长区间导致遍历过多天数
	maxNightWalkDays = 10
)

// OverlapsNightWindow 判断 [start, end) 是否与某一天的夜间时段 [22:00, 次日 06:00) 有交集
func OverlapsNightWindow(start, end time.Time, loc *time.Location) bool {
	if !end.After(start) {
		return false
	}

	// 从开始日期前一天的夜间时段开始，这样凌晨的工作也能被发现
	y, m, d := start.In(loc).Date()
	d--

	for i := 0; i < maxNightWalkDays; i++ {
		bandStart := time.Date(y, m, d+i, nightStartHour, 0, 0, 0, loc)
		bandEnd := time.Date(y, m, d+i+1, nightEndHour, 0, 0, 0, loc)

		if !bandStart.Before(end) {
			return false
		}
		if start.Before(bandEnd) && end.After(bandStart) {
			return true
		}
	}

	return false
}
