package reconcile

import (
	"fmt"
	"time"
)

const minutesPerDay = 24 * 60

// LocalDay 返回 t 在 loc 中所在日历日的零点。
// 结果用 UTC 编码，只用于日期之间的比较和加减，不代表真实时刻。
func LocalDay(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, time.UTC)
}

// CivilMinutes 按 loc 中的挂钟时间计算 t 距离 day 零点的分钟数。
// day 必须是 LocalDay 的返回值；第二天的时刻会得到大于 1440 的值，不会回绕。
func CivilMinutes(day time.Time, t time.Time, loc *time.Location) int {
	lt := t.In(loc)
	days := int(LocalDay(t, loc).Sub(day).Hours() / 24)
	return days*minutesPerDay + lt.Hour()*60 + lt.Minute()
}

// ParseClock 解析 "15:04" 或 "15:04:05" 形式的当地时间，返回距离零点的分钟数
func ParseClock(s string) (int, error) {
	if s == "24:00" || s == "24:00:00" {
		return minutesPerDay, nil
	}
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Hour()*60 + t.Minute(), nil
		}
	}
	return 0, fmt.Errorf("无法解析时间 %q", s)
}

// FormatClock 把距离零点的分钟数格式化为 "15:04"，超过一天的部分会被忽略
func FormatClock(minutes int) string {
	m := ((minutes % minutesPerDay) + minutesPerDay) % minutesPerDay
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
