package domain

import "time"

type IntervalKind string

const (
	IntervalWork  IntervalKind = "work"
	IntervalBreak IntervalKind = "break"
)

// Interval 由成对的打卡事件推导而来，不单独持久化
type Interval struct {
	Kind     IntervalKind `json:"kind"`
	Start    time.Time    `json:"start"`
	End      time.Time    `json:"end"`
	Minutes  int          `json:"minutes"`
	Location string       `json:"location,omitempty"`
}
