package domain

import "time"

type ClockEventKind string

const (
	ClockEventEntry      ClockEventKind = "entry"
	ClockEventExit       ClockEventKind = "exit"
	ClockEventBreakStart ClockEventKind = "break_start"
	ClockEventBreakEnd   ClockEventKind = "break_end"
)

const (
	ClockEventOriginDevice    = "device"
	ClockEventOriginManual    = "manual"
	ClockEventOriginAutoClose = "auto-close"
)

// ClockEvent 写入后不可修改，更正需要追加新的事件
type ClockEvent struct {
	ID         int64          `json:"id"`
	EmployeeID int64          `json:"employeeID"`
	ShiftID    *int64         `json:"shiftID"`
	Kind       ClockEventKind `json:"kind"`
	Timestamp  time.Time      `json:"timestamp"`
	Note       string         `json:"note"`
	Suspicious bool           `json:"suspicious"`
	Location   string         `json:"location"`
	Origin     string         `json:"origin"`
	Manual     bool           `json:"manual"`
	CreatedAt  time.Time      `json:"createdAt"`
}
