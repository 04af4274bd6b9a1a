package domain

import (
	"encoding/json"
	"time"
)

type ShiftState string

const (
	ShiftStateOpen       ShiftState = "open"
	ShiftStateClosed     ShiftState = "closed"
	ShiftStateIncomplete ShiftState = "incomplete"
)

const (
	CloseReasonEndOfDay         = "fin_dia"
	CloseReasonDurationExceeded = "exceso_duracion"

	CloseOriginAutomatic       = "automatic"
	CloseOriginSafetyAutoClose = "safety-auto-close"
)

// Shift 即一次 jornada，员工第一次 entry 时创建，从不删除
type Shift struct {
	ID                int64           `json:"id"`
	CompanyID         int64           `json:"companyID"`
	EmployeeID        int64           `json:"employeeID"`
	StartTime         time.Time       `json:"startTime"`
	EndTime           *time.Time      `json:"endTime"`
	State             ShiftState      `json:"state"`
	WorkedMinutes     int32           `json:"workedMinutes"`
	BreakMinutes      int32           `json:"breakMinutes"`
	OvertimeMinutes   int32           `json:"overtimeMinutes"`
	IncidentNote      string          `json:"incidentNote"`
	DayPlanTemplateID *int64          `json:"dayPlanTemplateID"`
	CloseReason       string          `json:"closeReason"`
	CloseOrigin       string          `json:"closeOrigin"`
	Summary           json.RawMessage `json:"summary"`
	CreatedAt         time.Time       `json:"createdAt"`
	Version           int32           `json:"-"`

	// 以下字段只在部分查询中通过 JOIN 填充
	EmployeeName  string `json:"employeeName,omitempty"`
	EmployeeEmail string `json:"-"`
}
