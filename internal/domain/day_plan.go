package domain

import "time"

const (
	PlanModeTemplate = "plantilla"
	PlanModeNone     = "sin_plan"
)

// ExpectedBlock 的时间均为当地时间的 "15:04" 或 "15:04:05"
type ExpectedBlock struct {
	Kind      IntervalKind `json:"kind"`
	StartTime string       `json:"startTime"`
	EndTime   string       `json:"endTime"`
	Mandatory bool         `json:"mandatory"`
}

type DayPlan struct {
	TemplateID *int64          `json:"templateID"`
	Mode       string          `json:"mode"`
	Blocks     []ExpectedBlock `json:"blocks"`
}

type PlanTemplateBlock struct {
	ID             int64        `json:"id"`
	Kind           IntervalKind `json:"kind"`
	StartTime      string       `json:"startTime"`
	EndTime        string       `json:"endTime"`
	Mandatory      bool         `json:"mandatory"`
	ApplicableDays []int32      `json:"applicableDays"`
}

type PlanTemplate struct {
	ID          int64               `json:"id"`
	CompanyID   int64               `json:"companyID"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Blocks      []PlanTemplateBlock `json:"blocks"`
	CreatedAt   time.Time           `json:"createdAt"`
	Version     int32               `json:"-"`
}
