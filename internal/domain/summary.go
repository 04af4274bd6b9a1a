package domain

// ShiftSummary 是引擎唯一的持久化产物，每次重算整体覆盖
type ShiftSummary struct {
	Date            string          `json:"date"`
	PolicySnapshot  *PolicySnapshot `json:"policySnapshot"`
	TemplateID      *int64          `json:"templateID"`
	PlanMode        string          `json:"planMode"`
	ExpectedRange   *ExpectedRange  `json:"expectedRange"`
	ExpectedBlocks  []ExpectedBlock `json:"expectedBlocks"`
	RealIntervals   []Interval      `json:"realIntervals"`
	WorkedMinutes   int             `json:"workedMinutes"`
	BreakMinutes    int             `json:"breakMinutes"`
	OvertimeMinutes int             `json:"overtimeMinutes"`
	Deviations      []Deviation     `json:"deviations"`
	Metrics         PlanMetrics     `json:"metrics"`
	Advisories      []Deviation     `json:"advisories"`
}

type PolicySnapshot struct {
	PolicyID         int64    `json:"policyID"`
	Name             string   `json:"name"`
	DailyTargetHours *float64 `json:"dailyTargetHours"`
	MaxHoursPerDay   *float64 `json:"maxHoursPerDay"`
	MaxHoursPerWeek  *float64 `json:"maxHoursPerWeek"`
	MinBreakMinutes  *int32   `json:"minBreakMinutes"`
	MaxBreakMinutes  *int32   `json:"maxBreakMinutes"`
	NightWorkAllowed bool     `json:"nightWorkAllowed"`
	MaxShiftHours    *float64 `json:"maxShiftHours"`
}

type ExpectedRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type PlanMetrics struct {
	WorkInsideMinutes   int  `json:"workInsideMinutes"`
	WorkOutsideMinutes  int  `json:"workOutsideMinutes"`
	BreakInsideMinutes  int  `json:"breakInsideMinutes"`
	BreakOutsideMinutes int  `json:"breakOutsideMinutes"`
	LateMinutes         int  `json:"lateMinutes"`
	EarlyLeaveMinutes   int  `json:"earlyLeaveMinutes"`
	PlannedWorkMinutes  int  `json:"plannedWorkMinutes"`
	PlannedBreakMinutes int  `json:"plannedBreakMinutes"`
	NightWorkDetected   bool `json:"nightWorkDetected"`
	WeekWorkedMinutes   int  `json:"weekWorkedMinutes"`
}
