package domain

import "time"

// Policy 即员工的 turno，所有上限字段为空表示不限制
type Policy struct {
	ID               int64     `json:"id"`
	CompanyID        int64     `json:"companyID"`
	Name             string    `json:"name"`
	DailyTargetHours *float64  `json:"dailyTargetHours"`
	MaxHoursPerDay   *float64  `json:"maxHoursPerDay"`
	MaxHoursPerWeek  *float64  `json:"maxHoursPerWeek"`
	MinBreakMinutes  *int32    `json:"minBreakMinutes"`
	MaxBreakMinutes  *int32    `json:"maxBreakMinutes"`
	NightWorkAllowed bool      `json:"nightWorkAllowed"`
	MaxShiftHours    *float64  `json:"maxShiftHours"`
	CreatedAt        time.Time `json:"createdAt"`
	Version          int32     `json:"-"`
}
