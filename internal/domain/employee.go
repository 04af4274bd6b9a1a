package domain

import "time"

type Employee struct {
	ID             int64     `json:"id"`
	CompanyID      int64     `json:"companyID"`
	FullName       string    `json:"fullName"`
	Email          string    `json:"email"`
	PolicyID       *int64    `json:"policyID"`
	PlanTemplateID *int64    `json:"planTemplateID"`
	IsActive       bool      `json:"isActive"`
	CreatedAt      time.Time `json:"createdAt"`
	Version        int32     `json:"-"`
}
