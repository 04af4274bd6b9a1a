package domain

import (
	"time"
)

type Role string

const (
	RoleSupervisor Role = "主管"
	RoleAdmin      Role = "管理员"
)

// User 是登录系统的操作员，不是被考勤的员工
type User struct {
	ID           int64     `json:"id"`
	CompanyID    int64     `json:"companyID"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	Version      int32     `json:"-"`
}
