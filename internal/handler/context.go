package handler

type ContextKey string

var (
	RoleCtxKey      ContextKey = "role"
	SubCtxKey       ContextKey = "sub"
	CompanyCtxKey   ContextKey = "company"
	MyInfoCtx       ContextKey = "myInfo"
	EmployeeCtx     ContextKey = "employee"
	PolicyCtx       ContextKey = "policy"
	PlanTemplateCtx ContextKey = "planTemplate"
	ShiftIDCtx      ContextKey = "shiftID"
)
