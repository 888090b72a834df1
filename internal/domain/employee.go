package domain

import "time"

type EmployeeStatus string

const (
	EmployeeStatusActive   EmployeeStatus = "ACTIVE"
	EmployeeStatusInactive EmployeeStatus = "INACTIVE"
)

type Employee struct {
	ID           int32          `json:"id"`
	EmployeeCode string         `json:"employee_id"` // tenant-unique human-readable code, e.g. EMP-00042
	UserID       string         `json:"user_id"`
	TenantID     int32          `json:"tenant_id"`
	FullName     string         `json:"full_name"`
	JobTitle     string         `json:"job_title"`
	HireDate     time.Time      `json:"hire_date"`
	Status       EmployeeStatus `json:"status"`
	CreatedOn    time.Time      `json:"created_on"`
}
