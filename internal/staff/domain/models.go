// Package domain contains staff and payroll models. Salary lines are
// recurring monthly allowances and deductions applied on top of the base
// salary when a payroll run is executed.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Staff struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	BranchID   snowflake.ID `gorm:"not null;index" json:"branch_id"`
	StaffNo    string       `gorm:"type:text;not null;uniqueIndex:ux_staff_no" json:"staff_no"`
	FirstName  string       `gorm:"not null" json:"first_name"`
	LastName   string       `gorm:"not null" json:"last_name"`
	Role       string       `gorm:"type:text;not null" json:"role"`
	Phone      string       `gorm:"type:text" json:"phone,omitempty"`
	BaseSalary int64        `gorm:"not null" json:"base_salary"`
	Status     string       `gorm:"type:text;not null;default:'ACTIVE'" json:"status"`
	HiredAt    time.Time    `gorm:"not null" json:"hired_at"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Staff) TableName() string { return "staff" }

func (s Staff) FullName() string { return s.FirstName + " " + s.LastName }

const (
	StaffStatusActive = "ACTIVE"
	StaffStatusLeft   = "LEFT"

	SalaryLineAllowance = "allowance"
	SalaryLineDeduction = "deduction"
)

type SalaryLine struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	BranchID  snowflake.ID `gorm:"not null;index" json:"branch_id"`
	StaffID   snowflake.ID `gorm:"not null;index" json:"staff_id"`
	Kind      string       `gorm:"type:text;not null" json:"kind"`
	Name      string       `gorm:"not null" json:"name"`
	Amount    int64        `gorm:"not null" json:"amount"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (SalaryLine) TableName() string { return "salary_lines" }

const (
	PayrollStatusFinalized = "FINALIZED"
)

// PayrollRun is one executed payroll for a period (formatted "2006-01").
// At most one run exists per branch and period.
type PayrollRun struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	BranchID   snowflake.ID `gorm:"not null;index;uniqueIndex:ux_payroll_branch_period" json:"branch_id"`
	Period     string       `gorm:"type:text;not null;uniqueIndex:ux_payroll_branch_period" json:"period"`
	Status     string       `gorm:"type:text;not null" json:"status"`
	TotalGross int64        `gorm:"not null" json:"total_gross"`
	TotalNet   int64        `gorm:"not null" json:"total_net"`
	RunAt      time.Time    `gorm:"not null" json:"run_at"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (PayrollRun) TableName() string { return "payroll_runs" }

type PayrollItem struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	BranchID   snowflake.ID `gorm:"not null;index" json:"branch_id"`
	RunID      snowflake.ID `gorm:"not null;index" json:"run_id"`
	StaffID    snowflake.ID `gorm:"not null;index" json:"staff_id"`
	StaffName  string       `gorm:"type:text;not null" json:"staff_name"`
	BaseSalary int64        `gorm:"not null" json:"base_salary"`
	Allowances int64        `gorm:"not null" json:"allowances"`
	Deductions int64        `gorm:"not null" json:"deductions"`
	NetPay     int64        `gorm:"not null" json:"net_pay"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (PayrollItem) TableName() string { return "payroll_items" }
