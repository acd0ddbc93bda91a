package domain

import (
	"context"
	"errors"
)

type CreateStaffRequest struct {
	StaffNo    string `json:"staff_no"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Role       string `json:"role"`
	Phone      string `json:"phone,omitempty"`
	BaseSalary int64  `json:"base_salary"`
}

type AddSalaryLineRequest struct {
	StaffID string `json:"staff_id"`
	Kind    string `json:"kind"`
	Name    string `json:"name"`
	Amount  int64  `json:"amount"`
}

type RunPayrollRequest struct {
	Period string `json:"period"`
}

// PayrollResult is a finalized run with its per-staff breakdown.
type PayrollResult struct {
	Run   PayrollRun    `json:"run"`
	Items []PayrollItem `json:"items"`
}

type Service interface {
	CreateStaff(context.Context, CreateStaffRequest) (Staff, error)
	ListStaff(context.Context) ([]Staff, error)
	AddSalaryLine(context.Context, AddSalaryLineRequest) (SalaryLine, error)
	RunPayroll(context.Context, RunPayrollRequest) (PayrollResult, error)
	GetPayrollRun(ctx context.Context, runID string) (PayrollResult, error)
	ListPayrollRuns(context.Context) ([]PayrollRun, error)
}

var (
	ErrInvalidBranch    = errors.New("invalid_branch")
	ErrInvalidID        = errors.New("invalid_id")
	ErrInvalidStaffNo   = errors.New("invalid_staff_no")
	ErrInvalidName      = errors.New("invalid_name")
	ErrInvalidRole      = errors.New("invalid_role")
	ErrInvalidSalary    = errors.New("invalid_salary")
	ErrInvalidLineKind  = errors.New("invalid_line_kind")
	ErrInvalidAmount    = errors.New("invalid_amount")
	ErrInvalidPeriod    = errors.New("invalid_period")
	ErrDuplicateStaffNo = errors.New("duplicate_staff_no")
	ErrDuplicateRun     = errors.New("duplicate_payroll_run")
	ErrNotFound         = errors.New("not_found")
	ErrNoActiveStaff    = errors.New("no_active_staff")
)
