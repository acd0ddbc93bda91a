package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertStaff(ctx context.Context, db *gorm.DB, staff *Staff) error
	FindStaffByID(ctx context.Context, db *gorm.DB, branchID, id snowflake.ID) (*Staff, error)
	ListStaff(ctx context.Context, db *gorm.DB, branchID snowflake.ID) ([]*Staff, error)
	ListActiveStaff(ctx context.Context, db *gorm.DB, branchID snowflake.ID) ([]*Staff, error)

	InsertSalaryLine(ctx context.Context, db *gorm.DB, line *SalaryLine) error
	ListSalaryLines(ctx context.Context, db *gorm.DB, branchID, staffID snowflake.ID) ([]*SalaryLine, error)

	InsertPayrollRun(ctx context.Context, db *gorm.DB, run *PayrollRun) error
	InsertPayrollItem(ctx context.Context, db *gorm.DB, item *PayrollItem) error
	FindPayrollRunByID(ctx context.Context, db *gorm.DB, branchID, id snowflake.ID) (*PayrollRun, error)
	ListPayrollRuns(ctx context.Context, db *gorm.DB, branchID snowflake.ID) ([]*PayrollRun, error)
	ListPayrollItems(ctx context.Context, db *gorm.DB, branchID, runID snowflake.ID) ([]*PayrollItem, error)
}
