package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shulebooks/shulebooks/internal/staff/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertStaff(ctx context.Context, db *gorm.DB, staff *domain.Staff) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO staff (
			id, branch_id, staff_no, first_name, last_name, role, phone,
			base_salary, status, hired_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		staff.ID,
		staff.BranchID,
		staff.StaffNo,
		staff.FirstName,
		staff.LastName,
		staff.Role,
		staff.Phone,
		staff.BaseSalary,
		staff.Status,
		staff.HiredAt,
		staff.CreatedAt,
		staff.UpdatedAt,
	).Error
}

func (r *repo) FindStaffByID(ctx context.Context, db *gorm.DB, branchID, id snowflake.ID) (*domain.Staff, error) {
	var staff domain.Staff
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM staff WHERE branch_id = ? AND id = ?`,
		branchID,
		id,
	).Scan(&staff).Error
	if err != nil {
		return nil, err
	}
	if staff.ID == 0 {
		return nil, nil
	}
	return &staff, nil
}

func (r *repo) ListStaff(ctx context.Context, db *gorm.DB, branchID snowflake.ID) ([]*domain.Staff, error) {
	var staff []*domain.Staff
	err := db.WithContext(ctx).
		Model(&domain.Staff{}).
		Where("branch_id = ?", branchID).
		Order("staff_no").
		Find(&staff).Error
	if err != nil {
		return nil, err
	}
	return staff, nil
}

func (r *repo) ListActiveStaff(ctx context.Context, db *gorm.DB, branchID snowflake.ID) ([]*domain.Staff, error) {
	var staff []*domain.Staff
	err := db.WithContext(ctx).
		Model(&domain.Staff{}).
		Where("branch_id = ? AND status = ?", branchID, domain.StaffStatusActive).
		Order("staff_no").
		Find(&staff).Error
	if err != nil {
		return nil, err
	}
	return staff, nil
}

func (r *repo) InsertSalaryLine(ctx context.Context, db *gorm.DB, line *domain.SalaryLine) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO salary_lines (id, branch_id, staff_id, kind, name, amount, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		line.ID,
		line.BranchID,
		line.StaffID,
		line.Kind,
		line.Name,
		line.Amount,
		line.CreatedAt,
	).Error
}

func (r *repo) ListSalaryLines(ctx context.Context, db *gorm.DB, branchID, staffID snowflake.ID) ([]*domain.SalaryLine, error) {
	var lines []*domain.SalaryLine
	err := db.WithContext(ctx).
		Model(&domain.SalaryLine{}).
		Where("branch_id = ? AND staff_id = ?", branchID, staffID).
		Order("id").
		Find(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *repo) InsertPayrollRun(ctx context.Context, db *gorm.DB, run *domain.PayrollRun) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payroll_runs (id, branch_id, period, status, total_gross, total_net, run_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.BranchID,
		run.Period,
		run.Status,
		run.TotalGross,
		run.TotalNet,
		run.RunAt,
		run.CreatedAt,
	).Error
}

func (r *repo) InsertPayrollItem(ctx context.Context, db *gorm.DB, item *domain.PayrollItem) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payroll_items (
			id, branch_id, run_id, staff_id, staff_name, base_salary,
			allowances, deductions, net_pay, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID,
		item.BranchID,
		item.RunID,
		item.StaffID,
		item.StaffName,
		item.BaseSalary,
		item.Allowances,
		item.Deductions,
		item.NetPay,
		item.CreatedAt,
	).Error
}

func (r *repo) FindPayrollRunByID(ctx context.Context, db *gorm.DB, branchID, id snowflake.ID) (*domain.PayrollRun, error) {
	var run domain.PayrollRun
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM payroll_runs WHERE branch_id = ? AND id = ?`,
		branchID,
		id,
	).Scan(&run).Error
	if err != nil {
		return nil, err
	}
	if run.ID == 0 {
		return nil, nil
	}
	return &run, nil
}

func (r *repo) ListPayrollRuns(ctx context.Context, db *gorm.DB, branchID snowflake.ID) ([]*domain.PayrollRun, error) {
	var runs []*domain.PayrollRun
	err := db.WithContext(ctx).
		Model(&domain.PayrollRun{}).
		Where("branch_id = ?", branchID).
		Order("period desc").
		Find(&runs).Error
	if err != nil {
		return nil, err
	}
	return runs, nil
}

func (r *repo) ListPayrollItems(ctx context.Context, db *gorm.DB, branchID, runID snowflake.ID) ([]*domain.PayrollItem, error) {
	var items []*domain.PayrollItem
	err := db.WithContext(ctx).
		Model(&domain.PayrollItem{}).
		Where("branch_id = ? AND run_id = ?", branchID, runID).
		Order("staff_name").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
