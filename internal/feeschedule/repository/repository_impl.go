package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shulebooks/shulebooks/internal/feeschedule/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertFeeHead(ctx context.Context, db *gorm.DB, head *domain.FeeHead) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO fee_heads (id, branch_id, name, code, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		head.ID,
		head.BranchID,
		head.Name,
		head.Code,
		head.Description,
		head.CreatedAt,
		head.UpdatedAt,
	).Error
}

func (r *repo) ListFeeHeads(ctx context.Context, db *gorm.DB, branchID snowflake.ID) ([]*domain.FeeHead, error) {
	var heads []*domain.FeeHead
	err := db.WithContext(ctx).
		Model(&domain.FeeHead{}).
		Where("branch_id = ?", branchID).
		Order("name").
		Find(&heads).Error
	if err != nil {
		return nil, err
	}
	return heads, nil
}

func (r *repo) FindFeeHead(ctx context.Context, db *gorm.DB, branchID, id snowflake.ID) (*domain.FeeHead, error) {
	var head domain.FeeHead
	err := db.WithContext(ctx).Raw(
		`SELECT id, branch_id, name, code, description, created_at, updated_at
		 FROM fee_heads WHERE branch_id = ? AND id = ?`,
		branchID,
		id,
	).Scan(&head).Error
	if err != nil {
		return nil, err
	}
	if head.ID == 0 {
		return nil, nil
	}
	return &head, nil
}

func (r *repo) InsertFeeTerm(ctx context.Context, db *gorm.DB, term *domain.FeeTerm) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO fee_terms (id, branch_id, name, academic_year, start_date, end_date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		term.ID,
		term.BranchID,
		term.Name,
		term.AcademicYear,
		term.StartDate,
		term.EndDate,
		term.CreatedAt,
		term.UpdatedAt,
	).Error
}

func (r *repo) ListFeeTerms(ctx context.Context, db *gorm.DB, branchID snowflake.ID) ([]*domain.FeeTerm, error) {
	var terms []*domain.FeeTerm
	err := db.WithContext(ctx).
		Model(&domain.FeeTerm{}).
		Where("branch_id = ?", branchID).
		Order("start_date desc").
		Find(&terms).Error
	if err != nil {
		return nil, err
	}
	return terms, nil
}

func (r *repo) FindFeeTerm(ctx context.Context, db *gorm.DB, branchID, id snowflake.ID) (*domain.FeeTerm, error) {
	var term domain.FeeTerm
	err := db.WithContext(ctx).Raw(
		`SELECT id, branch_id, name, academic_year, start_date, end_date, created_at, updated_at
		 FROM fee_terms WHERE branch_id = ? AND id = ?`,
		branchID,
		id,
	).Scan(&term).Error
	if err != nil {
		return nil, err
	}
	if term.ID == 0 {
		return nil, nil
	}
	return &term, nil
}

func (r *repo) InsertFeeStructure(ctx context.Context, db *gorm.DB, structure *domain.FeeStructure) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO fee_structures (
			id, branch_id, fee_head_id, term_id, class_name, base_amount, currency, due_date,
			late_fee_kind, late_fee_flat_amount, late_fee_daily_bps, late_fee_max_amount,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		structure.ID,
		structure.BranchID,
		structure.FeeHeadID,
		structure.TermID,
		structure.ClassName,
		structure.BaseAmount,
		structure.Currency,
		structure.DueDate,
		structure.LateFeeKind,
		structure.LateFeeFlatAmount,
		structure.LateFeeDailyBps,
		structure.LateFeeMaxAmount,
		structure.CreatedAt,
		structure.UpdatedAt,
	).Error
}

func (r *repo) ListFeeStructures(ctx context.Context, db *gorm.DB, branchID snowflake.ID, termID snowflake.ID, className string) ([]*domain.FeeStructure, error) {
	var structures []*domain.FeeStructure
	stmt := db.WithContext(ctx).
		Model(&domain.FeeStructure{}).
		Where("branch_id = ?", branchID)
	if termID != 0 {
		stmt = stmt.Where("term_id = ?", termID)
	}
	if className != "" {
		stmt = stmt.Where("class_name = ?", className)
	}
	if err := stmt.Order("due_date").Find(&structures).Error; err != nil {
		return nil, err
	}
	return structures, nil
}

func (r *repo) ListFeeStructuresForClass(ctx context.Context, db *gorm.DB, branchID snowflake.ID, className string) ([]*domain.FeeStructure, error) {
	return r.ListFeeStructures(ctx, db, branchID, 0, className)
}

func (r *repo) InsertDiscount(ctx context.Context, db *gorm.DB, discount *domain.DiscountAssignment) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO discount_assignments (
			id, branch_id, student_id, fee_structure_id, kind, amount, percent_bps, reason, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		discount.ID,
		discount.BranchID,
		discount.StudentID,
		discount.FeeStructureID,
		discount.Kind,
		discount.Amount,
		discount.PercentBps,
		discount.Reason,
		discount.CreatedAt,
	).Error
}

func (r *repo) ListDiscountsForStudent(ctx context.Context, db *gorm.DB, branchID, studentID snowflake.ID) ([]*domain.DiscountAssignment, error) {
	var discounts []*domain.DiscountAssignment
	err := db.WithContext(ctx).
		Model(&domain.DiscountAssignment{}).
		Where("branch_id = ? AND student_id = ?", branchID, studentID).
		Find(&discounts).Error
	if err != nil {
		return nil, err
	}
	return discounts, nil
}
