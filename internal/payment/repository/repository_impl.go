package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shulebooks/shulebooks/internal/payment/domain"
	"github.com/shulebooks/shulebooks/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertPayment(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payments (
			id, branch_id, student_id, amount, currency, method, reference,
			idempotency_key, strategy, unallocated_amount, receipt_no, note,
			received_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		payment.ID,
		payment.BranchID,
		payment.StudentID,
		payment.Amount,
		payment.Currency,
		payment.Method,
		payment.Reference,
		payment.IdempotencyKey,
		payment.Strategy,
		payment.UnallocatedAmount,
		payment.ReceiptNo,
		payment.Note,
		payment.ReceivedAt,
		payment.CreatedAt,
	).Error
}

func (r *repo) InsertAllocation(ctx context.Context, db *gorm.DB, alloc *domain.PaymentAllocation) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payment_allocations (
			id, branch_id, payment_id, student_id, fee_structure_id, amount, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		alloc.ID,
		alloc.BranchID,
		alloc.PaymentID,
		alloc.StudentID,
		alloc.FeeStructureID,
		alloc.Amount,
		alloc.CreatedAt,
	).Error
}

func (r *repo) FindPaymentByID(ctx context.Context, db *gorm.DB, branchID, id snowflake.ID) (*domain.Payment, error) {
	var payment domain.Payment
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM payments WHERE branch_id = ? AND id = ?`,
		branchID,
		id,
	).Scan(&payment).Error
	if err != nil {
		return nil, err
	}
	if payment.ID == 0 {
		return nil, nil
	}
	return &payment, nil
}

func (r *repo) FindPaymentByIdempotencyKey(ctx context.Context, db *gorm.DB, branchID snowflake.ID, key string) (*domain.Payment, error) {
	var payment domain.Payment
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM payments WHERE branch_id = ? AND idempotency_key = ?`,
		branchID,
		key,
	).Scan(&payment).Error
	if err != nil {
		return nil, err
	}
	if payment.ID == 0 {
		return nil, nil
	}
	return &payment, nil
}

func (r *repo) ListPayments(ctx context.Context, db *gorm.DB, branchID, studentID snowflake.ID, page pagination.Pagination) ([]*domain.Payment, error) {
	var payments []*domain.Payment
	stmt := db.WithContext(ctx).
		Model(&domain.Payment{}).
		Where("branch_id = ?", branchID)
	if studentID != 0 {
		stmt = stmt.Where("student_id = ?", studentID)
	}
	if page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(page.PageToken)
		if err != nil {
			return nil, err
		}
		stmt = stmt.Where("id < ?", cursor.ID)
	}
	err := stmt.
		Order("id desc").
		Limit(page.PageSize + 1).
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *repo) ListAllocationsForPayment(ctx context.Context, db *gorm.DB, branchID, paymentID snowflake.ID) ([]*domain.PaymentAllocation, error) {
	var allocs []*domain.PaymentAllocation
	err := db.WithContext(ctx).
		Model(&domain.PaymentAllocation{}).
		Where("branch_id = ? AND payment_id = ?", branchID, paymentID).
		Order("id").
		Find(&allocs).Error
	if err != nil {
		return nil, err
	}
	return allocs, nil
}

func (r *repo) ListAllocationsForStudent(ctx context.Context, db *gorm.DB, branchID, studentID snowflake.ID) ([]*domain.PaymentAllocation, error) {
	var allocs []*domain.PaymentAllocation
	err := db.WithContext(ctx).
		Model(&domain.PaymentAllocation{}).
		Where("branch_id = ? AND student_id = ?", branchID, studentID).
		Find(&allocs).Error
	if err != nil {
		return nil, err
	}
	return allocs, nil
}
