package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shulebooks/shulebooks/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	InsertPayment(ctx context.Context, db *gorm.DB, payment *Payment) error
	InsertAllocation(ctx context.Context, db *gorm.DB, alloc *PaymentAllocation) error
	FindPaymentByID(ctx context.Context, db *gorm.DB, branchID, id snowflake.ID) (*Payment, error)
	FindPaymentByIdempotencyKey(ctx context.Context, db *gorm.DB, branchID snowflake.ID, key string) (*Payment, error)
	ListPayments(ctx context.Context, db *gorm.DB, branchID, studentID snowflake.ID, page pagination.Pagination) ([]*Payment, error)
	ListAllocationsForPayment(ctx context.Context, db *gorm.DB, branchID, paymentID snowflake.ID) ([]*PaymentAllocation, error)
	ListAllocationsForStudent(ctx context.Context, db *gorm.DB, branchID, studentID snowflake.ID) ([]*PaymentAllocation, error)
}
