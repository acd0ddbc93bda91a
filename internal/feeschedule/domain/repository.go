package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertFeeHead(ctx context.Context, db *gorm.DB, head *FeeHead) error
	ListFeeHeads(ctx context.Context, db *gorm.DB, branchID snowflake.ID) ([]*FeeHead, error)
	FindFeeHead(ctx context.Context, db *gorm.DB, branchID, id snowflake.ID) (*FeeHead, error)

	InsertFeeTerm(ctx context.Context, db *gorm.DB, term *FeeTerm) error
	ListFeeTerms(ctx context.Context, db *gorm.DB, branchID snowflake.ID) ([]*FeeTerm, error)
	FindFeeTerm(ctx context.Context, db *gorm.DB, branchID, id snowflake.ID) (*FeeTerm, error)

	InsertFeeStructure(ctx context.Context, db *gorm.DB, structure *FeeStructure) error
	ListFeeStructures(ctx context.Context, db *gorm.DB, branchID snowflake.ID, termID snowflake.ID, className string) ([]*FeeStructure, error)
	ListFeeStructuresForClass(ctx context.Context, db *gorm.DB, branchID snowflake.ID, className string) ([]*FeeStructure, error)

	InsertDiscount(ctx context.Context, db *gorm.DB, discount *DiscountAssignment) error
	ListDiscountsForStudent(ctx context.Context, db *gorm.DB, branchID, studentID snowflake.ID) ([]*DiscountAssignment, error)
}
