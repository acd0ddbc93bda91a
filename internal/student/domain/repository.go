package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shulebooks/shulebooks/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListStudentFilter struct {
	ClassName string
	Status    string
	Search    string
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, student *Student) error
	Update(ctx context.Context, db *gorm.DB, student *Student) error
	FindByID(ctx context.Context, db *gorm.DB, branchID, id snowflake.ID) (*Student, error)
	List(ctx context.Context, db *gorm.DB, branchID snowflake.ID, filter ListStudentFilter, page pagination.Pagination) ([]*Student, error)
	ListActiveByClass(ctx context.Context, db *gorm.DB, branchID snowflake.ID, className string) ([]*Student, error)
}
