package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Upsert(ctx context.Context, db *gorm.DB, record *AttendanceRecord) error
	ListForStudent(ctx context.Context, db *gorm.DB, branchID, studentID snowflake.ID, from, to time.Time) ([]*AttendanceRecord, error)
	ListForClass(ctx context.Context, db *gorm.DB, branchID snowflake.ID, className string, from, to time.Time) ([]*AttendanceRecord, error)
}
