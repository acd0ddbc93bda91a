package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shulebooks/shulebooks/internal/attendance/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, record *domain.AttendanceRecord) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "student_id"}, {Name: "day"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"status", "note", "marked_by", "updated_at",
		}),
	}).Create(record).Error
}

func (r *repo) ListForStudent(ctx context.Context, db *gorm.DB, branchID, studentID snowflake.ID, from, to time.Time) ([]*domain.AttendanceRecord, error) {
	var records []*domain.AttendanceRecord
	err := db.WithContext(ctx).
		Model(&domain.AttendanceRecord{}).
		Where("branch_id = ? AND student_id = ? AND day >= ? AND day <= ?", branchID, studentID, from, to).
		Order("day").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repo) ListForClass(ctx context.Context, db *gorm.DB, branchID snowflake.ID, className string, from, to time.Time) ([]*domain.AttendanceRecord, error) {
	var records []*domain.AttendanceRecord
	err := db.WithContext(ctx).
		Model(&domain.AttendanceRecord{}).
		Where("branch_id = ? AND class_name = ? AND day >= ? AND day <= ?", branchID, className, from, to).
		Order("day").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
