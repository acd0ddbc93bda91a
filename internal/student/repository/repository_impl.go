package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shulebooks/shulebooks/internal/student/domain"
	"github.com/shulebooks/shulebooks/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, student *domain.Student) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO students (
			id, branch_id, admission_no, first_name, last_name, class_name, stream,
			guardian_name, guardian_phone, status, admitted_at, metadata, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		student.ID,
		student.BranchID,
		student.AdmissionNo,
		student.FirstName,
		student.LastName,
		student.ClassName,
		student.Stream,
		student.GuardianName,
		student.GuardianPhone,
		student.Status,
		student.AdmittedAt,
		student.Metadata,
		student.CreatedAt,
		student.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, student *domain.Student) error {
	return db.WithContext(ctx).Exec(
		`UPDATE students
		 SET class_name = ?, stream = ?, guardian_name = ?, guardian_phone = ?,
		     status = ?, updated_at = ?
		 WHERE branch_id = ? AND id = ?`,
		student.ClassName,
		student.Stream,
		student.GuardianName,
		student.GuardianPhone,
		student.Status,
		student.UpdatedAt,
		student.BranchID,
		student.ID,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, branchID, id snowflake.ID) (*domain.Student, error) {
	var student domain.Student
	err := db.WithContext(ctx).Raw(
		`SELECT id, branch_id, admission_no, first_name, last_name, class_name, stream,
		        guardian_name, guardian_phone, status, admitted_at, metadata, created_at, updated_at
		 FROM students WHERE branch_id = ? AND id = ?`,
		branchID,
		id,
	).Scan(&student).Error
	if err != nil {
		return nil, err
	}
	if student.ID == 0 {
		return nil, nil
	}
	return &student, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, branchID snowflake.ID, filter domain.ListStudentFilter, page pagination.Pagination) ([]*domain.Student, error) {
	var students []*domain.Student
	stmt := db.WithContext(ctx).
		Model(&domain.Student{}).
		Where("branch_id = ?", branchID)
	if filter.ClassName != "" {
		stmt = stmt.Where("class_name = ?", filter.ClassName)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		stmt = stmt.Where("first_name LIKE ? OR last_name LIKE ? OR admission_no LIKE ?", like, like, like)
	}
	if page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(page.PageToken)
		if err == nil && cursor.ID != "" {
			stmt = stmt.Where("id < ?", cursor.ID)
		}
	}
	if page.PageSize > 0 {
		stmt = stmt.Limit(page.PageSize + 1)
	}
	err := stmt.
		Order("id desc").
		Find(&students).Error
	if err != nil {
		return nil, err
	}
	return students, nil
}

func (r *repo) ListActiveByClass(ctx context.Context, db *gorm.DB, branchID snowflake.ID, className string) ([]*domain.Student, error) {
	var students []*domain.Student
	stmt := db.WithContext(ctx).
		Model(&domain.Student{}).
		Where("branch_id = ? AND status = ?", branchID, domain.StudentStatusActive)
	if className != "" {
		stmt = stmt.Where("class_name = ?", className)
	}
	if err := stmt.Order("class_name, admission_no").Find(&students).Error; err != nil {
		return nil, err
	}
	return students, nil
}
