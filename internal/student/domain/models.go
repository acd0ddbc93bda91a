// Package domain contains persistence models for student admissions.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type StudentStatus string

const (
	StudentStatusActive StudentStatus = "ACTIVE"
	StudentStatusLeft   StudentStatus = "LEFT"
)

// Student is an admitted learner. GuardianPhone is the WhatsApp target for
// fee reminders and school notices.
type Student struct {
	ID            snowflake.ID      `gorm:"primaryKey" json:"id"`
	BranchID      snowflake.ID      `gorm:"not null;index" json:"branch_id"`
	AdmissionNo   string            `gorm:"type:text;not null;uniqueIndex:ux_students_admission" json:"admission_no"`
	FirstName     string            `gorm:"not null" json:"first_name"`
	LastName      string            `gorm:"not null" json:"last_name"`
	ClassName     string            `gorm:"type:text;not null;index" json:"class_name"`
	Stream        string            `gorm:"type:text" json:"stream,omitempty"`
	GuardianName  string            `gorm:"type:text;not null" json:"guardian_name"`
	GuardianPhone string            `gorm:"type:text;not null" json:"guardian_phone"`
	Status        StudentStatus     `gorm:"type:text;not null;default:'ACTIVE';index" json:"status"`
	AdmittedAt    time.Time         `gorm:"not null" json:"admitted_at"`
	Metadata      datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt     time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Student) TableName() string { return "students" }

func (s Student) FullName() string {
	return s.FirstName + " " + s.LastName
}
