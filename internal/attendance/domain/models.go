// Package domain contains attendance models. One row per student per school
// day; re-marking the same day overwrites the earlier status.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type AttendanceRecord struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	BranchID  snowflake.ID `gorm:"not null;index" json:"branch_id"`
	StudentID snowflake.ID `gorm:"not null;index;uniqueIndex:ux_attendance_student_day" json:"student_id"`
	ClassName string       `gorm:"type:text;not null;index" json:"class_name"`
	Day       time.Time    `gorm:"not null;uniqueIndex:ux_attendance_student_day" json:"day"`
	Status    string       `gorm:"type:text;not null" json:"status"`
	Note      string       `gorm:"type:text" json:"note,omitempty"`
	MarkedBy  string       `gorm:"type:text" json:"marked_by,omitempty"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (AttendanceRecord) TableName() string { return "attendance_records" }
