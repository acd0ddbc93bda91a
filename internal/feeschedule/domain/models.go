// Package domain contains persistence models for fee configuration: fee
// heads, fee terms, the structures issued from them, and per-student
// discount assignments.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// FeeHead is a named category of charge (tuition, transport, meals, ...).
type FeeHead struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	BranchID    snowflake.ID `gorm:"not null;index" json:"branch_id"`
	Name        string       `gorm:"not null" json:"name"`
	Code        string       `gorm:"type:text;not null;uniqueIndex:ux_fee_heads_code" json:"code"`
	Description string       `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (FeeHead) TableName() string { return "fee_heads" }

// FeeTerm is a billing period within an academic session.
type FeeTerm struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	BranchID     snowflake.ID `gorm:"not null;index" json:"branch_id"`
	Name         string       `gorm:"not null" json:"name"`
	AcademicYear string       `gorm:"type:text;not null" json:"academic_year"`
	StartDate    time.Time    `gorm:"not null" json:"start_date"`
	EndDate      time.Time    `gorm:"not null" json:"end_date"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (FeeTerm) TableName() string { return "fee_terms" }

// FeeStructure is a scheduled obligation: one fee head billed for one term to
// one class. Immutable once any payment has been allocated against it.
// Late-fee rates are basis points of the base amount per overdue day past
// grace; a zero MaxAmount leaves per-day accrual uncapped.
type FeeStructure struct {
	ID                snowflake.ID `gorm:"primaryKey" json:"id"`
	BranchID          snowflake.ID `gorm:"not null;index" json:"branch_id"`
	FeeHeadID         snowflake.ID `gorm:"not null;index;uniqueIndex:ux_fee_structures_issue" json:"fee_head_id"`
	TermID            snowflake.ID `gorm:"not null;index;uniqueIndex:ux_fee_structures_issue" json:"term_id"`
	ClassName         string       `gorm:"type:text;not null;uniqueIndex:ux_fee_structures_issue" json:"class_name"`
	BaseAmount        int64        `gorm:"not null" json:"base_amount"`
	Currency          string       `gorm:"type:text;not null" json:"currency"`
	DueDate           time.Time    `gorm:"not null" json:"due_date"`
	LateFeeKind       string       `gorm:"type:text;not null;default:''" json:"late_fee_kind,omitempty"`
	LateFeeFlatAmount int64        `gorm:"not null;default:0" json:"late_fee_flat_amount,omitempty"`
	LateFeeDailyBps   int64        `gorm:"not null;default:0" json:"late_fee_daily_bps,omitempty"`
	LateFeeMaxAmount  int64        `gorm:"not null;default:0" json:"late_fee_max_amount,omitempty"`
	CreatedAt         time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt         time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (FeeStructure) TableName() string { return "fee_structures" }

// DiscountAssignment grants one student a reduction on one structure, either
// a flat amount or a percentage of the base in basis points.
type DiscountAssignment struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	BranchID       snowflake.ID `gorm:"not null;index" json:"branch_id"`
	StudentID      snowflake.ID `gorm:"not null;index;uniqueIndex:ux_discounts_student_structure" json:"student_id"`
	FeeStructureID snowflake.ID `gorm:"not null;index;uniqueIndex:ux_discounts_student_structure" json:"fee_structure_id"`
	Kind           string       `gorm:"type:text;not null" json:"kind"`
	Amount         int64        `gorm:"not null;default:0" json:"amount,omitempty"`
	PercentBps     int64        `gorm:"not null;default:0" json:"percent_bps,omitempty"`
	Reason         string       `gorm:"type:text" json:"reason,omitempty"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (DiscountAssignment) TableName() string { return "discount_assignments" }
