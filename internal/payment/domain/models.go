// Package domain contains the payment ledger models. A Payment is the money
// received; PaymentAllocation rows record how it was split across fee
// structures. Allocations are append-only.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Payment struct {
	ID                snowflake.ID `gorm:"primaryKey" json:"id"`
	BranchID          snowflake.ID `gorm:"not null;index" json:"branch_id"`
	StudentID         snowflake.ID `gorm:"not null;index" json:"student_id"`
	Amount            int64        `gorm:"not null" json:"amount"`
	Currency          string       `gorm:"type:text;not null" json:"currency"`
	Method            string       `gorm:"type:text;not null" json:"method"`
	Reference         string       `gorm:"type:text" json:"reference,omitempty"`
	IdempotencyKey    string       `gorm:"type:text;uniqueIndex:ux_payments_idempotency,where:idempotency_key <> ''" json:"idempotency_key,omitempty"`
	Strategy          string       `gorm:"type:text;not null" json:"strategy"`
	UnallocatedAmount int64        `gorm:"not null;default:0" json:"unallocated_amount"`
	ReceiptNo         string       `gorm:"type:text;not null" json:"receipt_no"`
	Note              string       `gorm:"type:text" json:"note,omitempty"`
	ReceivedAt        time.Time    `gorm:"not null" json:"received_at"`
	CreatedAt         time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Payment) TableName() string { return "payments" }

type PaymentAllocation struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	BranchID       snowflake.ID `gorm:"not null;index" json:"branch_id"`
	PaymentID      snowflake.ID `gorm:"not null;index" json:"payment_id"`
	StudentID      snowflake.ID `gorm:"not null;index" json:"student_id"`
	FeeStructureID snowflake.ID `gorm:"not null;index" json:"fee_structure_id"`
	Amount         int64        `gorm:"not null" json:"amount"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (PaymentAllocation) TableName() string { return "payment_allocations" }
