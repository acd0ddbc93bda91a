// Package domain contains the outbound message queue models. Jobs are
// enqueued by the reminder scan and by staff-triggered broadcasts, then
// drained by the dispatcher with retry backoff.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	StatusQueued    = "queued"
	StatusSending   = "sending"
	StatusSent      = "sent"
	StatusDelivered = "delivered"
	StatusFailed    = "failed"

	KindFeeReminder = "fee_reminder"
	KindBroadcast   = "broadcast"
	KindReceipt     = "receipt"
)

type MessageJob struct {
	ID                snowflake.ID `gorm:"primaryKey" json:"id"`
	BranchID          snowflake.ID `gorm:"not null;index" json:"branch_id"`
	StudentID         snowflake.ID `gorm:"index" json:"student_id,omitempty"`
	BatchID           snowflake.ID `gorm:"index" json:"batch_id,omitempty"`
	Recipient         string       `gorm:"type:text;not null" json:"recipient"`
	Body              string       `gorm:"type:text;not null" json:"body"`
	Kind              string       `gorm:"type:text;not null" json:"kind"`
	Status            string       `gorm:"type:text;not null;index" json:"status"`
	Attempts          int          `gorm:"not null;default:0" json:"attempts"`
	MaxAttempts       int          `gorm:"not null" json:"max_attempts"`
	NextAttemptAt     time.Time    `gorm:"not null;index" json:"next_attempt_at"`
	DedupeKey         string       `gorm:"type:text;uniqueIndex:ux_message_jobs_dedupe,where:dedupe_key <> ''" json:"dedupe_key,omitempty"`
	ProviderMessageID string       `gorm:"type:text;index" json:"provider_message_id,omitempty"`
	LastError         string       `gorm:"type:text" json:"last_error,omitempty"`
	CreatedAt         time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt         time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (MessageJob) TableName() string { return "message_jobs" }
