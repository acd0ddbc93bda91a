package domain

import (
	"context"
	"errors"
)

type EnqueueRequest struct {
	StudentID string `json:"student_id,omitempty"`
	Recipient string `json:"recipient"`
	Body      string `json:"body"`
	Kind      string `json:"kind"`
	DedupeKey string `json:"dedupe_key,omitempty"`
}

type BroadcastRequest struct {
	ClassName string `json:"class_name"`
	Body      string `json:"body"`
}

type BroadcastResponse struct {
	BatchID  string `json:"batch_id"`
	Enqueued int    `json:"enqueued"`
	Skipped  int    `json:"skipped"`
}

// BatchProgress counts one broadcast batch's jobs by status.
type BatchProgress struct {
	BatchID string         `json:"batch_id"`
	Total   int            `json:"total"`
	Counts  map[string]int `json:"counts"`
	Done    bool           `json:"done"`
}

type DeliveryStatusUpdate struct {
	ProviderMessageID string `json:"provider_message_id"`
	Status            string `json:"status"`
}

// DispatchReport summarizes one dispatcher pass.
type DispatchReport struct {
	Picked    int `json:"picked"`
	Sent      int `json:"sent"`
	Retried   int `json:"retried"`
	Failed    int `json:"failed"`
	Throttled int `json:"throttled"`
}

type Service interface {
	Enqueue(context.Context, EnqueueRequest) (MessageJob, error)
	BroadcastToClass(context.Context, BroadcastRequest) (BroadcastResponse, error)
	BatchProgress(ctx context.Context, batchID string) (BatchProgress, error)
	HandleDeliveryStatus(context.Context, DeliveryStatusUpdate) error
	DispatchDue(context.Context) (DispatchReport, error)
}

var (
	ErrInvalidBranch    = errors.New("invalid_branch")
	ErrInvalidID        = errors.New("invalid_id")
	ErrInvalidRecipient = errors.New("invalid_recipient")
	ErrInvalidBody      = errors.New("invalid_body")
	ErrInvalidKind      = errors.New("invalid_kind")
	ErrInvalidClass     = errors.New("invalid_class")
	ErrNotFound         = errors.New("not_found")
)
