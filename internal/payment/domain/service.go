package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shulebooks/shulebooks/internal/allocation"
	"github.com/shulebooks/shulebooks/internal/feecalc"
	"github.com/shulebooks/shulebooks/pkg/db/pagination"
)

const (
	MethodCash        = "cash"
	MethodMobileMoney = "mobile_money"
	MethodBank        = "bank"
	MethodCheque      = "cheque"
)

type StatementRequest struct {
	StudentID string
	AsOf      time.Time
}

// Statement is the recomputed-on-read view of a student's fees. Nothing in it
// is persisted.
type Statement struct {
	StudentID        string                  `json:"student_id"`
	StudentName      string                  `json:"student_name"`
	AdmissionNo      string                  `json:"admission_no"`
	ClassName        string                  `json:"class_name"`
	Currency         string                  `json:"currency"`
	AsOf             time.Time               `json:"as_of"`
	Fees             []feecalc.CalculatedFee `json:"fees"`
	TotalPayable     int64                   `json:"total_payable"`
	TotalPaid        int64                   `json:"total_paid"`
	TotalOutstanding int64                   `json:"total_outstanding"`
}

type PreviewAllocationRequest struct {
	StudentID string           `json:"student_id"`
	Amount    int64            `json:"amount"`
	Strategy  string           `json:"strategy"`
	Manual    map[string]int64 `json:"manual,omitempty"`
	AsOf      time.Time        `json:"as_of,omitempty"`
}

type RecordPaymentRequest struct {
	StudentID      string           `json:"student_id"`
	Amount         int64            `json:"amount"`
	Method         string           `json:"method"`
	Reference      string           `json:"reference,omitempty"`
	Strategy       string           `json:"strategy"`
	Manual         map[string]int64 `json:"manual,omitempty"`
	IdempotencyKey string           `json:"idempotency_key,omitempty"`
	Note           string           `json:"note,omitempty"`
}

// Receipt is a recorded payment together with its allocation lines.
type Receipt struct {
	Payment     Payment             `json:"payment"`
	Allocations []PaymentAllocation `json:"allocations"`
	Replayed    bool                `json:"replayed,omitempty"`
}

type ListPaymentRequest struct {
	StudentID string
	PageToken string
	PageSize  int
}

type ListPaymentResponse struct {
	Payments []Payment           `json:"payments"`
	PageInfo pagination.PageInfo `json:"page_info"`
}

type Service interface {
	Statement(context.Context, StatementRequest) (Statement, error)
	PreviewAllocation(context.Context, PreviewAllocationRequest) (allocation.Plan, error)
	RecordPayment(context.Context, RecordPaymentRequest) (Receipt, error)
	GetReceipt(ctx context.Context, paymentID string) (Receipt, error)
	ListPayments(context.Context, ListPaymentRequest) (ListPaymentResponse, error)
}

var (
	ErrInvalidBranch   = errors.New("invalid_branch")
	ErrInvalidID       = errors.New("invalid_id")
	ErrInvalidAmount   = errors.New("invalid_amount")
	ErrInvalidMethod   = errors.New("invalid_method")
	ErrInvalidStrategy = errors.New("invalid_strategy")
	ErrStudentNotFound = errors.New("student_not_found")
	ErrNotFound        = errors.New("not_found")
	ErrDuplicateKey    = errors.New("duplicate_idempotency_key")
)
