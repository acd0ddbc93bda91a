// Package feecalc computes status-annotated fee projections from fee
// structures and payment history. All functions are pure; amounts are in
// minor currency units.
package feecalc

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type LateFeeKind string

const (
	LateFeeFlat   LateFeeKind = "flat"
	LateFeePerDay LateFeeKind = "per_day"
)

// LateFeePolicy describes how a late fee accrues once the grace period has
// elapsed. Per-day accrual is a percentage of the base amount per overdue day
// past grace, expressed in basis points. MaxAmount of zero means uncapped.
type LateFeePolicy struct {
	Kind         LateFeeKind
	FlatAmount   int64
	DailyRateBps int64
	MaxAmount    int64
}

type DiscountKind string

const (
	DiscountFlat    DiscountKind = "flat"
	DiscountPercent DiscountKind = "percent"
)

// Discount reduces the payable amount, either by a flat amount or by a
// percentage of the base expressed in basis points.
type Discount struct {
	Kind       DiscountKind
	Amount     int64
	PercentBps int64
}

// Obligation is one scheduled charge: a fee structure issued for a
// (fee head, term) pair.
type Obligation struct {
	StructureID snowflake.ID
	FeeHeadID   snowflake.ID
	FeeHeadName string
	TermID      snowflake.ID
	TermName    string
	BaseAmount  int64
	DueDate     time.Time
	LateFee     *LateFeePolicy
	Discount    *Discount
}

// PaymentLine is an amount already allocated against a structure.
type PaymentLine struct {
	StructureID snowflake.ID
	Amount      int64
	PaidAt      time.Time
}

type Options struct {
	CalculateLateFees bool
	ApplyDiscounts    bool
	GracePeriodDays   int
	AsOf              time.Time
}

type Status string

const (
	StatusPaid          Status = "PAID"
	StatusPartiallyPaid Status = "PARTIALLY_PAID"
	StatusPending       Status = "PENDING"
	StatusOverdue       Status = "OVERDUE"
)

// CalculatedFee is the recomputed-on-read projection of one obligation as of
// Options.AsOf. It is never persisted.
type CalculatedFee struct {
	StructureID snowflake.ID `json:"structure_id"`
	FeeHeadID   snowflake.ID `json:"fee_head_id"`
	FeeHeadName string       `json:"fee_head_name"`
	TermID      snowflake.ID `json:"term_id"`
	TermName    string       `json:"term_name"`

	BaseAmount        int64 `json:"base_amount"`
	DiscountAmount    int64 `json:"discount_amount"`
	LateFeeAmount     int64 `json:"late_fee_amount"`
	FinalAmount       int64 `json:"final_amount"`
	PaidAmount        int64 `json:"paid_amount"`
	OutstandingAmount int64 `json:"outstanding_amount"`

	Status      Status    `json:"status"`
	OverdueDays int       `json:"overdue_days"`
	DueDate     time.Time `json:"due_date"`
}

var (
	ErrNegativeBaseAmount    = errors.New("negative_base_amount")
	ErrNegativePaymentAmount = errors.New("negative_payment_amount")
	ErrMissingDueDate        = errors.New("missing_due_date")
	ErrMissingAsOf           = errors.New("missing_as_of")
)

func bpsToDecimal(bps int64) decimal.Decimal {
	return decimal.NewFromInt(bps).Div(decimal.NewFromInt(10000))
}
