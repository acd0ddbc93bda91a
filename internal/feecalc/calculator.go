package feecalc

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Compute projects every obligation into a CalculatedFee as of Options.AsOf.
// Output order follows input order.
//
// Invariants held for every result:
//   - OutstandingAmount == FinalAmount - PaidAmount, clamped at zero
//   - Status == StatusPaid iff OutstandingAmount == 0
func Compute(obligations []Obligation, payments []PaymentLine, opts Options) ([]CalculatedFee, error) {
	if opts.AsOf.IsZero() {
		return nil, ErrMissingAsOf
	}

	paid := make(map[snowflake.ID]int64, len(obligations))
	for _, line := range payments {
		if line.Amount < 0 {
			return nil, ErrNegativePaymentAmount
		}
		paid[line.StructureID] += line.Amount
	}

	out := make([]CalculatedFee, 0, len(obligations))
	for _, ob := range obligations {
		fee, err := computeOne(ob, paid[ob.StructureID], opts)
		if err != nil {
			return nil, err
		}
		out = append(out, fee)
	}
	return out, nil
}

// ComputeOne projects a single obligation.
func ComputeOne(ob Obligation, paidAmount int64, opts Options) (CalculatedFee, error) {
	if opts.AsOf.IsZero() {
		return CalculatedFee{}, ErrMissingAsOf
	}
	if paidAmount < 0 {
		return CalculatedFee{}, ErrNegativePaymentAmount
	}
	return computeOne(ob, paidAmount, opts)
}

func computeOne(ob Obligation, paidAmount int64, opts Options) (CalculatedFee, error) {
	if ob.BaseAmount < 0 {
		return CalculatedFee{}, ErrNegativeBaseAmount
	}
	if ob.DueDate.IsZero() {
		return CalculatedFee{}, ErrMissingDueDate
	}

	overdueDays := daysPast(ob.DueDate, opts.AsOf)
	pastGrace := overdueDays > opts.GracePeriodDays

	var discount int64
	if opts.ApplyDiscounts && ob.Discount != nil {
		discount = discountAmount(ob.BaseAmount, *ob.Discount)
	}

	var lateFee int64
	if opts.CalculateLateFees && pastGrace && ob.LateFee != nil {
		lateFee = lateFeeAmount(ob.BaseAmount, *ob.LateFee, overdueDays-opts.GracePeriodDays)
	}

	final := ob.BaseAmount - discount + lateFee
	if final < 0 {
		final = 0
	}

	outstanding := final - paidAmount
	if outstanding < 0 {
		outstanding = 0
	}

	fee := CalculatedFee{
		StructureID:       ob.StructureID,
		FeeHeadID:         ob.FeeHeadID,
		FeeHeadName:       ob.FeeHeadName,
		TermID:            ob.TermID,
		TermName:          ob.TermName,
		BaseAmount:        ob.BaseAmount,
		DiscountAmount:    discount,
		LateFeeAmount:     lateFee,
		FinalAmount:       final,
		PaidAmount:        paidAmount,
		OutstandingAmount: outstanding,
		OverdueDays:       max(overdueDays, 0),
		DueDate:           ob.DueDate,
	}
	fee.Status = deriveStatus(fee, pastGrace)
	return fee, nil
}

// deriveStatus resolves the lifecycle state. Overdue wins over PartiallyPaid:
// a partially paid obligation past grace still needs chasing.
func deriveStatus(fee CalculatedFee, pastGrace bool) Status {
	switch {
	case fee.OutstandingAmount == 0:
		return StatusPaid
	case pastGrace:
		return StatusOverdue
	case fee.PaidAmount > 0:
		return StatusPartiallyPaid
	default:
		return StatusPending
	}
}

func discountAmount(base int64, d Discount) int64 {
	var amount int64
	switch d.Kind {
	case DiscountPercent:
		amount = decimal.NewFromInt(base).
			Mul(bpsToDecimal(d.PercentBps)).
			Round(0).
			IntPart()
	default:
		amount = d.Amount
	}
	if amount < 0 {
		amount = 0
	}
	if amount > base {
		amount = base
	}
	return amount
}

func lateFeeAmount(base int64, p LateFeePolicy, daysPastGrace int) int64 {
	if daysPastGrace <= 0 {
		return 0
	}

	var amount int64
	switch p.Kind {
	case LateFeePerDay:
		amount = decimal.NewFromInt(base).
			Mul(bpsToDecimal(p.DailyRateBps)).
			Mul(decimal.NewFromInt(int64(daysPastGrace))).
			Round(0).
			IntPart()
	default:
		amount = p.FlatAmount
	}
	if amount < 0 {
		amount = 0
	}
	if p.MaxAmount > 0 && amount > p.MaxAmount {
		amount = p.MaxAmount
	}
	return amount
}

// daysPast counts whole calendar days from due to asOf, on UTC date
// boundaries. Negative when asOf is before due.
func daysPast(due, asOf time.Time) int {
	dueDay := truncateToDay(due)
	asOfDay := truncateToDay(asOf)
	return int(asOfDay.Sub(dueDay).Hours() / 24)
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
