package feecalc

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func tuition(id int64, base int64, due time.Time) Obligation {
	return Obligation{
		StructureID: snowflake.ID(id),
		FeeHeadName: "Tuition",
		TermName:    "Term 1",
		BaseAmount:  base,
		DueDate:     due,
	}
}

func TestCompute_StatusDerivation(t *testing.T) {
	due := day(2024, time.March, 1)
	opts := Options{GracePeriodDays: 3, AsOf: day(2024, time.March, 10), CalculateLateFees: false}

	tests := []struct {
		name     string
		paid     int64
		asOf     time.Time
		expected Status
	}{
		{"unpaid before due", 0, day(2024, time.February, 20), StatusPending},
		{"unpaid within grace", 0, day(2024, time.March, 3), StatusPending},
		{"unpaid past grace", 0, day(2024, time.March, 10), StatusOverdue},
		{"partially paid before due", 20000, day(2024, time.February, 20), StatusPartiallyPaid},
		{"partially paid past grace", 20000, day(2024, time.March, 10), StatusOverdue},
		{"fully paid", 50000, day(2024, time.March, 10), StatusPaid},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			o := opts
			o.AsOf = tc.asOf
			fees, err := Compute(
				[]Obligation{tuition(1, 50000, due)},
				[]PaymentLine{{StructureID: 1, Amount: tc.paid, PaidAt: due}},
				o,
			)
			require.NoError(t, err)
			require.Len(t, fees, 1)
			assert.Equal(t, tc.expected, fees[0].Status)
		})
	}
}

func TestCompute_OutstandingInvariant(t *testing.T) {
	due := day(2024, time.January, 15)
	payments := []PaymentLine{
		{StructureID: 1, Amount: 10000, PaidAt: due},
		{StructureID: 1, Amount: 15000, PaidAt: due.AddDate(0, 0, 5)},
	}

	fees, err := Compute([]Obligation{tuition(1, 60000, due)}, payments, Options{
		GracePeriodDays: 3,
		AsOf:            day(2024, time.February, 1),
	})
	require.NoError(t, err)
	fee := fees[0]

	assert.Equal(t, int64(25000), fee.PaidAmount)
	assert.Equal(t, fee.FinalAmount-fee.PaidAmount, fee.OutstandingAmount)
	assert.GreaterOrEqual(t, fee.OutstandingAmount, int64(0))
	assert.Equal(t, fee.Status == StatusPaid, fee.OutstandingAmount == 0)
}

func TestCompute_OverpaymentClampsOutstanding(t *testing.T) {
	due := day(2024, time.January, 15)
	fees, err := Compute(
		[]Obligation{tuition(1, 30000, due)},
		[]PaymentLine{{StructureID: 1, Amount: 40000, PaidAt: due}},
		Options{AsOf: day(2024, time.June, 1)},
	)
	require.NoError(t, err)
	assert.Equal(t, int64(0), fees[0].OutstandingAmount)
	assert.Equal(t, StatusPaid, fees[0].Status)
}

func TestCompute_FlatLateFee(t *testing.T) {
	ob := tuition(1, 100000, day(2024, time.March, 1))
	ob.LateFee = &LateFeePolicy{Kind: LateFeeFlat, FlatAmount: 5000}

	fees, err := Compute([]Obligation{ob}, nil, Options{
		CalculateLateFees: true,
		GracePeriodDays:   5,
		AsOf:              day(2024, time.March, 10),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5000), fees[0].LateFeeAmount)
	assert.Equal(t, int64(105000), fees[0].FinalAmount)
	assert.Equal(t, StatusOverdue, fees[0].Status)
	assert.Equal(t, 9, fees[0].OverdueDays)
}

func TestCompute_LateFeeSkippedWithinGrace(t *testing.T) {
	ob := tuition(1, 100000, day(2024, time.March, 1))
	ob.LateFee = &LateFeePolicy{Kind: LateFeeFlat, FlatAmount: 5000}

	fees, err := Compute([]Obligation{ob}, nil, Options{
		CalculateLateFees: true,
		GracePeriodDays:   5,
		AsOf:              day(2024, time.March, 6),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), fees[0].LateFeeAmount)
	assert.Equal(t, StatusPending, fees[0].Status)
}

func TestCompute_PerDayLateFeeAccrual(t *testing.T) {
	// 0.5%/day of 100000 = 500/day. 10 days overdue, 3 grace => 7 accrual days.
	ob := tuition(1, 100000, day(2024, time.March, 1))
	ob.LateFee = &LateFeePolicy{Kind: LateFeePerDay, DailyRateBps: 50}

	fees, err := Compute([]Obligation{ob}, nil, Options{
		CalculateLateFees: true,
		GracePeriodDays:   3,
		AsOf:              day(2024, time.March, 11),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3500), fees[0].LateFeeAmount)
}

func TestCompute_PerDayLateFeeCapped(t *testing.T) {
	ob := tuition(1, 100000, day(2024, time.January, 1))
	ob.LateFee = &LateFeePolicy{Kind: LateFeePerDay, DailyRateBps: 100, MaxAmount: 20000}

	fees, err := Compute([]Obligation{ob}, nil, Options{
		CalculateLateFees: true,
		AsOf:              day(2024, time.June, 1),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(20000), fees[0].LateFeeAmount)
}

func TestCompute_LateFeeDisabled(t *testing.T) {
	ob := tuition(1, 100000, day(2024, time.March, 1))
	ob.LateFee = &LateFeePolicy{Kind: LateFeeFlat, FlatAmount: 5000}

	fees, err := Compute([]Obligation{ob}, nil, Options{
		CalculateLateFees: false,
		AsOf:              day(2024, time.April, 1),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), fees[0].LateFeeAmount)
	assert.Equal(t, int64(100000), fees[0].FinalAmount)
}

func TestCompute_PercentDiscount(t *testing.T) {
	// 25% sibling discount on 80000.
	ob := tuition(1, 80000, day(2024, time.March, 1))
	ob.Discount = &Discount{Kind: DiscountPercent, PercentBps: 2500}

	fees, err := Compute([]Obligation{ob}, nil, Options{
		ApplyDiscounts: true,
		AsOf:           day(2024, time.February, 1),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(20000), fees[0].DiscountAmount)
	assert.Equal(t, int64(60000), fees[0].FinalAmount)
}

func TestCompute_FlatDiscountClippedAtBase(t *testing.T) {
	ob := tuition(1, 10000, day(2024, time.March, 1))
	ob.Discount = &Discount{Kind: DiscountFlat, Amount: 15000}

	fees, err := Compute([]Obligation{ob}, nil, Options{
		ApplyDiscounts: true,
		AsOf:           day(2024, time.February, 1),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10000), fees[0].DiscountAmount)
	assert.Equal(t, int64(0), fees[0].FinalAmount)
	assert.Equal(t, StatusPaid, fees[0].Status)
}

func TestCompute_DiscountsDisabled(t *testing.T) {
	ob := tuition(1, 80000, day(2024, time.March, 1))
	ob.Discount = &Discount{Kind: DiscountPercent, PercentBps: 2500}

	fees, err := Compute([]Obligation{ob}, nil, Options{
		ApplyDiscounts: false,
		AsOf:           day(2024, time.February, 1),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), fees[0].DiscountAmount)
}

func TestCompute_RejectsMalformedInput(t *testing.T) {
	due := day(2024, time.March, 1)

	_, err := Compute([]Obligation{{StructureID: 1, BaseAmount: -5, DueDate: due}}, nil, Options{AsOf: due})
	assert.ErrorIs(t, err, ErrNegativeBaseAmount)

	_, err = Compute(
		[]Obligation{tuition(1, 100, due)},
		[]PaymentLine{{StructureID: 1, Amount: -1}},
		Options{AsOf: due},
	)
	assert.ErrorIs(t, err, ErrNegativePaymentAmount)

	_, err = Compute([]Obligation{{StructureID: 1, BaseAmount: 100}}, nil, Options{AsOf: due})
	assert.ErrorIs(t, err, ErrMissingDueDate)

	_, err = Compute([]Obligation{tuition(1, 100, due)}, nil, Options{})
	assert.ErrorIs(t, err, ErrMissingAsOf)
}

func TestCompute_PaymentsForOtherStructuresIgnored(t *testing.T) {
	due := day(2024, time.March, 1)
	fees, err := Compute(
		[]Obligation{tuition(1, 50000, due), tuition(2, 30000, due)},
		[]PaymentLine{{StructureID: 2, Amount: 30000, PaidAt: due}},
		Options{AsOf: due},
	)
	require.NoError(t, err)
	assert.Equal(t, int64(0), fees[0].PaidAmount)
	assert.Equal(t, StatusPaid, fees[1].Status)
}
