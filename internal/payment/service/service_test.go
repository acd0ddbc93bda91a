package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shulebooks/shulebooks/internal/branchcontext"
	"github.com/shulebooks/shulebooks/internal/clock"
	"github.com/shulebooks/shulebooks/internal/config"
	"github.com/shulebooks/shulebooks/internal/feecalc"
	feescheduledomain "github.com/shulebooks/shulebooks/internal/feeschedule/domain"
	feeschedulerepo "github.com/shulebooks/shulebooks/internal/feeschedule/repository"
	"github.com/shulebooks/shulebooks/internal/payment/domain"
	"github.com/shulebooks/shulebooks/internal/payment/repository"
	"github.com/shulebooks/shulebooks/internal/payment/service"
	studentdomain "github.com/shulebooks/shulebooks/internal/student/domain"
	studentrepo "github.com/shulebooks/shulebooks/internal/student/repository"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testBranchID int64 = 7001

type fixture struct {
	svc   domain.Service
	db    *gorm.DB
	node  *snowflake.Node
	clock *clock.FakeClock
	ctx   context.Context
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, gdb.AutoMigrate(
		&studentdomain.Student{},
		&feescheduledomain.FeeHead{},
		&feescheduledomain.FeeTerm{},
		&feescheduledomain.FeeStructure{},
		&feescheduledomain.DiscountAssignment{},
		&domain.Payment{},
		&domain.PaymentAllocation{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(now)

	svc := service.New(service.Params{
		DB:    gdb,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fake,
		Config: config.Config{
			Currency: "UGX",
			Reminder: config.ReminderConfig{GracePeriodDays: 3},
		},
		Repo:        repository.Provide(),
		Students:    studentrepo.Provide(),
		FeeSchedule: feeschedulerepo.Provide(),
	})

	return &fixture{
		svc:   svc,
		db:    gdb,
		node:  node,
		clock: fake,
		ctx:   branchcontext.WithBranchID(context.Background(), testBranchID),
	}
}

func (f *fixture) seedStudent(t *testing.T, className string) studentdomain.Student {
	t.Helper()
	student := studentdomain.Student{
		ID:            f.node.Generate(),
		BranchID:      snowflake.ID(testBranchID),
		AdmissionNo:   "ADM-" + f.node.Generate().String(),
		FirstName:     "Amina",
		LastName:      "Okello",
		ClassName:     className,
		GuardianName:  "Grace Okello",
		GuardianPhone: "256700000001",
		Status:        studentdomain.StudentStatusActive,
		AdmittedAt:    f.clock.Now(),
		CreatedAt:     f.clock.Now(),
		UpdatedAt:     f.clock.Now(),
	}
	require.NoError(t, f.db.Create(&student).Error)
	return student
}

func (f *fixture) seedStructure(t *testing.T, className string, base int64, due time.Time) feescheduledomain.FeeStructure {
	t.Helper()
	structure := feescheduledomain.FeeStructure{
		ID:         f.node.Generate(),
		BranchID:   snowflake.ID(testBranchID),
		FeeHeadID:  f.node.Generate(),
		TermID:     f.node.Generate(),
		ClassName:  className,
		BaseAmount: base,
		Currency:   "UGX",
		DueDate:    due,
		CreatedAt:  f.clock.Now(),
		UpdatedAt:  f.clock.Now(),
	}
	require.NoError(t, f.db.Create(&structure).Error)
	return structure
}

func TestRecordPaymentOldestFirst(t *testing.T) {
	now := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, now)

	student := f.seedStudent(t, "P5")
	older := f.seedStructure(t, "P5", 50000, time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC))
	newer := f.seedStructure(t, "P5", 30000, time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC))

	receipt, err := f.svc.RecordPayment(f.ctx, domain.RecordPaymentRequest{
		StudentID: student.ID.String(),
		Amount:    60000,
		Method:    "cash",
		Strategy:  "oldest_first",
	})
	require.NoError(t, err)
	require.False(t, receipt.Replayed)
	require.Equal(t, int64(60000), receipt.Payment.Amount)
	require.Zero(t, receipt.Payment.UnallocatedAmount)
	require.NotEmpty(t, receipt.Payment.ReceiptNo)

	require.Len(t, receipt.Allocations, 2)
	require.Equal(t, older.ID, receipt.Allocations[0].FeeStructureID)
	require.Equal(t, int64(50000), receipt.Allocations[0].Amount)
	require.Equal(t, newer.ID, receipt.Allocations[1].FeeStructureID)
	require.Equal(t, int64(10000), receipt.Allocations[1].Amount)

	statement, err := f.svc.Statement(f.ctx, domain.StatementRequest{StudentID: student.ID.String()})
	require.NoError(t, err)
	require.Equal(t, int64(60000), statement.TotalPaid)
	require.Equal(t, int64(20000), statement.TotalOutstanding)

	byStructure := map[snowflake.ID]feecalc.CalculatedFee{}
	for _, fee := range statement.Fees {
		byStructure[fee.StructureID] = fee
	}
	require.Equal(t, feecalc.StatusPaid, byStructure[older.ID].Status)
	require.Equal(t, feecalc.StatusPartiallyPaid, byStructure[newer.ID].Status)
}

func TestRecordPaymentIdempotencyReplay(t *testing.T) {
	now := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, now)

	student := f.seedStudent(t, "P5")
	f.seedStructure(t, "P5", 40000, time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC))

	req := domain.RecordPaymentRequest{
		StudentID:      student.ID.String(),
		Amount:         40000,
		Method:         "mobile_money",
		Strategy:       "oldest_first",
		IdempotencyKey: "mm-txn-8841",
	}

	first, err := f.svc.RecordPayment(f.ctx, req)
	require.NoError(t, err)
	require.False(t, first.Replayed)

	second, err := f.svc.RecordPayment(f.ctx, req)
	require.NoError(t, err)
	require.True(t, second.Replayed)
	require.Equal(t, first.Payment.ID, second.Payment.ID)
	require.Equal(t, first.Allocations, second.Allocations)

	var count int64
	require.NoError(t, f.db.Model(&domain.Payment{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestPreviewAllocationDoesNotPersist(t *testing.T) {
	now := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, now)

	student := f.seedStudent(t, "P6")
	a := f.seedStructure(t, "P6", 8000, time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC))
	b := f.seedStructure(t, "P6", 8000, time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC))

	plan, err := f.svc.PreviewAllocation(f.ctx, domain.PreviewAllocationRequest{
		StudentID: student.ID.String(),
		Amount:    10000,
		Strategy:  "equal_distribution",
	})
	require.NoError(t, err)
	require.Len(t, plan.Entries, 2)
	require.Equal(t, a.ID, plan.Entries[0].StructureID)
	require.Equal(t, int64(5000), plan.Entries[0].Amount)
	require.Equal(t, b.ID, plan.Entries[1].StructureID)
	require.Equal(t, int64(5000), plan.Entries[1].Amount)

	var count int64
	require.NoError(t, f.db.Model(&domain.PaymentAllocation{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestRecordPaymentSurplusStaysUnallocated(t *testing.T) {
	now := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, now)

	student := f.seedStudent(t, "P7")
	f.seedStructure(t, "P7", 25000, time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC))

	receipt, err := f.svc.RecordPayment(f.ctx, domain.RecordPaymentRequest{
		StudentID: student.ID.String(),
		Amount:    30000,
		Method:    "bank",
		Strategy:  "oldest_first",
	})
	require.NoError(t, err)
	require.Equal(t, int64(5000), receipt.Payment.UnallocatedAmount)

	total := int64(0)
	for _, alloc := range receipt.Allocations {
		total += alloc.Amount
	}
	require.Equal(t, receipt.Payment.Amount, total+receipt.Payment.UnallocatedAmount)
}

func TestStatementAppliesDiscount(t *testing.T) {
	now := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, now)

	student := f.seedStudent(t, "S1")
	structure := f.seedStructure(t, "S1", 80000, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))

	discount := feescheduledomain.DiscountAssignment{
		ID:             f.node.Generate(),
		BranchID:       snowflake.ID(testBranchID),
		StudentID:      student.ID,
		FeeStructureID: structure.ID,
		Kind:           "percent",
		PercentBps:     2500,
		Reason:         "sibling",
		CreatedAt:      f.clock.Now(),
	}
	require.NoError(t, f.db.Create(&discount).Error)

	statement, err := f.svc.Statement(f.ctx, domain.StatementRequest{StudentID: student.ID.String()})
	require.NoError(t, err)
	require.Len(t, statement.Fees, 1)
	require.Equal(t, int64(20000), statement.Fees[0].DiscountAmount)
	require.Equal(t, int64(60000), statement.Fees[0].FinalAmount)
	require.Equal(t, int64(60000), statement.TotalOutstanding)
}

func TestRecordPaymentValidation(t *testing.T) {
	now := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, now)

	student := f.seedStudent(t, "P5")

	_, err := f.svc.RecordPayment(f.ctx, domain.RecordPaymentRequest{
		StudentID: student.ID.String(),
		Amount:    0,
		Method:    "cash",
	})
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = f.svc.RecordPayment(f.ctx, domain.RecordPaymentRequest{
		StudentID: student.ID.String(),
		Amount:    1000,
		Method:    "barter",
	})
	require.ErrorIs(t, err, domain.ErrInvalidMethod)

	_, err = f.svc.RecordPayment(f.ctx, domain.RecordPaymentRequest{
		StudentID: student.ID.String(),
		Amount:    1000,
		Method:    "cash",
		Strategy:  "round_robin",
	})
	require.ErrorIs(t, err, domain.ErrInvalidStrategy)

	_, err = f.svc.RecordPayment(f.ctx, domain.RecordPaymentRequest{
		StudentID: f.node.Generate().String(),
		Amount:    1000,
		Method:    "cash",
	})
	require.ErrorIs(t, err, domain.ErrStudentNotFound)

	_, err = f.svc.RecordPayment(context.Background(), domain.RecordPaymentRequest{
		StudentID: student.ID.String(),
		Amount:    1000,
		Method:    "cash",
	})
	require.ErrorIs(t, err, domain.ErrInvalidBranch)
}

func TestListPaymentsNewestFirst(t *testing.T) {
	now := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, now)

	student := f.seedStudent(t, "P5")
	f.seedStructure(t, "P5", 100000, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

	for i := 0; i < 3; i++ {
		_, err := f.svc.RecordPayment(f.ctx, domain.RecordPaymentRequest{
			StudentID: student.ID.String(),
			Amount:    10000,
			Method:    "cash",
		})
		require.NoError(t, err)
		f.clock.Advance(time.Hour)
	}

	resp, err := f.svc.ListPayments(f.ctx, domain.ListPaymentRequest{
		StudentID: student.ID.String(),
		PageSize:  2,
	})
	require.NoError(t, err)
	require.Len(t, resp.Payments, 2)
	require.True(t, resp.PageInfo.HasMore)
	require.Greater(t, int64(resp.Payments[0].ID), int64(resp.Payments[1].ID))

	rest, err := f.svc.ListPayments(f.ctx, domain.ListPaymentRequest{
		StudentID: student.ID.String(),
		PageSize:  2,
		PageToken: resp.PageInfo.NextPageToken,
	})
	require.NoError(t, err)
	require.Len(t, rest.Payments, 1)
	require.False(t, rest.PageInfo.HasMore)
}
