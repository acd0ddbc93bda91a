package scheduler_test

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	branchdomain "github.com/shulebooks/shulebooks/internal/branch/domain"
	"github.com/shulebooks/shulebooks/internal/clock"
	"github.com/shulebooks/shulebooks/internal/config"
	feescheduledomain "github.com/shulebooks/shulebooks/internal/feeschedule/domain"
	messagingdomain "github.com/shulebooks/shulebooks/internal/messaging/domain"
	messagingrepo "github.com/shulebooks/shulebooks/internal/messaging/repository"
	messagingservice "github.com/shulebooks/shulebooks/internal/messaging/service"
	paymentdomain "github.com/shulebooks/shulebooks/internal/payment/domain"
	"github.com/shulebooks/shulebooks/internal/scheduler"
	studentdomain "github.com/shulebooks/shulebooks/internal/student/domain"
	studentrepo "github.com/shulebooks/shulebooks/internal/student/repository"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type stubSender struct{}

func (stubSender) SendText(context.Context, string, string) (string, error) {
	return "wamid.stub", nil
}

type fixture struct {
	sched *scheduler.Scheduler
	db    *gorm.DB
	node  *snowflake.Node
	clock *clock.FakeClock
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(
		&branchdomain.Branch{},
		&studentdomain.Student{},
		&feescheduledomain.FeeHead{},
		&feescheduledomain.FeeTerm{},
		&feescheduledomain.FeeStructure{},
		&feescheduledomain.DiscountAssignment{},
		&paymentdomain.Payment{},
		&paymentdomain.PaymentAllocation{},
		&messagingdomain.MessageJob{},
	))

	node, err := snowflake.NewNode(3)
	require.NoError(t, err)
	fake := clock.NewFakeClock(now)

	cfg := config.Config{
		Reminder: config.ReminderConfig{
			GracePeriodDays: 3,
			FirstDays:       7,
			SecondDays:      15,
			FinalDays:       30,
		},
		Messaging: config.MessagingConfig{
			MaxAttempts:    3,
			RatePerSecond:  10,
			Burst:          20,
			DispatchBatch:  50,
			BackoffSeconds: 30,
		},
		Scheduler: config.SchedulerConfig{
			RunIntervalSeconds:     60,
			ReminderScanHourUTC:    6,
			DispatchTimeoutSeconds: 30,
		},
	}

	messaging := messagingservice.New(messagingservice.Params{
		DB:       gdb,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    fake,
		Config:   cfg,
		Repo:     messagingrepo.Provide(),
		Students: studentrepo.Provide(),
		Sender:   stubSender{},
	})

	sched := scheduler.New(scheduler.Params{
		DB:        gdb,
		Log:       zap.NewNop(),
		Clock:     fake,
		Config:    cfg,
		Messaging: messaging,
	})

	return &fixture{sched: sched, db: gdb, node: node, clock: fake}
}

func (f *fixture) seedBranch(t *testing.T) branchdomain.Branch {
	t.Helper()
	branch := branchdomain.Branch{
		ID:        f.node.Generate(),
		Name:      "Hilltop Academy",
		Currency:  "UGX",
		CreatedAt: f.clock.Now(),
		UpdatedAt: f.clock.Now(),
	}
	require.NoError(t, f.db.Create(&branch).Error)
	return branch
}

func (f *fixture) seedOverdueFee(t *testing.T, branch branchdomain.Branch, class, phone string, due time.Time) (studentdomain.Student, feescheduledomain.FeeStructure) {
	t.Helper()

	student := studentdomain.Student{
		ID:            f.node.Generate(),
		BranchID:      branch.ID,
		AdmissionNo:   "ADM-" + f.node.Generate().String(),
		FirstName:     "Brian",
		LastName:      "Ssemakula",
		ClassName:     class,
		GuardianName:  "Ruth Ssemakula",
		GuardianPhone: phone,
		Status:        studentdomain.StudentStatusActive,
		AdmittedAt:    f.clock.Now(),
		CreatedAt:     f.clock.Now(),
		UpdatedAt:     f.clock.Now(),
	}
	require.NoError(t, f.db.Create(&student).Error)

	head := feescheduledomain.FeeHead{
		ID:        f.node.Generate(),
		BranchID:  branch.ID,
		Name:      "Tuition",
		Code:      "TUI-" + f.node.Generate().String(),
		CreatedAt: f.clock.Now(),
		UpdatedAt: f.clock.Now(),
	}
	require.NoError(t, f.db.Create(&head).Error)

	term := feescheduledomain.FeeTerm{
		ID:           f.node.Generate(),
		BranchID:     branch.ID,
		Name:         "Term 1",
		AcademicYear: "2026",
		StartDate:    due.AddDate(0, -2, 0),
		EndDate:      due.AddDate(0, 1, 0),
		CreatedAt:    f.clock.Now(),
		UpdatedAt:    f.clock.Now(),
	}
	require.NoError(t, f.db.Create(&term).Error)

	structure := feescheduledomain.FeeStructure{
		ID:         f.node.Generate(),
		BranchID:   branch.ID,
		FeeHeadID:  head.ID,
		TermID:     term.ID,
		ClassName:  class,
		BaseAmount: 150000,
		Currency:   "UGX",
		DueDate:    due,
		CreatedAt:  f.clock.Now(),
		UpdatedAt:  f.clock.Now(),
	}
	require.NoError(t, f.db.Create(&structure).Error)
	return student, structure
}

func TestReminderScanEnqueuesTieredMessage(t *testing.T) {
	now := time.Date(2026, 3, 20, 7, 0, 0, 0, time.UTC)
	f := newFixture(t, now)
	branch := f.seedBranch(t)

	// Due Mar 10, so 10 days overdue: past grace, first tier.
	student, structure := f.seedOverdueFee(t, branch, "P4", "256700000020", time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))

	report, err := f.sched.RunReminderScan(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.StudentsScanned)
	require.Equal(t, 1, report.Enqueued)

	var job messagingdomain.MessageJob
	require.NoError(t, f.db.First(&job).Error)
	require.Equal(t, student.GuardianPhone, job.Recipient)
	require.Equal(t, messagingdomain.KindFeeReminder, job.Kind)
	require.Contains(t, job.Body, "Ruth Ssemakula")
	require.Contains(t, job.Body, "Tuition")
	require.Contains(t, job.Body, "Hilltop Academy")
	require.Contains(t, job.DedupeKey, student.ID.String())
	require.Contains(t, job.DedupeKey, structure.ID.String())
	require.Contains(t, job.DedupeKey, "first")
}

func TestReminderScanIsIdempotentPerTier(t *testing.T) {
	now := time.Date(2026, 3, 20, 7, 0, 0, 0, time.UTC)
	f := newFixture(t, now)
	branch := f.seedBranch(t)
	f.seedOverdueFee(t, branch, "P4", "256700000021", time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))

	_, err := f.sched.RunReminderScan(context.Background())
	require.NoError(t, err)
	_, err = f.sched.RunReminderScan(context.Background())
	require.NoError(t, err)

	var count int64
	require.NoError(t, f.db.Model(&messagingdomain.MessageJob{}).Count(&count).Error)
	require.Equal(t, int64(1), count)

	// Crossing into the second tier produces a fresh message.
	f.clock.Advance(8 * 24 * time.Hour)
	report, err := f.sched.RunReminderScan(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Enqueued)

	require.NoError(t, f.db.Model(&messagingdomain.MessageJob{}).Count(&count).Error)
	require.Equal(t, int64(2), count)
}

func TestReminderScanSkipsStudentsWithoutPhone(t *testing.T) {
	now := time.Date(2026, 3, 20, 7, 0, 0, 0, time.UTC)
	f := newFixture(t, now)
	branch := f.seedBranch(t)
	f.seedOverdueFee(t, branch, "P4", "", time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))

	report, err := f.sched.RunReminderScan(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Skipped)
	require.Zero(t, report.Enqueued)
}

func TestReminderScanIgnoresSettledAndNotYetDue(t *testing.T) {
	now := time.Date(2026, 3, 20, 7, 0, 0, 0, time.UTC)
	f := newFixture(t, now)
	branch := f.seedBranch(t)

	// Not due yet. Separate classes so the structures do not cross-apply.
	f.seedOverdueFee(t, branch, "P2", "256700000022", time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC))

	// Overdue but fully paid.
	student, structure := f.seedOverdueFee(t, branch, "P5", "256700000023", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	alloc := paymentdomain.PaymentAllocation{
		ID:             f.node.Generate(),
		BranchID:       branch.ID,
		PaymentID:      f.node.Generate(),
		StudentID:      student.ID,
		FeeStructureID: structure.ID,
		Amount:         150000,
		CreatedAt:      f.clock.Now(),
	}
	require.NoError(t, f.db.Create(&alloc).Error)

	report, err := f.sched.RunReminderScan(context.Background())
	require.NoError(t, err)
	require.Zero(t, report.Enqueued)
}
