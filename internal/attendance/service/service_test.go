package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shulebooks/shulebooks/internal/attendance/domain"
	"github.com/shulebooks/shulebooks/internal/attendance/repository"
	"github.com/shulebooks/shulebooks/internal/attendance/service"
	"github.com/shulebooks/shulebooks/internal/branchcontext"
	"github.com/shulebooks/shulebooks/internal/clock"
	studentdomain "github.com/shulebooks/shulebooks/internal/student/domain"
	studentrepo "github.com/shulebooks/shulebooks/internal/student/repository"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const testBranchID int64 = 5200

type fixture struct {
	svc   domain.Service
	db    *gorm.DB
	node  *snowflake.Node
	clock *clock.FakeClock
	ctx   context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&studentdomain.Student{}, &domain.AttendanceRecord{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC))

	svc := service.New(service.Params{
		DB:       gdb,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    fake,
		Repo:     repository.Provide(),
		Students: studentrepo.Provide(),
	})

	ctx := branchcontext.WithBranchID(context.Background(), testBranchID)
	ctx = branchcontext.WithActor(ctx, "teacher-1")

	return &fixture{svc: svc, db: gdb, node: node, clock: fake, ctx: ctx}
}

func seedStudent(t *testing.T, f *fixture, class string) studentdomain.Student {
	t.Helper()
	now := f.clock.Now()
	student := studentdomain.Student{
		ID:            f.node.Generate(),
		BranchID:      snowflake.ID(testBranchID),
		AdmissionNo:   "ADM-" + f.node.Generate().String(),
		FirstName:     "Moses",
		LastName:      "Kato",
		ClassName:     class,
		GuardianName:  "Sarah Kato",
		GuardianPhone: "256772000333",
		Status:        studentdomain.StudentStatusActive,
		AdmittedAt:    now,
		Metadata:      datatypes.JSONMap{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, f.db.Create(&student).Error)
	return student
}

func TestMarkRecordsDayAndActor(t *testing.T) {
	f := newFixture(t)
	student := seedStudent(t, f, "P3")

	record, err := f.svc.Mark(f.ctx, domain.MarkRequest{
		StudentID: student.ID.String(),
		Day:       time.Date(2025, 3, 3, 10, 30, 0, 0, time.UTC),
		Status:    domain.StatusPresent,
	})
	require.NoError(t, err)

	require.Equal(t, student.ID, record.StudentID)
	require.Equal(t, "P3", record.ClassName)
	require.Equal(t, domain.StatusPresent, record.Status)
	require.Equal(t, "teacher-1", record.MarkedBy)
	// the day column is truncated so re-marks collide on the unique index
	require.Equal(t, time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), record.Day)
}

func TestMarkSameDayOverwrites(t *testing.T) {
	f := newFixture(t)
	student := seedStudent(t, f, "P3")
	day := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

	_, err := f.svc.Mark(f.ctx, domain.MarkRequest{
		StudentID: student.ID.String(),
		Day:       day,
		Status:    domain.StatusAbsent,
	})
	require.NoError(t, err)

	_, err = f.svc.Mark(f.ctx, domain.MarkRequest{
		StudentID: student.ID.String(),
		Day:       day,
		Status:    domain.StatusLate,
		Note:      "arrived 9am",
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, f.db.Model(&domain.AttendanceRecord{}).Count(&count).Error)
	require.EqualValues(t, 1, count)

	var record domain.AttendanceRecord
	require.NoError(t, f.db.First(&record).Error)
	require.Equal(t, domain.StatusLate, record.Status)
	require.Equal(t, "arrived 9am", record.Note)
}

func TestMarkRejectsUnknownStatusAndStudent(t *testing.T) {
	f := newFixture(t)
	student := seedStudent(t, f, "P3")
	day := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

	_, err := f.svc.Mark(f.ctx, domain.MarkRequest{
		StudentID: student.ID.String(),
		Day:       day,
		Status:    "asleep",
	})
	require.ErrorIs(t, err, domain.ErrInvalidStatus)

	_, err = f.svc.Mark(f.ctx, domain.MarkRequest{
		StudentID: f.node.Generate().String(),
		Day:       day,
		Status:    domain.StatusPresent,
	})
	require.ErrorIs(t, err, domain.ErrStudentNotFound)
}

func TestBulkMarkIsAtomic(t *testing.T) {
	f := newFixture(t)
	a := seedStudent(t, f, "P3")
	b := seedStudent(t, f, "P3")
	day := time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)

	_, err := f.svc.BulkMark(f.ctx, domain.BulkMarkRequest{
		ClassName: "P3",
		Day:       day,
		Marks: []domain.MarkRequest{
			{StudentID: a.ID.String(), Status: domain.StatusPresent},
			{StudentID: f.node.Generate().String(), Status: domain.StatusPresent},
			{StudentID: b.ID.String(), Status: domain.StatusPresent},
		},
	})
	require.ErrorIs(t, err, domain.ErrStudentNotFound)

	var count int64
	require.NoError(t, f.db.Model(&domain.AttendanceRecord{}).Count(&count).Error)
	require.EqualValues(t, 0, count)
}

func TestClassSummaryCountsByStatus(t *testing.T) {
	f := newFixture(t)
	a := seedStudent(t, f, "P3")
	b := seedStudent(t, f, "P3")
	c := seedStudent(t, f, "P3")
	day := time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)

	resp, err := f.svc.BulkMark(f.ctx, domain.BulkMarkRequest{
		ClassName: "P3",
		Day:       day,
		Marks: []domain.MarkRequest{
			{StudentID: a.ID.String(), Status: domain.StatusPresent},
			{StudentID: b.ID.String(), Status: domain.StatusPresent},
			{StudentID: c.ID.String(), Status: domain.StatusAbsent},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 3, resp.Marked)

	summary, err := f.svc.ClassSummary(f.ctx, domain.ClassSummaryRequest{
		ClassName: "P3",
		From:      day,
		To:        day.Add(24 * time.Hour),
	})
	require.NoError(t, err)

	require.Equal(t, 2, summary.Counts[domain.StatusPresent])
	require.Equal(t, 1, summary.Counts[domain.StatusAbsent])
	require.Equal(t, 3, summary.Students)
}

func TestListReturnsStudentHistoryInRange(t *testing.T) {
	f := newFixture(t)
	student := seedStudent(t, f, "P3")

	for i := 0; i < 3; i++ {
		day := time.Date(2025, 3, 10+i, 0, 0, 0, 0, time.UTC)
		_, err := f.svc.Mark(f.ctx, domain.MarkRequest{
			StudentID: student.ID.String(),
			Day:       day,
			Status:    domain.StatusPresent,
		})
		require.NoError(t, err)
	}

	records, err := f.svc.List(f.ctx, domain.ListRequest{
		StudentID: student.ID.String(),
		From:      time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC),
		To:        time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, records, 2)
}
