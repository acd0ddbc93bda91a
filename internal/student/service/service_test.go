package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shulebooks/shulebooks/internal/branchcontext"
	"github.com/shulebooks/shulebooks/internal/clock"
	"github.com/shulebooks/shulebooks/internal/student/domain"
	"github.com/shulebooks/shulebooks/internal/student/repository"
	"github.com/shulebooks/shulebooks/internal/student/service"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testBranchID int64 = 4100

type fixture struct {
	svc   domain.Service
	db    *gorm.DB
	clock *clock.FakeClock
	ctx   context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&domain.Student{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2025, 2, 3, 8, 0, 0, 0, time.UTC))

	svc := service.New(service.Params{
		DB:    gdb,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fake,
		Repo:  repository.Provide(),
	})

	return &fixture{
		svc:   svc,
		db:    gdb,
		clock: fake,
		ctx:   branchcontext.WithBranchID(context.Background(), testBranchID),
	}
}

func admit(t *testing.T, f *fixture, admissionNo, class string) domain.Student {
	t.Helper()
	student, err := f.svc.Create(f.ctx, domain.CreateStudentRequest{
		AdmissionNo:   admissionNo,
		FirstName:     "Aisha",
		LastName:      "Namukasa",
		ClassName:     class,
		GuardianName:  "Grace Namukasa",
		GuardianPhone: "+256 772-000111",
	})
	require.NoError(t, err)
	return student
}

func TestCreateNormalizesGuardianPhone(t *testing.T) {
	f := newFixture(t)

	student := admit(t, f, "ADM-001", "P4")

	require.Equal(t, "256772000111", student.GuardianPhone)
	require.Equal(t, domain.StudentStatusActive, student.Status)
	require.Equal(t, "Aisha Namukasa", student.FullName())
}

func TestCreateRejectsDuplicateAdmissionNo(t *testing.T) {
	f := newFixture(t)

	admit(t, f, "ADM-002", "P4")

	_, err := f.svc.Create(f.ctx, domain.CreateStudentRequest{
		AdmissionNo:   "ADM-002",
		FirstName:     "Peter",
		LastName:      "Okello",
		ClassName:     "P5",
		GuardianName:  "John Okello",
		GuardianPhone: "256772000222",
	})
	require.ErrorIs(t, err, domain.ErrDuplicateAdmission)
}

func TestCreateRequiresBranch(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), domain.CreateStudentRequest{
		AdmissionNo:   "ADM-003",
		FirstName:     "Peter",
		LastName:      "Okello",
		ClassName:     "P5",
		GuardianName:  "John Okello",
		GuardianPhone: "256772000222",
	})
	require.ErrorIs(t, err, domain.ErrInvalidBranch)
}

func TestUpdateAppliesPartialFields(t *testing.T) {
	f := newFixture(t)

	student := admit(t, f, "ADM-004", "P4")
	f.clock.Advance(24 * time.Hour)

	class := "P5"
	status := "left"
	updated, err := f.svc.Update(f.ctx, domain.UpdateStudentRequest{
		ID:        student.ID.String(),
		ClassName: &class,
		Status:    &status,
	})
	require.NoError(t, err)

	require.Equal(t, "P5", updated.ClassName)
	require.Equal(t, domain.StudentStatusLeft, updated.Status)
	require.Equal(t, student.GuardianPhone, updated.GuardianPhone)
	require.True(t, updated.UpdatedAt.After(student.UpdatedAt))
}

func TestUpdateRejectsUnknownStatus(t *testing.T) {
	f := newFixture(t)

	student := admit(t, f, "ADM-005", "P4")

	status := "suspended"
	_, err := f.svc.Update(f.ctx, domain.UpdateStudentRequest{
		ID:     student.ID.String(),
		Status: &status,
	})
	require.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestListFiltersByClass(t *testing.T) {
	f := newFixture(t)

	admit(t, f, "ADM-010", "P4")
	admit(t, f, "ADM-011", "P4")
	admit(t, f, "ADM-012", "P6")

	resp, err := f.svc.List(f.ctx, domain.ListStudentRequest{ClassName: "P4"})
	require.NoError(t, err)
	require.Len(t, resp.Students, 2)
	for _, s := range resp.Students {
		require.Equal(t, "P4", s.ClassName)
	}
}

func TestGetByIDScopedToBranch(t *testing.T) {
	f := newFixture(t)

	student := admit(t, f, "ADM-020", "P4")

	otherBranch := branchcontext.WithBranchID(context.Background(), testBranchID+1)
	_, err := f.svc.GetByID(otherBranch, domain.GetStudentRequest{ID: student.ID.String()})
	require.ErrorIs(t, err, domain.ErrNotFound)

	got, err := f.svc.GetByID(f.ctx, domain.GetStudentRequest{ID: student.ID.String()})
	require.NoError(t, err)
	require.Equal(t, student.ID, got.ID)
}
