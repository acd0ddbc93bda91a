package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shulebooks/shulebooks/internal/branchcontext"
	"github.com/shulebooks/shulebooks/internal/clock"
	"github.com/shulebooks/shulebooks/internal/config"
	"github.com/shulebooks/shulebooks/internal/messaging/domain"
	"github.com/shulebooks/shulebooks/internal/messaging/repository"
	"github.com/shulebooks/shulebooks/internal/messaging/service"
	"github.com/shulebooks/shulebooks/internal/ratelimit"
	studentdomain "github.com/shulebooks/shulebooks/internal/student/domain"
	studentrepo "github.com/shulebooks/shulebooks/internal/student/repository"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testBranchID int64 = 9001

type fakeSender struct {
	sent    []string
	failFor map[string]error
	nextID  int
}

func (f *fakeSender) SendText(_ context.Context, to, _ string) (string, error) {
	if err, ok := f.failFor[to]; ok {
		return "", err
	}
	f.sent = append(f.sent, to)
	f.nextID++
	return fmt.Sprintf("wamid.%d", f.nextID), nil
}

type fakeLimiter struct {
	keys   []string
	denied map[string]bool
}

func (l *fakeLimiter) Allow(_ context.Context, key string, _ float64, _ int) (ratelimit.Result, error) {
	l.keys = append(l.keys, key)
	if l.denied[key] {
		return ratelimit.Result{}, nil
	}
	return ratelimit.Result{Allowed: true}, nil
}

type fixture struct {
	svc    domain.Service
	db     *gorm.DB
	node   *snowflake.Node
	clock  *clock.FakeClock
	sender *fakeSender
	ctx    context.Context
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithLimiter(t, nil)
}

func newFixtureWithLimiter(t *testing.T, limiter ratelimit.Limiter) *fixture {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&studentdomain.Student{}, &domain.MessageJob{}))

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC))
	sender := &fakeSender{failFor: map[string]error{}}

	svc := service.New(service.Params{
		DB:    gdb,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fake,
		Config: config.Config{
			Messaging: config.MessagingConfig{
				MaxAttempts:    3,
				RatePerSecond:  10,
				Burst:          20,
				DispatchBatch:  50,
				BackoffSeconds: 30,
			},
		},
		Repo:     repository.Provide(),
		Students: studentrepo.Provide(),
		Sender:   sender,
		Limiter:  limiter,
	})

	return &fixture{
		svc:    svc,
		db:     gdb,
		node:   node,
		clock:  fake,
		sender: sender,
		ctx:    branchcontext.WithBranchID(context.Background(), testBranchID),
	}
}

func (f *fixture) seedStudent(t *testing.T, className, phone string) studentdomain.Student {
	t.Helper()
	student := studentdomain.Student{
		ID:            f.node.Generate(),
		BranchID:      snowflake.ID(testBranchID),
		AdmissionNo:   "ADM-" + f.node.Generate().String(),
		FirstName:     "Kato",
		LastName:      "Mubiru",
		ClassName:     className,
		GuardianName:  "Jane Mubiru",
		GuardianPhone: phone,
		Status:        studentdomain.StudentStatusActive,
		AdmittedAt:    f.clock.Now(),
		CreatedAt:     f.clock.Now(),
		UpdatedAt:     f.clock.Now(),
	}
	require.NoError(t, f.db.Create(&student).Error)
	return student
}

func TestEnqueueDedupe(t *testing.T) {
	f := newFixture(t)

	req := domain.EnqueueRequest{
		Recipient: "256700000001",
		Body:      "Fees due",
		Kind:      "fee_reminder",
		DedupeKey: "fee_reminder:42:77:first",
	}

	first, err := f.svc.Enqueue(f.ctx, req)
	require.NoError(t, err)

	second, err := f.svc.Enqueue(f.ctx, req)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, f.db.Model(&domain.MessageJob{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestDispatchDueSendsAndRecordsProviderID(t *testing.T) {
	f := newFixture(t)

	job, err := f.svc.Enqueue(f.ctx, domain.EnqueueRequest{
		Recipient: "256700000001",
		Body:      "Fees due",
		Kind:      "fee_reminder",
	})
	require.NoError(t, err)

	report, err := f.svc.DispatchDue(f.ctx)
	require.NoError(t, err)
	require.Equal(t, 1, report.Picked)
	require.Equal(t, 1, report.Sent)

	var stored domain.MessageJob
	require.NoError(t, f.db.First(&stored, "id = ?", job.ID).Error)
	require.Equal(t, domain.StatusSent, stored.Status)
	require.NotEmpty(t, stored.ProviderMessageID)
	require.Equal(t, 1, stored.Attempts)
}

func TestDispatchRetriesWithBackoffThenFails(t *testing.T) {
	f := newFixture(t)
	f.sender.failFor["256700000002"] = errors.New("network timeout")

	job, err := f.svc.Enqueue(f.ctx, domain.EnqueueRequest{
		Recipient: "256700000002",
		Body:      "Fees due",
		Kind:      "fee_reminder",
	})
	require.NoError(t, err)

	report, err := f.svc.DispatchDue(f.ctx)
	require.NoError(t, err)
	require.Equal(t, 1, report.Retried)

	var stored domain.MessageJob
	require.NoError(t, f.db.First(&stored, "id = ?", job.ID).Error)
	require.Equal(t, domain.StatusQueued, stored.Status)
	require.Equal(t, 1, stored.Attempts)
	require.True(t, stored.NextAttemptAt.After(f.clock.Now()))

	// Not due yet.
	report, err = f.svc.DispatchDue(f.ctx)
	require.NoError(t, err)
	require.Zero(t, report.Picked)

	f.clock.Advance(time.Minute)
	report, err = f.svc.DispatchDue(f.ctx)
	require.NoError(t, err)
	require.Equal(t, 1, report.Retried)

	f.clock.Advance(2 * time.Minute)
	report, err = f.svc.DispatchDue(f.ctx)
	require.NoError(t, err)
	require.Equal(t, 1, report.Failed)

	require.NoError(t, f.db.First(&stored, "id = ?", job.ID).Error)
	require.Equal(t, domain.StatusFailed, stored.Status)
	require.Equal(t, 3, stored.Attempts)
	require.Equal(t, "network timeout", stored.LastError)
}

func TestDispatchRateLimitsPerBranch(t *testing.T) {
	limiter := &fakeLimiter{denied: map[string]bool{}}
	f := newFixtureWithLimiter(t, limiter)

	otherBranchCtx := branchcontext.WithBranchID(context.Background(), testBranchID+1)

	busy, err := f.svc.Enqueue(f.ctx, domain.EnqueueRequest{
		Recipient: "256700000030",
		Body:      "Fees due",
		Kind:      "fee_reminder",
	})
	require.NoError(t, err)

	quiet, err := f.svc.Enqueue(otherBranchCtx, domain.EnqueueRequest{
		Recipient: "256700000031",
		Body:      "Fees due",
		Kind:      "fee_reminder",
	})
	require.NoError(t, err)

	// Exhaust only the first branch's bucket.
	limiter.denied[fmt.Sprintf("messaging:dispatch:%d", testBranchID)] = true

	report, err := f.svc.DispatchDue(f.ctx)
	require.NoError(t, err)
	require.Equal(t, 2, report.Picked)
	require.Equal(t, 1, report.Sent)
	require.Equal(t, 1, report.Throttled)

	var stored domain.MessageJob
	require.NoError(t, f.db.First(&stored, "id = ?", busy.ID).Error)
	require.Equal(t, domain.StatusQueued, stored.Status)
	require.Zero(t, stored.Attempts)

	stored = domain.MessageJob{}
	require.NoError(t, f.db.First(&stored, "id = ?", quiet.ID).Error)
	require.Equal(t, domain.StatusSent, stored.Status)

	require.Contains(t, limiter.keys, fmt.Sprintf("messaging:dispatch:%d", testBranchID))
	require.Contains(t, limiter.keys, fmt.Sprintf("messaging:dispatch:%d", testBranchID+1))
}

// statusReadingSender records the persisted job status at send time, proving
// the job is leased before the provider call.
type statusReadingSender struct {
	db   *gorm.DB
	seen []string
}

func (s *statusReadingSender) SendText(_ context.Context, to, _ string) (string, error) {
	var job domain.MessageJob
	if err := s.db.First(&job, "recipient = ?", to).Error; err != nil {
		return "", err
	}
	s.seen = append(s.seen, job.Status)
	return "wamid.lease", nil
}

func TestDispatchLeasesJobBeforeSending(t *testing.T) {
	f := newFixture(t)

	job, err := f.svc.Enqueue(f.ctx, domain.EnqueueRequest{
		Recipient: "256700000040",
		Body:      "Fees due",
		Kind:      "fee_reminder",
	})
	require.NoError(t, err)

	sender := &statusReadingSender{db: f.db}
	svc := service.New(service.Params{
		DB:    f.db,
		Log:   zap.NewNop(),
		GenID: f.node,
		Clock: f.clock,
		Config: config.Config{
			Messaging: config.MessagingConfig{
				MaxAttempts:    3,
				RatePerSecond:  10,
				Burst:          20,
				DispatchBatch:  50,
				BackoffSeconds: 30,
			},
		},
		Repo:     repository.Provide(),
		Students: studentrepo.Provide(),
		Sender:   sender,
	})

	report, err := svc.DispatchDue(f.ctx)
	require.NoError(t, err)
	require.Equal(t, 1, report.Sent)
	require.Equal(t, []string{domain.StatusSending}, sender.seen)

	var stored domain.MessageJob
	require.NoError(t, f.db.First(&stored, "id = ?", job.ID).Error)
	require.Equal(t, domain.StatusSent, stored.Status)
}

func TestBroadcastToClassAndProgress(t *testing.T) {
	f := newFixture(t)

	f.seedStudent(t, "P5", "256700000010")
	f.seedStudent(t, "P5", "256700000011")
	f.seedStudent(t, "P5", "")
	f.seedStudent(t, "P6", "256700000012")

	resp, err := f.svc.BroadcastToClass(f.ctx, domain.BroadcastRequest{
		ClassName: "P5",
		Body:      "School closes early on Friday",
	})
	require.NoError(t, err)
	require.Equal(t, 2, resp.Enqueued)
	require.Equal(t, 1, resp.Skipped)

	progress, err := f.svc.BatchProgress(f.ctx, resp.BatchID)
	require.NoError(t, err)
	require.Equal(t, 2, progress.Total)
	require.Equal(t, 2, progress.Counts[domain.StatusQueued])
	require.False(t, progress.Done)

	_, err = f.svc.DispatchDue(f.ctx)
	require.NoError(t, err)

	progress, err = f.svc.BatchProgress(f.ctx, resp.BatchID)
	require.NoError(t, err)
	require.Equal(t, 2, progress.Counts[domain.StatusSent])
	require.True(t, progress.Done)
}

func TestHandleDeliveryStatus(t *testing.T) {
	f := newFixture(t)

	job, err := f.svc.Enqueue(f.ctx, domain.EnqueueRequest{
		Recipient: "256700000001",
		Body:      "Fees due",
		Kind:      "fee_reminder",
	})
	require.NoError(t, err)

	_, err = f.svc.DispatchDue(f.ctx)
	require.NoError(t, err)

	var stored domain.MessageJob
	require.NoError(t, f.db.First(&stored, "id = ?", job.ID).Error)

	err = f.svc.HandleDeliveryStatus(f.ctx, domain.DeliveryStatusUpdate{
		ProviderMessageID: stored.ProviderMessageID,
		Status:            "delivered",
	})
	require.NoError(t, err)

	require.NoError(t, f.db.First(&stored, "id = ?", job.ID).Error)
	require.Equal(t, domain.StatusDelivered, stored.Status)

	err = f.svc.HandleDeliveryStatus(f.ctx, domain.DeliveryStatusUpdate{
		ProviderMessageID: "wamid.unknown",
		Status:            "delivered",
	})
	require.ErrorIs(t, err, domain.ErrNotFound)
}
