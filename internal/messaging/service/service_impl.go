package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shulebooks/shulebooks/internal/branchcontext"
	"github.com/shulebooks/shulebooks/internal/clock"
	"github.com/shulebooks/shulebooks/internal/config"
	"github.com/shulebooks/shulebooks/internal/messaging/domain"
	"github.com/shulebooks/shulebooks/internal/providers/whatsapp"
	"github.com/shulebooks/shulebooks/internal/ratelimit"
	studentdomain "github.com/shulebooks/shulebooks/internal/student/domain"
	"github.com/shulebooks/shulebooks/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const dispatchBucketPrefix = "messaging:dispatch:"

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Config   config.Config
	Repo     domain.Repository
	Students studentdomain.Repository
	Sender   whatsapp.Sender
	Limiter  ratelimit.Limiter `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	cfg      config.MessagingConfig
	repo     domain.Repository
	students studentdomain.Repository
	sender   whatsapp.Sender
	limiter  ratelimit.Limiter
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("messaging.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		cfg:      p.Config.Messaging,
		repo:     p.Repo,
		students: p.Students,
		sender:   p.Sender,
		limiter:  p.Limiter,
	}
}

func (s *Service) Enqueue(ctx context.Context, req domain.EnqueueRequest) (domain.MessageJob, error) {
	branchID, ok := branchcontext.BranchIDFromContext(ctx)
	if !ok || branchID == 0 {
		return domain.MessageJob{}, domain.ErrInvalidBranch
	}

	recipient := strings.TrimSpace(req.Recipient)
	if recipient == "" {
		return domain.MessageJob{}, domain.ErrInvalidRecipient
	}
	body := strings.TrimSpace(req.Body)
	if body == "" {
		return domain.MessageJob{}, domain.ErrInvalidBody
	}
	kind, err := parseKind(req.Kind)
	if err != nil {
		return domain.MessageJob{}, err
	}

	var studentID snowflake.ID
	if strings.TrimSpace(req.StudentID) != "" {
		parsed, err := snowflake.ParseString(strings.TrimSpace(req.StudentID))
		if err != nil {
			return domain.MessageJob{}, domain.ErrInvalidID
		}
		studentID = parsed
	}

	dedupeKey := strings.TrimSpace(req.DedupeKey)
	if dedupeKey != "" {
		existing, err := s.repo.FindByDedupeKey(ctx, s.db, branchID, dedupeKey)
		if err != nil {
			return domain.MessageJob{}, err
		}
		if existing != nil {
			return *existing, nil
		}
	}

	now := s.clock.Now()
	job := domain.MessageJob{
		ID:            s.genID.Generate(),
		BranchID:      branchID,
		StudentID:     studentID,
		Recipient:     recipient,
		Body:          body,
		Kind:          kind,
		Status:        domain.StatusQueued,
		MaxAttempts:   s.cfg.MaxAttempts,
		NextAttemptAt: now,
		DedupeKey:     dedupeKey,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Insert(ctx, s.db, &job); err != nil {
		if db.IsDuplicateKeyErr(err) && dedupeKey != "" {
			existing, findErr := s.repo.FindByDedupeKey(ctx, s.db, branchID, dedupeKey)
			if findErr == nil && existing != nil {
				return *existing, nil
			}
		}
		return domain.MessageJob{}, err
	}
	return job, nil
}

func (s *Service) BroadcastToClass(ctx context.Context, req domain.BroadcastRequest) (domain.BroadcastResponse, error) {
	branchID, ok := branchcontext.BranchIDFromContext(ctx)
	if !ok || branchID == 0 {
		return domain.BroadcastResponse{}, domain.ErrInvalidBranch
	}
	className := strings.TrimSpace(req.ClassName)
	if className == "" {
		return domain.BroadcastResponse{}, domain.ErrInvalidClass
	}
	body := strings.TrimSpace(req.Body)
	if body == "" {
		return domain.BroadcastResponse{}, domain.ErrInvalidBody
	}

	students, err := s.students.ListActiveByClass(ctx, s.db, branchID, className)
	if err != nil {
		return domain.BroadcastResponse{}, err
	}

	now := s.clock.Now()
	batchID := s.genID.Generate()
	resp := domain.BroadcastResponse{BatchID: batchID.String()}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, student := range students {
			if student == nil || student.GuardianPhone == "" {
				resp.Skipped++
				continue
			}
			job := domain.MessageJob{
				ID:            s.genID.Generate(),
				BranchID:      branchID,
				StudentID:     student.ID,
				BatchID:       batchID,
				Recipient:     student.GuardianPhone,
				Body:          body,
				Kind:          domain.KindBroadcast,
				Status:        domain.StatusQueued,
				MaxAttempts:   s.cfg.MaxAttempts,
				NextAttemptAt: now,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if err := s.repo.Insert(ctx, tx, &job); err != nil {
				return err
			}
			resp.Enqueued++
		}
		return nil
	})
	if err != nil {
		return domain.BroadcastResponse{}, err
	}

	s.log.Info("broadcast enqueued",
		zap.String("batch_id", batchID.String()),
		zap.String("class", className),
		zap.Int("enqueued", resp.Enqueued),
		zap.Int("skipped", resp.Skipped),
	)
	return resp, nil
}

func (s *Service) BatchProgress(ctx context.Context, batchID string) (domain.BatchProgress, error) {
	branchID, ok := branchcontext.BranchIDFromContext(ctx)
	if !ok || branchID == 0 {
		return domain.BatchProgress{}, domain.ErrInvalidBranch
	}
	id, err := snowflake.ParseString(strings.TrimSpace(batchID))
	if err != nil || id == 0 {
		return domain.BatchProgress{}, domain.ErrInvalidID
	}

	jobs, err := s.repo.ListByBatch(ctx, s.db, branchID, id)
	if err != nil {
		return domain.BatchProgress{}, err
	}
	if len(jobs) == 0 {
		return domain.BatchProgress{}, domain.ErrNotFound
	}

	progress := domain.BatchProgress{
		BatchID: id.String(),
		Total:   len(jobs),
		Counts:  map[string]int{},
		Done:    true,
	}
	for _, job := range jobs {
		if job == nil {
			continue
		}
		progress.Counts[job.Status]++
		if job.Status == domain.StatusQueued || job.Status == domain.StatusSending {
			progress.Done = false
		}
	}
	return progress, nil
}

func (s *Service) HandleDeliveryStatus(ctx context.Context, update domain.DeliveryStatusUpdate) error {
	providerID := strings.TrimSpace(update.ProviderMessageID)
	if providerID == "" {
		return domain.ErrInvalidID
	}

	job, err := s.repo.FindByProviderMessageID(ctx, s.db, providerID)
	if err != nil {
		return err
	}
	if job == nil {
		return domain.ErrNotFound
	}

	switch strings.ToLower(strings.TrimSpace(update.Status)) {
	case "delivered", "read":
		job.Status = domain.StatusDelivered
	case "failed":
		job.Status = domain.StatusFailed
		job.LastError = "provider reported delivery failure"
	case "sent":
		// already recorded at dispatch time
		return nil
	default:
		return nil
	}
	job.UpdatedAt = s.clock.Now()
	return s.repo.Update(ctx, s.db, job)
}

// DispatchDue drains queued jobs whose next attempt is due. Each job is
// leased to the sending state before the provider call so a second dispatcher
// never picks it up; failures go back to queued with linear backoff until
// MaxAttempts, then are marked failed. The rate bucket is keyed per branch so
// one busy branch cannot starve the others.
func (s *Service) DispatchDue(ctx context.Context) (domain.DispatchReport, error) {
	now := s.clock.Now()
	jobs, err := s.repo.ListDue(ctx, s.db, now, s.cfg.DispatchBatch)
	if err != nil {
		return domain.DispatchReport{}, err
	}

	report := domain.DispatchReport{Picked: len(jobs)}
	for _, job := range jobs {
		if job == nil {
			continue
		}

		if s.limiter != nil {
			allowed, err := s.limiter.Allow(ctx, dispatchBucketPrefix+job.BranchID.String(), s.cfg.RatePerSecond, s.cfg.Burst)
			if err != nil {
				s.log.Warn("rate limiter unavailable, proceeding", zap.Error(err))
			} else if !allowed.Allowed {
				report.Throttled++
				continue
			}
		}

		job.Status = domain.StatusSending
		job.UpdatedAt = now
		if err := s.repo.Update(ctx, s.db, job); err != nil {
			s.log.Error("failed to lease job",
				zap.String("job_id", job.ID.String()),
				zap.Error(err),
			)
			continue
		}

		s.dispatchOne(ctx, job, &report)
	}

	if report.Picked > 0 {
		s.log.Info("dispatch pass finished",
			zap.Int("picked", report.Picked),
			zap.Int("sent", report.Sent),
			zap.Int("retried", report.Retried),
			zap.Int("failed", report.Failed),
			zap.Int("throttled", report.Throttled),
		)
	}
	return report, nil
}

func (s *Service) dispatchOne(ctx context.Context, job *domain.MessageJob, report *domain.DispatchReport) {
	now := s.clock.Now()
	job.Attempts++

	providerID, err := s.sender.SendText(ctx, job.Recipient, job.Body)
	if err != nil {
		job.LastError = err.Error()
		if job.Attempts >= job.MaxAttempts {
			job.Status = domain.StatusFailed
			report.Failed++
		} else {
			job.Status = domain.StatusQueued
			backoff := time.Duration(s.cfg.BackoffSeconds*job.Attempts) * time.Second
			job.NextAttemptAt = now.Add(backoff)
			report.Retried++
		}
	} else {
		job.Status = domain.StatusSent
		job.ProviderMessageID = providerID
		job.LastError = ""
		report.Sent++
	}

	job.UpdatedAt = now
	if updateErr := s.repo.Update(ctx, s.db, job); updateErr != nil {
		s.log.Error("failed to persist job state",
			zap.String("job_id", job.ID.String()),
			zap.Error(updateErr),
		)
	}
}

func parseKind(raw string) (string, error) {
	kind := strings.ToLower(strings.TrimSpace(raw))
	switch kind {
	case domain.KindFeeReminder, domain.KindBroadcast, domain.KindReceipt:
		return kind, nil
	default:
		return "", domain.ErrInvalidKind
	}
}
