package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shulebooks/shulebooks/internal/messaging/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, job *domain.MessageJob) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO message_jobs (
			id, branch_id, student_id, batch_id, recipient, body, kind, status,
			attempts, max_attempts, next_attempt_at, dedupe_key,
			provider_message_id, last_error, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID,
		job.BranchID,
		job.StudentID,
		job.BatchID,
		job.Recipient,
		job.Body,
		job.Kind,
		job.Status,
		job.Attempts,
		job.MaxAttempts,
		job.NextAttemptAt,
		job.DedupeKey,
		job.ProviderMessageID,
		job.LastError,
		job.CreatedAt,
		job.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, job *domain.MessageJob) error {
	return db.WithContext(ctx).Exec(
		`UPDATE message_jobs SET
			status = ?, attempts = ?, next_attempt_at = ?,
			provider_message_id = ?, last_error = ?, updated_at = ?
		 WHERE id = ?`,
		job.Status,
		job.Attempts,
		job.NextAttemptAt,
		job.ProviderMessageID,
		job.LastError,
		job.UpdatedAt,
		job.ID,
	).Error
}

func (r *repo) FindByDedupeKey(ctx context.Context, db *gorm.DB, branchID snowflake.ID, key string) (*domain.MessageJob, error) {
	var job domain.MessageJob
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM message_jobs WHERE branch_id = ? AND dedupe_key = ?`,
		branchID,
		key,
	).Scan(&job).Error
	if err != nil {
		return nil, err
	}
	if job.ID == 0 {
		return nil, nil
	}
	return &job, nil
}

func (r *repo) FindByProviderMessageID(ctx context.Context, db *gorm.DB, providerMessageID string) (*domain.MessageJob, error) {
	var job domain.MessageJob
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM message_jobs WHERE provider_message_id = ?`,
		providerMessageID,
	).Scan(&job).Error
	if err != nil {
		return nil, err
	}
	if job.ID == 0 {
		return nil, nil
	}
	return &job, nil
}

func (r *repo) ListDue(ctx context.Context, db *gorm.DB, now time.Time, limit int) ([]*domain.MessageJob, error) {
	var jobs []*domain.MessageJob
	err := db.WithContext(ctx).
		Model(&domain.MessageJob{}).
		Where("status = ? AND next_attempt_at <= ?", domain.StatusQueued, now).
		Order("next_attempt_at").
		Limit(limit).
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *repo) ListByBatch(ctx context.Context, db *gorm.DB, branchID, batchID snowflake.ID) ([]*domain.MessageJob, error) {
	var jobs []*domain.MessageJob
	err := db.WithContext(ctx).
		Model(&domain.MessageJob{}).
		Where("branch_id = ? AND batch_id = ?", branchID, batchID).
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}
