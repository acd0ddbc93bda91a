package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, job *MessageJob) error
	Update(ctx context.Context, db *gorm.DB, job *MessageJob) error
	FindByDedupeKey(ctx context.Context, db *gorm.DB, branchID snowflake.ID, key string) (*MessageJob, error)
	FindByProviderMessageID(ctx context.Context, db *gorm.DB, providerMessageID string) (*MessageJob, error)
	ListDue(ctx context.Context, db *gorm.DB, now time.Time, limit int) ([]*MessageJob, error)
	ListByBatch(ctx context.Context, db *gorm.DB, branchID, batchID snowflake.ID) ([]*MessageJob, error)
}
