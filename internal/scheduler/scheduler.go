// Package scheduler runs the background loop: a daily reminder scan that
// turns overdue balances into queued guardian messages, and a dispatch pass
// that drains the message queue every interval.
package scheduler

import (
	"context"
	"time"

	"github.com/shulebooks/shulebooks/internal/clock"
	"github.com/shulebooks/shulebooks/internal/config"
	messagingdomain "github.com/shulebooks/shulebooks/internal/messaging/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Clock     clock.Clock
	Config    config.Config
	Messaging messagingdomain.Service
}

type Scheduler struct {
	db        *gorm.DB
	log       *zap.Logger
	clock     clock.Clock
	cfg       config.Config
	messaging messagingdomain.Service

	lastScanDay string
	stop        chan struct{}
}

func New(p Params) *Scheduler {
	return &Scheduler{
		db:        p.DB,
		log:       p.Log.Named("scheduler"),
		clock:     p.Clock,
		cfg:       p.Config,
		messaging: p.Messaging,
		stop:      make(chan struct{}),
	}
}

var Module = fx.Module("scheduler",
	fx.Provide(New),
	fx.Invoke(registerHooks),
)

func registerHooks(lc fx.Lifecycle, s *Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go s.run()
			return nil
		},
		OnStop: func(context.Context) error {
			close(s.stop)
			return nil
		},
	})
}

func (s *Scheduler) run() {
	interval := time.Duration(s.cfg.Scheduler.RunIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.Tick(context.Background())
		}
	}
}

// Tick performs one scheduler pass: the daily reminder scan when due, then a
// dispatch pass over the message queue.
func (s *Scheduler) Tick(ctx context.Context) {
	now := s.clock.Now()

	day := now.Format("2006-01-02")
	if now.Hour() >= s.cfg.Scheduler.ReminderScanHourUTC && s.lastScanDay != day {
		report, err := s.RunReminderScan(ctx)
		if err != nil {
			s.log.Error("reminder scan failed", zap.Error(err))
		} else {
			s.lastScanDay = day
			s.log.Info("reminder scan finished",
				zap.Int("students", report.StudentsScanned),
				zap.Int("enqueued", report.Enqueued),
				zap.Int("skipped", report.Skipped),
			)
		}
	}

	timeout := time.Duration(s.cfg.Scheduler.DispatchTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	dispatchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if _, err := s.messaging.DispatchDue(dispatchCtx); err != nil {
		s.log.Error("dispatch pass failed", zap.Error(err))
	}
}
