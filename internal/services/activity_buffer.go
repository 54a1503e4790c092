package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/teamtasks/internal/infrastructure/buffer"
	"github.com/fastygo/teamtasks/repository"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// ReplayConfig controls how often the buffer is drained and pruned.
type ReplayConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	Retention  time.Duration
}

// ActivityReplayer moves buffered activity entries back into primary storage on a
// cron schedule.
type ActivityReplayer struct {
	store   *buffer.Store
	monitor ConnectionHealth
	target  repository.ActivityRepository
	logger  *zap.Logger
	cron    *cron.Cron
	cfg     ReplayConfig
}

// NewActivityReplayer schedules drains every cfg.Interval and an hourly retention sweep.
// target must be the unguarded repository so failed replays are not buffered again.
func NewActivityReplayer(
	store *buffer.Store,
	monitor ConnectionHealth,
	target repository.ActivityRepository,
	logger *zap.Logger,
	cfg ReplayConfig,
) (*ActivityReplayer, error) {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &ActivityReplayer{
		store:   store,
		monitor: monitor,
		target:  target,
		logger:  logger,
		cfg:     cfg,
		cron:    cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	if _, err := r.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if _, err := r.Drain(ctx); err != nil {
			r.logger.Error("activity buffer drain failed", zap.Error(err))
		}
	}); err != nil {
		return nil, err
	}

	if cfg.Retention > 0 {
		if _, err := r.cron.AddFunc("@hourly", func() {
			removed, err := r.store.Cleanup(time.Now().Add(-cfg.Retention))
			if err != nil {
				r.logger.Error("activity buffer cleanup failed", zap.Error(err))
				return
			}
			if removed > 0 {
				r.logger.Warn("expired buffered activity dropped", zap.Int("items", removed))
			}
		}); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Start launches the cron scheduler.
func (r *ActivityReplayer) Start() {
	if r == nil || r.cron == nil {
		return
	}
	r.cron.Start()
	r.logger.Info("activity replayer started")
}

// Stop gracefully stops the scheduler.
func (r *ActivityReplayer) Stop(ctx context.Context) error {
	if r == nil || r.cron == nil {
		return nil
	}
	stopCtx := r.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	r.logger.Info("activity replayer stopped")
	return nil
}

// Drain replays one batch in enqueue order and returns how many items were applied.
// It stops at the first failure so later entries never overtake earlier ones.
func (r *ActivityReplayer) Drain(ctx context.Context) (int, error) {
	if r == nil || r.store == nil {
		return 0, nil
	}
	if r.monitor != nil && !r.monitor.IsOnline() {
		r.logger.Debug("skipping activity drain (offline)")
		return 0, nil
	}

	items, err := r.store.GetBatch(r.cfg.BatchSize)
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, item := range items {
		if err := r.target.Append(ctx, item.UserID, item.Entries); err != nil {
			r.logger.Error("failed to replay activity",
				zap.String("item_id", item.ID),
				zap.String("user_id", item.UserID),
				zap.Error(err))

			item.Retries++
			if item.Retries >= r.cfg.MaxRetries {
				r.logger.Warn("dropping buffered activity (max retries reached)", zap.String("item_id", item.ID))
				if err := r.store.Remove(item); err != nil {
					r.logger.Warn("failed to remove buffer item", zap.Error(err))
				}
				continue
			}
			if err := r.store.Update(item); err != nil {
				r.logger.Error("failed to record retry", zap.Error(err))
			}
			return applied, nil
		}

		if err := r.store.Remove(item); err != nil {
			r.logger.Warn("failed to purge replayed buffer item", zap.Error(err))
		}
		applied++
	}
	return applied, nil
}

// Size returns the number of buffered items.
func (r *ActivityReplayer) Size() int {
	if r == nil || r.store == nil {
		return 0
	}
	size, err := r.store.Size()
	if err != nil {
		return 0
	}
	return size
}
