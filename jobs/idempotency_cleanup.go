package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/stitchdesk/stitchdesk/internal/shared"
)

// IdempotencyCleaner prunes expired idempotency keys on a schedule.
type IdempotencyCleaner struct {
	store     *shared.IdempotencyStore
	retention time.Duration
	logger    *slog.Logger
}

// NewIdempotencyCleaner builds the cleaner.
func NewIdempotencyCleaner(store *shared.IdempotencyStore, retention time.Duration, logger *slog.Logger) *IdempotencyCleaner {
	if retention <= 0 {
		retention = 7 * 24 * time.Hour
	}
	return &IdempotencyCleaner{store: store, retention: retention, logger: logger}
}

// Handle adapts the cleaner to an Asynq task handler.
func (c *IdempotencyCleaner) Handle(ctx context.Context, _ *asynq.Task) error {
	if err := c.store.Cleanup(ctx, c.retention); err != nil {
		return err
	}
	c.logger.Info("idempotency keys pruned", slog.Duration("retention", c.retention))
	return nil
}
