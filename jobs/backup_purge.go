package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/saral-erp/saral-erp/internal/backup"
)

// NewBackupPurgeHandler returns the handler that prunes the backup catalog.
// Backups older than the retention window are gone for good, so the window is
// configuration, never payload.
func NewBackupPurgeHandler(catalog *backup.Catalog, retention time.Duration, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		cutoff := time.Now().UTC().Add(-retention)
		removed, err := catalog.Purge(ctx, cutoff)
		if err != nil {
			logger.Error("backup purge failed", slog.Any("error", err))
			return err
		}
		if removed > 0 {
			logger.Info("backup purge complete",
				slog.Int64("removed", removed),
				slog.Time("cutoff", cutoff))
		}
		return nil
	}
}
