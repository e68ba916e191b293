package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

const defaultAuditRetentionDays = 90

// Pruner deletes stale auth records.
type Pruner interface {
	PruneExpiredSessions(ctx context.Context, now time.Time) (int64, error)
	PruneAuditLogs(ctx context.Context, olderThan time.Time) (int64, error)
}

// SessionPruneJob removes expired session audit rows and old audit log
// entries. The live session store expires on its own via Redis TTLs; this
// job keeps the postgres mirror from growing without bound.
type SessionPruneJob struct {
	pruner Pruner
	logger *slog.Logger
}

// NewSessionPruneJob constructs the job.
func NewSessionPruneJob(pruner Pruner, logger *slog.Logger) *SessionPruneJob {
	return &SessionPruneJob{pruner: pruner, logger: logger}
}

// Handle processes TaskSessionPrune tasks.
func (j *SessionPruneJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload SessionPrunePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	retention := payload.AuditRetentionDays
	if retention <= 0 {
		retention = defaultAuditRetentionDays
	}

	now := time.Now().UTC()
	sessions, err := j.pruner.PruneExpiredSessions(ctx, now)
	if err != nil {
		return err
	}
	audits, err := j.pruner.PruneAuditLogs(ctx, now.AddDate(0, 0, -retention))
	if err != nil {
		return err
	}
	if j.logger != nil {
		j.logger.Info("pruned auth records",
			slog.Int64("sessions", sessions),
			slog.Int64("audit_logs", audits))
	}
	return nil
}
