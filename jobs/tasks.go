package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSessionPrune is the task type for pruning expired session and
	// audit records from postgres.
	TaskSessionPrune = "auth:prune_sessions"
)

// SessionPrunePayload describes the retention window for maintenance runs.
type SessionPrunePayload struct {
	AuditRetentionDays int `json:"audit_retention_days"`
}

// NewSessionPruneTask constructs an Asynq task.
func NewSessionPruneTask(payload SessionPrunePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSessionPrune, data), nil
}
