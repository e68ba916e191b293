package shared

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditLog represents a record stored in audit_logs.
type AuditLog struct {
	ActorID string
	Action  string
	Entity  string
	Meta    map[string]any
	At      time.Time
}

// AuditLogger writes authentication events into audit_logs for operators.
type AuditLogger struct {
	pool *pgxpool.Pool
}

// NewAuditLogger returns a new AuditLogger.
func NewAuditLogger(pool *pgxpool.Pool) *AuditLogger {
	return &AuditLogger{pool: pool}
}

// Record inserts an audit entry. Callers treat failures as non-fatal.
func (a *AuditLogger) Record(ctx context.Context, entry AuditLog) error {
	if a == nil || a.pool == nil {
		return errors.New("audit logger not initialised")
	}
	if entry.At.IsZero() {
		entry.At = time.Now().UTC()
	}
	meta, err := json.Marshal(entry.Meta)
	if err != nil {
		return err
	}
	_, err = a.pool.Exec(ctx,
		`INSERT INTO audit_logs (actor_id, action, entity, meta, created_at) VALUES ($1, $2, $3, $4, $5)`,
		entry.ActorID, entry.Action, entry.Entity, meta, entry.At)
	return err
}
