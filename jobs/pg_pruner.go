package jobs

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGPruner implements Pruner against PostgreSQL.
type PGPruner struct {
	pool *pgxpool.Pool
}

// NewPGPruner constructs the pruner.
func NewPGPruner(pool *pgxpool.Pool) *PGPruner {
	return &PGPruner{pool: pool}
}

// PruneExpiredSessions deletes session audit rows past their expiry.
func (p *PGPruner) PruneExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM auth_sessions WHERE expires_at < $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// PruneAuditLogs deletes audit entries older than the retention cutoff.
func (p *PGPruner) PruneAuditLogs(ctx context.Context, olderThan time.Time) (int64, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM audit_logs WHERE created_at < $1`, olderThan)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

var _ Pruner = (*PGPruner)(nil)
