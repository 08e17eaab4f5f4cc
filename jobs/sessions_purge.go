package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/gatekeep/gatekeep/internal/jobs"
)

// SessionsPurgeJob deletes session rows that have passed their expiry.
// Redis evicts its side through key TTLs; this keeps the relational
// audit trail from growing without bound.
type SessionsPurgeJob struct {
	pool    *pgxpool.Pool
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewSessionsPurgeJob constructs the job.
func NewSessionsPurgeJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *SessionsPurgeJob {
	return &SessionsPurgeJob{pool: pool, logger: logger, metrics: metrics}
}

// Handle processes TaskSessionsPurge tasks.
func (j *SessionsPurgeJob) Handle(ctx context.Context, _ *asynq.Task) error {
	tracker := j.metrics.Track("sessions_purge")
	tag, err := j.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < now()`)
	if err != nil {
		j.logger.Error("purge sessions", slog.Any("error", err))
		return tracker.End(err)
	}
	if tag.RowsAffected() > 0 {
		j.logger.Info("purged expired sessions", slog.Int64("count", tag.RowsAffected()))
	}
	return tracker.End(nil)
}
