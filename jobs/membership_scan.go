package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/gatekeep/gatekeep/internal/identity"
	jobmetrics "github.com/gatekeep/gatekeep/internal/jobs"
)

// MembershipStore is the slice of the membership repository the scan
// job needs.
type MembershipStore interface {
	ListMemberUserIDs(ctx context.Context) ([]string, error)
	RemoveAll(ctx context.Context, userID string) error
}

// MembershipScanJob reconciles the membership table against the auth
// provider. user_roles has no foreign key to identities, so rows can
// outlive their user; this job removes them.
type MembershipScanJob struct {
	provider identity.Provider
	store    MembershipStore
	logger   *slog.Logger
	metrics  *jobmetrics.Metrics
}

// NewMembershipScanJob constructs the job.
func NewMembershipScanJob(provider identity.Provider, store MembershipStore, logger *slog.Logger, metrics *jobmetrics.Metrics) *MembershipScanJob {
	return &MembershipScanJob{provider: provider, store: store, logger: logger, metrics: metrics}
}

// Handle processes TaskMembershipScan tasks. Provider failures abort
// the run without touching any row: an unreachable provider must never
// look like a deleted user.
func (j *MembershipScanJob) Handle(ctx context.Context, _ *asynq.Task) error {
	tracker := j.metrics.Track("membership_scan")

	identities, err := j.provider.ListUsers(ctx)
	if err != nil {
		j.logger.Error("membership scan: list identities", slog.Any("error", err))
		return tracker.End(err)
	}
	known := make(map[string]struct{}, len(identities))
	for _, ident := range identities {
		known[ident.ID] = struct{}{}
	}

	memberIDs, err := j.store.ListMemberUserIDs(ctx)
	if err != nil {
		j.logger.Error("membership scan: list members", slog.Any("error", err))
		return tracker.End(err)
	}

	removed := 0
	for _, id := range memberIDs {
		if _, ok := known[id]; ok {
			continue
		}
		if err := j.store.RemoveAll(ctx, id); err != nil {
			j.logger.Error("membership scan: remove orphan", slog.Any("error", err), slog.String("user_id", id))
			return tracker.End(err)
		}
		removed++
	}
	if removed > 0 {
		j.metrics.AddOrphans(removed)
		j.logger.Info("membership scan removed orphans", slog.Int("count", removed))
	}
	return tracker.End(nil)
}
