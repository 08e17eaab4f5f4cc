package app

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Counter reports how many records a feature currently holds.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// OverviewService aggregates the dashboard counters.
type OverviewService struct {
	users       Counter
	roles       Counter
	permissions Counter
}

// NewOverviewService builds the overview aggregator.
func NewOverviewService(users, roles, permissions Counter) *OverviewService {
	return &OverviewService{users: users, roles: roles, permissions: permissions}
}

// Overview fetches the three counts concurrently. The user count goes
// through the identity provider, so it dominates the latency.
func (s *OverviewService) Overview(ctx context.Context) (Stats, error) {
	var stats Stats
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.users.Count(gCtx)
		stats.Users = n
		return err
	})
	g.Go(func() error {
		n, err := s.roles.Count(gCtx)
		stats.Roles = n
		return err
	})
	g.Go(func() error {
		n, err := s.permissions.Count(gCtx)
		stats.Permissions = n
		return err
	})
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}
	return stats, nil
}

var _ StatsProvider = (*OverviewService)(nil)
