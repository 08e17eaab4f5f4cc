package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/gatekeep/gatekeep/internal/identity"
	"github.com/gatekeep/gatekeep/internal/shared"
)

// ErrRoleAssignment indicates the identity was provisioned at the
// provider but the role membership could not be recorded.
var ErrRoleAssignment = errors.New("role assignment failed")

// Service merges provider-owned identities with local role memberships.
type Service struct {
	logger   *slog.Logger
	provider identity.Provider
	repo     RepositoryPort
}

// NewService builds a Service instance.
func NewService(logger *slog.Logger, provider identity.Provider, repo RepositoryPort) *Service {
	return &Service{logger: logger, provider: provider, repo: repo}
}

// CreateParams describes a new directory user.
type CreateParams struct {
	Email     string
	FirstName string
	LastName  string
	RoleID    int64
}

// List fetches identities and memberships concurrently, then performs a
// left join in memory. Identities without a membership keep a nil Role;
// memberships pointing at identities the provider no longer knows are
// ignored here and left for the scan job.
func (s *Service) List(ctx context.Context) ([]User, error) {
	var (
		identities  []identity.User
		memberships []Membership
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		identities, err = s.provider.ListUsers(gCtx)
		return err
	})
	g.Go(func() error {
		var err error
		memberships, err = s.repo.ListMemberships(gCtx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	roleByUser := make(map[string]RoleRef, len(memberships))
	for _, m := range memberships {
		// First membership wins when an identity somehow holds several.
		if _, ok := roleByUser[m.UserID]; !ok {
			roleByUser[m.UserID] = RoleRef{ID: m.RoleID, Name: m.RoleName}
		}
	}

	merged := make([]User, 0, len(identities))
	for _, ident := range identities {
		u := User{
			ID:        ident.ID,
			Email:     ident.Email,
			FirstName: ident.UserMetadata.FirstName,
			LastName:  ident.UserMetadata.LastName,
			CreatedAt: ident.CreatedAt,
		}
		if ref, ok := roleByUser[ident.ID]; ok {
			role := ref
			u.Role = &role
		}
		merged = append(merged, u)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})
	return merged, nil
}

// Create provisions the identity through the provider and then records
// the role membership. Input is validated before any network call. The
// provider write is not compensated if the membership insert fails; the
// identity simply shows up without a role.
func (s *Service) Create(ctx context.Context, params CreateParams) (User, error) {
	params.Email = strings.TrimSpace(params.Email)
	params.FirstName = strings.TrimSpace(params.FirstName)
	params.LastName = strings.TrimSpace(params.LastName)
	if params.Email == "" {
		return User{}, fmt.Errorf("users: email required: %w", shared.ErrValidation)
	}
	if params.RoleID <= 0 {
		return User{}, fmt.Errorf("users: role required: %w", shared.ErrValidation)
	}

	ident, err := s.provider.CreateUser(ctx, identity.CreateUserParams{
		Email:        params.Email,
		EmailConfirm: true,
		UserMetadata: identity.Metadata{FirstName: params.FirstName, LastName: params.LastName},
	})
	if err != nil {
		return User{}, err
	}

	u := User{
		ID:        ident.ID,
		Email:     ident.Email,
		FirstName: ident.UserMetadata.FirstName,
		LastName:  ident.UserMetadata.LastName,
		CreatedAt: ident.CreatedAt,
	}
	if err := s.repo.AssignRole(ctx, ident.ID, params.RoleID); err != nil {
		s.logger.Error("assign role after identity create",
			slog.Any("error", err),
			slog.String("user_id", ident.ID),
			slog.Int64("role_id", params.RoleID))
		return u, fmt.Errorf("users: identity created but role assignment failed: %w: %w", ErrRoleAssignment, err)
	}
	u.Role = &RoleRef{ID: params.RoleID}
	return u, nil
}

// Count returns how many identities the provider currently holds.
func (s *Service) Count(ctx context.Context) (int, error) {
	identities, err := s.provider.ListUsers(ctx)
	if err != nil {
		return 0, err
	}
	return len(identities), nil
}
