package roles

import (
	"context"
	"fmt"
	"strings"

	"github.com/gatekeep/gatekeep/internal/shared"
)

// Service coordinates role writes so that the role row and its
// permission set always change in the same transaction.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]Role, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (Role, error) {
	return s.repo.GetWithPermissions(ctx, id)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// Create inserts the role and its permission grants atomically and
// returns the stored role with its flattened permission set.
func (s *Service) Create(ctx context.Context, name, description string, permissionIDs []int64) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, fmt.Errorf("roles: name required: %w", shared.ErrValidation)
	}
	var created Role
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.InsertRole(ctx, name, strings.TrimSpace(description))
		if err != nil {
			return err
		}
		if err := tx.InsertRolePermissions(ctx, id, dedupe(permissionIDs)); err != nil {
			return err
		}
		created, err = tx.GetWithPermissions(ctx, id)
		return err
	})
	if err != nil {
		return Role{}, err
	}
	return created, nil
}

// Update changes the role row and, when permissionIDs is non-nil,
// replaces the entire grant set. A nil slice leaves the grants alone;
// a non-nil empty slice clears them.
func (s *Service) Update(ctx context.Context, id int64, name, description string, permissionIDs *[]int64) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, fmt.Errorf("roles: name required: %w", shared.ErrValidation)
	}
	var updated Role
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.UpdateRole(ctx, id, name, strings.TrimSpace(description)); err != nil {
			return err
		}
		if permissionIDs != nil {
			if err := tx.DeleteRolePermissions(ctx, id); err != nil {
				return err
			}
			if err := tx.InsertRolePermissions(ctx, id, dedupe(*permissionIDs)); err != nil {
				return err
			}
		}
		var err error
		updated, err = tx.GetWithPermissions(ctx, id)
		return err
	})
	if err != nil {
		return Role{}, err
	}
	return updated, nil
}

// Delete removes the role together with its grants and memberships.
// Junction rows go first so the role row delete cannot trip a
// foreign key.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.DeleteRolePermissions(ctx, id); err != nil {
			return err
		}
		if err := tx.DeleteRoleMemberships(ctx, id); err != nil {
			return err
		}
		return tx.DeleteRole(ctx, id)
	})
}

func dedupe(ids []int64) []int64 {
	if len(ids) < 2 {
		return ids
	}
	seen := make(map[int64]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
