package users

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gatekeep/gatekeep/internal/shared"
)

// Membership links an external identity to a role.
type Membership struct {
	UserID   string
	RoleID   int64
	RoleName string
}

// RepositoryPort defines persistence for user role memberships.
type RepositoryPort interface {
	ListMemberships(ctx context.Context) ([]Membership, error)
	AssignRole(ctx context.Context, userID string, roleID int64) error
	RemoveAll(ctx context.Context, userID string) error
	CountMembers(ctx context.Context) (int, error)
	ListMemberUserIDs(ctx context.Context) ([]string, error)
}

// Repository provides PostgreSQL backed membership persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListMemberships returns every membership joined with the role name.
func (r *Repository) ListMemberships(ctx context.Context) ([]Membership, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT ur.user_id, ur.role_id, ro.name
		FROM user_roles ur
		JOIN roles ro ON ro.id = ur.role_id
		ORDER BY ur.user_id, ur.role_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memberships []Membership
	for rows.Next() {
		var m Membership
		if err := rows.Scan(&m.UserID, &m.RoleID, &m.RoleName); err != nil {
			return nil, err
		}
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}

// AssignRole records a membership for an external identity.
func (r *Repository) AssignRole(ctx context.Context, userID string, roleID int64) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)`, userID, roleID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgerrcode.UniqueViolation:
				return shared.ErrAlreadyExists
			case pgerrcode.ForeignKeyViolation:
				return shared.ErrNotFound
			}
		}
		return err
	}
	return nil
}

// RemoveAll deletes every membership held by the given identity.
func (r *Repository) RemoveAll(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1`, userID)
	return err
}

// CountMembers returns the number of distinct identities with at least
// one role.
func (r *Repository) CountMembers(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT count(DISTINCT user_id) FROM user_roles`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// ListMemberUserIDs returns the distinct identity ids present in the
// membership table. The scan job uses it to find orphans.
func (r *Repository) ListMemberUserIDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT user_id FROM user_roles ORDER BY user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

var _ RepositoryPort = (*Repository)(nil)
