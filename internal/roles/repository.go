package roles

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gatekeep/gatekeep/internal/platform/db"
	"github.com/gatekeep/gatekeep/internal/shared"
)

// Repository defines read access and transaction entry for roles.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	List(ctx context.Context) ([]Role, error)
	GetWithPermissions(ctx context.Context, id int64) (Role, error)
	Count(ctx context.Context) (int, error)
}

// TxRepository exposes the write operations available inside a transaction.
type TxRepository interface {
	InsertRole(ctx context.Context, name, description string) (int64, error)
	UpdateRole(ctx context.Context, id int64, name, description string) error
	DeleteRole(ctx context.Context, id int64) error
	DeleteRolePermissions(ctx context.Context, roleID int64) error
	DeleteRoleMemberships(ctx context.Context, roleID int64) error
	InsertRolePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error
	GetWithPermissions(ctx context.Context, id int64) (Role, error)
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// WithTx runs fn inside a RepeatableRead transaction.
func (r *PGRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

// List returns all roles with their permission sets flattened. The raw
// joined shape never leaves this package.
func (r *PGRepository) List(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, description, created_at, updated_at FROM roles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []Role
	index := make(map[int64]int)
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		role.Permissions = []Permission{}
		index[role.ID] = len(roles)
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	permRows, err := r.pool.Query(ctx, `
		SELECT rp.role_id, p.id, p.name, p.description
		FROM role_permissions rp
		JOIN permissions p ON p.id = rp.permission_id
		ORDER BY rp.role_id, p.id`)
	if err != nil {
		return nil, err
	}
	defer permRows.Close()

	for permRows.Next() {
		var roleID int64
		var perm Permission
		if err := permRows.Scan(&roleID, &perm.ID, &perm.Name, &perm.Description); err != nil {
			return nil, err
		}
		if i, ok := index[roleID]; ok {
			roles[i].Permissions = append(roles[i].Permissions, perm)
		}
	}
	if err := permRows.Err(); err != nil {
		return nil, err
	}
	return roles, nil
}

// GetWithPermissions fetches one role with its flattened permission set.
func (r *PGRepository) GetWithPermissions(ctx context.Context, id int64) (Role, error) {
	return getWithPermissions(ctx, r.pool, id)
}

// Count returns the number of roles.
func (r *PGRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM roles`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

type txRepo struct {
	tx pgx.Tx
}

func (t *txRepo) InsertRole(ctx context.Context, name, description string) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO roles (name, description) VALUES ($1, $2) RETURNING id`, name, description).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (t *txRepo) UpdateRole(ctx context.Context, id int64, name, description string) error {
	tag, err := t.tx.Exec(ctx, `UPDATE roles SET name = $2, description = $3, updated_at = now() WHERE id = $1`, id, name, description)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (t *txRepo) DeleteRole(ctx context.Context, id int64) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (t *txRepo) DeleteRolePermissions(ctx context.Context, roleID int64) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID)
	return err
}

func (t *txRepo) DeleteRoleMemberships(ctx context.Context, roleID int64) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM user_roles WHERE role_id = $1`, roleID)
	return err
}

func (t *txRepo) InsertRolePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error {
	if len(permissionIDs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, pid := range permissionIDs {
		batch.Queue(`INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2)`, roleID, pid)
	}
	results := t.tx.SendBatch(ctx, batch)
	defer func() {
		_ = results.Close()
	}()
	for range permissionIDs {
		if _, err := results.Exec(); err != nil {
			return mapJunctionError(err)
		}
	}
	return nil
}

// mapJunctionError translates constraint failures on role_permissions
// into the shared sentinels the handlers know how to present.
func mapJunctionError(err error) error {
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

func (t *txRepo) GetWithPermissions(ctx context.Context, id int64) (Role, error) {
	return getWithPermissions(ctx, t.tx, id)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getWithPermissions(ctx context.Context, q querier, id int64) (Role, error) {
	var role Role
	err := q.QueryRow(ctx, `SELECT id, name, description, created_at, updated_at FROM roles WHERE id = $1`, id).
		Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, shared.ErrNotFound
		}
		return Role{}, err
	}
	role.Permissions = []Permission{}

	rows, err := q.Query(ctx, `
		SELECT p.id, p.name, p.description
		FROM role_permissions rp
		JOIN permissions p ON p.id = rp.permission_id
		WHERE rp.role_id = $1
		ORDER BY p.id`, id)
	if err != nil {
		return Role{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var perm Permission
		if err := rows.Scan(&perm.ID, &perm.Name, &perm.Description); err != nil {
			return Role{}, err
		}
		role.Permissions = append(role.Permissions, perm)
	}
	if err := rows.Err(); err != nil {
		return Role{}, err
	}
	return role, nil
}

var _ Repository = (*PGRepository)(nil)
var _ TxRepository = (*txRepo)(nil)
