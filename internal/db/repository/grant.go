package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"voucherd/internal/domain"
)

var _ domain.UserRoleRepository = (*UserRoleRepo)(nil)

// UserRoleRepo implements domain.UserRoleRepository using SQLite.
type UserRoleRepo struct {
	write *sql.DB
	read  *sql.DB
}

// NewUserRoleRepo creates a new UserRoleRepo.
func NewUserRoleRepo(writeDB, readDB *sql.DB) *UserRoleRepo {
	return &UserRoleRepo{write: writeDB, read: readDB}
}

// AddGrant records a role grant, creating the user identity on first
// contact. The identity check, the duplicate check and the insert run in a
// single transaction on the write pool.
func (r *UserRoleRepo) AddGrant(ctx context.Context, identity domain.UserIdentity, grant domain.RoleGrant) error {
	tx, err := r.write.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin add grant: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()

	var existing domain.UserIdentity
	err = tx.QueryRowContext(ctx,
		`SELECT username, account_type, org_id FROM users WHERE username = ?`,
		identity.Username).Scan(&existing.Username, &existing.AccountType, &existing.OrgID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx,
			`INSERT INTO users (username, account_type, org_id, created_at) VALUES (?, ?, ?, ?)`,
			identity.Username, identity.AccountType, identity.OrgID, now)
		if err != nil {
			return fmt.Errorf("insert user: %w", err)
		}
	case err != nil:
		return fmt.Errorf("get user: %w", err)
	default:
		if existing.AccountType != identity.AccountType || existing.OrgID != identity.OrgID {
			return domain.ErrPrecondition(
				"user %q is already registered with account type %q in organization %s",
				existing.Username, existing.AccountType, existing.OrgID)
		}
	}

	var heldRole string
	err = tx.QueryRowContext(ctx,
		`SELECT role FROM role_grants WHERE username = ? AND group_id = ?`,
		grant.Username, grant.GroupID).Scan(&heldRole)
	switch {
	case err == nil:
		return domain.ErrConflict("user %q already holds %s on group %s",
			grant.Username, heldRole, grant.GroupID)
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("get existing grant: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO role_grants (username, org_id, group_id, role, granted_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		grant.Username, grant.OrgID, grant.GroupID, string(grant.Role), grant.GrantedBy, now)
	if err != nil {
		return mapDBError(err)
	}
	return tx.Commit()
}

func (r *UserRoleRepo) RemoveGrant(ctx context.Context, username, groupID string) error {
	res, err := r.write.ExecContext(ctx,
		`DELETE FROM role_grants WHERE username = ? AND group_id = ?`, username, groupID)
	if err != nil {
		return fmt.Errorf("delete grant: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound("user %q holds no role on group %s", username, groupID)
	}
	return nil
}

func (r *UserRoleRepo) GetGrant(ctx context.Context, username, groupID string) (*domain.RoleGrant, error) {
	g, err := scanGrant(r.read.QueryRowContext(ctx,
		`SELECT username, org_id, group_id, role, granted_by, created_at
		 FROM role_grants WHERE username = ? AND group_id = ?`, username, groupID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound("user %q holds no role on group %s", username, groupID)
	}
	if err != nil {
		return nil, fmt.Errorf("get grant: %w", err)
	}
	return g, nil
}

func (r *UserRoleRepo) GrantsForUser(ctx context.Context, username string) ([]domain.RoleGrant, error) {
	return r.queryGrants(ctx,
		`SELECT username, org_id, group_id, role, granted_by, created_at
		 FROM role_grants WHERE username = ? ORDER BY created_at, group_id`, username)
}

func (r *UserRoleRepo) GrantsForGroup(ctx context.Context, groupID string) ([]domain.RoleGrant, error) {
	return r.queryGrants(ctx,
		`SELECT username, org_id, group_id, role, granted_by, created_at
		 FROM role_grants WHERE group_id = ? ORDER BY created_at, username`, groupID)
}

func (r *UserRoleRepo) GetUser(ctx context.Context, username string) (*domain.UserIdentity, error) {
	var u domain.UserIdentity
	err := r.read.QueryRowContext(ctx,
		`SELECT username, account_type, org_id, created_at FROM users WHERE username = ?`,
		username).Scan(&u.Username, &u.AccountType, &u.OrgID, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound("user %q not found", username)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (r *UserRoleRepo) queryGrants(ctx context.Context, query string, arg interface{}) ([]domain.RoleGrant, error) {
	rows, err := r.read.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query grants: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var grants []domain.RoleGrant
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		grants = append(grants, *g)
	}
	return grants, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanGrant(row rowScanner) (*domain.RoleGrant, error) {
	var g domain.RoleGrant
	var role string
	var grantedBy sql.NullString
	if err := row.Scan(&g.Username, &g.OrgID, &g.GroupID, &role, &grantedBy, &g.CreatedAt); err != nil {
		return nil, err
	}
	g.Role = domain.Role(role)
	g.GrantedBy = optStr(grantedBy)
	return &g, nil
}
