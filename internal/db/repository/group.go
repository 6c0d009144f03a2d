package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"voucherd/internal/domain"
)

// GroupRepo implements domain.GroupRepository using SQLite. Writes go
// through the single-connection write pool, reads through the read pool.
type GroupRepo struct {
	write *sql.DB
	read  *sql.DB
}

// NewGroupRepo creates a new GroupRepo.
func NewGroupRepo(writeDB, readDB *sql.DB) *GroupRepo {
	return &GroupRepo{write: writeDB, read: readDB}
}

var _ domain.GroupRepository = (*GroupRepo)(nil)

// Create inserts a group. An empty ID is replaced with a generated one;
// organization roots are created with their ID fixed to the org ID.
func (r *GroupRepo) Create(ctx context.Context, g *domain.Group) (*domain.Group, error) {
	created := *g
	if created.ID == "" {
		created.ID = domain.NewID()
	}
	created.CreatedAt = time.Now().UTC()

	_, err := r.write.ExecContext(ctx,
		`INSERT INTO groups (id, org_id, parent_id, description, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		created.ID, created.OrgID, created.ParentID, created.Description, created.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrConflict("group %s already exists", created.ID)
		}
		return nil, fmt.Errorf("insert group: %w", err)
	}
	return &created, nil
}

func (r *GroupRepo) GetByID(ctx context.Context, id string) (*domain.Group, error) {
	var g domain.Group
	var parentID sql.NullString
	err := r.read.QueryRowContext(ctx,
		`SELECT id, org_id, parent_id, description, created_at FROM groups WHERE id = ?`,
		id).Scan(&g.ID, &g.OrgID, &parentID, &g.Description, &g.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound("group %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get group: %w", err)
	}
	g.ParentID = optStr(parentID)
	return &g, nil
}

func (r *GroupRepo) ChildIDs(ctx context.Context, id string) ([]string, error) {
	rows, err := r.read.QueryContext(ctx,
		`SELECT id FROM groups WHERE parent_id = ? ORDER BY created_at, id`, id)
	if err != nil {
		return nil, fmt.Errorf("query child groups: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var childID string
		if err := rows.Scan(&childID); err != nil {
			return nil, err
		}
		ids = append(ids, childID)
	}
	return ids, rows.Err()
}

// DeleteEmpty removes a group after verifying, inside the same transaction,
// that nothing is attached to it. Role grants on the group are removed by
// the schema's cascade; they never block deletion.
func (r *GroupRepo) DeleteEmpty(ctx context.Context, id string) error {
	tx, err := r.write.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete group: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var children, certs, serials int
	err = tx.QueryRowContext(ctx,
		`SELECT
		   (SELECT count(*) FROM groups WHERE parent_id = ?),
		   (SELECT count(*) FROM domain_certs WHERE group_id = ?),
		   (SELECT count(*) FROM serial_bindings WHERE group_id = ?)`,
		id, id, id).Scan(&children, &certs, &serials)
	if err != nil {
		return fmt.Errorf("count group attachments: %w", err)
	}
	if children > 0 || certs > 0 || serials > 0 {
		return domain.ErrPrecondition(
			"group %s still has %d child groups, %d certs and %d serial bindings",
			id, children, certs, serials)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM groups WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound("group %s not found", id)
	}
	return tx.Commit()
}
