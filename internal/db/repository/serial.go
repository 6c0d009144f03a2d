package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"voucherd/internal/domain"
)

var _ domain.SerialRepository = (*SerialRepo)(nil)

// SerialRepo implements domain.SerialRepository using SQLite.
type SerialRepo struct {
	write *sql.DB
	read  *sql.DB
}

// NewSerialRepo creates a new SerialRepo.
func NewSerialRepo(writeDB, readDB *sql.DB) *SerialRepo {
	return &SerialRepo{write: writeDB, read: readDB}
}

func (r *SerialRepo) Bind(ctx context.Context, b *domain.SerialBinding) error {
	_, err := r.write.ExecContext(ctx,
		`INSERT INTO serial_bindings (serial, group_id, created_by, created_at)
		 VALUES (?, ?, ?, ?)`,
		b.Serial, b.GroupID, b.CreatedBy, time.Now().UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict("serial %q is already bound to group %s", b.Serial, b.GroupID)
		}
		return fmt.Errorf("insert serial binding: %w", err)
	}
	return nil
}

func (r *SerialRepo) Unbind(ctx context.Context, serial, groupID string) error {
	res, err := r.write.ExecContext(ctx,
		`DELETE FROM serial_bindings WHERE serial = ? AND group_id = ?`, serial, groupID)
	if err != nil {
		return fmt.Errorf("delete serial binding: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound("serial %q is not bound to group %s", serial, groupID)
	}
	return nil
}

func (r *SerialRepo) GroupIDsForSerial(ctx context.Context, serial string) ([]string, error) {
	return r.queryIDs(ctx,
		`SELECT group_id FROM serial_bindings WHERE serial = ? ORDER BY created_at, group_id`, serial)
}

func (r *SerialRepo) SerialsForGroup(ctx context.Context, groupID string) ([]string, error) {
	return r.queryIDs(ctx,
		`SELECT serial FROM serial_bindings WHERE group_id = ? ORDER BY created_at, serial`, groupID)
}

func (r *SerialRepo) queryIDs(ctx context.Context, query string, arg interface{}) ([]string, error) {
	rows, err := r.read.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query serial bindings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
