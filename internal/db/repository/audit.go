package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"voucherd/internal/domain"
)

var _ domain.AuditRepository = (*AuditRepo)(nil)

// AuditRepo implements domain.AuditRepository using SQLite.
type AuditRepo struct {
	write *sql.DB
	read  *sql.DB
}

// NewAuditRepo creates a new AuditRepo.
func NewAuditRepo(writeDB, readDB *sql.DB) *AuditRepo {
	return &AuditRepo{write: writeDB, read: readDB}
}

func (r *AuditRepo) Insert(ctx context.Context, e *domain.AuditEntry) error {
	if e.ID == "" {
		e.ID = domain.NewID()
	}
	e.CreatedAt = time.Now().UTC()

	_, err := r.write.ExecContext(ctx,
		`INSERT INTO audit_log (id, org_id, caller, action, target, status, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.OrgID, e.Caller, e.Action, e.Target, e.Status, e.Detail, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (r *AuditRepo) List(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditEntry, int64, error) {
	where := " WHERE 1=1"
	var args []interface{}
	if filter.OrgID != nil {
		where += " AND org_id = ?"
		args = append(args, *filter.OrgID)
	}
	if filter.Caller != nil {
		where += " AND caller = ?"
		args = append(args, *filter.Caller)
	}
	if filter.Action != nil {
		where += " AND action = ?"
		args = append(args, *filter.Action)
	}
	if filter.Status != nil {
		where += " AND status = ?"
		args = append(args, *filter.Status)
	}
	if filter.Since != nil {
		where += " AND created_at >= ?"
		args = append(args, filter.Since.UTC())
	}

	var total int64
	if err := r.read.QueryRowContext(ctx,
		`SELECT count(*) FROM audit_log`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit entries: %w", err)
	}

	listArgs := append(args, filter.Page.Limit(), filter.Page.Offset())
	rows, err := r.read.QueryContext(ctx,
		`SELECT id, org_id, caller, action, target, status, detail, created_at
		 FROM audit_log`+where+` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("query audit entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		var detail sql.NullString
		if err := rows.Scan(&e.ID, &e.OrgID, &e.Caller, &e.Action, &e.Target, &e.Status, &detail, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		e.Detail = optStr(detail)
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}
