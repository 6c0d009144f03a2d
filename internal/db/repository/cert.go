package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"voucherd/internal/domain"
)

var _ domain.CertRepository = (*CertRepo)(nil)

// CertRepo implements domain.CertRepository using SQLite.
type CertRepo struct {
	write *sql.DB
	read  *sql.DB
}

// NewCertRepo creates a new CertRepo.
func NewCertRepo(writeDB, readDB *sql.DB) *CertRepo {
	return &CertRepo{write: writeDB, read: readDB}
}

const certColumns = `id, group_id, cert_der, fingerprint, revocation_checks, expires_on, created_by, created_at`

func (r *CertRepo) Create(ctx context.Context, c *domain.DomainCert) (*domain.DomainCert, error) {
	created := *c
	if created.ID == "" {
		created.ID = domain.NewID()
	}
	created.CreatedAt = time.Now().UTC()

	_, err := r.write.ExecContext(ctx,
		`INSERT INTO domain_certs (`+certColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		created.ID, created.GroupID, created.Raw, created.Fingerprint,
		created.RevocationChecks, created.ExpiresOn.UTC(), created.CreatedBy, created.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrConflict(
				"an identical certificate is already attached to group %s", created.GroupID)
		}
		return nil, fmt.Errorf("insert domain cert: %w", err)
	}
	return &created, nil
}

func (r *CertRepo) GetByID(ctx context.Context, id string) (*domain.DomainCert, error) {
	c, err := scanCert(r.read.QueryRowContext(ctx,
		`SELECT `+certColumns+` FROM domain_certs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound("certificate %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get domain cert: %w", err)
	}
	return c, nil
}

func (r *CertRepo) ListByGroup(ctx context.Context, groupID string) ([]domain.DomainCert, error) {
	return r.queryCerts(ctx,
		`SELECT `+certColumns+` FROM domain_certs WHERE group_id = ? ORDER BY created_at, id`, groupID)
}

func (r *CertRepo) Delete(ctx context.Context, id string) error {
	res, err := r.write.ExecContext(ctx, `DELETE FROM domain_certs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete domain cert: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound("certificate %s not found", id)
	}
	return nil
}

// ListExpiringBefore returns certs whose voucher expiry bound falls before
// the cutoff, oldest first. Used by the expiry sweeper.
func (r *CertRepo) ListExpiringBefore(ctx context.Context, cutoff time.Time) ([]domain.DomainCert, error) {
	return r.queryCerts(ctx,
		`SELECT `+certColumns+` FROM domain_certs WHERE expires_on <= ? ORDER BY expires_on, id`,
		cutoff.UTC())
}

func (r *CertRepo) queryCerts(ctx context.Context, query string, arg interface{}) ([]domain.DomainCert, error) {
	rows, err := r.read.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query domain certs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var certs []domain.DomainCert
	for rows.Next() {
		c, err := scanCert(rows)
		if err != nil {
			return nil, err
		}
		certs = append(certs, *c)
	}
	return certs, rows.Err()
}

func scanCert(row rowScanner) (*domain.DomainCert, error) {
	var c domain.DomainCert
	if err := row.Scan(&c.ID, &c.GroupID, &c.Raw, &c.Fingerprint,
		&c.RevocationChecks, &c.ExpiresOn, &c.CreatedBy, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}
