package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"complio/internal/permit/models"
	txcontext "complio/pkg/platform/tx"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// PostgresStore persists permits and permit_approvals. FindPermit locks the
// row when called inside a transaction.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const permitColumns = `id, title, type, location, contractor, issued_by, internal_approver,
	client_approver, valid_from, valid_until, status, hazards, control_measures, created_at, updated_at`

func (s *PostgresStore) CreatePermit(ctx context.Context, p *models.Permit) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO permits (`+permitColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, permitArgs(p)...)
	if err != nil {
		if pgCode(err) == uniqueViolation {
			return ErrConflict
		}
		return fmt.Errorf("create permit: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindPermit(ctx context.Context, id string) (*models.Permit, error) {
	query := `SELECT ` + permitColumns + ` FROM permits WHERE id = $1`
	if _, inTx := txcontext.From(ctx); inTx {
		query += ` FOR UPDATE`
	}
	p, err := scanPermit(s.execer(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find permit: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) ListPermits(ctx context.Context, filter ListFilter) ([]*models.Permit, error) {
	query := `SELECT ` + permitColumns + ` FROM permits`
	var args []any
	if filter.Status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list permits: %w", err)
	}
	defer rows.Close()

	out := []*models.Permit{}
	for rows.Next() {
		p, err := scanPermit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan permit: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate permits: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) UpdatePermit(ctx context.Context, p *models.Permit) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE permits SET
			title = $2, type = $3, location = $4, contractor = $5, issued_by = $6,
			internal_approver = $7, client_approver = $8, valid_from = $9, valid_until = $10,
			status = $11, hazards = $12, control_measures = $13, created_at = $14, updated_at = $15
		WHERE id = $1
	`, permitArgs(p)...)
	if err != nil {
		return fmt.Errorf("update permit: %w", err)
	}
	return requireOneRow(res)
}

func (s *PostgresStore) DeletePermit(ctx context.Context, id string) error {
	res, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM permits WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete permit: %w", err)
	}
	return requireOneRow(res)
}

func (s *PostgresStore) AppendApproval(ctx context.Context, a *models.Approval) error {
	err := s.execer(ctx).QueryRowContext(ctx, `
		INSERT INTO permit_approvals (id, permit_id, level, approver_role, approver_name, status, comments, signed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING seq
	`, a.ID, a.PermitID, a.Level, a.ApproverRole, a.ApproverName, string(a.Status), a.Comments,
		a.SignedAt, a.CreatedAt).Scan(&a.Seq)
	if err != nil {
		switch pgCode(err) {
		case foreignKeyViolation:
			return ErrNotFound
		case uniqueViolation:
			return ErrConflict
		}
		return fmt.Errorf("append approval: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListApprovals(ctx context.Context, permitID string) ([]*models.Approval, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT id, permit_id, seq, level, approver_role, approver_name, status, comments, signed_at, created_at
		FROM permit_approvals WHERE permit_id = $1 ORDER BY level, seq
	`, permitID)
	if err != nil {
		return nil, fmt.Errorf("list approvals: %w", err)
	}
	defer rows.Close()

	out := []*models.Approval{}
	for rows.Next() {
		var (
			a              models.Approval
			status         string
			name, comments sql.NullString
			signedAt       sql.NullTime
		)
		if err := rows.Scan(&a.ID, &a.PermitID, &a.Seq, &a.Level, &a.ApproverRole, &name,
			&status, &comments, &signedAt, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan approval: %w", err)
		}
		a.Status = models.ApprovalStatus(status)
		a.ApproverName = name.String
		a.Comments = comments.String
		if signedAt.Valid {
			t := signedAt.Time
			a.SignedAt = &t
		}
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate approvals: %w", err)
	}
	return out, nil
}

func permitArgs(p *models.Permit) []any {
	return []any{
		p.ID, p.Title, p.Type, p.Location, p.Contractor, p.IssuedBy, p.InternalApprover,
		p.ClientApprover, p.ValidFrom, p.ValidUntil, string(p.Status), p.Hazards,
		p.ControlMeasures, p.CreatedAt, p.UpdatedAt,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPermit(row rowScanner) (*models.Permit, error) {
	var (
		p                                                models.Permit
		status                                           string
		location, contractor, issuedBy, internal, client sql.NullString
		hazards, controls                                sql.NullString
	)
	err := row.Scan(&p.ID, &p.Title, &p.Type, &location, &contractor, &issuedBy, &internal,
		&client, &p.ValidFrom, &p.ValidUntil, &status, &hazards, &controls,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Status = models.Status(status)
	p.Location = location.String
	p.Contractor = contractor.String
	p.IssuedBy = issuedBy.String
	p.InternalApprover = internal.String
	p.ClientApprover = client.String
	p.Hazards = hazards.String
	p.ControlMeasures = controls.String
	return &p, nil
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
