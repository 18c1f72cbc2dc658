package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"complio/internal/nonconformance/models"
	txcontext "complio/pkg/platform/tx"
)

// Postgres SQLSTATE codes the store translates into sentinel errors.
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// PostgresStore persists cases in nonconformances, nc_actions and nc_audit_logs.
// Inside a transaction FindCase takes a row lock, so read-validate-write
// sequences on one case serialize.
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

const caseColumns = `id, ref_number, case_type, title, description, category, severity, owner, raised_by,
	status, due_date, containment_needed, closed_date, closure_approved_at, closure_approved_by,
	closure_signature, closure_comments, created_at, updated_at`

func (s *PostgresStore) CreateCase(ctx context.Context, c *models.Case) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO nonconformances (`+caseColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`, caseArgs(c)...)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("create case: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindCase(ctx context.Context, id string) (*models.Case, error) {
	query := `SELECT ` + caseColumns + ` FROM nonconformances WHERE id = $1`
	if _, inTx := txcontext.From(ctx); inTx {
		query += ` FOR UPDATE`
	}
	c, err := scanCase(s.execer(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find case: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) ListCases(ctx context.Context, filter ListFilter) ([]*models.Case, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.CaseType != "" {
		args = append(args, string(filter.CaseType))
		where = append(where, fmt.Sprintf("case_type = $%d", len(args)))
	}
	query := `SELECT ` + caseColumns + ` FROM nonconformances`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, ref_number DESC`

	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	defer rows.Close()

	out := []*models.Case{}
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cases: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) UpdateCase(ctx context.Context, c *models.Case) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE nonconformances SET
			ref_number = $2, case_type = $3, title = $4, description = $5, category = $6,
			severity = $7, owner = $8, raised_by = $9, status = $10, due_date = $11,
			containment_needed = $12, closed_date = $13, closure_approved_at = $14,
			closure_approved_by = $15, closure_signature = $16, closure_comments = $17,
			created_at = $18, updated_at = $19
		WHERE id = $1
	`, caseArgs(c)...)
	if err != nil {
		return fmt.Errorf("update case: %w", err)
	}
	return requireOneRow(res)
}

func (s *PostgresStore) DeleteCase(ctx context.Context, id string) error {
	res, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM nonconformances WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete case: %w", err)
	}
	return requireOneRow(res)
}

// NextRefSeq bumps and returns the counter for prefix. The counter never goes
// below the highest suffix already stored, and rolls back with the enclosing tx.
func (s *PostgresStore) NextRefSeq(ctx context.Context, prefix string) (int, error) {
	var n int
	err := s.execer(ctx).QueryRowContext(ctx, `
		INSERT INTO nc_ref_counters (prefix, last_seq)
		VALUES ($1::text, COALESCE((
			SELECT MAX(CAST(substring(ref_number FROM length($1::text) + 1) AS INTEGER))
			FROM nonconformances
			WHERE starts_with(ref_number, $1::text)
			  AND substring(ref_number FROM length($1::text) + 1) ~ '^[0-9]+$'
		), 0) + 1)
		ON CONFLICT (prefix) DO UPDATE
		SET last_seq = GREATEST(nc_ref_counters.last_seq + 1, EXCLUDED.last_seq)
		RETURNING last_seq`, prefix,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("next ref seq: %w", err)
	}
	return n, nil
}

const actionColumns = `id, nc_id, action_type, title, description, owner, due_date, priority, status,
	completed_date, global_action_id, created_at, updated_at`

func (s *PostgresStore) CreateAction(ctx context.Context, a *models.Action) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO nc_actions (`+actionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, actionArgs(a)...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return ErrNotFound
		}
		return fmt.Errorf("create action: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindAction(ctx context.Context, caseID, actionID string) (*models.Action, error) {
	a, err := scanAction(s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+actionColumns+` FROM nc_actions WHERE nc_id = $1 AND id = $2`, caseID, actionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find action: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) ListActions(ctx context.Context, caseID string) ([]*models.Action, error) {
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT `+actionColumns+` FROM nc_actions WHERE nc_id = $1 ORDER BY created_at, id`, caseID)
	if err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	return collectActions(rows)
}

// ListActionsByCases loads the actions of many cases in one query.
func (s *PostgresStore) ListActionsByCases(ctx context.Context, caseIDs []string) (map[string][]*models.Action, error) {
	out := make(map[string][]*models.Action, len(caseIDs))
	if len(caseIDs) == 0 {
		return out, nil
	}
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT `+actionColumns+` FROM nc_actions WHERE nc_id = ANY($1::text[]) ORDER BY nc_id, created_at, id`,
		pq.Array(caseIDs))
	if err != nil {
		return nil, fmt.Errorf("list actions by cases: %w", err)
	}
	actions, err := collectActions(rows)
	if err != nil {
		return nil, err
	}
	for _, a := range actions {
		out[a.CaseID] = append(out[a.CaseID], a)
	}
	return out, nil
}

func (s *PostgresStore) UpdateAction(ctx context.Context, a *models.Action) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE nc_actions SET
			action_type = $3, title = $4, description = $5, owner = $6, due_date = $7,
			priority = $8, status = $9, completed_date = $10, global_action_id = $11,
			created_at = $12, updated_at = $13
		WHERE id = $1 AND nc_id = $2
	`, actionArgs(a)...)
	if err != nil {
		return fmt.Errorf("update action: %w", err)
	}
	return requireOneRow(res)
}

func (s *PostgresStore) DeleteAction(ctx context.Context, caseID, actionID string) error {
	res, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM nc_actions WHERE nc_id = $1 AND id = $2`, caseID, actionID)
	if err != nil {
		return fmt.Errorf("delete action: %w", err)
	}
	return requireOneRow(res)
}

// AppendAudit inserts e and writes the assigned sequence number back into it.
func (s *PostgresStore) AppendAudit(ctx context.Context, e *models.AuditEntry) error {
	var metadata []byte
	if e.Metadata != nil {
		var err error
		if metadata, err = json.Marshal(e.Metadata); err != nil {
			return fmt.Errorf("marshal audit metadata: %w", err)
		}
	}
	err := s.execer(ctx).QueryRowContext(ctx, `
		INSERT INTO nc_audit_logs (id, nc_id, event_type, description, actor_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING seq
	`, e.ID, e.CaseID, string(e.EventType), e.Description, e.ActorID, metadata, e.CreatedAt).Scan(&e.Seq)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return ErrNotFound
		}
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListAudit(ctx context.Context, caseID string) ([]*models.AuditEntry, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT id, nc_id, seq, event_type, description, actor_id, metadata, created_at
		FROM nc_audit_logs WHERE nc_id = $1 ORDER BY seq
	`, caseID)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	out := []*models.AuditEntry{}
	for rows.Next() {
		var (
			e         models.AuditEntry
			eventType string
			metadata  []byte
		)
		if err := rows.Scan(&e.ID, &e.CaseID, &e.Seq, &eventType, &e.Description, &e.ActorID, &metadata, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.EventType = models.EventType(eventType)
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal audit metadata: %w", err)
			}
		}
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return out, nil
}

func caseArgs(c *models.Case) []any {
	return []any{
		c.ID, c.RefNumber, string(c.CaseType), c.Title, c.Description, c.Category,
		string(c.Severity), c.Owner, c.RaisedBy, string(c.Status), c.DueDate,
		c.ContainmentNeeded, c.ClosedDate, c.ClosureApprovedAt, c.ClosureApprovedBy,
		c.ClosureSignature, c.ClosureComments, c.CreatedAt, c.UpdatedAt,
	}
}

func actionArgs(a *models.Action) []any {
	return []any{
		a.ID, a.CaseID, string(a.ActionType), a.Title, a.Description, a.Owner, a.DueDate,
		string(a.Priority), string(a.Status), a.CompletedDate, a.GlobalActionID,
		a.CreatedAt, a.UpdatedAt,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCase(row rowScanner) (*models.Case, error) {
	var (
		c                                    models.Case
		caseType, severity, status           string
		dueDate, closedDate, approvedAt      sql.NullTime
		approvedBy, signature, closeComments sql.NullString
	)
	err := row.Scan(&c.ID, &c.RefNumber, &caseType, &c.Title, &c.Description, &c.Category,
		&severity, &c.Owner, &c.RaisedBy, &status, &dueDate, &c.ContainmentNeeded,
		&closedDate, &approvedAt, &approvedBy, &signature, &closeComments,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.CaseType = models.CaseType(caseType)
	c.Severity = models.Severity(severity)
	c.Status = models.CaseStatus(status)
	c.DueDate = nullTime(dueDate)
	c.ClosedDate = nullTime(closedDate)
	c.ClosureApprovedAt = nullTime(approvedAt)
	c.ClosureApprovedBy = nullString(approvedBy)
	c.ClosureSignature = nullString(signature)
	c.ClosureComments = nullString(closeComments)
	return &c, nil
}

func scanAction(row rowScanner) (*models.Action, error) {
	var (
		a                        models.Action
		actionType, prio, status string
		dueDate, completedDate   sql.NullTime
		globalActionID           sql.NullString
	)
	err := row.Scan(&a.ID, &a.CaseID, &actionType, &a.Title, &a.Description, &a.Owner, &dueDate,
		&prio, &status, &completedDate, &globalActionID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.ActionType = models.ActionType(actionType)
	a.Priority = models.Priority(prio)
	a.Status = models.ActionStatus(status)
	a.DueDate = nullTime(dueDate)
	a.CompletedDate = nullTime(completedDate)
	a.GlobalActionID = nullString(globalActionID)
	return &a, nil
}

func collectActions(rows *sql.Rows) ([]*models.Action, error) {
	defer rows.Close()
	out := []*models.Action{}
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate actions: %w", err)
	}
	return out, nil
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

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
