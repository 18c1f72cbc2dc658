package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"complio/internal/actions/models"
	txcontext "complio/pkg/platform/tx"
)

// PostgresStore persists actions in the global_actions table.
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

const actionColumns = `id, type, title, details, owner, due_date, status, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, a *models.Action) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO global_actions (`+actionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, a.ID, string(a.Type), a.Title, a.Details, a.Owner, a.DueDate, string(a.Status), a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create global action: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*models.Action, error) {
	row := s.execer(ctx).QueryRowContext(ctx, `SELECT `+actionColumns+` FROM global_actions WHERE id = $1`, id)
	a, err := scanAction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find global action: %w", err)
	}
	return a, nil
}

// FindByIDs loads every existing action among ids in one round trip.
func (s *PostgresStore) FindByIDs(ctx context.Context, ids []string) ([]*models.Action, error) {
	if len(ids) == 0 {
		return []*models.Action{}, nil
	}
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT `+actionColumns+` FROM global_actions
		WHERE id = ANY($1::text[])
		ORDER BY array_position($1::text[], id)
	`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("find global actions: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Action, 0, len(ids))
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan global action: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate global actions: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Update(ctx context.Context, a *models.Action) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE global_actions
		SET type = $2, title = $3, details = $4, owner = $5, due_date = $6, status = $7, updated_at = $8
		WHERE id = $1
	`, a.ID, string(a.Type), a.Title, a.Details, a.Owner, a.DueDate, string(a.Status), a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update global action: %w", err)
	}
	return requireOneRow(res)
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	res, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM global_actions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete global action: %w", err)
	}
	return requireOneRow(res)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAction(row rowScanner) (*models.Action, error) {
	var (
		a       models.Action
		typ     string
		status  string
		dueDate sql.NullTime
	)
	if err := row.Scan(&a.ID, &typ, &a.Title, &a.Details, &a.Owner, &dueDate, &status, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.Type = models.Type(typ)
	a.Status = models.Status(status)
	if dueDate.Valid {
		d := dueDate.Time
		a.DueDate = &d
	}
	return &a, nil
}
