package master

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrApplicationExists signals the user already has a pending application.
	ErrApplicationExists = errors.New("master: application already exists")
	// ErrApplicationNotFound signals there is nothing to resolve.
	ErrApplicationNotFound = errors.New("master: application not found")
	// ErrMasterNotFound signals the user holds no masters row.
	ErrMasterNotFound = errors.New("master: not found")
	// ErrLoadOutOfRange rejects load values outside [0,100]; values are never clamped.
	ErrLoadOutOfRange = errors.New("master: load must be between 0 and 100")
)

// Repository handles data access for masters and their applications.
type Repository interface {
	CreateApplication(ctx context.Context, userID string) error
	Applications(ctx context.Context) ([]Application, error)
	Resolve(ctx context.Context, userID string, confirm bool) error
	SetLoad(ctx context.Context, masterID string, load int) error
	Delete(ctx context.Context, userID string) error
	List(ctx context.Context) ([]Master, error)
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a PostgreSQL-backed master repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// CreateApplication records a pending application. The primary key makes the
// at-most-one-per-user rule atomic under concurrent applies.
func (r *PGRepository) CreateApplication(ctx context.Context, userID string) error {
	if _, err := r.pool.Exec(ctx, `INSERT INTO master_applications (user_id) VALUES ($1)`, userID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrApplicationExists
		}
		return fmt.Errorf("master: create application: %w", err)
	}
	return nil
}

// Applications lists pending applications with applicant names, oldest
// first.
func (r *PGRepository) Applications(ctx context.Context) ([]Application, error) {
	const query = `
		SELECT a.user_id, u.full_name, a.created_at
		FROM master_applications a
		JOIN users u ON u.id = a.user_id
		ORDER BY a.created_at ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("master: list applications: %w", err)
	}
	defer rows.Close()

	out := make([]Application, 0, 8)
	for rows.Next() {
		var a Application
		if err := rows.Scan(&a.UserID, &a.FullName, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("master: scan application: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("master: iterate applications: %w", err)
	}
	return out, nil
}

// Resolve consumes an application inside one transaction: lock it, on
// confirm insert the masters row (idempotent, load=0), then remove the
// application either way. Running confirm twice leaves exactly one masters
// row.
func (r *PGRepository) Resolve(ctx context.Context, userID string, confirm bool) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("master: begin resolve: %w", err)
	}
	defer tx.Rollback(ctx)

	var locked string
	if err := tx.QueryRow(ctx, `SELECT user_id FROM master_applications WHERE user_id = $1 FOR UPDATE`, userID).Scan(&locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrApplicationNotFound
		}
		return fmt.Errorf("master: lock application: %w", err)
	}

	if confirm {
		if _, err := tx.Exec(ctx, `
			INSERT INTO masters (user_id, load) VALUES ($1, 0)
			ON CONFLICT (user_id) DO NOTHING
		`, userID); err != nil {
			return fmt.Errorf("master: insert master row: %w", err)
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM master_applications WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("master: remove application: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("master: commit resolve: %w", err)
	}
	return nil
}

// SetLoad overwrites the load under a row lock so concurrent admin edits
// cannot lose updates.
func (r *PGRepository) SetLoad(ctx context.Context, masterID string, load int) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("master: begin set load: %w", err)
	}
	defer tx.Rollback(ctx)

	var current int
	if err := tx.QueryRow(ctx, `SELECT load FROM masters WHERE user_id = $1 FOR UPDATE`, masterID).Scan(&current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrMasterNotFound
		}
		return fmt.Errorf("master: lock load: %w", err)
	}

	if _, err := tx.Exec(ctx, `UPDATE masters SET load = $2 WHERE user_id = $1`, masterID, load); err != nil {
		return fmt.Errorf("master: update load: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("master: commit set load: %w", err)
	}
	return nil
}

// Delete removes the masters row, demoting the user back to client. Deleting
// a non-master is a no-op.
func (r *PGRepository) Delete(ctx context.Context, userID string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM masters WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("master: delete: %w", err)
	}
	return nil
}

// List returns all masters with names and load.
func (r *PGRepository) List(ctx context.Context) ([]Master, error) {
	const query = `
		SELECT m.user_id, u.full_name, m.load
		FROM masters m
		JOIN users u ON u.id = m.user_id
		ORDER BY u.full_name ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("master: list: %w", err)
	}
	defer rows.Close()

	out := make([]Master, 0, 8)
	for rows.Next() {
		var m Master
		if err := rows.Scan(&m.UserID, &m.FullName, &m.Load); err != nil {
			return nil, fmt.Errorf("master: scan: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("master: iterate: %w", err)
	}
	return out, nil
}
