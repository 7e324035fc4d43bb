package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrUserNotFound signals that the user does not exist.
	ErrUserNotFound = errors.New("user: not found")
	// ErrAlreadyRegistered signals a duplicate registration attempt.
	ErrAlreadyRegistered = errors.New("user: already registered")
)

// Repository handles data access for users and role resolution.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
	RoleFacts(ctx context.Context, id string) (stored Role, hasMasterRow bool, err error)
	AdminID(ctx context.Context) (string, error)
	Save(ctx context.Context, params SaveParams) (User, error)
	EnsureAdmin(ctx context.Context, id, fullName, phone string) error
}

// CreateParams contains write parameters for inserting users.
type CreateParams struct {
	ID         string
	FullName   string
	Phone      string
	Role       Role
	Registered bool
}

// SaveParams contains the mutable fields an administrator may edit.
type SaveParams struct {
	ID         string
	FullName   string
	Phone      string
	Role       Role
	Registered bool
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a PostgreSQL-backed user repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Create inserts a new user row. The primary key makes duplicate
// registrations atomic even under concurrent submits.
func (r *PGRepository) Create(ctx context.Context, params CreateParams) (User, error) {
	const insertSQL = `
		INSERT INTO users (id, full_name, phone, role, registered)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, full_name, phone, role, registered, created_at
	`

	u, err := scanUser(r.pool.QueryRow(ctx, insertSQL, params.ID, params.FullName, params.Phone, params.Role, params.Registered))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, ErrAlreadyRegistered
		}
		return User{}, fmt.Errorf("user: create: %w", err)
	}
	return u, nil
}

// GetByID retrieves a user by its stable identity.
func (r *PGRepository) GetByID(ctx context.Context, id string) (User, error) {
	const selectSQL = `
		SELECT id, full_name, phone, role, registered, created_at
		FROM users
		WHERE id = $1
	`

	u, err := scanUser(r.pool.QueryRow(ctx, selectSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("user: get by id: %w", err)
	}
	return u, nil
}

// RoleFacts reads the stored role tag and master-table membership in a
// single statement so the answer is never split across snapshots.
func (r *PGRepository) RoleFacts(ctx context.Context, id string) (Role, bool, error) {
	const query = `
		SELECT u.role, EXISTS (SELECT 1 FROM masters m WHERE m.user_id = u.id)
		FROM users u
		WHERE u.id = $1
	`

	var (
		stored   Role
		isMaster bool
	)
	if err := r.pool.QueryRow(ctx, query, id).Scan(&stored, &isMaster); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, ErrUserNotFound
		}
		return "", false, fmt.Errorf("user: role facts: %w", err)
	}
	return stored, isMaster, nil
}

// AdminID returns the identity of the seeded administrator.
func (r *PGRepository) AdminID(ctx context.Context) (string, error) {
	const query = `SELECT id FROM users WHERE role = 'admin' LIMIT 1`

	var id string
	if err := r.pool.QueryRow(ctx, query).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("user: admin id: %w", err)
	}
	return id, nil
}

// Save applies an administrator edit. Promoting a user to admin removes any
// masters row in the same transaction: a user must never be admin and master
// at once.
func (r *PGRepository) Save(ctx context.Context, params SaveParams) (User, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return User{}, fmt.Errorf("user: begin save: %w", err)
	}
	defer tx.Rollback(ctx)

	const updateSQL = `
		UPDATE users
		SET full_name = $2, phone = $3, role = $4, registered = $5
		WHERE id = $1
		RETURNING id, full_name, phone, role, registered, created_at
	`

	u, err := scanUser(tx.QueryRow(ctx, updateSQL, params.ID, params.FullName, params.Phone, params.Role, params.Registered))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("user: save: %w", err)
	}

	if params.Role == RoleAdmin {
		if _, err := tx.Exec(ctx, `DELETE FROM masters WHERE user_id = $1`, params.ID); err != nil {
			return User{}, fmt.Errorf("user: drop master row on promote: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return User{}, fmt.Errorf("user: commit save: %w", err)
	}
	return u, nil
}

// EnsureAdmin seeds (or re-tags) the single administrator account.
func (r *PGRepository) EnsureAdmin(ctx context.Context, id, fullName, phone string) error {
	const upsertSQL = `
		INSERT INTO users (id, full_name, phone, role, registered)
		VALUES ($1, $2, $3, 'admin', TRUE)
		ON CONFLICT (id) DO UPDATE SET role = 'admin', registered = TRUE
	`
	if _, err := r.pool.Exec(ctx, upsertSQL, id, fullName, phone); err != nil {
		return fmt.Errorf("user: ensure admin: %w", err)
	}
	return nil
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	return u, row.Scan(
		&u.ID,
		&u.FullName,
		&u.Phone,
		&u.Role,
		&u.Registered,
		&u.CreatedAt,
	)
}
