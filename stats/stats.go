package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Overview is the admin dashboard summary.
type Overview struct {
	TotalUsers      int
	PendingRequests int
	AverageLoad     float64
}

// UserRow is one line of the admin user listing. Role is the effective role:
// a masters row wins over the stored client role, a stored admin role wins
// over everything.
type UserRow struct {
	ID       string
	FullName string
	Phone    string
	Role     string
}

// PendingRow is one unassigned request awaiting an admin.
type PendingRow struct {
	ID         string
	ClientName string
	Address    string
	CreatedAt  time.Time
}

// Repository serves read-only projections for the admin surface.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a stats repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Overview aggregates counters for the dashboard. AverageLoad is zero when
// no masters exist.
func (r *Repository) Overview(ctx context.Context) (Overview, error) {
	const query = `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM service_requests WHERE status = 'pending'),
			(SELECT COALESCE(AVG(load), 0) FROM masters)
	`

	var o Overview
	if err := r.pool.QueryRow(ctx, query).Scan(&o.TotalUsers, &o.PendingRequests, &o.AverageLoad); err != nil {
		return Overview{}, fmt.Errorf("stats: overview: %w", err)
	}
	return o, nil
}

// Users lists every user with their effective role.
func (r *Repository) Users(ctx context.Context) ([]UserRow, error) {
	const query = `
		SELECT u.id, u.full_name, u.phone,
			CASE
				WHEN u.role = 'admin' THEN 'admin'
				WHEN m.user_id IS NOT NULL THEN 'master'
				ELSE 'client'
			END
		FROM users u
		LEFT JOIN masters m ON m.user_id = u.id
		ORDER BY u.created_at ASC, u.id ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("stats: users: %w", err)
	}
	defer rows.Close()

	out := make([]UserRow, 0, 32)
	for rows.Next() {
		var u UserRow
		if err := rows.Scan(&u.ID, &u.FullName, &u.Phone, &u.Role); err != nil {
			return nil, fmt.Errorf("stats: scan user: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("stats: iterate users: %w", err)
	}
	return out, nil
}

// PendingRequests lists requests still waiting for assignment, oldest first
// so the queue drains fairly.
func (r *Repository) PendingRequests(ctx context.Context) ([]PendingRow, error) {
	const query = `
		SELECT r.id, u.full_name, r.address, r.created_at
		FROM service_requests r
		JOIN users u ON u.id = r.client_id
		WHERE r.status = 'pending'
		ORDER BY r.created_at ASC, r.id ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("stats: pending requests: %w", err)
	}
	defer rows.Close()

	out := make([]PendingRow, 0, 16)
	for rows.Next() {
		var p PendingRow
		if err := rows.Scan(&p.ID, &p.ClientName, &p.Address, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("stats: scan pending: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("stats: iterate pending: %w", err)
	}
	return out, nil
}
