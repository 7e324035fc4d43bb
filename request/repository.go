package request

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound signals the referenced request does not exist.
	ErrNotFound = errors.New("request: not found")
	// ErrActiveRequestExists signals the client already has a non-completed request.
	ErrActiveRequestExists = errors.New("request: client already has an active request")
	// ErrNoActiveRequest signals the master has no non-completed assignment.
	ErrNoActiveRequest = errors.New("request: no active request")
	// ErrStatusUnchanged rejects a transition to the current status.
	ErrStatusUnchanged = errors.New("request: status already set")
	// ErrBadStatus signals a status outside the lifecycle.
	ErrBadStatus = errors.New("request: unknown status")
	// ErrMasterNotConfirmed rejects assigning a request to a user without a masters row.
	ErrMasterNotConfirmed = errors.New("request: assignee is not a confirmed master")
)

// Repository handles data access for service requests. Multi-statement
// invariant checks run inside a repository-owned transaction so two
// concurrent callers cannot both pass a check and both write.
type Repository interface {
	Create(ctx context.Context, req Request) (Request, error)
	Assign(ctx context.Context, requestID string, masterID *string, status Status) (Request, error)
	AdvanceStatus(ctx context.Context, masterID string, next Status) (Advance, error)
	CurrentAddress(ctx context.Context, masterID string) (string, error)
	ActiveClient(ctx context.Context, masterID string) (clientID, requestID string, err error)
	ListForMaster(ctx context.Context, masterID string) ([]MasterView, error)
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a PostgreSQL-backed request repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Create inserts a pending request unless the client already has an active
// one. The conditional insert re-checks the invariant atomically; the
// partial unique index catches the race when two inserts interleave anyway.
func (r *PGRepository) Create(ctx context.Context, req Request) (Request, error) {
	const query = `
		INSERT INTO service_requests (id, client_id, address, status)
		SELECT $1, $2, $3, 'pending'
		WHERE NOT EXISTS (
			SELECT 1 FROM service_requests
			WHERE client_id = $2 AND status <> 'completed'
		)
		RETURNING id, client_id, master_id, address, status, created_at
	`

	created, err := scanRequest(r.pool.QueryRow(ctx, query, req.ID, req.ClientID, req.Address))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Request{}, ErrActiveRequestExists
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Request{}, ErrActiveRequestExists
		}
		return Request{}, fmt.Errorf("request: create: %w", err)
	}
	return created, nil
}

// Assign overwrites master and status without transition guards: the
// administrator is trusted to override the lifecycle. The only hard check is
// that a non-nil assignee must hold a masters row.
func (r *PGRepository) Assign(ctx context.Context, requestID string, masterID *string, status Status) (Request, error) {
	const query = `
		UPDATE service_requests
		SET master_id = $2, status = $3
		WHERE id = $1
		  AND ($2::text IS NULL OR EXISTS (SELECT 1 FROM masters WHERE user_id = $2))
		RETURNING id, client_id, master_id, address, status, created_at
	`

	updated, err := scanRequest(r.pool.QueryRow(ctx, query, requestID, masterID, status))
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// Reactivating a completed request while the client already has
			// another active one trips the partial unique index.
			return Request{}, ErrActiveRequestExists
		}
		return Request{}, fmt.Errorf("request: assign: %w", err)
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM service_requests WHERE id = $1)`, requestID).Scan(&exists); err != nil {
		return Request{}, fmt.Errorf("request: assign fetch: %w", err)
	}
	if exists {
		return Request{}, ErrMasterNotConfirmed
	}
	return Request{}, ErrNotFound
}

// AdvanceStatus moves the master's most recent non-completed request to the
// next status. Repeating the current status is rejected, not silently
// accepted. Ordering is created_at descending with id as the tie-break so
// the pick is a deterministic total order.
func (r *PGRepository) AdvanceStatus(ctx context.Context, masterID string, next Status) (Advance, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Advance{}, fmt.Errorf("request: begin advance: %w", err)
	}
	defer tx.Rollback(ctx)

	const lockSQL = `
		SELECT id, client_id, status
		FROM service_requests
		WHERE master_id = $1 AND status <> 'completed'
		ORDER BY created_at DESC, id DESC
		LIMIT 1
		FOR UPDATE
	`

	var adv Advance
	if err := tx.QueryRow(ctx, lockSQL, masterID).Scan(&adv.RequestID, &adv.ClientID, &adv.Previous); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Advance{}, ErrNoActiveRequest
		}
		return Advance{}, fmt.Errorf("request: lock active: %w", err)
	}

	if adv.Previous == next {
		return Advance{}, ErrStatusUnchanged
	}

	if _, err := tx.Exec(ctx, `UPDATE service_requests SET status = $2 WHERE id = $1`, adv.RequestID, next); err != nil {
		return Advance{}, fmt.Errorf("request: update status: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Advance{}, fmt.Errorf("request: commit advance: %w", err)
	}

	adv.Next = next
	return adv, nil
}

// CurrentAddress returns the address of the master's most recent in_progress
// request.
func (r *PGRepository) CurrentAddress(ctx context.Context, masterID string) (string, error) {
	const query = `
		SELECT address
		FROM service_requests
		WHERE master_id = $1 AND status = 'in_progress'
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	var address string
	if err := r.pool.QueryRow(ctx, query, masterID).Scan(&address); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNoActiveRequest
		}
		return "", fmt.Errorf("request: current address: %w", err)
	}
	return address, nil
}

// ActiveClient resolves the client behind the master's most recent
// in_progress request, for direct messaging.
func (r *PGRepository) ActiveClient(ctx context.Context, masterID string) (string, string, error) {
	const query = `
		SELECT client_id, id
		FROM service_requests
		WHERE master_id = $1 AND status = 'in_progress'
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	var clientID, requestID string
	if err := r.pool.QueryRow(ctx, query, masterID).Scan(&clientID, &requestID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", "", ErrNoActiveRequest
		}
		return "", "", fmt.Errorf("request: active client: %w", err)
	}
	return clientID, requestID, nil
}

// ListForMaster returns the master's requests with client names, newest
// first.
func (r *PGRepository) ListForMaster(ctx context.Context, masterID string) ([]MasterView, error) {
	const query = `
		SELECT r.id, r.address, r.status, u.full_name
		FROM service_requests r
		JOIN users u ON u.id = r.client_id
		WHERE r.master_id = $1
		ORDER BY r.created_at DESC, r.id DESC
	`

	rows, err := r.pool.Query(ctx, query, masterID)
	if err != nil {
		return nil, fmt.Errorf("request: list for master: %w", err)
	}
	defer rows.Close()

	out := make([]MasterView, 0, 8)
	for rows.Next() {
		var v MasterView
		if err := rows.Scan(&v.ID, &v.Address, &v.Status, &v.ClientName); err != nil {
			return nil, fmt.Errorf("request: scan master view: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("request: iterate master views: %w", err)
	}
	return out, nil
}

func scanRequest(row pgx.Row) (Request, error) {
	var req Request
	return req, row.Scan(
		&req.ID,
		&req.ClientID,
		&req.MasterID,
		&req.Address,
		&req.Status,
		&req.CreatedAt,
	)
}
