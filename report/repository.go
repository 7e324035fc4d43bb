package report

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound signals the referenced report does not exist.
var ErrNotFound = errors.New("report: not found")

// Repository handles data access for reports and admin feedback.
type Repository interface {
	Create(ctx context.Context, rep Report) error
	Recent(ctx context.Context, userID string, limit int) ([]Report, error)
	SetFeedback(ctx context.Context, reportID, feedback string) (Report, error)
	List(ctx context.Context) ([]Report, error)
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a PostgreSQL-backed report repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Create stores a new report without feedback.
func (r *PGRepository) Create(ctx context.Context, rep Report) error {
	const query = `
		INSERT INTO reports (id, user_id, report_text)
		VALUES ($1, $2, $3)
	`

	if _, err := r.pool.Exec(ctx, query, rep.ID, rep.UserID, rep.Text); err != nil {
		return fmt.Errorf("report: create: %w", err)
	}
	return nil
}

// Recent returns the user's newest reports, most recent first.
func (r *PGRepository) Recent(ctx context.Context, userID string, limit int) ([]Report, error) {
	const query = `
		SELECT id, user_id, report_text, admin_feedback, created_at
		FROM reports
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("report: recent: %w", err)
	}
	defer rows.Close()

	out := make([]Report, 0, limit)
	for rows.Next() {
		var rep Report
		if err := rows.Scan(&rep.ID, &rep.UserID, &rep.Text, &rep.Feedback, &rep.CreatedAt); err != nil {
			return nil, fmt.Errorf("report: scan recent: %w", err)
		}
		out = append(out, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("report: iterate recent: %w", err)
	}
	return out, nil
}

// SetFeedback attaches the admin's answer and returns the updated report so
// the caller can notify its owner.
func (r *PGRepository) SetFeedback(ctx context.Context, reportID, feedback string) (Report, error) {
	const query = `
		UPDATE reports
		SET admin_feedback = $2
		WHERE id = $1
		RETURNING id, user_id, report_text, admin_feedback, created_at
	`

	var rep Report
	err := r.pool.QueryRow(ctx, query, reportID, feedback).
		Scan(&rep.ID, &rep.UserID, &rep.Text, &rep.Feedback, &rep.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Report{}, ErrNotFound
		}
		return Report{}, fmt.Errorf("report: set feedback: %w", err)
	}
	return rep, nil
}

// List returns every report with the author's name, newest first, for the
// admin review screen.
func (r *PGRepository) List(ctx context.Context) ([]Report, error) {
	const query = `
		SELECT r.id, r.user_id, u.full_name, r.report_text, r.admin_feedback, r.created_at
		FROM reports r
		JOIN users u ON u.id = r.user_id
		ORDER BY r.created_at DESC, r.id DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("report: list: %w", err)
	}
	defer rows.Close()

	out := make([]Report, 0, 16)
	for rows.Next() {
		var rep Report
		if err := rows.Scan(&rep.ID, &rep.UserID, &rep.UserName, &rep.Text, &rep.Feedback, &rep.CreatedAt); err != nil {
			return nil, fmt.Errorf("report: scan: %w", err)
		}
		out = append(out, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("report: iterate: %w", err)
	}
	return out, nil
}
