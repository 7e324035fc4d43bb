package report

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// recentLimit caps how many of the user's reports the feedback view shows.
const recentLimit = 5

// ErrEmptyText rejects blank report and feedback bodies.
var ErrEmptyText = errors.New("report: text required")

// Service owns report submission and admin feedback.
type Service struct {
	repo  Repository
	idGen func() string
}

// NewService creates a report service.
func NewService(repo Repository) *Service {
	return &Service{
		repo:  repo,
		idGen: func() string { return uuid.NewString() },
	}
}

// WithIDGenerator overrides report identity minting.
func (s *Service) WithIDGenerator(gen func() string) *Service {
	s.idGen = gen
	return s
}

// Create stores the user's report.
func (s *Service) Create(ctx context.Context, userID, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyText
	}
	return s.repo.Create(ctx, Report{
		ID:     s.idGen(),
		UserID: userID,
		Text:   text,
	})
}

// Recent returns the user's latest reports with any feedback attached.
func (s *Service) Recent(ctx context.Context, userID string) ([]Report, error) {
	return s.repo.Recent(ctx, userID, recentLimit)
}

// SetFeedback records the admin's answer and returns the report so the
// caller can notify its owner.
func (s *Service) SetFeedback(ctx context.Context, reportID, feedback string) (Report, error) {
	feedback = strings.TrimSpace(feedback)
	if feedback == "" {
		return Report{}, ErrEmptyText
	}
	return s.repo.SetFeedback(ctx, reportID, feedback)
}

// List returns all reports for the admin review screen.
func (s *Service) List(ctx context.Context) ([]Report, error) {
	return s.repo.List(ctx)
}
