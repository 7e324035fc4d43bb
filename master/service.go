package master

import "context"

// Service owns the master roster and the application queue.
type Service struct {
	repo Repository
}

// NewService creates a master service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Apply queues the user for admin approval. A second apply while one is
// pending fails with ErrApplicationExists.
func (s *Service) Apply(ctx context.Context, userID string) error {
	return s.repo.CreateApplication(ctx, userID)
}

// Applications lists pending applications for the admin.
func (s *Service) Applications(ctx context.Context) ([]Application, error) {
	return s.repo.Applications(ctx)
}

// Resolve consumes the user's application: confirm promotes them to master
// with zero load, reject just drops the application.
func (s *Service) Resolve(ctx context.Context, userID string, decision Decision) error {
	if _, err := ParseDecision(string(decision)); err != nil {
		return err
	}
	return s.repo.Resolve(ctx, userID, decision == DecisionConfirm)
}

// SetLoad overwrites the master's load. Out-of-range values are rejected,
// never clamped.
func (s *Service) SetLoad(ctx context.Context, masterID string, load int) error {
	if load < MinLoad || load > MaxLoad {
		return ErrLoadOutOfRange
	}
	return s.repo.SetLoad(ctx, masterID, load)
}

// Demote removes the masters row; subsequent role resolution falls back to
// client.
func (s *Service) Demote(ctx context.Context, userID string) error {
	return s.repo.Delete(ctx, userID)
}

// List returns the roster with names and load.
func (s *Service) List(ctx context.Context) ([]Master, error) {
	return s.repo.List(ctx)
}
