package request

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// ErrEmptyAddress rejects a request without an address.
var ErrEmptyAddress = errors.New("request: address required")

// Service owns the request lifecycle on top of the repository.
type Service struct {
	repo  Repository
	idGen func() string
}

// NewService creates a request service.
func NewService(repo Repository) *Service {
	return &Service{
		repo:  repo,
		idGen: func() string { return uuid.NewString() },
	}
}

// WithIDGenerator overrides request identity minting.
func (s *Service) WithIDGenerator(gen func() string) *Service {
	s.idGen = gen
	return s
}

// Create opens a pending request for the client. At most one non-completed
// request per client may exist; violations surface as ErrActiveRequestExists.
func (s *Service) Create(ctx context.Context, clientID, address string) (Request, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return Request{}, ErrEmptyAddress
	}

	return s.repo.Create(ctx, Request{
		ID:       s.idGen(),
		ClientID: clientID,
		Address:  address,
	})
}

// Assign is the administrator override: master and status are overwritten
// without lifecycle guards.
func (s *Service) Assign(ctx context.Context, requestID string, masterID *string, status Status) (Request, error) {
	if _, err := ParseStatus(string(status)); err != nil {
		return Request{}, err
	}
	return s.repo.Assign(ctx, requestID, masterID, status)
}

// AdvanceStatus transitions the master's current request and reports the
// previous status and client for notification.
func (s *Service) AdvanceStatus(ctx context.Context, masterID string, next Status) (Advance, error) {
	if _, err := ParseStatus(string(next)); err != nil {
		return Advance{}, err
	}
	return s.repo.AdvanceStatus(ctx, masterID, next)
}

// CurrentAddress is the master's read-only "where am I due" query.
func (s *Service) CurrentAddress(ctx context.Context, masterID string) (string, error) {
	return s.repo.CurrentAddress(ctx, masterID)
}

// ActiveClient resolves the client of the master's in_progress request.
func (s *Service) ActiveClient(ctx context.Context, masterID string) (clientID, requestID string, err error) {
	return s.repo.ActiveClient(ctx, masterID)
}

// ListForMaster returns the master's requests with client names.
func (s *Service) ListForMaster(ctx context.Context, masterID string) ([]MasterView, error) {
	return s.repo.ListForMaster(ctx, masterID)
}
