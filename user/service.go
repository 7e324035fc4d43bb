package user

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrStoredRoleInvalid signals an attempt to store a role other than client
// or admin. The master role is derived, never stored.
var ErrStoredRoleInvalid = errors.New("user: stored role must be client or admin")

// Service owns registration and role resolution on top of the repository.
type Service struct {
	repo  Repository
	idGen func() string
}

// NewService creates a user service.
func NewService(repo Repository) *Service {
	return &Service{
		repo:  repo,
		idGen: func() string { return uuid.NewString() },
	}
}

// WithIDGenerator overrides identity minting for admin-created users.
func (s *Service) WithIDGenerator(gen func() string) *Service {
	s.idGen = gen
	return s
}

// Register completes the registration dialogue for the given identity. The
// fields have already passed step validation; the primary key re-checks the
// duplicate inside the insert itself.
func (s *Service) Register(ctx context.Context, id, fullName, phone string) (User, error) {
	if err := ValidateFullName(fullName); err != nil {
		return User{}, err
	}
	if err := ValidatePhone(phone); err != nil {
		return User{}, err
	}

	return s.repo.Create(ctx, CreateParams{
		ID:         id,
		FullName:   fullName,
		Phone:      phone,
		Role:       RoleClient,
		Registered: true,
	})
}

// ResolveRole derives the effective role from committed state: admin if the
// stored role tag says so, master if a masters row exists, client otherwise.
// It never caches: a master confirmation must be visible on the very next
// interaction.
func (s *Service) ResolveRole(ctx context.Context, id string) (Role, error) {
	stored, hasMasterRow, err := s.repo.RoleFacts(ctx, id)
	if err != nil {
		return "", err
	}
	if stored == RoleAdmin {
		return RoleAdmin, nil
	}
	if hasMasterRow {
		return RoleMaster, nil
	}
	return RoleClient, nil
}

// IsRegistered reports whether the user completed registration.
func (s *Service) IsRegistered(ctx context.Context, id string) (bool, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}
	return u.Registered, nil
}

// Get retrieves a user by id.
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	return s.repo.GetByID(ctx, id)
}

// AdminID returns the seeded administrator's identity, used as the
// notification target for master applications.
func (s *Service) AdminID(ctx context.Context) (string, error) {
	return s.repo.AdminID(ctx)
}

// AdminSave creates or updates a user on behalf of the administrator.
// A blank ID means a new record; its identity is minted here since
// admin-created users have no transport identity yet.
func (s *Service) AdminSave(ctx context.Context, params SaveParams) (User, error) {
	if err := ValidateFullName(params.FullName); err != nil {
		return User{}, err
	}
	if err := ValidatePhone(params.Phone); err != nil {
		return User{}, err
	}
	if params.Role != RoleClient && params.Role != RoleAdmin {
		return User{}, ErrStoredRoleInvalid
	}

	if params.ID == "" {
		return s.repo.Create(ctx, CreateParams{
			ID:         s.idGen(),
			FullName:   params.FullName,
			Phone:      params.Phone,
			Role:       params.Role,
			Registered: params.Registered,
		})
	}
	return s.repo.Save(ctx, params)
}

// EnsureAdmin seeds the administrator account on startup.
func (s *Service) EnsureAdmin(ctx context.Context, id, fullName, phone string) error {
	return s.repo.EnsureAdmin(ctx, id, fullName, phone)
}
