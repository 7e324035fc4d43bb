package user

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestService_Register(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)

	ctx := context.Background()
	u, err := svc.Register(ctx, "1001", "Иван Петров", "+71234567890")
	if err != nil {
		t.Fatalf("register: unexpected error: %v", err)
	}
	if u.Role != RoleClient {
		t.Fatalf("expected role %s got %s", RoleClient, u.Role)
	}
	if !u.Registered {
		t.Fatal("expected registered flag to be set")
	}

	if _, err := svc.Register(ctx, "1001", "Иван Петров", "+71234567890"); !errors.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
	}
}

func TestService_RegisterValidation(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "1", "Ян", "+71234567890"); !errors.Is(err, ErrInvalidFullName) {
		t.Fatalf("short name: expected ErrInvalidFullName, got %v", err)
	}
	if _, err := svc.Register(ctx, "1", "R2-D2", "+71234567890"); !errors.Is(err, ErrInvalidFullName) {
		t.Fatalf("digits in name: expected ErrInvalidFullName, got %v", err)
	}
	if _, err := svc.Register(ctx, "1", "John Smith", "71234567890"); !errors.Is(err, ErrInvalidPhone) {
		t.Fatalf("missing plus: expected ErrInvalidPhone, got %v", err)
	}
	if _, err := svc.Register(ctx, "1", "John Smith", "+123"); !errors.Is(err, ErrInvalidPhone) {
		t.Fatalf("too short: expected ErrInvalidPhone, got %v", err)
	}
}

func TestService_ResolveRole(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)
	ctx := context.Background()

	repo.add(User{ID: "c1", Role: RoleClient, Registered: true})
	repo.add(User{ID: "m1", Role: RoleClient, Registered: true})
	repo.masterRows["m1"] = true
	repo.add(User{ID: "a1", Role: RoleAdmin, Registered: true})
	// admin flag wins even with a lingering master row
	repo.masterRows["a1"] = true

	cases := []struct {
		id   string
		want Role
	}{
		{"c1", RoleClient},
		{"m1", RoleMaster},
		{"a1", RoleAdmin},
	}
	for _, tc := range cases {
		got, err := svc.ResolveRole(ctx, tc.id)
		if err != nil {
			t.Fatalf("resolve %s: %v", tc.id, err)
		}
		if got != tc.want {
			t.Fatalf("resolve %s: expected %s got %s", tc.id, tc.want, got)
		}
	}

	if _, err := svc.ResolveRole(ctx, "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestService_AdminSave(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo).WithIDGenerator(func() string { return "fixed-id" })
	ctx := context.Background()

	created, err := svc.AdminSave(ctx, SaveParams{
		FullName:   "Новый Клиент",
		Phone:      "+79990001122",
		Role:       RoleClient,
		Registered: true,
	})
	if err != nil {
		t.Fatalf("create via save: %v", err)
	}
	if created.ID != "fixed-id" {
		t.Fatalf("expected minted id, got %q", created.ID)
	}

	// Promoting a master to admin must drop the masters row.
	repo.masterRows[created.ID] = true
	if _, err := svc.AdminSave(ctx, SaveParams{
		ID:         created.ID,
		FullName:   "Новый Админ",
		Phone:      "+79990001122",
		Role:       RoleAdmin,
		Registered: true,
	}); err != nil {
		t.Fatalf("promote: %v", err)
	}
	if repo.masterRows[created.ID] {
		t.Fatal("expected masters row to be removed on promotion to admin")
	}

	if _, err := svc.AdminSave(ctx, SaveParams{
		ID:       created.ID,
		FullName: "Новый Админ",
		Phone:    "+79990001122",
		Role:     RoleMaster,
	}); !errors.Is(err, ErrStoredRoleInvalid) {
		t.Fatalf("expected ErrStoredRoleInvalid, got %v", err)
	}
}

type fakeRepository struct {
	users      map[string]User
	masterRows map[string]bool
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		users:      make(map[string]User),
		masterRows: make(map[string]bool),
	}
}

func (f *fakeRepository) add(u User) {
	u.CreatedAt = time.Now().UTC()
	f.users[u.ID] = u
}

func (f *fakeRepository) Create(ctx context.Context, params CreateParams) (User, error) {
	if _, exists := f.users[params.ID]; exists {
		return User{}, ErrAlreadyRegistered
	}
	u := User{
		ID:         params.ID,
		FullName:   params.FullName,
		Phone:      params.Phone,
		Role:       params.Role,
		Registered: params.Registered,
		CreatedAt:  time.Now().UTC(),
	}
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeRepository) GetByID(ctx context.Context, id string) (User, error) {
	u, ok := f.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

func (f *fakeRepository) RoleFacts(ctx context.Context, id string) (Role, bool, error) {
	u, ok := f.users[id]
	if !ok {
		return "", false, ErrUserNotFound
	}
	return u.Role, f.masterRows[id], nil
}

func (f *fakeRepository) AdminID(ctx context.Context) (string, error) {
	for id, u := range f.users {
		if u.Role == RoleAdmin {
			return id, nil
		}
	}
	return "", ErrUserNotFound
}

func (f *fakeRepository) Save(ctx context.Context, params SaveParams) (User, error) {
	u, ok := f.users[params.ID]
	if !ok {
		return User{}, ErrUserNotFound
	}
	u.FullName = params.FullName
	u.Phone = params.Phone
	u.Role = params.Role
	u.Registered = params.Registered
	f.users[params.ID] = u
	if params.Role == RoleAdmin {
		delete(f.masterRows, params.ID)
	}
	return u, nil
}

func (f *fakeRepository) EnsureAdmin(ctx context.Context, id, fullName, phone string) error {
	u, ok := f.users[id]
	if !ok {
		u = User{ID: id, FullName: fullName, Phone: phone}
	}
	u.Role = RoleAdmin
	u.Registered = true
	f.users[id] = u
	return nil
}
