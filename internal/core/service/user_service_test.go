package service

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/aywhoosh/iris-identity/internal/core/domain"
	"github.com/aywhoosh/iris-identity/internal/core/ports"
)

type stubUserRepo struct {
	mu    sync.Mutex
	seq   int
	users map[string]*domain.User // keyed by id
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrEmailTaken
		}
	}
	r.seq++
	copy := cloneUser(user)
	copy.ID = "u" + strconv.Itoa(r.seq)
	r.users[copy.ID] = cloneUser(copy)
	return copy, nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	r.users[user.ID] = cloneUser(user)
	return nil
}

func (r *stubUserRepo) UpdateLastLogin(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	now := u.UpdatedAt
	u.LastLogin = &now
	return nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func testPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:    8,
		RequireUpper: true,
		RequireLower: true,
		RequireDigit: true,
		BcryptCost:   bcrypt.MinCost, // keep tests fast
	}
}

func TestUserService_Create_Success(t *testing.T) {
	svc := NewUserService(newStubUserRepo(), testPolicy())

	user, err := svc.Create(context.Background(), ports.CreateUserInput{
		Email:     "  Alice@Example.COM ",
		Password:  "Str0ngP@ss",
		FirstName: "Alice",
		LastName:  "Reyes",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("email not normalized: %q", user.Email)
	}
	if user.Role != domain.RolePatient {
		t.Fatalf("unexpected role: %s", user.Role)
	}
	if user.PasswordHash == "Str0ngP@ss" {
		t.Fatal("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("Str0ngP@ss")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
}

func TestUserService_Create_PolicyViolations(t *testing.T) {
	svc := NewUserService(newStubUserRepo(), PasswordPolicy{
		MinLength:     8,
		RequireUpper:  true,
		RequireLower:  true,
		RequireDigit:  true,
		RequireSymbol: true,
		BcryptCost:    bcrypt.MinCost,
	})

	cases := []struct {
		name     string
		password string
	}{
		{"too short", "Ab1!"},
		{"no uppercase", "str0ngp@ss"},
		{"no lowercase", "STR0NGP@SS"},
		{"no digit", "StrongPass!"},
		{"no symbol", "Str0ngPass1"},
	}
	for _, tc := range cases {
		_, err := svc.Create(context.Background(), ports.CreateUserInput{Email: "a@b.com", Password: tc.password})
		if !domain.IsValidation(err) {
			t.Fatalf("%s: expected ValidationError, got %v", tc.name, err)
		}
	}
}

func TestUserService_Create_DuplicateEmail(t *testing.T) {
	svc := NewUserService(newStubUserRepo(), testPolicy())

	_, err := svc.Create(context.Background(), ports.CreateUserInput{Email: "bob@example.com", Password: "Str0ngP@ss"})
	if err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	// Same address with different casing must still collide.
	_, err = svc.Create(context.Background(), ports.CreateUserInput{Email: "BOB@example.com", Password: "Str0ngP@ss"})
	if err != domain.ErrEmailTaken {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestUserService_Authenticate(t *testing.T) {
	svc := NewUserService(newStubUserRepo(), testPolicy())
	ctx := context.Background()

	created, err := svc.Create(ctx, ports.CreateUserInput{Email: "carol@example.com", Password: "Str0ngP@ss"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	user, err := svc.Authenticate(ctx, "Carol@Example.com", "Str0ngP@ss")
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if user.ID != created.ID {
		t.Fatalf("authenticated wrong user: %s", user.ID)
	}

	// Wrong password and unknown email must be indistinguishable.
	if _, err := svc.Authenticate(ctx, "carol@example.com", "wrongpass"); err != domain.ErrInvalidCredentials {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "ghost@example.com", "Str0ngP@ss"); err != domain.ErrInvalidCredentials {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestUserService_Authenticate_SuspendedAccount(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewUserService(repo, testPolicy())
	ctx := context.Background()

	created, _ := svc.Create(ctx, ports.CreateUserInput{Email: "dan@example.com", Password: "Str0ngP@ss"})
	repo.users[created.ID].AccountStatus = domain.StatusSuspended

	if _, err := svc.Authenticate(ctx, "dan@example.com", "Str0ngP@ss"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for suspended account, got %v", err)
	}
}

func TestUserService_VerifyPassword(t *testing.T) {
	svc := NewUserService(newStubUserRepo(), testPolicy())
	ctx := context.Background()

	created, _ := svc.Create(ctx, ports.CreateUserInput{Email: "eve@example.com", Password: "Str0ngP@ss"})

	if !svc.VerifyPassword(ctx, created.ID, "Str0ngP@ss") {
		t.Fatal("exact password rejected")
	}
	// Any single-character mutation must fail.
	if svc.VerifyPassword(ctx, created.ID, "Str0ngP@sS") {
		t.Fatal("mutated password accepted")
	}
	if svc.VerifyPassword(ctx, "missing-id", "Str0ngP@ss") {
		t.Fatal("unknown id accepted")
	}
}

func TestUserService_Update_RehashesPassword(t *testing.T) {
	svc := NewUserService(newStubUserRepo(), testPolicy())
	ctx := context.Background()

	created, _ := svc.Create(ctx, ports.CreateUserInput{Email: "fay@example.com", Password: "Str0ngP@ss"})

	weak := "short"
	if _, err := svc.Update(ctx, created.ID, ports.UpdateUserInput{Password: &weak}); !domain.IsValidation(err) {
		t.Fatalf("expected ValidationError for weak replacement, got %v", err)
	}

	strong := "N3wStr0ngPass"
	updated, err := svc.Update(ctx, created.ID, ports.UpdateUserInput{Password: &strong})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) && !updated.UpdatedAt.Equal(created.UpdatedAt) {
		t.Fatal("updated_at not bumped")
	}
	if !svc.VerifyPassword(ctx, created.ID, strong) {
		t.Fatal("new password rejected after update")
	}
	if svc.VerifyPassword(ctx, created.ID, "Str0ngP@ss") {
		t.Fatal("old password still accepted after change")
	}
}

func TestUserService_Delete(t *testing.T) {
	svc := NewUserService(newStubUserRepo(), testPolicy())
	ctx := context.Background()

	created, _ := svc.Create(ctx, ports.CreateUserInput{Email: "gus@example.com", Password: "Str0ngP@ss"})
	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := svc.FindByID(ctx, created.ID); err != domain.ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound after delete, got %v", err)
	}
}
