package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/identity-service/internal/core/domain"
	"github.com/99minutos/identity-service/internal/core/ports"
	"github.com/99minutos/identity-service/internal/infrastructure/db/memory"
	"github.com/99minutos/identity-service/internal/infrastructure/security"
)

type fixture struct {
	repo   *memory.UserRepository
	dir    *Directory
	tokens *security.TokenService
	auth   *AuthService
	users  *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tokens, err := security.NewTokenService(security.TokenConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	})
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	repo := memory.NewUserRepository()
	dir := NewDirectory(repo)
	hasher := security.NewHasher(bcrypt.MinCost, nil)
	return &fixture{
		repo:   repo,
		dir:    dir,
		tokens: tokens,
		auth:   NewAuthService(dir, hasher, tokens, zerolog.Nop()),
		users:  NewUserService(dir, zerolog.Nop()),
	}
}

func (f *fixture) register(t *testing.T, email, password string) *ports.AuthResult {
	t.Helper()
	res, err := f.auth.Register(context.Background(), ports.RegisterInput{
		Email:     email,
		Password:  password,
		FirstName: "Test",
		LastName:  "User",
	})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return res
}

// failingRepo returns err from every call.
type failingRepo struct{ err error }

func (r failingRepo) Create(context.Context, *domain.User) error { return r.err }
func (r failingRepo) FindByID(context.Context, string) (*domain.User, error) {
	return nil, r.err
}
func (r failingRepo) FindByEmail(context.Context, string) (*domain.User, error) {
	return nil, r.err
}
func (r failingRepo) Update(context.Context, string, domain.UserPatch) (*domain.User, error) {
	return nil, r.err
}
func (r failingRepo) Delete(context.Context, string) error         { return r.err }
func (r failingRepo) List(context.Context) ([]*domain.User, error) { return nil, r.err }

var errStoreDown = errors.New("store down")
