package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/99minutos/identity-service/internal/core/domain"
	"github.com/99minutos/identity-service/internal/core/ports"
)

// Directory is the single source of truth for users. It owns identifier
// assignment, timestamps and email normalization; the repository owns
// persistence and the uniqueness guarantee.
type Directory struct {
	repo ports.UserRepository
	now  func() time.Time
}

func NewDirectory(repo ports.UserRepository) *Directory {
	return &Directory{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

func (d *Directory) FindByID(ctx context.Context, id string) (*domain.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrUserNotFound
	}
	u, err := d.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

func (d *Directory) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := d.repo.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return u, nil
}

// Create persists a new user. Returns domain.ErrUserExists if the normalized
// email is already registered.
func (d *Directory) Create(ctx context.Context, in domain.NewUser) (*domain.User, error) {
	role := in.Role
	if role == "" {
		role = domain.RoleUser
	}
	if !role.Valid() {
		return nil, domain.ErrInvalidRole
	}

	now := d.now()
	u := &domain.User{
		ID:           uuid.NewString(),
		Email:        domain.NormalizeEmail(in.Email),
		PasswordHash: in.PasswordHash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Role:         role,
		IsActive:     in.IsActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := d.repo.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// Update applies patch to the user with the given id and bumps UpdatedAt.
func (d *Directory) Update(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrUserNotFound
	}
	if patch.Email != nil {
		email := domain.NormalizeEmail(*patch.Email)
		patch.Email = &email
	}
	if patch.Role != nil && !patch.Role.Valid() {
		return nil, domain.ErrInvalidRole
	}
	patch.UpdatedAt = d.now()

	u, err := d.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return u, nil
}

func (d *Directory) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrUserNotFound
	}
	if err := d.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// List returns every user ordered by creation time.
func (d *Directory) List(ctx context.Context) ([]*domain.User, error) {
	users, err := d.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}
