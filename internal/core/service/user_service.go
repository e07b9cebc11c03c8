package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/99minutos/identity-service/internal/core/domain"
	"github.com/99minutos/identity-service/internal/core/ports"
)

// UserService implements profile edits and admin user management. Role
// gating happens at the HTTP layer; the self-action rules live here.
type UserService struct {
	dir *Directory
	log zerolog.Logger
}

var _ ports.UserService = (*UserService)(nil)

func NewUserService(dir *Directory, log zerolog.Logger) *UserService {
	return &UserService{dir: dir, log: log}
}

func (s *UserService) List(ctx context.Context) ([]domain.PublicUser, error) {
	users, err := s.dir.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*domain.PublicUser, error) {
	u, err := s.dir.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	pub := u.Public()
	return &pub, nil
}

// UpdateProfile changes the caller's own name and email. Role and status are
// not reachable from here.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, in ports.UpdateProfileInput) (*domain.PublicUser, error) {
	u, err := s.dir.Update(ctx, userID, domain.UserPatch{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
	})
	if err != nil {
		return nil, err
	}
	pub := u.Public()
	return &pub, nil
}

func (s *UserService) ChangeRole(ctx context.Context, targetID string, role domain.Role, requesterID string) (*domain.PublicUser, error) {
	if targetID == requesterID {
		return nil, domain.ErrSelfRoleChange
	}
	if !role.Valid() {
		return nil, domain.ErrInvalidRole
	}
	u, err := s.dir.Update(ctx, targetID, domain.UserPatch{Role: &role})
	if err != nil {
		return nil, err
	}
	s.log.Info().
		Str("user_id", targetID).
		Str("role", role.String()).
		Str("changed_by", requesterID).
		Msg("user role changed")
	pub := u.Public()
	return &pub, nil
}

func (s *UserService) SetActive(ctx context.Context, targetID string, active bool, requesterID string) (*domain.PublicUser, error) {
	if targetID == requesterID {
		return nil, domain.ErrSelfDeactivate
	}
	u, err := s.dir.Update(ctx, targetID, domain.UserPatch{IsActive: &active})
	if err != nil {
		return nil, err
	}
	s.log.Info().
		Str("user_id", targetID).
		Bool("active", active).
		Str("changed_by", requesterID).
		Msg("user status changed")
	pub := u.Public()
	return &pub, nil
}

func (s *UserService) Delete(ctx context.Context, targetID, requesterID string) error {
	if targetID == requesterID {
		return domain.ErrSelfDelete
	}
	if err := s.dir.Delete(ctx, targetID); err != nil {
		return fmt.Errorf("delete user %s: %w", targetID, err)
	}
	s.log.Info().Str("user_id", targetID).Str("deleted_by", requesterID).Msg("user deleted")
	return nil
}
