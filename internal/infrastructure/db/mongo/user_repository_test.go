package mongo

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/99minutos/identity-service/internal/core/domain"
)

const testNamespace = "identity.users"

func userDoc(id, email, role string, created time.Time) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "email", Value: email},
		{Key: "password_hash", Value: "$2a$10$hash"},
		{Key: "first_name", Value: "Ada"},
		{Key: "last_name", Value: "Lovelace"},
		{Key: "role", Value: role},
		{Key: "is_active", Value: true},
		{Key: "created_at", Value: created},
		{Key: "updated_at", Value: created},
	}
}

func TestUserRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	mt.Run("create", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		err := repo.Create(context.Background(), &domain.User{ID: "u-1", Email: "ada@example.com", Role: domain.RoleUser})
		if err != nil {
			mt.Fatalf("Create returned error: %v", err)
		}
	})

	mt.Run("create duplicate email", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: identity.users index: uniq_email",
		}))

		err := repo.Create(context.Background(), &domain.User{ID: "u-2", Email: "ada@example.com", Role: domain.RoleUser})
		if !errors.Is(err, domain.ErrUserExists) {
			mt.Fatalf("expected ErrUserExists, got %v", err)
		}
	})

	mt.Run("find by email", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testNamespace, mtest.FirstBatch,
			userDoc("u-1", "ada@example.com", "ADMIN", created)))

		u, err := repo.FindByEmail(context.Background(), "ada@example.com")
		if err != nil {
			mt.Fatalf("FindByEmail returned error: %v", err)
		}
		if u.ID != "u-1" || u.Role != domain.RoleAdmin || !u.CreatedAt.Equal(created) {
			mt.Fatalf("unexpected user: %+v", u)
		}
	})

	mt.Run("find by id not found", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testNamespace, mtest.FirstBatch))

		if _, err := repo.FindByID(context.Background(), "missing"); !errors.Is(err, domain.ErrUserNotFound) {
			mt.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})

	mt.Run("find rejects unknown role", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testNamespace, mtest.FirstBatch,
			userDoc("u-1", "ada@example.com", "ROOT", created)))

		if _, err := repo.FindByID(context.Background(), "u-1"); !errors.Is(err, domain.ErrInvalidRole) {
			mt.Fatalf("expected ErrInvalidRole, got %v", err)
		}
	})

	mt.Run("update", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "value", Value: userDoc("u-1", "ada@example.com", "MODERATOR", created)},
		))

		role := domain.RoleModerator
		u, err := repo.Update(context.Background(), "u-1", domain.UserPatch{Role: &role, UpdatedAt: time.Now()})
		if err != nil {
			mt.Fatalf("Update returned error: %v", err)
		}
		if u.Role != domain.RoleModerator {
			mt.Fatalf("expected MODERATOR, got %s", u.Role)
		}
	})

	mt.Run("update missing", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		active := false
		if _, err := repo.Update(context.Background(), "missing", domain.UserPatch{IsActive: &active}); !errors.Is(err, domain.ErrUserNotFound) {
			mt.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})

	mt.Run("update email collision", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    11000,
			Name:    "DuplicateKey",
			Message: "E11000 duplicate key error",
		}))

		email := "taken@example.com"
		if _, err := repo.Update(context.Background(), "u-1", domain.UserPatch{Email: &email}); !errors.Is(err, domain.ErrUserExists) {
			mt.Fatalf("expected ErrUserExists, got %v", err)
		}
	})

	mt.Run("delete", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 1}})

		if err := repo.Delete(context.Background(), "u-1"); err != nil {
			mt.Fatalf("Delete returned error: %v", err)
		}
	})

	mt.Run("delete missing", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 0}})

		if err := repo.Delete(context.Background(), "missing"); !errors.Is(err, domain.ErrUserNotFound) {
			mt.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})

	mt.Run("list", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testNamespace, mtest.FirstBatch,
			userDoc("u-1", "a@example.com", "USER", created),
			userDoc("u-2", "b@example.com", "ADMIN", created.Add(time.Minute)),
		))

		users, err := repo.List(context.Background())
		if err != nil {
			mt.Fatalf("List returned error: %v", err)
		}
		if len(users) != 2 || users[0].ID != "u-1" || users[1].Role != domain.RoleAdmin {
			mt.Fatalf("unexpected users: %+v", users)
		}
	})

	mt.Run("ensure indexes", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		if err := repo.EnsureIndexes(context.Background()); err != nil {
			mt.Fatalf("EnsureIndexes returned error: %v", err)
		}
	})
}
