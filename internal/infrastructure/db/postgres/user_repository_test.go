package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"

	"github.com/99minutos/identity-service/internal/core/domain"
)

var columns = []string{"id", "email", "password_hash", "first_name", "last_name", "role", "is_active", "created_at", "updated_at"}

const testID = "7d4f2c39-3f53-4c1a-a0e4-2b0b5c0a9f11"

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func expectMet(t *testing.T, mock pgxmock.PgxPoolIface) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_Create(t *testing.T) {
	mock := newMock(t)
	now := time.Now().UTC()

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(testID, "ada@example.com", "hash", "Ada", "Lovelace", "USER", true, now, now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := NewUserRepository(mock)
	err := repo.Create(context.Background(), &domain.User{
		ID: testID, Email: "ada@example.com", PasswordHash: "hash",
		FirstName: "Ada", LastName: "Lovelace", Role: domain.RoleUser,
		IsActive: true, CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	expectMet(t, mock)
}

func TestUserRepository_Create_UniqueViolation(t *testing.T) {
	mock := newMock(t)

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_email_key"})

	repo := NewUserRepository(mock)
	err := repo.Create(context.Background(), &domain.User{ID: testID, Email: "ada@example.com", Role: domain.RoleUser})
	if !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	expectMet(t, mock)
}

func TestUserRepository_FindByEmail(t *testing.T) {
	mock := newMock(t)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT .+ FROM users WHERE email = \$1`).
		WithArgs("ada@example.com").
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow(testID, "ada@example.com", "hash", "Ada", "Lovelace", "ADMIN", true, created, created))

	repo := NewUserRepository(mock)
	u, err := repo.FindByEmail(context.Background(), "ada@example.com")
	if err != nil {
		t.Fatalf("FindByEmail returned error: %v", err)
	}
	if u.ID != testID || u.Role != domain.RoleAdmin || !u.CreatedAt.Equal(created) {
		t.Fatalf("unexpected user: %+v", u)
	}
	expectMet(t, mock)
}

func TestUserRepository_FindByID_NotFound(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery(`SELECT .+ FROM users WHERE id = \$1`).
		WithArgs(testID).
		WillReturnRows(pgxmock.NewRows(columns))

	repo := NewUserRepository(mock)
	if _, err := repo.FindByID(context.Background(), testID); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	expectMet(t, mock)
}

func TestUserRepository_FindByID_UnknownRole(t *testing.T) {
	mock := newMock(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT .+ FROM users WHERE id = \$1`).
		WithArgs(testID).
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow(testID, "ada@example.com", "hash", "", "", "ROOT", true, now, now))

	repo := NewUserRepository(mock)
	if _, err := repo.FindByID(context.Background(), testID); !errors.Is(err, domain.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestUserRepository_Update(t *testing.T) {
	mock := newMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE users SET role = $1, is_active = $2, updated_at = $3 WHERE id = $4 RETURNING`)).
		WithArgs("MODERATOR", false, now, testID).
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow(testID, "ada@example.com", "hash", "Ada", "Lovelace", "MODERATOR", false, now, now))

	role := domain.RoleModerator
	active := false
	repo := NewUserRepository(mock)
	u, err := repo.Update(context.Background(), testID, domain.UserPatch{Role: &role, IsActive: &active, UpdatedAt: now})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if u.Role != domain.RoleModerator || u.IsActive {
		t.Fatalf("unexpected user: %+v", u)
	}
	expectMet(t, mock)
}

func TestUserRepository_Update_EmailTaken(t *testing.T) {
	mock := newMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE users SET email = $1, updated_at = $2 WHERE id = $3`)).
		WithArgs("taken@example.com", now, testID).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})

	email := "taken@example.com"
	repo := NewUserRepository(mock)
	if _, err := repo.Update(context.Background(), testID, domain.UserPatch{Email: &email, UpdatedAt: now}); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	expectMet(t, mock)
}

func TestUserRepository_Update_NotFound(t *testing.T) {
	mock := newMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`UPDATE users SET`).
		WithArgs("Grace", now, testID).
		WillReturnRows(pgxmock.NewRows(columns))

	name := "Grace"
	repo := NewUserRepository(mock)
	if _, err := repo.Update(context.Background(), testID, domain.UserPatch{FirstName: &name, UpdatedAt: now}); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	expectMet(t, mock)
}

func TestUserRepository_Delete(t *testing.T) {
	mock := newMock(t)

	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).
		WithArgs(testID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).
		WithArgs(testID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	repo := NewUserRepository(mock)
	if err := repo.Delete(context.Background(), testID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if err := repo.Delete(context.Background(), testID); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	expectMet(t, mock)
}

func TestUserRepository_List(t *testing.T) {
	mock := newMock(t)
	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	mock.ExpectQuery(`SELECT .+ FROM users ORDER BY created_at, id`).
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow(testID, "a@example.com", "h", "", "", "USER", true, t1, t1).
			AddRow("1b7f0a52-6a55-4bb0-9a3e-0e2d9f1c7e21", "b@example.com", "h", "", "", "ADMIN", true, t2, t2))

	repo := NewUserRepository(mock)
	users, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(users) != 2 || users[0].Email != "a@example.com" || users[1].Role != domain.RoleAdmin {
		t.Fatalf("unexpected users: %+v", users)
	}
	expectMet(t, mock)
}

func TestUserRepository_List_QueryError(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery(`SELECT .+ FROM users`).WillReturnError(errors.New("connection refused"))

	repo := NewUserRepository(mock)
	if _, err := repo.List(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	expectMet(t, mock)
}
