package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-admin/internal/model"
	"github.com/jwalitptl/clinic-admin/internal/repository"
)

var userRowColumns = []string{
	"id", "email", "password_hash", "first_name", "last_name", "phone", "role",
	"is_active", "is_new", "last_login_at", "profile_completed_at", "created_at", "updated_at",
}

func userRow(rows *sqlmock.Rows, id uuid.UUID, email string, role model.Role) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(id.String(), email, "hash", "Ana", "Ruiz", nil, string(role), true, true, nil, nil, now, now)
}

func TestUserRepository_Create(t *testing.T) {
	base, mock := newMock(t)
	repo := NewUserRepository(base)

	user := &model.User{
		Email:        "  Ana@Clinic.Test ",
		PasswordHash: "hash",
		FirstName:    "Ana",
		LastName:     "Ruiz",
		Role:         model.RolePatient,
		IsActive:     true,
		IsNew:        true,
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").
		WithArgs(sqlmock.AnyArg(), "ana@clinic.test", "hash", "Ana", "Ruiz", nil, "PATIENT", true, true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Create(context.Background(), user))
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, "ana@clinic.test", user.Email)
	assert.False(t, user.CreatedAt.IsZero())
}

func TestUserRepository_CreateDuplicate(t *testing.T) {
	base, mock := newMock(t)
	repo := NewUserRepository(base)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &model.User{Email: "a@b.co", Role: model.RolePatient})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestUserRepository_Get(t *testing.T) {
	base, mock := newMock(t)
	repo := NewUserRepository(base)
	id := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM users WHERE id = \\$1").
		WithArgs(id).
		WillReturnRows(userRow(sqlmock.NewRows(userRowColumns), id, "ana@clinic.test", model.RoleSpecialist))

	user, err := repo.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.Equal(t, model.RoleSpecialist, user.Role)
	assert.Nil(t, user.Phone)
	assert.True(t, user.IsNew)
}

func TestUserRepository_GetNotFound(t *testing.T) {
	base, mock := newMock(t)
	repo := NewUserRepository(base)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE LOWER\\(email\\)").
		WithArgs("nobody@clinic.test").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByEmail(context.Background(), " nobody@clinic.test")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepository_Update(t *testing.T) {
	base, mock := newMock(t)
	repo := NewUserRepository(base)
	user := &model.User{Base: model.Base{ID: uuid.New()}, Email: "a@b.co", Role: model.RoleAdmin, IsActive: false}

	mock.ExpectExec("UPDATE users SET").
		WithArgs("a@b.co", "", "", "", nil, "ADMIN", false, false, nil, sqlmock.AnyArg(), user.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Update(context.Background(), user))

	mock.ExpectExec("UPDATE users SET").WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.Update(context.Background(), user)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepository_UpdateLastLogin(t *testing.T) {
	base, mock := newMock(t)
	repo := NewUserRepository(base)
	id := uuid.New()
	at := time.Now()

	mock.ExpectExec("UPDATE users SET last_login_at").WithArgs(at, id).WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.UpdateLastLogin(context.Background(), id, at))
}

func TestUserRepository_List(t *testing.T) {
	base, mock := newMock(t)
	repo := NewUserRepository(base)
	active := true

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM users WHERE role = \\$1 AND is_active = \\$2 AND \\(email ILIKE \\$3").
		WithArgs("SPECIALIST", true, "%ana%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	rows := userRow(sqlmock.NewRows(userRowColumns), uuid.New(), "ana@clinic.test", model.RoleSpecialist)
	mock.ExpectQuery("ORDER BY created_at DESC LIMIT \\$4 OFFSET \\$5").
		WithArgs("SPECIALIST", true, "%ana%", 10, 10).
		WillReturnRows(rows)

	users, total, err := repo.List(context.Background(), &model.UserFilter{
		Pagination: model.Pagination{Page: 2, PageSize: 10},
		Role:       model.RoleSpecialist,
		Active:     &active,
		Search:     "ana",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, users, 1)
	assert.Equal(t, "ana@clinic.test", users[0].Email)
}

func TestUserRepository_ListNoFilter(t *testing.T) {
	base, mock := newMock(t)
	repo := NewUserRepository(base)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM users$").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("LIMIT \\$1 OFFSET \\$2").WithArgs(20, 0).WillReturnRows(sqlmock.NewRows(userRowColumns))

	users, total, err := repo.List(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, users)
}
