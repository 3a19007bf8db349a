package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/userhub/userhub-go/internal/crypto"
	"github.com/userhub/userhub-go/internal/registry/model"
	"github.com/userhub/userhub-go/internal/registry/repository"
	"github.com/userhub/userhub-go/internal/validate"
)

func setupService(t *testing.T) (*UserService, *sql.DB) {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1) // each in-memory sqlite connection is its own database
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE users (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  email TEXT NOT NULL UNIQUE,
  username TEXT NOT NULL UNIQUE,
  hashed_password TEXT NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  street_address TEXT NOT NULL,
  city TEXT NOT NULL,
  state TEXT NOT NULL,
  country TEXT NOT NULL,
  postal_code TEXT NOT NULL,
  created_at TIMESTAMP NOT NULL,
  updated_at TIMESTAMP NULL
);
`)
	require.NoError(t, err)

	return NewUserService(repository.NewUserRepository(db)), db
}

func createReq(email, username string) model.CreateUserRequest {
	return model.CreateUserRequest{
		Email:         email,
		Username:      username,
		Password:      "Passw0rd!",
		StreetAddress: "1 Main St",
		City:          "Metropolis",
		State:         "NY",
		Country:       "US",
		PostalCode:    "10001",
	}
}

func strPtr(s string) *string { return &s }

func TestCreate_Success(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	resp, err := svc.Create(ctx, createReq("a@x.com", "alice"))
	require.NoError(t, err)

	assert.NotZero(t, resp.ID)
	assert.Equal(t, "a@x.com", resp.Email)
	assert.Equal(t, "alice", resp.Username)
	assert.True(t, resp.IsActive)
	assert.Equal(t, "1 Main St", resp.StreetAddress)
	assert.Equal(t, "10001", resp.PostalCode)
	assert.False(t, resp.CreatedAt.IsZero())
	assert.Nil(t, resp.UpdatedAt)

	// The raw password is never persisted; the stored digest verifies it.
	var digest string
	require.NoError(t, db.QueryRow(`SELECT hashed_password FROM users WHERE id = ?`, resp.ID).Scan(&digest))
	assert.NotEqual(t, "Passw0rd!", digest)
	assert.True(t, crypto.VerifyPassword("Passw0rd!", digest))
}

func TestCreate_ResponseOmitsPassword(t *testing.T) {
	svc, _ := setupService(t)

	resp, err := svc.Create(context.Background(), createReq("a@x.com", "alice"))
	require.NoError(t, err)

	raw, err := json.Marshal(resp)
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(raw, &payload))
	assert.NotContains(t, payload, "password")
	assert.NotContains(t, payload, "hashed_password")
	assert.NotContains(t, payload, "updated_at")
}

func TestCreate_DuplicateEmail(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, createReq("a@x.com", "alice"))
	require.NoError(t, err)

	// Same email, different username: the email check wins.
	_, err = svc.Create(ctx, createReq("a@x.com", "bob"))
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestCreate_DuplicateUsername(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, createReq("a@x.com", "alice"))
	require.NoError(t, err)

	_, err = svc.Create(ctx, createReq("b@x.com", "alice"))
	require.ErrorIs(t, err, ErrUsernameTaken)
}

func TestCreate_ValidationRejectedBeforeStore(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	req := createReq("a@x.com", "alice")
	req.Password = "weak"
	_, err := svc.Create(ctx, req)

	var fieldErr *validate.FieldError
	require.ErrorAs(t, err, &fieldErr)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&n))
	assert.Zero(t, n, "invalid input must not reach the store")
}

func TestCreate_TrimsAddressFields(t *testing.T) {
	svc, _ := setupService(t)

	req := createReq("a@x.com", "alice")
	req.City = "  Metropolis  "
	resp, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Metropolis", resp.City)
}

func TestUpdate_SparseDocument(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, createReq("a@x.com", "alice"))
	require.NoError(t, err)

	resp, err := svc.Update(ctx, created.ID, model.UpdateUserRequest{City: strPtr("Gotham")})
	require.NoError(t, err)

	assert.Equal(t, "Gotham", resp.City)
	// Unsupplied fields keep their pre-update values.
	assert.Equal(t, "a@x.com", resp.Email)
	assert.Equal(t, "alice", resp.Username)
	assert.Equal(t, "1 Main St", resp.StreetAddress)
	assert.Equal(t, "NY", resp.State)
	assert.True(t, resp.IsActive)
	require.NotNil(t, resp.UpdatedAt)
	assert.False(t, resp.UpdatedAt.Before(resp.CreatedAt))
}

func TestUpdate_EmailTakenByOther(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, createReq("a@x.com", "alice"))
	require.NoError(t, err)
	bob, err := svc.Create(ctx, createReq("b@x.com", "bob"))
	require.NoError(t, err)

	_, err = svc.Update(ctx, bob.ID, model.UpdateUserRequest{Email: strPtr("a@x.com")})
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestUpdate_OwnEmailIsNoOp(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, createReq("a@x.com", "alice"))
	require.NoError(t, err)

	resp, err := svc.Update(ctx, created.ID, model.UpdateUserRequest{Email: strPtr("a@x.com")})
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", resp.Email)
}

func TestUpdate_UsernameTakenByOther(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, createReq("a@x.com", "alice"))
	require.NoError(t, err)
	bob, err := svc.Create(ctx, createReq("b@x.com", "bob"))
	require.NoError(t, err)

	_, err = svc.Update(ctx, bob.ID, model.UpdateUserRequest{Username: strPtr("alice")})
	require.ErrorIs(t, err, ErrUsernameTaken)
}

func TestUpdate_PasswordRehashed(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, createReq("a@x.com", "alice"))
	require.NoError(t, err)

	_, err = svc.Update(ctx, created.ID, model.UpdateUserRequest{Password: strPtr("NewPassw0rd!")})
	require.NoError(t, err)

	var digest string
	require.NoError(t, db.QueryRow(`SELECT hashed_password FROM users WHERE id = ?`, created.ID).Scan(&digest))
	assert.True(t, crypto.VerifyPassword("NewPassw0rd!", digest))
	assert.False(t, crypto.VerifyPassword("Passw0rd!", digest))
}

func TestUpdate_IsActive(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, createReq("a@x.com", "alice"))
	require.NoError(t, err)

	inactive := false
	resp, err := svc.Update(ctx, created.ID, model.UpdateUserRequest{IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, resp.IsActive)
}

func TestUpdate_InvalidFieldRejected(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, createReq("a@x.com", "alice"))
	require.NoError(t, err)

	_, err = svc.Update(ctx, created.ID, model.UpdateUserRequest{PostalCode: strPtr("abc")})
	var fieldErr *validate.FieldError
	require.ErrorAs(t, err, &fieldErr)
}

func TestUpdate_NotFound(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.Update(context.Background(), 999, model.UpdateUserRequest{City: strPtr("Gotham")})
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestGet_NotFound(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.Get(context.Background(), 999)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestDelete_ThenGetNotFound(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, createReq("a@x.com", "alice"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))

	_, err = svc.Get(ctx, created.ID)
	require.ErrorIs(t, err, ErrUserNotFound)

	require.ErrorIs(t, svc.Delete(ctx, created.ID), ErrUserNotFound)
}

func TestList_CityFilter(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, createReq("a@x.com", "alice"))
	require.NoError(t, err)
	reqB := createReq("b@x.com", "bob")
	reqB.City = "Gotham"
	_, err = svc.Create(ctx, reqB)
	require.NoError(t, err)

	metropolis, err := svc.List(ctx, model.ListUsersFilter{Limit: 100, City: "Metropolis"})
	require.NoError(t, err)
	require.Len(t, metropolis, 1)
	assert.Equal(t, "alice", metropolis[0].Username)

	none, err := svc.List(ctx, model.ListUsersFilter{Limit: 100, City: "Atlantis"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestList_InvalidPagination(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.List(ctx, model.ListUsersFilter{Skip: -1, Limit: 10})
	require.ErrorIs(t, err, ErrInvalidPagination)

	_, err = svc.List(ctx, model.ListUsersFilter{Limit: 0})
	require.ErrorIs(t, err, ErrInvalidPagination)

	_, err = svc.List(ctx, model.ListUsersFilter{Limit: 101})
	require.ErrorIs(t, err, ErrInvalidPagination)
}
