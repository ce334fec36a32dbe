package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"renTrentoBack/internal/models"
	"renTrentoBack/internal/repositories/memstore"
	"renTrentoBack/utils"
)

func newUserService(t *testing.T) *UserService {
	t.Helper()
	tokens, err := utils.NewManager("test-secret")
	require.NoError(t, err)
	return NewUserService(memstore.New(), tokens, time.Hour)
}

func signUp(t *testing.T, s *UserService, name string) models.User {
	t.Helper()
	u, err := s.SignUp(context.Background(), nil, SignUpInput{UserName: name, Email: name + "@example.com", Password: "pw-" + name})
	require.NoError(t, err)
	return u
}

func TestSignUp(t *testing.T) {
	s := newUserService(t)
	ctx := context.Background()

	u, err := s.SignUp(ctx, nil, SignUpInput{UserName: "anna", Email: "anna@example.com", Password: "secret", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, u.Role, "anonymous sign up cannot pick a role")
	assert.True(t, u.Wallet.IsZero())
	assert.NotEqual(t, "secret", u.Password)

	admin := models.Principal{ID: "root", Role: models.RoleAdmin}
	boss, err := s.SignUp(ctx, &admin, SignUpInput{UserName: "boss", Email: "boss@example.com", Password: "x", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, boss.Role)

	tests := []struct {
		name string
		in   SignUpInput
		want error
	}{
		{"bad email", SignUpInput{UserName: "b", Email: "nope", Password: "x"}, models.ErrInvalidEmail},
		{"missing email", SignUpInput{UserName: "b", Password: "x"}, models.ErrInvalidEmail},
		{"missing user name", SignUpInput{Email: "b@example.com", Password: "x"}, models.ErrUserNameRequired},
		{"missing password", SignUpInput{UserName: "b", Email: "b@example.com"}, models.ErrPasswordRequired},
		{"taken user name", SignUpInput{UserName: "anna", Email: "other@example.com", Password: "x"}, models.ErrDuplicateUserName},
		{"taken email", SignUpInput{UserName: "other", Email: "anna@example.com", Password: "x"}, models.ErrDuplicateEmail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.SignUp(ctx, nil, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err = s.SignUp(ctx, &admin, SignUpInput{UserName: "x", Email: "x@example.com", Password: "x", Role: "root"})
	assert.ErrorIs(t, err, models.ErrInvalidRole)
}

func TestAuthenticate(t *testing.T) {
	s := newUserService(t)
	ctx := context.Background()
	u := signUp(t, s, "anna")

	resp, err := s.Authenticate(ctx, "anna@example.com", "pw-anna")
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "Authenticated", resp.Message)
	assert.Equal(t, u.ID, resp.ID)
	assert.Equal(t, "/renTrentoAPI/users/"+u.ID, resp.Self)

	claims, err := s.TokenManager.Parse(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.ID)
	assert.Equal(t, models.RoleUser, claims.Role)

	_, err = s.Authenticate(ctx, "ghost@example.com", "pw")
	assert.ErrorIs(t, err, models.ErrAuthUserNotFound)
	_, err = s.Authenticate(ctx, "anna@example.com", "wrong")
	assert.ErrorIs(t, err, models.ErrAuthWrongPassword)
}

func TestUpdateUser(t *testing.T) {
	s := newUserService(t)
	ctx := context.Background()
	anna := signUp(t, s, "anna")
	bob := signUp(t, s, "bob")
	self := models.Principal{ID: anna.ID, Role: models.RoleUser}
	admin := models.Principal{ID: "root", Role: models.RoleAdmin}

	name := "anna2"
	updated, err := s.UpdateUser(ctx, self, anna.ID, models.UserUpdate{UserName: &name})
	require.NoError(t, err)
	assert.Equal(t, "anna2", updated.UserName)

	_, err = s.UpdateUser(ctx, self, bob.ID, models.UserUpdate{UserName: &name})
	assert.ErrorIs(t, err, models.ErrForbidden)

	role := models.RoleAdmin
	_, err = s.UpdateUser(ctx, self, anna.ID, models.UserUpdate{Role: &role})
	assert.ErrorIs(t, err, models.ErrForbidden)
	promoted, err := s.UpdateUser(ctx, admin, anna.ID, models.UserUpdate{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, promoted.Role)

	taken := "bob@example.com"
	_, err = s.UpdateUser(ctx, self, anna.ID, models.UserUpdate{Email: &taken})
	assert.ErrorIs(t, err, models.ErrDuplicateEmail)

	password := "new-pass"
	_, err = s.UpdateUser(ctx, self, anna.ID, models.UserUpdate{Password: &password})
	require.NoError(t, err)
	_, err = s.Authenticate(ctx, "anna@example.com", "new-pass")
	assert.NoError(t, err)

	_, err = s.UpdateUser(ctx, admin, "missing", models.UserUpdate{})
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}

func TestDeleteUser(t *testing.T) {
	s := newUserService(t)
	ctx := context.Background()
	anna := signUp(t, s, "anna")
	bob := signUp(t, s, "bob")

	assert.ErrorIs(t, s.DeleteUser(ctx, models.Principal{ID: bob.ID}, anna.ID), models.ErrForbidden)
	require.NoError(t, s.DeleteUser(ctx, models.Principal{ID: anna.ID}, anna.ID))
	_, err := s.GetUser(ctx, anna.ID)
	assert.ErrorIs(t, err, models.ErrUserNotFound)
	assert.ErrorIs(t, s.DeleteUser(ctx, models.Principal{Role: models.RoleAdmin}, anna.ID), models.ErrUserNotFound)
}

func TestTopUpAndHistory(t *testing.T) {
	s := newUserService(t)
	ctx := context.Background()
	anna := signUp(t, s, "anna")
	admin := models.Principal{ID: "root", Role: models.RoleAdmin}
	self := models.Principal{ID: anna.ID, Role: models.RoleUser}

	_, err := s.TopUp(ctx, self, anna.ID, decimal.NewFromInt(10))
	assert.ErrorIs(t, err, models.ErrForbidden)
	_, err = s.TopUp(ctx, admin, anna.ID, decimal.Zero)
	assert.ErrorIs(t, err, models.ErrInvalidAmount)
	_, err = s.TopUp(ctx, admin, "missing", decimal.NewFromInt(10))
	assert.ErrorIs(t, err, models.ErrUserNotFound)

	u, err := s.TopUp(ctx, admin, anna.ID, decimal.RequireFromString("25.50"))
	require.NoError(t, err)
	assert.True(t, u.Wallet.Equal(decimal.RequireFromString("25.5")))

	history, err := s.WalletHistory(ctx, self, anna.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.LedgerTopUp, history[0].Kind)

	_, err = s.WalletHistory(ctx, models.Principal{ID: "someone"}, anna.ID)
	assert.ErrorIs(t, err, models.ErrForbidden)
}
