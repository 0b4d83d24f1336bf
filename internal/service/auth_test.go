package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platebook/backend/internal/service"
	"github.com/platebook/backend/internal/testhelpers"
)

func newAuthService(t *testing.T) *service.AuthService {
	t.Helper()
	db := testhelpers.SetupTestDatabase(t)
	return service.NewAuthService(db, "test-secret", &testhelpers.MemoryBlacklist{})
}

func registerInput(username string) service.RegisterInput {
	return service.RegisterInput{
		Email:     username + "@example.com",
		Username:  username,
		FirstName: "Test",
		LastName:  "User",
		Password:  "long-enough-password",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	auth := newAuthService(t)

	user, err := auth.Register(context.Background(), registerInput("alice"))
	require.NoError(t, err)
	assert.NotEqual(t, "long-enough-password", user.PasswordHash)

	token, err := auth.Login(context.Background(), "alice@example.com", "long-enough-password")
	require.NoError(t, err)

	claims, err := auth.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.NotEmpty(t, claims.JTI)
}

func TestLoginEmailIsCaseInsensitive(t *testing.T) {
	auth := newAuthService(t)

	_, err := auth.Register(context.Background(), registerInput("alice"))
	require.NoError(t, err)

	_, err = auth.Login(context.Background(), "ALICE@Example.COM", "long-enough-password")
	assert.NoError(t, err)
}

func TestLoginWrongPassword(t *testing.T) {
	auth := newAuthService(t)

	_, err := auth.Register(context.Background(), registerInput("alice"))
	require.NoError(t, err)

	_, err = auth.Login(context.Background(), "alice@example.com", "wrong-password")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, err = auth.Login(context.Background(), "nobody@example.com", "long-enough-password")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestRegisterValidation(t *testing.T) {
	auth := newAuthService(t)

	bad := registerInput("alice")
	bad.Username = "no spaces allowed"
	_, err := auth.Register(context.Background(), bad)
	var verr *service.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "username", verr.Field)

	short := registerInput("bob")
	short.Password = "short"
	_, err = auth.Register(context.Background(), short)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "password", verr.Field)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	auth := newAuthService(t)

	_, err := auth.Register(context.Background(), registerInput("alice"))
	require.NoError(t, err)

	// Same email, different case, different username.
	dup := registerInput("alice2")
	dup.Email = "Alice@Example.com"
	_, err = auth.Register(context.Background(), dup)

	var verr *service.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "email", verr.Field)
	assert.Equal(t, service.ReasonTaken, verr.Reason)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	auth := newAuthService(t)

	_, err := auth.Register(context.Background(), registerInput("alice"))
	require.NoError(t, err)

	dup := registerInput("Alice")
	dup.Email = "other@example.com"
	_, err = auth.Register(context.Background(), dup)

	var verr *service.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "username", verr.Field)
	assert.Equal(t, service.ReasonTaken, verr.Reason)
}

func TestLogoutRevokesToken(t *testing.T) {
	auth := newAuthService(t)

	_, err := auth.Register(context.Background(), registerInput("alice"))
	require.NoError(t, err)

	token, err := auth.Login(context.Background(), "alice@example.com", "long-enough-password")
	require.NoError(t, err)

	claims, err := auth.ValidateToken(context.Background(), token)
	require.NoError(t, err)

	require.NoError(t, auth.Logout(context.Background(), claims))

	_, err = auth.ValidateToken(context.Background(), token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	auth := newAuthService(t)

	_, err := auth.ValidateToken(context.Background(), "not-a-token")
	assert.Error(t, err)
}

func TestChangePassword(t *testing.T) {
	auth := newAuthService(t)

	user, err := auth.Register(context.Background(), registerInput("alice"))
	require.NoError(t, err)

	err = auth.ChangePassword(context.Background(), user.ID, "wrong-current", "another-long-password")
	var verr *service.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "current_password", verr.Field)

	err = auth.ChangePassword(context.Background(), user.ID, "long-enough-password", "another-long-password")
	require.NoError(t, err)

	_, err = auth.Login(context.Background(), "alice@example.com", "long-enough-password")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, err = auth.Login(context.Background(), "alice@example.com", "another-long-password")
	assert.NoError(t, err)
}
