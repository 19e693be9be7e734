package services

import (
	"context"
	"testing"
	"time"

	"github.com/gatewarden/gatewarden/internal/models"
	pkgauth "github.com/gatewarden/gatewarden/pkg/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCredentialServiceForTest(repo UserRepository) *CredentialService {
	return NewCredentialService(repo, testLogger(), testAuditLogger())
}

func TestCredentialService_AssignPassword_ProducesVerifiableDigest(t *testing.T) {
	service := newCredentialServiceForTest(&MockUserRepository{})
	user := &models.User{Username: "alice"}
	password := "correct horse battery staple"

	require.NoError(t, service.AssignPassword(user, &password))

	assert.Len(t, user.PasswordSalt, pkgauth.SaltLength)
	assert.Len(t, user.PasswordHash, pkgauth.DigestLength)
	assert.False(t, user.PasswordDate.IsZero())
	assert.True(t, pkgauth.VerifyPassword(password, user.PasswordSalt, user.PasswordHash))
	assert.False(t, pkgauth.VerifyPassword("wrong", user.PasswordSalt, user.PasswordHash))
}

func TestCredentialService_AssignPassword_FreshSaltEveryTime(t *testing.T) {
	service := newCredentialServiceForTest(&MockUserRepository{})
	password := "same password"

	first := &models.User{Username: "alice"}
	second := &models.User{Username: "alice"}
	require.NoError(t, service.AssignPassword(first, &password))
	require.NoError(t, service.AssignPassword(second, &password))

	assert.NotEqual(t, first.PasswordSalt, second.PasswordSalt)
	assert.NotEqual(t, first.PasswordHash, second.PasswordHash)
}

func TestCredentialService_AssignPassword_NilClearsToUnguessableCredential(t *testing.T) {
	service := newCredentialServiceForTest(&MockUserRepository{})
	user := &models.User{Username: "alice"}

	require.NoError(t, service.AssignPassword(user, nil))

	assert.Len(t, user.PasswordSalt, pkgauth.SaltLength)
	assert.Len(t, user.PasswordHash, pkgauth.DigestLength)

	// The stored digest is random, not derived, so no plaintext matches it.
	assert.False(t, pkgauth.VerifyPassword("", user.PasswordSalt, user.PasswordHash))
	assert.False(t, pkgauth.VerifyPassword("password", user.PasswordSalt, user.PasswordHash))
}

func TestCredentialService_SetPassword_PersistsSaltDigestAndDateTogether(t *testing.T) {
	var gotUsername string
	var gotSalt, gotHash []byte
	var gotDate time.Time

	repo := &MockUserRepository{
		UpdatePasswordFunc: func(ctx context.Context, username string, salt, hash []byte, passwordDate time.Time) error {
			gotUsername = username
			gotSalt = salt
			gotHash = hash
			gotDate = passwordDate
			return nil
		},
	}
	service := newCredentialServiceForTest(repo)
	password := "new password"

	require.NoError(t, service.SetPassword(context.Background(), "alice", &password))

	assert.Equal(t, "alice", gotUsername)
	assert.True(t, pkgauth.VerifyPassword(password, gotSalt, gotHash))
	assert.False(t, gotDate.IsZero())
}

func TestCredentialService_ChangePassword_WrongOldPasswordIsPermissionDenied(t *testing.T) {
	updateCalled := false
	repo := &MockUserRepository{
		UpdatePasswordFunc: func(ctx context.Context, username string, salt, hash []byte, passwordDate time.Time) error {
			updateCalled = true
			return nil
		},
	}
	service := newCredentialServiceForTest(repo)
	authenticator := &stubAuthenticator{err: models.ErrUnauthorized}
	newPassword := "new password"

	err := service.ChangePassword(context.Background(), authenticator, "alice", "wrong old", &newPassword)

	assert.ErrorIs(t, err, models.ErrPermissionDenied)
	assert.False(t, updateCalled)
}

func TestCredentialService_ChangePassword_BlockedAccountIsPermissionDenied(t *testing.T) {
	service := newCredentialServiceForTest(&MockUserRepository{})
	newPassword := "new password"

	// Disabled accounts, accounts outside their validity dates and accounts
	// outside their access window all surface the same way.
	for _, authErr := range []error{
		models.ErrAccountDisabled,
		models.ErrAccountInvalid,
		models.ErrAccountInaccessible,
	} {
		authenticator := &stubAuthenticator{err: authErr}
		err := service.ChangePassword(context.Background(), authenticator, "alice", "old", &newPassword)
		assert.ErrorIs(t, err, models.ErrPermissionDenied)
	}
}

func TestCredentialService_ChangePassword_Success(t *testing.T) {
	var gotSalt, gotHash []byte
	repo := &MockUserRepository{
		UpdatePasswordFunc: func(ctx context.Context, username string, salt, hash []byte, passwordDate time.Time) error {
			gotSalt = salt
			gotHash = hash
			return nil
		},
	}
	service := newCredentialServiceForTest(repo)
	authenticator := &stubAuthenticator{user: &models.User{Username: "alice"}}
	newPassword := "new password"

	err := service.ChangePassword(context.Background(), authenticator, "alice", "old password", &newPassword)

	require.NoError(t, err)
	assert.True(t, pkgauth.VerifyPassword(newPassword, gotSalt, gotHash))
}

func TestCredentialService_ChangePassword_ClearsForcedReset(t *testing.T) {
	var updatedUser *models.User
	repo := &MockUserRepository{
		UpdateFunc: func(ctx context.Context, user *models.User) (*models.User, error) {
			updatedUser = user
			return user, nil
		},
	}
	service := newCredentialServiceForTest(repo)
	authenticator := &stubAuthenticator{
		user: &models.User{Username: "alice", Expired: true},
		err:  models.ErrPasswordExpired,
	}
	newPassword := "new password"

	err := service.ChangePassword(context.Background(), authenticator, "alice", "old password", &newPassword)

	require.NoError(t, err)
	require.NotNil(t, updatedUser)
	assert.False(t, updatedUser.Expired)
}

// stubAuthenticator returns a fixed result for every credential check.
type stubAuthenticator struct {
	user *models.User
	err  error
}

func (a *stubAuthenticator) AuthenticateUser(ctx context.Context, credentials Credentials) (*models.User, error) {
	return a.user, a.err
}
