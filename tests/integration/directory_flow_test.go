package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalauth "github.com/gatewarden/gatewarden/internal/auth"
	"github.com/gatewarden/gatewarden/internal/models"
	"github.com/gatewarden/gatewarden/internal/services"
)

const testSecret = "integration-test-secret-0123456789abcdef"

func TestDirectoryFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	testDB, err := SetupTestDatabase(ctx)
	require.NoError(t, err)
	defer testDB.Teardown(ctx)

	userRepo, systemRepo, objectRepo, connectionRepo := InitializeRepositories(testDB.DB)

	logger := discardLogger()
	auditLogger := discardAuditLogger()

	permissionService := services.NewPermissionService(systemRepo, objectRepo, logger, auditLogger)
	credentialService := services.NewCredentialService(userRepo, logger, auditLogger)
	userService := services.NewUserService(userRepo, permissionService, credentialService, logger, auditLogger)
	tokenManager := internalauth.NewTokenManager(testSecret, time.Hour)
	authService := services.NewAuthService(userRepo, tokenManager, logger, auditLogger)
	connectionDirectory := services.NewConnectionDirectory(connectionRepo, permissionService, logger, auditLogger)

	t.Run("user repository round trip", func(t *testing.T) {
		require.NoError(t, testDB.CleanupTables(ctx))

		created, err := SeedUser(ctx, userRepo, "roundtrip", "password1")
		require.NoError(t, err)
		assert.Equal(t, "roundtrip", created.Username)

		fetched, err := userRepo.GetByUsername(ctx, "roundtrip")
		require.NoError(t, err)
		assert.Equal(t, created.PasswordSalt, fetched.PasswordSalt)
		assert.Equal(t, created.PasswordHash, fetched.PasswordHash)
		assert.False(t, fetched.Disabled)

		fetched.Disabled = true
		tz := "America/New_York"
		fetched.TimeZone = &tz
		updated, err := userRepo.Update(ctx, fetched)
		require.NoError(t, err)
		assert.True(t, updated.Disabled)
		require.NotNil(t, updated.TimeZone)
		assert.Equal(t, "America/New_York", *updated.TimeZone)

		require.NoError(t, userRepo.Delete(ctx, "roundtrip"))

		_, err = userRepo.GetByUsername(ctx, "roundtrip")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("duplicate username conflicts", func(t *testing.T) {
		require.NoError(t, testDB.CleanupTables(ctx))

		_, err := SeedUser(ctx, userRepo, "dupe", "password1")
		require.NoError(t, err)

		_, err = SeedUser(ctx, userRepo, "dupe", "password2")
		assert.ErrorIs(t, err, models.ErrConflict)
	})

	t.Run("accessible identifiers filter against real grants", func(t *testing.T) {
		require.NoError(t, testDB.CleanupTables(ctx))

		_, err := SeedAdministrator(ctx, userRepo, systemRepo, "admin", "adminpass")
		require.NoError(t, err)
		_, err = SeedUser(ctx, userRepo, "viewer", "viewerpass")
		require.NoError(t, err)

		first, err := connectionDirectory.Add(ctx, "admin", &models.Connection{Name: "first", Protocol: "ssh"})
		require.NoError(t, err)
		second, err := connectionDirectory.Add(ctx, "admin", &models.Connection{Name: "second", Protocol: "vnc"})
		require.NoError(t, err)

		// Nothing granted yet, the viewer sees an empty directory.
		visible, err := connectionDirectory.Identifiers(ctx, "viewer")
		require.NoError(t, err)
		assert.Empty(t, visible)

		grants := permissionService.ObjectPermissions("admin", "viewer", models.KindConnection)
		require.NoError(t, grants.AddPermissions(ctx, models.ObjectPermission{Type: models.ObjectRead, Identifier: first.ID}))

		visible, err = connectionDirectory.Identifiers(ctx, "viewer")
		require.NoError(t, err)
		assert.Equal(t, []string{first.ID}, visible)

		_, err = connectionDirectory.Get(ctx, "viewer", second.ID)
		assert.ErrorIs(t, err, models.ErrNotFound)

		// The creator holds full grants and the bypass covers everything.
		adminVisible, err := connectionDirectory.Identifiers(ctx, "admin")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{first.ID, second.ID}, adminVisible)
	})

	t.Run("removing an object revokes its grants", func(t *testing.T) {
		require.NoError(t, testDB.CleanupTables(ctx))

		_, err := SeedAdministrator(ctx, userRepo, systemRepo, "admin", "adminpass")
		require.NoError(t, err)
		_, err = SeedUser(ctx, userRepo, "viewer", "viewerpass")
		require.NoError(t, err)

		conn, err := connectionDirectory.Add(ctx, "admin", &models.Connection{Name: "ephemeral", Protocol: "rdp"})
		require.NoError(t, err)

		grants := permissionService.ObjectPermissions("admin", "viewer", models.KindConnection)
		require.NoError(t, grants.AddPermissions(ctx, models.ObjectPermission{Type: models.ObjectRead, Identifier: conn.ID}))

		require.NoError(t, connectionDirectory.Remove(ctx, "admin", conn.ID))

		remaining, err := grants.Permissions(ctx)
		require.NoError(t, err)
		assert.Empty(t, remaining)
	})

	t.Run("user service creates accounts with creator grants", func(t *testing.T) {
		require.NoError(t, testDB.CleanupTables(ctx))

		_, err := SeedAdministrator(ctx, userRepo, systemRepo, "admin", "adminpass")
		require.NoError(t, err)

		password := "newpassword"
		created, err := userService.CreateUser(ctx, "admin", &models.User{Username: "newhire"}, &password)
		require.NoError(t, err)
		assert.NotEmpty(t, created.PasswordSalt)

		// The fresh credential authenticates.
		_, err = authService.AuthenticateUser(ctx, services.Credentials{Username: "newhire", Password: "newpassword"})
		require.NoError(t, err)

		// Creator grants let the admin manage the account without the bypass.
		grants := permissionService.ObjectPermissions("admin", "admin", models.KindUser)
		held, err := grants.HasPermission(ctx, models.ObjectUpdate, "newhire")
		require.NoError(t, err)
		assert.True(t, held)
	})

	t.Run("login and self service rotation", func(t *testing.T) {
		require.NoError(t, testDB.CleanupTables(ctx))

		_, err := SeedUser(ctx, userRepo, "rotator", "oldpassword")
		require.NoError(t, err)

		resp, err := authService.Login(ctx, "rotator", "oldpassword")
		require.NoError(t, err)
		assert.NotEmpty(t, resp.AccessToken)

		newPassword := "newpassword"
		require.NoError(t, userService.ChangePassword(ctx, authService, "rotator", "oldpassword", &newPassword))

		_, err = authService.Login(ctx, "rotator", "oldpassword")
		assert.ErrorIs(t, err, models.ErrUnauthorized)

		_, err = authService.Login(ctx, "rotator", "newpassword")
		require.NoError(t, err)
	})

	t.Run("expired credential can still rotate", func(t *testing.T) {
		require.NoError(t, testDB.CleanupTables(ctx))

		user, err := SeedUser(ctx, userRepo, "forced", "initial")
		require.NoError(t, err)
		user.Expired = true
		_, err = userRepo.Update(ctx, user)
		require.NoError(t, err)

		_, err = authService.Login(ctx, "forced", "initial")
		assert.ErrorIs(t, err, models.ErrUnauthorized)

		replacement := "replacement"
		require.NoError(t, userService.ChangePassword(ctx, authService, "forced", "initial", &replacement))

		// Rotation satisfied the forced reset, login works again.
		_, err = authService.Login(ctx, "forced", "replacement")
		require.NoError(t, err)
	})

	t.Run("disabled account rejected with uniform error", func(t *testing.T) {
		require.NoError(t, testDB.CleanupTables(ctx))

		user, err := SeedUser(ctx, userRepo, "locked", "password1")
		require.NoError(t, err)
		user.Disabled = true
		_, err = userRepo.Update(ctx, user)
		require.NoError(t, err)

		_, err = authService.Login(ctx, "locked", "password1")
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	})

	t.Run("administrative reset replaces credential", func(t *testing.T) {
		require.NoError(t, testDB.CleanupTables(ctx))

		_, err := SeedAdministrator(ctx, userRepo, systemRepo, "admin", "adminpass")
		require.NoError(t, err)
		_, err = SeedUser(ctx, userRepo, "target", "original")
		require.NoError(t, err)

		replacement := "resetvalue"
		require.NoError(t, userService.ResetPassword(ctx, "admin", "target", &replacement))

		_, err = authService.Login(ctx, "target", "original")
		assert.ErrorIs(t, err, models.ErrUnauthorized)
		_, err = authService.Login(ctx, "target", "resetvalue")
		require.NoError(t, err)

		// Clearing the credential leaves the account unable to log in.
		require.NoError(t, userService.ResetPassword(ctx, "admin", "target", nil))
		_, err = authService.Login(ctx, "target", "resetvalue")
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	})

	t.Run("deleting a user removes their grants", func(t *testing.T) {
		require.NoError(t, testDB.CleanupTables(ctx))

		_, err := SeedAdministrator(ctx, userRepo, systemRepo, "admin", "adminpass")
		require.NoError(t, err)
		_, err = SeedUser(ctx, userRepo, "leaver", "password1")
		require.NoError(t, err)

		conn, err := connectionDirectory.Add(ctx, "admin", &models.Connection{Name: "shared", Protocol: "ssh"})
		require.NoError(t, err)

		grants := permissionService.ObjectPermissions("admin", "leaver", models.KindConnection)
		require.NoError(t, grants.AddPermissions(ctx, models.ObjectPermission{Type: models.ObjectRead, Identifier: conn.ID}))

		require.NoError(t, userService.DeleteUser(ctx, "admin", "leaver"))

		perms, err := objectRepo.SelectAll(ctx, "leaver", models.KindConnection)
		require.NoError(t, err)
		assert.Empty(t, perms)
	})
}

func TestTokenRoundTrip(t *testing.T) {
	tokenManager := internalauth.NewTokenManager(testSecret, time.Hour)

	token, err := tokenManager.GenerateAccessToken("alice")
	require.NoError(t, err)

	claims, err := tokenManager.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)

	other := internalauth.NewTokenManager("a-different-secret-0123456789abcdef", time.Hour)
	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}
