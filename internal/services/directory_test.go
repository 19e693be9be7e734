package services

import (
	"context"
	"testing"

	"github.com/gatewarden/gatewarden/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConnectionDirectoryForTest(grants *memoryGrants) (*Directory[*models.Connection], *memoryConnectionStore) {
	store := newMemoryConnectionStore()
	directory := NewDirectory(models.KindConnection, ObjectStore[*models.Connection](store),
		grants.permissionService(), testLogger(), testAuditLogger())
	return directory, store
}

func TestDirectory_Get_InvisibleObjectIsNotFound(t *testing.T) {
	grants := newMemoryGrants()
	directory, store := newConnectionDirectoryForTest(grants)
	ctx := context.Background()

	connection, err := store.Create(ctx, &models.Connection{Name: "web", Protocol: "rdp"})
	require.NoError(t, err)

	// Existing but unreadable must be indistinguishable from nonexistent.
	_, err = directory.Get(ctx, "alice", connection.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = directory.Get(ctx, "alice", "no-such-id")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDirectory_Get_ReadGrantMakesVisible(t *testing.T) {
	grants := newMemoryGrants()
	directory, store := newConnectionDirectoryForTest(grants)
	ctx := context.Background()

	connection, err := store.Create(ctx, &models.Connection{Name: "web", Protocol: "rdp"})
	require.NoError(t, err)
	grants.grantObject("alice", models.KindConnection,
		models.ObjectPermission{Type: models.ObjectRead, Identifier: connection.ID})

	got, err := directory.Get(ctx, "alice", connection.ID)
	require.NoError(t, err)
	assert.Equal(t, "web", got.Name)
}

func TestDirectory_Get_AdministratorSeesEverything(t *testing.T) {
	grants := newMemoryGrants()
	grants.grantSystem("admin", models.SystemAdminister)
	directory, store := newConnectionDirectoryForTest(grants)
	ctx := context.Background()

	connection, err := store.Create(ctx, &models.Connection{Name: "web", Protocol: "rdp"})
	require.NoError(t, err)

	got, err := directory.Get(ctx, "admin", connection.ID)
	require.NoError(t, err)
	assert.Equal(t, connection.ID, got.ID)

	// Truly missing objects are still missing, even for administrators.
	_, err = directory.Get(ctx, "admin", "no-such-id")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDirectory_Identifiers_FilteredByReadability(t *testing.T) {
	grants := newMemoryGrants()
	directory, store := newConnectionDirectoryForTest(grants)
	ctx := context.Background()

	first, err := store.Create(ctx, &models.Connection{Name: "web", Protocol: "rdp"})
	require.NoError(t, err)
	_, err = store.Create(ctx, &models.Connection{Name: "db", Protocol: "ssh"})
	require.NoError(t, err)

	grants.grantObject("alice", models.KindConnection,
		models.ObjectPermission{Type: models.ObjectRead, Identifier: first.ID})

	identifiers, err := directory.Identifiers(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{first.ID}, identifiers)
}

func TestDirectory_Identifiers_AdministratorSeesAll(t *testing.T) {
	grants := newMemoryGrants()
	grants.grantSystem("admin", models.SystemAdminister)
	directory, store := newConnectionDirectoryForTest(grants)
	ctx := context.Background()

	_, err := store.Create(ctx, &models.Connection{Name: "web", Protocol: "rdp"})
	require.NoError(t, err)
	_, err = store.Create(ctx, &models.Connection{Name: "db", Protocol: "ssh"})
	require.NoError(t, err)

	identifiers, err := directory.Identifiers(ctx, "admin")
	require.NoError(t, err)
	assert.Len(t, identifiers, 2)
}

func TestDirectory_GetMultiple_OmitsInaccessible(t *testing.T) {
	grants := newMemoryGrants()
	directory, store := newConnectionDirectoryForTest(grants)
	ctx := context.Background()

	first, err := store.Create(ctx, &models.Connection{Name: "web", Protocol: "rdp"})
	require.NoError(t, err)
	second, err := store.Create(ctx, &models.Connection{Name: "db", Protocol: "ssh"})
	require.NoError(t, err)

	grants.grantObject("alice", models.KindConnection,
		models.ObjectPermission{Type: models.ObjectRead, Identifier: first.ID})

	connections, err := directory.GetMultiple(ctx, "alice", []string{first.ID, second.ID, "no-such-id"})
	require.NoError(t, err)
	require.Len(t, connections, 1)
	assert.Equal(t, first.ID, connections[0].ID)
}

func TestDirectory_Add_RequiresCreatePermission(t *testing.T) {
	grants := newMemoryGrants()
	directory, store := newConnectionDirectoryForTest(grants)

	_, err := directory.Add(context.Background(), "alice", &models.Connection{Name: "web", Protocol: "rdp"})

	assert.ErrorIs(t, err, models.ErrPermissionDenied)
	assert.Empty(t, store.connections)
}

func TestDirectory_Add_CreatorReceivesFullGrants(t *testing.T) {
	grants := newMemoryGrants()
	grants.grantSystem("alice", models.SystemCreateConnection)
	directory, _ := newConnectionDirectoryForTest(grants)
	ctx := context.Background()

	created, err := directory.Add(ctx, "alice", &models.Connection{Name: "web", Protocol: "rdp"})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	// The creator can immediately see and manage the new object.
	got, err := directory.Get(ctx, "alice", created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	got.Name = "web-frontend"
	_, err = directory.Update(ctx, "alice", got)
	require.NoError(t, err)

	require.NoError(t, directory.Remove(ctx, "alice", created.ID))
}

func TestDirectory_Add_AdministratorBypassesCreatePermission(t *testing.T) {
	grants := newMemoryGrants()
	grants.grantSystem("admin", models.SystemAdminister)
	directory, _ := newConnectionDirectoryForTest(grants)

	created, err := directory.Add(context.Background(), "admin", &models.Connection{Name: "web", Protocol: "rdp"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
}

func TestDirectory_Update_ReadWithoutUpdateIsDenied(t *testing.T) {
	grants := newMemoryGrants()
	directory, store := newConnectionDirectoryForTest(grants)
	ctx := context.Background()

	connection, err := store.Create(ctx, &models.Connection{Name: "web", Protocol: "rdp"})
	require.NoError(t, err)
	grants.grantObject("alice", models.KindConnection,
		models.ObjectPermission{Type: models.ObjectRead, Identifier: connection.ID})

	connection.Name = "renamed"
	_, err = directory.Update(ctx, "alice", connection)

	assert.ErrorIs(t, err, models.ErrPermissionDenied)
}

func TestDirectory_Update_InvisibleObjectIsNotFound(t *testing.T) {
	grants := newMemoryGrants()
	directory, store := newConnectionDirectoryForTest(grants)
	ctx := context.Background()

	connection, err := store.Create(ctx, &models.Connection{Name: "web", Protocol: "rdp"})
	require.NoError(t, err)

	connection.Name = "renamed"
	_, err = directory.Update(ctx, "alice", connection)

	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDirectory_Remove_RequiresDeletePermission(t *testing.T) {
	grants := newMemoryGrants()
	directory, store := newConnectionDirectoryForTest(grants)
	ctx := context.Background()

	connection, err := store.Create(ctx, &models.Connection{Name: "web", Protocol: "rdp"})
	require.NoError(t, err)
	grants.grantObject("alice", models.KindConnection,
		models.ObjectPermission{Type: models.ObjectRead, Identifier: connection.ID})

	err = directory.Remove(ctx, "alice", connection.ID)

	assert.ErrorIs(t, err, models.ErrPermissionDenied)
}

func TestDirectory_Remove_RevokesAllGrantsOverObject(t *testing.T) {
	grants := newMemoryGrants()
	grants.grantSystem("admin", models.SystemAdminister)
	directory, store := newConnectionDirectoryForTest(grants)
	ctx := context.Background()

	connection, err := store.Create(ctx, &models.Connection{Name: "web", Protocol: "rdp"})
	require.NoError(t, err)
	grants.grantObject("bob", models.KindConnection,
		models.ObjectPermission{Type: models.ObjectRead, Identifier: connection.ID})

	require.NoError(t, directory.Remove(ctx, "admin", connection.ID))

	assert.Empty(t, grants.object["bob"][models.KindConnection])
}

func TestDirectory_ActiveConnections_AddIsDeniedEvenForAdministrators(t *testing.T) {
	grants := newMemoryGrants()
	grants.grantSystem("admin", models.SystemAdminister)
	directory := NewDirectory(models.KindActiveConnection,
		ObjectStore[*models.ActiveConnection](activeConnectionStore{repo: nil}),
		grants.permissionService(), testLogger(), testAuditLogger())

	_, err := directory.Add(context.Background(), "admin", &models.ActiveConnection{ConnectionID: "c1", Username: "bob"})

	assert.ErrorIs(t, err, models.ErrPermissionDenied)
}
