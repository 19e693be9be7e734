package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/gatewarden/gatewarden/internal/models"
	pkglogger "github.com/gatewarden/gatewarden/pkg/logger"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testAuditLogger() *pkglogger.AuditLogger {
	return pkglogger.NewAuditLogger(testLogger())
}

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	GetByUsernameFunc  func(ctx context.Context, username string) (*models.User, error)
	GetMultipleFunc    func(ctx context.Context, usernames []string) ([]*models.User, error)
	ListFunc           func(ctx context.Context) ([]string, error)
	CreateFunc         func(ctx context.Context, user *models.User) (*models.User, error)
	UpdateFunc         func(ctx context.Context, user *models.User) (*models.User, error)
	UpdatePasswordFunc func(ctx context.Context, username string, salt, hash []byte, passwordDate time.Time) error
	DeleteFunc         func(ctx context.Context, username string) error
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if m.GetByUsernameFunc != nil {
		return m.GetByUsernameFunc(ctx, username)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetMultiple(ctx context.Context, usernames []string) ([]*models.User, error) {
	if m.GetMultipleFunc != nil {
		return m.GetMultipleFunc(ctx, usernames)
	}
	return []*models.User{}, nil
}

func (m *MockUserRepository) List(ctx context.Context) ([]string, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []string{}, nil
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return user, nil
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) (*models.User, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, user)
	}
	return user, nil
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, username string, salt, hash []byte, passwordDate time.Time) error {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(ctx, username, salt, hash, passwordDate)
	}
	return nil
}

func (m *MockUserRepository) Delete(ctx context.Context, username string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, username)
	}
	return nil
}

// MockSystemPermissionRepository implements SystemPermissionRepository for testing
type MockSystemPermissionRepository struct {
	SelectAllFunc func(ctx context.Context, username string) ([]models.SystemPermissionType, error)
	SelectOneFunc func(ctx context.Context, username string, permission models.SystemPermissionType) (bool, error)
	InsertFunc    func(ctx context.Context, username string, permissions []models.SystemPermissionType) error
	DeleteFunc    func(ctx context.Context, username string, permissions []models.SystemPermissionType) error
}

func (m *MockSystemPermissionRepository) SelectAll(ctx context.Context, username string) ([]models.SystemPermissionType, error) {
	if m.SelectAllFunc != nil {
		return m.SelectAllFunc(ctx, username)
	}
	return []models.SystemPermissionType{}, nil
}

func (m *MockSystemPermissionRepository) SelectOne(ctx context.Context, username string, permission models.SystemPermissionType) (bool, error) {
	if m.SelectOneFunc != nil {
		return m.SelectOneFunc(ctx, username, permission)
	}
	return false, nil
}

func (m *MockSystemPermissionRepository) Insert(ctx context.Context, username string, permissions []models.SystemPermissionType) error {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, username, permissions)
	}
	return nil
}

func (m *MockSystemPermissionRepository) Delete(ctx context.Context, username string, permissions []models.SystemPermissionType) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, username, permissions)
	}
	return nil
}

// MockObjectPermissionRepository implements ObjectPermissionRepository for testing
type MockObjectPermissionRepository struct {
	SelectAllFunc                   func(ctx context.Context, username string, kind models.ObjectKind) ([]models.ObjectPermission, error)
	SelectOneFunc                   func(ctx context.Context, username string, kind models.ObjectKind, permission models.ObjectPermissionType, identifier string) (bool, error)
	SelectAccessibleIdentifiersFunc func(ctx context.Context, username string, kind models.ObjectKind, permissions []models.ObjectPermissionType, identifiers []string) ([]string, error)
	InsertFunc                      func(ctx context.Context, username string, kind models.ObjectKind, permissions []models.ObjectPermission) error
	DeleteFunc                      func(ctx context.Context, username string, kind models.ObjectKind, permissions []models.ObjectPermission) error
	DeleteForObjectFunc             func(ctx context.Context, kind models.ObjectKind, identifier string) error
}

func (m *MockObjectPermissionRepository) SelectAll(ctx context.Context, username string, kind models.ObjectKind) ([]models.ObjectPermission, error) {
	if m.SelectAllFunc != nil {
		return m.SelectAllFunc(ctx, username, kind)
	}
	return []models.ObjectPermission{}, nil
}

func (m *MockObjectPermissionRepository) SelectOne(ctx context.Context, username string, kind models.ObjectKind, permission models.ObjectPermissionType, identifier string) (bool, error) {
	if m.SelectOneFunc != nil {
		return m.SelectOneFunc(ctx, username, kind, permission, identifier)
	}
	return false, nil
}

func (m *MockObjectPermissionRepository) SelectAccessibleIdentifiers(ctx context.Context, username string, kind models.ObjectKind, permissions []models.ObjectPermissionType, identifiers []string) ([]string, error) {
	if m.SelectAccessibleIdentifiersFunc != nil {
		return m.SelectAccessibleIdentifiersFunc(ctx, username, kind, permissions, identifiers)
	}
	return []string{}, nil
}

func (m *MockObjectPermissionRepository) Insert(ctx context.Context, username string, kind models.ObjectKind, permissions []models.ObjectPermission) error {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, username, kind, permissions)
	}
	return nil
}

func (m *MockObjectPermissionRepository) Delete(ctx context.Context, username string, kind models.ObjectKind, permissions []models.ObjectPermission) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, username, kind, permissions)
	}
	return nil
}

func (m *MockObjectPermissionRepository) DeleteForObject(ctx context.Context, kind models.ObjectKind, identifier string) error {
	if m.DeleteForObjectFunc != nil {
		return m.DeleteForObjectFunc(ctx, kind, identifier)
	}
	return nil
}

// memoryGrants is an in-memory permission store shared by both grant mocks.
// Tests that exercise the full grant/check/revoke cycle use it instead of
// stubbing each call.
type memoryGrants struct {
	system map[string]map[models.SystemPermissionType]bool
	object map[string]map[models.ObjectKind]map[models.ObjectPermission]bool
}

func newMemoryGrants() *memoryGrants {
	return &memoryGrants{
		system: make(map[string]map[models.SystemPermissionType]bool),
		object: make(map[string]map[models.ObjectKind]map[models.ObjectPermission]bool),
	}
}

func (g *memoryGrants) grantSystem(username string, permissions ...models.SystemPermissionType) {
	if g.system[username] == nil {
		g.system[username] = make(map[models.SystemPermissionType]bool)
	}
	for _, permission := range permissions {
		g.system[username][permission] = true
	}
}

func (g *memoryGrants) grantObject(username string, kind models.ObjectKind, permissions ...models.ObjectPermission) {
	if g.object[username] == nil {
		g.object[username] = make(map[models.ObjectKind]map[models.ObjectPermission]bool)
	}
	if g.object[username][kind] == nil {
		g.object[username][kind] = make(map[models.ObjectPermission]bool)
	}
	for _, permission := range permissions {
		g.object[username][kind][permission] = true
	}
}

func (g *memoryGrants) systemRepo() *MockSystemPermissionRepository {
	return &MockSystemPermissionRepository{
		SelectAllFunc: func(ctx context.Context, username string) ([]models.SystemPermissionType, error) {
			permissions := make([]models.SystemPermissionType, 0)
			for permission := range g.system[username] {
				permissions = append(permissions, permission)
			}
			return permissions, nil
		},
		SelectOneFunc: func(ctx context.Context, username string, permission models.SystemPermissionType) (bool, error) {
			return g.system[username][permission], nil
		},
		InsertFunc: func(ctx context.Context, username string, permissions []models.SystemPermissionType) error {
			g.grantSystem(username, permissions...)
			return nil
		},
		DeleteFunc: func(ctx context.Context, username string, permissions []models.SystemPermissionType) error {
			for _, permission := range permissions {
				delete(g.system[username], permission)
			}
			return nil
		},
	}
}

func (g *memoryGrants) objectRepo() *MockObjectPermissionRepository {
	return &MockObjectPermissionRepository{
		SelectAllFunc: func(ctx context.Context, username string, kind models.ObjectKind) ([]models.ObjectPermission, error) {
			permissions := make([]models.ObjectPermission, 0)
			for permission := range g.object[username][kind] {
				permissions = append(permissions, permission)
			}
			return permissions, nil
		},
		SelectOneFunc: func(ctx context.Context, username string, kind models.ObjectKind, permission models.ObjectPermissionType, identifier string) (bool, error) {
			return g.object[username][kind][models.ObjectPermission{Type: permission, Identifier: identifier}], nil
		},
		SelectAccessibleIdentifiersFunc: func(ctx context.Context, username string, kind models.ObjectKind, permissions []models.ObjectPermissionType, identifiers []string) ([]string, error) {
			accessible := make([]string, 0)
			for _, identifier := range identifiers {
				for _, permission := range permissions {
					if g.object[username][kind][models.ObjectPermission{Type: permission, Identifier: identifier}] {
						accessible = append(accessible, identifier)
						break
					}
				}
			}
			return accessible, nil
		},
		InsertFunc: func(ctx context.Context, username string, kind models.ObjectKind, permissions []models.ObjectPermission) error {
			g.grantObject(username, kind, permissions...)
			return nil
		},
		DeleteFunc: func(ctx context.Context, username string, kind models.ObjectKind, permissions []models.ObjectPermission) error {
			for _, permission := range permissions {
				delete(g.object[username][kind], permission)
			}
			return nil
		},
		DeleteForObjectFunc: func(ctx context.Context, kind models.ObjectKind, identifier string) error {
			for username := range g.object {
				for permission := range g.object[username][kind] {
					if permission.Identifier == identifier {
						delete(g.object[username][kind], permission)
					}
				}
			}
			return nil
		},
	}
}

func (g *memoryGrants) permissionService() *PermissionService {
	return NewPermissionService(g.systemRepo(), g.objectRepo(), testLogger(), testAuditLogger())
}

// memoryConnectionStore is an in-memory ObjectStore over connections, used to
// exercise the directory without a database.
type memoryConnectionStore struct {
	connections map[string]*models.Connection
	nextID      int
}

func newMemoryConnectionStore() *memoryConnectionStore {
	return &memoryConnectionStore{connections: make(map[string]*models.Connection)}
}

func (s *memoryConnectionStore) GetByID(ctx context.Context, identifier string) (*models.Connection, error) {
	connection, ok := s.connections[identifier]
	if !ok {
		return nil, models.ErrNotFound
	}
	return connection, nil
}

func (s *memoryConnectionStore) GetMultiple(ctx context.Context, identifiers []string) ([]*models.Connection, error) {
	found := make([]*models.Connection, 0)
	for _, identifier := range identifiers {
		if connection, ok := s.connections[identifier]; ok {
			found = append(found, connection)
		}
	}
	return found, nil
}

func (s *memoryConnectionStore) List(ctx context.Context) ([]string, error) {
	identifiers := make([]string, 0)
	for identifier := range s.connections {
		identifiers = append(identifiers, identifier)
	}
	return identifiers, nil
}

func (s *memoryConnectionStore) Create(ctx context.Context, connection *models.Connection) (*models.Connection, error) {
	s.nextID++
	connection.ID = fmt.Sprintf("conn-%d", s.nextID)
	s.connections[connection.ID] = connection
	return connection, nil
}

func (s *memoryConnectionStore) Update(ctx context.Context, connection *models.Connection) (*models.Connection, error) {
	if _, ok := s.connections[connection.ID]; !ok {
		return nil, models.ErrNotFound
	}
	s.connections[connection.ID] = connection
	return connection, nil
}

func (s *memoryConnectionStore) Delete(ctx context.Context, identifier string) error {
	if _, ok := s.connections[identifier]; !ok {
		return models.ErrNotFound
	}
	delete(s.connections, identifier)
	return nil
}
