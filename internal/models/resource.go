package models

import "time"

// ConnectionGroupType distinguishes organizational folders from balancing
// groups, which pick the least-loaded member connection.
type ConnectionGroupType string

const (
	GroupOrganizational ConnectionGroupType = "ORGANIZATIONAL"
	GroupBalancing      ConnectionGroupType = "BALANCING"
)

// Connection is a remote-desktop connection definition.
type Connection struct {
	ID            string
	Name          string
	Protocol      string
	ParentGroupID *string

	// Concurrency limits. Zero means unrestricted, nil applies the
	// deployment defaults.
	MaxConnections        *int
	MaxConnectionsPerUser *int

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c *Connection) ObjectIdentifier() string { return c.ID }
func (c *Connection) ObjectKind() ObjectKind   { return KindConnection }

// ConnectionGroup organizes connections into a hierarchy.
type ConnectionGroup struct {
	ID            string
	Name          string
	Type          ConnectionGroupType
	ParentGroupID *string

	MaxConnections        *int
	MaxConnectionsPerUser *int

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (g *ConnectionGroup) ObjectIdentifier() string { return g.ID }
func (g *ConnectionGroup) ObjectKind() ObjectKind   { return KindConnectionGroup }

// SharingProfile describes how an established connection may be shared with
// another user.
type SharingProfile struct {
	ID                  string
	Name                string
	PrimaryConnectionID string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p *SharingProfile) ObjectIdentifier() string { return p.ID }
func (p *SharingProfile) ObjectKind() ObjectKind   { return KindSharingProfile }

// ActiveConnection is an in-progress session over a connection. Active
// connections appear in the directory while the session lasts; removing one
// terminates the session.
type ActiveConnection struct {
	ID           string
	ConnectionID string
	Username     string
	RemoteHost   string
	StartedAt    time.Time
}

func (a *ActiveConnection) ObjectIdentifier() string { return a.ID }
func (a *ActiveConnection) ObjectKind() ObjectKind   { return KindActiveConnection }
