package models

// SystemPermissionType identifies a system-wide permission, granted to a user
// without reference to any particular object.
type SystemPermissionType string

const (
	// SystemAdminister grants full administrative rights and supersedes all
	// object-scoped checks.
	SystemAdminister            SystemPermissionType = "ADMINISTER"
	SystemCreateUser            SystemPermissionType = "CREATE_USER"
	SystemCreateConnection      SystemPermissionType = "CREATE_CONNECTION"
	SystemCreateConnectionGroup SystemPermissionType = "CREATE_CONNECTION_GROUP"
	SystemCreateSharingProfile  SystemPermissionType = "CREATE_SHARING_PROFILE"
)

// AllSystemPermissionTypes is the whitelist of valid system permission types.
var AllSystemPermissionTypes = map[SystemPermissionType]bool{
	SystemAdminister:            true,
	SystemCreateUser:            true,
	SystemCreateConnection:      true,
	SystemCreateConnectionGroup: true,
	SystemCreateSharingProfile:  true,
}

func (t SystemPermissionType) Valid() bool {
	return AllSystemPermissionTypes[t]
}

// ObjectPermissionType identifies a permission held over one specific object.
type ObjectPermissionType string

const (
	ObjectRead       ObjectPermissionType = "READ"
	ObjectUpdate     ObjectPermissionType = "UPDATE"
	ObjectDelete     ObjectPermissionType = "DELETE"
	ObjectAdminister ObjectPermissionType = "ADMINISTER"
)

// AllObjectPermissionTypes is the whitelist of valid object permission types.
var AllObjectPermissionTypes = map[ObjectPermissionType]bool{
	ObjectRead:       true,
	ObjectUpdate:     true,
	ObjectDelete:     true,
	ObjectAdminister: true,
}

func (t ObjectPermissionType) Valid() bool {
	return AllObjectPermissionTypes[t]
}

// ObjectPermission is one grant over one object: a (type, identifier) pair.
// A grant either exists or it does not; there are no partial grants.
type ObjectPermission struct {
	Type       ObjectPermissionType
	Identifier string
}

// ObjectKind names one of the resource categories mediated by the directory
// layer.
type ObjectKind string

const (
	KindUser             ObjectKind = "user"
	KindConnection       ObjectKind = "connection"
	KindConnectionGroup  ObjectKind = "connection_group"
	KindSharingProfile   ObjectKind = "sharing_profile"
	KindActiveConnection ObjectKind = "active_connection"
)

// CreatePermission returns the system permission required to create objects of
// the given kind. Active connections are never created through the directory,
// so no create permission exists for them.
func (k ObjectKind) CreatePermission() (SystemPermissionType, bool) {
	switch k {
	case KindUser:
		return SystemCreateUser, true
	case KindConnection:
		return SystemCreateConnection, true
	case KindConnectionGroup:
		return SystemCreateConnectionGroup, true
	case KindSharingProfile:
		return SystemCreateSharingProfile, true
	default:
		return "", false
	}
}

// DirectoryObject is implemented by every model managed through a permission
// gated directory.
type DirectoryObject interface {
	ObjectIdentifier() string
	ObjectKind() ObjectKind
}
