package authmw

const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super-admin"
)

type Permission uint8

const (
	PermCatalog Permission = 1 << iota
	PermContent
	PermOrders
	PermModeration
	PermManageAdmins
)

const adminPerms = PermCatalog | PermContent | PermOrders | PermModeration

func PermissionsFor(role string) Permission {
	switch role {
	case RoleAdmin:
		return adminPerms
	case RoleSuperAdmin:
		return adminPerms | PermManageAdmins
	default:
		return 0
	}
}

// Allows reports whether role holds at least one of the bits in p.
func Allows(role string, p Permission) bool {
	return PermissionsFor(role)&p != 0
}

func IsAdminRole(role string) bool {
	return role == RoleAdmin || role == RoleSuperAdmin
}

func ValidRole(role string) bool {
	return role == RoleUser || IsAdminRole(role)
}
