package permissions

import (
	"github.com/marvista/community-portal-backend/pkg/db/models"
	"github.com/marvista/community-portal-backend/pkg/enums"
)

// Registered service names. Permission sets are derived per service, never
// persisted.
const (
	ServiceARC           = "arc"
	ServiceQRGate        = "qr_gate"
	ServiceCommunityAuth = "community_auth"
)

// Permission strings shared across services.
const (
	PermAccess     = "access"
	PermAdmin      = "admin"
	PermGuest      = "guest"
	PermSuperAdmin = "super_admin"
)

var superAdminPermissions = []string{PermAccess, PermAdmin, "manage_users", "view_logs", PermSuperAdmin}

// ForRole derives the permission set a role carries for the named service.
// Legacy roles are mapped to their canonical equivalents first. The result is
// deterministic for a given (role, service) pair.
func ForRole(role enums.UserRole, serviceName string) []string {
	canon := role.Canonical()
	if canon == enums.UserRoleSuperAdmin {
		return clone(superAdminPermissions)
	}

	switch serviceName {
	case ServiceARC:
		return arcPermissions(canon)
	case ServiceQRGate:
		return qrGatePermissions(canon)
	case ServiceCommunityAuth:
		return communityAuthPermissions()
	default:
		return defaultPermissions(canon)
	}
}

// ForUser derives the permission set for a user against the named service.
// A per-application role assignment overrides the user's global role for that
// service; super admins bypass assignments entirely.
func ForUser(user *models.CommunityUser, serviceName string) []string {
	if user == nil {
		return []string{PermGuest}
	}
	role := user.Role
	if role.Canonical() != enums.UserRoleSuperAdmin {
		if assigned, ok := assignedRole(user, serviceName); ok {
			role = assigned
		}
	}
	return ForRole(role, serviceName)
}

// HasAny reports whether the derived set intersects the required set.
func HasAny(derived, required []string) bool {
	for _, want := range required {
		for _, have := range derived {
			if have == want {
				return true
			}
		}
	}
	return false
}

func assignedRole(user *models.CommunityUser, serviceName string) (enums.UserRole, bool) {
	for _, grant := range user.AppRoles {
		if grant.AppName != serviceName {
			continue
		}
		role, err := enums.ParseUserRole(grant.Role)
		if err != nil {
			return "", false
		}
		return role, true
	}
	return "", false
}

func arcPermissions(role enums.UserRole) []string {
	switch role {
	case enums.UserRoleARCAdmin:
		return []string{PermAccess, PermAdmin, "manage_applications", "assign_reviewers", "view_all"}
	case enums.UserRoleARCReviewer:
		return []string{PermAccess, "review", "comment", "approve", "deny"}
	case enums.UserRoleHomeowner:
		return []string{PermAccess, "submit", "view_own"}
	default:
		return []string{PermGuest}
	}
}

func qrGatePermissions(role enums.UserRole) []string {
	switch role {
	case enums.UserRoleQRAdmin:
		return []string{PermAccess, PermAdmin, "manage_gates", "view_logs", "manage_devices"}
	case enums.UserRoleQRScanner:
		return []string{PermAccess, "scan", "validate", "open_gate"}
	case enums.UserRoleHomeowner:
		return []string{PermAccess, "resident_access"}
	default:
		return []string{PermGuest}
	}
}

func communityAuthPermissions() []string {
	// super admins are handled by the bypass above; everyone else manages
	// only their own profile
	return []string{PermAccess, "view_profile", "update_profile"}
}

func defaultPermissions(role enums.UserRole) []string {
	switch role {
	case enums.UserRoleGuest:
		return []string{PermGuest}
	case enums.UserRoleHomeowner:
		return []string{PermAccess, "user"}
	default:
		return []string{PermAccess}
	}
}

func clone(perms []string) []string {
	return append([]string(nil), perms...)
}
