package enums

import "fmt"

// UserRole represents a community-wide permissions role.
type UserRole string

const (
	// Community-wide roles.
	UserRoleSuperAdmin UserRole = "super_admin"
	UserRoleHomeowner  UserRole = "homeowner"
	UserRoleGuest      UserRole = "guest"

	// ARC application roles.
	UserRoleARCAdmin    UserRole = "arc_admin"
	UserRoleARCReviewer UserRole = "arc_reviewer"

	// QR gate application roles.
	UserRoleQRAdmin   UserRole = "qr_admin"
	UserRoleQRScanner UserRole = "qr_scanner"

	// Legacy roles kept for records created before the role split.
	UserRoleResident UserRole = "resident"
	UserRoleAdmin    UserRole = "admin"
	UserRoleStaff    UserRole = "staff"
)

var validUserRoles = []UserRole{
	UserRoleSuperAdmin,
	UserRoleHomeowner,
	UserRoleGuest,
	UserRoleARCAdmin,
	UserRoleARCReviewer,
	UserRoleQRAdmin,
	UserRoleQRScanner,
	UserRoleResident,
	UserRoleAdmin,
	UserRoleStaff,
}

// String implements fmt.Stringer.
func (r UserRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known UserRole.
func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// Canonical maps legacy role values onto their current equivalents.
func (r UserRole) Canonical() UserRole {
	switch r {
	case UserRoleResident:
		return UserRoleHomeowner
	case UserRoleAdmin:
		return UserRoleSuperAdmin
	case UserRoleStaff:
		return UserRoleQRScanner
	default:
		return r
	}
}

// IsSuperAdmin reports whether the role grants community-wide administration.
func (r UserRole) IsSuperAdmin() bool {
	return r.Canonical() == UserRoleSuperAdmin
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
