package apps

import (
	"github.com/marvista/community-portal-backend/internal/permissions"
)

// Application describes one registered community application.
type Application struct {
	ID                  string
	Name                string
	Description         string
	URL                 string
	Icon                string
	RequiredPermissions []string
}

// registry is the static application catalog. Entries are configuration, not
// runtime state.
var registry = []Application{
	{
		ID:                  permissions.ServiceARC,
		Name:                "ARC Application System",
		Description:         "Architectural Review Committee applications and submissions",
		URL:                 "https://mvarc.vercel.app",
		Icon:                "🏗️",
		RequiredPermissions: []string{permissions.PermAccess},
	},
	{
		ID:                  permissions.ServiceQRGate,
		Name:                "QR Gate Access",
		Description:         "Community gate access and management",
		URL:                 "https://qr.brasilito.org",
		Icon:                "🚪",
		RequiredPermissions: []string{permissions.PermAccess},
	},
}

// Registry returns the registered applications in declaration order.
func Registry() []Application {
	out := make([]Application, len(registry))
	copy(out, registry)
	return out
}

// Lookup finds a registered application by ID.
func Lookup(id string) (Application, bool) {
	for _, app := range registry {
		if app.ID == id {
			return app, true
		}
	}
	return Application{}, false
}

// IsRegistered reports whether the ID names a registered application.
func IsRegistered(id string) bool {
	_, ok := Lookup(id)
	return ok
}

// Names returns the registered application IDs.
func Names() []string {
	out := make([]string, 0, len(registry))
	for _, app := range registry {
		out = append(out, app.ID)
	}
	return out
}
