package apps

import (
	"github.com/marvista/community-portal-backend/internal/permissions"
	"github.com/marvista/community-portal-backend/pkg/db/models"
)

// AccessibleApplication is one registry entry the user can reach, together
// with the permission set that granted it.
type AccessibleApplication struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	URL         string   `json:"url"`
	Icon        string   `json:"icon"`
	Permissions []string `json:"permissions"`
}

// Accessible filters the registry down to the applications whose required
// permissions intersect the user's derived set. The filtering is pure:
// repeated calls with unchanged input return the same result.
func Accessible(user *models.CommunityUser) []AccessibleApplication {
	if user == nil {
		return []AccessibleApplication{}
	}

	out := make([]AccessibleApplication, 0, len(registry))
	for _, app := range registry {
		perms := permissions.ForUser(user, app.ID)
		if !permissions.HasAny(perms, app.RequiredPermissions) {
			continue
		}
		out = append(out, AccessibleApplication{
			ID:          app.ID,
			Name:        app.Name,
			Description: app.Description,
			URL:         app.URL,
			Icon:        app.Icon,
			Permissions: perms,
		})
	}
	return out
}

// AutoRedirectURL returns the single destination when the user can reach
// exactly one application. Zero or multiple matches mean the caller should
// render its own state instead.
func AutoRedirectURL(accessible []AccessibleApplication) (string, bool) {
	if len(accessible) == 1 {
		return accessible[0].URL, true
	}
	return "", false
}
