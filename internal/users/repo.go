package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marvista/community-portal-backend/pkg/db/models"
	"github.com/marvista/community-portal-backend/pkg/enums"
)

// Repository exposes community-user persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.CommunityUser, error) {
	user := dto.ToModel()
	if user.ID == uuid.Nil {
		// the SQLite dev backend has no gen_random_uuid()
		user.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByID loads a user by UUID, with app role grants attached.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.CommunityUser, error) {
	var user models.CommunityUser
	if err := r.db.WithContext(ctx).Preload("AppRoles").First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByClerkID retrieves the user linked to the given provider identity.
func (r *Repository) FindByClerkID(ctx context.Context, clerkUserID string) (*models.CommunityUser, error) {
	var user models.CommunityUser
	if err := r.db.WithContext(ctx).Preload("AppRoles").Where("clerk_user_id = ?", clerkUserID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail retrieves the user matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.CommunityUser, error) {
	var user models.CommunityUser
	if err := r.db.WithContext(ctx).Preload("AppRoles").Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// List returns users ordered by creation time, newest first. When activeOnly
// is set, deactivated accounts are excluded.
func (r *Repository) List(ctx context.Context, activeOnly bool) ([]models.CommunityUser, error) {
	q := r.db.WithContext(ctx).Preload("AppRoles").Order("created_at DESC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var out []models.CommunityUser
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Update applies the non-nil fields and returns the refreshed record.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, dto UpdateUserDTO) (*models.CommunityUser, error) {
	updates := map[string]any{}
	if dto.ClerkUserID != nil {
		updates["clerk_user_id"] = *dto.ClerkUserID
	}
	if dto.FullName != nil {
		updates["full_name"] = *dto.FullName
	}
	if dto.UnitNumber != nil {
		updates["unit_number"] = *dto.UnitNumber
	}
	if dto.PhoneNumber != nil {
		updates["phone_number"] = *dto.PhoneNumber
	}
	if dto.Role != nil {
		updates["role"] = dto.Role.String()
	}
	if dto.IsActive != nil {
		updates["is_active"] = *dto.IsActive
	}

	if len(updates) > 0 {
		if err := r.db.WithContext(ctx).
			Model(&models.CommunityUser{}).
			Where("id = ?", id).
			Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return r.FindByID(ctx, id)
}

// SetActive flips the active flag without touching other fields.
func (r *Repository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return r.db.WithContext(ctx).
		Model(&models.CommunityUser{}).
		Where("id = ?", id).
		UpdateColumn("is_active", active).Error
}

// Delete removes the user. App role grants cascade at the schema level; the
// explicit delete keeps the SQLite dev backend consistent too.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.UserAppRole{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.CommunityUser{}, "id = ?", id).Error
	})
}

// UpdateLastLogin refreshes the user's last_login_at timestamp.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.CommunityUser{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

// SetAppRole upserts the user's role for one application. A user holds at
// most one role per app, enforced by the unique (user_id, app_name) index.
func (r *Repository) SetAppRole(ctx context.Context, userID uuid.UUID, appName string, role enums.UserRole) (*models.UserAppRole, error) {
	grant := &models.UserAppRole{
		ID:      uuid.New(),
		UserID:  userID,
		AppName: appName,
		Role:    role.String(),
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "app_name"}},
			DoUpdates: clause.AssignmentColumns([]string{"role", "updated_at"}),
		}).
		Create(grant).Error
	if err != nil {
		return nil, err
	}
	return grant, nil
}

// RemoveAppRole drops the user's grant for one application. Removing a grant
// that does not exist is not an error.
func (r *Repository) RemoveAppRole(ctx context.Context, userID uuid.UUID, appName string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND app_name = ?", userID, appName).
		Delete(&models.UserAppRole{}).Error
}
