package audit

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marvista/community-portal-backend/pkg/db/models"
	"github.com/marvista/community-portal-backend/pkg/logger"
)

// Entry describes one recordable action.
type Entry struct {
	UserID      *uuid.UUID
	ServiceName string
	Action      string
	Resource    *string
	IPAddress   *string
	UserAgent   *string
	Extra       *string
}

// Repository persists audit log rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an audit repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Insert stores one audit row.
func (r *Repository) Insert(ctx context.Context, entry Entry) error {
	row := &models.AuditLog{
		ID:          uuid.New(),
		UserID:      entry.UserID,
		ServiceName: entry.ServiceName,
		Action:      entry.Action,
		Resource:    entry.Resource,
		IPAddress:   entry.IPAddress,
		UserAgent:   entry.UserAgent,
		Extra:       entry.Extra,
	}
	return r.db.WithContext(ctx).Create(row).Error
}

// ListForUser returns a user's audit trail, newest first, capped at limit.
func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var out []models.AuditLog
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

type inserter interface {
	Insert(ctx context.Context, entry Entry) error
}

// Recorder writes audit entries without letting persistence failures bubble
// into the request path.
type Recorder struct {
	repo inserter
	logg *logger.Logger
}

// NewRecorder builds a best-effort audit recorder.
func NewRecorder(repo inserter, logg *logger.Logger) *Recorder {
	return &Recorder{repo: repo, logg: logg}
}

// Record stores the entry; failures are logged and swallowed so the calling
// operation still succeeds.
func (r *Recorder) Record(ctx context.Context, entry Entry) {
	if r == nil || r.repo == nil {
		return
	}
	if err := r.repo.Insert(ctx, entry); err != nil && r.logg != nil {
		r.logg.Error(ctx, "recording audit entry", err)
	}
}
