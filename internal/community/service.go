package community

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/marvista/community-portal-backend/internal/audit"
	"github.com/marvista/community-portal-backend/internal/permissions"
	"github.com/marvista/community-portal-backend/pkg/db/models"
	"github.com/marvista/community-portal-backend/pkg/enums"
	pkgerrors "github.com/marvista/community-portal-backend/pkg/errors"
)

// InfoResponse summarizes the community for any authenticated member.
// Legacy roles are folded into their current equivalents.
type InfoResponse struct {
	Name           string `json:"name"`
	TotalUsers     int    `json:"total_users"`
	ActiveUsers    int    `json:"active_users"`
	TotalResidents int    `json:"total_residents"`
	TotalAdmins    int    `json:"total_admins"`
	TotalStaff     int    `json:"total_staff"`
}

// Member is the reduced directory entry exposed to other members.
type Member struct {
	ID         uuid.UUID `json:"id"`
	FullName   string    `json:"full_name"`
	UnitNumber *string   `json:"unit_number,omitempty"`
	Role       string    `json:"role"`
}

// AnnouncementRequest is an admin-authored community announcement.
type AnnouncementRequest struct {
	Title   string `json:"title" validate:"required"`
	Message string `json:"message" validate:"required"`
	Urgent  bool   `json:"urgent"`
}

// AnnouncementResponse acknowledges a logged announcement.
type AnnouncementResponse struct {
	Message   string    `json:"message"`
	Title     string    `json:"title"`
	SentBy    string    `json:"sent_by"`
	Timestamp time.Time `json:"timestamp"`
}

// StatsResponse is the admin-only statistics payload.
type StatsResponse struct {
	Users     UserStats    `json:"users"`
	Community CommunityRef `json:"community"`
}

type UserStats struct {
	Total           int `json:"total"`
	Residents       int `json:"residents"`
	Admins          int `json:"admins"`
	Staff           int `json:"staff"`
	RecentLogins30d int `json:"recent_logins_30d"`
}

type CommunityRef struct {
	Name string `json:"name"`
}

type userRepository interface {
	List(ctx context.Context, activeOnly bool) ([]models.CommunityUser, error)
}

type auditRecorder interface {
	Record(ctx context.Context, entry audit.Entry)
}

// Service exposes community directory and announcement operations.
type Service interface {
	Info(ctx context.Context) (*InfoResponse, error)
	Members(ctx context.Context) ([]Member, error)
	Stats(ctx context.Context) (*StatsResponse, error)
	Announce(ctx context.Context, actor *models.CommunityUser, req AnnouncementRequest) (*AnnouncementResponse, error)
}

type service struct {
	users         userRepository
	auditor       auditRecorder
	communityName string
}

// NewService builds the community service.
func NewService(repo userRepository, auditor auditRecorder, communityName string) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	return &service{users: repo, auditor: auditor, communityName: communityName}, nil
}

type roleCounts struct {
	total     int
	residents int
	admins    int
	staff     int
}

func countRoles(rows []models.CommunityUser) roleCounts {
	var counts roleCounts
	counts.total = len(rows)
	for i := range rows {
		switch rows[i].Role.Canonical() {
		case enums.UserRoleHomeowner:
			counts.residents++
		case enums.UserRoleSuperAdmin:
			counts.admins++
		case enums.UserRoleQRScanner:
			// Legacy staff maps onto the scanner role.
			if rows[i].Role == enums.UserRoleStaff {
				counts.staff++
			}
		}
	}
	return counts
}

func (s *service) Info(ctx context.Context) (*InfoResponse, error) {
	rows, err := s.users.List(ctx, true)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list community members")
	}
	counts := countRoles(rows)
	return &InfoResponse{
		Name:           s.communityName,
		TotalUsers:     counts.total,
		ActiveUsers:    counts.total,
		TotalResidents: counts.residents,
		TotalAdmins:    counts.admins,
		TotalStaff:     counts.staff,
	}, nil
}

func (s *service) Members(ctx context.Context) ([]Member, error) {
	rows, err := s.users.List(ctx, true)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list community members")
	}
	out := make([]Member, 0, len(rows))
	for i := range rows {
		out = append(out, Member{
			ID:         rows[i].ID,
			FullName:   rows[i].FullName,
			UnitNumber: rows[i].UnitNumber,
			Role:       rows[i].Role.String(),
		})
	}
	return out, nil
}

func (s *service) Stats(ctx context.Context) (*StatsResponse, error) {
	rows, err := s.users.List(ctx, true)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list community members")
	}
	counts := countRoles(rows)

	cutoff := time.Now().AddDate(0, 0, -30)
	recent := 0
	for i := range rows {
		if rows[i].LastLoginAt != nil && rows[i].LastLoginAt.After(cutoff) {
			recent++
		}
	}

	return &StatsResponse{
		Users: UserStats{
			Total:           counts.total,
			Residents:       counts.residents,
			Admins:          counts.admins,
			Staff:           counts.staff,
			RecentLogins30d: recent,
		},
		Community: CommunityRef{Name: s.communityName},
	}, nil
}

func (s *service) Announce(ctx context.Context, actor *models.CommunityUser, req AnnouncementRequest) (*AnnouncementResponse, error) {
	if actor == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing authenticated user")
	}

	if s.auditor != nil {
		actorID := actor.ID
		resource := "community"
		extra := fmt.Sprintf("Title: %s, Urgent: %t", req.Title, req.Urgent)
		s.auditor.Record(ctx, audit.Entry{
			UserID:      &actorID,
			ServiceName: permissions.ServiceCommunityAuth,
			Action:      "announcement_sent",
			Resource:    &resource,
			Extra:       &extra,
		})
	}

	return &AnnouncementResponse{
		Message:   "announcement logged",
		Title:     req.Title,
		SentBy:    actor.FullName,
		Timestamp: time.Now().UTC(),
	}, nil
}
