package community

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/marvista/community-portal-backend/internal/audit"
	"github.com/marvista/community-portal-backend/pkg/db/models"
	"github.com/marvista/community-portal-backend/pkg/enums"
	pkgerrors "github.com/marvista/community-portal-backend/pkg/errors"
)

type staticUserRepo struct {
	rows []models.CommunityUser
}

func (r *staticUserRepo) List(_ context.Context, activeOnly bool) ([]models.CommunityUser, error) {
	if !activeOnly {
		return r.rows, nil
	}
	out := make([]models.CommunityUser, 0, len(r.rows))
	for _, u := range r.rows {
		if u.IsActive {
			out = append(out, u)
		}
	}
	return out, nil
}

type captureAuditor struct {
	entries []audit.Entry
}

func (c *captureAuditor) Record(_ context.Context, entry audit.Entry) {
	c.entries = append(c.entries, entry)
}

func member(role enums.UserRole, lastLogin *time.Time) models.CommunityUser {
	unit := "A-12"
	return models.CommunityUser{
		ID:          uuid.New(),
		ClerkUserID: "user_" + uuid.NewString()[:8],
		Email:       uuid.NewString()[:8] + "@example.com",
		FullName:    "Member " + role.String(),
		UnitNumber:  &unit,
		Role:        role,
		IsActive:    true,
		LastLoginAt: lastLogin,
	}
}

func TestInfoFoldsLegacyRoles(t *testing.T) {
	repo := &staticUserRepo{rows: []models.CommunityUser{
		member(enums.UserRoleHomeowner, nil),
		member(enums.UserRoleResident, nil),
		member(enums.UserRoleSuperAdmin, nil),
		member(enums.UserRoleAdmin, nil),
		member(enums.UserRoleStaff, nil),
		member(enums.UserRoleGuest, nil),
	}}
	svc, err := NewService(repo, nil, "Mar Vista")
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	info, err := svc.Info(context.Background())
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if info.Name != "Mar Vista" {
		t.Fatalf("unexpected name %s", info.Name)
	}
	if info.TotalUsers != 6 || info.ActiveUsers != 6 {
		t.Fatalf("unexpected totals %+v", info)
	}
	if info.TotalResidents != 2 {
		t.Fatalf("legacy resident not folded: %+v", info)
	}
	if info.TotalAdmins != 2 {
		t.Fatalf("legacy admin not folded: %+v", info)
	}
	if info.TotalStaff != 1 {
		t.Fatalf("staff miscounted: %+v", info)
	}
}

func TestMembersReturnsBasicInfoOnly(t *testing.T) {
	active := member(enums.UserRoleHomeowner, nil)
	inactive := member(enums.UserRoleHomeowner, nil)
	inactive.IsActive = false
	repo := &staticUserRepo{rows: []models.CommunityUser{active, inactive}}
	svc, err := NewService(repo, nil, "Mar Vista")
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	members, err := svc.Members(context.Background())
	if err != nil {
		t.Fatalf("members: %v", err)
	}
	if len(members) != 1 {
		t.Fatalf("expected inactive users filtered, got %d", len(members))
	}
	if members[0].ID != active.ID || members[0].Role != "homeowner" {
		t.Fatalf("unexpected member %+v", members[0])
	}
}

func TestStatsCountsRecentLogins(t *testing.T) {
	recent := time.Now().Add(-24 * time.Hour)
	stale := time.Now().AddDate(0, 0, -45)
	repo := &staticUserRepo{rows: []models.CommunityUser{
		member(enums.UserRoleHomeowner, &recent),
		member(enums.UserRoleHomeowner, &stale),
		member(enums.UserRoleSuperAdmin, nil),
	}}
	svc, err := NewService(repo, nil, "Mar Vista")
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Users.Total != 3 {
		t.Fatalf("unexpected total %d", stats.Users.Total)
	}
	if stats.Users.RecentLogins30d != 1 {
		t.Fatalf("unexpected recent logins %d", stats.Users.RecentLogins30d)
	}
	if stats.Community.Name != "Mar Vista" {
		t.Fatalf("unexpected community %s", stats.Community.Name)
	}
}

func TestAnnounceAuditsAndEchoes(t *testing.T) {
	auditor := &captureAuditor{}
	svc, err := NewService(&staticUserRepo{}, auditor, "Mar Vista")
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	actor := member(enums.UserRoleSuperAdmin, nil)

	resp, err := svc.Announce(context.Background(), &actor, AnnouncementRequest{
		Title:   "Pool maintenance",
		Message: "Closed Tuesday morning",
		Urgent:  true,
	})
	if err != nil {
		t.Fatalf("announce: %v", err)
	}
	if resp.Title != "Pool maintenance" || resp.SentBy != actor.FullName {
		t.Fatalf("unexpected response %+v", resp)
	}
	if len(auditor.entries) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(auditor.entries))
	}
	entry := auditor.entries[0]
	if entry.Action != "announcement_sent" {
		t.Fatalf("unexpected action %s", entry.Action)
	}
	if entry.UserID == nil || *entry.UserID != actor.ID {
		t.Fatalf("unexpected actor %v", entry.UserID)
	}
}

func TestAnnounceRequiresActor(t *testing.T) {
	svc, err := NewService(&staticUserRepo{}, nil, "Mar Vista")
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	_, err = svc.Announce(context.Background(), nil, AnnouncementRequest{Title: "x", Message: "y"})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}
