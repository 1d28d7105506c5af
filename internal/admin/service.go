package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marvista/community-portal-backend/internal/apps"
	"github.com/marvista/community-portal-backend/internal/audit"
	"github.com/marvista/community-portal-backend/internal/permissions"
	"github.com/marvista/community-portal-backend/internal/users"
	"github.com/marvista/community-portal-backend/pkg/db"
	"github.com/marvista/community-portal-backend/pkg/db/models"
	"github.com/marvista/community-portal-backend/pkg/enums"
	pkgerrors "github.com/marvista/community-portal-backend/pkg/errors"
)

// Service defines the admin-console operations.
type Service interface {
	ListUsers(ctx context.Context, activeOnly bool) (*ListUsersResponse, error)
	GetUser(ctx context.Context, id uuid.UUID) (*users.UserDTO, error)
	CreateUser(ctx context.Context, actorID uuid.UUID, req CreateUserRequest) (*users.UserDTO, error)
	UpdateUser(ctx context.Context, actorID, id uuid.UUID, req UpdateUserRequest) (*users.UserDTO, error)
	DeleteUser(ctx context.Context, actorID, id uuid.UUID) error
	SetUserActive(ctx context.Context, actorID, id uuid.UUID, active bool) (*users.UserDTO, error)
	AssignAppRole(ctx context.Context, actorID uuid.UUID, req AssignRoleRequest) (*RoleAssignmentResponse, error)
	RemoveAppRole(ctx context.Context, actorID uuid.UUID, req RemoveRoleRequest) error
}

type userRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.CommunityUser, error)
	FindByEmail(ctx context.Context, email string) (*models.CommunityUser, error)
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.CommunityUser, error)
	Update(ctx context.Context, id uuid.UUID, dto users.UpdateUserDTO) (*models.CommunityUser, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, activeOnly bool) ([]models.CommunityUser, error)
	SetAppRole(ctx context.Context, userID uuid.UUID, appName string, role enums.UserRole) (*models.UserAppRole, error)
	RemoveAppRole(ctx context.Context, userID uuid.UUID, appName string) error
}

type auditRecorder interface {
	Record(ctx context.Context, entry audit.Entry)
}

type service struct {
	users   userRepository
	auditor auditRecorder
}

// NewService constructs the admin console service.
func NewService(repo userRepository, auditor auditRecorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	return &service{users: repo, auditor: auditor}, nil
}

func (s *service) ListUsers(ctx context.Context, activeOnly bool) (*ListUsersResponse, error) {
	rows, err := s.users.List(ctx, activeOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list users")
	}
	out := make([]*users.UserDTO, 0, len(rows))
	for i := range rows {
		out = append(out, users.FromModel(&rows[i]))
	}
	return &ListUsersResponse{Users: out, Total: len(out)}, nil
}

func (s *service) GetUser(ctx context.Context, id uuid.UUID) (*users.UserDTO, error) {
	user, err := s.loadUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return users.FromModel(user), nil
}

func (s *service) CreateUser(ctx context.Context, actorID uuid.UUID, req CreateUserRequest) (*users.UserDTO, error) {
	role := enums.UserRoleHomeowner
	if req.Role != "" {
		parsed, err := enums.ParseUserRole(req.Role)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid role %q", req.Role))
		}
		role = parsed
	}

	user, err := s.users.Create(ctx, users.CreateUserDTO{
		ClerkUserID: strings.TrimSpace(req.ClerkUserID),
		Email:       normalizeEmail(req.Email),
		FullName:    strings.TrimSpace(req.FullName),
		UnitNumber:  req.UnitNumber,
		PhoneNumber: req.PhoneNumber,
		Role:        role,
		IsActive:    req.IsActive,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a user with that email or provider id already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}

	s.record(ctx, actorID, "user_created", "users/"+user.ID.String())
	return users.FromModel(user), nil
}

func (s *service) UpdateUser(ctx context.Context, actorID, id uuid.UUID, req UpdateUserRequest) (*users.UserDTO, error) {
	if _, err := s.loadUser(ctx, id); err != nil {
		return nil, err
	}

	dto := users.UpdateUserDTO{
		FullName:    req.FullName,
		UnitNumber:  req.UnitNumber,
		PhoneNumber: req.PhoneNumber,
	}
	if req.Role != nil {
		parsed, err := enums.ParseUserRole(*req.Role)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid role %q", *req.Role))
		}
		dto.Role = &parsed
	}
	if req.IsActive != nil {
		if !*req.IsActive && id == actorID {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "admins cannot deactivate their own account")
		}
		dto.IsActive = req.IsActive
	}

	user, err := s.users.Update(ctx, id, dto)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update user")
	}

	s.record(ctx, actorID, "user_updated", "users/"+id.String())
	return users.FromModel(user), nil
}

func (s *service) DeleteUser(ctx context.Context, actorID, id uuid.UUID) error {
	if id == actorID {
		return pkgerrors.New(pkgerrors.CodeValidation, "admins cannot delete their own account")
	}
	if _, err := s.loadUser(ctx, id); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete user")
	}
	s.record(ctx, actorID, "user_deleted", "users/"+id.String())
	return nil
}

func (s *service) SetUserActive(ctx context.Context, actorID, id uuid.UUID, active bool) (*users.UserDTO, error) {
	if !active && id == actorID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "admins cannot deactivate their own account")
	}
	if _, err := s.loadUser(ctx, id); err != nil {
		return nil, err
	}
	if err := s.users.SetActive(ctx, id, active); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "set user active")
	}

	action := "user_deactivated"
	if active {
		action = "user_activated"
	}
	s.record(ctx, actorID, action, "users/"+id.String())

	return s.GetUser(ctx, id)
}

func (s *service) AssignAppRole(ctx context.Context, actorID uuid.UUID, req AssignRoleRequest) (*RoleAssignmentResponse, error) {
	if !apps.IsRegistered(req.App) && req.App != permissions.ServiceCommunityAuth {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown application %q", req.App))
	}
	role, err := enums.ParseUserRole(req.Role)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid role %q", req.Role))
	}

	user, err := s.users.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no user with that email")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}

	grant, err := s.users.SetAppRole(ctx, user.ID, req.App, role)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "assign role")
	}

	s.record(ctx, actorID, "role_assigned", fmt.Sprintf("users/%s/roles/%s", user.ID, req.App))
	return &RoleAssignmentResponse{
		UserID: user.ID,
		Email:  user.Email,
		App:    grant.AppName,
		Role:   grant.Role,
	}, nil
}

func (s *service) RemoveAppRole(ctx context.Context, actorID uuid.UUID, req RemoveRoleRequest) error {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "no user with that email")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}

	if err := s.users.RemoveAppRole(ctx, user.ID, req.App); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove role")
	}

	s.record(ctx, actorID, "role_removed", fmt.Sprintf("users/%s/roles/%s", user.ID, req.App))
	return nil
}

func (s *service) loadUser(ctx context.Context, id uuid.UUID) (*models.CommunityUser, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return user, nil
}

func (s *service) record(ctx context.Context, actorID uuid.UUID, action, resource string) {
	if s.auditor == nil {
		return
	}
	actor := actorID
	res := resource
	s.auditor.Record(ctx, audit.Entry{
		UserID:      &actor,
		ServiceName: permissions.ServiceCommunityAuth,
		Action:      action,
		Resource:    &res,
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
