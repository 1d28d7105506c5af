package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marvista/community-portal-backend/internal/audit"
	"github.com/marvista/community-portal-backend/internal/permissions"
	"github.com/marvista/community-portal-backend/internal/users"
	pkgAuth "github.com/marvista/community-portal-backend/pkg/auth"
	"github.com/marvista/community-portal-backend/pkg/auth/session"
	"github.com/marvista/community-portal-backend/pkg/clerk"
	"github.com/marvista/community-portal-backend/pkg/config"
	"github.com/marvista/community-portal-backend/pkg/db/models"
	"github.com/marvista/community-portal-backend/pkg/enums"
	pkgerrors "github.com/marvista/community-portal-backend/pkg/errors"
)

const tokenTypeBearer = "bearer"

// Service defines the behavior needed by the auth controller.
type Service interface {
	Login(ctx context.Context, input LoginInput) (*LoginResponse, error)
	Profile(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error)
}

type identityProvider interface {
	VerifySessionToken(ctx context.Context, token string) (*clerk.Session, error)
	GetUser(ctx context.Context, userID string) (*clerk.User, error)
}

type userRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.CommunityUser, error)
	FindByClerkID(ctx context.Context, clerkUserID string) (*models.CommunityUser, error)
	FindByEmail(ctx context.Context, email string) (*models.CommunityUser, error)
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.CommunityUser, error)
	Update(ctx context.Context, id uuid.UUID, dto users.UpdateUserDTO) (*models.CommunityUser, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
}

type auditRecorder interface {
	Record(ctx context.Context, entry audit.Entry)
}

type service struct {
	identity identityProvider
	users    userRepository
	session  sessionManager
	auditor  auditRecorder
	jwtCfg   config.JWTConfig
	portal   config.PortalConfig
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Identity       identityProvider
	UserRepo       userRepository
	SessionManager sessionManager
	Auditor        auditRecorder
	JWTConfig      config.JWTConfig
	PortalConfig   config.PortalConfig
}

// NewService constructs the session-exchange service.
func NewService(params ServiceParams) (Service, error) {
	if params.Identity == nil {
		return nil, fmt.Errorf("identity provider client is required")
	}
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	return &service{
		identity: params.Identity,
		users:    params.UserRepo,
		session:  params.SessionManager,
		auditor:  params.Auditor,
		jwtCfg:   params.JWTConfig,
		portal:   params.PortalConfig,
	}, nil
}

// Login exchanges a verified provider session for a locally-minted token pair.
// First sight of a provider identity creates the local account; the admin
// email list only seeds the role at that moment and is never re-applied.
func (s *service) Login(ctx context.Context, input LoginInput) (*LoginResponse, error) {
	providerSession, err := s.identity.VerifySessionToken(ctx, input.ClerkSessionToken)
	if err != nil {
		return nil, err
	}
	if !providerSession.Active() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "provider session is not active")
	}

	providerUser, err := s.identity.GetUser(ctx, providerSession.UserID)
	if err != nil {
		return nil, err
	}

	email := providerUser.PrimaryEmail()
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "provider identity has no email address")
	}

	user, err := SyncProviderUser(ctx, s.users, s.portal, providerUser, email)
	if err != nil {
		return nil, err
	}

	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "account is deactivated")
	}

	now := time.Now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record login time")
	}
	loginAt := now
	user.LastLoginAt = &loginAt

	resp, err := IssueTokens(ctx, s.session, s.jwtCfg, user, now)
	if err != nil {
		return nil, err
	}

	serviceName := input.Service
	if serviceName == "" {
		serviceName = permissions.ServiceCommunityAuth
	}
	if s.auditor != nil {
		userID := user.ID
		s.auditor.Record(ctx, audit.Entry{
			UserID:      &userID,
			ServiceName: serviceName,
			Action:      "login",
			IPAddress:   input.IPAddress,
			UserAgent:   input.UserAgent,
		})
	}

	return resp, nil
}

// Profile returns the stored record behind an authenticated token.
func (s *service) Profile(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return users.FromModel(user), nil
}

// SyncProviderUser finds or creates the local account for a verified
// provider identity: by clerk id first, then by email so accounts
// pre-created through the admin console get linked on first login. New
// accounts default to homeowner unless the email is on the bootstrap admin
// list; existing roles are never touched.
func SyncProviderUser(ctx context.Context, repo userRepository, portal config.PortalConfig, providerUser *clerk.User, email string) (*models.CommunityUser, error) {
	fullName := providerUser.FullName()
	if fullName == "" {
		fullName = email
	}
	var phone *string
	if p := providerUser.PrimaryPhone(); p != "" {
		phone = &p
	}

	user, err := repo.FindByClerkID(ctx, providerUser.ID)
	switch {
	case err == nil:
		updated, err := repo.Update(ctx, user.ID, users.UpdateUserDTO{
			FullName:    &fullName,
			PhoneNumber: phone,
		})
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sync user")
		}
		return updated, nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		existing, emailErr := repo.FindByEmail(ctx, email)
		switch {
		case emailErr == nil:
			clerkID := providerUser.ID
			linked, err := repo.Update(ctx, existing.ID, users.UpdateUserDTO{
				ClerkUserID: &clerkID,
				FullName:    &fullName,
				PhoneNumber: phone,
			})
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "link user")
			}
			return linked, nil

		case !errors.Is(emailErr, gorm.ErrRecordNotFound):
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, emailErr, "load user")
		}

		role := enums.UserRoleHomeowner
		if portal.IsAdminEmail(email) {
			role = enums.UserRoleSuperAdmin
		}
		created, err := repo.Create(ctx, users.CreateUserDTO{
			ClerkUserID: providerUser.ID,
			Email:       email,
			FullName:    fullName,
			PhoneNumber: phone,
			Role:        role,
		})
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "create user")
		}
		return created, nil

	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
}

// IssueTokens mints the access/refresh pair for an already-validated user.
func IssueTokens(ctx context.Context, sess sessionManager, jwtCfg config.JWTConfig, user *models.CommunityUser, now time.Time) (*LoginResponse, error) {
	accessID := session.NewAccessID()

	accessToken, err := pkgAuth.MintAccessToken(jwtCfg, now, pkgAuth.AccessTokenPayload{
		UserID:      user.ID,
		ClerkUserID: user.ClerkUserID,
		Email:       user.Email,
		FullName:    user.FullName,
		Role:        user.Role,
		UnitNumber:  user.UnitNumber,
		IsActive:    user.IsActive,
		JTI:         accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}

	refreshToken, err := sess.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store refresh token")
	}

	return &LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    tokenTypeBearer,
		ExpiresIn:    int(jwtCfg.AccessTokenTTL().Seconds()),
		User:         users.FromModel(user),
	}, nil
}
