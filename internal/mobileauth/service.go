package mobileauth

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/marvista/community-portal-backend/internal/audit"
	"github.com/marvista/community-portal-backend/internal/auth"
	"github.com/marvista/community-portal-backend/internal/permissions"
	"github.com/marvista/community-portal-backend/internal/users"
	"github.com/marvista/community-portal-backend/pkg/clerk"
	"github.com/marvista/community-portal-backend/pkg/config"
	"github.com/marvista/community-portal-backend/pkg/db/models"
	"github.com/marvista/community-portal-backend/pkg/enums"
	pkgerrors "github.com/marvista/community-portal-backend/pkg/errors"
)

// InitiateResponse is handed to the mobile client to open the hosted sign-in
// page in a WebView.
type InitiateResponse struct {
	RedirectURL string `json:"redirectUrl"`
	SignInID    string `json:"signInId"`
	Provider    string `json:"provider"`
}

// CallbackInput carries the query parameters of the hosted page redirect.
type CallbackInput struct {
	SignInID       string
	ClerkSessionID string
}

// CompleteInput finishes an attempt. Only the correlation ID comes from the
// client; the bound provider session is what gets re-validated.
type CompleteInput struct {
	SignInID  string
	IPAddress *string
	UserAgent *string
}

// CompleteResponse mirrors the session-exchange result for the mobile shape.
type CompleteResponse struct {
	User  *users.UserDTO `json:"user"`
	Token string         `json:"token"`
}

// Service drives the mobile OAuth bridge.
type Service interface {
	Initiate(ctx context.Context, provider string) (*InitiateResponse, error)
	Callback(ctx context.Context, input CallbackInput) error
	Complete(ctx context.Context, input CompleteInput) (*CompleteResponse, error)
}

type attemptStore interface {
	Create(ctx context.Context, signInID, provider string) error
	Get(ctx context.Context, signInID string) (*Attempt, error)
	Bind(ctx context.Context, signInID, clerkSessionID, clerkUserID string) error
	Delete(ctx context.Context, signInID string) error
}

type identityProvider interface {
	GetSession(ctx context.Context, sessionID string) (*clerk.Session, error)
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
	attempts attemptStore
	identity identityProvider
	users    userRepository
	session  sessionManager
	auditor  auditRecorder
	jwtCfg   config.JWTConfig
	clerkCfg config.ClerkConfig
	portal   config.PortalConfig
	mobile   config.MobileConfig
}

// ServiceParams bundles the dependencies required to build the bridge.
type ServiceParams struct {
	Attempts       attemptStore
	Identity       identityProvider
	UserRepo       userRepository
	SessionManager sessionManager
	Auditor        auditRecorder
	JWTConfig      config.JWTConfig
	ClerkConfig    config.ClerkConfig
	PortalConfig   config.PortalConfig
	MobileConfig   config.MobileConfig
}

// NewService constructs the mobile OAuth bridge service.
func NewService(params ServiceParams) (Service, error) {
	if params.Attempts == nil {
		return nil, fmt.Errorf("attempt store is required")
	}
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
		attempts: params.Attempts,
		identity: params.Identity,
		users:    params.UserRepo,
		session:  params.SessionManager,
		auditor:  params.Auditor,
		jwtCfg:   params.JWTConfig,
		clerkCfg: params.ClerkConfig,
		portal:   params.PortalConfig,
		mobile:   params.MobileConfig,
	}, nil
}

// Initiate builds the hosted sign-in URL for the provider and registers a
// pending attempt under a fresh correlation ID.
func (s *service) Initiate(ctx context.Context, provider string) (*InitiateResponse, error) {
	normalized := strings.ToLower(strings.TrimSpace(provider))
	if normalized == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider is required")
	}
	if _, err := enums.ParseProvider(normalized); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported provider %q", normalized))
	}

	// Derive the URL before persisting so a bad publishable key does not
	// leave an orphaned attempt behind.
	signInID := uuid.NewString()
	callbackURL := s.callbackURL(signInID)
	redirectURL, err := clerk.SignInURL(s.clerkCfg.PublishableKey, callbackURL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeConfig, err, "derive sign-in url")
	}

	if err := s.attempts.Create(ctx, signInID, normalized); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store sign-in attempt")
	}

	return &InitiateResponse{
		RedirectURL: redirectURL,
		SignInID:    signInID,
		Provider:    normalized,
	}, nil
}

// Callback verifies the provider session reported by the hosted-page redirect
// and binds it to the pending attempt. The WebView's URL sniffing is a UI cue
// only; this is where the session becomes trusted.
func (s *service) Callback(ctx context.Context, input CallbackInput) error {
	if strings.TrimSpace(input.SignInID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "sign_in_id is required")
	}
	if strings.TrimSpace(input.ClerkSessionID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "provider session id is required")
	}

	if _, err := s.attempts.Get(ctx, input.SignInID); err != nil {
		if err == ErrAttemptNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "unknown or expired sign-in attempt")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load sign-in attempt")
	}

	providerSession, err := s.identity.GetSession(ctx, input.ClerkSessionID)
	if err != nil {
		return err
	}
	if !providerSession.Active() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "provider session is not active")
	}

	if err := s.attempts.Bind(ctx, input.SignInID, providerSession.ID, providerSession.UserID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "bind sign-in attempt")
	}
	return nil
}

// Complete re-validates the bound provider session and runs the same local
// find-or-create plus token mint as the session exchange. The attempt is
// consumed on success; a failed re-validation leaves it in place until the
// TTL expires it.
func (s *service) Complete(ctx context.Context, input CompleteInput) (*CompleteResponse, error) {
	if strings.TrimSpace(input.SignInID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "signInId is required")
	}

	attempt, err := s.attempts.Get(ctx, input.SignInID)
	if err != nil {
		if err == ErrAttemptNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "unknown or expired sign-in attempt")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load sign-in attempt")
	}

	if !attempt.Bound() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign-in was not completed with the provider")
	}

	providerSession, err := s.identity.GetSession(ctx, attempt.ClerkSessionID)
	if err != nil {
		return nil, err
	}
	if !providerSession.Active() || providerSession.UserID != attempt.ClerkUserID {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "provider session is no longer valid")
	}

	providerUser, err := s.identity.GetUser(ctx, attempt.ClerkUserID)
	if err != nil {
		return nil, err
	}
	email := providerUser.PrimaryEmail()
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "provider identity has no email address")
	}

	user, err := auth.SyncProviderUser(ctx, s.users, s.portal, providerUser, email)
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

	tokens, err := auth.IssueTokens(ctx, s.session, s.jwtCfg, user, now)
	if err != nil {
		return nil, err
	}

	// single use
	if err := s.attempts.Delete(ctx, input.SignInID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "consume sign-in attempt")
	}

	if s.auditor != nil {
		userID := user.ID
		s.auditor.Record(ctx, audit.Entry{
			UserID:      &userID,
			ServiceName: permissions.ServiceCommunityAuth,
			Action:      "mobile_login",
			IPAddress:   input.IPAddress,
			UserAgent:   input.UserAgent,
		})
	}

	return &CompleteResponse{
		User:  tokens.User,
		Token: tokens.AccessToken,
	}, nil
}

func (s *service) callbackURL(signInID string) string {
	base := strings.TrimRight(s.mobile.CallbackBaseURL, "/")
	return base + "/mobile/auth/callback?sign_in_id=" + url.QueryEscape(signInID)
}
