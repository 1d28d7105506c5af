package validation

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marvista/community-portal-backend/internal/permissions"
	"github.com/marvista/community-portal-backend/pkg/auth"
	"github.com/marvista/community-portal-backend/pkg/config"
	"github.com/marvista/community-portal-backend/pkg/db/models"
	pkgerrors "github.com/marvista/community-portal-backend/pkg/errors"
)

// TokenValidationRequest is the service-to-service token check payload.
type TokenValidationRequest struct {
	Token       string `json:"token" validate:"required"`
	ServiceName string `json:"service_name" validate:"required"`
}

// TokenValidationResponse reports the outcome of a token check. A failed
// check is still a 200 response with Valid=false so downstream services can
// branch on the body alone.
type TokenValidationResponse struct {
	Valid       bool       `json:"valid"`
	UserID      *uuid.UUID `json:"user_id,omitempty"`
	ClerkUserID string     `json:"clerk_user_id,omitempty"`
	Email       string     `json:"email,omitempty"`
	FullName    string     `json:"full_name,omitempty"`
	UnitNumber  *string    `json:"unit_number,omitempty"`
	Role        string     `json:"role,omitempty"`
	Permissions []string   `json:"permissions,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// ServiceUserResponse is the profile returned to a trusted peer service.
type ServiceUserResponse struct {
	ID          uuid.UUID `json:"id"`
	ClerkUserID string    `json:"clerk_user_id"`
	Email       string    `json:"email"`
	FullName    string    `json:"full_name"`
	UnitNumber  *string   `json:"unit_number,omitempty"`
	PhoneNumber *string   `json:"phone_number,omitempty"`
	Role        string    `json:"role"`
	IsActive    bool      `json:"is_active"`
	Permissions []string  `json:"permissions"`
}

type userRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.CommunityUser, error)
	FindByClerkID(ctx context.Context, clerkUserID string) (*models.CommunityUser, error)
}

// Service answers validation requests from peer services such as the QR gate.
type Service interface {
	ValidateToken(ctx context.Context, req TokenValidationRequest) *TokenValidationResponse
	UserForService(ctx context.Context, serviceToken, serviceName string, userID uuid.UUID) (*ServiceUserResponse, error)
	UserByClerkID(ctx context.Context, serviceToken, serviceName, clerkUserID string) (*ServiceUserResponse, error)
}

type service struct {
	users        userRepository
	jwtCfg       config.JWTConfig
	serviceToken string
}

// NewService builds the validation service. An empty shared service token
// disables the service-to-service user lookups rather than accepting any
// header value.
func NewService(repo userRepository, jwtCfg config.JWTConfig, serviceToken string) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	return &service{users: repo, jwtCfg: jwtCfg, serviceToken: serviceToken}, nil
}

func invalid(reason string) *TokenValidationResponse {
	return &TokenValidationResponse{Valid: false, Error: reason}
}

func (s *service) ValidateToken(ctx context.Context, req TokenValidationRequest) *TokenValidationResponse {
	claims, err := auth.ParseAccessToken(s.jwtCfg, req.Token)
	if err != nil {
		return invalid("invalid or expired token")
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return invalid("user not found or inactive")
	}
	if !user.IsActive {
		return invalid("user not found or inactive")
	}

	userID := user.ID
	return &TokenValidationResponse{
		Valid:       true,
		UserID:      &userID,
		ClerkUserID: user.ClerkUserID,
		Email:       user.Email,
		FullName:    user.FullName,
		UnitNumber:  user.UnitNumber,
		Role:        user.Role.String(),
		Permissions: permissions.ForUser(user, req.ServiceName),
	}
}

func (s *service) authorizeService(serviceToken string) error {
	if s.serviceToken == "" {
		return pkgerrors.New(pkgerrors.CodeForbidden, "service-to-service access is not configured")
	}
	if subtle.ConstantTimeCompare([]byte(serviceToken), []byte(s.serviceToken)) != 1 {
		return pkgerrors.New(pkgerrors.CodeForbidden, "invalid service token")
	}
	return nil
}

func (s *service) UserForService(ctx context.Context, serviceToken, serviceName string, userID uuid.UUID) (*ServiceUserResponse, error) {
	if err := s.authorizeService(serviceToken); err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return serviceUser(user, serviceName), nil
}

func (s *service) UserByClerkID(ctx context.Context, serviceToken, serviceName, clerkUserID string) (*ServiceUserResponse, error) {
	if err := s.authorizeService(serviceToken); err != nil {
		return nil, err
	}

	user, err := s.users.FindByClerkID(ctx, clerkUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return serviceUser(user, serviceName), nil
}

func serviceUser(user *models.CommunityUser, serviceName string) *ServiceUserResponse {
	return &ServiceUserResponse{
		ID:          user.ID,
		ClerkUserID: user.ClerkUserID,
		Email:       user.Email,
		FullName:    user.FullName,
		UnitNumber:  user.UnitNumber,
		PhoneNumber: user.PhoneNumber,
		Role:        user.Role.String(),
		IsActive:    user.IsActive,
		Permissions: permissions.ForUser(user, serviceName),
	}
}
