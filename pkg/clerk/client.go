package clerk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/marvista/community-portal-backend/pkg/errors"
)

const (
	defaultBaseURL             = "https://api.clerk.com/v1"
	sessionStatusActive        = "active"
	requestBodyReadLimit int64 = 1024
)

var errSecretKeyRequired = errors.New("clerk secret key is required")

// Client wraps the Clerk backend API endpoints used for session verification.
type Client struct {
	httpClient *http.Client
	baseURL    string
	secretKey  string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured Clerk API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient builds a Clerk backend API client given a secret key.
func NewClient(secretKey string, opts ...Option) (*Client, error) {
	trimmedKey := strings.TrimSpace(secretKey)
	if trimmedKey == "" {
		return nil, errSecretKeyRequired
	}

	client := &Client{
		secretKey:  trimmedKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}

	return client, nil
}

// Session is the subset of Clerk session data the portal relies on.
type Session struct {
	ID       string `json:"id"`
	UserID   string `json:"user_id"`
	ClientID string `json:"client_id"`
	Status   string `json:"status"`
	ExpireAt int64  `json:"expire_at"`
}

// Active reports whether the provider still considers the session live.
func (s *Session) Active() bool {
	return s != nil && s.Status == sessionStatusActive
}

// User is the subset of Clerk user data the portal relies on.
type User struct {
	ID                    string `json:"id"`
	FirstName             string `json:"first_name"`
	LastName              string `json:"last_name"`
	PrimaryEmailAddressID string `json:"primary_email_address_id"`
	ImageURL              string `json:"image_url"`
	EmailAddresses        []struct {
		ID           string `json:"id"`
		EmailAddress string `json:"email_address"`
	} `json:"email_addresses"`
	PrimaryPhoneNumberID string `json:"primary_phone_number_id"`
	PhoneNumbers         []struct {
		ID          string `json:"id"`
		PhoneNumber string `json:"phone_number"`
	} `json:"phone_numbers"`
}

// PrimaryEmail returns the address flagged primary, falling back to the first
// address on record.
func (u *User) PrimaryEmail() string {
	if u == nil {
		return ""
	}
	for _, addr := range u.EmailAddresses {
		if addr.ID == u.PrimaryEmailAddressID {
			return addr.EmailAddress
		}
	}
	if len(u.EmailAddresses) > 0 {
		return u.EmailAddresses[0].EmailAddress
	}
	return ""
}

// PrimaryPhone returns the phone number flagged primary, if any.
func (u *User) PrimaryPhone() string {
	if u == nil {
		return ""
	}
	for _, num := range u.PhoneNumbers {
		if num.ID == u.PrimaryPhoneNumberID {
			return num.PhoneNumber
		}
	}
	return ""
}

// FullName joins the first and last names, trimming either when absent.
func (u *User) FullName() string {
	if u == nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
}

// VerifySessionToken asks Clerk to verify a session token issued to one of its
// clients and returns the session it belongs to.
func (c *Client) VerifySessionToken(ctx context.Context, token string) (*Session, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConfig, "identity provider client not configured")
	}
	if strings.TrimSpace(token) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session token is required")
	}

	payload, err := json.Marshal(map[string]string{"token": token})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal verify request")
	}

	var apiResp struct {
		LastActiveSessionID string    `json:"last_active_session_id"`
		Sessions            []Session `json:"sessions"`
	}
	if err := c.do(ctx, http.MethodPost, "/clients/verify", bytes.NewReader(payload), &apiResp); err != nil {
		return nil, err
	}

	for i := range apiResp.Sessions {
		if apiResp.Sessions[i].ID == apiResp.LastActiveSessionID {
			return &apiResp.Sessions[i], nil
		}
	}
	for i := range apiResp.Sessions {
		if apiResp.Sessions[i].Active() {
			return &apiResp.Sessions[i], nil
		}
	}

	return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "no active session for token")
}

// GetSession fetches a session by ID so its status can be re-checked.
func (c *Client) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConfig, "identity provider client not configured")
	}
	trimmed := strings.TrimSpace(sessionID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session ID is required")
	}

	var session Session
	if err := c.do(ctx, http.MethodGet, "/sessions/"+url.PathEscape(trimmed), nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// GetUser fetches the provider user record backing a session.
func (c *Client) GetUser(ctx context.Context, userID string) (*User, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConfig, "identity provider client not configured")
	}
	trimmed := strings.TrimSpace(userID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user ID is required")
	}

	var user User
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(trimmed), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	endpoint := strings.TrimRight(c.baseURL, "/") + path

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build clerk request")
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute clerk request")
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusBadRequest:
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "identity provider rejected credentials")
	case resp.StatusCode == http.StatusNotFound:
		return pkgerrors.New(pkgerrors.CodeNotFound, "identity provider record not found")
	default:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, requestBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "clerk request failed")
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode clerk response")
	}
	return nil
}
