package clerk

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
)

// Clerk publishable keys encode the tenant's frontend label: a pk_test_ or
// pk_live_ prefix followed by the base64 label terminated with '$'.
const (
	testKeyPrefix = "pk_test_"
	liveKeyPrefix = "pk_live_"

	frontendSuffix = ".clerk.accounts.dev"
)

// DeriveFrontendDomain extracts the tenant label from a publishable key.
// The derivation is pure: the same key always yields the same label.
func DeriveFrontendDomain(publishableKey string) (string, error) {
	key := strings.TrimSpace(publishableKey)
	if key == "" {
		return "", fmt.Errorf("publishable key is required")
	}

	var encoded string
	switch {
	case strings.HasPrefix(key, testKeyPrefix):
		encoded = key[len(testKeyPrefix):]
	case strings.HasPrefix(key, liveKeyPrefix):
		encoded = key[len(liveKeyPrefix):]
	default:
		return "", fmt.Errorf("publishable key must start with %s or %s", testKeyPrefix, liveKeyPrefix)
	}

	if padding := len(encoded) % 4; padding != 0 {
		encoded += strings.Repeat("=", 4-padding)
	}

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decoding publishable key: %w", err)
	}

	label := strings.TrimSuffix(string(decoded), "$")
	if label == "" {
		return "", fmt.Errorf("publishable key decodes to an empty tenant label")
	}

	return label, nil
}

// SignInURL builds the hosted sign-in page URL for the tenant encoded in the
// publishable key, redirecting back to callbackURL once the provider finishes.
func SignInURL(publishableKey, callbackURL string) (string, error) {
	label, err := DeriveFrontendDomain(publishableKey)
	if err != nil {
		return "", err
	}

	u := &url.URL{
		Scheme: "https",
		Host:   label + frontendSuffix,
		Path:   "/sign-in",
	}
	if callbackURL != "" {
		q := u.Query()
		q.Set("redirect_url", callbackURL)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
