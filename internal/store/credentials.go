package store

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
)

// Credential keys. They live in the same KV as the task cache.
const (
	BackendURLKey     = "backend_url"
	BackendAnonKeyKey = "backend_anon_key"
	AccessTokenKey    = "access_token"
	RefreshTokenKey   = "refresh_token"
	MyUserIDKey       = "user_id_me"

	partnerUserIDKeyFmt = "user_id_partner_%d"
)

// ErrNoBackend indicates the backend URL or API key has not been configured.
var ErrNoBackend = errors.New("backend url or api key not configured")

// PartnerUserIDKey returns the remote user id key for the i-th partner (0-based).
func PartnerUserIDKey(i int) string {
	return fmt.Sprintf(partnerUserIDKeyFmt, i)
}

// Credential is a point-in-time read of the stored auth state.
type Credential struct {
	BaseURL      string
	APIKey       string
	AccessToken  string
	RefreshToken string
}

// HasBackend reports whether the base URL and API key are both set.
func (c Credential) HasBackend() bool {
	return c.BaseURL != "" && c.APIKey != ""
}

// Token returns the stored tokens as an oauth2 bearer token.
func (c Credential) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    "Bearer",
	}
}

// Credentials is the single source of auth truth for the process.
type Credentials struct {
	kv KV
}

// NewCredentials creates a credential view over kv.
func NewCredentials(kv KV) *Credentials {
	return &Credentials{kv: kv}
}

// Load reads all credential keys. Missing keys read as empty strings.
func (c *Credentials) Load(ctx context.Context) (Credential, error) {
	var cred Credential
	fields := []struct {
		key string
		dst *string
	}{
		{BackendURLKey, &cred.BaseURL},
		{BackendAnonKeyKey, &cred.APIKey},
		{AccessTokenKey, &cred.AccessToken},
		{RefreshTokenKey, &cred.RefreshToken},
	}
	for _, f := range fields {
		v, _, err := c.kv.Get(ctx, f.key)
		if err != nil {
			return Credential{}, fmt.Errorf("failed to load credentials: %w", err)
		}
		*f.dst = v
	}
	return cred, nil
}

// SetBackend stores the backend base URL and anonymous API key.
func (c *Credentials) SetBackend(ctx context.Context, baseURL, apiKey string) error {
	if err := c.kv.Set(ctx, BackendURLKey, baseURL); err != nil {
		return err
	}
	return c.kv.Set(ctx, BackendAnonKeyKey, apiKey)
}

// SaveToken overwrites both stored tokens. Both must be non-empty.
// The refresh token is written first: if the second write fails, the old
// access token is rejected on next use and the new refresh token recovers it.
func (c *Credentials) SaveToken(ctx context.Context, tok *oauth2.Token) error {
	if tok == nil || tok.AccessToken == "" || tok.RefreshToken == "" {
		return errors.New("refusing to store incomplete token")
	}
	if err := c.kv.Set(ctx, RefreshTokenKey, tok.RefreshToken); err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	if err := c.kv.Set(ctx, AccessTokenKey, tok.AccessToken); err != nil {
		return fmt.Errorf("failed to store access token: %w", err)
	}
	return nil
}

// ClearTokens removes both tokens, leaving the backend settings in place.
func (c *Credentials) ClearTokens(ctx context.Context) error {
	if err := c.kv.Delete(ctx, AccessTokenKey); err != nil {
		return err
	}
	return c.kv.Delete(ctx, RefreshTokenKey)
}

// UserID returns the remote user id stored under key, or "" if none.
func (c *Credentials) UserID(ctx context.Context, key string) (string, error) {
	v, _, err := c.kv.Get(ctx, key)
	return v, err
}

// SetUserID stores a remote user id under key.
func (c *Credentials) SetUserID(ctx context.Context, key, userID string) error {
	return c.kv.Set(ctx, key, userID)
}
