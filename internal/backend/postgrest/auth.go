package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"widgetsync/internal/store"
)

const (
	// tokenPath is the auth server token endpoint, relative to the base URL.
	tokenPath = "/auth/v1/token"

	// Grant types accepted by the token endpoint.
	grantRefreshToken = "refresh_token"
	grantPassword     = "password"
)

// ErrNoRefreshToken indicates there is no stored refresh token to exchange.
var ErrNoRefreshToken = errors.New("no refresh token stored (run: widgetsync login)")

// TokenRefresher exchanges credentials for tokens at the auth endpoint.
type TokenRefresher struct {
	http   *http.Client
	creds  *store.Credentials
	logger *slog.Logger
}

// NewTokenRefresher creates a refresher using httpClient.
func NewTokenRefresher(httpClient *http.Client, creds *store.Credentials, logger *slog.Logger) *TokenRefresher {
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenRefresher{http: httpClient, creds: creds, logger: logger}
}

// tokenResponse is the auth server's token payload.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	User         struct {
		ID string `json:"id"`
	} `json:"user"`
}

// Refresh exchanges the stored refresh token for a new token pair, stores both
// and returns the new token. On any failure the stored credentials are untouched.
func (r *TokenRefresher) Refresh(ctx context.Context) (*oauth2.Token, error) {
	cred, err := r.creds.Load(ctx)
	if err != nil {
		return nil, err
	}
	if !cred.HasBackend() {
		return nil, store.ErrNoBackend
	}
	if cred.RefreshToken == "" {
		return nil, ErrNoRefreshToken
	}

	resp, err := r.exchange(ctx, cred, grantRefreshToken, map[string]string{
		"refresh_token": cred.RefreshToken,
	})
	if err != nil {
		r.logger.Warn("token refresh failed", "err", err)
		return nil, err
	}

	tok := resp.token()
	if err := r.creds.SaveToken(ctx, tok); err != nil {
		return nil, err
	}
	r.logger.Debug("token refreshed", "expiry", tok.Expiry)
	return tok, nil
}

// SignIn exchanges an email and password for tokens, stores them together
// with the signed-in user's id, and returns the token and user id.
func (r *TokenRefresher) SignIn(ctx context.Context, email, password string) (*oauth2.Token, string, error) {
	cred, err := r.creds.Load(ctx)
	if err != nil {
		return nil, "", err
	}
	if !cred.HasBackend() {
		return nil, "", store.ErrNoBackend
	}

	resp, err := r.exchange(ctx, cred, grantPassword, map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, "", err
	}

	tok := resp.token()
	if err := r.creds.SaveToken(ctx, tok); err != nil {
		return nil, "", err
	}
	if resp.User.ID != "" {
		if err := r.creds.SetUserID(ctx, store.MyUserIDKey, resp.User.ID); err != nil {
			return nil, "", err
		}
	}
	return tok, resp.User.ID, nil
}

func (t tokenResponse) token() *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  t.AccessToken,
		TokenType:    t.TokenType,
		RefreshToken: t.RefreshToken,
	}
	if t.ExpiresIn > 0 {
		tok.Expiry = time.Now().Add(time.Duration(t.ExpiresIn) * time.Second)
	}
	return tok
}

// exchange posts a grant to the token endpoint. Non-2xx answers are returned
// as *oauth2.RetrieveError.
func (r *TokenRefresher) exchange(ctx context.Context, cred store.Credential, grant string, body map[string]string) (tokenResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout(r.http))
	defer cancel()

	payload, err := json.Marshal(body)
	if err != nil {
		return tokenResponse{}, err
	}

	u := strings.TrimRight(cred.BaseURL, "/") + tokenPath + "?" + url.Values{"grant_type": {grant}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return tokenResponse{}, fmt.Errorf("invalid backend url: %w", err)
	}
	req.Header.Set("apikey", cred.APIKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := r.http.Do(req)
	if err != nil {
		return tokenResponse{}, wrapError(err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return tokenResponse{}, wrapError(err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		rerr := &oauth2.RetrieveError{Response: res, Body: data}
		var e struct {
			Error            string `json:"error"`
			ErrorDescription string `json:"error_description"`
		}
		if json.Unmarshal(data, &e) == nil {
			rerr.ErrorCode = e.Error
			rerr.ErrorDescription = e.ErrorDescription
		}
		return tokenResponse{}, rerr
	}

	var resp tokenResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return tokenResponse{}, fmt.Errorf("invalid token response: %w", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		return tokenResponse{}, errors.New("token response missing access or refresh token")
	}
	return resp, nil
}
