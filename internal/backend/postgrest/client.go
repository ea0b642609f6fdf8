// Package postgrest implements service.Remote against the tasks table of a
// hosted Postgres REST API, authenticating with refreshable bearer tokens.
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
	"golang.org/x/sync/singleflight"
	"google.golang.org/api/googleapi"

	"widgetsync/internal/service"
	"widgetsync/internal/store"
	"widgetsync/internal/task"
)

const (
	// APITimeout bounds each HTTP request unless the HTTP client sets its own timeout.
	APITimeout = 5 * time.Second

	// tasksPath is the REST resource for task rows, relative to the base URL.
	tasksPath = "/rest/v1/tasks"
)

// Client implements service.Remote.
type Client struct {
	http      *http.Client
	creds     *store.Credentials
	refresher *TokenRefresher
	logger    *slog.Logger

	// refreshes coalesces concurrent 401s into one token exchange.
	refreshes singleflight.Group
}

// New creates a client with a default HTTP client.
func New(creds *store.Credentials, logger *slog.Logger) *Client {
	return NewWithHTTPClient(&http.Client{Timeout: APITimeout}, creds, logger)
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing).
func NewWithHTTPClient(httpClient *http.Client, creds *store.Credentials, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		http:      httpClient,
		creds:     creds,
		refresher: NewTokenRefresher(httpClient, creds, logger),
		logger:    logger,
	}
}

// Refresher returns the token refresher sharing this client's transport.
func (c *Client) Refresher() *TokenRefresher {
	return c.refresher
}

// Patch sends a partial update for one task.
func (c *Client) Patch(ctx context.Context, taskID string, fields task.Update) error {
	body, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to encode update: %w", err)
	}
	query := url.Values{"id": {"eq." + taskID}}

	_, err = c.do(ctx, "patch", func(ctx context.Context, base string) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPatch, endpoint(base, tasksPath, query), bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Prefer", "return=minimal")
		return req, nil
	})
	return err
}

// FetchAll returns the tasks owned by userID, oldest first.
func (c *Client) FetchAll(ctx context.Context, userID string) ([]task.Task, error) {
	query := url.Values{
		"user_id": {"eq." + userID},
		"order":   {"created_at"},
	}

	data, err := c.do(ctx, "fetch", func(ctx context.Context, base string) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint(base, tasksPath, query), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, err
	}

	var tasks []task.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, &service.SyncError{Kind: service.ServerRejected, Op: "fetch", StatusCode: http.StatusOK,
			Err: fmt.Errorf("invalid task list: %w", err)}
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	return tasks, nil
}

// requestBuilder creates a request against base. Auth headers are added by do.
type requestBuilder func(ctx context.Context, base string) (*http.Request, error)

// do sends a request with the stored token. On a 401 it refreshes the token
// once and resends; there are never more than two attempts.
func (c *Client) do(ctx context.Context, op string, build requestBuilder) ([]byte, error) {
	cred, err := c.creds.Load(ctx)
	if err != nil {
		return nil, &service.SyncError{Kind: service.Misconfigured, Op: op, Err: err}
	}
	if !cred.HasBackend() {
		return nil, &service.SyncError{Kind: service.Misconfigured, Op: op, Err: store.ErrNoBackend}
	}

	tok := cred.Token()
	for attempt := 1; ; attempt++ {
		data, status, err := c.send(ctx, build, cred, tok)
		if err == nil {
			return data, nil
		}
		if status != http.StatusUnauthorized {
			return nil, classify(op, status, err)
		}
		if attempt > 1 {
			return nil, &service.SyncError{Kind: service.Unauthenticated, Op: op, StatusCode: status, Err: err}
		}

		c.logger.Debug("access token rejected, refreshing", "op", op)
		tok, err = c.refresh(ctx)
		if err != nil {
			return nil, &service.SyncError{Kind: service.Unauthenticated, Op: op, StatusCode: status, Err: err}
		}
	}
}

// send performs one HTTP attempt. status is 0 when no response was received.
func (c *Client) send(ctx context.Context, build requestBuilder, cred store.Credential, tok *oauth2.Token) ([]byte, int, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout(c.http))
	defer cancel()

	req, err := build(ctx, cred.BaseURL)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid backend url: %w", err)
	}
	req.Header.Set("apikey", cred.APIKey)
	tok.SetAuthHeader(req)

	res, err := c.http.Do(req)
	if err != nil {
		return nil, 0, wrapError(err)
	}
	defer res.Body.Close()

	if err := googleapi.CheckResponse(res); err != nil {
		return nil, res.StatusCode, err
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, 0, wrapError(err)
	}
	return data, res.StatusCode, nil
}

func (c *Client) refresh(ctx context.Context) (*oauth2.Token, error) {
	v, err, shared := c.refreshes.Do("refresh", func() (any, error) {
		return c.refresher.Refresh(ctx)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.Debug("joined in-flight token refresh")
	}
	return v.(*oauth2.Token), nil
}

func requestTimeout(h *http.Client) time.Duration {
	if h.Timeout > 0 {
		return h.Timeout
	}
	return APITimeout
}

func endpoint(base, path string, query url.Values) string {
	return strings.TrimRight(base, "/") + path + "?" + query.Encode()
}

// classify turns a failed attempt into a SyncError.
func classify(op string, status int, err error) error {
	if status == 0 {
		return &service.SyncError{Kind: service.Network, Op: op, Err: err}
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Message != "" {
		err = errors.New(gerr.Message)
	}
	return &service.SyncError{Kind: service.ServerRejected, Op: op, StatusCode: status, Err: err}
}

// wrapError wraps transport errors with user-friendly messages.
func wrapError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", err)
	}
	return err
}
