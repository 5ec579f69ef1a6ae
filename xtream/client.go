package xtream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// defaultBackoff is the retry schedule between failed attempts. The total
// attempt count is always 1 + len(schedule).
var defaultBackoff = []time.Duration{1 * time.Second, 2 * time.Second, 5 * time.Second}

// sessionRefresher is the slice of the session manager the request executor
// needs: a token for outgoing requests and a refresh hook for 401 responses.
type sessionRefresher interface {
	Token() string
	Refresh(ctx context.Context) error
}

// Client issues requests against an Xtream provider with retry/backoff and
// 401-driven session refresh.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	backoff    []time.Duration
	session    sessionRefresher
	logger     zerolog.Logger
}

// NewClient creates a new Xtream API client.
func NewClient(baseURL, username, password string, logger zerolog.Logger, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("%w: base URL is required", ErrInvalidConfig)
	}
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrInvalidConfig)
	}

	client := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		backoff: defaultBackoff,
		logger:  logger,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// SetSession attaches the session manager consulted on authorization failures.
func (c *Client) SetSession(session sessionRefresher) {
	c.session = session
}

// Authenticate performs the credential check against player_api.php.
// Success requires user_info.auth == 1; any other value is a rejection.
// The refresh path is disabled here so a 401 during authentication cannot
// recurse back into the session manager.
func (c *Client) Authenticate(ctx context.Context) (*UserInfo, error) {
	body, err := c.do(ctx, c.playerAPIURL("", nil), false)
	if err != nil {
		return nil, err
	}

	var resp authResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse authentication response: %w", err)
	}

	if resp.UserInfo.Auth != 1 {
		message := resp.UserInfo.Message
		if message == "" {
			message = "credentials rejected"
		}
		return nil, fmt.Errorf("%w: %s", ErrAuthentication, message)
	}

	return &resp.UserInfo, nil
}

// playerAPI performs a player_api.php call for the given action.
func (c *Client) playerAPI(ctx context.Context, action string, params url.Values) ([]byte, error) {
	c.logger.Debug().Str("action", action).Msg("Calling player API")
	return c.do(ctx, c.playerAPIURL(action, params), true)
}

// XMLTV fetches the raw XMLTV guide document, optionally restricted to the
// given channel ids.
func (c *Client) XMLTV(ctx context.Context, channelIDs []string) ([]byte, error) {
	params := url.Values{}
	params.Set("username", c.username)
	params.Set("password", c.password)
	if len(channelIDs) > 0 {
		params.Set("channel_id", strings.Join(channelIDs, ","))
	}

	c.logger.Debug().Int("channels", len(channelIDs)).Msg("Fetching XMLTV guide")
	return c.do(ctx, fmt.Sprintf("%s/xmltv.php?%s", c.baseURL, params.Encode()), true)
}

func (c *Client) playerAPIURL(action string, params url.Values) string {
	values := url.Values{}
	values.Set("username", c.username)
	values.Set("password", c.password)
	if action != "" {
		values.Set("action", action)
	}
	for key, list := range params {
		for _, value := range list {
			values.Add(key, value)
		}
	}
	return fmt.Sprintf("%s/player_api.php?%s", c.baseURL, values.Encode())
}

// do runs a request through the retry schedule. Cancellation aborts
// immediately without retrying. A 401 triggers at most one session refresh
// per request; the refreshed retry continues on the same attempt counter.
func (c *Client) do(ctx context.Context, requestURL string, allowRefresh bool) ([]byte, error) {
	attempts := len(c.backoff) + 1
	refreshed := false
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff[attempt-1]):
			}
		}

		body, err := c.roundTrip(ctx, requestURL)
		if err == nil {
			return body, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err

		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.IsUnauthorized() && allowRefresh && !refreshed {
			refreshed = true
			if c.session == nil {
				return nil, fmt.Errorf("%w: unauthorized and no session attached", ErrAuthentication)
			}
			if refreshErr := c.session.Refresh(ctx); refreshErr != nil {
				return nil, fmt.Errorf("%w: %v", ErrAuthentication, refreshErr)
			}
			c.logger.Debug().Msg("Session refreshed after 401, retrying request")
			continue
		}

		if attempt < attempts-1 {
			c.logger.Warn().Err(err).Int("attempt", attempt+1).Msg("Request failed, will retry")
		}
	}

	var statusErr *StatusError
	if errors.As(lastErr, &statusErr) && statusErr.IsUnauthorized() {
		return nil, fmt.Errorf("%w after %d attempts: %v", ErrAuthentication, attempts, lastErr)
	}
	return nil, fmt.Errorf("%w after %d attempts: %v", ErrConnection, attempts, lastErr)
}

// roundTrip performs a single HTTP exchange.
func (c *Client) roundTrip(ctx context.Context, requestURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if c.session != nil {
		if token := c.session.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	return body, nil
}
