package xtream

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tabarek/iptvctl/config"
)

// ConnectionStatus is the heartbeat-owned view of provider reachability.
type ConnectionStatus int32

const (
	StatusDisconnected ConnectionStatus = iota
	StatusConnecting
	StatusConnected
)

// String implements fmt.Stringer.
func (s ConnectionStatus) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// authenticator performs a credential check against the provider.
type authenticator interface {
	Authenticate(ctx context.Context) (*UserInfo, error)
}

// SessionManager owns authentication state: the opaque session token, its
// expiry, and the periodic health check with debounced auto-reconnect.
//
// The token is a handle only, never a credential: the Xtream API
// authenticates every request with the username/password query parameters.
type SessionManager struct {
	auth              authenticator
	tokenValidity     time.Duration
	heartbeatInterval time.Duration
	reconnectDelay    time.Duration
	initRetries       int
	initBackoff       time.Duration
	logger            zerolog.Logger
	now               func() time.Time

	mu        sync.Mutex
	token     string
	expiry    time.Time
	userInfo  *UserInfo
	status    ConnectionStatus
	checking  bool
	reconnect *time.Timer
	closed    bool

	heartbeatStop chan struct{}
	heartbeatDone chan struct{}
}

// NewSessionManager creates a SessionManager around the given authenticator.
func NewSessionManager(cfg config.SessionConfig, auth authenticator, logger zerolog.Logger) *SessionManager {
	return &SessionManager{
		auth:              auth,
		tokenValidity:     cfg.TokenValidity,
		heartbeatInterval: cfg.HeartbeatInterval,
		reconnectDelay:    cfg.ReconnectDelay,
		initRetries:       cfg.InitRetries,
		initBackoff:       1 * time.Second,
		logger:            logger,
		now:               time.Now,
	}
}

// Initialize authenticates at startup. Failures are retried with an
// exponential backoff (base delay doubling per attempt) up to the configured
// attempt cap; the final error is returned for the caller to log, not to
// treat as fatal.
func (m *SessionManager) Initialize(ctx context.Context) error {
	delay := m.initBackoff
	var lastErr error

	for attempt := 0; attempt < m.initRetries; attempt++ {
		if attempt > 0 {
			m.logger.Warn().Err(lastErr).Dur("retry_in", delay).Msg("Initialization failed, retrying")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		if err := m.establish(ctx); err != nil {
			lastErr = err
			continue
		}

		m.logger.Info().Msg("Session established")
		return nil
	}

	return fmt.Errorf("initialization failed after %d attempts: %w", m.initRetries, lastErr)
}

// Refresh re-authenticates iff the session has no token or the token has
// reached its expiry. A still-valid session is left untouched. Failure to
// re-authenticate surfaces as ErrSession.
func (m *SessionManager) Refresh(ctx context.Context) error {
	m.mu.Lock()
	valid := m.token != "" && m.now().Before(m.expiry)
	m.mu.Unlock()

	if valid {
		return nil
	}

	if err := m.establish(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrSession, err)
	}
	return nil
}

// StartHeartbeat launches the periodic health check loop. Calling it on a
// running manager is a no-op.
func (m *SessionManager) StartHeartbeat() {
	m.mu.Lock()
	if m.heartbeatStop != nil || m.closed {
		m.mu.Unlock()
		return
	}
	m.heartbeatStop = make(chan struct{})
	m.heartbeatDone = make(chan struct{})
	stop, done := m.heartbeatStop, m.heartbeatDone
	m.mu.Unlock()

	go m.heartbeatLoop(stop, done)
}

// Close stops the heartbeat loop and cancels any pending reconnect attempt.
func (m *SessionManager) Close() {
	m.mu.Lock()
	m.closed = true
	stop, done := m.heartbeatStop, m.heartbeatDone
	m.heartbeatStop, m.heartbeatDone = nil, nil
	if m.reconnect != nil {
		m.reconnect.Stop()
		m.reconnect = nil
	}
	m.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
}

// Token returns the current opaque session token, or "" when unauthenticated.
func (m *SessionManager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// Snapshot returns a consistent token+expiry pair.
func (m *SessionManager) Snapshot() (string, time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, m.expiry
}

// Status returns the heartbeat's view of the connection.
func (m *SessionManager) Status() ConnectionStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// UserInfo returns the account details from the last successful
// authentication, or nil.
func (m *SessionManager) UserInfo() *UserInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.userInfo
}

// establish performs one authentication round and, on success, issues a new
// token with a fixed validity window from issuance. It never touches the
// connection status; that belongs to the heartbeat's checkConnection.
func (m *SessionManager) establish(ctx context.Context) error {
	info, err := m.auth.Authenticate(ctx)
	if err != nil {
		return err
	}

	token := newToken()
	m.mu.Lock()
	m.token = token
	m.expiry = m.now().Add(m.tokenValidity)
	m.userInfo = info
	m.mu.Unlock()

	return nil
}

func (m *SessionManager) heartbeatLoop(stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.checkConnection()
		case <-stop:
			return
		}
	}
}

// checkConnection runs one health check. An overlapping check is skipped
// rather than queued; a failed check schedules exactly one deferred
// reconnect attempt. This is the sole writer of the connection status.
func (m *SessionManager) checkConnection() {
	m.mu.Lock()
	if m.checking || m.closed {
		m.mu.Unlock()
		return
	}
	m.checking = true
	m.mu.Unlock()

	m.setStatus(StatusConnecting)

	ctx, cancel := context.WithTimeout(context.Background(), m.heartbeatInterval)
	err := m.establish(ctx)
	cancel()

	m.mu.Lock()
	m.checking = false
	m.mu.Unlock()

	if err != nil {
		m.setStatus(StatusDisconnected)
		m.logger.Warn().Err(err).Msg("Connection check failed")
		m.scheduleReconnect()
		return
	}

	m.setStatus(StatusConnected)
}

// scheduleReconnect arms a single deferred reconnect. A failure observed
// while one is already pending does not arm another.
func (m *SessionManager) scheduleReconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.reconnect != nil || m.closed {
		return
	}

	m.reconnect = time.AfterFunc(m.reconnectDelay, func() {
		m.mu.Lock()
		m.reconnect = nil
		m.mu.Unlock()
		m.checkConnection()
	})
}

func (m *SessionManager) setStatus(status ConnectionStatus) {
	m.mu.Lock()
	m.status = status
	m.mu.Unlock()
}

// newToken issues an opaque session handle.
func newToken() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%x", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
