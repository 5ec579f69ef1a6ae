package xtream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabarek/iptvctl/config"
)

// fastBackoff keeps retry tests quick; attempt count stays 1 + len.
var fastBackoff = []time.Duration{time.Millisecond, time.Millisecond, time.Millisecond}

func testSessionConfig() config.SessionConfig {
	return config.SessionConfig{
		HeartbeatInterval: time.Minute,
		ReconnectDelay:    time.Minute,
		InitRetries:       3,
		TokenValidity:     time.Hour,
	}
}

func newTestClient(t *testing.T, serverURL string) (*Client, *SessionManager) {
	t.Helper()

	client, err := NewClient(serverURL, "user", "pass", zerolog.Nop(), WithBackoff(fastBackoff))
	require.NoError(t, err)

	session := NewSessionManager(testSessionConfig(), client, zerolog.Nop())
	client.SetSession(session)
	return client, session
}

func writeAuthResponse(w http.ResponseWriter, auth int) {
	json.NewEncoder(w).Encode(authResponse{
		UserInfo: UserInfo{Username: "user", Auth: auth, Status: "Active"},
	})
}

func TestNewClientValidation(t *testing.T) {
	logger := zerolog.Nop()

	_, err := NewClient("", "user", "pass", logger)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewClient("http://example.com", "", "pass", logger)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewClient("http://example.com", "user", "", logger)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	client, err := NewClient("http://example.com/", "user", "pass", logger)
	require.NoError(t, err)
	assert.Equal(t, "http://example.com", client.baseURL)
}

func TestRetryBound(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL)

	_, err := client.playerAPI(context.Background(), "get_live_categories", nil)
	assert.ErrorIs(t, err, ErrConnection)
	assert.Equal(t, int32(len(fastBackoff)+1), atomic.LoadInt32(&hits),
		"a persistently failing request is attempted exactly 1 + len(schedule) times")
}

func TestRetrySucceedsMidSchedule(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			http.Error(w, "flaky", http.StatusBadGateway)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL)

	body, err := client.playerAPI(context.Background(), "get_live_categories", nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(body))
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestCancellationAbortsImmediately(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		time.Sleep(time.Second)
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.playerAPI(ctx, "get_live_categories", nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "cancellation must not be retried")
}

func TestUnauthorizedTriggersSingleRefresh(t *testing.T) {
	var authHits, actionHits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("action") == "" {
			atomic.AddInt32(&authHits, 1)
			writeAuthResponse(w, 1)
			return
		}
		atomic.AddInt32(&actionHits, 1)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL)

	_, err := client.playerAPI(context.Background(), "get_live_categories", nil)
	assert.ErrorIs(t, err, ErrAuthentication)
	assert.Equal(t, int32(1), atomic.LoadInt32(&authHits),
		"a 401 must trigger exactly one session refresh")
	assert.Equal(t, int32(len(fastBackoff)+1), atomic.LoadInt32(&actionHits),
		"the refresh must not grant extra attempts")
}

func TestUnauthorizedWithFailingRefresh(t *testing.T) {
	var actionHits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("action") == "" {
			// Credential check rejected: refresh cannot succeed.
			writeAuthResponse(w, 0)
			return
		}
		atomic.AddInt32(&actionHits, 1)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL)

	_, err := client.playerAPI(context.Background(), "get_live_categories", nil)
	assert.ErrorIs(t, err, ErrAuthentication)
	assert.Equal(t, int32(1), atomic.LoadInt32(&actionHits),
		"a failed refresh must surface without retrying the original request")
}

func TestAuthenticate(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/player_api.php", r.URL.Path)
			assert.Equal(t, "user", r.URL.Query().Get("username"))
			assert.Equal(t, "pass", r.URL.Query().Get("password"))
			writeAuthResponse(w, 1)
		}))
		defer server.Close()

		client, _ := newTestClient(t, server.URL)
		info, err := client.Authenticate(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, info.Auth)
		assert.Equal(t, "user", info.Username)
	})

	t.Run("rejected credentials", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeAuthResponse(w, 0)
		}))
		defer server.Close()

		client, _ := newTestClient(t, server.URL)
		_, err := client.Authenticate(context.Background())
		assert.ErrorIs(t, err, ErrAuthentication)
	})
}

func TestSessionTokenAttached(t *testing.T) {
	var sawToken atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("action") != "" {
			sawToken.Store(r.Header.Get("Authorization"))
			w.Write([]byte(`[]`))
			return
		}
		writeAuthResponse(w, 1)
	}))
	defer server.Close()

	client, session := newTestClient(t, server.URL)
	require.NoError(t, session.Refresh(context.Background()))

	_, err := client.playerAPI(context.Background(), "get_live_categories", nil)
	require.NoError(t, err)

	header, _ := sawToken.Load().(string)
	assert.Equal(t, "Bearer "+session.Token(), header)
}

func TestXMLTVURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/xmltv.php", r.URL.Path)
		assert.Equal(t, "ch1,ch2", r.URL.Query().Get("channel_id"))
		w.Write([]byte(`<tv></tv>`))
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL)
	body, err := client.XMLTV(context.Background(), []string{"ch1", "ch2"})
	require.NoError(t, err)
	assert.Equal(t, `<tv></tv>`, string(body))
}
