package browser

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventThrottler(t *testing.T) {
	var none *eventThrottler
	assert.True(t, none.Allow("console"), "nil throttler allows everything")
	assert.Nil(t, newEventThrottler(0))

	th := newEventThrottler(60_000)
	assert.True(t, th.Allow("console"))
	assert.False(t, th.Allow("console"))
	assert.True(t, th.Allow("net_response"), "keys are throttled independently")
}

func TestConfigDefaults(t *testing.T) {
	var zero Config
	assert.Equal(t, 1280, zero.GetViewportWidth())
	assert.Equal(t, 800, zero.GetViewportHeight())
	assert.Equal(t, 30*time.Second, zero.NavigationTimeout())

	cfg := DefaultConfig()
	cfg.NavigationTimeoutMs = 1500
	assert.Equal(t, 1500*time.Millisecond, cfg.NavigationTimeout())
	assert.True(t, cfg.Headless)
}

func TestSessionPersistence(t *testing.T) {
	store := filepath.Join(t.TempDir(), "state", "sessions.json")
	m := NewSessionManager(Config{SessionStore: store}, nil, nil)
	m.sessions["a"] = &sessionRecord{meta: Session{ID: "a", URL: "http://localhost:8000/", Status: "active"}}

	require.NoError(t, m.persistSessions())

	data, err := os.ReadFile(store)
	require.NoError(t, err)
	var saved []Session
	require.NoError(t, json.Unmarshal(data, &saved))
	require.Len(t, saved, 1)
	assert.Equal(t, "http://localhost:8000/", saved[0].URL)

	fresh := NewSessionManager(Config{SessionStore: store}, nil, nil)
	require.NoError(t, fresh.loadSessionsLocked())
	got, ok := fresh.GetSession("a")
	require.True(t, ok)
	assert.Equal(t, "detached", got.Status)
	_, hasPage := fresh.Page("a")
	assert.False(t, hasPage, "detached sessions have no page")
}

func TestLoadSessions_MissingStore(t *testing.T) {
	m := NewSessionManager(Config{SessionStore: filepath.Join(t.TempDir(), "none.json")}, nil, nil)
	assert.NoError(t, m.loadSessionsLocked())
	assert.Empty(t, m.List())
}

func TestUpdateMetadata(t *testing.T) {
	m := NewSessionManager(Config{}, nil, nil)
	m.sessions["s"] = &sessionRecord{meta: Session{ID: "s"}}
	m.UpdateMetadata("s", func(s Session) Session {
		s.Title = "Dashboard"
		return s
	})
	got, _ := m.GetSession("s")
	assert.Equal(t, "Dashboard", got.Title)

	m.UpdateMetadata("missing", func(s Session) Session { return s })
	_, err := m.LivePage("missing")
	assert.Error(t, err)
}

func TestIsInternalScript(t *testing.T) {
	assert.True(t, isInternalScript("chrome://settings"))
	assert.True(t, isInternalScript("data:text/html,hi"))
	assert.False(t, isInternalScript("http://localhost:8000/notification/read/42/"))
}

func TestSessionManager_NotStarted(t *testing.T) {
	m := NewSessionManager(DefaultConfig(), nil, nil)
	assert.False(t, m.IsConnected())
	assert.Empty(t, m.ControlURL())

	_, err := m.Screenshot(context.Background(), "missing", true)
	assert.Error(t, err)
}
