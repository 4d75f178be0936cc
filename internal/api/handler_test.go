package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cetteup/qwerty-client/internal/companion"
	"github.com/cetteup/qwerty-client/internal/config"
	"github.com/cetteup/qwerty-client/internal/pubsub"
	"github.com/cetteup/qwerty-client/internal/rewards"
	"github.com/cetteup/qwerty-client/internal/twitch"
)

type fixture struct {
	handler    http.Handler
	configPath string
	fatalErrs  []error
}

func newFixture(t *testing.T, helix http.Handler, comp http.Handler) *fixture {
	t.Helper()

	helixSrv := httptest.NewServer(helix)
	t.Cleanup(helixSrv.Close)
	compSrv := httptest.NewServer(comp)
	t.Cleanup(compSrv.Close)

	cfg := config.Config{}
	cfg.Twitch.APIBaseURL = helixSrv.URL
	cfg.Twitch.ClientID = "client-id"
	cfg.Companion.BaseURL = compSrv.URL

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	clientCfg := &rewards.ClientConfig{
		Rewards: []*rewards.RewardConfig{
			{Title: "Jump", Cost: 100, Actions: map[string]rewards.Action{
				"Portal 2": {Kind: rewards.ActionKeypress, Value: "space"},
			}},
		},
	}

	f := &fixture{configPath: configPath}
	manager := rewards.NewManager(companion.NewClient(compSrv.URL))
	channel := pubsub.NewClient("ws://unused", 1, time.Millisecond)
	h := NewHandler(cfg, manager, clientCfg, configPath, channel, func(err error) {
		f.fatalErrs = append(f.fatalErrs, err)
	})
	f.handler = Router(h)
	return f
}

func happyHelix(t *testing.T) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /users", func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.Header.Get("Authorization"), "Bearer "))
		assert.Equal(t, "client-id", r.Header.Get("Client-Id"))
		_ = json.NewEncoder(w).Encode(map[string]any{"data": []map[string]string{
			{"id": "12345", "login": "somestreamer", "display_name": "SomeStreamer"},
		}})
	})
	mux.HandleFunc("GET /channel_points/custom_rewards", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"data": []twitch.Reward{}})
	})
	mux.HandleFunc("POST /channel_points/custom_rewards", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"data": []twitch.Reward{{ID: "created-1", Title: "Jump", Cost: 100}}})
	})
	return mux
}

func okCompanion() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /client/eventsub-setup", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func redirectURL(token string) string {
	return "http://localhost:8000/s/auth-callback#access_token=" + token + "&token_type=bearer&state=xyz"
}

func TestTokenFromURL(t *testing.T) {
	t.Run("happy path completes setup and persists ids", func(t *testing.T) {
		f := newFixture(t, happyHelix(t), okCompanion())

		req := httptest.NewRequest(http.MethodGet,
			"/a/token-from-url?url="+url.QueryEscape(redirectURL("tok")), nil)
		w := httptest.NewRecorder()
		f.handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "true", w.Body.String())
		assert.Empty(t, f.fatalErrs)

		// Reconciliation assigned an id, so the config was rewritten.
		raw, err := os.ReadFile(f.configPath)
		require.NoError(t, err)
		assert.Contains(t, string(raw), "created-1")
	})

	t.Run("rejected token yields 401", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /users", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
		f := newFixture(t, mux, okCompanion())

		req := httptest.NewRequest(http.MethodGet,
			"/a/token-from-url?url="+url.QueryEscape(redirectURL("bad")), nil)
		w := httptest.NewRecorder()
		f.handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "false", w.Body.String())
	})

	t.Run("missing url parameter yields 401", func(t *testing.T) {
		f := newFixture(t, happyHelix(t), okCompanion())

		req := httptest.NewRequest(http.MethodGet, "/a/token-from-url", nil)
		w := httptest.NewRecorder()
		f.handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("reconciliation failure is fatal", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /users", func(w http.ResponseWriter, _ *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{"data": []map[string]string{
				{"id": "12345", "login": "somestreamer"},
			}})
		})
		mux.HandleFunc("GET /channel_points/custom_rewards", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		f := newFixture(t, mux, okCompanion())

		req := httptest.NewRequest(http.MethodGet,
			"/a/token-from-url?url="+url.QueryEscape(redirectURL("tok")), nil)
		w := httptest.NewRecorder()
		f.handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		require.Len(t, f.fatalErrs, 1)
	})
}

func TestTokenFromFragment(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{"valid fragment", redirectURL("tok-123"), "tok-123", false},
		{"empty url", "", "", true},
		{"no fragment", "http://localhost:8000/s/auth-callback", "", true},
		{"fragment without token", "http://localhost:8000/s/auth-callback#state=xyz", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tokenFromFragment(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStaticEndpoints(t *testing.T) {
	f := newFixture(t, happyHelix(t), okCompanion())

	t.Run("auth callback serves the handover page", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/s/auth-callback", nil)
		w := httptest.NewRecorder()
		f.handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "token-from-url")
	})

	t.Run("auth url carries client id and scopes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/a/auth-url", nil)
		w := httptest.NewRecorder()
		f.handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "client_id=client-id")
		assert.Contains(t, w.Body.String(), "response_type=token")
	})

	t.Run("healthz", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		w := httptest.NewRecorder()
		f.handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}
