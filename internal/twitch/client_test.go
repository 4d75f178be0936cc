package twitch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "client-id", "token")
}

func TestGetCustomRewards(t *testing.T) {
	t.Run("decodes rewards and sends auth headers", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
			assert.Equal(t, "client-id", r.Header.Get("Client-Id"))
			assert.Equal(t, "12345", r.URL.Query().Get("broadcaster_id"))
			assert.Equal(t, "1", r.URL.Query().Get("only_manageable_rewards"))
			_ = json.NewEncoder(w).Encode(map[string]any{"data": []Reward{{ID: "r1", Title: "Jump", Cost: 100}}})
		})

		rewards, err := c.GetCustomRewards(context.Background(), "12345")

		require.NoError(t, err)
		require.Len(t, rewards, 1)
		assert.Equal(t, Reward{ID: "r1", Title: "Jump", Cost: 100}, rewards[0])
	})

	t.Run("body arriving after the headers", func(t *testing.T) {
		// Some responses are chunked, with the body trailing the headers.
		// Reading it must run under the call's own timeout, not fail because
		// the call already returned.
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.(http.Flusher).Flush()
			time.Sleep(50 * time.Millisecond)
			_ = json.NewEncoder(w).Encode(map[string]any{"data": []Reward{{ID: "r1", Title: "Jump", Cost: 100}}})
		})

		rewards, err := c.GetCustomRewards(context.Background(), "12345")

		require.NoError(t, err)
		require.Len(t, rewards, 1)
		assert.Equal(t, "r1", rewards[0].ID)
	})

	t.Run("non success status", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		})

		_, err := c.GetCustomRewards(context.Background(), "12345")

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	})

	t.Run("malformed body", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"data": "not a list"`))
		})

		_, err := c.GetCustomRewards(context.Background(), "12345")

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Contains(t, apiErr.Reason, "malformed")
	})

	t.Run("reward missing required fields", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{"data": []map[string]any{{"cost": 100}}})
		})

		_, err := c.GetCustomRewards(context.Background(), "12345")

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Contains(t, apiErr.Reason, "required fields")
	})
}

func TestCreateCustomReward(t *testing.T) {
	t.Run("returns the created id", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "Jump", body["title"])
			assert.Equal(t, float64(100), body["cost"])
			_ = json.NewEncoder(w).Encode(map[string]any{"data": []Reward{{ID: "new-id", Title: "Jump", Cost: 100}}})
		})

		id, err := c.CreateCustomReward(context.Background(), "12345", "Jump", 100)

		require.NoError(t, err)
		assert.Equal(t, "new-id", id)
	})

	t.Run("response without id", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{"data": []map[string]any{}})
		})

		_, err := c.CreateCustomReward(context.Background(), "12345", "Jump", 100)

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
	})
}

func TestUpdateRedemptionStatus(t *testing.T) {
	tests := []struct {
		name       string
		fulfilled  bool
		wantStatus string
	}{
		{"fulfilled", true, "FULFILLED"},
		{"canceled", false, "CANCELED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, http.MethodPatch, r.Method)
				assert.Equal(t, "red-1", r.URL.Query().Get("id"))
				assert.Equal(t, "12345", r.URL.Query().Get("broadcaster_id"))
				assert.Equal(t, "rw-1", r.URL.Query().Get("reward_id"))
				var body map[string]string
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, tt.wantStatus, body["status"])
				w.WriteHeader(http.StatusOK)
			})

			err := c.UpdateRedemptionStatus(context.Background(), "12345", "red-1", "rw-1", tt.fulfilled)

			assert.NoError(t, err)
		})
	}
}

func TestGetCurrentUser(t *testing.T) {
	t.Run("returns the token owner", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{"data": []User{
				{ID: "12345", Login: "somestreamer", DisplayName: "SomeStreamer"},
			}})
		})

		user, err := c.GetCurrentUser(context.Background())

		require.NoError(t, err)
		assert.Equal(t, "12345", user.ID)
		assert.Equal(t, "somestreamer", user.Login)
	})

	t.Run("empty data", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{"data": []User{}})
		})

		_, err := c.GetCurrentUser(context.Background())

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
	})
}
