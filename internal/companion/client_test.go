package companion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeRedemptions(t *testing.T) {
	t.Run("posts broadcaster and reward ids", func(t *testing.T) {
		var got subscribeRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/client/eventsub-setup", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		err := NewClient(srv.URL).SubscribeRedemptions(context.Background(), "12345", []string{"r1", "r2"})

		require.NoError(t, err)
		assert.Equal(t, "12345", got.BroadcasterID)
		assert.Equal(t, []string{"r1", "r2"}, got.RewardIDs)
	})

	t.Run("non success status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		err := NewClient(srv.URL).SubscribeRedemptions(context.Background(), "12345", []string{"r1"})

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	})
}
