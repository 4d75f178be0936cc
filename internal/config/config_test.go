package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateFillsDefaults(t *testing.T) {
	var cfg Config
	validate(&cfg)

	assert.Equal(t, "127.0.0.1:8000", cfg.Server.Addr)
	assert.Equal(t, 15, cfg.Server.ExitDelay)
	assert.NotEmpty(t, cfg.Twitch.ClientID)
	assert.Equal(t, "https://id.twitch.tv/oauth2/authorize", cfg.Twitch.AuthBaseURL)
	assert.Equal(t, "https://api.twitch.tv/helix", cfg.Twitch.APIBaseURL)
	assert.Contains(t, cfg.Twitch.Scopes, "channel:manage:redemptions")
	assert.Equal(t, 16, cfg.Pubsub.MaxReconnects)
	assert.Equal(t, 5*time.Second, cfg.ReconnectBackoff())
}

func TestValidateKeepsExplicitValues(t *testing.T) {
	var cfg Config
	cfg.Server.Addr = "127.0.0.1:9000"
	cfg.Pubsub.MaxReconnects = 3
	validate(&cfg)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, 3, cfg.Pubsub.MaxReconnects)
}

func TestAuthorizeURL(t *testing.T) {
	var cfg Config
	validate(&cfg)

	u := cfg.AuthorizeURL("nonce-1")

	assert.Contains(t, u, "https://id.twitch.tv/oauth2/authorize?")
	assert.Contains(t, u, "response_type=token")
	assert.Contains(t, u, "state=nonce-1")
	assert.Contains(t, u, "redirect_uri=http%3A%2F%2F127.0.0.1%3A8000%2Fs%2Fauth-callback")
	assert.Contains(t, u, "scope=channel%3Aread%3Aredemptions+channel%3Amanage%3Aredemptions")
}
