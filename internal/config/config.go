package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application settings (file + env overrides). The
// streamer-editable reward declarations live in a separate document, see
// the rewards package.
type Config struct {
	Server struct {
		Addr      string `mapstructure:"addr"`
		LogLevel  string `mapstructure:"log_level"`
		ExitDelay int    `mapstructure:"exit_delay_seconds"`
	} `mapstructure:"server"`

	Twitch struct {
		ClientID    string   `mapstructure:"client_id"`
		AuthBaseURL string   `mapstructure:"auth_base_url"`
		APIBaseURL  string   `mapstructure:"api_base_url"`
		Scopes      []string `mapstructure:"scopes"`
	} `mapstructure:"twitch"`

	Companion struct {
		BaseURL   string `mapstructure:"base_url"`
		SocketURL string `mapstructure:"socket_url"`
	} `mapstructure:"companion"`

	Pubsub struct {
		MaxReconnects    int `mapstructure:"max_reconnects"`
		ReconnectSeconds int `mapstructure:"reconnect_seconds"`
	} `mapstructure:"pubsub"`
}

func Load() Config {
	v := viper.New()
	v.SetConfigName("application")
	v.SetConfigType("yaml")
	v.AddConfigPath("configs")
	_ = v.ReadInConfig() // optional; defaults and env can fully configure

	v.SetEnvPrefix("QWERTY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Errorf("unable to decode config: %w", err))
	}
	validate(&cfg)
	return cfg
}

func validate(c *Config) {
	if c.Server.Addr == "" {
		c.Server.Addr = "127.0.0.1:8000"
	}
	if c.Server.ExitDelay <= 0 {
		c.Server.ExitDelay = 15
	}
	if c.Twitch.ClientID == "" {
		c.Twitch.ClientID = "jzaeeic6j23u0l2onzm2orovs0uakl"
	}
	if c.Twitch.AuthBaseURL == "" {
		c.Twitch.AuthBaseURL = "https://id.twitch.tv/oauth2/authorize"
	}
	if c.Twitch.APIBaseURL == "" {
		c.Twitch.APIBaseURL = "https://api.twitch.tv/helix"
	}
	if len(c.Twitch.Scopes) == 0 {
		c.Twitch.Scopes = []string{"channel:read:redemptions", "channel:manage:redemptions"}
	}
	if c.Companion.BaseURL == "" {
		c.Companion.BaseURL = "https://0xqwerty-api.cetteup.com"
	}
	if c.Companion.SocketURL == "" {
		c.Companion.SocketURL = "wss://0xqwerty-api.cetteup.com/socket"
	}
	if c.Pubsub.MaxReconnects <= 0 {
		c.Pubsub.MaxReconnects = 16
	}
	if c.Pubsub.ReconnectSeconds <= 0 {
		c.Pubsub.ReconnectSeconds = 5
	}
}

// BaseURL is where the local control server is reachable.
func (c Config) BaseURL() string {
	return "http://" + c.Server.Addr
}

// RedirectURI is the OAuth redirect target served by the control server.
func (c Config) RedirectURI() string {
	return c.BaseURL() + "/s/auth-callback"
}

// AuthorizeURL builds the implicit-grant authorization URL for the given
// state nonce.
func (c Config) AuthorizeURL(state string) string {
	q := url.Values{
		"client_id":     {c.Twitch.ClientID},
		"redirect_uri":  {c.RedirectURI()},
		"response_type": {"token"},
		"scope":         {strings.Join(c.Twitch.Scopes, " ")},
		"state":         {state},
	}
	return c.Twitch.AuthBaseURL + "?" + q.Encode()
}

func (c Config) ReconnectBackoff() time.Duration {
	return time.Duration(c.Pubsub.ReconnectSeconds) * time.Second
}

func (c Config) ExitDelay() time.Duration {
	return time.Duration(c.Server.ExitDelay) * time.Second
}
