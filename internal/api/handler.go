package api

import (
	"errors"
	"net/http"
	"net/url"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/cetteup/qwerty-client/internal/config"
	"github.com/cetteup/qwerty-client/internal/pubsub"
	"github.com/cetteup/qwerty-client/internal/rewards"
	"github.com/cetteup/qwerty-client/internal/twitch"
)

// authCallbackPage forwards the OAuth redirect fragment to the token intake
// endpoint. Twitch delivers the implicit-grant token only in the fragment,
// which never reaches the server, so the page has to hand it over itself.
const authCallbackPage = `<!DOCTYPE html>
<html>
<head><title>0xQWERTY</title></head>
<body>
<p id="status">Completing authorization&hellip;</p>
<script>
fetch('/a/token-from-url?url=' + encodeURIComponent(window.location.href))
    .then(function (resp) {
        document.getElementById('status').textContent = resp.ok
            ? 'All set! You can close this window and return to the client.'
            : 'Authorization failed. Check the client logs and try again.';
    });
</script>
</body>
</html>`

// Handler serves the local control endpoints: the OAuth callback page, the
// authorize-URL helper and the token intake that completes setup.
type Handler struct {
	cfg          config.Config
	manager      *rewards.Manager
	clientConfig *rewards.ClientConfig
	configPath   string
	channel      *pubsub.Client
	onFatal      func(error)

	mu    sync.Mutex
	ready bool
}

func NewHandler(
	cfg config.Config,
	manager *rewards.Manager,
	clientConfig *rewards.ClientConfig,
	configPath string,
	channel *pubsub.Client,
	onFatal func(error),
) *Handler {
	return &Handler{
		cfg:          cfg,
		manager:      manager,
		clientConfig: clientConfig,
		configPath:   configPath,
		channel:      channel,
		onFatal:      onFatal,
	}
}

func (h *Handler) AuthCallback(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(authCallbackPage))
}

func (h *Handler) AuthURL(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(h.cfg.AuthorizeURL(uuid.NewString())))
}

// TokenFromURL extracts the implicit-grant access token from the redirect
// URL's fragment, validates it by fetching the current user and completes
// reward setup: reconcile, persist if modified, subscribe, join the push
// channel room. Setup failures are fatal to startup, not retried.
func (h *Handler) TokenFromURL(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.ready {
		writeBool(w, http.StatusOK, true)
		return
	}

	token, err := tokenFromFragment(r.URL.Query().Get("url"))
	if err != nil {
		log.Error().Err(err).Msg("redirect URL carries no usable token")
		writeBool(w, http.StatusUnauthorized, false)
		return
	}

	session := twitch.NewClient(h.cfg.Twitch.APIBaseURL, h.cfg.Twitch.ClientID, token)
	user, err := session.GetCurrentUser(r.Context())
	if err != nil {
		var apiErr *twitch.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
			log.Error().Msg("Twitch rejected the access token")
			writeBool(w, http.StatusUnauthorized, false)
			return
		}
		log.Error().Err(err).Msg("failed to get current user from Twitch API")
		writeBool(w, http.StatusUnauthorized, false)
		return
	}

	h.manager.SetBroadcaster(user.ID)
	h.manager.SetSession(session)

	modified, err := h.manager.Reconcile(r.Context(), h.clientConfig.Rewards)
	if err != nil {
		h.onFatal(err)
		writeBool(w, http.StatusInternalServerError, false)
		return
	}
	if modified {
		if err = rewards.SaveClientConfig(h.configPath, h.clientConfig); err != nil {
			log.Error().Err(err).Msg("failed to persist reconciled client config")
		}
	}

	if err = h.manager.SubscribeToRedemptions(r.Context()); err != nil {
		h.onFatal(err)
		writeBool(w, http.StatusInternalServerError, false)
		return
	}

	if err = h.channel.Join("streamer:" + user.Login); err != nil {
		log.Error().Err(err).Msg("failed to join push channel room")
	}

	h.ready = true
	log.Info().Str("login", user.Login).Msg("authorized and set up")
	writeBool(w, http.StatusOK, true)
}

// tokenFromFragment pulls access_token out of the fragment of a full
// redirect URL, e.g. http://localhost:8000/s/auth-callback#access_token=…
func tokenFromFragment(raw string) (string, error) {
	if raw == "" {
		return "", errors.New("api: missing redirect url")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	params, err := url.ParseQuery(u.Fragment)
	if err != nil {
		return "", err
	}
	token := params.Get("access_token")
	if token == "" {
		return "", errors.New("api: fragment carries no access token")
	}
	return token, nil
}

func writeBool(w http.ResponseWriter, status int, v bool) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v {
		_, _ = w.Write([]byte("true"))
	} else {
		_, _ = w.Write([]byte("false"))
	}
}
