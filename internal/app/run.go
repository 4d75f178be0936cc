package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/cetteup/qwerty-client/internal/api"
	"github.com/cetteup/qwerty-client/internal/companion"
	"github.com/cetteup/qwerty-client/internal/config"
	"github.com/cetteup/qwerty-client/internal/detector"
	"github.com/cetteup/qwerty-client/internal/dispatch"
	"github.com/cetteup/qwerty-client/internal/input"
	"github.com/cetteup/qwerty-client/internal/pubsub"
	"github.com/cetteup/qwerty-client/internal/rewards"
)

// Flags are the CLI overrides. Either flag force-enables its setting on top
// of the persisted client config.
type Flags struct {
	ConfigPath  string
	AutoFulfill bool
	Refund      bool
}

// Run wires the client together and blocks until shutdown, returning the
// process exit code. Setup-time failures (config load, reconciliation,
// subscription, control server) halt the client; per-event failures during
// live operation never do. Every fatal path waits out the exit delay so an
// interactive user can read the diagnostic before the console window closes.
func Run(cfg config.Config, flags Flags) int {
	clientCfg, err := rewards.LoadClientConfig(flags.ConfigPath)
	if err != nil {
		log.Error().Err(err).Msg("failed to load client config")
		return exitDelayed(cfg)
	}

	if clientCfg.LogLevel != "" {
		config.SetupLogging(clientCfg.LogLevel)
	}

	autoFulfill := clientCfg.AutoFulfill || flags.AutoFulfill
	refund := clientCfg.Refund || flags.Refund

	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	det := detector.New()
	det.SetConfiguredGames(clientCfg.ConfiguredGames())
	log.Info().Strs("games", det.ConfiguredGames()).Msg("rewards configured for games")

	manager := rewards.NewManager(companion.NewClient(cfg.Companion.BaseURL))

	channel := pubsub.NewClient(cfg.Companion.SocketURL, cfg.Pubsub.MaxReconnects, cfg.ReconnectBackoff())
	dispatcher := dispatch.NewDispatcher(
		clientCfg.Rewards,
		det,
		manager,
		input.ActiveWindowTitle,
		input.PressKey,
		autoFulfill,
		refund,
	)
	channel.On("redemption", dispatcher.HandleRawEvent)

	var fatal atomic.Bool
	fail := func(err error, msg string) {
		log.Error().Err(err).Msg(msg)
		fatal.Store(true)
		cancel()
	}
	onFatal := func(err error) { fail(err, "reward setup failed") }

	h := api.NewHandler(cfg, manager, clientCfg, flags.ConfigPath, channel, onFatal)
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.Router(h),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := channel.Run(rootCtx); err != nil {
			log.Error().Err(err).Msg("push channel gave up")
			cancel()
		}
	}()

	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("control server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fail(err, "control server crashed")
		}
	}()

	authURL := cfg.AuthorizeURL(uuid.NewString())
	if err := openBrowser(authURL); err != nil {
		log.Warn().Err(err).Msg("could not open browser, authorize manually")
	}
	log.Info().Str("url", authURL).Msg("authorize the client with Twitch")

	waitForSignal(rootCtx)
	log.Info().Msg("shutdown...")

	shCtx, shCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shCancel()
	cancel() // stop background goroutines
	_ = srv.Shutdown(shCtx)

	if fatal.Load() {
		return exitDelayed(cfg)
	}
	return 0
}

func exitDelayed(cfg config.Config) int {
	log.Info().Msgf("Window will close in %s...", cfg.ExitDelay())
	time.Sleep(cfg.ExitDelay())
	return 1
}

func waitForSignal(ctx context.Context) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	select {
	case <-c:
	case <-ctx.Done():
	}
}
