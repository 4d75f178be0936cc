// Package dispatch holds the per-redemption decision core: resolve the
// reward, resolve the active game, execute at most one action and decide
// what fulfillment status, if any, to report.
package dispatch

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/cetteup/qwerty-client/internal/detector"
	"github.com/cetteup/qwerty-client/internal/input"
	"github.com/cetteup/qwerty-client/internal/observability"
	"github.com/cetteup/qwerty-client/internal/rewards"
)

// Event is a redemption notification from the push channel. Additional wire
// fields are ignored; events are never persisted.
type Event struct {
	ID       string `json:"id"`
	RewardID string `json:"reward_id"`
}

// StatusReporter reports a redemption's outcome back to the platform.
type StatusReporter interface {
	ReportRedemptionStatus(ctx context.Context, redemptionID, rewardID string, fulfilled bool) error
}

// Dispatcher handles redemption events. All fields are set once during
// setup and never mutated afterwards, so overlapping event handling cannot
// race on shared state.
type Dispatcher struct {
	rewards     []*rewards.RewardConfig
	detector    *detector.Detector
	reporter    StatusReporter
	windowTitle input.WindowTitleFunc
	pressKey    input.KeyPressFunc
	autoFulfill bool
	refund      bool
}

func NewDispatcher(
	catalog []*rewards.RewardConfig,
	det *detector.Detector,
	reporter StatusReporter,
	windowTitle input.WindowTitleFunc,
	pressKey input.KeyPressFunc,
	autoFulfill, refund bool,
) *Dispatcher {
	return &Dispatcher{
		rewards:     catalog,
		detector:    det,
		reporter:    reporter,
		windowTitle: windowTitle,
		pressKey:    pressKey,
		autoFulfill: autoFulfill,
		refund:      refund,
	}
}

// HandleRawEvent decodes a push-channel payload and handles it. Malformed
// payloads are dropped with a log line; they never abort the event loop.
func (d *Dispatcher) HandleRawEvent(ctx context.Context, data json.RawMessage) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		log.Warn().Err(err).Msg("discarding malformed redemption event")
		return
	}
	d.HandleRedemption(ctx, ev)
}

// HandleRedemption runs one event through the decision chain. Errors while
// reporting are logged and swallowed: a missed status update is cosmetic,
// Twitch resolves unacknowledged redemptions on its own timeout.
func (d *Dispatcher) HandleRedemption(ctx context.Context, ev Event) {
	observability.RedemptionsReceived.Inc()
	log.Info().Str("redemption_id", ev.ID).Str("reward_id", ev.RewardID).Msg("channel points redeemed")

	fulfilled := d.executeAction(ev)

	// Leaving the redemption pending for manual review is deliberate: with
	// auto-fulfill and refund both off, a successful action is not reported
	// at all.
	if !d.autoFulfill && !d.refund && fulfilled {
		observability.RedemptionReports.WithLabelValues("none").Inc()
		log.Debug().Str("redemption_id", ev.ID).Msg("leaving redemption pending for manual review")
		return
	}

	report := fulfilled && !d.refund
	status := "canceled"
	if report {
		status = "fulfilled"
	}
	if err := d.reporter.ReportRedemptionStatus(ctx, ev.ID, ev.RewardID, report); err != nil {
		log.Error().Err(err).Str("redemption_id", ev.ID).Msg("failed to update redemption status")
		return
	}
	observability.RedemptionReports.WithLabelValues(status).Inc()
}

// executeAction resolves the reward and the active game and injects the
// configured key, reporting whether the action demonstrably succeeded.
func (d *Dispatcher) executeAction(ev Event) bool {
	reward := d.findReward(ev.RewardID)
	if reward == nil {
		log.Warn().Str("reward_id", ev.RewardID).Msg("redemption references unknown reward")
		observability.RedemptionActions.WithLabelValues("skipped").Inc()
		return false
	}

	title, err := d.windowTitle()
	if err != nil {
		log.Error().Err(err).Msg("failed to read active window title")
		observability.RedemptionActions.WithLabelValues("skipped").Inc()
		return false
	}

	game, ok := d.detector.DetectActiveGame(title)
	if !ok {
		log.Info().Str("reward_id", ev.RewardID).Msg("game window not active, skipping")
		observability.RedemptionActions.WithLabelValues("skipped").Inc()
		return false
	}

	action, ok := reward.Actions[game]
	if !ok || action.Kind != rewards.ActionKeypress {
		log.Info().Str("game", game).Str("reward_id", ev.RewardID).Msg("no action configured for active game")
		observability.RedemptionActions.WithLabelValues("skipped").Inc()
		return false
	}

	log.Info().Str("key", action.Value).Str("game", game).Msg("pressing key")
	pressed, err := d.pressKey(action.Value)
	if err != nil || !pressed {
		log.Error().Err(err).Str("key", action.Value).Msg("keypress failed")
		observability.RedemptionActions.WithLabelValues("failed").Inc()
		return false
	}
	observability.RedemptionActions.WithLabelValues("executed").Inc()
	return true
}

func (d *Dispatcher) findReward(id string) *rewards.RewardConfig {
	for _, r := range d.rewards {
		if r.ID != "" && r.ID == id {
			return r
		}
	}
	return nil
}
