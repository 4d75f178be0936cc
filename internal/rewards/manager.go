package rewards

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/cetteup/qwerty-client/internal/companion"
	"github.com/cetteup/qwerty-client/internal/twitch"
)

// ErrNotReady is returned when a manager operation runs before both the
// broadcaster and the authenticated session have been set. Seeing it means a
// caller broke the setup contract.
var ErrNotReady = errors.New("rewards: manager is not ready")

// ReconciliationError wraps any failure during catalog reconciliation or
// subscription setup. It is fatal to startup: a broken reward catalog has no
// degraded-but-running mode.
type ReconciliationError struct {
	Err error
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("rewards: reconciliation failed: %s", e.Err)
}

func (e *ReconciliationError) Unwrap() error { return e.Err }

// Manager keeps the locally declared rewards in sync with Twitch and reports
// redemption outcomes back. Broadcaster and session are set once after auth
// and treated as immutable afterwards.
type Manager struct {
	broadcasterID string
	session       *twitch.Client
	companion     *companion.Client
}

func NewManager(companionClient *companion.Client) *Manager {
	return &Manager{companion: companionClient}
}

func (m *Manager) SetBroadcaster(id string) {
	m.broadcasterID = id
}

func (m *Manager) SetSession(session *twitch.Client) {
	m.session = session
}

func (m *Manager) ensureReady() error {
	if m.broadcasterID == "" || m.session == nil {
		return ErrNotReady
	}
	return nil
}

// FetchManageableRewards lists the rewards this client may manage on the
// broadcaster's channel.
func (m *Manager) FetchManageableRewards(ctx context.Context) ([]twitch.Reward, error) {
	if err := m.ensureReady(); err != nil {
		return nil, err
	}
	return m.session.GetCustomRewards(ctx, m.broadcasterID)
}

// Reconcile makes the local reward declarations agree with Twitch. Rewards
// without a matching remote id are created and get the returned id; rewards
// that exist remotely have title and cost pulled down, since the remote copy
// is authoritative. Returns whether anything local changed, so the caller
// knows to re-persist the config. A second pass with no intervening remote
// change reports no modification.
func (m *Manager) Reconcile(ctx context.Context, configured []*RewardConfig) (bool, error) {
	if err := m.ensureReady(); err != nil {
		return false, err
	}

	existing, err := m.FetchManageableRewards(ctx)
	if err != nil {
		return false, &ReconciliationError{Err: err}
	}

	modified := false
	for _, rc := range configured {
		remote := findByID(existing, rc.ID)
		if remote == nil {
			id, err := m.session.CreateCustomReward(ctx, m.broadcasterID, rc.Title, rc.Cost)
			if err != nil {
				return false, &ReconciliationError{Err: err}
			}
			log.Info().Str("id", id).Str("title", rc.Title).Msg("created reward on Twitch")
			rc.ID = id
			modified = true
			continue
		}

		if remote.Title != rc.Title {
			rc.Title = remote.Title
			modified = true
		}
		if remote.Cost != rc.Cost {
			rc.Cost = remote.Cost
			modified = true
		}
	}

	log.Info().Int("count", len(configured)).Msg("all configured rewards are set up on Twitch")
	return modified, nil
}

// findByID returns the reward with the given id, or nil. An empty local id
// never matches, so unassigned rewards are always treated as missing.
func findByID(rewards []twitch.Reward, id string) *twitch.Reward {
	if id == "" {
		return nil
	}
	for i := range rewards {
		if rewards[i].ID == id {
			return &rewards[i]
		}
	}
	return nil
}

// SubscribeToRedemptions registers all manageable reward ids with the
// companion service for push delivery. Zero manageable rewards is a valid,
// if pointless, state and only logs a warning.
func (m *Manager) SubscribeToRedemptions(ctx context.Context) error {
	if err := m.ensureReady(); err != nil {
		return err
	}

	rewards, err := m.FetchManageableRewards(ctx)
	if err != nil {
		return &ReconciliationError{Err: err}
	}

	if len(rewards) == 0 {
		log.Warn().Msg("no manageable rewards found, skipping redemption subscription setup")
		return nil
	}

	ids := make([]string, 0, len(rewards))
	for _, r := range rewards {
		ids = append(ids, r.ID)
	}

	if err = m.companion.SubscribeRedemptions(ctx, m.broadcasterID, ids); err != nil {
		return &ReconciliationError{Err: err}
	}

	log.Info().Int("rewards", len(ids)).Msg("companion service is subscribed to redemptions of managed rewards")
	return nil
}

// ReportRedemptionStatus updates a redemption to FULFILLED or CANCELED.
// Fire-and-forget: there is no retry, Twitch times out unacknowledged
// redemptions on its own.
func (m *Manager) ReportRedemptionStatus(ctx context.Context, redemptionID, rewardID string, fulfilled bool) error {
	if err := m.ensureReady(); err != nil {
		return err
	}
	return m.session.UpdateRedemptionStatus(ctx, m.broadcasterID, redemptionID, rewardID, fulfilled)
}
