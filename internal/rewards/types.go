package rewards

import "sort"

// ActionKind enumerates the supported reward action types. Keypress is the
// only kind today; the type exists so the config format can grow without
// breaking existing files.
type ActionKind string

const ActionKeypress ActionKind = "keypress"

// Action is what the client does in-game when a reward is redeemed while the
// associated game is active.
type Action struct {
	Kind  ActionKind `yaml:"type" json:"type"`
	Value string     `yaml:"value" json:"value"`
}

// RewardConfig declares a single channel-point reward. ID is empty until the
// reward has been created on or matched against Twitch; after reconciliation
// Title and Cost mirror the remote reward.
type RewardConfig struct {
	ID      string            `yaml:"id,omitempty" json:"id,omitempty"`
	Title   string            `yaml:"title" json:"title"`
	Cost    int               `yaml:"cost" json:"cost"`
	Actions map[string]Action `yaml:"actions" json:"actions"`
}

// ClientConfig is the persisted client configuration. The rewards slice keeps
// its file order across load and save so rewrites produce legible diffs.
type ClientConfig struct {
	LogLevel    string          `yaml:"logLevel" json:"logLevel"`
	AutoFulfill bool            `yaml:"autoFulfill" json:"autoFulfill"`
	Refund      bool            `yaml:"refund" json:"refund"`
	Rewards     []*RewardConfig `yaml:"rewards" json:"rewards"`
}

// ConfiguredGames returns the distinct game names referenced by any reward
// action, in first-seen order (reward order, then sorted keys within a
// reward, since yaml mappings carry no order once decoded).
func (c *ClientConfig) ConfiguredGames() []string {
	seen := map[string]struct{}{}
	var games []string
	for _, r := range c.Rewards {
		for _, game := range sortedKeys(r.Actions) {
			if _, ok := seen[game]; ok {
				continue
			}
			seen[game] = struct{}{}
			games = append(games, game)
		}
	}
	return games
}

func sortedKeys(m map[string]Action) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
