package detector

import "strings"

// Detector resolves which configured game is currently active based on a raw
// window title. It only ever reports games from the configured set, even if
// another catalog entry's pattern would match.
type Detector struct {
	configured map[string]struct{}
}

func New() *Detector {
	return &Detector{configured: map[string]struct{}{}}
}

// SetConfiguredGames restricts detection to the given game names, replacing
// any previously configured set.
func (d *Detector) SetConfiguredGames(names []string) {
	configured := make(map[string]struct{}, len(names))
	for _, n := range names {
		configured[n] = struct{}{}
	}
	d.configured = configured
}

// ConfiguredGames returns the currently configured game names, in catalog order.
func (d *Detector) ConfiguredGames() []string {
	names := make([]string, 0, len(d.configured))
	for _, e := range catalog {
		if _, ok := d.configured[e.Name]; ok {
			names = append(names, e.Name)
		}
	}
	return names
}

// DetectActiveGame normalizes rawTitle and returns the first catalog entry
// (in declaration order) that is configured and whose pattern matches the
// full title. Some games pad their window title with spaces or zero-width
// spaces (Call of Duty), so both are stripped before matching.
func (d *Detector) DetectActiveGame(rawTitle string) (string, bool) {
	if len(d.configured) == 0 {
		return "", false
	}

	title := strings.ReplaceAll(strings.TrimSpace(rawTitle), "\u200b", "")
	for _, e := range catalog {
		if _, ok := d.configured[e.Name]; !ok {
			continue
		}
		if e.Pattern.MatchString(title) {
			return e.Name, true
		}
	}
	return "", false
}
