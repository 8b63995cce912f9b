package catalog

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed roster.yaml
var rosterYAML []byte

// Member is a solo artist of the group.
type Member struct {
	Name  string `yaml:"name"`
	Label string `yaml:"label"`
}

// Country is a release market.
type Country struct {
	Code  string `yaml:"code"`
	Label string `yaml:"label"`
}

// Badge unlocks once a stats metric reaches its threshold.
type Badge struct {
	ID        string `yaml:"id"`
	Label     string `yaml:"label"`
	Metric    string `yaml:"metric"`
	Threshold int    `yaml:"threshold"`
}

// Slot is an owner choice offered on registration rows.
type Slot struct {
	Value string `yaml:"value"`
	Label string `yaml:"label"`
}

// Roster holds the fixed group metadata used for facets, themes and badges.
type Roster struct {
	Group     string    `yaml:"group"`
	Members   []Member  `yaml:"members"`
	Countries []Country `yaml:"countries"`
	Badges    []Badge   `yaml:"badges"`
	Slots     []Slot    `yaml:"slots"`
}

// LoadRoster parses a roster document.
func LoadRoster(data []byte) (Roster, error) {
	var r Roster
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Roster{}, fmt.Errorf("catalog: parse roster: %w", err)
	}
	if strings.TrimSpace(r.Group) == "" {
		return Roster{}, fmt.Errorf("catalog: roster has no group name")
	}
	return r, nil
}

// DefaultRoster returns the embedded roster.
func DefaultRoster() Roster {
	r, err := LoadRoster(rosterYAML)
	if err != nil {
		panic(err)
	}
	return r
}

// Artists lists the artist facet values: the group followed by its members.
func (r Roster) Artists() []string {
	out := make([]string, 0, len(r.Members)+1)
	out = append(out, r.Group)
	for _, m := range r.Members {
		out = append(out, m.Name)
	}
	return out
}

// ThemeClasses returns the body classes for the selected artist. The
// wildcard and the group itself use the default theme.
func (r Roster) ThemeClasses(artist string) []string {
	artist = strings.TrimSpace(artist)
	if artist == "" || artist == Wildcard || strings.EqualFold(artist, r.Group) {
		return nil
	}
	return []string{"theme-" + strings.ToLower(artist), "member-mode"}
}

// EarnedBadges evaluates every badge against the stats values.
func (r Roster) EarnedBadges(stats map[string]int) map[string]bool {
	out := make(map[string]bool, len(r.Badges))
	for _, b := range r.Badges {
		out[b.ID] = StatValue(stats, b.Metric) >= b.Threshold
	}
	return out
}

// StatValue reads a stats key, ignoring case. Missing keys count as zero.
func StatValue(stats map[string]int, key string) int {
	if v, ok := stats[key]; ok {
		return v
	}
	for k, v := range stats {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return 0
}
