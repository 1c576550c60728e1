package hl7v2

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed profiles/default.yaml
var defaultProfileYAML []byte

// ProfileRules lists required fields per segment and segments that must
// appear exactly once per message key.
type ProfileRules struct {
	RequiredFields map[string][]int    `yaml:"required_fields" json:"requiredFields"`
	ExactlyOnce    map[string][]string `yaml:"exactly_once" json:"exactlyOnce"`
}

// ProfileTable is the per-version strictness configuration.
type ProfileTable struct {
	Default  ProfileRules            `yaml:"default" json:"default"`
	Versions map[string]ProfileRules `yaml:"versions" json:"versions"`
}

// Profile is the resolved rule set for one message version.
type Profile struct {
	Version string
	rules   ProfileRules
}

var defaultProfiles = mustLoadProfileTable(defaultProfileYAML)

func mustLoadProfileTable(data []byte) *ProfileTable {
	t, err := LoadProfileTable(data)
	if err != nil {
		panic(fmt.Sprintf("hl7v2: embedded profile table: %v", err))
	}
	return t
}

// DefaultProfileTable returns the built-in table.
func DefaultProfileTable() *ProfileTable {
	return defaultProfiles
}

// LoadProfileTable decodes and validates a YAML profile table.
func LoadProfileTable(data []byte) (*ProfileTable, error) {
	var t ProfileTable
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode profile table: %w", err)
	}
	if err := t.Default.validate(); err != nil {
		return nil, fmt.Errorf("default profile: %w", err)
	}
	for v, rules := range t.Versions {
		if err := rules.validate(); err != nil {
			return nil, fmt.Errorf("profile %s: %w", v, err)
		}
	}
	return &t, nil
}

// LoadProfileFile reads a YAML profile table from disk.
func LoadProfileFile(path string) (*ProfileTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile table: %w", err)
	}
	return LoadProfileTable(data)
}

func (r ProfileRules) validate() error {
	for seg, fields := range r.RequiredFields {
		if !validSegmentID(seg) {
			return fmt.Errorf("invalid segment ID %q", seg)
		}
		for _, f := range fields {
			if f < 1 {
				return fmt.Errorf("%s: field positions are 1-based, got %d", seg, f)
			}
		}
	}
	for key, segs := range r.ExactlyOnce {
		code, _, _ := strings.Cut(key, "^")
		if code == "" {
			return fmt.Errorf("empty message key %q", key)
		}
		for _, s := range segs {
			if !validSegmentID(s) {
				return fmt.Errorf("%s: invalid segment ID %q", key, s)
			}
		}
	}
	return nil
}

// Resolve merges the default rules with the most specific version overlay
// whose key equals version or is a dotted prefix of it.
func (t *ProfileTable) Resolve(version string) *Profile {
	p := &Profile{
		Version: version,
		rules: ProfileRules{
			RequiredFields: make(map[string][]int, len(t.Default.RequiredFields)),
			ExactlyOnce:    make(map[string][]string, len(t.Default.ExactlyOnce)),
		},
	}
	for k, v := range t.Default.RequiredFields {
		p.rules.RequiredFields[k] = v
	}
	for k, v := range t.Default.ExactlyOnce {
		p.rules.ExactlyOnce[k] = v
	}

	if overlay, ok := t.versionOverlay(version); ok {
		for k, v := range overlay.RequiredFields {
			p.rules.RequiredFields[k] = v
		}
		for k, v := range overlay.ExactlyOnce {
			p.rules.ExactlyOnce[k] = v
		}
	}
	return p
}

func (t *ProfileTable) versionOverlay(version string) (ProfileRules, bool) {
	keys := make([]string, 0, len(t.Versions))
	for k := range t.Versions {
		if k == version || strings.HasPrefix(version, k+".") {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return ProfileRules{}, false
	}
	sort.Slice(keys, func(i, j int) bool { return len(keys[i]) > len(keys[j]) })
	return t.Versions[keys[0]], true
}

// RequiredFields returns the required 1-based field positions of a segment.
func (p *Profile) RequiredFields(segType string) []int {
	return p.rules.RequiredFields[segType]
}

// ExactlyOnce returns the segments a message of type mt must carry exactly
// once. A code^event entry takes precedence over the bare code.
func (p *Profile) ExactlyOnce(mt MessageType) []string {
	if mt.Event != "" {
		if segs, ok := p.rules.ExactlyOnce[mt.Code+"^"+mt.Event]; ok {
			return segs
		}
	}
	return p.rules.ExactlyOnce[mt.Code]
}

// Rules returns a copy of the resolved rules.
func (p *Profile) Rules() ProfileRules {
	out := ProfileRules{
		RequiredFields: make(map[string][]int, len(p.rules.RequiredFields)),
		ExactlyOnce:    make(map[string][]string, len(p.rules.ExactlyOnce)),
	}
	for k, v := range p.rules.RequiredFields {
		out.RequiredFields[k] = append([]int(nil), v...)
	}
	for k, v := range p.rules.ExactlyOnce {
		out.ExactlyOnce[k] = append([]string(nil), v...)
	}
	return out
}
