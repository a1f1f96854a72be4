package fragment

import "fmt"

// Direction is a canvas layout direction.
type Direction string

const (
	DirectionHorizontal Direction = "horizontal"
	DirectionVertical   Direction = "vertical"
)

// Density controls how much of each card the canvas shows.
type Density string

const (
	DensityCompact Density = "compact"
	DensityFull    Density = "full"
)

// Settings are the display options carried alongside a shared tree.
// An empty field means "unset, use the viewer's default".
type Settings struct {
	LayoutDirection  Direction `json:"layoutDirection,omitempty" yaml:"layout_direction,omitempty"`
	ExperimentLayout Direction `json:"experimentLayout,omitempty" yaml:"experiment_layout,omitempty"`
	ViewDensity      Density   `json:"viewDensity,omitempty" yaml:"view_density,omitempty"`
}

// IsZero reports whether no setting is set.
func (s Settings) IsZero() bool {
	return s.LayoutDirection == "" && s.ExperimentLayout == "" && s.ViewDensity == ""
}

// ParseSettings validates user-supplied setting names. Empty arguments are
// unset; it returns nil when all three are empty.
func ParseSettings(layout, experiments, density string) (*Settings, error) {
	s := Settings{
		LayoutDirection:  Direction(layout),
		ExperimentLayout: Direction(experiments),
		ViewDensity:      Density(density),
	}
	for _, d := range []Direction{s.LayoutDirection, s.ExperimentLayout} {
		if _, ok := directionCodes[d]; d != "" && !ok {
			return nil, fmt.Errorf("invalid direction %q: must be horizontal or vertical", d)
		}
	}
	if _, ok := densityCodes[s.ViewDensity]; s.ViewDensity != "" && !ok {
		return nil, fmt.Errorf("invalid density %q: must be compact or full", s.ViewDensity)
	}
	if s.IsZero() {
		return nil, nil
	}
	return &s, nil
}

// unsetCode fills a position whose setting is not set.
const unsetCode = '-'

var directionCodes = map[Direction]byte{
	DirectionHorizontal: 'h',
	DirectionVertical:   'v',
}

var densityCodes = map[Density]byte{
	DensityCompact: 'c',
	DensityFull:    'f',
}

// compactSettings packs s into three characters: layout direction,
// experiment layout, view density. It returns "" when nothing is set.
// Unknown values are written as unset.
func compactSettings(s *Settings) string {
	if s == nil || s.IsZero() {
		return ""
	}
	out := []byte{unsetCode, unsetCode, unsetCode}
	if c, ok := directionCodes[s.LayoutDirection]; ok {
		out[0] = c
	}
	if c, ok := directionCodes[s.ExperimentLayout]; ok {
		out[1] = c
	}
	if c, ok := densityCodes[s.ViewDensity]; ok {
		out[2] = c
	}
	return string(out)
}

// expandSettings is the inverse of compactSettings. Short input is
// tolerated: missing positions are unset.
func expandSettings(compact string) *Settings {
	var s Settings
	for i := 0; i < len(compact) && i < 3; i++ {
		c := compact[i]
		switch i {
		case 0:
			s.LayoutDirection = directionFor(c)
		case 1:
			s.ExperimentLayout = directionFor(c)
		case 2:
			s.ViewDensity = densityFor(c)
		}
	}
	if s.IsZero() {
		return nil
	}
	return &s
}

func directionFor(c byte) Direction {
	for d, code := range directionCodes {
		if code == c {
			return d
		}
	}
	return ""
}

func densityFor(c byte) Density {
	for d, code := range densityCodes {
		if code == c {
			return d
		}
	}
	return ""
}
