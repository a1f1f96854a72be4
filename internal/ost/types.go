// Package ost parses and serializes Opportunity Solution Trees written in a
// restricted Markdown dialect.
//
// A tree is four fixed levels deep: Outcome → Opportunity → Solution →
// Experiment. Each heading in the document becomes one Card; the tree shape
// is reconstructed from heading levels alone.
//
// Design principles:
// - Markdown is the source of truth; a Tree is a derived view rebuilt on every Parse
// - Pure functions only: no I/O, no shared mutable state, safe for concurrent use
// - Lenient input: unknown headings, bad statuses, and malformed metrics are never errors
package ost

import "strings"

// --- Card type enum ---

// CardType is the taxonomy level of a card.
type CardType string

const (
	TypeOutcome     CardType = "outcome"
	TypeOpportunity CardType = "opportunity"
	TypeSolution    CardType = "solution"
	TypeExperiment  CardType = "experiment"
)

// CardTypes lists every card type in taxonomy order.
var CardTypes = []CardType{TypeOutcome, TypeOpportunity, TypeSolution, TypeExperiment}

// headingLevels maps each type to the heading level it serializes at.
// The inverse of this table is used when a heading carries no type tag.
var headingLevels = map[CardType]int{
	TypeOutcome:     2,
	TypeOpportunity: 3,
	TypeSolution:    4,
	TypeExperiment:  5,
}

// HeadingLevel returns the number of '#' characters used for t.
func (t CardType) HeadingLevel() int {
	return headingLevels[t]
}

// Label returns the capitalized display name ("Outcome").
func (t CardType) Label() string {
	if t == "" {
		return ""
	}
	s := string(t)
	return strings.ToUpper(s[:1]) + s[1:]
}

// Tag returns the bracketed prefix written before a title ("[Outcome]").
func (t CardType) Tag() string {
	return "[" + t.Label() + "]"
}

// typeForLevel resolves an untagged heading level to a card type.
func typeForLevel(level int) (CardType, bool) {
	for t, l := range headingLevels {
		if l == level {
			return t, true
		}
	}
	return "", false
}

// --- Status enum ---

// Status is the progress marker written as a trailing @tag on a heading.
type Status string

const (
	StatusNone    Status = "none"
	StatusOnTrack Status = "on-track"
	StatusAtRisk  Status = "at-risk"
	StatusNext    Status = "next"
	StatusDone    Status = "done"
)

// validStatuses is the set of recognised @tags.
var validStatuses = map[Status]bool{
	StatusNone:    true,
	StatusOnTrack: true,
	StatusAtRisk:  true,
	StatusNext:    true,
	StatusDone:    true,
}

// ParseStatus maps a tag (without '@', any case) to a Status.
// Unknown values yield StatusNone.
func ParseStatus(s string) Status {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if validStatuses[st] {
		return st
	}
	return StatusNone
}

// --- Core data structures ---

// Metrics tracks a measurable outcome. Only Outcome cards carry metrics.
type Metrics struct {
	Start   float64 `json:"start" yaml:"start"`
	Current float64 `json:"current" yaml:"current"`
	Target  float64 `json:"target" yaml:"target"`
}

// Card is one heading block in the document.
type Card struct {
	ID          string   `json:"id" yaml:"id"`
	Type        CardType `json:"type" yaml:"type"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Status      Status   `json:"status" yaml:"status"`
	ParentID    string   `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
	Children    []string `json:"children" yaml:"children"`
	Metrics     *Metrics `json:"metrics,omitempty" yaml:"metrics,omitempty"`
}

// Tree owns every card parsed from one document.
type Tree struct {
	ID      string           `json:"id" yaml:"id"`
	Name    string           `json:"name" yaml:"name"`
	Cards   map[string]*Card `json:"cards" yaml:"cards"`
	RootIDs []string         `json:"root_ids" yaml:"root_ids"`
}

// DefaultTreeName is used when the document has no "# Title" heading.
const DefaultTreeName = "Untitled Tree"

// Card returns the card with the given id, or nil.
func (t *Tree) Card(id string) *Card {
	if t == nil {
		return nil
	}
	return t.Cards[id]
}

// Len returns the number of cards in the tree.
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Cards)
}

// CountByType returns how many cards of each type the tree holds.
func (t *Tree) CountByType() map[CardType]int {
	counts := make(map[CardType]int, len(CardTypes))
	if t == nil {
		return counts
	}
	for _, c := range t.Cards {
		counts[c.Type]++
	}
	return counts
}

// Walk visits cards parent-before-children in stored order. depth is 0 for
// roots. Returning false from fn skips the card's subtree. Each card is
// visited at most once, so hand-built trees with cycles terminate.
func (t *Tree) Walk(fn func(c *Card, depth int) bool) {
	if t == nil {
		return
	}
	seen := make(map[string]bool, len(t.Cards))
	var visit func(id string, depth int)
	visit = func(id string, depth int) {
		c := t.Cards[id]
		if c == nil || seen[id] {
			return
		}
		seen[id] = true
		if !fn(c, depth) {
			return
		}
		for _, child := range c.Children {
			visit(child, depth+1)
		}
	}
	for _, id := range t.RootIDs {
		visit(id, 0)
	}
}
