// Package fragment packs a tree's markdown and view state into a single
// URL-safe token that can travel in a share link's hash fragment.
//
// Two wire formats are understood:
//   - v2: base64url(JSON envelope {"v":2,"m":…,"n":…,"s":…,"c":…})
//   - legacy: base64url(raw markdown), produced by links older than v2
//
// Encode always writes v2. Decode accepts both and never panics.
package fragment

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Version is the envelope version written by Encode.
const Version = 2

// collapsedSep joins collapsed card ids in the compact envelope field.
// Ids that themselves contain it do not survive a round trip.
const collapsedSep = "."

// ErrDecodeFailed is returned by Decode for any token that is not a share
// fragment. Callers should treat it as "not a valid share link".
var ErrDecodeFailed = errors.New("fragment: decode failed")

// envelope is the v2 wire shape. Field order matters: it is the byte order
// of the JSON a browser produces for the same link.
type envelope struct {
	V int    `json:"v"`
	M string `json:"m"`
	N string `json:"n"`
	S string `json:"s,omitempty"`
	C string `json:"c,omitempty"`
}

// Payload is the decoded content of a fragment.
type Payload struct {
	Markdown     string    `json:"markdown" yaml:"markdown"`
	Name         string    `json:"name,omitempty" yaml:"name,omitempty"`
	Settings     *Settings `json:"settings,omitempty" yaml:"settings,omitempty"`
	CollapsedIDs []string  `json:"collapsed_ids,omitempty" yaml:"collapsed_ids,omitempty"`
	// Legacy is true when the token was a bare markdown payload.
	Legacy bool `json:"legacy,omitempty" yaml:"legacy,omitempty"`
}

// Option sets optional envelope fields on Encode.
type Option func(*envelope)

// WithName sets the display name carried with the tree.
func WithName(name string) Option {
	return func(e *envelope) { e.N = name }
}

// WithSettings packs display settings. Nil or zero settings are omitted.
func WithSettings(s *Settings) Option {
	return func(e *envelope) { e.S = compactSettings(s) }
}

// WithCollapsed records which cards are collapsed. Empty lists are omitted.
func WithCollapsed(ids []string) Option {
	return func(e *envelope) { e.C = strings.Join(ids, collapsedSep) }
}

// Encode builds a v2 fragment token for markdown.
func Encode(markdown string, opts ...Option) (string, error) {
	env := envelope{V: Version, M: markdown}
	for _, opt := range opts {
		opt(&env)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(env); err != nil {
		return "", fmt.Errorf("fragment: marshal envelope: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

// EncodeLegacy produces a pre-v2 token: the markdown alone, base64url
// encoded without an envelope.
func EncodeLegacy(markdown string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(markdown))
}

// Decode reverses Encode. Text that is not a v2 envelope is returned as a
// legacy markdown payload. Every failure wraps ErrDecodeFailed.
func Decode(fragment string) (*Payload, error) {
	text, err := decodeText(fragment)
	if err != nil {
		return nil, err
	}
	if p, ok := decodeEnvelope(text); ok {
		return p, nil
	}
	return &Payload{Markdown: text, Legacy: true}, nil
}

// decodeText undoes the base64url step. Padding and the standard base64
// alphabet are both accepted.
func decodeText(fragment string) (string, error) {
	s := strings.TrimRight(strings.TrimSpace(fragment), "=")
	if s == "" {
		return "", fmt.Errorf("%w: empty fragment", ErrDecodeFailed)
	}
	s = strings.NewReplacer("-", "+", "_", "/").Replace(s)

	raw, err := base64.RawStdEncoding.DecodeString(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("%w: invalid UTF-8", ErrDecodeFailed)
	}
	return string(raw), nil
}

// decodeEnvelope interprets text as a v2 envelope. It reports false when the
// text is not a JSON object with a string "m" field.
func decodeEnvelope(text string) (*Payload, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return nil, false
	}
	rawM := fields["m"]
	if len(rawM) == 0 || rawM[0] != '"' {
		return nil, false
	}
	var markdown string
	if err := json.Unmarshal(rawM, &markdown); err != nil {
		return nil, false
	}

	p := &Payload{Markdown: markdown}

	var name string
	if err := json.Unmarshal(fields["n"], &name); err == nil {
		p.Name = name
	}

	if raw, ok := fields["s"]; ok {
		p.Settings = decodeSettings(raw)
	}

	var collapsed string
	if err := json.Unmarshal(fields["c"], &collapsed); err == nil {
		p.CollapsedIDs = splitCollapsed(collapsed)
	}

	return p, true
}

// decodeSettings accepts the compact string form or, for envelopes written
// by newer clients, a full settings object.
func decodeSettings(raw json.RawMessage) *Settings {
	var compact string
	if err := json.Unmarshal(raw, &compact); err == nil {
		return expandSettings(compact)
	}
	var s Settings
	if err := json.Unmarshal(raw, &s); err == nil && !s.IsZero() {
		return &s
	}
	return nil
}

func splitCollapsed(s string) []string {
	var ids []string
	for _, id := range strings.Split(s, collapsedSep) {
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// Link appends token to baseURL as a hash fragment.
func Link(baseURL, token string) string {
	return strings.TrimRight(baseURL, "#") + "#" + token
}

// FromLink extracts the token from a share link. Input without a '#' is
// returned unchanged so a bare token can be passed through.
func FromLink(s string) string {
	s = strings.TrimSpace(s)
	if _, after, ok := strings.Cut(s, "#"); ok {
		return after
	}
	return s
}
