package fragment

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_MinimalEnvelope(t *testing.T) {
	token, err := Encode("# A")
	require.NoError(t, err)

	assert.Equal(t, "eyJ2IjoyLCJtIjoiIyBBIiwibiI6IiJ9", token)
	assert.NotContains(t, token, "=")
}

func TestEncode_WireFormatMatchesBrowser(t *testing.T) {
	token, err := Encode("a<b>&c",
		WithName("N"),
		WithSettings(&Settings{
			LayoutDirection:  DirectionHorizontal,
			ExperimentLayout: DirectionVertical,
			ViewDensity:      DensityCompact,
		}),
		WithCollapsed([]string{"x", "y"}),
	)
	require.NoError(t, err)

	assert.Equal(t, "eyJ2IjoyLCJtIjoiYTxiPiZjIiwibiI6Ik4iLCJzIjoiaHZjIiwiYyI6IngueSJ9", token)
}

func TestDecode_MinimalRoundTrip(t *testing.T) {
	token, err := Encode("# A")
	require.NoError(t, err)

	p, err := Decode(token)
	require.NoError(t, err)
	assert.Equal(t, &Payload{Markdown: "# A"}, p)
}

func TestDecode_FullRoundTrip(t *testing.T) {
	md := "# 🌳 Árbol\n\n## [Outcome] Crecer 📈 @on-track\n- start: 1\n"
	settings := &Settings{LayoutDirection: DirectionVertical, ViewDensity: DensityFull}
	ids := []string{"k3j2h1", "abc", "zz9"}

	token, err := Encode(md, WithName("Équipe ✨"), WithSettings(settings), WithCollapsed(ids))
	require.NoError(t, err)

	p, err := Decode(token)
	require.NoError(t, err)
	assert.Equal(t, md, p.Markdown)
	assert.Equal(t, "Équipe ✨", p.Name)
	assert.Equal(t, settings, p.Settings)
	assert.Equal(t, ids, p.CollapsedIDs)
	assert.False(t, p.Legacy)
}

func TestDecode_EmptyFragmentFails(t *testing.T) {
	p, err := Decode("")
	assert.ErrorIs(t, err, ErrDecodeFailed)
	assert.Nil(t, p)
}

func TestDecode_BadAlphabetFails(t *testing.T) {
	_, err := Decode("!!!not-base64!!!")
	assert.ErrorIs(t, err, ErrDecodeFailed)
}

func TestDecode_BadLengthFails(t *testing.T) {
	_, err := Decode("abcde")
	assert.ErrorIs(t, err, ErrDecodeFailed)
}

func TestDecode_InvalidUTF8Fails(t *testing.T) {
	_, err := Decode("__4")
	assert.ErrorIs(t, err, ErrDecodeFailed)
}

func TestDecode_LegacyToken(t *testing.T) {
	p, err := Decode("IyMgW091dGNvbWVdIExlZ2FjeQ")
	require.NoError(t, err)

	assert.Equal(t, "## [Outcome] Legacy", p.Markdown)
	assert.Empty(t, p.Name)
	assert.Nil(t, p.Settings)
	assert.Nil(t, p.CollapsedIDs)
	assert.True(t, p.Legacy)
}

func TestDecode_LegacyUnicode(t *testing.T) {
	md := "## [Outcome] 日本語 🚀"
	p, err := Decode(EncodeLegacy(md))
	require.NoError(t, err)
	assert.Equal(t, md, p.Markdown)
	assert.True(t, p.Legacy)
}

func TestDecode_JSONWithoutStringMFallsBackToLegacy(t *testing.T) {
	for _, text := range []string{`{"v":2,"m":42}`, `{"v":2,"m":null}`, `{"v":2}`, `[1,2]`, `123`} {
		p, err := Decode(EncodeLegacy(text))
		require.NoError(t, err, text)
		assert.Equal(t, text, p.Markdown, text)
		assert.True(t, p.Legacy, text)
	}
}

func TestDecode_AcceptsPaddingAndStdAlphabet(t *testing.T) {
	std := base64.StdEncoding.EncodeToString([]byte(`{"v":2,"m":"??>>","n":""}`))
	require.True(t, strings.ContainsAny(std, "+/="), "fixture should exercise std alphabet: %s", std)

	p, err := Decode(std)
	require.NoError(t, err)
	assert.Equal(t, "??>>", p.Markdown)
}

func TestDecode_SettingsObjectPassesThrough(t *testing.T) {
	text := `{"v":2,"m":"x","n":"","s":{"layoutDirection":"vertical","viewDensity":"compact"}}`
	p, err := Decode(EncodeLegacy(text))
	require.NoError(t, err)

	assert.Equal(t, &Settings{LayoutDirection: DirectionVertical, ViewDensity: DensityCompact}, p.Settings)
	assert.False(t, p.Legacy)
}

func TestDecode_CollapsedDropsEmptyTokens(t *testing.T) {
	p, err := Decode(EncodeLegacy(`{"v":2,"m":"x","n":"","c":".a..b."}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, p.CollapsedIDs)
}

func TestDecode_DottedCollapsedIDSplits(t *testing.T) {
	token, err := Encode("x", WithCollapsed([]string{"a.b"}))
	require.NoError(t, err)

	p, err := Decode(token)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, p.CollapsedIDs, "dotted ids are split by the compact encoding")
}

func TestEncode_OmitsEmptyOptionalFields(t *testing.T) {
	token, err := Encode("x", WithSettings(&Settings{}), WithCollapsed(nil))
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(token)
	require.NoError(t, err)
	assert.Equal(t, `{"v":2,"m":"x","n":""}`, string(raw))
}

func TestSettings_CompactPartial(t *testing.T) {
	assert.Equal(t, "", compactSettings(nil))
	assert.Equal(t, "", compactSettings(&Settings{}))
	assert.Equal(t, "-v-", compactSettings(&Settings{ExperimentLayout: DirectionVertical}))
	assert.Equal(t, "--f", compactSettings(&Settings{ViewDensity: DensityFull}))

	assert.Equal(t, &Settings{ExperimentLayout: DirectionVertical}, expandSettings("-v-"))
	assert.Equal(t, &Settings{LayoutDirection: DirectionHorizontal}, expandSettings("h"))
	assert.Nil(t, expandSettings("---"))
	assert.Nil(t, expandSettings(""))
}

func TestLink(t *testing.T) {
	assert.Equal(t, "https://ost.tools/#abc", Link("https://ost.tools/", "abc"))
	assert.Equal(t, "https://ost.tools/#abc", Link("https://ost.tools/#", "abc"))

	assert.Equal(t, "abc", FromLink("https://ost.tools/#abc"))
	assert.Equal(t, "abc", FromLink("  abc "))
}

func TestParseSettings(t *testing.T) {
	s, err := ParseSettings("vertical", "", "compact")
	require.NoError(t, err)
	assert.Equal(t, &Settings{LayoutDirection: DirectionVertical, ViewDensity: DensityCompact}, s)

	s, err = ParseSettings("", "", "")
	require.NoError(t, err)
	assert.Nil(t, s)

	_, err = ParseSettings("diagonal", "", "")
	assert.ErrorContains(t, err, "diagonal")
	_, err = ParseSettings("", "", "sparse")
	assert.ErrorContains(t, err, "sparse")
}
