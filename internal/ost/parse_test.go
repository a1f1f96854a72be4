package ost

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Helpers ---

// onlyRoot returns the single root card of tree.
func onlyRoot(t *testing.T, tree *Tree) *Card {
	t.Helper()
	require.Len(t, tree.RootIDs, 1)
	c := tree.Card(tree.RootIDs[0])
	require.NotNil(t, c)
	return c
}

// shape flattens a tree into "depth:type:title" entries in walk order.
func shape(tree *Tree) []string {
	var out []string
	tree.Walk(func(c *Card, depth int) bool {
		out = append(out, fmt.Sprintf("%d:%s:%s", depth, c.Type, c.Title))
		return true
	})
	return out
}

// assertIntegrity checks that every reference in the tree resolves.
func assertIntegrity(t *testing.T, tree *Tree) {
	t.Helper()
	for _, id := range tree.RootIDs {
		c := tree.Card(id)
		require.NotNil(t, c, "root %s missing", id)
		assert.Empty(t, c.ParentID)
	}
	for id, c := range tree.Cards {
		assert.Equal(t, id, c.ID)
		for _, child := range c.Children {
			cc := tree.Card(child)
			require.NotNil(t, cc, "child %s missing", child)
			assert.Equal(t, id, cc.ParentID)
		}
		if c.ParentID == "" {
			continue
		}
		parent := tree.Card(c.ParentID)
		require.NotNil(t, parent)
		n := 0
		for _, child := range parent.Children {
			if child == id {
				n++
			}
		}
		assert.Equal(t, 1, n, "card %s listed %d times by its parent", id, n)
	}
}

// --- Scenarios ---

func TestParse_OutcomeWithStatusDescriptionAndMetrics(t *testing.T) {
	tree := Parse("## [Outcome] Test @on-track\nDescription text\n- start: 0\n- current: 5\n- target: 10\n")

	c := onlyRoot(t, tree)
	assert.Equal(t, TypeOutcome, c.Type)
	assert.Equal(t, StatusOnTrack, c.Status)
	assert.Equal(t, "Test", c.Title)
	assert.Equal(t, "Description text", c.Description)
	require.NotNil(t, c.Metrics)
	assert.Equal(t, Metrics{Start: 0, Current: 5, Target: 10}, *c.Metrics)
}

func TestParse_UnknownStatusIsStripped(t *testing.T) {
	c := onlyRoot(t, Parse("### [Opportunity] Test @invalid-status\n"))

	assert.Equal(t, StatusNone, c.Status)
	assert.Equal(t, "Test", c.Title)
	assert.Equal(t, TypeOpportunity, c.Type)
}

func TestParse_EmailLikeTitleKeepsSuffix(t *testing.T) {
	c := onlyRoot(t, Parse("## [Outcome] Ask support@example\n"))

	assert.Equal(t, "Ask support@example", c.Title)
	assert.Equal(t, StatusNone, c.Status)

	again := onlyRoot(t, Parse(Serialize(Parse("## [Outcome] Ask support@example @done\n"), "")))
	assert.Equal(t, "Ask support@example", again.Title)
	assert.Equal(t, StatusDone, again.Status)
}

func TestParse_TypeFromHeadingLevel(t *testing.T) {
	tree := Parse("## Grow revenue\n### Users churn\n#### Onboarding email\n##### A/B test subject line\n")

	assert.Equal(t, []string{
		"0:outcome:Grow revenue",
		"1:opportunity:Users churn",
		"2:solution:Onboarding email",
		"3:experiment:A/B test subject line",
	}, shape(tree))
	assertIntegrity(t, tree)
}

func TestParse_TagIsCaseInsensitive(t *testing.T) {
	c := onlyRoot(t, Parse("## [OUTCOME] Loud @ON-TRACK\n"))

	assert.Equal(t, TypeOutcome, c.Type)
	assert.Equal(t, StatusOnTrack, c.Status)
	assert.Equal(t, "Loud", c.Title)
}

func TestParse_TagOverridesLevel(t *testing.T) {
	c := onlyRoot(t, Parse("# [Experiment] Top-level experiment\n"))

	assert.Equal(t, TypeExperiment, c.Type)
}

func TestParse_EmptyTitleDefaults(t *testing.T) {
	c := onlyRoot(t, Parse("## [Solution] @done\n"))

	assert.Equal(t, "New Solution", c.Title)
	assert.Equal(t, StatusDone, c.Status)
}

func TestParse_LegacyIDTokenIgnored(t *testing.T) {
	c := onlyRoot(t, Parse("## [Outcome] Retain {#abc123} users @at-risk\n"))

	assert.Equal(t, "Retain  users", c.Title)
	assert.Equal(t, StatusAtRisk, c.Status)
	assert.NotEqual(t, "abc123", c.ID)
}

func TestParse_NonCardHeadingKeepsCardOpen(t *testing.T) {
	tree := Parse("## [Outcome] A\nfirst\n###### aside\nsecond\n")

	c := onlyRoot(t, tree)
	assert.Equal(t, "first\nsecond", c.Description)
	assert.Equal(t, 1, tree.Len())
}

func TestParse_LinesBeforeFirstCardIgnored(t *testing.T) {
	c := onlyRoot(t, Parse("preamble\n\n## [Outcome] A\nbody\n"))

	assert.Equal(t, "body", c.Description)
}

func TestParse_TreeNameFromTitleHeading(t *testing.T) {
	tree := Parse("# Q3 Discovery\n\n## [Outcome] A\n")
	assert.Equal(t, "Q3 Discovery", tree.Name)
	assert.Equal(t, 1, tree.Len())

	assert.Equal(t, DefaultTreeName, Parse("## [Outcome] A\n").Name)
}

func TestParse_EmptyInput(t *testing.T) {
	tree := Parse("")

	assert.Equal(t, 0, tree.Len())
	assert.Empty(t, tree.RootIDs)
	assert.Equal(t, "", Serialize(tree, ""))
}

// --- Metrics ---

func TestParse_MetricsPartialDefaultToZero(t *testing.T) {
	c := onlyRoot(t, Parse("## [Outcome] A\n- Current: 2.5\n- TARGET: 10\n"))

	require.NotNil(t, c.Metrics)
	assert.Equal(t, Metrics{Start: 0, Current: 2.5, Target: 10}, *c.Metrics)
	assert.Empty(t, c.Description)
}

func TestParse_MetricNonNumericStaysInDescription(t *testing.T) {
	c := onlyRoot(t, Parse("## [Outcome] A\n- target: soon\n"))

	assert.Nil(t, c.Metrics)
	assert.Equal(t, "- target: soon", c.Description)
}

func TestParse_NoMetricsMeansNil(t *testing.T) {
	c := onlyRoot(t, Parse("## [Outcome] A\njust text\n"))

	assert.Nil(t, c.Metrics)
}

func TestParse_MetricsOnlyForOutcomes(t *testing.T) {
	tree := Parse("### [Opportunity] O\n- start: 1\n- current: 2\n- target: 3\n")

	c := onlyRoot(t, tree)
	assert.Nil(t, c.Metrics)
	assert.Equal(t, "- start: 1\n- current: 2\n- target: 3", c.Description)
}

// --- Structure ---

func TestParse_LevelSkipAttachesToOutcome(t *testing.T) {
	tree := Parse("## [Outcome] A\n#### [Solution] B\n")

	root := onlyRoot(t, tree)
	require.Len(t, root.Children, 1)
	child := tree.Card(root.Children[0])
	require.NotNil(t, child)
	assert.Equal(t, TypeSolution, child.Type)
	assert.Equal(t, root.ID, child.ParentID)
	assertIntegrity(t, tree)
}

func TestParse_SiblingsAndDeeperFramesClose(t *testing.T) {
	md := "## [Outcome] A\n" +
		"### [Opportunity] A1\n" +
		"#### [Solution] A1x\n" +
		"### [Opportunity] A2\n" +
		"## [Outcome] B\n" +
		"### [Opportunity] B1\n"
	tree := Parse(md)

	assert.Equal(t, []string{
		"0:outcome:A",
		"1:opportunity:A1",
		"2:solution:A1x",
		"1:opportunity:A2",
		"0:outcome:B",
		"1:opportunity:B1",
	}, shape(tree))
	assert.Len(t, tree.RootIDs, 2)
	assertIntegrity(t, tree)
}

func TestParse_Deterministic(t *testing.T) {
	md := "## [Outcome] A\n### [Opportunity] B\n#### [Solution] C\n## [Outcome] D\n"
	first := Parse(md)
	second := Parse(md)

	assert.Equal(t, first.RootIDs, second.RootIDs)
	assert.Equal(t, shape(first), shape(second))
	for id := range first.Cards {
		assert.Contains(t, second.Cards, id)
	}
	assert.NotEqual(t, first.ID, second.ID, "tree id is fresh per parse")
}

func TestParse_DistinctIDsForIdenticalTitles(t *testing.T) {
	md := "## [Outcome] Same\n" +
		"### [Opportunity] Same\n" +
		"### [Opportunity] Same\n" +
		"## [Outcome] Same\n" +
		"### [Opportunity] Same\n"
	tree := Parse(md)

	assert.Equal(t, 5, tree.Len(), "every card must get its own id")
	assertIntegrity(t, tree)
}

func TestParse_IDChangesWithTitleAndSiblings(t *testing.T) {
	base := Parse("## [Outcome] A\n### [Opportunity] B\n")
	renamed := Parse("## [Outcome] A\n### [Opportunity] B2\n")
	shifted := Parse("## [Outcome] A\n### [Opportunity] X\n### [Opportunity] B\n")

	baseB := base.Card(base.RootIDs[0]).Children[0]
	assert.NotEqual(t, baseB, renamed.Card(renamed.RootIDs[0]).Children[0])
	assert.NotEqual(t, baseB, shifted.Card(shifted.RootIDs[0]).Children[1])
	assert.Equal(t, base.RootIDs, renamed.RootIDs, "unchanged root keeps its id")
}

func TestParse_ConcurrentCallsAgree(t *testing.T) {
	md := "## [Outcome] A\n### [Opportunity] B\n#### [Solution] C\n##### [Experiment] D\n"
	want := Parse(md).RootIDs

	var wg sync.WaitGroup
	errs := make(chan string, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := Parse(md).RootIDs
			if len(got) != 1 || got[0] != want[0] {
				errs <- fmt.Sprintf("root ids = %v, want %v", got, want)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Error(e)
	}
}

func TestTree_CountByType(t *testing.T) {
	tree := Parse("## A\n### B\n### C\n#### D\n")

	counts := tree.CountByType()
	assert.Equal(t, 1, counts[TypeOutcome])
	assert.Equal(t, 2, counts[TypeOpportunity])
	assert.Equal(t, 1, counts[TypeSolution])
	assert.Equal(t, 0, counts[TypeExperiment])
}

func TestParseStatus(t *testing.T) {
	tests := map[string]Status{
		"on-track": StatusOnTrack,
		"AT-RISK":  StatusAtRisk,
		"next":     StatusNext,
		"Done":     StatusDone,
		"none":     StatusNone,
		"blocked":  StatusNone,
		"":         StatusNone,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseStatus(in), "ParseStatus(%q)", in)
	}
}

func TestTree_WalkVisitsEachCardOnce(t *testing.T) {
	tree := &Tree{
		Cards: map[string]*Card{
			"a": {ID: "a", Type: TypeOutcome, Title: "A", Children: []string{"b"}},
			"b": {ID: "b", Type: TypeOpportunity, Title: "B", Children: []string{"a", "missing"}},
		},
		RootIDs: []string{"a"},
	}

	var seen []string
	tree.Walk(func(c *Card, _ int) bool {
		seen = append(seen, c.ID)
		return true
	})

	assert.Equal(t, []string{"a", "b"}, seen)
}
