package ost

import (
	"strconv"
	"strings"
)

// Serialize renders tree back into the Markdown dialect. When name is not
// empty a "# name" title line is written first. Cards are emitted
// parent-before-children in stored order; each block ends with a blank line.
func Serialize(tree *Tree, name string) string {
	var b strings.Builder
	if name != "" {
		b.WriteString("# " + name + "\n\n")
	}
	if tree == nil {
		return b.String()
	}

	tree.Walk(func(c *Card, _ int) bool {
		writeCard(&b, c)
		return true
	})
	return b.String()
}

func writeCard(b *strings.Builder, c *Card) {
	b.WriteString(strings.Repeat("#", c.Type.HeadingLevel()))
	b.WriteString(" " + c.Type.Tag() + " " + c.Title)
	if c.Status != "" && c.Status != StatusNone {
		b.WriteString(" @" + string(c.Status))
	}
	b.WriteByte('\n')

	if c.Description != "" {
		b.WriteString(c.Description + "\n")
	}
	if c.Type == TypeOutcome && c.Metrics != nil {
		b.WriteString("- start: " + formatNumber(c.Metrics.Start) + "\n")
		b.WriteString("- current: " + formatNumber(c.Metrics.Current) + "\n")
		b.WriteString("- target: " + formatNumber(c.Metrics.Target) + "\n")
	}
	b.WriteByte('\n')
}

// formatNumber prints v in its shortest exact form: 10, 2.5, -0.25.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Format is Serialize(Parse(markdown), name): it normalizes a document to the
// canonical dialect.
func Format(markdown, name string) string {
	return Serialize(Parse(markdown), name)
}
