package ost

import (
	"fmt"
	"strings"
)

// Outline renders a compact, indented summary of the tree for terminals
// and tool responses:
//
//	Q3 Discovery
//	- [Outcome] Grow (on-track) 120 → 164 / 250  #k2j1x0
//	  - [Opportunity] Churn  #p0a9zz
func Outline(tree *Tree) string {
	if tree == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(tree.Name + "\n")
	tree.Walk(func(c *Card, depth int) bool {
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString("- " + c.Type.Tag() + " " + c.Title)
		if c.Status != StatusNone && c.Status != "" {
			b.WriteString(" (" + string(c.Status) + ")")
		}
		if c.Metrics != nil {
			fmt.Fprintf(&b, " %s → %s / %s",
				formatNumber(c.Metrics.Start), formatNumber(c.Metrics.Current), formatNumber(c.Metrics.Target))
		}
		b.WriteString("  #" + c.ID + "\n")
		return true
	})
	return b.String()
}
