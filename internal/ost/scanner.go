package ost

import (
	"regexp"
	"strings"
)

var headingRe = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)

// Line is one classified line of a document.
type Line struct {
	// Level is the heading level (1-6), or 0 for a content line.
	Level int
	// Text is the heading content after the '#' run, or the raw line.
	Text string
}

// IsHeading reports whether the line is a heading.
func (l Line) IsHeading() bool { return l.Level > 0 }

// Scan splits markdown into lines and classifies each one as a heading or
// content. It does not decide which headings are cards; that is left to the
// extractor.
func Scan(markdown string) []Line {
	if markdown == "" {
		return nil
	}
	raw := strings.Split(markdown, "\n")
	lines := make([]Line, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSuffix(r, "\r")
		if m := headingRe.FindStringSubmatch(r); m != nil {
			lines = append(lines, Line{Level: len(m[1]), Text: m[2]})
			continue
		}
		lines = append(lines, Line{Text: r})
	}
	return lines
}
