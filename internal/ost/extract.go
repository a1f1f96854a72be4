package ost

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	typeTagRe      = regexp.MustCompile(`(?i)^\[(outcome|opportunity|solution|experiment)\]\s+(.*)$`)
	legacyIDRe     = regexp.MustCompile(`\{#[^}]*\}`)
	statusSuffixRe = regexp.MustCompile(`(?:^|\s+)@([A-Za-z][\w-]*)\s*$`)
	metricLineRe   = regexp.MustCompile(`(?i)^-\s*(start|current|target):\s*([+-]?(?:\d+(?:\.\d*)?|\.\d+))\s*$`)
)

// draft is a card whose heading has been read but whose body has not.
type draft struct {
	level  int
	typ    CardType
	title  string
	status Status
	body   []string
}

// extractHeading turns one heading into a card draft. It returns false when
// the heading is not a card: no type tag and a level outside the type table.
func extractHeading(level int, content string) (draft, bool) {
	var (
		typ  CardType
		rest string
	)
	if m := typeTagRe.FindStringSubmatch(content); m != nil {
		typ = CardType(strings.ToLower(m[1]))
		rest = m[2]
	} else if t, ok := typeForLevel(level); ok {
		typ = t
		rest = content
	} else {
		return draft{}, false
	}

	rest = legacyIDRe.ReplaceAllString(rest, "")

	status := StatusNone
	if loc := statusSuffixRe.FindStringSubmatchIndex(rest); loc != nil {
		status = ParseStatus(rest[loc[2]:loc[3]])
		rest = rest[:loc[0]]
	}

	title := strings.TrimSpace(rest)
	if title == "" {
		title = "New " + typ.Label()
	}

	return draft{level: level, typ: typ, title: title, status: status}, true
}

// extractBody splits a card's content lines into description and metrics.
// Metric lines are only recognised under Outcome cards; anywhere else, or
// when the value is not a number, they stay in the description.
func extractBody(typ CardType, lines []string) (string, *Metrics) {
	var (
		desc    []string
		metrics Metrics
		found   bool
	)
	for _, line := range lines {
		if typ == TypeOutcome {
			if m := metricLineRe.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
				if v, err := strconv.ParseFloat(m[2], 64); err == nil {
					switch strings.ToLower(m[1]) {
					case "start":
						metrics.Start = v
					case "current":
						metrics.Current = v
					case "target":
						metrics.Target = v
					}
					found = true
					continue
				}
			}
		}
		desc = append(desc, line)
	}

	description := strings.TrimSpace(strings.Join(desc, "\n"))
	if !found {
		return description, nil
	}
	return description, &metrics
}
