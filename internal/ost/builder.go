package ost

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// frame is one open ancestor on the builder's level stack.
type frame struct {
	id         string
	level      int
	path       string
	childCount int
}

// builder reconstructs parent/child links from a flat, ordered stream of
// card drafts using the heading level of each draft.
type builder struct {
	tree      *Tree
	stack     []frame
	rootCount int
}

func newBuilder() *builder {
	return &builder{
		tree: &Tree{
			ID:      uuid.NewString(),
			Name:    DefaultTreeName,
			Cards:   make(map[string]*Card),
			RootIDs: []string{},
		},
	}
}

// add registers a finished draft. Frames at the same or a deeper level are
// closed first, so skipped levels (## then ####) simply nest.
func (b *builder) add(d draft) {
	for len(b.stack) > 0 && b.stack[len(b.stack)-1].level >= d.level {
		b.stack = b.stack[:len(b.stack)-1]
	}

	var (
		parent *frame
		index  int
		path   string
	)
	if len(b.stack) > 0 {
		parent = &b.stack[len(b.stack)-1]
		index = parent.childCount
		path = parent.path + "/" + string(d.typ) + "." + strconv.Itoa(index)
	} else {
		index = b.rootCount
		path = "root." + strconv.Itoa(index) + "/" + string(d.typ)
	}

	description, metrics := extractBody(d.typ, d.body)
	card := &Card{
		ID:          cardID(path, d.typ, d.title),
		Type:        d.typ,
		Title:       d.title,
		Description: description,
		Status:      d.status,
		Children:    []string{},
		Metrics:     metrics,
	}
	b.tree.Cards[card.ID] = card

	if parent != nil {
		card.ParentID = parent.id
		if p := b.tree.Cards[parent.id]; p != nil {
			p.Children = append(p.Children, card.ID)
		}
		parent.childCount++
	} else {
		b.tree.RootIDs = append(b.tree.RootIDs, card.ID)
		b.rootCount++
	}

	b.stack = append(b.stack, frame{id: card.ID, level: d.level, path: path})
}

// Parse builds a fresh Tree from markdown. It never fails: headings that do
// not resolve to a card type are skipped and lines before the first card are
// ignored. The first untagged level-1 heading, if any, names the tree.
func Parse(markdown string) *Tree {
	b := newBuilder()
	named := false

	var open *draft
	for _, line := range Scan(markdown) {
		if !line.IsHeading() {
			if open != nil {
				open.body = append(open.body, line.Text)
			}
			continue
		}

		d, ok := extractHeading(line.Level, line.Text)
		if !ok {
			if line.Level == 1 && !named {
				if name := strings.TrimSpace(line.Text); name != "" {
					b.tree.Name = name
					named = true
				}
			}
			continue
		}

		if open != nil {
			b.add(*open)
		}
		open = &d
	}
	if open != nil {
		b.add(*open)
	}

	return b.tree
}
