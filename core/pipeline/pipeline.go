// Package pipeline rewrites a window definition into its clarified form.
//
// Every step is a pure function from one document to a new one. Steps run in a
// fixed order: drop internal phrases, drop empty containers, flatten property
// groups, filter and annotate events, annotate control types.
package pipeline

import (
	"strings"

	"github.com/FocuswithJustin/WindevClarify/core/classify"
	"github.com/FocuswithJustin/WindevClarify/core/lookup"
	"github.com/FocuswithJustin/WindevClarify/core/phrase"
)

// Step is one document rewrite.
type Step func(doc *phrase.Document, tables lookup.Tables, cfg Config) *phrase.Document

// Steps returns the pipeline steps in execution order.
func Steps() []Step {
	return []Step{
		func(d *phrase.Document, _ lookup.Tables, c Config) *phrase.Document { return DropInternal(d, c) },
		func(d *phrase.Document, _ lookup.Tables, c Config) *phrase.Document { return DropEmptyContainers(d, c) },
		func(d *phrase.Document, _ lookup.Tables, c Config) *phrase.Document { return FlattenGroups(d, c) },
		FilterEvents,
		AnnotateControls,
	}
}

// Run applies every step to doc.
func Run(doc *phrase.Document, tables lookup.Tables, cfg Config) *phrase.Document {
	for _, step := range Steps() {
		doc = step(doc, tables, cfg)
	}
	return doc
}

// keep returns a document holding the phrases whose kind is not drop.
func keep(doc *phrase.Document, x *classify.Index, drop classify.Kind) *phrase.Document {
	out := make([]phrase.Phrase, 0, doc.Len())
	for i := 0; i < doc.Len(); i++ {
		if x.Kind(i) != drop {
			out = append(out, doc.Phrase(i))
		}
	}
	return phrase.New(out)
}

// DropInternal removes internal phrases with their captured value. Phrases
// nested under them are kept.
func DropInternal(doc *phrase.Document, cfg Config) *phrase.Document {
	return keep(doc, classify.Analyze(doc, cfg.Rules), classify.Internal)
}

// DropEmptyContainers removes phrases whose whole value is the empty literal
// registered for their key.
func DropEmptyContainers(doc *phrase.Document, cfg Config) *phrase.Document {
	return keep(doc, classify.Analyze(doc, cfg.Rules), classify.EmptyContainer)
}

// FlattenGroups replaces every group phrase that has direct children with one
// phrase listing them as `key : value` parts. Groups without direct children
// are kept with their original content.
func FlattenGroups(doc *phrase.Document, cfg Config) *phrase.Document {
	x := classify.Analyze(doc, cfg.Rules)
	out := make([]phrase.Phrase, 0, doc.Len())
	for i := 0; i < doc.Len(); i++ {
		p := doc.Phrase(i)
		if x.Kind(i) != classify.Group {
			out = append(out, p)
			continue
		}
		flat, next, ok := flatten(doc, i)
		if !ok {
			out = append(out, p)
			continue
		}
		out = append(out, flat)
		i = next - 1
	}
	return phrase.New(out)
}

// flatten builds the replacement for group i. next is the index of the first
// phrase after the group's descendants.
func flatten(doc *phrase.Document, i int) (flat phrase.Phrase, next int, ok bool) {
	group := doc.Phrase(i)
	child := childIndent(doc, i)

	var parts []string
	next = i + 1
	for ; next < doc.Len(); next++ {
		p := doc.Phrase(next)
		if p.Indent <= group.Indent {
			break
		}
		if p.Indent == child {
			parts = append(parts, strings.TrimSpace(p.Key+" : "+oneLine(p.Value)))
		}
	}
	if len(parts) == 0 {
		return phrase.Phrase{}, 0, false
	}
	return phrase.Phrase{
		Indent: group.Indent,
		Key:    group.Key,
		Value:  []string{strings.Join(parts, ", ")},
		Line:   group.Line,
	}, next, true
}

// childIndent returns the indent of the direct children of group i: one
// column deeper, or the indent of the first nested phrase when the group
// captured no list or text of its own and every nested phrase shares it.
func childIndent(doc *phrase.Document, i int) int {
	group := doc.Phrase(i)
	want := group.Indent + 1
	first := -1
	for j := i + 1; j < doc.Len(); j++ {
		p := doc.Phrase(j)
		if p.Indent <= group.Indent {
			break
		}
		if p.Indent == want {
			return want
		}
		if first < 0 {
			first = p.Indent
		}
	}
	if first < 0 || group.FirstLine() != "" {
		return want
	}
	for _, l := range group.Continuation() {
		if strings.TrimSpace(l) != "" {
			return want
		}
	}
	// the fallback only holds for flat groups: any deeper descendant would be
	// lost, so such groups are kept as they are
	for j := i + 1; j < doc.Len(); j++ {
		p := doc.Phrase(j)
		if p.Indent <= group.Indent {
			break
		}
		if p.Indent != first {
			return want
		}
	}
	return first
}

// oneLine joins the non-blank lines of value with single spaces.
func oneLine(value []string) string {
	var parts []string
	for _, l := range value {
		if s := strings.TrimSpace(l); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// FilterEvents drops every event entry without an embedded code payload and
// annotates the entry-level type of the remaining ones.
func FilterEvents(doc *phrase.Document, tables lookup.Tables, cfg Config) *phrase.Document {
	x := classify.Analyze(doc, cfg.Rules)
	if len(x.Events) == 0 {
		return doc
	}

	phrases := doc.Phrases()
	drop := make(map[int]bool)
	for _, ev := range x.Events {
		if !ev.HasCode {
			for pos := ev.Block.Start(); pos < ev.Block.To; pos++ {
				drop[pos] = true
			}
			continue
		}
		for _, t := range ev.Types {
			phrases[t] = annotate(phrases[t], tables.Events, cfg.DefaultEventLabel)
		}
	}

	// annotation keeps every line count, so view positions still hold
	annotated := phrase.New(phrases)
	if len(drop) == 0 {
		return annotated
	}
	view := annotated.View()
	kept := make([]phrase.Line, 0, len(view))
	for pos, l := range view {
		if !drop[pos] {
			kept = append(kept, l)
		}
	}
	return phrase.Rebuild(kept)
}

// AnnotateControls rewrites the type sibling of every control anchor to
// `N (Label)`.
func AnnotateControls(doc *phrase.Document, tables lookup.Tables, cfg Config) *phrase.Document {
	x := classify.Analyze(doc, cfg.Rules)
	if len(x.Controls) == 0 {
		return doc
	}
	phrases := doc.Phrases()
	for _, c := range x.Controls {
		if c.Type < 0 {
			continue
		}
		phrases[c.Type] = annotate(phrases[c.Type], tables.Controls, cfg.DefaultControlLabel)
	}
	return phrase.New(phrases)
}

// annotate rewrites the leading type code of p's first value line. Phrases
// without one are returned unchanged.
func annotate(p phrase.Phrase, table lookup.Table, fallback string) phrase.Phrase {
	c, tail, ok := classify.LeadingCode(p.FirstLine())
	if !ok {
		return p
	}
	label := fallback
	if c.Fits {
		label = table.LabelOr(c.N, fallback)
	}
	return p.WithFirstLine(classify.Annotate(c, label, tail))
}
