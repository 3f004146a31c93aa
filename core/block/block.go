// Package block segments list-like sections of a document into bounded entries
// and resolves same-indent sibling phrases inside an entry.
//
// Every boundary is decided by indent comparison on the document's line view.
// The normalizer and the anomaly reporter both go through this package so
// they never disagree on where an entry starts or ends.
package block

import (
	"strings"

	"github.com/FocuswithJustin/WindevClarify/core/phrase"
)

// Section is a named phrase whose logical children are blocks.
type Section struct {
	// Phrase is the index of the section phrase.
	Phrase int
	// Indent is the section phrase indent.
	Indent int
	// From and To delimit the section content in the line view, half-open.
	From, To int
}

// Block is one list entry inside a section.
type Block struct {
	// Section is the phrase index of the enclosing section, -1 when the block
	// was segmented from an explicit range.
	Section int
	// Dashed is true for entries introduced by a dash marker.
	Dashed bool
	// Indent is the dash marker indent for dashed blocks, the first phrase
	// indent for bare blocks.
	Indent int
	// Marker is the view position of the dash marker, -1 for bare blocks.
	Marker int
	// From and To delimit the entry content in the line view, half-open.
	From, To int
	// First and Last delimit the phrases of the entry, half-open.
	First, Last int
}

// Empty reports whether the entry holds no phrase.
func (b Block) Empty() bool {
	return b.First >= b.Last
}

// FieldIndent is the indent of the entry's own attributes: two columns past
// the dash for dashed blocks, the block indent for bare ones.
func (b Block) FieldIndent() int {
	if b.Dashed {
		return b.Indent + 2
	}
	return b.Indent
}

// Start returns the first view position of the entry, marker included.
func (b Block) Start() int {
	if b.Marker >= 0 {
		return b.Marker
	}
	return b.From
}

// Phrases returns the phrases of the entry.
func (b Block) Phrases(doc *phrase.Document) []phrase.Phrase {
	out := make([]phrase.Phrase, 0, b.Last-b.First)
	for i := b.First; i < b.Last; i++ {
		out = append(out, doc.Phrase(i))
	}
	return out
}

// Lines returns the content lines of the entry, marker excluded.
func (b Block) Lines(doc *phrase.Document) []string {
	view := doc.View()
	out := make([]string, 0, b.To-b.From)
	for _, l := range view[b.From:b.To] {
		out = append(out, l.Text)
	}
	return out
}

// Find returns the index of the first phrase of the entry with key at the
// given indent.
func (b Block) Find(doc *phrase.Document, key string, indent int) (int, bool) {
	for i := b.First; i < b.Last; i++ {
		p := doc.Phrase(i)
		if p.Indent == indent && p.Key == key {
			return i, true
		}
	}
	return -1, false
}

// FindSection locates the first phrase keyed key.
func FindSection(doc *phrase.Document, key string) (Section, bool) {
	for i := 0; i < doc.Len(); i++ {
		if doc.Phrase(i).Key == key {
			return sectionAt(doc, i), true
		}
	}
	return Section{}, false
}

// Sections returns every phrase keyed key as a section, in document order.
func Sections(doc *phrase.Document, key string) []Section {
	var out []Section
	for i := 0; i < doc.Len(); i++ {
		if doc.Phrase(i).Key == key {
			out = append(out, sectionAt(doc, i))
		}
	}
	return out
}

// sectionAt bounds the section opened by phrase i. It ends at the first later
// phrase of indent <= the section's, or earlier at a dash marker shallower
// than the section phrase: such a marker opens the next entry of an enclosing
// list and is carried as continuation text of the section's last phrase.
func sectionAt(doc *phrase.Document, i int) Section {
	indent := doc.Phrase(i).Indent
	end := i + 1
	for end < doc.Len() && doc.Phrase(end).Indent > indent {
		end++
	}
	from, to := doc.HeadPos(i)+1, doc.HeadPos(end)
	view := doc.View()
	for pos := from; pos < to; pos++ {
		if d, ok := phrase.DashMarker(view[pos].Text); ok && d < indent {
			to = pos
			break
		}
	}
	return Section{Phrase: i, Indent: indent, From: from, To: to}
}

// Segment returns the blocks of the first section keyed key. A missing section
// yields no blocks.
func Segment(doc *phrase.Document, key string) []Block {
	sec, ok := FindSection(doc, key)
	if !ok {
		return nil
	}
	return SegmentSection(doc, sec)
}

// SegmentSection returns the blocks of sec.
func SegmentSection(doc *phrase.Document, sec Section) []Block {
	blocks := SegmentRange(doc, sec.From, sec.To)
	for i := range blocks {
		blocks[i].Section = sec.Phrase
	}
	return blocks
}

// SegmentRange segments the view range [from, to).
func SegmentRange(doc *phrase.Document, from, to int) []Block {
	view := doc.View()
	if to > len(view) {
		to = len(view)
	}

	var blocks []Block
	i := from
	for i < to {
		line := view[i]
		if strings.TrimSpace(line.Text) == "" {
			i++
			continue
		}

		if dash, ok := phrase.DashMarker(line.Text); ok {
			j := i + 1
			for j < to {
				if d, ok := phrase.DashMarker(view[j].Text); ok && d == dash {
					break
				}
				j++
			}
			blocks = append(blocks, Block{
				Section: -1,
				Dashed:  true,
				Indent:  dash,
				Marker:  i,
				From:    i + 1,
				To:      j,
				First:   doc.PhraseAt(i + 1),
				Last:    doc.PhraseAt(j),
			})
			i = j
			continue
		}

		if line.IsHead() {
			bare := doc.Phrase(line.Phrase).Indent
			j := i + 1
			for j < to {
				next := view[j]
				if next.IsHead() && doc.Phrase(next.Phrase).Indent <= bare {
					break
				}
				if d, ok := phrase.DashMarker(next.Text); ok && d <= bare {
					break
				}
				j++
			}
			blocks = append(blocks, Block{
				Section: -1,
				Indent:  bare,
				Marker:  -1,
				From:    i,
				To:      j,
				First:   doc.PhraseAt(i),
				Last:    doc.PhraseAt(j),
			})
			i = j
			continue
		}

		// stray continuation content of the section phrase itself
		i++
	}
	return blocks
}
