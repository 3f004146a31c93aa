package phrase

import (
	"sort"
	"strings"
)

// Line is one rendered line of a document together with its owner.
type Line struct {
	Text string
	// No is the 1-based source line number.
	No int
	// Phrase is the index of the owning phrase.
	Phrase int
	// Offset is the position inside the owner's Value; 0 is the key line.
	Offset int
}

// IsHead reports whether the line is a phrase key line.
func (l Line) IsHead() bool {
	return l.Offset == 0
}

// Document is an immutable ordered phrase sequence.
type Document struct {
	phrases []Phrase
	lines   []Line
	heads   []int
}

// New builds a document from phrases. The slice is copied; Value slices are
// shared and must be treated as read-only.
func New(phrases []Phrase) *Document {
	d := &Document{phrases: make([]Phrase, len(phrases))}
	copy(d.phrases, phrases)
	d.index()
	return d
}

func (d *Document) index() {
	d.lines = d.lines[:0]
	d.heads = make([]int, len(d.phrases))
	for i, p := range d.phrases {
		d.heads[i] = len(d.lines)
		for off, text := range p.Lines() {
			d.lines = append(d.lines, Line{Text: text, No: p.Line + off, Phrase: i, Offset: off})
		}
	}
}

// Len returns the number of phrases.
func (d *Document) Len() int {
	return len(d.phrases)
}

// Phrase returns the phrase at index i.
func (d *Document) Phrase(i int) Phrase {
	return d.phrases[i]
}

// Phrases returns a copy of the phrase slice.
func (d *Document) Phrases() []Phrase {
	out := make([]Phrase, len(d.phrases))
	copy(out, d.phrases)
	return out
}

// View returns the line view of the document.
func (d *Document) View() []Line {
	out := make([]Line, len(d.lines))
	copy(out, d.lines)
	return out
}

// HeadPos returns the position in View of the key line of phrase i.
func (d *Document) HeadPos(i int) int {
	if i >= len(d.heads) {
		return len(d.lines)
	}
	return d.heads[i]
}

// PhraseAt returns the index of the first phrase whose key line sits at or
// after view position pos, or Len() if there is none.
func (d *Document) PhraseAt(pos int) int {
	return sort.SearchInts(d.heads, pos)
}

// Render returns the document lines.
func (d *Document) Render() []string {
	out := make([]string, len(d.lines))
	for i, l := range d.lines {
		out[i] = l.Text
	}
	return out
}

// String renders the document with a trailing newline.
func (d *Document) String() string {
	if len(d.lines) == 0 {
		return ""
	}
	return strings.Join(d.Render(), "\n") + "\n"
}

// Builder accumulates lines into phrases.
type Builder struct {
	phrases []Phrase
	open    bool
}

// Add feeds one line. no is its 1-based source line number.
func (b *Builder) Add(no int, text string) {
	if indent, key, rest, ok := Match(text); ok {
		b.phrases = append(b.phrases, Phrase{
			Indent: indent,
			Key:    key,
			Value:  []string{rest},
			Line:   no,
			Head:   text,
		})
		b.open = true
		return
	}
	if !b.open {
		// preamble before the first phrase
		return
	}
	last := &b.phrases[len(b.phrases)-1]
	last.Value = append(last.Value, text)
}

// Document closes the open phrase and returns the result.
func (b *Builder) Document() *Document {
	d := &Document{phrases: b.phrases}
	d.index()
	b.phrases = nil
	b.open = false
	return d
}

// Build parses source lines numbered from 1.
func Build(lines []string) *Document {
	var b Builder
	for i, l := range lines {
		b.Add(i+1, l)
	}
	return b.Document()
}

// Parse splits text into lines and builds it. A final newline does not yield
// an extra empty line; CR before LF is dropped.
func Parse(text string) *Document {
	return Build(SplitLines(text))
}

// SplitLines splits text on LF, dropping a CR before each LF and the empty
// element after a trailing newline.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.TrimSuffix(text, "\n")
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// Rebuild re-parses a line view, keeping the source numbers. It is used after
// line-level edits that may leave continuation lines without their owner.
func Rebuild(lines []Line) *Document {
	var b Builder
	for _, l := range lines {
		b.Add(l.No, l.Text)
	}
	return b.Document()
}
