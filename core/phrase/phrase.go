// Package phrase turns the raw lines of a window definition into an ordered,
// immutable sequence of phrases.
//
// A phrase is one `indent key : value` line plus every following line that is
// not itself phrase-shaped. Continuation lines are captured verbatim whatever
// their own indentation, so dash-list markers and embedded code stay inside the
// value of the phrase that precedes them. Hierarchy is never stored: callers
// derive it from indent comparison alone.
package phrase

import (
	"regexp"
	"strings"
)

var (
	grammarRegex = regexp.MustCompile(`^(\s*)([A-Za-z0-9_\-]+)\s*:\s*(.*)$`)
	dashRegex    = regexp.MustCompile(`^(\s*)-\s*$`)
)

// Match reports whether line is phrase-shaped and returns its parts.
func Match(line string) (indent int, key, rest string, ok bool) {
	m := grammarRegex.FindStringSubmatch(line)
	if m == nil {
		return 0, "", "", false
	}
	return len(m[1]), m[2], m[3], true
}

// IsPhraseLine reports whether line matches the phrase grammar.
func IsPhraseLine(line string) bool {
	return grammarRegex.MatchString(line)
}

// DashMarker reports whether line is a bare list-entry marker (`<indent>-`)
// and returns its indent.
func DashMarker(line string) (int, bool) {
	m := dashRegex.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	return len(m[1]), true
}

// LeadingSpaces counts the leading space characters of line.
func LeadingSpaces(line string) int {
	return len(line) - len(strings.TrimLeft(line, " "))
}

// Phrase is one parsed `indent key : value` unit.
type Phrase struct {
	// Indent is the length of the leading whitespace of the key line.
	Indent int
	// Key is the phrase key, case preserved.
	Key string
	// Value holds the remainder of the key line at index 0 followed by every
	// captured continuation line, verbatim.
	Value []string
	// Line is the 1-based source line of the key line.
	Line int
	// Head is the key line as read. It is empty for synthesized phrases, which
	// are rendered in the normalized `key : value` form.
	Head string
}

// FirstLine returns the trimmed remainder of the key line.
func (p Phrase) FirstLine() string {
	if len(p.Value) == 0 {
		return ""
	}
	return strings.TrimSpace(p.Value[0])
}

// Text returns the whole captured value joined with newlines.
func (p Phrase) Text() string {
	return strings.Join(p.Value, "\n")
}

// Continuation returns the captured lines after the key line.
func (p Phrase) Continuation() []string {
	if len(p.Value) <= 1 {
		return nil
	}
	return p.Value[1:]
}

// KeyIs compares the key case-insensitively.
func (p Phrase) KeyIs(key string) bool {
	return strings.EqualFold(p.Key, key)
}

// WithFirstLine returns a copy whose key line carries first. The copy renders
// in normalized form.
func (p Phrase) WithFirstLine(first string) Phrase {
	value := make([]string, len(p.Value))
	copy(value, p.Value)
	if len(value) == 0 {
		value = []string{first}
	} else {
		value[0] = first
	}
	p.Value = value
	p.Head = ""
	return p
}

// Lines renders the phrase. Key lines lose trailing whitespace; continuation
// lines are emitted untouched.
func (p Phrase) Lines() []string {
	out := make([]string, 0, len(p.Value)+1)
	out = append(out, p.headLine())
	out = append(out, p.Continuation()...)
	return out
}

func (p Phrase) headLine() string {
	if p.Head != "" {
		return strings.TrimRight(p.Head, " \t")
	}
	first := ""
	if len(p.Value) > 0 {
		first = p.Value[0]
	}
	return strings.TrimRight(strings.Repeat(" ", p.Indent)+p.Key+" : "+first, " \t")
}
