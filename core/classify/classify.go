// Package classify assigns every phrase of a document its structural role.
//
// Roles are inferred from the phrase key and its position: there is no schema.
// The analysis runs once per document and its Index is consumed by both the
// normalization pipeline and the anomaly reporter.
package classify

import (
	"strconv"
	"strings"

	"github.com/FocuswithJustin/WindevClarify/core/block"
	"github.com/FocuswithJustin/WindevClarify/core/phrase"
	"github.com/FocuswithJustin/WindevClarify/core/verbatim"
)

// Kind is the structural role of a phrase.
type Kind int

const (
	// Plain phrases carry no special meaning.
	Plain Kind = iota
	// Internal phrases are dropped together with their captured value.
	Internal
	// EmptyContainer phrases hold only an empty `{}` or `[]` literal.
	EmptyContainer
	// Group phrases are flattened into one line when their children allow it.
	Group
	// EventSection phrases hold the event entries of a window or control.
	EventSection
	// ControlAnchor is a `name` phrase with an `identifier` sibling.
	ControlAnchor
	// ControlType is the `type` sibling of a control anchor.
	ControlType
	// EventType is the entry-level `type` of an event entry.
	EventType
	// CodeFence phrases open an embedded code payload.
	CodeFence
)

var kindNames = [...]string{
	Plain:          "plain",
	Internal:       "internal",
	EmptyContainer: "empty-container",
	Group:          "group",
	EventSection:   "event-section",
	ControlAnchor:  "control-anchor",
	ControlType:    "control-type",
	EventType:      "event-type",
	CodeFence:      "code-fence",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Rules names the keys the analysis looks for.
type Rules struct {
	// InternalKey is compared case-insensitively.
	InternalKey string `json:"internal_key"`
	// EmptyContainers maps a lowercased key to its empty literal.
	EmptyContainers map[string]string `json:"empty_containers"`
	// GroupKey is compared case-insensitively.
	GroupKey string `json:"group_key"`
	// EventSectionKey, AnchorKey, IdentifierKey and TypeKey are exact.
	EventSectionKey string `json:"event_section_key"`
	AnchorKey       string `json:"anchor_key"`
	IdentifierKey   string `json:"identifier_key"`
	TypeKey         string `json:"type_key"`
}

// DefaultRules returns the rules for WinDev window exports.
func DefaultRules() Rules {
	return Rules{
		InternalKey: "internal_properties",
		EmptyContainers: map[string]string{
			"style":               "{}",
			"controls":            "[]",
			"options":             "[]",
			"popup_menus":         "[]",
			"procedure_templates": "[]",
			"property_templates":  "[]",
		},
		GroupKey:        "properties",
		EventSectionKey: "p_codes",
		AnchorKey:       "name",
		IdentifierKey:   "identifier",
		TypeKey:         "type",
	}
}

// emptyLiteral returns the empty literal registered for key.
func (r Rules) emptyLiteral(key string) (string, bool) {
	lit, ok := r.EmptyContainers[strings.ToLower(key)]
	return lit, ok
}

// Control is a control or column definition found through its anchor.
type Control struct {
	// Name, Identifier and Type are phrase indices; Type is -1 when the
	// anchor has no type sibling.
	Name       int
	Identifier int
	Type       int
}

// Event is one dashed entry of an event section.
type Event struct {
	// Section is the phrase index of the enclosing event section.
	Section int
	Block   block.Block
	HasCode bool
	// Code is the dedented payload, empty without a fence.
	Code string
	// Types lists the entry-level type phrases, in order.
	Types []int
}

// Index is the result of one analysis.
type Index struct {
	Kinds    []Kind
	Controls []Control
	Events   []Event
}

// Kind returns the role of phrase i.
func (x *Index) Kind(i int) Kind {
	if i < 0 || i >= len(x.Kinds) {
		return Plain
	}
	return x.Kinds[i]
}

// Analyze classifies every phrase of doc.
func Analyze(doc *phrase.Document, rules Rules) *Index {
	x := &Index{Kinds: make([]Kind, doc.Len())}

	for i := 0; i < doc.Len(); i++ {
		p := doc.Phrase(i)
		switch {
		case p.KeyIs(rules.InternalKey):
			x.Kinds[i] = Internal
		case isEmptyContainer(p, rules):
			x.Kinds[i] = EmptyContainer
		case p.KeyIs(rules.GroupKey):
			x.Kinds[i] = Group
		case p.Key == rules.EventSectionKey:
			x.Kinds[i] = EventSection
		case verbatim.IsMarker(p.Lines()[0]):
			x.Kinds[i] = CodeFence
		}
	}

	x.Events = events(doc, rules)
	for _, ev := range x.Events {
		for _, t := range ev.Types {
			x.Kinds[t] = EventType
		}
	}

	x.Controls = controls(doc, rules)
	for _, c := range x.Controls {
		x.Kinds[c.Name] = ControlAnchor
		if c.Type >= 0 {
			x.Kinds[c.Type] = ControlType
		}
	}
	return x
}

func isEmptyContainer(p phrase.Phrase, rules Rules) bool {
	lit, ok := rules.emptyLiteral(p.Key)
	return ok && strings.TrimSpace(p.Text()) == lit
}

func events(doc *phrase.Document, rules Rules) []Event {
	var out []Event
	seen := make(map[int]bool)
	for _, sec := range block.Sections(doc, rules.EventSectionKey) {
		for _, b := range block.SegmentSection(doc, sec) {
			// bare runs are passed through untouched
			if !b.Dashed || seen[b.Marker] {
				continue
			}
			seen[b.Marker] = true

			lines := b.Lines(doc)
			ev := Event{
				Section: sec.Phrase,
				Block:   b,
				HasCode: verbatim.HasMarker(lines),
				Code:    verbatim.Extract(lines),
			}
			for i := b.First; i < b.Last; i++ {
				p := doc.Phrase(i)
				if p.Indent != b.FieldIndent() || p.Key != rules.TypeKey {
					continue
				}
				if _, _, ok := LeadingCode(p.FirstLine()); ok {
					ev.Types = append(ev.Types, i)
				}
			}
			out = append(out, ev)
		}
	}
	return out
}

func controls(doc *phrase.Document, rules Rules) []Control {
	var out []Control
	for i := 0; i < doc.Len(); i++ {
		if doc.Phrase(i).Key != rules.AnchorKey {
			continue
		}
		id, ok := block.FindSibling(doc, i, rules.IdentifierKey)
		if !ok {
			continue
		}
		c := Control{Name: i, Identifier: id, Type: -1}
		if t, ok := block.FindSibling(doc, i, rules.TypeKey); ok {
			c.Type = t
		}
		out = append(out, c)
	}
	return out
}

// Code is a leading decimal type code. Digits keeps the literal digit run so
// codes too large for an int still render and report.
type Code struct {
	Digits string
	// N is only meaningful when Fits is set.
	N    int
	Fits bool
}

// String renders the integer value when it fits and the literal digits
// otherwise.
func (c Code) String() string {
	if !c.Fits {
		return c.Digits
	}
	return strconv.Itoa(c.N)
}

// LeadingCode splits s into its leading decimal code and the trimmed rest.
// ok is false only when s does not start with a digit.
func LeadingCode(s string) (c Code, tail string, ok bool) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return Code{}, "", false
	}
	c.Digits = s[:end]
	if n, err := strconv.ParseInt(c.Digits, 10, strconv.IntSize); err == nil {
		c.N, c.Fits = int(n), true
	}
	return c, strings.TrimSpace(s[end:]), true
}

// Annotate renders `N (label)` followed by tail.
func Annotate(c Code, label, tail string) string {
	out := c.String() + " (" + label + ")"
	if tail != "" {
		out += " " + tail
	}
	return out
}
