package skeleton

import (
	"regexp"
	"strings"

	"github.com/FocuswithJustin/WindevClarify/core/block"
	"github.com/FocuswithJustin/WindevClarify/core/classify"
	"github.com/FocuswithJustin/WindevClarify/core/lookup"
	"github.com/FocuswithJustin/WindevClarify/core/phrase"
	"github.com/FocuswithJustin/WindevClarify/core/verbatim"
)

// Section and attribute keys of a window export.
const (
	ControlsKey   = "controls"
	ProceduresKey = "procedures"
	ProcedureKey  = "procedure"
	CodeKey       = "code"
	CalendarKey   = "calendar"
)

// defaultControls labels the common control types when the table has no
// entry.
var defaultControls = map[int]string{
	2: "InputText", 3: "label", 4: "button", 5: "input[type=checkbox]",
	6: "select", 7: "select", 9: "table", 10: "progress", 14: "select",
	16: "tabs", 30: "repeater", 40: "div",
}

var declarationRegex = regexp.MustCompile(`(?im)^\s*procedure\s+([A-Za-z0-9_]+)\s*\(.*\)`)

// Window is the skeleton model of one clarified window.
type Window struct {
	Controls   []Control
	Blocks     []WindowBlock
	Procedures []Procedure
	// Skipped lists procedure candidates dropped because they share a
	// control name.
	Skipped []string
}

// Control is one entry of the controls section.
type Control struct {
	Name       string
	Identifier string
	TypeRaw    string
	// Type is -1 when the type is missing, not numeric or out of range.
	Type int
	// Label is the table label, else the built-in default, else empty.
	Label    string
	Attrs    []Attr
	Calendar bool
	Events   []Event
	// Line is the source line of the name phrase, 0 when there is none.
	Line int
}

// Attr is one flattened property.
type Attr struct {
	Key, Value string
}

// Event is one coded event entry.
type Event struct {
	Type  int
	Label string
	Code  string
}

// WindowBlock is one entry of the window-level event section.
type WindowBlock struct {
	Type  int
	Label string
	Code  string
	// Declares is the procedure name declared by the code, if any.
	Declares string
}

// Procedure is a named code fence.
type Procedure struct {
	Name string
	// Explicit is set for `procedure : <name>` phrases.
	Explicit bool
	Code     string
	Line     int
}

// Collect builds the model of doc.
func Collect(doc *phrase.Document, x *classify.Index, tables lookup.Tables, rules classify.Rules) *Window {
	w := &Window{
		Controls: collectControls(doc, x, tables, rules),
		Blocks:   collectWindowBlocks(doc, x, tables, rules),
	}
	w.Procedures, w.Skipped = collectProcedures(doc, x, w.Controls, rules)
	return w
}

func collectControls(doc *phrase.Document, x *classify.Index, tables lookup.Tables, rules classify.Rules) []Control {
	var out []Control
	for _, b := range block.Segment(doc, ControlsKey) {
		if b.Empty() {
			continue
		}
		c := Control{Type: -1}
		fi := b.FieldIndent()
		for i := b.First; i < b.Last; i++ {
			p := doc.Phrase(i)
			if p.Indent != fi {
				continue
			}
			switch {
			case p.Key == rules.AnchorKey && c.Line == 0:
				c.Name = p.FirstLine()
				c.Line = p.Line
			case p.Key == rules.IdentifierKey && c.Identifier == "":
				c.Identifier = p.FirstLine()
			case p.Key == rules.TypeKey && c.TypeRaw == "":
				c.TypeRaw = p.FirstLine()
				if code, _, ok := classify.LeadingCode(c.TypeRaw); ok && code.Fits {
					c.Type = code.N
				}
			case p.KeyIs(rules.GroupKey) && c.Attrs == nil:
				c.Attrs = parseAttrs(p.FirstLine())
			case p.KeyIs(CalendarKey):
				c.Calendar = isTrue(p.FirstLine())
			}
		}
		if c.Name == "" {
			c.Name = "unnamed"
		}
		if c.Type >= 0 {
			if l, ok := tables.Controls.Label(c.Type); ok {
				c.Label = l
			} else {
				c.Label = defaultControls[c.Type]
			}
		}
		for _, ev := range x.Events {
			if ev.Section < b.First || ev.Section >= b.Last || !ev.HasCode {
				continue
			}
			e := Event{Type: eventType(doc, ev), Code: ev.Code}
			e.Label, _ = tables.Events.Label(e.Type)
			c.Events = append(c.Events, e)
		}
		out = append(out, c)
	}
	return out
}

// collectWindowBlocks reads the event section placed at the same level as,
// and before, the procedures section.
func collectWindowBlocks(doc *phrase.Document, x *classify.Index, tables lookup.Tables, rules classify.Rules) []WindowBlock {
	procs := -1
	for i := 0; i < doc.Len(); i++ {
		if doc.Phrase(i).KeyIs(ProceduresKey) {
			procs = i
			break
		}
	}
	if procs < 0 {
		return nil
	}
	section := -1
	for i := procs - 1; i >= 0; i-- {
		p := doc.Phrase(i)
		if p.Key == rules.EventSectionKey && p.Indent == doc.Phrase(procs).Indent {
			section = i
			break
		}
	}
	if section < 0 {
		return nil
	}

	var out []WindowBlock
	for _, ev := range x.Events {
		if ev.Section != section {
			continue
		}
		wb := WindowBlock{Type: eventType(doc, ev), Code: ev.Code}
		wb.Label, _ = tables.Events.Label(wb.Type)
		if m := declarationRegex.FindStringSubmatch(ev.Code); m != nil {
			wb.Declares = m[1]
		}
		out = append(out, wb)
	}
	return out
}

func collectProcedures(doc *phrase.Document, x *classify.Index, controls []Control, rules classify.Rules) ([]Procedure, []string) {
	type candidate struct {
		index    int
		name     string
		explicit bool
	}
	var candidates []candidate

	for i := 0; i < doc.Len(); i++ {
		p := doc.Phrase(i)
		if !p.KeyIs(ProcedureKey) {
			continue
		}
		if f := strings.Fields(p.FirstLine()); len(f) == 1 {
			candidates = append(candidates, candidate{i, f[0], true})
		}
	}
	if sec, ok := block.FindSection(doc, ProceduresKey); ok {
		for i := doc.PhraseAt(sec.From); i < doc.PhraseAt(sec.To); i++ {
			p := doc.Phrase(i)
			if p.Key == rules.AnchorKey && p.FirstLine() != "" {
				candidates = append(candidates, candidate{i, p.FirstLine(), false})
			}
		}
	}

	controlNames := make(map[string]bool, len(controls))
	for _, c := range controls {
		controlNames[c.Name] = true
	}

	var procs []Procedure
	var skipped []string
	seen := make(map[string]bool)
	for _, c := range candidates {
		if seen[c.name] {
			continue
		}
		code, ok := codeFor(doc, x, c.index)
		if !ok {
			continue
		}
		seen[c.name] = true
		if !c.explicit && controlNames[c.name] {
			skipped = append(skipped, c.name)
			continue
		}
		procs = append(procs, Procedure{
			Name:     c.name,
			Explicit: c.explicit,
			Code:     code,
			Line:     doc.Phrase(c.index).Line,
		})
	}
	return procs, skipped
}

// codeFor returns the payload of the code fence belonging to phrase i: a
// `code` sibling, else the first fence nested under i.
func codeFor(doc *phrase.Document, x *classify.Index, i int) (string, bool) {
	if j, ok := block.FindSibling(doc, i, CodeKey); ok && x.Kind(j) == classify.CodeFence {
		return verbatim.Extract(doc.Phrase(j).Lines()), true
	}
	indent := doc.Phrase(i).Indent
	for j := i + 1; j < doc.Len() && doc.Phrase(j).Indent > indent; j++ {
		if x.Kind(j) == classify.CodeFence {
			return verbatim.Extract(doc.Phrase(j).Lines()), true
		}
	}
	return "", false
}

// eventType returns the first entry-level type code of ev, or -1.
func eventType(doc *phrase.Document, ev classify.Event) int {
	if len(ev.Types) == 0 {
		return -1
	}
	code, _, _ := classify.LeadingCode(doc.Phrase(ev.Types[0]).FirstLine())
	if !code.Fits {
		return -1
	}
	return code.N
}

// parseAttrs splits a flattened `k : v, k2 : v2` value. Items without a colon
// are ignored.
func parseAttrs(s string) []Attr {
	attrs := []Attr{}
	for _, part := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(part, ":")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			continue
		}
		attrs = append(attrs, Attr{Key: k, Value: strings.TrimSpace(v)})
	}
	return attrs
}

func isTrue(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "vrai", "true", "1":
		return true
	}
	return false
}
