// Package anomaly reports type codes that are missing from their lookup table.
//
// The report runs over the document as read, before any rewrite, so every line
// number refers to the source file. It never changes normalization output.
package anomaly

import (
	"fmt"

	"github.com/FocuswithJustin/WindevClarify/core/classify"
	"github.com/FocuswithJustin/WindevClarify/core/lookup"
	"github.com/FocuswithJustin/WindevClarify/core/phrase"
)

// Kind tells which table a record was checked against.
type Kind string

const (
	KindControl Kind = "control"
	KindEvent   Kind = "event"
)

// Record is one unresolved type code.
type Record struct {
	Kind Kind `json:"kind"`
	// TypeCode is the code as written back: digits that overflow an int are
	// kept verbatim.
	TypeCode string `json:"type_code"`
	// TypeLine and ParentLine are 1-based source lines. The parent is the
	// control's name phrase or the event section phrase.
	TypeLine   int `json:"type_line"`
	ParentLine int `json:"parent_line"`
	// ParentLabel is the control name; events have none.
	ParentLabel string `json:"parent_label,omitempty"`
}

// Message returns the French log line for the record.
func (r Record) Message() string {
	if r.Kind == KindEvent {
		return fmt.Sprintf("Anomalie événement: type %s non trouvé. Ligne type: %d, ligne parent (p_codes): %d",
			r.TypeCode, r.TypeLine, r.ParentLine)
	}
	return fmt.Sprintf("Anomalie contrôle: type %s non trouvé. Ligne type: %d, ligne parent (name): %d, name: %s",
		r.TypeCode, r.TypeLine, r.ParentLine, r.ParentLabel)
}

// MessageEN returns the English log line for the record.
func (r Record) MessageEN() string {
	if r.Kind == KindEvent {
		return fmt.Sprintf("Event anomaly: type %s not found. Type line: %d, parent line (p_codes): %d",
			r.TypeCode, r.TypeLine, r.ParentLine)
	}
	return fmt.Sprintf("Control anomaly: type %s not found. Type line: %d, parent line (name): %d, name: %s",
		r.TypeCode, r.TypeLine, r.ParentLine, r.ParentLabel)
}

// Report lists the unresolved control types, then the unresolved event types
// of code-bearing entries, in document order.
func Report(doc *phrase.Document, tables lookup.Tables, rules classify.Rules) []Record {
	return FromIndex(doc, classify.Analyze(doc, rules), tables)
}

// FromIndex builds the report from an existing analysis of doc.
func FromIndex(doc *phrase.Document, x *classify.Index, tables lookup.Tables) []Record {
	var records []Record

	for _, c := range x.Controls {
		if c.Type < 0 {
			continue
		}
		t := doc.Phrase(c.Type)
		code, _, ok := classify.LeadingCode(t.FirstLine())
		if !ok || (code.Fits && tables.Controls.Has(code.N)) {
			continue
		}
		name := doc.Phrase(c.Name)
		records = append(records, Record{
			Kind:        KindControl,
			TypeCode:    code.String(),
			TypeLine:    t.Line,
			ParentLine:  name.Line,
			ParentLabel: name.FirstLine(),
		})
	}

	for _, ev := range x.Events {
		if !ev.HasCode {
			continue
		}
		for _, i := range ev.Types {
			t := doc.Phrase(i)
			code, _, _ := classify.LeadingCode(t.FirstLine())
			if code.Fits && tables.Events.Has(code.N) {
				continue
			}
			records = append(records, Record{
				Kind:       KindEvent,
				TypeCode:   code.String(),
				TypeLine:   t.Line,
				ParentLine: doc.Phrase(ev.Section).Line,
			})
		}
	}
	return records
}

// Count returns the number of records of kind k.
func Count(records []Record, k Kind) int {
	n := 0
	for _, r := range records {
		if r.Kind == k {
			n++
		}
	}
	return n
}
