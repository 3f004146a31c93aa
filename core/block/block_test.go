package block

import (
	"reflect"
	"testing"

	"github.com/FocuswithJustin/WindevClarify/core/phrase"
)

const eventsDoc = `window :
  p_codes :
    -
      type : 18
      code : |1+
        Info("a")
    -
      type : 19
    -
  procedures :
    name : P1
`

func keys(doc *phrase.Document, b Block) []string {
	var out []string
	for _, p := range b.Phrases(doc) {
		out = append(out, p.Key)
	}
	return out
}

func TestSegment_Dashed(t *testing.T) {
	doc := phrase.Parse(eventsDoc)
	blocks := Segment(doc, "p_codes")
	if len(blocks) != 3 {
		t.Fatalf("len(blocks) = %d, want 3", len(blocks))
	}

	if !blocks[0].Dashed || blocks[0].Indent != 4 || blocks[0].FieldIndent() != 6 {
		t.Errorf("blocks[0] = %+v", blocks[0])
	}
	if got := keys(doc, blocks[0]); !reflect.DeepEqual(got, []string{"type", "code"}) {
		t.Errorf("blocks[0] keys = %v", got)
	}
	if got := keys(doc, blocks[1]); !reflect.DeepEqual(got, []string{"type"}) {
		t.Errorf("blocks[1] keys = %v", got)
	}
	if !blocks[2].Empty() {
		t.Errorf("trailing dash should give an empty block, got %+v", blocks[2])
	}
	for _, b := range blocks {
		if b.Section != 1 {
			t.Errorf("Section = %d, want 1", b.Section)
		}
	}
}

func TestSegment_Bare(t *testing.T) {
	doc := phrase.Parse("p_codes :\n  type : 1\n  code : |1+\n    x\n  type : 2\nnext : 1\n")
	blocks := Segment(doc, "p_codes")
	// type at indent 2 closes the previous bare run at the same indent
	if len(blocks) != 3 {
		t.Fatalf("len(blocks) = %d, want 3", len(blocks))
	}
	if blocks[0].Dashed || blocks[0].Marker != -1 || blocks[0].FieldIndent() != 2 {
		t.Errorf("blocks[0] = %+v", blocks[0])
	}
	if got := keys(doc, blocks[2]); !reflect.DeepEqual(got, []string{"type"}) {
		t.Errorf("blocks[2] keys = %v", got)
	}
}

func TestSegment_NestedBareRun(t *testing.T) {
	doc := phrase.Parse("list :\n  item : a\n    detail : 1\n    more : 2\n  item : b\n")
	blocks := Segment(doc, "list")
	if len(blocks) != 2 {
		t.Fatalf("len(blocks) = %d, want 2", len(blocks))
	}
	if got := keys(doc, blocks[0]); !reflect.DeepEqual(got, []string{"item", "detail", "more"}) {
		t.Errorf("blocks[0] keys = %v", got)
	}
}

func TestSegment_MissingSection(t *testing.T) {
	doc := phrase.Parse("window :\n  name : X\n")
	if blocks := Segment(doc, "p_codes"); blocks != nil {
		t.Errorf("Segment() = %v, want nil", blocks)
	}
}

func TestSegment_SectionStopsAtSameIndent(t *testing.T) {
	doc := phrase.Parse(eventsDoc)
	sec, ok := FindSection(doc, "p_codes")
	if !ok {
		t.Fatal("section not found")
	}
	// procedures is at indent 2 and closes p_codes
	if view := doc.View(); view[sec.To].Text != "  procedures :" {
		t.Errorf("section ends at %q", view[sec.To].Text)
	}
}

func TestSegment_SectionStopsAtShallowerDash(t *testing.T) {
	src := "controls :\n  -\n    name : A\n    p_codes :\n      -\n        type : 16\n" +
		"  -\n    name : B\n"
	doc := phrase.Parse(src)
	sec, ok := FindSection(doc, "p_codes")
	if !ok {
		t.Fatal("section not found")
	}
	view := doc.View()
	if view[sec.To].Text != "  -" {
		t.Errorf("section ends at %q, want the next control marker", view[sec.To].Text)
	}
	blocks := SegmentSection(doc, sec)
	if len(blocks) != 1 || blocks[0].To != sec.To {
		t.Errorf("unexpected blocks: %+v", blocks)
	}
	if got := len(Segment(doc, "controls")); got != 2 {
		t.Errorf("controls blocks = %d, want 2", got)
	}
}

func TestSections_All(t *testing.T) {
	doc := phrase.Parse("a :\n  p_codes :\n    type : 1\nb :\n  p_codes :\n    type : 2\n")
	secs := Sections(doc, "p_codes")
	if len(secs) != 2 {
		t.Fatalf("len(Sections()) = %d, want 2", len(secs))
	}
	if secs[1].Phrase != 4 {
		t.Errorf("second section phrase = %d, want 4", secs[1].Phrase)
	}
}

func TestFindSibling(t *testing.T) {
	src := `controls :
  -
    name : A
    identifier : 1
    type : 4
    type : 5
  -
    name : B
    type : 3
  -
    identifier : 9
`
	doc := phrase.Parse(src)

	tests := []struct {
		name   string
		anchor int
		key    string
		want   int
		wantOK bool
	}{
		{"identifier found", 1, "identifier", 2, true},
		{"first duplicate wins", 1, "type", 3, true},
		{"sibling in next entry is out of scope", 5, "identifier", -1, false},
		{"same entry type", 5, "type", 6, true},
		{"key is case-sensitive", 1, "Type", -1, false},
		{"bad anchor", 42, "type", -1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FindSibling(doc, tt.anchor, tt.key)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("FindSibling(%d, %q) = (%d, %v), want (%d, %v)",
					tt.anchor, tt.key, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestFindSibling_StopsAtShallowerPhrase(t *testing.T) {
	doc := phrase.Parse("a :\n  name : X\nb :\n  identifier : 1\n")
	if _, ok := FindSibling(doc, 1, "identifier"); ok {
		t.Error("search must stop at a phrase of smaller indent")
	}
}

func TestEnclosingBlock(t *testing.T) {
	doc := phrase.Parse(eventsDoc)
	sec, _ := FindSection(doc, "p_codes")
	b, ok := EnclosingBlock(doc, sec, 4)
	if !ok || b.Marker != 6 {
		t.Errorf("EnclosingBlock(4) = %+v, %v", b, ok)
	}
	if _, ok := EnclosingBlock(doc, sec, 5); ok {
		t.Error("procedures is outside the section")
	}
}
