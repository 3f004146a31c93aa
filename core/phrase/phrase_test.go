package phrase

import (
	"reflect"
	"strings"
	"testing"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		line       string
		wantOK     bool
		wantIndent int
		wantKey    string
		wantRest   string
	}{
		{"name : Field1", true, 0, "name", "Field1"},
		{"    identifier : 12345", true, 4, "identifier", "12345"},
		{"controls:", true, 0, "controls", ""},
		{"  p_codes :", true, 2, "p_codes", ""},
		{"  code : |1+", true, 2, "code", "|1+"},
		{"  popup-menu : []", true, 2, "popup-menu", "[]"},
		{"  -", false, 0, "", ""},
		{"  - item1", false, 0, "", ""},
		{"  IF x = 1 THEN", false, 0, "", ""},
		{"", false, 0, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			indent, key, rest, ok := Match(tt.line)
			if ok != tt.wantOK {
				t.Fatalf("Match(%q) ok = %v, want %v", tt.line, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if indent != tt.wantIndent || key != tt.wantKey || rest != tt.wantRest {
				t.Errorf("Match(%q) = (%d, %q, %q), want (%d, %q, %q)",
					tt.line, indent, key, rest, tt.wantIndent, tt.wantKey, tt.wantRest)
			}
		})
	}
}

func TestDashMarker(t *testing.T) {
	if indent, ok := DashMarker("    -"); !ok || indent != 4 {
		t.Errorf("DashMarker(\"    -\") = (%d, %v), want (4, true)", indent, ok)
	}
	if indent, ok := DashMarker("-  "); !ok || indent != 0 {
		t.Errorf("DashMarker(\"-  \") = (%d, %v), want (0, true)", indent, ok)
	}
	if _, ok := DashMarker("  - item"); ok {
		t.Error("DashMarker should reject a dash followed by content")
	}
}

func TestBuild_ContinuationCapture(t *testing.T) {
	src := []string{
		"preamble line",
		"window :",
		"  name : FEN_Main",
		"  controls :",
		"    -",
		"      name : BTN_OK",
		"      code : |1+",
		"        Info(\"ok\")",
		"",
		"          nested",
		"",
	}
	doc := Build(src)

	if doc.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", doc.Len())
	}

	controls := doc.Phrase(2)
	if controls.Key != "controls" || controls.Indent != 2 || controls.Line != 4 {
		t.Errorf("controls phrase = %+v", controls)
	}
	if !reflect.DeepEqual(controls.Value, []string{"", "    -"}) {
		t.Errorf("controls value = %q, want dash marker captured", controls.Value)
	}

	code := doc.Phrase(4)
	want := []string{"|1+", "        Info(\"ok\")", "", "          nested", ""}
	if !reflect.DeepEqual(code.Value, want) {
		t.Errorf("code value = %q, want %q", code.Value, want)
	}
	if code.FirstLine() != "|1+" {
		t.Errorf("FirstLine() = %q", code.FirstLine())
	}
}

func TestBuild_EmptyAndPreambleOnly(t *testing.T) {
	if doc := Build(nil); doc.Len() != 0 || doc.String() != "" {
		t.Errorf("empty build = %d phrases, %q", doc.Len(), doc.String())
	}
	if doc := Build([]string{"no phrase here", "  - still none"}); doc.Len() != 0 {
		t.Errorf("preamble-only build produced %d phrases", doc.Len())
	}
}

func TestRender_RoundTrip(t *testing.T) {
	src := "window :   \n" +
		"  name : FEN_Main\n" +
		"  controls:\n" +
		"    -\n" +
		"      name : BTN\n" +
		"      code : |1+\n" +
		"        x = 1   \n" +
		"\n"
	doc := Parse(src)

	want := "window :\n" +
		"  name : FEN_Main\n" +
		"  controls:\n" +
		"    -\n" +
		"      name : BTN\n" +
		"      code : |1+\n" +
		"        x = 1   \n" +
		"\n"
	if got := doc.String(); got != want {
		t.Errorf("String() =\n%q\nwant\n%q", got, want)
	}
}

func TestWithFirstLine(t *testing.T) {
	doc := Parse("    type : 4\n")
	p := doc.Phrase(0)
	q := p.WithFirstLine("4 (Button)")

	if q.Head != "" {
		t.Error("WithFirstLine should clear Head")
	}
	if got := q.Lines()[0]; got != "    type : 4 (Button)" {
		t.Errorf("rendered = %q", got)
	}
	if p.Value[0] != "4" {
		t.Error("WithFirstLine must not mutate the original phrase")
	}
}

func TestView(t *testing.T) {
	doc := Parse("a :\n  -\n  b : 1\n  tail\n")
	view := doc.View()
	if len(view) != 4 {
		t.Fatalf("len(View()) = %d, want 4", len(view))
	}
	if view[1].Phrase != 0 || view[1].Offset != 1 || view[1].No != 2 {
		t.Errorf("view[1] = %+v", view[1])
	}
	if !view[2].IsHead() || view[2].Phrase != 1 {
		t.Errorf("view[2] = %+v", view[2])
	}
	if doc.HeadPos(1) != 2 {
		t.Errorf("HeadPos(1) = %d, want 2", doc.HeadPos(1))
	}
	if doc.PhraseAt(1) != 1 || doc.PhraseAt(3) != 2 {
		t.Errorf("PhraseAt = %d, %d", doc.PhraseAt(1), doc.PhraseAt(3))
	}
}

func TestRebuild_KeepsLineNumbers(t *testing.T) {
	doc := Parse("a :\n  -\n  b : 1\n  -\n  c : 2\n")
	view := doc.View()
	// drop the second entry: its dash marker and phrase
	kept := append([]Line{}, view[:3]...)
	out := Rebuild(kept)

	if out.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", out.Len())
	}
	if out.Phrase(1).Line != 3 {
		t.Errorf("Line = %d, want 3", out.Phrase(1).Line)
	}
	if strings.Contains(out.String(), "c : 2") {
		t.Error("dropped phrase still rendered")
	}
}
