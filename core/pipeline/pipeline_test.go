package pipeline

import (
	"strings"
	"testing"

	"github.com/FocuswithJustin/WindevClarify/core/lookup"
	"github.com/FocuswithJustin/WindevClarify/core/phrase"
)

func tables(events, controls map[int]string) lookup.Tables {
	return lookup.Tables{Events: lookup.NewTable(events), Controls: lookup.NewTable(controls)}
}

func run(t *testing.T, src string, tb lookup.Tables) string {
	t.Helper()
	return Run(phrase.Parse(src), tb, DefaultConfig()).String()
}

func TestRun_Scenarios(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		events   map[int]string
		controls map[int]string
		want     string
	}{
		{
			name:     "mapped control type",
			src:      "controls:\n  -\n    name : Field1\n    identifier : 12345\n    type : 4\n",
			controls: map[int]string{4: "Button"},
			want:     "controls:\n  -\n    name : Field1\n    identifier : 12345\n    type : 4 (Button)\n",
		},
		{
			name: "unmapped control type",
			src:  "controls:\n  -\n    name : Field1\n    identifier : 12345\n    type : 99\n",
			want: "controls:\n  -\n    name : Field1\n    identifier : 12345\n    type : 99 (Control inconnu)\n",
		},
		{
			name:     "control type tail kept",
			src:      "  name : F\n  identifier : 1\n  type : 4 extra\n    more\n",
			controls: map[int]string{4: "Button"},
			want:     "  name : F\n  identifier : 1\n  type : 4 (Button) extra\n    more\n",
		},
		{
			name: "control without identifier untouched",
			src:  "  name : F\n  type : 4\n",
			want: "  name : F\n  type : 4\n",
		},
		{
			name: "events without code dropped",
			src: "window :\n  p_codes :\n    -\n      type : 18\n      code : |1+\n        Info(\"a\")\n" +
				"    -\n      type : 19\n      name : nothing\n  procedures :\n",
			events: map[int]string{18: "Clic"},
			want: "window :\n  p_codes :\n    -\n      type : 18 (Clic)\n      code : |1+\n        Info(\"a\")\n" +
				"  procedures :\n",
		},
		{
			name: "uncoded last event keeps next control marker",
			src:  "controls :\n  -\n    name : A\n    p_codes :\n      -\n        type : 19\n  -\n    name : B\n",
			want: "controls :\n  -\n    name : A\n    p_codes :\n  -\n    name : B\n",
		},
		{
			name: "unmapped event type",
			src:  "p_codes :\n  -\n    type : 7\n    code : |1+\n      x\n",
			want: "p_codes :\n  -\n    type : 7 (Type d’événement à préciser)\n    code : |1+\n      x\n",
		},
		{
			name: "nested type in event is not entry level",
			src:  "p_codes :\n  -\n    code : |1+\n      x\n    sub :\n      type : 3\n",
			want: "p_codes :\n  -\n    code : |1+\n      x\n    sub :\n      type : 3\n",
		},
		{
			name: "flatten properties",
			src:  "properties :\n  size : 10\n  color : red\nname : W\n",
			want: "properties : size : 10, color : red\nname : W\n",
		},
		{
			name: "flatten one column deeper",
			src:  "  properties :\n   size : 10\n   label : a\n     b\n",
			want: "  properties : size : 10, label : a b\n",
		},
		{
			name: "flatten two columns deeper",
			src:  " properties :\n   size : 10\n   color : red\n",
			want: " properties : size : 10, color : red\n",
		},
		{
			name: "preserve nested group below properties",
			src:  " properties :\n   sub :\n     a : 1\n   b : 2\n",
			want: " properties :\n   sub :\n     a : 1\n   b : 2\n",
		},
		{
			name: "control type overflowing an int",
			src:  "controls :\n  -\n    name : A\n    identifier : 1\n    type : 99999999999999999999\n",
			want: "controls :\n  -\n    name : A\n    identifier : 1\n    type : 99999999999999999999 (Control inconnu)\n",
		},
		{
			name: "preserve dash list properties",
			src:  "properties :\n  - item1\n  - item2\n",
			want: "properties :\n  - item1\n  - item2\n",
		},
		{
			name: "drop empty containers",
			src:  "style : {}\ncontrols : []\nwindow :\n  controls :\n    -\n      name: X\n",
			want: "window :\n  controls :\n    -\n      name: X\n",
		},
		{
			name: "drop internal properties",
			src:  "window :\n  internal_properties : abc\n    opaque blob\n    -\n  name : W\n",
			want: "window :\n  name : W\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := run(t, tt.src, tables(tt.events, tt.controls))
			if got != tt.want {
				t.Errorf("Run() =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestRun_CodePayloadUnchanged(t *testing.T) {
	src := "p_codes :\n  -\n    type : 18\n    code : |1+\n\n      IF a THEN\n        b = 1\n      END\n\n"
	got := run(t, src, tables(nil, nil))
	if !strings.Contains(got, "      IF a THEN\n        b = 1\n      END\n") {
		t.Errorf("payload altered:\n%s", got)
	}
}

func TestInternalProperties_NeverInOutput(t *testing.T) {
	src := "a :\n  INTERNAL_PROPERTIES : secret1\n    secret2\n  b :\n    internal_properties : secret3\n"
	got := run(t, src, tables(nil, nil))
	for _, s := range []string{"secret1", "secret2", "secret3", "internal_properties", "INTERNAL_PROPERTIES"} {
		if strings.Contains(got, s) {
			t.Errorf("output still contains %q:\n%s", s, got)
		}
	}
}

func TestStructuralSteps_Idempotent(t *testing.T) {
	src := "window :\n" +
		"  internal_properties : x\n" +
		"  style : {}\n" +
		"  properties :\n" +
		"   size : 10\n" +
		"  properties :\n" +
		"    - a\n" +
		"  options : []\n" +
		"  name : W\n"
	cfg := DefaultConfig()
	steps := []func(*phrase.Document, Config) *phrase.Document{DropInternal, DropEmptyContainers, FlattenGroups}

	doc := phrase.Parse(src)
	for _, step := range steps {
		doc = step(doc, cfg)
	}
	once := doc.String()
	for _, step := range steps {
		doc = step(doc, cfg)
	}
	if twice := doc.String(); twice != once {
		t.Errorf("second pass changed output:\n%s\nvs\n%s", once, twice)
	}
	// re-parsing the rendered text must not change anything either
	again := phrase.Parse(once)
	for _, step := range steps {
		again = step(again, cfg)
	}
	if again.String() != once {
		t.Errorf("re-parsed pass changed output:\n%s", again.String())
	}
}

func TestRun_DoesNotMutateInput(t *testing.T) {
	src := "  name : F\n  identifier : 1\n  type : 4\n"
	doc := phrase.Parse(src)
	Run(doc, tables(nil, map[int]string{4: "Button"}), DefaultConfig())
	if doc.String() != src {
		t.Errorf("input document modified: %q", doc.String())
	}
}

func TestFilterEvents_KeepsLineNumbers(t *testing.T) {
	src := "p_codes :\n  -\n    type : 1\n  -\n    type : 2\n    code : |1+\n      x\n"
	out := FilterEvents(phrase.Parse(src), tables(nil, nil), DefaultConfig())
	if out.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", out.Len())
	}
	if out.Phrase(1).Line != 5 {
		t.Errorf("surviving type line = %d, want 5", out.Phrase(1).Line)
	}
}
