package skeleton

import (
	"reflect"
	"testing"
)

func TestTranslator_Line(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"si a ET b OU c alors", "// TODO translate: si a && b || c alors"},
		{"    x := Vrai", "    // TODO translate: x = true"},
		{"bet = faux", "// TODO translate: bet = false"},
		{"LOCAL i est un entier", "// local variables declaration (WLang): LOCAL i est un entier"},
		{"  // already a comment", "  // already a comment"},
		{"/* block */", "/* block */"},
		{"ouvre(fen)\r", "// TODO translate: ouvre(fen)"},
		{"   ", ""},
	}
	tr, err := NewTranslator(8)
	if err != nil {
		t.Fatalf("NewTranslator() error: %v", err)
	}
	for _, tt := range tests {
		if got := tr.Line(tt.line); got != tt.want {
			t.Errorf("Line(%q) = %q, want %q", tt.line, got, tt.want)
		}
		// second call is served from the cache
		if got := tr.Line(tt.line); got != tt.want {
			t.Errorf("cached Line(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}

func TestTranslator_Translate(t *testing.T) {
	tr, err := NewTranslator(0)
	if err != nil {
		t.Fatalf("NewTranslator() error: %v", err)
	}
	if got := tr.Translate(" \n\t"); got != nil {
		t.Errorf("Translate(blank) = %q, want nil", got)
	}
	got := tr.Translate("a = 1\n\nfin")
	want := []string{"// TODO translate: a = 1", "", "// TODO translate: fin"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Translate() = %q, want %q", got, want)
	}
}

func TestTranslator_SmallCacheEvicts(t *testing.T) {
	tr, err := NewTranslator(1)
	if err != nil {
		t.Fatalf("NewTranslator() error: %v", err)
	}
	tr.Line("a")
	tr.Line("b")
	if tr.cache.Len() != 1 {
		t.Errorf("cache holds %d lines, want 1", tr.cache.Len())
	}
	if got := tr.Line("a"); got != "// TODO translate: a" {
		t.Errorf("Line(a) after eviction = %q", got)
	}
}
