package digest

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSum(t *testing.T) {
	// BLAKE3 of the empty input
	const empty = "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262"
	if got := Sum(nil); got != empty {
		t.Errorf("Sum(nil) = %s, want %s", got, empty)
	}
	if Sum([]byte("a")) == Sum([]byte("b")) {
		t.Error("different inputs should not collide")
	}
}

func TestFile(t *testing.T) {
	data := []byte("window :\n  name : FEN_Main\n")
	path := filepath.Join(t.TempDir(), "a.wdw")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := File(path)
	if err != nil {
		t.Fatalf("File() error: %v", err)
	}
	if got != Sum(data) {
		t.Errorf("File() = %s, want %s", got, Sum(data))
	}
	if _, err := File(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestValid(t *testing.T) {
	sum := Sum([]byte("x"))
	if !Valid(sum) || Valid("abc") || Valid(sum[:63]+"G") {
		t.Error("unexpected Valid() result")
	}
}
