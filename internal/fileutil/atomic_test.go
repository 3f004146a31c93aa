package fileutil

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a_wdw.clair")
	if err := WriteAtomic(path, []byte("first")); err != nil {
		t.Fatalf("WriteAtomic() error: %v", err)
	}
	if err := WriteAtomic(path, []byte("second")); err != nil {
		t.Fatalf("WriteAtomic() overwrite error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "second" {
		t.Errorf("content = %q, want second", data)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o644 {
		t.Errorf("mode = %v, want 0644", info.Mode().Perm())
	}
}

func TestWriteAtomic_Errors(t *testing.T) {
	tests := []struct {
		name  string
		setup func()
	}{
		{"rename", func() { osRename = func(string, string) error { return errors.New("boom") } }},
		{"write", func() {
			tempFileWrite = func(*os.File, []byte) (int, error) { return 0, errors.New("disk full") }
		}},
		{"close", func() { tempFileClose = func(io.Closer) error { return errors.New("close failed") } }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			origRename, origWrite, origClose := osRename, tempFileWrite, tempFileClose
			defer func() { osRename, tempFileWrite, tempFileClose = origRename, origWrite, origClose }()
			tt.setup()

			dir := t.TempDir()
			if err := WriteAtomic(filepath.Join(dir, "x.clair"), []byte("x")); err == nil {
				t.Fatal("expected an error")
			}
			entries, _ := os.ReadDir(dir)
			if len(entries) != 0 {
				t.Errorf("directory not cleaned up: %v", entries)
			}
		})
	}
}

func TestWriteAtomic_MissingDirectory(t *testing.T) {
	if err := WriteAtomic(filepath.Join(t.TempDir(), "missing", "x"), nil); err == nil {
		t.Error("expected an error for a missing directory")
	}
}
