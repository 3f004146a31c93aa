package errors

import (
	"errors"
	"fmt"
	"os"
	"testing"
)

func TestNotFoundError(t *testing.T) {
	tests := []struct {
		name     string
		err      *NotFoundError
		wantMsg  string
		wantBase error
	}{
		{
			name:     "with ID",
			err:      &NotFoundError{Resource: "directory", ID: "/data/wdw"},
			wantMsg:  "directory not found: /data/wdw",
			wantBase: ErrNotFound,
		},
		{
			name:     "without ID",
			err:      &NotFoundError{Resource: "table"},
			wantMsg:  "table not found",
			wantBase: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.err.Unwrap(); !errors.Is(got, tt.wantBase) {
				t.Errorf("Unwrap() = %v, want %v", got, tt.wantBase)
			}
		})
	}

	t.Run("with underlying error", func(t *testing.T) {
		underlying := os.ErrNotExist
		err := &NotFoundError{Resource: "file", ID: "a.wdw", Err: underlying}
		if !errors.Is(err, os.ErrNotExist) {
			t.Error("expected errors.Is to reach the underlying error")
		}
	})
}

func TestIOError(t *testing.T) {
	underlying := fmt.Errorf("disk full")

	err := NewIO("write", "/tmp/out.clair", underlying)
	if got, want := err.Error(), "failed to write /tmp/out.clair: disk full"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, underlying) {
		t.Error("expected IOError to unwrap to underlying error")
	}

	noPath := &IOError{Operation: "read", Err: underlying}
	if got, want := noPath.Error(), "failed to read: disk full"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestParseError(t *testing.T) {
	tests := []struct {
		name    string
		err     *ParseError
		wantMsg string
	}{
		{
			name:    "path and line",
			err:     &ParseError{Format: "config", Path: "clarify.json", Line: 3, Message: "unexpected token"},
			wantMsg: "failed to parse config at clarify.json:3: unexpected token",
		},
		{
			name:    "path only",
			err:     NewParse("config", "clarify.json", "empty file"),
			wantMsg: "failed to parse config at clarify.json: empty file",
		},
		{
			name:    "no location",
			err:     &ParseError{Format: "lookup table", Message: "bad line"},
			wantMsg: "failed to parse lookup table: bad line",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if !errors.Is(tt.err, ErrInvalidInput) {
				t.Error("expected ParseError to match ErrInvalidInput")
			}
		})
	}
}

func TestDocumentError(t *testing.T) {
	err := NewDocument("FEN_Main.wdw", StageDecode, ErrEncoding)
	if got, want := err.Error(), "document FEN_Main.wdw: decode failed: encoding error"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !Is(err, ErrEncoding) {
		t.Error("expected DocumentError to unwrap to ErrEncoding")
	}

	var docErr *DocumentError
	wrapped := Wrapf(err, "batch")
	if !As(wrapped, &docErr) {
		t.Fatal("expected As to find DocumentError through Wrapf")
	}
	if docErr.Stage != StageDecode {
		t.Errorf("Stage = %q, want %q", docErr.Stage, StageDecode)
	}
}

func TestWrapf(t *testing.T) {
	if Wrapf(nil, "ctx %d", 1) != nil {
		t.Error("Wrapf(nil) should return nil")
	}

	base := errors.New("base")
	if got := Wrapf(base, "step %d", 2).Error(); got != "step 2: base" {
		t.Errorf("Wrapf() = %q, want %q", got, "step 2: base")
	}
	if !Is(Wrapf(base, "outer"), base) {
		t.Error("Wrapf should preserve the chain")
	}
}
