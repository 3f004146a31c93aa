package textenc

import (
	"bytes"
	"testing"

	"github.com/FocuswithJustin/WindevClarify/core/errors"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"utf-8 bom", []byte("\xEF\xBB\xBFname : x"), UTF8BOM},
		{"utf-16le bom", []byte{0xFF, 0xFE, 'a', 0}, UTF16LE},
		{"utf-16be bom", []byte{0xFE, 0xFF, 0, 'a'}, UTF16BE},
		{"plain ascii", []byte("name : x\n"), UTF8},
		{"utf-8 accents", []byte("libellé : é\n"), UTF8},
		{"latin bytes", []byte("libell\xe9 : \xe9\n"), Windows1252},
		{"empty", nil, UTF8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Detect(tt.data); got.Name != tt.want {
				t.Errorf("Detect() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		text string
	}{
		{"windows-1252", []byte("Caf\xe9 \x92ok\x92\r\n"), "Café ’ok’\r\n"},
		{"utf-8 bom", []byte("\xEF\xBB\xBFCafé"), "Café"},
		{"utf-16le", []byte{0xFF, 0xFE, 'h', 0, 'i', 0}, "hi"},
		{"utf-16be", []byte{0xFE, 0xFF, 0, 'h', 0, 'i'}, "hi"},
		{"utf-8", []byte("déjà"), "déjà"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, enc, err := Decode(tt.data)
			if err != nil {
				t.Fatalf("Decode() error: %v", err)
			}
			if text != tt.text {
				t.Errorf("Decode() = %q, want %q", text, tt.text)
			}
			out, err := Encode(text, enc)
			if err != nil {
				t.Fatalf("Encode() error: %v", err)
			}
			if !bytes.Equal(out, tt.data) {
				t.Errorf("Encode() = %x, want %x", out, tt.data)
			}
		})
	}
}

func TestEncode_Unrepresentable(t *testing.T) {
	enc, _ := ByName(Windows1252)
	_, err := Encode("日本", enc)
	if !errors.Is(err, errors.ErrEncoding) {
		t.Errorf("Encode() error = %v, want ErrEncoding", err)
	}
}

func TestUnknownEncoding(t *testing.T) {
	if _, ok := ByName("ebcdic"); ok {
		t.Error("ByName should reject unknown names")
	}
	if _, err := DecodeAs([]byte("x"), Encoding{Name: "ebcdic"}); !errors.Is(err, errors.ErrEncoding) {
		t.Errorf("DecodeAs() error = %v", err)
	}
}
