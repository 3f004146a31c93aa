// Package textenc detects the character encoding of window exports and converts
// them to and from UTF-8.
//
// Detection order: UTF-8 BOM, UTF-16 BOM (little then big endian), valid
// UTF-8, and Windows-1252 for everything else. Output is re-encoded in the
// encoding the source was read with.
package textenc

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/FocuswithJustin/WindevClarify/core/errors"
)

// Encoding names reported by Detect.
const (
	UTF8        = "utf-8"
	UTF8BOM     = "utf-8-sig"
	UTF16LE     = "utf-16le"
	UTF16BE     = "utf-16be"
	Windows1252 = "windows-1252"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Encoding is a detected source encoding.
type Encoding struct {
	Name string
	enc  encoding.Encoding
}

func (e Encoding) String() string {
	return e.Name
}

var byName = map[string]encoding.Encoding{
	UTF8:        unicode.UTF8,
	UTF8BOM:     unicode.UTF8BOM,
	UTF16LE:     unicode.UTF16(unicode.LittleEndian, unicode.UseBOM),
	UTF16BE:     unicode.UTF16(unicode.BigEndian, unicode.UseBOM),
	Windows1252: charmap.Windows1252,
}

// ByName returns the encoding registered under name.
func ByName(name string) (Encoding, bool) {
	enc, ok := byName[name]
	if !ok {
		return Encoding{}, false
	}
	return Encoding{Name: name, enc: enc}, true
}

func mustByName(name string) Encoding {
	e, _ := ByName(name)
	return e
}

// Detect guesses the encoding of data.
func Detect(data []byte) Encoding {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return mustByName(UTF8BOM)
	case bytes.HasPrefix(data, bomUTF16LE):
		return mustByName(UTF16LE)
	case bytes.HasPrefix(data, bomUTF16BE):
		return mustByName(UTF16BE)
	case utf8.Valid(data):
		return mustByName(UTF8)
	default:
		return mustByName(Windows1252)
	}
}

// Decode detects the encoding of data and returns its text.
func Decode(data []byte) (string, Encoding, error) {
	e := Detect(data)
	text, err := DecodeAs(data, e)
	return text, e, err
}

// DecodeAs converts data from e to a UTF-8 string.
func DecodeAs(data []byte, e Encoding) (string, error) {
	if e.enc == nil {
		return "", errors.Wrapf(errors.ErrEncoding, "unknown encoding %q", e.Name)
	}
	if e.Name == UTF8 {
		return string(data), nil
	}
	out, _, err := transform.Bytes(e.enc.NewDecoder(), data)
	if err != nil {
		return "", errors.Wrapf(errors.ErrEncoding, "decode %s: %v", e.Name, err)
	}
	return string(out), nil
}

// Encode converts text to e. Characters that e cannot represent are an error.
func Encode(text string, e Encoding) ([]byte, error) {
	if e.enc == nil {
		return nil, errors.Wrapf(errors.ErrEncoding, "unknown encoding %q", e.Name)
	}
	if e.Name == UTF8 {
		return []byte(text), nil
	}
	out, _, err := transform.Bytes(e.enc.NewEncoder(), []byte(text))
	if err != nil {
		return nil, errors.Wrapf(errors.ErrEncoding, "encode %s: %v", e.Name, err)
	}
	return out, nil
}
