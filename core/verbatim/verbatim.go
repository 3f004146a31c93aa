// Package verbatim extracts embedded code payloads from a window definition.
//
// A payload opens after a `code : |1+` marker line and closes implicitly at the
// next phrase-shaped line, or at a bare list marker shallower than the marker
// line, which opens the next entry of the enclosing list. Its content is never
// interpreted.
package verbatim

import (
	"regexp"
	"strings"

	"github.com/FocuswithJustin/WindevClarify/core/phrase"
)

var markerRegex = regexp.MustCompile(`(?i)^\s*code\s*:\s*\|1\+\s*$`)

// IsMarker reports whether line opens a code fence.
func IsMarker(line string) bool {
	return markerRegex.MatchString(line)
}

// Locate returns the index of the first marker line in lines, or -1.
func Locate(lines []string) int {
	for i, l := range lines {
		if IsMarker(l) {
			return i
		}
	}
	return -1
}

// HasMarker reports whether lines contain a code fence.
func HasMarker(lines []string) bool {
	return Locate(lines) >= 0
}

// Payload returns the raw payload lines following the first marker, up to the
// fence close. ok is false when there is no marker.
func Payload(lines []string) (payload []string, ok bool) {
	start := Locate(lines)
	if start < 0 {
		return nil, false
	}
	indent := phrase.LeadingSpaces(lines[start])
	end := start + 1
	for end < len(lines) && !phrase.IsPhraseLine(lines[end]) {
		if d, dash := phrase.DashMarker(lines[end]); dash && d < indent {
			break
		}
		end++
	}
	return lines[start+1 : end], true
}

// Extract returns the trimmed, dedented payload of the first code fence in
// lines, or "" when there is none.
func Extract(lines []string) string {
	payload, ok := Payload(lines)
	if !ok {
		return ""
	}
	return strings.Join(Dedent(TrimBlank(payload)), "\n")
}

// ExtractText is Extract over a newline-separated window.
func ExtractText(text string) string {
	return Extract(phrase.SplitLines(text))
}

// TrimBlank drops leading and trailing blank lines.
func TrimBlank(lines []string) []string {
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return lines[start:end]
}

// Dedent removes the smallest leading-space count among non-blank lines.
func Dedent(lines []string) []string {
	min := -1
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		if n := phrase.LeadingSpaces(l); min < 0 || n < min {
			min = n
		}
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		if min > 0 && len(l) >= min {
			out[i] = l[min:]
		} else {
			out[i] = l
		}
	}
	return out
}
