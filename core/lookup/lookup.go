// Package lookup loads the integer-to-label tables used to annotate event and
// control type codes.
//
// A table source is a plain text file. Lines of the form `type : N (Label)`
// (keyword case-insensitive) define an entry; every other line is ignored. A
// missing source is not an error: the caller gets an empty table and a Warning.
package lookup

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/FocuswithJustin/WindevClarify/core/errors"
)

// Default table file names, looked up in the tables directory.
const (
	EventsFile   = "correspondance_evenements.txt"
	ControlsFile = "correspondance_controls.txt"
)

// entryGrammar is the participle grammar for one table line.
// Example: "type : 4 (Button)"
//
//nolint:govet // participle grammar tags are not standard struct tags
type entryGrammar struct {
	Keyword string `@Type ":"`
	Code    int    `@Int`
	Label   string `@Label`
}

// entryLexer defines the lexer for table lines. Label is greedy up to the last
// closing parenthesis of the line.
var entryLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Type", Pattern: `(?i)type`},
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Label", Pattern: `\([^\r\n]*\)`},
	{Name: "Punct", Pattern: `:`},
	{Name: "Whitespace", Pattern: `[ \t]+`},
})

var entryParser = participle.MustBuild[entryGrammar](
	participle.Lexer(entryLexer),
	participle.Elide("Whitespace"),
)

// ParseEntry parses one table line. ok is false for lines that are not
// entries.
func ParseEntry(line string) (code int, label string, ok bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return 0, "", false
	}
	parsed, err := entryParser.ParseString("", line)
	if err != nil {
		return 0, "", false
	}
	label = strings.TrimSuffix(strings.TrimPrefix(parsed.Label, "("), ")")
	return parsed.Code, strings.TrimSpace(label), true
}

// Table is an immutable code-to-label mapping.
type Table struct {
	labels map[int]string
}

// NewTable returns a table holding a copy of labels.
func NewTable(labels map[int]string) Table {
	m := make(map[int]string, len(labels))
	for k, v := range labels {
		m[k] = v
	}
	return Table{labels: m}
}

// Label returns the label for code.
func (t Table) Label(code int) (string, bool) {
	label, ok := t.labels[code]
	return label, ok
}

// Has reports whether code is mapped.
func (t Table) Has(code int) bool {
	_, ok := t.labels[code]
	return ok
}

// LabelOr returns the label for code, or fallback when unmapped.
func (t Table) LabelOr(code int, fallback string) string {
	if label, ok := t.labels[code]; ok {
		return label
	}
	return fallback
}

// Len returns the number of entries.
func (t Table) Len() int {
	return len(t.labels)
}

// Codes returns the mapped codes in ascending order.
func (t Table) Codes() []int {
	codes := make([]int, 0, len(t.labels))
	for c := range t.labels {
		codes = append(codes, c)
	}
	sort.Ints(codes)
	return codes
}

// Parse reads a table source. A code defined twice keeps its last label.
func Parse(r io.Reader) (Table, error) {
	labels := make(map[int]string)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if code, label, ok := ParseEntry(scanner.Text()); ok {
			labels[code] = label
		}
	}
	if err := scanner.Err(); err != nil {
		return Table{labels: map[int]string{}}, err
	}
	return Table{labels: labels}, nil
}

// Warning reports a table source that could not be used.
type Warning struct {
	Path string
	Err  error
}

func (w *Warning) Error() string {
	return w.Err.Error()
}

func (w *Warning) Unwrap() error {
	return w.Err
}

// Missing reports whether the source file does not exist.
func (w *Warning) Missing() bool {
	return errors.Is(w.Err, errors.ErrNotFound)
}

// Load reads the table at path. The returned table is always usable; a
// non-nil Warning tells the caller it is empty or incomplete.
func Load(path string) (Table, *Warning) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewTable(nil), &Warning{Path: path, Err: errors.NewNotFound("lookup table", path)}
		}
		return NewTable(nil), &Warning{Path: path, Err: errors.NewIO("open", path, err)}
	}
	defer f.Close()

	table, err := Parse(f)
	if err != nil {
		return table, &Warning{Path: path, Err: errors.NewIO("read", path, err)}
	}
	return table, nil
}

// Tables groups the event and control tables shared by a batch.
type Tables struct {
	Events   Table
	Controls Table
}

// LoadTables loads both tables from dir using the given file names.
func LoadTables(dir, eventsFile, controlsFile string) (Tables, []*Warning) {
	var warnings []*Warning
	events, w := Load(filepath.Join(dir, eventsFile))
	if w != nil {
		warnings = append(warnings, w)
	}
	controls, w := Load(filepath.Join(dir, controlsFile))
	if w != nil {
		warnings = append(warnings, w)
	}
	return Tables{Events: events, Controls: controls}, warnings
}
