package skeleton

import (
	"fmt"
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the translated-line cache.
const DefaultCacheSize = 4096

var rewrites = []struct {
	re   *regexp.Regexp
	with string
}{
	{regexp.MustCompile(`(?i)\bvrai\b`), "true"},
	{regexp.MustCompile(`(?i)\bfaux\b`), "false"},
	{regexp.MustCompile(`(?i)\bet\b`), "&&"},
	{regexp.MustCompile(`(?i)\bou\b`), "||"},
}

// Translator rewrites WLang lines into commented C# placeholders. Identical
// lines recur across windows, so results are memoized. It is safe for
// concurrent use.
type Translator struct {
	cache *lru.Cache[string, string]
}

// NewTranslator returns a translator caching up to size lines.
func NewTranslator(size int) (*Translator, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create translation cache: %w", err)
	}
	return &Translator{cache: cache}, nil
}

// Translate converts every line of code.
func (t *Translator) Translate(code string) []string {
	if strings.TrimSpace(code) == "" {
		return nil
	}
	lines := strings.Split(code, "\n")
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = t.Line(l)
	}
	return out
}

// Line converts one line. Indentation is kept; local declarations and
// comments pass through, anything else is prefixed `// TODO translate:`.
func (t *Translator) Line(line string) string {
	if v, ok := t.cache.Get(line); ok {
		return v
	}
	v := translateLine(line)
	t.cache.Add(line, v)
	return v
}

func translateLine(line string) string {
	line = strings.TrimRight(line, "\r")
	stripped := strings.TrimLeft(line, " \t")
	indent := line[:len(line)-len(stripped)]
	if stripped == "" {
		return ""
	}

	for _, r := range rewrites {
		stripped = r.re.ReplaceAllString(stripped, r.with)
	}
	stripped = strings.ReplaceAll(stripped, ":=", "=")

	switch {
	case strings.HasPrefix(strings.ToLower(stripped), "local"):
		return indent + "// local variables declaration (WLang): " + stripped
	case strings.HasPrefix(stripped, "//"), strings.HasPrefix(stripped, "/*"):
		return indent + stripped
	default:
		return indent + "// TODO translate: " + stripped
	}
}
