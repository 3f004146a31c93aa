package skeleton

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"text/template"

	"github.com/FocuswithJustin/WindevClarify/internal/validation"
)

// eventVerbs names the handler of the common event types.
var eventVerbs = map[int]string{14: "init", 15: "focus", 16: "blur", 17: "input", 18: "click"}

var spaceRegex = regexp.MustCompile(`\s+`)

var razorTemplate = template.Must(template.New("razor").Parse(`@* Generated from {{.Source}} at {{.Generated}} *@

@page "{{.Route}}"

<div class="windev-window" data-source="{{.Source}}">
{{range .Markup}}  {{.}}
{{end}}</div>
`))

var codeTemplate = template.Must(template.New("code").Parse(`using System;
using Microsoft.AspNetCore.Components;

namespace Generated
{
    public partial class {{.Class}} : ComponentBase
    {
{{range .Models}}        {{.}}
{{end}}
{{range .Methods}}        public void {{.Name}}()
        {
{{range .Body}}{{if .}}            {{.}}{{end}}
{{end}}        }

{{end}}{{range .Procedures}}        // Procédure originale : {{.Original}}
        /*
{{range .Comment}}{{if .}}        {{.}}{{end}}
{{end}}        */
        public void {{.Name}}()
        {
{{range .Body}}{{if .}}            {{.}}{{end}}
{{end}}        }

{{end}}    }
}
`))

type razorView struct {
	Source    string
	Generated string
	Route     string
	Markup    []string
}

type codeView struct {
	Class      string
	Models     []string
	Methods    []method
	Procedures []procedureView
}

type method struct {
	Name string
	Body []string
}

type procedureView struct {
	Original string
	Name     string
	Comment  []string
	Body     []string
}

// Anomaly is a control whose type has no markup.
type Anomaly struct {
	Control string
	TypeRaw string
	Line    int
}

// Message returns the French log line.
func (a Anomaly) Message() string {
	return fmt.Sprintf("Anomalie: type de contrôle inconnu %s pour le contrôle '%s'", a.TypeRaw, a.Control)
}

// MessageEN returns the English log line.
func (a Anomaly) MessageEN() string {
	return fmt.Sprintf("Anomaly: Control unknown type %s for control '%s'", a.TypeRaw, a.Control)
}

// Output is the generated pair of files for one window.
type Output struct {
	Razor     string
	Code      string
	Anomalies []Anomaly
}

// attrs is an insertion-ordered attribute set.
type attrs struct {
	keys   []string
	values map[string]string
}

func newAttrs(keys ...string) *attrs {
	a := &attrs{values: make(map[string]string)}
	for _, k := range keys {
		a.set(k, "")
	}
	return a
}

func (a *attrs) has(k string) bool {
	_, ok := a.values[k]
	return ok
}

func (a *attrs) set(k, v string) {
	if !a.has(k) {
		a.keys = append(a.keys, k)
	}
	a.values[k] = v
}

// String renders the non-empty attributes with a leading space each.
func (a *attrs) String() string {
	var sb strings.Builder
	for _, k := range a.keys {
		if v := a.values[k]; v != "" {
			fmt.Fprintf(&sb, ` %s="%s"`, k, v)
		}
	}
	return sb.String()
}

// Render produces the .razor and .razor.cs text of w. base is the window
// name, source the .clair file name and generated the timestamp shown in the
// markup header.
func Render(w *Window, base, source, generated string, tr *Translator) (*Output, error) {
	out := &Output{}
	rv := razorView{
		Source:    source,
		Generated: generated,
		Route:     "/fen_" + strings.ToLower(validation.Identifier(base)),
	}
	cv := codeView{Class: validation.ClassName(base)}

	for _, b := range windowMethods(w.Blocks) {
		b.Body = windowBody(b, tr)
		cv.Methods = append(cv.Methods, method{Name: b.Name, Body: b.Body})
	}

	for _, c := range w.Controls {
		markup, model, handlers, anomaly := controlMarkup(c, tr)
		if anomaly != nil {
			out.Anomalies = append(out.Anomalies, *anomaly)
		}
		rv.Markup = append(rv.Markup, markup)
		if model != "" {
			cv.Models = append(cv.Models, model)
		}
		cv.Methods = append(cv.Methods, handlers...)
	}

	counts := make(map[string]int)
	for _, p := range w.Procedures {
		name := validation.Identifier(p.Name)
		n := counts[name]
		counts[name] = n + 1
		if n > 0 {
			name = fmt.Sprintf("%s_%d", name, n)
		}
		pv := procedureView{Original: p.Name, Name: name}
		if strings.TrimSpace(p.Code) == "" {
			pv.Comment = []string{"(aucun code WLang explicite trouvé pour cette procédure)"}
			pv.Body = []string{"// TODO implement: no explicit code extracted for this procedure"}
		} else {
			pv.Comment = strings.Split(p.Code, "\n")
			pv.Body = tr.Translate(p.Code)
		}
		cv.Procedures = append(cv.Procedures, pv)
	}

	var razor, code bytes.Buffer
	if err := razorTemplate.Execute(&razor, rv); err != nil {
		return nil, fmt.Errorf("failed to render razor markup: %w", err)
	}
	if err := codeTemplate.Execute(&code, cv); err != nil {
		return nil, fmt.Errorf("failed to render code-behind: %w", err)
	}
	out.Razor = razor.String()
	out.Code = code.String()
	return out, nil
}

type windowMethod struct {
	Name  string
	Label string
	Code  string
	Body  []string
}

// windowMethods names the window-level blocks: a leading procedure
// declaration becomes Window_Declaration, typed blocks On_Window_Event_<type>,
// the rest Window_Code_<n>. Clashing names get a numeric suffix.
func windowMethods(blocks []WindowBlock) []windowMethod {
	var out []windowMethod
	used := make(map[string]bool)
	for n, b := range blocks {
		var name, label string
		switch {
		case n == 0 && b.Declares != "":
			name = "Window_Declaration"
			label = "procedure declaration: " + b.Declares
		case n > 0 && b.Type >= 0:
			name = fmt.Sprintf("On_Window_Event_%d", b.Type)
			l := b.Label
			if l == "" {
				l = "unknown"
			}
			label = fmt.Sprintf("type: %d (%s)", b.Type, l)
		default:
			name = fmt.Sprintf("Window_Code_%d", n)
			label = "type: ?"
			if b.Type >= 0 {
				label = fmt.Sprintf("type: %d", b.Type)
			}
		}
		unique := name
		for suffix := 2; used[unique]; suffix++ {
			unique = fmt.Sprintf("%s_%d", name, suffix)
		}
		used[unique] = true
		out = append(out, windowMethod{Name: unique, Label: label, Code: b.Code})
	}
	return out
}

func windowBody(m windowMethod, tr *Translator) []string {
	body := []string{"/* Code attaché à la fenêtre : " + m.Label + " */"}
	if strings.TrimSpace(m.Code) == "" {
		body = append(body, "/* (aucun code WLang explicite trouvé) */")
	} else {
		body = append(body, originalComment(m.Code)...)
	}
	return append(body, translatedSection(m.Code, tr)...)
}

func originalComment(code string) []string {
	out := []string{"/* Original WLang:"}
	for _, l := range strings.Split(code, "\n") {
		out = append(out, "   "+l)
	}
	return append(out, "*/")
}

func translatedSection(code string, tr *Translator) []string {
	translated := tr.Translate(code)
	if len(translated) == 0 {
		return []string{"", "// No translation available"}
	}
	return append([]string{"", "// Translated (heuristic):"}, translated...)
}

// verb names the handler of an event type.
func verb(typ int, label string) string {
	if v, ok := eventVerbs[typ]; ok {
		return v
	}
	if f := strings.Fields(label); len(f) > 0 {
		return strings.ToLower(validation.Identifier(f[0]))
	}
	if typ < 0 {
		return "typeunk"
	}
	return fmt.Sprintf("type%d", typ)
}

// controlMarkup renders one control, its model property and its handlers.
func controlMarkup(c Control, tr *Translator) (markup, model string, handlers []method, anomaly *Anomaly) {
	id := validation.Identifier(c.Name)
	props := propAttrs(c.Attrs)
	var events *attrs

	l := strings.ToLower(c.Label)
	switch {
	case c.Label == "":
		anomaly = &Anomaly{Control: c.Name, TypeRaw: c.TypeRaw, Line: c.Line}
		markup = fmt.Sprintf(`<div class="windev-unknown" data-windev-type="%s" data-name="%s"%s>/* %s */</div>`,
			c.TypeRaw, c.Name, props, c.Name)
		events = newAttrs()
	case c.Type == 2 && c.Calendar:
		markup = fmt.Sprintf(`<InputDate id="%s" @bind-Value="%sModel"%s />`, c.Name, id, props)
		model = fmt.Sprintf("public DateTime? %sModel { get; set; } = null;", id)
		events = newAttrs("@onchange")
	case containsAny(l, "champ", "saisie", "inputtext", "texte"):
		markup = fmt.Sprintf(`<InputText id="%s" @bind-Value="%sModel"%s />`, c.Name, id, props)
		model = fmt.Sprintf("public string %sModel { get; set; } = string.Empty;", id)
		events = newAttrs("@oninput", "@onchange")
	case containsAny(l, "bouton", "button"):
		markup = fmt.Sprintf(`<button id="%s"%s>%s</button>`, c.Name, props, c.Name)
		events = newAttrs("@onclick")
	case containsAny(l, "libell", "label"):
		markup = fmt.Sprintf(`<label id="%s">%s</label>`, c.Name, c.Name)
		events = newAttrs()
	case containsAny(l, "select", "combo", "liste"):
		markup = fmt.Sprintf(`<select id="%s"%s></select>`, c.Name, props)
		events = newAttrs("@onchange")
	case containsAny(l, "table", "tcd"):
		markup = fmt.Sprintf(`<table id="%s"%s><thead></thead><tbody></tbody></table>`, c.Name, props)
		events = newAttrs()
	default:
		class := strings.ToLower(spaceRegex.ReplaceAllString(c.Label, "-"))
		markup = fmt.Sprintf(`<div id="%s" class="windev-%s"%s>%s</div>`, c.Name, class, props, c.Name)
		events = newAttrs()
	}

	occurrences := make(map[int]int)
	for _, ev := range c.Events {
		v := verb(ev.Type, ev.Label)
		name := fmt.Sprintf("On_%s_%s", v, id)
		if n := occurrences[ev.Type]; n > 0 {
			name = fmt.Sprintf("%s_%d", name, n)
		}
		occurrences[ev.Type]++

		body := originalComment(ev.Code)
		body = append(body, translatedSection(ev.Code, tr)...)
		handlers = append(handlers, method{Name: name, Body: body})

		switch v {
		case "input":
			if events.has("@oninput") {
				events.set("@oninput", name)
			} else {
				events.set("@onchange", name)
			}
		case "focus":
			events.set("@onfocus", name)
		case "blur":
			events.set("@onblur", name)
		case "click":
			events.set("@onclick", name)
		default:
			if events.has("@onchange") {
				events.set("@onchange", name)
			} else {
				events.set(fmt.Sprintf("data-handler-type-%d", ev.Type), name)
			}
		}
	}

	if s := events.String(); s != "" {
		if i := strings.Index(markup, " />"); i >= 0 {
			markup = markup[:i] + s + markup[i:]
		} else if i := strings.Index(markup, ">"); i >= 0 {
			markup = markup[:i] + s + markup[i:]
		}
	}
	return markup, model, handlers, anomaly
}

func propAttrs(as []Attr) string {
	var sb strings.Builder
	for _, a := range as {
		key := "data-" + strings.ReplaceAll(a.Key, " ", "-")
		fmt.Fprintf(&sb, ` %s="%s"`, key, strings.ReplaceAll(a.Value, `"`, "'"))
	}
	return sb.String()
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
