// Package skeleton generates Blazor component skeletons (.razor markup and
// .razor.cs code-behind) from clarified window files.
//
// Controls become markup elements chosen from their type label, coded control
// events become handler methods bound to the element, window-level code and
// procedures become methods. Every method keeps the original WLang in a
// comment next to a line-by-line heuristic translation.
package skeleton

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/FocuswithJustin/WindevClarify/core/classify"
	"github.com/FocuswithJustin/WindevClarify/core/errors"
	"github.com/FocuswithJustin/WindevClarify/core/lookup"
	"github.com/FocuswithJustin/WindevClarify/core/phrase"
	"github.com/FocuswithJustin/WindevClarify/core/pipeline"
	"github.com/FocuswithJustin/WindevClarify/internal/fileutil"
	"github.com/FocuswithJustin/WindevClarify/internal/logging"
	"github.com/FocuswithJustin/WindevClarify/internal/textenc"
	"github.com/FocuswithJustin/WindevClarify/internal/validation"
)

// Directory layout.
const (
	InputDir  = "clarifications"
	InputExt  = ".clair"
	OutputDir = "squelettes"
)

// Options configures a generation run.
type Options struct {
	// Dir contains the clarifications directory; output goes to
	// Dir/squelettes.
	Dir       string
	TablesDir string
	Config    pipeline.Config
	// Journal receives the bilingual log. It may be nil.
	Journal *logging.Journal
	// Lang selects the timestamp layout of the markup header.
	Lang logging.Lang
	Now  func() time.Time
}

// Result is the outcome for one clarified file.
type Result struct {
	Source    string
	Razor     string
	Code      string
	Anomalies []Anomaly
	Err       error
}

// Summary is the outcome of a generation run.
type Summary struct {
	Dir       string
	Results   []Result
	Generated int
	Failed    int
	Warnings  []*lookup.Warning
}

// BaseName returns the window name of a .clair file: the extension and the
// `_wdw` marker are removed.
func BaseName(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.Replace(base, "_wdw", "", 1)
}

// Generate builds the skeleton of one clarified document.
func Generate(source string, text string, tables lookup.Tables, cfg pipeline.Config, tr *Translator, generated string) (*Output, *Window, error) {
	doc := phrase.Parse(text)
	x := classify.Analyze(doc, cfg.Rules)
	w := Collect(doc, x, tables, cfg.Rules)
	out, err := Render(w, BaseName(source), filepath.Base(source), generated, tr)
	if err != nil {
		return nil, nil, err
	}
	return out, w, nil
}

// Run generates a skeleton for every .clair file of Dir/clarifications. A
// missing clarifications directory is not an error: nothing is generated.
func Run(ctx context.Context, opts Options) (*Summary, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	if err := validation.ValidatePath(opts.Dir); err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "directory %q: %v", opts.Dir, err)
	}
	if info, err := os.Stat(opts.Dir); err != nil || !info.IsDir() {
		return nil, errors.NewNotFound("directory", opts.Dir)
	}
	cfg := opts.Config
	j := opts.Journal
	summary := &Summary{Dir: opts.Dir}

	tables, warnings := lookup.LoadTables(opts.TablesDir, cfg.EventsTable, cfg.ControlsTable)
	summary.Warnings = warnings
	for _, w := range warnings {
		logging.TableWarning(w.Path, w.Err)
		if j != nil {
			_ = j.Log(logging.JournalWarning,
				"Fichier de correspondance introuvable ou illisible : "+w.Path,
				"Mapping file missing or unreadable: "+w.Path)
		}
	}

	inDir := filepath.Join(opts.Dir, InputDir)
	if info, err := os.Stat(inDir); err != nil || !info.IsDir() {
		printJournal(j, logging.JournalInfo,
			fmt.Sprintf("Pas de dossier '%s' dans %s", InputDir, opts.Dir),
			fmt.Sprintf("No '%s' in %s", InputDir, opts.Dir))
		return summary, nil
	}
	outDir := filepath.Join(opts.Dir, OutputDir)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, errors.NewIO("create directory", outDir, err)
	}

	entries, err := os.ReadDir(inDir)
	if err != nil {
		return nil, errors.NewIO("read directory", inDir, err)
	}
	var sources []string
	for _, e := range entries {
		if e.Type().IsRegular() && validation.HasExt(e.Name(), InputExt) {
			sources = append(sources, filepath.Join(inDir, e.Name()))
		}
	}
	sort.Strings(sources)

	tr, err := NewTranslator(DefaultCacheSize)
	if err != nil {
		return nil, err
	}
	layout := logging.TimeLayoutFR
	if opts.Lang == logging.LangEN {
		layout = logging.TimeLayoutEN
	}

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		r := generateFile(src, outDir, tables, cfg, tr, now().Format(layout), j)
		if r.Err != nil {
			summary.Failed++
			logging.DocumentFailed(ctx, src, r.Err)
			printJournal(j, logging.JournalError,
				fmt.Sprintf("Erreur generation %s : %v", filepath.Base(src), r.Err),
				fmt.Sprintf("Failed generating %s: %v", filepath.Base(src), r.Err))
		} else {
			summary.Generated++
			logging.InfoContext(ctx, "skeleton_generated", "source", src, "razor", r.Razor, "anomalies", len(r.Anomalies))
			printJournal(j, logging.JournalInfo,
				fmt.Sprintf("Généré : %s (+ %s)", r.Razor, r.Code),
				fmt.Sprintf("Generated: %s (+ %s)", r.Razor, r.Code))
		}
		summary.Results = append(summary.Results, r)
	}
	return summary, nil
}

func generateFile(src, outDir string, tables lookup.Tables, cfg pipeline.Config, tr *Translator, generated string, j *logging.Journal) Result {
	res := Result{Source: src}
	data, err := os.ReadFile(src)
	if err != nil {
		res.Err = errors.NewDocument(src, errors.StageRead, err)
		return res
	}
	text, _, err := textenc.Decode(data)
	if err != nil {
		res.Err = errors.NewDocument(src, errors.StageDecode, err)
		return res
	}

	out, w, err := Generate(src, text, tables, cfg, tr, generated)
	if err != nil {
		res.Err = err
		return res
	}
	for _, name := range w.Skipped {
		if j != nil {
			_ = j.Log(logging.JournalInfo,
				fmt.Sprintf("Suppression candidat procédure '%s' car nom identique à un contrôle.", name),
				fmt.Sprintf("Skipping procedure candidate '%s' because it matches a control name.", name))
		}
	}

	base := BaseName(src)
	razor := filepath.Join(outDir, base+".razor")
	code := filepath.Join(outDir, base+".razor.cs")
	if err := fileutil.WriteAtomic(razor, []byte(out.Razor)); err != nil {
		res.Err = errors.NewDocument(src, errors.StageWrite, err)
		return res
	}
	if err := fileutil.WriteAtomic(code, []byte(out.Code)); err != nil {
		res.Err = errors.NewDocument(src, errors.StageWrite, err)
		return res
	}
	res.Razor, res.Code = razor, code
	res.Anomalies = out.Anomalies
	for _, a := range out.Anomalies {
		if j != nil {
			_ = j.Log(logging.JournalWarning, a.Message(), a.MessageEN())
		}
	}
	return res
}

func printJournal(j *logging.Journal, level, fr, en string) {
	if j == nil {
		return
	}
	if err := j.Print(level, fr, en); err != nil {
		logging.Warn("journal_write_failed", "error", err.Error())
	}
}
