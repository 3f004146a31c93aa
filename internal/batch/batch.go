// Package batch normalizes every window export of a directory and writes the
// clarified files, journal entries and optional report database and bundle.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/WindevClarify/core/anomaly"
	"github.com/FocuswithJustin/WindevClarify/core/bundle"
	"github.com/FocuswithJustin/WindevClarify/core/errors"
	"github.com/FocuswithJustin/WindevClarify/core/lookup"
	"github.com/FocuswithJustin/WindevClarify/core/pipeline"
	"github.com/FocuswithJustin/WindevClarify/internal/fileutil"
	"github.com/FocuswithJustin/WindevClarify/internal/logging"
	"github.com/FocuswithJustin/WindevClarify/internal/report"
	"github.com/FocuswithJustin/WindevClarify/internal/validation"
)

// Options configures a batch run.
type Options struct {
	// Dir holds the .wdw sources; output goes to Dir/clarifications.
	Dir string
	// TablesDir holds the lookup table files named in Config.
	TablesDir string
	Config    pipeline.Config
	// Workers bounds parallelism; 0 picks a default.
	Workers int
	// Journal receives the bilingual log. It may be nil.
	Journal *logging.Journal
	// ReportDB is an optional SQLite report path.
	ReportDB string
	// Bundle is an optional archive path (.tar.xz or .tar.gz).
	Bundle string
	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// Result is the outcome for one source document.
type Result struct {
	Source    string
	Output    string
	Encoding  string
	Digest    string
	Anomalies []anomaly.Record
	Duration  time.Duration
	Err       error
}

// OK reports whether the document was written.
func (r Result) OK() bool {
	return r.Err == nil
}

// Summary is the outcome of a batch run.
type Summary struct {
	RunID     string
	Dir       string
	Results   []Result
	Processed int
	Failed    int
	Anomalies int
	Bundle    string
	Warnings  []*lookup.Warning
}

type job struct {
	index  int
	source string
}

type indexed struct {
	index  int
	result Result
}

// Discover lists the .wdw files of dir (not recursive, extension matched
// case-insensitively) in name order.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.NewIO("read directory", dir, err)
	}
	var sources []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !validation.HasExt(e.Name(), SourceExt) {
			continue
		}
		sources = append(sources, filepath.Join(dir, e.Name()))
	}
	sort.Strings(sources)
	return sources, nil
}

// Run processes every source of opts.Dir. A per-document failure is recorded
// in its Result and never stops the batch. The returned error is reserved for
// batch-level failures: a missing directory, an unusable report database or
// bundle, or cancellation of ctx.
func Run(ctx context.Context, opts Options) (*Summary, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := validation.ValidatePath(opts.Dir); err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "directory %q: %v", opts.Dir, err)
	}
	info, err := os.Stat(opts.Dir)
	if err != nil || !info.IsDir() {
		return nil, errors.NewNotFound("directory", opts.Dir)
	}

	summary := &Summary{RunID: uuid.NewString(), Dir: opts.Dir}
	ctx = logging.WithRunID(ctx, summary.RunID)
	j := opts.Journal

	tables, warnings := lookup.LoadTables(opts.TablesDir, cfg.EventsTable, cfg.ControlsTable)
	summary.Warnings = warnings
	for _, w := range warnings {
		logging.TableWarning(w.Path, w.Err, "run_id", summary.RunID)
		journalWarning(j, w)
	}

	sources, err := Discover(opts.Dir)
	if err != nil {
		return nil, err
	}

	outDir := filepath.Join(opts.Dir, OutputDir)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, errors.NewIO("create directory", outDir, err)
	}

	var store *report.Store
	if opts.ReportDB != "" {
		store, err = report.Open(opts.ReportDB)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		if err := store.BeginRun(ctx, summary.RunID, opts.Dir, now()); err != nil {
			return nil, err
		}
	}

	pool := NewWorkerPool[job, indexed](opts.Workers, len(sources))
	logging.BatchStarted(ctx, opts.Dir, len(sources), pool.Workers())
	printJournal(j, logging.JournalInfo,
		"Début du traitement du répertoire : "+opts.Dir,
		"Starting processing of directory: "+opts.Dir)

	summary.Results = make([]Result, len(sources))
	if len(sources) > 0 {
		pool.Start(func(jb job) indexed {
			if err := ctx.Err(); err != nil {
				return indexed{jb.index, Result{Source: jb.source, Err: err}}
			}
			return indexed{jb.index, processFile(jb.source, outDir, tables, cfg, now())}
		})
		for i, src := range sources {
			pool.Submit(job{index: i, source: src})
		}
		pool.Close()
		for r := range pool.Results() {
			summary.Results[r.index] = r.result
		}
	}

	for _, r := range summary.Results {
		record(ctx, j, store, summary, r)
	}

	if opts.Bundle != "" && summary.Processed > 0 {
		if err := packBundle(opts.Bundle, summary.Results); err != nil {
			return summary, err
		}
		summary.Bundle = opts.Bundle
	}

	if store != nil {
		if err := store.FinishRun(ctx, summary.RunID, now(), summary.Processed, summary.Failed, summary.Anomalies); err != nil {
			return summary, err
		}
	}

	printJournal(j, logging.JournalInfo,
		fmt.Sprintf("Terminé. Fichiers .wdw traités avec succès : %d", summary.Processed),
		fmt.Sprintf("Done. Successfully processed .wdw files: %d", summary.Processed))

	return summary, ctx.Err()
}

// processFile reads, clarifies and writes one source.
func processFile(source, outDir string, tables lookup.Tables, cfg pipeline.Config, now time.Time) Result {
	start := time.Now()
	res := Result{Source: source}

	info, err := os.Stat(source)
	if err != nil {
		res.Err = errors.NewDocument(source, errors.StageRead, err)
		return res
	}
	if err := validation.CheckSize(source, info.Size()); err != nil {
		res.Err = errors.NewDocument(source, errors.StageRead, err)
		return res
	}
	data, err := os.ReadFile(source)
	if err != nil {
		res.Err = errors.NewDocument(source, errors.StageRead, err)
		return res
	}

	c, err := Clarify(source, data, tables, cfg, now)
	if err != nil {
		res.Err = err
		return res
	}
	res.Encoding = c.Encoding.Name
	res.Digest = c.Digest
	res.Anomalies = c.Anomalies

	out := filepath.Join(outDir, OutputName(source))
	if err := fileutil.WriteAtomic(out, c.Data); err != nil {
		res.Err = errors.NewDocument(source, errors.StageWrite, err)
		return res
	}
	res.Output = out
	res.Duration = time.Since(start)
	return res
}

// record logs one result and adds it to the totals and the report store.
func record(ctx context.Context, j *logging.Journal, store *report.Store, s *Summary, r Result) {
	name := filepath.Base(r.Source)
	doc := report.Document{Source: r.Source, Encoding: r.Encoding, Digest: r.Digest}

	if r.Err != nil {
		s.Failed++
		logging.DocumentFailed(ctx, r.Source, r.Err)
		printJournal(j, logging.JournalError,
			fmt.Sprintf("Erreur lors du traitement de '%s' : %v", name, r.Err),
			fmt.Sprintf("Error while processing '%s' : %v", name, r.Err))
		doc.Status = report.StatusFailed
		doc.Error = r.Err.Error()
		// anomalies of an unwritten document are not reported
		r.Anomalies = nil
	} else {
		s.Processed++
		s.Anomalies += len(r.Anomalies)
		for _, a := range r.Anomalies {
			logging.AnomalyFound(ctx, r.Source, string(a.Kind), a.TypeCode, a.TypeLine, a.ParentLine)
			if j != nil {
				_ = j.Log(logging.JournalWarning, a.Message(), a.MessageEN())
			}
		}
		logging.DocumentProcessed(ctx, r.Source, r.Output, r.Encoding, len(r.Anomalies), r.Duration)
		out := filepath.Join(OutputDir, filepath.Base(r.Output))
		printJournal(j, logging.JournalInfo,
			fmt.Sprintf("Fichier traité : %s -> %s (encodage: %s)", name, out, r.Encoding),
			fmt.Sprintf("Processed file: %s -> %s (encoding: %s)", name, out, r.Encoding))
		doc.Status = report.StatusOK
		doc.Output = r.Output
	}

	if store != nil {
		if _, err := store.AddDocument(ctx, s.RunID, doc, r.Anomalies); err != nil {
			logging.ErrorContext(ctx, "report_store_failed", "source", r.Source, "error", err.Error())
		}
	}
}

func packBundle(path string, results []Result) error {
	var entries []bundle.Entry
	for _, r := range results {
		if !r.OK() {
			continue
		}
		entries = append(entries, bundle.Entry{
			Name: OutputDir + "/" + filepath.Base(r.Output),
			Path: r.Output,
		})
	}
	return bundle.Pack(path, entries)
}

func journalWarning(j *logging.Journal, w *lookup.Warning) {
	if w.Missing() {
		printJournal(j, logging.JournalWarning,
			"Fichier de correspondance introuvable : "+w.Path,
			"Mapping file not found: "+w.Path)
		return
	}
	printJournal(j, logging.JournalError,
		fmt.Sprintf("Erreur lecture fichier de correspondance %s : %v", w.Path, w.Err),
		fmt.Sprintf("Failed reading mapping file %s: %v", w.Path, w.Err))
}

func printJournal(j *logging.Journal, level, fr, en string) {
	if j == nil {
		return
	}
	if err := j.Print(level, fr, en); err != nil {
		logging.Warn("journal_write_failed", "error", err.Error())
	}
}
