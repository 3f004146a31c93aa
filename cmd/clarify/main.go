// Command clarify normalizes WinDev window exports (.wdw) into readable
// .clair files and generates Blazor skeletons from them.
//
// Usage:
//
//	clarify normalize --dir <dir> [--lang fr|en] [--workers N] [--report-db F] [--bundle F]
//	clarify skeleton --dir <dir> [--lang fr|en]
//	clarify inspect <file> [--section controls] [--json]
//	clarify tables [--tables-dir <dir>]
//	clarify report --report-db <file> [--run <id>] [--verify] [--json]
//	clarify bundle <archive>
//	clarify version
//
// Every flag can also be set through a CLARIFY_* environment variable or a
// .env file in the working directory.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/FocuswithJustin/WindevClarify/core/anomaly"
	"github.com/FocuswithJustin/WindevClarify/core/block"
	"github.com/FocuswithJustin/WindevClarify/core/bundle"
	"github.com/FocuswithJustin/WindevClarify/core/classify"
	"github.com/FocuswithJustin/WindevClarify/core/digest"
	"github.com/FocuswithJustin/WindevClarify/core/errors"
	"github.com/FocuswithJustin/WindevClarify/core/lookup"
	"github.com/FocuswithJustin/WindevClarify/core/phrase"
	"github.com/FocuswithJustin/WindevClarify/core/pipeline"
	"github.com/FocuswithJustin/WindevClarify/core/sqlite"
	"github.com/FocuswithJustin/WindevClarify/internal/batch"
	"github.com/FocuswithJustin/WindevClarify/internal/logging"
	"github.com/FocuswithJustin/WindevClarify/internal/report"
	"github.com/FocuswithJustin/WindevClarify/internal/skeleton"
	"github.com/FocuswithJustin/WindevClarify/internal/textenc"
	"github.com/FocuswithJustin/WindevClarify/internal/validation"
)

const version = "0.1.0"

// Journal file names: FR_<tool>.log and EN_<tool>.log.
const (
	normalizeTool = "clarification_windev"
	skeletonTool  = "squelette_blazor"
)

// stdout receives command output and the localized console journal.
var stdout io.Writer = os.Stdout

// Globals are the flags shared by every command.
type Globals struct {
	LogLevel  string `name:"log-level" help:"Structured log level (debug, info, warn, error)" default:"info" env:"CLARIFY_LOG_LEVEL"`
	LogFormat string `name:"log-format" help:"Structured log format (json, text)" default:"text" env:"CLARIFY_LOG_FORMAT"`
	LogDir    string `name:"log-dir" help:"Directory of the FR_/EN_ journal files" default:"." type:"path" env:"CLARIFY_LOG_DIR"`
}

// CLI defines the command-line interface for clarify.
type CLI struct {
	Globals

	Normalize NormalizeCmd `cmd:"" help:"Clarify every .wdw file of a directory"`
	Skeleton  SkeletonCmd  `cmd:"" help:"Generate Blazor skeletons from clarified files"`
	Inspect   InspectCmd   `cmd:"" help:"Show the sections, blocks and controls of a window file"`
	Tables    TablesCmd    `cmd:"" help:"Show the event and control lookup tables"`
	Report    ReportCmd    `cmd:"" help:"Show the runs, documents and anomalies of a report database"`
	Bundle    BundleCmd    `cmd:"" help:"List the files of a bundle archive"`
	Version   VersionCmd   `cmd:"" help:"Print version information"`
}

func (g *Globals) initLogging() error {
	level, err := logging.ParseLevel(g.LogLevel)
	if err != nil {
		return err
	}
	format, err := logging.ParseFormat(g.LogFormat)
	if err != nil {
		return err
	}
	logging.InitLogger(level, format)
	return nil
}

// journal opens the bilingual journal of tool and writes its START line.
func (g *Globals) journal(tool string, lang logging.Lang) *logging.Journal {
	j := logging.NewJournal(g.LogDir, tool, lang, stdout)
	cmdline := strings.Join(os.Args, " ")
	if err := j.Start("Commande : "+cmdline, "Command : "+cmdline); err != nil {
		logging.Warn("journal_write_failed", "error", err.Error())
	}
	return j
}

func endJournal(j *logging.Journal) {
	if err := j.End("Fin d'exécution.", "Execution finished."); err != nil {
		logging.Warn("journal_write_failed", "error", err.Error())
	}
}

// loadConfig returns the pipeline configuration, read from path when set.
func loadConfig(path string) (pipeline.Config, error) {
	if path == "" {
		return pipeline.DefaultConfig(), nil
	}
	cfg, err := pipeline.LoadConfig(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// NormalizeCmd clarifies a directory of window exports.
type NormalizeCmd struct {
	Dir       string `required:"" help:"Directory containing .wdw files" type:"path" env:"CLARIFY_DIR"`
	Lang      string `help:"Console language (fr, en)" default:"fr" enum:"fr,en" env:"CLARIFY_LANG"`
	Workers   int    `help:"Parallel workers (0 = number of CPUs)" default:"0" env:"CLARIFY_WORKERS"`
	TablesDir string `name:"tables-dir" help:"Directory of the lookup tables (default: --dir)" type:"path" env:"CLARIFY_TABLES_DIR"`
	Config    string `help:"JSON pipeline configuration" type:"path" env:"CLARIFY_CONFIG"`
	ReportDB  string `name:"report-db" help:"SQLite database receiving the run report" type:"path" env:"CLARIFY_REPORT_DB"`
	Bundle    string `help:"Archive of the clarified files (.tar.xz, .tar.gz)" type:"path" env:"CLARIFY_BUNDLE"`
}

func (c *NormalizeCmd) Run(g *Globals) error {
	lang, err := logging.ParseLang(c.Lang)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c.Config)
	if err != nil {
		return err
	}
	tablesDir := c.TablesDir
	if tablesDir == "" {
		tablesDir = c.Dir
	}

	j := g.journal(normalizeTool, lang)
	defer endJournal(j)
	_ = j.Print(logging.JournalInfo,
		"Niveau de journalisation : "+strings.ToUpper(g.LogLevel),
		"Log level: "+strings.ToUpper(g.LogLevel))

	summary, err := batch.Run(context.Background(), batch.Options{
		Dir:       c.Dir,
		TablesDir: tablesDir,
		Config:    cfg,
		Workers:   c.Workers,
		Journal:   j,
		ReportDB:  c.ReportDB,
		Bundle:    c.Bundle,
	})
	if err != nil {
		_ = j.Print(logging.JournalError, "Erreur inattendue : "+err.Error(), "Unexpected error: "+err.Error())
		return err
	}
	logging.Info("batch_summary",
		"run_id", summary.RunID,
		"processed", summary.Processed,
		"failed", summary.Failed,
		"anomalies", summary.Anomalies)
	return nil
}

// SkeletonCmd generates Blazor skeletons from a clarified directory.
type SkeletonCmd struct {
	Dir       string `required:"" help:"Directory containing the clarifications folder" type:"path" env:"CLARIFY_DIR"`
	Lang      string `help:"Console language (fr, en)" default:"fr" enum:"fr,en" env:"CLARIFY_LANG"`
	TablesDir string `name:"tables-dir" help:"Directory of the lookup tables (default: --dir)" type:"path" env:"CLARIFY_TABLES_DIR"`
	Config    string `help:"JSON pipeline configuration" type:"path" env:"CLARIFY_CONFIG"`
}

func (c *SkeletonCmd) Run(g *Globals) error {
	lang, err := logging.ParseLang(c.Lang)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c.Config)
	if err != nil {
		return err
	}
	tablesDir := c.TablesDir
	if tablesDir == "" {
		tablesDir = c.Dir
	}

	j := g.journal(skeletonTool, lang)
	defer endJournal(j)

	summary, err := skeleton.Run(context.Background(), skeleton.Options{
		Dir:       c.Dir,
		TablesDir: tablesDir,
		Config:    cfg,
		Journal:   j,
		Lang:      lang,
	})
	if err != nil {
		_ = j.Print(logging.JournalError, "Erreur inattendue : "+err.Error(), "Unexpected error: "+err.Error())
		return err
	}
	logging.Info("skeleton_summary", "generated", summary.Generated, "failed", summary.Failed)
	return nil
}

// InspectCmd prints how a window file is segmented.
type InspectCmd struct {
	Path      string `arg:"" help:"Window file (.wdw or .clair)" type:"existingfile"`
	Section   string `help:"Section to segment" default:"controls"`
	TablesDir string `name:"tables-dir" help:"Directory of the lookup tables (default: the file's directory)" type:"path" env:"CLARIFY_TABLES_DIR"`
	JSON      bool   `help:"Output as JSON"`
}

// inspection is the JSON form of an inspect run.
type inspection struct {
	File      string           `json:"file"`
	Encoding  string           `json:"encoding"`
	Digest    string           `json:"blake3"`
	Lines     int              `json:"lines"`
	Phrases   int              `json:"phrases"`
	Sections  []sectionInfo    `json:"sections"`
	Controls  []controlInfo    `json:"controls"`
	Events    int              `json:"events"`
	Coded     int              `json:"coded_events"`
	Anomalies []anomaly.Record `json:"anomalies"`
}

type sectionInfo struct {
	Key    string      `json:"key"`
	Line   int         `json:"line"`
	Indent int         `json:"indent"`
	Blocks []blockInfo `json:"blocks"`
}

type blockInfo struct {
	Dashed    bool     `json:"dashed"`
	FirstLine int      `json:"first_line"`
	LastLine  int      `json:"last_line"`
	Fields    []string `json:"fields"`
}

type controlInfo struct {
	Name       string `json:"name"`
	Line       int    `json:"line"`
	Identifier string `json:"identifier,omitempty"`
	Type       string `json:"type,omitempty"`
}

func (c *InspectCmd) Run() error {
	if err := validation.ValidatePath(c.Path); err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}
	data, err := os.ReadFile(c.Path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	text, enc, err := textenc.Decode(data)
	if err != nil {
		return err
	}
	tablesDir := c.TablesDir
	if tablesDir == "" {
		tablesDir = filepath.Dir(c.Path)
	}
	cfg := pipeline.DefaultConfig()
	tables, _ := lookup.LoadTables(tablesDir, cfg.EventsTable, cfg.ControlsTable)

	doc := phrase.Parse(text)
	x := classify.Analyze(doc, cfg.Rules)
	info := inspection{
		File:      c.Path,
		Encoding:  enc.Name,
		Digest:    digest.Sum(data),
		Lines:     len(doc.View()),
		Phrases:   doc.Len(),
		Events:    len(x.Events),
		Anomalies: anomaly.FromIndex(doc, x, tables),
	}
	for _, ev := range x.Events {
		if ev.HasCode {
			info.Coded++
		}
	}
	for _, sec := range block.Sections(doc, c.Section) {
		info.Sections = append(info.Sections, describeSection(doc, sec))
	}
	for _, ctl := range x.Controls {
		ci := controlInfo{
			Name: doc.Phrase(ctl.Name).FirstLine(),
			Line: doc.Phrase(ctl.Name).Line,
		}
		if ctl.Identifier >= 0 {
			ci.Identifier = doc.Phrase(ctl.Identifier).FirstLine()
		}
		if ctl.Type >= 0 {
			ci.Type = doc.Phrase(ctl.Type).FirstLine()
		}
		info.Controls = append(info.Controls, ci)
	}

	if c.JSON {
		return writeJSON(stdout, info)
	}
	printInspection(stdout, info)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func describeSection(doc *phrase.Document, sec block.Section) sectionInfo {
	p := doc.Phrase(sec.Phrase)
	si := sectionInfo{Key: p.Key, Line: p.Line, Indent: sec.Indent}
	view := doc.View()
	for _, b := range block.SegmentSection(doc, sec) {
		bi := blockInfo{Dashed: b.Dashed}
		if start := b.Start(); start < len(view) {
			bi.FirstLine = view[start].No
		}
		if b.To > 0 && b.To-1 < len(view) {
			bi.LastLine = view[b.To-1].No
		}
		fi := b.FieldIndent()
		for _, f := range b.Phrases(doc) {
			if f.Indent == fi {
				bi.Fields = append(bi.Fields, f.Key+" : "+f.FirstLine())
			}
		}
		si.Blocks = append(si.Blocks, bi)
	}
	return si
}

func printInspection(w io.Writer, info inspection) {
	fmt.Fprintf(w, "File:     %s\n", info.File)
	fmt.Fprintf(w, "Encoding: %s\n", info.Encoding)
	fmt.Fprintf(w, "BLAKE3:   %s\n", info.Digest)
	fmt.Fprintf(w, "Lines:    %d (%d phrases)\n", info.Lines, info.Phrases)
	fmt.Fprintf(w, "Events:   %d (%d with code)\n", info.Events, info.Coded)
	for _, s := range info.Sections {
		fmt.Fprintf(w, "\nSection %s (line %d, indent %d): %d blocks\n", s.Key, s.Line, s.Indent, len(s.Blocks))
		for i, b := range s.Blocks {
			kind := "bare"
			if b.Dashed {
				kind = "dashed"
			}
			fmt.Fprintf(w, "  [%d] %s, lines %d-%d\n", i+1, kind, b.FirstLine, b.LastLine)
			for _, f := range b.Fields {
				fmt.Fprintf(w, "      %s\n", f)
			}
		}
	}
	if len(info.Controls) > 0 {
		fmt.Fprintf(w, "\nControls: %d\n", len(info.Controls))
		for _, c := range info.Controls {
			fmt.Fprintf(w, "  %-24s line %-6d id %-10s type %s\n", c.Name, c.Line, c.Identifier, c.Type)
		}
	}
	fmt.Fprintf(w, "\nAnomalies: %d (control %d, event %d)\n", len(info.Anomalies),
		anomaly.Count(info.Anomalies, anomaly.KindControl), anomaly.Count(info.Anomalies, anomaly.KindEvent))
	for _, a := range info.Anomalies {
		fmt.Fprintf(w, "  %s\n", a.MessageEN())
	}
}

// TablesCmd prints the lookup tables.
type TablesCmd struct {
	TablesDir string `name:"tables-dir" help:"Directory of the lookup tables" default:"." type:"path" env:"CLARIFY_TABLES_DIR"`
	Config    string `help:"JSON pipeline configuration" type:"path" env:"CLARIFY_CONFIG"`
}

func (c *TablesCmd) Run() error {
	cfg, err := loadConfig(c.Config)
	if err != nil {
		return err
	}
	tables, warnings := lookup.LoadTables(c.TablesDir, cfg.EventsTable, cfg.ControlsTable)
	printTable(stdout, "Events", filepath.Join(c.TablesDir, cfg.EventsTable), tables.Events)
	printTable(stdout, "Controls", filepath.Join(c.TablesDir, cfg.ControlsTable), tables.Controls)
	for _, w := range warnings {
		fmt.Fprintf(stdout, "Warning: %v\n", w)
	}
	return nil
}

func printTable(w io.Writer, title, path string, t lookup.Table) {
	fmt.Fprintf(w, "%s (%s): %d entries\n", title, path, t.Len())
	for _, code := range t.Codes() {
		label, _ := t.Label(code)
		fmt.Fprintf(w, "  %4d  %s\n", code, label)
	}
}

// ReportCmd reads a report database written by normalize --report-db.
type ReportCmd struct {
	ReportDB string `name:"report-db" required:"" help:"SQLite report database" type:"existingfile" env:"CLARIFY_REPORT_DB"`
	RunID    string `name:"run" help:"Run to detail (default: list every run)"`
	Verify   bool   `help:"Check each source against its recorded BLAKE3 digest"`
	JSON     bool   `help:"Output as JSON"`
}

// Source checks.
const (
	checkOK      = "ok"
	checkChanged = "changed"
	checkMissing = "missing"
)

// runDetail is the JSON form of report --run.
type runDetail struct {
	Run       report.Run       `json:"run"`
	Documents []documentCheck  `json:"documents"`
	Anomalies []report.Anomaly `json:"anomalies"`
}

type documentCheck struct {
	report.Document
	Check string `json:"check,omitempty"`
}

func (c *ReportCmd) Run() error {
	ctx := context.Background()
	store, err := report.OpenReadOnly(c.ReportDB)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Runs(ctx)
	if err != nil {
		return err
	}
	if c.RunID == "" {
		if c.JSON {
			return writeJSON(stdout, runs)
		}
		printRuns(stdout, runs)
		return nil
	}

	i := slices.IndexFunc(runs, func(r report.Run) bool { return r.ID == c.RunID })
	if i < 0 {
		return errors.NewNotFound("run", c.RunID)
	}
	detail := runDetail{Run: runs[i]}
	docs, err := store.Documents(ctx, c.RunID)
	if err != nil {
		return err
	}
	for _, d := range docs {
		dc := documentCheck{Document: d}
		if c.Verify {
			dc.Check = checkSource(d)
		}
		detail.Documents = append(detail.Documents, dc)
	}
	if detail.Anomalies, err = store.Anomalies(ctx, c.RunID); err != nil {
		return err
	}

	if c.JSON {
		return writeJSON(stdout, detail)
	}
	printRunDetail(stdout, detail)
	return nil
}

// checkSource compares a document's source file with its recorded digest.
// Documents recorded without a digest are not checked.
func checkSource(d report.Document) string {
	if !digest.Valid(d.Digest) {
		return ""
	}
	sum, err := digest.File(d.Source)
	if err != nil {
		return checkMissing
	}
	if sum != d.Digest {
		return checkChanged
	}
	return checkOK
}

func printRuns(w io.Writer, runs []report.Run) {
	fmt.Fprintf(w, "Runs: %d\n", len(runs))
	for _, r := range runs {
		fmt.Fprintf(w, "  %s  %s  processed %d, failed %d, anomalies %d  %s\n",
			r.ID, r.StartedAt.Format(time.RFC3339), r.Processed, r.Failed, r.Anomalies, r.Dir)
	}
}

func printRunDetail(w io.Writer, d runDetail) {
	fmt.Fprintf(w, "Run:       %s\n", d.Run.ID)
	fmt.Fprintf(w, "Directory: %s\n", d.Run.Dir)
	fmt.Fprintf(w, "Started:   %s\n", d.Run.StartedAt.Format(time.RFC3339))
	if !d.Run.FinishedAt.IsZero() {
		fmt.Fprintf(w, "Finished:  %s\n", d.Run.FinishedAt.Format(time.RFC3339))
	}
	fmt.Fprintf(w, "\nDocuments: %d (processed %d, failed %d)\n", len(d.Documents), d.Run.Processed, d.Run.Failed)
	for _, doc := range d.Documents {
		line := fmt.Sprintf("  %-6s %s", doc.Status, filepath.Base(doc.Source))
		if doc.Error != "" {
			line += ": " + doc.Error
		}
		if doc.Check != "" {
			line += " [source " + doc.Check + "]"
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "\nAnomalies: %d\n", len(d.Anomalies))
	for _, a := range d.Anomalies {
		fmt.Fprintf(w, "  %s: %s\n", filepath.Base(a.Source), a.MessageEN())
	}
}

// BundleCmd lists the files of a bundle written by normalize --bundle.
type BundleCmd struct {
	Path string `arg:"" help:"Bundle archive (.tar.xz, .tar.gz)" type:"existingfile"`
}

func (c *BundleCmd) Run() error {
	compression, err := bundle.DetectCompression(c.Path)
	if err != nil {
		return err
	}
	names, err := bundle.Names(c.Path)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s (%s): %d files\n", c.Path, compression, len(names))
	for _, name := range names {
		fmt.Fprintf(stdout, "  %s\n", name)
	}
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	info := sqlite.GetInfo()
	fmt.Fprintf(stdout, "clarify version %s\n", version)
	fmt.Fprintf(stdout, "sqlite driver: %s (%s, %s)\n", info.DriverName, info.DriverType, info.Package)
	return nil
}

func main() {
	// a missing .env file is fine
	_ = godotenv.Load()

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("clarify"),
		kong.Description("WinDev window export normalizer"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	ctx.FatalIfErrorf(cli.initLogging())
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
