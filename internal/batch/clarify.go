package batch

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/FocuswithJustin/WindevClarify/core/anomaly"
	"github.com/FocuswithJustin/WindevClarify/core/classify"
	"github.com/FocuswithJustin/WindevClarify/core/digest"
	"github.com/FocuswithJustin/WindevClarify/core/errors"
	"github.com/FocuswithJustin/WindevClarify/core/lookup"
	"github.com/FocuswithJustin/WindevClarify/core/phrase"
	"github.com/FocuswithJustin/WindevClarify/core/pipeline"
	"github.com/FocuswithJustin/WindevClarify/internal/logging"
	"github.com/FocuswithJustin/WindevClarify/internal/textenc"
)

// File layout of a batch run.
const (
	SourceExt    = ".wdw"
	OutputDir    = "clarifications"
	OutputSuffix = "_wdw.clair"
)

// Clarified is one normalized document.
type Clarified struct {
	// Data is the .clair content in the source encoding.
	Data      []byte
	Encoding  textenc.Encoding
	Digest    string
	Anomalies []anomaly.Record
}

// OutputName returns the .clair file name for a source file name.
func OutputName(source string) string {
	base := filepath.Base(source)
	return strings.TrimSuffix(base, filepath.Ext(base)) + OutputSuffix
}

// Header returns the .clair header lines, blank separator included.
func Header(source string, now time.Time, anomalies int, sum string) []string {
	return []string{
		"# Source: " + filepath.Base(source),
		"# Traitement (FR): " + now.Format(logging.TimeLayoutFR),
		"# Processing (EN): " + now.Format(logging.TimeLayoutEN),
		fmt.Sprintf("# Anomalies détectées: %d", anomalies),
		"# BLAKE3: " + sum,
		"",
	}
}

// Clarify normalizes the raw bytes of one source document. Anomalies are
// computed on the source so their line numbers refer to it. The output keeps
// the source encoding and line terminator.
func Clarify(source string, data []byte, tables lookup.Tables, cfg pipeline.Config, now time.Time) (*Clarified, error) {
	text, enc, err := textenc.Decode(data)
	if err != nil {
		return nil, errors.NewDocument(source, errors.StageDecode, err)
	}

	doc := phrase.Parse(text)
	x := classify.Analyze(doc, cfg.Rules)
	records := anomaly.FromIndex(doc, x, tables)

	sum := digest.Sum(data)
	out := pipeline.Run(doc, tables, cfg)

	lines := append(Header(source, now, len(records), sum), out.Render()...)
	eol := "\n"
	if strings.Contains(text, "\r\n") {
		eol = "\r\n"
	}
	rendered := strings.Join(lines, eol) + eol

	encoded, err := textenc.Encode(rendered, enc)
	if err != nil {
		return nil, errors.NewDocument(source, errors.StageEncode, err)
	}
	return &Clarified{
		Data:      encoded,
		Encoding:  enc,
		Digest:    sum,
		Anomalies: records,
	}, nil
}
