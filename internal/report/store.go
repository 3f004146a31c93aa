// Package report persists batch runs, processed documents and their anomaly
// records in a SQLite database.
package report

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/FocuswithJustin/WindevClarify/core/anomaly"
	"github.com/FocuswithJustin/WindevClarify/core/sqlite"
)

const schema = `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		dir TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		processed INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		anomalies INTEGER NOT NULL DEFAULT 0
	);
	CREATE TABLE IF NOT EXISTS documents (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		source TEXT NOT NULL,
		output TEXT,
		digest TEXT,
		encoding TEXT,
		status TEXT NOT NULL,
		error TEXT,
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);
	CREATE TABLE IF NOT EXISTS anomalies (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		document_id INTEGER NOT NULL,
		kind TEXT NOT NULL,
		type_code TEXT NOT NULL,
		type_line INTEGER NOT NULL,
		parent_line INTEGER NOT NULL,
		parent_label TEXT,
		FOREIGN KEY (document_id) REFERENCES documents(id)
	);
	CREATE INDEX IF NOT EXISTS idx_documents_run ON documents(run_id);
	CREATE INDEX IF NOT EXISTS idx_anomalies_document ON anomalies(document_id);
`

// Document statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Run is one batch run.
type Run struct {
	ID         string    `json:"id"`
	Dir        string    `json:"dir"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
	Processed  int       `json:"processed"`
	Failed     int       `json:"failed"`
	Anomalies  int       `json:"anomalies"`
}

// Document is one source document of a run.
type Document struct {
	Source   string `json:"source"`
	Output   string `json:"output,omitempty"`
	Digest   string `json:"digest,omitempty"`
	Encoding string `json:"encoding,omitempty"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
}

// Anomaly is a stored anomaly record with its source document.
type Anomaly struct {
	Source string `json:"source"`
	anomaly.Record
}

// Store is a SQLite anomaly store. It is safe for concurrent use.
type Store struct {
	db *sql.DB
}

// Open opens or creates the store at path.
func Open(path string) (*Store, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open report database: %w", err)
	}
	// one writer at a time avoids SQLITE_BUSY between workers
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// OpenReadOnly opens an existing store for queries only. The schema is not
// created, so a missing or foreign file fails on first use.
func OpenReadOnly(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open report database: %w", err)
	}
	db, err := sqlite.OpenReadOnly(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open report database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open report database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// BeginRun records the start of a run.
func (s *Store) BeginRun(ctx context.Context, id, dir string, started time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO runs (id, dir, started_at) VALUES (?, ?, ?)",
		id, dir, started.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", id, err)
	}
	return nil
}

// AddDocument stores a document and its anomalies in one transaction and
// returns the document row ID.
func (s *Store) AddDocument(ctx context.Context, runID string, doc Document, records []anomaly.Record) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO documents (run_id, source, output, digest, encoding, status, error) VALUES (?, ?, ?, ?, ?, ?, ?)",
		runID, doc.Source, doc.Output, doc.Digest, doc.Encoding, doc.Status, doc.Error)
	if err != nil {
		return 0, fmt.Errorf("failed to insert document %s: %w", doc.Source, err)
	}
	docID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read document id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO anomalies (document_id, kind, type_code, type_line, parent_line, parent_label) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return 0, fmt.Errorf("failed to prepare anomaly insert: %w", err)
	}
	defer stmt.Close()
	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, docID, string(r.Kind), r.TypeCode, r.TypeLine, r.ParentLine, r.ParentLabel); err != nil {
			return 0, fmt.Errorf("failed to insert anomaly: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit document %s: %w", doc.Source, err)
	}
	return docID, nil
}

// FinishRun records the end of a run and its totals.
func (s *Store) FinishRun(ctx context.Context, id string, finished time.Time, processed, failed, anomalies int) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE runs SET finished_at = ?, processed = ?, failed = ?, anomalies = ? WHERE id = ?",
		finished.UTC().Format(time.RFC3339), processed, failed, anomalies, id)
	if err != nil {
		return fmt.Errorf("failed to update run %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", id)
	}
	return nil
}

// Runs lists every run, oldest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, dir, started_at, COALESCE(finished_at, ''), processed, failed, anomalies FROM runs ORDER BY started_at, rowid")
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished string
		if err := rows.Scan(&r.ID, &r.Dir, &started, &finished, &r.Processed, &r.Failed, &r.Anomalies); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339, started)
		if finished != "" {
			r.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Documents lists the documents of a run in insertion order.
func (s *Store) Documents(ctx context.Context, runID string) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source, COALESCE(output, ''), COALESCE(digest, ''), COALESCE(encoding, ''), status, COALESCE(error, '')
		FROM documents WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.Source, &d.Output, &d.Digest, &d.Encoding, &d.Status, &d.Error); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// Anomalies lists the anomalies of a run by document, then by report order.
func (s *Store) Anomalies(ctx context.Context, runID string) ([]Anomaly, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT d.source, a.kind, a.type_code, a.type_line, a.parent_line, COALESCE(a.parent_label, '')
		FROM anomalies a JOIN documents d ON d.id = a.document_id
		WHERE d.run_id = ? ORDER BY d.id, a.id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query anomalies: %w", err)
	}
	defer rows.Close()

	var out []Anomaly
	for rows.Next() {
		var a Anomaly
		var kind string
		if err := rows.Scan(&a.Source, &kind, &a.TypeCode, &a.TypeLine, &a.ParentLine, &a.ParentLabel); err != nil {
			return nil, fmt.Errorf("failed to scan anomaly: %w", err)
		}
		a.Kind = anomaly.Kind(kind)
		out = append(out, a)
	}
	return out, rows.Err()
}
