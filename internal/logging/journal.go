package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Timestamp layouts of the two journal files.
const (
	TimeLayoutFR = "02/01/2006 15:04:05"
	TimeLayoutEN = "2006-01-02 15:04:05"
)

// Journal levels. START and END bracket one run.
const (
	JournalInfo    = "INFO"
	JournalWarning = "WARNING"
	JournalError   = "ERROR"
	JournalStart   = "START"
	JournalEnd     = "END"
)

// Lang selects the console language of a Journal.
type Lang string

const (
	LangFR Lang = "fr"
	LangEN Lang = "en"
)

// ParseLang maps a flag value to a Lang.
func ParseLang(s string) (Lang, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fr", "":
		return LangFR, nil
	case "en":
		return LangEN, nil
	}
	return LangFR, fmt.Errorf("unknown language %q", s)
}

// Journal writes every event to a French and an English log file, newest
// entry first, and echoes selected events to the console in one language.
// It is safe for concurrent use.
type Journal struct {
	mu     sync.Mutex
	frPath string
	enPath string
	lang   Lang
	out    io.Writer
	now    func() time.Time
}

// NewJournal returns a journal writing FR_<tool>.log and EN_<tool>.log in dir.
// A nil out disables console output.
func NewJournal(dir, tool string, lang Lang, out io.Writer) *Journal {
	return &Journal{
		frPath: filepath.Join(dir, "FR_"+tool+".log"),
		enPath: filepath.Join(dir, "EN_"+tool+".log"),
		lang:   lang,
		out:    out,
		now:    time.Now,
	}
}

// Paths returns the French and English file paths.
func (j *Journal) Paths() (fr, en string) {
	return j.frPath, j.enPath
}

// Log records one event in both files.
func (j *Journal) Log(level, fr, en string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.write(level, fr, en)
}

func (j *Journal) write(level, fr, en string) error {
	t := j.now()
	errFR := prependLine(j.frPath, fmt.Sprintf("%s [%s] %s", t.Format(TimeLayoutFR), level, fr))
	errEN := prependLine(j.enPath, fmt.Sprintf("%s [%s] %s", t.Format(TimeLayoutEN), level, en))
	if errFR != nil {
		return errFR
	}
	return errEN
}

// Print records the event and echoes it to the console in the journal
// language.
func (j *Journal) Print(level, fr, en string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	err := j.write(level, fr, en)
	if j.out != nil {
		if j.lang == LangEN {
			fmt.Fprintf(j.out, "[EN] %s\n", en)
		} else {
			fmt.Fprintf(j.out, "[FR] %s\n", fr)
		}
	}
	return err
}

// Start marks the beginning of a run.
func (j *Journal) Start(fr, en string) error {
	return j.Log(JournalStart, fr, en)
}

// End marks the end of a run.
func (j *Journal) End(fr, en string) error {
	return j.Log(JournalEnd, fr, en)
}

// prependLine writes line at the top of path. When the rewrite fails the line
// is appended instead.
func prependLine(path, line string) error {
	line = strings.TrimRight(line, "\n") + "\n"
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return appendLine(path, line)
	}
	if err := os.WriteFile(path, append([]byte(line), existing...), 0o644); err != nil {
		return appendLine(path, line)
	}
	return nil
}

func appendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(line)
	return err
}
