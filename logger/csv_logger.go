package logger

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// CSVLogger appends attendance rows to a per-run CSV file. Each process run
// gets its own dated file next to the configured base path, and a name is
// written at most once per run.
type CSVLogger struct {
	filePath string

	mu     sync.Mutex
	logged map[string]bool
	now    func() time.Time
}

// NewCSVLogger creates the dated CSV file for this run and writes the header.
// basePath is a template like "attendance_records/attendance.csv"; the actual
// file is "<dir>/<timestamp>_attendance.csv".
func NewCSVLogger(basePath string) (*CSVLogger, error) {
	return newCSVLogger(basePath, time.Now)
}

func newCSVLogger(basePath string, now func() time.Time) (*CSVLogger, error) {
	dir := filepath.Dir(basePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create attendance log directory %s: %w", dir, err)
	}

	base := filepath.Base(basePath)
	datedName := now().Format("02-01-2006_15-04-05") + "_" + base
	filePath := filepath.Join(dir, datedName)

	l := &CSVLogger{
		filePath: filePath,
		logged:   make(map[string]bool),
		now:      now,
	}
	if err := l.writeHeader(); err != nil {
		return nil, err
	}

	log.Printf("csvlog: attendance log for this run: %s", filePath)
	return l, nil
}

// FilePath returns the dated file this run writes to.
func (l *CSVLogger) FilePath() string {
	return l.filePath
}

func (l *CSVLogger) writeHeader() error {
	info, err := os.Stat(l.filePath)
	if err == nil && info.Size() > 0 {
		return nil
	}

	file, err := os.OpenFile(l.filePath, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to create attendance log %s: %w", l.filePath, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write([]string{"Name", "Time"}); err != nil {
		return fmt.Errorf("failed to write attendance log header: %w", err)
	}
	w.Flush()
	return w.Error()
}

// Log appends one attendance row for name, unless already logged this run.
func (l *CSVLogger) Log(name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.logged[name] {
		return nil
	}

	file, err := os.OpenFile(l.filePath, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open attendance log %s: %w", l.filePath, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write([]string{name, l.now().Format("15:04:05")}); err != nil {
		return fmt.Errorf("failed to append attendance row for %s: %w", name, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	l.logged[name] = true
	return nil
}
