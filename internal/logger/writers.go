// internal/logger/writers.go
package logger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// CSVOptions configures a SafeCSVWriter.
type CSVOptions struct {
	// Header is written when the file starts empty.
	Header []string
	// Comma is the field separator, ',' when zero.
	Comma rune
	// Replace writes a fresh file next to the target and renames it over the
	// target on Close. Readers never see a partial file. Without Replace the
	// writer appends in place.
	Replace bool
}

// SafeCSVWriter is a mutex-guarded CSV writer used by the trade cache and
// the report exporter.
type SafeCSVWriter struct {
	mu      sync.Mutex
	w       *csv.Writer
	file    *os.File
	path    string
	tmpPath string
	logger  *zap.Logger
	records uint64
	closed  bool
}

// NewSafeCSVWriter opens path, creating parent directories.
func NewSafeCSVWriter(path string, opts CSVOptions, logger *zap.Logger) (*SafeCSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	scw := &SafeCSVWriter{path: path, logger: logger}

	var err error
	if opts.Replace {
		scw.file, err = os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
		if err == nil {
			scw.tmpPath = scw.file.Name()
		}
	} else {
		scw.file, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	scw.w = csv.NewWriter(scw.file)
	if opts.Comma != 0 {
		scw.w.Comma = opts.Comma
	}

	if len(opts.Header) > 0 {
		stat, err := scw.file.Stat()
		if err != nil {
			scw.Abort()
			return nil, fmt.Errorf("failed to stat file: %w", err)
		}
		if stat.Size() == 0 {
			if err := scw.w.Write(opts.Header); err != nil {
				scw.Abort()
				return nil, fmt.Errorf("failed to write header: %w", err)
			}
		}
	}
	return scw, nil
}

// WriteRecord writes one record.
func (scw *SafeCSVWriter) WriteRecord(record []string) error {
	scw.mu.Lock()
	defer scw.mu.Unlock()

	if scw.closed {
		return errors.New("write to closed CSV writer")
	}
	if err := scw.w.Write(record); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	scw.records++
	return nil
}

// Flush pushes buffered records to the file.
func (scw *SafeCSVWriter) Flush() error {
	scw.mu.Lock()
	defer scw.mu.Unlock()

	scw.w.Flush()
	return scw.w.Error()
}

// Close flushes and closes the file. A replacing writer then renames the
// temporary file over the target.
func (scw *SafeCSVWriter) Close() error {
	scw.mu.Lock()
	defer scw.mu.Unlock()

	if scw.closed {
		return nil
	}
	scw.closed = true

	scw.w.Flush()
	if err := scw.w.Error(); err != nil {
		scw.discard()
		return fmt.Errorf("CSV writer error on close: %w", err)
	}
	if err := scw.file.Close(); err != nil {
		scw.discard()
		return fmt.Errorf("failed to close file: %w", err)
	}
	if scw.tmpPath != "" {
		if err := os.Rename(scw.tmpPath, scw.path); err != nil {
			os.Remove(scw.tmpPath)
			return fmt.Errorf("failed to replace %s: %w", scw.path, err)
		}
	}

	scw.logger.Debug("CSV written",
		zap.String("file", scw.path),
		zap.Uint64("records", scw.records))
	return nil
}

// Abort closes the writer without touching the target of a replacing writer.
// Records already appended in place stay.
func (scw *SafeCSVWriter) Abort() {
	scw.mu.Lock()
	defer scw.mu.Unlock()

	if scw.closed {
		return
	}
	scw.closed = true
	if scw.tmpPath == "" {
		scw.w.Flush()
	}
	scw.discard()
}

// discard closes the file and drops the temporary copy. Callers hold mu.
func (scw *SafeCSVWriter) discard() {
	scw.file.Close()
	if scw.tmpPath != "" {
		os.Remove(scw.tmpPath)
	}
}

// Records returns how many records were written, the header excluded.
func (scw *SafeCSVWriter) Records() uint64 {
	scw.mu.Lock()
	defer scw.mu.Unlock()
	return scw.records
}

// Path returns the target file.
func (scw *SafeCSVWriter) Path() string {
	return scw.path
}
