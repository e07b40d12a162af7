// internal/logger/buffer.go
package logger

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const entryTimeLayout = "2006-01-02T15:04:05.000Z0700"

// LogEntry is one buffered log line. Wallet and Operation are lifted out of
// the structured fields when present.
type LogEntry struct {
	Time      time.Time              `json:"time"`
	Level     zapcore.Level          `json:"level"`
	Message   string                 `json:"msg"`
	Wallet    string                 `json:"wallet,omitempty"`
	Operation string                 `json:"operation,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// LogBuffer keeps the newest entries in a ring for the report viewer. An
// entry overwritten in the ring is appended to the spill file as JSON, and
// Close spills the rest, so the file ends up with the whole session.
type LogBuffer struct {
	mu      sync.Mutex
	entries []LogEntry
	next    int
	full    bool

	file  *os.File
	out   *bufio.Writer
	enc   *json.Encoder
	owner *zap.Logger

	total   uint64
	spilled uint64
}

// NewLogBuffer creates a buffer of capacity entries spilling to spillPath.
func NewLogBuffer(capacity int, spillPath string, logger *zap.Logger) (*LogBuffer, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("buffer size must be positive, got %d", capacity)
	}
	if err := os.MkdirAll(filepath.Dir(spillPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(spillPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open spill file: %w", err)
	}

	out := bufio.NewWriter(f)
	return &LogBuffer{
		entries: make([]LogEntry, capacity),
		file:    f,
		out:     out,
		enc:     json.NewEncoder(out),
		owner:   logger,
	}, nil
}

// Add appends an entry stamped with the current time.
func (lb *LogBuffer) Add(level zapcore.Level, message string, fields map[string]interface{}) error {
	return lb.push(newEntry(time.Now(), level, message, fields))
}

func newEntry(ts time.Time, level zapcore.Level, message string, fields map[string]interface{}) LogEntry {
	e := LogEntry{Time: ts, Level: level, Message: message}
	if v, ok := fields["wallet"].(string); ok {
		e.Wallet = v
		delete(fields, "wallet")
	}
	if v, ok := fields["operation"].(string); ok {
		e.Operation = v
		delete(fields, "operation")
	}
	if len(fields) > 0 {
		e.Fields = fields
	}
	return e
}

func (lb *LogBuffer) push(e LogEntry) error {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	var err error
	if lb.full {
		if err = lb.enc.Encode(lb.entries[lb.next]); err != nil {
			lb.owner.Error("Failed to spill log entry", zap.Error(err))
		} else {
			lb.spilled++
		}
	}

	lb.entries[lb.next] = e
	lb.next = (lb.next + 1) % len(lb.entries)
	lb.full = lb.full || lb.next == 0
	lb.total++
	return err
}

// Write lets the buffer back a zap JSON core; p is one encoded entry.
func (lb *LogBuffer) Write(p []byte) (int, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(p, &raw); err != nil {
		return 0, fmt.Errorf("decode log entry: %w", err)
	}

	ts := time.Now()
	if v, ok := raw["time"].(string); ok {
		if parsed, err := time.Parse(entryTimeLayout, v); err == nil {
			ts = parsed
		}
	}
	level := zapcore.InfoLevel
	if v, ok := raw["level"].(string); ok {
		_ = level.UnmarshalText([]byte(v))
	}
	msg, _ := raw["msg"].(string)
	delete(raw, "time")
	delete(raw, "level")
	delete(raw, "msg")

	if err := lb.push(newEntry(ts, level, msg, raw)); err != nil {
		return 0, err
	}
	return len(p), nil
}

// ordered returns the ring contents oldest first. Callers hold mu.
func (lb *LogBuffer) ordered() []LogEntry {
	if !lb.full {
		return lb.entries[:lb.next]
	}
	out := make([]LogEntry, 0, len(lb.entries))
	out = append(out, lb.entries[lb.next:]...)
	return append(out, lb.entries[:lb.next]...)
}

// Recent returns up to limit of the newest entries at or above atLeast,
// oldest first. limit <= 0 returns every matching entry.
func (lb *LogBuffer) Recent(limit int, atLeast zapcore.Level) []LogEntry {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	var out []LogEntry
	for _, e := range lb.ordered() {
		if e.Level >= atLeast {
			out = append(out, e)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return append([]LogEntry(nil), out...)
}

// Flush writes buffered spill data to disk.
func (lb *LogBuffer) Flush() error {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	if err := lb.out.Flush(); err != nil {
		return fmt.Errorf("failed to flush spill writer: %w", err)
	}
	return lb.file.Sync()
}

// Sync implements zapcore.WriteSyncer.
func (lb *LogBuffer) Sync() error {
	return lb.Flush()
}

// Close spills the ring and closes the file.
func (lb *LogBuffer) Close() error {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	for _, e := range lb.ordered() {
		if err := lb.enc.Encode(e); err != nil {
			lb.owner.Error("Failed to spill entry during close", zap.Error(err))
		}
	}
	if err := lb.out.Flush(); err != nil {
		return fmt.Errorf("failed to flush during close: %w", err)
	}

	lb.owner.Debug("Log buffer closed",
		zap.Uint64("total", lb.total),
		zap.Uint64("spilled", lb.spilled))
	return lb.file.Close()
}

// Stats reports how many entries were added and how many left the ring.
func (lb *LogBuffer) Stats() (total, spilled uint64) {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return lb.total, lb.spilled
}
