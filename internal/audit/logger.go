package audit

import (
	"context"
	"errors"
	"log"
	"sync"
)

// LogLogger writes audit entries to a standard logger.
type LogLogger struct {
	logger *log.Logger
}

// NewLogLogger constructs a LogLogger.
func NewLogLogger(logger *log.Logger) (*LogLogger, error) {
	if logger == nil {
		return nil, errors.New("audit log: nil logger")
	}
	return &LogLogger{logger: logger}, nil
}

// Log writes one line per entry.
func (l *LogLogger) Log(_ context.Context, entry Entry) error {
	l.logger.Printf("audit: actor=%s role=%s action=%s resource=%s/%s ip=%s meta=%s",
		entry.Actor, entry.Role, entry.Action, entry.ResourceType, entry.ResourceID, entry.IP, string(entry.Metadata))
	return nil
}

// MemoryLogger keeps entries in memory.
type MemoryLogger struct {
	mu      sync.Mutex
	entries []Entry
}

// NewMemoryLogger constructs an empty MemoryLogger.
func NewMemoryLogger() *MemoryLogger {
	return &MemoryLogger{}
}

// Log appends entry.
func (m *MemoryLogger) Log(_ context.Context, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

// Entries returns a copy of the logged entries.
func (m *MemoryLogger) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Entry(nil), m.entries...)
}
