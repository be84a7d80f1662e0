package access

import (
	"sync"

	"github.com/google/uuid"

	"github.com/jwalitptl/appointment-api/internal/model"
)

// Log is the in-memory, append-only record of access decisions.
type Log struct {
	mu      sync.RWMutex
	entries []model.AccessLogEntry
	max     int
}

// NewLog keeps at most max entries, dropping the oldest. max <= 0 is unbounded.
func NewLog(max int) *Log {
	return &Log{max: max}
}

func (l *Log) Append(e model.AccessLogEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, e)
	if l.max > 0 && len(l.entries) > l.max {
		l.entries = append(l.entries[:0:0], l.entries[len(l.entries)-l.max:]...)
	}
}

// Entries returns matching entries, newest first.
func (l *Log) Entries(f model.AccessLogFilter) []model.AccessLogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := []model.AccessLogEntry{}
	for i := len(l.entries) - 1; i >= 0; i-- {
		e := l.entries[i]
		if f.CallerID != uuid.Nil && e.CallerID != f.CallerID {
			continue
		}
		if f.Success != nil && e.Success != *f.Success {
			continue
		}
		out = append(out, e)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
