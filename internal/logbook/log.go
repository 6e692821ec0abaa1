// Package logbook keeps the player-facing progress log of a session.
// Entries are held most-recent-first and mirrored to slog.
package logbook

import (
	"log/slog"
	"sync"
	"time"
)

// Kind classifies a log entry for display.
type Kind string

const (
	KindInfo       Kind = "info"
	KindGeneration Kind = "generation"
	KindSuccess    Kind = "success"
	KindWarning    Kind = "warning"
)

// ID identifies an entry for later replacement.
type ID uint64

// Entry is one line of the progress log.
type Entry struct {
	ID      ID        `json:"id"`
	Kind    Kind      `json:"kind"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Subscriber receives every entry as it is added or replaced.
type Subscriber func(Entry)

// Log is safe for concurrent use; the belongings task writes to it from its
// own goroutine.
type Log struct {
	mu      sync.Mutex
	entries []Entry // newest first
	subs    []Subscriber
	now     func() time.Time
	lastID  ID
}

// New creates an empty Log.
func New() *Log {
	return &Log{now: time.Now}
}

// Subscribe registers fn for future entries.
func (l *Log) Subscribe(fn Subscriber) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.subs = append(l.subs, fn)
}

// Add prepends an entry and returns its ID.
func (l *Log) Add(kind Kind, msg string) ID {
	e := l.entry(kind, msg)

	l.mu.Lock()
	l.lastID++
	e.ID = l.lastID
	l.entries = append([]Entry{e}, l.entries...)
	subs := l.subs
	l.mu.Unlock()

	publish(subs, e)
	return e.ID
}

// Update replaces the entry with the given ID in place, typically turning
// "Generating x..." into "Generated x.". It reports false, changing nothing,
// when no such entry exists.
func (l *Log) Update(id ID, kind Kind, msg string) bool {
	e := l.entry(kind, msg)
	e.ID = id

	l.mu.Lock()
	found := false
	for i := range l.entries {
		if l.entries[i].ID == id {
			l.entries[i] = e
			found = true
			break
		}
	}
	subs := l.subs
	l.mu.Unlock()

	if found {
		publish(subs, e)
	}
	return found
}

// Info, Success and Warn are shorthands for Add.
func (l *Log) Info(msg string)    { l.Add(KindInfo, msg) }
func (l *Log) Success(msg string) { l.Add(KindSuccess, msg) }
func (l *Log) Warn(msg string)    { l.Add(KindWarning, msg) }

// Generating adds a generation entry and returns its ID.
func (l *Log) Generating(msg string) ID { return l.Add(KindGeneration, msg) }

// Entries returns a copy of the log, newest first.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Latest returns the newest entry.
func (l *Log) Latest() (Entry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) == 0 {
		return Entry{}, false
	}
	return l.entries[0], true
}

func (l *Log) entry(kind Kind, msg string) Entry {
	e := Entry{Kind: kind, Message: msg, At: l.now()}
	switch kind {
	case KindWarning:
		slog.Warn(msg, "kind", kind)
	default:
		slog.Info(msg, "kind", kind)
	}
	return e
}

func publish(subs []Subscriber, e Entry) {
	for _, fn := range subs {
		fn(e)
	}
}
