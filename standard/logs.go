package standard

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/st-keller/inspection/attribute"
	"github.com/st-keller/inspection/coordinator"
	"github.com/st-keller/inspection/group"
)

// LogEntry is one captured log line.
type LogEntry struct {
	Time    time.Time
	Level   zerolog.Level
	Message string
}

// RecentLogs keeps the last log lines of a zerolog logger. Install it with
// logger.Hook(recent).
type RecentLogs struct {
	mu      sync.Mutex
	entries []LogEntry
	max     int
	counts  map[zerolog.Level]int
}

// NewRecentLogs creates a buffer of up to size entries (100 when size <= 0).
func NewRecentLogs(size int) *RecentLogs {
	if size <= 0 {
		size = 100
	}
	return &RecentLogs{
		entries: make([]LogEntry, 0, size),
		max:     size,
		counts:  make(map[zerolog.Level]int),
	}
}

// Run implements zerolog.Hook.
func (r *RecentLogs) Run(_ *zerolog.Event, level zerolog.Level, msg string) {
	if level == zerolog.NoLevel || level == zerolog.Disabled {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, LogEntry{Time: time.Now().UTC(), Level: level, Message: msg})
	if len(r.entries) > r.max {
		r.entries = r.entries[len(r.entries)-r.max:]
	}
	r.counts[level]++
}

// Entries returns a copy of the buffered entries, oldest first.
func (r *RecentLogs) Entries() []LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]LogEntry(nil), r.entries...)
}

// Count returns how many entries at level were seen since creation.
func (r *RecentLogs) Count(level zerolog.Level) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[level]
}

// Last returns the newest entry at level or above.
func (r *RecentLogs) Last(floor zerolog.Level) (LogEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].Level >= floor {
			return r.entries[i], true
		}
	}
	return LogEntry{}, false
}

func (r *RecentLogs) lastMessage(floor zerolog.Level) attribute.Getter {
	return func() (attribute.Value, bool) {
		e, ok := r.Last(floor)
		return attribute.String(e.Message), ok
	}
}

// PrepareInspection contributes counts and the latest problems.
func (r *RecentLogs) PrepareInspection(c *coordinator.Coordinator) {
	c.AppendDynamic(group.General,
		attribute.Prop("buffered", attribute.IntOf(func() int { return len(r.Entries()) })),
		attribute.Prop("lastError", r.lastMessage(zerolog.ErrorLevel)),
		attribute.Prop("lastWarning", r.lastMessage(zerolog.WarnLevel)),
	)
	c.AppendDynamicNamed(group.States, map[string]string{
		"errors":   "Errors",
		"warnings": "Warnings",
		"infos":    "Info",
	},
		attribute.Prop("errors", attribute.IntOf(func() int { return r.Count(zerolog.ErrorLevel) })),
		attribute.Prop("warnings", attribute.IntOf(func() int { return r.Count(zerolog.WarnLevel) })),
		attribute.Prop("infos", attribute.IntOf(func() int { return r.Count(zerolog.InfoLevel) })),
	)
}
