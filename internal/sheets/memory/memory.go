package memory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/AppleZ1995/CalendarAssistant/internal/core"
	ports "github.com/AppleZ1995/CalendarAssistant/internal/sheets"
)

// Recorder keeps change entries in memory and logs each one. It stands in
// for the spreadsheet when none is configured.
type Recorder struct {
	mu      sync.Mutex
	entries []core.ChangeEntry
	limit   int
}

var _ ports.ChangeRecorder = (*Recorder)(nil)

// New returns a recorder holding at most limit entries; older entries are
// dropped first. limit <= 0 means unbounded.
func New(limit int) *Recorder {
	return &Recorder{limit: limit}
}

func (r *Recorder) Record(ctx context.Context, e core.ChangeEntry) error {
	r.mu.Lock()
	r.entries = append(r.entries, e)
	if r.limit > 0 && len(r.entries) > r.limit {
		r.entries = append([]core.ChangeEntry(nil), r.entries[len(r.entries)-r.limit:]...)
	}
	r.mu.Unlock()

	slog.InfoContext(ctx, "Change recorded",
		"entity", e.Entity,
		"op", e.Op,
		"id", e.ID,
		"title", e.Title)
	return nil
}

// Entries returns a copy of the recorded entries, oldest first.
func (r *Recorder) Entries() []core.ChangeEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]core.ChangeEntry(nil), r.entries...)
}
