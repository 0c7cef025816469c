package engine

import (
	"time"

	"github.com/KlikkAI/flowsync/op"
	"github.com/KlikkAI/flowsync/util"
)

// DefaultMaxHistory bounds undo depth when WithMaxHistory is not given.
const DefaultMaxHistory = 1000

// HistoryEntry pairs an applied operation with the inverse that undoes it.
// Entries are immutable once recorded; Undo tracks them by pointer identity
// because its own apply call shifts slice indices underneath it.
type HistoryEntry struct {
	Operation op.Operation
	Inverse   op.Operation
	Timestamp time.Time
	UserID    string
}

func (e *Engine) record(entry *HistoryEntry) {
	e.history = append(e.history, entry)
	if len(e.history) > e.maxHistory {
		// FIFO eviction, shifting in place so the backing array stays bounded.
		n := copy(e.history, e.history[1:])
		e.history[n] = nil
		e.history = e.history[:n]
	}
}

// History returns up to limit of the most recent entries, oldest to newest.
// A limit of zero or less returns everything.
func (e *Engine) History(limit int) []HistoryEntry {
	h := e.history
	if limit > 0 && limit < len(h) {
		h = h[len(h)-limit:]
	}
	return util.MapN(h, func(entry *HistoryEntry) (HistoryEntry, error) {
		return *entry, nil
	})
}

// HistoryFor returns the entries authored by one user, oldest to newest.
func (e *Engine) HistoryFor(userID string) []HistoryEntry {
	mine := util.Filter(e.history, func(entry *HistoryEntry) bool {
		return entry.UserID == userID
	})
	return util.MapN(mine, func(entry *HistoryEntry) (HistoryEntry, error) {
		return *entry, nil
	})
}

// ClearHistory is a full engine reset: history, every user's pending set,
// the applied-id record, and the version counter.
func (e *Engine) ClearHistory() {
	e.history = nil
	e.pending = make(map[string][]op.Operation)
	e.applied.Clear()
	e.version = 0
}

// Undo reverses the most recent operation authored by userID by running its
// stored inverse through the full apply pipeline, so the undo is itself
// versioned, recorded, and reversible. The original entry is then removed.
// Returns nil when the user has nothing left to undo.
func (e *Engine) Undo(userID string) (*op.Operation, error) {
	var target *HistoryEntry
	for i := len(e.history) - 1; i >= 0; i-- {
		if e.history[i].UserID == userID {
			target = e.history[i]
			break
		}
	}
	if target == nil {
		return nil, nil
	}

	applied, err := e.Apply(target.Inverse)
	if err != nil {
		return nil, err
	}
	// The apply above appended an entry, so any index captured before it is
	// stale. Remove by identity instead.
	e.remove(target)
	return &applied, nil
}

func (e *Engine) remove(target *HistoryEntry) {
	for i, entry := range e.history {
		if entry == target {
			e.history = append(e.history[:i], e.history[i+1:]...)
			return
		}
	}
}
