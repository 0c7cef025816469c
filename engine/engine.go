// Package engine is the authoritative conflict-resolution core for one
// collaboratively edited workflow document. One Engine per document; all
// calls for a document must be serialized by the caller (see cmd/server for
// the single-consumer-queue shape). The engine takes no locks itself.
package engine

import (
	"errors"
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/KlikkAI/flowsync/op"
	"github.com/KlikkAI/flowsync/transform"
	"github.com/KlikkAI/flowsync/util"
)

// ErrDuplicateID is returned when an already-applied operation id is
// submitted again, e.g. on transport re-delivery.
var ErrDuplicateID = errors.New("operation id already applied")

// Hooks are the engine's outbound notifications. Both are optional; the
// applied operation is also the return value of Apply, so callers that only
// broadcast can skip OperationApplied entirely.
type Hooks struct {
	// OperationApplied receives every successfully applied operation, after
	// transformation and versioning.
	OperationApplied func(op.Operation)
	// ConflictDetected receives the incoming and pending operation of any
	// transform step that reports a conflict. The apply still proceeds.
	ConflictDetected func(incoming, pending op.Operation)
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithMaxHistory bounds the undo history. Values below one fall back to the
// default.
func WithMaxHistory(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxHistory = n
		}
	}
}

// WithHooks installs the notification callbacks.
func WithHooks(h Hooks) Option {
	return func(e *Engine) { e.hooks = h }
}

// Engine owns the version counter, bounded history, and per-user pending
// operations for a single document.
type Engine struct {
	maxHistory int
	hooks      Hooks

	history []*HistoryEntry
	pending map[string][]op.Operation // [userId] : ops submitted but not yet acknowledged
	applied mapset.Set[string]        // ids that have been through Apply
	version int
}

func New(opts ...Option) *Engine {
	e := &Engine{
		maxHistory: DefaultMaxHistory,
		pending:    make(map[string][]op.Operation),
		applied:    mapset.NewSet[string](),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Apply runs the full pipeline: validate, transform against the submitting
// user's pending operations, build the inverse, assign the next version,
// record in history, notify. On a validation failure nothing is mutated.
func (e *Engine) Apply(o op.Operation) (op.Operation, error) {
	o = o.Clone()
	if err := o.Validate(); err != nil {
		return op.Operation{}, err
	}
	if e.applied.Contains(o.ID) {
		return op.Operation{}, fmt.Errorf("%w: %s", ErrDuplicateID, o.ID)
	}

	// Fast-forward across edits the same user already has in flight.
	o = util.Reduce(e.pending[o.UserID], func(p op.Operation, acc op.Operation) op.Operation {
		r := transform.Transform(acc, p)
		if r.Conflict && e.hooks.ConflictDetected != nil {
			e.hooks.ConflictDetected(acc.Clone(), p.Clone())
		}
		return r.A
	}, o)

	inverse := Inverse(o)

	e.version++
	o.Version = e.version
	e.record(&HistoryEntry{
		Operation: o.Clone(),
		Inverse:   inverse,
		Timestamp: o.Timestamp,
		UserID:    o.UserID,
	})
	e.applied.Add(o.ID)

	if e.hooks.OperationApplied != nil {
		e.hooks.OperationApplied(o.Clone())
	}
	return o, nil
}

// Version is the number of operations applied since the last reset.
func (e *Engine) Version() int {
	return e.version
}

// SetPendingOperations replaces the pending set for a user. The engine never
// drains this itself; the transport clears it once acknowledgement arrives.
func (e *Engine) SetPendingOperations(userID string, ops []op.Operation) {
	cloned := make([]op.Operation, len(ops))
	for i, o := range ops {
		cloned[i] = o.Clone()
	}
	e.pending[userID] = cloned
}

func (e *Engine) ClearPendingOperations(userID string) {
	delete(e.pending, userID)
}

// PendingOperations returns a copy of the user's pending set.
func (e *Engine) PendingOperations(userID string) []op.Operation {
	ops := e.pending[userID]
	out := make([]op.Operation, len(ops))
	for i, o := range ops {
		out[i] = o.Clone()
	}
	return out
}
