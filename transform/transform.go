// Package transform holds the pairwise operational-transform rules. Given two
// operations derived from the same base document state, Transform adjusts
// them so that either application order converges on the same document.
package transform

import (
	"github.com/KlikkAI/flowsync/op"
)

// Result is the adjusted pair. A is the first argument rebased over the
// second, B the second rebased over the first: apply(apply(S, a), r.B) and
// apply(apply(S, b), r.A) reach the same state.
//
// Conflict marks a pair the rules cannot merge automatically. No shipped rule
// sets it yet, but callers must branch on it: a true result means escalate,
// not apply.
type Result struct {
	A        op.Operation
	B        op.Operation
	Conflict bool
}

// lastWriterWins covers the non-positional variants: whoever wrote later (by
// timestamp, then by user id) has their payload stick on both replicas.
var lastWriterWins = map[op.Type]bool{
	op.NodeAdd:        true,
	op.NodeUpdate:     true,
	op.NodeMove:       true,
	op.EdgeAdd:        true,
	op.EdgeUpdate:     true,
	op.PropertySet:    true,
	op.PropertyDelete: true,
	op.ArrayMove:      true,
	op.DocumentUpdate: true,
}

// Transform rebases two concurrent operations against each other. Pure:
// inputs are cloned, never mutated, and the result depends only on the two
// operations. Pairs on different paths are independent and pass through
// unchanged, as do variant pairs with no dedicated rule.
func Transform(a, b op.Operation) Result {
	a, b = a.Clone(), b.Clone()
	if !op.SamePath(a, b) {
		return Result{A: a, B: b}
	}

	switch {
	case a.Type == op.ArrayInsert && b.Type == op.ArrayInsert:
		return arrayInsertInsert(a, b)
	case a.Type == op.ArrayDelete && b.Type == op.ArrayDelete:
		return arrayDeleteDelete(a, b)
	case a.Type == op.ArrayInsert && b.Type == op.ArrayDelete:
		a, b = arrayInsertDelete(a, b)
	case a.Type == op.ArrayDelete && b.Type == op.ArrayInsert:
		b, a = arrayInsertDelete(b, a)
	case a.Type == op.TextInsert && b.Type == op.TextInsert:
		return textInsertInsert(a, b)
	case a.Type == op.TextDelete && b.Type == op.TextDelete:
		return textDeleteDelete(a, b)
	case a.Type == op.TextInsert && b.Type == op.TextDelete:
		a, b = textInsertDelete(a, b)
	case a.Type == op.TextDelete && b.Type == op.TextInsert:
		b, a = textInsertDelete(b, a)
	case a.Type == b.Type && lastWriterWins[a.Type]:
		return resolveLastWriter(a, b)
	}
	return Result{A: a, B: b}
}

// arrayInsertInsert: the lower index keeps its slot, the other shifts past
// the inserted element. Equal indices break by user id, lexically smaller
// first. The comparison is strict so that equal users — the pending-fold
// case, where a is the incoming op and b an edit already in flight — shift
// the incoming op past the pending one.
func arrayInsertInsert(a, b op.Operation) Result {
	switch {
	case a.Position < b.Position:
		b.Position++
	case b.Position < a.Position:
		a.Position++
	case a.UserID < b.UserID:
		b.Position++
	default:
		a.Position++
	}
	return Result{A: a, B: b}
}

// arrayDeleteDelete: the higher index shifts down to account for the removal
// below it. When both target the same element, the earlier timestamp performs
// the deletion and the later operation is rewritten to the complementary
// insert, so the element is put back rather than deleted twice.
func arrayDeleteDelete(a, b op.Operation) Result {
	switch {
	case a.Position < b.Position:
		b.Position--
	case b.Position < a.Position:
		a.Position--
	case firstWriter(a, b):
		b.Type = op.ArrayInsert
	default:
		a.Type = op.ArrayInsert
	}
	return Result{A: a, B: b}
}

// arrayInsertDelete: an insert at or before the deletion point pushes the
// deletion forward; otherwise the insert lands after the removal and shifts
// back.
func arrayInsertDelete(ins, del op.Operation) (op.Operation, op.Operation) {
	if ins.Position <= del.Position {
		del.Position++
	} else {
		ins.Position--
	}
	return ins, del
}

func textInsertInsert(a, b op.Operation) Result {
	switch {
	case a.Position < b.Position:
		b.Position += a.TextLength()
	case b.Position < a.Position:
		a.Position += b.TextLength()
	case a.UserID < b.UserID:
		b.Position += a.TextLength()
	default:
		a.Position += b.TextLength()
	}
	return Result{A: a, B: b}
}

// textDeleteDelete: disjoint ranges shift the later start back by the earlier
// removal; overlapping ranges subtract the overlap from both and anchor both
// at the smaller original position.
func textDeleteDelete(a, b op.Operation) Result {
	aEnd, bEnd := a.Position+a.Length, b.Position+b.Length
	switch {
	case aEnd <= b.Position:
		b.Position -= a.Length
	case bEnd <= a.Position:
		a.Position -= b.Length
	default:
		pos := min(a.Position, b.Position)
		overlap := min(aEnd, bEnd) - max(a.Position, b.Position)
		a.Position, b.Position = pos, pos
		a.Length -= overlap
		b.Length -= overlap
	}
	return Result{A: a, B: b}
}

// textInsertDelete: an insert before the deleted range pushes it forward, an
// insert past it shifts back, and an insert strictly inside collapses to
// nothing while the deletion widens to cover it.
func textInsertDelete(ins, del op.Operation) (op.Operation, op.Operation) {
	n := ins.TextLength()
	switch {
	case ins.Position <= del.Position:
		del.Position += n
	case ins.Position >= del.Position+del.Length:
		ins.Position -= del.Length
	default:
		del.Length += n
		ins.Position = del.Position
		ins.Length = 0
		if ins.Data != nil {
			ins.Data["text"] = ""
		}
	}
	return ins, del
}

// resolveLastWriter rewrites the loser's payload to the winner's so the final
// state is the winner's regardless of application order.
func resolveLastWriter(a, b op.Operation) Result {
	if laterWriter(a, b) {
		b.Data, b.From, b.To = cloneData(a.Data), a.From, a.To
	} else {
		a.Data, a.From, a.To = cloneData(b.Data), b.From, b.To
	}
	return Result{A: a, B: b}
}

// firstWriter reports whether a precedes b: earlier timestamp, then lexically
// smaller user id for identical clocks. Strict, so equal users — the
// pending-fold case — never rank the first argument ahead of an edit already
// in flight.
func firstWriter(a, b op.Operation) bool {
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.Before(b.Timestamp)
	}
	return a.UserID < b.UserID
}

// laterWriter reports whether a wins a last-writer race against b: later
// timestamp, with the lexically smaller user id winning identical clocks —
// the same direction as the insert tie-break.
func laterWriter(a, b op.Operation) bool {
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.After(b.Timestamp)
	}
	return a.UserID < b.UserID
}

func cloneData(d map[string]any) map[string]any {
	if d == nil {
		return nil
	}
	c := make(map[string]any, len(d))
	for k, v := range d {
		c[k] = v
	}
	return c
}
