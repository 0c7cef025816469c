package engine

import (
	"time"

	"github.com/KlikkAI/flowsync/op"
)

// Inverse builds the operation that reverses o, the basis for undo. The
// inverse gets a fresh derived id and its own timestamp, never a version.
//
// Property inverses depend on the caller having recorded the prior value in
// Data["oldValue"] at submission time; the engine cannot reconstruct it.
// Without one the inverse is an empty property.set. Variants with no natural
// inverse (node/edge/document updates without recorded prior state) come back
// identity-shaped.
func Inverse(o op.Operation) op.Operation {
	inv := o.Clone()
	inv.ID = o.ID + ".inverse"
	inv.Timestamp = time.Now()
	inv.Version = 0

	switch o.Type {
	case op.NodeAdd:
		inv.Type = op.NodeDelete
	case op.NodeDelete:
		inv.Type = op.NodeAdd
	case op.EdgeAdd:
		inv.Type = op.EdgeDelete
	case op.EdgeDelete:
		inv.Type = op.EdgeAdd
	case op.ArrayInsert:
		inv.Type = op.ArrayDelete
	case op.ArrayDelete:
		inv.Type = op.ArrayInsert
	case op.TextInsert:
		inv.Type = op.TextDelete
		inv.Length = o.TextLength()
	case op.TextDelete:
		// Restores content only if the caller recorded it in Data["text"].
		inv.Type = op.TextInsert
	case op.NodeMove, op.ArrayMove:
		inv.From, inv.To = o.To, o.From
	case op.PropertySet, op.PropertyDelete:
		inv.Type = op.PropertySet
		inv.Data = make(map[string]any)
		if old, ok := o.Data["oldValue"]; ok {
			inv.Data["value"] = old
			if cur, ok := o.Data["value"]; ok {
				inv.Data["oldValue"] = cur
			}
		}
	case op.NodeUpdate, op.EdgeUpdate, op.DocumentUpdate:
		// identity-shaped
	}
	return inv
}
