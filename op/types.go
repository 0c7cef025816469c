package op

import (
	"time"

	mapset "github.com/deckarep/golang-set/v2"
)

// Type tags one kind of document edit. The catalog is closed: transform and
// inverse logic switch over every tag, and Valid rejects anything else.
type Type string

const (
	NodeAdd    Type = "node.add"
	NodeUpdate Type = "node.update"
	NodeDelete Type = "node.delete"
	NodeMove   Type = "node.move"

	EdgeAdd    Type = "edge.add"
	EdgeUpdate Type = "edge.update"
	EdgeDelete Type = "edge.delete"

	PropertySet    Type = "property.set"
	PropertyDelete Type = "property.delete"

	ArrayInsert Type = "array.insert"
	ArrayDelete Type = "array.delete"
	ArrayMove   Type = "array.move"

	TextInsert Type = "text.insert"
	TextDelete Type = "text.delete"

	DocumentUpdate Type = "document.update"
)

var catalog = mapset.NewSet(
	NodeAdd, NodeUpdate, NodeDelete, NodeMove,
	EdgeAdd, EdgeUpdate, EdgeDelete,
	PropertySet, PropertyDelete,
	ArrayInsert, ArrayDelete, ArrayMove,
	TextInsert, TextDelete,
	DocumentUpdate,
)

// Valid reports whether t is one of the cataloged tags.
func (t Type) Valid() bool {
	return catalog.Contains(t)
}

// Operation is a single edit to a shared workflow document.
//
// Path locates the target: [nodeID] for node ops, [edgeID] for edge ops,
// [nodeID, field] for property/array/text ops, empty for document ops.
// Position/Length are meaningful for array and text ops, From/To for moves,
// Data for everything that carries a payload. Fields a variant does not use
// stay zero.
type Operation struct {
	ID        string         `json:"id"`
	Type      Type           `json:"type"`
	Path      []string       `json:"path,omitempty"`
	UserID    string         `json:"userId"`
	Timestamp time.Time      `json:"timestamp"`
	Version   int            `json:"version,omitempty"` // assigned by the engine at apply time
	Data      map[string]any `json:"data,omitempty"`
	Position  int            `json:"position,omitempty"`
	Length    int            `json:"length,omitempty"`
	From      any            `json:"from,omitempty"`
	To        any            `json:"to,omitempty"`
}
