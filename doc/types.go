// Package doc is an in-memory workflow document: the state the engine's
// operations act on. The engine core never holds one of these; the demo
// server materializes snapshots from it, and the tests use it to check that
// transformed operation pairs really converge.
package doc

// Point is a node's position on the workflow canvas.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a workflow step.
type Node struct {
	ID       string         `json:"id"`
	Kind     string         `json:"kind"`
	Name     string         `json:"name,omitempty"`
	Position Point          `json:"position"`
	Props    map[string]any `json:"props,omitempty"`
}

// Edge connects the output of one node to the input of another.
type Edge struct {
	ID     string         `json:"id"`
	Source string         `json:"source"`
	Target string         `json:"target"`
	Props  map[string]any `json:"props,omitempty"`
}

// Document is one collaboratively edited workflow.
type Document struct {
	Nodes map[string]*Node `json:"nodes"`
	Edges map[string]*Edge `json:"edges"`
	Props map[string]any   `json:"props,omitempty"`
}

func New() *Document {
	return &Document{
		Nodes: make(map[string]*Node),
		Edges: make(map[string]*Edge),
		Props: make(map[string]any),
	}
}

// Clone deep-copies the document, for before/after comparison.
func (d *Document) Clone() *Document {
	c := New()
	for id, n := range d.Nodes {
		nc := *n
		nc.Props = cloneMap(n.Props)
		c.Nodes[id] = &nc
	}
	for id, e := range d.Edges {
		ec := *e
		ec.Props = cloneMap(e.Props)
		c.Edges[id] = &ec
	}
	c.Props = cloneMap(d.Props)
	return c
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	c := make(map[string]any, len(m))
	for k, v := range m {
		c[k] = cloneValue(v)
	}
	return c
}

// cloneValue copies the container shapes JSON decoding produces; scalars are
// shared as-is.
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = cloneValue(e)
		}
		return s
	}
	return v
}
