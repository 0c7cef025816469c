package doc

import (
	"errors"
	"fmt"

	"github.com/KlikkAI/flowsync/op"
)

var (
	ErrBadPath     = errors.New("operation path does not match its variant")
	ErrNoSuchNode  = errors.New("no such node")
	ErrNoSuchEdge  = errors.New("no such edge")
	ErrOutOfBounds = errors.New("position out of bounds")
	ErrNotArray    = errors.New("field is not an array")
	ErrNotText     = errors.New("field is not text")
)

// Apply mutates the document per one operation. Deletes of already-absent
// nodes and edges are no-ops (concurrent deletes of the same element pass
// through the transform untouched); positional operations are bounds-checked
// and fail without mutating anything.
func (d *Document) Apply(o op.Operation) error {
	switch o.Type {
	case op.NodeAdd:
		return d.addNode(o)
	case op.NodeUpdate:
		return d.updateNode(o)
	case op.NodeDelete:
		id, err := pathID(o)
		if err != nil {
			return err
		}
		delete(d.Nodes, id)
		return nil
	case op.NodeMove:
		return d.moveNode(o)
	case op.EdgeAdd:
		return d.addEdge(o)
	case op.EdgeUpdate:
		return d.updateEdge(o)
	case op.EdgeDelete:
		id, err := pathID(o)
		if err != nil {
			return err
		}
		delete(d.Edges, id)
		return nil
	case op.PropertySet:
		return d.setProperty(o)
	case op.PropertyDelete:
		return d.deleteProperty(o)
	case op.ArrayInsert, op.ArrayDelete, op.ArrayMove:
		return d.applyArray(o)
	case op.TextInsert, op.TextDelete:
		return d.applyText(o)
	case op.DocumentUpdate:
		if d.Props == nil {
			d.Props = make(map[string]any)
		}
		for k, v := range o.Data {
			d.Props[k] = v
		}
		return nil
	}
	return fmt.Errorf("unhandled operation type %q", o.Type)
}

func (d *Document) addNode(o op.Operation) error {
	id, err := pathID(o)
	if err != nil {
		return err
	}
	n := &Node{ID: id, Props: make(map[string]any)}
	for k, v := range o.Data {
		switch k {
		case "kind":
			n.Kind, _ = v.(string)
		case "name":
			n.Name, _ = v.(string)
		case "position":
			n.Position = toPoint(v)
		default:
			n.Props[k] = v
		}
	}
	d.Nodes[id] = n
	return nil
}

func (d *Document) updateNode(o op.Operation) error {
	n, err := d.node(o)
	if err != nil {
		return err
	}
	for k, v := range o.Data {
		switch k {
		case "name":
			n.Name, _ = v.(string)
		case "kind":
			n.Kind, _ = v.(string)
		default:
			if n.Props == nil {
				n.Props = make(map[string]any)
			}
			n.Props[k] = v
		}
	}
	return nil
}

func (d *Document) moveNode(o op.Operation) error {
	n, err := d.node(o)
	if err != nil {
		return err
	}
	n.Position = toPoint(o.To)
	return nil
}

func (d *Document) addEdge(o op.Operation) error {
	id, err := pathID(o)
	if err != nil {
		return err
	}
	e := &Edge{ID: id, Props: make(map[string]any)}
	for k, v := range o.Data {
		switch k {
		case "source":
			e.Source, _ = v.(string)
		case "target":
			e.Target, _ = v.(string)
		default:
			e.Props[k] = v
		}
	}
	d.Edges[id] = e
	return nil
}

func (d *Document) updateEdge(o op.Operation) error {
	id, err := pathID(o)
	if err != nil {
		return err
	}
	e, ok := d.Edges[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoSuchEdge, id)
	}
	for k, v := range o.Data {
		if e.Props == nil {
			e.Props = make(map[string]any)
		}
		e.Props[k] = v
	}
	return nil
}

// setProperty writes [nodeID, field] into the node's props, or [field] into
// the document's own props.
func (d *Document) setProperty(o op.Operation) error {
	props, field, err := d.propTarget(o)
	if err != nil {
		return err
	}
	props[field] = o.Data["value"]
	return nil
}

func (d *Document) deleteProperty(o op.Operation) error {
	props, field, err := d.propTarget(o)
	if err != nil {
		return err
	}
	delete(props, field)
	return nil
}

func (d *Document) applyArray(o op.Operation) error {
	props, field, err := d.propTarget(o)
	if err != nil {
		return err
	}
	arr, ok := props[field].([]any)
	if !ok && props[field] != nil {
		return fmt.Errorf("%w: %s", ErrNotArray, field)
	}

	switch o.Type {
	case op.ArrayInsert:
		if o.Position < 0 || o.Position > len(arr) {
			return fmt.Errorf("%w: insert at %d of %d", ErrOutOfBounds, o.Position, len(arr))
		}
		arr = append(arr, nil)
		copy(arr[o.Position+1:], arr[o.Position:])
		arr[o.Position] = o.Data["value"]
	case op.ArrayDelete:
		if o.Position < 0 || o.Position >= len(arr) {
			return fmt.Errorf("%w: delete at %d of %d", ErrOutOfBounds, o.Position, len(arr))
		}
		arr = append(arr[:o.Position], arr[o.Position+1:]...)
	case op.ArrayMove:
		from, to := toInt(o.From), toInt(o.To)
		if from < 0 || from >= len(arr) || to < 0 || to >= len(arr) {
			return fmt.Errorf("%w: move %d to %d of %d", ErrOutOfBounds, from, to, len(arr))
		}
		v := arr[from]
		arr = append(arr[:from], arr[from+1:]...)
		arr = append(arr[:to], append([]any{v}, arr[to:]...)...)
	}
	props[field] = arr
	return nil
}

func (d *Document) applyText(o op.Operation) error {
	props, field, err := d.propTarget(o)
	if err != nil {
		return err
	}
	text, ok := props[field].(string)
	if !ok && props[field] != nil {
		return fmt.Errorf("%w: %s", ErrNotText, field)
	}
	runes := []rune(text)

	switch o.Type {
	case op.TextInsert:
		if o.Position < 0 || o.Position > len(runes) {
			return fmt.Errorf("%w: insert at %d of %d", ErrOutOfBounds, o.Position, len(runes))
		}
		ins := []rune(o.Text())
		runes = append(runes[:o.Position], append(ins, runes[o.Position:]...)...)
	case op.TextDelete:
		if o.Position < 0 || o.Position+o.Length > len(runes) {
			return fmt.Errorf("%w: delete [%d,%d) of %d", ErrOutOfBounds, o.Position, o.Position+o.Length, len(runes))
		}
		runes = append(runes[:o.Position], runes[o.Position+o.Length:]...)
	}
	props[field] = string(runes)
	return nil
}

// propTarget resolves a property-style path to the map holding the field.
func (d *Document) propTarget(o op.Operation) (map[string]any, string, error) {
	switch len(o.Path) {
	case 1:
		if d.Props == nil {
			d.Props = make(map[string]any)
		}
		return d.Props, o.Path[0], nil
	case 2:
		n, ok := d.Nodes[o.Path[0]]
		if !ok {
			return nil, "", fmt.Errorf("%w: %s", ErrNoSuchNode, o.Path[0])
		}
		if n.Props == nil {
			n.Props = make(map[string]any)
		}
		return n.Props, o.Path[1], nil
	}
	return nil, "", fmt.Errorf("%w: %v for %s", ErrBadPath, o.Path, o.Type)
}

func (d *Document) node(o op.Operation) (*Node, error) {
	id, err := pathID(o)
	if err != nil {
		return nil, err
	}
	n, ok := d.Nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchNode, id)
	}
	return n, nil
}

func pathID(o op.Operation) (string, error) {
	if len(o.Path) != 1 {
		return "", fmt.Errorf("%w: %v for %s", ErrBadPath, o.Path, o.Type)
	}
	return o.Path[0], nil
}

func toPoint(v any) Point {
	switch p := v.(type) {
	case Point:
		return p
	case map[string]any:
		return Point{X: toFloat(p["x"]), Y: toFloat(p["y"])}
	}
	return Point{}
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case float64: // JSON numbers decode as float64
		return int(n)
	}
	return -1
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	}
	return 0
}
