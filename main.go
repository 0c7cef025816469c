package main

import (
	"fmt"

	"github.com/sanity-io/litter"

	"github.com/KlikkAI/flowsync/doc"
	"github.com/KlikkAI/flowsync/op"
	"github.com/KlikkAI/flowsync/transform"
)

// Two editors concurrently insert a step into the same node's "steps" array
// at the same index. Each replica applies its local edit first and the
// transformed remote edit second; both must land on the same array.
func main() {
	litter.Config.HidePrivateFields = false

	replica1, replica2 := doc.New(), doc.New()
	for _, d := range []*doc.Document{replica1, replica2} {
		add := op.New(op.NodeAdd, "alice", "n1")
		add.Data = map[string]any{"kind": "http.request", "name": "Fetch"}
		if err := d.Apply(add); err != nil {
			panic(err)
		}
	}

	a := op.New(op.ArrayInsert, "alice", "n1", "steps")
	a.Position = 0
	a.Data = map[string]any{"value": "validate"}

	b := op.New(op.ArrayInsert, "bob", "n1", "steps")
	b.Position = 0
	b.Data = map[string]any{"value": "retry"}

	r := transform.Transform(a, b)

	// replica1 saw a first, then the rebased b.
	mustApply(replica1, a)
	mustApply(replica1, r.B)
	// replica2 saw b first, then the rebased a.
	mustApply(replica2, b)
	mustApply(replica2, r.A)

	steps1 := replica1.Nodes["n1"].Props["steps"].([]any)
	steps2 := replica2.Nodes["n1"].Props["steps"].([]any)
	litter.Dump(steps1)
	litter.Dump(steps2)

	if len(steps1) != len(steps2) {
		fmt.Println("Lengths differ")
		return
	}
	fmt.Println("Lengths match")
	for i := range steps1 {
		if steps1[i] != steps2[i] {
			fmt.Printf("Position %d differs: replica1=%v, replica2=%v\n", i, steps1[i], steps2[i])
		}
	}
}

func mustApply(d *doc.Document, o op.Operation) {
	if err := d.Apply(o); err != nil {
		panic(err)
	}
}
