package op_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KlikkAI/flowsync/op"
)

func TestNew(t *testing.T) {
	a := op.New(op.ArrayInsert, "alice", "n1", "steps")
	b := op.New(op.ArrayInsert, "alice", "n1", "steps")

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, op.ArrayInsert, a.Type)
	assert.Equal(t, "alice", a.UserID)
	assert.Equal(t, []string{"n1", "steps"}, a.Path)
	assert.False(t, a.Timestamp.IsZero())
	assert.Zero(t, a.Version)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*op.Operation)
		wantErr error
	}{
		{"valid", func(o *op.Operation) {}, nil},
		{"missing id", func(o *op.Operation) { o.ID = "" }, op.ErrMissingID},
		{"missing user", func(o *op.Operation) { o.UserID = "" }, op.ErrMissingUser},
		{"missing type", func(o *op.Operation) { o.Type = "" }, op.ErrUnknownType},
		{"unknown type", func(o *op.Operation) { o.Type = "node.rename" }, op.ErrUnknownType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := op.New(op.NodeAdd, "alice", "n1")
			tt.mutate(&o)
			err := o.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestValidateFillsTimestamp(t *testing.T) {
	o := op.New(op.NodeAdd, "alice", "n1")
	o.Timestamp = time.Time{}
	require.NoError(t, o.Validate())
	assert.False(t, o.Timestamp.IsZero())
}

func TestValidateKeepsTimestamp(t *testing.T) {
	o := op.New(op.NodeAdd, "alice", "n1")
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	o.Timestamp = ts
	require.NoError(t, o.Validate())
	assert.Equal(t, ts, o.Timestamp)
}

func TestTypeValid(t *testing.T) {
	for _, typ := range []op.Type{
		op.NodeAdd, op.NodeUpdate, op.NodeDelete, op.NodeMove,
		op.EdgeAdd, op.EdgeUpdate, op.EdgeDelete,
		op.PropertySet, op.PropertyDelete,
		op.ArrayInsert, op.ArrayDelete, op.ArrayMove,
		op.TextInsert, op.TextDelete,
		op.DocumentUpdate,
	} {
		assert.True(t, typ.Valid(), "%s should be valid", typ)
	}
	assert.False(t, op.Type("").Valid())
	assert.False(t, op.Type("array.reverse").Valid())
}

func TestCloneSharesNothing(t *testing.T) {
	o := op.New(op.PropertySet, "alice", "n1", "url")
	o.Data = map[string]any{"value": "https://example.com"}

	c := o.Clone()
	c.Path[0] = "n2"
	c.Data["value"] = "changed"

	assert.Equal(t, "n1", o.Path[0])
	assert.Equal(t, "https://example.com", o.Data["value"])
}

func TestSamePath(t *testing.T) {
	a := op.New(op.ArrayInsert, "alice", "n1", "steps")
	b := op.New(op.ArrayInsert, "bob", "n1", "steps")
	c := op.New(op.ArrayInsert, "bob", "n2", "steps")
	d := op.New(op.ArrayInsert, "bob", "n1")

	assert.True(t, op.SamePath(a, b))
	assert.False(t, op.SamePath(a, c))
	assert.False(t, op.SamePath(a, d))
}

func TestTextLength(t *testing.T) {
	o := op.New(op.TextInsert, "alice", "n1", "notes")
	o.Data = map[string]any{"text": "héllo"}
	assert.Equal(t, 5, o.TextLength()) // runes, not bytes

	o.Length = 3
	assert.Equal(t, 3, o.TextLength())

	empty := op.New(op.TextInsert, "alice", "n1", "notes")
	assert.Equal(t, 0, empty.TextLength())
}
