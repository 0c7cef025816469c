package op

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrMissingID   = errors.New("operation id is required")
	ErrMissingUser = errors.New("operation userId is required")
	ErrUnknownType = errors.New("unknown operation type")
)

// New mints an operation with a fresh id and the current time. Callers that
// build Operations by hand must fill ID and Timestamp themselves; the engine
// refuses operations without an id.
func New(t Type, userID string, path ...string) Operation {
	return Operation{
		ID:        uuid.NewString(),
		Type:      t,
		Path:      path,
		UserID:    userID,
		Timestamp: time.Now(),
	}
}

// Validate checks the required fields and fills a zero Timestamp with the
// current time. It never assigns a Version; that is the engine's job.
func (o *Operation) Validate() error {
	if o.ID == "" {
		return ErrMissingID
	}
	if !o.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownType, o.Type)
	}
	if o.UserID == "" {
		return ErrMissingUser
	}
	if o.Timestamp.IsZero() {
		o.Timestamp = time.Now()
	}
	return nil
}

// Clone returns a copy that shares no Path or Data memory with o. Transform
// rules and history entries only ever touch clones.
func (o Operation) Clone() Operation {
	c := o
	if o.Path != nil {
		c.Path = append([]string(nil), o.Path...)
	}
	if o.Data != nil {
		c.Data = make(map[string]any, len(o.Data))
		for k, v := range o.Data {
			c.Data[k] = v
		}
	}
	return c
}

// SamePath reports whether two operations target the same element.
func SamePath(a, b Operation) bool {
	if len(a.Path) != len(b.Path) {
		return false
	}
	for i := range a.Path {
		if a.Path[i] != b.Path[i] {
			return false
		}
	}
	return true
}

// Text returns the text payload of a text.insert, empty when absent.
func (o Operation) Text() string {
	if s, ok := o.Data["text"].(string); ok {
		return s
	}
	return ""
}

// TextLength is the span an insert occupies: the explicit Length when set,
// otherwise the length of the text payload.
func (o Operation) TextLength() int {
	if o.Length > 0 {
		return o.Length
	}
	return len([]rune(o.Text()))
}
