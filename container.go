package architext

import (
	"fmt"
	"iter"
	"reflect"
	"slices"

	"github.com/casualjim/architext/provider"
)

// Entry is a slot value of a Container: a provider.Provider or a *Container.
type Entry interface {
	Visible() bool
	SetVisible(bool)
}

var _ Entry = (*Container)(nil)

// Container is an ordered, mutable sequence of providers and nested containers.
// Every entry occupies exactly one slot in the whole tree: inserting an entry
// that is still held somewhere else fails with ErrOwnership, so moving means
// popping first.
//
// A Container is not safe for concurrent mutation.
type Container struct {
	entries []Entry
	parent  *Container
	hidden  bool
	// set on the body of a Message, which can never be nested
	body bool
}

// NewContainer creates a container holding entries, in order.
func NewContainer(entries ...Entry) (*Container, error) {
	c := &Container{}
	for _, e := range entries {
		if err := c.Append(e); err != nil {
			c.Clear()
			return nil, err
		}
	}
	return c, nil
}

// Nest is like NewContainer but panics when an entry cannot be inserted.
func Nest(entries ...Entry) *Container {
	c, err := NewContainer(entries...)
	if err != nil {
		panic(err)
	}
	return c
}

// Parent returns the container holding c, or nil.
func (c *Container) Parent() *Container { return c.parent }

func (c *Container) Visible() bool { return !c.hidden }

// SetVisible hides or shows the container. A hidden container contributes
// nothing to a render but keeps its entries.
func (c *Container) SetVisible(visible bool) { c.hidden = !visible }

func (c *Container) Len() int { return len(c.entries) }

// At returns the entry at i. Negative indices count from the end.
func (c *Container) At(i int) (Entry, bool) {
	i, ok := index(i, len(c.entries))
	if !ok {
		return nil, false
	}
	return c.entries[i], true
}

// Entries returns a snapshot of the direct entries.
func (c *Container) Entries() []Entry {
	return slices.Clone(c.entries)
}

// Index returns the position of e among the direct entries, or -1.
func (c *Container) Index(e Entry) int {
	return slices.IndexFunc(c.entries, func(x Entry) bool { return x == e })
}

// Contains reports whether e is a direct entry of c.
func (c *Container) Contains(e Entry) bool {
	return c.Index(e) >= 0
}

func (c *Container) Append(e Entry) error {
	return c.Insert(len(c.entries), e)
}

// Insert puts e before position i. Positions out of range are clamped, negative
// positions count from the end.
func (c *Container) Insert(i int, e Entry) error {
	if err := c.check(e, nil); err != nil {
		return err
	}
	if err := c.attach(e); err != nil {
		return err
	}
	c.entries = slices.Insert(c.entries, insertAt(i, len(c.entries)), e)
	return nil
}

// PopAt removes and returns the entry at i.
func (c *Container) PopAt(i int) (Entry, bool) {
	i, ok := index(i, len(c.entries))
	if !ok {
		return nil, false
	}
	e := c.entries[i]
	c.removeAt(i)
	return e, true
}

// Remove removes e when it is a direct entry.
func (c *Container) Remove(e Entry) bool {
	i := c.Index(e)
	if i < 0 {
		return false
	}
	c.removeAt(i)
	return true
}

// Clear removes every entry.
func (c *Container) Clear() {
	for _, e := range c.entries {
		c.detach(e)
	}
	c.entries = nil
}

// Pop removes the first provider named name, searching depth-first in
// document order through nested containers. Hidden entries are searched too.
func (c *Container) Pop(name string) (provider.Provider, bool) {
	for i, e := range c.entries {
		switch v := e.(type) {
		case provider.Provider:
			if v.Name() == name {
				c.removeAt(i)
				return v, true
			}
		case *Container:
			if p, ok := v.Pop(name); ok {
				return p, true
			}
		}
	}
	return nil, false
}

// Find returns every provider named name, in document order.
func (c *Container) Find(name string) Group {
	g := Group{name: name}
	for p := range c.Providers() {
		if p.Name() == name {
			g.members = append(g.members, p)
		}
	}
	return g
}

// Providers yields every provider in the subtree depth-first, hidden ones included.
func (c *Container) Providers() iter.Seq[provider.Provider] {
	return func(yield func(provider.Provider) bool) {
		c.walk(false, yield)
	}
}

// walk visits providers in document order and reports whether to continue.
func (c *Container) walk(visibleOnly bool, yield func(provider.Provider) bool) bool {
	for _, e := range c.entries {
		if visibleOnly && !e.Visible() {
			continue
		}
		switch v := e.(type) {
		case provider.Provider:
			if !yield(v) {
				return false
			}
		case *Container:
			if !v.walk(visibleOnly, yield) {
				return false
			}
		}
	}
	return true
}

// Slice returns a snapshot of the entries in [lo:hi). The entries stay in c.
func (c *Container) Slice(lo, hi int) []Entry {
	lo, hi = bounds(lo, hi, len(c.entries))
	return slices.Clone(c.entries[lo:hi])
}

// SetSlice replaces the entries in [lo:hi) with entries. Entries already inside
// the replaced range may be reused. Nothing changes when any entry is rejected.
func (c *Container) SetSlice(lo, hi int, entries ...Entry) error {
	lo, hi = bounds(lo, hi, len(c.entries))
	replaced := c.entries[lo:hi]

	for i, e := range entries {
		if slices.Contains(entries[:i], e) {
			return fmt.Errorf("%w: %v is listed twice", ErrOwnership, e)
		}
		if err := c.check(e, replaced); err != nil {
			return err
		}
	}

	for _, e := range replaced {
		c.detach(e)
	}
	for _, e := range entries {
		// checked above, the only possible owner left is nobody
		_ = c.attach(e)
	}
	c.entries = slices.Concat(c.entries[:lo:lo], entries, c.entries[hi:])
	return nil
}

// Concat moves the entries of c and then of others, in that order, into a new
// container. The operands are left empty.
func (c *Container) Concat(others ...*Container) (*Container, error) {
	operands := append([]*Container{c}, others...)
	for i, o := range operands {
		if o == nil {
			return nil, fmt.Errorf("%w: nil container", ErrInvalidEntry)
		}
		if slices.Contains(operands[:i], o) {
			return nil, fmt.Errorf("%w: container is listed twice", ErrInvalidEntry)
		}
	}

	var moved []Entry
	for _, o := range operands {
		moved = append(moved, o.entries...)
		o.Clear()
	}
	out := &Container{}
	for _, e := range moved {
		_ = out.attach(e)
	}
	out.entries = moved
	return out, nil
}

func (c *Container) removeAt(i int) {
	c.detach(c.entries[i])
	c.entries = slices.Delete(c.entries, i, i+1)
}

// check validates that e can be placed in c. Entries in reusable are currently
// held by c but about to be released.
func (c *Container) check(e Entry, reusable []Entry) error {
	switch v := e.(type) {
	case nil:
		return fmt.Errorf("%w: nil", ErrInvalidEntry)
	case provider.Provider:
		if isNilPointer(v) {
			return fmt.Errorf("%w: nil %T", ErrInvalidEntry, v)
		}
		if owner := v.Owner(); owner != nil && !(owner == any(c) && slices.Contains(reusable, e)) {
			return fmt.Errorf("%w: %v: %w", ErrOwnership, v, provider.ErrAlreadyOwned)
		}
	case *Container:
		if v == nil {
			return fmt.Errorf("%w: nil container", ErrInvalidEntry)
		}
		if v.body {
			return fmt.Errorf("%w: a message body cannot be nested", ErrInvalidEntry)
		}
		for a := c; a != nil; a = a.parent {
			if a == v {
				return ErrCycle
			}
		}
		if v.parent != nil && !(v.parent == c && slices.Contains(reusable, e)) {
			return fmt.Errorf("%w: container", ErrOwnership)
		}
	default:
		return fmt.Errorf("%w: %T", ErrInvalidEntry, e)
	}
	return nil
}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

func (c *Container) attach(e Entry) error {
	switch v := e.(type) {
	case provider.Provider:
		if err := v.Attach(c); err != nil {
			return fmt.Errorf("%w: %v: %w", ErrOwnership, v, err)
		}
	case *Container:
		v.parent = c
	}
	return nil
}

func (c *Container) detach(e Entry) {
	switch v := e.(type) {
	case provider.Provider:
		v.Detach(c)
	case *Container:
		if v.parent == c {
			v.parent = nil
		}
	}
}
