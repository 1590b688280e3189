// Package registry holds named values that can be registered from anywhere,
// such as the provider factories used by layouts.
package registry

import (
	"errors"
	"fmt"
	"slices"

	"github.com/alphadose/haxmap"
)

// ErrDuplicate is returned when a name is registered twice.
var ErrDuplicate = errors.New("already registered")

// Registry is a concurrent name to value map.
type Registry[T any] interface {
	Get(name string) (T, bool)
	// Register adds value under name, failing when the name is taken.
	Register(name string, value T) error
	// Set adds or replaces value under name.
	Set(name string, value T)
	// Del removes name. Removing an unknown name is a no-op.
	Del(name string)
	// Names returns the registered names, sorted.
	Names() []string
}

type registry[T any] struct {
	values *haxmap.Map[string, T]
}

func New[T any]() Registry[T] {
	return &registry[T]{
		values: haxmap.New[string, T](),
	}
}

func (r *registry[T]) Get(name string) (T, bool) {
	return r.values.Get(name)
}

func (r *registry[T]) Register(name string, value T) error {
	if name == "" {
		return errors.New("empty name")
	}
	if _, loaded := r.values.GetOrSet(name, value); loaded {
		return fmt.Errorf("%q: %w", name, ErrDuplicate)
	}
	return nil
}

func (r *registry[T]) Set(name string, value T) {
	r.values.Set(name, value)
}

func (r *registry[T]) Del(name string) {
	r.values.Del(name)
}

func (r *registry[T]) Names() []string {
	names := make([]string, 0, r.values.Len())
	r.values.ForEach(func(name string, _ T) bool {
		names = append(names, name)
		return true
	})
	slices.Sort(names)
	return names
}
