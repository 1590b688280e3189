package architext

import (
	"fmt"
	"iter"
	"slices"

	"github.com/casualjim/architext/provider"
)

// Group is the result of a lookup by name: every matching provider in document
// order at the time of the lookup. It does not follow later changes to the tree.
type Group struct {
	name    string
	members []provider.Provider
}

// Name returns the name that was looked up.
func (g Group) Name() string { return g.name }

func (g Group) Len() int { return len(g.members) }

// Empty reports whether nothing matched.
func (g Group) Empty() bool { return len(g.members) == 0 }

// At returns the i-th match. Negative indices count from the end.
func (g Group) At(i int) (provider.Provider, bool) {
	i, ok := index(i, len(g.members))
	if !ok {
		return nil, false
	}
	return g.members[i], true
}

// Members returns a copy of the matches.
func (g Group) Members() []provider.Provider {
	return slices.Clone(g.members)
}

// All yields the matches in document order.
func (g Group) All() iter.Seq2[int, provider.Provider] {
	return slices.All(g.members)
}

// Contains reports whether p is one of the matches.
func (g Group) Contains(p provider.Provider) bool {
	return slices.Contains(g.members, p)
}

// Visible reports the visibility shared by every member. It fails with
// ErrEmptyGroup when nothing matched and ErrNonUniformGroup when the members disagree.
func (g Group) Visible() (bool, error) {
	if len(g.members) == 0 {
		return false, fmt.Errorf("%w: %q", ErrEmptyGroup, g.name)
	}
	v := g.members[0].Visible()
	for _, p := range g.members[1:] {
		if p.Visible() != v {
			return false, fmt.Errorf("%w: visibility of %q", ErrNonUniformGroup, g.name)
		}
	}
	return v, nil
}

// SetVisible applies visible to every member.
func (g Group) SetVisible(visible bool) {
	for _, p := range g.members {
		p.SetVisible(visible)
	}
}

// MarkDirty marks every member dirty.
func (g Group) MarkDirty() {
	for _, p := range g.members {
		p.MarkDirty()
	}
}

// One returns the single member. It fails when nothing or more than one provider matched.
func (g Group) One() (provider.Provider, error) {
	switch len(g.members) {
	case 0:
		return nil, fmt.Errorf("%w: %q", ErrEmptyGroup, g.name)
	case 1:
		return g.members[0], nil
	default:
		return nil, fmt.Errorf("%w: %d providers named %q, pick one by index", ErrAmbiguousProvider, len(g.members), g.name)
	}
}

// As returns the single member of g as a T, for calling provider specific methods:
//
//	files, err := architext.As[*provider.Files](msgs.Provider("files"))
//	if err != nil {
//		return err
//	}
//	files.Update("main.go", src)
func As[T provider.Provider](g Group) (T, error) {
	var zero T
	p, err := g.One()
	if err != nil {
		return zero, err
	}
	t, ok := p.(T)
	if !ok {
		return zero, fmt.Errorf("provider %q is a %T, not a %T", g.name, p, zero)
	}
	return t, nil
}

func (g Group) String() string {
	return fmt.Sprintf("Group(%q, %d)", g.name, len(g.members))
}
