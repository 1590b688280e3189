package architext

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/casualjim/architext/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainer_ListOperations(t *testing.T) {
	p := texts("a", "b", "c", "d")
	c, err := NewContainer(p[0], p[1])
	require.NoError(t, err)

	require.NoError(t, c.Append(p[2]))
	require.NoError(t, c.Insert(0, p[3]))
	assert.Equal(t, []string{"d", "a", "b", "c"}, names(c.Entries()))
	assert.Equal(t, 4, c.Len())

	e, ok := c.At(-1)
	require.True(t, ok)
	assert.Same(t, p[2], e)
	_, ok = c.At(4)
	assert.False(t, ok)

	e, ok = c.PopAt(1)
	require.True(t, ok)
	assert.Same(t, p[0], e)
	assert.Nil(t, p[0].Owner())
	assert.Equal(t, []string{"d", "b", "c"}, names(c.Entries()))

	_, ok = c.PopAt(10)
	assert.False(t, ok)

	assert.Equal(t, 1, c.Index(p[1]))
	assert.True(t, c.Contains(p[1]))
	assert.False(t, c.Contains(p[0]))
	assert.True(t, c.Remove(p[1]))
	assert.False(t, c.Remove(p[1]))
	assert.Equal(t, []string{"d", "c"}, names(c.Entries()))
}

func TestContainer_InsertClamps(t *testing.T) {
	p := texts("a", "b", "c", "d")
	c := Nest(p[0])
	require.NoError(t, c.Insert(100, p[1]))
	require.NoError(t, c.Insert(-100, p[2]))
	require.NoError(t, c.Insert(-1, p[3]))
	assert.Equal(t, []string{"c", "a", "d", "b"}, names(c.Entries()))
}

func TestContainer_Ownership(t *testing.T) {
	p := provider.NewTexts("a", "a")
	c1, c2 := Nest(p), Nest()

	err := c2.Append(p)
	require.ErrorIs(t, err, ErrOwnership)
	assert.ErrorIs(t, err, provider.ErrAlreadyOwned)
	assert.Equal(t, 0, c2.Len())

	// appending to the same container again is a duplicate too
	require.ErrorIs(t, c1.Append(p), ErrOwnership)
	assert.Equal(t, 1, c1.Len())

	got, ok := c1.Pop("a")
	require.True(t, ok)
	require.NoError(t, c2.Append(got))
	assert.Same(t, c2, p.Owner())

	assert.ErrorIs(t, c2.Append(nil), ErrInvalidEntry)
	assert.ErrorIs(t, c2.Append(User()), ErrInvalidEntry)
	var missing *provider.Texts
	assert.ErrorIs(t, c2.Append(missing), ErrInvalidEntry)
	var nested *Container
	assert.ErrorIs(t, c2.Append(nested), ErrInvalidEntry)
	assert.Equal(t, 1, c2.Len())

	_, err = NewContainer(p)
	assert.ErrorIs(t, err, ErrOwnership)
	assert.Panics(t, func() { Nest(p) })
}

func TestContainer_NewContainerRollsBack(t *testing.T) {
	a, b := provider.NewTexts("a", "a"), provider.NewTexts("b", "b")
	Nest(b)

	_, err := NewContainer(a, b)
	require.ErrorIs(t, err, ErrOwnership)
	assert.Nil(t, a.Owner(), "a must be released again")
}

func TestContainer_Cycles(t *testing.T) {
	outer := Nest()
	inner := Nest()
	require.NoError(t, outer.Append(inner))
	assert.Same(t, outer, inner.Parent())

	assert.ErrorIs(t, inner.Append(inner), ErrCycle)

	// outer has no parent, so only the cycle check can reject it
	assert.ErrorIs(t, inner.Append(outer), ErrCycle)

	assert.ErrorIs(t, Nest().Append(inner), ErrOwnership)

	msg := User()
	assert.ErrorIs(t, outer.Append(&msg.Container), ErrInvalidEntry)
}

func TestContainer_PopByName(t *testing.T) {
	a1 := provider.NewTexts("a", "first")
	a2 := provider.NewTexts("a", "second")
	b := provider.NewTexts("b", "b")
	nested := Nest(a1)
	c := Nest(b, nested, a2)

	p, ok := c.Pop("a")
	require.True(t, ok)
	assert.Same(t, a1, p, "depth first, document order")
	assert.Equal(t, 0, nested.Len())

	group := c.Find("a")
	assert.Equal(t, 1, group.Len())
	assert.False(t, group.Contains(a1))

	_, ok = c.Pop("missing")
	assert.False(t, ok)
}

func TestContainer_HiddenEntriesAreSearched(t *testing.T) {
	a := provider.NewTexts("a", "a", provider.Hidden())
	nested := Nest(a)
	nested.SetVisible(false)
	c := Nest(nested)

	assert.Equal(t, 1, c.Find("a").Len())
	p, ok := c.Pop("a")
	require.True(t, ok)
	assert.Same(t, a, p)
}

func TestContainer_Providers(t *testing.T) {
	p := texts("a", "b", "c", "d")
	c := Nest(p[0], Nest(p[1], Nest(p[2])), p[3])

	var got []string
	for pr := range c.Providers() {
		got = append(got, pr.Name())
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, got)

	got = got[:0]
	for pr := range c.Providers() {
		got = append(got, pr.Name())
		if pr.Name() == "b" {
			break
		}
	}
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestContainer_Slice(t *testing.T) {
	p := texts("a", "b", "c", "d")
	c := Nest(p[0], p[1], p[2], p[3])

	assert.Equal(t, []string{"b", "c"}, names(c.Slice(1, 3)))
	assert.Equal(t, []string{"c", "d"}, names(c.Slice(-2, 10)))
	assert.Empty(t, c.Slice(3, 1))
	assert.Same(t, c, p[1].Owner(), "a snapshot does not move entries")
}

func TestContainer_SetSlice(t *testing.T) {
	p := texts("a", "b", "c", "d", "x", "y")
	c := Nest(p[0], p[1], p[2], p[3])

	require.NoError(t, c.SetSlice(1, 3, p[4], p[2], p[5]))
	assert.Equal(t, []string{"a", "x", "c", "y", "d"}, names(c.Entries()))
	assert.Nil(t, p[1].Owner())
	assert.Same(t, c, p[2].Owner())
	assert.Same(t, c, p[4].Owner())

	t.Run("rejected entries leave the container untouched", func(t *testing.T) {
		before := c.Entries()
		assert.ErrorIs(t, c.SetSlice(0, 1, p[1], p[3]), ErrOwnership)
		assert.ErrorIs(t, c.SetSlice(0, 1, p[1], p[1]), ErrOwnership)
		assert.Equal(t, before, c.Entries())
		assert.Nil(t, p[1].Owner())
	})

	t.Run("delete a range", func(t *testing.T) {
		require.NoError(t, c.SetSlice(0, 2))
		assert.Equal(t, []string{"c", "y", "d"}, names(c.Entries()))
		assert.Nil(t, p[0].Owner())
	})
}

func TestContainer_Concat(t *testing.T) {
	p := texts("a", "b", "c")
	inner := Nest(p[2])
	c1, c2 := Nest(p[0]), Nest(p[1], inner)

	out, err := c1.Concat(c2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "<container>"}, names(out.Entries()))
	assert.Equal(t, 0, c1.Len())
	assert.Equal(t, 0, c2.Len())
	assert.Same(t, out, p[0].Owner())
	assert.Same(t, out, inner.Parent())

	_, err = out.Concat(out)
	assert.ErrorIs(t, err, ErrInvalidEntry)
	_, err = out.Concat(nil)
	assert.ErrorIs(t, err, ErrInvalidEntry)
}

// Random append/insert/pop sequences must keep the tree in step with a plain slice.
func TestContainer_MatchesSliceModel(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	pool := texts("a", "b", "c", "d", "e", "f", "g", "h")
	c := Nest()
	var model []*provider.Texts

	for range 500 {
		switch rng.IntN(3) {
		case 0, 1:
			p := pool[rng.IntN(len(pool))]
			i := rng.IntN(len(model)+3) - 1
			err := c.Insert(i, p)
			if slices.Contains(model, p) {
				require.ErrorIs(t, err, ErrOwnership)
				continue
			}
			require.NoError(t, err)
			model = slices.Insert(model, insertAt(i, len(model)), p)
		case 2:
			if len(model) == 0 {
				_, ok := c.PopAt(0)
				require.False(t, ok)
				continue
			}
			i := rng.IntN(len(model))
			e, ok := c.PopAt(i)
			require.True(t, ok)
			require.Same(t, model[i], e)
			model = slices.Delete(model, i, i+1)
		}

		require.Equal(t, len(model), c.Len())
		for i, p := range model {
			e, _ := c.At(i)
			require.Same(t, p, e)
		}
	}
}
