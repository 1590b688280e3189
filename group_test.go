package architext

import (
	"testing"

	"github.com/casualjim/architext/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroup(t *testing.T) {
	a1 := provider.NewTexts("a", "one")
	a2 := provider.NewTexts("a", "two")
	b := provider.NewTexts("b", "b")
	msgs := NewMessages(System(a1, b), User(Nest(a2)))

	t.Run("lookup is document ordered", func(t *testing.T) {
		g := msgs.Provider("a")
		assert.Equal(t, "a", g.Name())
		assert.Equal(t, 2, g.Len())
		assert.False(t, g.Empty())

		p, ok := g.At(0)
		require.True(t, ok)
		assert.Same(t, a1, p)
		p, ok = g.At(-1)
		require.True(t, ok)
		assert.Same(t, a2, p)
		_, ok = g.At(2)
		assert.False(t, ok)

		var seen []provider.Provider
		for _, p := range g.All() {
			seen = append(seen, p)
		}
		assert.Equal(t, g.Members(), seen)
	})

	t.Run("visibility", func(t *testing.T) {
		g := msgs.Provider("a")
		v, err := g.Visible()
		require.NoError(t, err)
		assert.True(t, v)

		a2.SetVisible(false)
		_, err = g.Visible()
		assert.ErrorIs(t, err, ErrNonUniformGroup)

		g.SetVisible(false)
		v, err = g.Visible()
		require.NoError(t, err)
		assert.False(t, v)
		assert.False(t, a1.Visible())

		g.SetVisible(true)
		assert.True(t, a2.Visible())
	})

	t.Run("single member delegation", func(t *testing.T) {
		p, err := msgs.Provider("b").One()
		require.NoError(t, err)
		assert.Same(t, b, p)

		tp, err := As[*provider.Texts](msgs.Provider("b"))
		require.NoError(t, err)
		tp.Update("bee")
		assert.Equal(t, "bee", b.Text())

		_, err = As[*provider.Files](msgs.Provider("b"))
		assert.Error(t, err)
	})

	t.Run("ambiguous and empty", func(t *testing.T) {
		_, err := msgs.Provider("a").One()
		assert.ErrorIs(t, err, ErrAmbiguousProvider)
		_, err = As[*provider.Texts](msgs.Provider("a"))
		assert.ErrorIs(t, err, ErrAmbiguousProvider)

		empty := msgs.Provider("missing")
		assert.True(t, empty.Empty())
		_, err = empty.One()
		assert.ErrorIs(t, err, ErrEmptyGroup)
		_, err = empty.Visible()
		assert.ErrorIs(t, err, ErrEmptyGroup)
		empty.SetVisible(false)
	})

	t.Run("groups reflect the tree at lookup time", func(t *testing.T) {
		before := msgs.Provider("a")
		p, ok := msgs.Pop("a")
		require.True(t, ok)

		after := msgs.Provider("a")
		assert.Equal(t, before.Len()-1, after.Len())
		assert.False(t, after.Contains(p))
		assert.True(t, before.Contains(p))
	})
}
