package provider

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/casualjim/architext/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counter produces "n" where n is the number of produce calls so far.
type counter struct {
	*Base
	calls atomic.Int32
	fail  atomic.Pointer[error]
}

func newCounter(options ...Option) *counter {
	c := &counter{}
	c.Base = NewBase(c, append([]Option{Name("counter")}, options...)...)
	return c
}

func (c *counter) Produce(ctx context.Context) ([]content.Block, error) {
	n := c.calls.Add(1)
	if err := c.fail.Load(); err != nil {
		return nil, *err
	}
	return []content.Block{content.Text(string(rune('0' + n)))}, nil
}

func (c *counter) failWith(err error) {
	if err == nil {
		c.fail.Store(nil)
		return
	}
	c.fail.Store(&err)
}

func onlyText(t *testing.T, blocks []content.Block) string {
	t.Helper()
	require.Len(t, blocks, 1)
	s, ok := blocks[0].Text()
	require.True(t, ok)
	return s
}

func TestStaleness(t *testing.T) {
	t.Run("parse round trip", func(t *testing.T) {
		for _, s := range []Staleness{OnDemand, NeverStale, AlwaysStale} {
			got, err := ParseStaleness(s.String())
			require.NoError(t, err)
			assert.Equal(t, s, got)
		}
		got, err := ParseStaleness("")
		require.NoError(t, err)
		assert.Equal(t, OnDemand, got)

		_, err = ParseStaleness("sometimes")
		assert.Error(t, err)
		assert.Equal(t, "staleness(9)", Staleness(9).String())
	})
}

func TestBase_Options(t *testing.T) {
	c := newCounter(Name("sys"), Separator(" "), Policy(NeverStale), Hidden())
	assert.Equal(t, "sys", c.Name())
	assert.Equal(t, " ", c.Separator())
	assert.Equal(t, NeverStale, c.Policy())
	assert.False(t, c.Visible())
	assert.NotEqual(t, [16]byte{}, [16]byte(c.ID()))

	d := newCounter()
	assert.Equal(t, DefaultSeparator, d.Separator())
	assert.Equal(t, OnDemand, d.Policy())
	assert.True(t, d.Visible())
	assert.NotEqual(t, c.ID(), d.ID())

	assert.Panics(t, func() { NewBase(nil) })
}

func TestBase_Policies(t *testing.T) {
	ctx := context.Background()

	t.Run("uncached always needs refresh", func(t *testing.T) {
		for _, p := range []Staleness{OnDemand, NeverStale, AlwaysStale} {
			c := newCounter(Policy(p))
			assert.False(t, c.Cached())
			assert.True(t, c.NeedsRefresh(), p.String())
			assert.Empty(t, c.Render())
		}
	})

	t.Run("on demand", func(t *testing.T) {
		c := newCounter()
		b, err := c.Refresh(ctx)
		require.NoError(t, err)
		assert.Equal(t, "1", onlyText(t, b))
		assert.False(t, c.NeedsRefresh())

		b, err = c.Refresh(ctx)
		require.NoError(t, err)
		assert.Equal(t, "1", onlyText(t, b))
		assert.EqualValues(t, 1, c.calls.Load())

		c.MarkDirty()
		assert.True(t, c.Dirty())
		assert.True(t, c.NeedsRefresh())
		b, err = c.Refresh(ctx)
		require.NoError(t, err)
		assert.Equal(t, "2", onlyText(t, b))
		assert.False(t, c.Dirty())
	})

	t.Run("never stale ignores dirty marks once cached", func(t *testing.T) {
		c := newCounter(Policy(NeverStale))
		_, err := c.Refresh(ctx)
		require.NoError(t, err)
		c.MarkDirty()
		assert.False(t, c.NeedsRefresh())
		b, err := c.Refresh(ctx)
		require.NoError(t, err)
		assert.Equal(t, "1", onlyText(t, b))
	})

	t.Run("always stale produces every time", func(t *testing.T) {
		c := newCounter(Policy(AlwaysStale))
		for i := 1; i <= 3; i++ {
			b, err := c.Refresh(ctx)
			require.NoError(t, err)
			assert.Equal(t, string(rune('0'+i)), onlyText(t, b))
			assert.True(t, c.NeedsRefresh())
		}
	})

	t.Run("render never produces", func(t *testing.T) {
		c := newCounter(Policy(AlwaysStale))
		_, err := c.Refresh(ctx)
		require.NoError(t, err)
		for range 3 {
			assert.Equal(t, "1", onlyText(t, c.Render()))
		}
		assert.EqualValues(t, 1, c.calls.Load())
	})
}

func TestBase_RefreshStampsProducer(t *testing.T) {
	c := newCounter()
	b, err := c.Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, b, 1)
	assert.Equal(t, c.ID(), b[0].Producer())
}

func TestBase_RefreshFailureKeepsCache(t *testing.T) {
	ctx := context.Background()
	c := newCounter()
	_, err := c.Refresh(ctx)
	require.NoError(t, err)

	boom := errors.New("boom")
	c.failWith(boom)
	c.MarkDirty()

	_, err = c.Refresh(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var perr *ProduceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, c.ID(), perr.ProviderID)
	assert.Equal(t, "counter", perr.Name)
	assert.Contains(t, perr.Error(), "counter")

	assert.Equal(t, "1", onlyText(t, c.Render()))
	assert.True(t, c.NeedsRefresh(), "failed refresh must not clear the dirty mark")

	c.failWith(nil)
	b, err := c.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, "3", onlyText(t, b))
}

func TestBase_RefreshCancelled(t *testing.T) {
	c := newCounter()
	_, err := c.Refresh(context.Background())
	require.NoError(t, err)
	c.MarkDirty()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Refresh(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.EqualValues(t, 1, c.calls.Load())
	assert.Equal(t, "1", onlyText(t, c.Render()))
}

func TestBase_ConcurrentRefresh(t *testing.T) {
	c := newCounter()
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Refresh(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, c.calls.Load())
}

func TestBase_Ownership(t *testing.T) {
	c := newCounter()
	a, b := &struct{ n int }{1}, &struct{ n int }{2}

	assert.Nil(t, c.Owner())
	require.NoError(t, c.Attach(a))
	assert.Same(t, a, c.Owner())

	assert.ErrorIs(t, c.Attach(b), ErrAlreadyOwned)
	assert.ErrorIs(t, c.Attach(a), ErrAlreadyOwned)
	assert.Error(t, c.Attach(nil))

	assert.False(t, c.Detach(b))
	assert.True(t, c.Detach(a))
	assert.Nil(t, c.Owner())
	assert.False(t, c.Detach(a))

	require.NoError(t, c.Attach(b))
}

func TestBase_Visibility(t *testing.T) {
	c := newCounter()
	c.SetVisible(false)
	assert.False(t, c.Visible())
	c.SetVisible(true)
	assert.True(t, c.Visible())
	assert.Contains(t, c.String(), "counter")
}
