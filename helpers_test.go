package architext

import (
	"context"
	"sync/atomic"

	"github.com/casualjim/architext/content"
	"github.com/casualjim/architext/provider"
)

// counting is a provider double that renders its current text and counts produce calls.
type counting struct {
	*provider.Base
	text  atomic.Pointer[string]
	err   atomic.Pointer[error]
	calls atomic.Int32
}

func newCounting(name, text string, options ...provider.Option) *counting {
	c := &counting{}
	c.text.Store(&text)
	c.Base = provider.NewBase(c, append([]provider.Option{provider.Name(name)}, options...)...)
	return c
}

func (c *counting) set(text string) {
	c.text.Store(&text)
	c.MarkDirty()
}

func (c *counting) failWith(err error) {
	if err == nil {
		c.err.Store(nil)
	} else {
		c.err.Store(&err)
	}
	c.MarkDirty()
}

func (c *counting) Produce(context.Context) ([]content.Block, error) {
	c.calls.Add(1)
	if err := c.err.Load(); err != nil {
		return nil, *err
	}
	return []content.Block{content.Text(*c.text.Load())}, nil
}

func texts(names ...string) []*provider.Texts {
	out := make([]*provider.Texts, len(names))
	for i, n := range names {
		out[i] = provider.NewTexts(n, n)
	}
	return out
}

func names(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if p, ok := e.(provider.Provider); ok {
			out = append(out, p.Name())
		} else {
			out = append(out, "<container>")
		}
	}
	return out
}
