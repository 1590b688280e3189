package provider

import (
	"context"
	"time"

	"github.com/casualjim/architext/content"
	"github.com/go-openapi/strfmt"
)

var _ Provider = (*Func)(nil)

// ProduceFunc computes blocks on demand.
type ProduceFunc func(ctx context.Context) ([]content.Block, error)

// Func adapts a ProduceFunc to a Provider. The function is the data source, so
// Func is usually paired with AlwaysStale or with explicit MarkDirty calls.
type Func struct {
	*Base
	fn ProduceFunc
}

// NewFunc creates a provider that calls fn to produce.
func NewFunc(fn ProduceFunc, options ...Option) *Func {
	if fn == nil {
		panic("provider: nil produce func")
	}
	f := &Func{fn: fn}
	f.Base = NewBase(f, options...)
	return f
}

func (f *Func) Produce(ctx context.Context) ([]content.Block, error) {
	return f.fn(ctx)
}

// NewClock creates an AlwaysStale provider rendering the current time as
// "Current time: <RFC3339>". A nil now uses time.Now.
func NewClock(name string, now func() time.Time, options ...Option) *Func {
	if now == nil {
		now = time.Now
	}
	fn := func(context.Context) ([]content.Block, error) {
		return []content.Block{content.Text("Current time: " + strfmt.DateTime(now()).String())}, nil
	}
	return NewFunc(fn, append([]Option{Name(name), Policy(AlwaysStale)}, options...)...)
}
