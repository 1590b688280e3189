package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/casualjim/architext/content"
	"github.com/casualjim/architext/pkg/slogx"
	"github.com/casualjim/architext/pkg/uuidx"
	"github.com/fogfish/opts"
	"github.com/google/uuid"
)

// DefaultSeparator joins consecutive text blocks when a message is rendered.
const DefaultSeparator = "\n\n"

// ErrAlreadyOwned is returned by Attach when the provider already occupies a slot.
var ErrAlreadyOwned = errors.New("provider already occupies a slot")

// Staleness decides when a cached provider has to produce again.
type Staleness uint8

const (
	OnDemand Staleness = iota
	NeverStale
	AlwaysStale
)

func (s Staleness) String() string {
	switch s {
	case OnDemand:
		return "on_demand"
	case NeverStale:
		return "never_stale"
	case AlwaysStale:
		return "always_stale"
	default:
		return fmt.Sprintf("staleness(%d)", uint8(s))
	}
}

// ParseStaleness converts the String form back into a Staleness.
func ParseStaleness(s string) (Staleness, error) {
	switch s {
	case "", "on_demand":
		return OnDemand, nil
	case "never_stale":
		return NeverStale, nil
	case "always_stale":
		return AlwaysStale, nil
	}
	return 0, fmt.Errorf("unknown staleness policy %q", s)
}

// Producer computes the blocks of a provider from its current state.
// Produce must not mutate the provider.
type Producer interface {
	Produce(ctx context.Context) ([]content.Block, error)
}

// Provider is the capability set a context tree consumes.
// Every implementation in this package gets all methods but Produce from *Base.
type Provider interface {
	Producer

	ID() uuid.UUID
	Name() string
	Visible() bool
	SetVisible(bool)
	Policy() Staleness
	Separator() string

	// MarkDirty forces the next refresh of an OnDemand provider to produce.
	MarkDirty()
	NeedsRefresh() bool
	Refresh(ctx context.Context) ([]content.Block, error)
	// Render returns the cached blocks and never produces.
	Render() []content.Block
	Cached() bool

	// Attach and Detach are called by containers to track the single slot a provider occupies.
	Attach(owner any) error
	Detach(owner any) bool
	Owner() any
}

// ProduceError reports a failed Produce during a refresh.
type ProduceError struct {
	ProviderID uuid.UUID
	Name       string
	Err        error
}

func (e *ProduceError) Error() string {
	name := e.Name
	if name == "" {
		name = "<unnamed>"
	}
	return fmt.Sprintf("provider %s (%s): produce: %v", name, uuidx.Short(e.ProviderID), e.Err)
}

func (e *ProduceError) Unwrap() error { return e.Err }

// Option configures a Base.
type Option = opts.Option[Base]

var (
	// Name sets the (non unique) lookup name of the provider.
	Name = opts.ForName[Base, string]("name")
	// Policy sets the staleness policy.
	Policy = opts.ForName[Base, Staleness]("policy")
	// Separator sets the string inserted before this provider's text when it
	// continues a text span.
	Separator = opts.ForName[Base, string]("separator")
)

// Hidden creates the provider invisible.
func Hidden() Option {
	return opts.Type[Base](func(b *Base) error {
		b.hidden = true
		return nil
	})
}

// Base implements the cache, staleness and ownership bookkeeping of a provider.
type Base struct {
	self Producer

	id        uuid.UUID
	name      string
	policy    Staleness
	separator string

	// serialises refreshes so a cache is always replaced by one complete produce
	refreshMu sync.Mutex

	mu     sync.Mutex
	hidden bool
	cache  []content.Block
	cached bool
	gen    uint64 // bumped by MarkDirty
	seen   uint64 // gen the cache was produced at
	owner  any
}

// NewBase creates the bookkeeping for self. It panics when an option cannot be applied.
func NewBase(self Producer, options ...Option) *Base {
	if self == nil {
		panic("provider: nil producer")
	}
	b := &Base{
		self:      self,
		id:        uuidx.New(),
		separator: DefaultSeparator,
	}
	if err := opts.Apply(b, options); err != nil {
		panic(err)
	}
	return b
}

func (b *Base) ID() uuid.UUID { return b.id }

func (b *Base) Name() string { return b.name }

func (b *Base) Policy() Staleness { return b.policy }

func (b *Base) Separator() string { return b.separator }

func (b *Base) Visible() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.hidden
}

func (b *Base) SetVisible(visible bool) {
	b.mu.Lock()
	b.hidden = !visible
	b.mu.Unlock()
}

func (b *Base) MarkDirty() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.policy == NeverStale && b.cached {
		return
	}
	b.gen++
}

// Dirty reports whether MarkDirty was called since the cache was produced.
func (b *Base) Dirty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gen != b.seen
}

func (b *Base) NeedsRefresh() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.needsRefreshLocked()
}

func (b *Base) needsRefreshLocked() bool {
	switch {
	case !b.cached:
		return true
	case b.policy == AlwaysStale:
		return true
	case b.policy == OnDemand:
		return b.gen != b.seen
	default:
		return false
	}
}

func (b *Base) Cached() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cached
}

func (b *Base) Render() []content.Block {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.cache)
}

// Refresh produces new blocks when the policy asks for it and returns the cache.
// On failure the previous cache is kept and a *ProduceError is returned.
// A context cancelled while producing also leaves the cache untouched.
func (b *Base) Refresh(ctx context.Context) ([]content.Block, error) {
	b.refreshMu.Lock()
	defer b.refreshMu.Unlock()

	b.mu.Lock()
	if !b.needsRefreshLocked() {
		out := slices.Clone(b.cache)
		b.mu.Unlock()
		return out, nil
	}
	gen := b.gen
	b.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, &ProduceError{ProviderID: b.id, Name: b.name, Err: err}
	}

	blocks, err := b.self.Produce(ctx)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		slog.DebugContext(ctx, "provider refresh failed", slogx.Provider(b.name, b.id), slogx.Error(err))
		return nil, &ProduceError{ProviderID: b.id, Name: b.name, Err: err}
	}

	stamped := content.Stamp(blocks, b.id)
	b.mu.Lock()
	b.cache = stamped
	b.cached = true
	b.seen = gen
	b.mu.Unlock()

	slog.DebugContext(ctx, "provider refreshed", slogx.Provider(b.name, b.id), slogx.Count("blocks", len(stamped)))
	return slices.Clone(stamped), nil
}

func (b *Base) Attach(owner any) error {
	if owner == nil {
		return errors.New("provider: nil owner")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.owner != nil {
		return ErrAlreadyOwned
	}
	b.owner = owner
	return nil
}

func (b *Base) Detach(owner any) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.owner == nil || b.owner != owner {
		return false
	}
	b.owner = nil
	return true
}

func (b *Base) Owner() any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.owner
}

func (b *Base) String() string {
	name := b.name
	if name == "" {
		name = "<unnamed>"
	}
	return fmt.Sprintf("Provider(%s, %s)", name, uuidx.Short(b.id))
}
