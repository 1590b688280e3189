// Package provider implements context providers: nodes of a context tree that
// produce content blocks from some data source and cache what they produced.
//
// A concrete provider embeds *Base and implements Produce. Base owns
// everything the tree relies on: identity, name, visibility, the staleness
// policy, the block cache and the slot the provider occupies in a container.
//
//	type Notes struct {
//	    *provider.Base
//	    mu    sync.RWMutex
//	    notes []string
//	}
//
//	func NewNotes() *Notes {
//	    n := &Notes{}
//	    n.Base = provider.NewBase(n, provider.Name("notes"))
//	    return n
//	}
//
//	func (n *Notes) Add(note string) {
//	    n.mu.Lock()
//	    n.notes = append(n.notes, note)
//	    n.mu.Unlock()
//	    n.MarkDirty()
//	}
//
//	func (n *Notes) Produce(context.Context) ([]content.Block, error) {
//	    n.mu.RLock()
//	    defer n.mu.RUnlock()
//	    return []content.Block{content.Text(strings.Join(n.notes, "\n"))}, nil
//	}
//
// Staleness policies:
//   - OnDemand (default): produced at first refresh, then only after MarkDirty
//   - AlwaysStale: produced on every refresh
//   - NeverStale: produced once; MarkDirty is ignored after the first refresh
//
// Refresh is atomic per provider. A failing or cancelled Produce leaves the
// previous cache in place and reports a *ProduceError. Render never produces,
// it only returns the cache.
package provider
