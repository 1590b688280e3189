package provider

import (
	"context"
	"fmt"
	"sync"

	"github.com/casualjim/architext/content"
	"github.com/casualjim/architext/tool"
	json "github.com/goccy/go-json"
)

var _ Provider = (*Tools)(nil)

// Tools renders tool definitions into the prompt as <tools>[...]</tools>, for
// models that are told about tools in text rather than through the API.
type Tools struct {
	*Base

	mu   sync.RWMutex
	defs []tool.Definition
}

// NewTools creates an OnDemand provider named "tools".
func NewTools(defs ...tool.Definition) *Tools {
	return NewToolsWith(defs)
}

// NewToolsWith is NewTools with provider options.
func NewToolsWith(defs []tool.Definition, options ...Option) *Tools {
	t := &Tools{defs: append([]tool.Definition(nil), defs...)}
	t.Base = NewBase(t, append([]Option{Name("tools")}, options...)...)
	return t
}

// Definitions returns a copy of the current tool definitions.
func (t *Tools) Definitions() []tool.Definition {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]tool.Definition(nil), t.defs...)
}

// Update replaces the tool definitions and marks the provider dirty.
func (t *Tools) Update(defs ...tool.Definition) {
	t.mu.Lock()
	t.defs = append([]tool.Definition(nil), defs...)
	t.mu.Unlock()
	t.MarkDirty()
}

func (t *Tools) Produce(context.Context) ([]content.Block, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	specs := make([]map[string]any, 0, len(t.defs))
	for _, def := range t.defs {
		spec, err := def.Spec()
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	b, err := json.Marshal(specs)
	if err != nil {
		return nil, fmt.Errorf("marshal tools: %w", err)
	}
	return []content.Block{content.Text("<tools>" + string(b) + "</tools>")}, nil
}
