package provider

import (
	"context"
	"sync"

	"github.com/casualjim/architext/content"
)

var _ Provider = (*Texts)(nil)

// Texts provides a single, updatable text span.
type Texts struct {
	*Base

	mu   sync.RWMutex
	text string
}

// NewTexts creates an OnDemand text provider named name.
func NewTexts(name, text string, options ...Option) *Texts {
	t := &Texts{text: text}
	t.Base = NewBase(t, append([]Option{Name(name)}, options...)...)
	return t
}

// Text returns the current source text, which may be newer than what is cached.
func (t *Texts) Text() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.text
}

// Update replaces the text and marks the provider dirty.
func (t *Texts) Update(text string) {
	t.mu.Lock()
	t.text = text
	t.mu.Unlock()
	t.MarkDirty()
}

func (t *Texts) Produce(context.Context) ([]content.Block, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return []content.Block{content.Text(t.text)}, nil
}
