package provider

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"text/template"

	"github.com/casualjim/architext/content"
	"github.com/casualjim/architext/types"
)

var _ Provider = (*Template)(nil)

// Template renders a text/template against a set of context variables.
// Missing keys are an error, so a template never renders "<no value>".
type Template struct {
	*Base

	source string
	tmpl   *template.Template

	mu   sync.RWMutex
	vars types.ContextVars
}

// NewTemplate parses text and creates an OnDemand provider named name.
func NewTemplate(name, text string, vars types.ContextVars, options ...Option) (*Template, error) {
	t := &Template{source: text, vars: vars.Clone()}
	if strings.Contains(text, "{{") {
		tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		t.tmpl = tmpl
	}
	t.Base = NewBase(t, append([]Option{Name(name)}, options...)...)
	return t, nil
}

// Vars returns a copy of the current variables.
func (t *Template) Vars() types.ContextVars {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.vars.Clone()
}

// SetVars replaces the variables and marks the provider dirty.
func (t *Template) SetVars(vars types.ContextVars) {
	t.mu.Lock()
	t.vars = vars.Clone()
	t.mu.Unlock()
	t.MarkDirty()
}

// Set updates a single variable and marks the provider dirty.
func (t *Template) Set(key string, value any) {
	t.mu.Lock()
	t.vars = t.vars.Merge(types.ContextVars{key: value})
	t.mu.Unlock()
	t.MarkDirty()
}

func (t *Template) Produce(context.Context) ([]content.Block, error) {
	if t.tmpl == nil {
		return []content.Block{content.Text(t.source)}, nil
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	var buf strings.Builder
	if err := t.tmpl.Execute(&buf, t.vars); err != nil {
		return nil, err
	}
	return []content.Block{content.Text(buf.String())}, nil
}
