package provider

import (
	"context"
	"sync"

	"github.com/casualjim/architext/content"
)

var (
	_ Provider = (*ToolCalls)(nil)
	_ Provider = (*ToolResults)(nil)
)

// ToolCalls provides the tool calls an assistant turn requested.
type ToolCalls struct {
	*Base

	mu    sync.RWMutex
	calls []content.Call
}

// NewToolCalls creates an OnDemand provider named "tool_calls".
func NewToolCalls(calls ...content.Call) *ToolCalls {
	return NewToolCallsWith(calls)
}

// NewToolCallsWith is NewToolCalls with provider options.
func NewToolCallsWith(calls []content.Call, options ...Option) *ToolCalls {
	t := &ToolCalls{calls: append([]content.Call(nil), calls...)}
	t.Base = NewBase(t, append([]Option{Name("tool_calls")}, options...)...)
	return t
}

// Calls returns a copy of the current calls.
func (t *ToolCalls) Calls() []content.Call {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]content.Call(nil), t.calls...)
}

// Update replaces the calls and marks the provider dirty.
func (t *ToolCalls) Update(calls ...content.Call) {
	t.mu.Lock()
	t.calls = append([]content.Call(nil), calls...)
	t.mu.Unlock()
	t.MarkDirty()
}

func (t *ToolCalls) Produce(context.Context) ([]content.Block, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	blocks := make([]content.Block, len(t.calls))
	for i, c := range t.calls {
		blocks[i] = content.ToolCall(c.ID, c.Name, c.Arguments)
	}
	return blocks, nil
}

// ToolResults provides the result of a single tool call.
type ToolResults struct {
	*Base

	mu         sync.RWMutex
	toolCallID string
	result     string
}

// NewToolResults creates an OnDemand provider named "tool_results".
func NewToolResults(toolCallID, result string, options ...Option) *ToolResults {
	t := &ToolResults{toolCallID: toolCallID, result: result}
	t.Base = NewBase(t, append([]Option{Name("tool_results")}, options...)...)
	return t
}

// ToolCallID returns the id of the call this result answers.
func (t *ToolResults) ToolCallID() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.toolCallID
}

// Update replaces the result content and marks the provider dirty.
func (t *ToolResults) Update(result string) {
	t.mu.Lock()
	t.result = result
	t.mu.Unlock()
	t.MarkDirty()
}

func (t *ToolResults) Produce(context.Context) ([]content.Block, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return []content.Block{content.ToolResult(t.toolCallID, t.result)}, nil
}
