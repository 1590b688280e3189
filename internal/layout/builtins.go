package layout

import (
	"fmt"
	"strings"
	"time"

	"github.com/casualjim/architext/content"
	"github.com/casualjim/architext/provider"
	"github.com/casualjim/architext/tool"
	"github.com/casualjim/architext/types"
	json "github.com/goccy/go-json"
	"github.com/invopop/jsonschema"
)

const containerKind = "container"

var builtins = map[string]Factory{
	"text":        newText,
	"template":    newTemplate,
	"files":       newFiles,
	"image":       newImage,
	"tools":       newTools,
	"tool_calls":  newToolCalls,
	"tool_result": newToolResult,
	"clock":       newClock,
}

func newText(_ *Builder, e Entry, options []provider.Option) (provider.Provider, error) {
	return provider.NewTexts(e.Name, e.Text, options...), nil
}

func newTemplate(_ *Builder, e Entry, options []provider.Option) (provider.Provider, error) {
	return provider.NewTemplate(e.Name, e.Text, types.ContextVars(e.Vars), options...)
}

func newFiles(b *Builder, e Entry, options []provider.Option) (provider.Provider, error) {
	files := provider.NewFiles(options...)
	for _, p := range e.Paths {
		if err := files.Load(b.path(p)); err != nil {
			return nil, err
		}
	}
	return files, nil
}

func newImage(b *Builder, e Entry, options []provider.Option) (provider.Provider, error) {
	if e.URL == "" {
		return nil, fmt.Errorf("image needs a url")
	}
	url := e.URL
	if !isRemote(url) {
		url = b.path(url)
	}
	img := provider.NewImages(url, options...)
	if e.Detail != "" {
		img.SetDetail(e.Detail)
	}
	return img, nil
}

func isRemote(url string) bool {
	return strings.HasPrefix(url, "http://") ||
		strings.HasPrefix(url, "https://") ||
		strings.HasPrefix(url, "data:")
}

func newTools(_ *Builder, e Entry, options []provider.Option) (provider.Provider, error) {
	defs := make([]tool.Definition, 0, len(e.Tools))
	for _, t := range e.Tools {
		if t.Name == "" {
			return nil, fmt.Errorf("tool without a name")
		}
		var schema *jsonschema.Schema
		if len(t.Parameters) > 0 {
			raw, err := json.Marshal(t.Parameters)
			if err != nil {
				return nil, fmt.Errorf("tool %s: %w", t.Name, err)
			}
			schema = new(jsonschema.Schema)
			if err := json.Unmarshal(raw, schema); err != nil {
				return nil, fmt.Errorf("tool %s: invalid parameter schema: %w", t.Name, err)
			}
		}
		defs = append(defs, tool.Describe(t.Name, t.Description, schema))
	}
	return provider.NewToolsWith(defs, options...), nil
}

func newToolCalls(_ *Builder, e Entry, options []provider.Option) (provider.Provider, error) {
	calls := make([]content.Call, len(e.Calls))
	for i, c := range e.Calls {
		if c.ID == "" || c.Name == "" {
			return nil, fmt.Errorf("tool call %d needs an id and a name", i)
		}
		calls[i] = content.Call{ID: c.ID, Name: c.Name, Arguments: c.Arguments}
	}
	return provider.NewToolCallsWith(calls, options...), nil
}

func newToolResult(_ *Builder, e Entry, options []provider.Option) (provider.Provider, error) {
	if e.ToolCallID == "" {
		return nil, fmt.Errorf("tool result needs a tool_call_id")
	}
	return provider.NewToolResults(e.ToolCallID, e.Content, options...), nil
}

func newClock(_ *Builder, e Entry, options []provider.Option) (provider.Provider, error) {
	name := e.Name
	if name == "" {
		name = "clock"
	}
	return provider.NewClock(name, time.Now, options...), nil
}
