package layout

import (
	"context"
	"strings"
	"testing"

	"github.com/casualjim/architext"
	"github.com/casualjim/architext/messages"
	"github.com/casualjim/architext/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile(t *testing.T) {
	msgs, err := NewBuilder().LoadFile("testdata/chat.yaml")
	require.NoError(t, err)
	require.Equal(t, 2, msgs.Len())

	persona, err := msgs.Provider("persona").One()
	require.NoError(t, err)
	assert.Equal(t, provider.NeverStale, persona.Policy())

	out, err := msgs.RenderLatest(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 2)

	sys := out[0].Content.Content
	assert.True(t, strings.HasPrefix(sys, "You are a careful reviewer.\n\n<tools>["), sys)
	assert.Contains(t, sys, `"required":["symbol"]`)

	assert.Equal(t, messages.RoleUser, out[1].Role)
	assert.Equal(t,
		"<files>\n<file path='testdata/notes.txt'>check the retries</file>\n</files> Review the notes for Ada.",
		out[1].Content.Content)

	hint := msgs.Provider("hint")
	v, err := hint.Visible()
	require.NoError(t, err)
	assert.True(t, v, "the provider is visible, its container is not")
}

func TestBuild_Options(t *testing.T) {
	doc, err := Parse(strings.NewReader(`
options:
  merge_adjacent: false
messages:
  - role: user
    entries: [{kind: text, text: a}]
  - role: user
    entries: [{kind: text, text: b}]
`))
	require.NoError(t, err)
	msgs, err := NewBuilder().Build(doc)
	require.NoError(t, err)
	assert.Equal(t, 2, msgs.Len())
}

func TestBuild_AllKinds(t *testing.T) {
	msgs, err := NewBuilder().Load(strings.NewReader(`
messages:
  - role: user
    entries:
      - kind: image
        url: https://example.com/cat.png
        detail: low
      - kind: clock
  - role: assistant
    entries:
      - kind: tool_calls
        calls:
          - {id: call_1, name: lookup, arguments: '{"symbol":"main"}'}
  - role: tool
    entries:
      - kind: tool_result
        tool_call_id: call_1
        content: found
`))
	require.NoError(t, err)

	out, err := msgs.RenderLatest(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 3)
	require.Len(t, out[0].Content.Parts, 2)
	assert.Equal(t, messages.ImageContentPart{URL: "https://example.com/cat.png", Detail: "low"}, out[0].Content.Parts[0])
	assert.Contains(t, out[0].Content.Parts[1].(messages.TextContentPart).Text, "Current time: ")
	assert.Equal(t, []messages.ContentPart{messages.ToolCall("call_1", "lookup", `{"symbol":"main"}`)}, out[1].Content.Parts)
	assert.Equal(t, []messages.ContentPart{messages.ToolResult("call_1", "found")}, out[2].Content.Parts)
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name   string
		layout string
	}{
		{"unknown field", "messages:\n  - role: user\n    colour: red\n"},
		{"unknown role", "messages:\n  - role: narrator\n"},
		{"unknown kind", "messages:\n  - role: user\n    entries: [{kind: poem}]\n"},
		{"bad policy", "messages:\n  - role: user\n    entries: [{kind: text, policy: sometimes}]\n"},
		{"bad error policy", "options: {error_policy: retry}\n"},
		{"missing file", "messages:\n  - role: user\n    entries: [{kind: files, paths: [nope.txt]}]\n"},
		{"tool result without id", "messages:\n  - role: tool\n    entries: [{kind: tool_result, content: x}]\n"},
		{"bad template", "messages:\n  - role: user\n    entries: [{kind: template, text: '{{.x'}]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBuilder().Load(strings.NewReader(tt.layout))
			assert.Error(t, err)
		})
	}
}

func TestBuilder_Register(t *testing.T) {
	b := NewBuilder()
	assert.Contains(t, b.Kinds(), "container")
	assert.Contains(t, b.Kinds(), "text")

	assert.Error(t, b.Register("text", newText))
	assert.Error(t, b.Register("container", newText))

	require.NoError(t, b.Register("shout", func(_ *Builder, e Entry, options []provider.Option) (provider.Provider, error) {
		return provider.NewTexts(e.Name, strings.ToUpper(e.Text), options...), nil
	}))

	msgs, err := b.Load(strings.NewReader("messages:\n  - role: user\n    entries: [{kind: shout, text: hey}]\n"))
	require.NoError(t, err)
	out, err := msgs.RenderLatest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "HEY", out[0].Content.Content)

	_, err = architext.As[*provider.Texts](msgs.Provider(""))
	assert.NoError(t, err)
}

func TestBuilder_Unregister(t *testing.T) {
	b := NewBuilder()
	assert.True(t, b.Unregister("files"))
	assert.False(t, b.Unregister("files"))
	assert.False(t, b.Unregister("container"))
	assert.NotContains(t, b.Kinds(), "files")
	assert.Contains(t, b.Kinds(), "container")

	_, err := b.Load(strings.NewReader("messages:\n  - role: user\n    entries: [{kind: files, paths: [notes.txt]}]\n"))
	assert.ErrorContains(t, err, `unknown kind "files"`)

	msgs, err := b.Load(strings.NewReader("messages:\n  - role: user\n    entries: [{kind: text, text: still fine}]\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, msgs.Len())
}

func TestParse_Empty(t *testing.T) {
	doc, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, doc.Messages)
}
