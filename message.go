package architext

import (
	"fmt"
	"strings"

	"github.com/casualjim/architext/content"
	"github.com/casualjim/architext/messages"
	"github.com/casualjim/architext/pkg/stdx"
	"github.com/casualjim/architext/provider"
	"github.com/google/uuid"
)

// Message is a Container tagged with a role. Rendering merges the blocks of its
// visible providers into one wire message.
type Message struct {
	Container

	role  messages.Role
	owner *Messages
}

// NewMessage creates a message with the given role and entries.
func NewMessage(role messages.Role, entries ...Entry) (*Message, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: role %q", ErrInvalidEntry, role)
	}
	m := &Message{role: role}
	m.body = true
	for _, e := range entries {
		if err := m.Append(e); err != nil {
			m.Clear()
			return nil, err
		}
	}
	return m, nil
}

// System creates a system message. It panics when an entry is already owned.
func System(entries ...Entry) *Message {
	return stdx.Must1(NewMessage(messages.RoleSystem, entries...))
}

// User creates a user message. It panics when an entry is already owned.
func User(entries ...Entry) *Message {
	return stdx.Must1(NewMessage(messages.RoleUser, entries...))
}

// Assistant creates an assistant message. It panics when an entry is already owned.
func Assistant(entries ...Entry) *Message {
	return stdx.Must1(NewMessage(messages.RoleAssistant, entries...))
}

// Tool creates a tool message. It panics when an entry is already owned.
func Tool(entries ...Entry) *Message {
	return stdx.Must1(NewMessage(messages.RoleTool, entries...))
}

// ToolCallMessage creates an assistant message requesting calls.
func ToolCallMessage(calls ...content.Call) *Message {
	return Assistant(provider.NewToolCalls(calls...))
}

// ToolResultMessage creates a tool message answering the call toolCallID.
func ToolResultMessage(toolCallID, result string) *Message {
	return Tool(provider.NewToolResults(toolCallID, result))
}

func (m *Message) Role() messages.Role { return m.role }

// Owner returns the Messages holding m, or nil.
func (m *Message) Owner() *Messages { return m.owner }

func (m *Message) String() string {
	return fmt.Sprintf("Message(%s, %d entries)", m.role, m.Len())
}

// Render merges the cached blocks of the visible providers. Consecutive text
// blocks are joined into one span using the separator of the provider that
// continues it; images, tool calls and tool results become parts of their own.
// The second result is false when nothing is visible, or the message itself is hidden.
func (m *Message) Render() (messages.Message, bool) {
	if !m.Visible() {
		return messages.Message{}, false
	}

	var (
		parts []messages.ContentPart
		span  strings.Builder
		open  bool
	)
	flush := func() {
		if open {
			parts = append(parts, messages.Text(span.String()))
			span.Reset()
			open = false
		}
	}

	m.walk(true, func(p provider.Provider) bool {
		for _, b := range p.Render() {
			switch b.Kind() {
			case content.KindText:
				s, _ := b.Text()
				if s == "" {
					continue
				}
				if open {
					span.WriteString(p.Separator())
				}
				span.WriteString(s)
				open = true
			case content.KindImage:
				flush()
				img, _ := b.Image()
				parts = append(parts, messages.ImageContentPart{URL: img.URL, Detail: img.Detail})
			case content.KindToolCall:
				flush()
				c, _ := b.ToolCall()
				parts = append(parts, messages.ToolCall(c.ID, c.Name, c.Arguments))
			case content.KindToolResult:
				flush()
				r, _ := b.ToolResult()
				parts = append(parts, messages.ToolResult(r.ToolCallID, r.Content))
			}
		}
		return true
	})

	if len(parts) == 0 {
		if !open {
			return messages.Message{}, false
		}
		return messages.Message{Role: m.role, Content: messages.ContentOrParts{Content: span.String()}}, true
	}
	flush()
	return messages.Message{Role: m.role, Content: messages.ContentOrParts{Parts: parts}}, true
}

// contributes reports whether a visible provider of m is in failed.
func (m *Message) contributes(failed map[uuid.UUID]struct{}) bool {
	if len(failed) == 0 || !m.Visible() {
		return false
	}
	found := false
	m.walk(true, func(p provider.Provider) bool {
		_, found = failed[p.ID()]
		return !found
	})
	return found
}
