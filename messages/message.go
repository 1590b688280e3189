package messages

import (
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Role identifies the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// ParseRole converts a string into a Role, rejecting unknown values.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Message is a single wire-format entry.
type Message struct {
	Role    Role           `json:"role"`
	Content ContentOrParts `json:"content"`
	_       struct{}       // require keyed usage
}

// IsText reports whether the message content is a plain string.
func (m Message) IsText() bool {
	return len(m.Content.Parts) == 0
}

// Text returns the plain text of the message. For structured content the text
// parts are joined with a blank line, non-text parts are ignored.
func (m Message) Text() string {
	if m.IsText() {
		return m.Content.Content
	}
	var texts []string
	for _, p := range m.Content.Parts {
		if tp, ok := p.(TextContentPart); ok {
			texts = append(texts, tp.Text)
		}
	}
	return strings.Join(texts, "\n\n")
}

var emptyMessageJSON = []byte(`{}`)

func (m Message) MarshalJSON() ([]byte, error) {
	content, err := m.Content.MarshalJSON()
	if err != nil {
		return nil, err
	}
	out, err := sjson.SetBytes(emptyMessageJSON, "role", string(m.Role))
	if err != nil {
		return nil, err
	}
	return sjson.SetRawBytes(out, "content", content)
}

func (m *Message) UnmarshalJSON(input []byte) error {
	if !gjson.ValidBytes(input) {
		return fmt.Errorf("invalid json: %s", input)
	}
	role := gjson.GetBytes(input, "role")
	if !role.Exists() {
		return errors.New("missing required field 'role'")
	}
	r, err := ParseRole(role.String())
	if err != nil {
		return err
	}
	content := gjson.GetBytes(input, "content")
	if !content.Exists() {
		return errors.New("missing required field 'content'")
	}
	var c ContentOrParts
	if err := c.UnmarshalJSON([]byte(content.Raw)); err != nil {
		return err
	}
	m.Role = r
	m.Content = c
	return nil
}

// Marshal encodes a rendered message list as a JSON array.
func Marshal(msgs []Message) ([]byte, error) {
	if msgs == nil {
		msgs = []Message{}
	}
	return json.Marshal(msgs)
}

// MarshalIndent is like Marshal but indents the output.
func MarshalIndent(msgs []Message, prefix, indent string) ([]byte, error) {
	if msgs == nil {
		msgs = []Message{}
	}
	return json.MarshalIndent(msgs, prefix, indent)
}

// Unmarshal decodes a JSON array of wire messages.
func Unmarshal(data []byte, msgs *[]Message) error {
	return json.Unmarshal(data, msgs)
}
