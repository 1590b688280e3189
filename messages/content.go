package messages

import (
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ContentOrParts represents either a simple string content or an ordered list of content parts.
// When Parts is non-empty it takes precedence and the content marshals as an array.
type ContentOrParts struct {
	Content string        // Raw string content, used when the message is just text
	Parts   []ContentPart // Ordered typed parts (text, image, tool call, tool result)
	_       struct{}      // require keyed usage
}

// MarshalJSON writes Parts as a JSON array when present, otherwise Content as a JSON string.
func (c ContentOrParts) MarshalJSON() ([]byte, error) {
	if len(c.Parts) > 0 {
		return json.Marshal(c.Parts)
	}
	return json.Marshal(c.Content)
}

// UnmarshalJSON accepts either a JSON string or an array of typed parts.
// Unknown part types are rejected.
func (c *ContentOrParts) UnmarshalJSON(input []byte) error {
	if !gjson.ValidBytes(input) {
		return fmt.Errorf("invalid json: %s", input)
	}
	jv := gjson.ParseBytes(input)
	if !jv.IsArray() {
		c.Content = jv.String()
		c.Parts = nil
		return nil
	}

	aj := jv.Array()
	parts := make([]ContentPart, len(aj))
	for idx, ajv := range aj {
		raw := []byte(ajv.Raw)
		tpe := ajv.Get("type").String()
		switch tpe {
		case "text":
			var part TextContentPart
			if err := part.UnmarshalJSON(raw); err != nil {
				return fmt.Errorf("invalid text part at %d: %w", idx, err)
			}
			parts[idx] = part
		case "image_url":
			var part ImageContentPart
			if err := part.UnmarshalJSON(raw); err != nil {
				return fmt.Errorf("invalid image part at %d: %w", idx, err)
			}
			parts[idx] = part
		case "tool_call":
			var part ToolCallContentPart
			if err := part.UnmarshalJSON(raw); err != nil {
				return fmt.Errorf("invalid tool call part at %d: %w", idx, err)
			}
			parts[idx] = part
		case "tool_result":
			var part ToolResultContentPart
			if err := part.UnmarshalJSON(raw); err != nil {
				return fmt.Errorf("invalid tool result part at %d: %w", idx, err)
			}
			parts[idx] = part
		default:
			return fmt.Errorf("content part at %d has an unknown type %q", idx, tpe)
		}
	}
	c.Content = ""
	c.Parts = parts
	return nil
}

// ContentPart marks the structs that are valid content parts.
type ContentPart interface {
	contentPart()
	// PartType returns the wire discriminator of the part.
	PartType() string
}

// Text creates a new TextContentPart with the given text.
func Text(text string) TextContentPart {
	return TextContentPart{Text: text}
}

// TextContentPart represents a text span.
type TextContentPart struct {
	Text string   `json:"text"`
	_    struct{} // require keyed usage
}

func (TextContentPart) contentPart()     {}
func (TextContentPart) PartType() string { return "text" }

var tcpJSON = []byte(`{"type":"text"}`)

func (t TextContentPart) MarshalJSON() ([]byte, error) {
	return sjson.SetBytes(tcpJSON, "text", t.Text)
}

func (t *TextContentPart) UnmarshalJSON(input []byte) error {
	text := gjson.GetBytes(input, "text")
	if !text.Exists() {
		return errors.New("missing required field 'text'")
	}
	t.Text = text.String()
	return nil
}

// Image creates a new ImageContentPart with the given URL.
func Image(url string) ImageContentPart {
	return ImageContentPart{URL: url}
}

// ImageContentPart references an image by URL (remote or data URL).
type ImageContentPart struct {
	URL    string   `json:"url"`
	Detail string   `json:"detail,omitempty"`
	_      struct{} // require keyed usage
}

func (ImageContentPart) contentPart()     {}
func (ImageContentPart) PartType() string { return "image_url" }

var icpJSON = []byte(`{"type":"image_url"}`)

func (i ImageContentPart) MarshalJSON() ([]byte, error) {
	out, err := sjson.SetBytes(icpJSON, "image_url.url", i.URL)
	if err != nil {
		return nil, err
	}
	if i.Detail != "" {
		return sjson.SetBytes(out, "image_url.detail", i.Detail)
	}
	return out, nil
}

func (i *ImageContentPart) UnmarshalJSON(input []byte) error {
	uri := gjson.GetBytes(input, "image_url.url")
	if !uri.Exists() {
		return errors.New("missing required field 'image_url.url'")
	}
	i.URL = uri.String()
	i.Detail = gjson.GetBytes(input, "image_url.detail").String()
	return nil
}

// ToolCall creates a new ToolCallContentPart.
func ToolCall(id, name, arguments string) ToolCallContentPart {
	return ToolCallContentPart{ID: id, Name: name, Arguments: arguments}
}

// ToolCallContentPart is a function call requested by the assistant.
type ToolCallContentPart struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Arguments string   `json:"arguments"`
	_         struct{} // require keyed usage
}

func (ToolCallContentPart) contentPart()     {}
func (ToolCallContentPart) PartType() string { return "tool_call" }

var tccpJSON = []byte(`{"type":"tool_call"}`)

func (t ToolCallContentPart) MarshalJSON() ([]byte, error) {
	out, err := sjson.SetBytes(tccpJSON, "id", t.ID)
	if err != nil {
		return nil, err
	}
	if out, err = sjson.SetBytes(out, "function.name", t.Name); err != nil {
		return nil, err
	}
	return sjson.SetBytes(out, "function.arguments", t.Arguments)
}

func (t *ToolCallContentPart) UnmarshalJSON(input []byte) error {
	id := gjson.GetBytes(input, "id")
	name := gjson.GetBytes(input, "function.name")
	if !id.Exists() || !name.Exists() {
		return errors.New("tool_call requires both 'id' and 'function.name' fields")
	}
	t.ID = id.String()
	t.Name = name.String()
	t.Arguments = gjson.GetBytes(input, "function.arguments").String()
	return nil
}

// ToolResult creates a new ToolResultContentPart.
func ToolResult(toolCallID, content string) ToolResultContentPart {
	return ToolResultContentPart{ToolCallID: toolCallID, Content: content}
}

// ToolResultContentPart carries the output of a tool invocation.
type ToolResultContentPart struct {
	ToolCallID string   `json:"tool_call_id"`
	Content    string   `json:"content"`
	_          struct{} // require keyed usage
}

func (ToolResultContentPart) contentPart()     {}
func (ToolResultContentPart) PartType() string { return "tool_result" }

var trcpJSON = []byte(`{"type":"tool_result"}`)

func (t ToolResultContentPart) MarshalJSON() ([]byte, error) {
	out, err := sjson.SetBytes(trcpJSON, "tool_call_id", t.ToolCallID)
	if err != nil {
		return nil, err
	}
	return sjson.SetBytes(out, "content", t.Content)
}

func (t *ToolResultContentPart) UnmarshalJSON(input []byte) error {
	id := gjson.GetBytes(input, "tool_call_id")
	if !id.Exists() {
		return errors.New("missing required field 'tool_call_id'")
	}
	t.ToolCallID = id.String()
	t.Content = gjson.GetBytes(input, "content").String()
	return nil
}
