package content

import (
	"fmt"

	"github.com/google/uuid"
)

// Kind tags the variant held by a Block.
type Kind uint8

const (
	KindText Kind = iota + 1
	KindImage
	KindToolCall
	KindToolResult
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindImage:
		return "image"
	case KindToolCall:
		return "tool_call"
	case KindToolResult:
		return "tool_result"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ImageRef points at an image, either a remote URL or a data URL.
type ImageRef struct {
	URL    string
	Detail string
}

// Call is a request from the assistant to invoke a tool.
// Arguments holds the raw JSON arguments as produced by the model.
type Call struct {
	ID        string
	Name      string
	Arguments string
}

// Result is the output of a tool invocation.
type Result struct {
	ToolCallID string
	Content    string
}

// Block is an immutable unit of rendered output.
type Block struct {
	kind     Kind
	text     string
	image    ImageRef
	call     Call
	result   Result
	producer uuid.UUID
}

// Text creates a text block.
func Text(text string) Block {
	return Block{kind: KindText, text: text}
}

// Image creates an image block for the given URL.
func Image(url string) Block {
	return Block{kind: KindImage, image: ImageRef{URL: url}}
}

// ImageWithDetail creates an image block with a detail hint ("low", "high", "auto").
func ImageWithDetail(url, detail string) Block {
	return Block{kind: KindImage, image: ImageRef{URL: url, Detail: detail}}
}

// ToolCall creates a tool call block.
func ToolCall(id, name, arguments string) Block {
	return Block{kind: KindToolCall, call: Call{ID: id, Name: name, Arguments: arguments}}
}

// ToolResult creates a tool result block.
func ToolResult(toolCallID, content string) Block {
	return Block{kind: KindToolResult, result: Result{ToolCallID: toolCallID, Content: content}}
}

func (b Block) Kind() Kind { return b.kind }

// IsZero reports whether b was never initialised by one of the constructors.
func (b Block) IsZero() bool { return b.kind == 0 }

// Text returns the text of a text block and false for every other kind.
func (b Block) Text() (string, bool) {
	return b.text, b.kind == KindText
}

func (b Block) Image() (ImageRef, bool) {
	return b.image, b.kind == KindImage
}

func (b Block) ToolCall() (Call, bool) {
	return b.call, b.kind == KindToolCall
}

func (b Block) ToolResult() (Result, bool) {
	return b.result, b.kind == KindToolResult
}

// Producer returns the id of the provider that produced the block, or uuid.Nil
// when the block has not been through a provider refresh.
func (b Block) Producer() uuid.UUID { return b.producer }

// WithProducer returns a copy of b attributed to the given provider.
func (b Block) WithProducer(id uuid.UUID) Block {
	b.producer = id
	return b
}

func (b Block) String() string {
	switch b.kind {
	case KindText:
		return fmt.Sprintf("Block(text, %d bytes)", len(b.text))
	case KindImage:
		return fmt.Sprintf("Block(image, %.32q)", b.image.URL)
	case KindToolCall:
		return fmt.Sprintf("Block(tool_call, %s %s)", b.call.ID, b.call.Name)
	case KindToolResult:
		return fmt.Sprintf("Block(tool_result, %s)", b.result.ToolCallID)
	default:
		return "Block(zero)"
	}
}

// Stamp attributes every block in blocks to the given producer and returns a new slice.
func Stamp(blocks []Block, producer uuid.UUID) []Block {
	if blocks == nil {
		return nil
	}
	out := make([]Block, len(blocks))
	for i, b := range blocks {
		out[i] = b.WithProducer(producer)
	}
	return out
}
