// Package layout builds a context tree from a declarative YAML document.
//
//	options:
//	  concurrency: 4
//	  error_policy: skip_message
//	messages:
//	  - role: system
//	    entries:
//	      - kind: text
//	        name: persona
//	        text: You are a helpful assistant.
//	        policy: never_stale
//	      - kind: clock
//	  - role: user
//	    entries:
//	      - kind: files
//	        paths: [main.go]
//	      - kind: container
//	        hidden: true
//	        entries:
//	          - kind: text
//	            text: Only shown on request.
//
// Every entry kind is backed by a Factory. The built-in kinds are text,
// template, files, image, tools, tool_calls, tool_result, clock and container;
// more can be added with Builder.Register.
package layout

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/casualjim/architext"
	"github.com/casualjim/architext/internal/registry"
	"github.com/casualjim/architext/messages"
	"github.com/casualjim/architext/provider"
	"gopkg.in/yaml.v3"
)

// Document is the root of a layout file.
type Document struct {
	Options  Options   `yaml:"options"`
	Messages []Message `yaml:"messages"`
}

// Options maps onto architext.Option values.
type Options struct {
	Concurrency   int    `yaml:"concurrency"`
	ErrorPolicy   string `yaml:"error_policy"`
	MergeAdjacent *bool  `yaml:"merge_adjacent"`
}

// Message is a role and its entries.
type Message struct {
	Role    string  `yaml:"role"`
	Hidden  bool    `yaml:"hidden"`
	Entries []Entry `yaml:"entries"`
}

// Entry describes a provider or, with kind container, a nested container.
// Which fields matter depends on the kind.
type Entry struct {
	Kind      string  `yaml:"kind"`
	Name      string  `yaml:"name"`
	Policy    string  `yaml:"policy"`
	Separator *string `yaml:"separator"`
	Hidden    bool    `yaml:"hidden"`

	Text       string         `yaml:"text"`
	Vars       map[string]any `yaml:"vars"`
	Paths      []string       `yaml:"paths"`
	URL        string         `yaml:"url"`
	Detail     string         `yaml:"detail"`
	Tools      []Tool         `yaml:"tools"`
	Calls      []Call         `yaml:"calls"`
	ToolCallID string         `yaml:"tool_call_id"`
	Content    string         `yaml:"content"`

	Entries []Entry `yaml:"entries"`
}

// Tool is an advertised tool with an optional JSON schema for its parameters.
type Tool struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Parameters  map[string]any `yaml:"parameters"`
}

// Call is a tool call made by the assistant.
type Call struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	Arguments string `yaml:"arguments"`
}

// Factory creates the provider for an entry. The common options (name, policy,
// separator, hidden) are already translated into options.
type Factory func(b *Builder, e Entry, options []provider.Option) (provider.Provider, error)

// Builder turns documents into trees.
type Builder struct {
	// BaseDir resolves relative file and image paths. Empty means the working directory.
	BaseDir string

	factories registry.Registry[Factory]
}

// NewBuilder creates a builder with the built-in kinds registered.
func NewBuilder() *Builder {
	b := &Builder{factories: registry.New[Factory]()}
	for kind, f := range builtins {
		b.factories.Set(kind, f)
	}
	return b
}

// Register adds a factory for kind. Built-in kinds cannot be replaced.
func (b *Builder) Register(kind string, f Factory) error {
	if kind == containerKind {
		return fmt.Errorf("kind %q is reserved", kind)
	}
	return b.factories.Register(kind, f)
}

// Unregister removes kind, built-in or not, so layouts using it fail to build.
// Dropping "files" and "image" keeps a layout from reading the disk. The
// container kind cannot be removed. It reports whether kind was known.
func (b *Builder) Unregister(kind string) bool {
	if kind == containerKind {
		return false
	}
	if _, ok := b.factories.Get(kind); !ok {
		return false
	}
	b.factories.Del(kind)
	return true
}

// Kinds returns the entry kinds this builder understands, sorted.
func (b *Builder) Kinds() []string {
	kinds := append(b.factories.Names(), containerKind)
	slices.Sort(kinds)
	return kinds
}

// Parse decodes a layout document.
func Parse(r io.Reader) (Document, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return Document{}, fmt.Errorf("decode layout: %w", err)
	}
	return doc, nil
}

// Load parses r and builds the tree.
func (b *Builder) Load(r io.Reader) (*architext.Messages, error) {
	doc, err := Parse(r)
	if err != nil {
		return nil, err
	}
	return b.Build(doc)
}

// LoadFile builds the tree described by the file at path. Relative paths inside
// the layout resolve against the directory of the file unless BaseDir is set.
func (b *Builder) LoadFile(path string) (*architext.Messages, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if b.BaseDir == "" {
		clone := *b
		clone.BaseDir = filepath.Dir(path)
		return clone.Load(f)
	}
	return b.Load(f)
}

// Build creates the tree for doc.
func (b *Builder) Build(doc Document) (*architext.Messages, error) {
	options, err := doc.Options.toOptions()
	if err != nil {
		return nil, err
	}
	msgs := architext.New(options...)

	for i, m := range doc.Messages {
		role, err := messages.ParseRole(m.Role)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		msg, err := architext.NewMessage(role)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		msg.SetVisible(!m.Hidden)
		if err := b.fill(&msg.Container, m.Entries); err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		if err := msgs.Append(msg); err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
	}
	return msgs, nil
}

func (b *Builder) fill(c *architext.Container, entries []Entry) error {
	for i, e := range entries {
		entry, err := b.entry(e)
		if err != nil {
			return fmt.Errorf("entry %d (%s): %w", i, e.Kind, err)
		}
		if err := c.Append(entry); err != nil {
			return fmt.Errorf("entry %d (%s): %w", i, e.Kind, err)
		}
	}
	return nil
}

func (b *Builder) entry(e Entry) (architext.Entry, error) {
	if e.Kind == containerKind {
		nested, err := architext.NewContainer()
		if err != nil {
			return nil, err
		}
		nested.SetVisible(!e.Hidden)
		if err := b.fill(nested, e.Entries); err != nil {
			return nil, err
		}
		return nested, nil
	}

	f, ok := b.factories.Get(e.Kind)
	if !ok {
		return nil, fmt.Errorf("unknown kind %q", e.Kind)
	}
	options, err := e.options()
	if err != nil {
		return nil, err
	}
	return f(b, e, options)
}

func (b *Builder) path(p string) string {
	if b.BaseDir == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(b.BaseDir, p)
}

func (e Entry) options() ([]provider.Option, error) {
	var options []provider.Option
	if e.Name != "" {
		options = append(options, provider.Name(e.Name))
	}
	if e.Policy != "" {
		policy, err := provider.ParseStaleness(e.Policy)
		if err != nil {
			return nil, err
		}
		options = append(options, provider.Policy(policy))
	}
	if e.Separator != nil {
		options = append(options, provider.Separator(*e.Separator))
	}
	if e.Hidden {
		options = append(options, provider.Hidden())
	}
	return options, nil
}

func (o Options) toOptions() ([]architext.Option, error) {
	var options []architext.Option
	if o.Concurrency != 0 {
		options = append(options, architext.WithConcurrency(o.Concurrency))
	}
	if o.ErrorPolicy != "" {
		policy, err := architext.ParseErrorPolicy(o.ErrorPolicy)
		if err != nil {
			return nil, err
		}
		options = append(options, architext.WithErrorPolicy(policy))
	}
	if o.MergeAdjacent != nil {
		options = append(options, architext.WithMergeAdjacent(*o.MergeAdjacent))
	}
	return options, nil
}
