package architext

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"time"

	"github.com/casualjim/architext/messages"
	"github.com/casualjim/architext/pkg/slogx"
	"github.com/casualjim/architext/provider"
	"github.com/fogfish/opts"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Messages is the root of a context tree: an ordered list of messages with a
// single namespace over every provider underneath.
type Messages struct {
	msgs []*Message

	concurrency int
	policy      ErrorPolicy
	noMerge     bool
}

// New creates an empty Messages. It panics when an option cannot be applied.
func New(options ...Option) *Messages {
	m := &Messages{}
	if err := opts.Apply(m, options); err != nil {
		panic(err)
	}
	return m
}

// TryMessages creates a Messages holding msgs, folding adjacent messages with
// the same role.
func TryMessages(msgs ...*Message) (*Messages, error) {
	m := New()
	for _, msg := range msgs {
		if err := m.Append(msg); err != nil {
			m.Clear()
			return nil, err
		}
	}
	return m, nil
}

// NewMessages is like TryMessages but panics on error.
func NewMessages(msgs ...*Message) *Messages {
	m, err := TryMessages(msgs...)
	if err != nil {
		panic(err)
	}
	return m
}

// Configure applies options to m.
func (m *Messages) Configure(options ...Option) error {
	return opts.Apply(m, options)
}

func (m *Messages) Len() int { return len(m.msgs) }

// At returns the message at i. Negative indices count from the end.
func (m *Messages) At(i int) (*Message, bool) {
	i, ok := index(i, len(m.msgs))
	if !ok {
		return nil, false
	}
	return m.msgs[i], true
}

// All yields the messages in order.
func (m *Messages) All() iter.Seq2[int, *Message] {
	return slices.All(m.msgs)
}

// Append adds msg at the end. When the last message has the same role and both
// are visible, the entries of msg are moved into it instead and msg is left
// empty. Tool messages are never folded.
func (m *Messages) Append(msg *Message) error {
	if err := m.check(msg, nil); err != nil {
		return err
	}
	if last, ok := m.At(-1); ok && m.foldable(last, msg) {
		entries := msg.Entries()
		msg.Clear()
		for _, e := range entries {
			// released by Clear, so they cannot be owned anymore
			_ = last.Append(e)
		}
		return nil
	}
	msg.owner = m
	m.msgs = append(m.msgs, msg)
	return nil
}

func (m *Messages) foldable(last, msg *Message) bool {
	return !m.noMerge &&
		last.role == msg.role &&
		msg.role != messages.RoleTool &&
		last.Visible() && msg.Visible()
}

// Insert puts msg before position i without folding. Positions are clamped
// like Container.Insert.
func (m *Messages) Insert(i int, msg *Message) error {
	if err := m.check(msg, nil); err != nil {
		return err
	}
	msg.owner = m
	m.msgs = slices.Insert(m.msgs, insertAt(i, len(m.msgs)), msg)
	return nil
}

// PopAt removes and returns the message at i.
func (m *Messages) PopAt(i int) (*Message, bool) {
	i, ok := index(i, len(m.msgs))
	if !ok {
		return nil, false
	}
	msg := m.msgs[i]
	msg.owner = nil
	m.msgs = slices.Delete(m.msgs, i, i+1)
	return msg, true
}

// Remove removes msg when m holds it.
func (m *Messages) Remove(msg *Message) bool {
	i := slices.Index(m.msgs, msg)
	if i < 0 {
		return false
	}
	m.PopAt(i)
	return true
}

// Clear removes every message.
func (m *Messages) Clear() {
	for _, msg := range m.msgs {
		msg.owner = nil
	}
	m.msgs = nil
}

// Slice returns a snapshot of the messages in [lo:hi).
func (m *Messages) Slice(lo, hi int) []*Message {
	lo, hi = bounds(lo, hi, len(m.msgs))
	return slices.Clone(m.msgs[lo:hi])
}

// SetSlice replaces the messages in [lo:hi) with msgs, without folding.
// Nothing changes when a message is rejected.
func (m *Messages) SetSlice(lo, hi int, msgs ...*Message) error {
	lo, hi = bounds(lo, hi, len(m.msgs))
	replaced := m.msgs[lo:hi]
	for i, msg := range msgs {
		if slices.Contains(msgs[:i], msg) {
			return fmt.Errorf("%w: %v is listed twice", ErrOwnership, msg)
		}
		if err := m.check(msg, replaced); err != nil {
			return err
		}
	}
	for _, msg := range replaced {
		msg.owner = nil
	}
	for _, msg := range msgs {
		msg.owner = m
	}
	m.msgs = slices.Concat(m.msgs[:lo:lo], msgs, m.msgs[hi:])
	return nil
}

// Concat moves the messages of m and then of others into a new Messages with
// the options of m. Messages are not folded. The operands are left empty.
func (m *Messages) Concat(others ...*Messages) (*Messages, error) {
	operands := append([]*Messages{m}, others...)
	for i, o := range operands {
		if o == nil {
			return nil, fmt.Errorf("%w: nil messages", ErrInvalidEntry)
		}
		if slices.Contains(operands[:i], o) {
			return nil, fmt.Errorf("%w: messages are listed twice", ErrInvalidEntry)
		}
	}

	out := &Messages{concurrency: m.concurrency, policy: m.policy, noMerge: m.noMerge}
	for _, o := range operands {
		moved := o.msgs
		o.Clear()
		for _, msg := range moved {
			msg.owner = out
		}
		out.msgs = append(out.msgs, moved...)
	}
	return out, nil
}

func (m *Messages) check(msg *Message, reusable []*Message) error {
	if msg == nil {
		return fmt.Errorf("%w: nil message", ErrInvalidEntry)
	}
	if msg.owner != nil && !(msg.owner == m && slices.Contains(reusable, msg)) {
		return fmt.Errorf("%w: %v", ErrOwnership, msg)
	}
	return nil
}

// Pop removes the first provider named name anywhere in the tree.
func (m *Messages) Pop(name string) (provider.Provider, bool) {
	for _, msg := range m.msgs {
		if p, ok := msg.Pop(name); ok {
			return p, true
		}
	}
	return nil, false
}

// Provider returns every provider named name anywhere in the tree, in document order.
func (m *Messages) Provider(name string) Group {
	g := Group{name: name}
	for p := range m.Providers() {
		if p.Name() == name {
			g.members = append(g.members, p)
		}
	}
	return g
}

// Providers yields every provider in the tree depth-first, hidden ones included.
func (m *Messages) Providers() iter.Seq[provider.Provider] {
	return func(yield func(provider.Provider) bool) {
		for _, msg := range m.msgs {
			if !msg.walk(false, yield) {
				return
			}
		}
	}
}

// Render merges the cached content of every message. It never produces, so a
// provider that was not refreshed yet contributes nothing. Messages without
// visible content are left out.
func (m *Messages) Render() []messages.Message {
	return m.render(nil)
}

func (m *Messages) render(skip map[uuid.UUID]struct{}) []messages.Message {
	out := make([]messages.Message, 0, len(m.msgs))
	for _, msg := range m.msgs {
		if msg.contributes(skip) {
			continue
		}
		if wm, ok := msg.Render(); ok {
			out = append(out, wm)
		}
	}
	return out
}

// RenderLatest refreshes every provider whose policy asks for it and renders
// afterwards. Refreshes run concurrently, the output is always in document order.
//
// Failed providers keep their previous cache. Their errors are joined in the
// returned error, each one a *provider.ProduceError; what is rendered alongside
// depends on the ErrorPolicy. A cancelled ctx always returns no messages.
//
// Hidden providers are refreshed as well and their failures are reported the
// same way: with ErrorPolicyFail a failing hidden provider fails the render,
// with ErrorPolicySkipMessage it drops nothing since it contributes nothing.
func (m *Messages) RenderLatest(ctx context.Context) ([]messages.Message, error) {
	failed, err := m.refresh(ctx)
	if cerr := ctx.Err(); cerr != nil {
		return nil, errors.Join(cerr, err)
	}
	if err == nil {
		return m.Render(), nil
	}
	if m.policy == ErrorPolicySkipMessage {
		return m.render(failed), err
	}
	return nil, err
}

// Refresh runs the refresh step of RenderLatest without rendering.
func (m *Messages) Refresh(ctx context.Context) error {
	_, err := m.refresh(ctx)
	return err
}

func (m *Messages) refresh(ctx context.Context) (map[uuid.UUID]struct{}, error) {
	var stale []provider.Provider
	for p := range m.Providers() {
		if p.NeedsRefresh() {
			stale = append(stale, p)
		}
	}
	if len(stale) == 0 {
		return nil, nil
	}

	start := time.Now()
	slog.DebugContext(ctx, "refreshing providers", slogx.Count("stale", len(stale)))

	// one failure must not cancel its siblings, hence no errgroup.WithContext
	var g errgroup.Group
	if m.concurrency > 0 {
		g.SetLimit(m.concurrency)
	}
	errs := make([]error, len(stale))
	for i, p := range stale {
		g.Go(func() error {
			_, errs[i] = p.Refresh(ctx)
			return nil
		})
	}
	_ = g.Wait()

	var failed map[uuid.UUID]struct{}
	for i, err := range errs {
		if err == nil {
			continue
		}
		if failed == nil {
			failed = make(map[uuid.UUID]struct{})
		}
		failed[stale[i].ID()] = struct{}{}
		slog.ErrorContext(ctx, "provider refresh failed", slogx.Provider(stale[i].Name(), stale[i].ID()), slogx.Error(err))
	}

	slog.DebugContext(ctx, "providers refreshed",
		slogx.Count("stale", len(stale)),
		slogx.Count("failed", len(failed)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return failed, errors.Join(errs...)
}
