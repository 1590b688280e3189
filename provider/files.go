package provider

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/casualjim/architext/content"
	"github.com/casualjim/architext/pkg/slogx"
	"github.com/fsnotify/fsnotify"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

var _ Provider = (*Files)(nil)

// Files provides the contents of a set of files, in the order they were added:
//
//	<files>
//	<file path='main.go'>...</file>
//	</files>
//
// Paths are HTML escaped, contents are written as is. It produces nothing while empty.
type Files struct {
	*Base

	mu     sync.RWMutex
	files  *orderedmap.OrderedMap[string, string]
	onDisk map[string]struct{}
}

// NewFiles creates an OnDemand provider named "files".
func NewFiles(options ...Option) *Files {
	f := &Files{
		files:  orderedmap.New[string, string](),
		onDisk: make(map[string]struct{}),
	}
	f.Base = NewBase(f, append([]Option{Name("files")}, options...)...)
	return f
}

// Update sets the content for path and marks the provider dirty.
func (f *Files) Update(path, data string) {
	f.mu.Lock()
	f.files.Set(path, data)
	f.mu.Unlock()
	f.MarkDirty()
}

// Load reads path from disk into the provider. Loaded paths are followed by Watch.
func (f *Files) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	f.mu.Lock()
	f.files.Set(path, string(data))
	f.onDisk[path] = struct{}{}
	f.mu.Unlock()
	f.MarkDirty()
	return nil
}

// Remove drops path and reports whether it was present.
func (f *Files) Remove(path string) bool {
	f.mu.Lock()
	_, ok := f.files.Delete(path)
	delete(f.onDisk, path)
	f.mu.Unlock()
	if ok {
		f.MarkDirty()
	}
	return ok
}

// Paths returns the tracked paths in insertion order.
func (f *Files) Paths() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	paths := make([]string, 0, f.files.Len())
	for pair := f.files.Oldest(); pair != nil; pair = pair.Next() {
		paths = append(paths, pair.Key)
	}
	return paths
}

func (f *Files) Produce(context.Context) ([]content.Block, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.files.Len() == 0 {
		return nil, nil
	}

	var sb strings.Builder
	sb.WriteString("<files>\n")
	first := true
	for pair := f.files.Oldest(); pair != nil; pair = pair.Next() {
		if !first {
			sb.WriteByte('\n')
		}
		first = false
		fmt.Fprintf(&sb, "<file path='%s'>%s</file>", html.EscapeString(pair.Key), pair.Value)
	}
	sb.WriteString("\n</files>")
	return []content.Block{content.Text(sb.String())}, nil
}

// Watch follows the files added with Load and reloads them when they change on
// disk. A removed or renamed file is dropped. Watch blocks until ctx is done.
func (f *Files) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	f.mu.RLock()
	var paths []string
	for p := range f.onDisk {
		paths = append(paths, p)
	}
	f.mu.RUnlock()

	for _, p := range paths {
		if err := w.Add(p); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			f.handleEvent(ctx, ev)
		case werr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.ErrorContext(ctx, "file watcher error", slogx.Provider(f.Name(), f.ID()), slogx.Error(werr))
		}
	}
}

func (f *Files) handleEvent(ctx context.Context, ev fsnotify.Event) {
	switch {
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		f.Remove(ev.Name)
	case ev.Has(fsnotify.Write), ev.Has(fsnotify.Create):
		if err := f.Load(ev.Name); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.ErrorContext(ctx, "reload watched file", slogx.Provider(f.Name(), f.ID()), slogx.Error(err))
		}
	}
}
