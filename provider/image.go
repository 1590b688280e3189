package provider

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/casualjim/architext/content"
)

var _ Provider = (*Images)(nil)

// Images provides a single image. Remote (http, https) and data URLs are passed
// through, anything else is read from disk and inlined as a base64 data URL.
type Images struct {
	*Base

	mu     sync.RWMutex
	url    string
	detail string
}

// NewImages creates an OnDemand image provider. The name defaults to "image".
func NewImages(url string, options ...Option) *Images {
	i := &Images{url: url}
	i.Base = NewBase(i, append([]Option{Name("image")}, options...)...)
	return i
}

// URL returns the current source location.
func (i *Images) URL() string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.url
}

// Update points the provider at a new image and marks it dirty.
func (i *Images) Update(url string) {
	i.mu.Lock()
	i.url = url
	i.mu.Unlock()
	i.MarkDirty()
}

// SetDetail sets the detail hint sent with the image ("low", "high", "auto").
func (i *Images) SetDetail(detail string) {
	i.mu.Lock()
	i.detail = detail
	i.mu.Unlock()
	i.MarkDirty()
}

func (i *Images) Produce(context.Context) ([]content.Block, error) {
	i.mu.RLock()
	url, detail := i.url, i.detail
	i.mu.RUnlock()

	if url == "" {
		return nil, nil
	}
	if !isInlineOrRemote(url) {
		var err error
		if url, err = dataURL(url); err != nil {
			return nil, err
		}
	}
	return []content.Block{content.ImageWithDetail(url, detail)}, nil
}

func isInlineOrRemote(url string) bool {
	return strings.HasPrefix(url, "http://") ||
		strings.HasPrefix(url, "https://") ||
		strings.HasPrefix(url, "data:")
}

func dataURL(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
