// Package extract converts raw document bytes into plain text, dispatched
// by MIME type. Text-based formats are handled in-process; binary formats
// (PDF, DOCX, ...) are external collaborators registered by the
// surrounding application.
package extract

import (
	"fmt"
	"strings"
	"sync"

	"github.com/calder-labs/mirador/internal/core/domain"
	"github.com/calder-labs/mirador/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.Extractor = (*Registry)(nil)

// Func extracts text from raw content of one MIME type.
type Func func(content []byte) (string, error)

// Registry dispatches extraction by MIME type. Text formats are built in;
// additional extractors can be registered for binary formats.
type Registry struct {
	mu     sync.RWMutex
	exact  map[string]Func
	prefix map[string]Func
}

// NewRegistry creates a registry with the built-in text extractors.
func NewRegistry() *Registry {
	r := &Registry{
		exact:  make(map[string]Func),
		prefix: make(map[string]Func),
	}

	r.RegisterPrefix("text/", decodeText)
	r.Register("text/html", decodeHTML)
	r.Register("application/xhtml+xml", decodeHTML)
	for _, mime := range []string{
		"application/json",
		"application/xml",
		"application/javascript",
		"application/x-yaml",
		"application/x-sh",
		"application/sql",
		"image/svg+xml",
	} {
		r.Register(mime, decodeText)
	}
	return r
}

// Register installs an extractor for an exact MIME type, replacing any
// existing one.
func (r *Registry) Register(mimeType string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exact[normalise(mimeType)] = fn
}

// RegisterPrefix installs an extractor for a MIME type prefix such as
// "text/". Exact registrations take precedence.
func (r *Registry) RegisterPrefix(prefix string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prefix[strings.ToLower(prefix)] = fn
}

// Extract returns the text content of the document. Unknown MIME types
// return domain.ErrUnsupportedFormat; extractor failures wrap
// domain.ErrExtraction.
func (r *Registry) Extract(content []byte, mimeType string) (string, error) {
	fn, ok := r.lookup(normalise(mimeType))
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, mimeType)
	}

	text, err := fn(content)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", domain.ErrExtraction, mimeType, err)
	}
	return text, nil
}

func (r *Registry) lookup(mimeType string) (Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if fn, ok := r.exact[mimeType]; ok {
		return fn, true
	}
	for prefix, fn := range r.prefix {
		if strings.HasPrefix(mimeType, prefix) {
			return fn, true
		}
	}
	return nil, false
}

// normalise strips parameters ("text/plain; charset=utf-8") and lowercases.
func normalise(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}

// decodeText treats the content as UTF-8, dropping NUL bytes which
// PostgreSQL rejects inside text values.
func decodeText(content []byte) (string, error) {
	return strings.ReplaceAll(string(content), "\x00", ""), nil
}
