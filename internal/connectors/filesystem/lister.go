// Package filesystem provides a lister over a local directory tree. It is
// the simplest source and the reference implementation for lister
// semantics: stable ids, monotonic modification times, full listings.
package filesystem

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/calder-labs/mirador/internal/core/domain"
	"github.com/calder-labs/mirador/internal/core/ports/driven"
)

// Type is the lister type identifier.
const Type = "filesystem"

// MaxFileSize caps the size of files considered for indexing (5MB).
const MaxFileSize = 5 * 1024 * 1024

// Config holds filesystem lister configuration.
type Config struct {
	// Root is the directory to mirror.
	Root string
}

// ParseConfig extracts configuration from a tenant's lister config.
func ParseConfig(raw map[string]string) Config {
	return Config{Root: raw["root"]}
}

// Lister lists and reads files under a root directory. Document ids are
// slash-separated paths relative to the root, stable across renames of
// nothing but the file itself.
type Lister struct {
	root string

	watcher *fsnotify.Watcher
}

var (
	_ driven.Lister  = (*Lister)(nil)
	_ driven.Watcher = (*Lister)(nil)
)

// New creates a filesystem lister rooted at cfg.Root.
func New(cfg Config) (*Lister, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("%w: filesystem root is required", domain.ErrInvalidInput)
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: stat root: %v", domain.ErrTransport, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: root %s is not a directory", domain.ErrInvalidInput, root)
	}
	return &Lister{root: root}, nil
}

// Type returns the lister type identifier.
func (l *Lister) Type() string { return Type }

// List walks the root and returns metadata for every regular file. Hidden
// files and directories (dot-prefixed) are skipped. ContentHash is the
// SHA-256 of the file content, cheap to compute locally and used to confirm
// changes when filesystem timestamps are unreliable.
func (l *Lister) List(ctx context.Context) ([]domain.RemoteDocument, error) {
	var docs []domain.RemoteDocument

	err := filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		name := d.Name()
		if d.IsDir() {
			if strings.HasPrefix(name, ".") && path != l.root {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.Size() > MaxFileSize {
			return nil
		}

		rel, err := filepath.Rel(l.root, path)
		if err != nil {
			return err
		}

		hash, err := hashFile(path)
		if err != nil {
			return err
		}

		docs = append(docs, domain.RemoteDocument{
			ID:           filepath.ToSlash(rel),
			Name:         name,
			MIMEType:     detectMIMEType(name),
			ModifiedTime: info.ModTime().UTC(),
			Size:         info.Size(),
			ContentHash:  hash,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: walking %s: %v", domain.ErrTransport, l.root, err)
	}

	return docs, nil
}

// Fetch reads the file's content.
func (l *Lister) Fetch(ctx context.Context, doc domain.RemoteDocument) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := l.resolve(doc.ID)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", domain.ErrTransport, doc.ID, err)
	}
	return content, nil
}

// Watch emits a signal whenever anything under the root changes. The
// returned channel coalesces bursts: the consumer sees "something changed",
// not individual events, and decides when to re-sync.
func (l *Lister) Watch(ctx context.Context) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	l.watcher = watcher

	// Watch the root and every subdirectory; fsnotify is not recursive.
	err = filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != l.root {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", l.root, err)
	}

	signals := make(chan struct{}, 1)
	go func() {
		defer close(signals)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				// New directories need their own watch.
				if event.Op.Has(fsnotify.Create) {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						_ = watcher.Add(event.Name)
					}
				}
				select {
				case signals <- struct{}{}:
				default: // signal already pending
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return signals, nil
}

// Close stops the watcher if one was started.
func (l *Lister) Close() error {
	if l.watcher != nil {
		return l.watcher.Close()
	}
	return nil
}

// resolve maps a document id back to an absolute path, refusing ids that
// escape the root.
func (l *Lister) resolve(id string) (string, error) {
	path := filepath.Join(l.root, filepath.FromSlash(id))
	if path != l.root && !strings.HasPrefix(path, l.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: document id %q escapes root", domain.ErrInvalidInput, id)
	}
	return path, nil
}

func hashFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:]), nil
}

func detectMIMEType(name string) string {
	if mt := mime.TypeByExtension(filepath.Ext(name)); mt != "" {
		// Strip parameters like "; charset=utf-8".
		if i := strings.IndexByte(mt, ';'); i >= 0 {
			mt = strings.TrimSpace(mt[:i])
		}
		return mt
	}
	return "text/plain"
}
