// Package github provides a lister over one GitHub repository's default (or
// configured) branch. Tree timestamps on GitHub are coarse, so listings
// carry the blob SHA as a content hash and change detection should confirm
// with it.
package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"

	"github.com/calder-labs/mirador/internal/core/domain"
	"github.com/calder-labs/mirador/internal/core/ports/driven"
)

// Type is the lister type identifier.
const Type = "github"

// DefaultTimeout is the HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// MaxFileSize caps the size of blobs considered for indexing (1MB).
const MaxFileSize = 1024 * 1024

// Config holds GitHub lister configuration.
type Config struct {
	// Token authenticates API calls.
	Token string

	// Owner and Repo identify the repository.
	Owner string
	Repo  string

	// Branch overrides the repository's default branch (optional).
	Branch string
}

// ParseConfig extracts configuration from a tenant's lister config.
func ParseConfig(raw map[string]string) Config {
	return Config{
		Token:  raw["token"],
		Owner:  raw["owner"],
		Repo:   raw["repo"],
		Branch: raw["branch"],
	}
}

// Lister lists and fetches text files from one repository tree.
type Lister struct {
	gh      *gh.Client
	cfg     Config
	limiter *RateLimiter

	blobSHA map[string]string // path -> blob sha, filled by List
}

var _ driven.Lister = (*Lister)(nil)

// New creates a GitHub lister for the configured repository.
func New(ctx context.Context, cfg Config) (*Lister, error) {
	if cfg.Owner == "" || cfg.Repo == "" {
		return nil, fmt.Errorf("%w: github owner and repo are required", domain.ErrInvalidInput)
	}

	var tc *http.Client
	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		tc = oauth2.NewClient(ctx, ts)
	} else {
		tc = &http.Client{}
	}
	tc.Timeout = DefaultTimeout

	return &Lister{
		gh:      gh.NewClient(tc),
		cfg:     cfg,
		limiter: NewRateLimiter(),
		blobSHA: make(map[string]string),
	}, nil
}

// Type returns the lister type identifier.
func (l *Lister) Type() string { return Type }

// List returns every text blob on the branch. GitHub exposes no per-file
// modification time on the tree API, so every document carries the
// repository's pushed-at time and the blob SHA as ContentHash; diffing must
// confirm content changes with the hash.
func (l *Lister) List(ctx context.Context) ([]domain.RemoteDocument, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	repo, resp, err := l.gh.Repositories.Get(ctx, l.cfg.Owner, l.cfg.Repo)
	if err != nil {
		return nil, fmt.Errorf("%w: getting repository: %v", domain.ErrTransport, err)
	}
	l.limiter.Update(resp)

	branch := l.cfg.Branch
	if branch == "" {
		branch = repo.GetDefaultBranch()
	}
	pushedAt := repo.GetPushedAt().Time.UTC()

	if err := l.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	tree, resp, err := l.gh.Git.GetTree(ctx, l.cfg.Owner, l.cfg.Repo, branch, true)
	if err != nil {
		return nil, fmt.Errorf("%w: getting tree for %s: %v", domain.ErrTransport, branch, err)
	}
	l.limiter.Update(resp)

	docs := make([]domain.RemoteDocument, 0, len(tree.Entries))
	for _, entry := range tree.Entries {
		if entry.GetType() != "blob" {
			continue
		}
		path := entry.GetPath()
		if isBinaryExtension(path) || entry.GetSize() > MaxFileSize {
			continue
		}

		l.blobSHA[path] = entry.GetSHA()
		docs = append(docs, domain.RemoteDocument{
			ID:           path,
			Name:         filepath.Base(path),
			MIMEType:     detectFileMIMEType(path),
			ModifiedTime: pushedAt,
			Size:         int64(entry.GetSize()),
			ContentHash:  entry.GetSHA(),
		})
	}

	return docs, nil
}

// Fetch retrieves a blob's content by the SHA recorded during List.
func (l *Lister) Fetch(ctx context.Context, doc domain.RemoteDocument) ([]byte, error) {
	sha := l.blobSHA[doc.ID]
	if sha == "" {
		sha = doc.ContentHash
	}
	if sha == "" {
		return nil, fmt.Errorf("%w: no blob sha for %s", domain.ErrTransport, doc.ID)
	}

	if err := l.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	blob, resp, err := l.gh.Git.GetBlob(ctx, l.cfg.Owner, l.cfg.Repo, sha)
	if err != nil {
		return nil, fmt.Errorf("%w: getting blob %s: %v", domain.ErrTransport, sha, err)
	}
	l.limiter.Update(resp)

	if blob.GetEncoding() == "base64" {
		content := strings.ReplaceAll(blob.GetContent(), "\n", "")
		data, err := base64.StdEncoding.DecodeString(content)
		if err != nil {
			return nil, fmt.Errorf("decoding blob %s: %w", sha, err)
		}
		return data, nil
	}
	return []byte(blob.GetContent()), nil
}

// Close releases resources.
func (l *Lister) Close() error { return nil }

// binaryExtensions are skipped without fetching.
var binaryExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".ico": true,
	".webp": true, ".bmp": true, ".tiff": true, ".svg": false,
	".pdf": true, ".zip": true, ".tar": true, ".gz": true, ".bz2": true,
	".7z": true, ".rar": true, ".exe": true, ".dll": true, ".so": true,
	".dylib": true, ".bin": true, ".dat": true, ".db": true, ".sqlite": true,
	".woff": true, ".woff2": true, ".ttf": true, ".eot": true, ".otf": true,
	".mp3": true, ".mp4": true, ".avi": true, ".mov": true, ".wav": true,
	".jar": true, ".class": true, ".pyc": true, ".o": true, ".a": true,
}

func isBinaryExtension(path string) bool {
	return binaryExtensions[strings.ToLower(filepath.Ext(path))]
}

// detectFileMIMEType maps a path to a MIME type, defaulting source files
// and extensionless files to plain text.
func detectFileMIMEType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".md", ".markdown":
		return "text/markdown"
	case ".go", ".py", ".rb", ".rs", ".java", ".c", ".h", ".cpp", ".hpp",
		".ts", ".tsx", ".jsx", ".sh", ".bash", ".zsh", ".toml", ".ini",
		".cfg", ".conf", ".txt", "":
		return "text/plain"
	case ".json":
		return "application/json"
	case ".yaml", ".yml":
		return "application/x-yaml"
	case ".xml":
		return "application/xml"
	case ".js", ".mjs":
		return "application/javascript"
	case ".sql":
		return "application/sql"
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		if i := strings.IndexByte(mt, ';'); i >= 0 {
			mt = strings.TrimSpace(mt[:i])
		}
		return mt
	}
	return "text/plain"
}
