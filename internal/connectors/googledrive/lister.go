// Package googledrive provides a lister over a Google Drive account or
// folder. Google Workspace documents are exported to text formats; regular
// files are downloaded as-is.
package googledrive

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/calder-labs/mirador/internal/core/domain"
	"github.com/calder-labs/mirador/internal/core/ports/driven"
)

// Type is the lister type identifier.
const Type = "googledrive"

// Google Workspace MIME types that must be exported rather than downloaded.
const (
	MimeTypeGoogleDoc    = "application/vnd.google-apps.document"
	MimeTypeGoogleSheet  = "application/vnd.google-apps.spreadsheet"
	MimeTypeGoogleSlides = "application/vnd.google-apps.presentation"
	MimeTypeFolder       = "application/vnd.google-apps.folder"
)

// Export formats for Google Workspace files.
const (
	ExportMimeText = "text/plain"
	ExportMimeCSV  = "text/csv"
)

// MaxFetchSize is the maximum size for downloaded or exported content (5MB).
const MaxFetchSize = 5 * 1024 * 1024

// DefaultPageSize is the files.list page size.
const DefaultPageSize = 100

// listFields are the file attributes requested per page.
const listFields = "nextPageToken, files(id, name, mimeType, modifiedTime, size, md5Checksum, trashed)"

// exportTargets maps Workspace MIME types to their export format.
var exportTargets = map[string]string{
	MimeTypeGoogleDoc:    ExportMimeText,
	MimeTypeGoogleSheet:  ExportMimeCSV,
	MimeTypeGoogleSlides: ExportMimeText,
}

// Config holds Google Drive lister configuration.
type Config struct {
	// AccessToken authenticates Drive API calls.
	AccessToken string

	// FolderID limits listing to one folder (optional; empty lists the
	// whole Drive).
	FolderID string

	// PageSize is the files.list page size.
	PageSize int64
}

// ParseConfig extracts configuration from a tenant's lister config.
func ParseConfig(raw map[string]string) Config {
	cfg := Config{
		AccessToken: raw["access_token"],
		FolderID:    raw["folder_id"],
		PageSize:    DefaultPageSize,
	}
	if v := raw["page_size"]; v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.PageSize = n
		}
	}
	return cfg
}

// Lister lists and fetches documents from Google Drive. Workspace documents
// are reported with their export MIME type, so downstream extraction sees
// the format Fetch actually delivers.
type Lister struct {
	svc      *drive.Service
	cfg      Config
	limiter  *RateLimiter
	workMime map[string]string // document id -> original Workspace MIME type
}

var _ driven.Lister = (*Lister)(nil)

// New creates a Drive lister authenticated with the config's access token.
func New(ctx context.Context, cfg Config) (*Lister, error) {
	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("%w: drive access token is required", domain.ErrInvalidInput)
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.AccessToken})
	svc, err := drive.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("creating drive service: %w", err)
	}

	return &Lister{
		svc:      svc,
		cfg:      cfg,
		limiter:  NewRateLimiter(),
		workMime: make(map[string]string),
	}, nil
}

// Type returns the lister type identifier.
func (l *Lister) Type() string { return Type }

// List pages through files.list and returns every non-trashed, non-folder
// file. ContentHash carries the md5Checksum Drive reports for binary
// content; Workspace documents have none and rely on modifiedTime.
func (l *Lister) List(ctx context.Context) ([]domain.RemoteDocument, error) {
	var docs []domain.RemoteDocument
	pageToken := ""

	for {
		if err := l.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		call := l.svc.Files.List().
			Context(ctx).
			PageSize(l.cfg.PageSize).
			Fields(listFields).
			Q(l.query())
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		page, err := call.Do()
		if err != nil {
			l.noteRateLimit(err)
			return nil, fmt.Errorf("%w: listing drive files: %v", domain.ErrTransport, err)
		}

		for _, file := range page.Files {
			if file.MimeType == MimeTypeFolder || file.Trashed {
				continue
			}

			doc := domain.RemoteDocument{
				ID:          file.Id,
				Name:        file.Name,
				MIMEType:    file.MimeType,
				Size:        file.Size,
				ContentHash: file.Md5Checksum,
			}
			if file.ModifiedTime != "" {
				ts, err := time.Parse(time.RFC3339, file.ModifiedTime)
				if err != nil {
					return nil, fmt.Errorf("parsing modified time for %s: %w", file.Id, err)
				}
				doc.ModifiedTime = ts.UTC()
			}

			// Workspace documents are delivered in their export format.
			if target, ok := exportTargets[file.MimeType]; ok {
				l.workMime[file.Id] = file.MimeType
				doc.MIMEType = target
			}

			docs = append(docs, doc)
		}

		pageToken = page.NextPageToken
		if pageToken == "" {
			return docs, nil
		}
	}
}

// Fetch downloads regular files and exports Workspace documents.
func (l *Lister) Fetch(ctx context.Context, doc domain.RemoteDocument) ([]byte, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	if _, isWorkspace := l.workMime[doc.ID]; isWorkspace {
		r, err := l.svc.Files.Export(doc.ID, doc.MIMEType).Context(ctx).Download()
		if err != nil {
			l.noteRateLimit(err)
			return nil, fmt.Errorf("%w: exporting %s: %v", domain.ErrTransport, doc.ID, err)
		}
		defer r.Body.Close()
		return readCapped(r.Body)
	}

	r, err := l.svc.Files.Get(doc.ID).Context(ctx).Download()
	if err != nil {
		l.noteRateLimit(err)
		return nil, fmt.Errorf("%w: downloading %s: %v", domain.ErrTransport, doc.ID, err)
	}
	defer r.Body.Close()
	return readCapped(r.Body)
}

// noteRateLimit records a 429 response so subsequent calls back off for
// the server-requested period.
func (l *Lister) noteRateLimit(err error) {
	if retryAfter, ok := IsRateLimited(err); ok {
		l.limiter.RecordRateLimitError(retryAfter)
	}
}

// Close releases resources.
func (l *Lister) Close() error { return nil }

// query builds the files.list q expression.
func (l *Lister) query() string {
	terms := []string{"trashed = false"}
	if l.cfg.FolderID != "" {
		terms = append(terms, fmt.Sprintf("'%s' in parents", l.cfg.FolderID))
	}
	return strings.Join(terms, " and ")
}

func readCapped(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxFetchSize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading content: %v", domain.ErrTransport, err)
	}
	return data, nil
}
