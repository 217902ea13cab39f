package driven

import (
	"context"

	"github.com/calder-labs/mirador/internal/core/domain"
)

// Lister produces the full current listing of a tenant's visible remote
// documents and fetches their raw content. Implementations paginate
// internally and must tolerate arbitrarily many pages; List exposes the
// complete listing as one slice.
type Lister interface {
	// Type returns the lister type identifier.
	Type() string

	// List returns metadata for every document currently visible to the
	// tenant. Failures wrap domain.ErrTransport.
	List(ctx context.Context) ([]domain.RemoteDocument, error)

	// Fetch retrieves the raw content for one listed document.
	// Failures wrap domain.ErrTransport.
	Fetch(ctx context.Context, doc domain.RemoteDocument) ([]byte, error)

	// Close releases resources.
	Close() error
}

// Watcher is an optional extension for listers that can push change
// notifications. The scheduler uses notifications to trigger an early
// sync; they are best-effort and carry no payload, a periodic run always
// reconciles the full listing.
type Watcher interface {
	// Watch emits an event whenever the underlying source reports a
	// change. The channel closes when ctx is cancelled.
	Watch(ctx context.Context) (<-chan struct{}, error)
}

// ListerFactory creates the lister configured for a tenant.
type ListerFactory interface {
	// Create builds a Lister from the tenant's lister type and config.
	// Unknown types return domain.ErrUnsupportedType.
	Create(ctx context.Context, tenant domain.Tenant) (Lister, error)
}
