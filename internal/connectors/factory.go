package connectors

import (
	"context"
	"fmt"

	"github.com/calder-labs/mirador/internal/connectors/filesystem"
	"github.com/calder-labs/mirador/internal/connectors/github"
	"github.com/calder-labs/mirador/internal/connectors/googledrive"
	"github.com/calder-labs/mirador/internal/core/domain"
	"github.com/calder-labs/mirador/internal/core/ports/driven"
)

// Lister type identifiers.
const (
	TypeGoogleDrive = "googledrive"
	TypeGitHub      = "github"
	TypeFilesystem  = "filesystem"
)

// Factory builds listers from tenant configuration.
type Factory struct{}

var _ driven.ListerFactory = (*Factory)(nil)

// NewFactory creates a lister factory.
func NewFactory() *Factory {
	return &Factory{}
}

// Create builds a lister for the tenant's configured source type. Unknown
// types return domain.ErrUnsupportedType.
func (f *Factory) Create(ctx context.Context, tenant domain.Tenant) (driven.Lister, error) {
	switch tenant.ListerType {
	case TypeGoogleDrive:
		return googledrive.New(ctx, googledrive.ParseConfig(tenant.ListerConfig))
	case TypeGitHub:
		return github.New(ctx, github.ParseConfig(tenant.ListerConfig))
	case TypeFilesystem:
		return filesystem.New(filesystem.ParseConfig(tenant.ListerConfig))
	default:
		return nil, fmt.Errorf("%w: lister %q", domain.ErrUnsupportedType, tenant.ListerType)
	}
}
