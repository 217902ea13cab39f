package domain

import (
	"regexp"
	"strings"
	"time"
	"unicode"
)

// Tenant is an isolated account whose documents, manifest and vector
// namespace never intermix with another tenant's.
type Tenant struct {
	// ID is the unique identifier for the tenant.
	ID string

	// Email is the stable user key that identifies the tenant.
	// A tenant is created on first successful authentication and is
	// never merged with another tenant.
	Email string

	// Namespace is the tenant's vector-store namespace. It is derived
	// from Email exactly once at provisioning time and validated there;
	// call sites must never recompute it from raw strings.
	Namespace string

	// ListerType identifies the remote source ("googledrive", "github",
	// "filesystem").
	ListerType string

	// ListerConfig contains lister-specific configuration such as the
	// folder to mirror or the repository to list.
	ListerConfig map[string]string

	// CreatedAt is when the tenant was provisioned.
	CreatedAt time.Time

	// UpdatedAt is when the tenant was last updated.
	UpdatedAt time.Time
}

// MaxNamespaceLen bounds namespace length to what PostgreSQL accepts for
// identifiers.
const MaxNamespaceLen = 63

var namespacePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// DeriveNamespace converts a tenant email into a storage namespace safe to
// use as part of a PostgreSQL identifier. Lowercases, maps "@" to "_at_",
// replaces every other non-alphanumeric rune with "_", prefixes a leading
// digit and truncates to MaxNamespaceLen.
func DeriveNamespace(email string) string {
	s := strings.ToLower(strings.TrimSpace(email))
	s = strings.ReplaceAll(s, "@", "_at_")

	var b strings.Builder
	for _, r := range s {
		if unicode.IsLower(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	s = b.String()

	if s == "" {
		return ""
	}
	if unicode.IsDigit(rune(s[0])) {
		s = "tenant_" + s
	}
	if len(s) > MaxNamespaceLen {
		s = s[:MaxNamespaceLen]
	}
	return s
}

// ValidNamespace reports whether s is a well-formed namespace. Adapters
// must check this before interpolating a namespace into an identifier.
func ValidNamespace(s string) bool {
	return s != "" && len(s) <= MaxNamespaceLen && namespacePattern.MatchString(s)
}
