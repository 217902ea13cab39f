package domain

// ChangeSet classifies the current remote listing against the manifest.
// It is a transient computation result and is never persisted. The four
// categories partition the union of manifest and listing ids exactly.
type ChangeSet struct {
	// Added are documents present remotely with no manifest entry.
	Added []RemoteDocument

	// Modified are documents whose remote state is newer than the
	// manifest entry.
	Modified []RemoteDocument

	// Deleted are manifest document ids absent from the remote listing.
	Deleted []string

	// Unchanged are document ids whose remote state matches the
	// manifest entry.
	Unchanged []string
}

// ToProcess returns the documents that need (re-)indexing: added followed
// by modified.
func (c ChangeSet) ToProcess() []RemoteDocument {
	out := make([]RemoteDocument, 0, len(c.Added)+len(c.Modified))
	out = append(out, c.Added...)
	out = append(out, c.Modified...)
	return out
}

// Empty reports whether the change set requires no work.
func (c ChangeSet) Empty() bool {
	return len(c.Added) == 0 && len(c.Modified) == 0 && len(c.Deleted) == 0
}
