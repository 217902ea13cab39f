package services

import "github.com/calder-labs/mirador/internal/core/domain"

// DiffOptions tunes change classification.
type DiffOptions struct {
	// UseContentHash enables a content-hash confirmation pass for
	// listings whose timestamps are unreliable. When both the manifest
	// entry and the listing carry a hash, equal hashes classify the
	// document as unchanged even with a newer timestamp, and differing
	// hashes classify it as modified even with an equal timestamp.
	UseContentHash bool
}

// Diff classifies the current remote listing against the previous
// manifest. Pure and total: it touches no storage or network, so it can be
// tested against literal fixtures.
//
// A document with a modification time equal to its manifest entry is
// unchanged. This trades a theoretical missed update at the remote clock's
// resolution for skipping redundant embedding work; sources with coarse
// clocks should enable UseContentHash instead.
func Diff(previous domain.Manifest, current []domain.RemoteDocument, opts DiffOptions) domain.ChangeSet {
	var cs domain.ChangeSet

	seen := make(map[string]bool, len(current))
	for _, doc := range current {
		seen[doc.ID] = true

		prev, ok := previous[doc.ID]
		if !ok {
			cs.Added = append(cs.Added, doc)
			continue
		}

		if opts.UseContentHash && doc.ContentHash != "" && prev.ContentHash != "" {
			if doc.ContentHash == prev.ContentHash {
				cs.Unchanged = append(cs.Unchanged, doc.ID)
			} else {
				cs.Modified = append(cs.Modified, doc)
			}
			continue
		}

		if doc.ModifiedTime.After(prev.ModifiedTime) {
			cs.Modified = append(cs.Modified, doc)
		} else {
			cs.Unchanged = append(cs.Unchanged, doc.ID)
		}
	}

	for id := range previous {
		if !seen[id] {
			cs.Deleted = append(cs.Deleted, id)
		}
	}
	return cs
}
