package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/calder-labs/mirador/internal/core/domain"
	"github.com/calder-labs/mirador/internal/core/ports/driven"
)

// manifestStore implements driven.ManifestStore. Save replaces the tenant's
// manifest inside one transaction, so readers observe either the previous
// manifest or the new one, never a partial mix.
type manifestStore struct {
	store *Store
}

var _ driven.ManifestStore = (*manifestStore)(nil)

// Load returns the tenant's manifest. A tenant without persisted state gets
// an empty manifest. Rows that no longer decode (chunk id JSON, timestamps)
// map to domain.ErrManifestCorrupt, never to a silently empty manifest.
func (s *manifestStore) Load(ctx context.Context, tenantID string) (domain.Manifest, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT document_id, name, mime_type, modified_time, content_hash, chunk_ids, synced_at
		FROM manifest_entries WHERE tenant_id = ?
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("querying manifest: %w", err)
	}
	defer rows.Close()

	manifest := make(domain.Manifest)
	for rows.Next() {
		var entry domain.ManifestEntry
		var chunkIDsJSON string
		var modifiedTime, syncedAt sql.NullTime
		if err := rows.Scan(&entry.DocumentID, &entry.Name, &entry.MIMEType,
			&modifiedTime, &entry.ContentHash, &chunkIDsJSON, &syncedAt); err != nil {
			return nil, fmt.Errorf("%w: tenant %s: %v",
				domain.ErrManifestCorrupt, tenantID, err)
		}

		if err := json.Unmarshal([]byte(chunkIDsJSON), &entry.ChunkIDs); err != nil {
			return nil, fmt.Errorf("%w: tenant %s document %s: %v",
				domain.ErrManifestCorrupt, tenantID, entry.DocumentID, err)
		}

		if modifiedTime.Valid {
			entry.ModifiedTime = modifiedTime.Time
		}
		if syncedAt.Valid {
			entry.SyncedAt = syncedAt.Time
		}
		manifest[entry.DocumentID] = entry
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating manifest entries: %w", err)
	}

	return manifest, nil
}

// Save atomically replaces the tenant's manifest.
func (s *manifestStore) Save(ctx context.Context, tenantID string, manifest domain.Manifest) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM manifest_entries WHERE tenant_id = ?", tenantID); err != nil {
		return fmt.Errorf("clearing manifest: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO manifest_entries
			(tenant_id, document_id, name, mime_type, modified_time, content_hash, chunk_ids, synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, entry := range manifest {
		chunkIDsJSON, err := json.Marshal(entry.ChunkIDs)
		if err != nil {
			return fmt.Errorf("marshalling chunk ids: %w", err)
		}

		if _, err := stmt.ExecContext(ctx, tenantID, entry.DocumentID, entry.Name,
			entry.MIMEType, entry.ModifiedTime, entry.ContentHash,
			string(chunkIDsJSON), entry.SyncedAt); err != nil {
			return fmt.Errorf("saving manifest entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Stats returns the tenant's lifetime sync statistics. A tenant that never
// synced gets zero stats.
func (s *manifestStore) Stats(ctx context.Context, tenantID string) (domain.TenantStats, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT total_syncs, total_documents_processed, total_chunks_created, last_sync
		FROM tenant_stats WHERE tenant_id = ?
	`, tenantID)

	var stats domain.TenantStats
	var lastSync sql.NullTime
	if err := row.Scan(&stats.TotalSyncs, &stats.TotalDocumentsProcessed,
		&stats.TotalChunksCreated, &lastSync); err != nil {
		if err == sql.ErrNoRows {
			return domain.TenantStats{}, nil
		}
		return domain.TenantStats{}, fmt.Errorf("scanning tenant stats: %w", err)
	}

	if lastSync.Valid {
		stats.LastSync = lastSync.Time
	}

	return stats, nil
}

// RecordRun folds a completed run into the tenant's lifetime stats.
func (s *manifestStore) RecordRun(ctx context.Context, tenantID string, processed, chunksCreated int) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO tenant_stats (tenant_id, total_syncs, total_documents_processed, total_chunks_created, last_sync)
		VALUES (?, 1, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(tenant_id) DO UPDATE SET
			total_syncs = total_syncs + 1,
			total_documents_processed = total_documents_processed + excluded.total_documents_processed,
			total_chunks_created = total_chunks_created + excluded.total_chunks_created,
			last_sync = CURRENT_TIMESTAMP
	`, tenantID, processed, chunksCreated)

	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	return nil
}
