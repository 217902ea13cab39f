package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/calder-labs/mirador/internal/core/domain"
	"github.com/calder-labs/mirador/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// VectorStore is an in-memory implementation of driven.VectorStore with
// exact cosine ranking. Namespaces are fully isolated maps.
type VectorStore struct {
	mu         sync.RWMutex
	namespaces map[string]map[string]domain.Chunk

	// EnsureErr fails the next EnsureNamespace, then clears.
	EnsureErr error
}

// NewVectorStore creates a new in-memory vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{
		namespaces: make(map[string]map[string]domain.Chunk),
	}
}

// EnsureNamespace creates the namespace if it does not exist.
func (s *VectorStore) EnsureNamespace(_ context.Context, namespace string) error {
	if !domain.ValidNamespace(namespace) {
		return fmt.Errorf("%w: namespace %q", domain.ErrInvalidInput, namespace)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.EnsureErr != nil {
		err := s.EnsureErr
		s.EnsureErr = nil
		return err
	}
	if _, ok := s.namespaces[namespace]; !ok {
		s.namespaces[namespace] = make(map[string]domain.Chunk)
	}
	return nil
}

// Upsert writes chunks into the namespace, replacing same-id rows.
func (s *VectorStore) Upsert(_ context.Context, namespace string, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ns, err := s.namespace(namespace)
	if err != nil {
		return err
	}
	for _, ch := range chunks {
		ns[ch.ID] = ch
	}
	return nil
}

// DeleteByIDs removes the given chunk ids from the namespace.
func (s *VectorStore) DeleteByIDs(_ context.Context, namespace string, chunkIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ns, err := s.namespace(namespace)
	if err != nil {
		return err
	}
	for _, id := range chunkIDs {
		delete(ns, id)
	}
	return nil
}

// DeleteByDocument removes every chunk belonging to the document.
func (s *VectorStore) DeleteByDocument(_ context.Context, namespace string, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ns, err := s.namespace(namespace)
	if err != nil {
		return err
	}
	for id, ch := range ns {
		if ch.DocumentID == documentID {
			delete(ns, id)
		}
	}
	return nil
}

// Query returns the k nearest chunks by cosine similarity.
func (s *VectorStore) Query(_ context.Context, namespace string, vector []float32, k int) ([]domain.SearchHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ns, err := s.namespace(namespace)
	if err != nil {
		return nil, err
	}

	hits := make([]domain.SearchHit, 0, len(ns))
	for _, ch := range ns {
		hits = append(hits, domain.SearchHit{
			ChunkID:    ch.ID,
			DocumentID: ch.DocumentID,
			Name:       ch.Name,
			Position:   ch.Position,
			Text:       ch.Text,
			Similarity: cosine(vector, ch.Embedding),
		})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Similarity > hits[j].Similarity })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// DropNamespace removes the namespace and all of its chunks.
func (s *VectorStore) DropNamespace(_ context.Context, namespace string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.namespaces, namespace)
	return nil
}

// Close releases resources.
func (s *VectorStore) Close() error { return nil }

// ChunkIDs returns the chunk ids currently stored in the namespace,
// useful for asserting store contents in tests.
func (s *VectorStore) ChunkIDs(namespace string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ns := s.namespaces[namespace]
	out := make([]string, 0, len(ns))
	for id := range ns {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s *VectorStore) namespace(name string) (map[string]domain.Chunk, error) {
	ns, ok := s.namespaces[name]
	if !ok {
		return nil, fmt.Errorf("%w: namespace %q", domain.ErrNotFound, name)
	}
	return ns, nil
}

func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
