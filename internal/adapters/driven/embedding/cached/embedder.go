// Package cached wraps an embedder with an in-process LRU so re-embedding
// unchanged text (retried documents, repeated queries) costs nothing.
package cached

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/calder-labs/mirador/internal/core/ports/driven"
)

// DefaultSize is the default number of cached vectors.
const DefaultSize = 4096

// Embedder is a caching decorator around another driven.Embedder.
type Embedder struct {
	next  driven.Embedder
	cache *lru.Cache[string, []float32]
}

var _ driven.Embedder = (*Embedder)(nil)

// Wrap returns an embedder that caches per-text vectors. A non-positive
// size falls back to DefaultSize.
func Wrap(next driven.Embedder, size int) (*Embedder, error) {
	if size <= 0 {
		size = DefaultSize
	}
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, err
	}
	return &Embedder{next: next, cache: cache}, nil
}

// EmbedDocuments embeds only the texts missing from the cache and stitches
// cached vectors back into input order.
func (e *Embedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int

	for i, text := range texts {
		if cached, ok := e.cache.Get(e.key("doc", text)); ok {
			vectors[i] = cloneVector(cached)
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) > 0 {
		fresh, err := e.next.EmbedDocuments(ctx, missing)
		if err != nil {
			return nil, err
		}
		for j, vec := range fresh {
			i := missingIdx[j]
			vectors[i] = vec
			e.cache.Add(e.key("doc", texts[i]), cloneVector(vec))
		}
	}

	return vectors, nil
}

// EmbedQuery embeds a query, serving repeats from the cache.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	key := e.key("query", text)
	if cached, ok := e.cache.Get(key); ok {
		return cloneVector(cached), nil
	}

	vec, err := e.next.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	e.cache.Add(key, cloneVector(vec))
	return vec, nil
}

// Dimensions returns the wrapped embedder's vector size.
func (e *Embedder) Dimensions() int {
	return e.next.Dimensions()
}

// ModelName returns the wrapped embedder's model name.
func (e *Embedder) ModelName() string {
	return e.next.ModelName()
}

// key hashes the text so cache keys stay small. Task type is part of the
// key because documents and queries embed asymmetrically.
func (e *Embedder) key(taskType, text string) string {
	sum := sha256.Sum256([]byte(text))
	return e.next.ModelName() + "|" + taskType + "|" + hex.EncodeToString(sum[:])
}

func cloneVector(values []float32) []float32 {
	if len(values) == 0 {
		return nil
	}
	clone := make([]float32, len(values))
	copy(clone, values)
	return clone
}
