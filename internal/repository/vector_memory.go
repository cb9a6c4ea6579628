package repository

import (
	"context"
	"math"
	"sort"
	"sync"

	"realty/internal/model"
)

// MemoryVectorIndex is an in-process knowledge index used when the catalog
// runs on SQLite. Brute-force cosine distance is plenty for a few hundred
// description chunks.
type MemoryVectorIndex struct {
	mu     sync.RWMutex
	chunks map[string]model.KnowledgeChunk
}

// NewMemoryVectorIndex creates an empty in-memory index.
func NewMemoryVectorIndex() *MemoryVectorIndex {
	return &MemoryVectorIndex{chunks: make(map[string]model.KnowledgeChunk)}
}

// Add upserts description chunks by chunk id.
func (i *MemoryVectorIndex) Add(ctx context.Context, chunks []model.KnowledgeChunk) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, ch := range chunks {
		i.chunks[ch.ID] = ch
	}
	return nil
}

// Search returns the closest chunks by cosine distance, optionally filtered
// by city metadata.
func (i *MemoryVectorIndex) Search(ctx context.Context, embedding []float32, city string, topK int) ([]model.KnowledgeHit, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	hits := make([]model.KnowledgeHit, 0, len(i.chunks))
	for _, ch := range i.chunks {
		if city != "" && ch.City != city {
			continue
		}
		hits = append(hits, model.KnowledgeHit{
			ComplexName: ch.ComplexName,
			Content:     ch.Content,
			Distance:    cosineDistance(embedding, ch.Embedding),
		})
	}

	sort.Slice(hits, func(a, b int) bool { return hits[a].Distance < hits[b].Distance })
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// Clear removes all stored chunks before a full reload.
func (i *MemoryVectorIndex) Clear(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.chunks = make(map[string]model.KnowledgeChunk)
	return nil
}

func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 1
	}
	var dot, normA, normB float64
	for n := range a {
		dot += float64(a[n]) * float64(b[n])
		normA += float64(a[n]) * float64(a[n])
		normB += float64(b[n]) * float64(b[n])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
