package repository

import (
	"context"
	"testing"

	"realty/internal/model"
)

func seedIndex(t *testing.T) *MemoryVectorIndex {
	t.Helper()
	index := NewMemoryVectorIndex()
	err := index.Add(context.Background(), []model.KnowledgeChunk{
		{ID: "a-1", ComplexName: "Аква Сити", City: "Владивосток", Content: "высотки у моря", Embedding: []float32{1, 0, 0}},
		{ID: "b-1", ComplexName: "Борисенко 48", City: "Владивосток", Content: "тихий двор", Embedding: []float32{0, 1, 0}},
		{ID: "c-1", ComplexName: "Чужой город", City: "Артем", Content: "за городом", Embedding: []float32{1, 0.1, 0}},
	})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	return index
}

func TestMemoryVectorIndexSearchOrdersByDistance(t *testing.T) {
	index := seedIndex(t)

	hits, err := index.Search(context.Background(), []float32{1, 0, 0}, "", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(hits))
	}
	if hits[0].ComplexName != "Аква Сити" {
		t.Errorf("closest hit = %q, want Аква Сити", hits[0].ComplexName)
	}
	if hits[0].Distance > hits[1].Distance || hits[1].Distance > hits[2].Distance {
		t.Errorf("hits not ordered by distance: %+v", hits)
	}
}

func TestMemoryVectorIndexSearchCityFilter(t *testing.T) {
	index := seedIndex(t)

	hits, err := index.Search(context.Background(), []float32{1, 0, 0}, "Владивосток", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	for _, h := range hits {
		if h.ComplexName == "Чужой город" {
			t.Error("city filter leaked a foreign chunk")
		}
	}
	if len(hits) != 2 {
		t.Errorf("expected 2 hits, got %d", len(hits))
	}
}

func TestMemoryVectorIndexTopK(t *testing.T) {
	index := seedIndex(t)

	hits, err := index.Search(context.Background(), []float32{1, 0, 0}, "", 1)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected topK cap of 1, got %d", len(hits))
	}
}

func TestMemoryVectorIndexUpsertAndClear(t *testing.T) {
	ctx := context.Background()
	index := seedIndex(t)

	// Same id replaces the chunk instead of duplicating it.
	err := index.Add(ctx, []model.KnowledgeChunk{
		{ID: "a-1", ComplexName: "Аква Сити", City: "Владивосток", Content: "обновленный текст", Embedding: []float32{1, 0, 0}},
	})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	hits, err := index.Search(ctx, []float32{1, 0, 0}, "", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 3 {
		t.Fatalf("expected upsert, got %d hits", len(hits))
	}
	if hits[0].Content != "обновленный текст" {
		t.Errorf("expected replaced content, got %q", hits[0].Content)
	}

	if err := index.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	hits, err = index.Search(ctx, []float32{1, 0, 0}, "", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("expected empty index after Clear, got %d hits", len(hits))
	}
}
