package service

import (
	"context"
	"fmt"
	"strings"

	"realty/internal/model"
)

// VectorIndex stores embedded complex-description chunks. pgvector serves it
// on PostgreSQL, an in-memory index everywhere else.
type VectorIndex interface {
	Add(ctx context.Context, chunks []model.KnowledgeChunk) error
	Search(ctx context.Context, embedding []float32, city string, topK int) ([]model.KnowledgeHit, error)
	Clear(ctx context.Context) error
}

// knowledgeResultLimit caps both the resolved complex names and the injected
// document snippets.
const knowledgeResultLimit = 3

const knowledgeDigestPrefix = "Результат поиска в базе знаний запроса:/n"

// KnowledgeService resolves free-text search phrases to complex names via
// embedding similarity over the knowledge base.
type KnowledgeService struct {
	llm   ChatClient
	index VectorIndex
	topK  int
}

// NewKnowledgeService creates a knowledge search service. topK bounds the
// candidate pool fetched from the index before deduplication.
func NewKnowledgeService(llm ChatClient, index VectorIndex, topK int) *KnowledgeService {
	if topK <= 0 {
		topK = 100
	}
	return &KnowledgeService{llm: llm, index: index, topK: topK}
}

// SearchComplexes embeds the phrase and returns up to three resolved complex
// names together with the digest block for slot injection.
func (k *KnowledgeService) SearchComplexes(ctx context.Context, phrase, city string) ([]string, string, error) {
	embeddings, err := k.llm.CreateEmbeddings(ctx, []string{phrase})
	if err != nil {
		return nil, "", fmt.Errorf("embed search phrase: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, "", fmt.Errorf("embedding response was empty")
	}

	hits, err := k.index.Search(ctx, embeddings[0], city, k.topK)
	if err != nil {
		return nil, "", fmt.Errorf("knowledge search: %w", err)
	}
	if len(hits) == 0 {
		return nil, "Извините, информация не найдена.", nil
	}

	names := make([]string, 0, knowledgeResultLimit)
	seen := make(map[string]bool)
	for _, h := range hits {
		if seen[h.ComplexName] {
			continue
		}
		seen[h.ComplexName] = true
		names = append(names, h.ComplexName)
		if len(names) == knowledgeResultLimit {
			break
		}
	}

	docs := make([]string, 0, knowledgeResultLimit)
	for i := 0; i < len(hits) && i < knowledgeResultLimit; i++ {
		docs = append(docs, hits[i].Content)
	}

	return names, knowledgeDigestPrefix + strings.Join(docs, "\n"), nil
}
