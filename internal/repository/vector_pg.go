package repository

import (
	"context"
	"fmt"

	"realty/internal/model"

	"github.com/jmoiron/sqlx"
	"github.com/pgvector/pgvector-go"
)

// PGVectorIndex stores knowledge-base embeddings in PostgreSQL using the
// pgvector extension. It shares the catalog's connection pool.
type PGVectorIndex struct {
	db   *sqlx.DB
	dims int
}

// NewPGVectorIndex prepares the embeddings table, creating the vector
// extension when needed.
func NewPGVectorIndex(ctx context.Context, db *sqlx.DB, dims int) (*PGVectorIndex, error) {
	if _, err := db.ExecContext(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return nil, fmt.Errorf("failed to create vector extension: %w", err)
	}
	schema := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS knowledge_embeddings (
			id           TEXT PRIMARY KEY,
			complex_name TEXT NOT NULL,
			city         TEXT NOT NULL DEFAULT '',
			content      TEXT NOT NULL,
			embedding    vector(%d) NOT NULL
		)
	`, dims)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to create knowledge_embeddings: %w", err)
	}
	return &PGVectorIndex{db: db, dims: dims}, nil
}

// Add upserts description chunks by chunk id.
func (i *PGVectorIndex) Add(ctx context.Context, chunks []model.KnowledgeChunk) error {
	query := `
		INSERT INTO knowledge_embeddings (id, complex_name, city, content, embedding)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			complex_name = EXCLUDED.complex_name,
			city = EXCLUDED.city,
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding
	`
	for _, ch := range chunks {
		vec := pgvector.NewVector(ch.Embedding)
		if _, err := i.db.ExecContext(ctx, query, ch.ID, ch.ComplexName, ch.City, ch.Content, vec); err != nil {
			return fmt.Errorf("failed to upsert chunk %s: %w", ch.ID, err)
		}
	}
	return nil
}

// Search returns the closest chunks by cosine distance, optionally filtered
// by city metadata.
func (i *PGVectorIndex) Search(ctx context.Context, embedding []float32, city string, topK int) ([]model.KnowledgeHit, error) {
	vec := pgvector.NewVector(embedding)

	var rows []struct {
		ComplexName string  `db:"complex_name"`
		Content     string  `db:"content"`
		Distance    float64 `db:"distance"`
	}
	var err error
	if city != "" {
		query := `
			SELECT complex_name, content, embedding <=> $1 AS distance
			FROM knowledge_embeddings
			WHERE city = $2
			ORDER BY embedding <=> $1
			LIMIT $3
		`
		err = i.db.SelectContext(ctx, &rows, query, vec, city, topK)
	} else {
		query := `
			SELECT complex_name, content, embedding <=> $1 AS distance
			FROM knowledge_embeddings
			ORDER BY embedding <=> $1
			LIMIT $2
		`
		err = i.db.SelectContext(ctx, &rows, query, vec, topK)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to search embeddings: %w", err)
	}

	hits := make([]model.KnowledgeHit, len(rows))
	for n, r := range rows {
		hits[n] = model.KnowledgeHit{ComplexName: r.ComplexName, Content: r.Content, Distance: r.Distance}
	}
	return hits, nil
}

// Clear removes all stored chunks before a full reload.
func (i *PGVectorIndex) Clear(ctx context.Context) error {
	if _, err := i.db.ExecContext(ctx, `DELETE FROM knowledge_embeddings`); err != nil {
		return fmt.Errorf("failed to clear embeddings: %w", err)
	}
	return nil
}
