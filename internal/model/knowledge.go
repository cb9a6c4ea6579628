package model

// KnowledgeChunk is one embedded slice of a complex description.
type KnowledgeChunk struct {
	ID          string
	ComplexName string
	City        string
	Content     string
	Embedding   []float32
}

// KnowledgeHit is a semantic search result. Distance is cosine distance, so
// smaller means closer.
type KnowledgeHit struct {
	ComplexName string
	Content     string
	Distance    float64
}
