package embeddings

import "context"

// Embedder turns text into vectors for the semantic memory.
type Embedder interface {
	// Embed vectorizes the given texts, one vector per text, in order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is the width of the vectors this embedder produces.
	Dimensions() int

	// Name identifies the embedding model, for logs and persistence.
	Name() string
}
