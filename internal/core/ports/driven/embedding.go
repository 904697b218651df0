package driven

import "context"

// EmbeddingService generates vector embeddings from text. It is the
// pluggable scoring oracle: the core only requires that identical
// input yields an identical vector.
//
// Implementations may include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
//   - Local models via inference servers
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 768, 1536).
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight
	// test request before a hunt commits to scoring.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
