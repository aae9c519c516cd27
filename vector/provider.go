// Package vector abstracts vector database backends behind a single
// Provider interface. Embeddings are always computed externally and
// passed in pre-computed; providers only store and search them.
package vector

import "context"

// Result is a single search hit.
type Result struct {
	ID       string
	Score    float32
	Content  string
	Vector   []float32
	Metadata map[string]any
}

// Provider is a vector storage backend.
type Provider interface {
	// Upsert adds or updates a document with its vector embedding.
	// The document content travels in metadata under the "content" key.
	Upsert(ctx context.Context, collection string, id string, vector []float32, metadata map[string]any) error

	// Search finds the topK most similar vectors in a collection.
	Search(ctx context.Context, collection string, vector []float32, topK int) ([]Result, error)

	// SearchWithFilter combines vector similarity with metadata filtering.
	// Filter values match on equality; a nil filter searches everything.
	SearchWithFilter(ctx context.Context, collection string, vector []float32, topK int, filter map[string]any) ([]Result, error)

	// Delete removes a document from a collection by ID.
	Delete(ctx context.Context, collection string, id string) error

	// DeleteByFilter removes all documents matching the filter.
	DeleteByFilter(ctx context.Context, collection string, filter map[string]any) error

	// CreateCollection creates a collection for vectors of the given dimension.
	CreateCollection(ctx context.Context, collection string, vectorDimension int) error

	// DeleteCollection removes a collection and all its documents.
	DeleteCollection(ctx context.Context, collection string) error

	// Name returns the provider name.
	Name() string

	// Close releases resources and flushes any pending persistence.
	Close() error
}
