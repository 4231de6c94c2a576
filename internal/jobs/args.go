// Package jobs defines the engine's background jobs (River).
package jobs

import "github.com/google/uuid"

// ContentEmbeddingArgs asks the worker to compute and persist the embedding
// for one catalog row.
type ContentEmbeddingArgs struct {
	CatalogRowID uuid.UUID `json:"catalog_row_id"`
}

// Kind implements river.JobArgs.
func (ContentEmbeddingArgs) Kind() string { return "content_embedding" }
