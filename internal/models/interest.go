package models

// Interest is an externally owned entity the engine consumes read-only: it is
// the unit a user selects on their interest map, and the source text for
// interest embeddings and query vectors.
type Interest struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Cluster  string   `json:"cluster,omitempty"`
	Synonyms []string `json:"synonyms,omitempty"`
}
