package models

import "strings"

// EmbeddingText builds the canonical embedding text for an interest. Any
// change here invalidates nothing retroactively; existing vectors stay usable
// because they are keyed by owner and model, not by text.
func (i Interest) EmbeddingText() string {
	var b strings.Builder

	b.WriteString("Interest: ")
	b.WriteString(i.Title)
	b.WriteString(".")

	if len(i.Synonyms) > 0 {
		b.WriteString(" Synonyms: ")
		b.WriteString(strings.Join(i.Synonyms, ", "))
		b.WriteString(".")
	}

	if i.Cluster != "" {
		b.WriteString(" Cluster: ")
		b.WriteString(i.Cluster)
		b.WriteString(".")
	}

	return b.String()
}

// EmbeddingText builds the canonical embedding text for a catalog row: the
// non-empty parts of title, description, channel title, and source label.
func (r CatalogRow) EmbeddingText() string {
	meta := r.DecodedMeta()

	parts := make([]string, 0, 4)

	description := ""
	if r.Description != nil {
		description = *r.Description
	}

	for _, part := range []string{r.Title, description, meta.ChannelTitle, meta.Source} {
		if part != "" {
			parts = append(parts, part)
		}
	}

	return strings.Join(parts, ". ")
}
