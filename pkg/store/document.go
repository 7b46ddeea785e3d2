package store

import "context"

// Document is the atomic unit returned by every collection. It is never
// mutated downstream, only filtered, re-ranked and deduplicated.
type Document struct {
	SourceCollection string                 `json:"source_collection"`
	Content          string                 `json:"content"`
	Metadata         map[string]interface{} `json:"metadata"`
	Distance         float64                `json:"distance,omitempty"` // semantic distance, Query results only
}

// QueryRequest drives a free-text (semantic) lookup with optional metadata
// and document-content constraints.
type QueryRequest struct {
	Text          string
	Where         map[string]interface{}
	WhereDocument string // substring containment over document content
	Limit         int
}

// GetRequest drives a non-semantic lookup by metadata and/or content.
type GetRequest struct {
	Where         map[string]interface{}
	WhereDocument string // substring containment over document content
	Limit         int
}

// Collection is the uniform interface over one named document collection.
// Filter values may be scalars or {"$in": [...]} / {"$or": [...]} clauses.
type Collection interface {
	Name() string
	Query(ctx context.Context, req QueryRequest) ([]Document, error)
	Get(ctx context.Context, req GetRequest) ([]Document, error)
	Distinct(ctx context.Context, field string) ([]string, error)
	Count(ctx context.Context) (int64, error)
}

// Store groups the named collections.
type Store interface {
	Collection(name string) (Collection, bool)
	Names() []string
}

// Dedup removes documents with identical content, keeping first occurrence.
func Dedup(docs []Document) []Document {
	seen := make(map[string]bool, len(docs))
	out := docs[:0:0]
	for _, d := range docs {
		if seen[d.Content] {
			continue
		}
		seen[d.Content] = true
		out = append(out, d)
	}
	return out
}
