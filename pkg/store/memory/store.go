package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"campus-qa-be/pkg/store"
)

// Store is an in-memory collection store used by tests and the dev
// bootstrap. Free-text queries are scored by token overlap so that results
// carry distances shaped like the production vector store's.
type Store struct {
	mu          sync.RWMutex
	collections map[string][]store.Document
	order       []string
}

func NewStore() *Store {
	return &Store{collections: make(map[string][]store.Document)}
}

// Load replaces the documents of a collection, tagging each with the
// collection name.
func (s *Store) Load(name string, docs []store.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.collections[name]; !exists {
		s.order = append(s.order, name)
	}
	tagged := make([]store.Document, len(docs))
	for i, d := range docs {
		d.SourceCollection = name
		tagged[i] = d
	}
	s.collections[name] = tagged
}

func (s *Store) Collection(name string) (store.Collection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.collections[name]; !ok {
		return nil, false
	}
	return &collection{store: s, name: name}, true
}

func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, len(s.order))
	copy(names, s.order)
	return names
}

type collection struct {
	store *Store
	name  string
}

func (c *collection) Name() string { return c.name }

func (c *collection) docs() []store.Document {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	return c.store.collections[c.name]
}

func (c *collection) Query(ctx context.Context, req store.QueryRequest) ([]store.Document, error) {
	var results []store.Document
	for _, d := range c.docs() {
		if !store.MatchesWhere(req.Where, d.Metadata) {
			continue
		}
		if req.WhereDocument != "" && !strings.Contains(strings.ToLower(d.Content), strings.ToLower(req.WhereDocument)) {
			continue
		}
		if req.Text != "" {
			d.Distance = tokenDistance(req.Text, d.Content)
		}
		results = append(results, d)
	}

	if req.Text != "" {
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Distance < results[j].Distance
		})
	}
	if req.Limit > 0 && len(results) > req.Limit {
		results = results[:req.Limit]
	}
	return results, nil
}

func (c *collection) Get(ctx context.Context, req store.GetRequest) ([]store.Document, error) {
	var results []store.Document
	for _, d := range c.docs() {
		if !store.MatchesWhere(req.Where, d.Metadata) {
			continue
		}
		if req.WhereDocument != "" && !strings.Contains(strings.ToLower(d.Content), strings.ToLower(req.WhereDocument)) {
			continue
		}
		results = append(results, d)
	}
	if req.Limit > 0 && len(results) > req.Limit {
		results = results[:req.Limit]
	}
	return results, nil
}

func (c *collection) Distinct(ctx context.Context, field string) ([]string, error) {
	seen := make(map[string]bool)
	var values []string
	for _, d := range c.docs() {
		v, ok := d.Metadata[field]
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok || s == "" {
			continue
		}
		if !seen[s] {
			seen[s] = true
			values = append(values, s)
		}
	}
	sort.Strings(values)
	return values, nil
}

func (c *collection) Count(ctx context.Context) (int64, error) {
	return int64(len(c.docs())), nil
}

// tokenDistance approximates a semantic distance in [0, 2]: 0 means every
// query token appears in the document, 2 means none do.
func tokenDistance(query, content string) float64 {
	queryTokens := strings.Fields(strings.ToLower(query))
	if len(queryTokens) == 0 {
		return 2
	}
	haystack := strings.ToLower(content)
	matched := 0
	for _, tok := range queryTokens {
		if strings.Contains(haystack, tok) {
			matched++
		}
	}
	return 2 * (1 - float64(matched)/float64(len(queryTokens)))
}
