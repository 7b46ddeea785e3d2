package implementation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"campus-qa-be/internal/model"
	"campus-qa-be/pkg/embedding"
	"campus-qa-be/pkg/store"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// CollectionStoreImpl exposes the collection_documents table as a set of
// named collections. Free-text queries embed the text and rank by pgvector
// cosine distance; metadata filters translate to JSONB expressions.
type CollectionStoreImpl struct {
	db                *gorm.DB
	embeddingProvider embedding.EmbeddingProvider
	names             []string
}

func NewCollectionStore(db *gorm.DB, provider embedding.EmbeddingProvider) (*CollectionStoreImpl, error) {
	s := &CollectionStoreImpl{db: db, embeddingProvider: provider}

	var names []string
	if err := db.Model(&model.CollectionDocument{}).
		Distinct("collection").
		Order("collection").
		Pluck("collection", &names).Error; err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	s.names = names
	return s, nil
}

func (s *CollectionStoreImpl) Collection(name string) (store.Collection, bool) {
	for _, n := range s.names {
		if n == name {
			return &pgCollection{store: s, name: name}, true
		}
	}
	return nil, false
}

func (s *CollectionStoreImpl) Names() []string {
	names := make([]string, len(s.names))
	copy(names, s.names)
	return names
}

type pgCollection struct {
	store *CollectionStoreImpl
	name  string
}

func (c *pgCollection) Name() string { return c.name }

func (c *pgCollection) Query(ctx context.Context, req store.QueryRequest) ([]store.Document, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}

	type row struct {
		model.CollectionDocument
		QueryDistance float64
	}
	var rows []row

	query := c.store.db.WithContext(ctx).
		Table("collection_documents").
		Where("collection = ?", c.name)

	if req.Text != "" {
		embeddingRes, err := c.store.embeddingProvider.Generate(req.Text, "RETRIEVAL_QUERY")
		if err != nil {
			return nil, fmt.Errorf("embedding generation failed: %w", err)
		}
		queryVector := pgvector.NewVector(embeddingRes.Embedding.Values)
		query = query.
			Select("collection_documents.*, (embedding <=> ?) as query_distance", queryVector).
			Order("query_distance ASC")
	} else {
		query = query.Select("collection_documents.*, 0 as query_distance")
	}

	query, err := applyWhere(query, req.Where)
	if err != nil {
		return nil, err
	}

	if req.WhereDocument != "" {
		query = query.Where("content ILIKE ?", "%"+req.WhereDocument+"%")
	}

	if err := query.Limit(limit).Scan(&rows).Error; err != nil {
		return nil, err
	}

	docs := make([]store.Document, 0, len(rows))
	for _, r := range rows {
		doc, err := toDocument(&r.CollectionDocument)
		if err != nil {
			return nil, err
		}
		doc.Distance = r.QueryDistance
		docs = append(docs, doc)
	}
	return docs, nil
}

func (c *pgCollection) Get(ctx context.Context, req store.GetRequest) ([]store.Document, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 100
	}

	query := c.store.db.WithContext(ctx).
		Model(&model.CollectionDocument{}).
		Where("collection = ?", c.name)

	query, err := applyWhere(query, req.Where)
	if err != nil {
		return nil, err
	}

	if req.WhereDocument != "" {
		query = query.Where("content ILIKE ?", "%"+req.WhereDocument+"%")
	}

	var models []model.CollectionDocument
	if err := query.Limit(limit).Find(&models).Error; err != nil {
		return nil, err
	}

	docs := make([]store.Document, 0, len(models))
	for i := range models {
		doc, err := toDocument(&models[i])
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (c *pgCollection) Distinct(ctx context.Context, field string) ([]string, error) {
	column := fmt.Sprintf("metadata ->> '%s'", sanitizeField(field))

	var values []string
	err := c.store.db.WithContext(ctx).
		Model(&model.CollectionDocument{}).
		Where("collection = ?", c.name).
		Where(column + " IS NOT NULL").
		Distinct(column).
		Order(column).
		Pluck(column, &values).Error
	if err != nil {
		return nil, err
	}
	return values, nil
}

func (c *pgCollection) Count(ctx context.Context) (int64, error) {
	var count int64
	err := c.store.db.WithContext(ctx).
		Model(&model.CollectionDocument{}).
		Where("collection = ?", c.name).
		Count(&count).Error
	return count, err
}

// applyWhere translates the adapter's filter clause shapes into JSONB SQL.
func applyWhere(query *gorm.DB, where map[string]interface{}) (*gorm.DB, error) {
	for field, cond := range where {
		if field == "$or" {
			clause, args, err := orClause(cond)
			if err != nil {
				return nil, err
			}
			query = query.Where(clause, args...)
			continue
		}
		if field == "$and" {
			alternatives, err := orAlternatives(cond)
			if err != nil {
				return nil, err
			}
			for _, sub := range alternatives {
				query, err = applyWhere(query, sub)
				if err != nil {
					return nil, err
				}
			}
			continue
		}
		clause, args, err := fieldClause(field, cond)
		if err != nil {
			return nil, err
		}
		query = query.Where(clause, args...)
	}
	return query, nil
}

func fieldClause(field string, cond interface{}) (string, []interface{}, error) {
	column := fmt.Sprintf("LOWER(metadata ->> '%s')", sanitizeField(field))

	if m, ok := cond.(map[string]interface{}); ok {
		if in, ok := m["$in"]; ok {
			values := lowerValues(in)
			if len(values) == 0 {
				return "", nil, fmt.Errorf("empty $in set for field %s", field)
			}
			return column + " IN ?", []interface{}{values}, nil
		}
		if eq, ok := m["$eq"]; ok {
			return column + " = ?", []interface{}{strings.ToLower(fmt.Sprintf("%v", eq))}, nil
		}
		return "", nil, fmt.Errorf("unsupported operator clause for field %s", field)
	}
	return column + " = ?", []interface{}{strings.ToLower(fmt.Sprintf("%v", cond))}, nil
}

func orClause(cond interface{}) (string, []interface{}, error) {
	alternatives, err := orAlternatives(cond)
	if err != nil {
		return "", nil, err
	}

	var parts []string
	var args []interface{}
	for _, alt := range alternatives {
		var sub []string
		for field, c := range alt {
			clause, a, err := fieldClause(field, c)
			if err != nil {
				return "", nil, err
			}
			sub = append(sub, clause)
			args = append(args, a...)
		}
		parts = append(parts, "("+strings.Join(sub, " AND ")+")")
	}
	if len(parts) == 0 {
		return "", nil, fmt.Errorf("empty $or clause")
	}
	return "(" + strings.Join(parts, " OR ") + ")", args, nil
}

func orAlternatives(cond interface{}) ([]map[string]interface{}, error) {
	switch v := cond.(type) {
	case []map[string]interface{}:
		return v, nil
	case []interface{}:
		out := make([]map[string]interface{}, 0, len(v))
		for _, alt := range v {
			m, ok := alt.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("$or alternative is not an object")
			}
			out = append(out, m)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("$or value is not a list")
	}
}

func lowerValues(in interface{}) []string {
	var out []string
	switch set := in.(type) {
	case []interface{}:
		for _, v := range set {
			out = append(out, strings.ToLower(fmt.Sprintf("%v", v)))
		}
	case []string:
		for _, v := range set {
			out = append(out, strings.ToLower(v))
		}
	}
	return out
}

// sanitizeField guards the string interpolation used for JSONB key access.
func sanitizeField(field string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' {
			return r
		}
		return -1
	}, field)
}

func toDocument(m *model.CollectionDocument) (store.Document, error) {
	doc := store.Document{
		SourceCollection: m.Collection,
		Content:          m.Content,
		Metadata:         map[string]interface{}{},
	}
	if len(m.Metadata) > 0 {
		if err := json.Unmarshal(m.Metadata, &doc.Metadata); err != nil {
			return doc, fmt.Errorf("unmarshal document metadata: %w", err)
		}
	}
	return doc, nil
}
