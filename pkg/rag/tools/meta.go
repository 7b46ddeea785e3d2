package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"campus-qa-be/pkg/store"
)

// schoolTopics maps recognized topics onto the document_type values used
// by the institutional collection.
var schoolTopics = map[string][]interface{}{
	"mission":    {"mission", "mission_statement"},
	"vision":     {"vision", "vision_statement"},
	"objectives": {"objectives", "goals"},
	"history":    {"history", "background"},
}

type lookupByIDParams struct {
	IDNumber string `json:"id_number" validate:"required,min=2"`
}

func (r *Registry) registerMetaTools() {
	r.register(&Tool{
		Name:        "get_database_summary",
		Description: "List every collection with its document count and field names.",
		Parameters:  "",
		CacheTTL:    7 * 24 * time.Hour,
		run: func(ctx context.Context, _ map[string]interface{}) (*Result, error) {
			var b strings.Builder
			for _, name := range sortedNames(r.store.Names()) {
				collection, ok := r.store.Collection(name)
				if !ok {
					continue
				}
				count, err := collection.Count(ctx)
				if err != nil {
					return nil, fmt.Errorf("count %s: %w", name, err)
				}
				b.WriteString(fmt.Sprintf("%s: %d documents, fields [%s]\n",
					name, count, strings.Join(r.sampleFields(ctx, collection), ", ")))
			}
			return &Result{
				Status: StatusSuccess,
				Documents: []store.Document{{
					SourceCollection: "database_summary",
					Content:          b.String(),
					Metadata:         map[string]interface{}{"document_type": "summary"},
				}},
			}, nil
		},
	})

	r.register(&Tool{
		Name:        "get_school_info",
		Description: "Fetch institutional documents: mission, vision, objectives, history, or general info.",
		Parameters:  "topic?",
		CacheTTL:    7 * 24 * time.Hour,
		run: func(ctx context.Context, params map[string]interface{}) (*Result, error) {
			info, ok := r.findCollection("school")
			if !ok {
				if info, ok = r.findCollection("info"); !ok {
					return &Result{Status: StatusError, Note: "no institutional collection available"}, nil
				}
			}

			topic := strings.ToLower(stringParam(params, "topic"))
			var where map[string]interface{}
			if types, known := schoolTopics[topic]; known {
				where = r.normalizer.NormalizeFor(info.Name(), "document_type", map[string]interface{}{"$in": types})
			} else if departments := r.schema.Vocabularies["department"]; len(departments) > 0 {
				// Unknown or absent topic: wildcard over the known
				// institutional departments rather than the raw collection.
				where = r.normalizer.NormalizeFor(info.Name(), "department",
					map[string]interface{}{"$in": toInterfaceSlice(departments)})
			}
			docs, err := info.Get(ctx, store.GetRequest{Where: where, Limit: 20})
			if err != nil {
				return nil, fmt.Errorf("school info lookup: %w", err)
			}
			if len(docs) == 0 && topic != "" {
				// Topic value may live in the text rather than metadata
				docs, err = info.Get(ctx, store.GetRequest{WhereDocument: topic, Limit: 20})
				if err != nil {
					return nil, fmt.Errorf("school info text lookup: %w", err)
				}
			}
			return successResult(docs), nil
		},
	})

	r.register(&Tool{
		Name:        "lookup_by_id",
		Description: "Find a person record by exact student or staff id number.",
		Parameters:  "id_number",
		CacheTTL:    time.Hour,
		run: func(ctx context.Context, params map[string]interface{}) (*Result, error) {
			var p lookupByIDParams
			if err := r.decodeParams(params, &p); err != nil {
				return nil, err
			}

			var docs []store.Document
			for _, collection := range r.peopleCollections() {
				found, err := collection.Get(ctx, store.GetRequest{
					Where: r.normalizer.NormalizeFor(collection.Name(), "student_id", p.IDNumber),
					Limit: 5,
				})
				if err != nil {
					r.logger.Printf("[TOOLS] id lookup on %s failed: %v", collection.Name(), err)
					continue
				}
				docs = append(docs, found...)
			}
			if len(docs) == 0 {
				return &Result{Status: StatusEmpty, Note: fmt.Sprintf("no record carries id %q", p.IDNumber)}, nil
			}
			return successResult(docs), nil
		},
	})

	r.register(&Tool{
		Name:        "conversational",
		Description: "Greeting or small talk; retrieves nothing.",
		Parameters:  "",
		run: func(_ context.Context, _ map[string]interface{}) (*Result, error) {
			return &Result{Status: StatusSuccess, Note: "no retrieval needed"}, nil
		},
	})
}

// sampleFields reads one document and returns its sorted metadata keys.
func (r *Registry) sampleFields(ctx context.Context, collection store.Collection) []string {
	sample, err := collection.Get(ctx, store.GetRequest{Limit: 1})
	if err != nil || len(sample) == 0 {
		return nil
	}
	var fields []string
	for key := range sample[0].Metadata {
		fields = append(fields, key)
	}
	sort.Strings(fields)
	return fields
}
