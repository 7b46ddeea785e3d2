package tools

import (
	"context"
	"fmt"
	"time"

	"campus-qa-be/pkg/store"
)

func (r *Registry) registerGradesTool() {
	r.register(&Tool{
		Name:        "get_student_grades",
		Description: "Fetch grade records for one student by name, or for a cohort by program/year/section/semester.",
		Parameters:  "student_name?, program?, year_level?, section?, semester?",
		CacheTTL:    5 * time.Minute,
		run: func(ctx context.Context, params map[string]interface{}) (*Result, error) {
			grades, ok := r.findCollection("grade")
			if !ok {
				return &Result{Status: StatusError, Note: "no grades collection available"}, nil
			}

			// A concrete name always wins over cohort filters; the planner
			// sometimes emits both for queries like "grades of Ana in BSIT".
			if name := stringParam(params, "student_name"); name != "" {
				resolved := r.resolver.Resolve(ctx, name)
				if resolved == nil {
					return &Result{Status: StatusEmpty, Note: fmt.Sprintf("no record found for %q", name)}, nil
				}
				docs := r.relatedGrades(ctx, resolved.Documents)
				if len(docs) == 0 {
					return &Result{
						Status:         StatusEmpty,
						Note:           fmt.Sprintf("%s was found but has no grade records", resolved.PrimaryName),
						ResolvedPeople: []string{resolved.PrimaryName},
					}, nil
				}
				result := successResult(docs)
				result.ResolvedPeople = []string{resolved.PrimaryName}
				return result, nil
			}

			fields := map[string]interface{}{
				"program":    stringParam(params, "program"),
				"year_level": stringParam(params, "year_level"),
				"section":    stringParam(params, "section"),
				"semester":   stringParam(params, "semester"),
			}
			where := r.normalizer.BuildFor(grades.Name(), fields)

			docs, err := grades.Get(ctx, store.GetRequest{Where: where, Limit: 100})
			if err != nil {
				return nil, fmt.Errorf("grades lookup: %w", err)
			}
			return successResult(docs), nil
		},
	})
}

// relatedGrades finds grade records for resolved person documents,
// preferring the student id join and falling back to a name match.
func (r *Registry) relatedGrades(ctx context.Context, personDocs []store.Document) []store.Document {
	grades, ok := r.findCollection("grade")
	if !ok {
		return nil
	}

	var ids []interface{}
	var names []interface{}
	for _, doc := range personDocs {
		if id := metadataString(doc, "student_id", "id_number"); id != "" {
			ids = append(ids, id)
		}
		if name := metadataString(doc, "full_name", "fullname", "name"); name != "" {
			names = append(names, name)
		}
	}

	if len(ids) > 0 {
		found, err := grades.Get(ctx, store.GetRequest{
			Where: r.normalizer.NormalizeFor(grades.Name(), "student_id", map[string]interface{}{"$in": ids}),
			Limit: 50,
		})
		if err != nil {
			r.logger.Printf("[TOOLS] grade lookup by id failed: %v", err)
		} else if len(found) > 0 {
			return found
		}
	}

	if len(names) == 0 {
		return nil
	}
	found, err := grades.Get(ctx, store.GetRequest{
		Where: r.normalizer.NormalizeFor(grades.Name(), "full_name", map[string]interface{}{"$in": names}),
		Limit: 50,
	})
	if err != nil {
		r.logger.Printf("[TOOLS] grade lookup by name failed: %v", err)
		return nil
	}
	return found
}
