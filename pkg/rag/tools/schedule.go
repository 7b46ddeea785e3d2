package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"campus-qa-be/pkg/store"
)

func (r *Registry) registerScheduleTool() {
	r.register(&Tool{
		Name:        "get_person_schedule",
		Description: "Fetch class schedules for a person by name, or for a group by program/year/section.",
		Parameters:  "person_name?, program?, year_level?, section?",
		CacheTTL:    5 * time.Minute,
		run: func(ctx context.Context, params map[string]interface{}) (*Result, error) {
			personName := stringParam(params, "person_name")
			program := stringParam(params, "program")
			yearLevel := stringParam(params, "year_level")
			section := stringParam(params, "section")

			if personName == "" && program == "" && yearLevel == "" && section == "" {
				return nil, fmt.Errorf("get_person_schedule needs a person_name or at least one group filter")
			}

			schedules, ok := r.findCollection("schedule")
			if !ok {
				return &Result{Status: StatusError, Note: "no schedule collection available"}, nil
			}

			// Group lookup: normalized filter straight against the collection
			if personName == "" {
				where := r.normalizer.BuildFor(schedules.Name(), map[string]interface{}{
					"program":    program,
					"year_level": yearLevel,
					"section":    section,
				})
				docs, err := schedules.Get(ctx, store.GetRequest{Where: where, Limit: 50})
				if err != nil {
					return nil, fmt.Errorf("schedule lookup: %w", err)
				}
				return successResult(docs), nil
			}

			resolved := r.resolver.Resolve(ctx, personName)
			if resolved == nil {
				return &Result{Status: StatusEmpty, Note: fmt.Sprintf("no record found for %q", personName)}, nil
			}

			docs := r.relatedSchedules(ctx, resolved.Documents, resolved.Aliases)
			if len(docs) == 0 {
				return &Result{
					Status:         StatusEmpty,
					Note:           fmt.Sprintf("%s was found but no schedule matches their records", resolved.PrimaryName),
					ResolvedPeople: []string{resolved.PrimaryName},
				}, nil
			}
			result := successResult(docs)
			result.ResolvedPeople = []string{resolved.PrimaryName}
			return result, nil
		},
	})
}

// relatedSchedules finds schedules for resolved person documents. A person
// carrying program/year/section gets a group-keyed lookup; otherwise the
// schedule is assumed name-keyed and matched by alias on adviser fields.
func (r *Registry) relatedSchedules(ctx context.Context, personDocs []store.Document, aliases []string) []store.Document {
	schedules, ok := r.findCollection("schedule")
	if !ok {
		return nil
	}

	var out []store.Document
	for _, doc := range personDocs {
		program := metadataString(doc, "program", "course")
		year := metadataString(doc, "year_level", "year", "yr")

		if program != "" && year != "" {
			fields := map[string]interface{}{
				"program":    program,
				"year_level": year,
			}
			if section := metadataString(doc, "section", "sec"); section != "" {
				fields["section"] = section
			}
			found, err := schedules.Get(ctx, store.GetRequest{Where: r.normalizer.BuildFor(schedules.Name(), fields), Limit: 20})
			if err != nil {
				r.logger.Printf("[TOOLS] group schedule lookup failed: %v", err)
			} else {
				out = append(out, found...)
			}
			continue
		}

		// Name-keyed schedule: match any alias against adviser-like fields
		found, err := schedules.Get(ctx, store.GetRequest{
			Where: r.normalizer.NormalizeFor(schedules.Name(), "adviser", map[string]interface{}{"$in": toInterfaceSlice(aliases)}),
			Limit: 20,
		})
		if err != nil {
			r.logger.Printf("[TOOLS] name-keyed schedule lookup failed: %v", err)
			continue
		}
		out = append(out, found...)
	}
	return store.Dedup(out)
}

// stringParam reads a parameter leniently: the planner may emit numbers
// where the schema says string.
func stringParam(params map[string]interface{}, key string) string {
	v, ok := params[key]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		if s == float64(int64(s)) {
			return fmt.Sprintf("%d", int64(s))
		}
		return fmt.Sprintf("%v", s)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
}

func metadataString(doc store.Document, keys ...string) string {
	for _, key := range keys {
		if v, ok := doc.Metadata[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func toInterfaceSlice(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
