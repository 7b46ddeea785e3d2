package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"campus-qa-be/pkg/store"
)

func (r *Registry) registerAdviserTool() {
	r.register(&Tool{
		Name:        "get_adviser_info",
		Description: "Find the adviser assigned to a class group by program, year level and section.",
		Parameters:  "program?, year_level?, section?",
		CacheTTL:    30 * time.Minute,
		run: func(ctx context.Context, params map[string]interface{}) (*Result, error) {
			program := stringParam(params, "program")
			yearLevel := stringParam(params, "year_level")
			section := stringParam(params, "section")
			if program == "" && yearLevel == "" && section == "" {
				return nil, fmt.Errorf("get_adviser_info needs at least one of program, year_level or section")
			}

			schedules, ok := r.findCollection("schedule")
			if !ok {
				return &Result{Status: StatusError, Note: "no schedule collection available"}, nil
			}

			where := r.normalizer.BuildFor(schedules.Name(), map[string]interface{}{
				"program":    program,
				"year_level": yearLevel,
				"section":    section,
			})
			docs, err := schedules.Get(ctx, store.GetRequest{Where: where, Limit: 20})
			if err != nil {
				return nil, fmt.Errorf("adviser lookup: %w", err)
			}

			group := describeGroup(program, yearLevel, section)
			if len(docs) == 0 {
				return &Result{Status: StatusEmpty, Note: fmt.Sprintf("no schedule entry matches %s", group)}, nil
			}

			advisers := adviserNames(docs)
			if len(advisers) == 0 {
				return &Result{
					Status: StatusEmpty,
					Note:   fmt.Sprintf("schedules for %s carry no adviser information", group),
				}, nil
			}

			result := successResult(docs)
			result.Note = "Adviser: " + strings.Join(advisers, ", ")
			result.ResolvedPeople = advisers
			return result, nil
		},
	})
}

// adviserNames collects the distinct adviser names across schedule
// documents, first occurrence order preserved.
func adviserNames(docs []store.Document) []string {
	seen := make(map[string]bool)
	var names []string
	for _, doc := range docs {
		name := metadataString(doc, "adviser", "advisor", "faculty")
		if name == "" || seen[strings.ToLower(name)] {
			continue
		}
		seen[strings.ToLower(name)] = true
		names = append(names, name)
	}
	return names
}

func describeGroup(program, yearLevel, section string) string {
	var parts []string
	if program != "" {
		parts = append(parts, program)
	}
	if yearLevel != "" {
		parts = append(parts, "year "+yearLevel)
	}
	if section != "" {
		parts = append(parts, "section "+section)
	}
	return strings.Join(parts, " ")
}
