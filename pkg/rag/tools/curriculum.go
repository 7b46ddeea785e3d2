package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"campus-qa-be/pkg/rag/filter"
	"campus-qa-be/pkg/store"
)

func (r *Registry) registerCurriculumTool() {
	r.register(&Tool{
		Name:        "query_curriculum",
		Description: "Query curriculum documents by program, year, semester, or subject code/name/type.",
		Parameters:  "program?, year_level?, semester?, subject_code?, subject_name?, subject_type?",
		CacheTTL:    24 * time.Hour,
		run: func(ctx context.Context, params map[string]interface{}) (*Result, error) {
			curricula, ok := r.findCollection("curricul")
			if !ok {
				return &Result{Status: StatusError, Note: "no curriculum collection available"}, nil
			}

			var where map[string]interface{}
			if program := stringParam(params, "program"); program != "" {
				where = r.normalizer.NormalizeFor(curricula.Name(), "program", program)
			}

			// Everything besides program lives in the document text, so the
			// remaining constraints become AND-combined content containment.
			var contents []string
			if year := stringParam(params, "year_level"); year != "" {
				contents = append(contents, yearOrdinal(year))
			}
			if semester := stringParam(params, "semester"); semester != "" {
				contents = append(contents, canonicalSemester(semester))
			}
			for _, key := range []string{"subject_code", "subject_name", "subject_type"} {
				if v := stringParam(params, key); v != "" {
					contents = append(contents, v)
				}
			}

			req := store.GetRequest{Where: where, Limit: 50}
			if len(contents) > 0 {
				req.WhereDocument = contents[0]
			}
			docs, err := curricula.Get(ctx, req)
			if err != nil {
				return nil, fmt.Errorf("curriculum lookup: %w", err)
			}

			for _, constraint := range contents[min(1, len(contents)):] {
				docs = filterByContent(docs, constraint)
			}
			return successResult(docs), nil
		},
	})
}

func filterByContent(docs []store.Document, constraint string) []store.Document {
	lowered := strings.ToLower(constraint)
	var out []store.Document
	for _, doc := range docs {
		if strings.Contains(strings.ToLower(doc.Content), lowered) {
			out = append(out, doc)
		}
	}
	return out
}

// yearOrdinal renders a year level the way curriculum text spells it.
func yearOrdinal(value string) string {
	aliases := filter.YearLevelAliases(value)
	// the ordinal form is emitted last when the value parsed as a year
	last := aliases[len(aliases)-1]
	if strings.Contains(last, "Year") {
		return last
	}
	return value
}

// canonicalSemester collapses the many ways a semester is written into
// one of the three labels curriculum documents use.
func canonicalSemester(value string) string {
	lowered := strings.ToLower(value)
	switch {
	case strings.Contains(lowered, "sum") || strings.Contains(lowered, "mid"):
		return "Summer"
	case strings.Contains(lowered, "2") || strings.Contains(lowered, "second"):
		return "2nd Semester"
	default:
		return "1st Semester"
	}
}
