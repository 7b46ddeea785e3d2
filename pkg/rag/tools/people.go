package tools

import (
	"context"
	"strings"
	"time"

	"campus-qa-be/pkg/store"
)

// roleSynonyms expands a generic role word into every position label it
// covers. Values stay lowercase; the normalizer adds case variants.
var roleSynonyms = map[string][]string{
	"faculty":    {"faculty", "instructor", "professor", "teacher", "lecturer", "dean", "program head"},
	"teacher":    {"teacher", "instructor", "professor", "faculty", "lecturer"},
	"instructor": {"instructor", "teacher", "faculty", "lecturer"},
	"professor":  {"professor", "faculty", "instructor"},
	"dean":       {"dean"},
	"adviser":    {"adviser", "advisor", "faculty", "instructor"},
	"staff":      {"staff", "admin", "administrative staff", "registrar", "librarian", "guidance counselor"},
	"registrar":  {"registrar"},
	"librarian":  {"librarian"},
}

func (r *Registry) registerPeopleFinder() {
	r.register(&Tool{
		Name:        "find_people",
		Description: "Unified person/group finder over students and staff, with role and cohort filters.",
		Parameters:  "name?, role?, program?, year_level?, section?, department?, employment_status?, n_results?",
		CacheTTL:    30 * time.Minute,
		run: func(ctx context.Context, params map[string]interface{}) (*Result, error) {
			if name := stringParam(params, "name"); name != "" {
				resolved := r.resolver.Resolve(ctx, name)
				if resolved == nil {
					return &Result{Status: StatusEmpty, Note: "no record found for " + name}, nil
				}
				result := successResult(resolved.Documents)
				result.ResolvedPeople = []string{resolved.PrimaryName}
				return result, nil
			}

			role := stringParam(params, "role")
			program := stringParam(params, "program")
			yearLevel := stringParam(params, "year_level")
			section := stringParam(params, "section")
			department := stringParam(params, "department")
			employment := stringParam(params, "employment_status")
			limit := intParam(params, "n_results", 20)

			fields := map[string]interface{}{}
			if role != "" {
				fields["position"] = map[string]interface{}{"$in": expandRole(role)}
			}
			if program != "" {
				fields["program"] = program
			}
			if yearLevel != "" {
				fields["year_level"] = yearLevel
			}
			if section != "" {
				fields["section"] = section
			}
			if department != "" {
				fields["department"] = department
			}
			if employment != "" {
				fields["employment_status"] = employment
			}

			collections := r.inferPeopleCollections(role, department, employment, program, yearLevel, section)

			var docs []store.Document
			for _, collection := range collections {
				found, err := collection.Get(ctx, store.GetRequest{
					Where: r.normalizer.BuildFor(collection.Name(), fields),
					Limit: limit,
				})
				if err != nil {
					r.logger.Printf("[TOOLS] find_people on %s failed: %v", collection.Name(), err)
					continue
				}
				docs = append(docs, found...)
			}

			// Wildcard fallback: nothing discriminated, list everyone
			if len(docs) == 0 && len(fields) == 0 {
				for _, collection := range collections {
					found, err := collection.Get(ctx, store.GetRequest{Limit: limit})
					if err != nil {
						continue
					}
					docs = append(docs, found...)
				}
			}

			if len(docs) > limit {
				docs = docs[:limit]
			}
			return successResult(docs), nil
		},
	})
}

// inferPeopleCollections picks student vs staff collections from the
// filter shape: cohort filters imply students, role/department imply staff.
func (r *Registry) inferPeopleCollections(role, department, employment, program, yearLevel, section string) []store.Collection {
	wantsStaff := role != "" || department != "" || employment != ""
	wantsStudents := program != "" || yearLevel != "" || section != ""

	if wantsStaff == wantsStudents {
		return r.peopleCollections()
	}

	keyword := "student"
	if wantsStaff {
		keyword = "staff"
	}

	var out []store.Collection
	for _, collection := range r.peopleCollections() {
		lowered := strings.ToLower(collection.Name())
		if strings.Contains(lowered, keyword) ||
			(wantsStaff && strings.Contains(lowered, "faculty")) {
			out = append(out, collection)
		}
	}
	if len(out) == 0 {
		return r.peopleCollections()
	}
	return out
}

func expandRole(role string) []interface{} {
	lowered := strings.ToLower(strings.TrimSpace(role))
	expanded, ok := roleSynonyms[lowered]
	if !ok {
		expanded = []string{lowered}
	}
	out := make([]interface{}, len(expanded))
	for i, v := range expanded {
		out[i] = v
	}
	return out
}

func intParam(params map[string]interface{}, key string, fallback int) int {
	v, ok := params[key]
	if !ok || v == nil {
		return fallback
	}
	switch n := v.(type) {
	case float64:
		if n > 0 {
			return int(n)
		}
	case int:
		if n > 0 {
			return n
		}
	}
	return fallback
}
