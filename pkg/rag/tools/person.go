package tools

import (
	"context"
	"fmt"
	"time"

	"campus-qa-be/pkg/store"
)

type personProfileParams struct {
	PersonName string `json:"person_name" validate:"required,min=2"`
}

type personQuestionParams struct {
	PersonName string `json:"person_name" validate:"required,min=2"`
	Question   string `json:"question" validate:"required,min=3"`
}

type comparePeopleParams struct {
	PersonA string `json:"person_a" validate:"required,min=2"`
	PersonB string `json:"person_b" validate:"required,min=2"`
	Aspect  string `json:"aspect"`
}

func (r *Registry) registerPersonTools() {
	r.register(&Tool{
		Name:        "get_person_profile",
		Description: "Look up one person's profile documents by name.",
		Parameters:  "person_name",
		CacheTTL:    time.Hour,
		run: func(ctx context.Context, params map[string]interface{}) (*Result, error) {
			var p personProfileParams
			if err := r.decodeParams(params, &p); err != nil {
				return nil, err
			}

			resolved := r.resolver.Resolve(ctx, p.PersonName)
			if resolved == nil {
				return &Result{Status: StatusEmpty, Note: fmt.Sprintf("no record found for %q", p.PersonName)}, nil
			}
			result := successResult(resolved.Documents)
			result.ResolvedPeople = []string{resolved.PrimaryName}
			return result, nil
		},
	})

	r.register(&Tool{
		Name:        "answer_question_about_person",
		Description: "Answer a specific question about one person from their profile, schedule and grades.",
		Parameters:  "person_name, question",
		run: func(ctx context.Context, params map[string]interface{}) (*Result, error) {
			var p personQuestionParams
			if err := r.decodeParams(params, &p); err != nil {
				return nil, err
			}

			resolved := r.resolver.Resolve(ctx, p.PersonName)
			if resolved == nil {
				return &Result{Status: StatusEmpty, Note: fmt.Sprintf("no record found for %q", p.PersonName)}, nil
			}

			evidence := resolved.Documents
			evidence = append(evidence, r.relatedSchedules(ctx, resolved.Documents, resolved.Aliases)...)
			evidence = append(evidence, r.relatedGrades(ctx, resolved.Documents)...)
			evidence = store.Dedup(evidence)

			answer := r.focusedQA.AnswerAbout(ctx, p.Question, evidence)
			return &Result{
				Status:         StatusSuccess,
				Documents:      evidence,
				FocusedAnswer:  answer,
				ResolvedPeople: []string{resolved.PrimaryName},
			}, nil
		},
	})

	r.register(&Tool{
		Name:        "compare_people",
		Description: "Gather documents for two people so they can be compared side by side.",
		Parameters:  "person_a, person_b, aspect?",
		run: func(ctx context.Context, params map[string]interface{}) (*Result, error) {
			var p comparePeopleParams
			if err := r.decodeParams(params, &p); err != nil {
				return nil, err
			}

			var docs []store.Document
			var resolvedNames []string
			var missing []string
			for _, name := range []string{p.PersonA, p.PersonB} {
				resolved := r.resolver.Resolve(ctx, name)
				if resolved == nil {
					missing = append(missing, name)
					continue
				}
				resolvedNames = append(resolvedNames, resolved.PrimaryName)
				docs = append(docs, resolved.Documents...)
				docs = append(docs, r.relatedGrades(ctx, resolved.Documents)...)
			}

			if len(docs) == 0 {
				return &Result{Status: StatusEmpty, Note: "neither person could be resolved"}, nil
			}

			result := successResult(docs)
			result.ResolvedPeople = resolvedNames
			if len(missing) > 0 {
				result.Note = fmt.Sprintf("no record found for %v", missing)
			}
			return result, nil
		},
	})
}
