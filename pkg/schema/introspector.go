package schema

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"campus-qa-be/pkg/store"
)

// canonicalAliases maps on-disk metadata key spellings to the canonical
// field names the rest of the engine reasons in.
var canonicalAliases = map[string]string{
	"course":     "program",
	"program":    "program",
	"prog":       "program",
	"yr":         "year_level",
	"year":       "year_level",
	"year_level": "year_level",
	"yearlevel":  "year_level",
	"level":      "year_level",
	"section":    "section",
	"sec":        "section",
	"name":       "full_name",
	"full_name":  "full_name",
	"fullname":   "full_name",
	"advisor":    "adviser",
	"adviser":    "adviser",
	"faculty":    "adviser",
	"dept":       "department",
	"department": "department",
	"position":   "position",
	"role":       "position",
	"status":     "employment_status",
	"employment_status": "employment_status",
	"doc_type":      "document_type",
	"document_type": "document_type",
	"type":          "document_type",
	"student_id":    "student_id",
	"id_number":     "student_id",
	"semester":      "semester",
	"sem":           "semester",
	"surname":       "surname",
	"last_name":     "surname",
	"subject_code":  "subject_code",
	"subject":       "subject_name",
	"subject_name":  "subject_name",
}

// vocabularyFields are the canonical fields whose distinct value sets are
// preloaded for the planner prompt.
var vocabularyFields = []string{"program", "department", "position", "employment_status", "document_type"}

// Schema is the startup snapshot of the collection store: a prompt-ready
// summary, the reverse field map per collection, and the filterable
// vocabularies. Built once, cached for process lifetime.
type Schema struct {
	Summary      string
	FieldMaps    map[string]map[string]string // collection -> original key -> canonical key
	Vocabularies map[string][]string          // canonical field -> distinct values
}

// CanonicalField collapses one metadata key spelling to its canonical name.
// Unknown keys pass through lowercased.
func CanonicalField(key string) string {
	lowered := strings.ToLower(strings.TrimSpace(key))
	if canonical, ok := canonicalAliases[lowered]; ok {
		return canonical
	}
	return lowered
}

// OriginalKeys returns every on-disk spelling known for a canonical field,
// canonical name included.
func OriginalKeys(canonical string) []string {
	var keys []string
	for original, mapped := range canonicalAliases {
		if mapped == canonical {
			keys = append(keys, original)
		}
	}
	sort.Strings(keys)
	return keys
}

type Introspector struct {
	store  store.Store
	logger *log.Logger
}

func NewIntrospector(s store.Store, logger *log.Logger) *Introspector {
	return &Introspector{store: s, logger: logger}
}

// Introspect samples one document per collection and assembles the schema
// snapshot. Read-only; run once at startup.
func (i *Introspector) Introspect(ctx context.Context) (*Schema, error) {
	schema := &Schema{
		FieldMaps:    make(map[string]map[string]string),
		Vocabularies: make(map[string][]string),
	}

	var summary strings.Builder
	summary.WriteString("Available collections and their fields:\n")

	for _, name := range i.store.Names() {
		collection, ok := i.store.Collection(name)
		if !ok {
			continue
		}

		sample, err := collection.Get(ctx, store.GetRequest{Limit: 1})
		if err != nil {
			return nil, fmt.Errorf("sample collection %s: %w", name, err)
		}

		fieldMap := make(map[string]string)
		if len(sample) > 0 {
			for key := range sample[0].Metadata {
				fieldMap[key] = CanonicalField(key)
			}
		}
		schema.FieldMaps[name] = fieldMap

		count, err := collection.Count(ctx)
		if err != nil {
			i.logger.Printf("[SCHEMA] count failed for %s: %v", name, err)
		}

		canonicals := canonicalSet(fieldMap)
		summary.WriteString(fmt.Sprintf("- %s (%d documents): fields %s\n", name, count, strings.Join(canonicals, ", ")))

		i.collectVocabularies(ctx, collection, fieldMap, schema.Vocabularies)
	}

	for _, field := range vocabularyFields {
		sort.Strings(schema.Vocabularies[field])
	}

	schema.Summary = summary.String()
	i.logger.Printf("[SCHEMA] introspected %d collections", len(schema.FieldMaps))
	return schema, nil
}

// OriginalKeysFor returns the spellings under which a canonical field is
// stored in one collection, falling back to the canonical name itself.
func (s *Schema) OriginalKeysFor(collection, canonical string) []string {
	fieldMap, ok := s.FieldMaps[collection]
	if !ok {
		return []string{canonical}
	}
	var keys []string
	for original, mapped := range fieldMap {
		if mapped == canonical {
			keys = append(keys, original)
		}
	}
	if len(keys) == 0 {
		keys = []string{canonical}
	}
	sort.Strings(keys)
	return keys
}

// VocabularySummary renders the preloaded filter vocabularies for prompts.
func (s *Schema) VocabularySummary() string {
	var b strings.Builder
	for _, field := range vocabularyFields {
		values := s.Vocabularies[field]
		if len(values) == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("%s: %s\n", field, strings.Join(values, ", ")))
	}
	return b.String()
}

func (i *Introspector) collectVocabularies(
	ctx context.Context,
	collection store.Collection,
	fieldMap map[string]string,
	vocabularies map[string][]string,
) {
	for original, canonical := range fieldMap {
		if !isVocabularyField(canonical) {
			continue
		}
		values, err := collection.Distinct(ctx, original)
		if err != nil {
			i.logger.Printf("[SCHEMA] distinct(%s.%s) failed: %v", collection.Name(), original, err)
			continue
		}
		vocabularies[canonical] = mergeValues(vocabularies[canonical], values)
	}
}

func isVocabularyField(canonical string) bool {
	for _, f := range vocabularyFields {
		if f == canonical {
			return true
		}
	}
	return false
}

func mergeValues(existing, incoming []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, v := range existing {
		seen[strings.ToLower(v)] = true
	}
	for _, v := range incoming {
		if v == "" || seen[strings.ToLower(v)] {
			continue
		}
		seen[strings.ToLower(v)] = true
		existing = append(existing, v)
	}
	return existing
}

func canonicalSet(fieldMap map[string]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, canonical := range fieldMap {
		if !seen[canonical] {
			seen[canonical] = true
			out = append(out, canonical)
		}
	}
	sort.Strings(out)
	if len(out) == 0 {
		out = []string{"(empty)"}
	}
	return out
}
