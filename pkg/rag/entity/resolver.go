package entity

import (
	"context"
	"log"
	"sort"
	"strings"

	"campus-qa-be/pkg/store"
)

// honorifics and suffixes stripped before any name comparison.
var honorifics = map[string]bool{
	"dr": true, "prof": true, "professor": true, "mr": true, "ms": true,
	"mrs": true, "engr": true, "atty": true, "sir": true, "maam": true,
	"ma'am": true, "jr": true, "sr": true, "ii": true, "iii": true, "iv": true,
}

// nameFields are the metadata keys harvested as candidate aliases.
var nameFields = []string{
	"full_name", "fullname", "name", "adviser", "advisor", "faculty",
	"staff_name", "student_name",
}

// ResolvedEntity is the transient result of resolving one name fragment.
type ResolvedEntity struct {
	PrimaryName string
	Aliases     []string
	Documents   []store.Document
}

// Resolver maps a name fragment to a canonical person and its alias set.
type Resolver struct {
	store      store.Store
	logger     *log.Logger
	queryLimit int
}

func NewResolver(s store.Store, logger *log.Logger) *Resolver {
	return &Resolver{store: s, logger: logger, queryLimit: 10}
}

// Resolve never returns an error; a nil result is the normal "not found"
// outcome and callers must check it explicitly instead of guessing.
func (r *Resolver) Resolve(ctx context.Context, name string) *ResolvedEntity {
	cleaned := CleanName(name)
	if cleaned == "" {
		return nil
	}

	searches := []string{strings.TrimSpace(name)}
	if !strings.EqualFold(cleaned, searches[0]) {
		searches = append(searches, cleaned)
	}

	candidates := r.gather(ctx, searches)
	if len(candidates) == 0 {
		return nil
	}

	queryWords := WordSet(name)

	// Harvest aliases whose word-set is consistent with the query
	aliasSet := map[string]bool{titleCase(cleaned): true}
	for _, doc := range candidates {
		for _, field := range nameFields {
			value, ok := doc.Metadata[field].(string)
			if !ok || value == "" {
				continue
			}
			if FuzzyNameMatch(queryWords, WordSet(value)) {
				aliasSet[value] = true
			}
		}
	}

	// Decisive disambiguation: keep only documents whose stored full name
	// word-set is a superset of the query word-set.
	var surviving []store.Document
	for _, doc := range candidates {
		fullName := fullNameOf(doc)
		if fullName == "" {
			continue
		}
		if isSubset(queryWords, WordSet(fullName)) {
			surviving = append(surviving, doc)
		}
	}

	if len(surviving) == 0 {
		r.logger.Printf("[RESOLVER] no documents survived disambiguation for %q", name)
		return nil
	}

	primary := ""
	for _, doc := range surviving {
		if fullName := fullNameOf(doc); len(fullName) > len(primary) {
			primary = fullName
		}
	}

	aliases := make([]string, 0, len(aliasSet))
	for alias := range aliasSet {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)

	r.logger.Printf("[RESOLVER] %q resolved to %q (%d documents, %d aliases)",
		name, primary, len(surviving), len(aliases))

	return &ResolvedEntity{
		PrimaryName: primary,
		Aliases:     aliases,
		Documents:   surviving,
	}
}

// gather unions a semantic query and an exact-substring content query per
// search string, across every collection, deduplicated by content.
func (r *Resolver) gather(ctx context.Context, searches []string) []store.Document {
	var all []store.Document
	for _, name := range r.store.Names() {
		collection, ok := r.store.Collection(name)
		if !ok {
			continue
		}
		for _, search := range searches {
			semantic, err := collection.Query(ctx, store.QueryRequest{Text: search, Limit: r.queryLimit})
			if err != nil {
				r.logger.Printf("[RESOLVER] semantic query failed on %s: %v", name, err)
			} else {
				all = append(all, semantic...)
			}

			literal, err := collection.Query(ctx, store.QueryRequest{WhereDocument: search, Limit: r.queryLimit})
			if err != nil {
				r.logger.Printf("[RESOLVER] substring query failed on %s: %v", name, err)
			} else {
				all = append(all, literal...)
			}
		}
	}
	return store.Dedup(all)
}

// CleanName strips honorifics, suffixes and punctuation from a name.
func CleanName(name string) string {
	var kept []string
	for _, word := range strings.Fields(name) {
		stripped := strings.Trim(strings.ToLower(word), ".,;:!?'\"()")
		if stripped == "" || honorifics[stripped] {
			continue
		}
		kept = append(kept, strings.Trim(word, ".,;:!?'\"()"))
	}
	return strings.Join(kept, " ")
}

// WordSet cleans a name and returns its lowercased word set.
func WordSet(name string) map[string]bool {
	set := make(map[string]bool)
	for _, word := range strings.Fields(CleanName(name)) {
		set[strings.ToLower(word)] = true
	}
	return set
}

// FuzzyNameMatch holds when one word-set is a subset of the other. This
// lets "Escobar" match "Jared Escobar" but rejects "Smith Jones" against
// "Jones".
func FuzzyNameMatch(a, b map[string]bool) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	return isSubset(a, b) || isSubset(b, a)
}

func isSubset(sub, super map[string]bool) bool {
	if len(sub) == 0 {
		return false
	}
	for word := range sub {
		if !super[word] {
			return false
		}
	}
	return true
}

// fullNameOf reads the stored full name, tolerating comma-separated forms.
func fullNameOf(doc store.Document) string {
	for _, field := range []string{"full_name", "fullname", "name"} {
		if value, ok := doc.Metadata[field].(string); ok && value != "" {
			return strings.TrimSpace(strings.ReplaceAll(value, ",", " "))
		}
	}
	return ""
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
