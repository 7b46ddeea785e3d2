package schema

import (
	"context"
	"log"
	"strings"
	"testing"

	"campus-qa-be/pkg/store"
	"campus-qa-be/pkg/store/memory"
)

func TestCanonicalField(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"course", "program"},
		{"yr", "year_level"},
		{"Year", "year_level"},
		{"name", "full_name"},
		{"advisor", "adviser"},
		{"role", "position"},
		{"doc_type", "document_type"},
		{"id_number", "student_id"},
		{"last_name", "surname"},
		{"something_custom", "something_custom"},
	}
	for _, tt := range tests {
		if got := CanonicalField(tt.in); got != tt.want {
			t.Errorf("CanonicalField(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOriginalKeysCoverAliases(t *testing.T) {
	keys := OriginalKeys("year_level")
	for _, want := range []string{"yr", "year", "year_level", "yearlevel", "level"} {
		found := false
		for _, k := range keys {
			if k == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("OriginalKeys(year_level) = %v, missing %q", keys, want)
		}
	}
}

func TestIntrospect(t *testing.T) {
	s := memory.NewStore()
	s.Load("students", []store.Document{
		{Content: "a", Metadata: map[string]interface{}{"name": "A", "course": "BSCS", "yr": "2"}},
		{Content: "b", Metadata: map[string]interface{}{"name": "B", "course": "BSIT", "yr": "1"}},
	})
	s.Load("school_info", []store.Document{
		{Content: "mission text", Metadata: map[string]interface{}{"doc_type": "mission"}},
	})

	schema, err := NewIntrospector(s, log.Default()).Introspect(context.Background())
	if err != nil {
		t.Fatalf("Introspect failed: %v", err)
	}

	if !strings.Contains(schema.Summary, "students (2 documents)") {
		t.Errorf("summary missing collection line:\n%s", schema.Summary)
	}
	if !strings.Contains(schema.Summary, "program") {
		t.Errorf("summary should use canonical field names:\n%s", schema.Summary)
	}

	if got := schema.FieldMaps["students"]["course"]; got != "program" {
		t.Errorf("field map course -> %q, want program", got)
	}

	programs := schema.Vocabularies["program"]
	if len(programs) != 2 {
		t.Fatalf("program vocabulary = %v, want BSCS and BSIT", programs)
	}

	keys := schema.OriginalKeysFor("students", "program")
	if len(keys) != 1 || keys[0] != "course" {
		t.Errorf("OriginalKeysFor(students, program) = %v, want [course]", keys)
	}
}

func TestOriginalKeysForUnknownCollectionFallsBack(t *testing.T) {
	s := &Schema{FieldMaps: map[string]map[string]string{}}
	keys := s.OriginalKeysFor("ghosts", "program")
	if len(keys) != 1 || keys[0] != "program" {
		t.Errorf("fallback keys = %v, want [program]", keys)
	}
}
