package entity

import (
	"context"
	"log"
	"testing"

	"campus-qa-be/pkg/store"
	"campus-qa-be/pkg/store/memory"
)

func TestCleanName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Dr. Jared Escobar", "Jared Escobar"},
		{"Prof Maria Santos Jr.", "Maria Santos"},
		{"escobar", "escobar"},
		{"Ma'am Cruz", "Cruz"},
	}
	for _, tt := range tests {
		if got := CleanName(tt.in); got != tt.want {
			t.Errorf("CleanName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFuzzyNameMatch(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"surname matches full name", "Escobar", "Jared Escobar", true},
		{"full name matches surname", "Jared Escobar", "Escobar", true},
		{"two names reject single different name", "Smith Jones", "Jones", true},
		{"disjoint names reject", "Smith Jones", "Garcia", false},
		{"case insensitive", "escobar", "Jared ESCOBAR", true},
		{"empty never matches", "", "Escobar", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FuzzyNameMatch(WordSet(tt.a), WordSet(tt.b))
			if got != tt.want {
				t.Errorf("FuzzyNameMatch(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func testStore() store.Store {
	s := memory.NewStore()
	s.Load("students", []store.Document{
		{
			Content:  "Jared Escobar, BSCS 2nd Year Section A",
			Metadata: map[string]interface{}{"full_name": "Jared Escobar", "program": "BSCS", "year_level": "2"},
		},
		{
			Content:  "Maria Escobar, BSIT 3rd Year Section B",
			Metadata: map[string]interface{}{"full_name": "Maria Escobar", "program": "BSIT", "year_level": "3"},
		},
	})
	s.Load("staff", []store.Document{
		{
			Content:  "Ana Reyes, Instructor, CS Department",
			Metadata: map[string]interface{}{"full_name": "Ana Reyes", "position": "Instructor"},
		},
	})
	return s
}

func TestResolveFullName(t *testing.T) {
	r := NewResolver(testStore(), log.Default())

	resolved := r.Resolve(context.Background(), "Jared Escobar")
	if resolved == nil {
		t.Fatal("expected a resolution for a stored full name")
	}
	if resolved.PrimaryName != "Jared Escobar" {
		t.Errorf("primary name = %q, want Jared Escobar", resolved.PrimaryName)
	}
	if len(resolved.Documents) != 1 {
		t.Errorf("got %d documents, want only Jared's", len(resolved.Documents))
	}
}

func TestResolveSurnameKeepsAllBearers(t *testing.T) {
	r := NewResolver(testStore(), log.Default())

	resolved := r.Resolve(context.Background(), "Escobar")
	if resolved == nil {
		t.Fatal("expected a resolution for a shared surname")
	}
	// both Escobars have the query word-set as a subset of their names
	if len(resolved.Documents) != 2 {
		t.Errorf("got %d documents, want 2", len(resolved.Documents))
	}
}

func TestResolveWithHonorific(t *testing.T) {
	r := NewResolver(testStore(), log.Default())

	resolved := r.Resolve(context.Background(), "Ms. Ana Reyes")
	if resolved == nil {
		t.Fatal("honorific should be stripped before matching")
	}
	if resolved.PrimaryName != "Ana Reyes" {
		t.Errorf("primary name = %q, want Ana Reyes", resolved.PrimaryName)
	}
}

func TestResolveUnknownIsNil(t *testing.T) {
	r := NewResolver(testStore(), log.Default())

	if resolved := r.Resolve(context.Background(), "Zoltan Quux"); resolved != nil {
		t.Errorf("unknown name should resolve to nil, got %+v", resolved)
	}
	if resolved := r.Resolve(context.Background(), "Dr."); resolved != nil {
		t.Errorf("honorific-only input should resolve to nil, got %+v", resolved)
	}
}
