package tools

import (
	"context"
	"log"
	"strings"
	"testing"

	"campus-qa-be/pkg/rag/entity"
	"campus-qa-be/pkg/rag/filter"
	"campus-qa-be/pkg/schema"
	"campus-qa-be/pkg/store"
	"campus-qa-be/pkg/store/memory"
)

type stubAnswerer struct{ answer string }

func (s stubAnswerer) AnswerAbout(_ context.Context, _ string, _ []store.Document) string {
	return s.answer
}

func seededStore() store.Store {
	s := memory.NewStore()
	s.Load("students", []store.Document{
		{
			Content: "Jared Escobar, BSCS 2nd Year Section A, student id 2021-00123",
			Metadata: map[string]interface{}{
				"full_name": "Jared Escobar", "program": "BSCS",
				"year_level": "2", "section": "A", "student_id": "2021-00123",
			},
		},
		{
			Content: "Maria Santos, BSIT 1st Year Section B, student id 2023-00456",
			Metadata: map[string]interface{}{
				"full_name": "Maria Santos", "program": "BSIT",
				"year_level": "1", "section": "B", "student_id": "2023-00456",
			},
		},
	})
	s.Load("staff_profiles", []store.Document{
		{
			Content:  "Ana Reyes, Instructor, CS Department",
			Metadata: map[string]interface{}{"full_name": "Ana Reyes", "position": "Instructor", "department": "CS"},
		},
	})
	s.Load("class_schedules", []store.Document{
		{
			Content: "BSCS 2A: Algorithms Mon 9:00, Databases Wed 10:30",
			Metadata: map[string]interface{}{
				"program": "BSCS", "year_level": "2", "section": "A", "adviser": "Ana Reyes",
			},
		},
	})
	s.Load("grade_records", []store.Document{
		{
			Content:  "Jared Escobar grades: Algorithms 1.5, Databases 1.75",
			Metadata: map[string]interface{}{"student_id": "2021-00123", "full_name": "Jared Escobar"},
		},
		{
			Content:  "Maria Santos grades: Programming 2.0",
			Metadata: map[string]interface{}{"student_id": "2023-00456", "full_name": "Maria Santos"},
		},
	})
	s.Load("school_info", []store.Document{
		{
			Content:  "Our mission is academic excellence for all.",
			Metadata: map[string]interface{}{"document_type": "mission"},
		},
		{
			Content:  "The CS department offers tutoring and laboratory access to enrolled students.",
			Metadata: map[string]interface{}{"document_type": "general", "department": "CS"},
		},
	})
	return s
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	s := seededStore()
	logger := log.Default()

	sch, err := schema.NewIntrospector(s, logger).Introspect(context.Background())
	if err != nil {
		t.Fatalf("introspection failed: %v", err)
	}
	return NewRegistry(
		s,
		entity.NewResolver(s, logger),
		filter.NewNormalizer(sch),
		sch,
		stubAnswerer{answer: "focused answer"},
		logger,
	)
}

func TestExecuteUnknownTool(t *testing.T) {
	r := newTestRegistry(t)

	result := r.Execute(context.Background(), "no_such_tool", nil)
	if result.Status != StatusError {
		t.Errorf("status = %q, want error", result.Status)
	}
}

func TestGetPersonProfile(t *testing.T) {
	r := newTestRegistry(t)

	result := r.Execute(context.Background(), "get_person_profile",
		map[string]interface{}{"person_name": "Jared Escobar"})
	if result.Status != StatusSuccess {
		t.Fatalf("status = %q (%s)", result.Status, result.Note)
	}
	// profile record plus the grade record carrying his full name
	if len(result.Documents) != 2 {
		t.Errorf("got %d documents, want 2", len(result.Documents))
	}

	missing := r.Execute(context.Background(), "get_person_profile",
		map[string]interface{}{"person_name": "Nobody Here"})
	if missing.Status != StatusEmpty {
		t.Errorf("unknown person status = %q, want empty", missing.Status)
	}
	if len(missing.ResolvedPeople) != 0 {
		t.Errorf("failed resolution must not report resolved people: %v", missing.ResolvedPeople)
	}
}

func TestGetPersonProfileReportsCanonicalName(t *testing.T) {
	r := newTestRegistry(t)

	// A surname fragment resolves to the full stored name; downstream
	// entity memory must see the canonical form, not the fragment.
	result := r.Execute(context.Background(), "get_person_profile",
		map[string]interface{}{"person_name": "Escobar"})
	if result.Status != StatusSuccess {
		t.Fatalf("status = %q (%s)", result.Status, result.Note)
	}
	if len(result.ResolvedPeople) != 1 || result.ResolvedPeople[0] != "Jared Escobar" {
		t.Errorf("resolved people = %v, want [Jared Escobar]", result.ResolvedPeople)
	}
}

func TestGetPersonProfileValidation(t *testing.T) {
	r := newTestRegistry(t)

	result := r.Execute(context.Background(), "get_person_profile", map[string]interface{}{})
	if result.Status != StatusError {
		t.Errorf("missing required parameter should be an error, got %q", result.Status)
	}
}

func TestGetPersonScheduleByGroup(t *testing.T) {
	r := newTestRegistry(t)

	result := r.Execute(context.Background(), "get_person_schedule",
		map[string]interface{}{"program": "bscs", "year_level": float64(2), "section": "A"})
	if result.Status != StatusSuccess {
		t.Fatalf("status = %q (%s)", result.Status, result.Note)
	}
	if len(result.Documents) != 1 {
		t.Errorf("got %d schedules, want 1", len(result.Documents))
	}
}

func TestGetPersonScheduleByName(t *testing.T) {
	r := newTestRegistry(t)

	// Jared carries program/year/section, so his schedule resolves through
	// the group keys.
	result := r.Execute(context.Background(), "get_person_schedule",
		map[string]interface{}{"person_name": "Jared Escobar"})
	if result.Status != StatusSuccess {
		t.Fatalf("status = %q (%s)", result.Status, result.Note)
	}

	// Ana is name-keyed: her schedule is found via the adviser field.
	adviser := r.Execute(context.Background(), "get_person_schedule",
		map[string]interface{}{"person_name": "Ana Reyes"})
	if adviser.Status != StatusSuccess {
		t.Fatalf("adviser schedule status = %q (%s)", adviser.Status, adviser.Note)
	}
}

func TestGetAdviserInfoByGroup(t *testing.T) {
	r := newTestRegistry(t)

	result := r.Execute(context.Background(), "get_adviser_info",
		map[string]interface{}{"program": "bscs", "year_level": float64(2)})
	if result.Status != StatusSuccess {
		t.Fatalf("status = %q (%s)", result.Status, result.Note)
	}
	if !strings.Contains(result.Note, "Ana Reyes") {
		t.Errorf("note should surface the adviser, got %q", result.Note)
	}
	if len(result.ResolvedPeople) != 1 || result.ResolvedPeople[0] != "Ana Reyes" {
		t.Errorf("resolved people = %v, want the adviser", result.ResolvedPeople)
	}
	if len(result.Documents) != 1 {
		t.Errorf("got %d schedules, want 1", len(result.Documents))
	}
}

func TestGetAdviserInfoNoMatchIsEmpty(t *testing.T) {
	r := newTestRegistry(t)

	result := r.Execute(context.Background(), "get_adviser_info",
		map[string]interface{}{"program": "BSIT", "year_level": "3"})
	if result.Status != StatusEmpty {
		t.Fatalf("status = %q, want empty", result.Status)
	}
	if len(result.Documents) != 0 {
		t.Errorf("empty result should carry no documents, got %d", len(result.Documents))
	}

	noArgs := r.Execute(context.Background(), "get_adviser_info", map[string]interface{}{})
	if noArgs.Status != StatusError {
		t.Errorf("no filters should be an error, got %q", noArgs.Status)
	}
}

func TestGetStudentGradesByName(t *testing.T) {
	r := newTestRegistry(t)

	result := r.Execute(context.Background(), "get_student_grades",
		map[string]interface{}{"student_name": "Jared Escobar", "program": "BSIT"})
	if result.Status != StatusSuccess {
		t.Fatalf("status = %q (%s)", result.Status, result.Note)
	}
	// name takes priority over the (wrong) group filter
	if len(result.Documents) != 1 {
		t.Fatalf("got %d grade documents, want 1", len(result.Documents))
	}
	if result.Documents[0].Metadata["student_id"] != "2021-00123" {
		t.Errorf("wrong student's grades: %v", result.Documents[0].Metadata)
	}
}

func TestGetStudentGradesNoArgsReturnsAll(t *testing.T) {
	r := newTestRegistry(t)

	result := r.Execute(context.Background(), "get_student_grades", map[string]interface{}{})
	if result.Status != StatusSuccess {
		t.Fatalf("status = %q (%s)", result.Status, result.Note)
	}
	if len(result.Documents) != 2 {
		t.Errorf("no-args grades = %d documents, want all 2", len(result.Documents))
	}
}

func TestFindPeopleByRole(t *testing.T) {
	r := newTestRegistry(t)

	result := r.Execute(context.Background(), "find_people",
		map[string]interface{}{"role": "faculty"})
	if result.Status != StatusSuccess {
		t.Fatalf("status = %q (%s)", result.Status, result.Note)
	}
	// "faculty" expands to instructor among other sub-types
	if len(result.Documents) != 1 || result.Documents[0].Metadata["full_name"] != "Ana Reyes" {
		t.Errorf("faculty search = %v", result.Documents)
	}
}

func TestFindPeopleByCohort(t *testing.T) {
	r := newTestRegistry(t)

	result := r.Execute(context.Background(), "find_people",
		map[string]interface{}{"program": "BSCS", "year_level": "2"})
	if result.Status != StatusSuccess {
		t.Fatalf("status = %q (%s)", result.Status, result.Note)
	}
	if len(result.Documents) != 1 || result.Documents[0].Metadata["full_name"] != "Jared Escobar" {
		t.Errorf("cohort search = %v", result.Documents)
	}
}

func TestAnswerQuestionAboutPerson(t *testing.T) {
	r := newTestRegistry(t)

	result := r.Execute(context.Background(), "answer_question_about_person",
		map[string]interface{}{"person_name": "Jared Escobar", "question": "what are his grades?"})
	if result.Status != StatusSuccess {
		t.Fatalf("status = %q (%s)", result.Status, result.Note)
	}
	if result.FocusedAnswer != "focused answer" {
		t.Errorf("focused answer = %q", result.FocusedAnswer)
	}
	// evidence gathers profile plus related grades
	if len(result.Documents) < 2 {
		t.Errorf("evidence = %d documents, want profile and grades", len(result.Documents))
	}
}

func TestGetSchoolInfoTopic(t *testing.T) {
	r := newTestRegistry(t)

	result := r.Execute(context.Background(), "get_school_info",
		map[string]interface{}{"topic": "mission"})
	if result.Status != StatusSuccess {
		t.Fatalf("status = %q (%s)", result.Status, result.Note)
	}
	if len(result.Documents) != 1 {
		t.Errorf("mission lookup = %d documents, want 1", len(result.Documents))
	}
}

func TestGetSchoolInfoDefaultIsDepartmentScoped(t *testing.T) {
	r := newTestRegistry(t)

	// With no topic the lookup wildcards over the known departments, so
	// only department-tagged documents come back.
	result := r.Execute(context.Background(), "get_school_info", map[string]interface{}{})
	if result.Status != StatusSuccess {
		t.Fatalf("status = %q (%s)", result.Status, result.Note)
	}
	if len(result.Documents) != 1 {
		t.Fatalf("default lookup = %d documents, want the department-tagged one", len(result.Documents))
	}
	if result.Documents[0].Metadata["department"] != "CS" {
		t.Errorf("default lookup returned %v", result.Documents[0].Metadata)
	}
}

func TestLookupByID(t *testing.T) {
	r := newTestRegistry(t)

	result := r.Execute(context.Background(), "lookup_by_id",
		map[string]interface{}{"id_number": "2023-00456"})
	if result.Status != StatusSuccess {
		t.Fatalf("status = %q (%s)", result.Status, result.Note)
	}
	if len(result.Documents) != 1 || result.Documents[0].Metadata["full_name"] != "Maria Santos" {
		t.Errorf("id lookup = %v", result.Documents)
	}
}

func TestConversationalIsNoOp(t *testing.T) {
	r := newTestRegistry(t)

	result := r.Execute(context.Background(), "conversational", nil)
	if result.Status != StatusSuccess || len(result.Documents) != 0 {
		t.Errorf("conversational = %+v", result)
	}
}

func TestDescribeListsEveryTool(t *testing.T) {
	r := newTestRegistry(t)

	catalog := r.Describe()
	for _, name := range []string{
		"get_person_profile", "get_person_schedule", "get_adviser_info",
		"get_student_grades", "answer_question_about_person", "compare_people",
		"find_people", "query_curriculum", "get_database_summary",
		"get_school_info", "lookup_by_id", "conversational",
	} {
		if !r.Has(name) {
			t.Errorf("tool %q not registered", name)
		}
		if !strings.Contains(catalog, name) {
			t.Errorf("catalog missing %q:\n%s", name, catalog)
		}
	}
}
