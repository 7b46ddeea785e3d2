package rag

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"testing"

	"campus-qa-be/pkg/llm"
	"campus-qa-be/pkg/rag/entity"
	"campus-qa-be/pkg/rag/fallback"
	"campus-qa-be/pkg/rag/filter"
	"campus-qa-be/pkg/rag/planner"
	"campus-qa-be/pkg/rag/session"
	"campus-qa-be/pkg/rag/synthesis"
	"campus-qa-be/pkg/rag/toolcache"
	"campus-qa-be/pkg/rag/tools"
	"campus-qa-be/pkg/rag/trainlog"
	"campus-qa-be/pkg/schema"
	"campus-qa-be/pkg/store"
	"campus-qa-be/pkg/store/memory"

	repomemory "campus-qa-be/internal/repository/memory"
)

// routedProvider answers planning, synthesis and context-summary prompts
// from independent scripts, so the summarize pass cannot steal a scripted
// response from the next turn. An unset summary replies with non-JSON,
// which leaves the structured context untouched.
type routedProvider struct {
	mu        sync.Mutex
	plans     []string
	syntheses []string
	summary   string
}

func (p *routedProvider) Chat(_ context.Context, history []llm.Message, _ ...llm.Option) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	prompt := history[len(history)-1].Content
	switch {
	case strings.Contains(prompt, "Merge the previous context"):
		if p.summary != "" {
			return p.summary, nil
		}
		return "summary unavailable", nil
	case strings.Contains(prompt, "<available_tools>"):
		if len(p.plans) == 0 {
			return "", fmt.Errorf("no scripted plan left")
		}
		next := p.plans[0]
		p.plans = p.plans[1:]
		return next, nil
	default:
		if len(p.syntheses) == 0 {
			return "", fmt.Errorf("no scripted synthesis left")
		}
		next := p.syntheses[0]
		p.syntheses = p.syntheses[1:]
		return next, nil
	}
}

func (p *routedProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*store.Session
}

func (r *fakeSessionRepo) FindByID(_ context.Context, id string) (*store.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[id], nil
}

func (r *fakeSessionRepo) Upsert(_ context.Context, s *store.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sessions == nil {
		r.sessions = map[string]*store.Session{}
	}
	r.sessions[s.SessionID] = s
	return nil
}

func seededStore() store.Store {
	s := memory.NewStore()
	s.Load("students", []store.Document{
		{
			Content: "Jared Escobar, BSCS 2nd Year Section A",
			Metadata: map[string]interface{}{
				"full_name": "Jared Escobar", "program": "BSCS",
				"year_level": "2", "section": "A", "student_id": "2021-00123",
			},
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
	s.Load("school_info", []store.Document{
		{
			Content:  "BSCS enrollment procedure: submit form 137, pay fees, pick subjects.",
			Metadata: map[string]interface{}{"document_type": "procedure"},
		},
	})
	return s
}

func newTestOrchestrator(t *testing.T, provider llm.Provider) *Orchestrator {
	return newOrchestratorOver(t, provider, seededStore())
}

func newOrchestratorOver(t *testing.T, provider llm.Provider, s store.Store) *Orchestrator {
	t.Helper()
	logger := log.Default()

	sch, err := schema.NewIntrospector(s, logger).Introspect(context.Background())
	if err != nil {
		t.Fatalf("introspection failed: %v", err)
	}

	client := llm.NewClient(provider, llm.PhaseConfig{}, llm.PhaseConfig{}, logger)
	generator := synthesis.NewGenerator(client, logger)
	registry := tools.NewRegistry(
		s,
		entity.NewResolver(s, logger),
		filter.NewNormalizer(sch),
		sch,
		generator,
		logger,
	)
	sessions := session.NewManager(repomemory.NewSessionCache(), &fakeSessionRepo{}, client, 5, logger)
	queryPlanner := planner.NewPlanner(client, registry, sch, logger)

	return NewOrchestrator(
		sessions,
		queryPlanner,
		registry,
		toolcache.NewCache(nil, logger), // cache disabled
		fallback.NewEngine(s, logger),
		generator,
		trainlog.NewLogger(nil, nil, logger),
		logger,
	)
}

func TestAnswerPersonThenPronounFollowUp(t *testing.T) {
	provider := &routedProvider{
		plans: []string{
			`{"tool_name": "get_person_profile", "parameters": {"person_name": "Jared Escobar"}}`,
			`{"tool_name": "get_person_schedule", "parameters": {"person_name": "Jared Escobar"}}`,
		},
		syntheses: []string{
			"Jared Escobar is a 2nd year BSCS student (from: students).",
			"His schedule lists Algorithms and Databases (from: class_schedules).",
		},
	}
	o := newTestOrchestrator(t, provider)

	first := o.Answer(context.Background(), "who is Jared Escobar", "session-1")
	if !strings.Contains(first.Answer, "2nd year BSCS") {
		t.Errorf("first answer = %q", first.Answer)
	}
	if len(first.Evidence) == 0 {
		t.Error("first turn should carry evidence")
	}

	second := o.Answer(context.Background(), "what is his schedule", "session-1")
	if !strings.Contains(second.Answer, "Algorithms") {
		t.Errorf("second answer = %q", second.Answer)
	}
	if len(second.Evidence) == 0 {
		t.Error("schedule turn should carry evidence")
	}
}

func TestAnswerFallsBackWhenToolComesUpEmpty(t *testing.T) {
	provider := &routedProvider{
		plans: []string{
			`{"tool_name": "get_person_profile", "parameters": {"person_name": "Zoltan Quux"}}`,
		},
		syntheses: []string{
			"The enrollment procedure is: submit form 137, pay fees, pick subjects (from: school_info).",
		},
	}
	o := newTestOrchestrator(t, provider)

	// The planner picked a person tool for a procedural question; the empty
	// result must trigger the fallback ranking instead of a dead end.
	got := o.Answer(context.Background(), "BSCS enrollment procedure", "session-2")
	if len(got.Evidence) == 0 {
		t.Fatal("fallback should rescue documents for the query")
	}
	if !strings.Contains(got.Answer, "enrollment procedure") {
		t.Errorf("answer = %q", got.Answer)
	}

	// The planner's invented name never resolved, so it must not seed
	// entity memory for pronoun resolution.
	sess := o.sessions.LoadOrCreate(context.Background(), "session-2")
	if entities := sess.StructuredContext.MentionedEntities; len(entities) != 0 {
		t.Errorf("failed resolution must not be remembered, got %v", entities)
	}
}

func TestAnswerSurvivesPlannerFailure(t *testing.T) {
	provider := &routedProvider{
		plans: []string{"garbage", "garbage", "garbage"},
	}
	o := newTestOrchestrator(t, provider)

	got := o.Answer(context.Background(), "anything", "session-3")
	if got.Answer != llm.ErrorAnswer {
		t.Errorf("planner failure should degrade to the apologetic answer, got %q", got.Answer)
	}
	if len(got.Evidence) != 0 {
		t.Errorf("no evidence expected, got %d documents", len(got.Evidence))
	}
}

func TestAdviserLookupNotFoundIsStated(t *testing.T) {
	provider := &routedProvider{
		plans: []string{
			`{"tool_name": "get_adviser_info", "parameters": {"program": "BSCS", "year_level": "2"}}`,
		},
		syntheses: []string{
			"I could not find adviser information for BSCS year 2 in the available records.",
		},
	}

	// The schedule collection holds nothing for the group: the tool comes
	// up empty and the fallback has nothing to rescue either.
	s := memory.NewStore()
	s.Load("students", []store.Document{
		{
			Content:  "Jared Escobar, BSCS 2nd Year Section A",
			Metadata: map[string]interface{}{"full_name": "Jared Escobar", "program": "BSCS", "year_level": "2"},
		},
	})
	s.Load("class_schedules", []store.Document{})
	o := newOrchestratorOver(t, provider, s)

	got := o.Answer(context.Background(), "who is the adviser of BSCS year 2", "session-5")
	if len(got.Evidence) != 0 {
		t.Fatalf("no evidence expected, got %d documents", len(got.Evidence))
	}
	if !strings.Contains(got.Answer, "could not find") {
		t.Errorf("answer must state the information was not found, got %q", got.Answer)
	}
}

func TestEntityMemoryRecordsResolvedName(t *testing.T) {
	provider := &routedProvider{
		plans: []string{
			`{"tool_name": "get_person_profile", "parameters": {"person_name": "Escobar"}}`,
		},
		syntheses: []string{
			"Jared Escobar is a 2nd year BSCS student (from: students).",
		},
	}
	o := newTestOrchestrator(t, provider)
	ctx := context.Background()

	o.Answer(ctx, "who is student Escobar", "session-6")

	// Memory holds the canonical name the resolver settled on, not the
	// fragment the planner passed.
	sess := o.sessions.LoadOrCreate(ctx, "session-6")
	entities := sess.StructuredContext.MentionedEntities
	if len(entities) != 1 || entities[0] != "Jared Escobar" {
		t.Errorf("mentioned entities = %v, want [Jared Escobar]", entities)
	}
}

func TestSummarizeCompletesWithinTurn(t *testing.T) {
	provider := &routedProvider{
		plans:     []string{`{"tool_name": "conversational", "parameters": {}}`},
		syntheses: []string{"Hello! Ask me about students, schedules or grades."},
		summary:   `{"current_topic": "greeting the assistant", "active_filters": {}, "mentioned_entities": []}`,
	}
	o := newTestOrchestrator(t, provider)
	ctx := context.Background()

	o.Answer(ctx, "hi there", "session-7")

	// The merged context must be visible the moment the turn returns; a
	// later turn always summarizes on top of this one.
	sess := o.sessions.LoadOrCreate(ctx, "session-7")
	if sess.ConversationSummary != "greeting the assistant" {
		t.Errorf("summary = %q, want the merged topic", sess.ConversationSummary)
	}
}

func TestConversationalTurnSkipsRetrieval(t *testing.T) {
	provider := &routedProvider{
		plans:     []string{`{"tool_name": "conversational", "parameters": {}}`},
		syntheses: []string{"Hello! Ask me about students, schedules or grades."},
	}
	o := newTestOrchestrator(t, provider)

	got := o.Answer(context.Background(), "hi there", "session-4")
	if !strings.Contains(got.Answer, "Hello") {
		t.Errorf("answer = %q", got.Answer)
	}
	if len(got.Evidence) != 0 {
		t.Errorf("conversational turn should carry no evidence, got %d", len(got.Evidence))
	}
}
