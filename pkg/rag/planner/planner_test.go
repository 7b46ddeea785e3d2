package planner

import (
	"context"
	"fmt"
	"log"
	"testing"
	"time"

	"campus-qa-be/pkg/llm"
	"campus-qa-be/pkg/schema"
	"campus-qa-be/pkg/store"
)

type scriptedProvider struct {
	responses []string
	calls     int
}

func (p *scriptedProvider) Chat(_ context.Context, _ []llm.Message, _ ...llm.Option) (string, error) {
	if p.calls >= len(p.responses) {
		return "", fmt.Errorf("no scripted response left")
	}
	response := p.responses[p.calls]
	p.calls++
	return response, nil
}

func (p *scriptedProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.Chat(ctx, nil, options...)
}

type fakeCatalog struct{ known map[string]bool }

func (c fakeCatalog) Describe() string { return "- get_person_profile(person_name): look up a person\n" }
func (c fakeCatalog) Has(name string) bool {
	return c.known[name]
}

func newTestPlanner(provider llm.Provider) *Planner {
	client := llm.NewClient(provider, llm.PhaseConfig{}, llm.PhaseConfig{}, log.Default())
	p := NewPlanner(client, fakeCatalog{known: map[string]bool{
		"get_person_profile": true,
		"conversational":     true,
	}}, &schema.Schema{Summary: "collections: students\n"}, log.Default())
	p.retryDelay = time.Millisecond
	return p
}

func TestPlanAcceptsValidToolCall(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		`{"tool_name": "get_person_profile", "parameters": {"person_name": "Jared Escobar"}}`,
	}}
	p := newTestPlanner(provider)

	call, err := p.Plan(context.Background(), "who is Jared Escobar", store.NewSession("s1"), nil)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if call.ToolName != "get_person_profile" {
		t.Errorf("tool = %q", call.ToolName)
	}
	if call.Parameters["person_name"] != "Jared Escobar" {
		t.Errorf("parameters = %v", call.Parameters)
	}
}

func TestPlanStripsCodeFences(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		"```json\n{\"tool_name\": \"conversational\", \"parameters\": {}}\n```",
	}}
	p := newTestPlanner(provider)

	call, err := p.Plan(context.Background(), "hello", store.NewSession("s1"), nil)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if call.ToolName != "conversational" {
		t.Errorf("tool = %q", call.ToolName)
	}
}

func TestPlanRetriesOnGarbageThenAccepts(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		"I think you should use get_person_profile",
		`{"tool_name": "", "parameters": {}}`,
		`{"tool_name": "get_person_profile", "parameters": {}}`,
	}}
	p := newTestPlanner(provider)

	call, err := p.Plan(context.Background(), "who is X", store.NewSession("s1"), nil)
	if err != nil {
		t.Fatalf("Plan should succeed on third attempt: %v", err)
	}
	if call.ToolName != "get_person_profile" {
		t.Errorf("tool = %q", call.ToolName)
	}
	if provider.calls != 3 {
		t.Errorf("provider called %d times, want 3", provider.calls)
	}
}

func TestPlanRejectsUnknownTool(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		`{"tool_name": "drop_all_tables", "parameters": {}}`,
		`{"tool_name": "drop_all_tables", "parameters": {}}`,
		`{"tool_name": "drop_all_tables", "parameters": {}}`,
	}}
	p := newTestPlanner(provider)

	if _, err := p.Plan(context.Background(), "q", store.NewSession("s1"), nil); err == nil {
		t.Fatal("unknown tool must exhaust retries and fail")
	}
}

func TestPlanNilParametersBecomeEmptyMap(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		`{"tool_name": "conversational"}`,
	}}
	p := newTestPlanner(provider)

	call, err := p.Plan(context.Background(), "hi", store.NewSession("s1"), nil)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if call.Parameters == nil {
		t.Error("parameters must never be nil")
	}
}
