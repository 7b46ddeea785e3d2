package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"campus-qa-be/pkg/rag/entity"
	"campus-qa-be/pkg/rag/filter"
	"campus-qa-be/pkg/schema"
	"campus-qa-be/pkg/store"

	"github.com/go-playground/validator/v10"
)

// Result statuses. "empty" and "error" are normal outcomes that trigger
// the fallback relevance engine upstream.
const (
	StatusSuccess = "success"
	StatusEmpty   = "empty"
	StatusError   = "error"
)

// Result is the uniform outcome of one tool execution. ResolvedPeople
// carries the canonical names the tool resolved, so entity memory records
// the person actually found rather than whatever the planner typed.
type Result struct {
	Status         string           `json:"status"`
	Documents      []store.Document `json:"documents"`
	Note           string           `json:"note,omitempty"`
	FocusedAnswer  string           `json:"focused_answer,omitempty"`
	ResolvedPeople []string         `json:"resolved_people,omitempty"`
}

func successResult(docs []store.Document) *Result {
	if len(docs) == 0 {
		return &Result{Status: StatusEmpty}
	}
	return &Result{Status: StatusSuccess, Documents: store.Dedup(docs)}
}

// FocusedAnswerer is the narrow synthesizer slice needed by
// answer_question_about_person. Kept as an interface so the registry does
// not depend on the synthesis package.
type FocusedAnswerer interface {
	AnswerAbout(ctx context.Context, question string, docs []store.Document) string
}

// Tool is one named, read-only retrieval operation exposed to the planner.
type Tool struct {
	Name        string
	Description string
	Parameters  string // parameter hint rendered into the planner prompt
	CacheTTL    time.Duration
	run         func(ctx context.Context, params map[string]interface{}) (*Result, error)
}

// Registry holds the fixed tool set over the adapter, resolver and
// normalizer.
type Registry struct {
	store      store.Store
	resolver   *entity.Resolver
	normalizer *filter.Normalizer
	schema     *schema.Schema
	focusedQA  FocusedAnswerer
	validate   *validator.Validate
	logger     *log.Logger

	tools map[string]*Tool
	order []string
}

func NewRegistry(
	s store.Store,
	resolver *entity.Resolver,
	normalizer *filter.Normalizer,
	sch *schema.Schema,
	focusedQA FocusedAnswerer,
	logger *log.Logger,
) *Registry {
	r := &Registry{
		store:      s,
		resolver:   resolver,
		normalizer: normalizer,
		schema:     sch,
		focusedQA:  focusedQA,
		validate:   validator.New(),
		logger:     logger,
		tools:      make(map[string]*Tool),
	}
	r.registerAll()
	return r
}

func (r *Registry) register(t *Tool) {
	r.tools[t.Name] = t
	r.order = append(r.order, t.Name)
}

// Has reports whether a tool name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.tools[name]
	return ok
}

// CacheTTL returns the result-cache TTL for a tool, zero when uncacheable.
func (r *Registry) CacheTTL(name string) time.Duration {
	if t, ok := r.tools[name]; ok {
		return t.CacheTTL
	}
	return 0
}

// Describe renders the tool catalog for the planner prompt.
func (r *Registry) Describe() string {
	var b strings.Builder
	for _, name := range r.order {
		t := r.tools[name]
		b.WriteString(fmt.Sprintf("- %s(%s): %s\n", t.Name, t.Parameters, t.Description))
	}
	return b.String()
}

// Execute runs one tool. A panic or error inside a tool body is contained
// here and converted into an error-status result; tools never crash a
// request.
func (r *Registry) Execute(ctx context.Context, name string, params map[string]interface{}) (result *Result) {
	tool, ok := r.tools[name]
	if !ok {
		return &Result{Status: StatusError, Note: fmt.Sprintf("unknown tool %q", name)}
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Printf("[TOOLS] %s panicked: %v", name, rec)
			result = &Result{Status: StatusError, Note: fmt.Sprintf("tool %s failed: %v", name, rec)}
		}
	}()

	res, err := tool.run(ctx, params)
	if err != nil {
		r.logger.Printf("[TOOLS] %s failed: %v", name, err)
		return &Result{Status: StatusError, Note: err.Error()}
	}
	return res
}

// decodeParams maps loose planner parameters onto a typed, validated
// parameter struct.
func (r *Registry) decodeParams(params map[string]interface{}, target interface{}) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshal parameters: %w", err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("parameters do not fit tool contract: %w", err)
	}
	if err := r.validate.Struct(target); err != nil {
		return fmt.Errorf("invalid parameters: %w", err)
	}
	return nil
}

// findCollection locates a collection whose name contains the keyword.
func (r *Registry) findCollection(keyword string) (store.Collection, bool) {
	for _, name := range r.store.Names() {
		if strings.Contains(strings.ToLower(name), keyword) {
			return r.store.Collection(name)
		}
	}
	return nil, false
}

// peopleCollections returns every collection likely to hold person records.
func (r *Registry) peopleCollections() []store.Collection {
	var out []store.Collection
	for _, name := range r.store.Names() {
		lowered := strings.ToLower(name)
		if strings.Contains(lowered, "student") || strings.Contains(lowered, "staff") ||
			strings.Contains(lowered, "faculty") || strings.Contains(lowered, "people") {
			if c, ok := r.store.Collection(name); ok {
				out = append(out, c)
			}
		}
	}
	if len(out) == 0 {
		// Degenerate stores: search everything
		for _, name := range r.store.Names() {
			if c, ok := r.store.Collection(name); ok {
				out = append(out, c)
			}
		}
	}
	return out
}

func sortedNames(names []string) []string {
	out := make([]string, len(names))
	copy(out, names)
	sort.Strings(out)
	return out
}

func (r *Registry) registerAll() {
	r.registerPersonTools()
	r.registerScheduleTool()
	r.registerAdviserTool()
	r.registerGradesTool()
	r.registerPeopleFinder()
	r.registerCurriculumTool()
	r.registerMetaTools()
}
