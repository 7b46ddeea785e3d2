package rag

import (
	"context"
	"log"
	"time"

	"campus-qa-be/pkg/llm"
	"campus-qa-be/pkg/rag/fallback"
	"campus-qa-be/pkg/rag/planner"
	"campus-qa-be/pkg/rag/session"
	"campus-qa-be/pkg/rag/synthesis"
	"campus-qa-be/pkg/rag/toolcache"
	"campus-qa-be/pkg/rag/tools"
	"campus-qa-be/pkg/rag/trainlog"
	"campus-qa-be/pkg/store"
)

// Answer is the outcome of one conversational turn.
type Answer struct {
	Answer   string           `json:"answer"`
	Evidence []store.Document `json:"evidence,omitempty"`
}

// Execution modes recorded per turn.
const (
	modePlanned  = "planned"
	modeCached   = "cached"
	modeFallback = "fallback"
)

// Orchestrator runs the full turn pipeline: session context, planning,
// tool execution, fallback ranking, synthesis and logging. Answer never
// returns an error; every failure degrades to an apologetic answer.
type Orchestrator struct {
	sessions  *session.Manager
	planner   *planner.Planner
	registry  *tools.Registry
	cache     *toolcache.Cache
	fallback  *fallback.Engine
	generator *synthesis.Generator
	trainlog  *trainlog.Logger
	logger    *log.Logger
}

func NewOrchestrator(
	sessions *session.Manager,
	p *planner.Planner,
	registry *tools.Registry,
	cache *toolcache.Cache,
	fb *fallback.Engine,
	generator *synthesis.Generator,
	tl *trainlog.Logger,
	logger *log.Logger,
) *Orchestrator {
	return &Orchestrator{
		sessions:  sessions,
		planner:   p,
		registry:  registry,
		cache:     cache,
		fallback:  fb,
		generator: generator,
		trainlog:  tl,
		logger:    logger,
	}
}

// Answer processes one user query inside its session. Concurrent calls on
// the same session id serialize on the per-session lock.
func (o *Orchestrator) Answer(ctx context.Context, query, sessionID string) *Answer {
	started := time.Now()

	lock := o.sessions.Lock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	sess := o.sessions.LoadOrCreate(ctx, sessionID)
	resolvedQuery := o.sessions.ResolvePronouns(query, sess)
	history := o.sessions.History(sess)

	entry := trainlog.Entry{
		SessionID:     sessionID,
		Query:         resolvedQuery,
		ExecutionMode: modePlanned,
	}

	plan, err := o.planner.Plan(ctx, resolvedQuery, sess, history)
	if err != nil {
		o.logger.Printf("[ENGINE] planning failed for session %s: %v", sessionID, err)
		entry.Outcome = trainlog.OutcomePlannerFailure
		entry.ErrorMessage = err.Error()
		entry.FinalAnswer = llm.ErrorAnswer
		o.finishTurn(ctx, sess, query, llm.ErrorAnswer, entry, started)
		return &Answer{Answer: llm.ErrorAnswer}
	}
	entry.ToolName = plan.ToolName
	entry.Parameters = plan.Parameters
	entry.AnalystMode = plan.Reasoning

	result := o.executeTool(ctx, plan, &entry)
	o.rememberPeople(sess, result)

	if result.Status != tools.StatusSuccess {
		if rescued := o.fallback.Search(ctx, resolvedQuery); len(rescued) > 0 {
			o.logger.Printf("[ENGINE] fallback rescued %d documents for session %s", len(rescued), sessionID)
			result = &tools.Result{Status: tools.StatusSuccess, Documents: rescued}
			entry.ExecutionMode = modeFallback
			entry.Outcome = trainlog.OutcomeFallback
		}
	}

	answer := o.synthesize(ctx, resolvedQuery, result, history)

	if entry.Outcome == "" {
		switch result.Status {
		case tools.StatusSuccess:
			entry.Outcome = trainlog.OutcomeSuccess
		case tools.StatusEmpty:
			entry.Outcome = trainlog.OutcomeEmpty
		default:
			entry.Outcome = trainlog.OutcomeError
			entry.ErrorMessage = result.Note
		}
	}
	entry.ResultsCount = len(result.Documents)
	entry.FinalAnswer = answer

	o.finishTurn(ctx, sess, query, answer, entry, started)

	return &Answer{Answer: answer, Evidence: result.Documents}
}

// executeTool consults the result cache before running the planned tool
// and repopulates it afterwards.
func (o *Orchestrator) executeTool(ctx context.Context, plan *planner.ToolCall, entry *trainlog.Entry) *tools.Result {
	if cached := o.cache.Get(ctx, plan.ToolName, plan.Parameters); cached != nil {
		o.logger.Printf("[ENGINE] cache hit for %s", plan.ToolName)
		entry.ExecutionMode = modeCached
		return cached
	}

	result := o.registry.Execute(ctx, plan.ToolName, plan.Parameters)
	o.cache.Set(ctx, plan.ToolName, plan.Parameters, result, o.registry.CacheTTL(plan.ToolName))
	return result
}

func (o *Orchestrator) synthesize(ctx context.Context, query string, result *tools.Result, history []llm.Message) string {
	// A tool that already produced a focused answer short-circuits the
	// general synthesis pass.
	if result.FocusedAnswer != "" {
		return result.FocusedAnswer
	}
	return o.generator.Generate(ctx, query, result.Status, result.Note, result.Documents, history)
}

// rememberPeople records the canonical names the executed tool resolved.
// Planner parameters are deliberately ignored here: a failed resolution
// must not plant a phantom name into pronoun resolution.
func (o *Orchestrator) rememberPeople(sess *store.Session, result *tools.Result) {
	for _, name := range result.ResolvedPeople {
		o.sessions.RememberEntity(sess, name)
	}
}

// finishTurn updates history, merges the turn into the rolling context and
// records the training outcome before the turn returns, so consecutive
// turns on one session always summarize in exchange order.
func (o *Orchestrator) finishTurn(ctx context.Context, sess *store.Session, userTurn, assistantTurn string, entry trainlog.Entry, started time.Time) {
	o.sessions.UpdateHistory(ctx, sess, userTurn, assistantTurn)
	o.sessions.Summarize(ctx, sess, userTurn, assistantTurn)

	entry.ExecutionMs = time.Since(started).Milliseconds()
	o.trainlog.Record(ctx, entry)
}
