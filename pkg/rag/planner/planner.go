package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"campus-qa-be/pkg/llm"
	"campus-qa-be/pkg/schema"
	"campus-qa-be/pkg/store"
)

// ToolCall is the planner's validated decision: which tool to run and
// with which loose parameters.
type ToolCall struct {
	ToolName   string                 `json:"tool_name"`
	Parameters map[string]interface{} `json:"parameters"`
	Reasoning  string                 `json:"reasoning,omitempty"`
}

// Catalog is the slice of the tool registry the planner needs: the
// rendered tool list and a membership check.
type Catalog interface {
	Describe() string
	Has(name string) bool
}

// Planner turns a user query plus conversational context into a ToolCall
// via a JSON-mode planning call.
type Planner struct {
	client      *llm.Client
	catalog     Catalog
	schema      *schema.Schema
	logger      *log.Logger
	maxAttempts int
	retryDelay  time.Duration
}

func NewPlanner(client *llm.Client, catalog Catalog, sch *schema.Schema, logger *log.Logger) *Planner {
	return &Planner{
		client:      client,
		catalog:     catalog,
		schema:      sch,
		logger:      logger,
		maxAttempts: 3,
		retryDelay:  500 * time.Millisecond,
	}
}

// Plan returns a validated tool call or an error after all attempts are
// spent. The caller treats an error as a planner failure, not a crash.
func (p *Planner) Plan(ctx context.Context, query string, session *store.Session, history []llm.Message) (*ToolCall, error) {
	prompt := p.buildPrompt(query, session)

	var lastErr error
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		response := p.client.Execute(ctx, llm.Request{
			SystemPrompt: systemPrompt,
			UserPrompt:   prompt,
			History:      history,
			JSONMode:     true,
			Phase:        llm.PhasePlanning,
		})
		if response == llm.ErrorAnswer {
			lastErr = fmt.Errorf("planning model unavailable")
		} else if call, err := p.parse(response); err != nil {
			lastErr = err
			p.logger.Printf("[PLANNER] attempt %d rejected: %v", attempt, err)
		} else {
			p.logger.Printf("[PLANNER] selected %s %v", call.ToolName, call.Parameters)
			return call, nil
		}

		if attempt < p.maxAttempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(p.retryDelay):
			}
		}
	}
	return nil, fmt.Errorf("planning failed after %d attempts: %w", p.maxAttempts, lastErr)
}

const systemPrompt = "You are a query planner for a school records assistant. " +
	"You never answer questions yourself; you only pick one tool and its parameters. " +
	"Respond with ONLY a valid JSON object."

func (p *Planner) buildPrompt(query string, session *store.Session) string {
	var b strings.Builder

	b.WriteString("<database_schema>\n")
	b.WriteString(p.schema.Summary)
	b.WriteString("</database_schema>\n\n")

	if vocab := p.schema.VocabularySummary(); vocab != "" {
		b.WriteString("<known_filter_values>\n")
		b.WriteString(vocab)
		b.WriteString("</known_filter_values>\n\n")
	}

	if session != nil {
		if contextJSON, err := json.Marshal(session.StructuredContext); err == nil {
			b.WriteString("<conversation_context>\n")
			b.Write(contextJSON)
			b.WriteString("\n</conversation_context>\n\n")
		}
	}

	b.WriteString("<available_tools>\n")
	b.WriteString(p.catalog.Describe())
	b.WriteString("</available_tools>\n\n")

	b.WriteString("<question>\n")
	b.WriteString(query)
	b.WriteString("\n</question>\n\n")

	b.WriteString("Pick the single best tool for the question. Use the conversation context\n")
	b.WriteString("to fill parameters the question leaves implicit. For greetings or small\n")
	b.WriteString("talk pick \"conversational\". Respond with ONLY:\n")
	b.WriteString("{\"tool_name\": \"...\", \"parameters\": {...}, \"reasoning\": \"one short sentence\"}\n")

	return b.String()
}

// parse extracts the first JSON object from the raw response and validates
// the tool name against the catalog.
func (p *Planner) parse(response string) (*ToolCall, error) {
	cleaned := extractJSON(response)

	var call ToolCall
	if err := json.Unmarshal([]byte(cleaned), &call); err != nil {
		return nil, fmt.Errorf("malformed plan JSON: %w", err)
	}
	call.ToolName = strings.TrimSpace(call.ToolName)
	if call.ToolName == "" {
		return nil, fmt.Errorf("plan is missing tool_name")
	}
	if !p.catalog.Has(call.ToolName) {
		return nil, fmt.Errorf("plan names unknown tool %q", call.ToolName)
	}
	if call.Parameters == nil {
		call.Parameters = map[string]interface{}{}
	}
	return &call, nil
}

// extractJSON strips code fences and returns the outermost object.
func extractJSON(response string) string {
	cleaned := strings.ReplaceAll(response, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end == -1 || end <= start {
		return cleaned
	}
	return cleaned[start : end+1]
}
