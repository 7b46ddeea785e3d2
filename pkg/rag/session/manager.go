package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"
	"sync"
	"time"

	"campus-qa-be/internal/repository/contract"
	"campus-qa-be/internal/repository/memory"
	"campus-qa-be/pkg/llm"
	"campus-qa-be/pkg/store"
)

const maxMentionedEntities = 5

// possessive pronouns get a trailing 's on substitution.
var pronounPattern = regexp.MustCompile(`(?i)\b(his|her|their|him|he|she)\b`)

var possessives = map[string]bool{"his": true, "her": true, "their": true}

// Manager owns per-session conversational state: the bounded history
// window, the rolling structured context and the mentioned-entity memory.
// The in-memory cache is a read-through/write-through mirror of the
// persisted record.
type Manager struct {
	cache           *memory.SessionCache
	repo            contract.SessionRepository
	client          *llm.Client
	maxHistoryTurns int
	logger          *log.Logger
}

func NewManager(cache *memory.SessionCache, repo contract.SessionRepository, client *llm.Client, maxHistoryTurns int, logger *log.Logger) *Manager {
	if maxHistoryTurns <= 0 {
		maxHistoryTurns = 5
	}
	return &Manager{
		cache:           cache,
		repo:            repo,
		client:          client,
		maxHistoryTurns: maxHistoryTurns,
		logger:          logger,
	}
}

// Lock returns the per-session mutex; the orchestrator holds it for a
// whole turn so concurrent requests on one session id serialize.
func (m *Manager) Lock(sessionID string) *sync.Mutex {
	return m.cache.Lock(sessionID)
}

// LoadOrCreate returns the cached session, falls back to the durable
// store, and creates an empty session for a wholly new id. Store failures
// degrade to a fresh session rather than failing the turn.
func (m *Manager) LoadOrCreate(ctx context.Context, sessionID string) *store.Session {
	if session, found := m.cache.Get(sessionID); found {
		return session
	}

	session, err := m.repo.FindByID(ctx, sessionID)
	if err != nil {
		m.logger.Printf("[SESSION] load failed for %s, starting fresh: %v", sessionID, err)
	}
	if session == nil {
		session = store.NewSession(sessionID)
	}
	m.cache.Save(session)
	return session
}

// UpdateHistory appends both turns, trims to the sliding window and
// persists the full session object.
func (m *Manager) UpdateHistory(ctx context.Context, session *store.Session, userTurn, assistantTurn string) {
	session.ChatHistory = append(session.ChatHistory,
		store.ChatTurn{Role: "user", Content: userTurn},
		store.ChatTurn{Role: "assistant", Content: assistantTurn},
	)

	limit := 2 * m.maxHistoryTurns
	if len(session.ChatHistory) > limit {
		session.ChatHistory = session.ChatHistory[len(session.ChatHistory)-limit:]
	}
	session.UpdatedAt = time.Now().UTC()

	m.cache.Save(session)
	if err := m.repo.Upsert(ctx, session); err != nil {
		m.logger.Printf("[SESSION] persist failed for %s: %v", session.SessionID, err)
	}
}

// RememberEntity records a resolved entity name: max 5 entries, most
// recent last; a re-mention moves the entry to the end without duplicating.
func (m *Manager) RememberEntity(session *store.Session, name string) {
	if name == "" {
		return
	}
	entities := session.StructuredContext.MentionedEntities
	kept := entities[:0:0]
	for _, e := range entities {
		if !strings.EqualFold(e, name) {
			kept = append(kept, e)
		}
	}
	kept = append(kept, name)
	if len(kept) > maxMentionedEntities {
		kept = kept[len(kept)-maxMentionedEntities:]
	}
	session.StructuredContext.MentionedEntities = kept
}

// ResolvePronouns substitutes the most recently mentioned entity for bare
// pronouns before planning; possessives get a trailing 's.
func (m *Manager) ResolvePronouns(query string, session *store.Session) string {
	entities := session.StructuredContext.MentionedEntities
	if len(entities) == 0 {
		return query
	}
	recent := entities[len(entities)-1]

	resolved := pronounPattern.ReplaceAllStringFunc(query, func(match string) string {
		if possessives[strings.ToLower(match)] {
			return recent + "'s"
		}
		return recent
	})

	if resolved != query {
		m.logger.Printf("[SESSION] pronoun resolution: %q -> %q", query, resolved)
	}
	return resolved
}

// Summarize asks the planning model to merge the previous structured
// context with the latest exchange. The stored context is replaced
// wholesale on success and left unchanged on parse failure.
func (m *Manager) Summarize(ctx context.Context, session *store.Session, userTurn, assistantTurn string) {
	previous, err := json.Marshal(session.StructuredContext)
	if err != nil {
		m.logger.Printf("[SESSION] marshal context failed: %v", err)
		return
	}

	var prompt strings.Builder
	prompt.WriteString("<previous_context>\n")
	prompt.Write(previous)
	prompt.WriteString("\n</previous_context>\n\n")
	prompt.WriteString("<latest_exchange>\n")
	prompt.WriteString(fmt.Sprintf("User: %s\nAssistant: %s\n", truncate(userTurn, 300), truncate(assistantTurn, 300)))
	prompt.WriteString("</latest_exchange>\n\n")
	prompt.WriteString("Merge the previous context with the latest exchange into an updated context.\n")
	prompt.WriteString("Respond with ONLY valid JSON:\n")
	prompt.WriteString("{\n")
	prompt.WriteString("  \"current_topic\": \"one short sentence describing what the conversation is about now\",\n")
	prompt.WriteString("  \"active_filters\": {\"field\": \"value\"},\n")
	prompt.WriteString("  \"mentioned_entities\": [\"names of people discussed, oldest first\"]\n")
	prompt.WriteString("}\n")

	response := m.client.Execute(ctx, llm.Request{
		SystemPrompt: "You maintain a compact running summary of a conversation. Output only JSON.",
		UserPrompt:   prompt.String(),
		JSONMode:     true,
		Phase:        llm.PhasePlanning,
	})
	if response == llm.ErrorAnswer {
		return
	}

	var updated store.StructuredContext
	if err := json.Unmarshal([]byte(extractJSON(response)), &updated); err != nil {
		m.logger.Printf("[SESSION] context summary parse failed, keeping previous: %v", err)
		return
	}

	if updated.ActiveFilters == nil {
		updated.ActiveFilters = map[string]interface{}{}
	}
	if len(updated.MentionedEntities) > maxMentionedEntities {
		updated.MentionedEntities = updated.MentionedEntities[len(updated.MentionedEntities)-maxMentionedEntities:]
	}
	session.StructuredContext = updated
	session.ConversationSummary = updated.CurrentTopic
	m.cache.Save(session)
	if err := m.repo.Upsert(ctx, session); err != nil {
		m.logger.Printf("[SESSION] persist after summarize failed for %s: %v", session.SessionID, err)
	}
}

// History converts the session window into provider messages.
func (m *Manager) History(session *store.Session) []llm.Message {
	history := make([]llm.Message, 0, len(session.ChatHistory))
	for _, turn := range session.ChatHistory {
		history = append(history, llm.Message{Role: turn.Role, Content: turn.Content})
	}
	return history
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func extractJSON(response string) string {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end == -1 || end <= start {
		return response
	}
	return response[start : end+1]
}
