package trainlog

import (
	"context"
	"encoding/json"
	"log"

	"campus-qa-be/internal/model"
	"campus-qa-be/internal/repository/contract"
	"campus-qa-be/pkg/events"
	"campus-qa-be/pkg/nats"
)

// Outcome labels recorded per answered query.
const (
	OutcomeSuccess        = "success"
	OutcomeEmpty          = "empty"
	OutcomeFallback       = "fallback"
	OutcomePlannerFailure = "planner_failure"
	OutcomeError          = "error"
)

// Entry is one completed query turn, ready for the training log.
type Entry struct {
	SessionID     string
	Query         string
	ToolName      string
	Parameters    map[string]interface{}
	Outcome       string
	AnalystMode   string // planner's reasoning note, when present
	ExecutionMode string // planned | cached | fallback
	ResultsCount  int
	ExecutionMs   int64
	FinalAnswer   string
	ErrorMessage  string
}

// Logger appends training records and mirrors each one onto the event
// bus. Both sinks are best-effort: a logging failure never affects the
// answer already produced.
type Logger struct {
	repo      contract.TrainingRepository
	publisher *nats.Publisher
	logger    *log.Logger
}

func NewLogger(repo contract.TrainingRepository, publisher *nats.Publisher, logger *log.Logger) *Logger {
	return &Logger{repo: repo, publisher: publisher, logger: logger}
}

// Record persists the entry and publishes the mirror event.
func (l *Logger) Record(ctx context.Context, entry Entry) {
	if l == nil {
		return
	}

	toolCall, err := json.Marshal(map[string]interface{}{
		"tool_name":  entry.ToolName,
		"parameters": entry.Parameters,
	})
	if err != nil {
		l.logger.Printf("[TRAINLOG] marshal tool call failed: %v", err)
		toolCall = []byte("{}")
	}

	if l.repo != nil {
		record := &model.TrainingRecord{
			SessionID:     entry.SessionID,
			Query:         entry.Query,
			ToolCall:      toolCall,
			Outcome:       entry.Outcome,
			AnalystMode:   entry.AnalystMode,
			ExecutionMode: entry.ExecutionMode,
			ResultsCount:  entry.ResultsCount,
			ExecutionMs:   entry.ExecutionMs,
			FinalAnswer:   entry.FinalAnswer,
			ErrorMessage:  entry.ErrorMessage,
		}
		if err := l.repo.Append(ctx, record); err != nil {
			l.logger.Printf("[TRAINLOG] append failed: %v", err)
		}
	}

	if l.publisher != nil {
		event := events.QueryAnswered(entry.SessionID, entry.Query, entry.ToolName, entry.Outcome, entry.ExecutionMs)
		if err := l.publisher.Publish(ctx, event); err != nil {
			l.logger.Printf("[TRAINLOG] publish failed: %v", err)
		}
	}
}
