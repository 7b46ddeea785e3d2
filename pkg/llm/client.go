package llm

import (
	"context"
	"log"
	"time"
)

// Phase selects which model configuration a request uses. Planning calls
// favor a small deterministic model, synthesis calls a larger one.
const (
	PhasePlanning  = "planning"
	PhaseSynthesis = "synthesis"
)

// ErrorAnswer is returned as the response text after every retry is
// exhausted. Callers treat it as data, not as a fault: a transport failure
// during synthesis degrades into a visible message instead of an exception.
const ErrorAnswer = "I'm having trouble reaching the language model right now. Please try again in a moment."

// PhaseConfig carries the per-phase overrides.
type PhaseConfig struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Request is the uniform envelope for one completion call.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	History      []Message
	JSONMode     bool
	Phase        string
}

// Client wraps a Provider with phase-aware model selection, per-call
// timeout and bounded retry with a fixed delay.
type Client struct {
	provider    Provider
	planning    PhaseConfig
	synthesis   PhaseConfig
	maxAttempts int
	retryDelay  time.Duration
	timeout     time.Duration
	logger      *log.Logger
}

func NewClient(provider Provider, planning, synthesis PhaseConfig, logger *log.Logger) *Client {
	return &Client{
		provider:    provider,
		planning:    planning,
		synthesis:   synthesis,
		maxAttempts: 3,
		retryDelay:  2 * time.Second,
		timeout:     90 * time.Second,
		logger:      logger,
	}
}

// Execute runs one completion call. It never returns an error: after the
// retry budget is spent it returns ErrorAnswer so the failure stays usable
// as a (degraded) answer string.
func (c *Client) Execute(ctx context.Context, req Request) string {
	phase := c.synthesis
	if req.Phase == PhasePlanning {
		phase = c.planning
	}

	history := make([]Message, 0, len(req.History)+2)
	if req.SystemPrompt != "" {
		history = append(history, Message{Role: "system", Content: req.SystemPrompt})
	}
	history = append(history, req.History...)
	history = append(history, Message{Role: "user", Content: req.UserPrompt})

	opts := []Option{WithTemperature(phase.Temperature)}
	if phase.Model != "" {
		opts = append(opts, WithModel(phase.Model))
	}
	if phase.MaxTokens > 0 {
		opts = append(opts, WithMaxTokens(phase.MaxTokens))
	}
	if req.JSONMode {
		opts = append(opts, WithJSONMode())
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		response, err := c.provider.Chat(callCtx, history, opts...)
		cancel()

		if err == nil {
			return response
		}
		lastErr = err
		c.logger.Printf("[LLM] %s call attempt %d/%d failed: %v", req.Phase, attempt, c.maxAttempts, err)

		if attempt < c.maxAttempts {
			select {
			case <-time.After(c.retryDelay):
			case <-ctx.Done():
				return ErrorAnswer
			}
		}
	}

	c.logger.Printf("[LLM] %s call gave up after %d attempts: %v", req.Phase, c.maxAttempts, lastErr)
	return ErrorAnswer
}
