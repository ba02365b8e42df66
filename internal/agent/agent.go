// Package agent implements the extraction-agent framework: a pluggable LLM
// backend contract, a retry helper, and the confidence-tagged output
// envelope every concrete agent returns. Each agent (Event Scout, Result
// Harvester, List Normalizer, Balance Watcher, Duplicate Detector, Fact
// Checker) is its own file with its own prompt, request/response shapes,
// and Execute method.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dabbslondon/tourney-tracker/internal/models"
)

// Sentinel errors. Only the first three are retryable by WithRetry.
var (
	ErrBackendUnavailable = errors.New("agent: backend unavailable")
	ErrTimeout            = errors.New("agent: timed out")
	ErrRateLimited        = errors.New("agent: rate limited")
	ErrResponseParse      = errors.New("agent: response unparseable")
	ErrExtractionRefused  = errors.New("agent: extraction refused")
)

// RetryPolicy controls WithRetry's backoff.
type RetryPolicy struct {
	MaxRetries        uint32
	InitialDelay      time.Duration
	BackoffMultiplier float64
}

// DefaultRetryPolicy matches every concrete agent's default: 3 retries,
// starting at 1s, doubling each attempt.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, InitialDelay: time.Second, BackoffMultiplier: 2.0}
}

// WithRetry calls fn, retrying with exponential backoff only on errors
// wrapping ErrBackendUnavailable, ErrTimeout, or ErrRateLimited. It never
// retries ErrResponseParse, ErrExtractionRefused, or any other error, and it
// honors ctx cancellation between attempts.
func WithRetry(ctx context.Context, policy RetryPolicy, fn func() error) error {
	delay := policy.InitialDelay
	var lastErr error
	for attempt := uint32(0); attempt <= policy.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isRetryable(err) {
			return err
		}
		if attempt == policy.MaxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay = time.Duration(float64(delay) * policy.BackoffMultiplier)
	}
	return lastErr
}

func isRetryable(err error) bool {
	return errors.Is(err, ErrBackendUnavailable) || errors.Is(err, ErrTimeout) || errors.Is(err, ErrRateLimited)
}

// AgentOutput wraps extracted data with the agent's confidence in it and any
// notes explaining gaps or assumptions.
type AgentOutput[T any] struct {
	Data       T
	Confidence models.Confidence
	Notes      []string
}

// NewAgentOutput builds an AgentOutput with no notes.
func NewAgentOutput[T any](data T, confidence models.Confidence) AgentOutput[T] {
	return AgentOutput[T]{Data: data, Confidence: confidence}
}

// WithNotes attaches extraction notes and returns the updated output.
func (o AgentOutput[T]) WithNotes(notes ...string) AgentOutput[T] {
	o.Notes = notes
	return o
}

// ChatMessage is one turn in a chat completion request.
type ChatMessage struct {
	Role    string
	Content string
}

// SystemMessage builds a system-role message.
func SystemMessage(content string) ChatMessage { return ChatMessage{Role: "system", Content: content} }

// UserMessage builds a user-role message.
func UserMessage(content string) ChatMessage { return ChatMessage{Role: "user", Content: content} }

// ChatRequest is one call to a Backend.
type ChatRequest struct {
	Messages []ChatMessage
	JSONMode bool
}

// NewChatRequest builds a ChatRequest from the given messages.
func NewChatRequest(messages ...ChatMessage) ChatRequest {
	return ChatRequest{Messages: messages}
}

// WithJSONMode requests structured-output mode from the backend, when it
// supports one.
func (r ChatRequest) WithJSONMode() ChatRequest {
	r.JSONMode = true
	return r
}

// ChatResponse is a backend's reply to a ChatRequest.
type ChatResponse struct {
	Content string
}

// Backend is the one truly polymorphic seam in the agent framework: every
// concrete agent is parameterized over a Backend rather than sharing a
// generic Agent interface, since Go's interfaces cannot usefully carry type
// parameters on their methods.
type Backend interface {
	Chat(ctx context.Context, req ChatRequest) (ChatResponse, error)
	HealthCheck(ctx context.Context) bool
	Name() string
}

// ExtractJSON trims a raw LLM response down to its first balanced top-level
// JSON value (object or array), tolerating leading/trailing prose the model
// may have added despite JSON-mode instructions.
func ExtractJSON(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	start := -1
	var openChar, closeChar byte
	for i := 0; i < len(trimmed); i++ {
		switch trimmed[i] {
		case '{':
			start, openChar, closeChar = i, '{', '}'
		case '[':
			start, openChar, closeChar = i, '[', ']'
		}
		if start >= 0 {
			break
		}
	}
	if start < 0 {
		return "", fmt.Errorf("%w: no JSON object or array found", ErrResponseParse)
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(trimmed); i++ {
		c := trimmed[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case openChar:
			depth++
		case closeChar:
			depth--
			if depth == 0 {
				return trimmed[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("%w: unbalanced JSON in response", ErrResponseParse)
}
