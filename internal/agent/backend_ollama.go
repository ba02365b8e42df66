package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dabbslondon/tourney-tracker/internal/config"
)

// OllamaBackend talks to a local Ollama server's chat completion API. No
// third-party Ollama client surfaced in the example pack exercised the chat
// endpoint directly, so this is a small hand-rolled net/http client against
// Ollama's documented REST contract.
type OllamaBackend struct {
	httpClient *http.Client
	baseURL    string
	model      string
	logger     *zap.SugaredLogger
}

// NewOllamaBackend builds a Backend from an AiConfig.
func NewOllamaBackend(cfg config.AiConfig, logger *zap.SugaredLogger) *OllamaBackend {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &OllamaBackend{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		model:      cfg.Model,
		logger:     logger,
	}
}

type ollamaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
	Format   string              `json:"format,omitempty"`
}

type ollamaChatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done bool `json:"done"`
}

// Chat implements Backend.
func (b *OllamaBackend) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	messages := make([]ollamaChatMessage, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = ollamaChatMessage{Role: m.Role, Content: m.Content}
	}
	body := ollamaChatRequest{Model: b.model, Messages: messages, Stream: false}
	if req.JSONMode {
		body.Format = "json"
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return ChatResponse{}, fmt.Errorf("agent: marshaling ollama request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return ChatResponse{}, fmt.Errorf("agent: building ollama request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return ChatResponse{}, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return ChatResponse{}, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return ChatResponse{}, fmt.Errorf("%w: ollama returned 429", ErrRateLimited)
	}
	if resp.StatusCode >= 500 {
		return ChatResponse{}, fmt.Errorf("%w: ollama returned %d", ErrBackendUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return ChatResponse{}, fmt.Errorf("agent: ollama returned %d: %s", resp.StatusCode, respBody)
	}

	var parsed ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return ChatResponse{}, fmt.Errorf("agent: decoding ollama response: %w", err)
	}
	return ChatResponse{Content: parsed.Message.Content}, nil
}

// HealthCheck implements Backend by hitting Ollama's tag-listing endpoint.
func (b *OllamaBackend) HealthCheck(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Name implements Backend.
func (b *OllamaBackend) Name() string { return "ollama" }
