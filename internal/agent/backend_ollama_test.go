package agent

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dabbslondon/tourney-tracker/internal/config"
)

func TestOllamaBackendChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"message":{"role":"assistant","content":"{\"events\":[]}"},"done":true}`)
	}))
	defer srv.Close()

	backend := NewOllamaBackend(config.AiConfig{BaseURL: srv.URL, Model: "llama3.2", TimeoutSeconds: 5}, nil)
	resp, err := backend.Chat(context.Background(), NewChatRequest(SystemMessage("sys"), UserMessage("hi")).WithJSONMode())
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Content != `{"events":[]}` {
		t.Fatalf("unexpected content: %q", resp.Content)
	}
}

func TestOllamaBackendChatServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	backend := NewOllamaBackend(config.AiConfig{BaseURL: srv.URL, Model: "llama3.2", TimeoutSeconds: 5}, nil)
	_, err := backend.Chat(context.Background(), NewChatRequest(UserMessage("hi")))
	if err == nil {
		t.Fatal("expected an error for a 500 response")
	}
}

func TestOllamaBackendHealthCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"models":[]}`)
	}))
	defer srv.Close()

	backend := NewOllamaBackend(config.AiConfig{BaseURL: srv.URL, TimeoutSeconds: 5}, nil)
	if !backend.HealthCheck(context.Background()) {
		t.Fatal("expected health check to succeed")
	}
}
