package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dabbslondon/tourney-tracker/internal/models"
)

// EventStub is a tournament discovered in coverage, before full extraction.
type EventStub struct {
	Name            string
	Date            *time.Time
	Location        string
	PlayerCount     *int
	RoundCount      *int
	EventType       string
	ArticleSection  string
}

// EventScoutInput is one article to scan for tournament mentions.
type EventScoutInput struct {
	ArticleHTML string
	ArticleURL  string
	ArticleDate time.Time
}

// EventScoutOutput is every event stub found in the article.
type EventScoutOutput struct {
	Events []AgentOutput[EventStub]
}

type extractedEvent struct {
	Name           string  `json:"name"`
	Date           *string `json:"date"`
	Location       *string `json:"location"`
	PlayerCount    *int    `json:"player_count"`
	RoundCount     *int    `json:"round_count"`
	EventType      *string `json:"event_type"`
	ArticleSection *string `json:"article_section"`
	Confidence     string  `json:"confidence"`
}

type eventScoutResponse struct {
	Events []extractedEvent `json:"events"`
}

const eventScoutSystemPrompt = `You are extracting tournament information from a Goonhammer Competitive Innovations article.

For each tournament mentioned, extract:
- name: Exact event name as written
- date: Event date in YYYY-MM-DD format (null if not found, NOT the article date)
- location: City, country if available (e.g., "London, UK")
- player_count: Number of players as integer
- round_count: Number of rounds as integer
- event_type: "GT", "Major", "RTT", "Open", etc. (null if unclear)
- article_section: Which section of article covers this event (for tracking)
- confidence: "high", "medium", or "low"

Return JSON in this exact format:
{"events": [{"name": "London GT 2025", "date": "2025-06-15", "location": "London, UK", "player_count": 96, "round_count": 5, "event_type": "GT", "article_section": "London GT Results", "confidence": "high"}]}

If no events found, return: {"events": []}

IMPORTANT:
- Do NOT confuse article publication date with event date
- Only extract events clearly mentioned with results
- Use null for any field not explicitly stated
- Do NOT invent player counts or locations
- Set confidence to "low" for uncertain extractions`

// EventScoutAgent discovers tournament events from article coverage.
type EventScoutAgent struct {
	backend Backend
}

// NewEventScoutAgent builds an EventScoutAgent.
func NewEventScoutAgent(backend Backend) *EventScoutAgent {
	return &EventScoutAgent{backend: backend}
}

// Name implements the agent naming convention used for logging and metrics.
func (a *EventScoutAgent) Name() string { return "event_scout" }

// RetryPolicy returns this agent's retry policy.
func (a *EventScoutAgent) RetryPolicy() RetryPolicy { return DefaultRetryPolicy() }

func (a *EventScoutAgent) buildPrompt(input EventScoutInput) ChatRequest {
	user := fmt.Sprintf("Article date: %s\n\nArticle content:\n\n%s", input.ArticleDate.Format("2006-01-02"), input.ArticleHTML)
	return NewChatRequest(SystemMessage(eventScoutSystemPrompt), UserMessage(user)).WithJSONMode()
}

func (a *EventScoutAgent) parseResponse(raw string) ([]AgentOutput[EventStub], error) {
	body, err := ExtractJSON(raw)
	if err != nil {
		return nil, err
	}
	var parsed eventScoutResponse
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseParse, err)
	}

	results := make([]AgentOutput[EventStub], 0, len(parsed.Events))
	for _, e := range parsed.Events {
		stub := EventStub{Name: e.Name, PlayerCount: e.PlayerCount, RoundCount: e.RoundCount}
		if e.Location != nil {
			stub.Location = *e.Location
		}
		if e.EventType != nil {
			stub.EventType = *e.EventType
		}
		if e.ArticleSection != nil {
			stub.ArticleSection = *e.ArticleSection
		}
		if e.Date != nil {
			if t, err := time.Parse("2006-01-02", *e.Date); err == nil {
				stub.Date = &t
			}
		}

		confidence := confidenceFromString(e.Confidence)
		var notes []string
		if stub.Date == nil {
			notes = append(notes, "Event date not specified")
		}
		if stub.PlayerCount == nil {
			notes = append(notes, "Player count not found")
		}
		results = append(results, NewAgentOutput(stub, confidence).WithNotes(notes...))
	}
	return results, nil
}

// Execute runs the Event Scout over one article.
func (a *EventScoutAgent) Execute(ctx context.Context, input EventScoutInput) (EventScoutOutput, error) {
	req := a.buildPrompt(input)
	var events []AgentOutput[EventStub]
	err := WithRetry(ctx, a.RetryPolicy(), func() error {
		resp, err := a.backend.Chat(ctx, req)
		if err != nil {
			return err
		}
		events, err = a.parseResponse(resp.Content)
		return err
	})
	if err != nil {
		return EventScoutOutput{}, err
	}
	return EventScoutOutput{Events: events}, nil
}

func confidenceFromString(s string) models.Confidence {
	switch s {
	case "high":
		return models.ConfidenceHigh
	case "medium":
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}
