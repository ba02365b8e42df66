package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dabbslondon/tourney-tracker/internal/models"
)

// BalanceWatcherInput is one Warhammer Community page to scan for balance
// updates or edition releases.
type BalanceWatcherInput struct {
	HTMLContent   string
	SourceURL     string
	KnownEventIDs []string
}

// BalanceWatcherOutput is the newly discovered balance updates, plus any
// PDF URLs found for separate download.
type BalanceWatcherOutput struct {
	Events  []AgentOutput[models.SignificantEvent]
	PDFURLs []string
}

type extractedBalanceUpdate struct {
	Title      string  `json:"title"`
	Date       *string `json:"date"`
	EventType  string  `json:"event_type"`
	PDFURL     *string `json:"pdf_url"`
	Summary    *string `json:"summary"`
	Confidence string  `json:"confidence"`
}

type balanceWatcherResponse struct {
	Updates []extractedBalanceUpdate `json:"updates"`
}

const balanceWatcherSystemPrompt = `You are analyzing a Warhammer Community webpage for balance updates and edition releases.

Look for:
1. "Balance Dataslate" announcements with PDF links
2. Edition release announcements (e.g., "10th Edition", "Index Update")
3. Major FAQ updates that affect competitive play

For each found, extract:
- title: Exact title as shown on page
- date: Publication date in YYYY-MM-DD format (null if not found)
- event_type: "balance_update" or "edition_release"
- pdf_url: Full URL to PDF download (null if not available)
- summary: Brief summary of key changes (null if unclear)
- confidence: "high", "medium", or "low"

Return JSON in this exact format:
{"updates": [{"title": "Balance Dataslate Spring 2025", "date": "2025-03-15", "event_type": "balance_update", "pdf_url": "https://...", "summary": "Major changes to...", "confidence": "high"}]}

If no updates found, return: {"updates": []}

IMPORTANT:
- Only extract information clearly present on the page
- Do NOT invent or guess information
- Set confidence to "low" for any uncertain fields
- Include null for missing optional fields`

// BalanceWatcherAgent monitors coverage for balance updates and edition
// releases that open a new meta-epoch.
type BalanceWatcherAgent struct {
	backend Backend
}

// NewBalanceWatcherAgent builds a BalanceWatcherAgent.
func NewBalanceWatcherAgent(backend Backend) *BalanceWatcherAgent {
	return &BalanceWatcherAgent{backend: backend}
}

// Name implements the agent naming convention.
func (a *BalanceWatcherAgent) Name() string { return "balance_watcher" }

// RetryPolicy returns this agent's retry policy.
func (a *BalanceWatcherAgent) RetryPolicy() RetryPolicy { return DefaultRetryPolicy() }

func (a *BalanceWatcherAgent) buildPrompt(input BalanceWatcherInput) ChatRequest {
	user := fmt.Sprintf("Analyze this Warhammer Community page content for balance updates:\n\n%s", input.HTMLContent)
	return NewChatRequest(SystemMessage(balanceWatcherSystemPrompt), UserMessage(user)).WithJSONMode()
}

func normalizeEventType(raw string) string {
	switch strings.ToLower(raw) {
	case "balance_update", "dataslate", "balance":
		return "balance_update"
	case "edition_release", "edition", "new_edition":
		return "edition_release"
	default:
		return "balance_update"
	}
}

func (a *BalanceWatcherAgent) parseResponse(raw, sourceURL string) (BalanceWatcherOutput, error) {
	body, err := ExtractJSON(raw)
	if err != nil {
		return BalanceWatcherOutput{}, err
	}
	var parsed balanceWatcherResponse
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return BalanceWatcherOutput{}, fmt.Errorf("%w: %v", ErrResponseParse, err)
	}

	out := BalanceWatcherOutput{Events: make([]AgentOutput[models.SignificantEvent], 0, len(parsed.Updates))}
	for _, update := range parsed.Updates {
		eventType := normalizeEventType(update.EventType)

		date := time.Now().UTC()
		if update.Date != nil {
			if t, err := time.Parse("2006-01-02", *update.Date); err == nil {
				date = t
			}
		}

		event := models.NewSignificantEvent(eventType, date, update.Title, sourceURL)
		if update.PDFURL != nil {
			event.PDFURL = *update.PDFURL
			out.PDFURLs = append(out.PDFURLs, *update.PDFURL)
		}
		if update.Summary != nil {
			event.Summary = *update.Summary
		}

		var notes []string
		if update.Date == nil {
			notes = append(notes, "Date not found in source, using current date")
		}
		if update.PDFURL == nil {
			notes = append(notes, "No PDF URL found")
		}

		out.Events = append(out.Events, NewAgentOutput(event, confidenceFromString(update.Confidence)).WithNotes(notes...))
	}
	return out, nil
}

// Execute scans one page for balance updates.
func (a *BalanceWatcherAgent) Execute(ctx context.Context, input BalanceWatcherInput) (BalanceWatcherOutput, error) {
	req := a.buildPrompt(input)
	var out BalanceWatcherOutput
	err := WithRetry(ctx, a.RetryPolicy(), func() error {
		resp, err := a.backend.Chat(ctx, req)
		if err != nil {
			return err
		}
		out, err = a.parseResponse(resp.Content, input.SourceURL)
		return err
	})
	if err != nil {
		return BalanceWatcherOutput{}, err
	}
	return out, nil
}
