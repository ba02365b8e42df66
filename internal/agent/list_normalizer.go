package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dabbslondon/tourney-tracker/internal/models"
)

// ListNormalizerInput is a raw army-list text to bring into structured form.
type ListNormalizerInput struct {
	RawText     string
	FactionHint string
	PlayerName  string
}

// NormalizedArmyList is the structured intermediate form before it becomes a
// models.ArmyList.
type NormalizedArmyList struct {
	Faction     string
	Subfaction  string
	Detachment  string
	TotalPoints int
	Units       []models.Unit
	RawText     string
}

// ListNormalizerOutput wraps the normalized list with its confidence.
type ListNormalizerOutput struct {
	List AgentOutput[NormalizedArmyList]
}

type extractedUnit struct {
	Name       string   `json:"name"`
	ModelCount *int     `json:"model_count"`
	Points     *int     `json:"points"`
	Wargear    []string `json:"wargear"`
	Keywords   []string `json:"keywords"`
}

type extractedList struct {
	Faction     string          `json:"faction"`
	Subfaction  *string         `json:"subfaction"`
	Detachment  *string         `json:"detachment"`
	TotalPoints *int            `json:"total_points"`
	Units       []extractedUnit `json:"units"`
	Confidence  string          `json:"confidence"`
	Notes       []string        `json:"notes"`
}

type listNormalizerResponse struct {
	List extractedList `json:"list"`
}

const listNormalizerSystemPrompt = `You are normalizing a Warhammer 40,000 army list into a structured format.

Given raw list text, extract:
- faction: Main faction (canonical GW name)
- subfaction: Subfaction if applicable (Chapter, Craftworld, etc.)
- detachment: Detachment name
- total_points: Total army points
- units: Array of units with name, model_count (default 1), points, wargear, keywords
- confidence: "high", "medium", or "low"
- notes: Array of any issues or uncertainties

Handle various list formats: Battlescribe exports, New Recruit exports,
official app exports, plain text lists, abbreviated/shorthand notation.

Return JSON in this exact format:
{"list": {"faction": "Aeldari", "subfaction": "Craftworld Ulthwe", "detachment": "Battle Host", "total_points": 2000, "units": [{"name": "Avatar of Khaine", "model_count": 1, "points": 335, "wargear": ["Wailing Doom"], "keywords": ["Epic Hero", "Monster"]}], "confidence": "high", "notes": []}}

IMPORTANT:
- Use canonical Games Workshop unit names
- If a unit name is unclear, include as-is with confidence "low"
- Do NOT add units not mentioned in the source text
- Sum points if total not explicitly stated
- Note any parsing issues in the notes array`

// ListNormalizerAgent converts raw army-list text to canonical structured
// form.
type ListNormalizerAgent struct {
	backend Backend
}

// NewListNormalizerAgent builds a ListNormalizerAgent.
func NewListNormalizerAgent(backend Backend) *ListNormalizerAgent {
	return &ListNormalizerAgent{backend: backend}
}

// Name implements the agent naming convention.
func (a *ListNormalizerAgent) Name() string { return "list_normalizer" }

// RetryPolicy returns this agent's retry policy.
func (a *ListNormalizerAgent) RetryPolicy() RetryPolicy { return DefaultRetryPolicy() }

func (a *ListNormalizerAgent) buildPrompt(input ListNormalizerInput) ChatRequest {
	hint := ""
	if input.FactionHint != "" {
		hint = fmt.Sprintf("\nFaction hint: %s", input.FactionHint)
	}
	user := fmt.Sprintf("%sRaw army list:\n\n%s", hint, input.RawText)
	return NewChatRequest(SystemMessage(listNormalizerSystemPrompt), UserMessage(user)).WithJSONMode()
}

func (a *ListNormalizerAgent) parseResponse(raw, rawText string) (AgentOutput[NormalizedArmyList], error) {
	body, err := ExtractJSON(raw)
	if err != nil {
		return AgentOutput[NormalizedArmyList]{}, err
	}
	var parsed listNormalizerResponse
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return AgentOutput[NormalizedArmyList]{}, fmt.Errorf("%w: %v", ErrResponseParse, err)
	}

	extracted := parsed.List
	units := make([]models.Unit, len(extracted.Units))
	pointsSum := 0
	for i, u := range extracted.Units {
		modelCount := 1
		if u.ModelCount != nil {
			modelCount = *u.ModelCount
		}
		points := 0
		if u.Points != nil {
			points = *u.Points
		}
		pointsSum += points
		units[i] = models.Unit{Name: u.Name, ModelCount: modelCount, Points: points, Wargear: u.Wargear, Keywords: u.Keywords}
	}

	totalPoints := pointsSum
	if extracted.TotalPoints != nil {
		totalPoints = *extracted.TotalPoints
	}

	list := NormalizedArmyList{
		Faction:     extracted.Faction,
		TotalPoints: totalPoints,
		Units:       units,
		RawText:     rawText,
	}
	if extracted.Subfaction != nil {
		list.Subfaction = *extracted.Subfaction
	}
	if extracted.Detachment != nil {
		list.Detachment = *extracted.Detachment
	}

	return NewAgentOutput(list, confidenceFromString(extracted.Confidence)).WithNotes(extracted.Notes...), nil
}

// Execute normalizes one raw army list.
func (a *ListNormalizerAgent) Execute(ctx context.Context, input ListNormalizerInput) (ListNormalizerOutput, error) {
	req := a.buildPrompt(input)
	var list AgentOutput[NormalizedArmyList]
	err := WithRetry(ctx, a.RetryPolicy(), func() error {
		resp, err := a.backend.Chat(ctx, req)
		if err != nil {
			return err
		}
		list, err = a.parseResponse(resp.Content, input.RawText)
		return err
	})
	if err != nil {
		return ListNormalizerOutput{}, err
	}
	return ListNormalizerOutput{List: list}, nil
}
