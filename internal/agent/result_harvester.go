package agent

import (
	"context"
	"encoding/json"
	"fmt"
)

// WinLossRecord is a player's win/loss/draw tally.
type WinLossRecord struct {
	Wins   int
	Losses int
	Draws  int
}

// PlacementStub is a placement before normalization against the faction
// taxonomy.
type PlacementStub struct {
	Rank         int
	PlayerName   string
	Faction      string
	Subfaction   string
	Detachment   string
	Record       *WinLossRecord
	BattlePoints *int
}

// RawListText is an army list's raw text, keyed to the placement it belongs
// to for later list-normalizer input.
type RawListText struct {
	PlacementRank int
	PlayerName    string
	Text          string
}

// ResultHarvesterInput is one event's coverage section.
type ResultHarvesterInput struct {
	ArticleHTML string
	Event       EventStub
}

// ResultHarvesterOutput is the extracted placements and any raw list text
// found alongside them.
type ResultHarvesterOutput struct {
	Placements []AgentOutput[PlacementStub]
	RawLists   []RawListText
}

type extractedPlacement struct {
	Rank         int     `json:"rank"`
	PlayerName   string  `json:"player_name"`
	Faction      string  `json:"faction"`
	Subfaction   *string `json:"subfaction"`
	Detachment   *string `json:"detachment"`
	Wins         *int    `json:"wins"`
	Losses       *int    `json:"losses"`
	Draws        *int    `json:"draws"`
	BattlePoints *int    `json:"battle_points"`
	ArmyList     *string `json:"army_list"`
	Confidence   string  `json:"confidence"`
}

type resultHarvesterResponse struct {
	Placements []extractedPlacement `json:"placements"`
}

const resultHarvesterSystemPrompt = `You are extracting tournament results from a Goonhammer article section.

For each placing player, extract:
- rank: Final position (1 = winner, 2 = second, etc.)
- player_name: Player name as shown
- faction: Main faction, one of the canonical faction names
- subfaction: Subfaction if mentioned (e.g., "Ynnari", "Ultramarines")
- detachment: Detachment name if shown
- wins, losses, draws: integers, null if not shown
- battle_points: Total battle points if shown
- army_list: Full army list text if present (preserve formatting)
- confidence: "high", "medium", or "low"

Space Marine chapters such as Blood Angels, Dark Angels, Space Wolves, Black
Templars, Deathwatch, and Grey Knights are distinct factions. Chapters such as
Ultramarines, Iron Hands, Salamanders, Raven Guard, White Scars, Imperial
Fists, Crimson Fists, Flesh Tearers, and Black Dragons are subfactions of
"Space Marines".

Return JSON in this exact format:
{"placements": [{"rank": 1, "player_name": "John Smith", "faction": "Aeldari", "subfaction": "Ynnari", "detachment": "Soulrender", "wins": 5, "losses": 0, "draws": 0, "battle_points": 94, "army_list": "++ Battalion Detachment...", "confidence": "high"}]}

If no placements found, return: {"placements": []}

IMPORTANT:
- Extract placements in order (1st, 2nd, 3rd...)
- Do NOT invent player names or factions
- Use canonical faction names
- Include full army list text if available
- Set confidence to "low" for uncertain entries`

// ResultHarvesterAgent extracts placements and raw army-list text from
// event coverage.
type ResultHarvesterAgent struct {
	backend Backend
}

// NewResultHarvesterAgent builds a ResultHarvesterAgent.
func NewResultHarvesterAgent(backend Backend) *ResultHarvesterAgent {
	return &ResultHarvesterAgent{backend: backend}
}

// Name implements the agent naming convention.
func (a *ResultHarvesterAgent) Name() string { return "result_harvester" }

// RetryPolicy returns this agent's retry policy.
func (a *ResultHarvesterAgent) RetryPolicy() RetryPolicy { return DefaultRetryPolicy() }

func (a *ResultHarvesterAgent) buildPrompt(input ResultHarvesterInput) ChatRequest {
	location := input.Event.Location
	if location == "" {
		location = "Unknown location"
	}
	playerCount := "unknown"
	if input.Event.PlayerCount != nil {
		playerCount = fmt.Sprintf("%d", *input.Event.PlayerCount)
	}
	user := fmt.Sprintf("Event: %s (%s)\nPlayer count: %s\n\nContent:\n\n%s",
		input.Event.Name, location, playerCount, input.ArticleHTML)
	return NewChatRequest(SystemMessage(resultHarvesterSystemPrompt), UserMessage(user)).WithJSONMode()
}

func (a *ResultHarvesterAgent) parseResponse(raw string) (ResultHarvesterOutput, error) {
	body, err := ExtractJSON(raw)
	if err != nil {
		return ResultHarvesterOutput{}, err
	}
	var parsed resultHarvesterResponse
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return ResultHarvesterOutput{}, fmt.Errorf("%w: %v", ErrResponseParse, err)
	}

	out := ResultHarvesterOutput{
		Placements: make([]AgentOutput[PlacementStub], 0, len(parsed.Placements)),
	}
	for _, p := range parsed.Placements {
		var record *WinLossRecord
		if p.Wins != nil && p.Losses != nil {
			draws := 0
			if p.Draws != nil {
				draws = *p.Draws
			}
			record = &WinLossRecord{Wins: *p.Wins, Losses: *p.Losses, Draws: draws}
		}

		stub := PlacementStub{
			Rank:         p.Rank,
			PlayerName:   p.PlayerName,
			Faction:      p.Faction,
			Record:       record,
			BattlePoints: p.BattlePoints,
		}
		if p.Subfaction != nil {
			stub.Subfaction = *p.Subfaction
		}
		if p.Detachment != nil {
			stub.Detachment = *p.Detachment
		}

		var notes []string
		if record == nil {
			notes = append(notes, "Win/loss record not found")
		}
		if stub.Detachment == "" {
			notes = append(notes, "Detachment not specified")
		}
		out.Placements = append(out.Placements, NewAgentOutput(stub, confidenceFromString(p.Confidence)).WithNotes(notes...))

		if p.ArmyList != nil && *p.ArmyList != "" {
			out.RawLists = append(out.RawLists, RawListText{
				PlacementRank: p.Rank,
				PlayerName:    p.PlayerName,
				Text:          *p.ArmyList,
			})
		}
	}
	return out, nil
}

// Execute runs the Result Harvester over one event's coverage.
func (a *ResultHarvesterAgent) Execute(ctx context.Context, input ResultHarvesterInput) (ResultHarvesterOutput, error) {
	req := a.buildPrompt(input)
	var out ResultHarvesterOutput
	err := WithRetry(ctx, a.RetryPolicy(), func() error {
		resp, err := a.backend.Chat(ctx, req)
		if err != nil {
			return err
		}
		out, err = a.parseResponse(resp.Content)
		return err
	})
	if err != nil {
		return ResultHarvesterOutput{}, err
	}
	return out, nil
}
