package agent

import (
	"context"
	"encoding/json"
	"fmt"
)

// EntitySummary is an existing entity's identifying fields, offered to the
// Duplicate Detector as a comparison candidate.
type EntitySummary struct {
	ID         string
	EntityType string
	KeyFields  map[string]any
}

// DuplicateDetectorInput is a candidate entity plus the existing entities to
// compare it against.
type DuplicateDetectorInput struct {
	Candidate       map[string]any
	ExistingEntities []EntitySummary
}

// DuplicateDetectorOutput is the duplicate-check verdict.
type DuplicateDetectorOutput struct {
	IsDuplicate       bool
	MatchingEntityID  string
	SimilarityScore   float64
	MatchReasons      []string
}

type extractedDuplicateCheck struct {
	IsDuplicate    bool     `json:"is_duplicate"`
	MatchingIndex  *int     `json:"matching_index"`
	SimilarityScore float64 `json:"similarity_score"`
	MatchReasons   []string `json:"match_reasons"`
}

type duplicateDetectorResponse struct {
	Check extractedDuplicateCheck `json:"check"`
}

const duplicateDetectorSystemPrompt = `You are checking if a new entity is a duplicate of existing entries.

Compare the candidate entity against each existing entity.

For Events: name similarity (typos, abbreviations), date match (within 3 days), location match, player count similarity (within 10%).
For Placements: same event, same player name (typo tolerance), same faction.
For Army Lists: same player, same faction, same total points (within 5%).

Return JSON in this exact format:
{"check": {"is_duplicate": true, "matching_index": 2, "similarity_score": 0.95, "match_reasons": ["Event name matches (London GT 2025)", "Same date", "Same location"]}}

If no match, return:
{"check": {"is_duplicate": false, "matching_index": null, "similarity_score": 0.0, "match_reasons": []}}

Scoring guide:
- 0.9+: Almost certainly a duplicate
- 0.7-0.9: Likely duplicate, flag for review
- 0.5-0.7: Possible duplicate, investigate
- 0.0-0.5: Probably not a duplicate

IMPORTANT:
- Err on the side of flagging potential duplicates
- Name variations (typos, abbreviations) should still match
- Different year = not a duplicate (London GT 2024 != London GT 2025)
- Include clear reasons for the match determination`

// DuplicateDetectorAgent identifies potential duplicate entries before
// storage.
type DuplicateDetectorAgent struct {
	backend Backend
}

// NewDuplicateDetectorAgent builds a DuplicateDetectorAgent.
func NewDuplicateDetectorAgent(backend Backend) *DuplicateDetectorAgent {
	return &DuplicateDetectorAgent{backend: backend}
}

// Name implements the agent naming convention.
func (a *DuplicateDetectorAgent) Name() string { return "duplicate_detector" }

// RetryPolicy returns this agent's retry policy.
func (a *DuplicateDetectorAgent) RetryPolicy() RetryPolicy { return DefaultRetryPolicy() }

func (a *DuplicateDetectorAgent) buildPrompt(input DuplicateDetectorInput) (ChatRequest, error) {
	candidateJSON, err := json.MarshalIndent(input.Candidate, "", "  ")
	if err != nil {
		return ChatRequest{}, fmt.Errorf("agent: marshaling candidate: %w", err)
	}

	existing := make([]map[string]any, len(input.ExistingEntities))
	for i, e := range input.ExistingEntities {
		existing[i] = map[string]any{"index": i, "id": e.ID, "type": e.EntityType, "fields": e.KeyFields}
	}
	existingJSON, err := json.MarshalIndent(existing, "", "  ")
	if err != nil {
		return ChatRequest{}, fmt.Errorf("agent: marshaling existing entities: %w", err)
	}

	user := fmt.Sprintf("Candidate entity:\n%s\n\nExisting entities:\n%s", candidateJSON, existingJSON)
	return NewChatRequest(SystemMessage(duplicateDetectorSystemPrompt), UserMessage(user)).WithJSONMode(), nil
}

func (a *DuplicateDetectorAgent) parseResponse(raw string, existing []EntitySummary) (DuplicateDetectorOutput, error) {
	body, err := ExtractJSON(raw)
	if err != nil {
		return DuplicateDetectorOutput{}, err
	}
	var parsed duplicateDetectorResponse
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return DuplicateDetectorOutput{}, fmt.Errorf("%w: %v", ErrResponseParse, err)
	}

	check := parsed.Check
	score := check.SimilarityScore
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	var matchingID string
	if check.MatchingIndex != nil {
		idx := *check.MatchingIndex
		if idx >= 0 && idx < len(existing) {
			matchingID = existing[idx].ID
		}
	}

	return DuplicateDetectorOutput{
		IsDuplicate:      check.IsDuplicate,
		MatchingEntityID: matchingID,
		SimilarityScore:  score,
		MatchReasons:     check.MatchReasons,
	}, nil
}

// Execute checks a candidate entity against existing entities for
// duplication.
func (a *DuplicateDetectorAgent) Execute(ctx context.Context, input DuplicateDetectorInput) (DuplicateDetectorOutput, error) {
	req, err := a.buildPrompt(input)
	if err != nil {
		return DuplicateDetectorOutput{}, err
	}
	var out DuplicateDetectorOutput
	err = WithRetry(ctx, a.RetryPolicy(), func() error {
		resp, err := a.backend.Chat(ctx, req)
		if err != nil {
			return err
		}
		out, err = a.parseResponse(resp.Content, input.ExistingEntities)
		return err
	})
	if err != nil {
		return DuplicateDetectorOutput{}, err
	}
	return out, nil
}
