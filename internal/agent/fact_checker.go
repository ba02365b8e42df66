package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dabbslondon/tourney-tracker/internal/models"
)

// Severity is how serious a fact-check discrepancy is.
type Severity string

const (
	SeverityMinor    Severity = "minor"
	SeverityMajor    Severity = "major"
	SeverityCritical Severity = "critical"
)

// Discrepancy is one field that did not match the source content.
type Discrepancy struct {
	Field          string
	ExtractedValue string
	SourceEvidence string
	Severity       Severity
	Description    string
}

// Correction is a suggested fix for a discrepancy.
type Correction struct {
	Field          string
	SuggestedValue string
	Confidence     models.Confidence
}

// EntityKind is the kind of entity being fact-checked.
type EntityKind string

const (
	EntityKindEvent            EntityKind = "event"
	EntityKindPlacement        EntityKind = "placement"
	EntityKindArmyList         EntityKind = "army_list"
	EntityKindSignificantEvent EntityKind = "significant_event"
)

// FactCheckerInput is extracted data to verify against its source.
type FactCheckerInput struct {
	SourceContent string
	ExtractedData map[string]any
	EntityType    EntityKind
}

// FactCheckerOutput is the verification verdict.
type FactCheckerOutput struct {
	Verified          bool
	Discrepancies     []Discrepancy
	Corrections       []Correction
	OverallConfidence models.Confidence
}

// CriticalOrMajorCount reports how many critical and how many major
// discrepancies this output carries.
func (o FactCheckerOutput) CriticalOrMajorCount() (critical, major int) {
	for _, d := range o.Discrepancies {
		switch d.Severity {
		case SeverityCritical:
			critical++
		case SeverityMajor:
			major++
		}
	}
	return
}

// NeedsReview reports whether this verification result should be routed to
// the manual review queue: any critical discrepancy, or more than two major
// discrepancies.
func (o FactCheckerOutput) NeedsReview() bool {
	critical, major := o.CriticalOrMajorCount()
	return critical > 0 || major > 2
}

type extractedDiscrepancy struct {
	Field          string  `json:"field"`
	ExtractedValue string  `json:"extracted_value"`
	SourceEvidence *string `json:"source_evidence"`
	Severity       string  `json:"severity"`
	Description    string  `json:"description"`
}

type extractedCorrection struct {
	Field          string `json:"field"`
	SuggestedValue string `json:"suggested_value"`
	Confidence     string `json:"confidence"`
}

type extractedVerification struct {
	Verified          bool                    `json:"verified"`
	Discrepancies     []extractedDiscrepancy  `json:"discrepancies"`
	Corrections       []extractedCorrection   `json:"corrections"`
	OverallConfidence string                  `json:"overall_confidence"`
}

type factCheckerResponse struct {
	Verification extractedVerification `json:"verification"`
}

const factCheckerSystemPrompt = `You are fact-checking extracted data against the original source.

Compare the extracted JSON against the source content carefully. For each
field in the extracted data, verify it matches the source.

Report discrepancies with severity:
- "minor": Typos, formatting differences, abbreviations
- "major": Wrong values, misattributed data
- "critical": Fabricated data not in source at all

Return JSON in this exact format:
{"verification": {"verified": true, "discrepancies": [{"field": "player_name", "extracted_value": "John Smyth", "source_evidence": "John Smith placed first...", "severity": "minor", "description": "Name spelling differs from source"}], "corrections": [{"field": "player_name", "suggested_value": "John Smith", "confidence": "high"}], "overall_confidence": "high"}}

Set verified=true if: no critical discrepancies, no more than 2 major
discrepancies, overall data is accurate.

Set verified=false if: any critical discrepancies, more than 2 major
discrepancies, or core identifying fields are wrong.

IMPORTANT:
- Be strict: if you can't find evidence for a claim, flag it as critical
- Consider variations in formatting/abbreviations as minor
- Wrong faction/player names are major or critical
- Include the source evidence when possible`

func entityDisplayName(kind EntityKind) string {
	switch kind {
	case EntityKindEvent:
		return "tournament event"
	case EntityKindPlacement:
		return "player placement"
	case EntityKindArmyList:
		return "army list"
	case EntityKindSignificantEvent:
		return "balance update/edition release"
	default:
		return string(kind)
	}
}

// FactCheckerAgent verifies extracted data against its original source
// content.
type FactCheckerAgent struct {
	backend Backend
}

// NewFactCheckerAgent builds a FactCheckerAgent.
func NewFactCheckerAgent(backend Backend) *FactCheckerAgent {
	return &FactCheckerAgent{backend: backend}
}

// Name implements the agent naming convention.
func (a *FactCheckerAgent) Name() string { return "fact_checker" }

// RetryPolicy returns this agent's retry policy.
func (a *FactCheckerAgent) RetryPolicy() RetryPolicy { return DefaultRetryPolicy() }

func (a *FactCheckerAgent) buildPrompt(input FactCheckerInput) (ChatRequest, error) {
	extractedJSON, err := json.MarshalIndent(input.ExtractedData, "", "  ")
	if err != nil {
		return ChatRequest{}, fmt.Errorf("agent: marshaling extracted data: %w", err)
	}
	user := fmt.Sprintf("Entity type: %s\n\nExtracted data:\n%s\n\nSource content:\n%s",
		entityDisplayName(input.EntityType), extractedJSON, input.SourceContent)
	return NewChatRequest(SystemMessage(factCheckerSystemPrompt), UserMessage(user)).WithJSONMode(), nil
}

func severityFromString(s string) Severity {
	switch s {
	case "minor":
		return SeverityMinor
	case "major":
		return SeverityMajor
	default:
		return SeverityCritical
	}
}

func (a *FactCheckerAgent) parseResponse(raw string) (FactCheckerOutput, error) {
	body, err := ExtractJSON(raw)
	if err != nil {
		return FactCheckerOutput{}, err
	}
	var parsed factCheckerResponse
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return FactCheckerOutput{}, fmt.Errorf("%w: %v", ErrResponseParse, err)
	}

	v := parsed.Verification
	discrepancies := make([]Discrepancy, len(v.Discrepancies))
	for i, d := range v.Discrepancies {
		evidence := ""
		if d.SourceEvidence != nil {
			evidence = *d.SourceEvidence
		}
		discrepancies[i] = Discrepancy{
			Field:          d.Field,
			ExtractedValue: d.ExtractedValue,
			SourceEvidence: evidence,
			Severity:       severityFromString(d.Severity),
			Description:    d.Description,
		}
	}

	corrections := make([]Correction, len(v.Corrections))
	for i, c := range v.Corrections {
		corrections[i] = Correction{Field: c.Field, SuggestedValue: c.SuggestedValue, Confidence: confidenceFromString(c.Confidence)}
	}

	return FactCheckerOutput{
		Verified:          v.Verified,
		Discrepancies:     discrepancies,
		Corrections:       corrections,
		OverallConfidence: confidenceFromString(v.OverallConfidence),
	}, nil
}

// Execute verifies extracted data against its source content.
func (a *FactCheckerAgent) Execute(ctx context.Context, input FactCheckerInput) (FactCheckerOutput, error) {
	req, err := a.buildPrompt(input)
	if err != nil {
		return FactCheckerOutput{}, err
	}
	var out FactCheckerOutput
	err = WithRetry(ctx, a.RetryPolicy(), func() error {
		resp, err := a.backend.Chat(ctx, req)
		if err != nil {
			return err
		}
		out, err = a.parseResponse(resp.Content)
		return err
	})
	if err != nil {
		return FactCheckerOutput{}, err
	}
	return out, nil
}
