package models

import "github.com/google/uuid"

// ReviewQueueItem flags an entity whose ingestion confidence was low, or
// whose fact-check verdict carried critical or multiple major discrepancies.
type ReviewQueueItem struct {
	ID              uuid.UUID `json:"id"`
	EntityType      string    `json:"entity_type"`
	EntityID        string    `json:"entity_id"`
	Reason          string    `json:"reason"`
	Details         string    `json:"details,omitempty"`
	Resolved        bool      `json:"resolved"`
	ResolutionNotes string    `json:"resolution_notes,omitempty"`
}

// NewReviewQueueItem builds a review queue entry with a fresh opaque id.
func NewReviewQueueItem(entityType, entityID, reason, details string) ReviewQueueItem {
	return ReviewQueueItem{
		ID:         uuid.New(),
		EntityType: entityType,
		EntityID:   entityID,
		Reason:     reason,
		Details:    details,
	}
}

// GetID implements storage.Identifiable.
func (r ReviewQueueItem) GetID() string { return r.ID.String() }
