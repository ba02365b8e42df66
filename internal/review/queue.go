// Package review implements the manual-review queue: a flat, append-only
// JSONL log of entities that ingestion flagged as low-confidence or that
// the fact-checker agent rejected outright.
package review

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dabbslondon/tourney-tracker/internal/models"
	"github.com/dabbslondon/tourney-tracker/internal/storage"
)

const (
	ReasonLowConfidence     = "low_confidence"
	ReasonFactCheckFailed   = "fact_check_failed"
	ReasonDuplicateSuspected = "duplicate_suspected"
	ReasonManualFlag        = "manual_flag"
)

// Queue reads and appends to the review_queue.jsonl file.
type Queue struct {
	path string
}

// New builds a Queue rooted at the given storage config's review-queue
// directory.
func New(cfg storage.Config) *Queue {
	return &Queue{path: filepath.Join(cfg.ReviewQueueDir(), "review_queue.jsonl")}
}

// Enqueue appends one or more items to the queue.
func (q *Queue) Enqueue(items ...models.ReviewQueueItem) error {
	if len(items) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(q.path), 0o755); err != nil {
		return fmt.Errorf("review: creating queue dir: %w", err)
	}
	f, err := os.OpenFile(q.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("review: opening %s: %w", q.path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, item := range items {
		line, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("review: marshaling item: %w", err)
		}
		w.Write(line)
		w.WriteByte('\n')
	}
	return w.Flush()
}

// All reads every item in the queue, deduplicated by id with the last
// occurrence (e.g. a resolution update) winning.
func (q *Queue) All() ([]models.ReviewQueueItem, error) {
	f, err := os.Open(q.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("review: opening %s: %w", q.path, err)
	}
	defer f.Close()

	order := make([]string, 0, 64)
	byID := make(map[string]models.ReviewQueueItem)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var item models.ReviewQueueItem
		if err := json.Unmarshal(line, &item); err != nil {
			return nil, fmt.Errorf("review: parsing %s: %w", q.path, err)
		}
		id := item.GetID()
		if _, seen := byID[id]; !seen {
			order = append(order, id)
		}
		byID[id] = item
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("review: reading %s: %w", q.path, err)
	}

	out := make([]models.ReviewQueueItem, 0, len(order))
	for _, id := range order {
		out = append(out, byID[id])
	}
	return out, nil
}

// Unresolved returns only items that have not yet been marked resolved.
func (q *Queue) Unresolved() ([]models.ReviewQueueItem, error) {
	all, err := q.All()
	if err != nil {
		return nil, err
	}
	out := make([]models.ReviewQueueItem, 0, len(all))
	for _, item := range all {
		if !item.Resolved {
			out = append(out, item)
		}
	}
	return out, nil
}

// Resolve appends a resolution record for an existing item; since reads
// keep the last occurrence, this supersedes the original entry.
func (q *Queue) Resolve(id, notes string) error {
	all, err := q.All()
	if err != nil {
		return err
	}
	for _, item := range all {
		if item.GetID() == id {
			item.Resolved = true
			item.ResolutionNotes = notes
			return q.Enqueue(item)
		}
	}
	return fmt.Errorf("review: no queue item with id %s", id)
}
