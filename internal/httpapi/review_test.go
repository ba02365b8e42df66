package httpapi

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/dabbslondon/tourney-tracker/internal/models"
	"github.com/dabbslondon/tourney-tracker/internal/review"
	"github.com/dabbslondon/tourney-tracker/internal/storage"
)

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func newTestServerWithQueue(t *testing.T, items ...models.ReviewQueueItem) *Server {
	t.Helper()
	cfg := storage.NewConfig(t.TempDir())
	q := review.New(cfg)
	if len(items) > 0 {
		if err := q.Enqueue(items...); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}
	return &Server{repo: newRepo(cfg, nil), queue: q}
}

func TestHandleListReviewQueueReturnsAllByDefault(t *testing.T) {
	s := newTestServerWithQueue(t,
		models.NewReviewQueueItem("event", "e1", review.ReasonLowConfidence, "low confidence extraction"),
		models.NewReviewQueueItem("placement", "p1", review.ReasonFactCheckFailed, "critical discrepancy"),
	)

	r := httptest.NewRequest("GET", "/api/review-queue", nil)
	w := httptest.NewRecorder()
	s.handleListReviewQueue(w, r)

	if w.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestHandleListReviewQueueFiltersByResolved(t *testing.T) {
	resolved := models.NewReviewQueueItem("event", "e1", review.ReasonManualFlag, "")
	resolved.Resolved = true
	unresolved := models.NewReviewQueueItem("event", "e2", review.ReasonManualFlag, "")

	s := newTestServerWithQueue(t, resolved, unresolved)

	r := httptest.NewRequest("GET", "/api/review-queue?resolved=false", nil)
	w := httptest.NewRecorder()
	s.handleListReviewQueue(w, r)

	env := decodeEnvelope(t, w)
	if env.Pagination.TotalItems != 1 {
		t.Errorf("expected 1 unresolved item, got %d", env.Pagination.TotalItems)
	}
}
