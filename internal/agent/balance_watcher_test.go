package agent

import (
	"context"
	"testing"
)

func TestBalanceWatcherExtractsUpdates(t *testing.T) {
	backend := &mockBackend{response: `{
		"updates": [
			{"title": "Balance Dataslate Spring 2025", "date": "2025-03-15", "event_type": "balance_update", "pdf_url": "https://example.com/dataslate.pdf", "summary": "Major changes", "confidence": "high"},
			{"title": "10th Edition Launch", "date": null, "event_type": "edition_release", "pdf_url": null, "summary": null, "confidence": "medium"}
		]
	}`}
	a := NewBalanceWatcherAgent(backend)

	output, err := a.Execute(context.Background(), BalanceWatcherInput{
		HTMLContent: "<html>balance update</html>",
		SourceURL:   "https://warhammer-community.com/balance",
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(output.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(output.Events))
	}
	if output.Events[0].Data.Type != "balance_update" {
		t.Fatalf("expected balance_update type, got %s", output.Events[0].Data.Type)
	}
	if output.Events[1].Data.Type != "edition_release" {
		t.Fatalf("expected edition_release type, got %s", output.Events[1].Data.Type)
	}
	if len(output.PDFURLs) != 1 {
		t.Fatalf("expected 1 PDF URL, got %d", len(output.PDFURLs))
	}
}
