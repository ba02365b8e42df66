package models

import "testing"

func TestConfidenceIsAcceptable(t *testing.T) {
	cases := map[Confidence]bool{
		ConfidenceHigh:   true,
		ConfidenceMedium: true,
		ConfidenceLow:    false,
	}
	for c, want := range cases {
		if got := c.IsAcceptable(); got != want {
			t.Errorf("%s.IsAcceptable() = %v, want %v", c, got, want)
		}
	}
}

func TestConfidenceNeedsReview(t *testing.T) {
	if ConfidenceHigh.NeedsReview() || ConfidenceMedium.NeedsReview() {
		t.Fatalf("only low confidence should need review")
	}
	if !ConfidenceLow.NeedsReview() {
		t.Fatalf("low confidence should need review")
	}
}

func TestConfidenceStringDefaultsMedium(t *testing.T) {
	var c Confidence
	if c.String() != string(ConfidenceMedium) {
		t.Fatalf("expected zero value to stringify as medium, got %q", c.String())
	}
}
