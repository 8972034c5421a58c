package service

import (
	"reflect"
	"testing"

	"invoice-crossref/internal/domain"
)

func testIndex(t *testing.T) *CatalogIndex {
	t.Helper()
	idx, err := BuildCatalogIndex(testCatalogRows())
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	return idx
}

func testToken(raw string) domain.Token {
	return domain.Token{PDFName: "a.pdf", Page: 1, Raw: raw, Normalized: Normalize(raw)}
}

func TestMatcher_ClassifyExactHinban(t *testing.T) {
	m := NewMatcher(0.6)
	outcome := m.Classify(testToken("AB1234"), testIndex(t))

	if outcome.Kind != domain.OutcomeHinban {
		t.Fatalf("expected hinban match, got %+v", outcome)
	}
	if outcome.Entry.Hinban != "AB-1234" {
		t.Fatalf("expected matched code AB-1234, got %q", outcome.Entry.Hinban)
	}
	if outcome.Entry.Zaiko == nil || *outcome.Entry.Zaiko != "10" {
		t.Fatalf("expected zaiko 10, got %v", outcome.Entry.Zaiko)
	}
}

func TestMatcher_ClassifySpecFallback(t *testing.T) {
	m := NewMatcher(0.6)
	outcome := m.Classify(testToken("Widget Type A Custom"), testIndex(t))

	if outcome.Kind != domain.OutcomeSpec {
		t.Fatalf("expected spec match, got %+v", outcome)
	}
	if outcome.Entry.Hinban != "AB-1234" {
		t.Fatalf("expected AB-1234, got %q", outcome.Entry.Hinban)
	}
	if outcome.Score < 0.6 {
		t.Fatalf("spec match must clear the threshold, got %v", outcome.Score)
	}
}

func TestMatcher_ClassifyUnmatched(t *testing.T) {
	m := NewMatcher(0.6)
	outcome := m.Classify(testToken("ZZZZ-9999"), testIndex(t))

	if outcome.Kind != domain.OutcomeUnmatched {
		t.Fatalf("expected unmatched, got %+v", outcome)
	}
	if outcome.Entry != nil {
		t.Fatalf("unmatched outcome must carry no entry, got %+v", outcome.Entry)
	}
}

func TestMatcher_ThresholdIsConfigurable(t *testing.T) {
	// The same token flips between Spec and Unmatched with the threshold.
	strict := NewMatcher(0.9)
	if outcome := strict.Classify(testToken("Widget Type A Custom"), testIndex(t)); outcome.Kind != domain.OutcomeUnmatched {
		t.Fatalf("expected unmatched under strict threshold, got %+v", outcome)
	}
	lenient := NewMatcher(0.5)
	if outcome := lenient.Classify(testToken("Widget Type A Custom"), testIndex(t)); outcome.Kind != domain.OutcomeSpec {
		t.Fatalf("expected spec match under lenient threshold, got %+v", outcome)
	}
}

func TestMatcher_ExactWinsOverSpec(t *testing.T) {
	rows := [][]string{
		{"hinban", "spec"},
		{"WIDGET-1", "Widget 1"},
	}
	idx, err := BuildCatalogIndex(rows)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	m := NewMatcher(0.1)
	outcome := m.Classify(testToken("WIDGET-1"), idx)
	if outcome.Kind != domain.OutcomeHinban {
		t.Fatalf("exact lookup must win over spec fallback, got %+v", outcome)
	}
}

func TestMatcher_CandidatesExactFirst(t *testing.T) {
	m := NewMatcher(0.6)
	candidates := m.Candidates(Normalize("AB-1234"), testIndex(t), 5)

	if len(candidates) == 0 {
		t.Fatal("expected non-empty candidate list")
	}
	if candidates[0] != "AB-1234" {
		t.Fatalf("expected AB-1234 ranked first, got %q", candidates[0])
	}
}

func TestMatcher_CandidatesIgnoreThreshold(t *testing.T) {
	// Diagnostic mode returns spec candidates even when they would not
	// classify as a match.
	m := NewMatcher(0.99)
	candidates := m.Candidates(Normalize("Widget Type A Custom"), testIndex(t), 5)
	if len(candidates) < 2 {
		t.Fatalf("expected below-threshold spec candidates, got %v", candidates)
	}
	if candidates[0] != "AB-1234" {
		t.Fatalf("expected best spec candidate first, got %v", candidates)
	}
}

func TestMatcher_CandidatesRespectLimit(t *testing.T) {
	m := NewMatcher(0.6)
	candidates := m.Candidates(Normalize("Widget Type A"), testIndex(t), 1)
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %v", candidates)
	}
	if got := m.Candidates(Normalize("Widget Type A"), testIndex(t), 0); got != nil {
		t.Fatalf("expected nil for zero limit, got %v", got)
	}
}

func TestMatcher_CandidatesIdempotent(t *testing.T) {
	m := NewMatcher(0.6)
	idx := testIndex(t)
	first := m.Candidates(Normalize("Widget Type A"), idx, 5)
	second := m.Candidates(Normalize("Widget Type A"), idx, 5)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("candidate mode not idempotent: %v vs %v", first, second)
	}
}
