package service

import (
	"github.com/agext/levenshtein"

	"invoice-crossref/internal/domain"
)

// wordSimilarity is the per-word edit-distance similarity two specification
// words must reach to count as the same word.
const wordSimilarity = 0.85

var levenshteinParams = levenshtein.NewParams()

// specScore is the token-overlap ratio between a query and a specification:
// the fraction of query words present in the spec, where presence is exact
// equality or near-equality under edit distance. Result is in [0,1].
func specScore(queryWords, specWords []string) float64 {
	if len(queryWords) == 0 || len(specWords) == 0 {
		return 0
	}
	matched := 0
	for _, qw := range queryWords {
		for _, sw := range specWords {
			if qw == sw || levenshtein.Similarity(qw, sw, levenshteinParams) >= wordSimilarity {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(queryWords))
}

// Matcher classifies tokens against a catalog index. Stateless apart from the
// score threshold; safe for concurrent use.
type Matcher struct {
	threshold float64
}

// NewMatcher creates a matcher. threshold is the minimum specification score
// a fallback match must reach.
func NewMatcher(threshold float64) *Matcher {
	return &Matcher{threshold: threshold}
}

// Classify applies the match rules in order, first hit wins: exact product
// code lookup, then the top specification candidate if it clears the
// threshold, otherwise Unmatched.
func (m *Matcher) Classify(token domain.Token, index *CatalogIndex) domain.MatchOutcome {
	if entry := index.LookupExact(token.Normalized); entry != nil {
		return domain.MatchOutcome{Kind: domain.OutcomeHinban, Entry: entry}
	}
	if candidates := index.LookupBySpec(token.Normalized); len(candidates) > 0 {
		if top := candidates[0]; top.Score >= m.threshold {
			return domain.MatchOutcome{Kind: domain.OutcomeSpec, Entry: top.Entry, Score: top.Score}
		}
	}
	return domain.MatchOutcome{Kind: domain.OutcomeUnmatched}
}

// Candidates is the diagnostic ranking used by retry: the exact match first
// if there is one, then specification candidates in score order regardless of
// the threshold, up to limit codes in total. Never consults committed
// results.
func (m *Matcher) Candidates(normalized string, index *CatalogIndex, limit int) []string {
	if limit <= 0 {
		return nil
	}
	var codes []string
	seen := make(map[string]struct{})
	if entry := index.LookupExact(normalized); entry != nil {
		codes = append(codes, entry.Hinban)
		seen[entry.Hinban] = struct{}{}
	}
	for _, c := range index.LookupBySpec(normalized) {
		if len(codes) >= limit {
			break
		}
		if _, dup := seen[c.Entry.Hinban]; dup {
			continue
		}
		seen[c.Entry.Hinban] = struct{}{}
		codes = append(codes, c.Entry.Hinban)
	}
	return codes
}
