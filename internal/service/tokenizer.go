package service

import (
	"regexp"

	"invoice-crossref/internal/domain"
)

// tokenPattern matches contiguous runs of uppercase alphanumerics with
// embedded separators, at least four characters long.
var tokenPattern = regexp.MustCompile(`[A-Z0-9][A-Z0-9\-_/]{3,}`)

// minTokenLength is the minimum length of the normalized form; shorter runs
// are treated as noise.
const minTokenLength = 4

// tokenBlacklist holds drawing-legend words that look like identifiers but
// never are.
var tokenBlacklist = map[string]struct{}{
	"SCALE":  {},
	"DATE":   {},
	"MM":     {},
	"ISO":    {},
	"PAGE":   {},
	"COPY":   {},
	"SAMPLE": {},
	"MODEL":  {},
}

// ExtractTokens scans one page of text and yields candidate identifier tokens
// with their provenance. Deterministic and restartable: the same inputs yield
// the same tokens in the same order. Tokens must contain at least one digit,
// are deduplicated per page on their normalized form, and keep
// first-occurrence order. No matching decisions are made here.
func ExtractTokens(pageText, pdfName string, page int) []domain.Token {
	folded := foldText(pageText)
	seen := make(map[string]struct{})
	var tokens []domain.Token
	for _, raw := range tokenPattern.FindAllString(folded, -1) {
		if !containsDigit(raw) {
			continue
		}
		if _, blacklisted := tokenBlacklist[raw]; blacklisted {
			continue
		}
		normalized := Normalize(raw)
		if len(normalized) < minTokenLength {
			continue
		}
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		tokens = append(tokens, domain.Token{
			PDFName:    pdfName,
			Page:       page,
			Raw:        raw,
			Normalized: normalized,
		})
	}
	return tokens
}

func containsDigit(s string) bool {
	for _, r := range s {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}
