// Package service implements the extraction, matching and task pipeline core.
package service

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	whitespacePattern = regexp.MustCompile(`\s+`)
	separatorPattern  = regexp.MustCompile(`[-_/]`)

	// Typographic dash variants seen in scanned invoices. Full-width forms
	// are already folded to ASCII by NFKC.
	dashReplacer = strings.NewReplacer(
		"–", "-", // en dash
		"—", "-", // em dash
		"−", "-", // minus sign
		"ー", "-", // katakana prolonged sound mark
	)
)

// foldText canonicalizes raw page or catalog text for tokenization: NFKC
// folding, uppercase, dash unification and whitespace collapse. Separator
// characters are preserved so token boundaries stay visible.
func foldText(text string) string {
	t := norm.NFKC.String(text)
	t = strings.ToUpper(t)
	t = dashReplacer.Replace(t)
	t = whitespacePattern.ReplaceAllString(t, " ")
	return strings.TrimSpace(t)
}

// Normalize produces the comparable form of a token or catalog field. On top
// of foldText it strips hyphen, underscore and slash separators, so that
// "ab-1234", "AB_1234" and "AB1234" all compare equal. Idempotent; any input
// yields an output, including the empty string.
func Normalize(text string) string {
	return separatorPattern.ReplaceAllString(foldText(text), "")
}
