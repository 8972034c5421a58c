package domain

// Token is a candidate identifier extracted from one page of a source PDF.
// Tokens are ephemeral: produced by the tokenizer, consumed by the matcher,
// retained only inside the resulting record.
type Token struct {
	PDFName    string
	Page       int // 1-based
	Raw        string
	Normalized string
}

// MatchType labels how a token was matched against the catalog.
type MatchType string

const (
	MatchTypeHinban MatchType = "hinban"
	MatchTypeSpec   MatchType = "spec"
)

// OutcomeKind discriminates the closed set of classification outcomes.
type OutcomeKind int

const (
	OutcomeUnmatched OutcomeKind = iota
	OutcomeHinban
	OutcomeSpec
)

// MatchOutcome is the result of classifying a single token. Entry is nil for
// OutcomeUnmatched; Score is meaningful only for OutcomeSpec.
type MatchOutcome struct {
	Kind  OutcomeKind
	Entry *CatalogEntry
	Score float64
}

// MatchResult is one committed hit in a task's result sequence.
type MatchResult struct {
	PDFName       string    `json:"pdf_name"`
	Page          int       `json:"page"`
	Token         string    `json:"token"`
	MatchedType   MatchType `json:"matched_type"`
	MatchedHinban string    `json:"matched_hinban"`
	Zaiko         *string   `json:"zaiko,omitempty"`
}

// FailureRecord is one committed miss in a task's failure sequence.
type FailureRecord struct {
	PDFName string `json:"pdf_name"`
	Page    int    `json:"page"`
	Token   string `json:"token"`
}
