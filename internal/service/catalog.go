package service

import (
	"sort"
	"strings"

	"invoice-crossref/internal/domain"
)

// CatalogIndex is the in-memory view of one uploaded catalog. Built once per
// task, read-only thereafter; concurrent lookups need no locking.
type CatalogIndex struct {
	exact     map[string]*domain.CatalogEntry
	entries   []*domain.CatalogEntry
	specWords [][]string // per entry, words of the normalized spec text
}

// SpecCandidate pairs a catalog entry with its specification similarity score.
type SpecCandidate struct {
	Entry *domain.CatalogEntry
	Score float64
}

// Column aliases accepted in the catalog header. "kidou" and "zaiku" are the
// column names legacy catalogs ship with.
var (
	specAliases  = map[string]struct{}{"spec": {}, "kidou": {}}
	zaikoAliases = map[string]struct{}{"zaiko": {}, "zaiku": {}}
)

// BuildCatalogIndex builds the index from header-prefixed rows of string
// fields. The hinban column is required; spec and zaiko are optional. Rows
// with an empty product code are skipped. Duplicate product codes resolve
// last-write-wins for the exact map while every row stays visible to
// specification scanning.
func BuildCatalogIndex(rows [][]string) (*CatalogIndex, error) {
	if len(rows) == 0 {
		return nil, &domain.CatalogLoadError{Reason: "catalog is empty"}
	}

	hinbanCol, specCol, zaikoCol := -1, -1, -1
	for i, name := range rows[0] {
		switch key := strings.ToLower(strings.TrimSpace(name)); {
		case key == "hinban":
			hinbanCol = i
		default:
			if _, ok := specAliases[key]; ok {
				specCol = i
			} else if _, ok := zaikoAliases[key]; ok {
				zaikoCol = i
			}
		}
	}
	if hinbanCol < 0 {
		return nil, &domain.CatalogLoadError{Reason: "required column 'hinban' is missing"}
	}

	idx := &CatalogIndex{exact: make(map[string]*domain.CatalogEntry)}
	for rowNum, row := range rows[1:] {
		hinban := foldText(cell(row, hinbanCol))
		if hinban == "" {
			continue
		}
		entry := &domain.CatalogEntry{
			Hinban: hinban,
			Spec:   foldText(cell(row, specCol)),
			Row:    rowNum,
		}
		if zaikoCol >= 0 {
			if z := strings.TrimSpace(cell(row, zaikoCol)); z != "" {
				entry.Zaiko = &z
			}
		}
		idx.exact[Normalize(hinban)] = entry
		idx.entries = append(idx.entries, entry)
		idx.specWords = append(idx.specWords, strings.Fields(Normalize(entry.Spec)))
	}
	return idx, nil
}

// cell tolerates short rows the way spreadsheet exports produce them.
func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

// Len returns the number of indexed entries.
func (x *CatalogIndex) Len() int {
	return len(x.entries)
}

// LookupExact returns the entry whose normalized product code equals the
// given normalized code, or nil.
func (x *CatalogIndex) LookupExact(normalizedCode string) *domain.CatalogEntry {
	return x.exact[normalizedCode]
}

// LookupBySpec scores every entry's specification text against the normalized
// query and returns candidates with score > 0, descending by score. Equal
// scores keep the catalog's original row order.
func (x *CatalogIndex) LookupBySpec(normalizedQuery string) []SpecCandidate {
	queryWords := strings.Fields(normalizedQuery)
	if len(queryWords) == 0 {
		return nil
	}
	var candidates []SpecCandidate
	for i, entry := range x.entries {
		if score := specScore(queryWords, x.specWords[i]); score > 0 {
			candidates = append(candidates, SpecCandidate{Entry: entry, Score: score})
		}
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		if candidates[a].Score != candidates[b].Score {
			return candidates[a].Score > candidates[b].Score
		}
		return candidates[a].Entry.Row < candidates[b].Entry.Row
	})
	return candidates
}
