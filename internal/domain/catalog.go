package domain

// CatalogEntry is one row of the reference inventory catalog. Entries are
// immutable once loaded and owned by the catalog index for the lifetime of a
// task.
type CatalogEntry struct {
	// Hinban is the product code in display form (uppercased, separators
	// preserved). The exact-match key is its normalized form.
	Hinban string `json:"hinban"`

	// Spec is the free-text specification used for fallback matching.
	Spec string `json:"spec"`

	// Zaiko is the stock quantity, if the catalog carried one.
	Zaiko *string `json:"zaiko,omitempty"`

	// Row is the zero-based position of the entry in the source catalog.
	// Used as the stable tie-break when specification scores are equal.
	Row int `json:"-"`
}
