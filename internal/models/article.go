package models

// CrossReference points at a sibling article in the same language.
type CrossReference struct {
	Title    string `json:"title"`
	OutputID string `json:"outputId"`
}

// ProcessedArticle is the unit produced per (record, language). It is
// created by the scheduler, enriched in two passes (per-item metadata,
// then collection-wide cross-referencing) and handed to the renderer.
type ProcessedArticle struct {
	Index    int    `json:"index"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	OutputID string `json:"outputId"`
	Slug     string `json:"slug"`
	Excerpt  string `json:"excerpt"`

	// CrossReferences is populated only by the post-sort linking pass;
	// it is empty while workers are still running.
	CrossReferences []CrossReference `json:"crossReferences,omitempty"`

	// Skipped marks articles reconstructed from the progress ledger
	// without calling the translator.
	Skipped bool `json:"-"`
}
