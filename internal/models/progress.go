package models

// ProgressEntry records the durable completion state of one
// (language, record index) unit. The ledger is a hint, not a source of
// truth: an entry is trustworthy only while its output artifact exists.
type ProgressEntry struct {
	Title    string `json:"title"`
	OutputID string `json:"outputId"`
	Slug     string `json:"slug"`
	Excerpt  string `json:"excerpt"`
}
