// Package models defines data structures shared by the translation pipeline.
package models

// Record is one source unit of content to be translated. Records are
// immutable once ingested; the pipeline never mutates or re-numbers them.
type Record struct {
	// Index is the stable 0-based position assigned at ingestion.
	Index int `json:"index"`
	Title string `json:"title"`
	Body  string `json:"body"`
}
