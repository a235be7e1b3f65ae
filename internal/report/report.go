// Package report collects per-language run results and renders them as
// an aligned summary table. Alignment uses display width so wide scripts
// in titles do not break the columns.
package report

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-runewidth"
)

// Failure records one item that ran out of options.
type Failure struct {
	Lang  string
	Index int
	Title string
	Err   string
}

// LanguageResult aggregates counters for one target language.
type LanguageResult struct {
	Code      string
	Processed int
	Skipped   int
	Degraded  int
	Failed    int
}

// Report accumulates results across workers. All methods are safe for
// concurrent use.
type Report struct {
	mu        sync.Mutex
	startedAt time.Time
	languages map[string]*LanguageResult
	failures  []Failure
}

// New creates an empty report with the clock started.
func New() *Report {
	return &Report{
		startedAt: time.Now(),
		languages: make(map[string]*LanguageResult),
	}
}

func (r *Report) lang(code string) *LanguageResult {
	res, ok := r.languages[code]
	if !ok {
		res = &LanguageResult{Code: code}
		r.languages[code] = res
	}

	return res
}

// AddProcessed counts an item translated live in this run.
func (r *Report) AddProcessed(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lang(code).Processed++
}

// AddSkipped counts an item already done before this run.
func (r *Report) AddSkipped(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lang(code).Skipped++
}

// AddDegraded counts an item that fell back to its original text.
func (r *Report) AddDegraded(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lang(code).Degraded++
}

// AddFailure counts and records an item that produced no artifact.
func (r *Report) AddFailure(code string, index int, title string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lang(code).Failed++
	r.failures = append(r.failures, Failure{
		Lang:  code,
		Index: index,
		Title: title,
		Err:   err.Error(),
	})
}

// Failures returns recorded failures ordered by language then index.
func (r *Report) Failures() []Failure {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Failure, len(r.failures))
	copy(out, r.failures)

	sort.Slice(out, func(i, j int) bool {
		if out[i].Lang != out[j].Lang {
			return out[i].Lang < out[j].Lang
		}

		return out[i].Index < out[j].Index
	})

	return out
}

// HasFailures reports whether any item failed outright.
func (r *Report) HasFailures() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.failures) > 0
}

// Summary renders the aligned results table plus failure details.
func (r *Report) Summary() string {
	r.mu.Lock()

	codes := make([]string, 0, len(r.languages))
	for code := range r.languages {
		codes = append(codes, code)
	}

	sort.Strings(codes)

	rows := [][]string{{"Language", "Processed", "Skipped", "Degraded", "Failed"}}

	var totals LanguageResult

	for _, code := range codes {
		res := r.languages[code]
		rows = append(rows, []string{
			res.Code,
			fmt.Sprintf("%d", res.Processed),
			fmt.Sprintf("%d", res.Skipped),
			fmt.Sprintf("%d", res.Degraded),
			fmt.Sprintf("%d", res.Failed),
		})

		totals.Processed += res.Processed
		totals.Skipped += res.Skipped
		totals.Degraded += res.Degraded
		totals.Failed += res.Failed
	}

	if len(codes) > 1 {
		rows = append(rows, []string{
			"total",
			fmt.Sprintf("%d", totals.Processed),
			fmt.Sprintf("%d", totals.Skipped),
			fmt.Sprintf("%d", totals.Degraded),
			fmt.Sprintf("%d", totals.Failed),
		})
	}

	elapsed := time.Since(r.startedAt).Round(time.Second)

	r.mu.Unlock()

	var sb strings.Builder

	sb.WriteString(renderTable(rows))
	sb.WriteString(fmt.Sprintf("\nElapsed: %s\n", elapsed))

	for _, f := range r.Failures() {
		sb.WriteString(fmt.Sprintf("FAILED [%s] #%d %s: %s\n", f.Lang, f.Index, f.Title, f.Err))
	}

	return sb.String()
}

// renderTable builds a pipe table with a separator row after the header,
// padding every cell to the widest display width in its column.
func renderTable(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	colCount := len(rows[0])
	colWidths := make([]int, colCount)

	for _, row := range rows {
		for i := 0; i < len(row) && i < colCount; i++ {
			if w := runewidth.StringWidth(row[i]); w > colWidths[i] {
				colWidths[i] = w
			}
		}
	}

	for i := range colWidths {
		if colWidths[i] < 3 {
			colWidths[i] = 3
		}
	}

	var sb strings.Builder

	writeRow := func(row []string) {
		sb.WriteString("|")

		for j := 0; j < colCount; j++ {
			content := ""
			if j < len(row) {
				content = row[j]
			}

			sb.WriteString(" ")
			sb.WriteString(content)

			if pad := colWidths[j] - runewidth.StringWidth(content); pad > 0 {
				sb.WriteString(strings.Repeat(" ", pad))
			}

			sb.WriteString(" |")
		}

		sb.WriteString("\n")
	}

	writeRow(rows[0])

	sb.WriteString("|")

	for j := 0; j < colCount; j++ {
		sb.WriteString(" ")
		sb.WriteString(strings.Repeat("-", colWidths[j]))
		sb.WriteString(" |")
	}

	sb.WriteString("\n")

	for _, row := range rows[1:] {
		writeRow(row)
	}

	return sb.String()
}
