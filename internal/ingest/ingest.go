// Package ingest loads source records from CSV files. Column names are
// matched loosely so exports from different tools (title/name/heading,
// content/body/text) all load without reconfiguration.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"transpipe/internal/models"
)

var (
	// ErrNoHeader indicates a CSV file without a header row.
	ErrNoHeader = errors.New("csv file has no header row")

	// ErrMissingTitleColumn indicates no recognizable title column.
	ErrMissingTitleColumn = errors.New("csv header has no title column")

	// ErrMissingContentColumn indicates no recognizable content column.
	ErrMissingContentColumn = errors.New("csv header has no content column")
)

var (
	titleColumns   = []string{"title", "name", "heading"}
	contentColumns = []string{"content", "body", "text", "article"}
)

// LoadCSV reads records from a CSV file. Record indices follow row order
// starting at zero; rows with an empty title and empty body are skipped.
func LoadCSV(path string) ([]models.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv file %s: %w", path, err)
	}
	defer f.Close()

	records, err := ReadRecords(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv file %s: %w", path, err)
	}

	return records, nil
}

// ReadRecords parses CSV content from r into records.
func ReadRecords(r io.Reader) ([]models.Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoHeader
		}

		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	titleIdx, err := findColumn(header, titleColumns, ErrMissingTitleColumn)
	if err != nil {
		return nil, err
	}

	contentIdx, err := findColumn(header, contentColumns, ErrMissingContentColumn)
	if err != nil {
		return nil, err
	}

	var records []models.Record

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}

		title := fieldAt(row, titleIdx)
		body := fieldAt(row, contentIdx)

		if title == "" && body == "" {
			continue
		}

		records = append(records, models.Record{
			Index: len(records),
			Title: title,
			Body:  body,
		})
	}

	return records, nil
}

// findColumn locates the first header cell matching one of the candidate
// names, case-insensitively.
func findColumn(header, candidates []string, missing error) (int, error) {
	for _, want := range candidates {
		for i, cell := range header {
			if strings.EqualFold(strings.TrimSpace(cell), want) {
				return i, nil
			}
		}
	}

	return 0, missing
}

func fieldAt(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}
