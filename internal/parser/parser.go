// Package parser provides file format detection and per-format table readers
// for the import pipeline. All cell values are surfaced as trimmed strings;
// row numbering is assigned by the caller so it stays stable across passes.
package parser

import (
	"io"

	"github.com/bulk-importer/internal/types"
)

// Row is one table row keyed by source column name.
type Row map[string]string

// RowIterator yields rows one at a time. Next returns io.EOF when the
// sequence is exhausted. Iterators are finite and not restartable; callers
// re-read the source bytes to iterate again.
type RowIterator interface {
	Next() (Row, error)
}

// TableParser reads tabular data of one format.
type TableParser interface {
	// Detect classifies the content, first trusting the filename extension,
	// then attempting a best-effort structural parse. Detection never fails
	// hard; malformed input degrades to FormatUnknown.
	Detect(content []byte, filename string) types.ImportFormat
	// Headers returns the column headers, trimmed.
	Headers(content []byte) ([]string, error)
	// Rows returns an iterator over data rows. limit <= 0 means no limit.
	Rows(content []byte, limit int) (RowIterator, error)
	// RowCount returns the number of data rows (excluding the header).
	RowCount(content []byte) (int, error)
}

// DetectFormat tries all parsers in priority order (XLSX, JSON, TSV, CSV)
// and returns the first non-unknown match.
func DetectFormat(content []byte, filename string) types.ImportFormat {
	parsers := []TableParser{
		&XLSXParser{},
		&JSONParser{},
		&TSVParser{},
		&CSVParser{},
	}

	for _, p := range parsers {
		if format := p.Detect(content, filename); format != types.FormatUnknown {
			return format
		}
	}
	return types.FormatUnknown
}

// ParserFor returns the parser for a detected format. The format set is
// closed; callers are expected to pass a format produced by DetectFormat.
func ParserFor(format types.ImportFormat) TableParser {
	switch format {
	case types.FormatTSV:
		return &TSVParser{}
	case types.FormatXLSX:
		return &XLSXParser{}
	case types.FormatJSON:
		return &JSONParser{}
	default:
		return &CSVParser{}
	}
}

// sliceIterator serves rows already materialized in memory (XLSX, JSON).
type sliceIterator struct {
	rows []Row
	pos  int
}

func (it *sliceIterator) Next() (Row, error) {
	if it.pos >= len(it.rows) {
		return nil, io.EOF
	}
	row := it.rows[it.pos]
	it.pos++
	return row, nil
}
