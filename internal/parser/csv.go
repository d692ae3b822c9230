package parser

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"

	"github.com/bulk-importer/internal/types"
)

// CSVParser reads comma-separated files. Rows are decoded record by record
// so peak memory stays bounded regardless of file size.
type CSVParser struct{}

// TSVParser reads tab-separated files. Shares the CSV machinery with a tab
// delimiter.
type TSVParser struct{}

func newDelimitedReader(content []byte, delimiter rune) *csv.Reader {
	r := csv.NewReader(bytes.NewReader(content))
	r.Comma = delimiter
	r.LazyQuotes = true
	// Ragged rows are tolerated; short rows pad to the header, long rows
	// drop the overflow.
	r.FieldsPerRecord = -1
	return r
}

// cleanCell trims whitespace and replaces invalid UTF-8 sequences instead of
// failing the read.
func cleanCell(s string) string {
	return strings.TrimSpace(strings.ToValidUTF8(s, "�"))
}

// Detect classifies CSV content: extension first, then a structural probe.
func (p *CSVParser) Detect(content []byte, filename string) types.ImportFormat {
	if strings.HasSuffix(strings.ToLower(filename), ".csv") {
		return types.FormatCSV
	}
	if headers, err := delimitedHeaders(content, ','); err == nil && len(headers) > 0 {
		return types.FormatCSV
	}
	return types.FormatUnknown
}

// Headers returns the CSV header row.
func (p *CSVParser) Headers(content []byte) ([]string, error) {
	return delimitedHeaders(content, ',')
}

// Rows returns a streaming iterator over CSV data rows.
func (p *CSVParser) Rows(content []byte, limit int) (RowIterator, error) {
	return newDelimitedIterator(content, ',', limit)
}

// RowCount streams through the file counting data rows.
func (p *CSVParser) RowCount(content []byte) (int, error) {
	return delimitedRowCount(content, ',')
}

// Detect requires a .tsv/.txt extension and a first row that actually splits
// into more than one tab-separated column.
func (p *TSVParser) Detect(content []byte, filename string) types.ImportFormat {
	lower := strings.ToLower(filename)
	if strings.HasSuffix(lower, ".tsv") || strings.HasSuffix(lower, ".txt") {
		if headers, err := delimitedHeaders(content, '\t'); err == nil && len(headers) > 1 {
			return types.FormatTSV
		}
	}
	return types.FormatUnknown
}

// Headers returns the TSV header row.
func (p *TSVParser) Headers(content []byte) ([]string, error) {
	return delimitedHeaders(content, '\t')
}

// Rows returns a streaming iterator over TSV data rows.
func (p *TSVParser) Rows(content []byte, limit int) (RowIterator, error) {
	return newDelimitedIterator(content, '\t', limit)
}

// RowCount streams through the file counting data rows.
func (p *TSVParser) RowCount(content []byte) (int, error) {
	return delimitedRowCount(content, '\t')
}

func delimitedHeaders(content []byte, delimiter rune) ([]string, error) {
	r := newDelimitedReader(content, delimiter)
	record, err := r.Read()
	if err != nil {
		return nil, err
	}
	headers := make([]string, len(record))
	for i, h := range record {
		headers[i] = cleanCell(h)
	}
	return headers, nil
}

func delimitedRowCount(content []byte, delimiter rune) (int, error) {
	r := newDelimitedReader(content, delimiter)
	if _, err := r.Read(); err != nil {
		if err == io.EOF {
			return 0, nil
		}
		return 0, err
	}
	count := 0
	for {
		if _, err := r.Read(); err != nil {
			if err == io.EOF {
				break
			}
			return count, err
		}
		count++
	}
	return count, nil
}

// delimitedIterator streams records from a csv.Reader, mapping each onto the
// header row.
type delimitedIterator struct {
	reader  *csv.Reader
	headers []string
	limit   int
	yielded int
}

func newDelimitedIterator(content []byte, delimiter rune, limit int) (*delimitedIterator, error) {
	r := newDelimitedReader(content, delimiter)
	record, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return &delimitedIterator{reader: r}, nil
		}
		return nil, err
	}
	headers := make([]string, len(record))
	for i, h := range record {
		headers[i] = cleanCell(h)
	}
	return &delimitedIterator{reader: r, headers: headers, limit: limit}, nil
}

func (it *delimitedIterator) Next() (Row, error) {
	if len(it.headers) == 0 {
		return nil, io.EOF
	}
	if it.limit > 0 && it.yielded >= it.limit {
		return nil, io.EOF
	}

	record, err := it.reader.Read()
	if err != nil {
		return nil, err
	}

	row := make(Row, len(it.headers))
	for i, header := range it.headers {
		if i < len(record) {
			row[header] = cleanCell(record[i])
		} else {
			row[header] = ""
		}
	}
	it.yielded++
	return row, nil
}
