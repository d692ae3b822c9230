package parser

import (
	"bytes"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/bulk-importer/internal/types"
)

// XLSXParser reads Excel workbooks. The whole sheet is loaded into memory;
// the upload boundary enforces the file size cap.
type XLSXParser struct{}

// Detect classifies XLSX content by extension or MIME type.
func (p *XLSXParser) Detect(content []byte, filename string) types.ImportFormat {
	lower := strings.ToLower(filename)
	if strings.HasSuffix(lower, ".xlsx") || strings.HasSuffix(lower, ".xlsm") {
		return types.FormatXLSX
	}
	switch mime.TypeByExtension(filepath.Ext(lower)) {
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"application/vnd.ms-excel":
		return types.FormatXLSX
	}
	return types.FormatUnknown
}

// Headers returns the first row of the first sheet.
func (p *XLSXParser) Headers(content []byte) ([]string, error) {
	rows, err := p.sheetRows(content)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []string{}, nil
	}
	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}
	return headers, nil
}

// Rows returns an iterator over the sheet's data rows.
func (p *XLSXParser) Rows(content []byte, limit int) (RowIterator, error) {
	raw, err := p.sheetRows(content)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return &sliceIterator{}, nil
	}

	headers := make([]string, len(raw[0]))
	for i, h := range raw[0] {
		headers[i] = strings.TrimSpace(h)
	}

	rows := make([]Row, 0, len(raw)-1)
	for _, record := range raw[1:] {
		if limit > 0 && len(rows) >= limit {
			break
		}
		row := make(Row, len(headers))
		for i, header := range headers {
			if i < len(record) {
				row[header] = strings.TrimSpace(record[i])
			} else {
				row[header] = ""
			}
		}
		rows = append(rows, row)
	}
	return &sliceIterator{rows: rows}, nil
}

// RowCount returns the number of data rows on the first sheet.
func (p *XLSXParser) RowCount(content []byte) (int, error) {
	rows, err := p.sheetRows(content)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return len(rows) - 1, nil
}

func (p *XLSXParser) sheetRows(content []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}
