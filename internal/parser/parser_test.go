package parser

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/bulk-importer/internal/types"
)

func drain(t *testing.T, it RowIterator) []Row {
	t.Helper()
	var rows []Row
	for {
		row, err := it.Next()
		if err == io.EOF {
			return rows
		}
		require.NoError(t, err)
		rows = append(rows, row)
	}
}

func xlsxFixture(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	return buf.Bytes()
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		filename string
		want     types.ImportFormat
	}{
		{"csv by extension", "a,b\n1,2\n", "people.csv", types.FormatCSV},
		{"csv by probe", "a,b\n1,2\n", "export.dat", types.FormatCSV},
		{"tsv by extension", "a\tb\n1\t2\n", "people.tsv", types.FormatTSV},
		{"txt with tabs", "a\tb\n1\t2\n", "people.txt", types.FormatTSV},
		{"json array", `[{"a": 1}]`, "rows.json", types.FormatJSON},
		{"json probe", `[{"a": 1}]`, "rows.dump", types.FormatJSON},
		{"undetectable", "\n\n", "data.bin", types.FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectFormat([]byte(tt.content), tt.filename))
		})
	}
}

func TestDetectFormatXLSX(t *testing.T) {
	content := xlsxFixture(t, [][]interface{}{{"Name"}, {"Ada"}})
	assert.Equal(t, types.FormatXLSX, DetectFormat(content, "people.xlsx"))
}

func TestCSVHeadersAreTrimmed(t *testing.T) {
	p := &CSVParser{}
	headers, err := p.Headers([]byte(" First Name , Surname \nAda,Lovelace\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"First Name", "Surname"}, headers)
}

func TestCSVRowsMapOntoHeaders(t *testing.T) {
	p := &CSVParser{}
	it, err := p.Rows([]byte("name,email\nAda,ada@example.com\nGrace,grace@example.com\n"), 0)
	require.NoError(t, err)

	rows := drain(t, it)
	require.Len(t, rows, 2)
	assert.Equal(t, Row{"name": "Ada", "email": "ada@example.com"}, rows[0])
	assert.Equal(t, Row{"name": "Grace", "email": "grace@example.com"}, rows[1])
}

func TestCSVRowsHonorLimit(t *testing.T) {
	p := &CSVParser{}
	it, err := p.Rows([]byte("n\n1\n2\n3\n4\n"), 2)
	require.NoError(t, err)
	assert.Len(t, drain(t, it), 2)
}

func TestCSVRaggedRows(t *testing.T) {
	p := &CSVParser{}
	it, err := p.Rows([]byte("a,b,c\n1,2\n1,2,3,4\n"), 0)
	require.NoError(t, err)

	rows := drain(t, it)
	require.Len(t, rows, 2)
	// Short rows pad to the header; long rows drop the overflow.
	assert.Equal(t, Row{"a": "1", "b": "2", "c": ""}, rows[0])
	assert.Equal(t, Row{"a": "1", "b": "2", "c": "3"}, rows[1])
}

func TestCSVQuotedCells(t *testing.T) {
	p := &CSVParser{}
	it, err := p.Rows([]byte("name,notes\nAda,\"likes commas, a lot\"\n"), 0)
	require.NoError(t, err)

	rows := drain(t, it)
	require.Len(t, rows, 1)
	assert.Equal(t, "likes commas, a lot", rows[0]["notes"])
}

func TestCSVRowCountExcludesHeader(t *testing.T) {
	p := &CSVParser{}

	count, err := p.RowCount([]byte("a,b\n1,2\n3,4\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = p.RowCount([]byte(""))
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestTSVRows(t *testing.T) {
	p := &TSVParser{}
	it, err := p.Rows([]byte("name\temail\nAda\tada@example.com\n"), 0)
	require.NoError(t, err)

	rows := drain(t, it)
	require.Len(t, rows, 1)
	assert.Equal(t, Row{"name": "Ada", "email": "ada@example.com"}, rows[0])
}

func TestJSONHeadersKeepDocumentOrder(t *testing.T) {
	p := &JSONParser{}
	headers, err := p.Headers([]byte(`[{"zeta": 1, "alpha": 2, "mid": 3}]`))
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, headers)
}

func TestJSONRowsStringifyValues(t *testing.T) {
	p := &JSONParser{}
	it, err := p.Rows([]byte(`[{"name": "Ada", "count": 120, "active": true, "note": null}]`), 0)
	require.NoError(t, err)

	rows := drain(t, it)
	require.Len(t, rows, 1)
	assert.Equal(t, "Ada", rows[0]["name"])
	assert.Equal(t, "120", rows[0]["count"])
	assert.Equal(t, "true", rows[0]["active"])
	assert.Equal(t, "", rows[0]["note"])
}

func TestJSONSingleObjectIsOneRow(t *testing.T) {
	p := &JSONParser{}

	count, err := p.RowCount([]byte(`{"name": "Ada"}`))
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestJSONRejectsScalarDocument(t *testing.T) {
	p := &JSONParser{}
	_, err := p.Rows([]byte(`42`), 0)
	assert.Error(t, err)
}

func TestXLSXRows(t *testing.T) {
	content := xlsxFixture(t, [][]interface{}{
		{"Name", "Amount"},
		{"Ada", 100},
		{"Grace", 250},
	})

	p := &XLSXParser{}

	headers, err := p.Headers(content)
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Amount"}, headers)

	count, err := p.RowCount(content)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	it, err := p.Rows(content, 0)
	require.NoError(t, err)
	rows := drain(t, it)
	require.Len(t, rows, 2)
	assert.Equal(t, Row{"Name": "Ada", "Amount": "100"}, rows[0])
	assert.Equal(t, Row{"Name": "Grace", "Amount": "250"}, rows[1])
}
