package parser

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/net/html"
)

// TableExtractor returns the rows of cell text of the first table in an
// HTML document.
type TableExtractor interface {
	ExtractTable(path string) ([][]string, error)
}

// HTMLTableExtractor is the default TableExtractor.
type HTMLTableExtractor struct{}

func (HTMLTableExtractor) ExtractTable(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open report: %w", err)
	}
	defer f.Close()
	tables, err := ParseHTMLTables(f)
	if err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("%w: no table in %s", ErrFormatViolation, path)
	}
	return tables[0], nil
}

// ParseHTMLTables collects every <table> as rows of <td> text. Text spread
// over several nodes inside one cell is joined with single spaces; cells
// without text are left out of the row.
func ParseHTMLTables(r io.Reader) ([][][]string, error) {
	z := html.NewTokenizer(r)
	var (
		tables [][][]string
		table  [][]string
		row    []string
		cell   []string
		inCell bool
	)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return nil, fmt.Errorf("failed to parse report html: %w", err)
			}
			return tables, nil
		case html.StartTagToken:
			name, _ := z.TagName()
			if string(name) == "td" {
				inCell, cell = true, nil
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "td":
				if inCell && len(cell) > 0 {
					row = append(row, strings.Join(cell, " "))
				}
				inCell = false
			case "tr":
				table = append(table, row)
				row = nil
			case "table":
				tables = append(tables, table)
				table = nil
			}
		case html.TextToken:
			if inCell {
				if text := strings.TrimSpace(string(z.Text())); text != "" {
					cell = append(cell, text)
				}
			}
		}
	}
}

// ReportMetadata turns report rows into Metadata: the first cell is the key
// with its trailing colon removed, the remaining non-empty cells the value.
func ReportMetadata(rows [][]string) Metadata {
	md := make(Metadata)
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		key := strings.Trim(row[0], ":")
		var value Value
		for _, v := range row[1:] {
			if v != "" {
				value = append(value, v)
			}
		}
		md[key] = value
	}
	return md
}
