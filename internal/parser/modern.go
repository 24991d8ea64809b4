package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// WavenumberColumn marks where the per-channel columns of a v2 table begin.
const WavenumberColumn = "Wavenumber"

// commentedTable is a text table preceded by "#" comment lines.
type commentedTable struct {
	comments []string
	columns  []string
	rows     [][]string
}

// readCommentedTable splits r into its leading comment lines, the column
// header line that follows them and the remaining non-blank lines.
func readCommentedTable(r io.Reader, split func(string) []string) (*commentedTable, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), maxLineBytes)

	t := &commentedTable{}
	inHeader := true
	for scanner.Scan() {
		line := scanner.Text()
		if inHeader {
			if strings.HasPrefix(line, "#") {
				t.comments = append(t.comments, line)
				continue
			}
			inHeader = false
			t.columns = strings.Split(strings.TrimSpace(line), "\t")
			for i := range t.columns {
				t.columns[i] = strings.TrimSpace(t.columns[i])
			}
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		t.rows = append(t.rows, split(strings.TrimSpace(line)))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read table: %w", err)
	}
	if t.columns == nil {
		return nil, fmt.Errorf("%w: no column header line after comments", ErrFormatViolation)
	}
	return t, nil
}

// headerBody drops the first comment line, which carries the exporter
// banner rather than a key/value pair.
func (t *commentedTable) headerBody() []string {
	if len(t.comments) == 0 {
		return nil
	}
	return t.comments[1:]
}

func columnIndex(columns []string, name string) int {
	for i, c := range columns {
		if c == name {
			return i
		}
	}
	return -1
}

// ReadModern parses a v2 export whose column header contains "Wavenumber".
func ReadModern(path string) (*OutputTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open modern file: %w", err)
	}
	defer file.Close()
	return ParseModern(file)
}

// ParseModern reads a v2 table. Columns 0, 1 and 2 hold row, column and
// omega (depth) indices; the columns after "Wavenumber" are channels. Each
// contiguous block of depth lines belongs to one pixel and yields one output
// row per channel.
func ParseModern(r io.Reader) (*OutputTable, error) {
	t, err := readCommentedTable(r, strings.Fields)
	if err != nil {
		return nil, err
	}
	return modernFromTable(t)
}

func modernFromTable(t *commentedTable) (*OutputTable, error) {
	wn := columnIndex(t.columns, WavenumberColumn)
	if wn < 0 {
		return nil, fmt.Errorf("%w: column header has no %q column", ErrFormatViolation, WavenumberColumn)
	}
	if wn < 3 {
		return nil, fmt.Errorf("%w: %q must follow the row, column and omega columns", ErrFormatViolation, WavenumberColumn)
	}
	channels := t.columns[wn+1:]
	if len(channels) == 0 {
		return nil, fmt.Errorf("%w: no channel columns after %q", ErrFormatViolation, WavenumberColumn)
	}
	if len(t.rows) == 0 {
		return nil, fmt.Errorf("%w: no data lines", ErrFormatViolation)
	}

	var err error
	width := wn + 1 + len(channels)
	matrix := make([][]float64, len(t.rows))
	for i, cells := range t.rows {
		if len(cells) != width {
			return nil, fmt.Errorf("%w: data line %d has %d values, expected %d", ErrGeometryMismatch, i+1, len(cells), width)
		}
		matrix[i] = make([]float64, width)
		for j, cell := range cells {
			if matrix[i][j], err = parseFloatCell(cell); err != nil {
				return nil, fmt.Errorf("data line %d column %d: %w", i+1, j, err)
			}
		}
	}

	maxRow, maxCol, maxOmega := 0.0, 0.0, 0.0
	for _, row := range matrix {
		maxRow = max(maxRow, row[0])
		maxCol = max(maxCol, row[1])
		maxOmega = max(maxOmega, row[2])
	}
	numRows, numCols, depth := int(maxRow)+1, int(maxCol)+1, int(maxOmega)+1
	pixels := numRows * numCols
	if pixels*depth != len(matrix) {
		return nil, fmt.Errorf("%w: %d rows x %d columns x %d omega = %d lines, file has %d",
			ErrGeometryMismatch, numRows, numCols, depth, pixels*depth, len(matrix))
	}

	data := make([][]float64, 0, pixels*len(channels))
	meta := make([]RowMeta, 0, pixels*len(channels))
	for j := 0; j < pixels; j++ {
		block := matrix[j*depth : (j+1)*depth]
		row, col := block[0][0], block[0][1]
		for k, line := range block {
			if line[0] != row || line[1] != col {
				return nil, fmt.Errorf("%w: pixel block %d line %d has (row %g, column %g), block starts at (row %g, column %g)",
					ErrGeometryMismatch, j, k, line[0], line[1], row, col)
			}
		}
		for c, name := range channels {
			values := make([]float64, depth)
			for k, line := range block {
				values[k] = line[wn+1+c]
			}
			data = append(data, values)
			meta = append(meta, RowMeta{Row: int(row), Column: int(col), Channel: name})
		}
	}

	axis := make([]float64, depth)
	for k := 0; k < depth; k++ {
		axis[k] = matrix[k][wn]
	}

	attrs, warnings := ParseHeader(t.headerBody())
	table, err := Assemble(axis, data, meta, LayoutPixel, attrs)
	if err != nil {
		return nil, err
	}
	table.Variant = VariantModern
	table.ParseErrors = warnings
	return table, nil
}
