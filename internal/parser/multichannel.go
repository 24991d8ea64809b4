package parser

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// multiChannelColumn selects raw amplitude/phase columns of harmonics 1-9.
var multiChannelColumn = regexp.MustCompile(`^O[1-9][AP]`)

// ReadMultiChannel parses a multichannel raw export.
func ReadMultiChannel(path string) (*OutputTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open multichannel file: %w", err)
	}
	defer file.Close()
	return ParseMultiChannel(file)
}

// ParseMultiChannel reads a raw export whose "# key:\tvalue" header declares
// the averaging count and the pixel area. Each (row, column, run) owns depth
// consecutive data lines; every selected channel column of that block
// becomes one output row.
func ParseMultiChannel(r io.Reader) (*OutputTable, error) {
	t, err := readCommentedTable(r, splitTabs)
	if err != nil {
		return nil, err
	}
	return multiChannelFromTable(t)
}

func splitTabs(line string) []string { return strings.Split(line, "\t") }

func multiChannelFromTable(t *commentedTable) (*OutputTable, error) {
	if len(t.comments) == 0 {
		return nil, fmt.Errorf("%w: no header found", ErrFormatViolation)
	}
	info, warnings := ParseHeader(t.headerBody())
	if err := info.Require(KeyAveraging, KeyPixelArea); err != nil {
		return nil, err
	}
	cols, rows, depth, err := info.PixelArea()
	if err != nil {
		return nil, err
	}
	runs, err := info.GetInt(KeyAveraging)
	if err != nil {
		return nil, err
	}
	if runs <= 0 {
		return nil, fmt.Errorf("%w: non-positive averaging %d", ErrGeometryMismatch, runs)
	}

	var channelCols []int
	for i, name := range t.columns {
		if multiChannelColumn.MatchString(name) {
			channelCols = append(channelCols, i)
		}
	}
	rowIdx := columnIndex(t.columns, "Row")
	colIdx := columnIndex(t.columns, "Column")
	runIdx := columnIndex(t.columns, "Run")
	if rowIdx < 0 || colIdx < 0 || runIdx < 0 {
		return nil, fmt.Errorf("%w: column header needs Row, Column and Run", ErrFormatViolation)
	}

	need := rows * cols * runs * depth
	if len(t.rows) < need {
		return nil, fmt.Errorf("%w: %d rows x %d columns x %d runs x %d depth needs %d data lines, file has %d",
			ErrGeometryMismatch, rows, cols, runs, depth, need, len(t.rows))
	}
	if len(t.rows) > need {
		warnings = append(warnings, fmt.Sprintf("ignoring %d data lines beyond the declared pixel area", len(t.rows)-need))
	}

	outRows := len(channelCols) * runs * rows * cols
	data := make([][]float64, outRows)
	meta := make([]RowMeta, outRows)
	for row := 0; row < rows; row++ {
		for column := 0; column < cols; column++ {
			for run := 0; run < runs; run++ {
				step := row*cols*runs + column*runs + run
				start := depth * step
				block := t.rows[start : start+depth]
				id, err := blockIndex(block, start, rowIdx, colIdx, runIdx)
				if err != nil {
					return nil, err
				}
				for c, ci := range channelCols {
					values := make([]float64, depth)
					for k, cells := range block {
						if ci >= len(cells) {
							return nil, fmt.Errorf("%w: data line %d has %d cells, channel %s is column %d",
								ErrGeometryMismatch, start+k+1, len(cells), t.columns[ci], ci)
						}
						if values[k], err = parseFloatCell(cells[ci]); err != nil {
							return nil, fmt.Errorf("data line %d %s: %w", start+k+1, t.columns[ci], err)
						}
					}
					out := step*len(channelCols) + c
					data[out] = values
					meta[out] = RowMeta{Row: id.Row, Column: id.Column, Run: id.Run, Channel: t.columns[ci]}
				}
			}
		}
	}

	axis := make([]float64, depth)
	for k := range axis {
		axis[k] = float64(k)
	}

	info[ReaderKey] = Value{RasterReaderMarker}
	table, err := Assemble(axis, data, meta, LayoutPixelRun, info)
	if err != nil {
		return nil, err
	}
	table.Variant = VariantMultiChannel
	table.ParseErrors = warnings
	return table, nil
}

// blockIndex reads the (row, column, run) recorded on the first line of a
// block and checks that every line of the block repeats it.
func blockIndex(block [][]string, start, rowIdx, colIdx, runIdx int) (RowMeta, error) {
	var first RowMeta
	for k, cells := range block {
		if len(cells) <= max(rowIdx, colIdx, runIdx) {
			return first, fmt.Errorf("%w: data line %d has %d cells", ErrGeometryMismatch, start+k+1, len(cells))
		}
		var id RowMeta
		var err error
		if id.Row, err = parseIntCell(cells[rowIdx]); err != nil {
			return first, fmt.Errorf("data line %d Row: %w", start+k+1, err)
		}
		if id.Column, err = parseIntCell(cells[colIdx]); err != nil {
			return first, fmt.Errorf("data line %d Column: %w", start+k+1, err)
		}
		if id.Run, err = parseIntCell(cells[runIdx]); err != nil {
			return first, fmt.Errorf("data line %d Run: %w", start+k+1, err)
		}
		if k == 0 {
			first = id
			continue
		}
		if id != first {
			return first, fmt.Errorf("%w: data line %d is (row %d, column %d, run %d), block starts at (row %d, column %d, run %d)",
				ErrGeometryMismatch, start+k+1, id.Row, id.Column, id.Run, first.Row, first.Column, first.Run)
		}
	}
	return first, nil
}
