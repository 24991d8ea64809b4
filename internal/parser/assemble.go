package parser

import "fmt"

// Assemble packages an axis, a data matrix and its row metadata into an
// OutputTable. Every data row must be as long as x and there must be one
// metadata entry per row. attrs is copied.
func Assemble(x []float64, data [][]float64, meta []RowMeta, layout Layout, attrs Metadata) (*OutputTable, error) {
	if len(data) != len(meta) {
		return nil, fmt.Errorf("%w: %d data rows but %d metadata rows", ErrGeometryMismatch, len(data), len(meta))
	}
	for i, row := range data {
		if len(row) != len(x) {
			return nil, fmt.Errorf("%w: data row %d has %d samples, axis has %d", ErrGeometryMismatch, i, len(row), len(x))
		}
	}
	if attrs == nil {
		attrs = make(Metadata)
	} else {
		attrs = attrs.Clone()
	}
	return &OutputTable{
		X:          x,
		Data:       data,
		Meta:       meta,
		Layout:     layout,
		Attributes: attrs,
	}, nil
}
