package parser

import (
	"fmt"
	"strconv"
	"strings"
)

// ReaderKey is the attribute added to tables whose amplitude/phase rows come
// from a raw (per-run) acquisition. Downstream complex reconstruction looks
// for it before pairing rows.
const (
	ReaderKey          = "Reader"
	RasterReaderMarker = "NeaReaderGSF"
)

// Header keys required by the raw-data dialects.
const (
	KeyAveraging = "Averaging"
	KeyPixelArea = "Pixel Area (X, Y, Z)"
)

// Layout names the row metadata columns carried by a table.
type Layout int

const (
	// LayoutPixel rows carry {row, column, channel}.
	LayoutPixel Layout = iota
	// LayoutPixelRun rows carry {column, row, run, channel}.
	LayoutPixelRun
)

func (l Layout) String() string {
	switch l {
	case LayoutPixel:
		return "row,column,channel"
	case LayoutPixelRun:
		return "column,row,run,channel"
	default:
		return "unknown"
	}
}

// Columns returns the metadata column names in output order.
func (l Layout) Columns() []string {
	if l == LayoutPixelRun {
		return []string{"column", "row", "run", "channel"}
	}
	return []string{"row", "column", "channel"}
}

// RowMeta describes one data row. Run is only meaningful for LayoutPixelRun.
type RowMeta struct {
	Row     int
	Column  int
	Run     int
	Channel string
}

// Values renders the metadata cells in the order given by layout.
func (m RowMeta) Values(layout Layout) []string {
	if layout == LayoutPixelRun {
		return []string{strconv.Itoa(m.Column), strconv.Itoa(m.Row), strconv.Itoa(m.Run), m.Channel}
	}
	return []string{strconv.Itoa(m.Row), strconv.Itoa(m.Column), m.Channel}
}

// Value is a header or report value: a scalar when it holds exactly one
// item, a list otherwise.
type Value []string

// Scalar returns the single item of v.
func (v Value) Scalar() (string, bool) {
	if len(v) != 1 {
		return "", false
	}
	return v[0], true
}

func (v Value) String() string {
	if s, ok := v.Scalar(); ok {
		return s
	}
	return "[" + strings.Join(v, ", ") + "]"
}

// Metadata holds whole-table key/value attributes.
type Metadata map[string]Value

// Clone returns a copy of m whose keys and values can be changed without
// touching m.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = append(Value(nil), v...)
	}
	return out
}

func (m Metadata) GetString(key string) string {
	if v, ok := m[key]; ok {
		return v.String()
	}
	return ""
}

// GetInt parses a scalar value as an integer.
func (m Metadata) GetInt(key string) (int, error) {
	v, ok := m[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing key %q", ErrFormatViolation, key)
	}
	s, ok := v.Scalar()
	if !ok {
		return 0, fmt.Errorf("%w: key %q holds %d values, want 1", ErrFormatViolation, key, len(v))
	}
	return parseIntCell(s)
}

// GetIntAt parses the idx-th item of a list value as an integer.
func (m Metadata) GetIntAt(key string, idx int) (int, error) {
	v, ok := m[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing key %q", ErrFormatViolation, key)
	}
	if idx < 0 || idx >= len(v) {
		return 0, fmt.Errorf("%w: key %q has %d values, need index %d", ErrFormatViolation, key, len(v), idx)
	}
	return parseIntCell(v[idx])
}

// Require fails with ErrFormatViolation naming every absent key.
func (m Metadata) Require(keys ...string) error {
	var missing []string
	for _, k := range keys {
		if _, ok := m[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required key(s) %s", ErrFormatViolation, strings.Join(missing, ", "))
	}
	return nil
}

// PixelArea returns the (columns, rows, depth) triple from the
// "Pixel Area (X, Y, Z)" value. Item 0 is a unit label and is skipped.
func (m Metadata) PixelArea() (cols, rows, depth int, err error) {
	if cols, err = m.GetIntAt(KeyPixelArea, 1); err != nil {
		return 0, 0, 0, err
	}
	if rows, err = m.GetIntAt(KeyPixelArea, 2); err != nil {
		return 0, 0, 0, err
	}
	if depth, err = m.GetIntAt(KeyPixelArea, 3); err != nil {
		return 0, 0, 0, err
	}
	if cols <= 0 || rows <= 0 || depth <= 0 {
		return 0, 0, 0, fmt.Errorf("%w: non-positive pixel area %dx%dx%d", ErrGeometryMismatch, cols, rows, depth)
	}
	return cols, rows, depth, nil
}

// OutputTable is the columnar result of every reader.
type OutputTable struct {
	X          []float64
	Data       [][]float64
	Meta       []RowMeta
	Layout     Layout
	Attributes Metadata
	// Variant names the dialect that produced the table.
	Variant Variant
	// ParseErrors collects non-fatal anomalies found while reading.
	ParseErrors []string
}

// NumRows returns the number of data rows.
func (t *OutputTable) NumRows() int { return len(t.Data) }

// Channels returns the distinct channel labels in first-seen order.
func (t *OutputTable) Channels() []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range t.Meta {
		if !seen[m.Channel] {
			seen[m.Channel] = true
			out = append(out, m.Channel)
		}
	}
	return out
}

func parseIntCell(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	// Index columns are sometimes written as floats ("3.0").
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrFormatViolation, s)
	}
	return int(f), nil
}

func parseFloatCell(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrFormatViolation, s)
	}
	return f, nil
}
