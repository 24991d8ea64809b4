// Package export writes assembled spectral tables to TSV and JSON.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/user/neaspec_go/internal/parser"
)

// Format is an output encoding.
type Format string

const (
	FormatTSV  Format = "tsv"
	FormatJSON Format = "json"
)

// ParseFormat accepts "tsv" or "json" in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatTSV, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want tsv or json)", s)
	}
}

// Extension returns the file extension for f, including the dot.
func (f Format) Extension() string { return "." + string(f) }

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteTSV writes one header line (metadata column names then axis values)
// followed by one line per data row.
func WriteTSV(w io.Writer, table *parser.OutputTable) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'

	header := table.Layout.Columns()
	for _, x := range table.X {
		header = append(header, formatValue(x))
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, row := range table.Data {
		record := table.Meta[i].Values(table.Layout)
		for _, v := range row {
			record = append(record, formatValue(v))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// jsonFloat encodes NaN and infinities as null.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

type jsonRow struct {
	Row     int         `json:"row"`
	Column  int         `json:"column"`
	Run     *int        `json:"run,omitempty"`
	Channel string      `json:"channel"`
	Values  []jsonFloat `json:"values"`
}

type jsonTable struct {
	Variant     string              `json:"variant,omitempty"`
	Layout      string              `json:"layout"`
	Attributes  map[string][]string `json:"attributes"`
	X           []jsonFloat         `json:"x"`
	Rows        []jsonRow           `json:"rows"`
	ParseErrors []string            `json:"parse_errors,omitempty"`
}

func toJSONFloats(vs []float64) []jsonFloat {
	out := make([]jsonFloat, len(vs))
	for i, v := range vs {
		out[i] = jsonFloat(v)
	}
	return out
}

// WriteJSON writes table as one indented JSON document.
func WriteJSON(w io.Writer, table *parser.OutputTable) error {
	doc := jsonTable{
		Variant:     string(table.Variant),
		Layout:      table.Layout.String(),
		Attributes:  make(map[string][]string, len(table.Attributes)),
		X:           toJSONFloats(table.X),
		Rows:        make([]jsonRow, len(table.Data)),
		ParseErrors: table.ParseErrors,
	}
	for k, v := range table.Attributes {
		doc.Attributes[k] = []string(v)
	}
	for i, row := range table.Data {
		m := table.Meta[i]
		jr := jsonRow{Row: m.Row, Column: m.Column, Channel: m.Channel, Values: toJSONFloats(row)}
		if table.Layout == parser.LayoutPixelRun {
			run := m.Run
			jr.Run = &run
		}
		doc.Rows[i] = jr
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding table: %w", err)
	}
	return nil
}

// Write encodes table in format f.
func Write(w io.Writer, table *parser.OutputTable, f Format) error {
	switch f {
	case FormatTSV:
		return WriteTSV(w, table)
	case FormatJSON:
		return WriteJSON(w, table)
	default:
		return fmt.Errorf("unknown output format %q", f)
	}
}

// WriteFile encodes table into path, creating parent directories.
func WriteFile(path string, table *parser.OutputTable, f Format) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := Write(out, table, f); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
