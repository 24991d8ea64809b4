package parser

import (
	"errors"
	"testing"
)

func TestAssemble(t *testing.T) {
	x := []float64{1, 2}
	meta := []RowMeta{{Channel: "O1A"}, {Channel: "O1P"}}

	t.Run("valid", func(t *testing.T) {
		attrs := Metadata{"k": {"v"}}
		table, err := Assemble(x, [][]float64{{1, 2}, {3, 4}}, meta, LayoutPixel, attrs)
		if err != nil {
			t.Fatalf("Assemble: %v", err)
		}
		table.Attributes["extra"] = Value{"x"}
		if _, ok := attrs["extra"]; ok {
			t.Error("attributes alias the input map")
		}
		if got := table.Channels(); len(got) != 2 || got[0] != "O1A" || got[1] != "O1P" {
			t.Errorf("Channels = %v", got)
		}
	})

	t.Run("nil attributes", func(t *testing.T) {
		table, err := Assemble(x, [][]float64{{1, 2}, {3, 4}}, meta, LayoutPixel, nil)
		if err != nil {
			t.Fatalf("Assemble: %v", err)
		}
		if table.Attributes == nil {
			t.Error("Attributes is nil")
		}
	})

	t.Run("meta count mismatch", func(t *testing.T) {
		_, err := Assemble(x, [][]float64{{1, 2}}, meta, LayoutPixel, nil)
		if !errors.Is(err, ErrGeometryMismatch) {
			t.Errorf("err = %v, want ErrGeometryMismatch", err)
		}
	})

	t.Run("row length mismatch", func(t *testing.T) {
		_, err := Assemble(x, [][]float64{{1, 2}, {3}}, meta, LayoutPixel, nil)
		if !errors.Is(err, ErrGeometryMismatch) {
			t.Errorf("err = %v, want ErrGeometryMismatch", err)
		}
	})
}

func TestLayoutColumns(t *testing.T) {
	m := RowMeta{Row: 1, Column: 2, Run: 3, Channel: "O1A"}
	if got := m.Values(LayoutPixelRun); len(got) != 4 || got[0] != "2" || got[1] != "1" || got[2] != "3" {
		t.Errorf("pixel-run values = %v", got)
	}
	if got := m.Values(LayoutPixel); len(got) != 3 || got[0] != "1" || got[1] != "2" || got[2] != "O1A" {
		t.Errorf("pixel values = %v", got)
	}
	if len(LayoutPixelRun.Columns()) != 4 || len(LayoutPixel.Columns()) != 3 {
		t.Error("column name counts do not match value counts")
	}
}

func TestReaderFor(t *testing.T) {
	tests := map[string]string{
		"a.nea":            "NeaSPEC",
		"a.TXT":            "NeaSPEC",
		"a O1A raw.gsf":    "NeaSPEC raw files",
		"notes.html":       "",
		"no_extension_file": "",
	}
	for path, want := range tests {
		r := ReaderFor(path)
		got := ""
		if r != nil {
			got = r.Name()
		}
		if got != want {
			t.Errorf("ReaderFor(%q) = %q, want %q", path, got, want)
		}
	}
}
