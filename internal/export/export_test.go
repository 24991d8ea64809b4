package export

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/user/neaspec_go/internal/parser"
)

func pixelTable(t *testing.T) *parser.OutputTable {
	t.Helper()
	table, err := parser.Assemble(
		[]float64{1, 2.5},
		[][]float64{{1, math.NaN()}, {-0.25, 3}},
		[]parser.RowMeta{{Row: 0, Column: 1, Channel: "O1A"}, {Row: 0, Column: 1, Channel: "O1P"}},
		parser.LayoutPixel,
		parser.Metadata{"Project": {"demo"}},
	)
	if err != nil {
		t.Fatal(err)
	}
	return table
}

func TestWriteTSV(t *testing.T) {
	t.Run("pixel layout", func(t *testing.T) {
		var buf bytes.Buffer
		if err := WriteTSV(&buf, pixelTable(t)); err != nil {
			t.Fatalf("WriteTSV: %v", err)
		}
		want := "row\tcolumn\tchannel\t1\t2.5\n" +
			"0\t1\tO1A\t1\tNaN\n" +
			"0\t1\tO1P\t-0.25\t3\n"
		if buf.String() != want {
			t.Errorf("got:\n%s\nwant:\n%s", buf.String(), want)
		}
	})

	t.Run("pixel-run layout", func(t *testing.T) {
		table, err := parser.Assemble([]float64{0}, [][]float64{{7}},
			[]parser.RowMeta{{Row: 2, Column: 1, Run: 3, Channel: "O2A"}}, parser.LayoutPixelRun, nil)
		if err != nil {
			t.Fatal(err)
		}
		var buf bytes.Buffer
		if err := WriteTSV(&buf, table); err != nil {
			t.Fatalf("WriteTSV: %v", err)
		}
		want := "column\trow\trun\tchannel\t0\n1\t2\t3\tO2A\t7\n"
		if buf.String() != want {
			t.Errorf("got %q, want %q", buf.String(), want)
		}
	})
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, pixelTable(t)); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var doc struct {
		Layout     string              `json:"layout"`
		Attributes map[string][]string `json:"attributes"`
		X          []float64           `json:"x"`
		Rows       []struct {
			Row     int        `json:"row"`
			Column  int        `json:"column"`
			Run     *int       `json:"run"`
			Channel string     `json:"channel"`
			Values  []*float64 `json:"values"`
		} `json:"rows"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if len(doc.Rows) != 2 || doc.Rows[0].Channel != "O1A" || doc.Rows[0].Column != 1 {
		t.Fatalf("rows = %+v", doc.Rows)
	}
	if doc.Rows[0].Run != nil {
		t.Error("pixel layout rows carry a run")
	}
	if doc.Rows[0].Values[1] != nil {
		t.Errorf("NaN encoded as %v, want null", *doc.Rows[0].Values[1])
	}
	if v := doc.Rows[1].Values[0]; v == nil || *v != -0.25 {
		t.Errorf("value = %v", v)
	}
	if doc.Attributes["Project"][0] != "demo" || len(doc.X) != 2 {
		t.Errorf("attributes %v x %v", doc.Attributes, doc.X)
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"tsv": FormatTSV, "JSON": FormatJSON} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("xml accepted")
	}
	if FormatJSON.Extension() != ".json" {
		t.Errorf("extension = %q", FormatJSON.Extension())
	}
}

func TestWriteFileCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.tsv")
	if err := WriteFile(path, pixelTable(t), FormatTSV); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Errorf("stat = %v, %v", info, err)
	}
}
