package parser

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/user/neaspec_go/internal/gsf"
	"github.com/user/neaspec_go/internal/testutil"
)

type fakeRaster map[string][][]float64

func (f fakeRaster) DecodeRaster(path string) ([][]float64, error) {
	rows, ok := f[path]
	if !ok {
		return nil, fmt.Errorf("no raster %s", path)
	}
	return rows, nil
}

type fakeTables [][]string

func (f fakeTables) ExtractTable(string) ([][]string, error) { return f, nil }

const (
	gsfPxX = 2
	gsfPxY = 2
	gsfPxZ = 3
	gsfAvg = 2
)

func gsfReportRows() [][]string {
	return [][]string{
		{"Averaging:", "2"},
		{"Pixel Area (X, Y, Z):", "px", "2", "2", "3"},
		{"Project:", "demo"},
		{"Description:", ""},
	}
}

// raster builds pxY rows of pxX*pxZ*averaging samples; offset separates
// amplitude from phase.
func raster(offset float64) [][]float64 {
	width := gsfPxX * gsfPxZ * gsfAvg
	rows := make([][]float64, gsfPxY)
	for y := range rows {
		rows[y] = make([]float64, width)
		for i := range rows[y] {
			rows[y][i] = offset + float64(100*y+i)
		}
	}
	return rows
}

func TestCompanionPaths(t *testing.T) {
	dir := filepath.Join("data", "2024")
	want := GSFPair{
		AmplitudePath:  filepath.Join(dir, "scan 01 O2A raw.gsf"),
		PhasePath:      filepath.Join(dir, "scan 01 O2P raw.gsf"),
		ReportPath:     filepath.Join(dir, "scan 01.html"),
		AmplitudeLabel: "O2A",
		PhaseLabel:     "O2P",
	}
	for _, in := range []string{want.AmplitudePath, want.PhasePath} {
		t.Run(filepath.Base(in), func(t *testing.T) {
			got, err := CompanionPaths(in)
			if err != nil {
				t.Fatalf("CompanionPaths: %v", err)
			}
			if got != want {
				t.Errorf("got %+v, want %+v", got, want)
			}
		})
	}

	t.Run("zero padded token", func(t *testing.T) {
		got, err := CompanionPaths(filepath.Join(dir, "scan O02A raw.gsf"))
		if err != nil {
			t.Fatalf("CompanionPaths: %v", err)
		}
		if got.PhasePath != filepath.Join(dir, "scan O02P raw.gsf") {
			t.Errorf("PhasePath = %q", got.PhasePath)
		}
		if got.AmplitudePath != filepath.Join(dir, "scan O02A raw.gsf") {
			t.Errorf("AmplitudePath = %q", got.AmplitudePath)
		}
		if got.AmplitudeLabel != "O2A" || got.PhaseLabel != "O2P" {
			t.Errorf("labels = %q %q", got.AmplitudeLabel, got.PhaseLabel)
		}
	})

	for _, bad := range []string{"scan.gsf", "scan raw.gsf", "scan M raw.gsf", "scan O2X raw.gsf"} {
		t.Run(bad, func(t *testing.T) {
			if _, err := CompanionPaths(bad); !errors.Is(err, ErrFormatViolation) {
				t.Errorf("err = %v, want ErrFormatViolation", err)
			}
		})
	}
}

func TestCombineGSF(t *testing.T) {
	info := ReportMetadata(gsfReportRows())
	amp, phase := raster(0), raster(0.5)

	table, err := CombineGSF(amp, phase, info, "O2A", "O2P")
	if err != nil {
		t.Fatalf("CombineGSF: %v", err)
	}

	t.Run("row count", func(t *testing.T) {
		if want := 2 * gsfPxX * gsfPxY * gsfAvg; table.NumRows() != want {
			t.Fatalf("rows = %d, want %d", table.NumRows(), want)
		}
	})

	t.Run("chunks follow x then run", func(t *testing.T) {
		for y := 0; y < gsfPxY; y++ {
			for x := 0; x < gsfPxX; x++ {
				for run := 0; run < gsfAvg; run++ {
					i := 2 * ((y*gsfPxX+x)*gsfAvg + run)
					start := (x*gsfAvg + run) * gsfPxZ
					wantA := RowMeta{Column: x, Row: y, Run: run, Channel: "O2A"}
					wantP := RowMeta{Column: x, Row: y, Run: run, Channel: "O2P"}
					if table.Meta[i] != wantA || table.Meta[i+1] != wantP {
						t.Fatalf("meta[%d:%d] = %+v %+v", i, i+2, table.Meta[i], table.Meta[i+1])
					}
					testutil.RequireSliceNearlyEqual(t, table.Data[i], amp[y][start:start+gsfPxZ], 0)
					testutil.RequireSliceNearlyEqual(t, table.Data[i+1], phase[y][start:start+gsfPxZ], 0)
				}
			}
		}
	})

	t.Run("rows do not alias the rasters", func(t *testing.T) {
		amp[0][0] = -1
		if table.Data[0][0] == -1 {
			t.Fatal("output row shares storage with the input raster")
		}
	})

	t.Run("attributes pass through with one reader marker", func(t *testing.T) {
		if len(table.Attributes) != len(info)+1 {
			t.Fatalf("attributes = %d keys, want %d", len(table.Attributes), len(info)+1)
		}
		for k, v := range info {
			if table.Attributes.GetString(k) != v.String() {
				t.Errorf("%s = %q, want %q", k, table.Attributes.GetString(k), v.String())
			}
		}
		if got := table.Attributes.GetString(ReaderKey); got != RasterReaderMarker {
			t.Errorf("Reader = %q", got)
		}
		if _, ok := info[ReaderKey]; ok {
			t.Error("input metadata was modified")
		}
	})

	t.Run("axis", func(t *testing.T) {
		testutil.RequireSliceNearlyEqual(t, table.X, []float64{0, 1, 2}, 0)
		if table.Layout != LayoutPixelRun || table.Variant != VariantGSF {
			t.Errorf("layout %v variant %q", table.Layout, table.Variant)
		}
	})
}

func TestCombineGSFErrors(t *testing.T) {
	info := ReportMetadata(gsfReportRows())

	t.Run("missing key", func(t *testing.T) {
		partial := ReportMetadata(gsfReportRows()[1:])
		_, err := CombineGSF(raster(0), raster(0), partial, "O2A", "O2P")
		if !errors.Is(err, ErrFormatViolation) {
			t.Fatalf("err = %v, want ErrFormatViolation", err)
		}
	})

	t.Run("too few raster rows", func(t *testing.T) {
		_, err := CombineGSF(raster(0)[:1], raster(0), info, "O2A", "O2P")
		if !errors.Is(err, ErrGeometryMismatch) {
			t.Fatalf("err = %v, want ErrGeometryMismatch", err)
		}
	})

	t.Run("wrong row width", func(t *testing.T) {
		short := raster(0)
		short[1] = short[1][:5]
		_, err := CombineGSF(raster(0), short, info, "O2A", "O2P")
		if !errors.Is(err, ErrGeometryMismatch) {
			t.Fatalf("err = %v, want ErrGeometryMismatch", err)
		}
	})
}

func TestReadGSFWithCollaborators(t *testing.T) {
	pair, err := CompanionPaths(filepath.Join("scans", "tip O2P raw.gsf"))
	if err != nil {
		t.Fatal(err)
	}
	opts := Options{
		Raster: fakeRaster{pair.AmplitudePath: raster(0), pair.PhasePath: raster(0.5)},
		Tables: fakeTables(gsfReportRows()),
	}
	table, err := ReadSpectra(pair.PhasePath, opts)
	if err != nil {
		t.Fatalf("ReadSpectra: %v", err)
	}
	if table.NumRows() != 16 {
		t.Errorf("rows = %d, want 16", table.NumRows())
	}
	if table.Meta[0].Channel != "O2A" {
		t.Errorf("first row channel = %s, want O2A", table.Meta[0].Channel)
	}
}

func TestReadGSFFromDisk(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, rows [][]float64) {
		img := &gsf.Image{XRes: len(rows[0]), YRes: len(rows), Header: gsf.NewHeader()}
		for _, r := range rows {
			img.Data = append(img.Data, r...)
		}
		f, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			t.Fatal(err)
		}
		defer f.Close()
		if err := gsf.Encode(f, img); err != nil {
			t.Fatal(err)
		}
	}
	write("tip O1A raw.gsf", raster(0))
	write("tip O1P raw.gsf", raster(0.5))
	testutil.WriteFile(t, dir, "tip.html", `<html><body><table>
<tr><td>Averaging:</td><td>2</td></tr>
<tr><td>Pixel Area (X, Y, Z):</td><td>px</td><td>2</td><td>2</td><td>3</td></tr>
</table></body></html>`)

	table, err := ReadSpectra(filepath.Join(dir, "tip O1A raw.gsf"), Options{})
	if err != nil {
		t.Fatalf("ReadSpectra: %v", err)
	}
	if table.NumRows() != 16 {
		t.Fatalf("rows = %d, want 16", table.NumRows())
	}
	// float32 storage is exact for these small integers and halves
	testutil.RequireSliceNearlyEqual(t, table.Data[1], []float64{0.5, 1.5, 2.5}, 0)
	if got := table.Attributes.GetString(ReaderKey); got != RasterReaderMarker {
		t.Errorf("Reader = %q", got)
	}
}
