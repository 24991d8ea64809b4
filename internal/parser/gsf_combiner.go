package parser

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/user/neaspec_go/internal/gsf"
)

// RasterDecoder returns a raster image as rows of samples.
type RasterDecoder interface {
	DecodeRaster(path string) ([][]float64, error)
}

// GSFPair names the files making up one raw GSF measurement.
type GSFPair struct {
	AmplitudePath  string
	PhasePath      string
	ReportPath     string
	AmplitudeLabel string
	PhaseLabel     string
}

// CompanionPaths derives both channel files and the HTML report from either
// channel file. The channel token (e.g. "O2A") is the second-to-last
// space-separated word of the file name: "<stem> O2A raw.gsf" pairs with
// "<stem> O2P raw.gsf" and "<stem>.html".
func CompanionPaths(path string) (GSFPair, error) {
	dir, base := filepath.Split(path)
	tokens := strings.Split(base, " ")
	if len(tokens) < 3 {
		return GSFPair{}, fmt.Errorf("%w: channel not found in file name %q", ErrFormatViolation, base)
	}
	token := strings.TrimSpace(tokens[len(tokens)-2])
	ch := ParseChannel(token)
	if ch.Kind != ChannelAmplitude && ch.Kind != ChannelPhase {
		return GSFPair{}, fmt.Errorf("%w: channel not found in file name %q", ErrFormatViolation, base)
	}

	// the token keeps its digits as written; only the trailing A/P flips
	stemToken := token[:len(token)-1]
	withChannel := func(marker string) string {
		t := append([]string(nil), tokens...)
		t[len(t)-2] = stemToken + marker
		return filepath.Join(dir, strings.Join(t, " "))
	}
	stem := strings.TrimSpace(strings.Join(tokens[:len(tokens)-2], " "))
	pair := GSFPair{
		AmplitudeLabel: AmplitudeLabel(ch.Harmonic),
		PhaseLabel:     PhaseLabel(ch.Harmonic),
		ReportPath:     filepath.Join(dir, stem+".html"),
	}
	pair.AmplitudePath = withChannel("A")
	pair.PhasePath = withChannel("P")
	return pair, nil
}

// ReadGSF reads a raw GSF measurement given either of its channel files.
func ReadGSF(path string, opts Options) (*OutputTable, error) {
	pair, err := CompanionPaths(path)
	if err != nil {
		return nil, err
	}
	decoder := opts.Raster
	if decoder == nil {
		decoder = gsf.Decoder{}
	}
	tables := opts.Tables
	if tables == nil {
		tables = HTMLTableExtractor{}
	}

	amplitude, err := decoder.DecodeRaster(pair.AmplitudePath)
	if err != nil {
		return nil, fmt.Errorf("amplitude raster: %w", err)
	}
	phase, err := decoder.DecodeRaster(pair.PhasePath)
	if err != nil {
		return nil, fmt.Errorf("phase raster: %w", err)
	}
	rows, err := tables.ExtractTable(pair.ReportPath)
	if err != nil {
		return nil, fmt.Errorf("measurement report: %w", err)
	}
	return CombineGSF(amplitude, phase, ReportMetadata(rows), pair.AmplitudeLabel, pair.PhaseLabel)
}

// CombineGSF interleaves co-registered amplitude and phase rasters into one
// row per (x, y, run) and channel. Each image row y holds px_x*averaging
// consecutive chunks of px_z samples ordered by x, then run.
func CombineGSF(amplitude, phase [][]float64, info Metadata, ampLabel, phaseLabel string) (*OutputTable, error) {
	if err := info.Require(KeyAveraging, KeyPixelArea); err != nil {
		return nil, err
	}
	averaging, err := info.GetInt(KeyAveraging)
	if err != nil {
		return nil, err
	}
	if averaging <= 0 {
		return nil, fmt.Errorf("%w: non-positive averaging %d", ErrGeometryMismatch, averaging)
	}
	pxX, pxY, pxZ, err := info.PixelArea()
	if err != nil {
		return nil, err
	}
	if len(amplitude) < pxY || len(phase) < pxY {
		return nil, fmt.Errorf("%w: rasters have %d and %d rows, pixel area needs %d",
			ErrGeometryMismatch, len(amplitude), len(phase), pxY)
	}

	width := pxX * pxZ * averaging
	data := make([][]float64, 0, 2*pxX*pxY*averaging)
	meta := make([]RowMeta, 0, 2*pxX*pxY*averaging)
	for y := 0; y < pxY; y++ {
		amp, ph := amplitude[y], phase[y]
		if len(amp) != width || len(ph) != width {
			return nil, fmt.Errorf("%w: raster row %d has %d/%d samples, want %d (%d x %d x %d)",
				ErrGeometryMismatch, y, len(amp), len(ph), width, pxX, pxZ, averaging)
		}
		i := 0
		for x := 0; x < pxX; x++ {
			for run := 0; run < averaging; run++ {
				data = append(data,
					append([]float64(nil), amp[i:i+pxZ]...),
					append([]float64(nil), ph[i:i+pxZ]...),
				)
				meta = append(meta,
					RowMeta{Column: x, Row: y, Run: run, Channel: ampLabel},
					RowMeta{Column: x, Row: y, Run: run, Channel: phaseLabel},
				)
				i += pxZ
			}
		}
	}

	axis := make([]float64, pxZ)
	for k := range axis {
		axis[k] = float64(k)
	}

	attrs := info.Clone()
	attrs[ReaderKey] = Value{RasterReaderMarker}
	table, err := Assemble(axis, data, meta, LayoutPixelRun, attrs)
	if err != nil {
		return nil, err
	}
	table.Variant = VariantGSF
	return table, nil
}
