package parser

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Options tunes how a file is read. The zero value reads with automatic
// dialect selection, rejects unknown channels and tolerates missing runs.
type Options struct {
	// Variant forces a dialect; VariantAuto detects it.
	Variant Variant
	// SkipUnknownChannels drops legacy rows whose channel label is outside
	// the M / O<n>A / O<n>P grammar instead of failing.
	SkipUnknownChannels bool
	// RequireCompleteRuns fails when a legacy pixel lacks any run/channel
	// combination instead of averaging NaN into its rows.
	RequireCompleteRuns bool
	// Raster and Tables override the GSF collaborators.
	Raster RasterDecoder
	Tables TableExtractor
}

// Reader reads one family of NeaSPEC exports.
type Reader interface {
	Name() string
	// CanRead reports whether the reader handles the file extension of path.
	CanRead(path string) bool
	Read(path string, opts Options) (*OutputTable, error)
}

// TextReader reads legacy and modern text exports (.nea, .txt).
type TextReader struct{}

func (TextReader) Name() string { return "NeaSPEC" }

func (TextReader) CanRead(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".nea" || ext == ".txt"
}

func (TextReader) Read(path string, opts Options) (*OutputTable, error) {
	variant := opts.Variant
	if variant == VariantAuto {
		var err error
		if variant, err = DetectVariant(path); err != nil {
			return nil, err
		}
	}
	switch variant {
	case VariantLegacy:
		return ReadLegacy(path, opts)
	case VariantModern:
		return ReadModern(path)
	case VariantMultiChannel:
		return ReadMultiChannel(path)
	default:
		return nil, fmt.Errorf("text reader cannot read variant %q", variant)
	}
}

// GSFReader reads raw GSF raster pairs with their HTML report.
type GSFReader struct{}

func (GSFReader) Name() string { return "NeaSPEC raw files" }

func (GSFReader) CanRead(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".gsf")
}

func (GSFReader) Read(path string, opts Options) (*OutputTable, error) {
	return ReadGSF(path, opts)
}

// Readers lists every registered reader.
func Readers() []Reader {
	return []Reader{TextReader{}, GSFReader{}}
}

// ReaderFor returns the reader handling path, or nil.
func ReaderFor(path string) Reader {
	for _, r := range Readers() {
		if r.CanRead(path) {
			return r
		}
	}
	return nil
}

// ReadSpectra reads path with the reader matching its extension.
func ReadSpectra(path string, opts Options) (*OutputTable, error) {
	if opts.Variant == VariantGSF {
		return ReadGSF(path, opts)
	}
	r := ReaderFor(path)
	if r == nil {
		return nil, fmt.Errorf("no reader for %s", filepath.Base(path))
	}
	return r.Read(path, opts)
}

// DetectVariant picks the text dialect of path. Files starting with "# "
// are modern; among those, a column header naming "Wavenumber" selects v2
// and anything else the multichannel layout.
func DetectVariant(path string) (Variant, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return VariantAuto, err
	}
	if format == FormatLegacy {
		return VariantLegacy, nil
	}
	columns, err := columnHeader(path)
	if err != nil {
		return VariantAuto, err
	}
	if columnIndex(columns, WavenumberColumn) >= 0 {
		return VariantModern, nil
	}
	return VariantMultiChannel, nil
}

// columnHeader returns the first non-comment line split on tabs.
func columnHeader(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		return splitTabs(strings.TrimSpace(line)), nil
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return nil, fmt.Errorf("%w: no column header line after comments", ErrFormatViolation)
}
