package parser

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/user/neaspec_go/internal/resample"
)

// legacyMetaCols is the number of leading index columns on every data line:
// row, column, run, channel.
const legacyMetaCols = 4

const maxLineBytes = 64 * 1024 * 1024

type rawRecord struct {
	row, col, run int
	channel       Channel
	samples       []float64
}

type pixelKey struct{ row, col int }

// pixelSeries accumulates the samples of one (row, column) pixel. Unset
// slots hold NaN and have their presence flag cleared.
type pixelSeries struct {
	m     [][]float64   // [run][sample]
	oa    [][][]float64 // [harmonic][run][sample]
	op    [][][]float64
	hasM  []bool
	hasOA [][]bool
	hasOP [][]bool
}

func newPixelSeries(harmonics, runs, samples int) *pixelSeries {
	ps := &pixelSeries{
		m:     make([][]float64, runs),
		hasM:  make([]bool, runs),
		oa:    make([][][]float64, harmonics),
		op:    make([][][]float64, harmonics),
		hasOA: make([][]bool, harmonics),
		hasOP: make([][]bool, harmonics),
	}
	for r := 0; r < runs; r++ {
		ps.m[r] = resample.NaNs(samples)
	}
	for h := 0; h < harmonics; h++ {
		ps.oa[h] = make([][]float64, runs)
		ps.op[h] = make([][]float64, runs)
		ps.hasOA[h] = make([]bool, runs)
		ps.hasOP[h] = make([]bool, runs)
		for r := 0; r < runs; r++ {
			ps.oa[h][r] = resample.NaNs(samples)
			ps.op[h][r] = resample.NaNs(samples)
		}
	}
	return ps
}

// ReadLegacy parses a legacy ("v1") tab-separated export.
func ReadLegacy(path string, opts Options) (*OutputTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open legacy file: %w", err)
	}
	defer file.Close()
	return ParseLegacy(file, opts)
}

// ParseLegacy reads the legacy layout: one discarded header line, then
// lines of "row column run channel s1 ... sk". Amplitude and phase of every
// run are interpolated onto a common axis and averaged across runs.
func ParseLegacy(r io.Reader, opts Options) (*OutputTable, error) {
	records, numSamples, warnings, err := readLegacyRecords(r, opts)
	if err != nil {
		return nil, err
	}

	numHarmonics, numRuns := 0, 0
	for _, rec := range records {
		if rec.channel.Kind == ChannelAmplitude || rec.channel.Kind == ChannelPhase {
			numHarmonics = max(numHarmonics, rec.channel.Harmonic+1)
		}
		numRuns = max(numRuns, rec.run+1)
	}

	pixels := make(map[pixelKey]*pixelSeries)
	var keys []pixelKey
	var env resample.Envelope

	for _, rec := range records {
		key := pixelKey{rec.row, rec.col}
		ps, ok := pixels[key]
		if !ok {
			ps = newPixelSeries(numHarmonics, numRuns, numSamples)
			pixels[key] = ps
			keys = append(keys, key)
		}
		var dup bool
		switch rec.channel.Kind {
		case ChannelReference:
			dup = ps.hasM[rec.run]
			ps.m[rec.run], ps.hasM[rec.run] = rec.samples, true
			env.Include(rec.samples)
		case ChannelAmplitude:
			h := rec.channel.Harmonic
			dup = ps.hasOA[h][rec.run]
			ps.oa[h][rec.run], ps.hasOA[h][rec.run] = rec.samples, true
		case ChannelPhase:
			h := rec.channel.Harmonic
			dup = ps.hasOP[h][rec.run]
			ps.op[h][rec.run], ps.hasOP[h][rec.run] = rec.samples, true
		}
		if dup {
			warnings = append(warnings, fmt.Sprintf("pixel (%d,%d) run %d channel %s appears more than once; keeping the last line",
				rec.row, rec.col, rec.run, rec.channel.Label))
		}
	}

	axis, err := resample.CommonAxis(env, numSamples)
	if err != nil {
		return nil, fmt.Errorf("%w: building common axis: %w", ErrInterpolationDomain, err)
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].row != keys[j].row {
			return keys[i].row < keys[j].row
		}
		return keys[i].col < keys[j].col
	})

	data := make([][]float64, 0, len(keys)*2*numHarmonics)
	meta := make([]RowMeta, 0, len(keys)*2*numHarmonics)
	for _, key := range keys {
		ps := pixels[key]
		missing := 0
		for h := 0; h < numHarmonics; h++ {
			amp, nA, err := averageRuns(ps.m, ps.hasM, ps.oa[h], ps.hasOA[h], axis)
			if err != nil {
				return nil, fmt.Errorf("pixel (%d,%d) %s: %w", key.row, key.col, AmplitudeLabel(h), err)
			}
			phase, nP, err := averageRuns(ps.m, ps.hasM, ps.op[h], ps.hasOP[h], axis)
			if err != nil {
				return nil, fmt.Errorf("pixel (%d,%d) %s: %w", key.row, key.col, PhaseLabel(h), err)
			}
			missing += nA + nP
			data = append(data, amp, phase)
			meta = append(meta,
				RowMeta{Row: key.row, Column: key.col, Channel: AmplitudeLabel(h)},
				RowMeta{Row: key.row, Column: key.col, Channel: PhaseLabel(h)},
			)
		}
		if missing > 0 {
			if opts.RequireCompleteRuns {
				return nil, fmt.Errorf("%w: pixel (%d,%d) has %d missing run/channel slot(s)", ErrIncompletePixel, key.row, key.col, missing)
			}
			warnings = append(warnings, fmt.Sprintf("pixel (%d,%d): %d missing run/channel slot(s), averaged rows contain NaN", key.row, key.col, missing))
		}
	}

	table, err := Assemble(axis, data, meta, LayoutPixel, nil)
	if err != nil {
		return nil, err
	}
	table.Variant = VariantLegacy
	table.ParseErrors = warnings
	return table, nil
}

// averageRuns interpolates every run of one channel onto axis and averages
// them. A run lacking either its reference or its channel vector
// contributes NaN; the number of such runs is returned.
func averageRuns(ref [][]float64, hasRef []bool, vals [][]float64, hasVal []bool, axis []float64) ([]float64, int, error) {
	perRun := make([][]float64, len(ref))
	missing := 0
	for run := range ref {
		if !hasRef[run] || !hasVal[run] {
			perRun[run] = resample.NaNs(len(axis))
			missing++
			continue
		}
		row, err := resample.Interpolate(ref[run], vals[run], axis)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: run %d: %w", ErrInterpolationDomain, run, err)
		}
		perRun[run] = row
	}
	return resample.MeanRows(perRun), missing, nil
}

func readLegacyRecords(r io.Reader, opts Options) ([]rawRecord, int, []string, error) {
	br := bufio.NewReader(r)
	// the first line is free-form and never tab-aligned with the data
	if _, err := br.ReadString('\n'); err != nil {
		if err != io.EOF {
			return nil, 0, nil, fmt.Errorf("failed to read legacy header: %w", err)
		}
		return nil, 0, nil, fmt.Errorf("%w: no data lines", ErrFormatViolation)
	}

	reader := csv.NewReader(br)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	var (
		records  []rawRecord
		warnings []string
		ncols    int
		skipped  = make(map[string]bool)
	)
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return nil, 0, nil, fmt.Errorf("%w: line %d: %w", ErrFormatViolation, perr.Line+1, perr.Err)
			}
			return nil, 0, nil, fmt.Errorf("failed to read legacy data: %w", err)
		}
		// the csv reader starts counting after the header line
		line, _ := reader.FieldPos(0)
		lineNo := line + 1

		fields = trimTrailingBlank(fields)
		if len(fields) == 0 {
			continue
		}
		if ncols == 0 {
			ncols = len(fields)
			if ncols <= legacyMetaCols {
				return nil, 0, nil, fmt.Errorf("%w: line %d has %d columns, need more than %d", ErrFormatViolation, lineNo, ncols, legacyMetaCols)
			}
		}
		if len(fields) != ncols {
			return nil, 0, nil, fmt.Errorf("%w: line %d has %d columns, expected %d: %w", ErrGeometryMismatch, lineNo, len(fields), ncols, csv.ErrFieldCount)
		}

		rec, err := parseLegacyRecord(fields)
		if err != nil {
			return nil, 0, nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if rec.channel.Kind == ChannelUnknown {
			if !opts.SkipUnknownChannels {
				return nil, 0, nil, fmt.Errorf("%w: %q on line %d", ErrUnknownChannel, rec.channel.Label, lineNo)
			}
			if !skipped[rec.channel.Label] {
				skipped[rec.channel.Label] = true
				warnings = append(warnings, fmt.Sprintf("skipping rows of unrecognised channel %q (first on line %d)", rec.channel.Label, lineNo))
			}
			continue
		}
		records = append(records, rec)
	}
	if ncols == 0 {
		return nil, 0, nil, fmt.Errorf("%w: no data lines", ErrFormatViolation)
	}
	return records, ncols - legacyMetaCols, warnings, nil
}

// trimTrailingBlank drops empty cells left by trailing tabs or whitespace.
func trimTrailingBlank(fields []string) []string {
	for len(fields) > 0 && strings.TrimSpace(fields[len(fields)-1]) == "" {
		fields = fields[:len(fields)-1]
	}
	return fields
}

func parseLegacyRecord(fields []string) (rawRecord, error) {
	var rec rawRecord
	var err error
	if rec.row, err = parseIntCell(fields[0]); err != nil {
		return rec, fmt.Errorf("row: %w", err)
	}
	if rec.col, err = parseIntCell(fields[1]); err != nil {
		return rec, fmt.Errorf("column: %w", err)
	}
	if rec.run, err = parseIntCell(fields[2]); err != nil {
		return rec, fmt.Errorf("run: %w", err)
	}
	if rec.run < 0 {
		return rec, fmt.Errorf("%w: negative run index %d", ErrFormatViolation, rec.run)
	}
	rec.channel = ParseChannel(strings.TrimSpace(fields[3]))
	rec.samples = make([]float64, len(fields)-legacyMetaCols)
	for i, cell := range fields[legacyMetaCols:] {
		if rec.samples[i], err = parseFloatCell(cell); err != nil {
			return rec, fmt.Errorf("sample %d: %w", i, err)
		}
	}
	return rec, nil
}
