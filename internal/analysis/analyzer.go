package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/user/neaspec_go/internal/parser"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// rowID formats a short identifier for a data row.
func rowID(m parser.RowMeta, layout parser.Layout) string {
	if layout == parser.LayoutPixelRun {
		return fmt.Sprintf("r%d c%d run%d %s", m.Row, m.Column, m.Run, m.Channel)
	}
	return fmt.Sprintf("r%d c%d %s", m.Row, m.Column, m.Channel)
}

func validSamples(data []float64) []float64 {
	valid := make([]float64, 0, len(data))
	for _, v := range data {
		if !math.IsNaN(v) {
			valid = append(valid, v)
		}
	}
	return valid
}

// AnalyzeTable computes per-row statistics, per-channel summaries and
// rankings for a table.
func AnalyzeTable(table *parser.OutputTable) (*AnalysisResults, error) {
	if table == nil || len(table.Data) == 0 {
		return nil, fmt.Errorf("table is nil or empty, cannot analyze")
	}

	results := NewAnalysisResults()

	allRanges := []RankedRowInfo{}
	allMissing := []RankedRowInfo{}

	for i, data := range table.Data {
		m := table.Meta[i]
		valid := validSamples(data)

		res := RowAnalysisResult{
			Index:      i,
			RowID:      rowID(m, table.Layout),
			Row:        m.Row,
			Column:     m.Column,
			Run:        m.Run,
			Channel:    m.Channel,
			NumValid:   len(valid),
			NumMissing: len(data) - len(valid),
			Mean:       math.NaN(),
			StdDev:     math.NaN(),
			Min:        math.NaN(),
			Max:        math.NaN(),
			Range:      math.NaN(),
		}

		if len(valid) > 0 {
			res.Mean, res.StdDev = stat.PopMeanStdDev(valid, nil)
			res.Min = floats.Min(valid)
			res.Max = floats.Max(valid)
			res.Range = res.Max - res.Min
			allRanges = append(allRanges, RankedRowInfo{RowID: res.RowID, Channel: m.Channel, Value: res.Range})
		} else {
			results.AnalysisErrors = append(results.AnalysisErrors, fmt.Sprintf("Row %s has no valid samples.", res.RowID))
		}
		if res.NumMissing > 0 {
			allMissing = append(allMissing, RankedRowInfo{RowID: res.RowID, Channel: m.Channel, Value: float64(res.NumMissing)})
		}
		results.Results = append(results.Results, res)
	}

	sort.SliceStable(allRanges, func(i, j int) bool {
		return allRanges[i].Value > allRanges[j].Value
	})
	results.RankedByRange = allRanges

	sort.SliceStable(allMissing, func(i, j int) bool {
		return allMissing[i].Value > allMissing[j].Value
	})
	results.RankedByMissing = allMissing

	results.Channels = summarizeChannels(table.Channels(), results.Results)
	return results, nil
}

func summarizeChannels(order []string, rows []RowAnalysisResult) []ChannelSummary {
	means := make(map[string][]float64)
	stds := make(map[string][]float64)
	summaries := make(map[string]*ChannelSummary)
	for _, r := range rows {
		s, ok := summaries[r.Channel]
		if !ok {
			s = &ChannelSummary{Channel: r.Channel}
			summaries[r.Channel] = s
		}
		s.Rows++
		s.Missing += r.NumMissing
		if !math.IsNaN(r.Mean) {
			means[r.Channel] = append(means[r.Channel], r.Mean)
			stds[r.Channel] = append(stds[r.Channel], r.StdDev)
		}
	}

	out := make([]ChannelSummary, 0, len(order))
	for _, ch := range order {
		s := summaries[ch]
		s.MeanOfMean, s.MeanStdDev = math.NaN(), math.NaN()
		if len(means[ch]) > 0 {
			s.MeanOfMean = stat.Mean(means[ch], nil)
			s.MeanStdDev = stat.Mean(stds[ch], nil)
		}
		out = append(out, *s)
	}
	return out
}

// PixelGrid is a rows x columns map of one value per pixel.
type PixelGrid struct {
	Rows, Cols int
	Values     []float64 // row-major, NaN where no data
}

func (g *PixelGrid) At(row, col int) float64 { return g.Values[row*g.Cols+col] }

// PixelMap averages, per pixel, the row means of channel across runs.
func PixelMap(results *AnalysisResults, channel string) (*PixelGrid, error) {
	if results == nil || len(results.Results) == 0 {
		return nil, fmt.Errorf("no analysis results for pixel map")
	}
	rows, cols := 0, 0
	perPixel := make(map[[2]int][]float64)
	for _, r := range results.Results {
		if r.Channel != channel {
			continue
		}
		if r.Row < 0 || r.Column < 0 {
			return nil, fmt.Errorf("negative pixel index (%d, %d) in %s", r.Row, r.Column, r.RowID)
		}
		rows = max(rows, r.Row+1)
		cols = max(cols, r.Column+1)
		if !math.IsNaN(r.Mean) {
			key := [2]int{r.Row, r.Column}
			perPixel[key] = append(perPixel[key], r.Mean)
		}
	}
	if rows == 0 {
		return nil, fmt.Errorf("channel %s not found", channel)
	}

	grid := &PixelGrid{Rows: rows, Cols: cols, Values: make([]float64, rows*cols)}
	for i := range grid.Values {
		grid.Values[i] = math.NaN()
	}
	for key, vals := range perPixel {
		grid.Values[key[0]*cols+key[1]] = stat.Mean(vals, nil)
	}
	return grid, nil
}

// PairChannels matches every amplitude row with the phase row of the same
// harmonic, pixel and run. Pairs are returned in amplitude row order.
func PairChannels(table *parser.OutputTable) []ChannelPair {
	type slot struct{ row, col, run, harmonic int }
	phases := make(map[slot]int)
	for i, m := range table.Meta {
		if ch := parser.ParseChannel(m.Channel); ch.Kind == parser.ChannelPhase {
			phases[slot{m.Row, m.Column, m.Run, ch.Harmonic}] = i
		}
	}
	var pairs []ChannelPair
	for i, m := range table.Meta {
		ch := parser.ParseChannel(m.Channel)
		if ch.Kind != parser.ChannelAmplitude {
			continue
		}
		p, ok := phases[slot{m.Row, m.Column, m.Run, ch.Harmonic}]
		if !ok {
			continue
		}
		pairs = append(pairs, ChannelPair{
			Row: m.Row, Column: m.Column, Run: m.Run, Harmonic: ch.Harmonic,
			AmplitudeIndex: i, PhaseIndex: p,
		})
	}
	return pairs
}
