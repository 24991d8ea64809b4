package report

import (
	"bytes"
	"fmt"
	"image/color"
	"math"

	"github.com/user/neaspec_go/internal/parser"
	"github.com/user/neaspec_go/internal/spectrum"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var plotColors = []color.Color{
	color.RGBA{R: 255, G: 0, B: 0, A: 255},   // Red
	color.RGBA{G: 160, A: 255},               // Green
	color.RGBA{B: 255, A: 255},               // Blue
	color.RGBA{R: 255, G: 165, B: 0, A: 255}, // Orange
	color.RGBA{R: 128, G: 0, B: 128, A: 255}, // Purple
	color.RGBA{G: 128, B: 128, A: 255},       // Teal
}

// PlotSize is the rendered size of a plot in points.
type PlotSize struct {
	Width, Height float64
}

var defaultPlotSize = PlotSize{Width: 800, Height: 400}

func (s PlotSize) orDefault() PlotSize {
	if s.Width <= 0 || s.Height <= 0 {
		return defaultPlotSize
	}
	return s
}

// renderPNG writes p as PNG bytes.
func renderPNG(p *plot.Plot, size PlotSize) ([]byte, error) {
	size = size.orDefault()
	writer, err := p.WriterTo(vg.Points(size.Width), vg.Points(size.Height), "png")
	if err != nil {
		return nil, fmt.Errorf("failed to create plot writer: %w", err)
	}
	buf := new(bytes.Buffer)
	if _, err := writer.WriteTo(buf); err != nil {
		return nil, fmt.Errorf("failed to write plot to buffer: %w", err)
	}
	return buf.Bytes(), nil
}

// seriesPoints pairs x with y, dropping NaN samples.
func seriesPoints(x, y []float64) plotter.XYs {
	pts := make(plotter.XYs, 0, len(y))
	for i, v := range y {
		if i >= len(x) || math.IsNaN(v) || math.IsNaN(x[i]) {
			continue
		}
		pts = append(pts, plotter.XY{X: x[i], Y: v})
	}
	return pts
}

// CreateSpectraPlot overlays up to maxRows rows of one channel against the
// table axis. maxRows <= 0 plots every row.
func CreateSpectraPlot(table *parser.OutputTable, channel string, maxRows int, size PlotSize) ([]byte, error) {
	if table == nil || len(table.Data) == 0 {
		return nil, fmt.Errorf("no data to plot")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s spectra", channel)
	p.X.Label.Text = axisLabel(table)
	p.Y.Label.Text = channel
	p.Add(plotter.NewGrid())

	plotted := 0
	for i, m := range table.Meta {
		if m.Channel != channel {
			continue
		}
		if maxRows > 0 && plotted >= maxRows {
			break
		}
		pts := seriesPoints(table.X, table.Data[i])
		if len(pts) == 0 {
			continue
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("failed to create line for row %d: %w", i, err)
		}
		line.Color = plotColors[plotted%len(plotColors)]
		line.LineStyle.Width = vg.Points(1)
		p.Add(line)
		if table.Layout == parser.LayoutPixelRun {
			p.Legend.Add(fmt.Sprintf("(%d,%d) run %d", m.Row, m.Column, m.Run), line)
		} else {
			p.Legend.Add(fmt.Sprintf("(%d,%d)", m.Row, m.Column), line)
		}
		plotted++
	}
	if plotted == 0 {
		return nil, fmt.Errorf("channel %s has no plottable rows", channel)
	}

	p.Legend.Top = true
	p.Legend.XOffs = vg.Points(10)
	return renderPNG(p, size)
}

// axisLabel names the X axis: legacy rows are resampled onto the reference
// channel, v2 rows share the Wavenumber column.
func axisLabel(table *parser.OutputTable) string {
	switch table.Variant {
	case parser.VariantLegacy:
		return fmt.Sprintf("Reference (%s)", parser.ReferenceLabel)
	case parser.VariantModern:
		return parser.WavenumberColumn
	default:
		return "Sample"
	}
}

// CreateSpectrumPlot draws a magnitude spectrum.
func CreateSpectrumPlot(spec *spectrum.Spectrum, title string, size PlotSize) ([]byte, error) {
	if spec == nil || len(spec.Bins) == 0 {
		return nil, fmt.Errorf("empty spectrum")
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Frequency (cycles/sample)"
	p.Y.Label.Text = "Magnitude"
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(seriesPoints(spec.Frequencies(), spec.Bins))
	if err != nil {
		return nil, fmt.Errorf("failed to create spectrum line: %w", err)
	}
	line.Color = plotColors[2]
	line.LineStyle.Width = vg.Points(1.5)
	p.Add(line)
	return renderPNG(p, size)
}
