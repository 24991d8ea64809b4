package report

import (
	"fmt"
	"image/color"
	"math"

	"github.com/user/neaspec_go/internal/analysis"
	"github.com/user/neaspec_go/internal/parser"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
)

// pixelGridXYZ exposes a PixelGrid to plotter.HeatMap. X is the column,
// Y the row.
type pixelGridXYZ struct {
	grid *analysis.PixelGrid
}

func (g pixelGridXYZ) Dims() (c, r int)   { return g.grid.Cols, g.grid.Rows }
func (g pixelGridXYZ) Z(c, r int) float64 { return g.grid.At(r, c) }
func (g pixelGridXYZ) X(c int) float64    { return float64(c) }
func (g pixelGridXYZ) Y(r int) float64    { return float64(r) }

// mapPalette picks a diverging palette for phase maps and a sequential one
// for everything else.
func mapPalette(channel string) palette.Palette {
	if parser.ParseChannel(channel).Kind == parser.ChannelPhase {
		return moreland.SmoothBlueRed().Palette(255)
	}
	return moreland.ExtendedBlackBody().Palette(255)
}

// CreatePixelMapPlot renders a heat map of one value per pixel.
func CreatePixelMapPlot(grid *analysis.PixelGrid, channel string, size PlotSize) ([]byte, error) {
	if grid == nil || grid.Rows == 0 || grid.Cols == 0 {
		return nil, fmt.Errorf("no pixel data to plot heatmap")
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range grid.Values {
		if math.IsNaN(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if math.IsInf(lo, 1) {
		return nil, fmt.Errorf("channel %s has no valid pixel values", channel)
	}
	if lo == hi {
		hi = lo + 1
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s mean per pixel", channel)
	p.X.Label.Text = "Column"
	p.Y.Label.Text = "Row"

	hm := plotter.NewHeatMap(pixelGridXYZ{grid: grid}, mapPalette(channel))
	hm.Min = lo
	hm.Max = hi
	hm.NaN = color.Gray{Y: 200}
	p.Add(hm)

	return renderPNG(p, size.orSquare())
}

func (s PlotSize) orSquare() PlotSize {
	if s.Width <= 0 || s.Height <= 0 {
		return PlotSize{Width: 500, Height: 500}
	}
	return PlotSize{Width: s.Height, Height: s.Height}
}

// HeatMapRange formats a heat map colour range for captions.
func HeatMapRange(grid *analysis.PixelGrid) string {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range grid.Values {
		if !math.IsNaN(v) {
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
	}
	if math.IsInf(lo, 1) {
		return "no data"
	}
	return fmt.Sprintf("%.4g to %.4g", lo, hi)
}
