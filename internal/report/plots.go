package report

import (
	"fmt"

	"github.com/user/neaspec_go/internal/analysis"
	"github.com/user/neaspec_go/internal/parser"
	"github.com/user/neaspec_go/internal/spectrum"
)

// PlotOptions controls which plots GeneratePlots renders.
type PlotOptions struct {
	// PreviewRows caps the rows overlaid per channel; <= 0 plots all rows.
	PreviewRows int
	Size        PlotSize
}

// GeneratePlots renders the spectra overlay and pixel map of every channel
// plus a spectrum preview of the first amplitude/phase pair. Plots that
// cannot be drawn are reported as warnings.
func GeneratePlots(table *parser.OutputTable, results *analysis.AnalysisResults, opts PlotOptions) ([]PlotImage, []string) {
	var plots []PlotImage
	var warnings []string

	for _, ch := range table.Channels() {
		img, err := CreateSpectraPlot(table, ch, opts.PreviewRows, opts.Size)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("spectra plot %s: %v", ch, err))
		} else {
			plots = append(plots, PlotImage{
				Key:     "spectra_" + ch,
				Title:   fmt.Sprintf("%s Spectra", ch),
				Caption: fmt.Sprintf("%s rows against the common axis", ch),
				PNG:     img,
			})
		}

		grid, err := analysis.PixelMap(results, ch)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("pixel map %s: %v", ch, err))
			continue
		}
		img, err = CreatePixelMapPlot(grid, ch, opts.Size)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("pixel map %s: %v", ch, err))
			continue
		}
		plots = append(plots, PlotImage{
			Key:     "pixelmap_" + ch,
			Title:   fmt.Sprintf("%s Pixel Map", ch),
			Caption: fmt.Sprintf("Mean %s per pixel (%s)", ch, HeatMapRange(grid)),
			PNG:     img,
			Square:  true,
		})
	}

	pairs := analysis.PairChannels(table)
	if len(pairs) == 0 {
		return plots, warnings
	}
	pair := pairs[0]
	spec, err := spectrum.Transform(table.Data[pair.AmplitudeIndex], table.Data[pair.PhaseIndex])
	if err != nil {
		return plots, append(warnings, fmt.Sprintf("spectrum preview: %v", err))
	}
	title := fmt.Sprintf("O%d Spectrum at (%d,%d)", pair.Harmonic, pair.Row, pair.Column)
	img, err := CreateSpectrumPlot(spec, title, opts.Size)
	if err != nil {
		return plots, append(warnings, fmt.Sprintf("spectrum preview: %v", err))
	}
	plots = append(plots, PlotImage{
		Key:     "spectrum_preview",
		Title:   title,
		Caption: fmt.Sprintf("Magnitude of the Hann-windowed %d-point FFT", spec.FFTSize),
		PNG:     img,
	})
	return plots, warnings
}
