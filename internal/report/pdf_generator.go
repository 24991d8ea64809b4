package report

import (
	"bytes"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/rs/zerolog/log"

	"github.com/user/neaspec_go/internal/analysis"
	"github.com/user/neaspec_go/internal/parser"
)

const (
	inchToMm               = 25.4
	pdfPageWidthLandscape  = 11 * inchToMm // Letter landscape
	pdfPageHeightLandscape = 8.5 * inchToMm
	pdfMargin              = 0.5 * inchToMm
	pdfContentWidth        = pdfPageWidthLandscape - (2 * pdfMargin)

	maxRankedRows   = 10
	maxWarningLines = 40
	maxCellChars    = 90
)

// pdfStyler holds reusable styling and state for PDF generation
type pdfStyler struct {
	pdf         *gofpdf.Fpdf
	styles      map[string]func() // map of style name to function that sets font, color etc.
	lineHeight  float64
	currentY    float64 // To manually track Y position for flowing content
	pageHeight  float64
	contentTopY float64 // Top Y after margin
}

func newPDFStyler(pdf *gofpdf.Fpdf) *pdfStyler {
	s := &pdfStyler{
		pdf:         pdf,
		styles:      make(map[string]func()),
		lineHeight:  6, // mm
		pageHeight:  pdfPageHeightLandscape - (2 * pdfMargin),
		contentTopY: pdfMargin,
	}
	s.currentY = s.contentTopY
	s.defineStyles()
	return s
}

func (s *pdfStyler) defineStyles() {
	s.styles["h1"] = func() {
		s.pdf.SetFont("Arial", "B", 16)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["h2"] = func() {
		s.pdf.SetFont("Arial", "B", 14)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["normal"] = func() {
		s.pdf.SetFont("Arial", "", 10)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["warning"] = func() {
		s.pdf.SetFont("Arial", "", 9)
		s.pdf.SetTextColor(160, 60, 0)
	}
	s.styles["tableHeader"] = func() {
		s.pdf.SetFont("Arial", "B", 9)
		s.pdf.SetFillColor(200, 200, 200) // Light grey
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["tableCell"] = func() {
		s.pdf.SetFont("Arial", "", 9)
		s.pdf.SetTextColor(50, 50, 50)
	}
}

func (s *pdfStyler) applyStyle(styleName string) {
	if fn, ok := s.styles[styleName]; ok {
		fn()
	} else {
		s.styles["normal"]()
	}
}

func (s *pdfStyler) checkAddPage(neededHeight float64) {
	if s.currentY+neededHeight > s.pageHeight {
		s.newPage()
	}
}

func (s *pdfStyler) newPage() {
	s.pdf.AddPage()
	s.currentY = s.contentTopY
}

func (s *pdfStyler) writeParagraph(text string, styleName string, align string) {
	s.applyStyle(styleName)
	lines := s.pdf.SplitLines([]byte(text), pdfContentWidth)
	s.checkAddPage(math.Max(1, float64(len(lines))) * s.lineHeight)

	s.pdf.SetXY(pdfMargin, s.currentY)
	s.pdf.MultiCell(pdfContentWidth, s.lineHeight, text, "", align, false)
	s.currentY = s.pdf.GetY()
	s.currentY += 1
}

func (s *pdfStyler) addSpacer(height float64) {
	s.checkAddPage(height)
	s.currentY += height
	if s.currentY > s.pageHeight {
		s.newPage()
	}
}

func (s *pdfStyler) addImage(imageBytes []byte, imageName string, width float64, height float64, caption string, styleName string) {
	s.pdf.RegisterImageReader(imageName, "PNG", bytes.NewReader(imageBytes))

	if width > pdfContentWidth {
		ratio := pdfContentWidth / width
		width = pdfContentWidth
		height *= ratio
	}

	captionHeight := 0.0
	if caption != "" {
		captionHeight = s.lineHeight + 1
	}
	s.checkAddPage(height + captionHeight)

	x := pdfMargin + (pdfContentWidth-width)/2
	s.pdf.Image(imageName, x, s.currentY, width, height, false, "PNG", 0, "")
	s.currentY += height

	if caption != "" {
		s.addSpacer(1)
		s.writeParagraph(caption, styleName, "C")
	}
	s.addSpacer(2)
}

// writeTable renders a bordered table. widthsRel are fractions of the
// content width.
func (s *pdfStyler) writeTable(headers []string, widthsRel []float64, rows [][]string) {
	widths := make([]float64, len(widthsRel))
	for i, rel := range widthsRel {
		widths[i] = rel * pdfContentWidth
	}

	header := func() {
		sX := pdfMargin
		s.applyStyle("tableHeader")
		for i, h := range headers {
			s.pdf.SetXY(sX, s.currentY)
			s.pdf.CellFormat(widths[i], s.lineHeight, h, "1", 0, "C", true, 0, "")
			sX += widths[i]
		}
		s.currentY += s.lineHeight
	}

	s.checkAddPage(s.lineHeight * math.Min(float64(len(rows)+1), 6))
	header()
	for _, row := range rows {
		if s.currentY+s.lineHeight > s.pageHeight {
			s.newPage()
			header()
		}
		sX := pdfMargin
		s.applyStyle("tableCell")
		for i, cell := range row {
			s.pdf.SetXY(sX, s.currentY)
			s.pdf.CellFormat(widths[i], s.lineHeight, truncate(cell, maxCellChars), "1", 0, "C", false, 0, "")
			sX += widths[i]
		}
		s.currentY += s.lineHeight
	}
}

func truncate(text string, n int) string {
	if len(text) <= n {
		return text
	}
	return text[:n-3] + "..."
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'g', 6, 64)
}

// PlotImage is a rendered plot placed in the report.
type PlotImage struct {
	Key     string
	Title   string
	Caption string
	PNG     []byte
	// Square plots (pixel maps) are drawn at a smaller width.
	Square bool
}

// ReportInput collects everything shown in the PDF report.
type ReportInput struct {
	SourcePath string
	Table      *parser.OutputTable
	Results    *analysis.AnalysisResults
	Plots      []PlotImage
	// Warnings from plotting and other stages after parsing.
	Warnings []string
}

// BuildPDFReport creates the PDF report.
func BuildPDFReport(outPath string, in ReportInput) error {
	if in.Table == nil {
		return fmt.Errorf("no table to report")
	}

	pdf := gofpdf.New("L", "mm", "Letter", "") // Landscape, mm, Letter size
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.AddPage()

	styler := newPDFStyler(pdf)
	table := in.Table

	styler.writeParagraph(fmt.Sprintf("NeaSPEC Spectral Data Report: %s", filepath.Base(in.SourcePath)), "h1", "C")
	styler.addSpacer(5)
	styler.writeParagraph(fmt.Sprintf("Format: %s    Layout: %s    Rows: %d    Samples per row: %d",
		variantName(table.Variant), table.Layout, table.NumRows(), len(table.X)), "normal", "L")
	styler.writeParagraph(fmt.Sprintf("Channels: %s", strings.Join(table.Channels(), ", ")), "normal", "L")
	styler.addSpacer(5)

	styler.writeParagraph("Measurement Metadata", "h2", "L")
	if len(table.Attributes) > 0 {
		keys := make([]string, 0, len(table.Attributes))
		for k := range table.Attributes {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		rows := make([][]string, 0, len(keys))
		for _, k := range keys {
			rows = append(rows, []string{k, table.Attributes[k].String()})
		}
		styler.writeTable([]string{"Key", "Value"}, []float64{0.3, 0.7}, rows)
	} else {
		styler.writeParagraph("The file carries no metadata.", "normal", "L")
	}
	styler.addSpacer(5)

	results := in.Results
	if results == nil || len(results.Results) == 0 {
		styler.writeParagraph("No analysis results to display.", "normal", "L")
		return pdf.OutputFileAndClose(outPath)
	}

	styler.writeParagraph("Channel Summary", "h2", "L")
	summaryRows := make([][]string, 0, len(results.Channels))
	for _, ch := range results.Channels {
		summaryRows = append(summaryRows, []string{
			ch.Channel,
			strconv.Itoa(ch.Rows),
			formatFloat(ch.MeanOfMean),
			formatFloat(ch.MeanStdDev),
			strconv.Itoa(ch.Missing),
		})
	}
	styler.writeTable([]string{"Channel", "Rows", "Mean", "Mean Std Dev", "Missing Samples"},
		[]float64{0.2, 0.15, 0.25, 0.25, 0.15}, summaryRows)
	styler.addSpacer(5)

	rankings := []struct {
		Title      string
		Data       []analysis.RankedRowInfo
		ValueLabel string
	}{
		{"Top 10 Rows by Largest Range", results.RankedByRange, "Range"},
		{"Top 10 Rows by Missing Samples", results.RankedByMissing, "Missing Samples"},
	}
	for _, rankSet := range rankings {
		styler.writeParagraph(rankSet.Title, "h2", "L")
		if len(rankSet.Data) == 0 {
			styler.writeParagraph(fmt.Sprintf("No data for %s.", strings.ToLower(rankSet.Title)), "normal", "L")
			styler.addSpacer(5)
			continue
		}
		rows := [][]string{}
		for i, item := range rankSet.Data {
			if i >= maxRankedRows {
				break
			}
			rows = append(rows, []string{strconv.Itoa(i + 1), item.RowID, item.Channel, formatFloat(item.Value)})
		}
		styler.writeTable([]string{"Rank", "Row", "Channel", rankSet.ValueLabel}, []float64{0.1, 0.45, 0.15, 0.3}, rows)
		styler.addSpacer(5)
	}

	warnings := append(append(append([]string{}, table.ParseErrors...), results.AnalysisErrors...), in.Warnings...)
	if len(warnings) > 0 {
		styler.writeParagraph("Warnings", "h2", "L")
		for i, w := range warnings {
			if i >= maxWarningLines {
				styler.writeParagraph(fmt.Sprintf("... and %d more.", len(warnings)-maxWarningLines), "warning", "L")
				break
			}
			styler.writeParagraph(w, "warning", "L")
		}
	}

	if len(in.Plots) > 0 {
		styler.newPage()
		styler.writeParagraph("Graphical Analysis", "h1", "C")
		styler.addSpacer(5)
	}

	lineWidth := pdfContentWidth * 0.8
	lineHeight := lineWidth * (3.5 / 7.0)
	squareSide := pdfContentWidth * 0.4
	for _, pDef := range in.Plots {
		styler.writeParagraph(pDef.Title, "h2", "L")
		if len(pDef.PNG) == 0 {
			log.Warn().Str("plot", pDef.Key).Msg("plot has no image data")
			styler.writeParagraph(fmt.Sprintf("Plot for %s not available.", pDef.Title), "normal", "L")
			continue
		}
		if pDef.Square {
			styler.addImage(pDef.PNG, pDef.Key, squareSide, squareSide, pDef.Caption, "normal")
		} else {
			styler.addImage(pDef.PNG, pDef.Key, lineWidth, lineHeight, pDef.Caption, "normal")
		}
	}

	return pdf.OutputFileAndClose(outPath)
}

func variantName(v parser.Variant) string {
	if v == parser.VariantAuto {
		return "unknown"
	}
	return string(v)
}
