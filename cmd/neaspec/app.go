package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/user/neaspec_go/internal/analysis"
	"github.com/user/neaspec_go/internal/config"
	"github.com/user/neaspec_go/internal/export"
	"github.com/user/neaspec_go/internal/filewalker"
	"github.com/user/neaspec_go/internal/parser"
	"github.com/user/neaspec_go/internal/report"
	"github.com/user/neaspec_go/internal/worker"
)

// App struct
type App struct {
	cfg  *config.Config
	opts parser.Options
}

// NewApp creates an App reading files with the switches of cfg.
func NewApp(cfg *config.Config) *App {
	return &App{cfg: cfg, opts: cfg.ReadOptions()}
}

func (a *App) sendStatus(format string, args ...any) {
	log.Info().Msgf(format, args...)
}

func (a *App) reportWarnings(stage string, warnings []string) {
	if len(warnings) == 0 {
		return
	}
	a.sendStatus("%s warnings:", stage)
	for _, w := range warnings {
		log.Warn().Str("stage", stage).Msg(w)
	}
}

// ReadTable reads any supported file and logs its parse warnings.
func (a *App) ReadTable(path string) (*parser.OutputTable, error) {
	a.sendStatus("Parsing: %s", path)
	table, err := parser.ReadSpectra(path, a.opts)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	a.sendStatus("Parsed %d rows x %d samples (%s).", table.NumRows(), len(table.X), table.Variant)
	a.reportWarnings("Parsing", table.ParseErrors)
	return table, nil
}

// Convert reads inPath and writes the table to outPath, or stdout when
// outPath is empty.
func (a *App) Convert(inPath, outPath string, format export.Format) (*parser.OutputTable, error) {
	table, err := a.ReadTable(inPath)
	if err != nil {
		return nil, err
	}
	if outPath == "" {
		return table, export.Write(os.Stdout, table, format)
	}
	return table, a.writeTable(table, outPath, format)
}

func (a *App) writeTable(table *parser.OutputTable, outPath string, format export.Format) error {
	if err := export.WriteFile(outPath, table, format); err != nil {
		return err
	}
	a.sendStatus("Wrote %s", outPath)
	return nil
}

// GenerateReport runs parse, analysis, plotting and PDF generation.
func (a *App) GenerateReport(ctx context.Context, inPath, pdfPath string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("report generation panicked: %v", r)
		}
	}()

	a.sendStatus("Request: input=[%s], PDF=[%s]", inPath, pdfPath)
	table, err := a.ReadTable(inPath)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	a.sendStatus("Analyzing data...")
	results, err := analysis.AnalyzeTable(table)
	if err != nil {
		return fmt.Errorf("analyzing data: %w", err)
	}
	a.sendStatus("Analysis complete. %d row results.", len(results.Results))
	a.reportWarnings("Analysis", results.AnalysisErrors)
	if err := ctx.Err(); err != nil {
		return err
	}

	a.sendStatus("Generating plots...")
	plots, plotWarnings := report.GeneratePlots(table, results, report.PlotOptions{
		PreviewRows: a.cfg.PreviewRows,
		Size:        report.PlotSize{Width: a.cfg.PlotWidth, Height: a.cfg.PlotHeight},
	})
	a.reportWarnings("Plotting", plotWarnings)
	a.sendStatus("Plot generation complete. %d plots.", len(plots))

	a.sendStatus("Generating PDF: %s...", pdfPath)
	if err := os.MkdirAll(filepath.Dir(pdfPath), 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}
	err = report.BuildPDFReport(pdfPath, report.ReportInput{
		SourcePath: inPath,
		Table:      table,
		Results:    results,
		Plots:      plots,
		Warnings:   plotWarnings,
	})
	if err != nil {
		return fmt.Errorf("generating PDF report: %w", err)
	}
	a.sendStatus("PDF report successfully generated: %s", pdfPath)
	return nil
}

// BatchResult describes one converted measurement.
type BatchResult struct {
	Output string
	Report string
	Rows   int
}

// Batch converts every measurement under dir into outDir, mirroring the
// directory structure, optionally with a PDF report per file.
func (a *App) Batch(ctx context.Context, dir, outDir string, format export.Format, reports bool) ([]worker.Task[filewalker.FileEntry, BatchResult], error) {
	walker := filewalker.NewWalker()
	entries, err := walker.Walk(dir)
	if err != nil {
		return nil, err
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	pool := worker.NewPool(a.cfg.WorkerCount, func(ctx context.Context, entry filewalker.FileEntry) (BatchResult, error) {
		if err := ctx.Err(); err != nil {
			return BatchResult{}, err
		}
		base := outputBase(root, outDir, entry.Path)
		out := base + format.Extension()
		table, err := walker.ReadFile(entry, a.opts)
		if err != nil {
			return BatchResult{}, fmt.Errorf("parsing %s: %w", entry.Path, err)
		}
		a.reportWarnings("Parsing", table.ParseErrors)
		if err := a.writeTable(table, out, format); err != nil {
			return BatchResult{}, err
		}
		res := BatchResult{Output: out, Rows: table.NumRows()}
		if reports {
			res.Report = base + ".pdf"
			if err := a.GenerateReport(ctx, entry.Path, res.Report); err != nil {
				return res, err
			}
		}
		return res, nil
	})

	a.sendStatus("Processing %d files with %d workers", len(entries), a.cfg.WorkerCount)
	return pool.Execute(ctx, entries), nil
}

// outputBase maps an input file under root to its output path in outDir.
// The input extension is kept so scan.nea and scan.txt stay apart.
func outputBase(root, outDir, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(path)
	}
	return filepath.Join(outDir, rel)
}
