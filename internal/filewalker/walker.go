package filewalker

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/user/neaspec_go/internal/parser"
)

// Walker traverses directories and matches files with a spectral reader.
type Walker struct {
	readers []parser.Reader
}

// NewWalker creates a Walker with every registered reader.
func NewWalker() *Walker {
	return &Walker{readers: parser.Readers()}
}

// FileEntry is a discovered measurement ready for reading. For raw GSF
// measurements Path is the amplitude file and Companions lists the phase
// file and report.
type FileEntry struct {
	Path       string
	Ext        string
	Reader     parser.Reader
	Companions []string
}

// Walk discovers all readable measurements under root, in lexical order.
// The two channel files of a GSF measurement yield one entry.
func (w *Walker) Walk(root string) ([]FileEntry, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root path: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", root)
	}

	var entries []FileEntry
	seenPairs := make(map[string]bool)

	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Error walking path")
			return nil
		}
		if d.IsDir() {
			return nil
		}

		reader := w.readerFor(path)
		if reader == nil {
			return nil
		}
		entry := FileEntry{Path: path, Ext: filepath.Ext(path), Reader: reader}

		if _, ok := reader.(parser.GSFReader); ok {
			pair, err := parser.CompanionPaths(path)
			if err != nil {
				log.Warn().Err(err).Str("path", path).Msg("Skipping GSF file without channel marker")
				return nil
			}
			if seenPairs[pair.AmplitudePath] {
				return nil
			}
			seenPairs[pair.AmplitudePath] = true
			entry.Path = pair.AmplitudePath
			entry.Companions = []string{pair.PhasePath, pair.ReportPath}
		}

		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	log.Info().Int("count", len(entries)).Str("root", root).Msg("Discovered files")
	return entries, nil
}

func (w *Walker) readerFor(path string) parser.Reader {
	for _, r := range w.readers {
		if r.CanRead(path) {
			return r
		}
	}
	return nil
}

// ReadFile reads a single entry with its reader.
func (w *Walker) ReadFile(entry FileEntry, opts parser.Options) (*parser.OutputTable, error) {
	return entry.Reader.Read(entry.Path, opts)
}
