package filewalker

import (
	"path/filepath"
	"testing"

	"github.com/user/neaspec_go/internal/parser"
	"github.com/user/neaspec_go/internal/testutil"
)

func TestWalk(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "scan.nea", "Row\tColumn\n")
	testutil.WriteFile(t, root, "sub/spectra.txt", "# Project:\tdemo\n")
	testutil.WriteFile(t, root, "map O1A raw.gsf", "gsf")
	testutil.WriteFile(t, root, "map O1P raw.gsf", "gsf")
	testutil.WriteFile(t, root, "map.html", "<html></html>")
	testutil.WriteFile(t, root, "plain.gsf", "gsf")
	testutil.WriteFile(t, root, "notes.md", "ignored")

	entries, err := NewWalker().Walk(root)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}

	want := []string{
		filepath.Join(root, "map O1A raw.gsf"),
		filepath.Join(root, "scan.nea"),
		filepath.Join(root, "sub", "spectra.txt"),
	}
	if len(entries) != len(want) {
		t.Fatalf("entries = %+v, want %d", entries, len(want))
	}
	for i, e := range entries {
		if e.Path != want[i] {
			t.Errorf("entry %d path = %q, want %q", i, e.Path, want[i])
		}
	}

	gsfEntry := entries[0]
	if _, ok := gsfEntry.Reader.(parser.GSFReader); !ok {
		t.Errorf("GSF entry reader = %T", gsfEntry.Reader)
	}
	wantCompanions := []string{filepath.Join(root, "map O1P raw.gsf"), filepath.Join(root, "map.html")}
	if len(gsfEntry.Companions) != 2 ||
		gsfEntry.Companions[0] != wantCompanions[0] || gsfEntry.Companions[1] != wantCompanions[1] {
		t.Errorf("companions = %v, want %v", gsfEntry.Companions, wantCompanions)
	}

	if _, ok := entries[1].Reader.(parser.TextReader); !ok || entries[1].Ext != ".nea" {
		t.Errorf("text entry = %+v", entries[1])
	}
}

func TestWalkRejectsFileRoot(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "scan.nea", "")
	if _, err := NewWalker().Walk(path); err == nil {
		t.Error("file root accepted")
	}
	if _, err := NewWalker().Walk(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("missing root accepted")
	}
}

func TestReadFile(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "scan.nea", "row\tcolumn\trun\tchannel\ts0\ts1\n"+
		"0\t0\t0\tM\t0\t1\n"+
		"0\t0\t0\tO0A\t5\t6\n"+
		"0\t0\t0\tO0P\t0.1\t0.2\n")

	w := NewWalker()
	entries, err := w.Walk(root)
	if err != nil || len(entries) != 1 {
		t.Fatalf("Walk = %v, %v", entries, err)
	}
	table, err := w.ReadFile(entries[0], parser.Options{})
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if table.Variant != parser.VariantLegacy || table.NumRows() != 2 {
		t.Errorf("variant %q rows %d", table.Variant, table.NumRows())
	}
}
