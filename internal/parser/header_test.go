package parser

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestParseHeader(t *testing.T) {
	lines := []string{
		"# Project:\tdemo",
		"# Pixel Area (X, Y, Z):\tnm\t10\t20\t5",
		"# Description: tip scan",
		"# Time:\t12:30:00",
		"#",
		"# junk line",
	}
	md, warnings := ParseHeader(lines)

	want := Metadata{
		"Project":              {"demo"},
		"Pixel Area (X, Y, Z)": {"nm", "10", "20", "5"},
		"Description":          {"tip scan"},
		"Time":                 {"12:30:00"},
	}
	if !reflect.DeepEqual(md, want) {
		t.Errorf("metadata = %v, want %v", md, want)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "junk line") {
		t.Errorf("warnings = %v", warnings)
	}

	cols, rows, depth, err := md.PixelArea()
	if err != nil {
		t.Fatalf("PixelArea: %v", err)
	}
	if cols != 10 || rows != 20 || depth != 5 {
		t.Errorf("PixelArea = %d, %d, %d", cols, rows, depth)
	}
}

func TestMetadataAccessors(t *testing.T) {
	md := Metadata{
		"Averaging": {"4.0"},
		"List":      {"a", "b"},
		"Bad":       {"x"},
	}

	if n, err := md.GetInt("Averaging"); err != nil || n != 4 {
		t.Errorf("GetInt(Averaging) = %d, %v", n, err)
	}
	if _, err := md.GetInt("List"); !errors.Is(err, ErrFormatViolation) {
		t.Errorf("GetInt(List) err = %v", err)
	}
	if _, err := md.GetInt("Bad"); !errors.Is(err, ErrFormatViolation) {
		t.Errorf("GetInt(Bad) err = %v", err)
	}
	if _, err := md.GetInt("Missing"); !errors.Is(err, ErrFormatViolation) {
		t.Errorf("GetInt(Missing) err = %v", err)
	}
	if got := md.GetString("List"); got != "[a, b]" {
		t.Errorf("GetString(List) = %q", got)
	}

	err := md.Require("Averaging", "X", "Y")
	if !errors.Is(err, ErrFormatViolation) || !strings.Contains(err.Error(), "X, Y") {
		t.Errorf("Require err = %v", err)
	}

	clone := md.Clone()
	clone["List"][0] = "changed"
	if md["List"][0] != "a" {
		t.Error("Clone shares value storage")
	}
}
