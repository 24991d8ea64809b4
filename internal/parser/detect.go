package parser

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
)

// Format is the top-level text layout chosen from a file's first bytes.
type Format int

const (
	FormatLegacy Format = iota
	FormatModern
)

func (f Format) String() string {
	if f == FormatModern {
		return "modern"
	}
	return "legacy"
}

// Variant names the dialect a table was read with.
type Variant string

const (
	VariantAuto         Variant = ""
	VariantLegacy       Variant = "v1"
	VariantModern       Variant = "v2"
	VariantMultiChannel Variant = "multichannel"
	VariantGSF          Variant = "gsf"
)

var modernMagic = []byte("# ")

// DetectFormat reads the first two bytes of the file at path.
func DetectFormat(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return FormatLegacy, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return DetectFormatReader(f)
}

// DetectFormatReader selects the modern layout when r starts with "# ".
// Short inputs select the legacy layout.
func DetectFormatReader(r io.Reader) (Format, error) {
	head := make([]byte, len(modernMagic))
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return FormatLegacy, fmt.Errorf("failed to read file head: %w", err)
	}
	if bytes.Equal(head[:n], modernMagic) {
		return FormatModern, nil
	}
	return FormatLegacy, nil
}

// ParseVariant accepts a dialect name as used on the command line. The
// empty string and "auto" select detection.
func ParseVariant(s string) (Variant, error) {
	switch v := Variant(strings.ToLower(strings.TrimSpace(s))); v {
	case VariantAuto, VariantLegacy, VariantModern, VariantMultiChannel, VariantGSF:
		return v, nil
	case "auto":
		return VariantAuto, nil
	default:
		return VariantAuto, fmt.Errorf("unknown variant %q (want auto, v1, v2, multichannel or gsf)", s)
	}
}
