package gsf

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEncodeDecode(t *testing.T) {
	header := NewHeader()
	header.Fields["Title"] = "O2A raw"
	header.Fields["XReal"] = "1e-06"
	img := &Image{XRes: 3, YRes: 2, Data: []float64{0, 1.5, -2, 3.25, 4, 5}, Header: header}

	var buf bytes.Buffer
	if err := Encode(&buf, img); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	raw := buf.Bytes()
	if !strings.HasPrefix(string(raw), magic+"\n") {
		t.Fatalf("missing magic line")
	}
	headerLen := bytes.IndexByte(raw, 0)
	if (len(raw)-len(img.Data)*4)%4 != 0 || headerLen < 0 {
		t.Fatalf("samples not aligned: total %d, header %d", len(raw), headerLen)
	}

	got, err := Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.XRes != 3 || got.YRes != 2 {
		t.Fatalf("size = %dx%d", got.XRes, got.YRes)
	}
	for i, v := range img.Data {
		if got.Data[i] != v {
			t.Errorf("sample %d = %v, want %v", i, got.Data[i], v)
		}
	}
	if got.Header.GetString("Title") != "O2A raw" {
		t.Errorf("Title = %q", got.Header.GetString("Title"))
	}
	if d, ok := got.Header.GetDouble("XReal"); !ok || d != 1e-6 {
		t.Errorf("XReal = %v, %v", d, ok)
	}

	rows := got.Rows()
	if len(rows) != 2 || rows[1][0] != 3.25 {
		t.Errorf("rows = %v", rows)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"no magic", "Not a GSF\nXRes = 1\nYRes = 1\n\x00\x00\x00\x00\x00\x00\x00"},
		{"no terminator", magic + "\nXRes = 1\nYRes = 1\n"},
		{"missing size", magic + "\nXRes = 1\n\x00\x00"},
		{"truncated samples", magic + "\nXRes = 2\nYRes = 2\n\x00\x00\x00\x00\x00\x00\x00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(strings.NewReader(tt.data)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestEncodeRejectsBadShape(t *testing.T) {
	err := Encode(&bytes.Buffer{}, &Image{XRes: 2, YRes: 2, Data: []float64{1, 2, 3}})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestDecoderReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan O1A raw.gsf")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := Encode(f, &Image{XRes: 2, YRes: 1, Data: []float64{7, 8}}); err != nil {
		t.Fatal(err)
	}
	f.Close()

	rows, err := Decoder{}.DecodeRaster(path)
	if err != nil {
		t.Fatalf("DecodeRaster: %v", err)
	}
	if len(rows) != 1 || rows[0][0] != 7 || rows[0][1] != 8 {
		t.Errorf("rows = %v", rows)
	}
}
