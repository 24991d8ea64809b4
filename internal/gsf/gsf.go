// Package gsf reads and writes Gwyddion Simple Field raster files.
//
// A GSF file is a text header ("Gwyddion Simple Field 1.0" followed by
// "Key = Value" lines), NUL padding up to a 4-byte boundary, then
// XRes*YRes little-endian float32 samples stored row by row.
package gsf

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
)

const magic = "Gwyddion Simple Field 1.0"

// Header holds the key/value lines of a GSF header.
type Header struct {
	Fields map[string]string
}

func NewHeader() *Header {
	return &Header{Fields: make(map[string]string)}
}

func (h *Header) GetString(key string) string {
	return h.Fields[key]
}

func (h *Header) GetInt(key string) (int, bool) {
	v, ok := h.Fields[key]
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, false
	}
	return i, true
}

func (h *Header) GetDouble(key string) (float64, bool) {
	v, ok := h.Fields[key]
	if !ok {
		return 0, false
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, false
	}
	return d, true
}

// Image is a decoded GSF raster.
type Image struct {
	XRes, YRes int
	// Data holds YRes rows of XRes samples.
	Data   []float64
	Header *Header
}

// Rows returns the raster as YRes slices sharing Data's storage.
func (img *Image) Rows() [][]float64 {
	rows := make([][]float64, img.YRes)
	for y := range rows {
		rows[y] = img.Data[y*img.XRes : (y+1)*img.XRes]
	}
	return rows
}

// Read decodes the GSF file at path.
func Read(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening GSF file: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads a GSF stream.
func Decode(r io.Reader) (*Image, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading GSF data: %w", err)
	}
	if !bytes.HasPrefix(raw, []byte(magic)) {
		return nil, fmt.Errorf("invalid GSF: missing %q signature", magic)
	}
	end := bytes.IndexByte(raw, 0)
	if end < 0 {
		return nil, fmt.Errorf("invalid GSF: header is not NUL terminated")
	}

	header := NewHeader()
	lines := strings.Split(string(raw[:end]), "\n")
	for _, line := range lines[1:] {
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		header.Fields[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	xres, okX := header.GetInt("XRes")
	yres, okY := header.GetInt("YRes")
	if !okX || !okY || xres <= 0 || yres <= 0 {
		return nil, fmt.Errorf("invalid GSF: XRes=%q, YRes=%q", header.GetString("XRes"), header.GetString("YRes"))
	}

	offset := end + (4 - end%4)
	numPixels := xres * yres
	if len(raw)-offset < numPixels*4 {
		return nil, fmt.Errorf("reading GSF samples: need %d bytes, have %d", numPixels*4, len(raw)-offset)
	}
	data := make([]float64, numPixels)
	for i := range data {
		bits := binary.LittleEndian.Uint32(raw[offset+i*4:])
		data[i] = float64(math.Float32frombits(bits))
	}

	return &Image{XRes: xres, YRes: yres, Data: data, Header: header}, nil
}

// Encode writes img in GSF layout. XRes and YRes are always taken from the
// image dimensions; other header fields are written in key order.
func Encode(w io.Writer, img *Image) error {
	if img.XRes <= 0 || img.YRes <= 0 || len(img.Data) != img.XRes*img.YRes {
		return fmt.Errorf("invalid image: %dx%d with %d samples", img.XRes, img.YRes, len(img.Data))
	}
	var buf bytes.Buffer
	buf.WriteString(magic + "\n")
	fmt.Fprintf(&buf, "XRes = %d\n", img.XRes)
	fmt.Fprintf(&buf, "YRes = %d\n", img.YRes)
	if img.Header != nil {
		keys := make([]string, 0, len(img.Header.Fields))
		for k := range img.Header.Fields {
			if k != "XRes" && k != "YRes" {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&buf, "%s = %s\n", k, img.Header.Fields[k])
		}
	}
	buf.Write(make([]byte, 4-buf.Len()%4))

	sample := make([]byte, 4)
	for _, v := range img.Data {
		binary.LittleEndian.PutUint32(sample, math.Float32bits(float32(v)))
		buf.Write(sample)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// Decoder adapts Read to the raster collaborator used by the spectral
// readers.
type Decoder struct{}

func (Decoder) DecodeRaster(path string) ([][]float64, error) {
	img, err := Read(path)
	if err != nil {
		return nil, err
	}
	return img.Rows(), nil
}
