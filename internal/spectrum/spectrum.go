// Package spectrum turns an amplitude/phase interferogram pair into a
// magnitude spectrum for previews.
package spectrum

import (
	"fmt"
	"math"
	"math/cmplx"

	algofft "github.com/MeKo-Christian/algo-fft"
	vecmath "github.com/cwbudde/algo-vecmath"
)

// Spectrum is the magnitude of the non-negative frequency bins of a
// transformed interferogram.
type Spectrum struct {
	// FFTSize is the zero-padded transform length.
	FFTSize int
	// Bins holds FFTSize/2+1 magnitudes, normalised by the window gain.
	Bins []float64
}

// Frequencies returns the bin centres in cycles per sample step.
func (s *Spectrum) Frequencies() []float64 {
	f := make([]float64, len(s.Bins))
	for k := range f {
		f[k] = float64(k) / float64(s.FFTSize)
	}
	return f
}

// Peak returns the index and magnitude of the largest bin, skipping DC.
func (s *Spectrum) Peak() (int, float64) {
	best, idx := math.Inf(-1), -1
	for k := 1; k < len(s.Bins); k++ {
		if s.Bins[k] > best {
			best, idx = s.Bins[k], k
		}
	}
	return idx, best
}

// Hann returns n symmetric Hann window coefficients.
func Hann(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}

func nextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Transform builds the complex interferogram amplitude*exp(i*phase), applies
// a Hann window, zero-pads to a power of two and returns the magnitude
// spectrum. NaN samples are treated as zero.
func Transform(amplitude, phase []float64) (*Spectrum, error) {
	n := len(amplitude)
	if n != len(phase) {
		return nil, fmt.Errorf("amplitude has %d samples, phase has %d", n, len(phase))
	}
	if n < 2 {
		return nil, fmt.Errorf("need at least 2 samples, got %d", n)
	}

	re := make([]float64, n)
	im := make([]float64, n)
	for i := range amplitude {
		a, p := amplitude[i], phase[i]
		if math.IsNaN(a) || math.IsNaN(p) {
			continue
		}
		z := cmplx.Rect(a, p)
		re[i], im[i] = real(z), imag(z)
	}

	win := Hann(n)
	vecmath.MulBlockInPlace(re, win)
	vecmath.MulBlockInPlace(im, win)
	gain := vecmath.Sum(win) / float64(n)

	size := nextPowerOf2(n)
	in := make([]complex128, size)
	for i := 0; i < n; i++ {
		in[i] = complex(re[i], im[i])
	}

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, fmt.Errorf("spectrum fft plan: %w", err)
	}
	out := make([]complex128, size)
	if err := plan.Forward(out, in); err != nil {
		return nil, fmt.Errorf("spectrum forward fft: %w", err)
	}

	bins := size/2 + 1
	outRe := make([]float64, bins)
	outIm := make([]float64, bins)
	for k := 0; k < bins; k++ {
		outRe[k], outIm[k] = real(out[k]), imag(out[k])
	}
	mag := make([]float64, bins)
	vecmath.Magnitude(mag, outRe, outIm)
	if gain > 0 {
		vecmath.ScaleBlockInPlace(mag, 1/(gain*float64(n)))
	}

	return &Spectrum{FFTSize: size, Bins: mag}, nil
}
