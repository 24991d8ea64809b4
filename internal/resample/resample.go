// Package resample puts per-run sweeps onto a shared coordinate axis.
//
// Every run of a pixel is recorded against its own reference (mirror
// position) vector. The shared axis spans the range all reference vectors
// have in common, so every run can be interpolated onto it without
// extrapolation.
package resample

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/stat"
)

// ErrDomain is returned when an axis point lies outside the sampled range.
var ErrDomain = errors.New("point outside interpolation domain")

// Envelope tracks the intersection of a set of [min, max] ranges.
type Envelope struct {
	Min, Max float64
	set      bool
}

// Include narrows the envelope to the range of xs. Empty or all-NaN
// vectors are ignored.
func (e *Envelope) Include(xs []float64) {
	lo, hi, ok := finiteRange(xs)
	if !ok {
		return
	}
	if !e.set {
		e.Min, e.Max, e.set = lo, hi, true
		return
	}
	e.Min = math.Max(e.Min, lo)
	e.Max = math.Min(e.Max, hi)
}

// Valid reports whether at least one range was included and the
// intersection is not empty.
func (e Envelope) Valid() bool { return e.set && e.Min <= e.Max }

// CommonAxis returns n uniformly spaced points over the envelope.
func CommonAxis(e Envelope, n int) ([]float64, error) {
	if !e.set {
		return nil, fmt.Errorf("%w: no reference vectors", ErrDomain)
	}
	if e.Min > e.Max {
		return nil, fmt.Errorf("%w: reference ranges do not overlap (%g > %g)", ErrDomain, e.Min, e.Max)
	}
	switch {
	case n <= 0:
		return nil, fmt.Errorf("axis length must be positive, got %d", n)
	case n == 1:
		return []float64{e.Min}, nil
	case e.Min == e.Max:
		return nil, fmt.Errorf("%w: reference ranges only touch at %g, cannot span %d points", ErrDomain, e.Min, n)
	}
	return floats.Span(make([]float64, n), e.Min, e.Max), nil
}

// Interpolate evaluates the piecewise linear function through (xs, ys) at
// every point of at. xs need not be sorted; repeated x values keep their
// first sample. Points outside [min(xs), max(xs)] fail with ErrDomain.
func Interpolate(xs, ys, at []float64) ([]float64, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("length mismatch: %d x values, %d y values", len(xs), len(ys))
	}
	sx, sy := sortedUnique(xs, ys)
	if len(sx) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 distinct x values, got %d", ErrDomain, len(sx))
	}
	lo, hi := sx[0], sx[len(sx)-1]

	var pl interp.PiecewiseLinear
	if err := pl.Fit(sx, sy); err != nil {
		return nil, err
	}
	out := make([]float64, len(at))
	for i, x := range at {
		if math.IsNaN(x) || x < lo || x > hi {
			return nil, fmt.Errorf("%w: %g not in [%g, %g]", ErrDomain, x, lo, hi)
		}
		out[i] = pl.Predict(x)
	}
	return out, nil
}

// MeanRows averages equally long rows element-wise. A NaN in any row makes
// the corresponding output NaN.
func MeanRows(rows [][]float64) []float64 {
	if len(rows) == 0 {
		return nil
	}
	n := len(rows[0])
	out := make([]float64, n)
	col := make([]float64, len(rows))
	for j := 0; j < n; j++ {
		for i, r := range rows {
			col[i] = r[j]
		}
		out[j] = stat.Mean(col, nil)
	}
	return out
}

// NaNs returns a slice of n NaN values.
func NaNs(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func finiteRange(xs []float64) (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, x := range xs {
		if math.IsNaN(x) {
			continue
		}
		ok = true
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	return lo, hi, ok
}

// sortedUnique drops NaN x values, sorts by x and removes repeated x.
func sortedUnique(xs, ys []float64) ([]float64, []float64) {
	idx := make([]int, 0, len(xs))
	for i, x := range xs {
		if !math.IsNaN(x) {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool { return xs[idx[a]] < xs[idx[b]] })

	sx := make([]float64, 0, len(idx))
	sy := make([]float64, 0, len(idx))
	for _, i := range idx {
		if n := len(sx); n > 0 && sx[n-1] == xs[i] {
			continue
		}
		sx = append(sx, xs[i])
		sy = append(sy, ys[i])
	}
	return sx, sy
}
