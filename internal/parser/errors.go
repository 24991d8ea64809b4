package parser

import "errors"

var (
	// ErrFormatViolation reports a missing required token, key or table.
	ErrFormatViolation = errors.New("format violation")
	// ErrGeometryMismatch reports inconsistent grid indices or shapes.
	ErrGeometryMismatch = errors.New("geometry mismatch")
	// ErrInterpolationDomain reports an axis point outside a run's reference range.
	ErrInterpolationDomain = errors.New("interpolation domain error")
	// ErrUnknownChannel reports a channel label outside the M / O<n>A / O<n>P grammar.
	ErrUnknownChannel = errors.New("unknown channel")
	// ErrIncompletePixel reports a missing run/channel slot when complete data is required.
	ErrIncompletePixel = errors.New("incomplete pixel")
)
