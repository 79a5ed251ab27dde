package raf

import "errors"

var (
	// ErrNotRAF marks files that do not begin with the RAF container magic.
	ErrNotRAF = errors.New("not a RAF container")

	// ErrNoPreview marks containers whose preview pointers are missing,
	// out of bounds, or do not reference JPEG data.
	ErrNoPreview = errors.New("no usable embedded preview")

	// ErrDecode marks failed preview or full decodes.
	ErrDecode = errors.New("raw decode failed")
)
