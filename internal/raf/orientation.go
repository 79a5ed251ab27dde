package raf

import (
	"image"

	"github.com/disintegration/imaging"
)

// Orientation is the canonical rotation attached to decoded pixels.
// Rotations are quarter turns counter-clockwise.
type Orientation int

const (
	OrientNone Orientation = iota
	Rotate90
	Rotate180
	Rotate270
)

func (o Orientation) String() string {
	switch o {
	case Rotate90:
		return "rotate90"
	case Rotate180:
		return "rotate180"
	case Rotate270:
		return "rotate270"
	default:
		return "none"
	}
}

// Degrees returns the counter-clockwise rotation in degrees.
func (o Orientation) Degrees() int {
	switch o {
	case Rotate90:
		return 90
	case Rotate180:
		return 180
	case Rotate270:
		return 270
	default:
		return 0
	}
}

// ResolveOrientation normalizes the signals a raw file offers into one
// canonical rotation. Priority: the metadata tag when it carries a
// recognized value, then the sensor-dimension portrait heuristic, then
// the decoded-dimension heuristic. It never fails; anything unexpected
// resolves to OrientNone.
//
// Recognized tag values are degrees (0, 90, 180, 270) and the mirrored
// EXIF codes 3, 5 and 7. Other codes, including plain EXIF 6 and 8,
// fall through to the dimension heuristics.
func ResolveOrientation(tag *int, sensorW, sensorH, decodedW, decodedH int) Orientation {
	if tag != nil {
		switch *tag {
		case 0:
			return OrientNone
		case 90, 5:
			return Rotate90
		case 180, 3:
			return Rotate180
		case 270, 7:
			return Rotate270
		}
	}
	if sensorH > sensorW {
		return Rotate90
	}
	if decodedH > decodedW {
		return Rotate90
	}
	return OrientNone
}

// Apply returns img rotated by o.
func (o Orientation) Apply(img image.Image) image.Image {
	switch o {
	case Rotate90:
		return imaging.Rotate90(img)
	case Rotate180:
		return imaging.Rotate180(img)
	case Rotate270:
		return imaging.Rotate270(img)
	default:
		return img
	}
}
