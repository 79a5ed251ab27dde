package export

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/davidbyttow/govips/v2/vips"
	_ "golang.org/x/image/tiff"

	"raf-importer/internal/raf"
)

// ErrEncode wraps failures while turning a developed frame into a JPEG.
var ErrEncode = errors.New("jpeg encode failed")

// Encoder produces the final JPEG bytes for a developed frame,
// applying the resolved rotation before encoding.
type Encoder interface {
	EncodeJPEG(developed []byte, orient raf.Orientation, quality int) ([]byte, error)
}

// VipsEncoder encodes through libvips. InitVips must have been called.
type VipsEncoder struct{}

func (VipsEncoder) EncodeJPEG(developed []byte, orient raf.Orientation, quality int) ([]byte, error) {
	ref, err := vips.NewImageFromBuffer(developed)
	if err != nil {
		return nil, fmt.Errorf("%w: import developed frame: %v", ErrEncode, err)
	}
	defer ref.Close()

	if angle := vipsAngle(orient); angle != vips.Angle0 {
		if err := ref.Rotate(angle); err != nil {
			return nil, fmt.Errorf("%w: rotate: %v", ErrEncode, err)
		}
	}

	out, _, err := ref.ExportJpeg(&vips.JpegExportParams{
		Quality:        quality,
		StripMetadata:  false,
		OptimizeCoding: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return out, nil
}

// vipsAngle maps counter-clockwise quarter turns onto libvips, whose
// rotations run clockwise.
func vipsAngle(orient raf.Orientation) vips.Angle {
	switch orient {
	case raf.Rotate90:
		return vips.Angle270
	case raf.Rotate180:
		return vips.Angle180
	case raf.Rotate270:
		return vips.Angle90
	default:
		return vips.Angle0
	}
}

// StdEncoder is the pure-Go fallback used when libvips is unavailable.
type StdEncoder struct{}

func (StdEncoder) EncodeJPEG(developed []byte, orient raf.Orientation, quality int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(developed))
	if err != nil {
		return nil, fmt.Errorf("%w: decode developed frame: %v", ErrEncode, err)
	}
	img = orient.Apply(img)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return buf.Bytes(), nil
}
