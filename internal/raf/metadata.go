package raf

import (
	"bytes"
	"time"

	"github.com/rwcarlsen/goexif/exif"

	"raf-importer/internal/filesystem"
	"raf-importer/internal/logging"
)

// Metadata carries the per-file facts used for orientation resolution
// and ordering. Fields stay at their zero values when the container or
// the preview's EXIF block does not provide them.
type Metadata struct {
	// Orientation is the rotation tag recorded by the camera, nil when
	// absent. Values may be degrees or EXIF codes; ResolveOrientation
	// handles both.
	Orientation *int

	// SensorWidth and SensorHeight come from the CFA directory.
	SensorWidth  int
	SensorHeight int

	// CaptureTime is the EXIF DateTime.
	CaptureTime time.Time
}

// ReadMetadata parses the container and the embedded preview's EXIF
// block. Missing EXIF is not an error.
func ReadMetadata(path string) (Metadata, error) {
	data, err := filesystem.ReadFile(path)
	if err != nil {
		return Metadata{}, err
	}
	return readMetadata(data)
}

func readMetadata(data []byte) (Metadata, error) {
	c, err := parseContainer(data)
	if err != nil {
		return Metadata{}, err
	}
	meta := Metadata{
		SensorWidth:  c.SensorWidth,
		SensorHeight: c.SensorHeight,
	}
	jpeg, err := extractPreview(data)
	if err != nil {
		// A RAF without a readable preview still has sensor records.
		return meta, nil
	}
	fillEXIF(&meta, jpeg)
	return meta, nil
}

func fillEXIF(meta *Metadata, jpeg []byte) {
	x, err := exif.Decode(bytes.NewReader(jpeg))
	if err != nil {
		logging.Debug("No EXIF block in preview: %v", err)
		return
	}
	if tag, err := x.Get(exif.Orientation); err == nil {
		if v, err := tag.Int(0); err == nil {
			meta.Orientation = &v
		}
	}
	if dt, err := x.DateTime(); err == nil {
		meta.CaptureTime = dt
	}
}
