package raf

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"raf-importer/internal/filesystem"
	"raf-importer/internal/logging"
)

// PreviewSource produces displayable pixels for a raw file plus whatever
// metadata the container carries. Decode failures classify as ErrDecode.
type PreviewSource interface {
	LoadPreview(ctx context.Context, path string) (image.Image, Metadata, error)
}

// EmbeddedPreviewSource decodes the JPEG preview inside the RAF
// container. No demosaic runs, which keeps the browse path cheap.
type EmbeddedPreviewSource struct{}

// LoadPreview implements PreviewSource.
func (EmbeddedPreviewSource) LoadPreview(ctx context.Context, path string) (image.Image, Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, Metadata{}, err
	}
	data, err := filesystem.ReadFile(path)
	if err != nil {
		return nil, Metadata{}, err
	}
	meta, err := readMetadata(data)
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	jpegData, err := extractPreview(data)
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	img, err := imaging.Decode(bytes.NewReader(jpegData))
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	logging.Debug("Decoded preview for %s: %dx%d", path, img.Bounds().Dx(), img.Bounds().Dy())
	return img, meta, nil
}
