// Package raf reads Fujifilm RAF containers: the embedded JPEG preview,
// the raw sensor dimensions from the CFA directory, and the EXIF fields
// carried by the preview. It also defines the orientation model shared
// by the browse and export paths, the fixed develop profile, and the two
// sources that turn a raw file into pixels.
//
// EmbeddedPreviewSource decodes the in-container JPEG, which is cheap
// enough for browsing. DCRawDeveloper shells out to a dcraw-compatible
// binary for the full-quality demosaic used at export time. Both are
// opaque to callers behind the PreviewSource and Developer interfaces;
// their failures classify under ErrDecode.
package raf
