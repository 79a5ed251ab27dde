// Command raf-export develops every Fujifilm RAF file in a directory to
// JPEG without running the service.
//
// It scans a flat directory for .RAF files, runs each through the
// configured dcraw-compatible decoder, rotates by EXIF orientation, and
// encodes to JPEG with libvips when available. Progress prints one line
// per settled file; failures are listed after the final summary.
//
// Usage:
//
//	raf-export [flags]
//
// Flags:
//
//	-dir      directory of raw files to develop (default ".")
//	-out      output directory (default <dir>/export)
//	-workers  parallel develop count (default 1)
//	-quality  JPEG quality 1-100 (default 95)
//	-decoder  raw decoder command (default "dcraw")
//	-v        verbose logging
//
// Exit status:
//
//	0  every file developed
//	1  at least one file failed, or the run was interrupted
//	2  usage error
//
// Notes:
//
// The service gates its export on ratings; this command develops every
// file it finds. An interrupt lets in-flight files finish, so the output
// directory never holds a partially written JPEG.
package main
