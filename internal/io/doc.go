// Package ioutils provides file system utilities for the
// chronicle-bulk-downloader.
//
// This package contains functions for:
//   - Atomic file writes (temp file + rename)
//   - Zero-byte result cleanup
//   - Bundling a completed study tree into a zip archive
//   - Filename sanitization
//   - Directory creation
//
// Writes are staged to a temporary file in the destination directory and
// renamed into place, so a crash mid-write never leaves a partial file at
// the final path.
package ioutils
