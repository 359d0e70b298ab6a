// Package archive provides stream producers that write tar and zip archives
// of a directory tree, optionally compressed.
//
// Archive writers can only push into a sink; wrapping them as producers lets
// callers pull the archive as it is built:
//
//	producer := archive.Compressed(archive.FormatZstd, "/srv/data")
//	for chunk, err := range stream.Chunks(ctx, producer) {
//		...
//	}
package archive
