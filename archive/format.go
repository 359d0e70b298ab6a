package archive

import (
	"strings"

	apperrors "github.com/kbukum/pullpipe/errors"
)

// Format is an archive container and compression combination.
type Format string

const (
	FormatTar    Format = "tar"
	FormatZip    Format = "zip"
	FormatGzip   Format = "gzip"
	FormatZstd   Format = "zstd"
	FormatBrotli Format = "brotli"
	FormatLZ4    Format = "lz4"
)

var formats = map[string]Format{
	"tar":    FormatTar,
	"zip":    FormatZip,
	"gzip":   FormatGzip,
	"gz":     FormatGzip,
	"tgz":    FormatGzip,
	"zstd":   FormatZstd,
	"zst":    FormatZstd,
	"brotli": FormatBrotli,
	"br":     FormatBrotli,
	"lz4":    FormatLZ4,
}

// ParseFormat parses a format name. The empty string means tar.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return FormatTar, nil
	}
	if f, ok := formats[s]; ok {
		return f, nil
	}
	return "", apperrors.InvalidInput("format", "unsupported archive format "+s)
}

// Compressed reports whether the format wraps a tar stream in a compressor.
func (f Format) Compressed() bool {
	switch f {
	case FormatGzip, FormatZstd, FormatBrotli, FormatLZ4:
		return true
	default:
		return false
	}
}

// Extension returns the conventional file extension.
func (f Format) Extension() string {
	switch f {
	case FormatZip:
		return ".zip"
	case FormatGzip:
		return ".tar.gz"
	case FormatZstd:
		return ".tar.zst"
	case FormatBrotli:
		return ".tar.br"
	case FormatLZ4:
		return ".tar.lz4"
	default:
		return ".tar"
	}
}

// ContentType returns the media type served for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatZip:
		return "application/zip"
	case FormatGzip:
		return "application/gzip"
	case FormatZstd:
		return "application/zstd"
	case FormatBrotli:
		return "application/x-brotli"
	case FormatLZ4:
		return "application/x-lz4"
	default:
		return "application/x-tar"
	}
}
