package archive

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"io/fs"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/kbukum/pullpipe/logger"
	"github.com/kbukum/pullpipe/stream"
)

// Tar returns a producer that writes an uncompressed tar archive of root.
func Tar(root string, opts ...Option) stream.ProducerFunc {
	return Compressed(FormatTar, root, opts...)
}

// Compressed returns a producer that writes a tar archive of root wrapped in
// the compressor for format. FormatTar writes no compression; FormatZip
// delegates to Zip.
func Compressed(format Format, root string, opts ...Option) stream.ProducerFunc {
	if format == FormatZip {
		return Zip(root, opts...)
	}
	o := newOptions(opts)
	return func(ctx context.Context, w *stream.Writer) error {
		fsys, err := openRoot(root)
		if err != nil {
			return err
		}

		cw, err := newCompressor(format, w)
		if err != nil {
			return err
		}
		// Encoders are released on every path, including a walk cut short
		// by a consumer that went away.
		closed := false
		defer func() {
			if !closed {
				_ = cw.Close()
			}
		}()
		tw := tar.NewWriter(cw)

		entries := 0
		err = walk(ctx, fsys, o, func(e entry) error {
			entries++
			return writeTarEntry(tw, fsys, e)
		})
		if err != nil {
			return fmt.Errorf("archive %s: %w", root, err)
		}
		if err := tw.Close(); err != nil {
			return fmt.Errorf("archive %s: %w", root, err)
		}
		closed = true
		if err := cw.Close(); err != nil {
			return fmt.Errorf("archive %s: %w", root, err)
		}

		o.log.Debug("archive written", logger.Fields(
			logger.FieldPath, root,
			"format", string(format),
			"entries", entries,
			logger.FieldBytes, w.Written(),
		))
		return nil
	}
}

func writeTarEntry(tw *tar.Writer, fsys fs.FS, e entry) error {
	hdr, err := tar.FileInfoHeader(e.info, e.link)
	if err != nil {
		return err
	}
	hdr.Name = e.name
	hdr.Uname, hdr.Gname = "", ""
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	if !e.info.Mode().IsRegular() {
		return nil
	}
	return copyFile(tw, fsys, e.rel)
}

func copyFile(w io.Writer, fsys fs.FS, rel string) error {
	f, err := fsys.Open(rel)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

var newCompressor = compressor

func compressor(format Format, w io.Writer) (io.WriteCloser, error) {
	switch format {
	case FormatTar:
		return nopCloser{w}, nil
	case FormatGzip:
		return gzip.NewWriter(w), nil
	case FormatZstd:
		return zstd.NewWriter(w)
	case FormatBrotli:
		return brotli.NewWriter(w), nil
	case FormatLZ4:
		return lz4.NewWriter(w), nil
	default:
		return nil, fmt.Errorf("archive: no compressor for format %q", format)
	}
}
