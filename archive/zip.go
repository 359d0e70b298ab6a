package archive

import (
	"context"
	"fmt"

	"github.com/klauspost/compress/zip"

	"github.com/kbukum/pullpipe/logger"
	"github.com/kbukum/pullpipe/stream"
)

// Zip returns a producer that writes a zip archive of root. Entries use
// data descriptors so the output never needs seeking. Symlinks are skipped.
func Zip(root string, opts ...Option) stream.ProducerFunc {
	o := newOptions(opts)
	return func(ctx context.Context, w *stream.Writer) error {
		fsys, err := openRoot(root)
		if err != nil {
			return err
		}

		zw := zip.NewWriter(w)
		entries := 0
		err = walk(ctx, fsys, o, func(e entry) error {
			if e.link != "" {
				return nil
			}
			hdr, err := zip.FileInfoHeader(e.info)
			if err != nil {
				return err
			}
			hdr.Name = e.name
			if !e.info.IsDir() {
				hdr.Method = zip.Deflate
			}
			fw, err := zw.CreateHeader(hdr)
			if err != nil {
				return err
			}
			entries++
			if e.info.IsDir() {
				return nil
			}
			return copyFile(fw, fsys, e.rel)
		})
		if err != nil {
			return fmt.Errorf("archive %s: %w", root, err)
		}
		if err := zw.Close(); err != nil {
			return fmt.Errorf("archive %s: %w", root, err)
		}

		o.log.Debug("archive written", logger.Fields(
			logger.FieldPath, root,
			"format", string(FormatZip),
			"entries", entries,
			logger.FieldBytes, w.Written(),
		))
		return nil
	}
}
