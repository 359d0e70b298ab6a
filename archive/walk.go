package archive

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path"

	apperrors "github.com/kbukum/pullpipe/errors"
)

// entry is one item of the tree being archived.
type entry struct {
	name string // archive path, slash separated
	rel  string // path inside fsys
	info fs.FileInfo
	link string
}

// openRoot checks that root is a readable directory.
func openRoot(root string) (fs.FS, error) {
	info, err := os.Stat(root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, apperrors.NotFound("directory", root)
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if !info.IsDir() {
		return nil, apperrors.InvalidInput("root", root+" is not a directory")
	}
	return os.DirFS(root), nil
}

// walk visits the tree in lexical order, checking ctx between entries.
func walk(ctx context.Context, fsys fs.FS, o *options, visit func(entry) error) error {
	return fs.WalkDir(fsys, ".", func(rel string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if o.filter != nil && !o.filter(rel, d) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		e := entry{name: path.Join(o.prefix, rel), rel: rel, info: info}
		switch {
		case d.IsDir():
			e.name += "/"
		case d.Type()&fs.ModeSymlink != 0:
			if e.link, err = fs.ReadLink(fsys, rel); err != nil {
				return err
			}
		case !d.Type().IsRegular():
			return nil
		}
		return visit(e)
	})
}
