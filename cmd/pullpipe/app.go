package main

import (
	"errors"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/pullpipe/archive"
	apperrors "github.com/kbukum/pullpipe/errors"
	"github.com/kbukum/pullpipe/httpstream"
	"github.com/kbukum/pullpipe/logger"
	"github.com/kbukum/pullpipe/observability"
	"github.com/kbukum/pullpipe/process"
	"github.com/kbukum/pullpipe/stream"
)

// app holds the routes that expose producers over HTTP.
type app struct {
	cfg  *Config
	log  *logger.Logger
	opts []stream.Option
}

func newApp(cfg *Config, log *logger.Logger, metrics *observability.StreamMetrics) *app {
	return &app{
		cfg: cfg,
		log: log,
		opts: []stream.Option{
			stream.WithConfig(cfg.Stream),
			stream.WithLogger(log.WithComponent("stream")),
			stream.WithMetrics(metrics),
		},
	}
}

func (a *app) register(engine *gin.Engine) {
	engine.GET("/archive/*path", httpstream.Handler(a.archiveSource, a.opts...))
	engine.GET("/run/:name", httpstream.Handler(a.commandSource, a.opts...))
	engine.GET("/run/:name/events", httpstream.EventsHandler(a.commandSource, a.opts...))
}

func (a *app) checkers() []observability.HealthChecker {
	return []observability.HealthChecker{
		observability.ConduitCheck(),
		observability.DirCheck("archive_root", a.cfg.Archive.Root),
	}
}

// archiveSource streams the directory named by the path parameter in the
// format named by the format query parameter (tar by default).
func (a *app) archiveSource(c *gin.Context) (*httpstream.Source, error) {
	format, err := archive.ParseFormat(c.Query("format"))
	if err != nil {
		return nil, err
	}
	dir, err := resolve(a.cfg.Archive.Root, c.Param("path"))
	if err != nil {
		return nil, err
	}

	name := filepath.Base(dir)
	return &httpstream.Source{
		Producer: archive.Compressed(format, dir,
			archive.WithPrefix(name),
			archive.WithLogger(a.log.WithComponent("archive")),
		),
		ContentType: format.ContentType(),
		Filename:    name + format.Extension(),
	}, nil
}

func (a *app) commandSource(c *gin.Context) (*httpstream.Source, error) {
	name := c.Param("name")
	cc, ok := a.cfg.Commands[name]
	if !ok {
		return nil, apperrors.NotFound("command", name)
	}
	return &httpstream.Source{
		Producer: process.Producer(process.Command{
			Binary:      cc.Binary,
			Args:        slices.Clone(cc.Args),
			Dir:         cc.Dir,
			GracePeriod: cc.GracePeriod,
		}),
		ContentType: cc.ContentType,
	}, nil
}

// resolve maps a request path onto a directory under root. Symlinks are
// followed before the containment check.
func resolve(root, reqPath string) (string, error) {
	rel := filepath.Clean("/" + filepath.FromSlash(reqPath))

	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return "", apperrors.Internal(err)
	}
	target, err := filepath.EvalSymlinks(filepath.Join(realRoot, rel))
	if errors.Is(err, fs.ErrNotExist) {
		return "", apperrors.NotFound("directory", reqPath)
	}
	if err != nil {
		return "", apperrors.Internal(err)
	}

	inner, err := filepath.Rel(realRoot, target)
	if err != nil || inner == ".." || strings.HasPrefix(inner, ".."+string(filepath.Separator)) {
		return "", apperrors.InvalidInput("path", "outside the archive root")
	}
	return target, nil
}
