package cmd

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tevino/abool/v2"
	"github.com/valyala/fasthttp"
	"github.com/zeebo/blake3"

	"github.com/ardnew/tpt/lang"
	"github.com/ardnew/tpt/lang/macro"
	"github.com/ardnew/tpt/lang/symbols"
	"github.com/ardnew/tpt/log"
	"github.com/ardnew/tpt/pkg"
)

// templateExt is stripped from a template's name to find the content type
// of its output, so "page.html.tpt" is served as text/html.
const templateExt = ".tpt"

const defaultContentType = "text/html; charset=utf-8"

// queryName matches query parameter names that are bound as variables.
var queryName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

// Serve renders templates on request over HTTP.
type Serve struct {
	Engine `embed:""`
	Vars   `embed:""`

	Listen string        `default:"localhost:8080" help:"Address to listen on"                     short:"l"`
	Root   string        `default:"."              help:"Directory holding the templates"          type:"existingdir"`
	Index  string        `default:"index.tpt"      help:"Template rendered for directory requests"`
	Grace  time.Duration `default:"5s"             help:"Time allowed for requests to finish on shutdown"`

	ctx     context.Context //nolint:containedctx
	base    *symbols.Table
	closing *abool.AtomicBool
}

// Run executes the serve command. It returns when ctx is canceled.
func (s *Serve) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	err = s.prepare(ctx)
	if err != nil {
		return err
	}

	srv := &fasthttp.Server{
		Handler:      s.handle,
		Name:         pkg.Name + "/" + pkg.Version(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		Logger:       serverLogger{},
	}

	failed := make(chan error, 1)

	go func() {
		log.InfoContext(ctx, "serving templates",
			slog.String("listen", s.Listen),
			slog.String("root", s.Root))

		failed <- srv.ListenAndServe(s.Listen)
	}()

	select {
	case err = <-failed:
		return ErrServe.Wrap(err).With(slog.String("listen", s.Listen))

	case <-ctx.Done():
	}

	s.closing.Set()

	grace, stop := context.WithTimeout(context.WithoutCancel(ctx), s.Grace)
	defer stop()

	err = srv.ShutdownWithContext(grace)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return ErrServe.Wrap(err)
	}

	log.InfoContext(ctx, "server stopped")

	return nil
}

// prepare resolves the root and loads the variables shared by every request.
func (s *Serve) prepare(ctx context.Context) error {
	root, err := filepath.Abs(s.Root)
	if err != nil {
		return ErrServe.Wrap(err).With(slog.String("root", s.Root))
	}

	s.Root = root

	if s.Index == "" {
		s.Index = "index" + templateExt
	}

	s.base, err = s.Table(ctx)
	if err != nil {
		return err
	}

	s.closing = abool.New()

	// Requests in flight when shutdown begins are allowed to finish.
	s.ctx = context.WithoutCancel(ctx)

	return nil
}

// handle renders the template named by the request path. Query parameters
// are bound as variables on a copy of the shared table; each request gets
// its own macro store.
func (s *Serve) handle(rc *fasthttp.RequestCtx) {
	if s.closing.IsSet() {
		rc.Error("shutting down", fasthttp.StatusServiceUnavailable)

		return
	}

	if !rc.IsGet() && !rc.IsHead() {
		rc.Error("method not allowed", fasthttp.StatusMethodNotAllowed)
		rc.Response.Header.Set("Allow", "GET, HEAD")

		return
	}

	path, ok := s.resolve(string(rc.Path()))
	if !ok {
		rc.Error("not found", fasthttp.StatusNotFound)

		return
	}

	syms := s.base.Clone()

	rc.QueryArgs().VisitAll(func(key, value []byte) {
		if name := string(key); queryName.MatchString(name) {
			_ = syms.Set(name, string(value), nil)
		}
	})

	ev, err := lang.NewFile(path, syms, s.options(syms, macro.New())...)
	if err != nil {
		rc.Error("not found", fasthttp.StatusNotFound)

		return
	}

	var body bytes.Buffer

	err = ev.Run(s.ctx, &body)

	switch {
	case err == nil:
	case errors.Is(err, lang.ErrTemplate):
		log.Warn("template has errors",
			slog.String("template", path),
			slog.Int("errors", ev.ErrorCount()))
		rc.Response.Header.Set("X-Template-Errors", strconv.Itoa(ev.ErrorCount()))
	default:
		log.Error("render failed", slog.String("template", path), slog.Any("error", err))
		rc.Error("render failed", fasthttp.StatusInternalServerError)

		return
	}

	tag := etag(body.Bytes())

	rc.Response.Header.Set("ETag", tag)
	rc.SetContentType(contentType(path))

	if match := string(rc.Request.Header.Peek("If-None-Match")); match != "" && matchETag(match, tag) {
		rc.SetStatusCode(fasthttp.StatusNotModified)

		return
	}

	rc.SetStatusCode(fasthttp.StatusOK)

	if rc.IsGet() {
		rc.SetBody(body.Bytes())
	}
}

// resolve maps a request path to a template file under the root. Paths that
// escape the root are rejected; directories resolve to their index template.
func (s *Serve) resolve(reqPath string) (string, bool) {
	if strings.Contains(reqPath, "\x00") {
		return "", false
	}

	for _, part := range strings.Split(reqPath, "/") {
		if part == ".." {
			return "", false
		}
	}

	path := filepath.Join(s.Root, filepath.FromSlash(filepath.Clean("/"+reqPath)))

	rel, err := filepath.Rel(s.Root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}

	info, err := os.Stat(path)
	if err == nil && info.IsDir() {
		path = filepath.Join(path, s.Index)
		info, err = os.Stat(path)
	}

	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}

	return path, true
}

// etag returns a strong entity tag derived from the rendered body.
func etag(body []byte) string {
	sum := blake3.Sum256(body)

	return `"` + hex.EncodeToString(sum[:16]) + `"`
}

// matchETag reports whether an If-None-Match header value matches tag.
func matchETag(header, tag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == "*" || candidate == tag {
			return true
		}
	}

	return false
}

// contentType guesses the media type of the output rendered from path.
func contentType(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), templateExt)

	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}

	return defaultContentType
}

// serverLogger forwards fasthttp's diagnostics to the default logger.
type serverLogger struct{}

func (serverLogger) Printf(format string, args ...any) {
	log.Debug("fasthttp", slog.String("message", strings.TrimSpace(fmt.Sprintf(format, args...))))
}
