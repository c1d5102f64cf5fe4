package lang

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/klauspost/readahead"
	"github.com/zeebo/xxh3"

	"github.com/ardnew/tpt/lang/buffer"
	"github.com/ardnew/tpt/lang/token"
)

// doInclude renders another template file in place.
func (e *Evaluator) doInclude(w io.Writer, tok token.Token) {
	before := e.errs.len()

	args, err := e.params(tok, false)
	if err != nil {
		e.record(err, tok)

		return
	}

	if len(args) != 1 {
		e.record(e.syntax(tok, "Include takes exactly 1 parameter"), tok)

		return
	}

	if e.errs.len() > before {
		return
	}

	path, data, err := e.load(args[0])
	if err != nil {
		e.record(e.errorAt(tok, err), tok)

		return
	}

	err = e.enter(tok)
	defer e.leave()

	if err != nil {
		return
	}

	e.logger.TraceContext(e.ctx, "include",
		slog.String("path", path),
		slog.Int("size", len(data)),
		slog.Int("depth", e.depth),
	)

	child := e.nested(buffer.FromBytes(data), path, filepath.Dir(path))
	child.level = 0

	defer child.src.Close()

	child.runBlock(w, false)
}

// load finds and reads an included file. The search order is an absolute
// path as given, the directory of the including file, then each include
// path. File contents are cached for the life of the evaluator tree.
func (e *Evaluator) load(name string) (string, []byte, error) {
	path, ok := e.find(name)
	if !ok {
		return "", nil, ErrInclude.Wrap(os.ErrNotExist).With(slog.String("path", name))
	}

	key := xxh3.HashString(path)
	if data, ok := e.cache[key]; ok {
		return path, data, nil
	}

	data, err := readFile(path)
	if err != nil {
		return "", nil, ErrInclude.Wrap(err).With(slog.String("path", path))
	}

	e.cache[key] = data

	return path, data, nil
}

func (e *Evaluator) find(name string) (string, bool) {
	var candidates []string

	if filepath.IsAbs(name) {
		candidates = []string{name}
	} else {
		if e.dir != "" {
			candidates = append(candidates, filepath.Join(e.dir, name))
		}

		for _, dir := range e.includePath {
			candidates = append(candidates, filepath.Join(dir, name))
		}
	}

	for _, c := range candidates {
		info, err := os.Stat(c)
		if err != nil || info.IsDir() {
			continue
		}

		if abs, err := filepath.Abs(c); err == nil {
			return filepath.Clean(abs), true
		}

		return filepath.Clean(c), true
	}

	return "", false
}

func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ra := readahead.NewReader(f)
	defer ra.Close()

	return io.ReadAll(ra)
}
