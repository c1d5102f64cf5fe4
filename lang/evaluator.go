package lang

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/tevino/abool/v2"

	"github.com/ardnew/tpt/lang/buffer"
	"github.com/ardnew/tpt/lang/lexer"
	"github.com/ardnew/tpt/lang/macro"
	"github.com/ardnew/tpt/lang/symbols"
	"github.com/ardnew/tpt/lang/token"
)

// Func is a native function callable from a template as @name(args...).
// The arguments arrive as an array of evaluated strings. Anything written to
// w becomes the call's output; a returned error is recorded against the call.
type Func func(w io.Writer, args symbols.Object) error

// tree is the state shared by an Evaluator and every evaluator nested inside
// it by macro calls, includes, and index expressions.
type tree struct {
	config

	ctx    context.Context
	syms   *symbols.Table
	shadow *macro.Shadow
	halt   *abool.AtomicBool
	cache  map[uint64][]byte
	rng    kiss
	errs   errorList
	werr   error

	depthReported bool
}

// Evaluator renders one template source.
//
// An Evaluator is not safe for concurrent use, except for [Evaluator.Halt].
// It is meant to be run once; create a new Evaluator (sharing the same
// [symbols.Table] and [macro.Store] if desired) for each render.
type Evaluator struct {
	*tree

	src   *buffer.Buffer
	lex   *lexer.Lexer
	name  string
	dir   string
	depth int
	level int
	loops int
}

// New returns an Evaluator reading template text from src. Variables are
// read from and written to syms; a nil table is replaced by [symbols.New].
func New(src *buffer.Buffer, syms *symbols.Table, opts ...Option) *Evaluator {
	if syms == nil {
		syms = symbols.New()
	}

	t := &tree{
		config: makeConfig(opts...),
		ctx:    context.Background(),
		syms:   syms,
		shadow: macro.NewShadow(),
		halt:   abool.New(),
		cache:  make(map[uint64][]byte),
	}

	e := &Evaluator{
		tree: t,
		src:  src,
		lex:  lexer.New(src),
		name: t.name,
	}

	if t.seeded {
		t.rng.seed(t.seed)
	} else {
		t.rng.seed(e.identity())
	}

	return e
}

// NewString returns an Evaluator over the template text s.
func NewString(s string, syms *symbols.Table, opts ...Option) *Evaluator {
	return New(buffer.FromString(s), syms, opts...)
}

// NewBytes returns an Evaluator over a copy of the template text p.
func NewBytes(p []byte, syms *symbols.Table, opts ...Option) *Evaluator {
	return New(buffer.FromBytes(p), syms, opts...)
}

// NewFile returns an Evaluator reading the template file at path. Relative
// includes are resolved against the file's directory first.
func NewFile(path string, syms *symbols.Table, opts ...Option) (*Evaluator, error) {
	src, err := buffer.Open(path)
	if err != nil {
		return nil, err
	}

	e := New(src, syms, append([]Option{WithName(path)}, opts...)...)

	if abs, err := filepath.Abs(path); err == nil {
		e.dir = filepath.Dir(abs)
	} else {
		e.dir = filepath.Dir(path)
	}

	return e, nil
}

// Run renders the template to w. It returns nil when no errors were
// recorded, otherwise an error matching [ErrTemplate] that also matches each
// recorded error. Output written before an error is kept.
func (e *Evaluator) Run(ctx context.Context, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	e.ctx = ctx

	defer e.src.Close()

	e.logger.TraceContext(ctx, "run start", slog.String("source", e.name))

	e.runBlock(w, false)

	e.logger.TraceContext(ctx, "run end",
		slog.String("source", e.name),
		slog.Int("errors", e.errs.len()),
	)

	switch {
	case e.werr != nil:
		return ErrWrite.Wrap(e.werr)

	case ctx.Err() != nil:
		return ErrCanceled.Wrap(ctx.Err())

	case e.halt.IsSet():
		return ErrCanceled

	case e.errs.len() > 0:
		return ErrTemplate.Wrap(e.errs.join()).With(slog.Int("errors", e.errs.len()))
	}

	return nil
}

// RunString renders the template and returns the output.
func (e *Evaluator) RunString(ctx context.Context) (string, error) {
	var sb strings.Builder

	err := e.Run(ctx, &sb)

	return sb.String(), err
}

// SyntaxCheck renders the template without keeping its output and reports
// whether it rendered without errors.
func (e *Evaluator) SyntaxCheck(ctx context.Context) bool {
	_ = e.Run(ctx, io.Discard)

	return e.errs.len() == 0
}

// ErrorCount returns the number of errors recorded so far.
func (e *Evaluator) ErrorCount() int { return e.errs.len() }

// Errors returns the recorded errors in the order they occurred.
func (e *Evaluator) Errors() []*Error { return slices.Clone(e.errs.items) }

// AddIncludePath appends a directory searched by @include.
func (e *Evaluator) AddIncludePath(dir string) {
	e.includePath = append(e.includePath, dir)
}

// AddFunction registers a native function callable as @name(args...).
func (e *Evaluator) AddFunction(name string, fn Func) error {
	if token.IsReserved(name) {
		return ErrReservedName.With(slog.String("name", name))
	}

	if _, ok := e.funcs[name]; ok {
		return ErrFunctionExists.With(slog.String("name", name))
	}

	e.funcs[name] = fn

	return nil
}

// Symbols returns the table the Evaluator reads and writes.
func (e *Evaluator) Symbols() *symbols.Table { return e.syms }

// Macros returns the store holding macros defined by the template.
func (e *Evaluator) Macros() *macro.Store { return e.macros }

// Halt asks a running evaluation to stop at the next directive. It is safe
// to call from any goroutine.
func (e *Evaluator) Halt() { e.halt.Set() }

// nested returns an evaluator over src sharing e's tree, one level deeper.
func (e *Evaluator) nested(src *buffer.Buffer, name, dir string) *Evaluator {
	return &Evaluator{
		tree:  e.tree,
		src:   src,
		lex:   lexer.New(src),
		name:  name,
		dir:   dir,
		depth: e.depth + 1,
		level: e.level,
	}
}

// stopped reports whether evaluation must end early. Exceeding the depth
// limit ends the whole tree, not only the innermost construct, so that
// recursion fanning out at every level still terminates.
func (e *Evaluator) stopped() bool {
	if e.werr != nil || e.depthReported || e.halt.IsSet() {
		return true
	}

	select {
	case <-e.ctx.Done():
		return true
	default:
		return false
	}
}

// enter increments the recursion depth. The caller must always call leave,
// even when enter returns an error.
func (e *Evaluator) enter(near token.Token) error {
	e.depth++

	if e.depth <= e.maxDepth {
		return nil
	}

	err := e.errorAt(near, ErrMaxDepthExceeded.With(slog.Int("limit", e.maxDepth)))

	if e.depthReported {
		err.recorded = true
	} else {
		e.depthReported = true
		e.record(err, near)
	}

	return err
}

func (e *Evaluator) leave() { e.depth-- }

func (e *Evaluator) write(w io.Writer, s string) {
	if s == "" || e.werr != nil {
		return
	}

	if _, err := io.WriteString(w, s); err != nil {
		e.werr = err
	}
}
