package lang

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ardnew/tpt/lang/lexer"
	"github.com/ardnew/tpt/lang/symbols"
	"github.com/ardnew/tpt/lang/token"
	"github.com/ardnew/tpt/pkg"
)

// Predefined errors (sentinel values).
var (
	ErrSyntax             = pkg.NewError("Syntax error")
	ErrUnterminatedString = lexer.ErrUnterminatedString
	ErrUnterminatedBlock  = lexer.ErrUnterminatedBlock
	ErrDivideByZero       = pkg.NewError("division by zero")
	ErrArrayBounds        = symbols.ErrArrayBounds
	ErrUndefinedMacro     = pkg.NewError("Undefined macro")
	ErrMaxDepthExceeded   = pkg.NewError("maximum recursion depth exceeded")
	ErrInclude            = pkg.NewError("include failed")
	ErrFunction           = pkg.NewError("function failed")
	ErrFunctionExists     = pkg.NewError("function already registered")
	ErrReservedName       = pkg.NewError("name is reserved")
	ErrTemplate           = pkg.NewError("template has errors")
	ErrCanceled           = pkg.NewError("evaluation canceled")
	ErrControl            = pkg.NewError("loop control outside of loop")
	ErrMacroScope         = pkg.NewError("Macro may not be defined in sub-block")
	ErrWrite              = pkg.NewError("failed to write output")
	ErrExtraParams        = pkg.NewError("Warning: extra parameters ignored")
)

// Error is one error recorded while evaluating a template. Evaluation
// continues after an error is recorded; [Evaluator.Errors] returns them all
// in the order they occurred.
type Error struct {
	err      error
	source   string
	near     string
	line     int
	recorded bool
}

// Error implements the error interface.
func (e *Error) Error() string { return e.String() }

// Unwrap returns the underlying cause, usually derived from one of the
// package sentinels.
func (e *Error) Unwrap() error { return e.err }

// Line returns the 1-based source line the error was detected on.
func (e *Error) Line() int { return e.line }

// Near describes the token the error was detected at.
func (e *Error) Near() string { return e.near }

// Source returns the name of the template the error occurred in.
func (e *Error) Source() string { return e.source }

// Message returns the error text without location information.
func (e *Error) Message() string {
	if e.err == nil {
		return ""
	}

	return e.err.Error()
}

// String formats e as "msg at line N near 'tok'", prefixed with the source
// name when known.
func (e *Error) String() string {
	var sb strings.Builder

	if e.source != "" {
		sb.WriteString(e.source)
		sb.WriteString(": ")
	}

	sb.WriteString(e.Message())
	sb.WriteString(" at line ")
	sb.WriteString(strconv.Itoa(e.line))

	if e.near != "" {
		sb.WriteString(" near '")
		sb.WriteString(e.near)
		sb.WriteByte('\'')
	}

	return sb.String()
}

// LogValue implements slog.LogValuer.
func (e *Error) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("error", e.Message()),
		slog.Int("line", e.line),
	}

	if e.near != "" {
		attrs = append(attrs, slog.String("near", e.near))
	}

	if e.source != "" {
		attrs = append(attrs, slog.String("source", e.source))
	}

	var pe *pkg.Error
	if errors.As(e.err, &pe) {
		attrs = append(attrs, pe.Attrs()...)
	}

	return slog.GroupValue(attrs...)
}

// errorList collects the errors of an evaluator tree.
type errorList struct {
	items []*Error
}

func (l *errorList) add(e *Error) {
	if e.recorded {
		return
	}

	e.recorded = true
	l.items = append(l.items, e)
}

func (l *errorList) len() int { return len(l.items) }

func (l *errorList) join() error {
	errs := make([]error, len(l.items))
	for i, e := range l.items {
		errs[i] = e
	}

	return errors.Join(errs...)
}

// maxNear bounds the token text quoted in error messages.
const maxNear = 40

// errorAt returns err located at tok in the current source.
func (e *Evaluator) errorAt(tok token.Token, err error) *Error {
	near := tok.Describe()
	if len(near) > maxNear {
		near = near[:maxNear-3] + "..."
	}

	line := tok.Line
	if line == 0 {
		line = e.lex.Line()
	}

	return &Error{err: err, source: e.name, near: near, line: line}
}

// syntax returns a syntax error with the given detail located at tok.
func (e *Evaluator) syntax(tok token.Token, detail string) *Error {
	return e.errorAt(tok, ErrSyntax.Wrap(errors.New(detail)))
}

// record appends err to the error list unless it was already recorded.
// Errors that are not yet located are located at near.
func (e *Evaluator) record(err error, near token.Token) {
	if err == nil {
		return
	}

	var le *Error
	if !errors.As(err, &le) {
		le = e.errorAt(near, err)
	}

	if le.recorded {
		return
	}

	e.errs.add(le)
	e.logger.DebugContext(e.ctx, "template error", slog.Any("error", le))
}
