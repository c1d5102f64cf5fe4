package lang

import (
	"errors"
	"io"
	"log/slog"

	"github.com/ardnew/tpt/lang/buffer"
	"github.com/ardnew/tpt/lang/lexer"
	"github.com/ardnew/tpt/lang/symbols"
	"github.com/ardnew/tpt/lang/token"
)

// call invokes a native function or user macro named by tok. Output goes to
// w. Only a malformed argument list is returned; other failures are
// recorded.
func (e *Evaluator) call(w io.Writer, tok token.Token) error {
	before := e.errs.len()

	args, err := e.params(tok, true)
	if err != nil {
		return err
	}

	if e.errs.len() > before {
		return nil
	}

	if fn, ok := e.funcs[tok.Text]; ok {
		e.logger.TraceContext(e.ctx, "function call",
			slog.String("name", tok.Text),
			slog.Int("args", len(args)),
		)

		if err := fn(w, symbols.Strings(args...)); err != nil {
			e.record(e.errorAt(tok, ErrFunction.Wrap(err).With(slog.String("function", tok.Text))), tok)
		}

		return nil
	}

	m, ok := e.macros.Lookup(tok.Text)
	if !ok {
		e.record(e.errorAt(tok, ErrUndefinedMacro.Wrap(errors.New(tok.Describe()))), tok)

		return nil
	}

	err = e.enter(tok)
	defer e.leave()

	if err != nil {
		return nil
	}

	frame, err := e.shadow.Bind(e.syms, m.Params, args)
	if err != nil {
		e.record(e.errorAt(tok, err), tok)

		return nil
	}

	defer frame.Restore()

	e.logger.TraceContext(e.ctx, "macro call",
		slog.String("name", m.Name),
		slog.Int("args", len(args)),
		slog.Int("depth", e.depth),
	)

	body := e.nested(buffer.FromString(m.Body), "@"+m.Name, e.dir)
	body.level = 1
	_ = body.lex.Reset(lexer.Mark{Line: m.Line, Column: 1})

	defer body.src.Close()

	body.runBlock(w, false)

	return nil
}
