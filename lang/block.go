package lang

import (
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/ardnew/tpt/lang/lexer"
	"github.com/ardnew/tpt/lang/macro"
	"github.com/ardnew/tpt/lang/token"
)

// signal reports how a block ended.
type signal int

const (
	sigNone signal = iota // ran to its end
	sigNext               // @next
	sigLast               // @last
	sigStop               // evaluation must stop
)

var errBlockEOF = errors.New("unexpected end of input, expected }")

// runBlock copies loose tokens to w, dispatching directives, until EOF or,
// when sub is set, the close brace ending the current block.
func (e *Evaluator) runBlock(w io.Writer, sub bool) signal {
	err := e.enter(token.Token{})
	defer e.leave()

	if err != nil {
		if sub {
			e.skipRest()
		}

		return sigNone
	}

	if sub {
		e.level++
		defer func() { e.level-- }()
	}

	// Braces written literally in text are balanced so that their closing
	// brace does not end the block.
	braces := 0

	for {
		if e.stopped() {
			return sigStop
		}

		tok := e.lex.Loose()

		switch tok.Kind {
		case token.EOF:
			if sub {
				e.record(e.errorAt(tok, ErrUnterminatedBlock.Wrap(errBlockEOF)), tok)

				return sigStop
			}

			return sigNone

		case token.Text, token.Whitespace, token.Escape:
			e.write(w, tok.Text)

		case token.JoinLine, token.Comment:

		case token.OpenBrace:
			braces++

			e.write(w, tok.Text)

		case token.CloseBrace:
			switch {
			case braces > 0:
				braces--
			case sub:
				return sigNone
			}

			e.write(w, tok.Text)

		case token.ID:
			v, _ := e.syms.Get(tok.Text, e)
			e.write(w, v)

		case token.Error:
			e.record(e.errorAt(tok, ErrSyntax.Wrap(tok.Err)), tok)

		default:
			if sig := e.directive(w, tok); sig != sigNone {
				return sig
			}
		}
	}
}

// directive executes the directive introduced by tok.
func (e *Evaluator) directive(w io.Writer, tok token.Token) signal {
	e.logger.TraceContext(e.ctx, "directive",
		slog.String("name", tok.Describe()),
		slog.String("source", e.name),
		slog.Int("line", tok.Line),
	)

	switch tok.Kind {
	case token.If:
		return e.doIf(w, tok)

	case token.Foreach:
		return e.doForeach(w, tok)

	case token.While:
		return e.doWhile(w, tok)

	case token.Next, token.Last:
		return e.doControl(tok)

	case token.Else, token.Elsif:
		e.record(e.syntax(tok, "unexpected "+tok.Describe()+" without @if"), tok)
		e.discard()

	case token.Include:
		e.doInclude(w, tok)

	case token.Macro:
		e.doMacro(tok)

	case token.Set, token.SetIf:
		e.doSet(tok)

	case token.Unset:
		e.doUnset(tok)

	case token.Push:
		e.doPush(tok)

	case token.Pop:
		if _, err := e.builtin(tok); err != nil {
			e.record(err, tok)
		}

	case token.UserMacro:
		if err := e.call(w, tok); err != nil {
			e.record(err, tok)
		}

	default:
		if !tok.Kind.IsBuiltin() {
			e.record(e.syntax(tok, "unexpected "+tok.Describe()), tok)

			break
		}

		v, err := e.builtin(tok)
		if err != nil {
			e.record(err, tok)

			break
		}

		e.write(w, v)
	}

	return sigNone
}

// block consumes the open brace following a directive and runs the block.
// It reports false if no block follows.
func (e *Evaluator) block(w io.Writer, dir token.Token) (signal, bool) {
	m := e.lex.Mark()

	open := e.lex.Strict()
	if open.Kind != token.OpenBrace {
		_ = e.lex.Reset(m)
		e.record(e.syntax(open, "expected block {} after "+dir.Describe()), dir)

		return sigNone, false
	}

	return e.runBlock(w, true), true
}

// skip consumes the block following a directive without running it.
func (e *Evaluator) skip(dir token.Token) signal {
	err := e.lex.SkipBlock()

	switch {
	case err == nil:
		return sigNone

	case errors.Is(err, lexer.ErrUnterminatedBlock):
		e.record(e.errorAt(token.Token{Kind: token.EOF, Line: e.lex.Line()}, ErrUnterminatedBlock.Wrap(errBlockEOF)), dir)

		return sigStop

	default:
		e.record(e.syntax(dir, "expected block {} after "+dir.Describe()), dir)

		return sigNone
	}
}

// skipRest consumes the remainder of a block whose open brace was already
// read.
func (e *Evaluator) skipRest() {
	for depth := 1; depth > 0; {
		switch e.lex.Loose().Kind {
		case token.OpenBrace:
			depth++
		case token.CloseBrace:
			depth--
		case token.EOF:
			return
		}
	}
}

// skipTrailingBlock consumes a block if one follows, used after a directive
// was rejected so its block is not copied as text.
func (e *Evaluator) skipTrailingBlock() {
	m := e.lex.Mark()
	tok := e.lex.Strict()
	_ = e.lex.Reset(m)

	if tok.Kind == token.OpenBrace {
		_ = e.lex.SkipBlock()
	}
}

// discardParams consumes a parenthesized parameter list, if one follows,
// without evaluating it.
func (e *Evaluator) discardParams() {
	m := e.lex.Mark()

	if tok := e.lex.Strict(); tok.Kind != token.OpenParen {
		_ = e.lex.Reset(m)

		return
	}

	for depth := 1; depth > 0; {
		switch e.lex.Strict().Kind {
		case token.OpenParen:
			depth++
		case token.CloseParen:
			depth--
		case token.EOF, token.Error:
			return
		}
	}
}

// discard consumes the parameters and block of a rejected directive.
func (e *Evaluator) discard() {
	e.discardParams()
	e.skipTrailingBlock()
}

// condition evaluates the single-expression parameter list of @if, @elsif,
// and @while. It reports false for ok if the expression could not be
// evaluated.
func (e *Evaluator) condition(dir token.Token) (value, ok bool) {
	before := e.errs.len()

	args, err := e.params(dir, false)
	if err != nil {
		e.record(err, dir)

		return false, false
	}

	if e.errs.len() > before {
		return false, false
	}

	if len(args) == 0 {
		e.record(e.syntax(dir, dir.Describe()+" requires an expression"), dir)

		return false, false
	}

	if len(args) > 1 {
		e.record(e.errorAt(dir, ErrExtraParams.Wrap(errors.New("in "+dir.Describe()))), dir)
	}

	return truth(args[0]), true
}

// doIf runs exactly one branch of an @if/@elsif/@else chain.
func (e *Evaluator) doIf(w io.Writer, tok token.Token) signal {
	taken := false

	for {
		run, ok := false, true

		switch {
		case tok.Kind == token.Else:
			run = !taken

		case taken:
			e.discardParams()

		default:
			run, ok = e.condition(tok)
		}

		switch {
		case run:
			taken = true

			sig, found := e.block(w, tok)
			if !found {
				return sigNone
			}

			if sig != sigNone {
				return sig
			}

		case ok:
			if sig := e.skip(tok); sig != sigNone {
				return sig
			}

		default:
			e.skipTrailingBlock()
		}

		if tok.Kind == token.Else {
			return sigNone
		}

		next, more := e.continuation()
		if !more {
			return sigNone
		}

		tok = next
	}
}

// continuation returns a following @elsif or @else, skipping whitespace. If
// something else follows, the whitespace is left unread.
func (e *Evaluator) continuation() (token.Token, bool) {
	m := e.lex.Mark()

	for {
		tok := e.lex.Loose()

		switch tok.Kind {
		case token.Whitespace, token.JoinLine:
			continue

		case token.Elsif, token.Else:
			return tok, true
		}

		_ = e.lex.Reset(m)

		return tok, false
	}
}

// doForeach runs its block once per element of an array, with "." bound to
// the element.
func (e *Evaluator) doForeach(w io.Writer, tok token.Token) signal {
	id, rest, err := e.idParams(tok)
	if err != nil {
		e.record(err, tok)
		e.skipTrailingBlock()

		return sigNone
	}

	if len(rest) > 0 {
		e.record(e.syntax(tok, "@foreach takes only an id parameter"), tok)
		e.skipTrailingBlock()

		return sigNone
	}

	start := e.lex.Mark()
	values := e.syms.GetArray(id, e)

	saved := e.syms.Snapshot(".")
	defer e.syms.Restore(saved)

	e.loops++
	defer func() { e.loops-- }()

loop:
	for _, v := range values {
		if err := e.lex.Reset(start); err != nil {
			e.record(e.errorAt(tok, ErrSyntax.Wrap(err)), tok)

			return sigStop
		}

		_ = e.syms.Set(".", v, nil)

		sig, found := e.block(w, tok)
		if !found {
			return sigNone
		}

		switch sig {
		case sigStop:
			return sigStop
		case sigLast:
			break loop
		}
	}

	if err := e.lex.Reset(start); err != nil {
		e.record(e.errorAt(tok, ErrSyntax.Wrap(err)), tok)

		return sigStop
	}

	return e.skip(tok)
}

// doWhile re-evaluates its condition and runs its block until the condition
// is false.
func (e *Evaluator) doWhile(w io.Writer, tok token.Token) signal {
	start := e.lex.Mark()

	e.loops++
	defer func() { e.loops-- }()

	for {
		if e.stopped() {
			return sigStop
		}

		run, ok := e.condition(tok)
		if !ok {
			e.skipTrailingBlock()

			return sigNone
		}

		if !run {
			return e.skip(tok)
		}

		body := e.lex.Mark()

		sig, found := e.block(w, tok)
		if !found {
			return sigNone
		}

		switch sig {
		case sigStop:
			return sigStop

		case sigLast:
			if err := e.lex.Reset(body); err != nil {
				e.record(e.errorAt(tok, ErrSyntax.Wrap(err)), tok)

				return sigStop
			}

			return e.skip(tok)
		}

		if err := e.lex.Reset(start); err != nil {
			e.record(e.errorAt(tok, ErrSyntax.Wrap(errors.New("internal error in @while"))), tok)

			return sigStop
		}
	}
}

func (e *Evaluator) doControl(tok token.Token) signal {
	if e.loops == 0 {
		e.record(e.errorAt(tok, ErrControl.Wrap(errors.New(tok.Describe()))), tok)

		return sigNone
	}

	if tok.Kind == token.Next {
		return sigNext
	}

	return sigLast
}

// doSet handles @set(id[, expr]) and @setif(id, expr).
func (e *Evaluator) doSet(tok token.Token) {
	before := e.errs.len()

	id, rest, err := e.idParams(tok)
	if err != nil {
		e.record(err, tok)

		return
	}

	if len(rest) > 1 {
		e.record(e.syntax(tok, "expected close parenthesis"), tok)

		return
	}

	if e.errs.len() > before {
		return
	}

	if tok.Kind == token.SetIf && !e.syms.Empty(id, e) {
		return
	}

	var value string
	if len(rest) == 1 {
		value = rest[0]
	}

	if err := e.syms.Set(id, value, e); err != nil {
		e.record(err, tok)
	}
}

func (e *Evaluator) doUnset(tok token.Token) {
	id, rest, err := e.idParams(tok)
	if err != nil {
		e.record(err, tok)

		return
	}

	if len(rest) > 0 {
		e.record(e.syntax(tok, "@unset takes only an id parameter"), tok)

		return
	}

	if err := e.syms.Unset(id, e); err != nil {
		e.record(err, tok)
	}
}

func (e *Evaluator) doPush(tok token.Token) {
	before := e.errs.len()

	id, rest, err := e.idParams(tok)
	if err != nil {
		e.record(err, tok)

		return
	}

	if e.errs.len() > before {
		return
	}

	if len(rest) == 0 {
		rest = []string{""}
	}

	for _, v := range rest {
		if err := e.syms.Push(id, v, e); err != nil {
			e.record(err, tok)

			return
		}
	}
}

// doMacro handles @macro(name, params...){body}.
func (e *Evaluator) doMacro(tok token.Token) {
	if e.level > 0 {
		e.record(e.errorAt(tok, ErrMacroScope), tok)
		e.discard()

		return
	}

	m := e.lex.Mark()

	if open := e.lex.Strict(); open.Kind != token.OpenParen {
		_ = e.lex.Reset(m)
		e.record(e.syntax(open, "Expected macro declaration"), tok)

		return
	}

	name := e.lex.Strict()
	if name.Kind != token.ID || strings.ContainsAny(name.Text, "${}[]") {
		e.record(e.syntax(name, "Macro requires name parameter"), tok)
		e.discard()

		return
	}

	if token.IsReserved(name.Text) {
		e.record(e.errorAt(name, ErrReservedName.With(slog.String("name", name.Text))), tok)
		e.discard()

		return
	}

	var params []string

	for done := false; !done; {
		next := e.lex.Strict()

		switch next.Kind {
		case token.CloseParen:
			done = true

		case token.Comma:
			p := e.lex.Strict()
			if p.Kind != token.ID {
				e.record(e.syntax(p, "expected identifier"), tok)
				e.discard()

				return
			}

			param := p.Text
			if strings.HasPrefix(param, "${") && strings.HasSuffix(param, "}") {
				param = param[2 : len(param)-1]
			}

			if param == "" || strings.ContainsAny(param, "${}[]") {
				e.record(e.syntax(p, "expected identifier"), tok)
				e.discard()

				return
			}

			params = append(params, param)

		case token.EOF:
			e.record(e.syntax(next, "Unexpected end of file"), tok)

			return

		default:
			e.record(e.syntax(next, "expected comma or close parenthesis"), tok)
			e.skipTrailingBlock()

			return
		}
	}

	line := e.lex.Line()

	body, err := e.lex.Block()

	switch {
	case errors.Is(err, lexer.ErrUnterminatedBlock):
		e.record(e.errorAt(token.Token{Kind: token.EOF, Line: e.lex.Line()}, ErrUnterminatedBlock.Wrap(errBlockEOF)), tok)

		return

	case err != nil:
		e.record(e.syntax(tok, "Expected macro body {}"), tok)

		return
	}

	err = e.macros.Define(macro.Macro{Name: name.Text, Params: params, Body: body, Line: line})
	if err != nil {
		e.record(e.syntax(tok, "Expected macro body {}"), tok)

		return
	}

	e.logger.TraceContext(e.ctx, "macro defined",
		slog.String("name", name.Text),
		slog.Int("params", len(params)),
	)
}
