package lang

import (
	"errors"
	"strings"

	"github.com/ardnew/tpt/lang/buffer"
	"github.com/ardnew/tpt/lang/lexer"
	"github.com/ardnew/tpt/lang/symbols"
	"github.com/ardnew/tpt/lang/token"
)

// Expression evaluation is precedence climbing over strict tokens. Each level
// takes the first token of its operand and returns the resulting value along
// with the first token it did not consume.
//
//	expr     → logical
//	logical  → relation ( ( && | || | ^^ ) relation )*
//	relation → sum ( relop sum )*
//	sum      → product ( ( + | - ) product )*
//	product  → unary ( ( * | / | % ) unary )*
//	unary    → ( + | - | ! ) unary | group
//	group    → '(' expr ')' | operand
//	operand  → Integer | String | ID | @builtin(...) | @name(...)
//
// A returned error means the expression could not be parsed and has not been
// recorded. Errors that leave the token stream intact, such as division by
// zero, are recorded where they occur and evaluation continues.

// expr evaluates a full expression starting at tok.
func (e *Evaluator) expr(tok token.Token) (string, token.Token, error) {
	err := e.enter(tok)
	defer e.leave()

	if err != nil {
		return "", tok, err
	}

	if tok.Kind == token.EOF {
		return "", tok, e.syntax(tok, "Unexpected end of file")
	}

	return e.logical(tok)
}

func (e *Evaluator) logical(tok token.Token) (string, token.Token, error) {
	left, op, err := e.relation(tok)

	for err == nil && op.Is(token.Operator, "&&", "||", "^^") {
		right, next, rerr := e.relation(e.lex.Strict())
		if rerr != nil {
			return "", next, rerr
		}

		l, r := truth(left), truth(right)

		switch op.Text {
		case "&&":
			left = boolString(l && r)
		case "||":
			left = boolString(l || r)
		default:
			left = boolString(l != r)
		}

		op = next
	}

	return left, op, err
}

func (e *Evaluator) relation(tok token.Token) (string, token.Token, error) {
	left, op, err := e.sum(tok)

	for err == nil && op.Kind == token.RelOp {
		right, next, rerr := e.sum(e.lex.Strict())
		if rerr != nil {
			return "", next, rerr
		}

		l, r := symbols.ParseInt(left), symbols.ParseInt(right)

		var b bool

		switch op.Text {
		case "<":
			b = l < r
		case "<=":
			b = l <= r
		case ">":
			b = l > r
		case ">=":
			b = l >= r
		case "==":
			b = l == r
		default:
			b = l != r
		}

		left, op = boolString(b), next
	}

	return left, op, err
}

func (e *Evaluator) sum(tok token.Token) (string, token.Token, error) {
	left, op, err := e.product(tok)

	for err == nil && op.Is(token.Operator, "+", "-") {
		right, next, rerr := e.product(e.lex.Strict())
		if rerr != nil {
			return "", next, rerr
		}

		l, r := symbols.ParseInt(left), symbols.ParseInt(right)

		if op.Text == "+" {
			left = symbols.FormatInt(l + r)
		} else {
			left = symbols.FormatInt(l - r)
		}

		op = next
	}

	return left, op, err
}

func (e *Evaluator) product(tok token.Token) (string, token.Token, error) {
	left, op, err := e.unary(tok)

	for err == nil && op.Is(token.Operator, "*", "/", "%") {
		right, next, rerr := e.unary(e.lex.Strict())
		if rerr != nil {
			return "", next, rerr
		}

		l, r := symbols.ParseInt(left), symbols.ParseInt(right)

		switch {
		case op.Text == "*":
			left = symbols.FormatInt(l * r)

		case r == 0:
			e.record(e.errorAt(op, ErrDivideByZero), op)

			left = "0"

		case op.Text == "/":
			left = symbols.FormatInt(l / r)

		default:
			left = symbols.FormatInt(l % r)
		}

		op = next
	}

	return left, op, err
}

func (e *Evaluator) unary(tok token.Token) (string, token.Token, error) {
	if !tok.Is(token.Operator, "+", "-", "!") {
		return e.group(tok)
	}

	v, next, err := e.unary(e.lex.Strict())
	if err != nil {
		return "", next, err
	}

	n := symbols.ParseInt(v)

	switch tok.Text {
	case "!":
		return boolString(n == 0), next, nil
	case "-":
		return symbols.FormatInt(-n), next, nil
	default:
		return symbols.FormatInt(n), next, nil
	}
}

func (e *Evaluator) group(tok token.Token) (string, token.Token, error) {
	if tok.Kind != token.OpenParen {
		return e.operand(tok)
	}

	err := e.enter(tok)
	defer e.leave()

	if err != nil {
		return "", tok, err
	}

	v, next, err := e.expr(e.lex.Strict())
	if err != nil {
		return "", next, err
	}

	if next.Kind != token.CloseParen {
		return "", next, e.syntax(next, "expected )")
	}

	return v, e.lex.Strict(), nil
}

func (e *Evaluator) operand(tok token.Token) (string, token.Token, error) {
	var v string

	switch tok.Kind {
	case token.Integer, token.String:
		v = tok.Text

	case token.ID:
		v, _ = e.syms.Get(tok.Text, e)

	case token.UserMacro:
		var sb strings.Builder

		if err := e.call(&sb, tok); err != nil {
			return "", tok, err
		}

		v = sb.String()

	case token.Error:
		return "", tok, e.errorAt(tok, ErrSyntax.Wrap(tok.Err))

	case token.EOF:
		return "", tok, e.syntax(tok, "Unexpected end of file")

	default:
		if !tok.Kind.IsBuiltin() {
			return "", tok, e.syntax(tok, "unexpected "+tok.Describe())
		}

		var err error

		v, err = e.builtin(tok)
		if err != nil {
			return "", tok, err
		}
	}

	return v, e.lex.Strict(), nil
}

// params reads a parenthesized, comma-separated list of expressions. When
// optional is set and no open parenthesis follows, the list is empty and
// nothing is consumed.
func (e *Evaluator) params(dir token.Token, optional bool) ([]string, error) {
	m := e.lex.Mark()

	tok := e.lex.Strict()
	if tok.Kind != token.OpenParen {
		_ = e.lex.Reset(m)

		if optional {
			return nil, nil
		}

		return nil, e.syntax(tok, "expected open parenthesis after "+dir.Describe())
	}

	tok = e.lex.Strict()
	if tok.Kind == token.CloseParen {
		return nil, nil
	}

	args, err := e.exprList(tok)
	if err != nil {
		e.resync(m)
	}

	return args, err
}

// exprList evaluates expressions separated by commas up to the closing
// parenthesis.
func (e *Evaluator) exprList(tok token.Token) ([]string, error) {
	var out []string

	for {
		v, next, err := e.expr(tok)
		if err != nil {
			return nil, err
		}

		out = append(out, v)

		switch next.Kind {
		case token.CloseParen:
			return out, nil

		case token.Comma:
			tok = e.lex.Strict()

		default:
			return nil, e.syntax(next, "expected comma or close parenthesis")
		}
	}
}

// idParams reads a parameter list whose first parameter is an identifier,
// returning the identifier unevaluated and the remaining values.
func (e *Evaluator) idParams(dir token.Token) (string, []string, error) {
	m := e.lex.Mark()

	tok := e.lex.Strict()
	if tok.Kind != token.OpenParen {
		_ = e.lex.Reset(m)

		return "", nil, e.syntax(tok, "expected open parenthesis after "+dir.Describe())
	}

	id := e.lex.Strict()
	if id.Kind != token.ID {
		err := e.syntax(id, "first parameter must be ID")
		e.resync(m)

		return "", nil, err
	}

	switch next := e.lex.Strict(); next.Kind {
	case token.CloseParen:
		return id.Text, nil, nil

	case token.Comma:
		tok = e.lex.Strict()
		if tok.Kind == token.CloseParen {
			return id.Text, nil, nil
		}

		rest, err := e.exprList(tok)
		if err != nil {
			e.resync(m)
		}

		return id.Text, rest, err

	default:
		err := e.syntax(next, "expected comma (,)")
		e.resync(m)

		return "", nil, err
	}
}

// resync moves past the remainder of a parameter list that failed to parse,
// so it is not copied to the output. m marks the list's open parenthesis.
func (e *Evaluator) resync(m lexer.Mark) {
	if e.lex.Reset(m) != nil {
		return
	}

	_ = e.lex.Strict()

	for depth := 1; depth > 0; {
		at := e.lex.Mark()
		tok := e.lex.Strict()

		switch tok.Kind {
		case token.OpenParen:
			depth++

		case token.CloseParen:
			depth--

		case token.EOF:
			return

		case token.Error:
			if e.lex.Mark().Offset == at.Offset || errors.Is(tok.Err, lexer.ErrNewlineInString) {
				return
			}
		}
	}
}

// Expand evaluates expr as an expression. It implements [symbols.Expander],
// which lets identifiers use computed indexes like ${list[${i} + 1]}.
func (e *Evaluator) Expand(expr string) (string, error) {
	sub := e.nested(buffer.FromString(expr), e.name, e.dir)
	_ = sub.lex.Reset(lexer.Mark{Line: e.lex.Line(), Column: 1})

	v, next, err := sub.expr(sub.lex.Strict())
	if err == nil && next.Kind != token.EOF {
		err = sub.syntax(next, "unexpected "+next.Describe()+" in index")
	}

	if err != nil {
		e.record(err, next)

		return "", err
	}

	return v, nil
}

// truth converts a value to a condition: any non-zero integer is true.
func truth(s string) bool { return symbols.ParseInt(s) != 0 }

func boolString(b bool) string {
	if b {
		return "1"
	}

	return "0"
}
