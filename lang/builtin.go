package lang

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ardnew/tpt/lang/symbols"
	"github.com/ardnew/tpt/lang/token"
)

// defaultRandRange is the exclusive upper bound of @rand without arguments.
const defaultRandRange = 0x8000000

// builtin evaluates a value-producing directive. Argument count and range
// problems are recorded and yield an empty value; only a malformed parameter
// list is returned as an error.
func (e *Evaluator) builtin(tok token.Token) (string, error) {
	switch tok.Kind {
	case token.Size, token.IsArray, token.IsScalar, token.Pop:
		return e.idBuiltin(tok)
	}

	args, err := e.params(tok, true)
	if err != nil {
		return "", err
	}

	switch tok.Kind {
	case token.Rand:
		return e.rand(tok, args), nil

	case token.Concat, token.Eval:
		return strings.Join(args, ""), nil

	case token.Empty:
		if len(args) == 0 {
			return "1", nil
		}

		e.arity(tok, args, 1, 1)

		return boolString(args[0] == ""), nil

	case token.Length:
		if !e.arity(tok, args, 1, 1) {
			return "", nil
		}

		return strconv.Itoa(len(args[0])), nil

	case token.Substr:
		if !e.arity(tok, args, 2, 3) {
			return "", nil
		}

		return substr(args), nil

	case token.Uc, token.Lc:
		if !e.arity(tok, args, 1, 1) {
			return "", nil
		}

		if tok.Kind == token.Uc {
			return strings.ToUpper(args[0]), nil
		}

		return strings.ToLower(args[0]), nil

	case token.Compare:
		if !e.arity(tok, args, 2, 2) {
			return "", nil
		}

		return strconv.Itoa(strings.Compare(args[0], args[1])), nil
	}

	return "", e.syntax(tok, "unexpected "+tok.Describe())
}

// idBuiltin evaluates the builtins whose only parameter is an identifier.
func (e *Evaluator) idBuiltin(tok token.Token) (string, error) {
	id, rest, err := e.idParams(tok)
	if err != nil {
		return "", err
	}

	if len(rest) > 0 {
		e.record(e.syntax(tok, tok.Describe()+" takes only an id parameter"), tok)
	}

	switch tok.Kind {
	case token.Size:
		return strconv.Itoa(e.syms.Size(id, e)), nil

	case token.IsArray:
		return boolString(e.syms.IsArray(id, e)), nil

	case token.IsScalar:
		return boolString(e.syms.Exists(id, e) && !e.syms.IsArray(id, e)), nil

	default:
		v, _ := e.syms.Pop(id, e)

		return v, nil
	}
}

// arity records an error unless len(args) is within [lo, hi].
func (e *Evaluator) arity(tok token.Token, args []string, lo, hi int) bool {
	if len(args) >= lo && len(args) <= hi {
		return true
	}

	var want string

	switch {
	case lo == hi:
		want = strconv.Itoa(lo)
	default:
		want = strconv.Itoa(lo) + " to " + strconv.Itoa(hi)
	}

	e.record(e.syntax(tok, tok.Describe()+" takes "+want+" arguments"), tok)

	return false
}

// rand returns a pseudorandom integer in [0, n).
func (e *Evaluator) rand(tok token.Token, args []string) string {
	n := int64(defaultRandRange)

	if len(args) > 0 {
		if len(args) > 1 {
			e.record(e.syntax(tok, "@rand takes zero or one arguments"), tok)
		}

		n = symbols.ParseInt(args[0])
	}

	if n <= 0 {
		e.record(e.errorAt(tok, ErrSyntax.Wrap(errors.New("@rand range must be positive")).
			With(slog.Int64("range", n))), tok)

		return ""
	}

	return symbols.FormatInt(int64(e.rng.next()) % n)
}

// substr implements @substr(s, start[, length]) over bytes. A negative start
// counts back from the end; the range is clamped to the string.
func substr(args []string) string {
	s := args[0]
	start := symbols.ParseInt(args[1])

	if start < 0 {
		start = max(int64(len(s))+start, 0)
	}

	if start >= int64(len(s)) {
		return ""
	}

	end := int64(len(s))

	if len(args) == 3 {
		n := max(symbols.ParseInt(args[2]), 0)
		end = min(start+n, end)
	}

	return s[start:end]
}
