package cmd

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ardnew/mung"

	"github.com/ardnew/tpt/lang"
	"github.com/ardnew/tpt/lang/symbols"
)

// Functions returns the native functions registered with every evaluator the
// command line creates:
//
//	@env(name[, default])         process environment variable
//	@pathprefix(list, dir...)     prepend dirs to a PATH-like list
//	@expr(source)                 expr-lang expression over the variables
//
// The expr function reads variables from syms at call time.
func Functions(syms *symbols.Table) map[string]lang.Func {
	return map[string]lang.Func{
		"env":        getenv,
		"pathprefix": pathPrefix,
		"expr": func(w io.Writer, args symbols.Object) error {
			return exprCall(w, syms, args)
		},
	}
}

func getenv(w io.Writer, args symbols.Object) error {
	values := args.Values()
	if len(values) < 1 || len(values) > 2 {
		return ErrArgs.With(slog.String("func", "@env"), slog.Int("args", len(values)))
	}

	value, ok := os.LookupEnv(values[0])
	if !ok && len(values) == 2 {
		value = values[1]
	}

	_, err := io.WriteString(w, value)

	return err
}

func pathPrefix(w io.Writer, args symbols.Object) error {
	values := args.Values()
	if len(values) < 1 {
		return ErrArgs.With(slog.String("func", "@pathprefix"), slog.Int("args", 0))
	}

	list := mung.Make(
		mung.WithSubjectItems(values[0]),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(values[1:]...),
	)

	_, err := io.WriteString(w, list.String())

	return err
}

func exprCall(w io.Writer, syms *symbols.Table, args symbols.Object) error {
	values := args.Values()
	if len(values) != 1 {
		return ErrArgs.With(slog.String("func", "@expr"), slog.Int("args", len(values)))
	}

	result, err := evalExpr(syms, values[0])
	if err != nil {
		return err
	}

	_, err = io.WriteString(w, format(result))

	return err
}

// format renders an expr-lang result the way the template language writes
// values: booleans as 1 and 0, arrays space-separated.
func format(v any) string {
	o := symbols.FromAny(v)

	switch o.Kind {
	case symbols.KindArray:
		return strings.Join(o.Values(), " ")
	default:
		return o.String()
	}
}
