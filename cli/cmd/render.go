package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/ardnew/tpt/lang"
	"github.com/ardnew/tpt/lang/macro"
	"github.com/ardnew/tpt/lang/symbols"
	"github.com/ardnew/tpt/log"
)

// cgiHeader precedes the output when --cgi-header is given.
const cgiHeader = "Content-type: text/html\n\n"

// Engine holds the evaluator settings shared by every command that renders.
type Engine struct {
	Include  []string `help:"Add directory to the @include search path" placeholder:"DIR" short:"I" type:"path"`
	MaxDepth int      `default:"${maxDepth}" help:"Limit nesting of blocks, macro calls and includes"`
}

// options returns the evaluator options for one render against syms and
// macros.
func (g *Engine) options(syms *symbols.Table, macros *macro.Store) []lang.Option {
	return []lang.Option{
		lang.WithLogger(log.Default()),
		lang.WithIncludePath(g.Include...),
		lang.WithMaxDepth(g.MaxDepth),
		lang.WithFunctions(Functions(syms)),
		lang.WithMacros(macros),
	}
}

// Render evaluates template files and writes the result.
type Render struct {
	Engine `embed:""`
	Vars   `embed:""`

	Templates []string `arg:"" help:"Template file(s) or '-' for stdin" name:"template" optional:"" type:"existingfile"`

	Output    string `help:"Write output to file instead of stdout" placeholder:"FILE" short:"o" type:"path"`
	CgiHeader bool   `help:"Print a basic CGI header before the output"`
	Check     bool   `help:"Only check syntax; print the errors found (or \"No errors\")" short:"c"`
	Warnings  bool   `help:"Print errors and warnings to stderr after the output" short:"w"`

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// Run executes the render command.
//
// All templates share one symbol table and macro store, so variables and
// macros defined by one are visible to the next.
func (r *Render) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	r.streams()

	syms, err := r.Table(ctx)
	if err != nil {
		return err
	}

	out := r.stdout

	if r.Output != "" && !r.Check {
		f, ferr := os.Create(r.Output)
		if ferr != nil {
			return ErrOpenOutput.Wrap(ferr).With(slog.String("file", r.Output))
		}

		defer func() { err = errors.Join(err, f.Close()) }()

		out = f
	}

	bw := bufio.NewWriter(out)
	defer func() { err = errors.Join(err, bw.Flush()) }()

	if r.CgiHeader && !r.Check {
		_, _ = bw.WriteString(cgiHeader)
	}

	macros := macro.New()

	var found []*lang.Error

	for _, path := range uniqueSources(r.Templates) {
		ev, err := r.evaluator(path, syms, macros)
		if err != nil {
			return err
		}

		log.DebugContext(ctx, "render", slog.String("template", path))

		if r.Check {
			ev.SyntaxCheck(ctx)
		} else {
			err = ev.Run(ctx, bw)
			if err != nil && !errors.Is(err, lang.ErrTemplate) {
				return err
			}
		}

		found = append(found, ev.Errors()...)
	}

	switch {
	case r.Check:
		if len(found) == 0 {
			_, _ = fmt.Fprintln(bw, "No errors")
		}

		printErrors(bw, found, false)

	case r.Warnings:
		if err := bw.Flush(); err != nil {
			return err
		}

		printErrors(r.stderr, found, colorize(r.stderr))
	}

	if len(found) > 0 {
		return ErrTemplates.With(slog.Int("errors", len(found)))
	}

	return nil
}

func (r *Render) streams() {
	if r.stdin == nil {
		r.stdin = os.Stdin
	}

	if r.stdout == nil {
		r.stdout = os.Stdout
	}

	if r.stderr == nil {
		r.stderr = os.Stderr
	}
}

func (r *Render) evaluator(path string, syms *symbols.Table, macros *macro.Store) (*lang.Evaluator, error) {
	opts := r.options(syms, macros)

	if path != stdinSource {
		return lang.NewFile(path, syms, opts...)
	}

	data, err := io.ReadAll(r.stdin)
	if err != nil {
		return nil, err
	}

	return lang.NewBytes(data, syms, append(opts, lang.WithName("<stdin>"))...), nil
}

// printErrors writes one error per line. With paint, the location and the
// message are coloured.
func printErrors(w io.Writer, errs []*lang.Error, paint bool) {
	where := color.New(color.FgCyan)
	what := color.New(color.FgRed, color.Bold)

	where.EnableColor()
	what.EnableColor()

	for _, e := range errs {
		if !paint {
			_, _ = fmt.Fprintln(w, e.String())

			continue
		}

		if src := e.Source(); src != "" {
			_, _ = where.Fprint(w, src+": ")
		}

		_, _ = what.Fprint(w, e.Message())
		_, _ = fmt.Fprintf(w, " at line %d", e.Line())

		if near := e.Near(); near != "" {
			_, _ = fmt.Fprintf(w, " near '%s'", near)
		}

		_, _ = fmt.Fprintln(w)
	}
}

// colorize reports whether w is a terminal that should receive colour.
func colorize(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || os.Getenv("NO_COLOR") != "" {
		return false
	}

	return term.IsTerminal(int(f.Fd()))
}
