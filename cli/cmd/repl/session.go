package repl

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/ardnew/tpt/lang"
	"github.com/ardnew/tpt/lang/macro"
	"github.com/ardnew/tpt/lang/symbols"
	"github.com/ardnew/tpt/log"
)

// Config configures a REPL session. Nil tables and stores are created
// empty.
type Config struct {
	Symbols     *symbols.Table
	Macros      *macro.Store
	Functions   map[string]lang.Func
	IncludePath []string
	MaxDepth    int
	CacheDir    string // history file location; empty disables history
	Logger      log.Logger
}

// Session renders lines of template text one at a time against a variable
// table and macro store that persist between lines.
type Session struct {
	syms   *symbols.Table
	macros *macro.Store
	funcs  map[string]lang.Func
	opts   []lang.Option
	logger log.Logger
	lines  int
}

// NewSession returns a Session configured by cfg.
func NewSession(cfg Config) *Session {
	s := &Session{
		syms:   cfg.Symbols,
		macros: cfg.Macros,
		funcs:  cfg.Functions,
		logger: cfg.Logger,
	}

	if s.syms == nil {
		s.syms = symbols.New()
	}

	if s.macros == nil {
		s.macros = macro.New()
	}

	s.opts = []lang.Option{
		lang.WithLogger(cfg.Logger),
		lang.WithMacros(s.macros),
		lang.WithFunctions(cfg.Functions),
		lang.WithIncludePath(cfg.IncludePath...),
		lang.WithMaxDepth(cfg.MaxDepth),
	}

	return s
}

// Eval renders line and returns its output with the errors it recorded.
// Output produced before an error is returned as well.
func (s *Session) Eval(ctx context.Context, line string) (string, []*lang.Error) {
	s.lines++

	ev := lang.NewString(line, s.syms, append(s.opts, lang.WithName("<repl>"))...)

	out, err := ev.RunString(ctx)
	if err != nil {
		s.logger.DebugContext(ctx, "repl eval",
			slog.Int("line", s.lines),
			slog.Int("errors", ev.ErrorCount()),
			slog.Any("error", err))
	}

	return out, ev.Errors()
}

func (s *Session) functionNames() []string {
	return slices.Sorted(maps.Keys(s.funcs))
}

// Variables formats each variable as "name = value", arrays bracketed.
// Read-only built-ins are listed too.
func (s *Session) Variables() []string {
	names := s.syms.Names()
	lines := make([]string, 0, len(names))

	for _, name := range names {
		lines = append(lines, name+" = "+s.syms.Object(name, nil).String())
	}

	return lines
}

// Macros formats each macro as "@name(params)".
func (s *Session) Macros() []string {
	names := s.macros.Names()
	lines := make([]string, 0, len(names))

	for _, name := range names {
		m, _ := s.macros.Lookup(name)
		lines = append(lines, "@"+name+"("+strings.Join(m.Params, ", ")+")")
	}

	return lines
}
