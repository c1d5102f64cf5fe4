package lang

import (
	"maps"

	"github.com/ardnew/tpt/lang/macro"
	"github.com/ardnew/tpt/log"
)

// DefaultMaxDepth is the default limit on nested blocks, expressions, macro
// calls, and includes.
const DefaultMaxDepth = 100

// config holds the options shared by every evaluator created from one
// top-level Evaluator.
type config struct {
	logger      log.Logger
	macros      *macro.Store
	funcs       map[string]Func
	name        string
	includePath []string
	maxDepth    int
	seed        uint32
	seeded      bool
}

// Option configures an [Evaluator].
type Option func(*config)

// WithLogger sets the structured logger for trace-level debugging.
// If not provided, the logger is zero-valued and all logging is a no-op.
func WithLogger(logger log.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithMaxDepth sets the maximum recursion depth. Values below 1 restore
// [DefaultMaxDepth].
func WithMaxDepth(depth int) Option {
	return func(c *config) {
		if depth < 1 {
			depth = DefaultMaxDepth
		}

		c.maxDepth = depth
	}
}

// WithIncludePath appends directories searched by @include.
func WithIncludePath(dirs ...string) Option {
	return func(c *config) {
		c.includePath = append(c.includePath, dirs...)
	}
}

// WithFunction registers a native function callable as @name(args...).
// Registration through [Evaluator.AddFunction] reports conflicts; this
// option silently replaces an earlier function of the same name.
func WithFunction(name string, fn Func) Option {
	return func(c *config) {
		if c.funcs == nil {
			c.funcs = make(map[string]Func)
		}

		c.funcs[name] = fn
	}
}

// WithFunctions registers every function in fns.
func WithFunctions(fns map[string]Func) Option {
	return func(c *config) {
		if c.funcs == nil {
			c.funcs = make(map[string]Func, len(fns))
		}

		maps.Copy(c.funcs, fns)
	}
}

// WithMacros shares an existing macro store, so macros defined by one
// template remain callable from the next.
func WithMacros(store *macro.Store) Option {
	return func(c *config) {
		c.macros = store
	}
}

// WithSeed fixes the seed of the @rand generator.
func WithSeed(seed uint32) Option {
	return func(c *config) {
		c.seed = seed
		c.seeded = true
	}
}

// WithName sets the source name reported in errors.
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

func makeConfig(opts ...Option) config {
	c := config{maxDepth: DefaultMaxDepth}

	for _, opt := range opts {
		opt(&c)
	}

	if c.macros == nil {
		c.macros = macro.New()
	}

	if c.funcs == nil {
		c.funcs = make(map[string]Func)
	}

	if len(c.includePath) == 0 {
		c.includePath = []string{"."}
	}

	return c
}
