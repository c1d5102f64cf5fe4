package cmd

import (
	"context"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/tpt/lang/symbols"
	"github.com/ardnew/tpt/log"
)

// Vars are the command-line sources of template variables. They are applied
// in order: files, then assignments, then definitions, so a definition can
// refer to anything set before it.
type Vars struct {
	Var      []string `help:"Set variable (repeatable)"                         placeholder:"NAME=VALUE" short:"D"`
	VarsFile []string `help:"Load variables from a YAML or JSON mapping"         name:"vars"              placeholder:"FILE" type:"existingfile"`
	Define   []string `help:"Set variable to the result of an expr-lang expression" placeholder:"NAME=EXPR"`
}

// Table returns a new symbol table holding every variable named by v.
func (v *Vars) Table(ctx context.Context) (*symbols.Table, error) {
	syms := symbols.New()

	for _, path := range v.VarsFile {
		err := loadVarsFile(syms, path)
		if err != nil {
			return nil, err
		}

		log.DebugContext(ctx, "loaded variables", slog.String("file", path))
	}

	for _, kv := range v.Var {
		name, value, err := splitAssign(kv)
		if err != nil {
			return nil, err
		}

		err = syms.Set(name, value, nil)
		if err != nil {
			return nil, ErrVarSyntax.Wrap(err).With(slog.String("var", kv))
		}
	}

	for _, kv := range v.Define {
		name, source, err := splitAssign(kv)
		if err != nil {
			return nil, err
		}

		result, err := evalExpr(syms, source)
		if err != nil {
			return nil, ErrDefine.Wrap(err).With(slog.String("name", name))
		}

		err = syms.SetObject(name, symbols.FromAny(result), nil)
		if err != nil {
			return nil, ErrDefine.Wrap(err).With(slog.String("name", name))
		}
	}

	return syms, nil
}

func splitAssign(kv string) (name, value string, err error) {
	name, value, ok := strings.Cut(kv, "=")
	if name = strings.TrimSpace(name); !ok || name == "" {
		return "", "", ErrVarSyntax.With(slog.String("arg", kv))
	}

	return name, value, nil
}

// loadVarsFile stores each top-level key of the mapping in path. JSON is
// read by the same decoder since it is a subset of YAML.
func loadVarsFile(syms *symbols.Table, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return ErrVarsFile.Wrap(err).With(slog.String("file", path))
	}

	var m map[string]any

	err = yaml.Unmarshal(data, &m)
	if err != nil {
		return ErrVarsFile.Wrap(err).With(slog.String("file", path))
	}

	for _, k := range slices.Sorted(maps.Keys(m)) {
		err = syms.SetObject(k, symbols.FromAny(m[k]), nil)
		if err != nil {
			return ErrVarsFile.Wrap(err).
				With(slog.String("file", path), slog.String("key", k))
		}
	}

	return nil
}

// evalExpr compiles and runs an expr-lang expression over the variables in
// syms.
func evalExpr(syms *symbols.Table, source string) (any, error) {
	env := exprEnv(syms)

	program, err := expr.Compile(source, expr.Env(env))
	if err != nil {
		return nil, err
	}

	return expr.Run(program, env)
}

// exprEnv converts syms into an expr-lang environment. Dotted names become
// nested maps, so "page.title" is reachable as page.title. Arrays become
// []string. When a name is both a value and a prefix of other names, the
// value wins. Process environment variables are available under "env".
func exprEnv(syms *symbols.Table) map[string]any {
	env := map[string]any{"env": environ()}

	for _, name := range syms.Names() {
		var value any
		if syms.IsArray(name, nil) {
			value = syms.GetArray(name, nil)
		} else {
			value, _ = syms.Get(name, nil)
		}

		insert(env, strings.Split(name, "."), value)
	}

	return env
}

func insert(m map[string]any, path []string, value any) {
	for _, key := range path[:len(path)-1] {
		switch next := m[key].(type) {
		case map[string]any:
			m = next
		case nil:
			child := make(map[string]any)
			m[key] = child
			m = child
		default:
			return
		}
	}

	key := path[len(path)-1]
	if _, taken := m[key].(map[string]any); taken {
		m[key] = value

		return
	}

	if _, exists := m[key]; !exists {
		m[key] = value
	}
}

func environ() map[string]string {
	env := make(map[string]string)

	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}

	return env
}
