package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/ardnew/tpt/lang/symbols"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestUniqueSources(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.tpt", "a")
	b := writeFile(t, dir, "b.tpt", "b")

	link := filepath.Join(dir, "link.tpt")
	if err := os.Symlink(a, link); err != nil {
		t.Fatal(err)
	}

	missing := filepath.Join(dir, "missing.tpt")

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"empty", nil, []string{stdinSource}},
		{"ordered", []string{b, a}, []string{b, a}},
		{"duplicate", []string{a, b, a}, []string{a, b}},
		{"symlink", []string{a, link}, []string{a}},
		{"stdin trailing", []string{"-", a, "-"}, []string{a, stdinSource}},
		{"unresolvable kept", []string{missing, missing}, []string{missing, missing}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := uniqueSources(tt.in); !slices.Equal(got, tt.want) {
				t.Errorf("uniqueSources(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestVarsTable(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "vars.yaml", `
title: Home
debug: true
count: 3
tags: [a, b]
page:
  author: me
`)

	v := Vars{
		VarsFile: []string{file},
		Var:      []string{"title=Override", "empty="},
		Define:   []string{"double=int(count) * 2", "shout=upper(page.author)", "many=len(tags) > 1"},
	}

	syms, err := v.Table(t.Context())
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]string{
		"title":       "Override",
		"debug":       "1",
		"count":       "3",
		"page.author": "me",
		"empty":       "",
		"double":      "6",
		"shout":       "ME",
		"many":        "1",
	}

	for name, value := range want {
		if got, ok := syms.Get(name, nil); !ok || got != value {
			t.Errorf("%s = %q (%v), want %q", name, got, ok, value)
		}
	}

	if got := syms.GetArray("tags", nil); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("tags = %v", got)
	}

	// Built-ins stay in place.
	if _, ok := syms.Get("template_version", nil); !ok {
		t.Error("built-in identifiers missing")
	}
}

func TestVarsTable_Errors(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.yaml", "- not\n- a mapping\n")

	tests := []struct {
		name string
		vars Vars
		want error
	}{
		{"no equals", Vars{Var: []string{"name"}}, ErrVarSyntax},
		{"no name", Vars{Var: []string{"=value"}}, ErrVarSyntax},
		{"read-only", Vars{Var: []string{"template_version=0"}}, ErrVarSyntax},
		{"not a mapping", Vars{VarsFile: []string{bad}}, ErrVarsFile},
		{"missing file", Vars{VarsFile: []string{filepath.Join(dir, "none.yaml")}}, ErrVarsFile},
		{"bad expression", Vars{Define: []string{"x=1 +"}}, ErrDefine},
		{"unknown name", Vars{Define: []string{"x=nope + 1"}}, ErrDefine},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.vars.Table(t.Context()); !errors.Is(err, tt.want) {
				t.Errorf("Table() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestExprEnv(t *testing.T) {
	syms := symbols.New(symbols.WithBuiltins(nil))
	_ = syms.Set("a", "1", nil)
	_ = syms.Set("a.b", "2", nil)
	_ = syms.Set("page.title", "T", nil)
	_ = syms.SetArray("list", []string{"x", "y"}, nil)

	env := exprEnv(syms)

	if env["a"] != "1" {
		t.Errorf("value should win over prefix: %v", env["a"])
	}

	page, ok := env["page"].(map[string]any)
	if !ok || page["title"] != "T" {
		t.Errorf("page = %v", env["page"])
	}

	if list, ok := env["list"].([]string); !ok || !slices.Equal(list, []string{"x", "y"}) {
		t.Errorf("list = %v", env["list"])
	}

	if _, ok := env["env"].(map[string]string); !ok {
		t.Error("process environment missing")
	}
}

func TestFunctions(t *testing.T) {
	t.Setenv("TPT_TEST_VALUE", "set")

	syms := symbols.New()
	_ = syms.Set("n", "4", nil)
	_ = syms.SetArray("xs", []string{"b", "a"}, nil)

	funcs := Functions(syms)
	sep := string(os.PathListSeparator)

	tests := []struct {
		name    string
		fn      string
		args    []string
		want    string
		wantErr error
	}{
		{"env set", "env", []string{"TPT_TEST_VALUE"}, "set", nil},
		{"env default", "env", []string{"TPT_TEST_UNSET", "fallback"}, "fallback", nil},
		{"env unset", "env", []string{"TPT_TEST_UNSET"}, "", nil},
		{"env arity", "env", nil, "", ErrArgs},
		{"pathprefix arity", "pathprefix", nil, "", ErrArgs},
		{"expr arithmetic", "expr", []string{"int(n) * 2"}, "8", nil},
		{"expr bool", "expr", []string{"n == '4'"}, "1", nil},
		{"expr array", "expr", []string{"sort(xs)"}, "a b", nil},
		{"expr env", "expr", []string{"env.TPT_TEST_VALUE"}, "set", nil},
		{"expr arity", "expr", []string{"1", "2"}, "", ErrArgs},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			err := funcs[tt.fn](&buf, symbols.Strings(tt.args...))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}

				return
			}

			if err != nil {
				t.Fatal(err)
			}

			if buf.String() != tt.want {
				t.Errorf("%s(%v) = %q, want %q", tt.fn, tt.args, buf.String(), tt.want)
			}
		})
	}

	t.Run("pathprefix", func(t *testing.T) {
		var buf bytes.Buffer

		err := funcs["pathprefix"](&buf, symbols.Strings("/usr/bin"+sep+"/bin", "/opt/bin"))
		if err != nil {
			t.Fatal(err)
		}

		if got := buf.String(); !strings.HasPrefix(got, "/opt/bin"+sep) || !strings.Contains(got, "/usr/bin") {
			t.Errorf("pathprefix = %q", got)
		}
	})
}
