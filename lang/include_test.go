package lang

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ardnew/tpt/lang/symbols"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestInclude_SearchPath(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "inc.tpt", "[${x}]")

	out, _, err := render(t, "@set(x, 5)@include(\"inc.tpt\")@include(\"inc.tpt\")", WithIncludePath(dir))
	if err != nil {
		t.Fatal(err)
	}

	if out != "[5][5]" {
		t.Errorf("got %q", out)
	}
}

func TestInclude_RelativeToFile(t *testing.T) {
	dir := t.TempDir()
	main := writeFile(t, dir, "site/main.tpt", "<@include(\"parts/head.tpt\")>")
	writeFile(t, dir, "site/parts/head.tpt", "head@include(\"tail.tpt\")")
	writeFile(t, dir, "site/parts/tail.tpt", "+tail")

	e, err := NewFile(main, nil)
	if err != nil {
		t.Fatal(err)
	}

	out, err := e.RunString(t.Context())
	if err != nil {
		t.Fatalf("%v: %v", err, e.Errors())
	}

	if out != "<head+tail>" {
		t.Errorf("got %q", out)
	}
}

func TestInclude_Absolute(t *testing.T) {
	path := writeFile(t, t.TempDir(), "abs.tpt", "abs")

	syms := symbols.New()
	_ = syms.Set("p", path, nil)

	out, err := NewString("@include(${p})", syms).RunString(t.Context())
	if err != nil || out != "abs" {
		t.Errorf("got %q, %v", out, err)
	}
}

func TestInclude_DefinesMacros(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lib.tpt", "@macro(shout, s){@uc(${s})!}")

	out, e, err := render(t, "@include(\"lib.tpt\")@shout(\"hey\")", WithIncludePath(dir))
	if err != nil {
		t.Fatalf("%v: %v", err, e.Errors())
	}

	if out != "HEY!" {
		t.Errorf("got %q", out)
	}

	if _, ok := e.Macros().Lookup("shout"); !ok {
		t.Error("macro defined by include is not in the store")
	}
}

func TestInclude_ErrorSource(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "bad.tpt", "ok\n@eval(1 / 0)")

	_, e, err := render(t, "@include(\"bad.tpt\")", WithIncludePath(dir))
	if !errors.Is(err, ErrDivideByZero) {
		t.Fatalf("expected ErrDivideByZero, got %v", err)
	}

	got := e.Errors()[0]

	if got.Line() != 2 {
		t.Errorf("line = %d, want 2", got.Line())
	}

	if abs, _ := filepath.Abs(path); got.Source() != abs {
		t.Errorf("source = %q, want %q", got.Source(), abs)
	}
}

func TestInclude_Missing(t *testing.T) {
	_, e, err := render(t, "@include(\"nope.tpt\")", WithIncludePath(t.TempDir()))

	if !errors.Is(err, ErrInclude) || !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected missing include error, got %v", err)
	}

	if e.ErrorCount() != 1 {
		t.Errorf("expected one error, got %v", e.Errors())
	}
}

func TestInclude_Arity(t *testing.T) {
	_, e, _ := render(t, "@include(\"a\", \"b\")")

	if e.ErrorCount() != 1 || !strings.Contains(e.Errors()[0].Message(), "exactly 1 parameter") {
		t.Errorf("unexpected errors %v", e.Errors())
	}
}

func TestInclude_SelfRecursion(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "self.tpt", "x@include(\"self.tpt\")")

	e, err := NewFile(path, nil, WithMaxDepth(12))
	if err != nil {
		t.Fatal(err)
	}

	out, err := e.RunString(t.Context())
	if !errors.Is(err, ErrMaxDepthExceeded) {
		t.Fatalf("expected ErrMaxDepthExceeded, got %v", err)
	}

	if e.ErrorCount() != 1 {
		t.Errorf("expected the depth error once, got %d", e.ErrorCount())
	}

	if !strings.HasPrefix(out, "xx") || strings.Trim(out, "x") != "" {
		t.Errorf("unexpected output %q", out)
	}
}
