package symbols

import (
	"errors"
	"slices"
	"strconv"
	"testing"
)

// sumExpander treats the expression as an integer offset from a base index.
type sumExpander struct {
	tbl  *Table
	base int64
}

func (e sumExpander) Expand(expr string) (string, error) {
	if expr == "fail" {
		return "", errors.New("bad expression")
	}

	v, _ := e.tbl.Get(expr, nil)

	return strconv.FormatInt(e.base+ParseInt(v), 10), nil
}

func TestTable_ScalarLifecycle(t *testing.T) {
	tbl := New(WithBuiltins(nil))

	if tbl.Exists("x", nil) || !tbl.Empty("x", nil) {
		t.Fatal("fresh table should not define x")
	}

	if err := tbl.Set("x", "hello", nil); err != nil {
		t.Fatalf("set: %v", err)
	}

	for _, id := range []string{"x", "${x}", " x ", "${ x }"} {
		if got, ok := tbl.Get(id, nil); !ok || got != "hello" {
			t.Errorf("Get(%q) = %q, %v", id, got, ok)
		}
	}

	if tbl.IsArray("x", nil) || tbl.Size("x", nil) != 1 || tbl.Empty("x", nil) {
		t.Error("x should be a non-empty scalar")
	}

	if err := tbl.Unset("x", nil); err != nil {
		t.Fatalf("unset: %v", err)
	}

	if tbl.Exists("x", nil) {
		t.Error("x should be removed")
	}
}

func TestTable_Arrays(t *testing.T) {
	tbl := New(WithBuiltins(nil))

	for _, v := range []string{"a", "b", "c"} {
		if err := tbl.Push("arr", v, nil); err != nil {
			t.Fatalf("push: %v", err)
		}
	}

	if got := tbl.GetArray("arr", nil); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("GetArray = %v", got)
	}

	tests := []struct {
		id   string
		want string
		ok   bool
	}{
		{"arr", "a", true},
		{"arr[0]", "a", true},
		{"arr[2]", "c", true},
		{"${arr[1]}", "b", true},
		{"arr[3]", "", false},
		{"arr[-1]", "", false},
	}

	for _, tt := range tests {
		got, ok := tbl.Get(tt.id, nil)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Get(%q) = %q, %v; want %q, %v", tt.id, got, ok, tt.want, tt.ok)
		}
	}

	if !tbl.IsArray("arr", nil) || tbl.Size("arr", nil) != 3 {
		t.Error("arr should be a 3-element array")
	}

	if v, ok := tbl.Pop("arr", nil); !ok || v != "c" {
		t.Errorf("Pop = %q, %v", v, ok)
	}

	if tbl.Size("arr", nil) != 2 {
		t.Errorf("expected size 2 after pop, got %d", tbl.Size("arr", nil))
	}
}

func TestTable_IndexedWrites(t *testing.T) {
	tbl := New(WithBuiltins(nil))

	if err := tbl.Set("list[3]", "d", nil); err != nil {
		t.Fatalf("set: %v", err)
	}

	if got := tbl.GetArray("list", nil); !slices.Equal(got, []string{"", "", "", "d"}) {
		t.Errorf("auto-extend produced %q", got)
	}

	err := tbl.Set("list[65536]", "x", nil)
	if !errors.Is(err, ErrArrayBounds) {
		t.Errorf("expected ErrArrayBounds, got %v", err)
	}

	if tbl.Size("list", nil) != 4 {
		t.Error("rejected write must not change the array")
	}

	if err := tbl.Set("list[-1]", "x", nil); !errors.Is(err, ErrArrayBounds) {
		t.Errorf("expected ErrArrayBounds for negative index, got %v", err)
	}

	if err := tbl.Unset("list[3]", nil); err != nil {
		t.Fatalf("unset element: %v", err)
	}

	if !tbl.Empty("list[3]", nil) || tbl.Size("list", nil) != 4 {
		t.Error("unset of an element should clear it in place")
	}

	if err := tbl.Unset("list[9]", nil); err != nil || tbl.Size("list", nil) != 4 {
		t.Errorf("unset past the end should change nothing, got %v size %d", err, tbl.Size("list", nil))
	}

	if err := tbl.Unset("list", nil); err != nil {
		t.Fatalf("unset array: %v", err)
	}

	if tbl.Exists("list", nil) || tbl.Size("list", nil) != 0 {
		t.Error("unset without an index should remove the array")
	}
}

func TestTable_ExpandedIndex(t *testing.T) {
	tbl := New(WithBuiltins(nil))
	_ = tbl.SetArray("list", []string{"zero", "one", "two"}, nil)
	_ = tbl.Set("i", "1", nil)

	x := sumExpander{tbl: tbl, base: 0}

	if got, _ := tbl.Get("list[i]", x); got != "one" {
		t.Errorf("expected %q, got %q", "one", got)
	}

	x.base = 1
	if got, _ := tbl.Get("${list[i]}", x); got != "two" {
		t.Errorf("expected %q, got %q", "two", got)
	}

	if got, ok := tbl.Get("list[fail]", x); ok || got != "" {
		t.Errorf("failing index should read empty, got %q", got)
	}

	// Without an expander only literal and ${} indexes resolve.
	if got, _ := tbl.Get("list[${i}]", nil); got != "one" {
		t.Errorf("expected %q, got %q", "one", got)
	}

	if err := tbl.Set("list[i + 1]", "x", nil); !errors.Is(err, ErrIndex) {
		t.Errorf("expected ErrIndex without expander, got %v", err)
	}
}

func TestTable_EmbeddedNames(t *testing.T) {
	tbl := New(WithBuiltins(nil))
	_ = tbl.Set("n", "2", nil)
	_ = tbl.Set("user_2.name", "ada", nil)
	_ = tbl.Set("a", "user", nil)

	tests := []string{"user_${n}.name", "${user_${n}.name}", "${a}_${n}.name"}
	for _, id := range tests {
		if got, _ := tbl.Get(id, nil); got != "ada" {
			t.Errorf("Get(%q) = %q, want %q", id, got, "ada")
		}
	}
}

func TestTable_BadIdentifiers(t *testing.T) {
	tbl := New(WithBuiltins(nil))

	for _, id := range []string{"", "${}", "[1]", "x[1", "${user"} {
		if err := tbl.Set(id, "v", nil); err == nil {
			t.Errorf("Set(%q) should fail", id)
		}
	}
}

func TestTable_Builtins(t *testing.T) {
	tbl := New()

	v, ok := tbl.Get("template_library", nil)
	if !ok || v == "" {
		t.Fatal("expected template_library built-in")
	}

	if err := tbl.Set("template_library", "x", nil); !errors.Is(err, ErrReadOnly) {
		t.Errorf("expected ErrReadOnly, got %v", err)
	}

	if err := tbl.Unset("template_version", nil); !errors.Is(err, ErrReadOnly) {
		t.Errorf("expected ErrReadOnly, got %v", err)
	}

	custom := New(WithBuiltins(map[string]string{"site": "example"}))
	if custom.Exists("template_library", nil) {
		t.Error("WithBuiltins should replace the defaults")
	}

	if v, _ := custom.Get("site", nil); v != "example" {
		t.Errorf("expected custom built-in, got %q", v)
	}
}

func TestTable_SnapshotRestore(t *testing.T) {
	tbl := New(WithBuiltins(nil))
	_ = tbl.Set("x", "outer", nil)

	saved := tbl.Snapshot("x")
	missing := tbl.Snapshot("y")

	_ = tbl.Push("x", "more", nil)
	_ = tbl.Set("y", "temp", nil)

	tbl.Restore(saved)
	tbl.Restore(missing)

	if got, _ := tbl.Get("x", nil); got != "outer" || tbl.IsArray("x", nil) {
		t.Errorf("x not restored: %q", got)
	}

	if tbl.Exists("y", nil) {
		t.Error("y should be absent again after restore")
	}

	if saved.Name() != "x" {
		t.Errorf("unexpected binding name %q", saved.Name())
	}
}

func TestTable_Clone(t *testing.T) {
	tbl := New(WithBuiltins(nil))
	_ = tbl.SetArray("arr", []string{"a"}, nil)

	c := tbl.Clone()
	_ = c.Push("arr", "b", nil)

	if tbl.Size("arr", nil) != 1 || c.Size("arr", nil) != 2 {
		t.Error("clone must not share storage")
	}

	if !slices.Equal(c.Names(), []string{"arr"}) {
		t.Errorf("Names() = %v", c.Names())
	}
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"42", 42},
		{"-7", -7},
		{"12ab", 12},
		{"abc", 0},
		{"", 0},
		{"-", 0},
		{" 5", 0},
		{"007", 7},
	}

	for _, tt := range tests {
		if got := ParseInt(tt.in); got != tt.want {
			t.Errorf("ParseInt(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
