package lang

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/ardnew/tpt/lang/symbols"
)

// FuzzEvaluator checks that arbitrary input always terminates without
// panicking and that a failed render always reports at least one error.
func FuzzEvaluator(f *testing.F) {
	seeds := []string{
		"",
		"plain text",
		"@set(x, 1 + 2)${x}",
		"@if(${x} > 1){a}@elsif(0){b}@else{c}",
		"@push(a, 1, 2)@foreach(a){${.}@next}",
		"@set(i, 0)@while(${i} < 5){@set(i, ${i} + 1)}",
		"@macro(m, a){[${a}]}@m(1)@m()",
		"@macro(r){@r()}@r()",
		"@eval((1 + 2) * -3 / 0)",
		"${l[${i} + 1]}",
		"@substr(\"abc\", -1, 9)@rand(3)",
		"@if(1){",
		"\"unterminated",
		"\\\n@# comment\n}{",
	}

	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, src string) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		e := NewString(src, symbols.New(), WithMaxDepth(20), WithSeed(1))

		err := e.Run(ctx, io.Discard)
		if err == nil && e.ErrorCount() != 0 {
			t.Fatalf("errors recorded but Run succeeded: %v", e.Errors())
		}

		for _, le := range e.Errors() {
			if le.Line() < 1 {
				t.Fatalf("error without line: %v", le)
			}
		}
	})
}

// FuzzText checks that text without directives or escapes is copied as is.
func FuzzText(f *testing.F) {
	f.Add("Hello, World!\n")
	f.Add("{ nested { braces } }")
	f.Add("tabs\tand\r\nlines")

	f.Fuzz(func(t *testing.T, src string) {
		if strings.ContainsAny(src, "@$\\") {
			t.Skip()
		}

		out, err := NewString(src, nil).RunString(t.Context())
		if err != nil {
			t.Fatal(err)
		}

		if out != src {
			t.Fatalf("output %q differs from input %q", out, src)
		}
	})
}

const benchTemplate = `@macro(row, n, label){<tr><td>${n}</td><td>@uc(${label})</td></tr>
}@set(i, 0)@while(${i} < 50){@row(${i}, "item")@set(i, ${i} + 1)}
@push(names, "ada", "grace", "edsger")@foreach(names){@if(@length(${.}) > 3){${.} }}
`

func BenchmarkRun(b *testing.B) {
	for b.Loop() {
		e := NewString(benchTemplate, symbols.New(), WithSeed(1))
		if err := e.Run(b.Context(), io.Discard); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkExpression(b *testing.B) {
	syms := symbols.New()

	for b.Loop() {
		e := NewString("@eval((1 + 2) * 3 - 4 / 2 % 3 && 1 || 0)", syms, WithSeed(1))
		if err := e.Run(b.Context(), io.Discard); err != nil {
			b.Fatal(err)
		}
	}
}
