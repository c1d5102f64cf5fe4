package repl

import (
	"slices"
	"testing"

	"github.com/ardnew/tpt/lang"
	"github.com/ardnew/tpt/lang/macro"
	"github.com/ardnew/tpt/lang/symbols"
)

func TestWordBounds(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		cursor    int
		wantWord  string
		wantStart int
		wantEnd   int
		wantScope scope
	}{
		{"directive", "@fore", 5, "fore", 1, 5, scopeDirective},
		{"variable", "${na", 4, "na", 2, 4, scopeVariable},
		{"dotted variable", "${page.ti", 9, "page.ti", 2, 9, scopeVariable},
		{"bare word", "hello", 5, "hello", 0, 5, scopeNone},
		{"sigil only", "text @", 6, "", 6, 6, scopeDirective},
		{"inside args", "@set(${co", 9, "co", 7, 9, scopeVariable},
		{"mid word", "@foreach", 3, "foreach", 1, 8, scopeDirective},
		{"after space", "a b", 2, "b", 2, 3, scopeNone},
		{"cursor past end", "@if", 99, "if", 1, 3, scopeDirective},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			word, start, end, sc := wordBounds(tt.input, tt.cursor)
			if word != tt.wantWord || start != tt.wantStart || end != tt.wantEnd || sc != tt.wantScope {
				t.Errorf("wordBounds(%q, %d) = (%q, %d, %d, %d), want (%q, %d, %d, %d)",
					tt.input, tt.cursor, word, start, end, sc,
					tt.wantWord, tt.wantStart, tt.wantEnd, tt.wantScope)
			}
		})
	}
}

func testSession(t *testing.T) *Session {
	t.Helper()

	syms := symbols.New(symbols.WithBuiltins(nil))
	_ = syms.Set("name", "world", nil)
	_ = syms.Set("page.title", "Home", nil)

	macros := macro.New()
	_ = macros.Define(macro.Macro{Name: "row", Params: []string{"n", "label"}, Body: "${n}"})

	return NewSession(Config{Symbols: syms, Macros: macros, Functions: map[string]lang.Func{"env": nil}})
}

func TestSession_Candidates(t *testing.T) {
	s := testSession(t)

	directives := s.candidates(scopeDirective)
	for _, want := range []string{"foreach", "set", "row", "env"} {
		if !slices.Contains(directives, want) {
			t.Errorf("directive candidates lack %q", want)
		}
	}

	if !slices.IsSorted(directives) {
		t.Error("directive candidates not sorted")
	}

	if got := s.candidates(scopeVariable); !slices.Equal(got, []string{"name", "page.title"}) {
		t.Errorf("variable candidates = %v", got)
	}

	if got := s.candidates(scopeCommand); !slices.Equal(got, ctrlCommands) {
		t.Errorf("command candidates = %v", got)
	}

	if got := s.candidates(scopeNone); got != nil {
		t.Errorf("bare words should not complete: %v", got)
	}
}

func TestRenderCandidateBar_Ellipsis(t *testing.T) {
	s := testSession(t)
	m := newModel(t.Context(), s, NewHistory(""))

	m.input.SetValue("@")
	m.input.SetCursor(1)
	refreshMatches(&m, false)

	if len(m.matches) != len(s.candidates(scopeDirective)) {
		t.Fatalf("empty word after @ should list every candidate, got %d", len(m.matches))
	}

	bar := plain(renderCandidateBar(m.matches, -1, false, 20))
	if len(bar) > 24 || bar[len(bar)-3:] != "..." {
		t.Errorf("bar not ellipsized: %q", bar)
	}

	if renderCandidateBar(nil, 0, false, 80) != "" {
		t.Error("no matches should render nothing")
	}
}
