package repl

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{"help", "vars", "macros", "clear", "quit"}

// scope identifies what the word under the cursor names.
type scope int

const (
	scopeNone      scope = iota
	scopeDirective       // after '@': directives, builtins, macros, functions
	scopeVariable        // after "${": variable names
	scopeCommand         // control mode
)

// isNameRune reports whether r can appear in a directive or variable name.
// Dots are included so dotted variables complete as one word.
func isNameRune(r rune) bool {
	return r == '_' || r == '.' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// wordBounds returns the name at the cursor, its byte boundaries within
// input, and the scope the preceding sigil puts it in. A bare word outside
// any sigil has scopeNone.
func wordBounds(input string, cursor int) (word string, start, end int, sc scope) {
	cursor = min(max(cursor, 0), len(input))

	start = cursor

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if !isNameRune(r) {
			break
		}

		start -= size
	}

	end = cursor

	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if !isNameRune(r) {
			break
		}

		end += size
	}

	switch before := input[:start]; {
	case strings.HasSuffix(before, "${"):
		sc = scopeVariable
	case strings.HasSuffix(before, "@"):
		sc = scopeDirective
	}

	return input[start:end], start, end, sc
}

// candidates returns the names that complete a word in scope sc, sorted and
// without duplicates.
func (s *Session) candidates(sc scope) []string {
	var names []string

	switch sc {
	case scopeCommand:
		return ctrlCommands

	case scopeVariable:
		names = s.syms.Names()

	case scopeDirective:
		names = append(names, directiveNames()...)
		names = append(names, s.macros.Names()...)
		names = append(names, s.functionNames()...)

	default:
		return nil
	}

	slices.Sort(names)

	return slices.Compact(names)
}

// computeMatches calculates the fuzzy match results for the word at the cursor.
// It returns the matches (ranked best-first), the candidate list, and the word
// boundaries. An empty word after a sigil lists every candidate so the user
// can browse them; an empty word elsewhere lists nothing.
func (m model) computeMatches() (
	matches fuzzy.Matches,
	candidates []string,
	wordStart, wordEnd int,
) {
	word, ws, we, sc := wordBounds(m.input.Value(), m.input.Position())
	wordStart, wordEnd = ws, we

	if m.mode == modeCtrl {
		if word == "" {
			return nil, nil, wordStart, wordEnd
		}

		sc = scopeCommand
	}

	candidates = m.session.candidates(sc)
	if len(candidates) == 0 {
		return nil, nil, wordStart, wordEnd
	}

	if word == "" {
		if sc == scopeCommand {
			return nil, nil, wordStart, wordEnd
		}

		matches = make(fuzzy.Matches, len(candidates))
		for i, c := range candidates {
			matches[i] = fuzzy.Match{Str: c, Index: i}
		}

		return matches, candidates, wordStart, wordEnd
	}

	return fuzzy.Find(word, candidates), candidates, wordStart, wordEnd
}

// renderCandidateBar builds the single-line completion bar, ellipsized to fit
// within the given terminal width. Each candidate is rendered with its matched
// characters highlighted. The selected candidate (when tabbing) uses the
// selected style.
func renderCandidateBar(
	matches fuzzy.Matches,
	suggIdx int,
	tabActive bool,
	width int,
) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	sepWidth := lipgloss.Width(sep)
	ellipsis := hintStyle.Render("...")
	ellipsisWidth := lipgloss.Width(ellipsis)

	var b strings.Builder

	used := 0

	for i, match := range matches {
		rendered := renderCandidate(match, tabActive && i == suggIdx)

		entryWidth := lipgloss.Width(rendered)
		if i > 0 {
			entryWidth += sepWidth
		}

		last := i == len(matches)-1

		// Keep room for the ellipsis unless this is the final candidate.
		reserve := ellipsisWidth
		if last {
			reserve = 0
		}

		if i > 0 && used+entryWidth+reserve > width {
			b.WriteString(sep)
			b.WriteString(ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += entryWidth
	}

	return b.String()
}

// renderCandidate renders a single candidate with matched characters
// highlighted. Names that take arguments get a "()" suffix, which is not
// part of the completion.
func renderCandidate(match fuzzy.Match, selected bool) string {
	base, highlight := suggestionStyle, matchStyle
	if selected {
		base, highlight = selectedStyle, selectedMatchStyle
	}

	matched := make(map[int]bool, len(match.MatchedIndexes))
	for _, idx := range match.MatchedIndexes {
		matched[idx] = true
	}

	var b strings.Builder

	for i, r := range match.Str {
		if matched[i] {
			b.WriteString(highlight.Render(string(r)))
		} else {
			b.WriteString(base.Render(string(r)))
		}
	}

	if _, ok := builtinSignatures[match.Str]; ok {
		b.WriteString(base.Render("()"))
	}

	return b.String()
}
