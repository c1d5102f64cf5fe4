package repl

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ardnew/tpt/lang/token"
)

// builtinSignatures lists the parameters of every directive that takes an
// argument list, keyed by name without the '@'. Optional parameters are
// bracketed; a leading "..." marks a repeated parameter.
var builtinSignatures = map[string][]string{
	"include":  {"path"},
	"set":      {"id", "[expr]"},
	"setif":    {"id", "expr"},
	"unset":    {"id"},
	"push":     {"id", "...expr"},
	"pop":      {"id"},
	"macro":    {"name", "...param"},
	"foreach":  {"id"},
	"while":    {"expr"},
	"if":       {"expr"},
	"elsif":    {"expr"},
	"empty":    {"[expr]"},
	"rand":     {"[n]"},
	"concat":   {"...expr"},
	"eval":     {"...expr"},
	"length":   {"s"},
	"substr":   {"s", "start", "[len]"},
	"uc":       {"s"},
	"lc":       {"s"},
	"size":     {"id"},
	"isarray":  {"id"},
	"isscalar": {"id"},
	"compare":  {"a", "b"},
}

// directiveNames returns every reserved directive name without the '@'.
func directiveNames() []string {
	keywords := token.Keywords()

	names := make([]string, len(keywords))
	for i, k := range keywords {
		names[i] = strings.TrimPrefix(k, "@")
	}

	return names
}

// signature hint styles.
var (
	signatureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	signatureNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("6")).
				Bold(true)
	currentParamStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)
)

// functionCall describes the directive call enclosing the cursor.
type functionCall struct {
	name     string // directive, macro or function name without '@'
	argIndex int    // current argument index (0-based)
	inCall   bool   // true if cursor is inside the argument list
}

// detectFunctionCall reports the innermost "@name(" whose argument list
// contains the cursor, and which argument the cursor is in. Parentheses
// inside quoted strings are ignored.
func detectFunctionCall(input string, cursor int) functionCall {
	cursor = min(max(cursor, 0), len(input))

	// Open parens in effect at each position, innermost last.
	var (
		open   []int
		quoted bool
	)

	for i := 0; i < cursor; i++ {
		switch c := input[i]; {
		case c == '\\' && quoted:
			i++
		case c == '"':
			quoted = !quoted
		case quoted:
		case c == '(':
			open = append(open, i)
		case c == ')' && len(open) > 0:
			open = open[:len(open)-1]
		}
	}

	for j := len(open) - 1; j >= 0; j-- {
		paren := open[j]

		start := paren
		for start > 0 && isNameRune(rune(input[start-1])) {
			start--
		}

		if start == paren || start == 0 || input[start-1] != '@' {
			continue
		}

		return functionCall{
			name:     input[start:paren],
			argIndex: argIndex(input[paren+1 : cursor]),
			inCall:   true,
		}
	}

	return functionCall{}
}

// argIndex counts the top-level commas in an argument list prefix.
func argIndex(args string) int {
	var (
		n, depth int
		quoted   bool
	)

	for i := 0; i < len(args); i++ {
		switch c := args[i]; {
		case c == '\\' && quoted:
			i++
		case c == '"':
			quoted = !quoted
		case quoted:
		case c == '(':
			depth++
		case c == ')':
			depth--
		case c == ',' && depth == 0:
			n++
		}
	}

	return n
}

// signature returns the parameter list of the directive, macro or native
// function called name, and whether one is known. Native functions do not
// declare parameters, so they report a single repeated argument.
func (s *Session) signature(name string) ([]string, bool) {
	if params, ok := builtinSignatures[name]; ok {
		return params, true
	}

	if m, ok := s.macros.Lookup(name); ok {
		return m.Params, true
	}

	if _, ok := s.funcs[name]; ok {
		return []string{"...arg"}, true
	}

	return nil, false
}

// renderSignatureHint renders "@name(p1, p2)" with the parameter at
// currentArg highlighted. A repeated parameter stays highlighted for every
// argument from its position on.
func renderSignatureHint(name string, params []string, currentArg int) string {
	var b strings.Builder

	b.WriteString(signatureNameStyle.Render("@" + name))
	b.WriteString(signatureStyle.Render("("))

	for i, param := range params {
		if i > 0 {
			b.WriteString(signatureStyle.Render(", "))
		}

		repeated := strings.HasPrefix(param, "...")

		if currentArg == i || (repeated && currentArg > i) {
			b.WriteString(currentParamStyle.Render(param))
		} else {
			b.WriteString(signatureStyle.Render(param))
		}
	}

	b.WriteString(signatureStyle.Render(")"))

	return b.String()
}
