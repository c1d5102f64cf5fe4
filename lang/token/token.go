// Package token defines the lexical tokens of the template language.
package token

//go:generate go tool stringer --linecomment --type Kind --output kind_string.go

import (
	"fmt"
	"strconv"
)

// Kind identifies the lexical class of a [Token].
type Kind int

const (
	Error      Kind = iota // error
	EOF                    // end of file
	ID                     // identifier
	UserMacro              // macro call
	Integer                // integer
	String                 // string
	Text                   // text
	Comment                // comment
	Whitespace             // whitespace
	JoinLine               // line join
	Escape                 // escape
	OpenBrace              // {
	CloseBrace             // }
	OpenParen              // (
	CloseParen             // )
	Comma                  // ,
	Operator               // operator
	RelOp                  // relational operator

	keywordStart

	Include  // @include
	Set      // @set
	SetIf    // @setif
	Unset    // @unset
	Push     // @push
	Pop      // @pop
	Macro    // @macro
	Foreach  // @foreach
	While    // @while
	Next     // @next
	Last     // @last
	If       // @if
	Else     // @else
	Elsif    // @elsif
	Empty    // @empty
	Rand     // @rand
	Concat   // @concat
	Eval     // @eval
	Length   // @length
	Substr   // @substr
	Uc       // @uc
	Lc       // @lc
	Size     // @size
	IsArray  // @isarray
	IsScalar // @isscalar
	Compare  // @compare

	keywordEnd
)

// reserved maps directive names (without the leading '@') to their kinds.
var reserved = func() map[string]Kind {
	m := make(map[string]Kind, keywordEnd-keywordStart-1)
	for k := keywordStart + 1; k < keywordEnd; k++ {
		m[k.String()[1:]] = k
	}

	return m
}()

// Lookup returns the keyword kind of the directive name, or [UserMacro] if the
// name is not reserved.
func Lookup(name string) Kind {
	if k, ok := reserved[name]; ok {
		return k
	}

	return UserMacro
}

// IsReserved reports whether name is a reserved directive name.
func IsReserved(name string) bool {
	_, ok := reserved[name]

	return ok
}

// Keywords returns the reserved directive names including the leading '@'.
func Keywords() []string {
	names := make([]string, 0, len(reserved))
	for k := keywordStart + 1; k < keywordEnd; k++ {
		names = append(names, k.String())
	}

	return names
}

// IsKeyword reports whether k is a directive keyword.
func (k Kind) IsKeyword() bool { return k > keywordStart && k < keywordEnd }

// IsBuiltin reports whether k is a directive that produces a value and may
// appear inside an expression.
func (k Kind) IsBuiltin() bool {
	switch k {
	case Empty, Rand, Concat, Eval, Length, Substr, Uc, Lc, Size,
		IsArray, IsScalar, Compare, Pop:
		return true
	default:
		return false
	}
}

// Token is a single lexical item. Tokens are immutable once returned.
type Token struct {
	Err    error // reason for an Error token
	Text   string
	Kind   Kind
	Line   int
	Column int
	Offset int // buffer index of the first byte of the token
}

// Is reports whether t has kind k and, if text is given, that exact text.
func (t Token) Is(k Kind, text ...string) bool {
	if t.Kind != k {
		return false
	}

	for _, s := range text {
		if t.Text == s {
			return true
		}
	}

	return len(text) == 0
}

// Describe returns a short human-readable description of t for diagnostics.
func (t Token) Describe() string {
	switch t.Kind {
	case EOF:
		return "end of file"
	case UserMacro:
		return "@" + t.Text
	case Whitespace, JoinLine:
		return t.Kind.String()
	case String:
		return strconv.Quote(t.Text)
	case Error:
		if t.Err != nil && t.Text == "" {
			return t.Err.Error()
		}

		return t.Text
	default:
		if t.Kind.IsKeyword() {
			return t.Kind.String()
		}

		return t.Text
	}
}

// String implements [fmt.Stringer].
func (t Token) String() string {
	return fmt.Sprintf("%s %q (%d:%d)", t.Kind, t.Text, t.Line, t.Column)
}
