// Package lexer converts template source into tokens.
//
// A [Lexer] has two modes sharing one cursor. [Lexer.Loose] treats nearly
// everything as literal text and is used while copying template bodies to
// output. [Lexer.Strict] skips whitespace and comments and recognizes the
// expression sub-language used inside directive parameter lists.
// [Lexer.Block] extracts the raw text of a balanced brace block without
// tokenizing it, which is how macro bodies are captured.
package lexer

import (
	"log/slog"
	"strings"

	"github.com/ardnew/tpt/lang/buffer"
	"github.com/ardnew/tpt/lang/token"
	"github.com/ardnew/tpt/pkg"
)

var (
	ErrUnterminatedString = pkg.NewError("unterminated string literal")
	ErrNewlineInString    = pkg.NewError("line break in string literal")
	ErrBadIdentifier      = pkg.NewError("malformed identifier")
	ErrUnexpectedChar     = pkg.NewError("unexpected character")
	ErrExpectedBlock      = pkg.NewError("expected block {}")
	ErrUnterminatedBlock  = pkg.NewError("unterminated block")
)

// Mark is a saved lexer position that can be restored with [Lexer.Reset].
type Mark struct {
	Offset int
	Line   int
	Column int
}

// Lexer tokenizes a [buffer.Buffer].
type Lexer struct {
	buf  *buffer.Buffer
	line int
	col  int
}

// New returns a Lexer reading from b, positioned at b's cursor.
func New(b *buffer.Buffer) *Lexer {
	return &Lexer{buf: b, line: 1, col: 1}
}

// Line returns the current 1-based line number.
func (l *Lexer) Line() int { return l.line }

// Mark returns the current position.
func (l *Lexer) Mark() Mark {
	return Mark{Offset: l.buf.Index(), Line: l.line, Column: l.col}
}

// Reset restores a position returned by [Lexer.Mark].
func (l *Lexer) Reset(m Mark) error {
	err := l.buf.Seek(m.Offset)
	if err != nil {
		return err
	}

	l.line, l.col = m.Line, m.Column

	return nil
}

// Unget pushes tok back so that it is produced again by the next call.
func (l *Lexer) Unget(tok token.Token) error {
	return l.Reset(Mark{Offset: tok.Offset, Line: tok.Line, Column: tok.Column})
}

// Loose returns the next token in loose mode.
func (l *Lexer) Loose() token.Token {
	start := l.Mark()

	c, ok := l.peek()
	if !ok {
		return l.emit(token.EOF, start)
	}

	switch {
	case c == '{':
		l.advance()

		return l.emit(token.OpenBrace, start)

	case c == '}':
		l.advance()

		return l.emit(token.CloseBrace, start)

	case c == '\\':
		return l.escape(start)

	case c == '@':
		return l.directive(start, false)

	case c == '$':
		if next, _ := l.peekAt(1); next == '{' {
			return l.closedID(start)
		}

		l.advance()

		return l.emit(token.Text, start)

	case isBlank(c) || isNewline(c):
		return l.whitespace(start)

	default:
		for ok && !isBoundary(c) {
			l.advance()
			c, ok = l.peek()
		}

		return l.emit(token.Text, start)
	}
}

// Strict returns the next token in strict mode.
func (l *Lexer) Strict() token.Token {
	l.skipSpace()

	start := l.Mark()

	c, ok := l.peek()
	if !ok {
		return l.emit(token.EOF, start)
	}

	switch {
	case isDigit(c):
		for ok && isDigit(c) {
			l.advance()
			c, ok = l.peek()
		}

		return l.emit(token.Integer, start)

	case c == '"' || c == '\'':
		return l.quoted(start, c)

	case c == '$':
		if next, _ := l.peekAt(1); next == '{' {
			return l.closedID(start)
		}

		l.advance()

		return l.fail(start, ErrBadIdentifier)

	case isNameStart(c):
		var sb strings.Builder
		if !l.scanName(&sb) {
			return l.fail(start, ErrBadIdentifier)
		}

		if c, _ := l.peek(); c == '[' && !l.scanIndex(&sb) {
			return l.fail(start, ErrBadIdentifier)
		}

		return l.emit(token.ID, start)

	case c == '@':
		return l.directive(start, true)

	case c == '(':
		l.advance()

		return l.emit(token.OpenParen, start)

	case c == ')':
		l.advance()

		return l.emit(token.CloseParen, start)

	case c == ',':
		l.advance()

		return l.emit(token.Comma, start)

	case c == '{':
		l.advance()

		return l.emit(token.OpenBrace, start)

	case c == '}':
		l.advance()

		return l.emit(token.CloseBrace, start)

	default:
		return l.operator(start, c)
	}
}

// Block skips leading whitespace, requires an open brace, and returns the
// verbatim text enclosed by the balanced brace block. The cursor is left after
// the closing brace.
func (l *Lexer) Block() (string, error) {
	return l.block(true)
}

// SkipBlock consumes a balanced brace block like [Lexer.Block] without
// capturing it.
func (l *Lexer) SkipBlock() error {
	_, err := l.block(false)

	return err
}

func (l *Lexer) block(capture bool) (string, error) {
	l.skipSpace()

	line := l.line

	if c, ok := l.peek(); !ok || c != '{' {
		return "", ErrExpectedBlock.With(slog.Int("line", line))
	}

	l.advance()

	begin := l.buf.Index()
	depth := 1

	for {
		c, ok := l.advance()
		if !ok {
			return "", ErrUnterminatedBlock.With(slog.Int("line", line))
		}

		switch c {
		case '\\':
			if _, ok := l.advance(); !ok {
				return "", ErrUnterminatedBlock.With(slog.Int("line", line))
			}

		case '{':
			depth++

		case '}':
			depth--
			if depth > 0 {
				continue
			}

			if !capture {
				return "", nil
			}

			text, err := l.buf.Bytes(begin, l.buf.Index()-1)
			if err != nil {
				return "", err
			}

			return string(text), nil
		}
	}
}

// escape lexes a backslash sequence in loose mode.
func (l *Lexer) escape(start Mark) token.Token {
	l.advance()

	c, ok := l.peek()
	if !ok {
		return l.emit(token.Text, start)
	}

	if isNewline(c) {
		l.newline()

		return l.emit(token.JoinLine, start)
	}

	l.advance()

	tok := l.emit(token.Escape, start)
	tok.Text = string(c)

	return tok
}

// directive lexes '@' followed by a name, or a '@#' comment.
func (l *Lexer) directive(start Mark, strict bool) token.Token {
	l.advance()

	var sb strings.Builder

	for c, ok := l.peek(); ok && isNameChar(c) && c != '.'; c, ok = l.peek() {
		sb.WriteByte(c)
		l.advance()
	}

	if sb.Len() > 0 {
		tok := l.emit(token.Lookup(sb.String()), start)
		tok.Text = sb.String()

		return tok
	}

	c, ok := l.peek()

	switch {
	case !ok:
		return l.emit(token.EOF, start)

	case c == '#':
		l.comment(start)

		return l.emit(token.Comment, start)

	case strict:
		return l.fail(start, ErrUnexpectedChar)

	default:
		return l.emit(token.Text, start)
	}
}

// comment consumes an '@#' comment to end of line. A backslash before the
// newline continues the comment onto the next line. A comment starting in the
// first column also consumes its terminating newline.
func (l *Lexer) comment(start Mark) {
	for {
		c, ok := l.peek()
		if !ok {
			return
		}

		if c == '\\' {
			if next, _ := l.peekAt(1); isNewline(next) {
				l.advance()
				l.newline()

				continue
			}
		}

		if isNewline(c) {
			if start.Column == 1 {
				l.newline()
			}

			return
		}

		l.advance()
	}
}

// whitespace consumes blanks and at most one trailing newline.
func (l *Lexer) whitespace(start Mark) token.Token {
	c, ok := l.peek()
	for ok && isBlank(c) {
		l.advance()
		c, ok = l.peek()
	}

	if ok && isNewline(c) {
		l.newline()
	}

	return l.emit(token.Whitespace, start)
}

// closedID lexes a ${...} identifier.
func (l *Lexer) closedID(start Mark) token.Token {
	var sb strings.Builder
	if !l.scanClosed(&sb) {
		return l.fail(start, ErrBadIdentifier)
	}

	return l.emit(token.ID, start)
}

// scanName consumes name characters and embedded ${...} references.
func (l *Lexer) scanName(sb *strings.Builder) bool {
	for {
		c, ok := l.peek()
		if !ok {
			return true
		}

		switch {
		case isNameChar(c):
			sb.WriteByte(c)
			l.advance()

		case c == '$':
			if next, _ := l.peekAt(1); next != '{' {
				return true
			}

			if !l.scanClosed(sb) {
				return false
			}

		default:
			return true
		}
	}
}

// scanClosed consumes a ${...} reference including its delimiters.
func (l *Lexer) scanClosed(sb *strings.Builder) bool {
	l.advance()
	l.advance()
	sb.WriteString("${")

	n := sb.Len()
	if !l.scanName(sb) || sb.Len() == n {
		return false
	}

	c, ok := l.peek()
	if ok && c == '[' {
		if !l.scanIndex(sb) {
			return false
		}

		c, ok = l.peek()
	}

	if !ok || c != '}' {
		return false
	}

	l.advance()
	sb.WriteByte('}')

	return true
}

// scanIndex consumes a bracketed index expression.
func (l *Lexer) scanIndex(sb *strings.Builder) bool {
	depth := 0

	for {
		c, ok := l.peek()
		if !ok || isNewline(c) {
			return false
		}

		l.advance()
		sb.WriteByte(c)

		switch c {
		case '[':
			depth++

		case ']':
			depth--
			if depth == 0 {
				return true
			}
		}
	}
}

// quoted lexes a string literal delimited by q.
func (l *Lexer) quoted(start Mark, q byte) token.Token {
	l.advance()

	var sb strings.Builder

	for {
		c, ok := l.peek()
		if !ok {
			return l.fail(start, ErrUnterminatedString)
		}

		if isNewline(c) {
			return l.fail(start, ErrNewlineInString)
		}

		l.advance()

		switch c {
		case q:
			tok := l.emit(token.String, start)
			tok.Text = sb.String()

			return tok

		case '\\':
			e, ok := l.advance()
			if !ok {
				return l.fail(start, ErrUnterminatedString)
			}

			switch e {
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			case 'a':
				sb.WriteByte('\a')
			default:
				sb.WriteByte(e)
			}

		default:
			sb.WriteByte(c)
		}
	}
}

// operator lexes arithmetic, logical, and relational operators.
func (l *Lexer) operator(start Mark, c byte) token.Token {
	l.advance()

	next, _ := l.peek()

	switch c {
	case '+', '-', '*', '/', '%':
		return l.emit(token.Operator, start)

	case '!':
		if next == '=' {
			l.advance()

			return l.emit(token.RelOp, start)
		}

		return l.emit(token.Operator, start)

	case '&', '|', '^':
		if next == c {
			l.advance()

			return l.emit(token.Operator, start)
		}

	case '<', '>':
		if next == '=' {
			l.advance()
		}

		return l.emit(token.RelOp, start)

	case '=':
		if next == '=' {
			l.advance()

			return l.emit(token.RelOp, start)
		}
	}

	return l.fail(start, ErrUnexpectedChar)
}

// skipSpace consumes whitespace, joined lines, and comments.
func (l *Lexer) skipSpace() {
	for {
		c, ok := l.peek()
		if !ok {
			return
		}

		next, _ := l.peekAt(1)

		switch {
		case isBlank(c):
			l.advance()

		case isNewline(c):
			l.newline()

		case c == '\\' && isNewline(next):
			l.advance()
			l.newline()

		case c == '@' && next == '#':
			start := l.Mark()
			l.advance()
			l.comment(start)

		default:
			return
		}
	}
}

// emit builds a token of kind k spanning start to the cursor.
func (l *Lexer) emit(k token.Kind, start Mark) token.Token {
	text, _ := l.buf.Bytes(start.Offset, l.buf.Index())

	return token.Token{
		Kind:   k,
		Text:   string(text),
		Line:   start.Line,
		Column: start.Column,
		Offset: start.Offset,
	}
}

// fail builds an Error token spanning start to the cursor.
func (l *Lexer) fail(start Mark, err *pkg.Error) token.Token {
	tok := l.emit(token.Error, start)
	tok.Err = err.With(slog.Int("line", start.Line), slog.Int("column", start.Column))

	return tok
}

func (l *Lexer) peek() (byte, bool) { return l.buf.Peek() }

func (l *Lexer) peekAt(n int) (byte, bool) { return l.buf.At(l.buf.Index() + n) }

// advance consumes one byte, tracking line and column.
func (l *Lexer) advance() (byte, bool) {
	c, ok := l.buf.Next()
	if !ok {
		return 0, false
	}

	switch c {
	case '\n':
		l.line++
		l.col = 1

	case '\r':
		if next, _ := l.peek(); next != '\n' {
			l.line++
			l.col = 1
		}

	default:
		l.col++
	}

	return c, true
}

// newline consumes one line terminator: "\n", "\r", or "\r\n".
func (l *Lexer) newline() {
	c, _ := l.advance()
	if next, _ := l.peek(); c == '\r' && next == '\n' {
		l.advance()
	}
}

func isBlank(c byte) bool { return c == ' ' || c == '\t' }

func isNewline(c byte) bool { return c == '\n' || c == '\r' }

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isAlpha(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

func isNameStart(c byte) bool { return isAlpha(c) || c == '_' || c == '.' }

func isNameChar(c byte) bool { return isNameStart(c) || isDigit(c) }

func isBoundary(c byte) bool {
	switch c {
	case '{', '}', '\\', '@', '$', ' ', '\t', '\r', '\n':
		return true
	default:
		return false
	}
}
