// FILE: lixenwraith/dotenv/lexer.go
package dotenv

import "strings"

// utf8BOM is stripped from the start of the input before scanning
const utf8BOM = "\xEF\xBB\xBF"

// TokenKind identifies a lexical token
type TokenKind int

const (
	TokenEOF TokenKind = iota
	TokenKey
	TokenEquals
	TokenValue
	TokenQuotedValue
	TokenComment
	TokenNewline
)

// String returns the token kind name
func (k TokenKind) String() string {
	switch k {
	case TokenEOF:
		return "EOF"
	case TokenKey:
		return "Key"
	case TokenEquals:
		return "Equals"
	case TokenValue:
		return "Value"
	case TokenQuotedValue:
		return "QuotedValue"
	case TokenComment:
		return "Comment"
	case TokenNewline:
		return "Newline"
	default:
		return "Unknown"
	}
}

// Token is a lexical unit of dotenv text.
// Text is raw: keys are not normalized, quoted values are not unescaped
// (apart from escaped terminators), comments exclude the leading '#'.
type Token struct {
	Kind  TokenKind
	Text  string
	Quote byte // Terminator of a TokenQuotedValue
	Line  int  // 1-based line where the token starts
}

type lexState int

const (
	stateStart lexState = iota
	stateKey
	stateValue
	stateQuoted
	stateComment
)

// lexer holds the scan state of a single Lex call
type lexer struct {
	src         string
	pos         int
	line        int
	state       lexState
	afterEquals bool // '=' seen on the current line
	quote       byte
	buf         []byte
	startLine   int
	tokens      []Token
}

// Lex scans dotenv text into tokens, always ending with TokenEOF.
// It never fails: malformed input produces a best-effort token stream.
func Lex(text string) []Token {
	l := &lexer{
		src:  strings.TrimPrefix(text, utf8BOM),
		line: 1,
	}
	l.run()
	return l.tokens
}

func (l *lexer) run() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch l.state {
		case stateStart:
			l.lexStart(c)
		case stateKey:
			l.lexKey(c)
		case stateValue:
			l.lexValue(c)
		case stateQuoted:
			l.lexQuoted(c)
		case stateComment:
			l.lexComment(c)
		}
	}

	// End of input terminates whatever is open
	l.flush()
	l.tokens = append(l.tokens, Token{Kind: TokenEOF, Line: l.line})
}

func (l *lexer) lexStart(c byte) {
	if n := l.eolWidth(); n > 0 {
		l.endLine(n)
		return
	}

	switch {
	case c == '#':
		l.begin(stateComment)
	case l.afterEquals && isBlank(c):
		// Spacing between '=' and the value
	case l.afterEquals && (c == '"' || c == '\''):
		l.quote = c
		l.begin(stateQuoted)
	case l.afterEquals:
		l.begin(stateValue)
		l.buf = append(l.buf, c)
	case isBlank(c), isDigit(c):
		// Indentation, and numeric prefixes before a key are skipped
	default:
		l.begin(stateKey)
		l.buf = append(l.buf, c)
	}
	l.pos++
}

func (l *lexer) lexKey(c byte) {
	if n := l.eolWidth(); n > 0 {
		l.flush()
		l.endLine(n)
		return
	}

	switch {
	case c == '=':
		l.flush()
		l.tokens = append(l.tokens, Token{Kind: TokenEquals, Text: "=", Line: l.line})
		l.afterEquals = true
	case c == '#' && isBlank(l.prev()):
		l.flush()
		l.begin(stateComment)
	default:
		l.buf = append(l.buf, c)
	}
	l.pos++
}

func (l *lexer) lexValue(c byte) {
	if n := l.eolWidth(); n > 0 {
		l.flush()
		l.endLine(n)
		return
	}

	if c == '#' && isBlank(l.prev()) {
		l.flush()
		l.begin(stateComment)
	} else {
		l.buf = append(l.buf, c)
	}
	l.pos++
}

func (l *lexer) lexQuoted(c byte) {
	// Line breaks are content, except the one closing the input
	if rest := l.src[l.pos:]; rest == "\n" || rest == "\r" || rest == "\r\n" {
		l.flush()
		l.endLine(len(rest))
		return
	}

	switch {
	case c == l.quote && l.prev() != '\\':
		l.flush()
	case c == l.quote:
		// Escaped terminator replaces its backslash
		l.buf[len(l.buf)-1] = c
	default:
		if c == '\n' {
			l.line++
		}
		l.buf = append(l.buf, c)
	}
	l.pos++
}

func (l *lexer) lexComment(c byte) {
	if n := l.eolWidth(); n > 0 {
		l.flush()
		l.endLine(n)
		return
	}
	l.buf = append(l.buf, c)
	l.pos++
}

// begin enters state with an empty buffer
func (l *lexer) begin(state lexState) {
	l.state = state
	l.buf = l.buf[:0]
	l.startLine = l.line
}

// flush emits the token of the current state and returns to stateStart
func (l *lexer) flush() {
	tok := Token{Text: string(l.buf), Line: l.startLine}
	switch l.state {
	case stateStart:
		return
	case stateKey:
		tok.Kind = TokenKey
	case stateValue:
		tok.Kind = TokenValue
	case stateQuoted:
		tok.Kind = TokenQuotedValue
		tok.Quote = l.quote
	case stateComment:
		tok.Kind = TokenComment
	}
	l.tokens = append(l.tokens, tok)
	l.state = stateStart
	l.buf = l.buf[:0]
}

// endLine consumes a line break of width n
func (l *lexer) endLine(n int) {
	l.tokens = append(l.tokens, Token{Kind: TokenNewline, Line: l.line})
	l.pos += n
	l.line++
	l.state = stateStart
	l.afterEquals = false
	l.quote = 0
}

// eolWidth returns the width of the line break at pos: 0, 1, or 2 for "\r\n"
func (l *lexer) eolWidth() int {
	switch l.src[l.pos] {
	case '\n':
		return 1
	case '\r':
		if l.pos+1 < len(l.src) && l.src[l.pos+1] == '\n' {
			return 2
		}
		return 1
	}
	return 0
}

// prev returns the byte before pos, or 0 at the start of input
func (l *lexer) prev() byte {
	if l.pos == 0 {
		return 0
	}
	return l.src[l.pos-1]
}

func isBlank(c byte) bool { return c == ' ' || c == '\t' }

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
