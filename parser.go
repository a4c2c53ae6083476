// FILE: lixenwraith/dotenv/parser.go
package dotenv

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// trimCutset matches the characters trimmed from keys and unquoted values
const trimCutset = " \t\n\r\x00\x0B"

// Line is one assembled dotenv record
type Line struct {
	Key     string // Normalized key
	Value   string // Normalized raw value, before coercion
	Quoted  bool
	Comment string // Comment text without '#'
	Number  int    // 1-based line of the key
}

// Typed returns the coerced value of the line.
// Empty values stay empty strings.
func (l Line) Typed() Value {
	if l.Value == "" {
		return String("")
	}
	return Coerce(l.Value)
}

// Lines assembles the token stream of text into normalized records.
// Records with an empty key are dropped.
func Lines(text string) []Line {
	var (
		lines   []Line
		cur     Line
		quoted  bool
		raw     string
		comment string
	)

	for _, tok := range Lex(text) {
		switch tok.Kind {
		case TokenKey:
			cur.Key = tok.Text
			cur.Number = tok.Line
		case TokenValue:
			raw, quoted = tok.Text, false
		case TokenQuotedValue:
			raw, quoted = tok.Text, true
		case TokenComment:
			comment = tok.Text
		case TokenNewline, TokenEOF:
			cur.Comment = comment
			if line, ok := normalizeLine(cur, raw, quoted); ok {
				lines = append(lines, line)
			}
			cur, raw, quoted, comment = Line{}, "", false, ""
		}
	}
	return lines
}

// normalizeLine applies key, value and comment normalization
func normalizeLine(l Line, raw string, quoted bool) (Line, bool) {
	key := strings.Trim(l.Key, trimCutset)
	key = strings.NewReplacer(" ", "_", "\t", "_").Replace(key)
	if key == "" {
		return Line{}, false
	}
	l.Key = key
	l.Quoted = quoted
	if quoted {
		l.Value = unescape(raw)
	} else {
		l.Value = strings.Trim(raw, trimCutset)
	}
	return l, true
}

// Parse parses dotenv text into a resolved, ordered mapping.
// It never fails: malformed lines yield partial or no entries.
func Parse(text string) *Map {
	return Resolve(Lines(text))
}

// ParseBytes parses dotenv content
func ParseBytes(data []byte) *Map {
	return Parse(string(data))
}

// ParseReader reads r fully and parses it
func ParseReader(r io.Reader) (*Map, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read env source: %w", err)
	}
	return ParseBytes(data), nil
}

// ParseFile parses the dotenv file at path
func ParseFile(path string) (*Map, error) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFileNotFound, path, err)
	}
	return ParseBytes(data), nil
}

// unescape expands C-style escape sequences of quoted values.
// \n \t \r \a \v \b \f, \xHH and up to three octal digits are recognized;
// any other escaped character stands for itself. A trailing lone backslash is kept.
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			out = append(out, c)
			continue
		}

		i++
		switch c = s[i]; c {
		case 'n':
			out = append(out, '\n')
		case 't':
			out = append(out, '\t')
		case 'r':
			out = append(out, '\r')
		case 'a':
			out = append(out, '\a')
		case 'v':
			out = append(out, '\v')
		case 'b':
			out = append(out, '\b')
		case 'f':
			out = append(out, '\f')
		case 'x':
			if i+1 < len(s) && isHex(s[i+1]) {
				v := hexVal(s[i+1])
				i++
				if i+1 < len(s) && isHex(s[i+1]) {
					v = v<<4 | hexVal(s[i+1])
					i++
				}
				out = append(out, v)
			} else {
				out = append(out, 'x')
			}
		default:
			if isOctal(c) {
				v := c - '0'
				for n := 0; n < 2 && i+1 < len(s) && isOctal(s[i+1]); n++ {
					i++
					v = v<<3 | (s[i] - '0')
				}
				out = append(out, v)
			} else {
				out = append(out, c)
			}
		}
	}
	return string(out)
}

func isOctal(c byte) bool { return c >= '0' && c <= '7' }

func isHex(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func hexVal(c byte) byte {
	switch {
	case isDigit(c):
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
