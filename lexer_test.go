// FILE: lixenwraith/dotenv/lexer_test.go
package dotenv

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// kinds returns the token kinds of toks
func kinds(toks []Token) []TokenKind {
	out := make([]TokenKind, len(toks))
	for i, tok := range toks {
		out[i] = tok.Kind
	}
	return out
}

// TestLex tests the token stream of single constructs
func TestLex(t *testing.T) {
	t.Run("KeyValue", func(t *testing.T) {
		toks := Lex("FOO=bar")
		assert.Equal(t, []TokenKind{TokenKey, TokenEquals, TokenValue, TokenEOF}, kinds(toks))
		assert.Equal(t, "FOO", toks[0].Text)
		assert.Equal(t, "bar", toks[2].Text)
	})

	t.Run("Empty", func(t *testing.T) {
		assert.Equal(t, []TokenKind{TokenEOF}, kinds(Lex("")))
	})

	t.Run("LineBreaks", func(t *testing.T) {
		for _, text := range []string{"A=1\nB=2", "A=1\r\nB=2", "A=1\rB=2"} {
			toks := Lex(text)
			assert.Equal(t, []TokenKind{
				TokenKey, TokenEquals, TokenValue, TokenNewline,
				TokenKey, TokenEquals, TokenValue, TokenEOF,
			}, kinds(toks), "%q", text)
			assert.Equal(t, 2, toks[4].Line)
		}
	})

	t.Run("CommentLine", func(t *testing.T) {
		toks := Lex("  # hello\nA=1")
		require.Equal(t, TokenComment, toks[0].Kind)
		assert.Equal(t, " hello", toks[0].Text)
	})

	t.Run("CommentNeedsWhitespace", func(t *testing.T) {
		toks := Lex("X=val#notacomment")
		assert.Equal(t, []TokenKind{TokenKey, TokenEquals, TokenValue, TokenEOF}, kinds(toks))
		assert.Equal(t, "val#notacomment", toks[2].Text)

		toks = Lex("X=val #is a comment")
		assert.Equal(t, []TokenKind{TokenKey, TokenEquals, TokenValue, TokenComment, TokenEOF}, kinds(toks))
		assert.Equal(t, "val ", toks[2].Text)
		assert.Equal(t, "is a comment", toks[3].Text)
	})

	t.Run("CommentAfterEquals", func(t *testing.T) {
		toks := Lex("X= #nothing")
		assert.Equal(t, []TokenKind{TokenKey, TokenEquals, TokenComment, TokenEOF}, kinds(toks))
	})

	t.Run("CommentInKey", func(t *testing.T) {
		toks := Lex("KEY #comment=x")
		assert.Equal(t, []TokenKind{TokenKey, TokenComment, TokenEOF}, kinds(toks))
		assert.Equal(t, "KEY ", toks[0].Text)
		assert.Equal(t, "comment=x", toks[1].Text)
	})

	t.Run("QuotedValue", func(t *testing.T) {
		toks := Lex(`A='hello \' world' # c`)
		require.Equal(t, []TokenKind{TokenKey, TokenEquals, TokenQuotedValue, TokenComment, TokenEOF}, kinds(toks))
		assert.Equal(t, "hello ' world", toks[2].Text)
		assert.Equal(t, byte('\''), toks[2].Quote)
	})

	t.Run("QuotedKeepsHashAndSpaces", func(t *testing.T) {
		toks := Lex(`A="  a #b  "`)
		assert.Equal(t, "  a #b  ", toks[2].Text)
		assert.Equal(t, byte('"'), toks[2].Quote)
	})

	t.Run("QuotedOtherQuoteIsLiteral", func(t *testing.T) {
		toks := Lex(`A="it's"`)
		assert.Equal(t, "it's", toks[2].Text)
	})

	t.Run("QuotedSpansLines", func(t *testing.T) {
		toks := Lex("A=\"one\ntwo\"\nB=3")
		require.Equal(t, TokenQuotedValue, toks[2].Kind)
		assert.Equal(t, "one\ntwo", toks[2].Text)
		assert.Equal(t, 1, toks[2].Line)
		assert.Equal(t, TokenKey, toks[4].Kind)
		assert.Equal(t, 3, toks[4].Line)
	})

	t.Run("UnterminatedQuote", func(t *testing.T) {
		toks := Lex("A=\"open\n")
		assert.Equal(t, []TokenKind{TokenKey, TokenEquals, TokenQuotedValue, TokenNewline, TokenEOF}, kinds(toks))
		assert.Equal(t, "open", toks[2].Text)

		toks = Lex("A='open")
		assert.Equal(t, "open", toks[2].Text)
	})

	t.Run("TextAfterClosingQuote", func(t *testing.T) {
		toks := Lex(`A="x" tail`)
		assert.Equal(t, []TokenKind{TokenKey, TokenEquals, TokenQuotedValue, TokenValue, TokenEOF}, kinds(toks))
		assert.Equal(t, "tail", toks[3].Text)
	})

	t.Run("LeadingDigitsSkipped", func(t *testing.T) {
		toks := Lex("12 KEY=v")
		require.Equal(t, TokenKey, toks[0].Kind)
		assert.Equal(t, "KEY", toks[0].Text)
	})

	t.Run("DigitsInsideKeyKept", func(t *testing.T) {
		toks := Lex("K3Y9=v")
		assert.Equal(t, "K3Y9", toks[0].Text)
	})

	t.Run("ByteOrderMark", func(t *testing.T) {
		toks := Lex("\xEF\xBB\xBFA=1")
		assert.Equal(t, "A", toks[0].Text)
	})

	t.Run("SecondEqualsBelongsToValue", func(t *testing.T) {
		toks := Lex("A=b=c")
		assert.Equal(t, []TokenKind{TokenKey, TokenEquals, TokenValue, TokenEOF}, kinds(toks))
		assert.Equal(t, "b=c", toks[2].Text)
	})

	t.Run("KeyWithoutEquals", func(t *testing.T) {
		toks := Lex("LONELY\nA=1")
		assert.Equal(t, TokenKey, toks[0].Kind)
		assert.Equal(t, TokenNewline, toks[1].Kind)
	})
}

// TestLexConcurrent tests that scan state is local to each call
func TestLexConcurrent(t *testing.T) {
	inputs := []string{"A=1\nB='two'", "X=\"multi\nline\"", "# only comment"}
	want := make([][]Token, len(inputs))
	for i, in := range inputs {
		want[i] = Lex(in)
	}

	var wg sync.WaitGroup
	for n := 0; n < 16; n++ {
		for i, in := range inputs {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.Equal(t, want[i], Lex(in))
			}()
		}
	}
	wg.Wait()
}

func TestTokenKindString(t *testing.T) {
	assert.Equal(t, "QuotedValue", TokenQuotedValue.String())
	assert.Equal(t, "Unknown", TokenKind(99).String())
}
