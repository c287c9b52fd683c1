package console

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/YoLinTsai/lab0-c/internal/fifo"
)

const eof = -1

// token represents a tokenized text string that a lexer identified.
type token struct {
	typ tokenType // token type
	val string    // tokenized text
}

type tokenType int

const (
	tokenTypeEOF    tokenType = iota // end of line
	tokenTypeError                   // lexing error
	tokenTypeWord                    // series of characters except whitespaces
	tokenTypeQuoted                  // string enclosed with double quotes, e.g. "quoted string"
)

// lexer represents the state of the scanner of a single command line.
type lexer struct {
	input  string  // input string being lexed
	state  stateFn // next lexing state function to enter
	pos    int     // current position in the input
	start  int     // start position of a token being lexed in input string
	width  int     // width of last rune read from input
	quoted strings.Builder
	tokens *fifo.Queue[token]
}

// newLexer creates a new scanner for the input line.
func newLexer(input string) *lexer {
	return &lexer{
		input:  input,
		state:  lexSpace,
		tokens: fifo.New[token](4),
	}
}

// next returns the next rune in the input and move position.
func (l *lexer) next() (r rune) {
	if l.pos >= len(l.input) {
		l.width = 0
		return eof
	}

	r, l.width = utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += l.width
	return r
}

// ignore skips over the pending input before this point.
func (l *lexer) ignore() {
	l.start = l.pos
}

// back steps back one rune.
func (l *lexer) back() {
	l.pos -= l.width
}

// emit passes a token to the client.
func (l *lexer) emit(t tokenType) {
	l.tokens.Enqueue(token{typ: t, val: l.input[l.start:l.pos]})
	l.start = l.pos
}

// errorf returns an error token and terminates the running lexer.
func (l *lexer) errorf(format string, args ...any) stateFn {
	l.tokens.Enqueue(token{typ: tokenTypeError, val: fmt.Sprintf(format, args...)})
	return l.terminate()
}

// terminate queues the EOF token and stops the scan by returning a nil state.
func (l *lexer) terminate() stateFn {
	l.tokens.Enqueue(token{typ: tokenTypeEOF})
	return nil
}

// nextToken returns the next token from the input.
// Once the scan has terminated it keeps returning EOF tokens.
func (l *lexer) nextToken() token {
	for {
		if t, ok := l.tokens.Dequeue(); ok {
			return t
		}
		if l.state == nil {
			return token{typ: tokenTypeEOF}
		}
		l.state = l.state(l)
	}
}

// stateFn represents the state of the lexer as a function that returns the next state
type stateFn func(*lexer) stateFn

// lexSpace skips whitespace between words.
func lexSpace(l *lexer) stateFn {
	for {
		r := l.next()
		switch {
		case r == eof:
			return l.terminate()
		case unicode.IsSpace(r):
			l.ignore()
		case r == '#':
			return lexComment
		case r == '"':
			l.ignore()
			l.quoted.Reset()
			return lexQuoted
		default:
			l.back()
			return lexWord
		}
	}
}

// lexComment discards the rest of the line.
func lexComment(l *lexer) stateFn {
	l.pos = len(l.input)
	l.ignore()
	return l.terminate()
}

// lexWord scans a run of non-space characters.
func lexWord(l *lexer) stateFn {
	for {
		r := l.next()
		if r == eof || unicode.IsSpace(r) {
			l.back()
			break
		}
	}
	l.emit(tokenTypeWord)
	return lexSpace
}

// lexQuoted scans the contents of a double quoted string. A backslash escapes
// the following character.
func lexQuoted(l *lexer) stateFn {
	for {
		switch r := l.next(); r {
		case eof:
			return l.errorf("unterminated quoted string")
		case '\\':
			esc := l.next()
			if esc == eof {
				return l.errorf("unterminated quoted string")
			}
			l.quoted.WriteRune(esc)
		case '"':
			l.tokens.Enqueue(token{typ: tokenTypeQuoted, val: l.quoted.String()})
			l.ignore()
			return lexSpace
		default:
			l.quoted.WriteRune(r)
		}
	}
}

// splitLine splits a command line into its words.
func splitLine(line string) ([]string, error) {
	l := newLexer(line)

	var words []string
	for {
		t := l.nextToken()
		switch t.typ {
		case tokenTypeEOF:
			return words, nil
		case tokenTypeError:
			return nil, errors.Errorf("%s at column %d", t.val, l.pos)
		default:
			words = append(words, t.val)
		}
	}
}
