// Package scanner implements the lexical scanner for Lox source code.
package scanner

import (
	"strconv"

	"github.com/nwillc/golox/loxerr"
	"github.com/nwillc/golox/token"
)

// Scanner converts Lox source code into a stream of tokens.
type Scanner struct {
	file *token.File
	src  []byte

	start     int // offset of the first byte of the token currently being scanned
	current   int // offset of the next byte to be read
	line      int // 1-based line of the byte at current
	lineStart int // offset of the first byte of the current line

	errs loxerr.CompileErrors
}

// New constructs a Scanner for src. name is used to attribute diagnostics and is typically a filename or "<repl>".
func New(name string, src []byte) *Scanner {
	return &Scanner{
		file:      token.NewFile(name, src),
		src:       src,
		line:      1,
		lineStart: 0,
	}
}

// ScanTokens scans the whole source and returns every token, terminated by a single EOF token.
// If any compile errors were encountered, they are returned as a [loxerr.CompileErrors] alongside the tokens scanned
// so far (the caller should not proceed past a non-nil error).
func (s *Scanner) ScanTokens() ([]token.Token, error) {
	var tokens []token.Token
	for {
		tok, skip := s.scanToken()
		if skip {
			continue
		}
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			break
		}
	}
	return tokens, s.errs.Err()
}

// scanToken scans a single token starting at the current offset. The second return value reports whether the
// caller should discard the result and scan again, which happens only for an unexpected character: the error is
// recorded and scanning resumes at the next byte, without recursing.
func (s *Scanner) scanToken() (token.Token, bool) {
	s.skipWhitespaceAndComments()
	s.start = s.current
	startPos := s.pos(s.start)

	if s.atEnd() {
		return s.makeToken(token.EOF, startPos), false
	}

	c := s.advance()
	switch {
	case c == '(':
		return s.makeToken(token.LeftParen, startPos), false
	case c == ')':
		return s.makeToken(token.RightParen, startPos), false
	case c == '{':
		return s.makeToken(token.LeftBrace, startPos), false
	case c == '}':
		return s.makeToken(token.RightBrace, startPos), false
	case c == ',':
		return s.makeToken(token.Comma, startPos), false
	case c == '.':
		return s.makeToken(token.Dot, startPos), false
	case c == '-':
		return s.makeToken(token.Minus, startPos), false
	case c == '+':
		return s.makeToken(token.Plus, startPos), false
	case c == ';':
		return s.makeToken(token.Semicolon, startPos), false
	case c == '*':
		return s.makeToken(token.Star, startPos), false
	case c == '/':
		return s.makeToken(token.Slash, startPos), false
	case c == '?':
		return s.makeToken(token.Question, startPos), false
	case c == ':':
		return s.makeToken(token.Colon, startPos), false
	case c == '!':
		if s.match('=') {
			return s.makeToken(token.BangEqual, startPos), false
		}
		return s.makeToken(token.Bang, startPos), false
	case c == '=':
		if s.match('=') {
			return s.makeToken(token.EqualEqual, startPos), false
		}
		return s.makeToken(token.Equal, startPos), false
	case c == '<':
		if s.match('=') {
			return s.makeToken(token.LessEqual, startPos), false
		}
		return s.makeToken(token.Less, startPos), false
	case c == '>':
		if s.match('=') {
			return s.makeToken(token.GreaterEqual, startPos), false
		}
		return s.makeToken(token.Greater, startPos), false
	case c == '"':
		return s.scanString(startPos), false
	case isDigit(c):
		return s.scanNumber(startPos), false
	case isAlpha(c):
		return s.scanIdent(startPos), false
	default:
		s.errs.Add(startPos.Line, "Unexpected character.")
		return token.Token{}, true
	}
}

// skipWhitespaceAndComments advances past whitespace, line comments ("//") and block comments ("/* ... */").
// An unterminated block comment runs to EOF without producing an error, matching the scanner it was ported from.
func (s *Scanner) skipWhitespaceAndComments() {
	for {
		switch {
		case s.atEnd():
			return
		case s.peek() == ' ' || s.peek() == '\r' || s.peek() == '\t':
			s.advance()
		case s.peek() == '\n':
			s.advance()
		case s.peek() == '/' && s.peekNext() == '/':
			for !s.atEnd() && s.peek() != '\n' {
				s.advance()
			}
		case s.peek() == '/' && s.peekNext() == '*':
			s.advance()
			s.advance()
			for !s.atEnd() && !(s.peek() == '*' && s.peekNext() == '/') {
				s.advance()
			}
			if !s.atEnd() {
				s.advance()
				s.advance()
			}
		default:
			return
		}
	}
}

func (s *Scanner) scanString(startPos token.Position) token.Token {
	for !s.atEnd() && s.peek() != '"' {
		s.advance()
	}
	if s.atEnd() {
		s.errs.Add(startPos.Line, "Unterminated string.")
		return s.makeToken(token.Illegal, startPos)
	}
	value := string(s.src[s.start+1 : s.current])
	s.advance() // the closing quote
	tok := s.makeToken(token.String, startPos)
	tok.Literal = value
	return tok
}

func (s *Scanner) scanNumber(startPos token.Position) token.Token {
	for isDigit(s.peek()) {
		s.advance()
	}
	if s.peek() == '.' && isDigit(s.peekNext()) {
		s.advance() // the '.'
		for isDigit(s.peek()) {
			s.advance()
		}
	}
	tok := s.makeToken(token.Number, startPos)
	value, err := strconv.ParseFloat(tok.Lexeme, 64)
	if err != nil {
		panic("scanner: invalid number literal " + tok.Lexeme)
	}
	tok.Literal = value
	return tok
}

func (s *Scanner) scanIdent(startPos token.Position) token.Token {
	for isAlphaNumeric(s.peek()) {
		s.advance()
	}
	tok := s.makeToken(token.Ident, startPos)
	tok.Type = token.IdentType(tok.Lexeme)
	return tok
}

func (s *Scanner) makeToken(typ token.Type, startPos token.Position) token.Token {
	return token.Token{
		Type:   typ,
		Lexeme: string(s.src[s.start:s.current]),
		Start:  startPos,
		End:    s.pos(s.current),
	}
}

func (s *Scanner) pos(offset int) token.Position {
	return token.Position{File: s.file, Line: s.line, Column: offset - s.lineStart}
}

func (s *Scanner) atEnd() bool {
	return s.current >= len(s.src)
}

func (s *Scanner) advance() byte {
	c := s.src[s.current]
	s.current++
	if c == '\n' {
		s.line++
		s.lineStart = s.current
	}
	return c
}

func (s *Scanner) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.src[s.current]
}

func (s *Scanner) peekNext() byte {
	if s.current+1 >= len(s.src) {
		return 0
	}
	return s.src[s.current+1]
}

func (s *Scanner) match(c byte) bool {
	if s.peek() != c {
		return false
	}
	s.advance()
	return true
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isAlpha(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isAlphaNumeric(c byte) bool {
	return isAlpha(c) || isDigit(c)
}
