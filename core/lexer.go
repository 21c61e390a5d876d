package core

import (
	"bytes"
	"fmt"
)

// TokenType represents the type of token
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenComment
	TokenKeyword     // true, false, null, obj, endobj, stream, endstream, etc.
	TokenInteger     // 123
	TokenReal        // 3.14
	TokenString      // (hello)
	TokenHexString   // <48656C6C6F>
	TokenName        // /Type
	TokenArrayStart  // [
	TokenArrayEnd    // ]
	TokenDictStart   // <<
	TokenDictEnd     // >>
	TokenIndirectRef // R (after two numbers)
)

// Token represents a lexical token
type Token struct {
	Type  TokenType
	Value []byte
	Pos   int64 // Offset of the first byte in the source
}

// Lexer tokenizes PDF syntax held in memory. Positions are absolute
// offsets into the slice it was created with.
type Lexer struct {
	data []byte
	pos  int
}

// NewLexer creates a lexer positioned at the start of data
func NewLexer(data []byte) *Lexer {
	return &Lexer{data: data}
}

// Pos returns the offset of the next unread byte
func (l *Lexer) Pos() int64 { return int64(l.pos) }

// Seek moves the lexer to an absolute offset
func (l *Lexer) Seek(pos int64) error {
	if pos < 0 || pos > int64(len(l.data)) {
		return fmt.Errorf("seek to %d outside source of %d bytes", pos, len(l.data))
	}
	l.pos = int(pos)
	return nil
}

// NextToken returns the next token, skipping whitespace
func (l *Lexer) NextToken() (*Token, error) {
	l.skipWhitespace()
	if l.pos >= len(l.data) {
		return &Token{Type: TokenEOF, Pos: l.Pos()}, nil
	}

	start := l.pos
	b := l.data[l.pos]
	switch b {
	case '%':
		return l.readComment(), nil
	case '[':
		l.pos++
		return &Token{Type: TokenArrayStart, Value: l.data[start:l.pos], Pos: int64(start)}, nil
	case ']':
		l.pos++
		return &Token{Type: TokenArrayEnd, Value: l.data[start:l.pos], Pos: int64(start)}, nil
	case '(':
		return l.readString()
	case '<':
		if l.at(1) == '<' {
			l.pos += 2
			return &Token{Type: TokenDictStart, Value: l.data[start:l.pos], Pos: int64(start)}, nil
		}
		return l.readHexString()
	case '>':
		if l.at(1) == '>' {
			l.pos += 2
			return &Token{Type: TokenDictEnd, Value: l.data[start:l.pos], Pos: int64(start)}, nil
		}
		return nil, fmt.Errorf("unexpected '>' at position %d", start)
	case '/':
		return l.readName()
	}

	if isDigit(b) || b == '-' || b == '+' || b == '.' {
		return l.readNumber(), nil
	}
	if isRegular(b) {
		return l.readKeyword(), nil
	}
	return nil, fmt.Errorf("unexpected character %q at position %d", b, start)
}

// at returns the byte n positions ahead, or 0 past the end
func (l *Lexer) at(n int) byte {
	if l.pos+n < len(l.data) {
		return l.data[l.pos+n]
	}
	return 0
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.data) && isWhitespace(l.data[l.pos]) {
		l.pos++
	}
}

func (l *Lexer) readComment() *Token {
	start := l.pos
	for l.pos < len(l.data) && l.data[l.pos] != '\r' && l.data[l.pos] != '\n' {
		l.pos++
	}
	return &Token{Type: TokenComment, Value: l.data[start:l.pos], Pos: int64(start)}
}

// readString reads a literal string, resolving escapes and balanced parens
func (l *Lexer) readString() (*Token, error) {
	start := l.pos
	l.pos++
	var buf bytes.Buffer
	depth := 1
	for {
		if l.pos >= len(l.data) {
			return nil, fmt.Errorf("unterminated string starting at %d", start)
		}
		b := l.data[l.pos]
		l.pos++
		switch b {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return &Token{Type: TokenString, Value: buf.Bytes(), Pos: int64(start)}, nil
			}
		case '\\':
			l.readEscape(&buf)
			continue
		case '\r':
			// EOL in a literal string is always a single LF
			if l.at(0) == '\n' {
				l.pos++
			}
			b = '\n'
		}
		buf.WriteByte(b)
	}
}

func (l *Lexer) readEscape(buf *bytes.Buffer) {
	if l.pos >= len(l.data) {
		return
	}
	c := l.data[l.pos]
	l.pos++
	switch c {
	case 'n':
		buf.WriteByte('\n')
	case 'r':
		buf.WriteByte('\r')
	case 't':
		buf.WriteByte('\t')
	case 'b':
		buf.WriteByte('\b')
	case 'f':
		buf.WriteByte('\f')
	case '\r':
		if l.at(0) == '\n' {
			l.pos++
		}
	case '\n':
	default:
		if isOctalDigit(c) {
			v := c - '0'
			for i := 0; i < 2 && l.pos < len(l.data) && isOctalDigit(l.data[l.pos]); i++ {
				v = v*8 + (l.data[l.pos] - '0')
				l.pos++
			}
			buf.WriteByte(v)
			return
		}
		buf.WriteByte(c)
	}
}

func (l *Lexer) readHexString() (*Token, error) {
	start := l.pos
	l.pos++
	var buf bytes.Buffer
	for {
		if l.pos >= len(l.data) {
			return nil, fmt.Errorf("unterminated hex string starting at %d", start)
		}
		b := l.data[l.pos]
		l.pos++
		switch {
		case b == '>':
			return &Token{Type: TokenHexString, Value: buf.Bytes(), Pos: int64(start)}, nil
		case isWhitespace(b):
		case isHexDigit(b):
			buf.WriteByte(b)
		default:
			return nil, fmt.Errorf("invalid hex digit %q at position %d", b, l.pos-1)
		}
	}
}

// readName reads a name, decoding #xx escapes
func (l *Lexer) readName() (*Token, error) {
	start := l.pos
	l.pos++
	var buf bytes.Buffer
	for l.pos < len(l.data) && isRegular(l.data[l.pos]) {
		b := l.data[l.pos]
		l.pos++
		if b == '#' && isHexDigit(l.at(0)) && isHexDigit(l.at(1)) {
			buf.WriteByte(hexValue(l.at(0))<<4 | hexValue(l.at(1)))
			l.pos += 2
			continue
		}
		buf.WriteByte(b)
	}
	return &Token{Type: TokenName, Value: buf.Bytes(), Pos: int64(start)}, nil
}

func (l *Lexer) readNumber() *Token {
	start := l.pos
	typ := TokenInteger
	for l.pos < len(l.data) {
		b := l.data[l.pos]
		switch {
		case isDigit(b):
		case (b == '-' || b == '+') && l.pos == start:
		case b == '.' && typ == TokenInteger:
			typ = TokenReal
		default:
			return &Token{Type: typ, Value: l.data[start:l.pos], Pos: int64(start)}
		}
		l.pos++
	}
	return &Token{Type: typ, Value: l.data[start:l.pos], Pos: int64(start)}
}

func (l *Lexer) readKeyword() *Token {
	start := l.pos
	for l.pos < len(l.data) && isRegular(l.data[l.pos]) {
		l.pos++
	}
	value := l.data[start:l.pos]
	if len(value) == 1 && value[0] == 'R' {
		return &Token{Type: TokenIndirectRef, Value: value, Pos: int64(start)}
	}
	return &Token{Type: TokenKeyword, Value: value, Pos: int64(start)}
}

// SkipStreamEOL consumes the end-of-line marker that follows the
// "stream" keyword: CRLF or LF, and a lone CR from sloppy writers.
func (l *Lexer) SkipStreamEOL() {
	for l.pos < len(l.data) && (l.data[l.pos] == ' ' || l.data[l.pos] == '\t') {
		l.pos++
	}
	if l.at(0) == '\r' {
		l.pos++
	}
	if l.at(0) == '\n' {
		l.pos++
	}
}

func isWhitespace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f' || b == 0
}

func isDelimiter(b byte) bool {
	switch b {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func isRegular(b byte) bool {
	return !isWhitespace(b) && !isDelimiter(b)
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isOctalDigit(b byte) bool {
	return b >= '0' && b <= '7'
}

func isHexDigit(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func hexValue(b byte) byte {
	switch {
	case isDigit(b):
		return b - '0'
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10
	}
	return 0
}
