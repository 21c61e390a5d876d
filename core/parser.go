package core

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
)

// ReferenceResolver resolves indirect references. The parser uses it for
// streams whose /Length is stored as a separate object.
type ReferenceResolver interface {
	ResolveReference(ref IndirectRef) (Object, error)
}

// Parser parses PDF objects from an in-memory source using a Lexer.
// Streams it produces alias the source slice rather than copying it.
type Parser struct {
	data     []byte
	lexer    *Lexer
	current  *Token
	peek     *Token
	err      error
	resolver ReferenceResolver
}

// NewParser creates a parser positioned at the start of data
func NewParser(data []byte) *Parser {
	p := &Parser{data: data, lexer: NewLexer(data)}
	p.reset()
	return p
}

// NewParserAt creates a parser positioned at an absolute offset of data
func NewParserAt(data []byte, offset int64) (*Parser, error) {
	p := &Parser{data: data, lexer: NewLexer(data)}
	if err := p.lexer.Seek(offset); err != nil {
		return nil, err
	}
	p.reset()
	return p, nil
}

// SetReferenceResolver sets the resolver used for indirect stream lengths
func (p *Parser) SetReferenceResolver(resolver ReferenceResolver) {
	p.resolver = resolver
}

// Seek repositions the parser at an absolute offset
func (p *Parser) Seek(offset int64) error {
	if err := p.lexer.Seek(offset); err != nil {
		return err
	}
	p.reset()
	return nil
}

// reset discards lookahead and loads two fresh tokens from the lexer
func (p *Parser) reset() {
	p.current, p.peek, p.err = nil, nil, nil
	p.nextToken()
	p.nextToken()
}

// nextToken shifts the lookahead. Nothing is read past a "stream"
// keyword because the bytes that follow are binary.
func (p *Parser) nextToken() {
	p.current = p.peek
	p.peek = nil
	if p.err != nil || p.isKeyword("stream") {
		return
	}
	tok, err := p.lexer.NextToken()
	if err != nil {
		p.err = err
		return
	}
	p.peek = tok
}

func (p *Parser) isKeyword(kw string) bool {
	return p.current != nil && p.current.Type == TokenKeyword && string(p.current.Value) == kw
}

func (p *Parser) skipComments() {
	for p.current != nil && p.current.Type == TokenComment {
		p.nextToken()
	}
}

func (p *Parser) unexpectedEnd(where string) error {
	if p.err != nil {
		return fmt.Errorf("%s: %w", where, p.err)
	}
	return fmt.Errorf("unexpected end of input in %s", where)
}

// ParseObject parses the next direct object or reference. It returns
// io.EOF when the input is exhausted.
func (p *Parser) ParseObject() (Object, error) {
	p.skipComments()
	if p.current == nil {
		return nil, p.unexpectedEnd("object")
	}

	tok := p.current
	switch tok.Type {
	case TokenEOF:
		return nil, io.EOF

	case TokenKeyword:
		switch string(tok.Value) {
		case "null":
			p.nextToken()
			return Null{}, nil
		case "true":
			p.nextToken()
			return Bool(true), nil
		case "false":
			p.nextToken()
			return Bool(false), nil
		}
		return nil, fmt.Errorf("unexpected keyword %q at position %d", tok.Value, tok.Pos)

	case TokenInteger:
		return p.parseNumber()

	case TokenReal:
		val, err := strconv.ParseFloat(string(tok.Value), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid real number at position %d: %w", tok.Pos, err)
		}
		p.nextToken()
		return Real(val), nil

	case TokenString:
		p.nextToken()
		return String(tok.Value), nil

	case TokenHexString:
		hex := tok.Value
		if len(hex)%2 == 1 {
			hex = append(append([]byte{}, hex...), '0')
		}
		out := make([]byte, len(hex)/2)
		for i := range out {
			out[i] = hexValue(hex[2*i])<<4 | hexValue(hex[2*i+1])
		}
		p.nextToken()
		return String(out), nil

	case TokenName:
		p.nextToken()
		return Name(tok.Value), nil

	case TokenArrayStart:
		return p.parseArray()

	case TokenDictStart:
		return p.parseDict()
	}
	return nil, fmt.Errorf("unexpected token %q at position %d", tok.Value, tok.Pos)
}

// parseNumber parses an integer, or an indirect reference when the
// integer is followed by another integer and R.
func (p *Parser) parseNumber() (Object, error) {
	first, err := strconv.ParseInt(string(p.current.Value), 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(string(p.current.Value), 64)
		if ferr != nil {
			return nil, fmt.Errorf("invalid number %q at position %d", p.current.Value, p.current.Pos)
		}
		p.nextToken()
		return Real(f), nil
	}

	if p.peek != nil && p.peek.Type == TokenInteger {
		if gen, err := strconv.ParseInt(string(p.peek.Value), 10, 64); err == nil {
			// Look past the generation without losing it: the lexer is
			// rewound if no R follows.
			mark := p.lexer.Pos()
			next, lerr := p.lexer.NextToken()
			if lerr == nil && next.Type == TokenIndirectRef {
				p.reset()
				return IndirectRef{Number: int(first), Generation: int(gen)}, nil
			}
			_ = p.lexer.Seek(mark)
		}
	}

	p.nextToken()
	return Int(first), nil
}

func (p *Parser) parseArray() (Object, error) {
	p.nextToken()
	arr := Array{}
	for {
		p.skipComments()
		if p.current == nil || p.current.Type == TokenEOF {
			return nil, p.unexpectedEnd("array")
		}
		if p.current.Type == TokenArrayEnd {
			p.nextToken()
			return arr, nil
		}
		obj, err := p.ParseObject()
		if err != nil {
			return nil, fmt.Errorf("array element %d: %w", len(arr), err)
		}
		arr = append(arr, obj)
	}
}

func (p *Parser) parseDict() (Object, error) {
	p.nextToken()
	dict := NewDict()
	for {
		p.skipComments()
		if p.current == nil || p.current.Type == TokenEOF {
			return nil, p.unexpectedEnd("dictionary")
		}
		if p.current.Type == TokenDictEnd {
			p.nextToken()
			return dict, nil
		}
		if p.current.Type != TokenName {
			return nil, fmt.Errorf("expected name for dictionary key at position %d, got %q", p.current.Pos, p.current.Value)
		}
		key := string(p.current.Value)
		p.nextToken()

		value, err := p.ParseObject()
		if err != nil {
			return nil, fmt.Errorf("dictionary value for key /%s: %w", key, err)
		}
		dict.Set(key, value)
	}
}

// ParseIndirectObject parses "num gen obj <object> endobj", including
// stream objects. A missing endobj is tolerated.
func (p *Parser) ParseIndirectObject() (*IndirectObject, error) {
	p.skipComments()
	num, err := p.expectInt("object number")
	if err != nil {
		return nil, err
	}
	gen, err := p.expectInt("generation number")
	if err != nil {
		return nil, err
	}
	if !p.isKeyword("obj") {
		return nil, fmt.Errorf("expected 'obj' after %d %d", num, gen)
	}
	p.nextToken()

	obj, err := p.ParseObject()
	if err != nil {
		return nil, fmt.Errorf("object %d %d: %w", num, gen, err)
	}

	if p.isKeyword("stream") {
		dict, ok := obj.(*Dict)
		if !ok {
			return nil, fmt.Errorf("object %d %d: stream must follow a dictionary", num, gen)
		}
		if obj, err = p.parseStream(dict); err != nil {
			return nil, fmt.Errorf("object %d %d: %w", num, gen, err)
		}
	}

	if p.isKeyword("endobj") {
		p.nextToken()
	}

	return &IndirectObject{
		Ref:    IndirectRef{Number: num, Generation: gen},
		Object: obj,
	}, nil
}

func (p *Parser) expectInt(what string) (int, error) {
	if p.current == nil || p.current.Type != TokenInteger {
		if p.current == nil {
			return 0, p.unexpectedEnd(what)
		}
		return 0, fmt.Errorf("expected %s at position %d, got %q", what, p.current.Pos, p.current.Value)
	}
	v, err := strconv.Atoi(string(p.current.Value))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", what, err)
	}
	p.nextToken()
	return v, nil
}

var endstream = []byte("endstream")

// parseStream reads stream data following the "stream" keyword. When
// /Length is missing or wrong the data is delimited by the next
// "endstream" instead.
func (p *Parser) parseStream(dict *Dict) (*Stream, error) {
	p.lexer.SkipStreamEOL()
	start := p.lexer.Pos()

	end := int64(-1)
	if length, err := p.streamLength(dict); err == nil && length >= 0 && start+length <= int64(len(p.data)) {
		rest := bytes.TrimLeft(p.data[start+length:], " \t\r\n\f\x00")
		if bytes.HasPrefix(rest, endstream) {
			end = start + length
		}
	}
	if end < 0 {
		idx := bytes.Index(p.data[start:], endstream)
		if idx < 0 {
			return nil, fmt.Errorf("stream at %d has no endstream", start)
		}
		end = start + int64(idx)
		if end > start && p.data[end-1] == '\n' {
			end--
		}
		if end > start && p.data[end-1] == '\r' {
			end--
		}
	}

	if err := p.lexer.Seek(end); err != nil {
		return nil, err
	}
	tok, err := p.lexer.NextToken()
	if err != nil || tok.Type != TokenKeyword || !bytes.Equal(tok.Value, endstream) {
		return nil, fmt.Errorf("expected 'endstream' after stream data at %d", end)
	}
	p.reset()

	return &Stream{
		Dict:  dict,
		Start: start,
		End:   end,
		Data:  p.data[start:end:end],
	}, nil
}

func (p *Parser) streamLength(dict *Dict) (int64, error) {
	switch v := dict.Get("Length").(type) {
	case Int:
		return int64(v), nil
	case IndirectRef:
		if p.resolver == nil {
			return 0, fmt.Errorf("indirect /Length %s without a resolver", v)
		}
		resolved, err := p.resolver.ResolveReference(v)
		if err != nil {
			return 0, fmt.Errorf("resolve /Length: %w", err)
		}
		n, ok := resolved.(Int)
		if !ok {
			return 0, fmt.Errorf("/Length %s resolved to %T", v, resolved)
		}
		return int64(n), nil
	case nil:
		return 0, fmt.Errorf("stream dictionary missing /Length")
	default:
		return 0, fmt.Errorf("invalid /Length type %T", v)
	}
}
