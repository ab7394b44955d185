package vdf

import (
	"fmt"
	"strings"
)

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenString
	tokenOpen
	tokenClose
	tokenErr
)

type token struct {
	kind tokenKind
	text string
	line int
}

type parser struct {
	input string
	pos   int
	line  int
}

// parseInto consumes key/value pairs until a closing brace or end of input
// and stores them on dst. The section name is carried for error reporting.
func (p *parser) parseInto(dst *Node, section string) error {
	for {
		tok := p.next()
		switch tok.kind {
		case tokenErr:
			return &ParseError{Line: tok.line, Section: section, Msg: tok.text}
		case tokenEOF:
			if section != "" {
				return &ParseError{Line: tok.line, Section: section, Msg: "unexpected end of input: unclosed section"}
			}
			return nil
		case tokenClose:
			if section == "" {
				return &ParseError{Line: tok.line, Msg: "unexpected \"}\" outside any section"}
			}
			return nil
		case tokenOpen:
			return &ParseError{Line: tok.line, Section: section, Msg: "expected key before \"{\""}
		case tokenString:
			key := tok.text
			value := p.next()
			switch value.kind {
			case tokenErr:
				return &ParseError{Line: value.line, Section: section, Msg: value.text}
			case tokenString:
				dst.Set(key, NewString(value.text))
			case tokenOpen:
				child := NewObject()
				if err := p.parseInto(child, key); err != nil {
					return err
				}
				dst.Set(key, child)
			case tokenClose:
				return &ParseError{Line: value.line, Section: section, Msg: fmt.Sprintf("key %q has no value", key)}
			case tokenEOF:
				return &ParseError{Line: value.line, Section: section, Msg: fmt.Sprintf("key %q has no value", key)}
			}
		}
	}
}

func (p *parser) next() token {
	p.skipSpace()
	if p.pos >= len(p.input) {
		return token{kind: tokenEOF, line: p.line}
	}
	switch c := p.input[p.pos]; c {
	case '{':
		p.pos++
		return token{kind: tokenOpen, text: "{", line: p.line}
	case '}':
		p.pos++
		return token{kind: tokenClose, text: "}", line: p.line}
	case '"':
		return p.quoted()
	default:
		return p.bare()
	}
}

func (p *parser) quoted() token {
	start := p.line
	p.pos++ // opening quote
	var sb strings.Builder
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		switch c {
		case '"':
			p.pos++
			return token{kind: tokenString, text: sb.String(), line: start}
		case '\\':
			p.pos++
			if p.pos >= len(p.input) {
				break
			}
			switch esc := p.input[p.pos]; esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case '\\', '"':
				sb.WriteByte(esc)
			default:
				sb.WriteByte('\\')
				sb.WriteByte(esc)
			}
			p.pos++
		case '\n':
			p.line++
			sb.WriteByte(c)
			p.pos++
		default:
			sb.WriteByte(c)
			p.pos++
		}
	}
	return token{kind: tokenErr, text: "unterminated quoted string", line: start}
}

func (p *parser) bare() token {
	start := p.pos
	line := p.line
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c == '"' || c == '{' || c == '}' || c == ' ' || c == '\t' || c == '\r' || c == '\n' {
			break
		}
		p.pos++
	}
	return token{kind: tokenString, text: p.input[start:p.pos], line: line}
}

func (p *parser) skipSpace() {
	for p.pos < len(p.input) {
		switch c := p.input[p.pos]; c {
		case ' ', '\t', '\r':
			p.pos++
		case '\n':
			p.line++
			p.pos++
		case '/':
			if p.pos+1 < len(p.input) && p.input[p.pos+1] == '/' {
				for p.pos < len(p.input) && p.input[p.pos] != '\n' {
					p.pos++
				}
				continue
			}
			return
		default:
			return
		}
	}
}
