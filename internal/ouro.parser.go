package internal

import (
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Parser produces an AST from a token stream.
// Tags do not nest: a tag body is plain text up to the matching closing tag.
type Parser struct {
	tokens []Token
	pos    int
	logger *zap.Logger
}

// NewParser creates a new parser for the given token stream
func NewParser(tokens []Token, logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug(LogMsgParserCreated, zap.Int(LogFieldTokens, len(tokens)))
	return &Parser{
		tokens: tokens,
		logger: logger,
	}
}

// Parse produces the AST root node from the token stream
func (p *Parser) Parse() (*RootNode, error) {
	p.logger.Debug(LogMsgParserStart)

	var nodes []Node
	for !p.isAtEnd() {
		tok := p.current()
		switch tok.Type {
		case TokenTypeText:
			nodes = append(nodes, p.parseText())
		case TokenTypeOpenTag:
			node, err := p.parseTag()
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, node)
		case TokenTypeBlockClose:
			name := ""
			if next := p.peek(1); next.Type == TokenTypeTagName {
				name = next.Value
			}
			return nil, newTagError(ErrMsgUnexpectedClose, name, tok.Position)
		default:
			return nil, newTagError(ErrMsgUnexpectedToken, string(tok.Type), tok.Position)
		}
	}

	p.logger.Debug(LogMsgParserEnd, zap.Int(LogFieldNodes, len(nodes)))
	return &RootNode{Children: nodes}, nil
}

// parseText merges consecutive text tokens (escapes produce separate tokens)
func (p *Parser) parseText() *TextNode {
	start := p.current().Position
	var sb strings.Builder
	for p.current().Type == TokenTypeText {
		sb.WriteString(p.advance().Value)
	}
	return NewTextNode(sb.String(), start)
}

// parseTag parses one tag region starting at an OPEN_TAG token
func (p *Parser) parseTag() (*TagNode, error) {
	openTok := p.advance()

	nameTok := p.current()
	if nameTok.Type != TokenTypeTagName {
		return nil, newTagError(ErrMsgInvalidTagName, nameTok.Value, nameTok.Position)
	}
	p.advance()

	tagName := nameTok.Value
	if !IsKnownTag(tagName) {
		return nil, newTagError(ErrMsgUnknownTag, tagName, nameTok.Position)
	}

	attrs, err := p.parseAttributes(tagName)
	if err != nil {
		return nil, err
	}

	endTok := p.advance()
	switch endTok.Type {
	case TokenTypeSelfClose:
		return NewTagNode(tagName, attrs, "", true, openTok.Position), nil
	case TokenTypeCloseTag:
		body, err := p.parseBody(tagName, openTok.Position)
		if err != nil {
			return nil, err
		}
		return NewTagNode(tagName, attrs, body, false, openTok.Position), nil
	default:
		return nil, newTagError(ErrMsgUnexpectedToken, tagName, endTok.Position)
	}
}

// parseAttributes consumes ATTR_NAME EQUALS ATTR_VALUE triples
func (p *Parser) parseAttributes(tagName string) (Attributes, error) {
	attrs := Attributes{}
	for p.current().Type == TokenTypeAttrName {
		nameTok := p.advance()
		if p.current().Type != TokenTypeEquals {
			return nil, newTagError(ErrMsgUnexpectedToken, tagName, p.current().Position)
		}
		p.advance()
		valueTok := p.current()
		if valueTok.Type != TokenTypeAttrValue {
			return nil, newTagError(ErrMsgUnexpectedToken, tagName, valueTok.Position)
		}
		p.advance()

		if attrs.Has(nameTok.Value) {
			err := newTagError(ErrMsgDuplicateAttr, tagName, nameTok.Position)
			err.Attr = nameTok.Value
			return nil, err
		}
		attrs[nameTok.Value] = valueTok.Value
	}
	return attrs, nil
}

// parseBody collects the text body of a block tag and consumes its closing tag
func (p *Parser) parseBody(tagName string, openPos Position) (string, error) {
	var sb strings.Builder

	for {
		tok := p.current()
		switch tok.Type {
		case TokenTypeText:
			sb.WriteString(p.advance().Value)

		case TokenTypeOpenTag:
			nested := ""
			if next := p.peek(1); next.Type == TokenTypeTagName {
				nested = next.Value
			}
			return "", newTagError(ErrMsgNestedTag, nested, tok.Position)

		case TokenTypeBlockClose:
			p.advance()
			closeName := p.current()
			if closeName.Type != TokenTypeTagName {
				return "", newTagError(ErrMsgInvalidTagName, tagName, closeName.Position)
			}
			p.advance()
			if closeName.Value != tagName {
				return "", &MarkupError{
					Message:  ErrMsgMismatchedTag,
					Tag:      tagName,
					Expected: tagName,
					Actual:   closeName.Value,
					Position: closeName.Position,
				}
			}
			if p.current().Type != TokenTypeCloseTag {
				return "", newTagError(ErrMsgUnterminatedTag, tagName, p.current().Position)
			}
			p.advance()
			return sb.String(), nil

		case TokenTypeEOF:
			return "", newTagError(ErrMsgUnclosedTag, tagName, openPos)

		default:
			return "", newTagError(ErrMsgUnexpectedToken, tagName, tok.Position)
		}
	}
}

func (p *Parser) current() Token {
	return p.peek(0)
}

func (p *Parser) peek(offset int) Token {
	idx := p.pos + offset
	if idx >= len(p.tokens) {
		if len(p.tokens) == 0 {
			return Token{Type: TokenTypeEOF, Position: Position{Line: 1, Column: 1}}
		}
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[idx]
}

func (p *Parser) advance() Token {
	tok := p.current()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) isAtEnd() bool {
	return p.current().IsEOF()
}

// IsKnownTag reports whether name is one of the recognized markup tags
func IsKnownTag(name string) bool {
	switch name {
	case TagNameText, TagNamePrompt, TagNameResolve:
		return true
	default:
		return false
	}
}

// MarkupError represents a lexer or parser error with position
type MarkupError struct {
	Message  string
	Tag      string
	Attr     string
	Expected string
	Actual   string
	Position Position
}

func (e *MarkupError) Error() string {
	msg := e.Message
	switch {
	case e.Actual != "":
		msg += " (expected " + e.Expected + ", got " + e.Actual + ")"
	case e.Attr != "":
		msg += " " + strconv.Quote(e.Attr) + " on " + e.Tag
	case e.Tag != "":
		msg += " " + e.Tag
	}
	return msg + " at " + e.Position.String()
}

func newTagError(msg, tag string, pos Position) *MarkupError {
	return &MarkupError{
		Message:  msg,
		Tag:      tag,
		Position: pos,
	}
}
