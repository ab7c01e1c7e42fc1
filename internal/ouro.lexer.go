package internal

import (
	"strings"

	"go.uber.org/zap"
)

// Lexer splits markup into tokens. A tag starts only at "<" or "</"
// directly followed by a letter; any other "<" is text, and "\<" is a
// literal "<".
type Lexer struct {
	src    string
	pos    Position
	tokens []Token
	logger *zap.Logger
}

// NewLexer creates a lexer over source. A nil logger disables logging.
func NewLexer(source string, logger *zap.Logger) *Lexer {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug(LogMsgLexerCreated, zap.Int(LogFieldSource, len(source)))
	return &Lexer{
		src:    source,
		pos:    Position{Line: 1, Column: 1},
		logger: logger,
	}
}

// Tokenize scans the whole source. The stream always ends with an EOF token.
func (l *Lexer) Tokenize() ([]Token, error) {
	l.logger.Debug(LogMsgTokenizerStart)
	l.tokens = nil

	for !l.done() {
		start := l.pos
		switch {
		case l.consume(StrEscapeOpen):
			l.emit(TokenTypeText, StrOpenDelim, start)
		case l.atTagStart(StrBlockClose):
			l.consume(StrBlockClose)
			l.emit(TokenTypeBlockClose, "", start)
			if err := l.scanTag(true); err != nil {
				return nil, err
			}
		case l.atTagStart(StrOpenDelim):
			l.consume(StrOpenDelim)
			l.emit(TokenTypeOpenTag, "", start)
			if err := l.scanTag(false); err != nil {
				return nil, err
			}
		default:
			l.scanText()
		}
	}

	l.emit(TokenTypeEOF, "", l.pos)
	l.logger.Debug(LogMsgTokenizerEnd, zap.Int(LogFieldTokens, len(l.tokens)))
	return l.tokens, nil
}

// scanText consumes text up to the next tag start or escape
func (l *Lexer) scanText() {
	start := l.pos
	for !l.done() && !l.at(StrEscapeOpen) && !l.atTagStart(StrBlockClose) && !l.atTagStart(StrOpenDelim) {
		l.next()
	}
	l.emit(TokenTypeText, l.src[start.Offset:l.pos.Offset], start)
}

// scanTag consumes a tag name, its attributes and the closing delimiter.
// A closing tag takes no attributes.
func (l *Lexer) scanTag(closing bool) error {
	start := l.pos
	name, ok := l.scanIdent(false)
	if !ok {
		return l.fail(ErrMsgInvalidTagName)
	}
	l.emit(TokenTypeTagName, name, start)

	for {
		l.skipSpace()
		at := l.pos
		switch {
		case l.done():
			return l.fail(ErrMsgUnterminatedTag)
		case l.consume(StrCloseDelim):
			l.emit(TokenTypeCloseTag, "", at)
			return nil
		case closing:
			return l.fail(ErrMsgUnterminatedTag)
		case l.consume(StrSelfClose):
			l.emit(TokenTypeSelfClose, "", at)
			return nil
		default:
			if err := l.scanAttr(); err != nil {
				return err
			}
		}
	}
}

// scanAttr consumes name = "value"
func (l *Lexer) scanAttr() error {
	start := l.pos
	name, ok := l.scanIdent(true)
	if !ok {
		return l.fail(ErrMsgUnexpectedChar)
	}
	l.emit(TokenTypeAttrName, name, start)

	l.skipSpace()
	if l.peek() != CharEquals {
		return l.fail(ErrMsgUnexpectedChar)
	}
	l.emit(TokenTypeEquals, "", l.pos)
	l.next()
	l.skipSpace()

	return l.scanQuoted()
}

// scanQuoted consumes a single- or double-quoted value. Backslash escapes
// the quote character and itself; any other backslash is literal.
func (l *Lexer) scanQuoted() error {
	if l.done() {
		return l.fail(ErrMsgUnterminatedStr)
	}
	start := l.pos
	quote := l.peek()
	if quote != CharDoubleQuote && quote != CharSingleQuote {
		return l.fail(ErrMsgUnexpectedChar)
	}
	l.next()

	var sb strings.Builder
	for !l.done() {
		c := l.next()
		switch {
		case c == quote:
			l.emit(TokenTypeAttrValue, sb.String(), start)
			return nil
		case c == CharBackslash && (l.peek() == quote || l.peek() == CharBackslash):
			sb.WriteByte(l.next())
		default:
			sb.WriteByte(c)
		}
	}
	return l.fail(ErrMsgUnterminatedStr)
}

// scanIdent consumes a letter (or underscore when allowed) followed by
// letters, digits, '_' or '-'.
func (l *Lexer) scanIdent(underscoreFirst bool) (string, bool) {
	c := l.peek()
	if !isLetter(c) && !(underscoreFirst && c == '_') {
		return "", false
	}
	start := l.pos.Offset
	l.next()
	for isIdentChar(l.peek()) {
		l.next()
	}
	return l.src[start:l.pos.Offset], true
}

func (l *Lexer) emit(typ TokenType, value string, pos Position) {
	l.tokens = append(l.tokens, Token{Type: typ, Value: value, Position: pos})
}

func (l *Lexer) done() bool {
	return l.pos.Offset >= len(l.src)
}

// peek returns the current byte, or 0 at the end
func (l *Lexer) peek() byte {
	return l.byteAt(0)
}

func (l *Lexer) byteAt(ahead int) byte {
	if i := l.pos.Offset + ahead; i < len(l.src) {
		return l.src[i]
	}
	return 0
}

// next consumes one byte; the caller checks done first
func (l *Lexer) next() byte {
	c := l.src[l.pos.Offset]
	l.pos.Offset++
	if c == CharNewline {
		l.pos.Line++
		l.pos.Column = 1
	} else {
		l.pos.Column++
	}
	return c
}

func (l *Lexer) at(s string) bool {
	return strings.HasPrefix(l.src[l.pos.Offset:], s)
}

// consume advances past s when the source is at s
func (l *Lexer) consume(s string) bool {
	if !l.at(s) {
		return false
	}
	for range len(s) {
		l.next()
	}
	return true
}

// atTagStart reports whether the source is at prefix followed by a letter
func (l *Lexer) atTagStart(prefix string) bool {
	return l.at(prefix) && isLetter(l.byteAt(len(prefix)))
}

func (l *Lexer) skipSpace() {
	for {
		switch l.peek() {
		case CharSpace, CharTab, CharNewline, CharCarriageRet:
			l.next()
		default:
			return
		}
	}
}

func (l *Lexer) fail(msg string) error {
	return &MarkupError{Message: msg, Position: l.pos}
}

func isLetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isLetter(c) || ('0' <= c && c <= '9') || c == '_' || c == '-'
}
