package internal

// TokenType represents the type of a lexical token
type TokenType string

// Token type constants
const (
	TokenTypeText       TokenType = "TEXT"
	TokenTypeOpenTag    TokenType = "OPEN_TAG"
	TokenTypeCloseTag   TokenType = "CLOSE_TAG"
	TokenTypeSelfClose  TokenType = "SELF_CLOSE"
	TokenTypeBlockClose TokenType = "BLOCK_CLOSE"
	TokenTypeTagName    TokenType = "TAG_NAME"
	TokenTypeAttrName   TokenType = "ATTR_NAME"
	TokenTypeAttrValue  TokenType = "ATTR_VALUE"
	TokenTypeEquals     TokenType = "EQUALS"
	TokenTypeEOF        TokenType = "EOF"
)

// NodeType identifies AST node types
type NodeType int

// Node type constants
const (
	NodeTypeText NodeType = iota
	NodeTypeTag
)

// Node type string names for debugging
const (
	NodeTypeNameText = "TEXT"
	NodeTypeNameTag  = "TAG"
)

// String returns the string representation of the node type
func (n NodeType) String() string {
	if n == NodeTypeTag {
		return NodeTypeNameTag
	}
	return NodeTypeNameText
}

// Recognized tag names. Names are case-sensitive.
const (
	TagNameText    = "Text"
	TagNamePrompt  = "Prompt"
	TagNameResolve = "Resolve"
)

// Character constants
const (
	CharEquals      = '='
	CharDoubleQuote = '"'
	CharSingleQuote = '\''
	CharBackslash   = '\\'
	CharNewline     = '\n'
	CharSpace       = ' '
	CharTab         = '\t'
	CharCarriageRet = '\r'
)

// String constants for delimiter matching
const (
	StrOpenDelim  = "<"
	StrCloseDelim = ">"
	StrSelfClose  = "/>"
	StrBlockClose = "</"
	StrEscapeOpen = "\\<"
)

// Display limits for AST String() output
const (
	MaxStringDisplayLength = 40
	TruncatedStringLength  = 37
	TruncationSuffix       = "..."
)

// Log message constants
const (
	LogMsgLexerCreated   = "lexer created"
	LogMsgTokenizerStart = "starting tokenization"
	LogMsgTokenizerEnd   = "tokenization complete"
	LogMsgParserCreated  = "parser created"
	LogMsgParserStart    = "starting parse"
	LogMsgParserEnd      = "parse complete"
)

// Log field constants
const (
	LogFieldSource = "source_length"
	LogFieldTokens = "token_count"
	LogFieldNodes  = "node_count"
)

// Error message constants for lexer and parser
const (
	ErrMsgUnterminatedTag = "unterminated tag"
	ErrMsgUnterminatedStr = "unterminated string literal"
	ErrMsgInvalidTagName  = "invalid tag name"
	ErrMsgUnexpectedChar  = "unexpected character"
	ErrMsgUnknownTag      = "unrecognized tag"
	ErrMsgUnclosedTag     = "tag is never closed"
	ErrMsgMismatchedTag   = "mismatched closing tag"
	ErrMsgUnexpectedClose = "closing tag without matching open tag"
	ErrMsgNestedTag       = "tags cannot be nested"
	ErrMsgDuplicateAttr   = "duplicate attribute"
	ErrMsgUnexpectedToken = "unexpected token"
)
