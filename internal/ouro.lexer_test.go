package internal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLexer_Tokenize_PlainText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Token
	}{
		{
			name:  "empty string",
			input: "",
			expected: []Token{
				{Type: TokenTypeEOF, Position: Position{Offset: 0, Line: 1, Column: 1}},
			},
		},
		{
			name:  "simple text",
			input: "Hello",
			expected: []Token{
				{Type: TokenTypeText, Value: "Hello", Position: Position{Offset: 0, Line: 1, Column: 1}},
				{Type: TokenTypeEOF, Position: Position{Offset: 5, Line: 1, Column: 6}},
			},
		},
		{
			name:  "multiline text",
			input: "Line 1\nLine 2",
			expected: []Token{
				{Type: TokenTypeText, Value: "Line 1\nLine 2", Position: Position{Offset: 0, Line: 1, Column: 1}},
				{Type: TokenTypeEOF, Position: Position{Offset: 13, Line: 2, Column: 7}},
			},
		},
		{
			name:  "angle bracket not followed by a letter",
			input: "a < b",
			expected: []Token{
				{Type: TokenTypeText, Value: "a < b", Position: Position{Offset: 0, Line: 1, Column: 1}},
				{Type: TokenTypeEOF, Position: Position{Offset: 5, Line: 1, Column: 6}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := NewLexer(tt.input, zap.NewNop()).Tokenize()
			require.NoError(t, err)
			assertTokensMatch(t, tt.expected, tokens)
		})
	}
}

func TestLexer_Tokenize_BlockTag(t *testing.T) {
	tokens, err := NewLexer("<Text>hi</Text>", nil).Tokenize()
	require.NoError(t, err)

	expected := []Token{
		{Type: TokenTypeOpenTag, Position: Position{Offset: 0, Line: 1, Column: 1}},
		{Type: TokenTypeTagName, Value: "Text", Position: Position{Offset: 1, Line: 1, Column: 2}},
		{Type: TokenTypeCloseTag, Position: Position{Offset: 5, Line: 1, Column: 6}},
		{Type: TokenTypeText, Value: "hi", Position: Position{Offset: 6, Line: 1, Column: 7}},
		{Type: TokenTypeBlockClose, Position: Position{Offset: 8, Line: 1, Column: 9}},
		{Type: TokenTypeTagName, Value: "Text", Position: Position{Offset: 10, Line: 1, Column: 11}},
		{Type: TokenTypeCloseTag, Position: Position{Offset: 14, Line: 1, Column: 15}},
		{Type: TokenTypeEOF, Position: Position{Offset: 15, Line: 1, Column: 16}},
	}
	assertTokensMatch(t, expected, tokens)
}

func TestLexer_Tokenize_SelfClosingWithAttribute(t *testing.T) {
	tokens, err := NewLexer(`<Resolve prompt="X"/>`, nil).Tokenize()
	require.NoError(t, err)

	expected := []Token{
		{Type: TokenTypeOpenTag, Position: Position{Offset: 0, Line: 1, Column: 1}},
		{Type: TokenTypeTagName, Value: "Resolve", Position: Position{Offset: 1, Line: 1, Column: 2}},
		{Type: TokenTypeAttrName, Value: "prompt", Position: Position{Offset: 9, Line: 1, Column: 10}},
		{Type: TokenTypeEquals, Position: Position{Offset: 15, Line: 1, Column: 16}},
		{Type: TokenTypeAttrValue, Value: "X", Position: Position{Offset: 16, Line: 1, Column: 17}},
		{Type: TokenTypeSelfClose, Position: Position{Offset: 19, Line: 1, Column: 20}},
		{Type: TokenTypeEOF, Position: Position{Offset: 21, Line: 1, Column: 22}},
	}
	assertTokensMatch(t, expected, tokens)
}

func TestLexer_Tokenize_AttributeValues(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"double quoted", `<Resolve prompt="Say hi">`, "Say hi"},
		{"single quoted", `<Resolve prompt='Say "hi"'>`, `Say "hi"`},
		{"escaped quote", `<Resolve prompt="Say \"hi\"">`, `Say "hi"`},
		{"escaped backslash", `<Resolve prompt="a\\b">`, `a\b`},
		{"spaces around equals", `<Resolve prompt = "x">`, "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := NewLexer(tt.input, nil).Tokenize()
			require.NoError(t, err)

			var value string
			for _, tok := range tokens {
				if tok.Type == TokenTypeAttrValue {
					value = tok.Value
				}
			}
			assert.Equal(t, tt.expected, value)
		})
	}
}

func TestLexer_Tokenize_Escape(t *testing.T) {
	tokens, err := NewLexer(`\<Text>`, nil).Tokenize()
	require.NoError(t, err)

	require.Len(t, tokens, 3)
	assert.Equal(t, TokenTypeText, tokens[0].Type)
	assert.Equal(t, "<", tokens[0].Value)
	assert.Equal(t, TokenTypeText, tokens[1].Type)
	assert.Equal(t, "Text>", tokens[1].Value)
	assert.True(t, tokens[2].IsEOF())
}

func TestLexer_Tokenize_TracksLines(t *testing.T) {
	tokens, err := NewLexer("first\n<Prompt>x</Prompt>", nil).Tokenize()
	require.NoError(t, err)

	require.True(t, len(tokens) > 1)
	assert.Equal(t, TokenTypeOpenTag, tokens[1].Type)
	assert.Equal(t, 2, tokens[1].Position.Line)
	assert.Equal(t, 1, tokens[1].Position.Column)
}

func TestLexer_Tokenize_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		message string
	}{
		{"unterminated open tag", "<Text", ErrMsgUnterminatedTag},
		{"unterminated closing tag", "<Text>x</Text", ErrMsgUnterminatedTag},
		{"unterminated string", `<Resolve prompt="X>`, ErrMsgUnterminatedStr},
		{"unquoted value", `<Resolve prompt=X>`, ErrMsgUnexpectedChar},
		{"attribute without value", `<Resolve prompt>`, ErrMsgUnexpectedChar},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLexer(tt.input, nil).Tokenize()
			require.Error(t, err)

			var markupErr *MarkupError
			require.True(t, errors.As(err, &markupErr))
			assert.Equal(t, tt.message, markupErr.Message)
		})
	}
}

func assertTokensMatch(t *testing.T, expected, actual []Token) {
	t.Helper()
	require.Len(t, actual, len(expected))
	for i := range expected {
		assert.Equal(t, expected[i].Type, actual[i].Type, "token %d type", i)
		assert.Equal(t, expected[i].Value, actual[i].Value, "token %d value", i)
		assert.Equal(t, expected[i].Position, actual[i].Position, "token %d position", i)
	}
}
