package internal

import "fmt"

// Position locates a byte in the markup source. Line and Column start at 1.
type Position struct {
	Offset int
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("line %d, column %d", p.Line, p.Column)
}

// Token is one lexical unit. Value is set for text, names and attribute
// values only.
type Token struct {
	Type     TokenType
	Value    string
	Position Position
}

func (t Token) String() string {
	if t.Value == "" {
		return fmt.Sprintf("Token{%s @ %s}", t.Type, t.Position)
	}
	return fmt.Sprintf("Token{%s: %q @ %s}", t.Type, t.Value, t.Position)
}

func (t Token) IsEOF() bool {
	return t.Type == TokenTypeEOF
}
