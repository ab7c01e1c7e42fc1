package internal

import (
	"fmt"
	"maps"
	"slices"
)

// Node is a top-level region of a document: free text or one tag.
type Node interface {
	Type() NodeType
	Pos() Position
}

// RootNode holds the regions of a document in source order.
type RootNode struct {
	Children []Node
}

// TextNode is text outside any tag, with escapes already applied.
type TextNode struct {
	At      Position
	Content string
}

func NewTextNode(content string, pos Position) *TextNode {
	return &TextNode{At: pos, Content: content}
}

func (n *TextNode) Type() NodeType { return NodeTypeText }
func (n *TextNode) Pos() Position  { return n.At }

func (n *TextNode) String() string {
	return fmt.Sprintf("text %q @ %s", clip(n.Content), n.At)
}

// TagNode is <Name attrs>Body</Name> or <Name attrs/>. The body is raw
// text; tags never nest.
type TagNode struct {
	At         Position
	Name       string
	Attributes Attributes
	Body       string
	SelfClose  bool
}

func NewTagNode(name string, attrs Attributes, body string, selfClose bool, pos Position) *TagNode {
	if attrs == nil {
		attrs = Attributes{}
	}
	return &TagNode{At: pos, Name: name, Attributes: attrs, Body: body, SelfClose: selfClose}
}

func (n *TagNode) Type() NodeType { return NodeTypeTag }
func (n *TagNode) Pos() Position  { return n.At }

func (n *TagNode) String() string {
	return fmt.Sprintf("<%s %v> %q @ %s", n.Name, n.Attributes, clip(n.Body), n.At)
}

// Attributes maps attribute names to their unquoted values.
type Attributes map[string]string

func (a Attributes) Get(name string) (string, bool) {
	v, ok := a[name]
	return v, ok
}

func (a Attributes) Has(name string) bool {
	_, ok := a[name]
	return ok
}

// Keys returns the names sorted, for stable iteration.
func (a Attributes) Keys() []string {
	return slices.Sorted(maps.Keys(a))
}

func clip(s string) string {
	if len(s) <= MaxStringDisplayLength {
		return s
	}
	return s[:TruncatedStringLength] + TruncationSuffix
}
