package ouro

import (
	"fmt"
	"strings"
)

// ElementKind discriminates the element types of a document
type ElementKind string

// Element kinds. The values double as the markup tag names.
const (
	ElementKindText    ElementKind = "Text"
	ElementKindPrompt  ElementKind = "Prompt"
	ElementKindResolve ElementKind = "Resolve"
)

// ResolveState tracks a ResolveElement through resolution.
// Unresolved -> Resolving -> Resolved; Resolved is terminal.
type ResolveState int

const (
	ResolveStateUnresolved ResolveState = iota
	ResolveStateResolving
	ResolveStateResolved
)

// String returns the state name
func (s ResolveState) String() string {
	switch s {
	case ResolveStateResolving:
		return ResolveStateNameResolving
	case ResolveStateResolved:
		return ResolveStateNameResolved
	default:
		return ResolveStateNameUnresolved
	}
}

// Element is one node of a document's linear structure.
type Element interface {
	// Kind returns the element discriminator
	Kind() ElementKind
	// Base returns the shared id/content/generated fields
	Base() *ElementBase
	// Render returns the element's contribution to the serialized document
	Render() string
	// Clone returns a structural copy sharing no mutable state
	Clone() Element
}

// ElementBase holds the fields every element carries.
// Content is never nil by construction; the zero value is "".
type ElementBase struct {
	ID          string
	Content     string
	IsGenerated bool
}

// Base returns the element base itself
func (b *ElementBase) Base() *ElementBase { return b }

// TextElement is plain narrative text
type TextElement struct {
	ElementBase
}

// NewTextElement creates a text element with the given content
func NewTextElement(content string) *TextElement {
	return &TextElement{ElementBase: ElementBase{Content: content}}
}

// NewGeneratedTextElement creates a text element produced by a completion call
func NewGeneratedTextElement(id, content string) *TextElement {
	return &TextElement{ElementBase: ElementBase{ID: id, Content: content, IsGenerated: true}}
}

func (e *TextElement) Kind() ElementKind { return ElementKindText }
func (e *TextElement) Render() string    { return e.Content }

func (e *TextElement) Clone() Element {
	c := *e
	return &c
}

func (e *TextElement) String() string {
	return fmt.Sprintf("Text{%q}", e.Content)
}

// PromptElement is the primary instruction sent to the completion service
type PromptElement struct {
	ElementBase
}

// NewPromptElement creates a prompt element with the given content
func NewPromptElement(content string) *PromptElement {
	return &PromptElement{ElementBase: ElementBase{Content: content}}
}

func (e *PromptElement) Kind() ElementKind { return ElementKindPrompt }

// Render emits the prompt followed by a line break, so the prompt stays on
// its own line ahead of the text it was grafted from.
func (e *PromptElement) Render() string {
	if e.Content == "" || strings.HasSuffix(e.Content, LineFeed) {
		return e.Content
	}
	return e.Content + LineFeed
}

func (e *PromptElement) Clone() Element {
	c := *e
	return &c
}

func (e *PromptElement) String() string {
	return fmt.Sprintf("Prompt{%q}", e.Content)
}

// ResolveElement is an embedded sub-prompt directive. Content holds the tag
// body, which is appended as trailing text to the sub-document.
type ResolveElement struct {
	ElementBase
	// OverridePrompt replaces the inherited prompt when non-empty
	OverridePrompt  string
	State           ResolveState
	GeneratedOutput string
}

// NewResolveElement creates an unresolved directive
func NewResolveElement(overridePrompt, trailingText string) *ResolveElement {
	return &ResolveElement{
		ElementBase:    ElementBase{Content: trailingText},
		OverridePrompt: overridePrompt,
	}
}

func (e *ResolveElement) Kind() ElementKind { return ElementKindResolve }

// TrailingText returns the literal text appended after resolution
func (e *ResolveElement) TrailingText() string { return e.Content }

// HasOverridePrompt reports whether the directive replaces the prompt
func (e *ResolveElement) HasOverridePrompt() bool { return e.OverridePrompt != "" }

// IsResolved reports whether the directive reached its terminal state
func (e *ResolveElement) IsResolved() bool { return e.State == ResolveStateResolved }

// Render emits the generated output once resolved and nothing before that
func (e *ResolveElement) Render() string {
	if e.State != ResolveStateResolved {
		return ""
	}
	return e.GeneratedOutput
}

func (e *ResolveElement) Clone() Element {
	c := *e
	return &c
}

func (e *ResolveElement) String() string {
	return fmt.Sprintf("Resolve{prompt=%q, trailing=%q, state=%s}", e.OverridePrompt, e.Content, e.State)
}

// CloneElements returns a structural copy of elements. Positions are
// preserved so index i of the copy corresponds to index i of the source.
func CloneElements(elements []Element) []Element {
	out := make([]Element, len(elements))
	for i, el := range elements {
		out[i] = el.Clone()
	}
	return out
}

// RenderElements concatenates every element's rendered contribution
func RenderElements(elements []Element) string {
	var sb strings.Builder
	for _, el := range elements {
		sb.WriteString(el.Render())
	}
	return sb.String()
}

// FindPrompt returns the index of the first PromptElement, or -1
func FindPrompt(elements []Element) int {
	for i, el := range elements {
		if el.Kind() == ElementKindPrompt {
			return i
		}
	}
	return -1
}
