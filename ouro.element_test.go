package ouro

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveState_String(t *testing.T) {
	assert.Equal(t, ResolveStateNameUnresolved, ResolveStateUnresolved.String())
	assert.Equal(t, ResolveStateNameResolving, ResolveStateResolving.String())
	assert.Equal(t, ResolveStateNameResolved, ResolveStateResolved.String())
}

func TestElement_Kinds(t *testing.T) {
	assert.Equal(t, ElementKindText, NewTextElement("a").Kind())
	assert.Equal(t, ElementKindPrompt, NewPromptElement("a").Kind())
	assert.Equal(t, ElementKindResolve, NewResolveElement("", "a").Kind())
}

func TestTextElement_Render(t *testing.T) {
	assert.Equal(t, "hello", NewTextElement("hello").Render())
	assert.Equal(t, "", NewTextElement("").Render())

	gen := NewGeneratedTextElement("answer", "42")
	assert.True(t, gen.IsGenerated)
	assert.Equal(t, "answer", gen.ID)
	assert.Equal(t, "42", gen.Render())
}

func TestPromptElement_Render(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"adds line break", "Summarize this.", "Summarize this.\n"},
		{"keeps existing line break", "Summarize this.\n", "Summarize this.\n"},
		{"empty stays empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewPromptElement(tt.content).Render())
		})
	}
}

func TestResolveElement_RenderByState(t *testing.T) {
	el := NewResolveElement("X", "trailing")
	el.GeneratedOutput = "out"

	el.State = ResolveStateUnresolved
	assert.Equal(t, "", el.Render())

	el.State = ResolveStateResolving
	assert.Equal(t, "", el.Render())

	el.State = ResolveStateResolved
	assert.Equal(t, "out", el.Render())
	assert.True(t, el.IsResolved())
}

func TestResolveElement_Accessors(t *testing.T) {
	el := NewResolveElement("", "body")
	assert.False(t, el.HasOverridePrompt())
	assert.Equal(t, "body", el.TrailingText())

	el = NewResolveElement("override", "")
	assert.True(t, el.HasOverridePrompt())
	assert.Equal(t, "", el.TrailingText())
}

func TestCloneElements_NoSharedState(t *testing.T) {
	resolve := NewResolveElement("X", "t")
	src := []Element{NewPromptElement("p"), NewTextElement("a"), resolve}

	clone := CloneElements(src)
	require.Len(t, clone, 3)

	for i := range src {
		assert.NotSame(t, src[i], clone[i])
		assert.Equal(t, src[i].Kind(), clone[i].Kind())
	}

	clone[0].Base().Content = "changed"
	cr := clone[2].(*ResolveElement)
	cr.State = ResolveStateResolved
	cr.GeneratedOutput = "x"

	assert.Equal(t, "p", src[0].Base().Content)
	assert.Equal(t, ResolveStateUnresolved, resolve.State)
	assert.Equal(t, "", resolve.GeneratedOutput)
}

func TestRenderElements(t *testing.T) {
	resolved := NewResolveElement("", "")
	resolved.State = ResolveStateResolved
	resolved.GeneratedOutput = "[gen]"

	elements := []Element{
		NewPromptElement("Do it."),
		NewTextElement("before "),
		resolved,
		NewTextElement(" after"),
		NewResolveElement("", "pending"),
	}
	assert.Equal(t, "Do it.\nbefore [gen] after", RenderElements(elements))
}

func TestFindPrompt(t *testing.T) {
	assert.Equal(t, -1, FindPrompt(nil))
	assert.Equal(t, -1, FindPrompt([]Element{NewTextElement("a")}))
	assert.Equal(t, 1, FindPrompt([]Element{NewTextElement("a"), NewPromptElement("p")}))
}
