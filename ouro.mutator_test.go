package ouro

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDocument(t *testing.T, markup string) *Fragment {
	t.Helper()
	doc, err := NewDocument(markup, nil)
	require.NoError(t, err)
	return doc
}

func resolveAt(t *testing.T, f *Fragment, index int) *ResolveElement {
	t.Helper()
	r, ok := f.Elements()[index].(*ResolveElement)
	require.True(t, ok, "element %d is not a Resolve element", index)
	return r
}

func TestBuildSubFragment_OverrideAndTrailing(t *testing.T) {
	doc := newTestDocument(t, `<Prompt>P</Prompt><Text>T</Text><Resolve prompt="X">trailing</Resolve><Text>after</Text>`)

	child, err := BuildSubFragment(doc, resolveAt(t, doc, 2))
	require.NoError(t, err)

	elements := child.Elements()
	require.Len(t, elements, 3)
	assert.Equal(t, ElementKindPrompt, elements[0].Kind())
	assert.Equal(t, "X", elements[0].Base().Content)
	assert.Equal(t, "T", elements[1].Base().Content)
	assert.Equal(t, ElementKindText, elements[2].Kind())
	assert.Equal(t, "trailing", elements[2].Base().Content)
	assert.Equal(t, 1, child.Depth())
}

func TestBuildSubFragment_NoOverrideKeepsPrompt(t *testing.T) {
	doc := newTestDocument(t, `<Prompt>P</Prompt><Text>T</Text><Resolve>more</Resolve>`)

	child, err := BuildSubFragment(doc, resolveAt(t, doc, 2))
	require.NoError(t, err)
	require.Len(t, child.Elements(), 3)
	assert.Equal(t, "P", child.Elements()[0].Base().Content)
}

func TestBuildSubFragment_BlankTrailingSkipped(t *testing.T) {
	doc := newTestDocument(t, "<Prompt>P</Prompt><Resolve prompt=\"X\">  \n </Resolve>")

	child, err := BuildSubFragment(doc, resolveAt(t, doc, 1))
	require.NoError(t, err)
	require.Len(t, child.Elements(), 1)
	assert.Equal(t, "X", child.Elements()[0].Base().Content)
}

func TestBuildSubFragment_Truncation(t *testing.T) {
	doc := newTestDocument(t, `<Prompt>P</Prompt><Text>a</Text><Text>b</Text><Resolve/><Text>c</Text><Resolve/><Text>d</Text>`)
	source := doc.Elements()

	for _, k := range []int{3, 5} {
		child, err := BuildSubFragment(doc, resolveAt(t, doc, k))
		require.NoError(t, err)
		got := child.Elements()
		require.Len(t, got, k)
		for i := 0; i < k; i++ {
			assert.Equal(t, source[i].Kind(), got[i].Kind())
			assert.Equal(t, source[i].Base().Content, got[i].Base().Content)
			assert.NotSame(t, source[i], got[i])
		}
	}
}

func TestBuildSubFragment_Isolation(t *testing.T) {
	doc := newTestDocument(t, `<Prompt>P</Prompt><Text>T</Text><Resolve/><Text>after</Text><Resolve prompt="Y"/>`)
	before := doc.String()
	second := resolveAt(t, doc, 4)

	child, err := BuildSubFragment(doc, second)
	require.NoError(t, err)

	for _, el := range child.Elements() {
		el.Base().Content = "mutated"
	}
	childResolve := child.Elements()[2].(*ResolveElement)
	childResolve.State = ResolveStateResolved
	childResolve.GeneratedOutput = "leak"
	child.elements = append(child.elements, NewTextElement("appended"))

	assert.Equal(t, before, doc.String())
	assert.Len(t, doc.Elements(), 5)
	assert.Equal(t, ResolveStateUnresolved, resolveAt(t, doc, 2).State)
	assert.Equal(t, "P", doc.Elements()[0].Base().Content)
}

func TestBuildSubFragment_InheritsCollaborators(t *testing.T) {
	svc := CompletionFunc(nil)
	hooks := NewHookRegistry()
	opts := &CompletionOptions{Model: "m"}

	doc, err := NewDocument(`<Prompt>P</Prompt><Resolve/>`, svc,
		WithFragmentHooks(hooks),
		WithFragmentCompletionOptions(opts),
		WithFragmentConcurrency(3))
	require.NoError(t, err)

	child, err := BuildSubFragment(doc, resolveAt(t, doc, 1))
	require.NoError(t, err)
	assert.Same(t, hooks, child.hooks)
	assert.Equal(t, "m", child.completionOpts.Model)
	assert.Equal(t, 3, child.concurrency)
}

func TestBuildSubFragment_OverrideWithoutPrompt(t *testing.T) {
	doc := NewFragment([]Element{NewTextElement("a"), NewResolveElement("X", "")}, nil)

	_, err := BuildSubFragment(doc, resolveAt(t, doc, 1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoPromptCandidate))
	assertMetadata(t, err, MetaKeyReason, ErrMsgNoPromptToReplace)
}

func TestBuildSubFragment_TargetErrors(t *testing.T) {
	doc := newTestDocument(t, `<Prompt>P</Prompt><Resolve id="r"/>`)

	foreign := NewResolveElement("", "")
	_, err := BuildSubFragment(doc, foreign)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrResolve))

	require.NotPanics(t, func() {
		_, err = BuildSubFragment(doc, nil)
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrResolve))
	assert.Contains(t, err.Error(), ErrMsgResolveTargetMissing)

	target := resolveAt(t, doc, 1)
	target.State = ResolveStateResolved
	_, err = BuildSubFragment(doc, target)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrResolve))
	assertMetadata(t, err, MetaKeyElementID, "r")
}

func TestBuildSubFragment_ScenarioFour(t *testing.T) {
	doc := newTestDocument(t, "<Text>Intro prompt\nSome context.</Text><Resolve prompt=\"X\">trailing</Resolve>")
	require.Len(t, doc.Elements(), 3)

	child, err := BuildSubFragment(doc, resolveAt(t, doc, 2))
	require.NoError(t, err)

	elements := child.Elements()
	require.Len(t, elements, 3)
	assert.Equal(t, "X", elements[0].Base().Content)
	assert.Equal(t, "Some context.", elements[1].Base().Content)
	assert.Equal(t, "trailing", elements[2].Base().Content)
}
