package ouro

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/itsatony/go-cuserr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseElements_Tags(t *testing.T) {
	elements, err := ParseElements(`<Prompt>Write a title.</Prompt><Text id="draft">The draft.</Text><Resolve prompt="Summarize:">the draft</Resolve>`)
	require.NoError(t, err)
	require.Len(t, elements, 3)

	p, ok := elements[0].(*PromptElement)
	require.True(t, ok)
	assert.Equal(t, "Write a title.", p.Content)

	txt, ok := elements[1].(*TextElement)
	require.True(t, ok)
	assert.Equal(t, "draft", txt.ID)
	assert.Equal(t, "The draft.", txt.Content)
	assert.False(t, txt.IsGenerated)

	r, ok := elements[2].(*ResolveElement)
	require.True(t, ok)
	assert.Equal(t, "Summarize:", r.OverridePrompt)
	assert.Equal(t, "the draft", r.TrailingText())
	assert.Equal(t, ResolveStateUnresolved, r.State)
}

func TestParseElements_UntaggedText(t *testing.T) {
	elements, err := ParseElements("Intro line\n<Resolve/>\n  \n<Text>tail</Text>")
	require.NoError(t, err)
	require.Len(t, elements, 3)

	assert.Equal(t, ElementKindText, elements[0].Kind())
	assert.Equal(t, "Intro line\n", elements[0].Base().Content)
	assert.Equal(t, ElementKindResolve, elements[1].Kind())
	assert.Equal(t, ElementKindText, elements[2].Kind())
	assert.Equal(t, "tail", elements[2].Base().Content)
}

func TestParseElements_SelfClosingResolve(t *testing.T) {
	elements, err := ParseElements(`<Prompt>p</Prompt><Resolve prompt='Q' />`)
	require.NoError(t, err)
	require.Len(t, elements, 2)

	r := elements[1].(*ResolveElement)
	assert.Equal(t, "Q", r.OverridePrompt)
	assert.Equal(t, "", r.TrailingText())
}

func TestParseElements_LiteralAngles(t *testing.T) {
	elements, err := ParseElements(`<Text>a < b and \<Tag> stays</Text>`)
	require.NoError(t, err)
	require.Len(t, elements, 1)
	assert.Equal(t, "a < b and <Tag> stays", elements[0].Base().Content)
}

func TestParseElements_Empty(t *testing.T) {
	elements, err := ParseElements("")
	require.NoError(t, err)
	assert.Empty(t, elements)

	elements, err = ParseElements("  \n\t ")
	require.NoError(t, err)
	assert.Empty(t, elements)
}

func TestParseElements_UnknownAttributeIgnored(t *testing.T) {
	elements, err := ParseElements(`<Text lang="en">hi</Text>`)
	require.NoError(t, err)
	require.Len(t, elements, 1)
	assert.Equal(t, "hi", elements[0].Base().Content)
}

func TestParseElements_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unclosed tag", "<Text>never closed"},
		{"mismatched close", "<Text>a</Prompt>"},
		{"unknown tag", "<Foo>x</Foo>"},
		{"stray close", "text</Text>"},
		{"nested tag", "<Text>a<Prompt>b</Prompt></Text>"},
		{"duplicate prompt", "<Prompt>a</Prompt><Prompt>b</Prompt>"},
		{"duplicate attribute", `<Resolve prompt="a" prompt="b"/>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			elements, err := ParseElements(tt.input)
			require.Error(t, err)
			assert.Nil(t, elements)
			assert.True(t, errors.Is(err, ErrMalformedMarkup))
		})
	}
}

func TestParseElements_MalformedMetadata(t *testing.T) {
	_, err := ParseElements("<Text>a</Prompt>")
	require.Error(t, err)

	var custom *cuserr.CustomError
	require.True(t, errors.As(err, &custom))

	line, ok := custom.GetMetadata(MetaKeyLine)
	assert.True(t, ok)
	assert.Equal(t, "1", line)

	actual, ok := custom.GetMetadata(MetaKeyActual)
	assert.True(t, ok)
	assert.Equal(t, "Prompt", actual)
}

func TestParseDocumentSource_Frontmatter(t *testing.T) {
	src := "---\nname: titles\ndescription: writes titles\ncompletion:\n  model: small\n  temperature: 0.2\n  max_tokens: 50\n  stop: [\"END\"]\n---\n<Prompt>Title:</Prompt>"

	doc, err := ParseDocumentSource([]byte(src))
	require.NoError(t, err)

	assert.Equal(t, "titles", doc.Meta.Name)
	assert.Equal(t, "writes titles", doc.Meta.Description)
	require.NotNil(t, doc.Meta.Completion)
	assert.Equal(t, "small", doc.Meta.Completion.Model)
	require.NotNil(t, doc.Meta.Completion.Temperature)
	assert.InDelta(t, 0.2, *doc.Meta.Completion.Temperature, 1e-9)
	assert.Equal(t, 50, doc.Meta.Completion.MaxTokens)
	assert.Equal(t, []string{"END"}, doc.Meta.Completion.Stop)

	assert.Equal(t, "<Prompt>Title:</Prompt>", doc.Body)
	require.Len(t, doc.Elements, 1)
	assert.Equal(t, ElementKindPrompt, doc.Elements[0].Kind())
}

func TestParseDocumentSource_NoFrontmatter(t *testing.T) {
	doc, err := ParseDocumentSource([]byte("<Text>plain</Text>"))
	require.NoError(t, err)
	assert.Equal(t, &DocumentMeta{}, doc.Meta)
	require.Len(t, doc.Elements, 1)
}

func TestParseDocumentSource_FrontmatterErrors(t *testing.T) {
	_, err := ParseDocumentSource([]byte("---\nname: x\n<Text>a</Text>"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFrontmatter))

	_, err = ParseDocumentSource([]byte("---\nname: [unclosed\n---\n<Text>a</Text>"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFrontmatter))
}

func TestParseDocumentFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.ouro")
	require.NoError(t, os.WriteFile(path, []byte("<Prompt>p</Prompt>"), 0o644))

	doc, err := ParseDocumentFile(path)
	require.NoError(t, err)
	require.Len(t, doc.Elements, 1)

	_, err = ParseDocumentFile(filepath.Join(dir, "missing.ouro"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestEscapeMarkup(t *testing.T) {
	raw := "if a<b then <Resolve> is literal"
	elements, err := ParseElements(EscapeMarkup(raw))
	require.NoError(t, err)
	require.Len(t, elements, 1)
	assert.Equal(t, raw, elements[0].Base().Content)
}
