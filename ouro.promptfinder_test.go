package ouro

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseAndEnsure(t *testing.T, markup string) []Element {
	t.Helper()
	elements, err := ParseElements(markup)
	require.NoError(t, err)
	elements, err = EnsurePrompt(elements)
	require.NoError(t, err)
	return elements
}

func TestEnsurePrompt_GraftsFirstLine(t *testing.T) {
	elements := parseAndEnsure(t, "<Text>This line should become the prompt.\nThis line will remain in the text element.</Text>")

	require.Len(t, elements, 2)
	assert.Equal(t, ElementKindPrompt, elements[0].Kind())
	assert.Equal(t, "This line should become the prompt.", elements[0].Base().Content)
	assert.Equal(t, ElementKindText, elements[1].Kind())
	assert.Equal(t, "This line will remain in the text element.", elements[1].Base().Content)
}

func TestEnsurePrompt_SkipsLeadingBlankLines(t *testing.T) {
	elements := parseAndEnsure(t, "<Text>\n   \n\t\n  This line should become the prompt.  \n  \nThis line will remain in the text element.</Text>")

	require.Len(t, elements, 2)
	assert.Equal(t, "This line should become the prompt.", elements[0].Base().Content)
	assert.Equal(t, "  \nThis line will remain in the text element.", elements[1].Base().Content)
}

func TestEnsurePrompt_LineEndings(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		prompt   string
		residual string
	}{
		{"lf", "\n  \nFirst line\n\nRest\n", "First line", "\nRest\n"},
		{"crlf", "\r\n  \r\nFirst line\r\n\r\nRest\r\n", "First line", "\r\nRest\r\n"},
		{"crlf single line", "\r\nOnly\r\n", "Only", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := EnsurePrompt([]Element{NewTextElement(tt.content)})
			require.NoError(t, err)

			assert.Equal(t, ElementKindPrompt, out[0].Kind())
			assert.Equal(t, tt.prompt, out[0].Base().Content)
			if tt.residual == "" {
				require.Len(t, out, 1)
				return
			}
			require.Len(t, out, 2)
			assert.Equal(t, tt.residual, out[1].Base().Content)
		})
	}
}

func TestEnsurePrompt_SingleLineDropsText(t *testing.T) {
	elements := parseAndEnsure(t, "<Text>\n  Only line.  \n\n</Text>")

	require.Len(t, elements, 1)
	assert.Equal(t, ElementKindPrompt, elements[0].Kind())
	assert.Equal(t, "Only line.", elements[0].Base().Content)
}

func TestEnsurePrompt_KeepsFollowingElements(t *testing.T) {
	elements := parseAndEnsure(t, "<Text>Prompt line\nrest</Text><Resolve prompt=\"X\">t</Resolve><Text>after</Text>")

	require.Len(t, elements, 4)
	assert.Equal(t, ElementKindPrompt, elements[0].Kind())
	assert.Equal(t, "rest", elements[1].Base().Content)
	assert.Equal(t, ElementKindResolve, elements[2].Kind())
	assert.Equal(t, "after", elements[3].Base().Content)
}

func TestEnsurePrompt_ResidualKeepsID(t *testing.T) {
	elements := parseAndEnsure(t, `<Text id="intro">Prompt line
rest</Text>`)

	require.Len(t, elements, 2)
	assert.Equal(t, "intro", elements[1].Base().ID)
}

func TestEnsurePrompt_ExistingPromptIsNoop(t *testing.T) {
	in := []Element{NewTextElement("first\nsecond"), NewPromptElement("p")}

	out, err := EnsurePrompt(in)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Same(t, in[0], out[0])
	assert.Same(t, in[1], out[1])
}

func TestEnsurePrompt_Idempotent(t *testing.T) {
	once := parseAndEnsure(t, "<Text>Line one\n\nLine two</Text><Text>more</Text>")

	twice, err := EnsurePrompt(once)
	require.NoError(t, err)
	require.Len(t, twice, len(once))
	for i := range once {
		assert.Same(t, once[i], twice[i])
	}
	assert.Equal(t, RenderElements(once), RenderElements(twice))
}

func TestEnsurePrompt_DoesNotMutateInput(t *testing.T) {
	lead := NewTextElement("Prompt\nrest")
	in := []Element{lead}

	_, err := EnsurePrompt(in)
	require.NoError(t, err)
	assert.Equal(t, "Prompt\nrest", lead.Content)
	assert.Len(t, in, 1)
}

func TestEnsurePrompt_Errors(t *testing.T) {
	tests := []struct {
		name     string
		elements []Element
		reason   string
	}{
		{"empty document", nil, ErrMsgEmptyDocument},
		{"leading resolve", []Element{NewResolveElement("", "x"), NewTextElement("a")}, ErrMsgLeadingNotText},
		{"all lines blank", []Element{NewTextElement(" \n\t\n ")}, ErrMsgAllLinesBlank},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := EnsurePrompt(tt.elements)
			require.Error(t, err)
			assert.Nil(t, out)
			assert.True(t, errors.Is(err, ErrNoPromptCandidate))
			assertMetadata(t, err, MetaKeyReason, tt.reason)
		})
	}
}
