package ouro

import "strings"

// EnsurePrompt guarantees the sequence carries a PromptElement.
//
// When none exists, the first non-blank line of the leading TextElement is
// grafted into a new PromptElement placed at index 0. The lines after it
// stay in the TextElement, which is dropped if nothing but whitespace
// remains. Callers must use the returned slice. Calling it again on its own
// output is a no-op.
func EnsurePrompt(elements []Element) ([]Element, error) {
	if FindPrompt(elements) >= 0 {
		return elements, nil
	}
	if len(elements) == 0 {
		return nil, NewNoPromptCandidateError(ErrMsgEmptyDocument)
	}

	lead, ok := elements[0].(*TextElement)
	if !ok {
		return nil, NewNoPromptCandidateError(ErrMsgLeadingNotText)
	}

	promptLine, residual, found := graftFirstLine(lead.Content)
	if !found {
		return nil, NewNoPromptCandidateError(ErrMsgAllLinesBlank)
	}

	rest := elements[1:]
	out := make([]Element, 0, len(elements)+1)
	out = append(out, NewPromptElement(promptLine))
	if strings.TrimSpace(residual) != "" {
		remaining := lead.Clone().(*TextElement)
		remaining.Content = residual
		out = append(out, remaining)
	}
	return append(out, rest...), nil
}

// graftFirstLine splits content at its first non-blank line. It returns the
// trimmed line and the untouched text after that line's separator.
func graftFirstLine(content string) (string, string, bool) {
	lines := strings.Split(content, LineFeed)
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		return trimmed, strings.Join(lines[i+1:], LineFeed), true
	}
	return "", "", false
}
