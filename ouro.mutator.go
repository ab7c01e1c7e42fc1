package ouro

import (
	"strings"

	"go.uber.org/zap"
)

// BuildSubFragment produces the isolated sub-document used to resolve target.
//
// The source elements are cloned and the target is re-bound in the copy by
// position. The copy is cut just before the target, its prompt is replaced
// by the target's override (if any) and the target's non-blank trailing
// text is appended. The returned fragment shares no element state with
// source and inherits its completion service, hooks and options at depth+1.
func BuildSubFragment(source *Fragment, target *ResolveElement) (*Fragment, error) {
	if target == nil {
		return nil, NewResolveTargetMissingError("")
	}
	index := source.indexOf(target)
	if index < 0 {
		return nil, NewResolveTargetMissingError(target.ID)
	}
	if target.IsResolved() {
		return nil, NewResolveTargetResolvedError(target.ID, index)
	}

	clone := CloneElements(source.elements)
	directive := clone[index].(*ResolveElement)

	// full slice expression so appending never writes into the clone's tail
	elements := clone[:index:index]

	if directive.HasOverridePrompt() {
		p := FindPrompt(elements)
		if p < 0 {
			return nil, NewNoPromptCandidateError(ErrMsgNoPromptToReplace)
		}
		elements[p].Base().Content = directive.OverridePrompt
	}

	if trailing := directive.TrailingText(); strings.TrimSpace(trailing) != "" {
		elements = append(elements, NewTextElement(trailing))
	}

	child := source.spawn(elements)
	source.logger.Debug(LogMsgSubFragmentBuilt,
		zap.Int(LogFieldIndex, index),
		zap.String(LogFieldElementID, target.ID),
		zap.Int(LogFieldElements, len(elements)))
	return child, nil
}
