package ouro

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/itsatony/go-cuserr"
	"github.com/novidanca/go-ouro/internal"
)

// Error message constants - ALL error messages must be constants (NO MAGIC STRINGS)
const (
	// Markup errors
	ErrMsgMalformedMarkup = "malformed markup"
	ErrMsgDuplicatePrompt = "document contains more than one Prompt element"

	// Prompt finder errors
	ErrMsgNoPromptCandidate = "no prompt candidate"
	ErrMsgEmptyDocument     = "document has no elements"
	ErrMsgLeadingNotText    = "first element is not a Text element"
	ErrMsgAllLinesBlank     = "leading Text element has no non-blank line"
	ErrMsgNoPromptToReplace = "sub-fragment has no Prompt element to replace"

	// Resolution errors
	ErrMsgResolveTargetMissing  = "resolve element is not part of the document"
	ErrMsgResolveTargetResolved = "resolve element is already resolved"
	ErrMsgNoCompletionService   = "no completion service configured"
	ErrMsgTokenBudgetExceeded   = "document exceeds token budget"

	// Completion errors
	ErrMsgCompletionFailed    = "completion request failed"
	ErrMsgCompletionStatus    = "completion service returned an error status"
	ErrMsgCompletionNoChoices = "completion response has no choices"

	// Hook errors
	ErrMsgHookFailed = "hook rejected the step"

	// Frontmatter errors
	ErrMsgFrontmatterUnclosed = "frontmatter is not closed"
	ErrMsgFrontmatterTooLarge = "frontmatter exceeds maximum size"
	ErrMsgFrontmatterParse    = "failed to parse frontmatter YAML"
	ErrMsgReadDocument        = "failed to read document"
)

// Hook error formats
const (
	FmtHookError        = "%s at %s: %v"
	FmtHookErrorElement = "%s at %s (element %q): %v"
)

// Error code constants for categorization
const (
	ErrCodeMarkup      = "OURO_MARKUP"
	ErrCodePrompt      = "OURO_PROMPT"
	ErrCodeResolve     = "OURO_RESOLVE"
	ErrCodeCompletion  = "OURO_COMPLETION"
	ErrCodeFrontmatter = "OURO_FRONTMATTER"
	ErrCodeStorage     = "OURO_STORAGE"
)

// Metadata key constants
const (
	MetaKeyLine      = "line"
	MetaKeyColumn    = "column"
	MetaKeyOffset    = "offset"
	MetaKeyTag       = "tag"
	MetaKeyAttribute = "attribute"
	MetaKeyExpected  = "expected"
	MetaKeyActual    = "actual"
	MetaKeyReason    = "reason"
	MetaKeyIndex     = "index"
	MetaKeyElementID = "element_id"
	MetaKeyProvider  = "provider"
	MetaKeyStatus    = "status"
	MetaKeyBody      = "body"
	MetaKeyEstimated = "estimated_tokens"
	MetaKeyAvailable = "available_tokens"
	MetaKeyPath      = "path"
)

// Sentinel errors. Every error built by this package wraps one of these,
// so callers classify failures with errors.Is.
var (
	ErrMalformedMarkup   = errors.New(ErrMsgMalformedMarkup)
	ErrNoPromptCandidate = errors.New(ErrMsgNoPromptCandidate)
	ErrCompletion        = errors.New(ErrMsgCompletionFailed)
	ErrResolve           = errors.New(ErrMsgResolveTargetMissing)
	ErrFrontmatter       = errors.New(ErrMsgFrontmatterParse)
)

// Position represents a location in the markup source
type Position struct {
	Offset int // Byte offset from start
	Line   int // 1-indexed line number
	Column int // 1-indexed column number
}

// String returns a human-readable position string
func (p Position) String() string {
	return fmt.Sprintf("line %d, column %d", p.Line, p.Column)
}

func withSentinel(sentinel, cause error) error {
	if cause == nil {
		return sentinel
	}
	return fmt.Errorf("%w: %w", sentinel, cause)
}

// classified wraps cause once under msg; errors.Is matches sentinel.
func classified(sentinel error, code, msg string, cause error) *cuserr.CustomError {
	err := cuserr.WrapStdError(cause, code, msg)
	err.Sentinel = sentinel
	return err
}

// NewMalformedMarkupError wraps a lexer/parser failure. Position and tag
// details of the underlying markup error are copied into metadata.
func NewMalformedMarkupError(cause error) error {
	if cause == nil {
		cause = ErrMalformedMarkup
	}
	err := classified(ErrMalformedMarkup, ErrCodeMarkup, ErrMsgMalformedMarkup, cause)

	var markupErr *internal.MarkupError
	if errors.As(cause, &markupErr) {
		err = err.
			WithMetadata(MetaKeyReason, markupErr.Message).
			WithMetadata(MetaKeyLine, strconv.Itoa(markupErr.Position.Line)).
			WithMetadata(MetaKeyColumn, strconv.Itoa(markupErr.Position.Column)).
			WithMetadata(MetaKeyOffset, strconv.Itoa(markupErr.Position.Offset))
		if markupErr.Tag != "" {
			err = err.WithMetadata(MetaKeyTag, markupErr.Tag)
		}
		if markupErr.Attr != "" {
			err = err.WithMetadata(MetaKeyAttribute, markupErr.Attr)
		}
		if markupErr.Actual != "" {
			err = err.
				WithMetadata(MetaKeyExpected, markupErr.Expected).
				WithMetadata(MetaKeyActual, markupErr.Actual)
		}
	}
	return err
}

// NewDuplicatePromptError reports a second <Prompt> region in one document
func NewDuplicatePromptError(pos Position) error {
	return NewMalformedMarkupError(&internal.MarkupError{
		Message: ErrMsgDuplicatePrompt,
		Tag:     internal.TagNamePrompt,
		Position: internal.Position{
			Offset: pos.Offset,
			Line:   pos.Line,
			Column: pos.Column,
		},
	})
}

// NewNoPromptCandidateError creates an error for documents from which no
// prompt can be found or grafted
func NewNoPromptCandidateError(reason string) error {
	return classified(ErrNoPromptCandidate, ErrCodePrompt, ErrMsgNoPromptCandidate, errors.New(reason)).
		WithMetadata(MetaKeyReason, reason)
}

// NewResolveTargetMissingError creates an error for a resolve element that
// is not present (by identity) in the source document
func NewResolveTargetMissingError(elementID string) error {
	return cuserr.WrapStdError(ErrResolve, ErrCodeResolve, ErrMsgResolveTargetMissing).
		WithMetadata(MetaKeyElementID, elementID)
}

// NewResolveTargetResolvedError creates an error for a resolve element that
// has already left the Unresolved state
func NewResolveTargetResolvedError(elementID string, index int) error {
	return cuserr.WrapStdError(withSentinel(ErrResolve, errors.New(ErrMsgResolveTargetResolved)), ErrCodeResolve, ErrMsgResolveTargetResolved).
		WithMetadata(MetaKeyElementID, elementID).
		WithMetadata(MetaKeyIndex, strconv.Itoa(index))
}

// NewNoCompletionServiceError creates an error for a missing completion service
func NewNoCompletionServiceError() error {
	return cuserr.NewValidationError(ErrCodeCompletion, ErrMsgNoCompletionService)
}

// NewCompletionError wraps a transport or service failure of a completion provider
func NewCompletionError(provider string, cause error) error {
	return cuserr.WrapStdError(withSentinel(ErrCompletion, cause), ErrCodeCompletion, ErrMsgCompletionFailed).
		WithMetadata(MetaKeyProvider, provider)
}

// NewCompletionStatusError creates an error for a non-2xx completion response
func NewCompletionStatusError(provider string, status int, body string) error {
	return cuserr.WrapStdError(withSentinel(ErrCompletion, errors.New(ErrMsgCompletionStatus)), ErrCodeCompletion, ErrMsgCompletionStatus).
		WithMetadata(MetaKeyProvider, provider).
		WithMetadata(MetaKeyStatus, strconv.Itoa(status)).
		WithMetadata(MetaKeyBody, body)
}

// NewTokenBudgetExceededError creates an error for a submission that would
// not fit the configured token budget
func NewTokenBudgetExceededError(estimated, available int) error {
	return cuserr.NewValidationError(ErrCodeResolve, ErrMsgTokenBudgetExceeded).
		WithMetadata(MetaKeyEstimated, strconv.Itoa(estimated)).
		WithMetadata(MetaKeyAvailable, strconv.Itoa(available))
}

// NewFrontmatterError creates a frontmatter extraction or decoding error
func NewFrontmatterError(msg string, cause error) error {
	return cuserr.WrapStdError(withSentinel(ErrFrontmatter, cause), ErrCodeFrontmatter, msg)
}

// NewReadDocumentError creates an error for unreadable markup files
func NewReadDocumentError(path string, cause error) error {
	return cuserr.WrapStdError(cause, ErrCodeResolve, ErrMsgReadDocument).
		WithMetadata(MetaKeyPath, path)
}
