package ouro

import (
	"unicode"
	"unicode/utf8"
)

// TokenEstimate is a rough token count for a serialized document.
// Use it for budgeting before a submission, not as an exact value.
type TokenEstimate struct {
	// Characters is the rune count
	Characters int

	// Words is the whitespace-separated word count
	Words int

	// Lines is the line count
	Lines int

	// Estimated is the conservative token estimate used for budgeting
	Estimated int

	// NonASCIIRatio is the share of non-ASCII runes; non-English text
	// tokenizes into more tokens per character
	NonASCIIRatio float64
}

// Token estimation constants
const (
	// CharsPerToken is a conservative average for English text
	CharsPerToken = 3.0

	// CharsPerTokenNonEnglish applies when NonASCIIRatio exceeds NonASCIIThreshold
	CharsPerTokenNonEnglish = 2.0

	// NonASCIIThreshold switches to the non-English ratio
	NonASCIIThreshold = 0.3
)

// Common context window sizes
const (
	ContextGPT4o      = 128000
	ContextGPT4oMini  = 128000
	ContextGPT35      = 16385
	ContextClaude     = 200000
	ContextLlama3     = 8192
	DefaultContextMax = ContextGPT35
)

// EstimateTokens estimates the token count of text.
func EstimateTokens(text string) *TokenEstimate {
	if text == "" {
		return &TokenEstimate{}
	}

	chars := utf8.RuneCountInString(text)
	nonASCII := 0
	words := 0
	lines := 1
	inWord := false
	for _, r := range text {
		if r > unicode.MaxASCII {
			nonASCII++
		}
		if r == '\n' {
			lines++
		}
		if unicode.IsSpace(r) {
			if inWord {
				words++
			}
			inWord = false
			continue
		}
		inWord = true
	}
	if inWord {
		words++
	}

	ratio := float64(nonASCII) / float64(chars)
	perToken := CharsPerToken
	if ratio > NonASCIIThreshold {
		perToken = CharsPerTokenNonEnglish
	}

	return &TokenEstimate{
		Characters:    chars,
		Words:         words,
		Lines:         lines,
		Estimated:     int(float64(chars)/perToken + 0.5),
		NonASCIIRatio: ratio,
	}
}

// TokenBudget bounds the size of a document submitted for completion.
type TokenBudget struct {
	// MaxTokens is the model context window
	MaxTokens int

	// ReservedForResponse is kept free for the generated output
	ReservedForResponse int

	// AvailableForPrompt is what a submitted document may use
	AvailableForPrompt int
}

// NewTokenBudget creates a budget for a context window, reserving part of
// it for the response.
func NewTokenBudget(maxTokens, reservedForResponse int) *TokenBudget {
	available := maxTokens - reservedForResponse
	if available < 0 {
		available = 0
	}
	return &TokenBudget{
		MaxTokens:           maxTokens,
		ReservedForResponse: reservedForResponse,
		AvailableForPrompt:  available,
	}
}

// FitsWithin checks if the estimate fits the prompt allowance.
func (b *TokenBudget) FitsWithin(estimate *TokenEstimate) bool {
	return estimate.Estimated <= b.AvailableForPrompt
}

// RemainingTokens returns how many tokens remain after the estimate.
func (b *TokenBudget) RemainingTokens(estimate *TokenEstimate) int {
	remaining := b.AvailableForPrompt - estimate.Estimated
	if remaining < 0 {
		return 0
	}
	return remaining
}

// OverageTokens returns how many tokens over budget, or 0 if within budget.
func (b *TokenBudget) OverageTokens(estimate *TokenEstimate) int {
	overage := estimate.Estimated - b.AvailableForPrompt
	if overage < 0 {
		return 0
	}
	return overage
}

// check returns a budget error when text does not fit
func (b *TokenBudget) check(text string) error {
	if b == nil {
		return nil
	}
	estimate := EstimateTokens(text)
	if !b.FitsWithin(estimate) {
		return NewTokenBudgetExceededError(estimate.Estimated, b.AvailableForPrompt)
	}
	return nil
}
