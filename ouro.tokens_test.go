package ouro

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		chars     int
		words     int
		lines     int
		estimated int
	}{
		{"empty", "", 0, 0, 0, 0},
		{"single word", "hello", 5, 1, 1, 2},
		{"two lines", "one two\nthree", 13, 3, 2, 4},
		{"spaces only", "   ", 3, 0, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			est := EstimateTokens(tt.text)
			assert.Equal(t, tt.chars, est.Characters)
			assert.Equal(t, tt.words, est.Words)
			assert.Equal(t, tt.lines, est.Lines)
			assert.Equal(t, tt.estimated, est.Estimated)
		})
	}
}

func TestEstimateTokens_NonASCII(t *testing.T) {
	text := strings.Repeat("日本語", 10)
	est := EstimateTokens(text)

	assert.Equal(t, 30, est.Characters)
	assert.InDelta(t, 1.0, est.NonASCIIRatio, 1e-9)
	assert.Equal(t, 15, est.Estimated)
}

func TestTokenBudget(t *testing.T) {
	budget := NewTokenBudget(100, 40)
	assert.Equal(t, 60, budget.AvailableForPrompt)

	small := &TokenEstimate{Estimated: 50}
	large := &TokenEstimate{Estimated: 75}

	assert.True(t, budget.FitsWithin(small))
	assert.False(t, budget.FitsWithin(large))
	assert.Equal(t, 10, budget.RemainingTokens(small))
	assert.Equal(t, 0, budget.RemainingTokens(large))
	assert.Equal(t, 0, budget.OverageTokens(small))
	assert.Equal(t, 15, budget.OverageTokens(large))
}

func TestTokenBudget_ReserveLargerThanWindow(t *testing.T) {
	assert.Equal(t, 0, NewTokenBudget(10, 50).AvailableForPrompt)
}

func TestTokenBudget_Check(t *testing.T) {
	var unbounded *TokenBudget
	assert.NoError(t, unbounded.check(strings.Repeat("x", 10000)))

	budget := NewTokenBudget(10, 0)
	assert.NoError(t, budget.check("short"))

	err := budget.check(strings.Repeat("x", 300))
	assert.Error(t, err)
	assertMetadata(t, err, MetaKeyEstimated, "100")
	assertMetadata(t, err, MetaKeyAvailable, "10")
}
