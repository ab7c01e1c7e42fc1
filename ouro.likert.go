package ouro

import "strings"

// LikertAgreement4 is a four-point agreement scale without a neutral option.
type LikertAgreement4 int

const (
	LikertNoMatch LikertAgreement4 = iota
	LikertStronglyDisagree
	LikertDisagree
	LikertAgree
	LikertStronglyAgree
)

// Likert response phrases
const (
	LikertPhraseStronglyDisagree = "strongly disagree"
	LikertPhraseDisagree         = "disagree"
	LikertPhraseAgree            = "agree"
	LikertPhraseStronglyAgree    = "strongly agree"
	LikertPhraseNoMatch          = "no match"
)

// ParseLikertAgreement4 maps a generated answer to the scale. Case and
// surrounding or repeated whitespace are ignored; anything else is
// LikertNoMatch.
func ParseLikertAgreement4(s string) LikertAgreement4 {
	normalized := strings.ToLower(strings.Join(strings.Fields(s), " "))
	switch normalized {
	case LikertPhraseStronglyDisagree:
		return LikertStronglyDisagree
	case LikertPhraseDisagree:
		return LikertDisagree
	case LikertPhraseAgree:
		return LikertAgree
	case LikertPhraseStronglyAgree:
		return LikertStronglyAgree
	default:
		return LikertNoMatch
	}
}

// String returns the response phrase
func (l LikertAgreement4) String() string {
	switch l {
	case LikertStronglyDisagree:
		return LikertPhraseStronglyDisagree
	case LikertDisagree:
		return LikertPhraseDisagree
	case LikertAgree:
		return LikertPhraseAgree
	case LikertStronglyAgree:
		return LikertPhraseStronglyAgree
	default:
		return LikertPhraseNoMatch
	}
}
