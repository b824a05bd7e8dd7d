// Package match scores a spoken utterance against catalog names and picks the
// best candidate.
//
// Two signals are computed per candidate and fused by maximum:
//
//  1. Lexical: unit-cost Levenshtein distance normalised by the candidate
//     length, (len(candidate) − distance) / len(candidate). The value is not
//     clamped; very poor matches go negative and sort below everything else.
//
//  2. Phonetic: both strings are Double Metaphone encoded token by token.
//     Encodings that agree on any primary/alternate pairing score exactly
//     1.0; otherwise the lexical formula is applied to the primary codes.
//
// Lexical distance catches spelling-adjacent mis-hearings ("labmda"), the
// phonetic signal catches homophones spelled differently ("nite"/"night").
package match

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/antzucaro/matchr"
)

// Signals is the breakdown of one spoken/candidate comparison.
type Signals struct {
	Lexical    float64
	Phonetic   float64
	Confidence float64
}

// Score compares spoken against candidate. A candidate that is empty after
// normalisation scores -Inf on every signal.
func Score(spoken, candidate string) Signals {
	spoken, candidate = Normalize(spoken), Normalize(candidate)
	if candidate == "" {
		inf := math.Inf(-1)
		return Signals{Lexical: inf, Phonetic: inf, Confidence: inf}
	}
	lex := lexical(spoken, candidate)
	ph := phonetic(spoken, candidate)
	return Signals{Lexical: lex, Phonetic: ph, Confidence: math.Max(lex, ph)}
}

// Lexical returns the normalised edit-distance similarity of spoken to
// candidate after normalisation.
func Lexical(spoken, candidate string) float64 {
	spoken, candidate = Normalize(spoken), Normalize(candidate)
	if candidate == "" {
		return math.Inf(-1)
	}
	return lexical(spoken, candidate)
}

// Phonetic returns the phonetic similarity of spoken to candidate after
// normalisation.
func Phonetic(spoken, candidate string) float64 {
	return phonetic(Normalize(spoken), Normalize(candidate))
}

func lexical(spoken, candidate string) float64 {
	n := utf8.RuneCountInString(candidate)
	if n == 0 {
		return math.Inf(-1)
	}
	d := matchr.Levenshtein(spoken, candidate)
	return float64(n-d) / float64(n)
}

func phonetic(spoken, candidate string) float64 {
	s, c := encode(spoken), encode(candidate)
	if c.primary == "" {
		return math.Inf(-1)
	}
	if s.equals(c) {
		return 1.0
	}
	return lexical(s.primary, c.primary)
}

// code is the Double Metaphone encoding of a whole phrase.
type code struct {
	primary   string
	alternate string
}

// encode concatenates per-token codes. Double Metaphone codes are capped at
// four characters, so encoding a phrase as one word would drop everything
// after its first few consonants.
func encode(s string) code {
	var p, a strings.Builder
	for _, tok := range strings.Fields(s) {
		tp, ta := matchr.DoubleMetaphone(tok)
		if ta == "" {
			ta = tp
		}
		p.WriteString(tp)
		a.WriteString(ta)
	}
	return code{primary: p.String(), alternate: a.String()}
}

// equals reports whether any non-empty code of x matches any non-empty code
// of y.
func (x code) equals(y code) bool {
	for _, l := range []string{x.primary, x.alternate} {
		if l == "" {
			continue
		}
		if l == y.primary || l == y.alternate {
			return true
		}
	}
	return false
}
