// Package typo detects look-alike domains of trusted brands.
package typo

import (
	"strings"
	"unicode/utf8"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

const (
	// maxLengthDelta bounds false positives: longer edits are never typos
	maxLengthDelta = 2
	// similarityThreshold is the normalized similarity above which a domain is a typo
	similarityThreshold = 0.90
)

// leetspeak maps a letter to the digit used to fake it. The order is fixed.
var leetspeak = []struct {
	letter string
	digit  string
}{
	{"o", "0"},
	{"l", "1"},
	{"i", "1"},
	{"e", "3"},
	{"a", "4"},
	{"s", "5"},
	{"b", "6"},
	{"t", "7"},
	{"g", "9"},
}

// Detector compares candidate domains against legitimate ones
type Detector struct {
	threshold float64
}

// NewDetector creates a typo detector with the default threshold
func NewDetector() *Detector {
	return &Detector{threshold: similarityThreshold}
}

// IsTypo reports whether candidate looks like a typo of legitimate
func (d *Detector) IsTypo(candidate, legitimate string) bool {
	if candidate == legitimate {
		return false
	}

	delta := utf8.RuneCountInString(candidate) - utf8.RuneCountInString(legitimate)
	if delta > maxLengthDelta || delta < -maxLengthDelta {
		return false
	}

	if Similarity(candidate, legitimate) > d.threshold {
		return true
	}

	for _, sub := range leetspeak {
		if strings.ReplaceAll(legitimate, sub.letter, sub.digit) == candidate {
			return true
		}
		if strings.ReplaceAll(candidate, sub.digit, sub.letter) == legitimate {
			return true
		}
	}

	return false
}

// MatchAny returns the first legitimate domain candidate is a typo of
func (d *Detector) MatchAny(candidate string, legitimates []string) (string, bool) {
	for _, legit := range legitimates {
		if d.IsTypo(candidate, legit) {
			return legit, true
		}
	}
	return "", false
}

// Similarity is the edit-distance similarity of a and b in [0,1]
func Similarity(a, b string) float64 {
	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(fuzzy.LevenshteinDistance(a, b))/float64(maxLen)
}
