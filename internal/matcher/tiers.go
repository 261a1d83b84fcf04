package matcher

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/yourusername/race-reconciler/internal/normalize"
)

const (
	minContainmentRatio   = 0.7
	minSimplifiedOverlap  = 3
	minOverlapTokenLength = 2
	minOverlapTokens      = 2
	minFuzzyThreshold     = 2
	fuzzyRatio            = 0.3
	longNameFuzzyRatio    = 0.4
	longNameLength        = 10
)

// VariantTier accepts the first candidate sharing any name variant with the query
type VariantTier struct{}

func (VariantTier) Name() string { return "variant" }

func (VariantTier) Match(s Subject, candidates []Candidate) (int, bool) {
	return first(candidates, func(c Candidate) bool {
		return s.Variants.Intersects(c.Variants)
	})
}

// CleanTier compares names with a trailing country code removed
type CleanTier struct{}

func (CleanTier) Name() string { return "clean" }

func (CleanTier) Match(s Subject, candidates []Candidate) (int, bool) {
	return first(candidates, func(c Candidate) bool {
		return c.Clean != "" && c.Clean == s.Clean
	})
}

// SimplifiedTier compares alphanumeric-only keys
type SimplifiedTier struct{}

func (SimplifiedTier) Name() string { return "simplified" }

func (SimplifiedTier) Match(s Subject, candidates []Candidate) (int, bool) {
	if s.Simplified == "" {
		return 0, false
	}
	return first(candidates, func(c Candidate) bool {
		return c.Simplified == s.Simplified
	})
}

// TheToggleTier matches names differing only by a leading "the"
type TheToggleTier struct{}

func (TheToggleTier) Name() string { return "the_toggle" }

func (TheToggleTier) Match(s Subject, candidates []Candidate) (int, bool) {
	toggled := normalize.ToggleThe(s.Clean)
	return first(candidates, func(c Candidate) bool {
		return c.Clean != "" && (c.Clean == toggled || normalize.ToggleThe(c.Clean) == s.Clean)
	})
}

// ParentheticalTier compares names with every parenthetical removed
type ParentheticalTier struct{}

func (ParentheticalTier) Name() string { return "parenthetical" }

func (ParentheticalTier) Match(s Subject, candidates []Candidate) (int, bool) {
	q := normalize.StripParentheticals(s.Raw)
	if q == "" {
		return 0, false
	}
	return first(candidates, func(c Candidate) bool {
		return normalize.StripParentheticals(c.Raw) == q
	})
}

// SubstringTier accepts containment in either direction when the lengths are close,
// or when the shorter simplified key is long enough to be distinctive
type SubstringTier struct{}

func (SubstringTier) Name() string { return "substring" }

func (SubstringTier) Match(s Subject, candidates []Candidate) (int, bool) {
	return first(candidates, func(c Candidate) bool {
		if containsEither(s.Clean, c.Clean) && lengthRatio(s.Clean, c.Clean) > minContainmentRatio {
			return true
		}
		if !containsEither(s.Simplified, c.Simplified) {
			return false
		}
		shorter := utf8.RuneCountInString(s.Simplified)
		if n := utf8.RuneCountInString(c.Simplified); n < shorter {
			shorter = n
		}
		return shorter > minSimplifiedOverlap
	})
}

// WordOverlapTier picks the candidate sharing the most query words
type WordOverlapTier struct{}

func (WordOverlapTier) Name() string { return "word_overlap" }

func (WordOverlapTier) Match(s Subject, candidates []Candidate) (int, bool) {
	tokens := overlapTokens(s.Clean)
	if len(tokens) < minOverlapTokens {
		return 0, false
	}
	required := int(math.Ceil(float64(len(tokens)) / 2))

	best, bestCount := -1, 0
	for i, c := range candidates {
		words := make(map[string]struct{})
		for _, w := range normalize.Tokens(c.Clean) {
			words[w] = struct{}{}
		}
		count := 0
		for _, t := range tokens {
			if _, ok := words[t]; ok {
				count++
			}
		}
		if count > bestCount {
			best, bestCount = i, count
		}
	}

	if best < 0 || bestCount < required {
		return 0, false
	}
	return best, true
}

// FuzzyTier accepts the uniquely closest candidate by edit distance, retrying on first
// words when full names are too far apart
type FuzzyTier struct{}

func (FuzzyTier) Name() string { return "fuzzy" }

func (FuzzyTier) Match(s Subject, candidates []Candidate) (int, bool) {
	if i, ok := closest(s.Clean, candidates, func(c Candidate) string { return c.Clean }); ok {
		return i, true
	}

	q := firstToken(s.Clean)
	if q == "" {
		return 0, false
	}
	return closest(q, candidates, func(c Candidate) string { return firstToken(c.Clean) })
}

// CorroborationTier uses jockey and trainer text to pick a single candidate
type CorroborationTier struct{}

func (CorroborationTier) Name() string { return "corroboration" }

func (CorroborationTier) Match(s Subject, candidates []Candidate) (int, bool) {
	jockey := normalize.Simplify(s.Jockey)
	trainer := normalize.Simplify(s.Trainer)
	if jockey == "" || trainer == "" {
		return 0, false
	}

	found := -1
	for i, c := range candidates {
		if !containsEither(jockey, normalize.Simplify(c.Runner.Jockey)) ||
			!containsEither(trainer, normalize.Simplify(c.Runner.Trainer)) {
			continue
		}
		if found >= 0 {
			return 0, false
		}
		found = i
	}

	return found, found >= 0
}

func first(candidates []Candidate, accept func(Candidate) bool) (int, bool) {
	for i, c := range candidates {
		if accept(c) {
			return i, true
		}
	}
	return 0, false
}

// closest returns the candidate strictly nearer to q than every other, if within threshold
func closest(q string, candidates []Candidate, key func(Candidate) string) (int, bool) {
	best, bestDistance, tied := -1, 0, false
	for i, c := range candidates {
		k := key(c)
		if k == "" {
			continue
		}
		d := levenshtein.ComputeDistance(q, k)
		switch {
		case best < 0 || d < bestDistance:
			best, bestDistance, tied = i, d, false
		case d == bestDistance:
			tied = true
		}
	}

	if best < 0 || tied || bestDistance >= FuzzyThreshold(q) {
		return 0, false
	}
	return best, true
}

// FuzzyThreshold is the exclusive edit distance bound for a name of this length
func FuzzyThreshold(name string) int {
	n := utf8.RuneCountInString(name)
	ratio := fuzzyRatio
	if n > longNameLength {
		ratio = longNameFuzzyRatio
	}
	threshold := int(float64(n) * ratio)
	if threshold < minFuzzyThreshold {
		threshold = minFuzzyThreshold
	}
	return threshold
}

func overlapTokens(name string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, t := range normalize.Tokens(name) {
		if utf8.RuneCountInString(t) <= minOverlapTokenLength {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func firstToken(name string) string {
	tokens := normalize.Tokens(name)
	if len(tokens) == 0 {
		return ""
	}
	return tokens[0]
}

func containsEither(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func lengthRatio(a, b string) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if la == 0 || lb == 0 {
		return 0
	}
	if la > lb {
		la, lb = lb, la
	}
	return float64(la) / float64(lb)
}
