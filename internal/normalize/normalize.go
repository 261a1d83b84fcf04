// Package normalize canonicalizes horse and track names into comparable keys.
//
// Every function is total: empty input produces an empty string or an empty set.
package normalize

import (
	"regexp"
	"strings"
)

var (
	// countryCodeSuffix matches one trailing parenthetical country code, e.g. "(IRE)" or "(GB)"
	countryCodeSuffix = regexp.MustCompile(`\s*\([a-z]{2,3}\)$`)
	parenthetical     = regexp.MustCompile(`\([^)]*\)`)
	nonAlnum          = regexp.MustCompile(`[^a-z0-9]+`)
	nonAlnumOrSpace   = regexp.MustCompile(`[^a-z0-9\s]+`)
)

const thePrefix = "the "

// VariantSet is a set of alternative spellings of one name
type VariantSet map[string]struct{}

// Intersects reports whether the two sets share at least one variant
func (v VariantSet) Intersects(other VariantSet) bool {
	small, large := v, other
	if len(small) > len(large) {
		small, large = large, small
	}
	for k := range small {
		if _, ok := large[k]; ok {
			return true
		}
	}
	return false
}

// Contains reports whether s is one of the variants
func (v VariantSet) Contains(s string) bool {
	_, ok := v[s]
	return ok
}

func (v VariantSet) add(s string) {
	if s != "" {
		v[s] = struct{}{}
	}
}

// Simplify lowercases name and strips every character outside [a-z0-9]
func Simplify(name string) string {
	return nonAlnum.ReplaceAllString(strings.ToLower(name), "")
}

// Clean lowercases and trims name, then strips one trailing 2-3 letter country code
func Clean(name string) string {
	s := strings.TrimSpace(strings.ToLower(name))
	return strings.TrimSpace(countryCodeSuffix.ReplaceAllString(s, ""))
}

// StripPunctuation removes punctuation from a lowercased name and collapses whitespace
func StripPunctuation(name string) string {
	s := nonAlnumOrSpace.ReplaceAllString(strings.ToLower(name), "")
	return collapseSpaces(s)
}

// StripWhitespace removes all whitespace from a lowercased name
func StripWhitespace(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "")
}

// StripParentheticals removes every parenthetical, not just a trailing country code
func StripParentheticals(name string) string {
	s := parenthetical.ReplaceAllString(strings.ToLower(name), " ")
	return collapseSpaces(s)
}

// RemoveThe drops a leading "the " if present
func RemoveThe(name string) string {
	s := collapseSpaces(strings.ToLower(name))
	if strings.HasPrefix(s, thePrefix) {
		return strings.TrimSpace(s[len(thePrefix):])
	}
	return s
}

// ToggleThe removes a leading "the " or adds one when absent
func ToggleThe(name string) string {
	s := collapseSpaces(strings.ToLower(name))
	if s == "" {
		return ""
	}
	if strings.HasPrefix(s, thePrefix) {
		return strings.TrimSpace(s[len(thePrefix):])
	}
	return thePrefix + s
}

// Tokens splits a name into lowercase alphanumeric words
func Tokens(name string) []string {
	return strings.Fields(nonAlnum.ReplaceAllString(strings.ToLower(name), " "))
}

// Variants returns the set of comparable spellings of name
func Variants(name string) VariantSet {
	set := make(VariantSet)
	clean := Clean(name)
	if clean == "" {
		return set
	}

	set.add(clean)
	set.add(Simplify(clean))
	set.add(StripPunctuation(clean))
	set.add(StripWhitespace(clean))

	withoutThe := RemoveThe(clean)
	set.add(withoutThe)
	set.add(Simplify(withoutThe))

	return set
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
