// Package track resolves free-text track names to canonical course identifiers.
package track

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Tier identifies which resolution strategy produced a match
type Tier string

const (
	TierExact     Tier = "exact"
	TierStripped  Tier = "suffix_stripped"
	TierAlias     Tier = "alias"
	TierSubstring Tier = "substring"
	TierFuzzy     Tier = "fuzzy"
)

const (
	// minLooseKeyLength is the shortest reference key considered by the substring and fuzzy tiers
	minLooseKeyLength = 4
	maxFuzzyDistance  = 3
	fuzzyLengthRatio  = 0.3
)

var (
	surfaceSuffix = regexp.MustCompile(`\((aw|a\.w\.|all[ -]weather)\)`)
	countrySuffix = regexp.MustCompile(`\([a-z]{2,3}\)`)
	trailingWords = []string{"racecourse", "park", "races"}
)

// Resolution describes how a track name was resolved
type Resolution struct {
	CourseID string
	Key      string // matched reference key
	Tier     Tier
}

// Resolver maps track names to course ids using a read-only reference table
type Resolver struct {
	table    *ReferenceTable
	stripped map[string]string // suffix-stripped key -> first reference key producing it
}

// NewResolver creates a resolver over table
func NewResolver(table *ReferenceTable) *Resolver {
	if table == nil {
		table = NewReferenceTable(nil)
	}

	r := &Resolver{
		table:    table,
		stripped: make(map[string]string, table.Len()),
	}
	for _, key := range table.keys {
		s := StripSuffixes(key)
		if s == "" {
			continue
		}
		if _, exists := r.stripped[s]; !exists {
			r.stripped[s] = key
		}
	}

	return r
}

// Resolve returns the course id for trackName
func (r *Resolver) Resolve(trackName string) (string, bool) {
	res, ok := r.Match(trackName)
	if !ok {
		return "", false
	}
	return res.CourseID, true
}

// Match resolves trackName, evaluating tiers in order and returning the first hit
func (r *Resolver) Match(trackName string) (Resolution, bool) {
	lower := collapse(strings.ToLower(trackName))
	if lower == "" {
		return Resolution{}, false
	}

	if res, ok := r.exact(lower, TierExact); ok {
		return res, true
	}

	stripped := StripSuffixes(lower)
	if stripped != "" {
		if res, ok := r.exact(stripped, TierStripped); ok {
			return res, true
		}
		if key, ok := r.stripped[stripped]; ok {
			return r.resolution(key, TierStripped), true
		}
	}

	if res, ok := r.alias(lower, stripped); ok {
		return res, true
	}

	query := stripped
	if query == "" {
		query = lower
	}

	if res, ok := r.substring(query); ok {
		return res, true
	}

	return r.fuzzy(query)
}

func (r *Resolver) exact(key string, tier Tier) (Resolution, bool) {
	if _, ok := r.table.ids[key]; ok {
		return r.resolution(key, tier), true
	}
	return Resolution{}, false
}

func (r *Resolver) alias(candidates ...string) (Resolution, bool) {
	for _, c := range candidates {
		target, ok := aliases[c]
		if !ok {
			continue
		}
		if _, ok := r.table.ids[target]; ok {
			return r.resolution(target, TierAlias), true
		}
		if key, ok := r.stripped[StripSuffixes(target)]; ok {
			return r.resolution(key, TierAlias), true
		}
	}
	return Resolution{}, false
}

func (r *Resolver) substring(query string) (Resolution, bool) {
	for _, key := range r.table.keys {
		if utf8.RuneCountInString(key) < minLooseKeyLength {
			continue
		}
		if strings.Contains(key, query) || strings.Contains(query, key) {
			return r.resolution(key, TierSubstring), true
		}
	}
	return Resolution{}, false
}

func (r *Resolver) fuzzy(query string) (Resolution, bool) {
	threshold := int(float64(utf8.RuneCountInString(query)) * fuzzyLengthRatio)
	if threshold > maxFuzzyDistance {
		threshold = maxFuzzyDistance
	}

	bestKey := ""
	bestDistance := -1
	for _, key := range r.table.keys {
		if utf8.RuneCountInString(key) < minLooseKeyLength {
			continue
		}
		d := levenshtein.ComputeDistance(query, key)
		if bestDistance < 0 || d < bestDistance {
			bestKey, bestDistance = key, d
		}
	}

	if bestDistance < 0 || bestDistance >= threshold {
		return Resolution{}, false
	}
	return r.resolution(bestKey, TierFuzzy), true
}

func (r *Resolver) resolution(key string, tier Tier) Resolution {
	return Resolution{CourseID: r.table.ids[key], Key: key, Tier: tier}
}

// StripSuffixes lowercases name and removes surface markers, country-code
// parentheticals and trailing "Racecourse", "Park" or "Races"
func StripSuffixes(name string) string {
	s := strings.ToLower(name)
	s = surfaceSuffix.ReplaceAllString(s, " ")
	s = countrySuffix.ReplaceAllString(s, " ")
	s = collapse(s)

	for {
		trimmed := false
		for _, w := range trailingWords {
			if s == w {
				return ""
			}
			if strings.HasSuffix(s, " "+w) {
				s = strings.TrimSpace(strings.TrimSuffix(s, w))
				trimmed = true
			}
		}
		if !trimmed {
			return s
		}
	}
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
