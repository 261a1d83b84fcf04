// Package matcher resolves a bet's horse name to one of the runners reported for
// the same track and date.
package matcher

import (
	"github.com/yourusername/race-reconciler/internal/models"
	"github.com/yourusername/race-reconciler/internal/normalize"
)

// Query is the bet-side description of a selection
type Query struct {
	Name    string
	Jockey  string
	Trainer string
}

// Name holds the comparable forms of one horse name
type Name struct {
	Raw        string
	Clean      string
	Simplified string
	Variants   normalize.VariantSet
}

// NewName computes the comparable forms of raw
func NewName(raw string) Name {
	clean := normalize.Clean(raw)
	return Name{
		Raw:        raw,
		Clean:      clean,
		Simplified: normalize.Simplify(clean),
		Variants:   normalize.Variants(raw),
	}
}

// Subject is a prepared query
type Subject struct {
	Name
	Jockey  string
	Trainer string
}

// Candidate is a prepared runner
type Candidate struct {
	Name
	Runner *models.Runner
}

// Tier is one matching strategy. Match returns the index of the accepted candidate.
type Tier interface {
	Name() string
	Match(subject Subject, candidates []Candidate) (int, bool)
}

// Result is a successful match
type Result struct {
	Runner *models.Runner
	Tier   string
}

// Matcher evaluates its tiers in order and returns the first hit
type Matcher struct {
	tiers []Tier
}

// Option configures a Matcher
type Option func(*Matcher)

// WithTiers replaces the default tier list
func WithTiers(tiers ...Tier) Option {
	return func(m *Matcher) {
		m.tiers = tiers
	}
}

// New creates a matcher with the default tiers, most precise first
func New(opts ...Option) *Matcher {
	m := &Matcher{tiers: DefaultTiers()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// DefaultTiers returns the standard ordered tier list
func DefaultTiers() []Tier {
	return []Tier{
		VariantTier{},
		CleanTier{},
		SimplifiedTier{},
		TheToggleTier{},
		ParentheticalTier{},
		SubstringTier{},
		WordOverlapTier{},
		FuzzyTier{},
		CorroborationTier{},
	}
}

// Tiers returns the names of the configured tiers in evaluation order
func (m *Matcher) Tiers() []string {
	names := make([]string, len(m.tiers))
	for i, t := range m.tiers {
		names[i] = t.Name()
	}
	return names
}

// Match finds the runner for q among runners. The returned runner points into runners.
func (m *Matcher) Match(q Query, runners []models.Runner) (Result, bool) {
	if len(runners) == 0 {
		return Result{}, false
	}

	subject := Subject{Name: NewName(q.Name), Jockey: q.Jockey, Trainer: q.Trainer}
	if subject.Clean == "" {
		return Result{}, false
	}

	candidates := Prepare(runners)
	for _, tier := range m.tiers {
		if i, ok := tier.Match(subject, candidates); ok {
			return Result{Runner: candidates[i].Runner, Tier: tier.Name()}, true
		}
	}

	return Result{}, false
}

// Prepare computes the comparable forms of each runner, reusing the extractor's
// precomputed variants where present
func Prepare(runners []models.Runner) []Candidate {
	candidates := make([]Candidate, len(runners))
	for i := range runners {
		r := &runners[i]
		name := NewName(r.HorseName)
		if len(r.NameVariants) > 0 {
			name.Variants = normalize.VariantSet(r.NameVariants)
		}
		candidates[i] = Candidate{Name: name, Runner: r}
	}
	return candidates
}
