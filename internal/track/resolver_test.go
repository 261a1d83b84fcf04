package track

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/race-reconciler/internal/normalize"
)

func newTestTable() *ReferenceTable {
	return NewReferenceTable([]Course{
		{Name: "Ascot", ID: "2"},
		{Name: "Kempton Park", ID: "1085"},
		{Name: "Sandown Park", ID: "30"},
		{Name: "Wolverhampton", ID: "513"},
		{Name: "Newmarket", ID: "38"},
		{Name: "Cheltenham", ID: "11"},
		{Name: "Leopardstown", ID: "187"},
		{Name: "Ayr", ID: "3"},
		{Name: "Epsom Downs", ID: "17"},
	})
}

func TestResolveTiers(t *testing.T) {
	resolver := NewResolver(newTestTable())

	tests := []struct {
		name   string
		input  string
		wantID string
		tier   Tier
	}{
		{"exact", "Ascot", "2", TierExact},
		{"exact with whitespace", "  kempton   park ", "1085", TierExact},
		{"short key exact", "AYR", "3", TierExact},
		{"all weather suffix", "Wolverhampton (AW)", "513", TierStripped},
		{"all weather long form", "Kempton Park (All Weather)", "1085", TierStripped},
		{"country code", "Leopardstown (IRE)", "187", TierStripped},
		{"racecourse suffix", "Cheltenham Racecourse", "11", TierStripped},
		{"park stripped on both sides", "Sandown", "30", TierStripped},
		{"alias", "Epsom", "17", TierAlias},
		{"substring", "Newmarket July Course", "38", TierSubstring},
		{"fuzzy", "Cheltnham", "11", TierFuzzy},
		{"fuzzy typo", "Leopardstwon", "187", TierFuzzy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, ok := resolver.Match(tt.input)
			require.True(t, ok, "expected %q to resolve", tt.input)
			assert.Equal(t, tt.wantID, res.CourseID)
			assert.Equal(t, tt.tier, res.Tier)
		})
	}
}

func TestResolveNoMatch(t *testing.T) {
	resolver := NewResolver(newTestTable())

	for _, input := range []string{"", "   ", "Flemington", "Zzz"} {
		_, ok := resolver.Resolve(input)
		assert.False(t, ok, "expected %q not to resolve", input)
	}
}

func TestResolveExactBeatsLooserTiers(t *testing.T) {
	// "kempton" is also an alias for "kempton park"; the exact key must win.
	table := NewReferenceTable([]Course{
		{Name: "Kempton Park", ID: "1085"},
		{Name: "Kempton", ID: "9999"},
	})
	resolver := NewResolver(table)

	res, ok := resolver.Match("Kempton")
	require.True(t, ok)
	assert.Equal(t, "9999", res.CourseID)
	assert.Equal(t, TierExact, res.Tier)
}

func TestResolveFuzzyTieTakesFirstKey(t *testing.T) {
	table := NewReferenceTable([]Course{
		{Name: "Bathx", ID: "first"},
		{Name: "Bathy", ID: "second"},
	})
	resolver := NewResolver(table)

	res, ok := resolver.Match("bathzzzzzz")
	assert.False(t, ok, "distance above threshold must not resolve: %+v", res)

	// both keys are distance 1 from the query
	res, ok = NewResolver(NewReferenceTable([]Course{
		{Name: "Hexhamshire", ID: "first"},
		{Name: "Hexhamshira", ID: "second"},
	})).Match("Hexhamshirx")
	require.True(t, ok)
	assert.Equal(t, "first", res.CourseID)
	assert.Equal(t, TierFuzzy, res.Tier)
}

func TestStripSuffixesSimplifyEquivalence(t *testing.T) {
	a := normalize.Simplify(StripSuffixes("Kempton Park (AW)"))
	b := normalize.Simplify(StripSuffixes("kempton park"))
	assert.Equal(t, a, b)
	assert.Equal(t, "kempton", a)
}

func TestStripSuffixes(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Kempton Park (AW)", "kempton"},
		{"Dundalk (IRE) (AW)", "dundalk"},
		{"Southwell (All Weather)", "southwell"},
		{"Hamilton Park Racecourse", "hamilton"},
		{"Punchestown Races", "punchestown"},
		{"Park", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StripSuffixes(tt.in), "StripSuffixes(%q)", tt.in)
	}
}

func TestNewReferenceTableFirstDuplicateWins(t *testing.T) {
	table := NewReferenceTable([]Course{
		{Name: "Ascot", ID: "2"},
		{Name: "ASCOT ", ID: "99"},
		{Name: "", ID: "1"},
		{Name: "York", ID: ""},
	})

	assert.Equal(t, 1, table.Len())
	id, ok := table.Lookup("ascot")
	require.True(t, ok)
	assert.Equal(t, "2", id)
}

func TestLoadReferenceFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "courses.yaml")
	content := []byte("courses:\n  - name: Ascot\n    id: \"2\"\n  - name: Kempton Park\n    id: \"1085\"\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	table, err := LoadReferenceFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"ascot", "kempton park"}, table.Keys())
}

func TestLoadReferenceFileErrors(t *testing.T) {
	_, err := LoadReferenceFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, []byte("courses: []\n"), 0o600))
	_, err = LoadReferenceFile(path)
	assert.Error(t, err)
}
