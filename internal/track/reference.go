package track

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Course is one entry of the reference table
type Course struct {
	Name string `yaml:"name" db:"name"`
	ID   string `yaml:"id" db:"course_id"`
}

// ReferenceTable maps lowercased track names to course identifiers.
// Keys keep their load order so that fuzzy ties resolve to the first-encountered key.
type ReferenceTable struct {
	keys []string
	ids  map[string]string
}

type referenceFile struct {
	Courses []Course `yaml:"courses"`
}

// NewReferenceTable builds a table from courses; the first entry for a duplicated name wins
func NewReferenceTable(courses []Course) *ReferenceTable {
	t := &ReferenceTable{
		keys: make([]string, 0, len(courses)),
		ids:  make(map[string]string, len(courses)),
	}

	for _, c := range courses {
		key := strings.ToLower(strings.TrimSpace(c.Name))
		if key == "" || c.ID == "" {
			continue
		}
		if _, exists := t.ids[key]; exists {
			continue
		}
		t.keys = append(t.keys, key)
		t.ids[key] = c.ID
	}

	return t
}

// LoadReferenceFile reads a YAML reference table of the form `courses: [{name, id}]`
func LoadReferenceFile(path string) (*ReferenceTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read reference table: %w", err)
	}

	var file referenceFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse reference table %s: %w", path, err)
	}

	if len(file.Courses) == 0 {
		return nil, fmt.Errorf("reference table %s contains no courses", path)
	}

	return NewReferenceTable(file.Courses), nil
}

// Lookup returns the course id for an exact (already lowercased) key
func (t *ReferenceTable) Lookup(key string) (string, bool) {
	id, ok := t.ids[key]
	return id, ok
}

// Keys returns the reference keys in load order
func (t *ReferenceTable) Keys() []string {
	out := make([]string, len(t.keys))
	copy(out, t.keys)
	return out
}

// Len returns the number of courses in the table
func (t *ReferenceTable) Len() int {
	return len(t.keys)
}
