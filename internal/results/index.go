package results

import (
	"errors"
	"fmt"
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/yourusername/race-reconciler/internal/models"
)

// ErrAlreadyIndexed is returned when a key is populated twice within one run
var ErrAlreadyIndexed = errors.New("results already indexed for key")

// Key identifies one course meeting
type Key struct {
	Course string
	Date   time.Time
}

// String returns the cache representation of the key
func (k Key) String() string {
	return fmt.Sprintf("%s:%s", k.Course, k.Date.Format(isoDate))
}

// Index maps (course, date) to the runners extracted for it. Each key is written at
// most once; an empty slice records a confirmed absence. Create one per run.
type Index struct {
	store *cache.Cache
}

// NewIndex creates an empty run-scoped index
func NewIndex() *Index {
	return &Index{
		store: cache.New(cache.NoExpiration, 0),
	}
}

// Put records the runners for key. A second Put for the same key fails.
func (i *Index) Put(key Key, runners []models.Runner) error {
	snapshot := make([]models.Runner, len(runners))
	copy(snapshot, runners)

	if err := i.store.Add(key.String(), snapshot, cache.NoExpiration); err != nil {
		return fmt.Errorf("%w: %s", ErrAlreadyIndexed, key)
	}
	return nil
}

// Get returns the runners stored for key. ok is false when the key was never indexed.
func (i *Index) Get(key Key) ([]models.Runner, bool) {
	v, found := i.store.Get(key.String())
	if !found {
		return nil, false
	}
	runners, ok := v.([]models.Runner)
	return runners, ok
}

// Has reports whether key has been indexed
func (i *Index) Has(key Key) bool {
	_, found := i.store.Get(key.String())
	return found
}

// Len returns the number of indexed keys
func (i *Index) Len() int {
	return i.store.ItemCount()
}
