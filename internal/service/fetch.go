package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/race-reconciler/internal/cache"
	"github.com/yourusername/race-reconciler/internal/datasource"
	"github.com/yourusername/race-reconciler/internal/metrics"
	"github.com/yourusername/race-reconciler/internal/models"
	"github.com/yourusername/race-reconciler/internal/results"
)

const isoDate = "2006-01-02"

// populate fetches every (course, date) the plans need and fills a fresh index. A
// failed fetch is recorded as an empty slot; only cancellation stops the phase.
func (r *Reconciler) populate(ctx context.Context, plans []plannedBet) (*results.Index, error) {
	index := results.NewIndex()

	for _, fk := range fetchKeys(plans) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		runners := r.fetchRunners(ctx, fk)
		if err := index.Put(fk.key, runners); err != nil {
			// keys are deduplicated, so this is a programming error
			return nil, err
		}
	}

	return index, nil
}

type fetchKey struct {
	key   results.Key
	names []string // reference name first, then every bet spelling in sorted order
}

// fetchKeys returns the unique resolved keys in a stable order. The names of a key do
// not depend on the order bets were loaded in.
func fetchKeys(plans []plannedBet) []fetchKey {
	refKeys := make(map[string]string)
	spellings := make(map[string]map[string]bool)
	var keys []results.Key
	for _, p := range plans {
		for _, pl := range p.legs {
			if !pl.ok {
				continue
			}
			id := pl.key.String()
			if _, seen := spellings[id]; !seen {
				keys = append(keys, pl.key)
				refKeys[id] = pl.refKey
				spellings[id] = make(map[string]bool)
			}
			spellings[id][strings.TrimSpace(pl.leg.TrackName)] = true
		}
	}

	sort.SliceStable(keys, func(i, j int) bool {
		if !keys[i].Date.Equal(keys[j].Date) {
			return keys[i].Date.Before(keys[j].Date)
		}
		return keys[i].Course < keys[j].Course
	})

	out := make([]fetchKey, len(keys))
	for i, k := range keys {
		id := k.String()
		names := make([]string, 0, len(spellings[id]))
		for name := range spellings[id] {
			if name != "" && !strings.EqualFold(name, refKeys[id]) {
				names = append(names, name)
			}
		}
		sort.Strings(names)
		if refKeys[id] != "" {
			names = append([]string{refKeys[id]}, names...)
		}
		out[i] = fetchKey{key: k, names: names}
	}
	return out
}

// fetchRunners returns the runners for one key, or nil when no usable payload exists
func (r *Reconciler) fetchRunners(ctx context.Context, fk fetchKey) []models.Runner {
	courseID := fk.key.Course
	day := fk.key.Date.Format(isoDate)
	cacheKey := cache.PayloadKey(courseID, fk.key.Date)
	start := time.Now()

	data, cacheHit := r.cachedPayload(ctx, cacheKey)
	if !cacheHit {
		var err error
		data, err = r.provider.FetchResults(ctx, fk.key.Date, courseID)
		if err != nil {
			metrics.RecordProviderFetch(r.provider.Name(), datasource.ErrorCode(err), time.Since(start))
			r.resolution.LogFetchFailed(courseID, day, err)
			return nil
		}
		metrics.RecordProviderFetch(r.provider.Name(), "success", time.Since(start))
	}

	payload, err := results.DecodePayload(data)
	if err != nil {
		r.resolution.LogFetchFailed(courseID, day, err)
		return nil
	}

	runners := results.ExtractAny(fk.names, fk.key.Date, payload)
	r.resolution.LogResultsFetched(courseID, day, r.provider.Name(), payload.Kind.String(),
		len(runners), cacheHit, float64(time.Since(start).Microseconds())/1000)

	// only payloads that already carry results are worth keeping across runs
	if !cacheHit && len(runners) > 0 {
		if err := r.cache.Set(ctx, cacheKey, data); err != nil {
			r.logger.WithError(err).WithField("key", cacheKey).Warn("Failed to cache results payload")
		}
	}

	return runners
}

func (r *Reconciler) cachedPayload(ctx context.Context, key string) ([]byte, bool) {
	data, ok, err := r.cache.Get(ctx, key)
	switch {
	case err != nil:
		metrics.RecordCacheLookup("error")
		r.logger.WithError(err).WithFields(logrus.Fields{"key": key}).Warn("Payload cache lookup failed")
		return nil, false
	case ok:
		metrics.RecordCacheLookup("hit")
		return data, true
	default:
		metrics.RecordCacheLookup("miss")
		return nil, false
	}
}
