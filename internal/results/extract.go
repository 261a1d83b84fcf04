package results

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/yourusername/race-reconciler/internal/models"
	"github.com/yourusername/race-reconciler/internal/normalize"
)

// MinCourseSimilarity is the similarity ratio above which a race's course name is
// accepted for the target track when neither name contains the other
const MinCourseSimilarity = 0.8

const isoDate = "2006-01-02"

// raceContext is the race metadata inherited by runners found beneath it
type raceContext struct {
	Course string
	RaceID string
	Off    string
	Name   string
	Date   string
}

func (c raceContext) groupKey() string {
	return strings.Join([]string{c.Course, c.RaceID, c.Off, c.Name}, "|")
}

// inherit overlays the context fields set on obj. Runner objects never contribute
// their "id" or "name", which describe the horse rather than the race.
func (c raceContext) inherit(obj map[string]any, runner bool) raceContext {
	if s := firstString(obj, courseFields); s != "" {
		c.Course = s
	}
	if s := firstString(obj, offFields); s != "" {
		c.Off = s
	}
	if s := firstString(obj, raceDateFields); s != "" {
		c.Date = s
	}

	idFields, nameFields := raceIDFields, raceNameFields
	if runner {
		idFields, nameFields = raceIDFields[:1], raceNameFields[:2]
	}
	if s := firstString(obj, idFields); s != "" {
		c.RaceID = s
	}
	if s := firstString(obj, nameFields); s != "" {
		c.Name = s
	}
	return c
}

// Extract returns the runners for track on date. The statically shaped races are tried
// first; the generic walk runs only when they produce nothing.
func Extract(track string, date time.Time, payload *Payload) []models.Runner {
	return ExtractAny([]string{track}, date, payload)
}

// ExtractAny is Extract for a course known under several names. A race is kept when
// its course matches any of them; the first name labels runners of unnamed races.
func ExtractAny(tracks []string, date time.Time, payload *Payload) []models.Runner {
	if payload == nil || len(tracks) == 0 {
		return nil
	}

	var runners []models.Runner
	for _, race := range payload.Races {
		ctx := raceContext{
			Course: race.Course,
			RaceID: race.RaceID,
			Off:    race.Off,
			Name:   race.Name,
			Date:   race.Date,
		}
		if !courseMatchesAny(ctx.Course, tracks) || !dateMatches(ctx.Date, date) {
			continue
		}
		runners = append(runners, buildRace(race.Runners, ctx, tracks[0], date)...)
	}

	if len(runners) > 0 {
		return runners
	}

	return extractByWalk(tracks, date, payload.Raw)
}

type walkedRunner struct {
	obj map[string]any
	ctx raceContext
}

// extractByWalk traverses the whole document, treating any object with a name-like and
// a position-like field as a runner of the race described by its ancestors
func extractByWalk(tracks []string, date time.Time, raw any) []models.Runner {
	var found []walkedRunner
	walk(raw, raceContext{}, &found)

	groups := make(map[string][]map[string]any)
	contexts := make(map[string]raceContext)
	var order []string
	for _, w := range found {
		if !courseMatchesAny(w.ctx.Course, tracks) || !dateMatches(w.ctx.Date, date) {
			continue
		}
		key := w.ctx.groupKey()
		if _, seen := groups[key]; !seen {
			order = append(order, key)
			contexts[key] = w.ctx
		}
		groups[key] = append(groups[key], w.obj)
	}

	var runners []models.Runner
	for _, key := range order {
		runners = append(runners, buildRace(groups[key], contexts[key], tracks[0], date)...)
	}
	return runners
}

func walk(node any, ctx raceContext, found *[]walkedRunner) {
	switch v := node.(type) {
	case map[string]any:
		if isRunnerObject(v) {
			*found = append(*found, walkedRunner{obj: v, ctx: ctx.inherit(v, true)})
			return
		}

		ctx = ctx.inherit(v, false)
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			walk(v[k], ctx, found)
		}
	case []any:
		for _, item := range v {
			walk(item, ctx, found)
		}
	}
}

// buildRace converts one race's runner objects, counting the field size from the
// runners that took part
func buildRace(objs []map[string]any, ctx raceContext, track string, date time.Time) []models.Runner {
	runners := make([]models.Runner, 0, len(objs))
	starters := 0
	for _, obj := range objs {
		r, ok := buildRunner(obj, ctx, track, date)
		if !ok {
			continue
		}
		if !r.IsVoid() {
			starters++
		}
		runners = append(runners, r)
	}

	total := starters
	if total == 0 {
		total = len(runners)
	}
	for i := range runners {
		runners[i].TotalRunners = total
	}
	return runners
}

func buildRunner(obj map[string]any, ctx raceContext, track string, date time.Time) (models.Runner, bool) {
	name := firstString(obj, horseFields)
	if name == "" {
		return models.Runner{}, false
	}

	trackName := ctx.Course
	if trackName == "" {
		trackName = track
	}

	sp := ParseNumeric(firstValue(obj, spDecFields))
	if sp == nil {
		raw := firstValue(obj, spFields)
		if sp = ParseNumeric(raw); sp == nil {
			sp = ParseFractional(raw)
		}
	}

	return models.Runner{
		HorseName:      name,
		TrackName:      trackName,
		RaceTime:       ctx.Off,
		RaceDate:       date,
		Position:       models.ParsePosition(firstString(obj, positionFields)),
		SP:             sp,
		BSP:            ParseNumeric(firstValue(obj, bspFields)),
		OvrBtn:         ParseNumeric(firstValue(obj, ovrBtnFields)),
		RaceID:         ctx.RaceID,
		RaceName:       ctx.Name,
		SimplifiedName: normalize.Simplify(name),
		NameVariants:   normalize.Variants(name),
		Jockey:         firstString(obj, jockeyFields),
		Trainer:        firstString(obj, trainerFields),
	}, true
}

// courseMatches accepts a race course for the target track by containment in either
// direction or by similarity ratio. A race without a course name is accepted since
// providers are queried per course.
func courseMatches(raceCourse, target string) bool {
	a := normalize.StripParentheticals(raceCourse)
	b := normalize.StripParentheticals(target)
	if a == "" || b == "" {
		return true
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}
	return Similarity(a, b) >= MinCourseSimilarity
}

func courseMatchesAny(raceCourse string, targets []string) bool {
	for _, target := range targets {
		if courseMatches(raceCourse, target) {
			return true
		}
	}
	return false
}

// dateMatches rejects races that carry a different ISO date. Missing or unparseable
// dates are accepted.
func dateMatches(raceDate string, target time.Time) bool {
	if raceDate == "" || target.IsZero() || len(raceDate) < len(isoDate) {
		return true
	}
	d, err := time.Parse(isoDate, raceDate[:len(isoDate)])
	if err != nil {
		return true
	}
	return d.Format(isoDate) == target.Format(isoDate)
}

// Similarity returns 1 - distance/maxLen for two strings, 1 for two empty strings
func Similarity(a, b string) float64 {
	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(maxLen)
}
