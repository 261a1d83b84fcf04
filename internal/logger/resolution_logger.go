package logger

import (
	"github.com/sirupsen/logrus"
)

// ResolutionLogger records how names were resolved and where results came from.
type ResolutionLogger struct {
	*logrus.Entry
}

// NewResolutionLogger creates a new resolution logger.
func NewResolutionLogger(baseLogger *logrus.Logger) *ResolutionLogger {
	return &ResolutionLogger{
		Entry: baseLogger.WithField("component", "resolution"),
	}
}

// LogTrackResolved logs which tier resolved a track name.
func (rl *ResolutionLogger) LogTrackResolved(trackName, courseID, key, tier string) {
	rl.WithFields(logrus.Fields{
		"track_name": trackName,
		"course_id":  courseID,
		"key":        key,
		"tier":       tier,
	}).Debug("Track resolved")
}

// LogHorseMatched logs which tier matched a bet leg to a runner.
func (rl *ResolutionLogger) LogHorseMatched(betID string, leg int, query, runner, tier string) {
	rl.WithFields(logrus.Fields{
		"bet_id": betID,
		"leg":    leg,
		"query":  query,
		"runner": runner,
		"tier":   tier,
	}).Debug("Horse matched")
}

// LogResultsFetched logs one (course, date) fetch.
func (rl *ResolutionLogger) LogResultsFetched(courseID, date, source, payloadKind string, runners int, cacheHit bool, latencyMs float64) {
	rl.WithFields(logrus.Fields{
		"course_id":    courseID,
		"date":         date,
		"source":       source,
		"payload_kind": payloadKind,
		"runners":      runners,
		"cache_hit":    cacheHit,
		"latency_ms":   latencyMs,
	}).Info("Results indexed")
}

// LogFetchFailed logs a provider failure; the key is indexed as empty.
func (rl *ResolutionLogger) LogFetchFailed(courseID, date string, err error) {
	rl.WithFields(logrus.Fields{
		"course_id": courseID,
		"date":      date,
	}).WithError(err).Warn("Results fetch failed, treating as no data")
}
