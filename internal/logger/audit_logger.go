// Package logger provides audit logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// AuditLogger provides dedicated audit trail logging for settlement decisions.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogSettlement logs a computed settlement and the matcher tiers behind it.
func (al *AuditLogger) LogSettlement(runID, betID, status string, returns, profitLoss float64, finPos string, tiers []string, dryRun bool) {
	al.WithFields(logrus.Fields{
		"run_id":      runID,
		"bet_id":      betID,
		"status":      status,
		"returns":     returns,
		"profit_loss": profitLoss,
		"fin_pos":     finPos,
		"tiers":       tiers,
		"dry_run":     dryRun,
	}).Info("Bet settled")
}

// LogLegUnresolved logs a bet leg the matcher could not resolve.
func (al *AuditLogger) LogLegUnresolved(runID, betID string, leg int, horseName, trackName, reason string) {
	al.WithFields(logrus.Fields{
		"run_id":     runID,
		"bet_id":     betID,
		"leg":        leg,
		"horse_name": horseName,
		"track_name": trackName,
		"reason":     reason,
	}).Warn("Bet leg unresolved")
}

// LogTrackUnresolved logs a track name missing from the reference table.
func (al *AuditLogger) LogTrackUnresolved(runID, trackName string, affectedBets int) {
	al.WithFields(logrus.Fields{
		"run_id":        runID,
		"track_name":    trackName,
		"affected_bets": affectedBets,
	}).Warn("Track not found in reference table")
}

// LogBetSkipped logs a bet left untouched by a run.
func (al *AuditLogger) LogBetSkipped(runID, betID, reason string, err error) {
	entry := al.WithFields(logrus.Fields{
		"run_id": runID,
		"bet_id": betID,
		"reason": reason,
	})
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Warn("Bet skipped")
}

// LogRunSummary logs the counts of a finished run.
func (al *AuditLogger) LogRunSummary(runID string, counts map[string]int, duration time.Duration, dryRun bool) {
	fields := logrus.Fields{
		"run_id":      runID,
		"duration_ms": duration.Milliseconds(),
		"dry_run":     dryRun,
	}
	for k, v := range counts {
		fields[k] = v
	}
	al.WithFields(fields).Info("Reconciliation run completed")
}
