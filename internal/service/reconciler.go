package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/race-reconciler/internal/cache"
	"github.com/yourusername/race-reconciler/internal/datasource"
	"github.com/yourusername/race-reconciler/internal/logger"
	"github.com/yourusername/race-reconciler/internal/matcher"
	"github.com/yourusername/race-reconciler/internal/metrics"
	"github.com/yourusername/race-reconciler/internal/models"
	"github.com/yourusername/race-reconciler/internal/publisher"
	"github.com/yourusername/race-reconciler/internal/repository"
	"github.com/yourusername/race-reconciler/internal/results"
	"github.com/yourusername/race-reconciler/internal/settlement"
	"github.com/yourusername/race-reconciler/internal/track"
)

// Skip reasons reported to metrics and the audit log
const (
	ReasonMalformed     = "malformed"
	ReasonNoData        = "no_data"
	ReasonUnmatched     = "unmatched"
	ReasonPersistFailed = "persist_failed"
)

// Options tunes a reconciliation run
type Options struct {
	SettleWorkers int
	DryRun        bool
	// RaceDate limits the run to bets on one race date
	RaceDate *time.Time
	// LookbackDays limits the run to bets from the last N days; 0 means no limit
	LookbackDays int
}

// Dependencies are the collaborators of a Reconciler. Bets, Provider and Resolver are
// required; the rest fall back to defaults.
type Dependencies struct {
	Bets      repository.BetStore
	Provider  datasource.ResultsProvider
	Resolver  *track.Resolver
	Matcher   *matcher.Matcher
	Engine    *settlement.Engine
	Cache     cache.PayloadCache
	Publisher publisher.Publisher
	Logger    *logrus.Logger
}

// Reconciler settles pending bets against fetched race results
type Reconciler struct {
	bets       repository.BetStore
	provider   datasource.ResultsProvider
	resolver   *track.Resolver
	matcher    *matcher.Matcher
	engine     *settlement.Engine
	cache      cache.PayloadCache
	publisher  publisher.Publisher
	logger     *logrus.Entry
	audit      *logger.AuditLogger
	resolution *logger.ResolutionLogger
	opts       Options
	now        func() time.Time
}

// plannedLeg is one bet leg with its resolved course
type plannedLeg struct {
	leg    models.Leg
	key    results.Key
	refKey string // reference table name the track resolved to
	ok     bool   // false when the track did not resolve
}

type plannedBet struct {
	bet  *models.Bet
	legs []plannedLeg
}

// NewReconciler creates a reconciler
func NewReconciler(deps Dependencies, opts Options) (*Reconciler, error) {
	if deps.Bets == nil {
		return nil, fmt.Errorf("bet store is required")
	}
	if deps.Provider == nil {
		return nil, fmt.Errorf("results provider is required")
	}
	if deps.Resolver == nil {
		return nil, fmt.Errorf("track resolver is required")
	}
	if deps.Matcher == nil {
		deps.Matcher = matcher.New()
	}
	if deps.Engine == nil {
		deps.Engine = settlement.NewEngine(settlement.DefaultPlaceTerms())
	}
	if deps.Cache == nil {
		deps.Cache = cache.NoopCache{}
	}
	if deps.Publisher == nil {
		deps.Publisher = publisher.Noop{}
	}
	if deps.Logger == nil {
		deps.Logger = logrus.New()
	}
	if opts.SettleWorkers <= 0 {
		opts.SettleWorkers = 1
	}

	return &Reconciler{
		bets:       deps.Bets,
		provider:   deps.Provider,
		resolver:   deps.Resolver,
		matcher:    deps.Matcher,
		engine:     deps.Engine,
		cache:      deps.Cache,
		publisher:  deps.Publisher,
		logger:     deps.Logger.WithField("component", "reconciler"),
		audit:      logger.NewAuditLogger(deps.Logger),
		resolution: logger.NewResolutionLogger(deps.Logger),
		opts:       opts,
		now:        time.Now,
	}, nil
}

// Run performs one reconciliation pass: load, resolve, fetch, then settle. Individual
// bet failures are counted in the summary; only a store read failure, cancellation or
// a settlement precondition violation returns an error.
func (r *Reconciler) Run(ctx context.Context) (*RunSummary, error) {
	runID := uuid.New().String()
	summary := NewRunSummary(runID, r.opts.DryRun)
	log := r.logger.WithFields(logrus.Fields{"run_id": runID, "dry_run": r.opts.DryRun})
	log.Info("Starting reconciliation run")

	err := r.run(ctx, runID, summary, log)
	summary.finish()

	outcome := "success"
	if err != nil {
		outcome = "failed"
		log.WithError(err).Error("Reconciliation run failed")
	}
	counts := summary.Counts()
	metrics.RecordRun(outcome, summary.Duration, counts)
	r.audit.LogRunSummary(runID, counts, summary.Duration, r.opts.DryRun)

	return summary, err
}

func (r *Reconciler) run(ctx context.Context, runID string, summary *RunSummary, log *logrus.Entry) error {
	bets, err := r.bets.GetUnsettled(ctx, r.filter())
	if err != nil {
		return fmt.Errorf("failed to load unsettled bets: %w", err)
	}
	summary.add(CountProcessed, len(bets))
	log.WithField("bets", len(bets)).Info("Loaded unsettled bets")
	if len(bets) == 0 {
		return nil
	}

	plans := r.plan(runID, bets, summary)

	index, err := r.populate(ctx, plans)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.SettleWorkers)
	for _, p := range plans {
		if gctx.Err() != nil {
			break
		}
		p := p
		g.Go(func() error {
			return r.settleBet(gctx, runID, p, index, summary)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	return ctx.Err()
}

func (r *Reconciler) filter() repository.BetFilter {
	var filter repository.BetFilter
	if r.opts.RaceDate != nil {
		day := *r.opts.RaceDate
		filter.RaceDate = &day
	}
	if r.opts.LookbackDays > 0 {
		since := r.now().UTC().Truncate(24*time.Hour).AddDate(0, 0, -r.opts.LookbackDays)
		filter.Since = &since
	}
	return filter
}

// plan validates bets and resolves the track of every leg
func (r *Reconciler) plan(runID string, bets []*models.Bet, summary *RunSummary) []plannedBet {
	resolved := make(map[string]plannedLeg)
	unresolved := make(map[string]int)

	plans := make([]plannedBet, 0, len(bets))
	for _, bet := range bets {
		if err := bet.Validate(); err != nil {
			summary.add(CountMalformed, 1)
			metrics.RecordBetSkipped(ReasonMalformed)
			r.audit.LogBetSkipped(runID, bet.ID, ReasonMalformed, err)
			continue
		}

		legs, _ := bet.Legs()
		p := plannedBet{bet: bet, legs: make([]plannedLeg, len(legs))}
		for i, leg := range legs {
			p.legs[i] = r.resolveLeg(leg, resolved, unresolved)
		}
		plans = append(plans, p)
	}

	tracks := make([]string, 0, len(unresolved))
	for name := range unresolved {
		tracks = append(tracks, name)
	}
	sort.Strings(tracks)
	for _, name := range tracks {
		metrics.RecordTrackUnresolved()
		r.audit.LogTrackUnresolved(runID, name, unresolved[name])
	}

	return plans
}

func (r *Reconciler) resolveLeg(leg models.Leg, resolved map[string]plannedLeg, unresolved map[string]int) plannedLeg {
	memo := strings.ToLower(strings.TrimSpace(leg.TrackName))
	if p, ok := resolved[memo]; ok {
		p.leg = leg
		p.key.Date = raceDay(leg.RaceDate)
		return p
	}
	if _, ok := unresolved[memo]; ok {
		unresolved[memo]++
		return plannedLeg{leg: leg}
	}

	res, ok := r.resolver.Match(leg.TrackName)
	if !ok {
		unresolved[memo] = 1
		return plannedLeg{leg: leg}
	}
	r.resolution.LogTrackResolved(leg.TrackName, res.CourseID, res.Key, string(res.Tier))

	p := plannedLeg{
		leg:    leg,
		key:    results.Key{Course: res.CourseID, Date: raceDay(leg.RaceDate)},
		refKey: res.Key,
		ok:     true,
	}
	resolved[memo] = p
	return p
}

// settleBet matches every leg and settles the bet. Only a precondition violation
// escapes as an error.
func (r *Reconciler) settleBet(ctx context.Context, runID string, p plannedBet, index *results.Index, summary *RunSummary) error {
	bet := p.bet
	legRunners := make([]*models.Runner, len(p.legs))
	tiers := make([]string, 0, len(p.legs))
	resolved := 0
	hasData := false

	for i, pl := range p.legs {
		if !pl.ok {
			r.audit.LogLegUnresolved(runID, bet.ID, i, pl.leg.HorseName, pl.leg.TrackName, "track_unresolved")
			continue
		}

		runners, _ := index.Get(pl.key)
		if len(runners) == 0 {
			r.logger.WithFields(logrus.Fields{
				"bet_id": bet.ID,
				"leg":    i,
				"key":    pl.key.String(),
			}).Debug(models.ErrDataUnavailable.Error())
			r.audit.LogLegUnresolved(runID, bet.ID, i, pl.leg.HorseName, pl.leg.TrackName, "no_data")
			continue
		}
		hasData = true

		query := matcher.Query{
			Name:    pl.leg.HorseName,
			Jockey:  legHint(bet.JockeyName(), i, len(p.legs)),
			Trainer: legHint(bet.TrainerName(), i, len(p.legs)),
		}
		res, ok := r.matcher.Match(query, runners)
		if !ok {
			metrics.RecordLegUnresolved()
			r.audit.LogLegUnresolved(runID, bet.ID, i, pl.leg.HorseName, pl.leg.TrackName, "no_match")
			continue
		}

		metrics.RecordLegMatched(res.Tier)
		r.resolution.LogHorseMatched(bet.ID, i, pl.leg.HorseName, res.Runner.HorseName, res.Tier)
		legRunners[i] = res.Runner
		tiers = append(tiers, res.Tier)
		resolved++
	}

	if resolved == 0 {
		reason, field, cause := ReasonNoData, CountSkipped, models.ErrDataUnavailable
		if hasData {
			reason, field, cause = ReasonUnmatched, CountUnmatched, models.ErrUnresolvedLeg
		}
		summary.add(field, 1)
		metrics.RecordBetSkipped(reason)
		r.audit.LogBetSkipped(runID, bet.ID, reason, cause)
		return nil
	}

	s, err := r.engine.Settle(bet, legRunners)
	if err != nil {
		return fmt.Errorf("settle bet %s: %w", bet.ID, err)
	}
	summary.add(CountSettled, 1)

	if !r.opts.DryRun {
		if err := r.bets.UpdateSettlement(ctx, bet.ID, s.Fields()); err != nil {
			summary.add(CountErrored, 1)
			metrics.RecordBetSkipped(ReasonPersistFailed)
			r.audit.LogBetSkipped(runID, bet.ID, ReasonPersistFailed, err)
			return nil
		}
		summary.add(CountUpdated, 1)

		event := publisher.NewSettledEvent(runID, s, false, r.now())
		if err := r.publisher.PublishSettled(ctx, event); err != nil {
			metrics.RecordEventPublishError()
			r.logger.WithError(err).WithField("bet_id", bet.ID).Warn("Failed to publish settlement event")
		}
	}

	metrics.RecordBetSettled(string(s.Status))
	r.audit.LogSettlement(runID, bet.ID, string(s.Status), s.Returns, s.ProfitLoss, s.FinPos, tiers, r.opts.DryRun)
	return nil
}

// legHint returns the jockey or trainer text for leg i of n. Multiples carry either one
// value per leg or none.
func legHint(s string, i, n int) string {
	if s == "" {
		return ""
	}
	if n == 1 {
		return s
	}
	parts := strings.Split(s, models.SelectionSeparator)
	if len(parts) != n {
		return ""
	}
	return strings.TrimSpace(parts[i])
}

func raceDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IsPrecondition reports whether err is a settlement precondition violation
func IsPrecondition(err error) bool {
	return errors.Is(err, settlement.ErrNoRunners)
}
