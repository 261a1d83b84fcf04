// Package main provides the entry point for the race reconciler.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/race-reconciler/internal/cache"
	"github.com/yourusername/race-reconciler/internal/config"
	"github.com/yourusername/race-reconciler/internal/database"
	"github.com/yourusername/race-reconciler/internal/datasource"
	"github.com/yourusername/race-reconciler/internal/health"
	"github.com/yourusername/race-reconciler/internal/logger"
	"github.com/yourusername/race-reconciler/internal/metrics"
	"github.com/yourusername/race-reconciler/internal/publisher"
	"github.com/yourusername/race-reconciler/internal/repository"
	"github.com/yourusername/race-reconciler/internal/scheduler"
	"github.com/yourusername/race-reconciler/internal/service"
	"github.com/yourusername/race-reconciler/internal/settlement"
	"github.com/yourusername/race-reconciler/internal/track"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile string
	cfg        *config.Config
	appLog     *logrus.Logger

	dryRun   bool
	raceDate string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", config.DefaultConfigPath, "Path to configuration file")

	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Compute settlements without writing them")
	runCmd.Flags().StringVar(&raceDate, "date", "", "Only reconcile bets for this race date (YYYY-MM-DD)")

	rootCmd.AddCommand(runCmd, serveCmd, resolveTrackCmd, versionCmd)
}

var rootCmd = &cobra.Command{
	Use:   "reconciler",
	Short: "Settle pending horse racing bets against official results",
	Long: `Loads unsettled bets, resolves their tracks and horses against fetched race
results and writes the settlement outcome back to the bet store.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == versionCmd.Name() {
			return nil
		}
		return loadConfig(cmd.Context())
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one reconciliation pass",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := runOptions()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, opts)
		if err != nil {
			return err
		}
		defer a.Close()

		summary, err := a.reconciler.Run(ctx)
		if summary != nil {
			printSummary(summary)
		}
		return err
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run reconciliation on a schedule and serve health and metrics endpoints",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		opts, err := runOptions()
		if err != nil {
			return err
		}
		a, err := newApp(ctx, opts)
		if err != nil {
			return err
		}
		defer a.Close()

		sched := scheduler.NewScheduler(a.reconciler, appLog)
		if err := sched.ScheduleReconcile(cfg.Schedule.Reconcile); err != nil {
			return err
		}

		healthCfg := health.Config{
			ServiceName: cfg.App.Name,
			Version:     Version,
			Commit:      GitCommit,
			Port:        fmt.Sprintf("%d", cfg.Metrics.Port),
			Logger:      appLog,
			DB:          a.db,
			Summaries:   sched,
		}
		if cfg.Metrics.Enabled {
			healthCfg.Metrics = metrics.Handler()
			healthCfg.MetricsPath = cfg.Metrics.Path
		}
		healthServer := health.NewServer(healthCfg)
		if err := healthServer.Start(ctx); err != nil {
			return fmt.Errorf("failed to start health server: %w", err)
		}

		if err := sched.Start(); err != nil {
			return err
		}
		healthServer.SetReady(true)

		appLog.WithFields(logrus.Fields{
			"schedule": cfg.Schedule.Reconcile,
			"next_run": sched.GetNextRun().Format(time.RFC3339),
			"dry_run":  opts.DryRun,
		}).Info("Race reconciler running")

		<-ctx.Done()
		appLog.Info("Shutdown signal received")
		healthServer.SetReady(false)

		if err := sched.Stop(); err != nil {
			appLog.WithError(err).Warn("Scheduler did not stop cleanly")
		}
		return nil
	},
}

var resolveTrackCmd = &cobra.Command{
	Use:   "resolve-track <name>",
	Short: "Show how a track name resolves against the reference table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var courses repository.CourseRepository
		if cfg.Reference.Source == "database" {
			db, err := database.NewDB(ctx, &cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer db.Close()
			courses = repository.NewPostgresCourseRepository(db)
		}

		table, err := service.LoadReferenceTable(ctx, cfg.Reference, courses)
		if err != nil {
			return err
		}

		res, ok := track.NewResolver(table).Match(args[0])
		if !ok {
			fmt.Printf("%q: unresolved\n", args[0])
			return nil
		}
		fmt.Printf("%q: course %s (key %q, tier %s)\n", args[0], res.CourseID, res.Key, res.Tier)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("reconciler %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
	},
}

func main() {
	// a missing .env file is normal outside local development
	_ = godotenv.Load()

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func loadConfig(ctx context.Context) error {
	var err error
	cfg, err = config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := config.LoadSecretsFromAWS(ctx, cfg); err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	appLog = logger.NewLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"provider":    cfg.ResultsProvider.Source,
		"version":     Version,
	}).Debug("Configuration loaded")

	return nil
}

func runOptions() (service.Options, error) {
	opts := service.Options{
		SettleWorkers: cfg.Reconciler.SettleWorkers,
		DryRun:        cfg.Reconciler.DryRun || dryRun,
		LookbackDays:  cfg.Reconciler.LookbackDays,
	}

	if raceDate != "" {
		day, err := time.Parse("2006-01-02", raceDate)
		if err != nil {
			return opts, fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", raceDate)
		}
		opts.RaceDate = &day
	}

	return opts, nil
}

// app holds the long-lived collaborators of a reconciler
type app struct {
	db         *database.DB
	cache      cache.PayloadCache
	publisher  publisher.Publisher
	reconciler *service.Reconciler
}

func newApp(ctx context.Context, opts service.Options) (*app, error) {
	db, err := database.Initialize(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a := &app{db: db, cache: cache.NoopCache{}, publisher: publisher.Noop{}}

	repos, err := repository.NewRepositories(db, cfg.Database.BetsTable)
	if err != nil {
		a.Close()
		return nil, err
	}

	table, err := service.LoadReferenceTable(ctx, cfg.Reference, repos.Courses)
	if err != nil {
		a.Close()
		return nil, err
	}

	provider, err := datasource.NewResultsProvider(cfg.ResultsProvider, appLog)
	if err != nil {
		a.Close()
		return nil, err
	}

	if a.cache, err = cache.NewPayloadCache(cfg.Cache); err != nil {
		appLog.WithError(err).Warn("Payload cache unavailable; fetching every run")
		a.cache = cache.NoopCache{}
	}

	if a.publisher, err = publisher.New(cfg.Events); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create event publisher: %w", err)
	}

	metrics.InitRegistry()

	a.reconciler, err = service.NewReconciler(service.Dependencies{
		Bets:     repos.Bets,
		Provider: provider,
		Resolver: track.NewResolver(table),
		Engine: settlement.NewEngine(settlement.PlaceTerms{
			MultipleFraction: decimal.NewFromFloat(cfg.Reconciler.MultiplePlaceFraction),
		}),
		Cache:     a.cache,
		Publisher: a.publisher,
		Logger:    appLog,
	}, opts)
	if err != nil {
		a.Close()
		return nil, err
	}

	appLog.WithFields(logrus.Fields{
		"courses":  table.Len(),
		"provider": provider.Name(),
		"workers":  opts.SettleWorkers,
	}).Info("Reconciler initialized")

	return a, nil
}

// Close releases every resource held by the app
func (a *app) Close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			appLog.WithError(err).Warn("Failed to close event publisher")
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			appLog.WithError(err).Warn("Failed to close payload cache")
		}
	}
	if a.db != nil {
		a.db.Close()
	}
}

func printSummary(s *service.RunSummary) {
	mode := "live"
	if s.DryRun {
		mode = "dry run"
	}
	counts := s.Counts()

	fmt.Printf("\nReconciliation %s (%s, %v)\n", s.RunID, mode, s.Duration.Round(time.Millisecond))
	for _, name := range []string{
		service.CountProcessed,
		service.CountSettled,
		service.CountUpdated,
		service.CountUnmatched,
		service.CountSkipped,
		service.CountMalformed,
		service.CountErrored,
	} {
		fmt.Printf("  %-10s %d\n", name+":", counts[name])
	}
}
