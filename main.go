package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/RaulAdSe/garmin-trainer-sub003/internal/analysis"
	"github.com/RaulAdSe/garmin-trainer-sub003/internal/cache"
	"github.com/RaulAdSe/garmin-trainer-sub003/internal/config"
	"github.com/RaulAdSe/garmin-trainer-sub003/internal/logging"
	"github.com/RaulAdSe/garmin-trainer-sub003/internal/report"
	"github.com/RaulAdSe/garmin-trainer-sub003/internal/service"
	"github.com/RaulAdSe/garmin-trainer-sub003/internal/store"
	"github.com/RaulAdSe/garmin-trainer-sub003/internal/telemetry"
)

const usage = `usage: garmin-insights [-config path] <command> [flags]

commands:
  init      write an example config with a new athlete ID
  import    store daily metrics from a JSON export (-file, - for stdin)
  today     show the daily report (-date YYYY-MM-DD, -json)
  status    show what has been imported
`

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("garmin-insights", flag.ContinueOnError)
	configPath := fs.String("config", "", "config file (default ~/.garmin-insights/config.json)")
	fs.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	if err := fs.Parse(args); err != nil {
		return err
	}

	cmd, rest := "today", fs.Args()
	if len(rest) > 0 {
		cmd, rest = rest[0], rest[1:]
	}

	if cmd == "init" {
		return runInit(*configPath)
	}

	a, err := setup(ctx, *configPath)
	if err != nil || a == nil {
		return err
	}
	defer a.close(ctx)

	switch cmd {
	case "import":
		return a.runImport(ctx, rest)
	case "today":
		return a.runToday(ctx, rest)
	case "status":
		return a.runStatus(ctx)
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func resolveConfigPath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	dir, err := config.GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

func runInit(configPath string) error {
	path, err := resolveConfigPath(configPath)
	if err != nil {
		return err
	}
	if err := config.CreateExampleAt(path); err != nil {
		return fmt.Errorf("creating example config: %w", err)
	}
	fmt.Printf("Config written to:\n  %s\n", path)
	return nil
}

// app holds the wired dependencies for one invocation
type app struct {
	cfg       *config.Config
	userID    uuid.UUID
	logger    *logrus.Logger
	db        *store.DB
	tracker   *service.LoadTracker
	analytics *service.AnalyticsService
	ingest    *service.IngestService
	closers   []func(context.Context)
}

// setup loads configuration and wires storage. It returns a nil app when the
// user has been told how to fix their config
func setup(ctx context.Context, configPath string) (*app, error) {
	path, err := resolveConfigPath(configPath)
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadFrom(path)
	if errors.Is(err, config.ErrNoConfig) {
		fmt.Printf("No config file found at %s.\nRun `garmin-insights init` to create one.\n", path)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Printf("Config validation failed: %v\n\n", err)
		fmt.Printf("Please edit the config file at:\n  %s\n", path)
		return nil, nil
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("configuring logging: %w", err)
	}

	a := &app{cfg: cfg, logger: logger}
	a.userID, _ = cfg.UserID()

	shutdown, err := telemetry.Init(cfg.Telemetry, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("configuring telemetry: %w", err)
	}
	a.closers = append(a.closers, func(ctx context.Context) {
		if err := shutdown(ctx); err != nil {
			logger.WithError(err).Warn("Failed to flush traces")
		}
	})

	db, err := store.Open(cfg.Storage.Path)
	if err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("opening database: %w", err)
	}
	a.db = db
	a.closers = append(a.closers, func(context.Context) { db.Close() })

	checkpoints, err := a.checkpointStore(ctx)
	if err != nil {
		a.close(ctx)
		return nil, err
	}

	opts := service.OptionsFromConfig(cfg)
	a.tracker = service.NewLoadTracker(db, checkpoints, opts.LoadSeedDays, logger)
	a.analytics = service.NewAnalyticsService(db, a.tracker, opts, logger)
	a.ingest = service.NewIngestService(db, a.tracker, db, logger)

	return a, nil
}

func (a *app) checkpointStore(ctx context.Context) (service.CheckpointStore, error) {
	switch a.cfg.Storage.CheckpointBackend {
	case config.BackendRedis:
		rc, err := cache.NewRedisConnection(ctx, a.cfg.Redis, a.logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) { rc.Close() })
		return cache.NewCheckpointStore(rc.Client), nil
	default:
		return a.db, nil
	}
}

// close releases resources in reverse order of acquisition
func (a *app) close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i](ctx)
	}
	a.closers = nil
}

func (a *app) runImport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	file := fs.String("file", "-", "JSON export to read, - for stdin")
	source := fs.String("source", "", "label recorded for this import (default: file name)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var r io.Reader = os.Stdin
	label := "stdin"
	if *file != "-" {
		f, err := os.Open(*file)
		if err != nil {
			return fmt.Errorf("opening export: %w", err)
		}
		defer f.Close()
		r = f
		label = filepath.Base(*file)
	}
	if *source != "" {
		label = *source
	}

	days, err := service.DecodeDays(r)
	if err != nil {
		return err
	}

	result, err := a.ingest.Ingest(ctx, a.userID, label, days)
	if err != nil {
		return fmt.Errorf("importing: %w", err)
	}

	if result.DaysStored == 0 {
		fmt.Println("Nothing to import.")
		return nil
	}
	fmt.Printf("Imported %s days (%s to %s)\n",
		humanize.Comma(int64(result.DaysStored)),
		analysis.DateKey(result.Earliest),
		analysis.DateKey(result.Latest),
	)
	fmt.Printf("Training load: fitness %.1f, fatigue %.1f, form %+.1f\n",
		result.Load.CTL, result.Load.ATL, result.Load.TSB)
	return nil
}

func (a *app) runToday(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("today", flag.ContinueOnError)
	dateFlag := fs.String("date", "", "day to report on, YYYY-MM-DD (default: latest day with data)")
	asJSON := fs.Bool("json", false, "print the analytics payload as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var asOf time.Time
	if *dateFlag != "" {
		d, err := time.Parse("2006-01-02", *dateFlag)
		if err != nil {
			return fmt.Errorf("invalid -date %q: %w", *dateFlag, err)
		}
		asOf = d
	}

	result, err := a.analytics.ComputeDailyAnalytics(ctx, a.userID, asOf)
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Println(report.Render(result))
	return nil
}

func (a *app) runStatus(ctx context.Context) error {
	count, err := a.db.CountDailyMetrics(ctx, a.userID)
	if err != nil {
		return fmt.Errorf("counting days: %w", err)
	}
	fmt.Printf("Athlete:   %s\n", a.userID)
	fmt.Printf("Days:      %s\n", humanize.Comma(int64(count)))

	latest, err := a.db.LatestDate(ctx, a.userID)
	switch {
	case errors.Is(err, store.ErrNoData):
		fmt.Println("Latest:    -")
	case err != nil:
		return fmt.Errorf("getting latest date: %w", err)
	default:
		fmt.Printf("Latest:    %s\n", analysis.DateKey(latest))
	}

	rec, err := a.db.LastImport(ctx, a.userID)
	switch {
	case errors.Is(err, store.ErrNoImport):
		fmt.Println("Imported:  never")
	case err != nil:
		return fmt.Errorf("reading last import: %w", err)
	default:
		fmt.Printf("Imported:  %s from %s (%s days, %s to %s)\n",
			humanize.Time(rec.ImportedAt), rec.Source, humanize.Comma(int64(rec.Days)),
			analysis.DateKey(rec.Earliest), analysis.DateKey(rec.Latest))
	}

	return nil
}
