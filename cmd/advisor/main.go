package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/riskfolio/config"
	"github.com/alejandrodnm/riskfolio/internal/adapters/cache"
	"github.com/alejandrodnm/riskfolio/internal/adapters/csvfile"
	"github.com/alejandrodnm/riskfolio/internal/adapters/httpapi"
	"github.com/alejandrodnm/riskfolio/internal/adapters/notify"
	"github.com/alejandrodnm/riskfolio/internal/adapters/storage"
	"github.com/alejandrodnm/riskfolio/internal/application/advisor"
	"github.com/alejandrodnm/riskfolio/internal/catalog"
	"github.com/alejandrodnm/riskfolio/internal/domain"
	"github.com/alejandrodnm/riskfolio/internal/ports"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	name := flag.String("name", "", "investor name (optional)")
	gender := flag.String("gender", "", "investor gender (optional)")
	goal := flag.String("goal", "", "goal: asset protection|stable income|high return")
	experience := flag.String("experience", "", "experience: none|beginner|experienced")
	market := flag.String("market", "", "market reaction: sell to minimize loss|wait and see|buy more")
	riskTol := flag.String("risk-tolerance", "", "risk tolerance: risk-averse|some risk|high risk")
	horizon := flag.String("horizon", "", "horizon: short (6 months) | long (2 years)")
	risk := flag.String("risk", "", "show the model portfolio of a profile directly: conservative|neutral|aggressive")
	backtest := flag.Bool("backtest", false, "also show the backtest of the selected portfolio")
	pdfPath := flag.String("pdf", "", "write the recommendation as PDF to this path")
	serve := flag.Bool("serve", false, "run the HTTP JSON API")
	interactive := flag.Bool("interactive", false, "answer the survey interactively on stdin")
	importDB := flag.String("import", "", "build a SQLite data file from the CSV sources and exit")
	output := flag.String("output", "text", "report format: text|json")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	slog.Info("riskfolio starting",
		"config", *configPath,
		"source", cfg.Data.Source,
		"serve", *serve,
		"interactive", *interactive,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *importDB != "" {
		if err := runImport(ctx, cfg, *importDB); err != nil {
			slog.Error("import failed", "err", err, "db", *importDB)
			os.Exit(1)
		}
		return
	}

	// Catálogo inválido = error de arranque
	cat, err := catalog.Load(cfg.Catalog.Path, cfg.Catalog.WeightTolerance)
	if err != nil {
		slog.Error("failed to load portfolio catalog", "err", err, "path", cfg.Catalog.Path)
		os.Exit(1)
	}
	slog.Debug("catalog loaded", "version", cat.Version(), "portfolios", len(cat.Keys()))

	stats, backtests, closeFn, err := buildSources(cfg)
	if err != nil {
		slog.Error("failed to open data source", "err", err)
		os.Exit(1)
	}
	defer closeFn()

	adv := advisor.New(advisor.Config{
		StrictScoring:   cfg.StrictScoring(),
		WeightTolerance: cfg.Catalog.WeightTolerance,
	}, cat, stats, backtests)

	if *serve {
		// Precarga: un dato malformado impide arrancar el servidor
		if c, ok := stats.(*cache.Source); ok {
			if _, err := c.Warm(ctx, 4); err != nil {
				slog.Error("failed to warm data cache", "err", err)
				os.Exit(1)
			}
		}
		srv := httpapi.New(httpapi.Config{
			Addr:           cfg.Server.Addr,
			RatePerSec:     cfg.Server.RatePerSec,
			Burst:          cfg.Server.Burst,
			AllowedOrigins: cfg.Server.AllowedOrigins,
		}, adv)
		if err := srv.Run(ctx); err != nil {
			slog.Error("server exited with error", "err", err)
			os.Exit(1)
		}
		slog.Info("riskfolio stopped cleanly")
		return
	}

	notifier, err := newNotifier(*output, os.Stdout)
	if err != nil {
		slog.Error("invalid output", "err", err)
		os.Exit(1)
	}

	if *interactive {
		if err := runInteractive(ctx, adv, notifier, os.Stdin, os.Stdout); err != nil {
			slog.Error("interactive session failed", "err", err)
			os.Exit(1)
		}
		return
	}

	if *risk != "" {
		if err := runPortfolio(ctx, adv, notifier, *risk, *horizon, *backtest); err != nil {
			slog.Error("portfolio failed", "err", err)
			os.Exit(1)
		}
		return
	}

	h, err := domain.ParseHorizon(*horizon)
	if err != nil {
		slog.Error("invalid horizon", "err", err)
		os.Exit(1)
	}
	answers := domain.Answers{
		Name:           *name,
		Gender:         *gender,
		Goal:           *goal,
		Experience:     *experience,
		MarketReaction: *market,
		RiskTolerance:  *riskTol,
		Horizon:        h,
	}
	if err := runOnce(ctx, adv, notifier, answers, *backtest, *pdfPath); err != nil {
		slog.Error("recommendation failed", "err", err)
		os.Exit(1)
	}
}

// runOnce calcula una recomendación desde flags y la presenta.
func runOnce(ctx context.Context, adv *advisor.Advisor, n ports.Notifier, answers domain.Answers, withBacktest bool, pdfPath string) error {
	rec, err := adv.Recommend(ctx, answers)
	if err != nil {
		return err
	}
	if err := n.NotifyRecommendation(ctx, rec); err != nil {
		slog.Warn("notifier error", "err", err)
	}
	if rec.Status != domain.StatusComplete {
		return nil
	}

	var report *domain.BacktestReport
	if withBacktest || pdfPath != "" {
		r, err := adv.Backtest(ctx, rec.Profile, rec.Answers.Horizon)
		if err != nil {
			return err
		}
		report = &r
	}
	if withBacktest {
		if err := n.NotifyBacktest(ctx, *report); err != nil {
			slog.Warn("notifier error", "err", err)
		}
	}

	if pdfPath != "" {
		data, err := notify.RecommendationPDF(rec, report)
		if err != nil {
			return err
		}
		if err := os.WriteFile(pdfPath, data, 0o644); err != nil {
			return fmt.Errorf("write pdf: %w", err)
		}
		slog.Info("pdf written", "path", pdfPath, "bytes", len(data))
	}
	return nil
}

// runPortfolio muestra la cartera modelo de un perfil sin pasar por el cuestionario.
func runPortfolio(ctx context.Context, adv *advisor.Advisor, n ports.Notifier, riskFlag, horizonFlag string, withBacktest bool) error {
	risk, err := domain.ParseRiskProfile(riskFlag)
	if err != nil {
		return err
	}
	h, err := domain.ParseHorizon(horizonFlag)
	if err != nil {
		return err
	}
	if h == domain.HorizonUnknown {
		return fmt.Errorf("-risk requires -horizon")
	}

	view, err := adv.Portfolio(ctx, risk, h)
	if err != nil {
		return err
	}
	if err := n.NotifyPortfolio(ctx, view); err != nil {
		slog.Warn("notifier error", "err", err)
	}
	if !withBacktest {
		return nil
	}
	report, err := adv.Backtest(ctx, risk, h)
	if err != nil {
		return err
	}
	return n.NotifyBacktest(ctx, report)
}

// runImport vuelca los CSV configurados a un archivo SQLite.
func runImport(ctx context.Context, cfg *config.Config, path string) error {
	src := newCSVSource(cfg)
	store, err := storage.NewSQLiteStore(path)
	if err != nil {
		return err
	}
	defer store.Close()

	sum, err := store.Import(ctx, src, src)
	if err != nil {
		return err
	}
	for _, key := range sum.Skipped {
		slog.Warn("no source data, skipped", "key", key)
	}
	return nil
}

// buildSources elige CSV o SQLite según la config y añade la caché si procede.
func buildSources(cfg *config.Config) (ports.StatsProvider, ports.BacktestProvider, func(), error) {
	var (
		stats     ports.StatsProvider
		backtests ports.BacktestProvider
		closeFn   = func() {}
	)

	switch cfg.Data.Source {
	case config.SourceSQLite:
		store, err := storage.NewSQLiteStore(cfg.Data.SQLitePath)
		if err != nil {
			return nil, nil, nil, err
		}
		stats, backtests = store, store
		closeFn = func() { store.Close() }
	default:
		src := newCSVSource(cfg)
		stats, backtests = src, src
	}

	if cfg.CacheEnabled() {
		c := cache.New(stats, backtests)
		stats, backtests = c, c
	}
	return stats, backtests, closeFn, nil
}

func newCSVSource(cfg *config.Config) *csvfile.Source {
	btPaths := make(map[string]string)
	for _, r := range domain.RiskProfiles() {
		for _, h := range domain.Horizons() {
			btPaths[csvfile.BacktestKey(r, h)] = cfg.BacktestPath(string(r), string(h))
		}
	}
	return csvfile.New(csvfile.Config{
		StatsPaths: map[domain.Horizon]string{
			domain.HorizonShort: cfg.StatsPath(string(domain.HorizonShort)),
			domain.HorizonLong:  cfg.StatsPath(string(domain.HorizonLong)),
		},
		BacktestPaths: btPaths,
		PercentUnits:  cfg.Data.StatsUnits == config.UnitsPercent,
	})
}

func newNotifier(format string, w io.Writer) (ports.Notifier, error) {
	switch format {
	case "", "text":
		return notify.NewConsoleWriter(w), nil
	case "json":
		return notify.NewJSONWriter(w), nil
	}
	return nil, fmt.Errorf("unknown output format %q (want text or json)", format)
}

// setupLogger configura slog. Los logs van a stderr: stdout lleva el informe.
func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
