package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/runnerlab/terrainstream/internal/config"
	"github.com/runnerlab/terrainstream/internal/core/event"
	coresys "github.com/runnerlab/terrainstream/internal/core/system"
	"github.com/runnerlab/terrainstream/internal/data"
	"github.com/runnerlab/terrainstream/internal/persist"
	"github.com/runnerlab/terrainstream/internal/pool"
	"github.com/runnerlab/terrainstream/internal/scripting"
	"github.com/runnerlab/terrainstream/internal/system"
	"github.com/runnerlab/terrainstream/internal/world"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, value any) {
	valStr := fmt.Sprint(value)
	dotsLen := 42 - len(label) - len(valStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), valStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

// ── Main loop ──────────────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/terrain.toml"
	if p := os.Getenv("TERRAIN_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	// 3. Template catalog
	printSection("templates")
	catalog, err := data.LoadTemplateCatalog(cfg.Stream.CatalogPath)
	if err != nil {
		return fmt.Errorf("load templates: %w", err)
	}
	printStat("templates", catalog.Count())
	printStat("forced", len(catalog.Forced()))
	printStat("segment width", cfg.Stream.SegmentWidth)
	fmt.Println()

	// 4. Metrics
	reg := prometheus.NewRegistry()
	poolMetrics, err := pool.NewMetrics(reg)
	if err != nil {
		return fmt.Errorf("pool metrics: %w", err)
	}
	if cfg.Metrics.BindAddress != "" {
		srv := &http.Server{
			Addr:              cfg.Metrics.BindAddress,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics endpoint stopped", zap.Error(err))
			}
		}()
		defer srv.Close()
		log.Info("metrics endpoint listening", zap.String("addr", cfg.Metrics.BindAddress))
	}

	// 5. Lanes
	printSection("lanes")
	bus := event.NewBus()
	runner := coresys.NewRunner()
	cam := world.NewScrollCamera(cfg.Viewport.StartX, cfg.Viewport.Width, cfg.Viewport.ScrollSpeed)
	observer := system.NewBusObserver(bus, runner.Ticks)

	seed := cfg.Stream.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	lanes := make([]*world.Lane, 0, len(cfg.Lanes))
	for i, lc := range cfg.Lanes {
		laneCatalog := catalog
		if len(lc.Forced) > 0 {
			if laneCatalog, err = catalog.WithForced(lc.Forced); err != nil {
				return fmt.Errorf("lane %s: %w", lc.Name, err)
			}
		}

		rng := rand.New(rand.NewSource(seed + int64(i)))
		sel, closeSel, err := newSelector(cfg.Stream, rng, log)
		if err != nil {
			return fmt.Errorf("lane %s selector: %w", lc.Name, err)
		}
		defer closeSel()

		lane, err := world.NewLane(world.TrackerConfig{
			Lane:          lc.Name,
			SegmentWidth:  cfg.Stream.SegmentWidth,
			ForwardMargin: cfg.Stream.ForwardMargin,
			BackMargin:    cfg.Stream.BackMargin,
			OriginY:       lc.OriginY,
			Metrics:       poolMetrics,
		}, world.LaneOptions{
			Catalog:  laneCatalog,
			Viewport: cam,
			Selector: sel,
			Observer: observer,
			Log:      log,
		})
		if err != nil {
			return fmt.Errorf("lane %s: %w", lc.Name, err)
		}
		lanes = append(lanes, lane)
		printStat(fmt.Sprintf("%s (y=%g)", lane.Name, lane.OriginY), len(lane.Tracker.Placements()))
	}
	fmt.Println()

	// 6. Systems
	runner.Register(system.NewCameraSystem(cam))
	runner.Register(system.NewEventDispatchSystem(bus))
	for _, lane := range lanes {
		runner.Register(system.NewStreamSystem(lane, log))
	}
	runner.Register(system.NewPoolStatsSystem(lanes, log, cfg.Tick.StatsInterval))

	// 7. Optional journal
	var journal *system.JournalSystem
	if cfg.Database.Enabled {
		printSection("database")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("PostgreSQL connected")

		if err := persist.RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printOK("migrations applied")

		repo := persist.NewJournalRepo(db)
		for _, lane := range lanes {
			last, err := repo.MaxTick(ctx, lane.Name)
			if err != nil {
				return fmt.Errorf("journal: %w", err)
			}
			if last > 0 {
				log.Info("journal has earlier runs", zap.String("lane", lane.Name), zap.Uint64("last_tick", last))
			}
		}
		journal = system.NewJournalSystem(bus, repo, lanes, log, cfg.Database.FlushInterval)
		runner.Register(journal)
		fmt.Println()
	}

	// 8. Tick loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Tick.Rate)
	defer ticker.Stop()

	printOK(fmt.Sprintf("streaming %d lane(s) (tick: %s)", len(lanes), cfg.Tick.Rate))
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Tick.Rate)
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			if journal != nil {
				bus.SwapBuffers()
				bus.DispatchAll()
				journal.Flush()
			}
			for _, lane := range lanes {
				t := lane.Stats().Totals()
				log.Info("lane stopped",
					zap.String("lane", lane.Name),
					zap.Uint64("ticks", runner.Ticks()),
					zap.Int("constructed", t.Constructed),
					zap.Int("pooled", t.Pooled),
				)
			}
			return nil
		}
	}
}

// newSelector builds the configured template selection policy. The returned
// close func releases any resources it holds.
func newSelector(cfg config.StreamConfig, rng *rand.Rand, log *zap.Logger) (world.Selector, func(), error) {
	switch cfg.Selector {
	case "lua":
		s, err := scripting.NewSelector(cfg.SelectorScript, rng, log)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case "cycle":
		return world.CycleSelector{}, func() {}, nil
	default:
		return world.NewRandomSelector(rng), func() {}, nil
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
