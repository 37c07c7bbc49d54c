package main

import (
	"context"
	"flag"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"arbbot-go/internal/config"
	"arbbot-go/internal/engine"
	"arbbot-go/internal/fill"
	"arbbot-go/internal/hedge"
	"arbbot-go/internal/journal"
	"arbbot-go/internal/metrics"
	"arbbot-go/internal/pricing"
	"arbbot-go/internal/risk"
	"arbbot-go/internal/util"
	"arbbot-go/internal/venue"
)

// streamedMaker trades against the simulated maker book but takes order
// status pushes from a live websocket feed.
type streamedMaker struct {
	*venue.SimMaker
	stream *venue.StatusStream
}

func (s *streamedMaker) StreamOrderStatus(ctx context.Context, out chan<- venue.OrderStatusUpdate) error {
	return s.stream.Run(ctx, out)
}

func main() {
	configPath := flag.String("config", "internal/config/config.yaml", "path to config file")
	flag.Parse()

	_ = godotenv.Load()

	log := util.NewLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	log = util.NewLogger(cfg.App.LogLevel)

	mode, err := pricing.ParseMode(cfg.Strategy.Mode)
	if err != nil {
		log.Fatal().Err(err).Msg("parse pricing mode")
	}

	_ = metrics.Serve(cfg.App.MetricsAddr)
	log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.Maker.APIKeyEnv != "" && os.Getenv(cfg.Maker.APIKeyEnv) == "" {
		log.Warn().Str("env", cfg.Maker.APIKeyEnv).Msg("maker credentials not set")
	}
	if cfg.Hedge.APIKeyEnv != "" && os.Getenv(cfg.Hedge.APIKeyEnv) == "" {
		log.Warn().Str("env", cfg.Hedge.APIKeyEnv).Msg("hedge credentials not set")
	}

	sim := venue.NewSimMaker(1.01, 0.02)
	var maker venue.MakerClient = sim
	if cfg.Maker.StatusStreamURL != "" {
		maker = &streamedMaker{
			SimMaker: sim,
			stream:   venue.NewStatusStream(cfg.Maker.StatusStreamURL, log),
		}
		log.Info().Str("url", cfg.Maker.StatusStreamURL).Msg("using websocket status stream")
	}
	hedgeVenue := venue.NewSimHedge(1.011, 0.002, 1)

	policy := hedge.RetryPolicy{
		MaxAttempts: cfg.Engine.HedgeMaxAttempts,
		BaseDelay:   msDuration(cfg.Engine.HedgeBackoffBaseMs),
		MaxDelay:    msDuration(cfg.Engine.HedgeBackoffMaxMs),
	}
	hedger := hedge.NewExecutor(hedgeVenue, policy, cfg.Engine.MaxInFlightHedges, log)

	limits := risk.Limits{
		MaxPositionSize: cfg.Risk.MaxPositionSize,
		MaxDailyTrades:  cfg.Risk.MaxDailyTrades,
		StopLossPct:     cfg.Risk.StopLossPct,
		EquityBase:      cfg.Risk.EquityBase,
	}
	riskCtl := risk.NewController(limits, nil, log)

	var opts []engine.Option
	if cfg.Engine.FillsPath != "" {
		recorder, err := fill.NewJSONLRecorder(cfg.Engine.FillsPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.Engine.FillsPath).Msg("open fill recorder")
		}
		defer recorder.Close()
		opts = append(opts, engine.WithRecorder(recorder))
	}
	var store *journal.Store
	if cfg.Engine.JournalPath != "" {
		store, err = journal.Open(cfg.Engine.JournalPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.Engine.JournalPath).Msg("open hedge journal")
		}
		defer store.Close()
		opts = append(opts, engine.WithJournal(store))
	}

	eng := engine.New(engine.Config{
		Pair:                 cfg.Maker.Pair,
		Mode:                 mode,
		Params:               pricing.Params{MidOffset: cfg.Strategy.MidOffset, OrderSize: cfg.Strategy.OrderSize},
		LoopInterval:         cfg.Engine.LoopInterval(),
		ErrorRetry:           cfg.Engine.ErrorRetry(),
		PriceUpdateThreshold: cfg.Engine.PriceUpdateThreshold,
		ShutdownTimeout:      cfg.Engine.ShutdownTimeout(),
	}, maker, hedger, riskCtl, log, opts...)

	if err := eng.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("start engine")
	}
	log.Info().
		Str("pair", cfg.Maker.Pair).
		Str("mode", mode.String()).
		Float64("order_size", cfg.Strategy.OrderSize).
		Msg("trading engine started")

	<-ctx.Done()
	log.Info().Msg("shutting down")
	if err := eng.Stop(); err != nil {
		log.Error().Err(err).Msg("shutdown drain failed")
	}

	snap := eng.PositionSnapshot()
	log.Info().
		Float64("net_inventory", snap.NetInventory).
		Float64("realized_pnl", snap.RealizedPnL).
		Int("daily_trades", snap.DailyTrades).
		Msg("final position")
}

func msDuration(ms int) time.Duration {
	if ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}
