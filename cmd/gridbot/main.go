// Command gridbot runs the grid-trading bot's tick loop against a
// configured price feed and venue: flag-driven startup, .env loading,
// startup/config table rendering, and signal-driven shutdown.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/ducminhle1904/solgrid-bot/internal/bot"
	"github.com/ducminhle1904/solgrid-bot/internal/config"
	"github.com/ducminhle1904/solgrid-bot/internal/exchange/bybit"
	"github.com/ducminhle1904/solgrid-bot/internal/feed"
	"github.com/ducminhle1904/solgrid-bot/internal/logger"
	"github.com/ducminhle1904/solgrid-bot/internal/venue"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	var (
		configFile   = flag.String("config", "configs/gridbot.json", "Path to the JSON configuration file")
		envFile      = flag.String("env", ".env", "Environment file path")
		dryRun       = flag.Bool("dry-run", true, "Use simulated venue adapters instead of live ones")
		durationMins = flag.Int("duration-minutes", 0, "Stop after this many minutes (0 = run until a shutdown signal)")
		metricsAddr  = flag.String("metrics-addr", ":9090", "Address to serve /metrics and /healthz on")
	)
	flag.Parse()

	if err := loadEnvFile(*envFile); err != nil {
		log.Printf("warning: could not load %s (%v), using process environment", *envFile, err)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Printf("warning: could not load %s (%v), using defaults", *configFile, err)
		cfg = config.DefaultConfig()
	}
	cfg.DryRun = cfg.DryRun || *dryRun

	fmt.Println("Grid Bot Starting...")
	fmt.Println()
	printStartupTable(cfg)

	appLogger, err := logger.NewLogger(sanitizeForFilename(cfg.Venue.Symbol), "grid")
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer appLogger.Close()

	priceFeed, err := buildFeed(cfg)
	if err != nil {
		log.Fatalf("failed to build price feed: %v", err)
	}

	router, signer, rpc := buildVenue(cfg)

	b := bot.New(cfg, bot.Deps{Feed: priceFeed, Router: router, Signer: signer, RPC: rpc, Log: appLogger})

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", b.Health())
	go func() {
		if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
			appLogger.LogWarning("metrics-server", "stopped: %v", err)
		}
	}()

	ctx := context.Background()
	if *durationMins > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(*durationMins)*time.Minute)
		defer cancel()
	}

	if err := b.Run(ctx); err != nil && err != context.DeadlineExceeded && err != context.Canceled {
		appLogger.LogError("run", err)
		log.Fatalf("bot exited with error: %v", err)
	}

	exportSessionJournal(b)
	fmt.Println("Bot stopped.")
}

func buildFeed(cfg config.Config) (feed.PriceFeed, error) {
	switch cfg.Venue.PriceFeedKind {
	case "websocket":
		wsCfg := feed.DefaultWebSocketConfig(cfg.Venue.PriceFeedURL, cfg.Venue.PriceFeedStream)
		return feed.NewWebSocketFeed(wsCfg), nil
	case "bybit":
		client := bybit.NewClient(bybit.Config{Testnet: cfg.DryRun})
		return feed.NewBybitFeed(client, feed.DefaultBybitConfig(cfg.Venue.Symbol)), nil
	case "replay":
		return feed.NewReplayFeed(nil, 0), nil
	default:
		return nil, fmt.Errorf("unknown price_feed_kind %q", cfg.Venue.PriceFeedKind)
	}
}

func buildVenue(cfg config.Config) (venue.SwapRouter, venue.Signer, venue.RPC) {
	router := venue.NewSimulatedRouter(1.0)
	signer := venue.NewSimulatedSigner("simulated-pubkey", cfg.Risk.MaxDailyVolume, cfg.Risk.MaxDailyTrades, cfg.Risk.MaxPositionSize)

	endpoints := make([]venue.RPC, len(cfg.Venue.RPCEndpoints))
	for i := range cfg.Venue.RPCEndpoints {
		endpoints[i] = venue.NewSimulatedRPC(50 * time.Millisecond)
	}
	pool := venue.NewEndpointPool(endpoints, 3, 30*time.Second, 20, 10)
	return router, signer, pool
}

func exportSessionJournal(b *bot.Bot) {
	path := fmt.Sprintf("reports/session_%s.xlsx", time.Now().Format("20060102_150405"))
	if err := b.Journal().ExportXLSX(path); err != nil {
		log.Printf("warning: could not export trade journal: %v", err)
		return
	}
	fmt.Printf("Trade journal written to %s\n", path)
}

func printStartupTable(cfg config.Config) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("BOT INITIALIZATION")
	t.SetStyle(table.StyleRounded)

	mode := "dry-run (simulated venue)"
	if !cfg.DryRun {
		mode = "live"
	}

	t.AppendRows([]table.Row{
		{"Symbol", cfg.Venue.Symbol},
		{"Price Feed", cfg.Venue.PriceFeedKind},
		{"Grid Levels", cfg.Trading.GridLevels},
		{"Mode", mode},
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 15, WidthMax: 15, Align: text.AlignLeft},
		{Number: 2, WidthMin: 30, WidthMax: 35, Align: text.AlignLeft},
	})

	t.Render()
	fmt.Println()
}

func loadEnvFile(envFile string) error {
	if _, err := os.Stat(envFile); err == nil {
		return godotenv.Load(envFile)
	}
	return fmt.Errorf("env file %s not found", envFile)
}

func sanitizeForFilename(symbol string) string {
	out := make([]rune, 0, len(symbol))
	for _, r := range symbol {
		if r == '/' || r == '\\' {
			out = append(out, '-')
			continue
		}
		out = append(out, r)
	}
	return string(out)
}
