package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"TouchSentinel/internal/collector"
	"TouchSentinel/internal/config"
	"TouchSentinel/internal/metrics"
	"TouchSentinel/internal/recorder"
	"TouchSentinel/internal/screener"
	"TouchSentinel/internal/universe"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	flag.StringVar(&cfgPath, "config", cfgPath, "path to config.yaml")
	start := flag.Int("start", -1, "start index of the ticker list to process (required)")
	end := flag.Int("end", -1, "end index of the ticker list to process (required)")
	flag.Parse()

	if *start < 0 || *end < 0 {
		fmt.Fprintln(os.Stderr, "screener: --start and --end are required non-negative integers")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	tickers, err := universe.LoadCSV(cfg.Screener.InputCSV, cfg.Screener.Column)
	if err != nil {
		log.Fatalf("[FATAL] reading %s: %v", cfg.Screener.InputCSV, err)
	}

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
		} else {
			rec = sr
			defer sr.Close()
		}
	}

	fetcher := collector.New(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	log.Printf("[INFO] data source: %s", fetcher.Name())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s := screener.NewScreener(fetcher, cfg.Screener.Suffix, cfg.Screener.MarketCapThreshold,
		cfg.Screener.QueryDelay, cfg.Screener.OutputFile, rec, metrics.NewMetrics())
	if _, err := s.Run(ctx, tickers, *start, *end); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Println("[INFO] screener stopped, rerun the same range to resume")
			os.Exit(130)
		}
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}
}
