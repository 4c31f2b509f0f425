package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"TouchSentinel/internal/collector"
	"TouchSentinel/internal/config"
	"TouchSentinel/internal/metrics"
	"TouchSentinel/internal/notifier"
	"TouchSentinel/internal/recorder"
	"TouchSentinel/internal/scheduler"
	"TouchSentinel/internal/universe"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	flag.StringVar(&cfgPath, "config", cfgPath, "path to config.yaml")
	once := flag.Bool("once", false, "run a single scan cycle and exit")
	flag.Parse()

	log.Println("[INFO] TouchSentinel monitor starting...")

	// Load config
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}
	anchor, err := cfg.Anchor()
	if err != nil {
		log.Fatalf("[FATAL] resample anchor: %v", err)
	}
	sched, err := cfg.Schedule()
	if err != nil {
		log.Fatalf("[FATAL] schedule: %v", err)
	}

	// Init fetcher
	fetcher := collector.New(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	log.Printf("[INFO] data source: %s", fetcher.Name())
	col := collector.NewCollector(fetcher, cfg.Monitor.EMAPeriod, anchor)

	// Init notifiers
	console := notifier.NewConsoleNotifier()
	notifiers := notifier.Multi{console}
	if cfg.Telegram.BotToken != "" {
		notifiers = append(notifiers, notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy))
		log.Println("[INFO] telegram alerts enabled")
	}

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Init metrics
	m := metrics.NewMetrics()
	if cfg.Metrics.Addr != "" {
		srv := metrics.NewServer(cfg.Metrics.Addr, m)
		srv.Start()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Stop(ctx)
		}()
	}

	// Context for graceful shutdown; checked between cycles only.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s := scheduler.NewScheduler(col, cfg.Monitor.TickerFile, cfg.Monitor.Timeframes, sched, notifiers, rec, m)
	s.Progress = console.Progress

	if *once {
		if _, err := s.RunOnce(ctx); err != nil {
			exit(err)
		}
		return
	}

	if cfg.Monitor.Cron != "" {
		log.Printf("[INFO] scanning all stocks and timeframes on schedule %q", cfg.Monitor.Cron)
	} else {
		log.Printf("[INFO] scanning all stocks and timeframes every %s", cfg.Monitor.SleepInterval)
	}
	log.Println("[INFO] press Ctrl+C to exit")

	if err := s.Run(ctx); err != nil {
		exit(err)
	}
	log.Println("[INFO] TouchSentinel monitor stopped")
}

func exit(err error) {
	if errors.Is(err, universe.ErrNoTickers) {
		return
	}
	log.Fatalf("[FATAL] %v", err)
}
