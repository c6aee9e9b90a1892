// Command psm_runner runs the daily position-state-machine cycle, either
// once or on a cron schedule, grounded on the teacher's
// cmd/alpha_watcher/main.go (signal handling, logging setup, poll loop)
// with the poll loop itself replaced by github.com/robfig/cron/v3.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"psm_watchlist/internal/config"
	"psm_watchlist/internal/logger"
	"psm_watchlist/internal/marketdata"
	"psm_watchlist/internal/notify"
	"psm_watchlist/internal/orchestrator"
)

func main() {
	watch := flag.Bool("watch", false, "run on the configured cron schedule instead of once")
	flag.Parse()

	cfg := config.Load()
	logger.Setup("psm_runner.log", cfg.MaxLogSizeMB, cfg.MaxLogBackups)

	client := marketdata.NewClient()
	client.HTTPClient.Timeout = time.Duration(cfg.HTTPTimeoutSec) * time.Second
	runner := &orchestrator.Runner{Fetcher: client, StoreLocation: cfg.StoreLocation}
	telegram := notify.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID, cfg.LogLevel == "DEBUG")

	if !*watch {
		runOnce(runner, telegram)
		return
	}

	c := cron.New()
	_, err := c.AddFunc(cfg.CronSchedule, func() { runOnce(runner, telegram) })
	if err != nil {
		log.Fatalf("psm_runner: invalid cron schedule %q: %v", cfg.CronSchedule, err)
	}
	c.Start()
	log.Printf("psm_runner: watching on schedule %q", cfg.CronSchedule)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, os.Interrupt)
	<-sigCh
	log.Println("psm_runner: received shutdown signal, stopping cron")
	<-c.Stop().Done()
}

func runOnce(runner *orchestrator.Runner, telegram *notify.Telegram) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	result, err := orchestrator.RunDaily(ctx, runner)
	if err != nil {
		log.Printf("psm_runner: daily run failed: %v", err)
		return
	}

	log.Printf("psm_runner: processed %d positions, %d actionable, %d anomalies",
		result.Summary.TotalPositions, result.Summary.ActionableCount, result.Summary.AnomalyCountTotal)

	if result.Summary.ActionableCount > 0 || result.Summary.AnomalyCountTotal > 0 {
		telegram.Notify(notify.FormatDailyMessage(result))
	}
}
