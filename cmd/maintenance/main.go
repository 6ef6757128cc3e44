package main

import (
	"context"
	"flag"
	"log"
	"time"

	"roombooking/internal/app"
	"roombooking/internal/clock"
	"roombooking/internal/config"
	"roombooking/internal/database"
	"roombooking/internal/domain/notification"
	"roombooking/internal/domain/reservation"
	"roombooking/internal/logger"
)

// maintenance runs the scheduled jobs once, for deployments without a
// long-running API process (cron on the host, Kubernetes CronJob).
func main() {
	keep := flag.Duration("keep-read", 30*24*time.Hour, "how long read notifications are kept")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zl, err := logger.New(cfg.LogLevel, cfg.LogFormat, "roombooking-maintenance")
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	clk, err := clock.LoadSystem(cfg.Timezone)
	if err != nil {
		log.Fatalf("timezone: %v", err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	notifications := notification.NewService(notification.NewRepository(db), nil, clk, cfg.Policy.RatingWindow, zl)

	// The sweep only rejects, so neither the gate nor the mailer is consulted.
	engine := reservation.NewEngine(reservation.NewStore(db), nil, notifications, nil, clk, app.PolicyFromConfig(cfg.Policy), zl)

	swept, err := engine.SweepStalePending(ctx)
	if err != nil {
		log.Fatalf("pending sweep failed: %v", err)
	}
	purged, err := notifications.PurgeRead(ctx, *keep)
	if err != nil {
		log.Fatalf("notification purge failed: %v", err)
	}

	log.Printf("maintenance completed: stale_pending=%d read_notifications=%d", swept, purged)
}
