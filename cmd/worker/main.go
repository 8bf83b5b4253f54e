package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"billing/internal/bootstrap"
	"billing/internal/infra"
)

var (
	runOnce = flag.Bool("run-once", false, "run the account jobs once and exit")
	runDate = flag.String("date", "", "day to process (YYYY-MM-DD); defaults to today, only used with -run-once")
)

func main() {
	flag.Parse()
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv).With().Str("cmd", "worker").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	comps, err := bootstrap.Build(ctx, cfg, infra.NewSQLRunner(pool, logger), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to build billing service")
	}
	jobs := &accountJobs{
		service:    comps.Service,
		remindDays: cfg.ExpirationRemindDays,
		logger:     logger,
	}

	if *runOnce {
		day := time.Now().UTC()
		if *runDate != "" {
			day, err = time.Parse("2006-01-02", *runDate)
			if err != nil {
				logger.Fatal().Err(err).Msg("worker: invalid -date")
			}
		}
		if err := jobs.Run(ctx, day); err != nil {
			logger.Fatal().Err(err).Msg("worker: account jobs failed")
		}
		return
	}

	c := cron.New(cron.WithLocation(time.UTC))
	_, err = c.AddFunc(cfg.WorkerSchedule, func() {
		if err := jobs.Run(ctx, time.Now().UTC()); err != nil {
			logger.Error().Err(err).Msg("worker: account jobs failed")
		}
	})
	if err != nil {
		logger.Fatal().Err(err).Str("schedule", cfg.WorkerSchedule).Msg("worker: invalid WORKER_SCHEDULE")
	}
	c.Start()
	logger.Info().Str("schedule", cfg.WorkerSchedule).Ints("remind_days", cfg.ExpirationRemindDays).Msg("worker: started")

	<-ctx.Done()
	logger.Info().Msg("worker: shutting down")
	<-c.Stop().Done()
	logger.Info().Msg("worker: stopped")
}
