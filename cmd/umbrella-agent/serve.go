package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"

	"github.com/i474232898/umbrella-agent/internal/agent"
	httpapi "github.com/i474232898/umbrella-agent/internal/api/http"
	"github.com/i474232898/umbrella-agent/internal/observability"
	"github.com/i474232898/umbrella-agent/internal/reminder"
	"github.com/i474232898/umbrella-agent/internal/scheduler"
	"github.com/i474232898/umbrella-agent/internal/subscription"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the daily scheduler (default)",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	metrics := observability.NewMetrics()

	subs, err := buildStore(cfg, log)
	if err != nil {
		return err
	}
	defer subs.Close()

	publisher, err := buildPublisher(cfg)
	if err != nil {
		return err
	}
	defer publisher.Close()

	checker := buildAgent(cfg, buildSender(cfg, log, false), log,
		agent.WithPublisher(publisher),
		agent.WithMetrics(metrics),
	)

	sched := scheduler.New(checker, scheduler.Options{
		Location: cfg.SchedulerTimezone,
		Workers:  cfg.SchedulerWorkers,
		Metrics:  metrics,
		Logger:   log,
	})
	svc := reminder.NewService(subs, checker, sched, cfg.DailyCheckAt, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := svc.Restore(ctx); err != nil {
		log.WithError(err).Warn("some stored subscriptions could not be scheduled")
	}
	if cfg.SubscriptionsFile != "" {
		reqs, err := subscription.LoadSeedFile(cfg.SubscriptionsFile)
		if err != nil {
			return err
		}
		n := svc.Seed(ctx, reqs)
		log.WithField("registered", n).WithField("file", cfg.SubscriptionsFile).Info("seed subscriptions loaded")
	}

	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	// Registration runs a full check inline.
	requestTimeout := cfg.WeatherTimeout + cfg.SMTPTimeout + 10*time.Second

	app := fiber.New(fiber.Config{
		AppName:               "umbrella-agent",
		DisableStartupMessage: true,
		ReadTimeout:           requestTimeout,
		WriteTimeout:          requestTimeout,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	httpapi.RegisterRoutes(app, svc)

	go func() {
		log.WithField("port", cfg.Port).Info("http server listening")
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.WithError(err).Error("fiber server stopped")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.WithError(err).Error("error during shutdown")
	}
	return nil
}
