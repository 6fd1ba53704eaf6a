package main

import (
	"fmt"
	"net/http"

	"github.com/i474232898/umbrella-agent/internal/agent"
	"github.com/i474232898/umbrella-agent/internal/config"
	"github.com/i474232898/umbrella-agent/internal/events"
	"github.com/i474232898/umbrella-agent/internal/notify"
	"github.com/i474232898/umbrella-agent/internal/observability"
	"github.com/i474232898/umbrella-agent/internal/store"
	"github.com/i474232898/umbrella-agent/internal/weather"
	"github.com/i474232898/umbrella-agent/internal/weather/providers"
	"github.com/sirupsen/logrus"
)

// buildProvider returns the configured provider first, followed by the
// other one when it has an API key.
func buildProvider(cfg *config.AppConfig) weather.Provider {
	client := &http.Client{Timeout: cfg.WeatherTimeout}

	openWeather := providers.NewOpenWeatherProvider(client, cfg.OpenWeatherAPIKey, providers.WithBaseURL(cfg.OpenWeatherBaseURL))
	weatherAPI := providers.NewWeatherAPIProvider(client, cfg.WeatherAPIKey, providers.WithBaseURL(cfg.WeatherAPIBaseURL))

	if cfg.WeatherProvider == config.ProviderWeatherAPI {
		if cfg.OpenWeatherAPIKey == "" {
			return providers.NewChain(weatherAPI)
		}
		return providers.NewChain(weatherAPI, openWeather)
	}
	if cfg.WeatherAPIKey == "" {
		return providers.NewChain(openWeather)
	}
	return providers.NewChain(openWeather, weatherAPI)
}

func buildSender(cfg *config.AppConfig, logger logrus.FieldLogger, dryRun bool) notify.Sender {
	if dryRun {
		return notify.NewDryRunSender(logger)
	}
	return notify.NewSMTPNotifier(notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		Timeout:  cfg.SMTPTimeout,
	}, logger)
}

func buildStore(cfg *config.AppConfig, logger logrus.FieldLogger) (store.Store, error) {
	if cfg.StoreDriver == config.StoreSQLite {
		return store.NewSQLite(cfg.SQLitePath, logger)
	}
	return store.NewMemoryStore(), nil
}

func buildPublisher(cfg *config.AppConfig) (events.Publisher, error) {
	switch cfg.EventsSink {
	case config.SinkKafka:
		return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	case config.SinkAMQP:
		p, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return nil, fmt.Errorf("connect events sink: %w", err)
		}
		return p, nil
	}
	return events.Noop{}, nil
}

func buildAgent(cfg *config.AppConfig, sender notify.Sender, logger logrus.FieldLogger, opts ...agent.Option) *agent.Agent {
	return agent.NewAgent(buildProvider(cfg), sender, agent.Config{
		FetchTimeout: cfg.WeatherTimeout,
		SendTimeout:  cfg.SMTPTimeout,
		Rule:         cfg.UmbrellaRule(),
		Retry: agent.BackoffConfig{
			MaxRetries:      cfg.RetryMaxAttempts,
			InitialInterval: cfg.RetryInitialInterval,
			MaxInterval:     cfg.RetryMaxInterval,
		},
	}, logger, opts...)
}

func loadConfig() (*config.AppConfig, *logrus.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	return cfg, logger, nil
}
