package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/k-shtanenko/weather-stream/internal/api"
	"github.com/k-shtanenko/weather-stream/internal/config"
	"github.com/k-shtanenko/weather-stream/internal/fetcher"
	"github.com/k-shtanenko/weather-stream/internal/logger"
	"github.com/k-shtanenko/weather-stream/internal/producer"
	"github.com/k-shtanenko/weather-stream/internal/scheduler"
	"github.com/k-shtanenko/weather-stream/internal/service"
)

// Publisher wires the fetch-and-publish side: timer-driven cycles plus the
// manual trigger API.
type Publisher struct {
	config *config.Config
	logger logger.Logger
}

func NewPublisher() (*Publisher, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(cfg.App.LogLevel, cfg.App.Env).WithField("service", cfg.App.Name)

	return &Publisher{
		config: cfg,
		logger: log,
	}, nil
}

func (b *Publisher) Run() error {
	b.logger.Info("Starting weather-publisher service")
	b.logger.Infof("Environment: %s", b.config.App.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-signalChan
		b.logger.Infof("Received signal: %v. Shutting down...", sig)
		cancel()
	}()

	weatherFetcher := fetcher.NewOpenWeatherFetcher(
		b.config.OpenWeather.BaseURL,
		b.config.OpenWeather.APIKey,
		b.config.OpenWeather.Units,
	)
	b.logger.Info("OpenWeather fetcher initialized")

	producerFactory := producer.NewKafkaProducerFactory()
	kafkaProducer, err := producerFactory.CreateProducer(
		b.config.Kafka.Broker,
		b.config.Kafka.Topic,
		b.config.Kafka.RequiredAcks,
		b.config.Kafka.MaxRetries,
	)
	if err != nil {
		return fmt.Errorf("failed to create Kafka producer: %w", err)
	}
	b.logger.Info("Kafka producer initialized")

	cronScheduler := scheduler.NewCronScheduler(b.config.Scheduler.Timeout)

	b.logger.Info("Performing initial health checks...")
	healthChecker := NewHealthChecker(
		b.config.HealthCheck.RetryInterval,
		b.config.HealthCheck.MaxRetries,
		Check{Name: "OpenWeather API", Timeout: b.config.HealthCheck.APITimeout, Probe: weatherFetcher.HealthCheck},
		Check{Name: "Kafka", Timeout: b.config.HealthCheck.KafkaTimeout, Probe: kafkaProducer.HealthCheck},
	)

	if err := healthChecker.CheckAll(ctx); err != nil {
		return fmt.Errorf("initial health checks failed: %w", err)
	}

	publisher := service.NewPublisherService(
		weatherFetcher,
		kafkaProducer,
		cronScheduler,
		b.config.OpenWeather.DefaultLocation,
	)

	b.logger.Infof("Starting publisher for %q, interval: %v",
		b.config.OpenWeather.DefaultLocation, b.config.Scheduler.Interval)

	if err := publisher.Start(ctx, b.config.Scheduler.Interval); err != nil {
		return fmt.Errorf("failed to start publisher: %w", err)
	}

	apiServer := api.NewAPIServer(
		publisher,
		api.NewMiddleware(b.config.API.RateLimit, b.config.API.RateWindow),
		b.config,
	)
	if err := apiServer.Start(); err != nil {
		return fmt.Errorf("failed to start API server: %w", err)
	}

	<-ctx.Done()

	b.logger.Info("Stopping service...")
	if err := apiServer.Stop(context.Background()); err != nil {
		b.logger.Errorf("Failed to stop API server: %v", err)
	}
	publisher.Stop()

	b.logger.Info("Service stopped gracefully")
	return nil
}
