package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/k-shtanenko/weather-stream/internal/config"
	"github.com/k-shtanenko/weather-stream/internal/consumer"
	"github.com/k-shtanenko/weather-stream/internal/logger"
	"github.com/k-shtanenko/weather-stream/internal/service"
)

// Subscriber wires the consuming side: one consumer group, one logging
// handler. It shares nothing with the publisher but the topic.
type Subscriber struct {
	config *config.Config
	logger logger.Logger
}

func NewSubscriber() (*Subscriber, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(cfg.App.LogLevel, cfg.App.Env).WithField("service", cfg.App.Name+"-subscriber")

	return &Subscriber{
		config: cfg,
		logger: log,
	}, nil
}

// brokerHealthChecker builds the startup checker probing the broker through
// the consumer before the group joins.
func (b *Subscriber) brokerHealthChecker(probe func(ctx context.Context) error) *HealthChecker {
	return NewHealthChecker(
		b.config.HealthCheck.RetryInterval,
		b.config.HealthCheck.MaxRetries,
		Check{Name: "Kafka", Timeout: b.config.HealthCheck.KafkaTimeout, Probe: probe},
	)
}

func (b *Subscriber) Run() error {
	b.logger.Info("Starting weather-subscriber service")
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

	kafkaConsumer, err := consumer.NewKafkaConsumer(
		b.config.Kafka.Broker,
		b.config.Kafka.Topic,
		b.config.Kafka.GroupID,
	)
	if err != nil {
		return fmt.Errorf("failed to create Kafka consumer: %w", err)
	}
	b.logger.Info("Kafka consumer initialized")

	b.logger.Info("Performing initial health checks...")
	if err := b.brokerHealthChecker(kafkaConsumer.HealthCheck).CheckAll(ctx); err != nil {
		return fmt.Errorf("initial health checks failed: %w", err)
	}

	subscriber := service.NewSubscriberService()

	if err := kafkaConsumer.Consume(ctx, subscriber.HandleDelivery); err != nil {
		return fmt.Errorf("failed to start consumer: %w", err)
	}

	<-ctx.Done()

	b.logger.Info("Stopping service...")
	if err := kafkaConsumer.Close(); err != nil {
		b.logger.Errorf("Failed to close consumer: %v", err)
	}

	b.logger.Info("Service stopped gracefully")
	return nil
}
