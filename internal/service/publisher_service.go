package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/k-shtanenko/weather-stream/internal/fetcher"
	"github.com/k-shtanenko/weather-stream/internal/logger"
	"github.com/k-shtanenko/weather-stream/internal/models"
	"github.com/k-shtanenko/weather-stream/internal/producer"
	"github.com/k-shtanenko/weather-stream/internal/scheduler"
)

// PublisherService ties the fetch-and-publish pipeline together: one
// upstream HTTP call, one broker publish per invocation. No retries — a
// failure is terminal for that one cycle.
type PublisherService struct {
	fetcher         fetcher.Fetcher
	producer        producer.Producer
	scheduler       scheduler.Scheduler
	logger          logger.Logger
	defaultLocation string
}

func NewPublisherService(
	fetcher fetcher.Fetcher,
	producer producer.Producer,
	scheduler scheduler.Scheduler,
	defaultLocation string,
) *PublisherService {
	return &PublisherService{
		fetcher:         fetcher,
		producer:        producer,
		scheduler:       scheduler,
		logger:          logger.New("info", "development").WithField("component", "publisher_service"),
		defaultLocation: defaultLocation,
	}
}

// FetchAndPublish retrieves current weather for the location, publishes it
// as JSON keyed by the location name, and returns the parsed report. Nothing
// is published when the fetch fails.
func (s *PublisherService) FetchAndPublish(ctx context.Context, location string) (*models.WeatherReport, error) {
	report, err := s.fetcher.Fetch(ctx, location)
	if err != nil {
		s.logger.Errorf("Failed to fetch weather for %s: %v", location, err)
		return nil, err
	}

	if err := s.Publish(ctx, report); err != nil {
		return nil, err
	}

	return report, nil
}

// Publish serializes a caller-supplied report and sends it directly,
// skipping the fetch. The report's own location name becomes the key.
func (s *PublisherService) Publish(ctx context.Context, report *models.WeatherReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		s.logger.Errorf("Failed to serialize report for %s: %v", report.Name, err)
		return &models.SerializationError{Err: err}
	}

	if err := s.producer.Publish(ctx, report.Key(), data); err != nil {
		s.logger.Errorf("Failed to publish report for %s: %v", report.Name, err)
		return err
	}

	s.logger.Infof("Published weather report: %s", report)
	return nil
}

// FetchAndPublishRaw forwards the upstream response body to the topic
// without decoding it, preserving every field the API returned.
func (s *PublisherService) FetchAndPublishRaw(ctx context.Context, location string) ([]byte, error) {
	body, err := s.fetcher.FetchRaw(ctx, location)
	if err != nil {
		s.logger.Errorf("Failed to fetch raw weather for %s: %v", location, err)
		return nil, err
	}

	if err := s.producer.Publish(ctx, location, body); err != nil {
		s.logger.Errorf("Failed to publish raw weather for %s: %v", location, err)
		return nil, err
	}

	s.logger.Infof("Published raw weather payload for %s (%d bytes)", location, len(body))
	return body, nil
}

// Start begins the timer-driven fetch cycle for the default location. Tick
// failures are logged by the scheduler and do not stop future ticks.
func (s *PublisherService) Start(ctx context.Context, interval time.Duration) error {
	s.logger.Infof("Starting publisher for location %q with interval: %v", s.defaultLocation, interval)

	if err := s.scheduler.Schedule(ctx, interval, s.fetchCycle); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	s.logger.Info("Publisher started successfully")
	return nil
}

func (s *PublisherService) Stop() {
	s.logger.Info("Stopping publisher")
	s.scheduler.Stop()

	if err := s.producer.Close(); err != nil {
		s.logger.Errorf("Failed to close producer: %v", err)
	}

	s.logger.Info("Publisher stopped")
}

func (s *PublisherService) fetchCycle(ctx context.Context) error {
	startTime := time.Now()

	report, err := s.FetchAndPublish(ctx, s.defaultLocation)
	if err != nil {
		return fmt.Errorf("scheduled fetch for %s: %w", s.defaultLocation, err)
	}

	s.logger.Infof("Scheduled fetch completed for %s in %v: %s",
		s.defaultLocation, time.Since(startTime), report.TemperatureDisplay())
	return nil
}

func (s *PublisherService) HealthCheck(ctx context.Context) error {
	if err := s.fetcher.HealthCheck(ctx); err != nil {
		return fmt.Errorf("fetcher health check failed: %w", err)
	}

	if err := s.producer.HealthCheck(ctx); err != nil {
		return fmt.Errorf("producer health check failed: %w", err)
	}

	return nil
}
