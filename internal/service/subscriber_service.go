package service

import (
	"context"
	"encoding/json"

	"github.com/k-shtanenko/weather-stream/internal/consumer"
	"github.com/k-shtanenko/weather-stream/internal/logger"
	"github.com/k-shtanenko/weather-stream/internal/models"
)

// SubscriberService handles deliveries from the weather topic. It only logs
// what it receives; processReport is the seam for future business logic.
type SubscriberService struct {
	logger logger.Logger
}

func NewSubscriberService() *SubscriberService {
	return &SubscriberService{
		logger: logger.New("info", "development").WithField("component", "subscriber_service"),
	}
}

// HandleDelivery deserializes one message and passes it on. A payload that
// fails to decode is logged with its raw contents and counted as handled —
// the error never propagates back into the delivery loop.
func (s *SubscriberService) HandleDelivery(ctx context.Context, delivery consumer.Delivery) error {
	s.logger.Infof("Received message from topic %q, partition %d, offset %d, key: %s",
		delivery.Topic, delivery.Partition, delivery.Offset, delivery.Key)

	var report models.WeatherReport
	if err := json.Unmarshal(delivery.Payload, &report); err != nil {
		serErr := &models.SerializationError{Payload: delivery.Payload, Err: err}
		s.logger.Errorf("Failed to deserialize message: %v, raw payload: %s", serErr, string(delivery.Payload))
		return nil
	}

	s.processReport(&report)
	return nil
}

// processReport is where business logic would go: persistence, alerting,
// aggregation. For now the pipeline ends at the log line.
func (s *SubscriberService) processReport(report *models.WeatherReport) {
	s.logger.Infof("Processing weather data for location: %s with temperature: %s",
		report.Name, report.TemperatureDisplay())
}
