package producer

import (
	"context"
	"errors"
	"time"

	"github.com/IBM/sarama"
	"github.com/k-shtanenko/weather-stream/internal/logger"
	"github.com/k-shtanenko/weather-stream/internal/models"
)

type Producer interface {
	Publish(ctx context.Context, key string, value []byte) error
	HealthCheck(ctx context.Context) error
	Close() error
}

type ProducerFactory interface {
	CreateProducer(broker string, topic string, requiredAcks int16, maxRetries int) (Producer, error)
}

type KafkaProducer struct {
	producer sarama.SyncProducer
	topic    string
	logger   logger.Logger
}

type KafkaProducerFactory struct {
	logger logger.Logger
}

func NewKafkaProducerFactory() *KafkaProducerFactory {
	return &KafkaProducerFactory{logger: logger.New("info", "development").WithField("component", "kafka_producer_factory")}
}

func (f *KafkaProducerFactory) CreateProducer(
	broker string,
	topic string,
	requiredAcks int16,
	maxRetries int,
) (Producer, error) {

	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.RequiredAcks(requiredAcks)
	config.Producer.Retry.Max = maxRetries
	config.Producer.Return.Successes = true
	config.Producer.Timeout = 5 * time.Second

	producer, err := sarama.NewSyncProducer([]string{broker}, config)
	if err != nil {
		return nil, err
	}

	return &KafkaProducer{
		producer: producer,
		topic:    topic,
		logger:   f.logger,
	}, nil
}

// Publish sends one message to the weather topic. The key routes all
// messages for the same location to the same partition.
func (k *KafkaProducer) Publish(ctx context.Context, key string, value []byte) error {
	msg := &sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(value),
	}

	partition, offset, err := k.producer.SendMessage(msg)
	if err != nil {
		k.logger.Errorf("Failed to publish message with key %q: %v", key, err)
		return &models.PublishError{Topic: k.topic, Key: key, Err: err}
	}

	k.logger.Debugf("Published message with key %q to partition %d at offset %d", key, partition, offset)
	return nil
}

func (k *KafkaProducer) HealthCheck(ctx context.Context) error {
	if k.producer == nil {
		return errors.New("kafka producer is nil")
	}

	msg := &sarama.ProducerMessage{
		Topic: "__healthcheck",
		Value: sarama.ByteEncoder([]byte("ping")),
	}

	_, _, err := k.producer.SendMessage(msg)
	return err
}

func (k *KafkaProducer) Close() error {
	if k.producer == nil {
		return nil
	}
	return k.producer.Close()
}
