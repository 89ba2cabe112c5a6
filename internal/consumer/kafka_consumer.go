package consumer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/k-shtanenko/weather-stream/internal/logger"
)

// Delivery carries one consumed message together with the broker metadata
// the substrate attaches to it.
type Delivery struct {
	Payload   []byte
	Key       string
	Topic     string
	Partition int32
	Offset    int64
	Timestamp time.Time
}

// Handler processes one delivery. A returned error is logged; the message is
// still marked consumed, so a bad payload never blocks the partition.
type Handler func(ctx context.Context, delivery Delivery) error

type Consumer interface {
	Consume(ctx context.Context, handler Handler) error
	HealthCheck(ctx context.Context) error
	Close() error
}

type KafkaConsumer struct {
	consumer sarama.ConsumerGroup
	broker   string
	topic    string
	groupID  string
	logger   logger.Logger
	wg       sync.WaitGroup
	cancel   context.CancelFunc
}

type consumerHandler struct {
	handler Handler
	logger  logger.Logger
}

func NewKafkaConsumer(broker, topic, groupID string) (*KafkaConsumer, error) {
	config := sarama.NewConfig()
	config.Version = sarama.V2_8_0_0
	config.Consumer.Return.Errors = true
	config.Consumer.Offsets.Initial = sarama.OffsetNewest
	config.Consumer.Group.Rebalance.Strategy = sarama.NewBalanceStrategyRange()
	config.Consumer.MaxProcessingTime = 30 * time.Second
	config.Net.DialTimeout = 30 * time.Second
	config.Net.ReadTimeout = 30 * time.Second
	config.Net.WriteTimeout = 30 * time.Second

	consumer, err := sarama.NewConsumerGroup([]string{broker}, groupID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka consumer: %w", err)
	}

	return &KafkaConsumer{
		consumer: consumer,
		broker:   broker,
		topic:    topic,
		groupID:  groupID,
		logger:   logger.New("info", "development").WithField("component", "kafka_consumer"),
	}, nil
}

func (k *KafkaConsumer) Consume(ctx context.Context, handler Handler) error {
	k.logger.Infof("Starting Kafka consumer for topic: %s, group: %s", k.topic, k.groupID)

	ctx, cancel := context.WithCancel(ctx)
	k.cancel = cancel

	consumerHandler := &consumerHandler{
		handler: handler,
		logger:  k.logger.WithField("handler", "kafka"),
	}

	k.wg.Add(1)
	go func() {
		defer k.wg.Done()
		for {
			select {
			case <-ctx.Done():
				k.logger.Info("Kafka consumer context cancelled, stopping...")
				return
			default:
				if err := k.consumer.Consume(ctx, []string{k.topic}, consumerHandler); err != nil {
					k.logger.Errorf("Error consuming from Kafka: %v", err)
					time.Sleep(5 * time.Second)
				}
			}
		}
	}()

	go func() {
		for err := range k.consumer.Errors() {
			k.logger.Errorf("Kafka consumer error: %v", err)
		}
	}()

	k.logger.Info("Kafka consumer started successfully")
	return nil
}

func (k *KafkaConsumer) Close() error {
	k.logger.Info("Closing Kafka consumer...")

	if k.cancel != nil {
		k.cancel()
	}

	k.wg.Wait()

	if err := k.consumer.Close(); err != nil {
		return fmt.Errorf("failed to close Kafka consumer: %w", err)
	}

	k.logger.Info("Kafka consumer closed successfully")
	return nil
}

func (k *KafkaConsumer) HealthCheck(ctx context.Context) error {
	config := sarama.NewConfig()
	config.Version = sarama.V2_8_0_0
	config.Net.DialTimeout = 5 * time.Second

	client, err := sarama.NewClient([]string{k.broker}, config)
	if err != nil {
		return fmt.Errorf("failed to create Kafka client: %w", err)
	}
	defer client.Close()

	topics, err := client.Topics()
	if err != nil {
		return fmt.Errorf("failed to get topics: %w", err)
	}

	for _, topic := range topics {
		if topic == k.topic {
			return nil
		}
	}

	return fmt.Errorf("topic %s not found", k.topic)
}

func (h *consumerHandler) Setup(sarama.ConsumerGroupSession) error {
	h.logger.Info("Kafka consumer handler setup completed")
	return nil
}

func (h *consumerHandler) Cleanup(sarama.ConsumerGroupSession) error {
	h.logger.Info("Kafka consumer handler cleanup")
	return nil
}

func (h *consumerHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	h.logger.Infof("Starting to consume claims for partition %d", claim.Partition())

	for message := range claim.Messages() {
		select {
		case <-session.Context().Done():
			h.logger.Info("Consumer session context done, stopping consumption")
			return nil
		default:
			delivery := Delivery{
				Payload:   message.Value,
				Key:       string(message.Key),
				Topic:     message.Topic,
				Partition: message.Partition,
				Offset:    message.Offset,
				Timestamp: message.Timestamp,
			}

			if err := h.handler(session.Context(), delivery); err != nil {
				h.logger.Errorf("Failed to handle message at offset %d: %v", message.Offset, err)
			}

			// Handler failures are terminal for that one message: no
			// dead-letter routing, no redelivery.
			session.MarkMessage(message, "")
		}
	}

	return nil
}
