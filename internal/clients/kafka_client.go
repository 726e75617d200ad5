package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/spacesedan/subpulse/internal/models"
)

const KAFKA_VERDICT_TOPIC = "subreddit-verdicts"

// KafkaPublisher emits one message per analysis report, keyed by subreddit.
type KafkaPublisher struct {
	producer *kafka.Producer
	topic    string
}

func NewKafkaPublisher(broker, topic string) (*KafkaPublisher, error) {
	if broker == "" {
		broker = "localhost:29092"
	}
	if topic == "" {
		topic = KAFKA_VERDICT_TOPIC
	}

	slog.Info("[KafkaPublisher] Connecting to Kafka", slog.String("broker", broker))
	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":   broker,
		"security.protocol":   "PLAINTEXT",
		"api.version.request": "true",
	})
	if err != nil {
		return nil, fmt.Errorf("[KafkaPublisher] create producer: %w", err)
	}

	slog.Info("[KafkaPublisher] Producer initialized", slog.String("topic", topic))
	return &KafkaPublisher{producer: p, topic: topic}, nil
}

// Publish produces report and waits for its delivery report.
func (p *KafkaPublisher) Publish(ctx context.Context, report models.Report) error {
	msg, err := reportMessage(p.topic, report)
	if err != nil {
		return err
	}

	delivery := make(chan kafka.Event, 1)
	if err := p.producer.Produce(msg, delivery); err != nil {
		return fmt.Errorf("[KafkaPublisher] produce: %w", err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case e := <-delivery:
		m, ok := e.(*kafka.Message)
		if !ok {
			return fmt.Errorf("[KafkaPublisher] unexpected delivery event %T", e)
		}
		if m.TopicPartition.Error != nil {
			return fmt.Errorf("[KafkaPublisher] delivery failed: %w", m.TopicPartition.Error)
		}
	}

	slog.Info("[KafkaPublisher] Published verdict",
		slog.String("subreddit", report.Subreddit),
		slog.String("request_id", report.RequestID))
	return nil
}

func (p *KafkaPublisher) Close() {
	p.producer.Flush(1000)
	p.producer.Close()
	slog.Info("[KafkaPublisher] Producer shut down")
}

func reportMessage(topic string, report models.Report) (*kafka.Message, error) {
	payload, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("[KafkaPublisher] marshal report: %w", err)
	}
	return &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            []byte(report.Subreddit),
		Value:          payload,
		Headers: []kafka.Header{
			{Key: "request_id", Value: []byte(report.RequestID)},
		},
	}, nil
}
