package events

import (
	"context"
	"encoding/json"
	"fmt"

	"chesshive/backend/internal/logger"
	"chesshive/backend/internal/models"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

const flushTimeoutMs = 5000

type KafkaPublisher struct {
	producer *kafka.Producer
	topic    string
	doneCh   chan struct{}
}

func NewKafkaPublisher(brokers, topic string) (*KafkaPublisher, error) {
	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
		"acks":              "1",
		"linger.ms":         5,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	kp := &KafkaPublisher{
		producer: p,
		topic:    topic,
		doneCh:   make(chan struct{}),
	}
	go kp.deliveryReportHandler()

	return kp, nil
}

func (kp *KafkaPublisher) deliveryReportHandler() {
	for e := range kp.producer.Events() {
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				l := logger.L()
				l.Warn().Err(ev.TopicPartition.Error).Str("topic", kp.topic).Msg("kafka delivery failed")
			}
		case kafka.Error:
			l := logger.L()
			l.Warn().Err(ev).Msg("kafka producer error")
		}
	}
	close(kp.doneCh)
}

// PublishPersisted enqueues the event keyed by room, so that every event of a room
// lands on the same partition in order.
func (kp *KafkaPublisher) PublishPersisted(ctx context.Context, msg *models.ChatMessage) error {
	value, err := json.Marshal(NewMessagePersisted(msg))
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = kp.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &kp.topic,
			Partition: kafka.PartitionAny,
		},
		Key:   []byte(msg.Room),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(TypeMessagePersisted)},
		},
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to produce event: %w", err)
	}
	return nil
}

func (kp *KafkaPublisher) Close() error {
	kp.producer.Flush(flushTimeoutMs)
	kp.producer.Close()
	<-kp.doneCh
	return nil
}
