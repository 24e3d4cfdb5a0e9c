package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaSink publishes every audit event to a Kafka topic for downstream
// compliance and SIEM consumers. The Postgres store remains the queryable
// source; the topic is a fan-out.
type KafkaSink struct {
	client *kgo.Client
	topic  string
}

// kafkaEvent is the wire payload. Field names are part of the topic contract.
type kafkaEvent struct {
	ID        string            `json:"id"`
	Timestamp string            `json:"timestamp"`
	ActorID   string            `json:"actor_id"`
	TargetID  string            `json:"target_id"`
	Action    string            `json:"action"`
	Details   map[string]string `json:"details,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// NewKafkaSink connects to the brokers and ensures the topic exists.
func NewKafkaSink(ctx context.Context, brokers []string, topic string) (*KafkaSink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchMaxBytes(1<<20),
		kgo.RecordRetries(5),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	admin := kadm.NewClient(client)
	// Idempotent: already-exists responses are not errors we care about.
	if _, err := admin.CreateTopic(ctx, 1, 1, nil, topic); err != nil {
		topics, listErr := admin.ListTopics(ctx, topic)
		if listErr != nil || !topics.Has(topic) {
			client.Close()
			return nil, fmt.Errorf("ensure audit topic: %w", err)
		}
	}

	return &KafkaSink{client: client, topic: topic}, nil
}

// Publish produces one record keyed by actor so per-actor ordering holds.
func (s *KafkaSink) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(kafkaEvent{
		ID:        event.ID.String(),
		Timestamp: event.Timestamp.Format(time.RFC3339Nano),
		ActorID:   event.ActorID.String(),
		TargetID:  event.TargetID.String(),
		Action:    string(event.Action),
		Details:   event.Details,
		RequestID: event.RequestID,
	})
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}

	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.ActorID.String()),
		Value: payload,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit record: %w", err)
	}
	return nil
}

// Close flushes and releases the producer.
func (s *KafkaSink) Close() {
	s.client.Close()
}
