package domain

import (
	"context"
)

// EventBus defines the interface for event-driven communication.
// Backed by Go channels, NATS, or Kafka.
type EventBus interface {
	// Publish sends a message to a topic. Key groups related messages,
	// e.g. every event of one claim, and becomes the Kafka record key.
	Publish(ctx context.Context, topic string, key string, payload []byte) error

	// Subscribe registers a handler for a topic.
	// Returns a subscription that can be used to unsubscribe.
	Subscribe(ctx context.Context, topic string, handler MessageHandler) (Subscription, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// MessageHandler processes incoming messages.
type MessageHandler func(ctx context.Context, msg *Message) error

// Message represents an event message.
type Message struct {
	ID        string            `json:"id"`
	Topic     string            `json:"topic"`
	Key       string            `json:"key,omitempty"`
	Payload   []byte            `json:"payload"`
	Metadata  map[string]string `json:"metadata"`
	Timestamp int64             `json:"timestamp"`
}

// Subscription represents an active subscription.
type Subscription interface {
	// Unsubscribe stops receiving messages.
	Unsubscribe() error

	// Topic returns the subscribed topic.
	Topic() string
}

// EventBusConfig holds configuration for event bus initialization.
type EventBusConfig struct {
	// Type is the bus type: "channel", "nats" or "kafka"
	Type string `yaml:"type" mapstructure:"type"`

	// Channel settings
	ChannelBufferSize int `yaml:"channel_buffer_size" mapstructure:"channel_buffer_size"`

	// NATS settings
	NATSUrl           string `yaml:"nats_url" mapstructure:"nats_url"`
	NATSToken         string `yaml:"nats_token" mapstructure:"nats_token"`
	NATSMaxReconnects int    `yaml:"nats_max_reconnects" mapstructure:"nats_max_reconnects"`
	NATSReconnectWait int    `yaml:"nats_reconnect_wait" mapstructure:"nats_reconnect_wait"` // seconds
	NATSQueue         string `yaml:"nats_queue" mapstructure:"nats_queue"`                   // queue group shared by replicas

	// Kafka settings
	KafkaBrokers  []string `yaml:"kafka_brokers" mapstructure:"kafka_brokers"`
	KafkaGroup    string   `yaml:"kafka_group" mapstructure:"kafka_group"`
	KafkaClientID string   `yaml:"kafka_client_id" mapstructure:"kafka_client_id"`
}

// Topic names.
const (
	TopicClaimEvents        = "insurance.claims"
	TopicUnderwritingEvents = "insurance.underwriting"
	TopicPolicyEvents       = "insurance.policies"
	TopicClaimIntake        = "insurance.claims.intake"
)
