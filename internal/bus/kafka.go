package bus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/opensource-finance/adjudicator/internal/domain"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Record headers carried alongside the raw payload.
const (
	headerMessageID = "message-id"
	headerTimestamp = "timestamp"
)

// KafkaBus implements EventBus using Kafka.
// Payloads are written as-is; the message ID and timestamp travel as headers.
type KafkaBus struct {
	mu            sync.Mutex
	producer      *kgo.Client
	config        domain.EventBusConfig
	subscriptions map[string]*kafkaSubscription
	closed        bool
}

type kafkaSubscription struct {
	bus    *KafkaBus
	id     string
	topic  string
	client *kgo.Client
	cancel context.CancelFunc
	done   chan struct{}
}

// NewKafkaBus creates a Kafka-backed event bus and verifies broker reachability.
func NewKafkaBus(cfg domain.EventBusConfig) (*KafkaBus, error) {
	if len(cfg.KafkaBrokers) == 0 {
		cfg.KafkaBrokers = []string{"localhost:9092"}
	}
	if cfg.KafkaClientID == "" {
		cfg.KafkaClientID = "adjudicator"
	}
	if cfg.KafkaGroup == "" {
		cfg.KafkaGroup = "adjudicator"
	}

	producer, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.KafkaBrokers...),
		kgo.ClientID(cfg.KafkaClientID),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := producer.Ping(ctx); err != nil {
		producer.Close()
		return nil, fmt.Errorf("failed to reach kafka brokers: %w", err)
	}

	slog.Info("Kafka connected", "brokers", cfg.KafkaBrokers, "group", cfg.KafkaGroup)

	return &KafkaBus{
		producer:      producer,
		config:        cfg,
		subscriptions: make(map[string]*kafkaSubscription),
	}, nil
}

// Publish produces one record and waits for the broker acknowledgement.
func (b *KafkaBus) Publish(ctx context.Context, topic string, key string, payload []byte) error {
	if topic == "" {
		return fmt.Errorf("topic is required")
	}

	now := time.Now()
	record := &kgo.Record{
		Topic: topic,
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: headerMessageID, Value: []byte(uuid.New().String())},
			{Key: headerTimestamp, Value: []byte(strconv.FormatInt(now.UnixNano(), 10))},
		},
		Timestamp: now,
	}
	if key != "" {
		record.Key = []byte(key)
	}

	if err := b.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("failed to produce to %s: %w", topic, err)
	}
	return nil
}

// Subscribe joins the configured consumer group on topic and delivers
// records to handler from a polling goroutine.
func (b *KafkaBus) Subscribe(ctx context.Context, topic string, handler domain.MessageHandler) (domain.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, fmt.Errorf("bus is closed")
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(b.config.KafkaBrokers...),
		kgo.ClientID(b.config.KafkaClientID),
		kgo.ConsumerGroup(b.config.KafkaGroup),
		kgo.ConsumeTopics(topic),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka consumer: %w", err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := &kafkaSubscription{
		bus:    b,
		id:     uuid.New().String(),
		topic:  topic,
		client: client,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go sub.poll(subCtx, handler)

	b.subscriptions[sub.id] = sub
	return sub, nil
}

func (s *kafkaSubscription) poll(ctx context.Context, handler domain.MessageHandler) {
	defer close(s.done)

	for {
		fetches := s.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return
		}

		for _, fe := range fetches.Errors() {
			if errors.Is(fe.Err, context.Canceled) {
				return
			}
			slog.Error("kafka fetch error",
				"topic", fe.Topic,
				"partition", fe.Partition,
				"error", fe.Err,
			)
		}

		fetches.EachRecord(func(r *kgo.Record) {
			msg := messageFromRecord(r)
			if err := handler(ctx, msg); err != nil {
				slog.Error("handler error",
					"topic", r.Topic,
					"message_id", msg.ID,
					"offset", r.Offset,
					"error", err,
				)
			}
		})
	}
}

func messageFromRecord(r *kgo.Record) *domain.Message {
	msg := &domain.Message{
		Topic:     r.Topic,
		Key:       string(r.Key),
		Payload:   r.Value,
		Metadata:  make(map[string]string, len(r.Headers)),
		Timestamp: r.Timestamp.UnixNano(),
	}
	for _, h := range r.Headers {
		switch h.Key {
		case headerMessageID:
			msg.ID = string(h.Value)
		case headerTimestamp:
			if ts, err := strconv.ParseInt(string(h.Value), 10, 64); err == nil {
				msg.Timestamp = ts
			}
		default:
			msg.Metadata[h.Key] = string(h.Value)
		}
	}
	if msg.ID == "" {
		msg.ID = fmt.Sprintf("%s-%d-%d", r.Topic, r.Partition, r.Offset)
	}
	return msg
}

// Ping checks broker reachability.
func (b *KafkaBus) Ping(ctx context.Context) error {
	return b.producer.Ping(ctx)
}

// Close stops all consumers and flushes the producer.
func (b *KafkaBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	subs := b.subscriptions
	b.subscriptions = make(map[string]*kafkaSubscription)
	b.mu.Unlock()

	for _, sub := range subs {
		sub.stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := b.producer.Flush(ctx); err != nil {
		slog.Warn("kafka flush on close failed", "error", err)
	}
	b.producer.Close()
	return nil
}

func (s *kafkaSubscription) stop() {
	s.cancel()
	s.client.Close()
	<-s.done
}

// Unsubscribe leaves the consumer group.
func (s *kafkaSubscription) Unsubscribe() error {
	s.bus.mu.Lock()
	delete(s.bus.subscriptions, s.id)
	s.bus.mu.Unlock()

	s.stop()
	return nil
}

// Topic returns the subscribed topic.
func (s *kafkaSubscription) Topic() string {
	return s.topic
}
