package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"complytrack/pkg/platform/circuit"
)

// ErrCircuitOpen is returned when events are dropped because the broker has
// been failing.
var ErrCircuitOpen = errors.New("event publisher circuit open")

// KafkaPublisher produces events keyed by item id so consumers see the
// changes to one item in order.
type KafkaPublisher struct {
	client  *kgo.Client
	topic   string
	breaker *circuit.Breaker
	logger  *slog.Logger
	metrics *Metrics
}

type KafkaOption func(*KafkaPublisher)

func WithLogger(logger *slog.Logger) KafkaOption {
	return func(p *KafkaPublisher) {
		p.logger = logger
	}
}

func WithMetrics(m *Metrics) KafkaOption {
	return func(p *KafkaPublisher) {
		p.metrics = m
	}
}

func WithBreaker(b *circuit.Breaker) KafkaOption {
	return func(p *KafkaPublisher) {
		p.breaker = b
	}
}

// NewKafka connects a producer to the given brokers.
func NewKafka(brokers []string, topic string, opts ...KafkaOption) (*KafkaPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	p := &KafkaPublisher{
		client:  client,
		topic:   topic,
		breaker: circuit.New("events"),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// EnsureTopic creates the topic if it does not exist yet.
func (p *KafkaPublisher) EnsureTopic(ctx context.Context, partitions int32, replication int16) error {
	admin := kadm.NewClient(p.client)
	resp, err := admin.CreateTopic(ctx, partitions, replication, nil, p.topic)
	if err == nil {
		err = resp.Err
	}
	if err != nil && !errors.Is(err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", p.topic, err)
	}
	return nil
}

// Publish produces synchronously. When the breaker is open events are
// dropped and counted.
func (p *KafkaPublisher) Publish(ctx context.Context, events ...Event) error {
	if len(events) == 0 {
		return nil
	}
	if !p.breaker.Allow() {
		if p.metrics != nil {
			p.metrics.IncDropped(len(events))
		}
		return ErrCircuitOpen
	}

	records := make([]*kgo.Record, 0, len(events))
	for _, e := range events {
		payload, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encode event: %w", err)
		}
		records = append(records, &kgo.Record{
			Key:   []byte(e.ItemID.String()),
			Value: payload,
			Headers: []kgo.RecordHeader{
				{Key: "type", Value: []byte(e.Type)},
			},
		})
	}

	if err := p.client.ProduceSync(ctx, records...).FirstErr(); err != nil {
		_, change := p.breaker.RecordFailure()
		if p.metrics != nil {
			p.metrics.IncFailed(len(events))
			p.metrics.SetBreakerOpen(p.breaker.IsOpen())
		}
		if change.Opened {
			p.logger.WarnContext(ctx, "event publisher circuit opened", "topic", p.topic, "error", err)
		}
		return fmt.Errorf("produce events: %w", err)
	}

	_, change := p.breaker.RecordSuccess()
	if change.Closed {
		p.logger.InfoContext(ctx, "event publisher circuit closed", "topic", p.topic)
	}
	if p.metrics != nil {
		p.metrics.IncPublished(len(events))
		p.metrics.SetBreakerOpen(false)
	}
	return nil
}

// Close releases the underlying client.
func (p *KafkaPublisher) Close() {
	p.client.Close()
}
