package kafka

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/zsx0855/cosco-comprehensive-query/internal/application/screening"
	"github.com/zsx0855/cosco-comprehensive-query/internal/config"
	"github.com/zsx0855/cosco-comprehensive-query/internal/infrastructure/monitoring/logging"
	"github.com/zsx0855/cosco-comprehensive-query/pkg/errors"
)

var ErrProducerClosed = errors.New(errors.ErrCodeMessageQueueError, "kafka producer closed")

// WriterInterface abstracts kafka.Writer for testing.
type WriterInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes screening completion events and enqueues background
// jobs. It satisfies the screening service's EventPublisher.
type Producer struct {
	writer         WriterInterface
	screeningTopic string
	jobTopic       string
	logger         logging.Logger

	closed atomic.Bool
	sent   atomic.Int64
	failed atomic.Int64
}

func NewProducer(cfg config.KafkaConfig, log logging.Logger) *Producer {
	if log == nil {
		log = logging.NewNopLogger()
	}
	maxAttempts := cfg.ProducerRetries + 1
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	batchSize := cfg.BatchSize
	if batchSize == 0 {
		batchSize = 100
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		MaxAttempts:  maxAttempts,
		BatchSize:    batchSize,
		BatchTimeout: time.Second,
		RequiredAcks: kafka.RequireAll,
	}
	return &Producer{
		writer:         writer,
		screeningTopic: cfg.ScreeningTopic,
		jobTopic:       cfg.JobTopic,
		logger:         log.Named("kafka.producer"),
	}
}

// NewProducerWithWriter wraps an existing writer. Used by tests.
func NewProducerWithWriter(w WriterInterface, screeningTopic, jobTopic string, log logging.Logger) *Producer {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Producer{
		writer:         w,
		screeningTopic: screeningTopic,
		jobTopic:       jobTopic,
		logger:         log,
	}
}

// PublishScreeningCompleted emits one completion event keyed by subject so
// downstream consumers see a subject's verdicts in order.
func (p *Producer) PublishScreeningCompleted(ctx context.Context, ev screening.CompletedEvent) error {
	return p.publish(ctx, p.screeningTopic, ev.SubjectID, ev)
}

// EnqueueJob puts a background job on the job topic.
func (p *Producer) EnqueueJob(ctx context.Context, job Job) error {
	if err := job.Validate(); err != nil {
		return err
	}
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now().UTC()
	}
	return p.publish(ctx, p.jobTopic, job.Key(), job)
}

func (p *Producer) publish(ctx context.Context, topic, key string, payload interface{}) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}
	value, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode kafka payload")
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
		Time:  time.Now(),
	})
	if err != nil {
		p.failed.Add(1)
		return errors.Wrap(err, errors.ErrCodeMessageQueueError, "failed to publish kafka message")
	}
	p.sent.Add(1)
	p.logger.Debug("Message published",
		logging.String("topic", topic),
		logging.String("key", key))
	return nil
}

// Sent returns the number of successfully published messages.
func (p *Producer) Sent() int64 { return p.sent.Load() }

// Failed returns the number of failed publishes.
func (p *Producer) Failed() int64 { return p.failed.Load() }

func (p *Producer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := p.writer.Close()
	p.logger.Info("Kafka producer closed", logging.Int64("sent", p.sent.Load()))
	return err
}
