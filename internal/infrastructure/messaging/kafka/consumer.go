package kafka

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/zsx0855/cosco-comprehensive-query/internal/config"
	"github.com/zsx0855/cosco-comprehensive-query/internal/infrastructure/monitoring/logging"
	"github.com/zsx0855/cosco-comprehensive-query/pkg/errors"
)

var ErrConsumerClosed = errors.New(errors.ErrCodeMessageQueueError, "kafka consumer closed")

// ReaderInterface abstracts kafka.Reader for testing.
type ReaderInterface interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// JobHandler processes one decoded job. A non-nil error triggers the
// consumer's retry policy.
type JobHandler func(ctx context.Context, job Job) error

// Consumer reads jobs from the job topic and hands them to a handler.
// Messages that cannot be decoded or validated are committed and skipped
// so one poison message does not wedge the partition.
type Consumer struct {
	reader       ReaderInterface
	handler      JobHandler
	logger       logging.Logger
	maxRetries   int
	retryBackoff time.Duration

	closed    atomic.Bool
	processed atomic.Int64
	failed    atomic.Int64
	skipped   atomic.Int64
}

func NewConsumer(cfg config.KafkaConfig, worker config.WorkerConfig, handler JobHandler, log logging.Logger) *Consumer {
	if log == nil {
		log = logging.NewNopLogger()
	}
	startOffset := kafka.FirstOffset
	if cfg.AutoOffsetReset == "latest" {
		startOffset = kafka.LastOffset
	}
	commitInterval := worker.CommitInterval
	if commitInterval == 0 {
		commitInterval = time.Second
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.GroupID,
		Topic:          cfg.JobTopic,
		StartOffset:    startOffset,
		CommitInterval: commitInterval,
		MinBytes:       1,
		MaxBytes:       10 * 1024 * 1024,
	})
	return &Consumer{
		reader:       reader,
		handler:      handler,
		logger:       log.Named("kafka.consumer"),
		maxRetries:   worker.MaxRetries,
		retryBackoff: worker.RetryBackoff,
	}
}

// NewConsumerWithReader wraps an existing reader. Used by tests.
func NewConsumerWithReader(r ReaderInterface, handler JobHandler, maxRetries int, retryBackoff time.Duration, log logging.Logger) *Consumer {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Consumer{
		reader:       r,
		handler:      handler,
		logger:       log,
		maxRetries:   maxRetries,
		retryBackoff: retryBackoff,
	}
}

// Run consumes until ctx is cancelled or the consumer is closed. The
// context error is swallowed on shutdown so callers can treat a clean
// cancel as success.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		if c.closed.Load() {
			return ErrConsumerClosed
		}
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if c.closed.Load() {
				return ErrConsumerClosed
			}
			return errors.Wrap(err, errors.ErrCodeMessageQueueError, "failed to fetch kafka message")
		}

		c.process(ctx, msg)

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, errors.ErrCodeMessageQueueError, "failed to commit kafka message")
		}
	}
}

func (c *Consumer) process(ctx context.Context, msg kafka.Message) {
	var job Job
	if err := json.Unmarshal(msg.Value, &job); err != nil {
		c.skipped.Add(1)
		c.logger.Error("Skipping undecodable job message",
			logging.String("key", string(msg.Key)),
			logging.Err(err))
		return
	}
	if err := job.Validate(); err != nil {
		c.skipped.Add(1)
		c.logger.Error("Skipping invalid job",
			logging.String("type", job.Type),
			logging.Err(err))
		return
	}

	var err error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.retryBackoff):
			}
		}
		if err = c.handler(ctx, job); err == nil {
			c.processed.Add(1)
			return
		}
		c.logger.Warn("Job handler failed",
			logging.String("type", job.Type),
			logging.Int("attempt", attempt+1),
			logging.Err(err))
	}
	// Retries exhausted. The job is committed anyway; verdict history in
	// postgres lets an operator replay it.
	c.failed.Add(1)
	c.logger.Error("Job abandoned after retries",
		logging.String("type", job.Type),
		logging.Err(err))
}

// Processed returns the number of successfully handled jobs.
func (c *Consumer) Processed() int64 { return c.processed.Load() }

// Failed returns the number of jobs abandoned after retries.
func (c *Consumer) Failed() int64 { return c.failed.Load() }

// Skipped returns the number of undecodable or invalid messages.
func (c *Consumer) Skipped() int64 { return c.skipped.Load() }

func (c *Consumer) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := c.reader.Close()
	c.logger.Info("Kafka consumer closed",
		logging.Int64("processed", c.processed.Load()),
		logging.Int64("failed", c.failed.Load()))
	return err
}
