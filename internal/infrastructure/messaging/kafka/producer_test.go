package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsx0855/cosco-comprehensive-query/internal/application/screening"
	"github.com/zsx0855/cosco-comprehensive-query/internal/domain/risk"
	"github.com/zsx0855/cosco-comprehensive-query/internal/infrastructure/monitoring/logging"
)

type mockKafkaWriter struct {
	written   []kafka.Message
	writeFunc func(ctx context.Context, msgs ...kafka.Message) error
	closed    bool
}

func (m *mockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if m.writeFunc != nil {
		if err := m.writeFunc(ctx, msgs...); err != nil {
			return err
		}
	}
	m.written = append(m.written, msgs...)
	return nil
}

func (m *mockKafkaWriter) Close() error {
	m.closed = true
	return nil
}

func newTestProducer(w WriterInterface) *Producer {
	return NewProducerWithWriter(w, "screening.completed", "screening.jobs", logging.NewNopLogger())
}

func TestProducer_PublishScreeningCompleted(t *testing.T) {
	writer := &mockKafkaWriter{}
	p := newTestProducer(writer)

	ev := screening.CompletedEvent{
		RequestID:   "req-1",
		SubjectID:   "9339301",
		Verdict:     risk.High,
		Changed:     true,
		EvaluatedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, p.PublishScreeningCompleted(context.Background(), ev))

	require.Len(t, writer.written, 1)
	msg := writer.written[0]
	assert.Equal(t, "screening.completed", msg.Topic)
	assert.Equal(t, "9339301", string(msg.Key))

	var got screening.CompletedEvent
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, ev, got)
	assert.Equal(t, int64(1), p.Sent())
}

func TestProducer_EnqueueJob_Screening(t *testing.T) {
	writer := &mockKafkaWriter{}
	p := newTestProducer(writer)

	job := Job{
		Type:      JobTypeScreening,
		Screening: &screening.Request{RequestID: "req-1", SubjectID: "9339301"},
	}
	require.NoError(t, p.EnqueueJob(context.Background(), job))

	require.Len(t, writer.written, 1)
	msg := writer.written[0]
	assert.Equal(t, "screening.jobs", msg.Topic)
	assert.Equal(t, "9339301", string(msg.Key))

	var got Job
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, JobTypeScreening, got.Type)
	assert.False(t, got.EnqueuedAt.IsZero())
}

func TestProducer_EnqueueJob_Resolve(t *testing.T) {
	writer := &mockKafkaWriter{}
	p := newTestProducer(writer)

	require.NoError(t, p.EnqueueJob(context.Background(), Job{Type: JobTypeResolve}))
	require.Len(t, writer.written, 1)
	assert.Equal(t, JobTypeResolve, string(writer.written[0].Key))
}

func TestProducer_EnqueueJob_Invalid(t *testing.T) {
	writer := &mockKafkaWriter{}
	p := newTestProducer(writer)

	err := p.EnqueueJob(context.Background(), Job{Type: "unknown"})
	require.Error(t, err)
	assert.Empty(t, writer.written)

	err = p.EnqueueJob(context.Background(), Job{Type: JobTypeScreening})
	require.Error(t, err)
}

func TestProducer_WriteFailureCounts(t *testing.T) {
	writer := &mockKafkaWriter{
		writeFunc: func(context.Context, ...kafka.Message) error { return assert.AnError },
	}
	p := newTestProducer(writer)

	err := p.PublishScreeningCompleted(context.Background(), screening.CompletedEvent{SubjectID: "s"})
	require.Error(t, err)
	assert.Equal(t, int64(1), p.Failed())
}

func TestProducer_PublishAfterClose(t *testing.T) {
	writer := &mockKafkaWriter{}
	p := newTestProducer(writer)

	require.NoError(t, p.Close())
	assert.True(t, writer.closed)

	err := p.PublishScreeningCompleted(context.Background(), screening.CompletedEvent{SubjectID: "s"})
	assert.Equal(t, ErrProducerClosed, err)

	// Double close is a no-op.
	assert.NoError(t, p.Close())
}
