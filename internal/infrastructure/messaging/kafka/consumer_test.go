package kafka

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/OceanScout/internal/config"
	"github.com/turtacn/OceanScout/internal/testutil"
	"github.com/turtacn/OceanScout/pkg/types/common"
)

// queueReader serves its queue, then blocks until ctx ends.
type queueReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []kafka.Message
	closed    bool
}

func (r *queueReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		m := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return m, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *queueReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *queueReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *queueReader) commits() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.committed)
}

type dlqRecorder struct {
	mu   sync.Mutex
	msgs []*common.ProducerMessage
	err  error
}

func (p *dlqRecorder) Publish(_ context.Context, msg *common.ProducerMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

func (p *dlqRecorder) sent() []*common.ProducerMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*common.ProducerMessage(nil), p.msgs...)
}

func TestNewConsumer_Validation(t *testing.T) {
	cases := map[string]struct {
		cfg    config.KafkaConfig
		topics []string
	}{
		"no brokers": {config.KafkaConfig{GroupID: "g"}, []string{"t"}},
		"no group":   {config.KafkaConfig{Brokers: []string{"b:9092"}}, []string{"t"}},
		"no topics":  {config.KafkaConfig{Brokers: []string{"b:9092"}, GroupID: "g"}, nil},
	}
	for name, tc := range cases {
		_, err := NewConsumer(tc.cfg, tc.topics, nil, nil)
		assert.Error(t, err, name)
	}
}

func TestConsumer_DispatchesAndCommits(t *testing.T) {
	reader := &queueReader{queue: []kafka.Message{
		{Topic: "analysis.requested", Offset: 7, Value: []byte(`a`), Headers: []kafka.Header{{Key: HeaderEventType, Value: []byte("x")}}},
		{Topic: "unknown", Value: []byte(`b`)},
	}}
	log := testutil.NewMockLogger()
	c := newConsumer(reader, RetryPolicy{}, nil, log)

	var mu sync.Mutex
	var got []*common.Message
	c.Subscribe("analysis.requested", func(_ context.Context, msg *common.Message) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, msg)
		return nil
	})

	require.NoError(t, c.Start(context.Background()))
	assert.ErrorIs(t, c.Start(context.Background()), ErrAlreadyRunning)
	assert.Eventually(t, func() bool { return reader.commits() == 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, c.Close())
	assert.NoError(t, c.Close())
	assert.True(t, reader.closed)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	assert.Equal(t, "x", got[0].Headers[HeaderEventType])
	assert.Equal(t, int64(7), got[0].Offset)
	assert.Equal(t, int64(1), c.Processed())
	assert.True(t, log.HasMessage("warn", "No handler for topic"))
}

func TestConsumer_RetriesThenDeadLetters(t *testing.T) {
	reader := &queueReader{queue: []kafka.Message{{Topic: "analysis.requested", Key: []byte("k"), Value: []byte(`v`)}}}
	dlq := &dlqRecorder{}
	c := newConsumer(reader, RetryPolicy{MaxRetries: 2, Backoff: time.Millisecond, DeadLetterTopic: "analysis.dead_letter"}, dlq, nil)

	var calls atomic.Int32
	c.Subscribe("analysis.requested", func(context.Context, *common.Message) error {
		calls.Add(1)
		return errors.New("handler failed")
	})

	require.NoError(t, c.Start(context.Background()))
	assert.Eventually(t, func() bool { return reader.commits() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, c.Close())

	assert.Equal(t, int32(3), calls.Load())
	sent := dlq.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "analysis.dead_letter", sent[0].Topic)
	assert.Equal(t, []byte("k"), sent[0].Key)
	assert.Equal(t, "analysis.requested", sent[0].Headers[HeaderOriginalTopic])
	assert.Equal(t, "handler failed", sent[0].Headers[HeaderError])
	assert.Equal(t, int64(1), c.DeadLettered())
	assert.Zero(t, c.Processed())
}

func TestConsumer_Process(t *testing.T) {
	ctx := context.Background()

	t.Run("retry succeeds", func(t *testing.T) {
		c := newConsumer(&queueReader{}, RetryPolicy{MaxRetries: 3, Backoff: time.Millisecond}, nil, nil)
		attempts := 0
		err := c.process(ctx, &common.Message{Topic: "t"}, func(context.Context, *common.Message) error {
			if attempts++; attempts < 2 {
				return errors.New("transient")
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 2, attempts)
	})

	t.Run("dead letter failure is not counted", func(t *testing.T) {
		dlq := &dlqRecorder{err: errors.New("dlq down")}
		c := newConsumer(&queueReader{}, RetryPolicy{DeadLetterTopic: "dl"}, dlq, nil)
		err := c.process(ctx, &common.Message{Topic: "t"}, func(context.Context, *common.Message) error {
			return errors.New("boom")
		})
		assert.EqualError(t, err, "boom")
		assert.Zero(t, c.DeadLettered())
	})

	t.Run("cancelled during backoff", func(t *testing.T) {
		c := newConsumer(&queueReader{}, RetryPolicy{MaxRetries: 5, Backoff: time.Hour}, nil, nil)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		err := c.process(cctx, &common.Message{Topic: "t"}, func(context.Context, *common.Message) error {
			return errors.New("boom")
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
