package kafka

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/OceanScout/internal/config"
	"github.com/turtacn/OceanScout/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/OceanScout/pkg/errors"
	"github.com/turtacn/OceanScout/pkg/types/common"
)

var ErrAlreadyRunning = errors.New(errors.ErrCodeConflict, "consumer already running")

// fetchRetryDelay spaces out fetch attempts while the brokers are down.
const fetchRetryDelay = time.Second

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// DeadLetterPublisher receives records whose handler kept failing.
type DeadLetterPublisher interface {
	Publish(ctx context.Context, msg *common.ProducerMessage) error
}

// RetryPolicy bounds handler retries.  The wait between attempts starts at
// Backoff and doubles up to MaxBackoff.  An empty DeadLetterTopic drops
// failed records after logging them.
type RetryPolicy struct {
	MaxRetries      int
	Backoff         time.Duration
	MaxBackoff      time.Duration
	DeadLetterTopic string
}

// Consumer reads a consumer group and dispatches records to the handler
// subscribed to their topic.  Each record is committed once handled,
// whatever the outcome, so a poison record cannot stall its partition.
type Consumer struct {
	r      messageReader
	policy RetryPolicy
	dlq    DeadLetterPublisher
	logger logging.Logger

	mu       sync.RWMutex
	handlers map[string]common.MessageHandler

	running atomic.Bool
	stop    context.CancelFunc
	done    chan struct{}

	consumed     atomic.Int64
	processed    atomic.Int64
	deadLettered atomic.Int64
}

// NewConsumer joins cfg.GroupID on topics.  Failed records go to the
// prefixed analysis.dead_letter topic through dlq.
func NewConsumer(cfg config.KafkaConfig, topics []string, dlq DeadLetterPublisher, logger logging.Logger) (*Consumer, error) {
	switch {
	case len(cfg.Brokers) == 0:
		return nil, errors.New(errors.ErrCodeValidation, "kafka brokers required")
	case cfg.GroupID == "":
		return nil, errors.New(errors.ErrCodeValidation, "kafka group_id required")
	case len(topics) == 0:
		return nil, errors.New(errors.ErrCodeValidation, "at least one topic required")
	}

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		GroupTopics: topics,
		StartOffset: kafka.FirstOffset,
		Dialer:      &kafka.Dialer{ClientID: cfg.ClientID, Timeout: 10 * time.Second},
	})
	return newConsumer(r, RetryPolicy{
		MaxRetries:      cfg.MaxRetries,
		Backoff:         cfg.RetryBackoff,
		DeadLetterTopic: Topic(cfg.TopicPrefix, TopicAnalysisDeadLetter),
	}, dlq, logger), nil
}

func newConsumer(r messageReader, policy RetryPolicy, dlq DeadLetterPublisher, logger logging.Logger) *Consumer {
	if policy.Backoff <= 0 {
		policy.Backoff = time.Second
	}
	if policy.MaxBackoff <= 0 {
		policy.MaxBackoff = 30 * time.Second
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Consumer{
		r:        r,
		policy:   policy,
		dlq:      dlq,
		logger:   logger.Named("kafka"),
		handlers: make(map[string]common.MessageHandler),
	}
}

// Subscribe routes records of topic to h, replacing any earlier handler.
func (c *Consumer) Subscribe(topic string, h common.MessageHandler) {
	c.mu.Lock()
	c.handlers[topic] = h
	c.mu.Unlock()
	c.logger.Info("Subscribed to topic", logging.String("topic", topic))
}

// Start runs the fetch loop in the background until ctx ends or Close is
// called.
func (c *Consumer) Start(ctx context.Context) error {
	if c.running.Swap(true) {
		return ErrAlreadyRunning
	}
	ctx, c.stop = context.WithCancel(ctx)
	c.done = make(chan struct{})
	go c.loop(ctx)
	c.logger.Info("Kafka consumer started")
	return nil
}

func (c *Consumer) loop(ctx context.Context) {
	defer close(c.done)
	for ctx.Err() == nil {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("Fetch failed", logging.Err(err))
			if !sleep(ctx, fetchRetryDelay) {
				return
			}
			continue
		}
		c.consumed.Add(1)
		c.dispatch(ctx, m)

		if err := c.r.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			c.logger.Error("Commit failed",
				logging.String("topic", m.Topic),
				logging.Int64("offset", m.Offset),
				logging.Err(err))
		}
	}
}

func (c *Consumer) dispatch(ctx context.Context, m kafka.Message) {
	c.mu.RLock()
	h, ok := c.handlers[m.Topic]
	c.mu.RUnlock()
	if !ok {
		c.logger.Warn("No handler for topic", logging.String("topic", m.Topic))
		return
	}

	msg := &common.Message{
		Topic:     m.Topic,
		Partition: m.Partition,
		Offset:    m.Offset,
		Key:       m.Key,
		Value:     m.Value,
		Timestamp: m.Time,
		Headers:   make(map[string]string, len(m.Headers)),
	}
	for _, hdr := range m.Headers {
		msg.Headers[hdr.Key] = string(hdr.Value)
	}
	if err := c.process(ctx, msg, h); err == nil {
		c.processed.Add(1)
	}
}

// process calls h until it succeeds or the retries run out, then
// dead-letters msg.  The last handler error is returned.
func (c *Consumer) process(ctx context.Context, msg *common.Message, h common.MessageHandler) error {
	wait := c.policy.Backoff
	err := h(ctx, msg)
	for attempt := 0; err != nil && attempt < c.policy.MaxRetries; attempt++ {
		if !sleep(ctx, wait) {
			return ctx.Err()
		}
		err = h(ctx, msg)
		if wait *= 2; wait > c.policy.MaxBackoff {
			wait = c.policy.MaxBackoff
		}
	}
	if err == nil {
		return nil
	}

	c.logger.Error("Record failed after retries",
		logging.String("topic", msg.Topic),
		logging.Int64("offset", msg.Offset),
		logging.Int("retries", c.policy.MaxRetries),
		logging.Err(err))
	c.deadLetter(ctx, msg, err)
	return err
}

func (c *Consumer) deadLetter(ctx context.Context, msg *common.Message, cause error) {
	if c.dlq == nil || c.policy.DeadLetterTopic == "" {
		return
	}
	headers := make(map[string]string, len(msg.Headers)+2)
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers[HeaderOriginalTopic] = msg.Topic
	headers[HeaderError] = cause.Error()

	err := c.dlq.Publish(ctx, &common.ProducerMessage{
		Topic:   c.policy.DeadLetterTopic,
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: headers,
	})
	if err != nil {
		c.logger.Error("Dead-letter publish failed", logging.String("topic", c.policy.DeadLetterTopic), logging.Err(err))
		return
	}
	c.deadLettered.Add(1)
}

func (c *Consumer) Processed() int64    { return c.processed.Load() }
func (c *Consumer) DeadLettered() int64 { return c.deadLettered.Load() }

// Close stops the loop, waits for the record in flight and closes the
// reader.  Closing a stopped consumer is a no-op.
func (c *Consumer) Close() error {
	if !c.running.CompareAndSwap(true, false) {
		return nil
	}
	c.stop()
	<-c.done

	err := c.r.Close()
	c.logger.Info("Kafka consumer closed",
		logging.Int64("consumed", c.consumed.Load()),
		logging.Int64("processed", c.processed.Load()),
		logging.Int64("dead_lettered", c.deadLettered.Load()))
	return err
}

// sleep waits d or until ctx ends, reporting whether the full wait elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
