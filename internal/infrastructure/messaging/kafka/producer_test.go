package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/OceanScout/internal/config"
	pkgerrors "github.com/turtacn/OceanScout/pkg/errors"
	"github.com/turtacn/OceanScout/pkg/types/common"
)

type fakeWriter struct {
	written []kafka.Message
	err     error
	closes  int
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.written = append(w.written, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closes++
	return nil
}

func message(topic, key, value string) *common.ProducerMessage {
	return &common.ProducerMessage{
		Topic:   topic,
		Key:     []byte(key),
		Value:   []byte(value),
		Headers: map[string]string{HeaderEventType: EventAnalysisCompleted},
	}
}

func TestNewProducer(t *testing.T) {
	_, err := NewProducer(config.KafkaConfig{}, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeValidation))

	p, err := NewProducer(config.KafkaConfig{Brokers: []string{"localhost:9092"}}, nil)
	require.NoError(t, err)
	assert.NoError(t, p.Close())
}

func TestRequiredAcks(t *testing.T) {
	assert.Equal(t, kafka.RequireAll, requiredAcks(-1))
	assert.Equal(t, kafka.RequireNone, requiredAcks(0))
	assert.Equal(t, kafka.RequireOne, requiredAcks(1))
	assert.Equal(t, kafka.RequireOne, requiredAcks(3))
}

func TestProducer_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, nil)

	require.NoError(t, p.Publish(context.Background(), message("analysis.completed", "yoga mat", "{}")))

	require.Len(t, w.written, 1)
	m := w.written[0]
	assert.Equal(t, "analysis.completed", m.Topic)
	assert.Equal(t, "yoga mat", string(m.Key))
	assert.Equal(t, []kafka.Header{{Key: HeaderEventType, Value: []byte(EventAnalysisCompleted)}}, m.Headers)
	assert.WithinDuration(t, time.Now(), m.Time, time.Minute)
	assert.Equal(t, int64(1), p.Sent())
}

func TestProducer_KeepsMessageTimestamp(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, nil)
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	msg := message("t", "k", "v")
	msg.Timestamp = ts
	require.NoError(t, p.Publish(context.Background(), msg))
	assert.Equal(t, ts, w.written[0].Time)
}

func TestProducer_RejectsBadMessages(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, nil)
	ctx := context.Background()

	for name, msg := range map[string]*common.ProducerMessage{
		"no topic":  message("", "k", "v"),
		"no value":  message("t", "k", ""),
		"too large": {Topic: "t", Value: make([]byte, maxMessageBytes+1)},
	} {
		assert.True(t, pkgerrors.IsCode(p.Publish(ctx, msg), pkgerrors.ErrCodeValidation), name)
	}
	assert.Empty(t, w.written)
	assert.Zero(t, p.Failed())
}

func TestProducer_WriteFailure(t *testing.T) {
	p := newProducer(&fakeWriter{err: errors.New("broker down")}, nil)

	err := p.Publish(context.Background(), message("analysis.completed", "k", "v"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeMessagePublish))
	assert.Contains(t, err.Error(), "topic=analysis.completed")
	assert.Equal(t, int64(1), p.Failed())
	assert.Zero(t, p.Sent())
}

func TestProducer_Close(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, nil)

	assert.NoError(t, p.Close())
	assert.NoError(t, p.Close())
	assert.Equal(t, 1, w.closes)
	assert.ErrorIs(t, p.Publish(context.Background(), message("t", "k", "v")), ErrProducerClosed)
}
