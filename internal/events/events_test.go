package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEvent() CheckEvent {
	return CheckEvent{
		RunID:       "run-1",
		Email:       "u@test.com",
		City:        "Mainz",
		CountryCode: "DE",
		Status:      "notified",
		Notified:    true,
		Reason:      "Weather condition: rain",
		Condition:   "rain",
		Provider:    "openweathermap",
		CheckedAt:   time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC),
	}
}

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w}

	require.NoError(t, p.Publish(context.Background(), sampleEvent()))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "u@test.com", string(msg.Key))

	var got CheckEvent
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, sampleEvent(), got)

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "notified", headers["status"])
	assert.Equal(t, "2026-03-01T07:00:00Z", headers["checked_at"])

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestNewKafkaWriter_DoesNotWaitForBatches(t *testing.T) {
	w := newKafkaWriter([]string{"k1:9092"}, "umbrella-checks")
	defer w.Close()

	assert.Equal(t, "umbrella-checks", w.Topic)
	assert.Equal(t, 1, w.BatchSize)
	assert.LessOrEqual(t, w.BatchTimeout, 10*time.Millisecond)
	assert.Equal(t, kafkago.RequireAll, w.RequiredAcks)
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	p := &KafkaPublisher{writer: &fakeWriter{err: errors.New("broker down")}}
	assert.EqualError(t, p.Publish(context.Background(), sampleEvent()), "broker down")
}

type fakeChannel struct {
	exchange string
	key      string
	msg      amqp.Publishing
	closed   bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestAMQPPublisher_Publish(t *testing.T) {
	ch := &fakeChannel{}
	p := &AMQPPublisher{channel: ch, exchange: "umbrella.checks"}

	require.NoError(t, p.Publish(context.Background(), sampleEvent()))
	assert.Equal(t, "umbrella.checks", ch.exchange)
	assert.Equal(t, "notified", ch.key)
	assert.Equal(t, "application/json", ch.msg.ContentType)
	assert.Equal(t, "run-1", ch.msg.MessageId)
	assert.Equal(t, amqp.Persistent, ch.msg.DeliveryMode)

	var got CheckEvent
	require.NoError(t, json.Unmarshal(ch.msg.Body, &got))
	assert.Equal(t, "Mainz", got.City)

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestNoop(t *testing.T) {
	var p Publisher = Noop{}
	assert.NoError(t, p.Publish(context.Background(), sampleEvent()))
	assert.NoError(t, p.Close())
}
