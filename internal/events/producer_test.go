package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := NewKafkaPublisherWithWriter(w)

	err := p.Publish(context.Background(), TopicOrders, Event{
		Type:    OrderCreated,
		ID:      "order-1",
		Payload: map[string]any{"totalAmount": 12.5},
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, TopicOrders, msg.Topic)
	assert.Equal(t, "order-1", string(msg.Key))
	assert.Equal(t, OrderCreated, string(msg.Headers[0].Value))

	var ev Event
	require.NoError(t, json.Unmarshal(msg.Value, &ev))
	assert.Equal(t, OrderCreated, ev.Type)
	assert.False(t, ev.At.IsZero())

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	boom := errors.New("broker down")
	p := NewKafkaPublisherWithWriter(&fakeWriter{err: boom})

	err := p.Publish(context.Background(), TopicUsers, Event{Type: UserSignedUp, ID: "u"})
	assert.ErrorIs(t, err, boom)
}

func TestKafkaPublisher_MarshalError(t *testing.T) {
	p := NewKafkaPublisherWithWriter(&fakeWriter{})
	err := p.Publish(context.Background(), TopicUsers, Event{Type: UserSignedUp, Payload: make(chan int)})
	assert.Error(t, err)
}
