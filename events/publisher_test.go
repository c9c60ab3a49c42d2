package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingPublisher struct {
	keys     []string
	payloads [][]byte
	err      error
}

func (r *recordingPublisher) Publish(_ context.Context, key string, payload []byte) error {
	r.keys = append(r.keys, key)
	r.payloads = append(r.payloads, payload)
	return r.err
}

func (r *recordingPublisher) Close() error { return nil }

func TestEmitter_PublishesEnvelope(t *testing.T) {
	pub := &recordingPublisher{}
	NewEmitter(pub, zap.NewNop()).Emit(context.Background(), Event{Type: OrderPlaced, OrderID: "o-1", TotalCents: 25500})

	require.Len(t, pub.payloads, 1)
	assert.Equal(t, "o-1", pub.keys[0])
	var evt Event
	require.NoError(t, json.Unmarshal(pub.payloads[0], &evt))
	assert.Equal(t, OrderPlaced, evt.Type)
	assert.Equal(t, int64(25500), evt.TotalCents)
	assert.False(t, evt.Timestamp.IsZero())
}

func TestEmitter_SwallowsPublishErrors(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	assert.NotPanics(t, func() {
		NewEmitter(pub, zap.NewNop()).Emit(context.Background(), Event{Type: PaymentSucceeded, OrderID: "o-2"})
	})
	assert.Len(t, pub.payloads, 1)
}

type fakeAttrPublisher struct {
	topic string
	attrs map[string]string
}

func (f *fakeAttrPublisher) PublishWithAttributes(_ context.Context, topicArn string, _ []byte, attrs map[string]string) error {
	f.topic = topicArn
	f.attrs = attrs
	return nil
}

func TestSNSPublisher_SetsEventTypeAttribute(t *testing.T) {
	fake := &fakeAttrPublisher{}
	p := &SNSPublisher{client: fake, topicArn: "arn:aws:sns:us-east-1:000000000000:orders"}
	payload, _ := json.Marshal(Event{Type: OrderStatusChanged, OrderID: "o-3"})

	require.NoError(t, p.Publish(context.Background(), "o-3", payload))
	assert.Equal(t, "arn:aws:sns:us-east-1:000000000000:orders", fake.topic)
	assert.Equal(t, OrderStatusChanged, fake.attrs["event_type"])
	assert.Equal(t, "o-3", fake.attrs["order_id"])
}

type fakeWriter struct {
	msgs []kafka.Message
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func TestKafkaPublisher_KeysByOrder(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w, topic: "orders"}

	require.NoError(t, p.Publish(context.Background(), "o-4", []byte(`{}`)))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, []byte("o-4"), w.msgs[0].Key)
}
