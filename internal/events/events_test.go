package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEnvelope(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.FixedZone("IST", 5*3600+1800))
	ev, err := NewEnvelope(ProductCreated, map[string]any{"name": "Kettle"}, at)
	require.NoError(t, err)

	assert.NotEmpty(t, ev.EventID)
	assert.Equal(t, ProductCreated, ev.Type)
	assert.Equal(t, time.UTC, ev.OccurredAt.Location())
	assert.True(t, ev.OccurredAt.Equal(at))

	var payload map[string]any
	require.NoError(t, json.Unmarshal(ev.Payload, &payload))
	assert.Equal(t, "Kettle", payload["name"])
}

func TestMemory(t *testing.T) {
	t.Parallel()

	m := &Memory{}
	ctx := context.Background()
	for _, typ := range []string{CartItemAdded, OrderPlaced, CartCleared} {
		ev, err := NewEnvelope(typ, nil, time.Now())
		require.NoError(t, err)
		topic := TopicCarts
		if typ == OrderPlaced {
			topic = TopicOrders
		}
		require.NoError(t, m.Publish(ctx, topic, "u1", ev))
	}

	assert.Len(t, m.Events(), 3)
	assert.Equal(t, []string{CartItemAdded, CartCleared}, m.Types(TopicCarts))
	assert.Equal(t, []string{OrderPlaced}, m.Types(TopicOrders))
	assert.NoError(t, m.Close())
}

func TestKafkaPublisher_UnreachableBroker(t *testing.T) {
	t.Parallel()

	p := NewKafkaPublisher([]string{"127.0.0.1:1"})
	defer p.Close()

	ev, err := NewEnvelope(OrderPlaced, map[string]string{"orderId": "o1"}, time.Now())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	assert.Error(t, p.Publish(ctx, TopicOrders, "u1", ev))
}
