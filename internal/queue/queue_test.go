package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryPublishConsume(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewInMemory(4)
	messages, err := q.Consume(ctx)
	require.NoError(t, err)

	msg := Message{Type: TypeEmbedRebuild, Body: []byte("CSE001")}
	require.NoError(t, q.Publish(ctx, msg))

	select {
	case got := <-messages:
		assert.Equal(t, TypeEmbedRebuild, got.Type)
		assert.Equal(t, "CSE001", string(got.Body))
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	msg := Message{Type: TypeEmbedRebuild, Body: []byte("CSE001|extra")}
	got, err := deserialize(serialize(msg))
	require.NoError(t, err)
	assert.Equal(t, msg.Type, got.Type)
	assert.Equal(t, msg.Body, got.Body)
}

func TestDeserializeWithoutSeparator(t *testing.T) {
	// A payload without a separator keeps the raw bytes and no type, so the
	// worker's type filter drops it instead of crashing.
	got, err := deserialize("no-separator")
	require.NoError(t, err)
	assert.Empty(t, got.Type)
	assert.Equal(t, "no-separator", string(got.Body))
}
