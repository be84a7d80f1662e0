package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jwalitptl/appointment-api/pkg/messaging"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisBroker_PublishSubscribe(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	broker := NewRedisBroker(client, zerolog.Nop())
	t.Cleanup(func() { _ = broker.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgs, err := broker.Subscribe(ctx, messaging.UserChannel("u1"))
	require.NoError(t, err)

	require.NoError(t, broker.Publish(ctx, messaging.UserChannel("u1"), messaging.Message{
		Type:  "appointment_approved",
		Title: "Appointment approved",
	}))

	select {
	case raw := <-msgs:
		var got messaging.Message
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, "appointment_approved", got.Type)
		assert.Equal(t, "Appointment approved", got.Title)
	case <-time.After(2 * time.Second):
		t.Fatal("message not delivered")
	}
}

func TestRedisBroker_PublishFailsWhenServerDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr(), MaxRetries: -1})
	broker := NewRedisBroker(client, zerolog.Nop())
	t.Cleanup(func() { _ = broker.Close() })

	mr.Close()
	err := broker.Publish(context.Background(), "any", map[string]string{"a": "b"})
	assert.Error(t, err)
}

func TestNewClient_BadURL(t *testing.T) {
	_, err := NewClient(Config{URL: "://nope"})
	assert.Error(t, err)
}
