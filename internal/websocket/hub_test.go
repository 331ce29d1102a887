package websocket

import (
	"context"
	"testing"
	"time"

	"career-chat-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub(nil, logger.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	return hub, cancel
}

func TestHub_DeliversToEveryConnectionOfTheUser(t *testing.T) {
	hub, stop := startHub(t)
	defer stop()

	userID := uuid.New()
	laptop := &Client{Hub: hub, UserID: userID, Send: make(chan []byte, 4)}
	phone := &Client{Hub: hub, UserID: userID, Send: make(chan []byte, 4)}
	stranger := &Client{Hub: hub, UserID: uuid.New(), Send: make(chan []byte, 4)}
	for _, c := range []*Client{laptop, phone, stranger} {
		require.True(t, hub.join(c))
	}
	require.Eventually(t, func() bool { return hub.Connected(userID) == 2 }, time.Second, 5*time.Millisecond)

	hub.Send(context.Background(), userID, []byte(`{"type":"SESSION_TITLED"}`))

	assert.Equal(t, `{"type":"SESSION_TITLED"}`, string(<-laptop.Send))
	assert.Equal(t, `{"type":"SESSION_TITLED"}`, string(<-phone.Send))
	assert.Empty(t, stranger.Send)
}

func TestHub_LeaveClosesSendOnce(t *testing.T) {
	hub, stop := startHub(t)
	defer stop()

	c := &Client{Hub: hub, UserID: uuid.New(), Send: make(chan []byte, 1)}
	require.True(t, hub.join(c))
	require.Eventually(t, func() bool { return hub.Connected(c.UserID) == 1 }, time.Second, 5*time.Millisecond)

	hub.leave(c)
	hub.leave(c)

	require.Eventually(t, func() bool { return hub.Connected(c.UserID) == 0 }, time.Second, 5*time.Millisecond)
	_, open := <-c.Send
	assert.False(t, open)
}

func TestHub_DropsSlowConsumers(t *testing.T) {
	hub, stop := startHub(t)
	defer stop()

	c := &Client{Hub: hub, UserID: uuid.New(), Send: make(chan []byte, 1)}
	require.True(t, hub.join(c))
	require.Eventually(t, func() bool { return hub.Connected(c.UserID) == 1 }, time.Second, 5*time.Millisecond)

	hub.Send(context.Background(), c.UserID, []byte("1"))
	hub.Send(context.Background(), c.UserID, []byte("2")) // buffer full

	require.Eventually(t, func() bool { return hub.Connected(c.UserID) == 0 }, time.Second, 5*time.Millisecond)
}

func TestHub_StoppedHubRejectsJoins(t *testing.T) {
	hub, stop := startHub(t)
	stop()

	require.Eventually(t, func() bool {
		select {
		case <-hub.done:
			return true
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)

	assert.False(t, hub.join(&Client{Hub: hub, UserID: uuid.New(), Send: make(chan []byte)}))
}

func TestHub_RunStopsRedisSubscriberOnCancel(t *testing.T) {
	// nothing listens here, so the subscriber sits waiting on its channel
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer rdb.Close()

	hub := NewHub(rdb, logger.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	returned := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(returned)
	}()

	cancel()
	select {
	case <-returned:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.False(t, hub.join(&Client{Hub: hub, UserID: uuid.New(), Send: make(chan []byte, 1)}))
}
