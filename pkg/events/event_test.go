package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchSubject(t *testing.T) {
	tests := []struct {
		pattern string
		subject string
		want    bool
	}{
		{"events.>", "events.MESSAGE_CREATED", true},
		{"events.>", "events.", false},
		{"events.>", "other.MESSAGE_CREATED", false},
		{"events.USER_LOGIN", "events.USER_LOGIN", true},
		{"events.USER_LOGIN", "events.USER_SIGNED_UP", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MatchSubject(tt.pattern, tt.subject), "%s vs %s", tt.pattern, tt.subject)
	}
}

func TestDecode_RejectsUntypedEvents(t *testing.T) {
	_, err := Decode([]byte(`{"data":{}}`))
	assert.Error(t, err)

	_, err = Decode([]byte(`not json`))
	assert.Error(t, err)
}

func TestChannelBus_DeliversMatchingEvents(t *testing.T) {
	bus := NewChannelBus("test-activity", nil)
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var got []Event
	err := bus.Subscribe(ctx, "events."+TypeMessageCreated, "test", func(ctx context.Context, e Event) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, e)
		return nil
	})
	require.NoError(t, err)

	sessionId := uuid.New()
	require.NoError(t, bus.Publish(ctx, NewUserLogin(uuid.New())))
	require.NoError(t, bus.Publish(ctx, NewMessageCreated(uuid.New(), sessionId, uuid.New(), "user")))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, TypeMessageCreated, got[0].EventType())
	assert.Equal(t, sessionId.String(), got[0].Payload()["session_id"])
}
