package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu     sync.Mutex
	events []Event
	want   int
	done   chan struct{}
}

func (s *recordingSender) Send(_ context.Context, event Event) error {
	s.mu.Lock()
	s.events = append(s.events, event)
	n := len(s.events)
	s.mu.Unlock()
	if n == s.want {
		close(s.done)
	}
	return nil
}

func TestDispatcherDelivers(t *testing.T) {
	sender := &recordingSender{want: 3, done: make(chan struct{})}
	d := NewDispatcher(sender, 8)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	for i := 0; i < 3; i++ {
		d.Publish(NewEvent(EventQuizPassed, "ana@example.com", "Ana", nil))
	}

	select {
	case <-sender.done:
	case <-time.After(2 * time.Second):
		t.Fatal("events were not delivered")
	}

	sender.mu.Lock()
	defer sender.mu.Unlock()
	require.Len(t, sender.events, 3)
	for _, e := range sender.events {
		assert.Equal(t, EventQuizPassed, e.Type)
		assert.NotEmpty(t, e.ID)
	}
}

func TestPublishNeverBlocksWhenFull(t *testing.T) {
	// No worker draining: the queue fills and further publishes
	// must drop instead of hanging.
	d := NewDispatcher(LogSender{}, 1)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			d.Publish(NewEvent(EventBadgeEarned, "ana@example.com", "Ana", nil))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full queue")
	}
}

func TestWebhookSender(t *testing.T) {
	var got Event
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	sender := NewWebhookSender(srv.URL, "secret-key")
	event := NewEvent(EventBadgeEarned, "ana@example.com", "Ana", map[string]interface{}{"badge_name": "First Steps"})

	require.NoError(t, sender.Send(context.Background(), event))
	assert.Equal(t, "Bearer secret-key", auth)
	assert.Equal(t, event.ID, got.ID)
	assert.Equal(t, "First Steps", got.Data["badge_name"])
}

func TestWebhookSenderErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	sender := NewWebhookSender(srv.URL, "")
	err := sender.Send(context.Background(), NewEvent(EventQuizPassed, "ana@example.com", "Ana", nil))
	assert.Error(t, err)
}
