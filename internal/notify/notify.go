// Package notify delivers transactional email events emitted after
// gamification state transitions commit. Delivery is fire-and-forget:
// the awarding transaction never waits on, or rolls back for, a
// failed notification.
package notify

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
)

// Event types consumed by the email sender.
const (
	EventBadgeEarned       = "badge_earned"
	EventModuleCompleted   = "module_completed"
	EventQuizPassed        = "quiz_passed"
	EventCertificateIssued = "certificate_issued"
)

// Event is an outbound notification message.
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	UserEmail string                 `json:"user_email"`
	UserName  string                 `json:"user_name"`
	Data      map[string]interface{} `json:"data,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// NewEvent builds an event with a fresh ID and timestamp.
func NewEvent(eventType, email, name string, data map[string]interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserEmail: email,
		UserName:  name,
		Data:      data,
		CreatedAt: time.Now().UTC(),
	}
}

// Publisher is the boundary the transactional core publishes through.
type Publisher interface {
	Publish(event Event)
}

// Sender delivers a single event to the downstream email service.
type Sender interface {
	Send(ctx context.Context, event Event) error
}

// Dispatcher queues events and delivers them on a background worker.
// Publish never blocks: when the queue is full the event is dropped
// and logged, which is an acceptable loss for courtesy email.
type Dispatcher struct {
	sender Sender
	queue  chan Event
}

func NewDispatcher(sender Sender, buffer int) *Dispatcher {
	if buffer <= 0 {
		buffer = 256
	}
	return &Dispatcher{
		sender: sender,
		queue:  make(chan Event, buffer),
	}
}

// Publish enqueues an event for delivery.
func (d *Dispatcher) Publish(event Event) {
	select {
	case d.queue <- event:
	default:
		log.Printf("[notify] queue full, dropping %s event %s for %s", event.Type, event.ID, event.UserEmail)
	}
}

// Run consumes the queue until ctx is cancelled. Send failures are
// logged and the worker moves on.
func (d *Dispatcher) Run(ctx context.Context) {
	log.Println("[notify] dispatcher started")
	for {
		select {
		case <-ctx.Done():
			log.Println("[notify] dispatcher shutting down")
			return
		case event := <-d.queue:
			if err := d.sender.Send(ctx, event); err != nil {
				log.Printf("[notify] failed to send %s event %s to %s: %v", event.Type, event.ID, event.UserEmail, err)
			}
		}
	}
}
