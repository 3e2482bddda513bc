package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// EventType represents the kinds of directory activity
type EventType string

const (
	EventGroupCreated  EventType = "group.created"
	EventUserCreated   EventType = "user.created"
	EventPostPublished EventType = "post.published"
	EventFollowAdded   EventType = "follow.added"
)

// Event represents one directory mutation
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Actor     string                 `json:"actor"`
	Data      map[string]interface{} `json:"data"`
	Timestamp int64                  `json:"timestamp"`
}

// NewEvent stamps an event with an ID and the current time
func NewEvent(eventType EventType, actor string, data map[string]interface{}) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Actor:     actor,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	}
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event) error

// Bus is an in-process publish/subscribe channel for directory activity.
// Handlers run synchronously on the publishing goroutine, in subscription
// order.
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	logger   *logrus.Logger
}

// NewBus creates a new Bus instance
func NewBus(logger *logrus.Logger) *Bus {
	if logger == nil {
		logger = logrus.New()
	}

	return &Bus{
		handlers: make(map[EventType][]Handler),
		logger:   logger,
	}
}

// Subscribe registers a handler for an event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	if handler == nil {
		b.logger.WithField("event_type", eventType).Warn("attempted to subscribe nil handler")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	b.logger.WithFields(logrus.Fields{
		"event_type":    eventType,
		"handler_count": len(b.handlers[eventType]),
	}).Debug("handler subscribed to event")
}

// Publish runs every handler registered for the event's type. Handler
// errors are logged and do not stop the remaining handlers.
func (b *Bus) Publish(ctx context.Context, event Event) {
	if event.Type == "" {
		b.logger.Warn("attempted to publish event with empty type")
		return
	}

	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type]))
	copy(handlers, b.handlers[event.Type])
	b.mu.RUnlock()

	if len(handlers) == 0 {
		b.logger.WithField("event_type", event.Type).Debug("no handlers for event type")
		return
	}

	b.logger.WithFields(logrus.Fields{
		"event_type":    event.Type,
		"handler_count": len(handlers),
		"actor":         event.Actor,
	}).Debug("publishing event")

	for _, h := range handlers {
		if err := h(ctx, event); err != nil {
			b.logger.WithFields(logrus.Fields{
				"event_type": event.Type,
				"actor":      event.Actor,
				"error":      err.Error(),
			}).Error("handler failed to process event")
		}
	}
}

// HandlerCount returns the number of handlers for an event type
func (b *Bus) HandlerCount(eventType EventType) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.handlers[eventType])
}

// Clear removes all handlers for an event type, or all handlers if eventType is empty
func (b *Bus) Clear(eventType EventType) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if eventType == "" {
		b.handlers = make(map[EventType][]Handler)
		b.logger.Info("cleared all event handlers")
	} else {
		delete(b.handlers, eventType)
		b.logger.WithField("event_type", eventType).Debug("cleared handlers for event type")
	}
}
