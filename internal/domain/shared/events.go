// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"encoding/json"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each one is published after the change it describes
// has been persisted.
const (
	// Student events
	EventStudentRegistered EventType = "student.registered"
	EventStudentUpdated    EventType = "student.updated"
	EventStudentDeleted    EventType = "student.deleted"

	// Social events
	EventFriendAdded  EventType = "social.friend_added"
	EventFriendsReset EventType = "social.friends_reset"

	// System events
	EventThemeChanged EventType = "system.theme_changed"
	EventDataReset    EventType = "system.data_reset"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Student Events
// ═══════════════════════════════════════════════════════════════════════════

// StudentRegisteredEvent is emitted when a new student record is created.
type StudentRegisteredEvent struct {
	BaseEvent
	Name    string `json:"name"`
	Email   string `json:"email"`
	Program string `json:"program"`
}

// Payload implements Event interface.
func (e StudentRegisteredEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"name":    e.Name,
		"email":   e.Email,
		"program": e.Program,
	}
}

// NewStudentRegisteredEvent creates a new StudentRegisteredEvent.
func NewStudentRegisteredEvent(nrp, name, email, program string) StudentRegisteredEvent {
	return StudentRegisteredEvent{
		BaseEvent: NewBaseEvent(EventStudentRegistered, nrp),
		Name:      name,
		Email:     email,
		Program:   program,
	}
}

// StudentUpdatedEvent is emitted when a student record is replaced.
type StudentUpdatedEvent struct {
	BaseEvent
	PhotoChanged bool `json:"photo_changed"`
}

// Payload implements Event interface.
func (e StudentUpdatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"photo_changed": e.PhotoChanged,
	}
}

// NewStudentUpdatedEvent creates a new StudentUpdatedEvent.
func NewStudentUpdatedEvent(nrp string, photoChanged bool) StudentUpdatedEvent {
	return StudentUpdatedEvent{
		BaseEvent:    NewBaseEvent(EventStudentUpdated, nrp),
		PhotoChanged: photoChanged,
	}
}

// StudentDeletedEvent is emitted when delete actually removed a record.
// Deleting an unknown NRP succeeds silently and emits nothing.
type StudentDeletedEvent struct {
	BaseEvent
}

// Payload implements Event interface.
func (e StudentDeletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{}
}

// NewStudentDeletedEvent creates a new StudentDeletedEvent.
func NewStudentDeletedEvent(nrp string) StudentDeletedEvent {
	return StudentDeletedEvent{BaseEvent: NewBaseEvent(EventStudentDeleted, nrp)}
}

// ═══════════════════════════════════════════════════════════════════════════
// Social Events
// ═══════════════════════════════════════════════════════════════════════════

// FriendAddedEvent is emitted when a new friend link is stored.
type FriendAddedEvent struct {
	BaseEvent
	LinkID     int64 `json:"link_id"`
	TotalCount int   `json:"total_count"`
}

// Payload implements Event interface.
func (e FriendAddedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"link_id":     e.LinkID,
		"total_count": e.TotalCount,
	}
}

// NewFriendAddedEvent creates a new FriendAddedEvent.
func NewFriendAddedEvent(nrp string, linkID int64, totalCount int) FriendAddedEvent {
	return FriendAddedEvent{
		BaseEvent:  NewBaseEvent(EventFriendAdded, nrp),
		LinkID:     linkID,
		TotalCount: totalCount,
	}
}

// FriendsResetEvent is emitted when every friend link is dropped.
type FriendsResetEvent struct {
	BaseEvent
	Removed int `json:"removed"`
}

// Payload implements Event interface.
func (e FriendsResetEvent) Payload() map[string]interface{} {
	return map[string]interface{}{"removed": e.Removed}
}

// NewFriendsResetEvent creates a new FriendsResetEvent.
func NewFriendsResetEvent(removed int) FriendsResetEvent {
	return FriendsResetEvent{
		BaseEvent: NewBaseEvent(EventFriendsReset, "friends"),
		Removed:   removed,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// System Events
// ═══════════════════════════════════════════════════════════════════════════

// ThemeChangedEvent is emitted when the theme preference is written.
type ThemeChangedEvent struct {
	BaseEvent
	Theme Theme `json:"theme"`
}

// Payload implements Event interface.
func (e ThemeChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{"theme": string(e.Theme)}
}

// NewThemeChangedEvent creates a new ThemeChangedEvent.
func NewThemeChangedEvent(theme Theme) ThemeChangedEvent {
	return ThemeChangedEvent{
		BaseEvent: NewBaseEvent(EventThemeChanged, "settings"),
		Theme:     theme,
	}
}

// DataResetEvent is emitted after every collection and the theme were cleared.
type DataResetEvent struct {
	BaseEvent
}

// Payload implements Event interface.
func (e DataResetEvent) Payload() map[string]interface{} {
	return map[string]interface{}{}
}

// NewDataResetEvent creates a new DataResetEvent.
func NewDataResetEvent() DataResetEvent {
	return DataResetEvent{BaseEvent: NewBaseEvent(EventDataReset, "hub")}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Envelope (for serialization and transport)
// ═══════════════════════════════════════════════════════════════════════════

// EventEnvelope wraps an event for transport/storage.
type EventEnvelope struct {
	ID            string          `json:"id"`
	Type          EventType       `json:"type"`
	AggregateID   string          `json:"aggregate_id"`
	Timestamp     time.Time       `json:"timestamp"`
	Version       int             `json:"version"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// NewEventEnvelope serialises event under the given id.
func NewEventEnvelope(id string, event Event) (EventEnvelope, error) {
	payload, err := json.Marshal(event.Payload())
	if err != nil {
		return EventEnvelope{}, err
	}
	return EventEnvelope{
		ID:          id,
		Type:        event.EventType(),
		AggregateID: event.AggregateID(),
		Timestamp:   event.OccurredAt(),
		Version:     1,
		Payload:     payload,
	}, nil
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}

// NopPublisher drops every event. Handlers fall back to it when no bus is wired.
type NopPublisher struct{}

// Publish implements EventPublisher.
func (NopPublisher) Publish(Event) error { return nil }
