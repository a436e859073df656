package services

import (
	"database/sql"

	"github.com/google/uuid"

	"github.com/alvifsandana/qms-be/internal/models"
)

// EventBroadcaster pushes an event to live listeners. Implemented by
// the websocket hub; nil disables broadcasting.
type EventBroadcaster interface {
	BroadcastEvent(event models.Event)
}

// EventServiceProvider defines the interface for audit event services.
type EventServiceProvider interface {
	Record(eventType, level, message string, userID *string) error
	GetRecentEvents(limit int) ([]models.Event, error)
}

// EventService provides the audit trail: every security-relevant
// action is persisted and optionally broadcast to connected clients.
type EventService struct {
	db  *sql.DB
	hub EventBroadcaster
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB, hub EventBroadcaster) *EventService {
	return &EventService{db: db, hub: hub}
}

// Record logs a new audit event to the database and broadcasts it.
func (s *EventService) Record(eventType, level, message string, userID *string) error {
	event := models.Event{
		ID:      uuid.New().String(),
		Type:    eventType,
		Level:   level,
		Message: message,
		UserID:  userID,
	}

	stmt, err := s.db.Prepare("INSERT INTO events (id, type, level, message, user_id) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	if _, err := stmt.Exec(event.ID, event.Type, event.Level, event.Message, event.UserID); err != nil {
		return err
	}

	if s.hub != nil {
		s.hub.BroadcastEvent(event)
	}
	return nil
}

// GetRecentEvents retrieves the most recent audit events.
func (s *EventService) GetRecentEvents(limit int) ([]models.Event, error) {
	rows, err := s.db.Query("SELECT id, type, level, message, user_id, created_at FROM events ORDER BY created_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var event models.Event
		if err := rows.Scan(&event.ID, &event.Type, &event.Level, &event.Message, &event.UserID, &event.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
