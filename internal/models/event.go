package models

import "time"

// Event represents an audit log entry.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`  // e.g., "auth.login", "attachment.upload"
	Level     string    `json:"level"` // e.g., "info", "warn", "error"
	Message   string    `json:"message"`
	UserID    *string   `json:"userId,omitempty"` // Nullable for anonymous events
	CreatedAt time.Time `json:"createdAt"`
}
