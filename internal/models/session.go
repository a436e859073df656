package models

import "time"

// Session is a persisted login session. The row is the source of truth
// for whether a user is logged in; the JWT handed to the browser only
// mirrors it via the token value.
type Session struct {
	Token     string    `json:"-"`
	UserID    string    `json:"userId"`
	IPAddress *string   `json:"ipAddress,omitempty"`
	UserAgent *string   `json:"userAgent,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// Expired reports whether the session is past its fixed expiry.
func (s Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
