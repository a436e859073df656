package services

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/alvifsandana/qms-be/internal/models"
)

// ErrNoSession is returned when a token does not reference a live,
// unexpired session row.
var ErrNoSession = errors.New("no active session")

// SessionServiceProvider defines the interface for session services.
type SessionServiceProvider interface {
	Create(userID string, ipAddress, userAgent *string) (models.Session, error)
	Get(token string) (models.Session, error)
	Active(token string) bool
	Delete(token string) error
	PurgeExpired() (int64, error)
}

// SessionService persists login sessions. Expiry is fixed at issuance;
// there is no sliding renewal.
type SessionService struct {
	db  *sql.DB
	ttl time.Duration
}

// NewSessionService creates a new SessionService with the given
// session lifetime.
func NewSessionService(db *sql.DB, ttl time.Duration) *SessionService {
	return &SessionService{db: db, ttl: ttl}
}

// newToken generates a 256-bit random session token.
func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Create issues a new session row for a user.
func (s *SessionService) Create(userID string, ipAddress, userAgent *string) (models.Session, error) {
	token, err := newToken()
	if err != nil {
		return models.Session{}, err
	}

	session := models.Session{
		Token:     token,
		UserID:    userID,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		ExpiresAt: time.Now().Add(s.ttl).UTC(),
	}

	stmt, err := s.db.Prepare("INSERT INTO sessions(token, user_id, ip_address, user_agent, expires_at) VALUES(?, ?, ?, ?, ?)")
	if err != nil {
		return models.Session{}, err
	}
	defer stmt.Close()

	if _, err := stmt.Exec(session.Token, session.UserID, session.IPAddress, session.UserAgent, session.ExpiresAt); err != nil {
		return models.Session{}, err
	}
	return session, nil
}

// Get looks up a session by token. Absent or expired rows yield
// ErrNoSession.
func (s *SessionService) Get(token string) (models.Session, error) {
	var session models.Session
	row := s.db.QueryRow("SELECT token, user_id, ip_address, user_agent, expires_at, created_at FROM sessions WHERE token = ?", token)
	err := row.Scan(&session.Token, &session.UserID, &session.IPAddress, &session.UserAgent, &session.ExpiresAt, &session.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Session{}, ErrNoSession
		}
		return models.Session{}, err
	}
	if session.Expired(time.Now()) {
		return models.Session{}, ErrNoSession
	}
	return session, nil
}

// Active reports whether the token references a live session. Lookup
// errors count as no session; the caller never sees them.
func (s *SessionService) Active(token string) bool {
	_, err := s.Get(token)
	return err == nil
}

// Delete removes a session row. Deleting an absent row is not an error.
func (s *SessionService) Delete(token string) error {
	_, err := s.db.Exec("DELETE FROM sessions WHERE token = ?", token)
	return err
}

// PurgeExpired removes every expired session row and returns the count.
func (s *SessionService) PurgeExpired() (int64, error) {
	res, err := s.db.Exec("DELETE FROM sessions WHERE expires_at <= ?", time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
