package services

import (
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/alvifsandana/qms-be/internal/models"
)

// ErrInvalidCredentials is returned for every authentication failure.
// It deliberately does not distinguish a bad username from a bad
// password or a machine mismatch.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	GetUserByID(id string) (models.User, error)
	CreateUser(username, password, hakAkses string, level int, machineID *string) (models.User, error)
	UpdateUser(id, username, hakAkses string, level int) (models.User, error)
	UpdatePassword(id, currentPassword, newPassword string) error
	DeleteUser(id string) error
	ListUsers() ([]models.User, error)
	Authenticate(username, password, remoteAddr string) (models.User, error)
}

// UserService provides business logic for user management.
type UserService struct {
	db *sql.DB
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB) *UserService {
	return &UserService{db: db}
}

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(id string) (models.User, error) {
	var user models.User
	row := s.db.QueryRow("SELECT id, username, level, hak_akses, created_at FROM users WHERE id = ?", id)
	err := row.Scan(&user.ID, &user.Username, &user.Level, &user.HakAkses, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, fmt.Errorf("user with ID %s not found", id)
		}
		return models.User{}, err
	}
	return user, nil
}

// getUserByUsername retrieves a user by username including the password
// hash and bound machine identifier. Internal to authentication.
func (s *UserService) getUserByUsername(username string) (models.User, error) {
	var user models.User
	row := s.db.QueryRow("SELECT id, username, password_hash, level, hak_akses, machine_id, created_at FROM users WHERE username = ?", username)
	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Level, &user.HakAkses, &user.MachineID, &user.CreatedAt)
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// CreateUser creates a new user, hashing their password.
func (s *UserService) CreateUser(username, password, hakAkses string, level int, machineID *string) (models.User, error) {
	if username == "" || password == "" {
		return models.User{}, fmt.Errorf("username and password are required")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: string(hashedPassword),
		Level:        level,
		HakAkses:     hakAkses,
		MachineID:    machineID,
	}

	stmt, err := s.db.Prepare("INSERT INTO users(id, username, password_hash, level, hak_akses, machine_id) VALUES(?, ?, ?, ?, ?, ?)")
	if err != nil {
		return models.User{}, err
	}
	defer stmt.Close()

	_, err = stmt.Exec(user.ID, user.Username, user.PasswordHash, user.Level, user.HakAkses, user.MachineID)
	if err != nil {
		return models.User{}, err
	}

	user.PasswordHash = ""
	return user, nil
}

// UpdateUser updates a user's non-sensitive information.
func (s *UserService) UpdateUser(id, username, hakAkses string, level int) (models.User, error) {
	stmt, err := s.db.Prepare("UPDATE users SET username = ?, hak_akses = ?, level = ? WHERE id = ?")
	if err != nil {
		return models.User{}, err
	}
	defer stmt.Close()

	_, err = stmt.Exec(username, hakAkses, level, id)
	if err != nil {
		return models.User{}, err
	}
	return s.GetUserByID(id)
}

// UpdatePassword verifies the current password, then hashes and sets a new password for a user.
func (s *UserService) UpdatePassword(id, currentPassword, newPassword string) error {
	var hash string
	row := s.db.QueryRow("SELECT password_hash FROM users WHERE id = ?", id)
	if err := row.Scan(&hash); err != nil {
		return fmt.Errorf("could not find user to update password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(currentPassword)); err != nil {
		return fmt.Errorf("current password is incorrect")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}

	_, err = s.db.Exec("UPDATE users SET password_hash = ? WHERE id = ?", string(hashedPassword), id)
	return err
}

// DeleteUser removes a user from the database.
func (s *UserService) DeleteUser(id string) error {
	_, err := s.db.Exec("DELETE FROM users WHERE id = ?", id)
	return err
}

// ListUsers retrieves all user accounts without sensitive fields.
func (s *UserService) ListUsers() ([]models.User, error) {
	rows, err := s.db.Query("SELECT id, username, level, hak_akses, created_at FROM users ORDER BY username")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.Username, &user.Level, &user.HakAkses, &user.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// Authenticate verifies a user's credentials and, when the account is
// bound to a machine, the originating network address. Every failure
// mode yields ErrInvalidCredentials.
func (s *UserService) Authenticate(username, password, remoteAddr string) (models.User, error) {
	if username == "" || password == "" {
		return models.User{}, ErrInvalidCredentials
	}

	user, err := s.getUserByUsername(username)
	if err != nil {
		return models.User{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}

	if user.MachineID != nil && *user.MachineID != NormalizeAddr(remoteAddr) {
		return models.User{}, ErrInvalidCredentials
	}

	user.PasswordHash = ""
	user.MachineID = nil
	return user, nil
}

// NormalizeAddr reduces a request remote address to a bare IP string,
// stripping any port and the IPv4-mapped IPv6 prefix.
func NormalizeAddr(remoteAddr string) string {
	addr := remoteAddr
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		addr = host
	}
	return strings.TrimPrefix(addr, "::ffff:")
}
