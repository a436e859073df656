package models

import "time"

// User represents a login account in the credential store.
//
// Level is the numeric access level and HakAkses the access role label
// carried over from the legacy schema. MachineID, when set, binds the
// account to a single originating network address.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // Never expose this to the client
	Level        int       `json:"level"`
	HakAkses     string    `json:"hak_akses"`
	MachineID    *string   `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}
