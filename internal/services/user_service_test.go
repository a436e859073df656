package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticate_Success(t *testing.T) {
	svc := NewUserService(newTestDB(t))
	created, err := svc.CreateUser("budi", "rahasia123", "admin", 2, nil)
	require.NoError(t, err)

	user, err := svc.Authenticate("budi", "rahasia123", "127.0.0.1:54321")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
	assert.Equal(t, "budi", user.Username)
	assert.Equal(t, 2, user.Level)
	assert.Equal(t, "admin", user.HakAkses)
	// The identity projection never carries the secret material.
	assert.Empty(t, user.PasswordHash)
	assert.Nil(t, user.MachineID)
}

func TestAuthenticate_GenericFailure(t *testing.T) {
	svc := NewUserService(newTestDB(t))
	_, err := svc.CreateUser("budi", "rahasia123", "user", 1, nil)
	require.NoError(t, err)

	cases := []struct {
		name               string
		username, password string
	}{
		{"unknown user", "siapa", "rahasia123"},
		{"wrong password", "budi", "salah"},
		{"empty username", "", "rahasia123"},
		{"empty password", "budi", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Authenticate(tc.username, tc.password, "127.0.0.1:54321")
			// Every failure mode collapses into the same error.
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}
}

func TestAuthenticate_MachineBinding(t *testing.T) {
	svc := NewUserService(newTestDB(t))
	machine := "10.0.0.5"
	_, err := svc.CreateUser("operator", "rahasia123", "user", 1, &machine)
	require.NoError(t, err)

	t.Run("matching address", func(t *testing.T) {
		_, err := svc.Authenticate("operator", "rahasia123", "10.0.0.5:40000")
		assert.NoError(t, err)
	})

	t.Run("mapped ipv6 address", func(t *testing.T) {
		_, err := svc.Authenticate("operator", "rahasia123", "::ffff:10.0.0.5")
		assert.NoError(t, err)
	})

	t.Run("other machine", func(t *testing.T) {
		_, err := svc.Authenticate("operator", "rahasia123", "10.0.0.6:40000")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestNormalizeAddr(t *testing.T) {
	cases := map[string]string{
		"10.0.0.5":               "10.0.0.5",
		"10.0.0.5:40000":         "10.0.0.5",
		"::ffff:10.0.0.5":        "10.0.0.5",
		"[::ffff:10.0.0.5]:8080": "10.0.0.5",
		"[::1]:8080":             "::1",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeAddr(in), in)
	}
}

func TestUpdatePassword(t *testing.T) {
	svc := NewUserService(newTestDB(t))
	user, err := svc.CreateUser("budi", "lama12345", "user", 1, nil)
	require.NoError(t, err)

	require.Error(t, svc.UpdatePassword(user.ID, "salah", "baru12345"))
	require.NoError(t, svc.UpdatePassword(user.ID, "lama12345", "baru12345"))

	_, err = svc.Authenticate("budi", "lama12345", "127.0.0.1:1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate("budi", "baru12345", "127.0.0.1:1")
	assert.NoError(t, err)
}

func TestListUsers_NoSecretsExposed(t *testing.T) {
	svc := NewUserService(newTestDB(t))
	_, err := svc.CreateUser("budi", "rahasia123", "user", 1, nil)
	require.NoError(t, err)

	users, err := svc.ListUsers()
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Empty(t, users[0].PasswordHash)
}
